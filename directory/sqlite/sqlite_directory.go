// Package sqlite stores the directory in a single SQLite database file.
// The schema is applied on open, so there is nothing to migrate.
package sqlite

import (
	"context"
	"errors"
	"fmt"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"

	"github.com/coursegate/coursegate"
)

const schema = `
CREATE TABLE IF NOT EXISTS role_assignments (
	actor_id TEXT NOT NULL,
	role     TEXT NOT NULL,
	scope    TEXT NOT NULL DEFAULT '',
	PRIMARY KEY (actor_id, role, scope)
);

CREATE TABLE IF NOT EXISTS enrollment_allowlist (
	email     TEXT NOT NULL,
	course_id TEXT NOT NULL,
	PRIMARY KEY (email, course_id)
);

CREATE TABLE IF NOT EXISTS external_auth_records (
	actor_id TEXT NOT NULL,
	domain   TEXT NOT NULL,
	PRIMARY KEY (actor_id, domain)
);
`

const poolSize = 10

type Directory struct {
	pool *sqlitex.Pool
}

func NewDirectory(filepath string) (*Directory, error) {
	pool, err := sqlitex.Open(filepath, 0, poolSize)
	if err != nil {
		return nil, err
	}
	d := &Directory{pool}
	if err := d.applySchema(context.Background()); err != nil {
		pool.Close()
		return nil, fmt.Errorf("applying schema: %w", err)
	}
	return d, nil
}

func (d *Directory) applySchema(ctx context.Context) error {
	conn := d.pool.Get(ctx)
	if conn == nil {
		return errPoolClosed(ctx)
	}
	defer d.pool.Put(conn)
	return sqlitex.ExecuteScript(conn, schema, nil)
}

// errPoolClosed names the reason Get returned no connection.
func errPoolClosed(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return errors.New("sqlite: connection pool closed")
}

func (d *Directory) Close() error {
	return d.pool.Close()
}

func (d *Directory) GrantRole(ctx context.Context, actorID string, role coursegate.RoleKind, scope coursegate.CourseKey) error {
	return d.exec(ctx, "INSERT OR IGNORE INTO role_assignments (actor_id, role, scope) VALUES (?, ?, ?)",
		actorID, string(role), coursegate.RoleScope(role, scope))
}

func (d *Directory) RevokeRole(ctx context.Context, actorID string, role coursegate.RoleKind, scope coursegate.CourseKey) error {
	return d.exec(ctx, "DELETE FROM role_assignments WHERE actor_id=? AND role=? AND scope=?",
		actorID, string(role), coursegate.RoleScope(role, scope))
}

// HasRole implements coursegate.RoleDirectory. Lookup failures deny.
func (d *Directory) HasRole(ctx context.Context, actor *coursegate.Actor, role coursegate.RoleKind, scope coursegate.CourseKey) bool {
	if actor.IsAnonymous() {
		return false
	}
	return d.exists(ctx, "SELECT 1 FROM role_assignments WHERE actor_id=? AND role=? AND scope=?",
		actor.ID, string(role), coursegate.RoleScope(role, scope))
}

func (d *Directory) AllowEnrollment(ctx context.Context, email string, course coursegate.CourseKey) error {
	return d.exec(ctx, "INSERT OR IGNORE INTO enrollment_allowlist (email, course_id) VALUES (?, ?)",
		email, course.String())
}

// Contains implements coursegate.EnrollmentAllowlist.
func (d *Directory) Contains(ctx context.Context, email string, scope coursegate.CourseKey) bool {
	return d.exists(ctx, "SELECT 1 FROM enrollment_allowlist WHERE email=? AND course_id=?",
		email, scope.String())
}

func (d *Directory) RecordExternalAuth(ctx context.Context, actorID, domain string) error {
	return d.exec(ctx, "INSERT OR IGNORE INTO external_auth_records (actor_id, domain) VALUES (?, ?)",
		actorID, domain)
}

// MatchesDomain implements coursegate.ExternalAuthRecords.
func (d *Directory) MatchesDomain(ctx context.Context, actor *coursegate.Actor, domain string) bool {
	if actor.IsAnonymous() {
		return false
	}
	return d.exists(ctx, "SELECT 1 FROM external_auth_records WHERE actor_id=? AND domain=?",
		actor.ID, domain)
}

func (d *Directory) exec(ctx context.Context, query string, args ...any) error {
	conn := d.pool.Get(ctx)
	if conn == nil {
		return errPoolClosed(ctx)
	}
	defer d.pool.Put(conn)
	return sqlitex.Execute(conn, query, &sqlitex.ExecOptions{Args: args})
}

func (d *Directory) exists(ctx context.Context, query string, args ...any) bool {
	conn := d.pool.Get(ctx)
	if conn == nil {
		return false
	}
	defer d.pool.Put(conn)
	found := false
	err := sqlitex.Execute(conn, query, &sqlitex.ExecOptions{
		Args: args,
		ResultFunc: func(*sqlite.Stmt) error {
			found = true
			return nil
		},
	})
	return err == nil && found
}
