// Package postgres stores the directory in PostgreSQL. The schema lives in
// the embedded migrations and is applied with [RunMigrations].
package postgres

import (
	"context"
	"embed"
	"log/slog"

	"github.com/gofrs/uuid/v5"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	pgxuuid "github.com/jackc/pgx-gofrs-uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/coursegate/coursegate"
)

//go:embed migrations/*.sql
var fs embed.FS

func RunMigrations(databaseURL string) error {
	driver, err := iofs.New(fs, "migrations")
	if err != nil {
		return err
	}
	migrations, err := migrate.NewWithSourceInstance("iofs", driver, databaseURL)
	if err != nil {
		return err
	}
	err = migrations.Up()
	if err != nil && err != migrate.ErrNoChange {
		return err
	}
	return nil
}

type Directory struct {
	pool *pgxpool.Pool
	log  *slog.Logger
}

// NewDirectory connects a pool to databaseURL. The read-side methods report
// false on query errors (fail closed) and log them through log, which
// defaults to slog.Default().
func NewDirectory(databaseURL string, log *slog.Logger) (*Directory, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, err
	}
	config.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		pgxuuid.Register(conn.TypeMap())
		return nil
	}
	pool, err := pgxpool.NewWithConfig(context.Background(), config)
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = slog.Default()
	}
	return &Directory{pool, log}, nil
}

func (d *Directory) Close() error {
	d.pool.Close()
	return nil
}

func (d *Directory) GrantRole(ctx context.Context, actorID string, role coursegate.RoleKind, scope coursegate.CourseKey) error {
	id, err := uuid.NewV7()
	if err != nil {
		return err
	}
	_, err = d.pool.Exec(ctx,
		"INSERT INTO role_assignments (uuid, actor_id, role, scope) VALUES ($1, $2, $3, $4) ON CONFLICT DO NOTHING",
		id, actorID, string(role), coursegate.RoleScope(role, scope))
	return err
}

func (d *Directory) RevokeRole(ctx context.Context, actorID string, role coursegate.RoleKind, scope coursegate.CourseKey) error {
	_, err := d.pool.Exec(ctx,
		"DELETE FROM role_assignments WHERE actor_id=$1 AND role=$2 AND scope=$3",
		actorID, string(role), coursegate.RoleScope(role, scope))
	return err
}

// HasRole implements coursegate.RoleDirectory.
func (d *Directory) HasRole(ctx context.Context, actor *coursegate.Actor, role coursegate.RoleKind, scope coursegate.CourseKey) bool {
	if actor.IsAnonymous() {
		return false
	}
	return d.exists(ctx,
		"SELECT EXISTS (SELECT 1 FROM role_assignments WHERE actor_id=$1 AND role=$2 AND scope=$3)",
		actor.ID, string(role), coursegate.RoleScope(role, scope))
}

func (d *Directory) AllowEnrollment(ctx context.Context, email string, course coursegate.CourseKey) error {
	id, err := uuid.NewV7()
	if err != nil {
		return err
	}
	_, err = d.pool.Exec(ctx,
		"INSERT INTO enrollment_allowlist (uuid, email, course_id) VALUES ($1, $2, $3) ON CONFLICT DO NOTHING",
		id, email, course.String())
	return err
}

// Contains implements coursegate.EnrollmentAllowlist.
func (d *Directory) Contains(ctx context.Context, email string, scope coursegate.CourseKey) bool {
	return d.exists(ctx,
		"SELECT EXISTS (SELECT 1 FROM enrollment_allowlist WHERE email=$1 AND course_id=$2)",
		email, scope.String())
}

func (d *Directory) RecordExternalAuth(ctx context.Context, actorID, domain string) error {
	id, err := uuid.NewV7()
	if err != nil {
		return err
	}
	_, err = d.pool.Exec(ctx,
		"INSERT INTO external_auth_records (uuid, actor_id, domain) VALUES ($1, $2, $3) ON CONFLICT DO NOTHING",
		id, actorID, domain)
	return err
}

// MatchesDomain implements coursegate.ExternalAuthRecords.
func (d *Directory) MatchesDomain(ctx context.Context, actor *coursegate.Actor, domain string) bool {
	if actor.IsAnonymous() {
		return false
	}
	return d.exists(ctx,
		"SELECT EXISTS (SELECT 1 FROM external_auth_records WHERE actor_id=$1 AND domain=$2)",
		actor.ID, domain)
}

func (d *Directory) exists(ctx context.Context, query string, args ...any) bool {
	found := false
	if err := d.pool.QueryRow(ctx, query, args...).Scan(&found); err != nil {
		d.log.Error("directory query failed, denying", slog.Any("error", err))
		return false
	}
	return found
}
