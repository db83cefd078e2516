// Package pebble stores the directory in an embedded pebble key-value
// store. Grants, allowlist entries and external-auth records are encoded
// into the keyspace; values stay empty.
package pebble

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cockroachdb/pebble"

	"github.com/coursegate/coursegate"
)

type Directory struct {
	db *pebble.DB
}

func NewDirectory(dirname string) (*Directory, error) {
	db, err := pebble.Open(dirname, &pebble.Options{})
	return &Directory{db}, err
}

func (d *Directory) Close() error {
	return d.db.Close()
}

// GrantRole implements the testsuite write API.
func (d *Directory) GrantRole(_ context.Context, actorID string, role coursegate.RoleKind, scope coursegate.CourseKey) error {
	return d.db.Set(roleKey(actorID, role, scope), nil, pebble.Sync)
}

func (d *Directory) RevokeRole(_ context.Context, actorID string, role coursegate.RoleKind, scope coursegate.CourseKey) error {
	return d.db.Delete(roleKey(actorID, role, scope), pebble.Sync)
}

// HasRole implements coursegate.RoleDirectory.
func (d *Directory) HasRole(_ context.Context, actor *coursegate.Actor, role coursegate.RoleKind, scope coursegate.CourseKey) bool {
	if actor.IsAnonymous() {
		return false
	}
	return d.has(roleKey(actor.ID, role, scope))
}

// Roles lists all grants of an actor by iterating the actor's key prefix.
func (d *Directory) Roles(_ context.Context, actorID string) ([]coursegate.RoleKind, error) {
	prefix := []byte("role!" + actorID + "!")
	iter, err := d.db.NewIter(prefixIterOptions(prefix))
	if err != nil {
		return nil, err
	}
	roles := []coursegate.RoleKind{}
	for iter.First(); iter.Valid(); iter.Next() {
		parts := strings.SplitN(string(iter.Key()), "!", 4)
		if len(parts) == 4 {
			roles = append(roles, coursegate.RoleKind(parts[2]))
		}
	}
	if err := iter.Close(); err != nil {
		return nil, err
	}
	return roles, nil
}

func (d *Directory) AllowEnrollment(_ context.Context, email string, course coursegate.CourseKey) error {
	return d.db.Set(allowKey(email, course), nil, pebble.Sync)
}

// Contains implements coursegate.EnrollmentAllowlist.
func (d *Directory) Contains(_ context.Context, email string, scope coursegate.CourseKey) bool {
	return d.has(allowKey(email, scope))
}

func (d *Directory) RecordExternalAuth(_ context.Context, actorID, domain string) error {
	return d.db.Set(authKey(actorID, domain), nil, pebble.Sync)
}

// MatchesDomain implements coursegate.ExternalAuthRecords.
func (d *Directory) MatchesDomain(_ context.Context, actor *coursegate.Actor, domain string) bool {
	if actor.IsAnonymous() {
		return false
	}
	return d.has(authKey(actor.ID, domain))
}

func (d *Directory) has(key []byte) bool {
	_, closer, err := d.db.Get(key)
	if errors.Is(err, pebble.ErrNotFound) {
		return false
	} else if err != nil {
		return false
	}
	closer.Close()
	return true
}

func roleKey(actorID string, role coursegate.RoleKind, scope coursegate.CourseKey) []byte {
	return []byte(fmt.Sprintf("role!%s!%s!%s", actorID, role, coursegate.RoleScope(role, scope)))
}

func allowKey(email string, course coursegate.CourseKey) []byte {
	return []byte(fmt.Sprintf("allow!%s!%s", course.String(), email))
}

func authKey(actorID, domain string) []byte {
	return []byte(fmt.Sprintf("extauth!%s!%s", actorID, domain))
}

func keyUpperBound(b []byte) []byte {
	end := make([]byte, len(b))
	copy(end, b)
	for i := len(end) - 1; i >= 0; i-- {
		end[i] = end[i] + 1
		if end[i] != 0 {
			return end[:i+1]
		}
	}
	return nil // no upper-bound
}

func prefixIterOptions(prefix []byte) *pebble.IterOptions {
	return &pebble.IterOptions{
		LowerBound: prefix,
		UpperBound: keyUpperBound(prefix),
	}
}
