// Package memory provides an in-memory reference implementation of the
// coursegate collaborator stores: role directory, enrollment allowlist and
// external-auth records. It is primarily useful for tests, examples and
// tools; production deployments should use one of the persistent backends.
package memory

import (
	"context"
	"sync"

	"github.com/coursegate/coursegate"
)

type grant struct {
	actorID string
	role    coursegate.RoleKind
	scope   string
}

type allowance struct {
	email  string
	course string
}

type authRecord struct {
	actorID string
	domain  string
}

// Directory is safe for concurrent use.
type Directory struct {
	mu     sync.RWMutex
	grants map[grant]struct{}
	allows map[allowance]struct{}
	auth   map[authRecord]struct{}
}

func NewDirectory() *Directory {
	return &Directory{
		grants: map[grant]struct{}{},
		allows: map[allowance]struct{}{},
		auth:   map[authRecord]struct{}{},
	}
}

func (d *Directory) Close() error {
	return nil
}

// GrantRole records that the actor holds the role for the scope. Pass a key
// with only Org set for org roles and the zero key for global roles.
func (d *Directory) GrantRole(_ context.Context, actorID string, role coursegate.RoleKind, scope coursegate.CourseKey) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.grants[grant{actorID, role, coursegate.RoleScope(role, scope)}] = struct{}{}
	return nil
}

// RevokeRole removes a grant; revoking an absent grant is not an error.
func (d *Directory) RevokeRole(_ context.Context, actorID string, role coursegate.RoleKind, scope coursegate.CourseKey) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.grants, grant{actorID, role, coursegate.RoleScope(role, scope)})
	return nil
}

// HasRole implements coursegate.RoleDirectory.
func (d *Directory) HasRole(_ context.Context, actor *coursegate.Actor, role coursegate.RoleKind, scope coursegate.CourseKey) bool {
	if actor.IsAnonymous() {
		return false
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	_, ok := d.grants[grant{actor.ID, role, coursegate.RoleScope(role, scope)}]
	return ok
}

// AllowEnrollment pre-approves an email for enrollment into the course.
func (d *Directory) AllowEnrollment(_ context.Context, email string, course coursegate.CourseKey) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.allows[allowance{email, course.String()}] = struct{}{}
	return nil
}

// Contains implements coursegate.EnrollmentAllowlist.
func (d *Directory) Contains(_ context.Context, email string, scope coursegate.CourseKey) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	_, ok := d.allows[allowance{email, scope.String()}]
	return ok
}

// RecordExternalAuth records the external authentication domain the actor
// registered through.
func (d *Directory) RecordExternalAuth(_ context.Context, actorID, domain string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.auth[authRecord{actorID, domain}] = struct{}{}
	return nil
}

// MatchesDomain implements coursegate.ExternalAuthRecords.
func (d *Directory) MatchesDomain(_ context.Context, actor *coursegate.Actor, domain string) bool {
	if actor.IsAnonymous() {
		return false
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	_, ok := d.auth[authRecord{actor.ID, domain}]
	return ok
}
