package coursegate

// Actor is the identity an access check is evaluated for. It intentionally
// carries no role memberships; those are looked up through the
// [RoleDirectory] on every check so revocations take effect immediately.
type Actor struct {
	// ID is an opaque stable identifier, e.g. a username or a uuid.
	ID string
	// Email is used by the enrollment allowlist.
	Email string
	// Authenticated is false for visitors without a session.
	Authenticated bool
}

// Anonymous returns the actor used when a check is invoked without one.
func Anonymous() *Actor {
	return &Actor{}
}

// IsAnonymous reports whether the actor is absent or unauthenticated.
func (a *Actor) IsAnonymous() bool {
	return a == nil || !a.Authenticated
}

// label is used in debug traces.
func (a *Actor) label() string {
	if a.IsAnonymous() {
		return "anonymous"
	}
	return a.ID
}
