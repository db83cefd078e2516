package coursegate

import "context"

// The checker treats all collaborators as prompt, idempotent, read-only
// queries. It never caches their answers, retries them or times them out;
// that is the implementation's business. All of them must be safe for
// concurrent use.

// RoleDirectory answers live role-membership queries. Implementations must
// report false for anonymous actors and resolve the scope with [RoleScope]
// semantics (global roles ignore the scope, org roles match on the org).
type RoleDirectory interface {
	HasRole(ctx context.Context, actor *Actor, role RoleKind, scope CourseKey) bool
}

// PrerequisiteTracker knows which prerequisite courses an actor has
// completed.
type PrerequisiteTracker interface {
	// Incomplete reports whether any of the given courses is not yet
	// completed by the actor.
	Incomplete(ctx context.Context, actor *Actor, courses []CourseKey) bool
}

// ExternalAuthRecords knows which external authentication domain an actor
// registered through.
type ExternalAuthRecords interface {
	MatchesDomain(ctx context.Context, actor *Actor, domain string) bool
}

// EnrollmentAllowlist holds pre-approved enrollments, keyed by email and
// course.
type EnrollmentAllowlist interface {
	Contains(ctx context.Context, email string, scope CourseKey) bool
}

// MasqueradeState exposes the staff-only "view as" session override.
type MasqueradeState interface {
	// IsStudentMasquerade reports whether the actor is currently viewing
	// the scope as a student, which suppresses their staff and instructor
	// access there.
	IsStudentMasquerade(ctx context.Context, actor *Actor, scope CourseKey) bool
	// RoleOverride returns the role the actor is masquerading as, if any.
	RoleOverride(ctx context.Context, actor *Actor, scope CourseKey) (RoleKind, bool)
}

// RequestContext resolves the hostname the current request arrived on, used
// for the preview-host override. Implementations return "" when there is no
// request.
type RequestContext interface {
	Hostname(ctx context.Context) string
}

// TelemetrySink receives counter events for deprecated code paths. The
// default sink discards them; see the telemetry package for a Prometheus
// implementation.
type TelemetrySink interface {
	Increment(event string, tags ...string)
}

// EventLegacyStaffVisibility is emitted whenever a check runs under the
// deprecated require-staff-for-course-visibility feature flag.
const EventLegacyStaffVisibility = "deprecated_staff_course_visibility"

type noMasquerade struct{}

func (noMasquerade) IsStudentMasquerade(context.Context, *Actor, CourseKey) bool {
	return false
}

func (noMasquerade) RoleOverride(context.Context, *Actor, CourseKey) (RoleKind, bool) {
	return "", false
}

type noPrerequisites struct{}

func (noPrerequisites) Incomplete(context.Context, *Actor, []CourseKey) bool {
	return false
}

type noExternalAuth struct{}

func (noExternalAuth) MatchesDomain(context.Context, *Actor, string) bool {
	return false
}

type noAllowlist struct{}

func (noAllowlist) Contains(context.Context, string, CourseKey) bool {
	return false
}

type noRequest struct{}

func (noRequest) Hostname(context.Context) string {
	return ""
}

type noTelemetry struct{}

func (noTelemetry) Increment(string, ...string) {}
