package coursegate

import (
	"context"
	"log/slog"
)

// RoleKind names a role an actor can hold for a scope.
type RoleKind string

const (
	// RoleGlobalStaff supersedes every scope-specific check.
	RoleGlobalStaff RoleKind = "global_staff"
	// RoleCourseStaff grants staff access to one course run.
	RoleCourseStaff RoleKind = "course_staff"
	// RoleCourseInstructor grants instructor (and therefore staff) access
	// to one course run.
	RoleCourseInstructor RoleKind = "course_instructor"
	// RoleOrgStaff grants staff access to every course of an org.
	RoleOrgStaff RoleKind = "org_staff"
	// RoleOrgInstructor grants instructor access to every course of an org.
	RoleOrgInstructor RoleKind = "org_instructor"
	// RoleBetaTester sees date-gated content early, per the block's
	// DaysEarlyForBeta.
	RoleBetaTester RoleKind = "beta_tester"
)

// RoleScope canonicalizes the scope a role grant is stored under: the empty
// string for global roles, the org for org roles and the full course key
// otherwise. Directory implementations should use it on both the write and
// the read path so grants and lookups agree.
func RoleScope(role RoleKind, scope CourseKey) string {
	switch role {
	case RoleGlobalStaff:
		return ""
	case RoleOrgStaff, RoleOrgInstructor:
		return scope.Org
	default:
		return scope.String()
	}
}

// accessLevel is the granularity hasCourseAccess understands.
type accessLevel string

const (
	levelStaff      accessLevel = "staff"
	levelInstructor accessLevel = "instructor"
)

// hasCourseAccess reports whether the actor has staff- or instructor-level
// access to the course with the given key. Masquerading as a student
// suppresses both levels for that scope; the instructor roles satisfy a
// staff-level query.
func (c *Checker) hasCourseAccess(ctx context.Context, actor *Actor, level accessLevel, scope CourseKey) bool {
	if actor.IsAnonymous() {
		return false
	}

	if c.masquerade.IsStudentMasquerade(ctx, actor, scope) {
		return false
	}

	if c.roles.HasRole(ctx, actor, RoleGlobalStaff, CourseKey{}) {
		return true
	}

	if level != levelStaff && level != levelInstructor {
		// Unknown levels are a programming error; deny rather than guess.
		c.log.Error("unknown course access level, denying",
			slog.String("level", string(level)),
			slog.String("scope", scope.String()))
		return false
	}

	staffAccess := c.roles.HasRole(ctx, actor, RoleCourseStaff, scope) ||
		c.roles.HasRole(ctx, actor, RoleOrgStaff, scope)
	if staffAccess && level == levelStaff {
		return true
	}

	instructorAccess := c.roles.HasRole(ctx, actor, RoleCourseInstructor, scope) ||
		c.roles.HasRole(ctx, actor, RoleOrgInstructor, scope)
	return instructorAccess
}

// UserRole returns "instructor", "staff" or "student" for the actor within
// the course, honoring a masquerade role override first. Intended for UI
// banners, not for gating content.
func (c *Checker) UserRole(ctx context.Context, actor *Actor, scope CourseKey) string {
	if role, ok := c.masquerade.RoleOverride(ctx, actor, scope); ok {
		switch role {
		case RoleCourseInstructor, RoleOrgInstructor:
			return "instructor"
		case RoleCourseStaff, RoleOrgStaff, RoleGlobalStaff:
			return "staff"
		default:
			return "student"
		}
	}
	switch {
	case c.hasCourseAccess(ctx, actor, levelInstructor, scope):
		return "instructor"
	case c.hasCourseAccess(ctx, actor, levelStaff, scope):
		return "staff"
	default:
		return "student"
	}
}
