package coursegate

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var (
	demoKey    = MustParseCourseKey("course-v1:Demo+CS101+2026")
	sameOrgKey = MustParseCourseKey("course-v1:Demo+CS102+2026")
	otherKey   = MustParseCourseKey("course-v1:Other+HIST+2026")

	testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
)

// stubRoles is an in-test RoleDirectory keyed the same way the real
// directories key their grants.
type stubRoles map[string]struct{}

func grantKey(actorID string, role RoleKind, scope CourseKey) string {
	return actorID + "|" + string(role) + "|" + RoleScope(role, scope)
}

func (s stubRoles) grant(actorID string, role RoleKind, scope CourseKey) stubRoles {
	s[grantKey(actorID, role, scope)] = struct{}{}
	return s
}

func (s stubRoles) HasRole(_ context.Context, actor *Actor, role RoleKind, scope CourseKey) bool {
	if actor.IsAnonymous() {
		return false
	}
	_, ok := s[grantKey(actor.ID, role, scope)]
	return ok
}

// stubMasquerade pins the masquerade answers for one test.
type stubMasquerade struct {
	student  bool
	override RoleKind
}

func (s stubMasquerade) IsStudentMasquerade(context.Context, *Actor, CourseKey) bool {
	return s.student
}

func (s stubMasquerade) RoleOverride(context.Context, *Actor, CourseKey) (RoleKind, bool) {
	return s.override, s.override != ""
}

// stubHost answers Hostname with itself.
type stubHost string

func (h stubHost) Hostname(context.Context) string { return string(h) }

func testChecker(t *testing.T, cfg Config) *Checker {
	t.Helper()
	if cfg.Roles == nil {
		cfg.Roles = stubRoles{}
	}
	if cfg.Now == nil {
		cfg.Now = func() time.Time { return testNow }
	}
	c, err := NewChecker(cfg)
	require.NoError(t, err)
	return c
}

func authed(id string) *Actor {
	return &Actor{ID: id, Email: id + "@example.com", Authenticated: true}
}

func TestRoleScope(t *testing.T) {
	require.Equal(t, "", RoleScope(RoleGlobalStaff, demoKey))
	require.Equal(t, "Demo", RoleScope(RoleOrgStaff, demoKey))
	require.Equal(t, "Demo", RoleScope(RoleOrgInstructor, sameOrgKey))
	require.Equal(t, demoKey.String(), RoleScope(RoleCourseStaff, demoKey))
	require.Equal(t, demoKey.String(), RoleScope(RoleBetaTester, demoKey))
}

func TestHasCourseAccess(t *testing.T) {
	ctx := context.Background()
	roles := stubRoles{}.
		grant("root", RoleGlobalStaff, CourseKey{}).
		grant("staffer", RoleCourseStaff, demoKey).
		grant("prof", RoleCourseInstructor, demoKey).
		grant("orgprof", RoleOrgInstructor, demoKey)
	c := testChecker(t, Config{Roles: roles})

	require.False(t, c.hasCourseAccess(ctx, Anonymous(), levelStaff, demoKey))
	require.False(t, c.hasCourseAccess(ctx, nil, levelStaff, demoKey))

	// Global staff passes everywhere, any level.
	require.True(t, c.hasCourseAccess(ctx, authed("root"), levelStaff, otherKey))
	require.True(t, c.hasCourseAccess(ctx, authed("root"), levelInstructor, otherKey))

	// Course staff is staff for their run only, and never instructor.
	require.True(t, c.hasCourseAccess(ctx, authed("staffer"), levelStaff, demoKey))
	require.False(t, c.hasCourseAccess(ctx, authed("staffer"), levelStaff, otherKey))
	require.False(t, c.hasCourseAccess(ctx, authed("staffer"), levelInstructor, demoKey))

	// Instructor implies staff; org instructor covers the whole org.
	require.True(t, c.hasCourseAccess(ctx, authed("prof"), levelStaff, demoKey))
	require.True(t, c.hasCourseAccess(ctx, authed("prof"), levelInstructor, demoKey))
	require.True(t, c.hasCourseAccess(ctx, authed("orgprof"), levelInstructor, sameOrgKey))
	require.False(t, c.hasCourseAccess(ctx, authed("orgprof"), levelStaff, otherKey))

	// Unknown levels deny instead of guessing. Global staff never reaches
	// the guard; it short-circuits first.
	require.False(t, c.hasCourseAccess(ctx, authed("prof"), accessLevel("admin"), demoKey))
	require.False(t, c.hasCourseAccess(ctx, authed("staffer"), accessLevel("admin"), demoKey))
	require.True(t, c.hasCourseAccess(ctx, authed("root"), accessLevel("admin"), demoKey))
}

func TestHasCourseAccessMasquerade(t *testing.T) {
	ctx := context.Background()
	roles := stubRoles{}.
		grant("root", RoleGlobalStaff, CourseKey{}).
		grant("prof", RoleCourseInstructor, demoKey)
	c := testChecker(t, Config{Roles: roles, Masquerade: stubMasquerade{student: true}})

	// Masquerading as a student suppresses even global staff.
	require.False(t, c.hasCourseAccess(ctx, authed("root"), levelStaff, demoKey))
	require.False(t, c.hasCourseAccess(ctx, authed("prof"), levelInstructor, demoKey))
}

func TestUserRole(t *testing.T) {
	ctx := context.Background()
	roles := stubRoles{}.
		grant("staffer", RoleCourseStaff, demoKey).
		grant("prof", RoleCourseInstructor, demoKey)
	c := testChecker(t, Config{Roles: roles})

	require.Equal(t, "instructor", c.UserRole(ctx, authed("prof"), demoKey))
	require.Equal(t, "staff", c.UserRole(ctx, authed("staffer"), demoKey))
	require.Equal(t, "student", c.UserRole(ctx, authed("someone"), demoKey))
	require.Equal(t, "student", c.UserRole(ctx, Anonymous(), demoKey))
}

func TestUserRoleMasqueradeOverride(t *testing.T) {
	ctx := context.Background()
	roles := stubRoles{}.grant("prof", RoleCourseInstructor, demoKey)

	c := testChecker(t, Config{Roles: roles, Masquerade: stubMasquerade{override: RoleCourseStaff}})
	require.Equal(t, "staff", c.UserRole(ctx, authed("prof"), demoKey))

	c = testChecker(t, Config{Roles: roles, Masquerade: stubMasquerade{override: RoleBetaTester}})
	require.Equal(t, "student", c.UserRole(ctx, authed("prof"), demoKey))
}
