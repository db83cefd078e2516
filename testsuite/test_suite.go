// Package testsuite exercises a directory backend against the shared
// scenario every implementation must satisfy. Backend tests load the
// fixture data in TestMain and call [Run].
package testsuite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/coursegate/coursegate"
)

// Store is the full surface a directory backend provides: the three
// read-side collaborator interfaces plus the write API used to manage them.
type Store interface {
	coursegate.RoleDirectory
	coursegate.EnrollmentAllowlist
	coursegate.ExternalAuthRecords

	GrantRole(ctx context.Context, actorID string, role coursegate.RoleKind, scope coursegate.CourseKey) error
	RevokeRole(ctx context.Context, actorID string, role coursegate.RoleKind, scope coursegate.CourseKey) error
	AllowEnrollment(ctx context.Context, email string, course coursegate.CourseKey) error
	RecordExternalAuth(ctx context.Context, actorID, domain string) error

	Close() error
}

var (
	CourseID = coursegate.MustParseCourseKey("course-v1:Demo+CS101+2026")
	OtherID  = coursegate.MustParseCourseKey("course-v1:Other+HIST+2026")
	// SameOrgID shares the org with CourseID, so org roles carry over.
	SameOrgID = coursegate.MustParseCourseKey("course-v1:Demo+CS102+2026")
)

// Load writes the fixture grants. Idempotent backends may be loaded twice.
func Load(ctx context.Context, store Store) error {
	grants := []struct {
		actor string
		role  coursegate.RoleKind
		scope coursegate.CourseKey
	}{
		{"root", coursegate.RoleGlobalStaff, coursegate.CourseKey{}},
		{"staffer", coursegate.RoleCourseStaff, CourseID},
		{"prof", coursegate.RoleCourseInstructor, CourseID},
		{"orgstaffer", coursegate.RoleOrgStaff, CourseID},
		{"tester", coursegate.RoleBetaTester, CourseID},
		{"parttimer", coursegate.RoleCourseStaff, CourseID},
	}
	for _, g := range grants {
		if err := store.GrantRole(ctx, g.actor, g.role, g.scope); err != nil {
			return err
		}
	}
	if err := store.AllowEnrollment(ctx, "invited@example.org", CourseID); err != nil {
		return err
	}
	return store.RecordExternalAuth(ctx, "shibboleth-user", "shib:https://idp.example.org/")
}

func actor(id string) *coursegate.Actor {
	return &coursegate.Actor{ID: id, Email: id + "@example.org", Authenticated: true}
}

// Run asserts the shared scenario against a loaded store.
func Run(t *testing.T, store Store) {
	ctx := context.Background()

	t.Run("roles", func(t *testing.T) {
		require.True(t, store.HasRole(ctx, actor("staffer"), coursegate.RoleCourseStaff, CourseID))
		require.False(t, store.HasRole(ctx, actor("staffer"), coursegate.RoleCourseStaff, OtherID))
		require.False(t, store.HasRole(ctx, actor("staffer"), coursegate.RoleCourseInstructor, CourseID))

		// Org roles are keyed by org, not by course run.
		require.True(t, store.HasRole(ctx, actor("orgstaffer"), coursegate.RoleOrgStaff, SameOrgID))
		require.False(t, store.HasRole(ctx, actor("orgstaffer"), coursegate.RoleOrgStaff, OtherID))

		// Global roles ignore the scope entirely.
		require.True(t, store.HasRole(ctx, actor("root"), coursegate.RoleGlobalStaff, OtherID))

		require.False(t, store.HasRole(ctx, &coursegate.Actor{ID: "staffer"}, coursegate.RoleCourseStaff, CourseID),
			"unauthenticated actors never hold roles")
		require.False(t, store.HasRole(ctx, nil, coursegate.RoleGlobalStaff, coursegate.CourseKey{}))
	})

	t.Run("revoke", func(t *testing.T) {
		require.True(t, store.HasRole(ctx, actor("parttimer"), coursegate.RoleCourseStaff, CourseID))
		require.NoError(t, store.RevokeRole(ctx, "parttimer", coursegate.RoleCourseStaff, CourseID))
		require.False(t, store.HasRole(ctx, actor("parttimer"), coursegate.RoleCourseStaff, CourseID))
		// Revoking again must not fail.
		require.NoError(t, store.RevokeRole(ctx, "parttimer", coursegate.RoleCourseStaff, CourseID))
	})

	t.Run("allowlist", func(t *testing.T) {
		require.True(t, store.Contains(ctx, "invited@example.org", CourseID))
		require.False(t, store.Contains(ctx, "invited@example.org", OtherID))
		require.False(t, store.Contains(ctx, "stranger@example.org", CourseID))
	})

	t.Run("external auth", func(t *testing.T) {
		require.True(t, store.MatchesDomain(ctx, actor("shibboleth-user"), "shib:https://idp.example.org/"))
		require.False(t, store.MatchesDomain(ctx, actor("shibboleth-user"), "shib:https://other.example.org/"))
		require.False(t, store.MatchesDomain(ctx, actor("staffer"), "shib:https://idp.example.org/"))
	})

	t.Run("checks", func(t *testing.T) {
		start := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
		now := time.Date(2026, 1, 30, 0, 0, 0, 0, time.UTC)
		days := 7.0

		checker, err := coursegate.NewChecker(coursegate.Config{
			Roles:     store,
			Allowlist: store,
			Now:       func() time.Time { return now },
		})
		require.NoError(t, err)

		course := &coursegate.Course{
			ID:             CourseID,
			InvitationOnly: true,
		}
		course.Start = &start
		course.DaysEarlyForBeta = &days

		ok, err := checker.Check(ctx, actor("staffer"), coursegate.ActionStaff, course, CourseID)
		require.NoError(t, err)
		require.True(t, ok)

		ok, err = checker.Check(ctx, actor("prof"), coursegate.ActionStaff, course, CourseID)
		require.NoError(t, err)
		require.True(t, ok, "instructor role satisfies the staff action")

		// The course has not started, but the beta tester's offset shifts
		// the effective start behind the clock.
		ok, err = checker.Check(ctx, actor("tester"), coursegate.ActionLoad, course, CourseID)
		require.NoError(t, err)
		require.True(t, ok)

		ok, err = checker.Check(ctx, actor("regular"), coursegate.ActionLoad, course, CourseID)
		require.NoError(t, err)
		require.False(t, ok)

		// Invitation-only course: the allowlisted actor enrolls, others
		// cannot.
		ok, err = checker.Check(ctx, &coursegate.Actor{ID: "invited", Email: "invited@example.org", Authenticated: true},
			coursegate.ActionEnroll, course, CourseID)
		require.NoError(t, err)
		require.True(t, ok)

		ok, err = checker.Check(ctx, actor("regular"), coursegate.ActionEnroll, course, CourseID)
		require.NoError(t, err)
		require.False(t, ok)

		ok, err = checker.Check(ctx, actor("root"), coursegate.ActionStaff, coursegate.PermissionGlobal, nil)
		require.NoError(t, err)
		require.True(t, ok)
	})
}
