package cli

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/coursegate/coursegate"
)

const scenarioYAML = `
action: enroll
actor:
  id: eve
  email: eve@example.com
course:
  id: course-v1:Demo+CS101+2026
  invitation_only: true
  partitions:
    - id: 1
      name: cohort
      groups: [10, 20]
allow_enrollment:
  - email: eve@example.com
    course: course-v1:Demo+CS101+2026
grants:
  - actor: ada
    role: course_staff
    scope: course-v1:Demo+CS101+2026
`

func writeScenario(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadScenario(t *testing.T) {
	scenario, err := LoadScenario(writeScenario(t, scenarioYAML))
	require.NoError(t, err)

	require.Equal(t, "enroll", scenario.Action)
	require.Equal(t, "eve", scenario.Actor.ID)
	// Defaults fill what the file omits.
	require.True(t, scenario.Actor.Authenticated)
	require.Equal(t, "both", scenario.Course.CatalogVisibility)
	require.True(t, scenario.Course.InvitationOnly)
	require.Len(t, scenario.Course.Partitions, 1)
	require.Nil(t, scenario.Course.Partitions[0].Allowed)
	require.Len(t, scenario.Grants, 1)
}

func TestLoadScenarioEnvOverride(t *testing.T) {
	t.Setenv("COURSEGATE_ACTION", "staff")
	t.Setenv("COURSEGATE_ACTOR_ID", "ada")

	scenario, err := LoadScenario(writeScenario(t, scenarioYAML))
	require.NoError(t, err)
	require.Equal(t, "staff", scenario.Action)
	require.Equal(t, "ada", scenario.Actor.ID)
}

func TestScenarioBuildAndCheck(t *testing.T) {
	ctx := context.Background()

	scenario, err := LoadScenario(writeScenario(t, scenarioYAML))
	require.NoError(t, err)

	checker, actor, course, scope, err := scenario.Build(ctx)
	require.NoError(t, err)
	require.Equal(t, "eve", actor.ID)
	require.Equal(t, "course-v1:Demo+CS101+2026", scope.String())

	// The allowlisted actor enrolls despite invitation-only.
	ok, err := checker.Check(ctx, actor, coursegate.Action(scenario.Action), course, scope)
	require.NoError(t, err)
	require.True(t, ok)

	// The granted course staff role holds through the built directory.
	ok, err = checker.Check(ctx, &coursegate.Actor{ID: "ada", Authenticated: true},
		coursegate.ActionStaff, course, scope)
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = checker.Check(ctx, &coursegate.Actor{ID: "mallory", Authenticated: true},
		coursegate.ActionStaff, course, scope)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestScenarioBuildRejectsBadKeys(t *testing.T) {
	scenario := &Scenario{Course: CourseConfig{ID: "not-a-key"}}
	_, _, _, _, err := scenario.Build(context.Background())
	require.Error(t, err)
}
