package coursegate_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/coursegate/coursegate"
)

func TestParseCourseKey(t *testing.T) {
	key, err := coursegate.ParseCourseKey("course-v1:Demo+CS101+2026")
	require.NoError(t, err)
	require.Equal(t, coursegate.CourseKey{Org: "Demo", Course: "CS101", Run: "2026"}, key)
	require.Equal(t, "course-v1:Demo+CS101+2026", key.String())
	require.False(t, key.IsZero())
	require.True(t, coursegate.CourseKey{}.IsZero())

	_, err = coursegate.ParseCourseKey("Demo+CS101+2026")
	require.Error(t, err)
	_, err = coursegate.ParseCourseKey("course-v1:Demo+CS101")
	require.Error(t, err)
	_, err = coursegate.ParseCourseKey("course-v1:Demo++2026")
	require.Error(t, err)
}

func TestParseCustomCourseKey(t *testing.T) {
	key, err := coursegate.ParseCustomCourseKey("ccx-v1:Demo+CS101+2026+ccx@17")
	require.NoError(t, err)
	require.Equal(t, "17", key.CustomID)
	require.Equal(t, "ccx-v1:Demo+CS101+2026+ccx@17", key.String())

	// A custom run scopes to its parent course.
	require.Equal(t, coursegate.MustParseCourseKey("course-v1:Demo+CS101+2026"), key.CourseScope())

	_, err = coursegate.ParseCustomCourseKey("ccx-v1:Demo+CS101+2026")
	require.Error(t, err)
	_, err = coursegate.ParseCustomCourseKey("ccx-v1:Demo+CS101+2026+ccx@")
	require.Error(t, err)
	_, err = coursegate.ParseCustomCourseKey("course-v1:Demo+CS101+2026")
	require.Error(t, err)
}

func TestParseUsageKey(t *testing.T) {
	key, err := coursegate.ParseUsageKey("block-v1:Demo+CS101+2026+type@problem+block@intro")
	require.NoError(t, err)
	require.Equal(t, "problem", key.Category)
	require.Equal(t, "intro", key.Block)
	require.Equal(t, "block-v1:Demo+CS101+2026+type@problem+block@intro", key.String())
	require.Equal(t, coursegate.MustParseCourseKey("course-v1:Demo+CS101+2026"), key.CourseScope())

	_, err = coursegate.ParseUsageKey("block-v1:Demo+CS101+2026+type@problem")
	require.Error(t, err)
	_, err = coursegate.ParseUsageKey("block-v1:Demo+CS101+2026+problem+intro")
	require.Error(t, err)
}
