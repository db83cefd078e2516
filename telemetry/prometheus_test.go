package telemetry

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestPrometheusSink(t *testing.T) {
	reg := prometheus.NewRegistry()
	sink := NewPrometheusSink(reg)

	sink.Increment("deprecated_staff_course_visibility",
		"location:course_see_exists",
		"course:course-v1:Demo+CS101+2026")
	sink.Increment("deprecated_staff_course_visibility",
		"location:course_see_exists")
	sink.Increment("other_event")

	count := testutil.ToFloat64(sink.events.WithLabelValues("deprecated_staff_course_visibility", "course_see_exists"))
	require.Equal(t, 2.0, count)

	count = testutil.ToFloat64(sink.events.WithLabelValues("other_event", ""))
	require.Equal(t, 1.0, count)
}
