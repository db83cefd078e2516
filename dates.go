package coursegate

import (
	"context"
	"slices"
	"strings"
	"time"
)

// betaOffset converts a fractional number of days to a duration.
func betaOffset(days float64) time.Duration {
	return time.Duration(days * float64(24*time.Hour))
}

// effectiveStart computes when the content becomes visible to this actor.
// nil means visibility is not restricted by date at all: either the content
// has no start date, or start dates are globally disabled and the actor is
// not masquerading as a student. Beta testers see dated content early by
// the block's offset.
func (c *Checker) effectiveStart(ctx context.Context, actor *Actor, scope CourseKey, start *time.Time, daysEarlyForBeta *float64) *time.Time {
	if start == nil {
		return nil
	}
	if c.features.DisableStartDates && !c.masquerade.IsStudentMasquerade(ctx, actor, scope) {
		return nil
	}
	if daysEarlyForBeta != nil && c.roles.HasRole(ctx, actor, RoleBetaTester, scope) {
		effective := start.Add(-betaOffset(*daysEarlyForBeta))
		return &effective
	}
	return start
}

// visibleByDate reports whether the content has been released for this
// actor. Requests arriving through the preview host see everything.
func (c *Checker) visibleByDate(ctx context.Context, actor *Actor, scope CourseKey, start *time.Time, daysEarlyForBeta *float64) bool {
	effective := c.effectiveStart(ctx, actor, scope, start, daysEarlyForBeta)
	return effective == nil || c.now().After(*effective) || c.inPreview(ctx)
}

// inPreview reports whether the current request hostname carries the
// configured preview domain label.
func (c *Checker) inPreview(ctx context.Context) bool {
	if c.previewDomain == "" {
		return false
	}
	hostname := c.request.Hostname(ctx)
	return hostname != "" && slices.Contains(strings.Split(hostname, "."), c.previewDomain)
}
