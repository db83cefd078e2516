package coursegate

import (
	"errors"
	"log/slog"
	"time"
)

// Features is the snapshot of feature flags a Checker evaluates under. The
// snapshot is taken at construction so individual checks stay deterministic;
// build a new Checker to pick up flag changes.
type Features struct {
	// DisableStartDates makes all dated content visible (developer
	// environments), except to staff masquerading as students.
	DisableStartDates bool `koanf:"disable_start_dates"`
	// RestrictEnrollByRegMethod enforces a course's EnrollmentDomain.
	RestrictEnrollByRegMethod bool `koanf:"restrict_enroll_by_reg_method"`
	// RequireStaffForCourseVisibility is the legacy flag hiding non-public
	// courses from non-staff. Checks under it emit
	// [EventLegacyStaffVisibility].
	RequireStaffForCourseVisibility bool `koanf:"require_staff_for_course_visibility"`
	// EnablePrerequisiteCourses turns on prerequisite enforcement.
	EnablePrerequisiteCourses bool `koanf:"enable_prerequisite_courses"`
}

// Config assembles a Checker. Only Roles is required; every other
// collaborator defaults to an implementation that answers "no".
type Config struct {
	Roles         RoleDirectory
	Masquerade    MasqueradeState
	Prerequisites PrerequisiteTracker
	ExternalAuth  ExternalAuthRecords
	Allowlist     EnrollmentAllowlist
	Request       RequestContext
	Telemetry     TelemetrySink

	Features Features

	// PreviewDomain is the hostname label that marks preview traffic, e.g.
	// "preview" for preview.example.org. Empty disables the override.
	PreviewDomain string

	// Logger receives decision traces (debug) and fail-closed warnings.
	// Defaults to slog.Default().
	Logger *slog.Logger

	// Now is the clock used for date and enrollment windows. Defaults to
	// time.Now; tests inject a fixed clock.
	Now func() time.Time
}

// Checker evaluates access decisions. It owns no mutable state and is safe
// for concurrent use.
type Checker struct {
	roles         RoleDirectory
	masquerade    MasqueradeState
	prereqs       PrerequisiteTracker
	extAuth       ExternalAuthRecords
	allowlist     EnrollmentAllowlist
	request       RequestContext
	telemetry     TelemetrySink
	features      Features
	previewDomain string
	log           *slog.Logger
	now           func() time.Time
}

// NewChecker validates the config and returns a ready Checker.
func NewChecker(cfg Config) (*Checker, error) {
	if cfg.Roles == nil {
		return nil, errors.New("coursegate: Config.Roles is required")
	}
	c := &Checker{
		roles:         cfg.Roles,
		masquerade:    cfg.Masquerade,
		prereqs:       cfg.Prerequisites,
		extAuth:       cfg.ExternalAuth,
		allowlist:     cfg.Allowlist,
		request:       cfg.Request,
		telemetry:     cfg.Telemetry,
		features:      cfg.Features,
		previewDomain: cfg.PreviewDomain,
		log:           cfg.Logger,
		now:           cfg.Now,
	}
	if c.masquerade == nil {
		c.masquerade = noMasquerade{}
	}
	if c.prereqs == nil {
		c.prereqs = noPrerequisites{}
	}
	if c.extAuth == nil {
		c.extAuth = noExternalAuth{}
	}
	if c.allowlist == nil {
		c.allowlist = noAllowlist{}
	}
	if c.request == nil {
		c.request = noRequest{}
	}
	if c.telemetry == nil {
		c.telemetry = noTelemetry{}
	}
	if c.log == nil {
		c.log = slog.Default()
	}
	if c.now == nil {
		c.now = time.Now
	}
	return c, nil
}
