package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/coursegate/coursegate"
	"github.com/coursegate/coursegate/directory/memory"
)

// Scenario is the YAML description of one access check: the course, the
// actor, the directory contents and the feature flags to evaluate under.
type Scenario struct {
	Action        string              `koanf:"action"`
	Scope         string              `koanf:"scope"`
	PreviewDomain string              `koanf:"preview_domain"`
	Hostname      string              `koanf:"hostname"`
	Features      coursegate.Features `koanf:"features"`
	Actor         ActorConfig         `koanf:"actor"`
	Course        CourseConfig        `koanf:"course"`
	Grants        []GrantConfig       `koanf:"grants"`
	Allowlist     []AllowConfig       `koanf:"allow_enrollment"`
	ExternalAuth  []AuthConfig        `koanf:"external_auth"`
}

type ActorConfig struct {
	ID            string `koanf:"id"`
	Email         string `koanf:"email"`
	Authenticated bool   `koanf:"authenticated"`
}

type CourseConfig struct {
	ID                 string            `koanf:"id"`
	Start              string            `koanf:"start"`
	DaysEarlyForBeta   *float64          `koanf:"days_early_for_beta"`
	VisibleToStaffOnly bool              `koanf:"visible_to_staff_only"`
	EnrollmentStart    string            `koanf:"enrollment_start"`
	EnrollmentEnd      string            `koanf:"enrollment_end"`
	EnrollmentDomain   string            `koanf:"enrollment_domain"`
	InvitationOnly     bool              `koanf:"invitation_only"`
	Public             bool              `koanf:"public"`
	CatalogVisibility  string            `koanf:"catalog_visibility"`
	MobileAvailable    bool              `koanf:"mobile_available"`
	Prerequisites      []string          `koanf:"prerequisites"`
	Partitions         []PartitionConfig `koanf:"partitions"`
}

// PartitionConfig declares a partition on the course, assigned with the
// deterministic hash scheme and optionally restricted to a group subset.
type PartitionConfig struct {
	ID     int    `koanf:"id"`
	Name   string `koanf:"name"`
	Groups []int  `koanf:"groups"`
	// Allowed is the group-access directive for the partition. Omitted
	// means no restriction; explicitly empty shuts everyone out.
	Allowed *[]int `koanf:"allowed"`
}

type GrantConfig struct {
	Actor string `koanf:"actor"`
	Role  string `koanf:"role"`
	Scope string `koanf:"scope"`
}

type AllowConfig struct {
	Email  string `koanf:"email"`
	Course string `koanf:"course"`
}

type AuthConfig struct {
	Actor  string `koanf:"actor"`
	Domain string `koanf:"domain"`
}

// LoadScenario reads the scenario file. Environment variables prefixed with
// COURSEGATE_ override file values, e.g. COURSEGATE_ACTOR_ID -> actor.id.
func LoadScenario(path string) (*Scenario, error) {
	k := koanf.New(".")

	// Defaults
	_ = k.Load(confmap.Provider(map[string]any{
		"action":                    "load",
		"actor.authenticated":       true,
		"course.catalog_visibility": "both",
	}, "."), nil)

	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("reading scenario %q: %w", path, err)
	}

	_ = k.Load(env.Provider("COURSEGATE_", ".", func(s string) string {
		return strings.ReplaceAll(
			strings.ToLower(strings.TrimPrefix(s, "COURSEGATE_")),
			"_", ".",
		)
	}), nil)

	var scenario Scenario
	if err := k.Unmarshal("", &scenario); err != nil {
		return nil, err
	}
	return &scenario, nil
}

// staticHost satisfies coursegate.RequestContext with a fixed hostname.
type staticHost string

func (h staticHost) Hostname(context.Context) string {
	return string(h)
}

// Build assembles the directory, checker, actor, course and scope described
// by the scenario.
func (s *Scenario) Build(ctx context.Context) (*coursegate.Checker, *coursegate.Actor, *coursegate.Course, coursegate.CourseKey, error) {
	fail := func(err error) (*coursegate.Checker, *coursegate.Actor, *coursegate.Course, coursegate.CourseKey, error) {
		return nil, nil, nil, coursegate.CourseKey{}, err
	}

	courseID, err := coursegate.ParseCourseKey(s.Course.ID)
	if err != nil {
		return fail(err)
	}

	course := &coursegate.Course{
		ID:                courseID,
		EnrollmentDomain:  s.Course.EnrollmentDomain,
		InvitationOnly:    s.Course.InvitationOnly,
		Public:            s.Course.Public,
		CatalogVisibility: coursegate.CatalogVisibility(s.Course.CatalogVisibility),
		MobileAvailable:   s.Course.MobileAvailable,
	}
	course.VisibleToStaffOnly = s.Course.VisibleToStaffOnly
	course.DaysEarlyForBeta = s.Course.DaysEarlyForBeta
	if course.Start, err = parseTime(s.Course.Start); err != nil {
		return fail(err)
	}
	if course.EnrollmentStart, err = parseTime(s.Course.EnrollmentStart); err != nil {
		return fail(err)
	}
	if course.EnrollmentEnd, err = parseTime(s.Course.EnrollmentEnd); err != nil {
		return fail(err)
	}
	for _, prereq := range s.Course.Prerequisites {
		key, err := coursegate.ParseCourseKey(prereq)
		if err != nil {
			return fail(err)
		}
		course.PrerequisiteCourses = append(course.PrerequisiteCourses, key)
	}
	for _, pc := range s.Course.Partitions {
		p := coursegate.Partition{
			ID:     coursegate.PartitionID(pc.ID),
			Name:   pc.Name,
			Scheme: coursegate.HashGroupScheme("hash"),
		}
		for _, gid := range pc.Groups {
			p.Groups = append(p.Groups, coursegate.Group{ID: coursegate.GroupID(gid)})
		}
		course.Partitions = append(course.Partitions, p)
		if pc.Allowed != nil {
			if course.MergedGroupAccess == nil {
				course.MergedGroupAccess = coursegate.GroupAccess{}
			}
			allowed := make([]coursegate.GroupID, 0, len(*pc.Allowed))
			for _, gid := range *pc.Allowed {
				allowed = append(allowed, coursegate.GroupID(gid))
			}
			course.MergedGroupAccess[p.ID] = allowed
		}
	}

	directory := memory.NewDirectory()
	for _, g := range s.Grants {
		scope := coursegate.CourseKey{}
		if g.Scope != "" {
			if scope, err = coursegate.ParseCourseKey(g.Scope); err != nil {
				return fail(err)
			}
		}
		if err := directory.GrantRole(ctx, g.Actor, coursegate.RoleKind(g.Role), scope); err != nil {
			return fail(err)
		}
	}
	for _, a := range s.Allowlist {
		key, err := coursegate.ParseCourseKey(a.Course)
		if err != nil {
			return fail(err)
		}
		if err := directory.AllowEnrollment(ctx, a.Email, key); err != nil {
			return fail(err)
		}
	}
	for _, a := range s.ExternalAuth {
		if err := directory.RecordExternalAuth(ctx, a.Actor, a.Domain); err != nil {
			return fail(err)
		}
	}

	checker, err := coursegate.NewChecker(coursegate.Config{
		Roles:         directory,
		Allowlist:     directory,
		ExternalAuth:  directory,
		Request:       staticHost(s.Hostname),
		Features:      s.Features,
		PreviewDomain: s.PreviewDomain,
	})
	if err != nil {
		return fail(err)
	}

	actor := &coursegate.Actor{
		ID:            s.Actor.ID,
		Email:         s.Actor.Email,
		Authenticated: s.Actor.Authenticated,
	}

	scope := courseID
	if s.Scope != "" {
		if scope, err = coursegate.ParseCourseKey(s.Scope); err != nil {
			return fail(err)
		}
	}

	return checker, actor, course, scope, nil
}

func parseTime(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil, fmt.Errorf("parsing time %q: %w", s, err)
	}
	return &t, nil
}
