package coursegate

import (
	"fmt"
	"time"
)

// Resource is the closed set of things an access check can be asked about.
// The concrete kinds are *Course, *CourseOverview, *ErrorBlock,
// *BlockInstance, *Block, CustomCourseKey, CourseKey, UsageKey and
// Permission. Resources are read-only inputs; a check never mutates them.
type Resource interface {
	isResource()
}

// CatalogVisibility controls where a course is advertised.
type CatalogVisibility string

const (
	// CatalogVisibilityCatalogAndAbout lists the course in the catalog and
	// shows its about page.
	CatalogVisibilityCatalogAndAbout CatalogVisibility = "both"
	// CatalogVisibilityAbout only shows the about page.
	CatalogVisibilityAbout CatalogVisibility = "about"
	// CatalogVisibilityNone hides the course everywhere but the courseware.
	CatalogVisibilityNone CatalogVisibility = "none"
)

// Block is a generic content node. Courses and error blocks build on it;
// plain content (sections, units, problems) uses it directly.
type Block struct {
	Location UsageKey

	// VisibleToStaffOnly hides the block from everyone without staff access.
	VisibleToStaffOnly bool

	// Detached blocks (e.g. static tabs) are not part of the dated course
	// structure and ignore start dates.
	Detached bool

	// Start is the release date. nil means the block is not date-gated.
	Start *time.Time

	// DaysEarlyForBeta shifts Start for beta testers. nil disables the
	// shift; fractional days are allowed.
	DaysEarlyForBeta *float64

	// Partitions declares the content partitions usable on this block,
	// including dynamic ones owned by split-test experiments.
	Partitions []Partition

	// MergedGroupAccess is the block's group-access directives already
	// merged with its ancestors' (the merge is the content tree's job, not
	// ours). nil group lists mean "no restriction"; an empty non-nil list
	// excludes everyone.
	MergedGroupAccess GroupAccess
}

func (*Block) isResource() {}

// Partition resolves a declared partition by id.
func (b *Block) Partition(id PartitionID) (Partition, bool) {
	for _, p := range b.Partitions {
		if p.ID == id {
			return p, true
		}
	}
	return Partition{}, false
}

// Course is the full course descriptor.
type Course struct {
	Block

	ID CourseKey

	// Enrollment window; nil bounds are open-ended.
	EnrollmentStart *time.Time
	EnrollmentEnd   *time.Time

	// EnrollmentDomain restricts enrollment to actors whose external auth
	// record matches, when the registration-method feature is on.
	EnrollmentDomain string

	// InvitationOnly limits enrollment to allowlisted actors and staff.
	InvitationOnly bool

	// Public marks the course visible to everyone under the legacy
	// staff-visibility feature flag.
	Public bool

	CatalogVisibility CatalogVisibility

	MobileAvailable bool

	// PrerequisiteCourses must be completed before the courseware opens,
	// when prerequisite enforcement is on.
	PrerequisiteCourses []CourseKey
}

// CourseOverview is the cheap projection of a Course used by dashboards and
// listings. It carries only the fields needed for load-style checks, so it
// supports fewer actions than the full descriptor.
type CourseOverview struct {
	ID                  CourseKey
	Start               *time.Time
	DaysEarlyForBeta    *float64
	VisibleToStaffOnly  bool
	MobileAvailable     bool
	PrerequisiteCourses []CourseKey
}

func (*CourseOverview) isResource() {}

// ErrorBlock stands in for content that failed to load or render. Only
// staff may see it, whatever the action.
type ErrorBlock struct {
	Block

	// ErrorMsg describes why the original content is unrenderable.
	ErrorMsg string
}

// BlockInstance is a runtime instantiation of a block. It has no policy of
// its own; every check delegates to the owning descriptor.
type BlockInstance struct {
	Descriptor *Block
}

func (*BlockInstance) isResource() {}

// Permission is a special global permission string. Only
// [PermissionGlobal] is meaningful; any other value is denied.
type Permission string

// PermissionGlobal grants the "staff" action to global staff.
const PermissionGlobal Permission = "global"

func (Permission) isResource() {}

func (CourseKey) isResource()       {}
func (CustomCourseKey) isResource() {}
func (UsageKey) isResource()        {}

// resourceLabel renders a resource for debug traces.
func resourceLabel(r Resource) string {
	switch res := r.(type) {
	case *Course:
		return res.ID.String()
	case *CourseOverview:
		return res.ID.String()
	case *ErrorBlock:
		return res.Location.String()
	case *BlockInstance:
		return res.Descriptor.Location.String()
	case *Block:
		return res.Location.String()
	case CourseKey:
		return res.String()
	case CustomCourseKey:
		return res.String()
	case UsageKey:
		return res.String()
	case Permission:
		return string(res)
	default:
		return fmt.Sprintf("%T", r)
	}
}
