package coursegate

import (
	"context"
	"fmt"
	"log/slog"
)

// Action names what the caller is trying to do. The valid actions depend on
// the resource kind; see the per-kind check methods.
type Action string

const (
	// ActionLoad loads the resource, i.e. see inside it. Note that load
	// does not imply enrollment; enrollment is checked by higher layers.
	ActionLoad Action = "load"
	// ActionLoadForum loads and contributes to the course forums (a single
	// access level for now, evaluated as load).
	ActionLoadForum Action = "load_forum"
	// ActionLoadMobile loads the course from a mobile context.
	ActionLoadMobile Action = "load_mobile"
	// ActionEnroll enrolls in the course.
	ActionEnroll Action = "enroll"
	// ActionSeeExists sees that the course exists at all.
	ActionSeeExists Action = "see_exists"
	// ActionStaff is staff access to the resource.
	ActionStaff Action = "staff"
	// ActionInstructor is instructor access to the resource.
	ActionInstructor Action = "instructor"
	// ActionSeeInCatalog sees the course listed in the catalog.
	ActionSeeInCatalog Action = "see_in_catalog"
	// ActionSeeAboutPage sees the course about page.
	ActionSeeAboutPage Action = "see_about_page"
	// ActionViewWithPrerequisites views the courseware subject to
	// prerequisite enforcement.
	ActionViewWithPrerequisites Action = "view_courseware_with_prerequisites"
)

// Check decides whether actor may perform action on resource. A nil actor
// is treated as anonymous, and a legacy custom-course scope is normalized
// to its parent course before anything else. scope may be nil for courses,
// locations and the global permission string.
//
// Dispatch is by resource kind, most specific first; a [BlockInstance]
// always delegates to its descriptor. Unsupported kinds and actions return
// [ErrUnknownResource] and [ErrUnknownAction] respectively.
func (c *Checker) Check(ctx context.Context, actor *Actor, action Action, resource Resource, scope ScopeKey) (bool, error) {
	if actor == nil {
		actor = Anonymous()
	}

	var key CourseKey
	if scope != nil {
		key = scope.CourseScope()
	}

	switch res := resource.(type) {
	case *Course:
		return c.checkCourse(ctx, actor, action, res)
	case *CourseOverview:
		return c.checkCourseOverview(ctx, actor, action, res)
	case *ErrorBlock:
		return c.checkErrorBlock(ctx, actor, action, res, key)
	case *BlockInstance:
		// No policy of its own; the descriptor decides.
		return c.Check(ctx, actor, action, res.Descriptor, scope)
	case *Block:
		return c.checkBlock(ctx, actor, action, res, key)
	case CustomCourseKey:
		return c.checkCourseKey(ctx, actor, action, res.CourseScope())
	case CourseKey:
		return c.checkCourseKey(ctx, actor, action, res)
	case UsageKey:
		return c.checkUsageKey(ctx, actor, action, res, key)
	case Permission:
		return c.checkPermission(ctx, actor, action, res)
	default:
		return false, fmt.Errorf("%w: %T", ErrUnknownResource, resource)
	}
}

// checkCourse handles the full course descriptor.
//
// Valid actions: load, load_forum, load_mobile, enroll, see_exists, staff,
// instructor, see_in_catalog, see_about_page,
// view_courseware_with_prerequisites.
func (c *Checker) checkCourse(ctx context.Context, actor *Actor, action Action, course *Course) (bool, error) {
	var allowed bool
	switch action {
	case ActionLoad, ActionLoadForum:
		allowed = c.canLoadCourse(ctx, actor, course)
	case ActionLoadMobile:
		allowed = c.canLoadCourse(ctx, actor, course) &&
			c.isMobileAvailable(ctx, actor, course.ID, course.MobileAvailable)
	case ActionEnroll:
		allowed = c.canEnroll(ctx, actor, course)
	case ActionSeeExists:
		allowed = c.canSeeExists(ctx, actor, course)
	case ActionStaff:
		allowed = c.hasCourseAccess(ctx, actor, levelStaff, course.ID)
	case ActionInstructor:
		allowed = c.hasCourseAccess(ctx, actor, levelInstructor, course.ID)
	case ActionSeeInCatalog:
		allowed = course.CatalogVisibility == CatalogVisibilityCatalogAndAbout ||
			c.hasCourseAccess(ctx, actor, levelStaff, course.ID)
	case ActionSeeAboutPage:
		allowed = course.CatalogVisibility == CatalogVisibilityCatalogAndAbout ||
			course.CatalogVisibility == CatalogVisibilityAbout ||
			c.hasCourseAccess(ctx, actor, levelStaff, course.ID)
	case ActionViewWithPrerequisites:
		allowed = c.canViewWithPrerequisites(ctx, actor, course.ID, course.PrerequisiteCourses)
	default:
		return false, unknownActionError(action, course)
	}
	return c.decide(actor, course, action, allowed), nil
}

// canLoadCourse delegates to the generic block policy so start dates,
// visibility flags and group access all apply. It does not check whether
// the actor is enrolled.
func (c *Checker) canLoadCourse(ctx context.Context, actor *Actor, course *Course) bool {
	ok, _ := c.checkBlock(ctx, actor, ActionLoad, &course.Block, course.ID)
	return ok
}

// canEnroll implements the enrollment policy. An allowlist entry for the
// actor's email wins over everything, then staff, then the invitation-only
// gate, and finally the enrollment window combined with the
// registration-method restriction.
func (c *Checker) canEnroll(ctx context.Context, actor *Actor, course *Course) bool {
	regMethodOK := true
	if c.features.RestrictEnrollByRegMethod && course.EnrollmentDomain != "" {
		regMethodOK = !actor.IsAnonymous() &&
			c.extAuth.MatchesDomain(ctx, actor, course.EnrollmentDomain)
	}

	if !actor.IsAnonymous() && c.allowlist.Contains(ctx, actor.Email, course.ID) {
		return true
	}

	if c.hasCourseAccess(ctx, actor, levelStaff, course.ID) {
		return true
	}

	// Invitation-only does not apply to allowlisted actors or staff.
	if course.InvitationOnly {
		c.log.Debug("enroll denied: invitation only", slog.String("course", course.ID.String()))
		return false
	}

	now := c.now()
	inWindow := (course.EnrollmentStart == nil || now.After(*course.EnrollmentStart)) &&
		(course.EnrollmentEnd == nil || now.Before(*course.EnrollmentEnd))
	return regMethodOK && inWindow
}

// canSeeExists is true when the actor could enroll or could load the
// course: someone enrolled before the window closed should still see it.
// Under the deprecated staff-visibility flag only public courses are shown
// to non-staff, ignoring the enroll/load logic entirely.
func (c *Checker) canSeeExists(ctx context.Context, actor *Actor, course *Course) bool {
	if c.features.RequireStaffForCourseVisibility {
		c.telemetry.Increment(EventLegacyStaffVisibility,
			"location:course_see_exists",
			"course:"+course.ID.String())
		if course.Public {
			return true
		}
		return c.hasCourseAccess(ctx, actor, levelStaff, course.ID)
	}
	return c.canEnroll(ctx, actor, course) || c.canLoadCourse(ctx, actor, course)
}

// isMobileAvailable reports whether the course may be loaded from a mobile
// context. Beta testers and staff override the course flag.
func (c *Checker) isMobileAvailable(ctx context.Context, actor *Actor, scope CourseKey, mobileFlag bool) bool {
	return mobileFlag ||
		c.roles.HasRole(ctx, actor, RoleBetaTester, scope) ||
		c.hasCourseAccess(ctx, actor, levelStaff, scope)
}

// canViewWithPrerequisites grants unless prerequisite enforcement is on and
// the actor is an authenticated non-staff user with unfinished
// prerequisites.
func (c *Checker) canViewWithPrerequisites(ctx context.Context, actor *Actor, scope CourseKey, prerequisites []CourseKey) bool {
	return !c.features.EnablePrerequisiteCourses ||
		c.hasCourseAccess(ctx, actor, levelStaff, scope) ||
		len(prerequisites) == 0 ||
		actor.IsAnonymous() ||
		!c.prereqs.Incomplete(ctx, actor, prerequisites)
}

// checkCourseOverview handles the course projection. It carries fewer
// fields than the full descriptor, so only the load-style actions exist.
//
// Valid actions: load, load_mobile, view_courseware_with_prerequisites.
func (c *Checker) checkCourseOverview(ctx context.Context, actor *Actor, action Action, overview *CourseOverview) (bool, error) {
	var allowed bool
	switch action {
	case ActionLoad:
		allowed = c.canLoadOverview(ctx, actor, overview)
	case ActionLoadMobile:
		allowed = c.canLoadOverview(ctx, actor, overview) &&
			c.isMobileAvailable(ctx, actor, overview.ID, overview.MobileAvailable)
	case ActionViewWithPrerequisites:
		allowed = c.canViewWithPrerequisites(ctx, actor, overview.ID, overview.PrerequisiteCourses)
	default:
		return false, unknownActionError(action, overview)
	}
	return c.decide(actor, overview, action, allowed), nil
}

func (c *Checker) canLoadOverview(ctx context.Context, actor *Actor, overview *CourseOverview) bool {
	return (!overview.VisibleToStaffOnly &&
		c.visibleByDate(ctx, actor, overview.ID, overview.Start, overview.DaysEarlyForBeta)) ||
		c.hasCourseAccess(ctx, actor, levelStaff, overview.ID)
}

// checkErrorBlock handles unrenderable content, which only staff may see:
// load and staff are deliberately the same check here.
//
// Valid actions: load, staff, instructor.
func (c *Checker) checkErrorBlock(ctx context.Context, actor *Actor, action Action, block *ErrorBlock, scope CourseKey) (bool, error) {
	key := scopeOr(scope, block.Location)
	var allowed bool
	switch action {
	case ActionLoad, ActionStaff:
		allowed = c.hasCourseAccess(ctx, actor, levelStaff, key)
	case ActionInstructor:
		allowed = c.hasCourseAccess(ctx, actor, levelInstructor, key)
	default:
		return false, unknownActionError(action, block)
	}
	return c.decide(actor, block, action, allowed), nil
}

// checkBlock is the fallback policy for content without a custom one. Note
// that load does not check enrollment in the containing course; views do
// that so this stays off the hot path of every block render.
//
// Valid actions: load, staff, instructor.
func (c *Checker) checkBlock(ctx context.Context, actor *Actor, action Action, block *Block, scope CourseKey) (bool, error) {
	key := scopeOr(scope, block.Location)
	var allowed bool
	switch action {
	case ActionLoad:
		allowed = (!block.VisibleToStaffOnly &&
			c.hasGroupAccess(ctx, actor, block, key) &&
			(block.Detached || c.visibleByDate(ctx, actor, key, block.Start, block.DaysEarlyForBeta))) ||
			c.hasCourseAccess(ctx, actor, levelStaff, key)
	case ActionStaff:
		allowed = c.hasCourseAccess(ctx, actor, levelStaff, key)
	case ActionInstructor:
		allowed = c.hasCourseAccess(ctx, actor, levelInstructor, key)
	default:
		return false, unknownActionError(action, block)
	}
	return c.decide(actor, block, action, allowed), nil
}

// checkCourseKey handles a bare course scope.
//
// Valid actions: staff, instructor.
func (c *Checker) checkCourseKey(ctx context.Context, actor *Actor, action Action, key CourseKey) (bool, error) {
	var allowed bool
	switch action {
	case ActionStaff:
		allowed = c.hasCourseAccess(ctx, actor, levelStaff, key)
	case ActionInstructor:
		allowed = c.hasCourseAccess(ctx, actor, levelInstructor, key)
	default:
		return false, unknownActionError(action, key)
	}
	return c.decide(actor, key, action, allowed), nil
}

// checkUsageKey handles a location, deriving the scope from the location
// when none was passed.
//
// Valid actions: staff, instructor.
func (c *Checker) checkUsageKey(ctx context.Context, actor *Actor, action Action, location UsageKey, scope CourseKey) (bool, error) {
	key := scopeOr(scope, location)
	var allowed bool
	switch action {
	case ActionStaff:
		allowed = c.hasCourseAccess(ctx, actor, levelStaff, key)
	case ActionInstructor:
		allowed = c.hasCourseAccess(ctx, actor, levelInstructor, key)
	default:
		return false, unknownActionError(action, location)
	}
	return c.decide(actor, location, action, allowed), nil
}

// checkPermission handles the special permission strings. Only "global" is
// meaningful; other values are denied, not errors.
//
// Valid actions: staff.
func (c *Checker) checkPermission(ctx context.Context, actor *Actor, action Action, perm Permission) (bool, error) {
	var allowed bool
	switch action {
	case ActionStaff:
		if perm != PermissionGlobal {
			c.log.Debug("deny: unrecognized permission", slog.String("permission", string(perm)))
			break
		}
		allowed = !actor.IsAnonymous() &&
			c.roles.HasRole(ctx, actor, RoleGlobalStaff, CourseKey{})
	default:
		return false, unknownActionError(action, perm)
	}
	return c.decide(actor, perm, action, allowed), nil
}

// decide emits the decision trace every verdict passes through.
func (c *Checker) decide(actor *Actor, resource Resource, action Action, allowed bool) bool {
	c.log.Debug("access decision",
		slog.Bool("allowed", allowed),
		slog.String("actor", actor.label()),
		slog.String("resource", resourceLabel(resource)),
		slog.String("action", string(action)))
	return allowed
}
