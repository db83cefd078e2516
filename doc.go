// The coursegate-package contains the access control logic for courseware.
// It decides whether an actor may perform a named action against an
// educational resource: a course, a course overview, a content block, a
// location within a course, or the special "global" permission string.
//
// All decisions are made by a [Checker], which is constructed from the
// collaborators the decisions depend on (role membership, masquerade state,
// enrollment allowlist, ...) and an immutable [Features] snapshot:
//
//	directory := memory.NewDirectory()
//	checker, err := coursegate.NewChecker(coursegate.Config{
//		Roles:     directory,
//		Allowlist: directory,
//	})
//
// Role grants live in the directory, never on the actor:
//
//	key := coursegate.MustParseCourseKey("course-v1:Demo+CS101+2026")
//	_ = directory.GrantRole(ctx, "ada", coursegate.RoleCourseStaff, key)
//
// A check is a pure function over the actor, the resource and the scope:
//
//	course := &coursegate.Course{ID: key, InvitationOnly: true}
//	ok, err := checker.Check(ctx, actor, coursegate.ActionEnroll, course, key)
//
// Checks never mutate their inputs and hold no shared state, so a single
// Checker may be used from any number of goroutines as long as the
// collaborators are safe for concurrent reads.
//
// Unsupported actions and unsupported resource kinds are reported as
// [ErrUnknownAction] and [ErrUnknownResource] rather than silent denials;
// both indicate a caller bug, not a policy outcome.
package coursegate
