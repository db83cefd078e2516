package coursegate

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownResource reports a resource kind Check cannot dispatch on.
	// This is a caller bug, never a policy denial.
	ErrUnknownResource = errors.New("unknown resource type")

	// ErrUnknownAction reports an action the resource kind does not
	// support. Also a caller bug; unsupported actions are never silently
	// denied.
	ErrUnknownAction = errors.New("unknown action")
)

func unknownActionError(action Action, resource Resource) error {
	return fmt.Errorf("%w %q for resource type %T", ErrUnknownAction, action, resource)
}
