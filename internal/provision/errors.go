package provision

import (
	"errors"
	"fmt"
)

var (
	// ErrGroupExists is returned by strict group creation when the name is
	// already taken. Strict creation is used when the caller expects to be
	// defining a new group, not reusing one.
	ErrGroupExists = errors.New("group already exists")

	// ErrNoMembership is returned when an operation requires an existing
	// link between an experimenter and a group and none was found.
	ErrNoMembership = errors.New("experimenter is not a member of the group")

	// ErrUnknownStrategy is returned when a new-user-group specification
	// uses a strategy prefix this build does not know.
	ErrUnknownStrategy = errors.New("unknown new-user-group strategy")
)

// AmbiguousPlaceholderError is returned by the query strategy when a
// template placeholder resolves to a multi-valued attribute. Picking one
// value arbitrarily could place the user in the wrong groups, so the
// configuration must name a single-valued attribute.
type AmbiguousPlaceholderError struct {
	Placeholder string
	Err         error
}

func (e *AmbiguousPlaceholderError) Error() string {
	return fmt.Sprintf("placeholder @{%s} is ambiguous: %v", e.Placeholder, e.Err)
}

func (e *AmbiguousPlaceholderError) Unwrap() error {
	return e.Err
}
