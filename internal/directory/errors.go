package directory

import (
	"errors"
	"fmt"
)

var (
	// ErrDisabled is returned when LDAP support is disabled via configuration.
	ErrDisabled = errors.New("ldap support is disabled")

	// ErrDuplicateAttribute is returned when a directory entry carries the
	// same single-valued attribute more than once. This indicates malformed
	// directory data and is never recovered from.
	ErrDuplicateAttribute = errors.New("duplicate single-valued attribute")

	// ErrMultiValuedAttribute is returned when a single value was requested
	// for an attribute holding several. Picking one arbitrarily would be
	// ambiguous, so the caller must decide.
	ErrMultiValuedAttribute = errors.New("attribute is multi-valued")

	// ErrNoSuchEntry is returned when a lookup that must match exactly one
	// directory entry matched none.
	ErrNoSuchEntry = errors.New("no matching directory entry")

	// ErrTooManyEntries is returned when a lookup that must match exactly
	// one directory entry matched several. This typically indicates a
	// misconfigured search filter or duplicate entries.
	ErrTooManyEntries = errors.New("multiple matching directory entries")

	// ErrBindFailed is returned when a bind with the supplied credentials
	// was rejected by the directory.
	ErrBindFailed = errors.New("directory bind failed")

	// ErrDNOutsideBase is returned when a distinguished name does not sit
	// under the configured search base.
	ErrDNOutsideBase = errors.New("dn is outside the configured base")
)

// MappingError is returned when a directory entry cannot be mapped to a
// domain object, carrying the offending DN for diagnostics.
type MappingError struct {
	DN  string
	Err error
}

func (e *MappingError) Error() string {
	return fmt.Sprintf("failed to map directory entry %q: %v", e.DN, e.Err)
}

func (e *MappingError) Unwrap() error {
	return e.Err
}
