package password

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyPassword is returned when a password write was attempted for
	// a user whose password may not be blank.
	ErrEmptyPassword = errors.New("password may not be empty")

	// ErrChangeUnsupported is returned by providers that are read-only by
	// design, such as the flat-file and directory-backed providers.
	ErrChangeUnsupported = errors.New("provider does not support password changes")

	// ErrNoOwningProvider is returned when a password change was requested
	// for a user no configured provider claims ownership of.
	ErrNoOwningProvider = errors.New("no provider owns a password for this user")
)

// DNMismatchError is raised when the distinguished name recorded locally
// for a user disagrees with a fresh directory lookup. This signals an
// identity conflict (a secondary or malicious account shadowing the
// original), not a wrong credential, so it surfaces as a distinct
// "contact your administrator" error instead of a login failure.
type DNMismatchError struct {
	Username    string
	LocalDN     string
	DirectoryDN string
}

func (e *DNMismatchError) Error() string {
	return fmt.Sprintf(
		"dn mismatch for %q: local %q, directory %q; contact your administrator",
		e.Username, e.LocalDN, e.DirectoryDN)
}
