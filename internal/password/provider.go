package password

// Provider answers two questions for a user: can these credentials be
// authenticated, and can this user's password be changed here.
type Provider interface {
	// CheckPassword verifies credentials. Unknown means the provider is
	// not authoritative for the user and the next provider should be
	// consulted. readOnly suppresses any side effect (synchronization,
	// hash upgrades) the check would otherwise perform.
	//
	// An error is reserved for conditions more severe than a wrong
	// credential, such as a recorded-vs-directory DN conflict; a plain bad
	// password is Deny with a nil error.
	CheckPassword(username, given string, readOnly bool) (Decision, error)

	// HasPassword reports whether this provider is authoritative for the
	// user. Password change requests are dispatched to the first provider
	// claiming ownership.
	HasPassword(username string) (bool, error)

	// ChangePassword stores a new password for the user. Providers that
	// are read-only by design return ErrChangeUnsupported.
	ChangePassword(username, newPassword string) error
}

// Event describes the outcome of one authentication attempt. Outcome is
// nil when no configured provider had an opinion.
type Event struct {
	Username string
	Outcome  *bool
}

// Listener consumes authentication outcomes, e.g. for throttling.
// Handling is synchronous on the authenticating goroutine.
type Listener interface {
	OnLoginAttempt(Event)
}

// NopListener discards all events.
type NopListener struct{}

// OnLoginAttempt implements Listener.
func (NopListener) OnLoginAttempt(Event) {}
