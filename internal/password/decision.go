package password

// Decision is the tri-state outcome of a password check. A provider that
// is not authoritative for a user answers Unknown so the next provider in
// the chain is consulted; only Allow and Deny are final.
type Decision int

const (
	// Unknown means the provider has no opinion about the user.
	Unknown Decision = iota
	// Allow means the credentials were verified.
	Allow
	// Deny means the credentials were rejected.
	Deny
)

// String implements fmt.Stringer.
func (d Decision) String() string {
	switch d {
	case Allow:
		return "allow"
	case Deny:
		return "deny"
	default:
		return "unknown"
	}
}

// Outcome converts the decision to the nullable outcome published with
// login events: nil for Unknown, otherwise success or failure.
func (d Decision) Outcome() *bool {
	switch d {
	case Allow:
		v := true
		return &v
	case Deny:
		v := false
		return &v
	default:
		return nil
	}
}
