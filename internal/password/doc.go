// Package password implements password verification across pluggable
// backends: a flat file, locally stored hashes and an LDAP directory,
// composed through Chain in fixed configuration order.
//
// Each provider answers with a tri-state Decision so "wrong password" and
// "not my user" stay distinct: the first Allow or Deny wins, Unknown moves
// on, and an all-Unknown chain rejects. Password changes are dispatched to
// the single provider that claims ownership of the user.
//
// Util owns digest computation and the password-requirement policy. The
// write format is the store's historical salted MD5 digest; verification
// additionally recognizes unsalted digests from before salting was
// enabled, argon2id and bcrypt values written by other tooling, and an
// optionally configured legacy utility whose matches are transparently
// re-hashed.
//
// The directory-backed provider also provisions local accounts: a first
// successful bind creates the experimenter, derives its groups through the
// configured strategy and records the entry's DN. On later logins the
// recorded DN is checked against a fresh lookup before any bind, and a
// mismatch fails hard as DNMismatchError.
package password
