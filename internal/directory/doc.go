// Package directory implements the LDAP search port of the authentication
// subsystem: query construction, DN arithmetic against the configured
// base, and mapping of directory entries to domain objects.
//
// The Operations interface is the seam between directory consumers (the
// LDAP password provider and the new-user group strategies) and the wire:
// Client satisfies it against a live server via go-ldap, tests satisfy it
// with fakes.
//
// Attribute access goes through AttributeSet, which keeps the single- vs
// multi-valued distinction explicit so that consumers needing exactly one
// value fail fast on ambiguous directory data instead of picking a value
// arbitrarily.
package directory
