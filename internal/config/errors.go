package config

import (
	"errors"
)

var (
	// ErrDBNameEmpty error if config db.name is empty.
	ErrDBNameEmpty = errors.New("toml config db.name can not be empty")

	// ErrLDAPHostEmpty error if LDAP is enabled without a host.
	ErrLDAPHostEmpty = errors.New("toml config ldap.host can not be empty when ldap is enabled")

	// ErrLDAPBaseEmpty error if LDAP is enabled without a search base.
	ErrLDAPBaseEmpty = errors.New("toml config ldap.base can not be empty when ldap is enabled")

	// ErrLDAPNewUserGroupEmpty error if LDAP is enabled without a
	// new-user-group specification.
	ErrLDAPNewUserGroupEmpty = errors.New("toml config ldap.newUserGroup can not be empty when ldap is enabled")
)
