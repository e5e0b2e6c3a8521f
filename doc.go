// Package main provides the entry point for the authentication and
// role-provisioning service. It verifies logins against a chain of
// password providers (flat file, local store, LDAP directory) and keeps
// directory users and their group memberships synchronized into the local
// database. The application uses gorm for data persistence and go-ldap
// for directory access.
package main
