// Package models defines the GORM models for the local account store:
// experimenters, groups, group memberships and credential rows.
//
// Experimenters and groups carry an Ldap flag marking rows that were
// synchronized from the directory rather than locally defined. Credential
// rows additionally record the distinguished name the account was mapped
// from; a non-empty DN means directory binds, not the stored hash, decide
// authentication while LDAP is enabled.
package models
