package provision

import (
	"github.com/omero-admin/omero-auth/internal/db/models"
)

// LdapRoleProvider wraps SimpleRoleProvider for use during directory
// synchronization: everything it creates is marked directory-sourced
// regardless of what the caller passed.
type LdapRoleProvider struct {
	*SimpleRoleProvider
}

// NewLdapRoleProvider creates a RoleProvider whose created rows always
// carry the directory-sourced flag.
func NewLdapRoleProvider(inner *SimpleRoleProvider) *LdapRoleProvider {
	return &LdapRoleProvider{SimpleRoleProvider: inner}
}

// CreateGroup creates (or reuses) a group, always marked directory-sourced.
func (p *LdapRoleProvider) CreateGroup(name string, perms *string, strict bool, _ bool) (int64, error) {
	return p.SimpleRoleProvider.CreateGroup(name, perms, strict, true)
}

// CreateExperimenter creates an experimenter, always marked
// directory-sourced.
func (p *LdapRoleProvider) CreateExperimenter(exp *models.Experimenter, defaultGroupID int64, otherGroupIDs ...int64) (int64, error) {
	copied := *exp
	copied.Ldap = true

	return p.SimpleRoleProvider.CreateExperimenter(&copied, defaultGroupID, otherGroupIDs...)
}
