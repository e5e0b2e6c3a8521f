package provision

import (
	"fmt"
	"strings"

	"github.com/go-ldap/ldap/v3"

	"github.com/omero-admin/omero-auth/internal/directory"
)

// OrgUnitStrategy derives a single group from the user's own DN: walking
// the relative components from the least significant upward, the first
// "ou=" component found names the group.
type OrgUnitStrategy struct {
	cfg   *directory.Config
	roles RoleProvider
}

// Groups derives the group id for the user.
func (s *OrgUnitStrategy) Groups(user *directory.User) ([]int64, error) {
	parsed, err := ldap.ParseDN(user.DN)
	if err != nil {
		return nil, fmt.Errorf("failed to parse user dn %q: %w", user.DN, err)
	}

	for _, rdn := range parsed.RDNs {
		for _, atv := range rdn.Attributes {
			if !strings.EqualFold(atv.Type, "ou") {
				continue
			}

			id, errCreate := s.roles.CreateGroup(atv.Value, nil, false, true)
			if errCreate != nil {
				return nil, errCreate
			}

			return []int64{id}, nil
		}
	}

	return nil, fmt.Errorf("no ou component in dn %q", user.DN)
}
