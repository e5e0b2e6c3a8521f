package provision

import (
	"strings"

	"github.com/omero-admin/omero-auth/internal/directory"
)

// Strategy prefixes recognized in a new-user-group specification. A
// specification not starting with any of them is taken as a literal group
// name.
const (
	prefixAttribute           = ":attribute:"
	prefixDNAttribute         = ":dn_attribute:"
	prefixFilteredDNAttribute = ":filtered_dn_attribute:"
	prefixFilteredAttribute   = ":filtered_attribute:"
	prefixOrgUnit             = ":ou:"
	prefixQuery               = ":query:"
)

// GroupStrategy computes which groups a newly synchronized directory user
// should join. Implementations derive candidate group names from the
// user's entry and create each one non-strictly, reusing groups that
// already exist.
type GroupStrategy interface {
	// Groups returns the local group ids the user should be linked into.
	Groups(user *directory.User) ([]int64, error)
}

// NewGroupStrategy parses a new-user-group specification and constructs
// the strategy it selects. The specification shape is decided once at
// configuration-load time; directory data never changes which strategy
// runs.
func NewGroupStrategy(spec string, cfg *directory.Config, ops directory.Operations, roles RoleProvider) (GroupStrategy, error) {
	switch {
	case strings.HasPrefix(spec, prefixFilteredDNAttribute):
		return &AttributeStrategy{
			cfg:       cfg,
			ops:       ops,
			roles:     roles,
			attribute: strings.TrimPrefix(spec, prefixFilteredDNAttribute),
			dnMode:    true,
			filtered:  true,
		}, nil
	case strings.HasPrefix(spec, prefixFilteredAttribute):
		return &FilteredAttributeStrategy{
			cfg:       cfg,
			ops:       ops,
			roles:     roles,
			attribute: strings.TrimPrefix(spec, prefixFilteredAttribute),
		}, nil
	case strings.HasPrefix(spec, prefixDNAttribute):
		return &AttributeStrategy{
			cfg:       cfg,
			ops:       ops,
			roles:     roles,
			attribute: strings.TrimPrefix(spec, prefixDNAttribute),
			dnMode:    true,
		}, nil
	case strings.HasPrefix(spec, prefixAttribute):
		return &AttributeStrategy{
			cfg:       cfg,
			ops:       ops,
			roles:     roles,
			attribute: strings.TrimPrefix(spec, prefixAttribute),
		}, nil
	case strings.HasPrefix(spec, prefixOrgUnit):
		return &OrgUnitStrategy{cfg: cfg, roles: roles}, nil
	case strings.HasPrefix(spec, prefixQuery):
		return &QueryStrategy{
			cfg:      cfg,
			ops:      ops,
			roles:    roles,
			template: strings.TrimPrefix(spec, prefixQuery),
		}, nil
	case strings.HasPrefix(spec, ":"):
		return nil, ErrUnknownStrategy
	default:
		return &LiteralStrategy{roles: roles, name: spec}, nil
	}
}

// LiteralStrategy places every new user into one configured group,
// created on first use.
type LiteralStrategy struct {
	roles RoleProvider
	name  string
}

// Groups returns the id of the configured group.
func (s *LiteralStrategy) Groups(_ *directory.User) ([]int64, error) {
	id, err := s.roles.CreateGroup(s.name, nil, false, true)
	if err != nil {
		return nil, err
	}

	return []int64{id}, nil
}
