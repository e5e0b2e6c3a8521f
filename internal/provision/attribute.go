package provision

import (
	"github.com/rs/zerolog/log"

	"github.com/omero-admin/omero-auth/internal/directory"
)

// AttributeStrategy derives group names from the values of one directory
// attribute on the user's entry.
//
// In dn mode each value is itself a distinguished name: it must sit under
// the configured base, and the group name is read from the entry at that
// DN via a secondary lookup. In filtered mode only names present in the
// directory-wide group listing are accepted; everything else is skipped
// with a debug log rather than failing the login.
type AttributeStrategy struct {
	cfg       *directory.Config
	ops       directory.Operations
	roles     RoleProvider
	attribute string
	dnMode    bool
	filtered  bool
}

// Groups derives the group ids for the user.
func (s *AttributeStrategy) Groups(user *directory.User) ([]int64, error) {
	values := user.Attributes.GetAll(s.attribute)
	if len(values) == 0 {
		log.Debug().
			Str("omeName", user.Experimenter.OmeName).
			Str("attribute", s.attribute).
			Msg("attribute absent, no groups derived")

		return nil, nil
	}

	var allowed map[string]bool

	if s.filtered {
		names, err := s.ops.ListGroupNames()
		if err != nil {
			return nil, err
		}

		allowed = make(map[string]bool, len(names))
		for _, name := range names {
			allowed[name] = true
		}
	}

	var groupIDs []int64

	for _, value := range values {
		name := value

		if s.dnMode {
			if _, err := s.ops.RelativeDN(value); err != nil {
				return nil, err
			}

			resolved, err := s.ops.GroupNameByDN(value)
			if err != nil {
				return nil, err
			}

			name = resolved
		}

		if s.filtered && !allowed[name] {
			log.Debug().
				Str("omeName", user.Experimenter.OmeName).
				Str("group", name).
				Msg("group not in directory listing, skipped")

			continue
		}

		id, err := s.roles.CreateGroup(name, nil, false, true)
		if err != nil {
			return nil, err
		}

		groupIDs = append(groupIDs, id)
	}

	return groupIDs, nil
}

// FilteredAttributeStrategy is the historical variant of the filtered
// attribute strategy: the directory-listing filter applies
// unconditionally. It also does not mark created groups as
// directory-sourced; existing deployments rely on that, so the difference
// is kept rather than unified with AttributeStrategy.
type FilteredAttributeStrategy struct {
	cfg       *directory.Config
	ops       directory.Operations
	roles     RoleProvider
	attribute string
}

// Groups derives the group ids for the user.
func (s *FilteredAttributeStrategy) Groups(user *directory.User) ([]int64, error) {
	names, err := s.ops.ListGroupNames()
	if err != nil {
		return nil, err
	}

	allowed := make(map[string]bool, len(names))
	for _, name := range names {
		allowed[name] = true
	}

	var groupIDs []int64

	for _, name := range user.Attributes.GetAll(s.attribute) {
		if !allowed[name] {
			log.Debug().
				Str("omeName", user.Experimenter.OmeName).
				Str("group", name).
				Msg("group not in directory listing, skipped")

			continue
		}

		id, err := s.roles.CreateGroup(name, nil, false, false)
		if err != nil {
			return nil, err
		}

		groupIDs = append(groupIDs, id)
	}

	return groupIDs, nil
}
