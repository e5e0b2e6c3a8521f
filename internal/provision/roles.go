package provision

import (
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/omero-admin/omero-auth/internal/db/models"
	"github.com/omero-admin/omero-auth/internal/db/store"
)

// UserGroupName is the built-in group every experimenter belongs to. It
// only acts as the default group when no other membership exists.
const UserGroupName = "user"

// RoleProvider creates users and groups in the local store and manages
// their membership links. Every operation is idempotent so repeated
// directory synchronization can re-invoke it safely.
type RoleProvider interface {
	// CreateGroup looks a group up by name and creates it if absent. With
	// strict set, an existing group is an error instead of being reused.
	CreateGroup(name string, perms *string, strict bool, fromLdap bool) (int64, error)
	// CreateExperimenter copies the allow-listed identity fields of exp
	// into a new row and links the default and other groups.
	CreateExperimenter(exp *models.Experimenter, defaultGroupID int64, otherGroupIDs ...int64) (int64, error)
	// LinkGroupAndUser links an experimenter into a group. Relinking an
	// already-linked pair is a no-op.
	LinkGroupAndUser(experimenterID, groupID int64, owner bool) error
	// SetDefaultGroup marks an existing membership as the experimenter's
	// default group.
	SetDefaultGroup(experimenterID, groupID int64) error
	// SetGroupOwner updates the owner flag on an existing membership.
	SetGroupOwner(experimenterID, groupID int64, owner bool) error
	// AddGroups links the experimenter into each group and re-derives the
	// default group.
	AddGroups(experimenterID int64, groupIDs ...int64) error
	// RemoveGroups unlinks the experimenter from each group and re-derives
	// the default group.
	RemoveGroups(experimenterID int64, groupIDs ...int64) error
}

// SimpleRoleProvider is the store-backed RoleProvider.
type SimpleRoleProvider struct {
	store *store.Store

	// caseInsensitive lower-cases login names before storage so later
	// lookups are deterministic regardless of directory case.
	caseInsensitive bool
}

// NewSimpleRoleProvider creates a RoleProvider over the given store.
func NewSimpleRoleProvider(s *store.Store, caseInsensitive bool) *SimpleRoleProvider {
	return &SimpleRoleProvider{store: s, caseInsensitive: caseInsensitive}
}

// CreateGroup looks a group up by name first and only creates it when
// absent, making repeated synchronization runs converge on one row per
// distinct name.
func (p *SimpleRoleProvider) CreateGroup(name string, perms *string, strict bool, fromLdap bool) (int64, error) {
	existing, err := p.store.GroupByName(name)

	switch {
	case err == nil:
		if strict {
			return 0, fmt.Errorf("%w: %q", ErrGroupExists, name)
		}

		return existing.ID, nil
	case !errors.Is(err, store.ErrNotFound):
		return 0, err
	}

	permissions := models.PermsPrivate
	if perms != nil {
		permissions = *perms
	}

	group := models.Group{
		Name:        name,
		Permissions: permissions,
		Ldap:        fromLdap,
	}

	id, err := p.store.CreateGroup(&group)
	if err != nil {
		return 0, err
	}

	log.Info().Str("group", name).Int64("id", id).Bool("ldap", fromLdap).Msg("created group")

	return id, nil
}

// CreateExperimenter persists a new experimenter and links its groups.
// Only allow-listed identity fields are copied from exp; an externally
// constructed object graph is never persisted blindly.
func (p *SimpleRoleProvider) CreateExperimenter(exp *models.Experimenter, defaultGroupID int64, otherGroupIDs ...int64) (int64, error) {
	omeName := exp.OmeName
	if p.caseInsensitive {
		omeName = strings.ToLower(omeName)
	}

	copied := models.Experimenter{
		OmeName:     omeName,
		FirstName:   exp.FirstName,
		MiddleName:  exp.MiddleName,
		LastName:    exp.LastName,
		Email:       exp.Email,
		Institution: exp.Institution,
		Ldap:        exp.Ldap,
	}

	id, err := p.store.CreateExperimenter(&copied)
	if err != nil {
		return 0, err
	}

	if err := p.store.CreateMembership(&models.GroupMembership{
		ExperimenterID: id,
		GroupID:        defaultGroupID,
		DefaultGroup:   true,
	}); err != nil {
		return 0, err
	}

	for _, groupID := range otherGroupIDs {
		if groupID == defaultGroupID {
			continue
		}

		if err := p.LinkGroupAndUser(id, groupID, false); err != nil {
			return 0, err
		}
	}

	log.Info().Str("omeName", omeName).Int64("id", id).Msg("created experimenter")

	return id, nil
}

// LinkGroupAndUser links an experimenter into a group, treating an
// existing link as a no-op.
func (p *SimpleRoleProvider) LinkGroupAndUser(experimenterID, groupID int64, owner bool) error {
	links, err := p.store.Memberships(experimenterID)
	if err != nil {
		return err
	}

	for _, link := range links {
		if link.GroupID == groupID {
			return nil
		}
	}

	return p.store.CreateMembership(&models.GroupMembership{
		ExperimenterID: experimenterID,
		GroupID:        groupID,
		Owner:          owner,
	})
}

// membershipFor finds the links between an experimenter and one group.
// Exactly one is expected: zero is a hard failure, more than one is a
// data-integrity anomaly that is logged but tolerated.
func (p *SimpleRoleProvider) membershipFor(experimenterID, groupID int64) (*models.GroupMembership, error) {
	links, err := p.store.Memberships(experimenterID)
	if err != nil {
		return nil, err
	}

	var matches []models.GroupMembership

	for _, link := range links {
		if link.GroupID == groupID {
			matches = append(matches, link)
		}
	}

	switch {
	case len(matches) == 0:
		return nil, fmt.Errorf("%w: experimenter=%d group=%d", ErrNoMembership, experimenterID, groupID)
	case len(matches) > 1:
		log.Warn().
			Int64("experimenter", experimenterID).
			Int64("group", groupID).
			Int("links", len(matches)).
			Msg("multiple membership links for one pair, using the first")
	}

	return &matches[0], nil
}

// SetDefaultGroup marks an existing membership as the experimenter's
// default group.
func (p *SimpleRoleProvider) SetDefaultGroup(experimenterID, groupID int64) error {
	if _, err := p.membershipFor(experimenterID, groupID); err != nil {
		return err
	}

	return p.store.SetDefaultMembership(experimenterID, groupID)
}

// SetGroupOwner updates the owner flag on an existing membership.
func (p *SimpleRoleProvider) SetGroupOwner(experimenterID, groupID int64, owner bool) error {
	if _, err := p.membershipFor(experimenterID, groupID); err != nil {
		return err
	}

	return p.store.SetMembershipOwner(experimenterID, groupID, owner)
}

// AddGroups links the experimenter into each group, then re-derives the
// default group.
func (p *SimpleRoleProvider) AddGroups(experimenterID int64, groupIDs ...int64) error {
	for _, groupID := range groupIDs {
		if err := p.LinkGroupAndUser(experimenterID, groupID, false); err != nil {
			return err
		}
	}

	return p.fixDefaultGroup(experimenterID)
}

// RemoveGroups unlinks the experimenter from each group, then re-derives
// the default group.
func (p *SimpleRoleProvider) RemoveGroups(experimenterID int64, groupIDs ...int64) error {
	for _, groupID := range groupIDs {
		if err := p.store.RemoveMembership(experimenterID, groupID); err != nil {
			return err
		}
	}

	return p.fixDefaultGroup(experimenterID)
}

// fixDefaultGroup demotes the built-in "user" group from default status
// when another membership exists: a newly granted explicit group should
// take priority as the experimenter's working default.
func (p *SimpleRoleProvider) fixDefaultGroup(experimenterID int64) error {
	links, err := p.store.Memberships(experimenterID)
	if err != nil {
		return err
	}

	var current *models.GroupMembership

	for i := range links {
		if links[i].DefaultGroup {
			current = &links[i]
			break
		}
	}

	if current == nil || current.Group.Name != UserGroupName {
		return nil
	}

	for i := range links {
		if links[i].GroupID == current.GroupID {
			continue
		}

		log.Info().
			Int64("experimenter", experimenterID).
			Str("from", current.Group.Name).
			Str("to", links[i].Group.Name).
			Msg("moving default group off the built-in user group")

		return p.store.SetDefaultMembership(experimenterID, links[i].GroupID)
	}

	return nil
}
