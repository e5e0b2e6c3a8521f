// Package store implements the persistence port of the authentication
// subsystem over GORM. It exposes the narrow set of row operations the
// password providers and role provisioning need; general CRUD stays with
// the wider application.
package store

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/omero-admin/omero-auth/internal/db/models"
)

const whereExperimenterID = "experimenter_id = ?"

// Store provides row-level access to experimenters, groups, memberships
// and credential rows.
type Store struct {
	db *gorm.DB
}

// New creates a new store on top of an open GORM handle.
func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Migrate creates or updates the schema for all models owned by this
// subsystem.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&models.Experimenter{},
		&models.Group{},
		&models.GroupMembership{},
		&models.Password{},
	); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}

	return nil
}

// UserIDByName returns the experimenter id for a login name.
func (s *Store) UserIDByName(omeName string) (int64, error) {
	var exp models.Experimenter

	err := s.db.Select("id").Where("ome_name = ?", omeName).First(&exp).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, ErrNotFound
	}

	if err != nil {
		return 0, fmt.Errorf("failed to query experimenter id: %w", err)
	}

	return exp.ID, nil
}

// UsernameByID returns the login name for an experimenter id.
func (s *Store) UsernameByID(id int64) (string, error) {
	var exp models.Experimenter

	err := s.db.Select("ome_name").First(&exp, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", ErrNotFound
	}

	if err != nil {
		return "", fmt.Errorf("failed to query experimenter name: %w", err)
	}

	return exp.OmeName, nil
}

// ExperimenterByID loads a full experimenter row.
func (s *Store) ExperimenterByID(id int64) (*models.Experimenter, error) {
	var exp models.Experimenter

	err := s.db.First(&exp, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("failed to query experimenter: %w", err)
	}

	return &exp, nil
}

// CreateExperimenter persists a new experimenter row and returns its id.
func (s *Store) CreateExperimenter(exp *models.Experimenter) (int64, error) {
	if err := s.db.Create(exp).Error; err != nil {
		return 0, fmt.Errorf("failed to create experimenter: %w", err)
	}

	return exp.ID, nil
}

// UpdateExperimenterFields writes the allow-listed identity fields of exp
// onto an existing row. The login name and permission bits are not touched.
func (s *Store) UpdateExperimenterFields(id int64, exp *models.Experimenter) error {
	res := s.db.Model(&models.Experimenter{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"first_name":  exp.FirstName,
			"middle_name": exp.MiddleName,
			"last_name":   exp.LastName,
			"email":       exp.Email,
			"institution": exp.Institution,
		})
	if res.Error != nil {
		return fmt.Errorf("failed to update experimenter: %w", res.Error)
	}

	if res.RowsAffected == 0 {
		return ErrNoRowsUpdated
	}

	return nil
}

// SetExperimenterLdap sets the directory-sourced flag on an experimenter row.
func (s *Store) SetExperimenterLdap(id int64, ldap bool) error {
	return s.db.Model(&models.Experimenter{}).
		Where("id = ?", id).
		Update("ldap", ldap).Error
}

// ClearPermissionBit clears a single permission bit on the experimenter row.
func (s *Store) ClearPermissionBit(id int64, bit int64) error {
	var exp models.Experimenter

	err := s.db.Select("id", "permissions").First(&exp, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}

	if err != nil {
		return fmt.Errorf("failed to query permissions: %w", err)
	}

	return s.db.Model(&models.Experimenter{}).
		Where("id = ?", id).
		Update("permissions", exp.Permissions&^bit).Error
}

// PasswordHash returns the stored hash for an experimenter, or ErrNotFound
// when no credential row exists. An empty hash is a valid value (an
// open-access marker), distinct from a missing row.
func (s *Store) PasswordHash(id int64) (string, error) {
	var pw models.Password

	err := s.db.Where(whereExperimenterID, id).First(&pw).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", ErrNotFound
	}

	if err != nil {
		return "", fmt.Errorf("failed to query password hash: %w", err)
	}

	return pw.Hash, nil
}

// SetPasswordHash updates the stored hash for an existing credential row.
// Returns ErrNoRowsUpdated if the row vanished.
func (s *Store) SetPasswordHash(id int64, hash string) error {
	res := s.db.Model(&models.Password{}).
		Where(whereExperimenterID, id).
		Updates(map[string]interface{}{
			"hash":       hash,
			"changed_at": time.Now(),
		})
	if res.Error != nil {
		return fmt.Errorf("failed to update password hash: %w", res.Error)
	}

	if res.RowsAffected == 0 {
		return ErrNoRowsUpdated
	}

	return nil
}

// CreateCredential inserts a credential row for a newly provisioned
// experimenter.
func (s *Store) CreateCredential(id int64, hash, dn string) error {
	pw := models.Password{
		ExperimenterID: id,
		Hash:           hash,
		DN:             dn,
		ChangedAt:      time.Now(),
	}

	if err := s.db.Create(&pw).Error; err != nil {
		return fmt.Errorf("failed to create credential row: %w", err)
	}

	return nil
}

// UserDN returns the recorded distinguished name for an experimenter.
// An empty string means the account is not directory-synchronized.
func (s *Store) UserDN(id int64) (string, error) {
	var pw models.Password

	err := s.db.Where(whereExperimenterID, id).First(&pw).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}

	if err != nil {
		return "", fmt.Errorf("failed to query dn: %w", err)
	}

	return pw.DN, nil
}

// SetUserDN records the distinguished name for an experimenter, creating
// the credential row if none exists yet. The directory-sourced flag on the
// experimenter row follows the presence of a DN.
func (s *Store) SetUserDN(id int64, dn string) error {
	var pw models.Password

	err := s.db.Where(whereExperimenterID, id).First(&pw).Error

	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		if errCreate := s.CreateCredential(id, "", dn); errCreate != nil {
			return errCreate
		}
	case err != nil:
		return fmt.Errorf("failed to query credential row: %w", err)
	default:
		if errUpdate := s.db.Model(&models.Password{}).
			Where(whereExperimenterID, id).
			Update("dn", dn).Error; errUpdate != nil {
			return fmt.Errorf("failed to update dn: %w", errUpdate)
		}
	}

	return s.SetExperimenterLdap(id, dn != "")
}

// GroupByName returns the group row for a name, or ErrNotFound.
func (s *Store) GroupByName(name string) (*models.Group, error) {
	var group models.Group

	err := s.db.Where("name = ?", name).First(&group).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("failed to query group: %w", err)
	}

	return &group, nil
}

// GroupByID loads a full group row.
func (s *Store) GroupByID(id int64) (*models.Group, error) {
	var group models.Group

	err := s.db.First(&group, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}

	if err != nil {
		return nil, fmt.Errorf("failed to query group: %w", err)
	}

	return &group, nil
}

// CreateGroup persists a new group row and returns its id.
func (s *Store) CreateGroup(group *models.Group) (int64, error) {
	if err := s.db.Create(group).Error; err != nil {
		return 0, fmt.Errorf("failed to create group: %w", err)
	}

	return group.ID, nil
}

// SetGroupLdap sets the directory-sourced flag on a group row.
func (s *Store) SetGroupLdap(id int64, ldap bool) error {
	return s.db.Model(&models.Group{}).
		Where("id = ?", id).
		Update("ldap", ldap).Error
}

// Memberships lists an experimenter's group memberships with the group
// rows preloaded, ordered by creation time.
func (s *Store) Memberships(experimenterID int64) ([]models.GroupMembership, error) {
	var links []models.GroupMembership

	err := s.db.Preload("Group").
		Where(whereExperimenterID, experimenterID).
		Order("created_at").
		Find(&links).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query memberships: %w", err)
	}

	return links, nil
}

// CreateMembership inserts a membership link.
func (s *Store) CreateMembership(link *models.GroupMembership) error {
	if err := s.db.Create(link).Error; err != nil {
		return fmt.Errorf("failed to create membership: %w", err)
	}

	return nil
}

// RemoveMembership deletes the link between an experimenter and a group.
func (s *Store) RemoveMembership(experimenterID, groupID int64) error {
	return s.db.
		Where("experimenter_id = ? AND group_id = ?", experimenterID, groupID).
		Delete(&models.GroupMembership{}).Error
}

// SetMembershipOwner updates the owner flag on an existing link.
func (s *Store) SetMembershipOwner(experimenterID, groupID int64, owner bool) error {
	res := s.db.Model(&models.GroupMembership{}).
		Where("experimenter_id = ? AND group_id = ?", experimenterID, groupID).
		Update("owner", owner)
	if res.Error != nil {
		return fmt.Errorf("failed to update owner flag: %w", res.Error)
	}

	if res.RowsAffected == 0 {
		return ErrNoRowsUpdated
	}

	return nil
}

// SetDefaultMembership marks one link as the experimenter's default group
// and clears the flag on every other link.
func (s *Store) SetDefaultMembership(experimenterID, groupID int64) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.GroupMembership{}).
			Where(whereExperimenterID, experimenterID).
			Update("default_group", false).Error; err != nil {
			return fmt.Errorf("failed to clear default flags: %w", err)
		}

		res := tx.Model(&models.GroupMembership{}).
			Where("experimenter_id = ? AND group_id = ?", experimenterID, groupID).
			Update("default_group", true)
		if res.Error != nil {
			return fmt.Errorf("failed to set default flag: %w", res.Error)
		}

		if res.RowsAffected == 0 {
			return ErrNoRowsUpdated
		}

		return nil
	})
}
