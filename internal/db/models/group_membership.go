package models

import "time"

// GroupMembership represents the many-to-many relationship between
// experimenters and groups. Memberships are linked idempotently during
// directory synchronization: relinking an existing pair is a no-op.
type GroupMembership struct {
	// ExperimenterID is the ID of the experimenter in this membership.
	ExperimenterID int64 `gorm:"primaryKey;column:experimenter_id"`
	// GroupID is the ID of the group in this membership.
	GroupID int64 `gorm:"primaryKey;column:group_id"`
	// Experimenter is the associated experimenter (loaded via foreign key).
	Experimenter Experimenter `gorm:"foreignKey:ExperimenterID;constraint:OnDelete:CASCADE"`
	// Group is the associated group (loaded via foreign key).
	Group Group `gorm:"foreignKey:GroupID;constraint:OnDelete:CASCADE"`
	// Owner marks the experimenter as an owner of the group.
	Owner bool `gorm:"not null;default:false"`
	// DefaultGroup marks this membership as the experimenter's working default.
	DefaultGroup bool `gorm:"not null;default:false"`
	// CreatedAt is the timestamp when the membership was created (managed by GORM).
	CreatedAt time.Time
}

// TableName specifies the database table name for the GroupMembership model.
// This overrides GORM's default pluralized table naming.
func (GroupMembership) TableName() string {
	return "group_memberships"
}
