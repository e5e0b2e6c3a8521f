package models

import "time"

// Default permission descriptors for groups. The descriptor uses the
// rwrwrw notation of the wider system; only the default matters here.
const (
	// PermsPrivate is the permission descriptor applied to groups
	// created without an explicit descriptor.
	PermsPrivate = "rw----"
)

// Group represents an experimenter group in the local store.
// A group name is a deduplication key: creation always looks the name up
// first and reuses an existing row unless strict creation was requested.
type Group struct {
	// ID is the unique identifier for the group.
	ID int64 `gorm:"primaryKey"`
	// Name is the unique group name.
	Name string `gorm:"unique;size:255;not null"`
	// Description provides a human-readable explanation of the group's purpose.
	Description string `gorm:"size:255"`
	// Permissions is the group permission descriptor (e.g. "rw----").
	Permissions string `gorm:"size:32;not null"`
	// Ldap indicates the group was derived from the directory.
	Ldap bool `gorm:"not null;default:false"`
	// CreatedAt is the timestamp when the group was created (managed by GORM).
	CreatedAt time.Time
	// UpdatedAt is the timestamp when the group was last updated (managed by GORM).
	UpdatedAt time.Time
}

// TableName specifies the database table name for the Group model.
// This overrides GORM's default pluralized table naming.
func (Group) TableName() string {
	return "groups"
}
