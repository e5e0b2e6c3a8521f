package models

import "time"

// Permission bits stored on the experimenter row. Only the bits this
// subsystem touches are named here.
const (
	// PermPasswordChangeRequired forces a password change on next login.
	// It is cleared whenever a password is written through PasswordUtil.
	PermPasswordChangeRequired int64 = 1 << 0
)

// Experimenter represents a user account in the local store.
// Accounts are either locally defined or synchronized from an LDAP
// directory, in which case the Ldap flag is set and a distinguished
// name is recorded on the credential row.
type Experimenter struct {
	// ID is the unique identifier for the experimenter.
	ID int64 `gorm:"primaryKey"`
	// OmeName is the unique login name.
	OmeName string `gorm:"column:ome_name;unique;size:255;not null"`
	// FirstName is the experimenter's first or given name.
	FirstName string `gorm:"size:255"`
	// MiddleName is the experimenter's middle name, if any.
	MiddleName string `gorm:"size:255"`
	// LastName is the experimenter's last or family name.
	LastName string `gorm:"size:255"`
	// Email is the experimenter's email address.
	Email string `gorm:"size:255"`
	// Institution is the experimenter's affiliated institution.
	Institution string `gorm:"size:255"`
	// Ldap indicates the account was synchronized from the directory.
	Ldap bool `gorm:"not null;default:false"`
	// Permissions holds row-level permission bits.
	Permissions int64 `gorm:"not null;default:0"`
	// CreatedAt is the timestamp when the experimenter was created (managed by GORM).
	CreatedAt time.Time
	// UpdatedAt is the timestamp when the experimenter was last updated (managed by GORM).
	UpdatedAt time.Time

	// DN is the directory distinguished name attached during mapping.
	// It is provenance metadata, consumed during synchronization only.
	DN string `gorm:"-"`
}

// TableName specifies the database table name for the Experimenter model.
// This overrides GORM's default pluralized table naming.
func (Experimenter) TableName() string {
	return "experimenters"
}
