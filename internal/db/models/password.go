package models

import "time"

// Password is the credential row for an experimenter. The hash is
// authoritative for locally defined accounts only: while LDAP is enabled,
// a non-empty DN marks the account as directory-synchronized and password
// checks are delegated to a directory bind instead.
type Password struct {
	// ExperimenterID is the ID of the experimenter this credential belongs to.
	ExperimenterID int64 `gorm:"primaryKey;column:experimenter_id"`
	// Experimenter is the associated experimenter (loaded via foreign key).
	Experimenter Experimenter `gorm:"foreignKey:ExperimenterID;constraint:OnDelete:CASCADE"`
	// Hash is the stored password hash. An empty string is an explicit
	// "no password required" marker for open-access accounts, not a
	// missing value.
	Hash string `gorm:"size:255"`
	// DN is the directory distinguished name for LDAP-synchronized
	// accounts, empty otherwise.
	DN string `gorm:"column:dn;size:255"`
	// ChangedAt is the timestamp of the last password write.
	ChangedAt time.Time
}

// TableName specifies the database table name for the Password model.
// This overrides GORM's default pluralized table naming.
func (Password) TableName() string {
	return "passwords"
}
