package config

import (
	"github.com/omero-admin/omero-auth/internal/directory"
	"github.com/omero-admin/omero-auth/internal/logger"
)

// Config overall data structure.
type Config struct {
	DevMode bool // enable dev mode for development
	DB      DB
	Log     logger.Log
	Auth    Auth
	LDAP    directory.Config `toml:"ldap"`
}

// Auth implements the password-provider and throttling settings.
type Auth struct {
	// PasswordRequired globally enforces non-blank passwords.
	PasswordRequired bool
	// Salt mixes the user id into password digests.
	Salt bool
	// GuestUserID is the sentinel account exempt from the password
	// requirement (0 = none).
	GuestUserID int64
	// PasswordFile is a flat key=value file consulted before the
	// database; empty disables the file provider.
	PasswordFile string
	// FileIgnoreUnknown passes users absent from the file to the next
	// provider instead of denying them.
	FileIgnoreUnknown bool
	// DBIgnoreUnknown passes users without a local credential row to the
	// next provider instead of denying them.
	DBIgnoreUnknown bool
	// LegacyUtil consults an unsalted Latin-1 legacy digest utility as a
	// last resort and transparently re-hashes on a match.
	LegacyUtil bool
	// ThrottleCount is the consecutive-failure count above which further
	// failures are slowed down.
	ThrottleCount int `validate:"gte=0"`
	// ThrottleSeconds is how long an over-threshold failure is stalled.
	ThrottleSeconds int `validate:"gte=0"`
}

// DB holds the database configuration settings.
type DB struct {
	Extras     string
	Host       string
	Port       int
	User       string
	Password   string
	Name       string
	GormEngine string // mysql, postgres or sqlite
}
