// Package daemon wires the authentication subsystem together: database,
// store, password providers, directory client and throttling, all built
// from one configuration.
package daemon

import (
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/omero-admin/omero-auth/internal/config"
	"github.com/omero-admin/omero-auth/internal/db/dsn"
	"github.com/omero-admin/omero-auth/internal/db/store"
	"github.com/omero-admin/omero-auth/internal/directory"
	"github.com/omero-admin/omero-auth/internal/password"
	"github.com/omero-admin/omero-auth/internal/provision"
	"github.com/omero-admin/omero-auth/internal/throttle"
)

// Daemon holds the assembled authentication subsystem.
type Daemon struct {
	cfg   *config.Config
	db    *gorm.DB
	store *store.Store
	util  *password.Util
	chain *password.Chain
	ldap  *password.LDAPProvider
}

// New assembles the subsystem from the configuration.
func New(cfg *config.Config) (*Daemon, error) {
	dialector, err := dsn.Dialector(cfg)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}

	if err = store.Migrate(db); err != nil {
		return nil, err
	}

	s := store.New(db)

	if err = seed(s); err != nil {
		return nil, err
	}

	util := password.NewUtil(s, password.UtilConfig{
		Salt:             cfg.Auth.Salt,
		PasswordRequired: cfg.Auth.PasswordRequired,
		GuestUserID:      cfg.Auth.GuestUserID,
	})

	var legacy *password.Util
	if cfg.Auth.LegacyUtil {
		legacy = password.NewUtil(s, password.UtilConfig{
			Salt:             false,
			Encoding:         password.EncodingLatin1,
			PasswordRequired: cfg.Auth.PasswordRequired,
			GuestUserID:      cfg.Auth.GuestUserID,
		})
	}

	var providers []password.Provider

	if cfg.Auth.PasswordFile != "" {
		providers = append(providers,
			password.NewFileProvider(s, util, cfg.Auth.PasswordFile, cfg.Auth.FileIgnoreUnknown))
	}

	var ldapProvider *password.LDAPProvider

	if cfg.LDAP.Enabled {
		client, errClient := directory.NewClient(&cfg.LDAP)
		if errClient != nil {
			return nil, errClient
		}

		simple := provision.NewSimpleRoleProvider(s, !cfg.LDAP.CaseSensitive)
		roles := provision.NewLdapRoleProvider(simple)

		// Strategies choose the directory flag per variant, so they get
		// the unwrapped provider; the wrapper would override the one
		// variant that creates locally flagged groups.
		strategy, errStrategy := provision.NewGroupStrategy(cfg.LDAP.NewUserGroup, &cfg.LDAP, client, simple)
		if errStrategy != nil {
			return nil, errStrategy
		}

		ldapProvider = password.NewLDAPProvider(&cfg.LDAP, client, s, roles, strategy)
		providers = append(providers, ldapProvider)
	}

	providers = append(providers,
		password.NewDBProvider(s, util, legacy, cfg.Auth.DBIgnoreUnknown))

	listener := throttle.NewLoginAttemptListener(throttle.NewCounters(), throttle.Config{
		Threshold: cfg.Auth.ThrottleCount,
		Delay:     time.Duration(cfg.Auth.ThrottleSeconds) * time.Second,
	})

	return &Daemon{
		cfg:   cfg,
		db:    db,
		store: s,
		util:  util,
		chain: password.NewChain(listener, providers...),
		ldap:  ldapProvider,
	}, nil
}

// CheckPassword runs the full provider chain for one login attempt.
func (d *Daemon) CheckPassword(username, given string) (password.Decision, error) {
	return d.chain.CheckPassword(username, given, false)
}

// ChangePassword dispatches a password change to the owning provider.
func (d *Daemon) ChangePassword(username, newPassword string) error {
	return d.chain.ChangePassword(username, newPassword)
}

// HashPassword computes the stored digest for a user id and clear text,
// for provisioning credential rows by hand.
func (d *Daemon) HashPassword(userID int64, clearText string) string {
	return d.util.Digest(&userID, clearText)
}

// SyncUser provisions or refreshes one account from the directory.
func (d *Daemon) SyncUser(username string) (int64, error) {
	if d.ldap == nil {
		return 0, directory.ErrDisabled
	}

	return d.ldap.Synchronize(username)
}
