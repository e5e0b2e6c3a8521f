package password

import (
	"errors"
	"fmt"
	"strings"

	goldap "github.com/go-ldap/ldap/v3"
	"github.com/rs/zerolog/log"

	"github.com/omero-admin/omero-auth/internal/db/store"
	"github.com/omero-admin/omero-auth/internal/directory"
	"github.com/omero-admin/omero-auth/internal/provision"
)

// LDAPProvider authenticates against the directory and keeps the local
// store synchronized with it.
//
// An unknown local user is created on first successful bind: the bind
// both authenticates and provisions the account, with group memberships
// derived by the configured strategy. For a known user the locally
// recorded DN is compared against a fresh directory lookup before
// anything else; a mismatch is an identity conflict and fails hard, it is
// never retried as a wrong password.
type LDAPProvider struct {
	cfg      *directory.Config
	ops      directory.Operations
	store    *store.Store
	roles    provision.RoleProvider
	strategy provision.GroupStrategy
}

// NewLDAPProvider creates a directory-backed password provider.
func NewLDAPProvider(
	cfg *directory.Config,
	ops directory.Operations,
	s *store.Store,
	roles provision.RoleProvider,
	strategy provision.GroupStrategy,
) *LDAPProvider {
	return &LDAPProvider{
		cfg:      cfg,
		ops:      ops,
		store:    s,
		roles:    roles,
		strategy: strategy,
	}
}

func (p *LDAPProvider) lookupName(username string) string {
	if p.cfg.CaseSensitive {
		return username
	}

	return strings.ToLower(username)
}

// CheckPassword verifies credentials against the directory.
func (p *LDAPProvider) CheckPassword(username, given string, readOnly bool) (Decision, error) {
	// An empty password would be an anonymous bind, which many directories
	// accept. That must never count as a verified credential.
	if given == "" {
		log.Warn().Str("omeName", username).Msg("rejected empty password for directory login")

		return Deny, nil
	}

	id, err := p.store.UserIDByName(p.lookupName(username))

	switch {
	case errors.Is(err, store.ErrNotFound):
		if readOnly {
			return Unknown, nil
		}

		return p.createOnLogin(username, given)
	case err != nil:
		return Unknown, err
	}

	localDN, err := p.store.UserDN(id)
	if err != nil {
		return Unknown, err
	}

	if localDN == "" {
		// Locally defined account; some other provider owns it.
		return Unknown, nil
	}

	currentDN, err := p.ops.FindUserDN(username)
	if err != nil {
		if errors.Is(err, directory.ErrNoSuchEntry) {
			// Removed from the directory: the account stays but can no
			// longer authenticate here.
			log.Warn().Str("omeName", username).Msg("directory-synchronized user no longer in directory")

			return Deny, nil
		}

		return Unknown, err
	}

	// The mismatch check runs strictly before any bind: an identity
	// conflict is more severe than a wrong password and must not be
	// masked by one.
	if !sameDN(localDN, currentDN) {
		return Deny, &DNMismatchError{Username: username, LocalDN: localDN, DirectoryDN: currentDN}
	}

	if p.cfg.SyncOnLogin && !readOnly {
		if errSync := p.synchronize(id, username); errSync != nil {
			return Unknown, errSync
		}
	}

	return p.bind(currentDN, given)
}

// createOnLogin provisions a local account for a directory user on first
// login. The supplied credentials are verified by binding as the user
// before anything is written.
func (p *LDAPProvider) createOnLogin(username, given string) (Decision, error) {
	dn, err := p.ops.FindUserDN(username)
	if err != nil {
		if errors.Is(err, directory.ErrNoSuchEntry) {
			return Unknown, nil
		}

		return Unknown, err
	}

	if errBind := p.ops.CheckBind(dn, given); errBind != nil {
		if errors.Is(errBind, directory.ErrBindFailed) {
			log.Info().Str("omeName", username).Msg("directory rejected credentials for new user")

			return Deny, nil
		}

		return Unknown, errBind
	}

	user, err := p.ops.FindUser(username)
	if err != nil {
		return Unknown, err
	}

	if _, err := p.provision(user); err != nil {
		return Unknown, err
	}

	return Allow, nil
}

// provision creates the local account for a directory user: derived
// groups first, then the experimenter row, then its recorded DN.
func (p *LDAPProvider) provision(user *directory.User) (int64, error) {
	username := user.Experimenter.OmeName

	groupIDs, err := p.strategy.Groups(user)
	if err != nil {
		return 0, err
	}

	if len(groupIDs) == 0 {
		return 0, fmt.Errorf("no groups derived for new directory user %q", username)
	}

	id, err := p.roles.CreateExperimenter(&user.Experimenter, groupIDs[0], groupIDs[1:]...)
	if err != nil {
		return 0, err
	}

	if err := p.store.SetUserDN(id, user.DN); err != nil {
		return 0, err
	}

	if p.cfg.NewUserGroupOwner {
		for _, groupID := range groupIDs {
			if errOwner := p.roles.SetGroupOwner(id, groupID, true); errOwner != nil {
				return 0, errOwner
			}
		}
	}

	log.Info().Str("omeName", username).Str("dn", user.DN).Int64("id", id).
		Msg("created experimenter from directory")

	return id, nil
}

// Synchronize provisions or refreshes a local account from the directory
// without checking credentials. It backs administrative synchronization,
// where the caller's authority substitutes for a bind as the user.
func (p *LDAPProvider) Synchronize(username string) (int64, error) {
	id, err := p.store.UserIDByName(p.lookupName(username))

	switch {
	case errors.Is(err, store.ErrNotFound):
		user, errFind := p.ops.FindUser(username)
		if errFind != nil {
			return 0, errFind
		}

		return p.provision(user)
	case err != nil:
		return 0, err
	}

	return id, p.synchronize(id, username)
}

// synchronize re-applies directory attributes and derived group
// memberships to an existing account.
func (p *LDAPProvider) synchronize(id int64, username string) error {
	user, err := p.ops.FindUser(username)
	if err != nil {
		return err
	}

	if err := p.store.UpdateExperimenterFields(id, &user.Experimenter); err != nil {
		return err
	}

	groupIDs, err := p.strategy.Groups(user)
	if err != nil {
		return err
	}

	if len(groupIDs) > 0 {
		if err := p.roles.AddGroups(id, groupIDs...); err != nil {
			return err
		}
	}

	log.Debug().Str("omeName", username).Int("groups", len(groupIDs)).
		Msg("synchronized experimenter from directory")

	return nil
}

// bind delegates the actual password validation to the directory.
func (p *LDAPProvider) bind(dn, given string) (Decision, error) {
	if err := p.ops.CheckBind(dn, given); err != nil {
		if errors.Is(err, directory.ErrBindFailed) {
			return Deny, nil
		}

		return Unknown, err
	}

	return Allow, nil
}

// HasPassword reports whether the user is directory-synchronized, i.e.
// has a recorded DN.
func (p *LDAPProvider) HasPassword(username string) (bool, error) {
	id, err := p.store.UserIDByName(p.lookupName(username))
	if errors.Is(err, store.ErrNotFound) {
		return false, nil
	}

	if err != nil {
		return false, err
	}

	dn, err := p.store.UserDN(id)
	if err != nil {
		return false, err
	}

	return dn != "", nil
}

// ChangePassword is unsupported: directory passwords are managed in the
// directory, not here.
func (p *LDAPProvider) ChangePassword(string, string) error {
	return ErrChangeUnsupported
}

// sameDN compares two distinguished names structurally, falling back to a
// case-insensitive string comparison when either fails to parse.
func sameDN(a, b string) bool {
	dnA, errA := goldap.ParseDN(a)
	dnB, errB := goldap.ParseDN(b)

	if errA != nil || errB != nil {
		return strings.EqualFold(a, b)
	}

	return dnA.EqualFold(dnB)
}
