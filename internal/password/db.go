package password

import (
	"errors"

	"github.com/omero-admin/omero-auth/internal/db/store"
)

// DBProvider authenticates against password hashes stored on the local
// credential rows. It supports the salted digest format with an unsalted
// fallback retry so accounts hashed before salting was enabled keep
// working through the migration window, and an optional legacy utility
// whose matches are transparently re-hashed with the current one.
type DBProvider struct {
	comparer

	store *store.Store

	// ignoreUnknown selects the answer for login names without a local
	// row: Unknown passes them on, otherwise they are denied.
	ignoreUnknown bool
}

// NewDBProvider creates a store-backed password provider. legacy may be
// nil when no legacy digest utility is configured.
func NewDBProvider(s *store.Store, util, legacy *Util, ignoreUnknown bool) *DBProvider {
	return &DBProvider{
		comparer:      comparer{util: util, legacy: legacy},
		store:         s,
		ignoreUnknown: ignoreUnknown,
	}
}

// NewLegacyDBProvider creates a provider for stores still on the unsalted
// digest format: the utility is used as-is and no upgrade path applies.
func NewLegacyDBProvider(s *store.Store, util *Util, ignoreUnknown bool) *DBProvider {
	return &DBProvider{
		comparer:      comparer{util: util},
		store:         s,
		ignoreUnknown: ignoreUnknown,
	}
}

func (p *DBProvider) unknown() Decision {
	if p.ignoreUnknown {
		return Unknown
	}

	return Deny
}

// CheckPassword verifies the given password against the stored hash.
func (p *DBProvider) CheckPassword(username, given string, readOnly bool) (Decision, error) {
	id, err := p.store.UserIDByName(username)
	if errors.Is(err, store.ErrNotFound) {
		return p.unknown(), nil
	}

	if err != nil {
		return Unknown, err
	}

	hash, err := p.store.PasswordHash(id)
	if errors.Is(err, store.ErrNotFound) {
		return p.unknown(), nil
	}

	if err != nil {
		return Unknown, err
	}

	if p.comparePasswords(&id, &hash, given, readOnly) {
		return Allow, nil
	}

	return Deny, nil
}

// HasPassword reports whether a credential row exists for the user.
func (p *DBProvider) HasPassword(username string) (bool, error) {
	id, err := p.store.UserIDByName(username)
	if errors.Is(err, store.ErrNotFound) {
		return false, nil
	}

	if err != nil {
		return false, err
	}

	_, err = p.store.PasswordHash(id)
	if errors.Is(err, store.ErrNotFound) {
		return false, nil
	}

	if err != nil {
		return false, err
	}

	return true, nil
}

// ChangePassword writes a new hash through the utility.
func (p *DBProvider) ChangePassword(username, newPassword string) error {
	id, err := p.store.UserIDByName(username)
	if err != nil {
		return err
	}

	return p.util.ChangeUserPasswordByID(id, &newPassword)
}
