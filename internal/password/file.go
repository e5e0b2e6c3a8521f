package password

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/omero-admin/omero-auth/internal/db/store"
)

// FileProvider authenticates against a flat key=value file of login names
// and trusted password values. The file is re-read on every check so edits
// take effect without a restart. The provider is read-only: the file is
// maintained by hand, not through the API.
type FileProvider struct {
	comparer

	store *store.Store
	path  string

	// ignoreUnknown selects the answer for users absent from the file:
	// Unknown passes them to the next provider, otherwise they are denied.
	ignoreUnknown bool
}

// NewFileProvider creates a flat-file password provider.
func NewFileProvider(s *store.Store, util *Util, path string, ignoreUnknown bool) *FileProvider {
	return &FileProvider{
		comparer:      comparer{util: util},
		store:         s,
		path:          path,
		ignoreUnknown: ignoreUnknown,
	}
}

// load parses the key=value file. Blank lines and #-comments are skipped.
func (p *FileProvider) load() (map[string]string, error) {
	f, err := os.Open(p.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open password file: %w", err)
	}

	defer func() {
		if errClose := f.Close(); errClose != nil {
			log.Warn().Err(errClose).Str("path", p.path).Msg("failed to close password file")
		}
	}()

	entries := make(map[string]string)
	scanner := bufio.NewScanner(f)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key, value, found := strings.Cut(line, "=")
		if !found {
			continue
		}

		entries[strings.TrimSpace(key)] = strings.TrimSpace(value)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read password file: %w", err)
	}

	return entries, nil
}

// CheckPassword verifies the given password against the file entry.
func (p *FileProvider) CheckPassword(username, given string, readOnly bool) (Decision, error) {
	entries, err := p.load()
	if err != nil {
		return Unknown, err
	}

	trusted, ok := entries[username]
	if !ok {
		if p.ignoreUnknown {
			return Unknown, nil
		}

		return Deny, nil
	}

	// File users may have no local row; salting then does not apply. A
	// store failure is still a failure, only a missing row is tolerated.
	var userID *int64

	id, errLookup := p.store.UserIDByName(username)

	switch {
	case errLookup == nil:
		userID = &id
	case !errors.Is(errLookup, store.ErrNotFound):
		return Unknown, errLookup
	}

	if p.comparePasswords(userID, &trusted, given, readOnly) {
		return Allow, nil
	}

	return Deny, nil
}

// HasPassword reports whether the user appears in the file.
func (p *FileProvider) HasPassword(username string) (bool, error) {
	entries, err := p.load()
	if err != nil {
		return false, err
	}

	_, ok := entries[username]

	return ok, nil
}

// ChangePassword is unsupported: the file is maintained by hand.
func (p *FileProvider) ChangePassword(string, string) error {
	return ErrChangeUnsupported
}
