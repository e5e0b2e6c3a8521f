package password

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/omero-admin/omero-auth/internal/db/store"
)

func writePasswordFile(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "passwords")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func fileProviderFixture(t *testing.T, s *store.Store, ignoreUnknown bool) *FileProvider {
	t.Helper()

	util := NewUtil(s, UtilConfig{PasswordRequired: true})
	path := writePasswordFile(t, `
# service accounts
root = `+util.Digest(nil, "root-secret")+`
backup=`+util.Digest(nil, "backup-secret")+`

malformed line without separator
`)

	return NewFileProvider(s, util, path, ignoreUnknown)
}

func TestFileProviderCheckPassword(t *testing.T) {
	s := setupStore(t)
	provider := fileProviderFixture(t, s, false)

	decision, err := provider.CheckPassword("root", "root-secret", false)
	require.NoError(t, err)
	assert.Equal(t, Allow, decision)

	decision, err = provider.CheckPassword("backup", "backup-secret", false)
	require.NoError(t, err)
	assert.Equal(t, Allow, decision, "whitespace around the separator is tolerated")

	decision, err = provider.CheckPassword("root", "wrong", false)
	require.NoError(t, err)
	assert.Equal(t, Deny, decision)
}

func TestFileProviderUnknownUser(t *testing.T) {
	s := setupStore(t)

	strict := fileProviderFixture(t, s, false)

	decision, err := strict.CheckPassword("ghost", "secret", false)
	require.NoError(t, err)
	assert.Equal(t, Deny, decision)

	tolerant := fileProviderFixture(t, s, true)

	decision, err = tolerant.CheckPassword("ghost", "secret", false)
	require.NoError(t, err)
	assert.Equal(t, Unknown, decision)
}

func TestFileProviderSaltedEntry(t *testing.T) {
	s := setupStore(t)
	util := NewUtil(s, UtilConfig{Salt: true, PasswordRequired: true})

	// The user has a local row, so a salted file entry works too.
	id := createUser(t, s, "jane", "")

	path := writePasswordFile(t, "jane = "+util.Digest(&id, "secret")+"\n")
	provider := NewFileProvider(s, util, path, false)

	decision, err := provider.CheckPassword("jane", "secret", false)
	require.NoError(t, err)
	assert.Equal(t, Allow, decision)
}

func TestFileProviderReloadsOnEveryCheck(t *testing.T) {
	s := setupStore(t)
	util := NewUtil(s, UtilConfig{PasswordRequired: true})

	path := writePasswordFile(t, "root = "+util.Digest(nil, "first")+"\n")
	provider := NewFileProvider(s, util, path, false)

	decision, err := provider.CheckPassword("root", "first", false)
	require.NoError(t, err)
	assert.Equal(t, Allow, decision)

	require.NoError(t, os.WriteFile(path, []byte("root = "+util.Digest(nil, "second")+"\n"), 0o600))

	decision, err = provider.CheckPassword("root", "first", false)
	require.NoError(t, err)
	assert.Equal(t, Deny, decision)

	decision, err = provider.CheckPassword("root", "second", false)
	require.NoError(t, err)
	assert.Equal(t, Allow, decision, "file edits take effect without a restart")
}

func TestFileProviderSurfacesStoreFailure(t *testing.T) {
	db, err := gorm.Open(
		sqlite.Open(filepath.Join(t.TempDir(), "test.db")),
		&gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)},
	)
	require.NoError(t, err)
	require.NoError(t, store.Migrate(db))

	sqlDB, err := db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	s := store.New(db)
	util := NewUtil(s, UtilConfig{})
	path := writePasswordFile(t, "root = "+util.Digest(nil, "secret")+"\n")

	provider := NewFileProvider(s, util, path, false)

	_, err = provider.CheckPassword("root", "secret", false)
	assert.Error(t, err, "a broken store must not degrade to an unsalted compare")
}

func TestFileProviderMissingFile(t *testing.T) {
	s := setupStore(t)
	provider := NewFileProvider(s, NewUtil(s, UtilConfig{}), "/nonexistent/passwords", false)

	_, err := provider.CheckPassword("root", "secret", false)
	assert.Error(t, err)
}

func TestFileProviderHasPassword(t *testing.T) {
	s := setupStore(t)
	provider := fileProviderFixture(t, s, false)

	owned, err := provider.HasPassword("root")
	require.NoError(t, err)
	assert.True(t, owned)

	owned, err = provider.HasPassword("ghost")
	require.NoError(t, err)
	assert.False(t, owned)
}

func TestFileProviderChangePasswordUnsupported(t *testing.T) {
	s := setupStore(t)
	provider := fileProviderFixture(t, s, false)

	assert.ErrorIs(t, provider.ChangePassword("root", "fresh"), ErrChangeUnsupported)
}
