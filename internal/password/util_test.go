package password

import (
	"encoding/base64"
	"path/filepath"
	"testing"

	"github.com/alexedwards/argon2id"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/omero-admin/omero-auth/internal/db/models"
	"github.com/omero-admin/omero-auth/internal/db/store"
)

func setupStore(t *testing.T) *store.Store {
	t.Helper()

	db, err := gorm.Open(
		sqlite.Open(filepath.Join(t.TempDir(), "test.db")),
		&gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)},
	)
	require.NoError(t, err, "failed to open test database")
	require.NoError(t, store.Migrate(db), "failed to migrate test database")

	return store.New(db)
}

func createUser(t *testing.T, s *store.Store, omeName, hash string) int64 {
	t.Helper()

	id, err := s.CreateExperimenter(&models.Experimenter{OmeName: omeName})
	require.NoError(t, err)
	require.NoError(t, s.CreateCredential(id, hash, ""))

	return id
}

func TestDigest(t *testing.T) {
	util := NewUtil(nil, UtilConfig{})
	id := int64(7)

	first := util.Digest(&id, "secret")
	second := util.Digest(&id, "secret")
	assert.Equal(t, first, second, "digests must be deterministic")

	decoded, err := base64.StdEncoding.DecodeString(first)
	require.NoError(t, err)
	assert.Len(t, decoded, 16, "the stored value is base64 over a 16-byte digest")

	assert.NotEqual(t, first, util.Digest(&id, "other"))
}

func TestDigestSalting(t *testing.T) {
	plain := NewUtil(nil, UtilConfig{})
	salted := NewUtil(nil, UtilConfig{Salt: true})

	idA := int64(7)
	idB := int64(8)

	assert.NotEqual(t, plain.Digest(&idA, "secret"), salted.Digest(&idA, "secret"))
	assert.NotEqual(t, salted.Digest(&idA, "secret"), salted.Digest(&idB, "secret"),
		"salting makes the digest user-specific")

	// Without a user id the salted utility degrades to the plain digest.
	assert.Equal(t, plain.Digest(nil, "secret"), salted.Digest(nil, "secret"))
}

func TestDigestEncoding(t *testing.T) {
	utf8 := NewUtil(nil, UtilConfig{})
	latin1 := NewUtil(nil, UtilConfig{Encoding: EncodingLatin1})

	assert.Equal(t, utf8.Digest(nil, "secret"), latin1.Digest(nil, "secret"),
		"the encodings agree on ASCII")
	assert.NotEqual(t, utf8.Digest(nil, "pässwörd"), latin1.Digest(nil, "pässwörd"),
		"the encodings disagree beyond ASCII")

	// Code points outside Latin-1 collapse to the substitution character.
	assert.Equal(t, latin1.Digest(nil, "pass✓"), latin1.Digest(nil, "pass?"))
}

func TestIsPasswordRequired(t *testing.T) {
	util := NewUtil(nil, UtilConfig{PasswordRequired: true, GuestUserID: 99})

	assert.True(t, util.IsPasswordRequired(1))
	assert.False(t, util.IsPasswordRequired(99), "the guest account is exempt")

	relaxed := NewUtil(nil, UtilConfig{PasswordRequired: false})
	assert.False(t, relaxed.IsPasswordRequired(1))
}

func TestPreparePassword(t *testing.T) {
	blank := ""
	secret := "secret"

	testCases := []struct {
		name       string
		cfg        UtilConfig
		password   *string
		expectOK   bool
		expectHash bool
	}{
		{
			name:     "nil password is refused",
			cfg:      UtilConfig{},
			password: nil,
			expectOK: false,
		},
		{
			name:     "blank password refused when required",
			cfg:      UtilConfig{PasswordRequired: true},
			password: &blank,
			expectOK: false,
		},
		{
			name:     "blank password stored as open-access marker",
			cfg:      UtilConfig{},
			password: &blank,
			expectOK: true,
		},
		{
			name:       "non-blank password is digested",
			cfg:        UtilConfig{PasswordRequired: true},
			password:   &secret,
			expectOK:   true,
			expectHash: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			util := NewUtil(nil, tc.cfg)

			prepared, ok := util.PreparePassword(1, tc.password)
			assert.Equal(t, tc.expectOK, ok)

			if tc.expectHash {
				id := int64(1)
				assert.Equal(t, util.Digest(&id, *tc.password), prepared)
			} else {
				assert.Empty(t, prepared)
			}
		})
	}
}

func TestChangeUserPasswordByID(t *testing.T) {
	s := setupStore(t)
	util := NewUtil(s, UtilConfig{Salt: true, PasswordRequired: true})

	id, err := s.CreateExperimenter(&models.Experimenter{
		OmeName:     "jane",
		Permissions: models.PermPasswordChangeRequired,
	})
	require.NoError(t, err)
	require.NoError(t, s.CreateCredential(id, "old", ""))

	newPassword := "fresh"
	require.NoError(t, util.ChangeUserPasswordByID(id, &newPassword))

	hash, err := s.PasswordHash(id)
	require.NoError(t, err)
	assert.Equal(t, util.Digest(&id, "fresh"), hash)

	exp, err := s.ExperimenterByID(id)
	require.NoError(t, err)
	assert.Zero(t, exp.Permissions&models.PermPasswordChangeRequired,
		"a password write clears the change-required bit")

	blank := ""
	assert.ErrorIs(t, util.ChangeUserPasswordByID(id, &blank), ErrEmptyPassword)
}

func TestComparePasswords(t *testing.T) {
	s := setupStore(t)
	util := NewUtil(s, UtilConfig{Salt: true, PasswordRequired: true})
	c := &comparer{util: util}

	id := createUser(t, s, "jane", "")

	salted := util.Digest(&id, "secret")
	unsalted := NewUtil(s, UtilConfig{}).Digest(nil, "secret")

	assert.False(t, c.comparePasswords(&id, nil, "secret", false), "a nil trusted value never matches")
	assert.True(t, c.comparePasswords(&id, &salted, "secret", false))
	assert.True(t, c.comparePasswords(&id, &unsalted, "secret", false),
		"pre-salting hashes keep working through the unsalted retry")
	assert.False(t, c.comparePasswords(&id, &salted, "wrong", false))
}

func TestComparePasswordsBlankTrusted(t *testing.T) {
	s := setupStore(t)
	blank := ""

	strict := &comparer{util: NewUtil(s, UtilConfig{PasswordRequired: true})}
	id := int64(1)
	assert.False(t, strict.comparePasswords(&id, &blank, "anything", false),
		"an open-access marker does not bypass a required password")

	relaxed := &comparer{util: NewUtil(s, UtilConfig{})}
	assert.True(t, relaxed.comparePasswords(&id, &blank, "anything", false))
}

func TestComparePasswordsStoredHashFormats(t *testing.T) {
	s := setupStore(t)
	c := &comparer{util: NewUtil(s, UtilConfig{})}
	id := int64(1)

	argonHash, err := argon2id.CreateHash("secret", argon2id.DefaultParams)
	require.NoError(t, err)

	assert.True(t, c.comparePasswords(&id, &argonHash, "secret", false))
	assert.False(t, c.comparePasswords(&id, &argonHash, "wrong", false))

	bcryptHash, err := bcrypt.GenerateFromPassword([]byte("secret"), bcrypt.MinCost)
	require.NoError(t, err)

	stored := string(bcryptHash)
	assert.True(t, c.comparePasswords(&id, &stored, "secret", false))
	assert.False(t, c.comparePasswords(&id, &stored, "wrong", false))
}
