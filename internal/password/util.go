package password

import (
	"crypto/md5" //nolint:gosec // historical store format, kept for compatibility
	"encoding/base64"
	"encoding/binary"
	"strings"

	"github.com/alexedwards/argon2id"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"

	"github.com/omero-admin/omero-auth/internal/db/models"
	"github.com/omero-admin/omero-auth/internal/db/store"
)

// Character encodings for the digest input. Stores predating the UTF-8
// switch hold digests of Latin-1 bytes; a legacy utility configured with
// EncodingLatin1 keeps those passwords working until they are rewritten.
const (
	EncodingUTF8   = "utf8"
	EncodingLatin1 = "latin1"
)

// UtilConfig controls hashing and the password-requirement policy.
type UtilConfig struct {
	// Salt mixes an 8-byte big-endian encoding of the user id into the
	// hash input, defeating precomputed hash tables.
	Salt bool
	// Encoding converts the clear text to bytes before hashing. Empty
	// means EncodingUTF8.
	Encoding string
	// PasswordRequired globally enforces non-blank passwords. When false,
	// a blank stored password marks an open-access account.
	PasswordRequired bool
	// GuestUserID is the sentinel account exempt from the password
	// requirement. Zero means no guest account.
	GuestUserID int64
}

// Util computes and validates password digests and gates whether a blank
// password is acceptable for a user. The digest format is the historical
// one of the store: base64-encoded MD5 over the password bytes (UTF-8
// unless a legacy encoding is configured), optionally prefixed with the
// user-id salt.
type Util struct {
	store *store.Store
	cfg   UtilConfig
}

// NewUtil creates a password utility over the given store.
func NewUtil(s *store.Store, cfg UtilConfig) *Util {
	return &Util{store: s, cfg: cfg}
}

// Salted reports whether this utility mixes the user id into digests.
func (u *Util) Salted() bool {
	return u.cfg.Salt
}

// IsPasswordRequired reports whether the user must present a non-blank
// password: false for the guest sentinel account and when enforcement is
// globally disabled.
func (u *Util) IsPasswordRequired(userID int64) bool {
	if !u.cfg.PasswordRequired {
		return false
	}

	if u.cfg.GuestUserID != 0 && userID == u.cfg.GuestUserID {
		return false
	}

	return true
}

// PreparePassword returns the value to store for a new password. The
// boolean reports whether a value should be stored at all: a nil password,
// or a blank one for a user that requires a password, is refused. A blank
// password for a user that does not require one is stored unchanged as the
// open-access marker.
func (u *Util) PreparePassword(userID int64, newPassword *string) (string, bool) {
	if newPassword == nil {
		return "", false
	}

	if *newPassword == "" {
		if u.IsPasswordRequired(userID) {
			return "", false
		}

		return "", true
	}

	return u.Digest(&userID, *newPassword), true
}

// Digest computes the stored digest of a clear-text password. When
// salting is configured and a user id is present, an 8-byte big-endian
// encoding of the id is prepended to the password bytes before hashing.
// MD5 in the standard library cannot fail, so this path never returns a
// wrong hash silently.
func (u *Util) Digest(userID *int64, clearText string) string {
	return u.digest(userID, clearText, u.cfg.Salt)
}

func (u *Util) digest(userID *int64, clearText string, salted bool) string {
	buf := encode(clearText, u.cfg.Encoding)

	if salted && userID != nil {
		salt := make([]byte, 8)
		binary.BigEndian.PutUint64(salt, uint64(*userID))
		buf = append(salt, buf...)
	}

	sum := md5.Sum(buf) //nolint:gosec // historical store format

	return base64.StdEncoding.EncodeToString(sum[:])
}

// encode converts clear text to the configured byte encoding. Latin-1
// maps each code point to one byte, replacing anything above 0xFF.
func encode(clearText, encoding string) []byte {
	if encoding != EncodingLatin1 {
		return []byte(clearText)
	}

	buf := make([]byte, 0, len(clearText))

	for _, r := range clearText {
		if r > 0xFF {
			r = '?'
		}

		buf = append(buf, byte(r))
	}

	return buf
}

// ChangeUserPasswordByID prepares and writes a new password hash for the
// user and clears the password-change-required permission bit. A write
// affecting zero rows means the user vanished mid-operation and is an
// internal error.
func (u *Util) ChangeUserPasswordByID(userID int64, newPassword *string) error {
	prepared, ok := u.PreparePassword(userID, newPassword)
	if !ok {
		return ErrEmptyPassword
	}

	if err := u.store.SetPasswordHash(userID, prepared); err != nil {
		return err
	}

	return u.store.ClearPermissionBit(userID, models.PermPasswordChangeRequired)
}

// comparer verifies a provided password against a trusted value, with an
// optional legacy utility consulted as a last resort.
type comparer struct {
	util *Util

	// legacy, when configured, is tried after the current utility fails.
	// A legacy match transparently re-saves the password with the current
	// utility so the account migrates without user action.
	legacy *Util
}

// comparePasswords verifies a provided password against the trusted
// stored value. A nil trusted value never matches. A blank trusted value
// is an explicit "no password" marker and matches only when the user does
// not require a password; it is not a bypass. readOnly suppresses the
// legacy-upgrade write.
func (c *comparer) comparePasswords(userID *int64, trusted *string, provided string, readOnly bool) bool {
	if trusted == nil {
		return false
	}

	if *trusted == "" {
		id := int64(0)
		if userID != nil {
			id = *userID
		}

		return !c.util.IsPasswordRequired(id)
	}

	// Try the current utility, salted then unsalted. The unsalted retry
	// keeps accounts hashed before salting was enabled working until they
	// are rewritten.
	if c.util.digest(userID, provided, true) == *trusted {
		return true
	}

	if c.util.digest(userID, provided, false) == *trusted {
		return true
	}

	// Recognize modern stored-hash formats written by other tooling.
	if match, recognized := verifyStoredHash(*trusted, provided); recognized {
		return match
	}

	if c.legacy == nil {
		return false
	}

	if c.legacy.digest(userID, provided, true) != *trusted &&
		c.legacy.digest(userID, provided, false) != *trusted {
		return false
	}

	log.Warn().Msg("password matched via legacy utility")

	if !readOnly && userID != nil {
		if err := c.util.ChangeUserPasswordByID(*userID, &provided); err != nil {
			log.Error().Err(err).Int64("user", *userID).Msg("failed to re-save legacy password")
		} else {
			log.Info().Int64("user", *userID).Msg("re-saved password with current utility")
		}
	}

	return true
}

// verifyStoredHash checks a provided password against self-describing
// hash formats. The second return reports whether the stored value was
// recognized as one of them at all.
func verifyStoredHash(stored, provided string) (match bool, recognized bool) {
	switch {
	case strings.HasPrefix(stored, "$argon2id$"):
		ok, err := argon2id.ComparePasswordAndHash(provided, stored)
		if err != nil {
			log.Error().Err(err).Msg("failed to verify argon2id hash")
			return false, true
		}

		return ok, true
	case strings.HasPrefix(stored, "$2a$"), strings.HasPrefix(stored, "$2b$"), strings.HasPrefix(stored, "$2y$"):
		err := bcrypt.CompareHashAndPassword([]byte(stored), []byte(provided))

		return err == nil, true
	default:
		return false, false
	}
}
