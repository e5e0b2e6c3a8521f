package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(path, content string) error {
	return os.WriteFile(path, []byte(content), 0o600)
}

func TestReadConfig(t *testing.T) {
	var (
		err         error
		projectRoot string
	)

	// Get the project root by going up from internal/config
	projectRoot, err = filepath.Abs("../../")
	require.NoError(t, err, "failed to get project root")

	configPath := filepath.Join(projectRoot, "etc") + string(filepath.Separator)

	cfg, err := ReadConfig(configPath)
	require.NoError(t, err, "ReadConfig() should succeed on the shipped example config")

	assert.NotEmpty(t, cfg.DB.Name, "DB.Name should not be empty")
	assert.NotEmpty(t, cfg.Log.AppName, "Log.AppName should not be empty")

	// The example config ships with LDAP enabled and fully specified.
	assert.True(t, cfg.LDAP.Enabled)
	assert.NotEmpty(t, cfg.LDAP.Host)
	assert.NotEmpty(t, cfg.LDAP.Base)
	assert.NotEmpty(t, cfg.LDAP.NewUserGroup)

	// Attribute mapping defaults are filled in during validation.
	assert.Equal(t, "cn", cfg.LDAP.UserNameAttr())
	assert.Equal(t, "mail", cfg.LDAP.UserMapping["email"])

	// Throttling defaults are filled in when unset.
	assert.Positive(t, cfg.Auth.ThrottleCount)
	assert.Positive(t, cfg.Auth.ThrottleSeconds)
}

func TestReadConfigValidation(t *testing.T) {
	testCases := []struct {
		name        string
		toml        string
		expectedErr error
	}{
		{
			name:        "missing db name",
			toml:        "[db]\nhost = \"localhost\"\n",
			expectedErr: ErrDBNameEmpty,
		},
		{
			name:        "ldap enabled without host",
			toml:        "[db]\nname = \"omero\"\n[ldap]\nenabled = true\nbase = \"dc=example,dc=com\"\n",
			expectedErr: ErrLDAPHostEmpty,
		},
		{
			name:        "ldap enabled without base",
			toml:        "[db]\nname = \"omero\"\n[ldap]\nenabled = true\nhost = \"ldap.example.com\"\n",
			expectedErr: ErrLDAPBaseEmpty,
		},
		{
			name: "ldap enabled without new user group",
			toml: "[db]\nname = \"omero\"\n" +
				"[ldap]\nenabled = true\nhost = \"ldap.example.com\"\nbase = \"dc=example,dc=com\"\n",
			expectedErr: ErrLDAPNewUserGroupEmpty,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			dir := t.TempDir()
			path := filepath.Join(dir, "main.toml")
			require.NoError(t, writeFile(path, tc.toml))

			_, err := ReadConfig(dir + string(filepath.Separator))
			require.Error(t, err)
			assert.ErrorIs(t, err, tc.expectedErr)
		})
	}
}

func TestDumpConfig(t *testing.T) {
	cfg := Config{}
	cfg.DB.Name = "omero"

	out, err := DumpConfig(cfg)
	require.NoError(t, err)
	assert.Contains(t, out, "Name = \"omero\"")

	outJSON, err := DumpConfigJSON(cfg)
	require.NoError(t, err)
	assert.Contains(t, outJSON, "\"Name\": \"omero\"")
}
