// Package config handles input from etc/*.toml files
package config

import (
	"bytes"
	"encoding/json"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/BurntSushi/toml"
)

// envConfigJSON overrides the file configuration with a JSON document,
// mainly for containerized deployments.
const envConfigJSON = "OMERO_AUTH_CONFIG_JSON"

const (
	defaultThrottleCount   = 3
	defaultThrottleSeconds = 3
)

var validate = validator.New() //nolint:gochecknoglobals

// ReadConfig from config file.
func ReadConfig(path string) (Config, error) {
	var (
		c   Config
		err error
	)

	// Read main configuration
	if path == "" {
		path = "./etc/"
	}

	if _, err = toml.DecodeFile(path+"main.toml", &c); err != nil {
		return Config{}, errors.Wrap(err, "failed to read main config file")
	}

	// override it from env
	if jsonConfigEnv := os.Getenv(envConfigJSON); jsonConfigEnv != "" {
		c, err = decodeAndMergeConfig(c, jsonConfigEnv)
		if err != nil {
			return c, err
		}
	}

	return c, validateConfig(&c)
}

func decodeAndMergeConfig(c Config, configAsJSON string) (Config, error) {
	err := json.Unmarshal([]byte(configAsJSON), &c)
	if err != nil {
		return Config{}, errors.Wrap(err, "failed to read config override from env")
	}

	return c, nil
}

// DumpConfig config as TOML String.
func DumpConfig(c Config) (string, error) {
	var buffer bytes.Buffer
	t := toml.NewEncoder(&buffer)

	if err := t.Encode(c); err != nil {
		return "", err //nolint: wrapcheck
	}

	return buffer.String(), nil
}

// DumpConfigJSON config as JSON String.
func DumpConfigJSON(c Config) (string, error) {
	var buffer bytes.Buffer
	j := json.NewEncoder(&buffer)
	j.SetIndent("", "  ")

	if err := j.Encode(c); err != nil {
		return "", err //nolint: wrapcheck
	}

	return buffer.String(), nil
}

// validateConfig checks the minimal settings the auth subsystem needs and
// fills in throttling defaults.
func validateConfig(c *Config) error {
	invalidErrMessage := "invalid config"

	if err := validate.Struct(c); err != nil {
		return errors.Wrap(err, invalidErrMessage)
	}

	if c.DB.Name == "" {
		return errors.Wrap(ErrDBNameEmpty, invalidErrMessage)
	}

	if c.LDAP.Enabled {
		if c.LDAP.Host == "" {
			return errors.Wrap(ErrLDAPHostEmpty, invalidErrMessage)
		}

		if c.LDAP.Base == "" {
			return errors.Wrap(ErrLDAPBaseEmpty, invalidErrMessage)
		}

		if c.LDAP.NewUserGroup == "" {
			return errors.Wrap(ErrLDAPNewUserGroupEmpty, invalidErrMessage)
		}

		c.LDAP.ApplyDefaults()
	}

	if c.Auth.ThrottleCount == 0 {
		c.Auth.ThrottleCount = defaultThrottleCount
	}

	if c.Auth.ThrottleSeconds == 0 {
		c.Auth.ThrottleSeconds = defaultThrottleSeconds
	}

	return nil
}
