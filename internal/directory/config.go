package directory

// Config holds LDAP/Active Directory configuration for authentication and
// account synchronization.
type Config struct {
	// Enabled indicates if LDAP authentication is enabled.
	Enabled bool `toml:"enabled"`
	// Host is the LDAP server hostname or IP address.
	Host string `toml:"host"`
	// Port is the LDAP server port (typically 389 for LDAP, 636 for LDAPS).
	Port int `toml:"port"`
	// UseSSL enables LDAPS (LDAP over SSL/TLS) on port 636.
	UseSSL bool `toml:"useSSL"`
	// UseTLS enables StartTLS to upgrade an LDAP connection to TLS.
	UseTLS bool `toml:"useTLS"`
	// SkipVerify skips TLS certificate verification (insecure, for testing only).
	SkipVerify bool `toml:"skipVerify"`
	// BindDN is the distinguished name to bind with for performing searches.
	// Leave empty for anonymous search.
	BindDN string `toml:"bindDN"`
	// BindPassword is the password for the bind DN.
	BindPassword string `toml:"bindPassword"`
	// Base is the base distinguished name for all searches.
	Base string `toml:"base"`
	// UserFilter is the LDAP filter every user entry must match
	// (e.g. "(objectClass=person)").
	UserFilter string `toml:"userFilter"`
	// GroupFilter is the LDAP filter every group entry must match
	// (e.g. "(objectClass=groupOfNames)").
	GroupFilter string `toml:"groupFilter"`
	// UserMapping maps experimenter fields to directory attributes.
	// Recognized keys: omeName, firstName, middleName, lastName, email,
	// institution.
	UserMapping map[string]string `toml:"userMapping"`
	// GroupMapping maps group fields to directory attributes.
	// Recognized keys: name, description.
	GroupMapping map[string]string `toml:"groupMapping"`
	// NewUserGroup selects how groups are derived for a newly synchronized
	// user: a literal group name, or one of the ":attribute:",
	// ":filtered_attribute:", ":ou:" and ":query:" strategy prefixes.
	NewUserGroup string `toml:"newUserGroup"`
	// NewUserGroupOwner makes the synchronized user an owner of the groups
	// derived for it.
	NewUserGroupOwner bool `toml:"newUserGroupOwner"`
	// SyncOnLogin re-applies attribute and group synchronization on every
	// successful login, not only on account creation.
	SyncOnLogin bool `toml:"syncOnLogin"`
	// CaseSensitive controls whether login names keep their directory
	// case. When false, login names are lower-cased before storage.
	CaseSensitive bool `toml:"caseSensitive"`
	// Timeout is the connection timeout in seconds.
	Timeout int `toml:"timeout"`
}

// Defaults for attribute mappings applied by ApplyDefaults.
const (
	defaultUserNameAttr  = "cn"
	defaultGroupNameAttr = "cn"
	defaultTimeout       = 10
)

// ApplyDefaults fills in the attribute mappings and timeout the way most
// directories lay entries out, leaving explicit settings untouched.
func (c *Config) ApplyDefaults() {
	if c.UserMapping == nil {
		c.UserMapping = make(map[string]string)
	}

	if c.GroupMapping == nil {
		c.GroupMapping = make(map[string]string)
	}

	if c.UserMapping["omeName"] == "" {
		c.UserMapping["omeName"] = defaultUserNameAttr
	}

	if c.UserMapping["firstName"] == "" {
		c.UserMapping["firstName"] = "givenName"
	}

	if c.UserMapping["lastName"] == "" {
		c.UserMapping["lastName"] = "sn"
	}

	if c.UserMapping["email"] == "" {
		c.UserMapping["email"] = "mail"
	}

	if c.GroupMapping["name"] == "" {
		c.GroupMapping["name"] = defaultGroupNameAttr
	}

	if c.Timeout == 0 {
		c.Timeout = defaultTimeout
	}
}

// UserNameAttr returns the directory attribute holding the login name.
func (c *Config) UserNameAttr() string {
	return c.UserMapping["omeName"]
}

// GroupNameAttr returns the directory attribute holding the group name.
func (c *Config) GroupNameAttr() string {
	return c.GroupMapping["name"]
}

// UserAttributes returns the distinct directory attributes named by the
// user mapping, for use as a search attribute list.
func (c *Config) UserAttributes() []string {
	seen := make(map[string]bool)
	attrs := make([]string, 0, len(c.UserMapping))

	for _, attr := range c.UserMapping {
		if attr == "" || seen[attr] {
			continue
		}

		seen[attr] = true
		attrs = append(attrs, attr)
	}

	return attrs
}
