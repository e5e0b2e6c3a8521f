package directory

import (
	"crypto/tls"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/go-ldap/ldap/v3"
	"github.com/rs/zerolog/log"
)

// Operations is the directory search port consumed by the LDAP password
// provider and the new-user group strategies. It is satisfied by Client
// and by test fakes.
type Operations interface {
	// FindUserDN resolves a login name to exactly one distinguished name.
	FindUserDN(username string) (string, error)
	// FindUser resolves a login name to a mapped user with its attribute
	// set attached.
	FindUser(username string) (*User, error)
	// CheckBind verifies credentials by binding as the given DN.
	CheckBind(dn, password string) error
	// GroupNameByDN reads the group name attribute of the entry at dn.
	GroupNameByDN(dn string) (string, error)
	// ListGroupNames returns the names of all groups matching the
	// configured group filter.
	ListGroupNames() ([]string, error)
	// SearchGroupNames returns the names of groups matching the given
	// filter combined with the configured group filter.
	SearchGroupNames(filter string) ([]string, error)
	// RelativeDN strips the configured base from a DN, returning the
	// remaining relative components.
	RelativeDN(dn string) (string, error)
}

// Client implements Operations against a live LDAP server. Every
// operation dials a fresh connection, binds the service account if one is
// configured, and closes the connection when done.
type Client struct {
	cfg *Config
}

// NewClient creates a directory client, or ErrDisabled when LDAP support
// is turned off.
func NewClient(cfg *Config) (*Client, error) {
	if !cfg.Enabled {
		return nil, ErrDisabled
	}

	cfg.ApplyDefaults()

	return &Client{cfg: cfg}, nil
}

// connect establishes a connection to the LDAP server.
func (c *Client) connect() (*ldap.Conn, error) {
	hostPort := net.JoinHostPort(c.cfg.Host, strconv.Itoa(c.cfg.Port))

	var ldapURL string
	if c.cfg.UseSSL {
		ldapURL = "ldaps://" + hostPort
	} else {
		ldapURL = "ldap://" + hostPort
	}

	var tlsConfig *tls.Config
	if c.cfg.UseSSL || c.cfg.UseTLS {
		tlsConfig = &tls.Config{
			InsecureSkipVerify: c.cfg.SkipVerify, //nolint:gosec // skipping verifying tls is ok
			ServerName:         c.cfg.Host,
		}
	}

	conn, err := ldap.DialURL(ldapURL, ldap.DialWithTLSConfig(tlsConfig))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to LDAP server: %w", err)
	}

	// Upgrade to TLS if requested (for non-SSL connections)
	if !c.cfg.UseSSL && c.cfg.UseTLS {
		if errStartTLS := conn.StartTLS(tlsConfig); errStartTLS != nil {
			if errClose := conn.Close(); errClose != nil {
				log.Error().Err(errClose).Msg("failed to close LDAP connection")
			}

			return nil, fmt.Errorf("failed to start TLS: %w", errStartTLS)
		}
	}

	if c.cfg.Timeout > 0 {
		conn.SetTimeout(time.Duration(c.cfg.Timeout) * time.Second)
	}

	return conn, nil
}

// withConn runs fn on a freshly dialed connection bound as the service
// account (if configured) and closes it afterwards.
func (c *Client) withConn(fn func(conn *ldap.Conn) error) error {
	conn, err := c.connect()
	if err != nil {
		return err
	}

	defer func() {
		if errClose := conn.Close(); errClose != nil {
			log.Warn().Err(errClose).Msg("failed to close LDAP connection")
		}
	}()

	if c.cfg.BindDN != "" {
		if errBind := conn.Bind(c.cfg.BindDN, c.cfg.BindPassword); errBind != nil {
			return fmt.Errorf("failed to bind with service account: %w", errBind)
		}
	}

	return fn(conn)
}

// usernameFilter combines the configured user filter with an equality
// match on the login name attribute.
func (c *Client) usernameFilter(username string) string {
	nameMatch := fmt.Sprintf("(%s=%s)", c.cfg.UserNameAttr(), ldap.EscapeFilter(username))

	if c.cfg.UserFilter == "" {
		return nameMatch
	}

	return "(&" + c.cfg.UserFilter + nameMatch + ")"
}

// groupFilter combines the configured group filter with an extra filter,
// either of which may be empty.
func (c *Client) groupFilter(extra string) string {
	switch {
	case c.cfg.GroupFilter == "":
		return extra
	case extra == "":
		return c.cfg.GroupFilter
	default:
		return "(&" + c.cfg.GroupFilter + extra + ")"
	}
}

// searchOne runs a search that must return exactly one entry.
func (c *Client) searchOne(conn *ldap.Conn, base string, scope int, filter string, attrs []string) (*ldap.Entry, error) {
	req := ldap.NewSearchRequest(
		base,
		scope,
		ldap.NeverDerefAliases,
		0, // Size limit
		c.cfg.Timeout,
		false,
		filter,
		attrs,
		nil,
	)

	res, err := conn.Search(req)
	if err != nil {
		return nil, fmt.Errorf("directory search failed: %w", err)
	}

	switch len(res.Entries) {
	case 0:
		return nil, fmt.Errorf("%w: filter %s under %s", ErrNoSuchEntry, filter, base)
	case 1:
		return res.Entries[0], nil
	default:
		return nil, fmt.Errorf("%w: filter %s under %s matched %d", ErrTooManyEntries, filter, base, len(res.Entries))
	}
}

// FindUserDN resolves a login name to exactly one distinguished name.
func (c *Client) FindUserDN(username string) (string, error) {
	var dn string

	err := c.withConn(func(conn *ldap.Conn) error {
		entry, errSearch := c.searchOne(
			conn, c.cfg.Base, ldap.ScopeWholeSubtree, c.usernameFilter(username), []string{"dn"})
		if errSearch != nil {
			return errSearch
		}

		dn = entry.DN

		return nil
	})
	if err != nil {
		return "", err
	}

	return dn, nil
}

// FindUser resolves a login name to a mapped user carrying its full
// attribute set. All attributes of the entry are requested since group
// derivation strategies may consult any of them.
func (c *Client) FindUser(username string) (*User, error) {
	var user *User

	err := c.withConn(func(conn *ldap.Conn) error {
		entry, errSearch := c.searchOne(
			conn, c.cfg.Base, ldap.ScopeWholeSubtree, c.usernameFilter(username), nil)
		if errSearch != nil {
			return errSearch
		}

		mapped, errMap := MapUser(c.cfg, entry)
		if errMap != nil {
			return errMap
		}

		user = mapped

		return nil
	})
	if err != nil {
		return nil, err
	}

	return user, nil
}

// CheckBind verifies credentials by binding as the given DN on a fresh
// connection. A rejected bind is reported as ErrBindFailed; the underlying
// directory error is wrapped for logging but callers must not surface it
// to end users.
func (c *Client) CheckBind(dn, password string) error {
	conn, err := c.connect()
	if err != nil {
		return err
	}

	defer func() {
		if errClose := conn.Close(); errClose != nil {
			log.Warn().Err(errClose).Msg("failed to close LDAP connection")
		}
	}()

	if errBind := conn.Bind(dn, password); errBind != nil {
		return fmt.Errorf("%w: %v", ErrBindFailed, errBind)
	}

	return nil
}

// GroupNameByDN reads the group name attribute of the entry at dn.
func (c *Client) GroupNameByDN(dn string) (string, error) {
	var name string

	err := c.withConn(func(conn *ldap.Conn) error {
		entry, errSearch := c.searchOne(
			conn, dn, ldap.ScopeBaseObject, "(objectClass=*)", []string{c.cfg.GroupNameAttr()})
		if errSearch != nil {
			return errSearch
		}

		name = entry.GetAttributeValue(c.cfg.GroupNameAttr())
		if name == "" {
			return &MappingError{DN: dn, Err: fmt.Errorf("missing group name attribute %q", c.cfg.GroupNameAttr())}
		}

		return nil
	})
	if err != nil {
		return "", err
	}

	return name, nil
}

// ListGroupNames returns the names of all groups matching the configured
// group filter.
func (c *Client) ListGroupNames() ([]string, error) {
	return c.searchGroupNames(c.groupFilter(""))
}

// SearchGroupNames returns the names of groups matching the given filter
// combined with the configured group filter.
func (c *Client) SearchGroupNames(filter string) ([]string, error) {
	return c.searchGroupNames(c.groupFilter(filter))
}

func (c *Client) searchGroupNames(filter string) ([]string, error) {
	var names []string

	err := c.withConn(func(conn *ldap.Conn) error {
		req := ldap.NewSearchRequest(
			c.cfg.Base,
			ldap.ScopeWholeSubtree,
			ldap.NeverDerefAliases,
			0,
			c.cfg.Timeout,
			false,
			filter,
			[]string{c.cfg.GroupNameAttr()},
			nil,
		)

		res, errSearch := conn.Search(req)
		if errSearch != nil {
			return fmt.Errorf("directory search failed: %w", errSearch)
		}

		for _, entry := range res.Entries {
			if name := entry.GetAttributeValue(c.cfg.GroupNameAttr()); name != "" {
				names = append(names, name)
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return names, nil
}

// RelativeDN strips the configured base from a DN, returning the relative
// components in their original order.
func (c *Client) RelativeDN(dn string) (string, error) {
	return RelativeDN(c.cfg.Base, dn)
}

// RelativeDN computes the components of dn that sit under base. The base
// itself maps to the empty string.
func RelativeDN(base, dn string) (string, error) {
	parsedBase, err := ldap.ParseDN(base)
	if err != nil {
		return "", fmt.Errorf("failed to parse base dn %q: %w", base, err)
	}

	parsed, err := ldap.ParseDN(dn)
	if err != nil {
		return "", fmt.Errorf("failed to parse dn %q: %w", dn, err)
	}

	if len(parsed.RDNs) < len(parsedBase.RDNs) || !parsedBase.AncestorOfFold(parsed) {
		if !parsedBase.EqualFold(parsed) {
			return "", fmt.Errorf("%w: %q not under %q", ErrDNOutsideBase, dn, base)
		}

		return "", nil
	}

	rel := parsed.RDNs[:len(parsed.RDNs)-len(parsedBase.RDNs)]
	parts := make([]string, 0, len(rel))

	for _, rdn := range rel {
		attrs := make([]string, 0, len(rdn.Attributes))
		for _, atv := range rdn.Attributes {
			attrs = append(attrs, atv.Type+"="+atv.Value)
		}

		parts = append(parts, strings.Join(attrs, "+"))
	}

	return strings.Join(parts, ","), nil
}
