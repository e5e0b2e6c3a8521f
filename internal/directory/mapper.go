package directory

import (
	"fmt"
	"strings"

	"github.com/go-ldap/ldap/v3"

	"github.com/omero-admin/omero-auth/internal/db/models"
)

// User is a directory entry mapped to an experimenter, carrying the
// ephemeral provenance consumed during synchronization: the entry's DN and
// its raw attribute set. Provenance is never stored verbatim.
type User struct {
	Experimenter models.Experimenter
	DN           string
	Attributes   *AttributeSet
}

// Group is a directory entry mapped to a group.
type Group struct {
	DN          string
	Name        string
	Description string
}

// EntryAttributeSet normalizes an LDAP entry into an AttributeSet.
// Attributes carrying one value are stored single-valued, the rest
// multi-valued. The same attribute name appearing twice with single
// values is malformed directory data and fails fast.
func EntryAttributeSet(entry *ldap.Entry) (*AttributeSet, error) {
	set := NewAttributeSet()

	for _, attr := range entry.Attributes {
		var err error

		if len(attr.Values) == 1 {
			err = set.PutSingle(attr.Name, attr.Values[0])
		} else {
			err = set.PutMulti(attr.Name, attr.Values)
		}

		if err != nil {
			return nil, &MappingError{DN: entry.DN, Err: err}
		}
	}

	return set, nil
}

// MapUser maps a directory entry to an experimenter using the configured
// attribute mapping. Only allow-listed identity fields are copied; the
// login name attribute is required.
func MapUser(cfg *Config, entry *ldap.Entry) (*User, error) {
	set, err := EntryAttributeSet(entry)
	if err != nil {
		return nil, err
	}

	omeName := entry.GetAttributeValue(cfg.UserNameAttr())
	if omeName == "" {
		return nil, &MappingError{
			DN:  entry.DN,
			Err: fmt.Errorf("missing login name attribute %q", cfg.UserNameAttr()),
		}
	}

	exp := models.Experimenter{
		OmeName:     omeName,
		FirstName:   entry.GetAttributeValue(cfg.UserMapping["firstName"]),
		MiddleName:  entry.GetAttributeValue(cfg.UserMapping["middleName"]),
		LastName:    entry.GetAttributeValue(cfg.UserMapping["lastName"]),
		Email:       entry.GetAttributeValue(cfg.UserMapping["email"]),
		Institution: entry.GetAttributeValue(cfg.UserMapping["institution"]),
		Ldap:        true,
	}
	exp.DN = entry.DN

	if !cfg.CaseSensitive {
		exp.OmeName = strings.ToLower(exp.OmeName)
	}

	return &User{
		Experimenter: exp,
		DN:           entry.DN,
		Attributes:   set,
	}, nil
}

// MapGroup maps a directory entry to a group using the configured
// attribute mapping.
func MapGroup(cfg *Config, entry *ldap.Entry) (*Group, error) {
	name := entry.GetAttributeValue(cfg.GroupNameAttr())
	if name == "" {
		return nil, &MappingError{
			DN:  entry.DN,
			Err: fmt.Errorf("missing group name attribute %q", cfg.GroupNameAttr()),
		}
	}

	return &Group{
		DN:          entry.DN,
		Name:        name,
		Description: entry.GetAttributeValue(cfg.GroupMapping["description"]),
	}, nil
}
