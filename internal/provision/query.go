package provision

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/go-ldap/ldap/v3"

	"github.com/omero-admin/omero-auth/internal/directory"
)

// placeholderPattern matches @{attrName} placeholders in a query template.
var placeholderPattern = regexp.MustCompile(`@\{([^}]+)\}`)

// QueryStrategy treats its configuration as an LDAP filter template with
// @{attrName} placeholders resolved from the user's attribute set. The
// resolved filter is combined with the configured group filter and every
// matching group name becomes a candidate.
//
// A placeholder naming a multi-valued attribute fails the derivation:
// expanding one value arbitrarily could place the user in the wrong
// groups.
type QueryStrategy struct {
	cfg      *directory.Config
	ops      directory.Operations
	roles    RoleProvider
	template string
}

// Groups derives the group ids for the user.
func (s *QueryStrategy) Groups(user *directory.User) ([]int64, error) {
	filter, err := s.resolve(user.Attributes)
	if err != nil {
		return nil, err
	}

	names, err := s.ops.SearchGroupNames(filter)
	if err != nil {
		return nil, err
	}

	var groupIDs []int64

	for _, name := range names {
		id, errCreate := s.roles.CreateGroup(name, nil, false, true)
		if errCreate != nil {
			return nil, errCreate
		}

		groupIDs = append(groupIDs, id)
	}

	return groupIDs, nil
}

// resolve substitutes every @{attr} placeholder from the attribute set,
// escaping values for use inside a filter.
func (s *QueryStrategy) resolve(attrs *directory.AttributeSet) (string, error) {
	var resolveErr error

	filter := placeholderPattern.ReplaceAllStringFunc(s.template, func(match string) string {
		if resolveErr != nil {
			return match
		}

		name := strings.TrimSuffix(strings.TrimPrefix(match, "@{"), "}")

		value, present, err := attrs.Get(name)
		if err != nil {
			resolveErr = &AmbiguousPlaceholderError{Placeholder: name, Err: err}
			return match
		}

		if !present {
			resolveErr = fmt.Errorf("placeholder @{%s} has no value on the entry", name)
			return match
		}

		return ldap.EscapeFilter(value)
	})

	if resolveErr != nil {
		return "", resolveErr
	}

	return filter, nil
}
