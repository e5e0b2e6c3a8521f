package directory

import (
	"fmt"
	"strings"
)

// AttributeSet normalizes a directory entry's attributes into maps keyed
// case-insensitively. A given key is stored as either single-valued or
// multi-valued, never both; a duplicate single-valued key is a hard error
// so malformed directory data fails fast instead of surfacing later as a
// wrong group or identity field.
//
// An AttributeSet is ephemeral: it is built fresh per directory lookup and
// consumed during synchronization only.
type AttributeSet struct {
	single map[string]string
	multi  map[string][]string
}

// NewAttributeSet creates an empty attribute set.
func NewAttributeSet() *AttributeSet {
	return &AttributeSet{
		single: make(map[string]string),
		multi:  make(map[string][]string),
	}
}

func normalizeKey(key string) string {
	return strings.ToLower(strings.TrimSpace(key))
}

// PutSingle stores a single-valued attribute. Storing a key that is
// already present, in either form, is an error.
func (a *AttributeSet) PutSingle(key, value string) error {
	k := normalizeKey(key)

	if _, ok := a.single[k]; ok {
		return fmt.Errorf("%w: %q", ErrDuplicateAttribute, key)
	}

	if _, ok := a.multi[k]; ok {
		return fmt.Errorf("%w: %q already stored as multi-valued", ErrDuplicateAttribute, key)
	}

	a.single[k] = value

	return nil
}

// PutMulti stores values under a multi-valued key, appending to any values
// already stored for it. Storing under a key held as single-valued is an
// error.
func (a *AttributeSet) PutMulti(key string, values []string) error {
	k := normalizeKey(key)

	if _, ok := a.single[k]; ok {
		return fmt.Errorf("%w: %q already stored as single-valued", ErrDuplicateAttribute, key)
	}

	a.multi[k] = append(a.multi[k], values...)

	return nil
}

// Has reports whether any value is stored under the key.
func (a *AttributeSet) Has(key string) bool {
	k := normalizeKey(key)

	if _, ok := a.single[k]; ok {
		return true
	}

	_, ok := a.multi[k]

	return ok
}

// Get returns the value of a single-valued key. Requesting a multi-valued
// key is an error since picking one value arbitrarily would be ambiguous.
// The boolean reports whether the key was present at all.
func (a *AttributeSet) Get(key string) (string, bool, error) {
	k := normalizeKey(key)

	if v, ok := a.single[k]; ok {
		return v, true, nil
	}

	if _, ok := a.multi[k]; ok {
		return "", true, fmt.Errorf("%w: %q", ErrMultiValuedAttribute, key)
	}

	return "", false, nil
}

// GetAll returns every value stored under the key, in insertion order.
// A single-valued key yields a one-element slice; an absent key yields nil.
func (a *AttributeSet) GetAll(key string) []string {
	k := normalizeKey(key)

	if v, ok := a.single[k]; ok {
		return []string{v}
	}

	if vs, ok := a.multi[k]; ok {
		out := make([]string, len(vs))
		copy(out, vs)

		return out
	}

	return nil
}

// Size returns the number of distinct keys stored.
func (a *AttributeSet) Size() int {
	return len(a.single) + len(a.multi)
}
