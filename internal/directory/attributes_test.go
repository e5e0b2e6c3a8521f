package directory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAttributeSetSingle(t *testing.T) {
	set := NewAttributeSet()

	require.NoError(t, set.PutSingle("cn", "jane"))

	value, present, err := set.Get("cn")
	require.NoError(t, err)
	assert.True(t, present)
	assert.Equal(t, "jane", value)

	assert.Equal(t, []string{"jane"}, set.GetAll("cn"))
	assert.True(t, set.Has("cn"))
	assert.Equal(t, 1, set.Size())
}

func TestAttributeSetKeysAreCaseInsensitive(t *testing.T) {
	set := NewAttributeSet()

	require.NoError(t, set.PutSingle("memberOf", "cn=science"))

	assert.True(t, set.Has("memberof"))
	assert.True(t, set.Has("MEMBEROF"))

	err := set.PutSingle("MemberOf", "cn=other")
	assert.ErrorIs(t, err, ErrDuplicateAttribute)
}

func TestAttributeSetDuplicateSingle(t *testing.T) {
	set := NewAttributeSet()

	require.NoError(t, set.PutSingle("cn", "jane"))
	assert.ErrorIs(t, set.PutSingle("cn", "janet"), ErrDuplicateAttribute)
}

func TestAttributeSetSingleMultiExclusive(t *testing.T) {
	set := NewAttributeSet()

	require.NoError(t, set.PutSingle("cn", "jane"))
	assert.ErrorIs(t, set.PutMulti("cn", []string{"janet"}), ErrDuplicateAttribute)

	require.NoError(t, set.PutMulti("memberOf", []string{"a", "b"}))
	assert.ErrorIs(t, set.PutSingle("memberOf", "c"), ErrDuplicateAttribute)
}

func TestAttributeSetMultiAppends(t *testing.T) {
	set := NewAttributeSet()

	require.NoError(t, set.PutMulti("memberOf", []string{"a", "b"}))
	require.NoError(t, set.PutMulti("memberOf", []string{"c"}))

	assert.Equal(t, []string{"a", "b", "c"}, set.GetAll("memberOf"))
	assert.Equal(t, 1, set.Size())
}

func TestAttributeSetGetMultiValuedIsAmbiguous(t *testing.T) {
	set := NewAttributeSet()

	require.NoError(t, set.PutMulti("memberOf", []string{"a", "b"}))

	_, present, err := set.Get("memberOf")
	assert.True(t, present, "the key exists even though a single value cannot be chosen")
	assert.ErrorIs(t, err, ErrMultiValuedAttribute)
}

func TestAttributeSetAbsentKey(t *testing.T) {
	set := NewAttributeSet()

	value, present, err := set.Get("missing")
	require.NoError(t, err)
	assert.False(t, present)
	assert.Empty(t, value)

	assert.Nil(t, set.GetAll("missing"))
	assert.False(t, set.Has("missing"))
}
