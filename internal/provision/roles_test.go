package provision

import (
	"path/filepath"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
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

func TestCreateGroupIsIdempotent(t *testing.T) {
	s := setupStore(t)
	p := NewSimpleRoleProvider(s, false)

	first, err := p.CreateGroup("science", nil, false, false)
	require.NoError(t, err)

	second, err := p.CreateGroup("science", nil, false, false)
	require.NoError(t, err)
	assert.Equal(t, first, second, "repeated creation must converge on one row")

	group, err := s.GroupByName("science")
	require.NoError(t, err)
	assert.Equal(t, models.PermsPrivate, group.Permissions)
}

func TestCreateGroupStrict(t *testing.T) {
	s := setupStore(t)
	p := NewSimpleRoleProvider(s, false)

	_, err := p.CreateGroup("science", nil, true, false)
	require.NoError(t, err, "strict creation of a fresh name succeeds")

	_, err = p.CreateGroup("science", nil, true, false)
	assert.ErrorIs(t, err, ErrGroupExists)
}

func TestCreateGroupPermissions(t *testing.T) {
	s := setupStore(t)
	p := NewSimpleRoleProvider(s, false)

	perms := "rwr---"

	_, err := p.CreateGroup("shared", &perms, false, true)
	require.NoError(t, err)

	group, err := s.GroupByName("shared")
	require.NoError(t, err)
	assert.Equal(t, "rwr---", group.Permissions)
	assert.True(t, group.Ldap)
}

func TestCreateExperimenter(t *testing.T) {
	s := setupStore(t)
	p := NewSimpleRoleProvider(s, true)

	defaultGroup, err := p.CreateGroup("science", nil, false, false)
	require.NoError(t, err)

	otherGroup, err := p.CreateGroup("imaging", nil, false, false)
	require.NoError(t, err)

	id, err := p.CreateExperimenter(&models.Experimenter{
		OmeName:   "Jane",
		FirstName: "Jane",
		LastName:  "Doe",
	}, defaultGroup, otherGroup, defaultGroup)
	require.NoError(t, err)

	exp, err := s.ExperimenterByID(id)
	require.NoError(t, err)
	assert.Equal(t, "jane", exp.OmeName, "login names are lower-cased when case-insensitive")

	links, err := s.Memberships(id)
	require.NoError(t, err)
	require.Len(t, links, 2, "the repeated default group id must not create a second link")

	for _, link := range links {
		assert.Equal(t, link.GroupID == defaultGroup, link.DefaultGroup)
	}
}

func TestLinkGroupAndUserIsIdempotent(t *testing.T) {
	s := setupStore(t)
	p := NewSimpleRoleProvider(s, false)

	groupID, err := p.CreateGroup("science", nil, false, false)
	require.NoError(t, err)

	expID, err := s.CreateExperimenter(&models.Experimenter{OmeName: "jane"})
	require.NoError(t, err)

	require.NoError(t, p.LinkGroupAndUser(expID, groupID, false))
	require.NoError(t, p.LinkGroupAndUser(expID, groupID, false))

	links, err := s.Memberships(expID)
	require.NoError(t, err)
	assert.Len(t, links, 1)
}

func TestSetDefaultGroupRequiresMembership(t *testing.T) {
	s := setupStore(t)
	p := NewSimpleRoleProvider(s, false)

	groupID, err := p.CreateGroup("science", nil, false, false)
	require.NoError(t, err)

	expID, err := s.CreateExperimenter(&models.Experimenter{OmeName: "jane"})
	require.NoError(t, err)

	assert.ErrorIs(t, p.SetDefaultGroup(expID, groupID), ErrNoMembership)

	require.NoError(t, p.LinkGroupAndUser(expID, groupID, false))
	require.NoError(t, p.SetDefaultGroup(expID, groupID))

	links, err := s.Memberships(expID)
	require.NoError(t, err)
	require.Len(t, links, 1)
	assert.True(t, links[0].DefaultGroup)
}

func TestSetGroupOwner(t *testing.T) {
	s := setupStore(t)
	p := NewSimpleRoleProvider(s, false)

	groupID, err := p.CreateGroup("science", nil, false, false)
	require.NoError(t, err)

	expID, err := s.CreateExperimenter(&models.Experimenter{OmeName: "jane"})
	require.NoError(t, err)

	assert.ErrorIs(t, p.SetGroupOwner(expID, groupID, true), ErrNoMembership)

	require.NoError(t, p.LinkGroupAndUser(expID, groupID, false))
	require.NoError(t, p.SetGroupOwner(expID, groupID, true))

	links, err := s.Memberships(expID)
	require.NoError(t, err)
	require.Len(t, links, 1)
	assert.True(t, links[0].Owner)
}

func TestAddGroupsDemotesBuiltinDefault(t *testing.T) {
	s := setupStore(t)
	p := NewSimpleRoleProvider(s, false)

	userGroup, err := p.CreateGroup(UserGroupName, nil, false, false)
	require.NoError(t, err)

	scienceGroup, err := p.CreateGroup("science", nil, false, false)
	require.NoError(t, err)

	expID, err := p.CreateExperimenter(&models.Experimenter{OmeName: "jane"}, userGroup)
	require.NoError(t, err)

	require.NoError(t, p.AddGroups(expID, scienceGroup))

	links, err := s.Memberships(expID)
	require.NoError(t, err)
	require.Len(t, links, 2)

	for _, link := range links {
		assert.Equal(t, link.GroupID == scienceGroup, link.DefaultGroup,
			"the explicit group must take over as default from the built-in user group")
	}
}

func TestAddGroupsKeepsExplicitDefault(t *testing.T) {
	s := setupStore(t)
	p := NewSimpleRoleProvider(s, false)

	scienceGroup, err := p.CreateGroup("science", nil, false, false)
	require.NoError(t, err)

	imagingGroup, err := p.CreateGroup("imaging", nil, false, false)
	require.NoError(t, err)

	expID, err := p.CreateExperimenter(&models.Experimenter{OmeName: "jane"}, scienceGroup)
	require.NoError(t, err)

	require.NoError(t, p.AddGroups(expID, imagingGroup))

	links, err := s.Memberships(expID)
	require.NoError(t, err)
	require.Len(t, links, 2)

	for _, link := range links {
		assert.Equal(t, link.GroupID == scienceGroup, link.DefaultGroup,
			"an explicit default group is never demoted")
	}
}

func TestRemoveGroups(t *testing.T) {
	s := setupStore(t)
	p := NewSimpleRoleProvider(s, false)

	scienceGroup, err := p.CreateGroup("science", nil, false, false)
	require.NoError(t, err)

	imagingGroup, err := p.CreateGroup("imaging", nil, false, false)
	require.NoError(t, err)

	expID, err := p.CreateExperimenter(&models.Experimenter{OmeName: "jane"}, scienceGroup, imagingGroup)
	require.NoError(t, err)

	require.NoError(t, p.RemoveGroups(expID, imagingGroup))

	links, err := s.Memberships(expID)
	require.NoError(t, err)
	require.Len(t, links, 1)
	assert.Equal(t, scienceGroup, links[0].GroupID)
}

func TestLdapRoleProviderForcesDirectoryFlag(t *testing.T) {
	s := setupStore(t)
	p := NewLdapRoleProvider(NewSimpleRoleProvider(s, false))

	groupID, err := p.CreateGroup("science", nil, false, false)
	require.NoError(t, err)

	group, err := s.GroupByID(groupID)
	require.NoError(t, err)
	assert.True(t, group.Ldap, "fromLdap false is overridden")

	expID, err := p.CreateExperimenter(&models.Experimenter{OmeName: "jane"}, groupID)
	require.NoError(t, err)

	exp, err := s.ExperimenterByID(expID)
	require.NoError(t, err)
	assert.True(t, exp.Ldap)
}
