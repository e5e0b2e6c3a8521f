package daemon

import (
	"github.com/omero-admin/omero-auth/internal/db/store"
	"github.com/omero-admin/omero-auth/internal/provision"
)

// seed ensures the built-in groups exist. The "user" group is the
// fallback default membership every experimenter gets demoted to when no
// explicit group remains.
func seed(s *store.Store) error {
	roles := provision.NewSimpleRoleProvider(s, false)

	for _, name := range []string{provision.UserGroupName, "system", "guest"} {
		if _, err := roles.CreateGroup(name, nil, false, false); err != nil {
			return err
		}
	}

	return nil
}
