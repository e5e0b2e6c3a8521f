// Package provision creates users and groups in the local store during
// directory synchronization.
//
// RoleProvider is the creation primitive: lookup-before-create group
// handling, allow-listed experimenter field copying and idempotent
// membership linking, all safe to re-invoke on every login. GroupStrategy
// sits on top and decides which groups a newly synchronized user joins;
// the strategy is selected once from the configuration string shape
// (":attribute:", ":filtered_attribute:", ":ou:", ":query:" or a literal
// group name), never from the shape of directory data at runtime.
package provision
