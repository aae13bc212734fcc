//
//  Copyright © Manetu Inc. All rights reserved.
//

package engine

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func role(name, title, stage string, perms ...string) Role {
	return Role{
		Name:                name,
		Title:               title,
		Stage:               stage,
		IncludedPermissions: perms,
	}
}

func TestSplitPermission(t *testing.T) {
	tests := []struct {
		name                      string
		service, resource, action string
	}{
		{"compute.instances.start", "compute", "instances", "start"},
		{"iam.roles.undelete", "iam", "roles", "undelete"},
		{"storage.objects.get.extra", "storage", "objects", "get.extra"},
		{"malformed", "malformed", "", ""},
		{"two.parts", "two", "parts", ""},
		{"", "", "", ""},
	}

	for _, tt := range tests {
		service, resource, action := splitPermission(tt.name)
		assert.Equal(t, tt.service, service, tt.name)
		assert.Equal(t, tt.resource, resource, tt.name)
		assert.Equal(t, tt.action, action, tt.name)
	}
}

func TestIndexPermissionIdempotent(t *testing.T) {
	e := New()
	e.IndexPermission("compute.instances.start", "compute")
	e.IndexPermission("compute.instances.start", "compute")

	permissions, roles := e.Stats()
	assert.Equal(t, 1, permissions)
	assert.Equal(t, 0, roles)
}

func TestIndexRoleDerivesPermissions(t *testing.T) {
	e := New()
	e.IndexRole(role("roles/compute.admin", "Compute Admin", "GA",
		"compute.instances.start",
		"compute.instances.stop"))

	permissions, roles := e.Stats()
	assert.Equal(t, 2, permissions)
	assert.Equal(t, 1, roles)

	idx, ok := e.Tables().PermissionIndex("compute.instances.stop")
	require.True(t, ok)
	p := e.Tables().Permissions[idx]
	assert.Equal(t, "compute", p.Service)
	assert.Equal(t, "instances", p.Resource)
	assert.Equal(t, "stop", p.Action)
}

func TestIndexRoleAndPermissionProduceIdenticalRecords(t *testing.T) {
	viaRole := New()
	viaRole.IndexRole(role("roles/viewer", "Viewer", "GA", "storage.objects.get"))

	direct := New()
	direct.IndexPermission("storage.objects.get", "storage")

	a, ok := viaRole.Tables().PermissionIndex("storage.objects.get")
	require.True(t, ok)
	b, ok := direct.Tables().PermissionIndex("storage.objects.get")
	require.True(t, ok)

	pa := viaRole.Tables().Permissions[a]
	pa.GrantedBy = nil
	assert.Equal(t, pa, direct.Tables().Permissions[b])
}

func TestRoleOverwriteLastWriteWins(t *testing.T) {
	e := New()
	e.IndexRole(role("roles/editor", "Editor", "BETA", "storage.objects.get"))
	e.IndexRole(role("roles/editor", "Editor v2", "GA", "storage.objects.update"))

	permissions, roles := e.Stats()
	assert.Equal(t, 1, roles)
	assert.Equal(t, 2, permissions)

	idx, ok := e.Tables().RoleIndex("roles/editor")
	require.True(t, ok)
	r := e.Tables().Roles[idx]
	assert.Equal(t, "Editor v2", r.Title)
	assert.Equal(t, "GA", r.Stage)
	assert.Equal(t, []string{"storage.objects.update"}, r.IncludedPermissions)

	assert.Equal(t, "editor v2", e.Tables().RoleTitlesLower[idx])
	assert.Equal(t, RoleSummary{Name: "roles/editor", Title: "Editor v2", Stage: "GA"},
		e.Tables().RoleSummaries[idx])
}

func TestFinalizeResolvesGrantors(t *testing.T) {
	e := New()
	e.IndexRole(role("roles/viewer", "Viewer", "GA", "storage.objects.get"))
	e.IndexRole(role("roles/editor", "Editor", "GA",
		"storage.objects.get",
		"storage.objects.update"))

	e.Finalize()
	require.Equal(t, Frozen, e.Phase())

	idx, ok := e.Tables().PermissionIndex("storage.objects.get")
	require.True(t, ok)
	assert.Equal(t, []uint32{0, 1}, e.Tables().Permissions[idx].GrantedBy)

	idx, ok = e.Tables().PermissionIndex("storage.objects.update")
	require.True(t, ok)
	assert.Equal(t, []uint32{1}, e.Tables().Permissions[idx].GrantedBy)
}

func TestGrantorsAccumulateAcrossOverwrite(t *testing.T) {
	e := New()
	e.IndexRole(role("roles/editor", "Editor", "GA", "storage.objects.get"))
	e.IndexRole(role("roles/editor", "Editor", "GA", "storage.objects.get"))
	e.Finalize()

	idx, ok := e.Tables().PermissionIndex("storage.objects.get")
	require.True(t, ok)
	// Overwrites replace the role record but grantor registrations append.
	assert.Equal(t, []uint32{0, 0}, e.Tables().Permissions[idx].GrantedBy)
}

func TestQueryBeforeFinalize(t *testing.T) {
	e := New()
	e.IndexRole(role("roles/viewer", "Viewer", "GA", "storage.objects.get"))

	require.Equal(t, Building, e.Phase())

	candidates := e.Search(KindPermission, "storage.", ModePrefix, 0.2, MaxResults)
	require.Len(t, candidates, 1)

	results := e.AssemblePermissions(candidates)
	require.Len(t, results, 1)
	assert.Empty(t, results[0].GrantedByRoles)
}

func TestFrozenIgnoresWrites(t *testing.T) {
	e := New()
	e.IndexRole(role("roles/viewer", "Viewer", "GA", "storage.objects.get"))
	e.Finalize()

	e.IndexRole(role("roles/late", "Late", "GA", "late.things.do"))
	e.IndexPermission("late.other.do", "late")

	permissions, roles := e.Stats()
	assert.Equal(t, 1, permissions)
	assert.Equal(t, 1, roles)
}

func TestFinalizeIdempotent(t *testing.T) {
	e := New()
	e.IndexRole(role("roles/viewer", "Viewer", "GA", "storage.objects.get"))
	e.Finalize()
	e.Finalize()

	idx, _ := e.Tables().PermissionIndex("storage.objects.get")
	assert.Equal(t, []uint32{0}, e.Tables().Permissions[idx].GrantedBy)
}

func TestServiceGrouping(t *testing.T) {
	e := New()
	e.IndexPermission("compute.instances.start", "compute")
	e.IndexPermission("storage.objects.get", "storage")
	e.IndexPermission("compute.instances.stop", "compute")
	e.Finalize()

	assert.Equal(t,
		[]string{"compute.instances.start", "compute.instances.stop"},
		e.PermissionsForService("compute"))
	assert.Equal(t, []string{"storage.objects.get"}, e.PermissionsForService("storage"))
	assert.Empty(t, e.PermissionsForService("nosuch"))
}

func TestFromTablesReindexes(t *testing.T) {
	e := New()
	for i := 0; i < 5; i++ {
		e.IndexRole(role(fmt.Sprintf("roles/r%d", i), fmt.Sprintf("Role %d", i), "GA",
			fmt.Sprintf("svc.res.op%d", i)))
	}
	e.Finalize()

	// Simulate a decoded artifact: same arrays, lookups discarded.
	raw := *e.Tables()
	raw.permissionIndex = nil
	raw.roleIndex = nil

	restored := FromTables(&raw)
	assert.Equal(t, Frozen, restored.Phase())

	candidates := restored.Search(KindRole, "roles/r3", ModeExact, 0.2, MaxResults)
	require.Len(t, candidates, 1)
	assert.Equal(t, 3, candidates[0].Index)
}
