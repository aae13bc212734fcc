//
//  Copyright © Manetu Inc. All rights reserved.
//

package compile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/manetu/iamsearch/pkg/index"
)

const catalogA = `{
  "roles": [
    {"name": "roles/viewer", "title": "Viewer", "stage": "GA",
     "included_permissions": ["storage.objects.get"]}
  ]
}`

const catalogB = `{
  "roles": [
    {"name": "roles/editor", "title": "Editor", "stage": "GA",
     "included_permissions": ["storage.objects.update"]}
  ],
  "permissions": [
    {"name": "iam.roles.get", "service": "iam"}
  ]
}`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestRunMergesCatalogs(t *testing.T) {
	dir := t.TempDir()
	output := filepath.Join(dir, "iam-index.bin")

	results, err := Run([]string{
		writeFile(t, dir, "a.json", catalogA),
		writeFile(t, dir, "b.json", catalogB),
	}, output)
	require.NoError(t, err)

	require.Len(t, results, 2)
	for _, r := range results {
		assert.True(t, r.Success)
	}

	tables, err := index.ReadFile(output)
	require.NoError(t, err)
	assert.Len(t, tables.Roles, 2)
	assert.Len(t, tables.Permissions, 3)

	idx, ok := tables.PermissionIndex("storage.objects.update")
	require.True(t, ok)
	assert.Equal(t, []uint32{1}, tables.Permissions[idx].GrantedBy)
}

func TestRunReportsBadFile(t *testing.T) {
	dir := t.TempDir()
	output := filepath.Join(dir, "iam-index.bin")

	results, err := Run([]string{
		writeFile(t, dir, "a.json", catalogA),
		writeFile(t, dir, "bad.json", "{not json"),
	}, output)
	require.Error(t, err)

	require.Len(t, results, 2)
	assert.True(t, results[0].Success)
	assert.False(t, results[1].Success)

	// No artifact is written when any input fails.
	_, statErr := os.Stat(output)
	assert.True(t, os.IsNotExist(statErr))
}
