//
//  Copyright © Manetu Inc. All rights reserved.
//

package parsers

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const jsonCatalog = `{
  "metadata": {
    "last_updated": "2026-08-01T00:00:00Z",
    "total_roles": 1,
    "total_permissions": 2
  },
  "roles": [
    {
      "name": "roles/storage.objectViewer",
      "title": "Storage Object Viewer",
      "description": "Read access to objects",
      "stage": "GA",
      "included_permissions": ["storage.objects.get", "storage.objects.list"]
    }
  ],
  "permissions": [
    {"name": "storage.objects.get", "service": "storage"},
    {"name": "storage.objects.list", "service": "storage"}
  ]
}`

const yamlCatalog = `metadata:
  last_updated: "2026-08-01T00:00:00Z"
  total_roles: 1
  total_permissions: 2
roles:
  - name: roles/storage.objectViewer
    title: Storage Object Viewer
    description: Read access to objects
    stage: GA
    included_permissions:
      - storage.objects.get
      - storage.objects.list
permissions:
  - name: storage.objects.get
    service: storage
  - name: storage.objects.list
    service: storage
`

func write(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestLoadJSON(t *testing.T) {
	c, err := Load(write(t, "catalog.json", jsonCatalog))
	require.NoError(t, err)

	require.Len(t, c.Roles, 1)
	assert.Equal(t, "roles/storage.objectViewer", c.Roles[0].Name)
	assert.Equal(t, "GA", c.Roles[0].Stage)
	assert.Len(t, c.Roles[0].IncludedPermissions, 2)
	assert.Equal(t, 2, c.Metadata.TotalPermissions)
}

func TestLoadYAMLMatchesJSON(t *testing.T) {
	fromJSON, err := Load(write(t, "catalog.json", jsonCatalog))
	require.NoError(t, err)

	fromYAML, err := Load(write(t, "catalog.yaml", yamlCatalog))
	require.NoError(t, err)

	assert.Equal(t, fromJSON, fromYAML)
}

func TestLoadUnsupportedExtension(t *testing.T) {
	_, err := Load(write(t, "catalog.toml", "nope"))
	assert.Error(t, err)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nosuch.json"))
	assert.Error(t, err)
}

func TestLoadRejectsNamelessRole(t *testing.T) {
	_, err := Load(write(t, "bad.json", `{"roles":[{"title":"No Name"}]}`))
	assert.Error(t, err)
}
