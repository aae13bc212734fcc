//
//  Copyright © Manetu Inc. All rights reserved.
//

package collector

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/manetu/iamsearch/pkg/catalog"
	"github.com/manetu/iamsearch/pkg/common"
)

// Dataset file names within the storage directory.
const (
	DatasetFile    = "iam-data.json"
	DatasetFileMin = "iam-data.min.json"
)

// Storage persists catalog datasets in a directory, writing both a
// human-readable and a minified rendition.
type Storage struct {
	dir string
}

// NewStorage creates a Storage rooted at dir, creating the directory if
// necessary.
func NewStorage(dir string) (*Storage, error) {
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, common.NewErrorf(common.ReasonIO, "creating storage directory: %v", err)
	}
	return &Storage{dir: dir}, nil
}

// Save writes the dataset as both iam-data.json (indented) and
// iam-data.min.json (compact).
func (s *Storage) Save(c *catalog.Catalog) error {
	pretty, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(s.dir, DatasetFile), pretty, 0600); err != nil {
		return common.NewErrorf(common.ReasonIO, "writing dataset: %v", err)
	}

	min, err := json.Marshal(c)
	if err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(s.dir, DatasetFileMin), min, 0600); err != nil {
		return common.NewErrorf(common.ReasonIO, "writing minified dataset: %v", err)
	}

	logger.Infof(agent, "Save", "wrote %d roles / %d permissions to %s",
		c.Metadata.TotalRoles, c.Metadata.TotalPermissions, s.dir)
	return nil
}

// LoadPrevious loads the most recently saved dataset, or (nil, nil) when no
// dataset exists yet.
func (s *Storage) LoadPrevious() (*catalog.Catalog, error) {
	data, err := os.ReadFile(filepath.Join(s.dir, DatasetFile)) // #nosec G304 -- path is rooted at the configured storage directory
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, common.NewErrorf(common.ReasonIO, "reading dataset: %v", err)
	}

	var c catalog.Catalog
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, common.NewErrorf(common.ReasonDecode, "decoding dataset: %v", err)
	}
	return &c, nil
}
