//
//  Copyright © Manetu Inc. All rights reserved.
//

// Package parsers loads catalog datasets from disk, selecting the decoder
// by file extension.  JSON is the native collector output format; YAML is
// accepted for hand-maintained catalogs.
package parsers

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/manetu/iamsearch/pkg/catalog"

	"gopkg.in/yaml.v3"
)

// Load loads a catalog from a file path.
func Load(path string) (*catalog.Catalog, error) {
	f, err := os.Open(path) // #nosec G304 -- CLI tool intentionally reads user-provided paths
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, err
	}

	var c catalog.Catalog

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		err = json.Unmarshal(data, &c)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &c)
	default:
		return nil, fmt.Errorf("unsupported catalog format %q", filepath.Ext(path))
	}
	if err != nil {
		return nil, err
	}

	if err := validate(&c); err != nil {
		return nil, err
	}

	return &c, nil
}

func validate(c *catalog.Catalog) error {
	for i, r := range c.Roles {
		if r.Name == "" {
			return fmt.Errorf("role %d is missing a name", i)
		}
	}
	for i, p := range c.Permissions {
		if p.Name == "" {
			return fmt.Errorf("permission %d is missing a name", i)
		}
	}
	return nil
}
