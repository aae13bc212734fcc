//
//  Copyright © Manetu Inc. All rights reserved.
//

// Package index provides the offline index compiler and the compiled
// artifact codec.  A compiled artifact is the engine's canonical table set,
// CBOR-encoded and zstd-compressed, suitable for embedding in constrained
// runtimes that cannot afford to parse and index a catalog at startup.
package index

import (
	"github.com/manetu/iamsearch/internal/engine"
	"github.com/manetu/iamsearch/pkg/catalog"
)

// Compile builds a frozen table set from a catalog.
//
// Compilation runs the same builder the live service uses, so a compiled
// artifact is behaviorally indistinguishable from an engine that indexed
// the catalog itself: identical entity order, identical cross-references,
// identical query results.
func Compile(c *catalog.Catalog) *engine.Tables {
	e := engine.New()
	for _, r := range c.Roles {
		e.IndexRole(engine.Role{
			Name:                r.Name,
			Title:               r.Title,
			Description:         r.Description,
			Stage:               r.Stage,
			IncludedPermissions: r.IncludedPermissions,
		})
	}
	for _, p := range c.Permissions {
		e.IndexPermission(p.Name, p.Service)
	}
	e.Finalize()
	return e.Tables()
}
