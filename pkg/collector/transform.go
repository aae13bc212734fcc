//
//  Copyright © Manetu Inc. All rights reserved.
//

package collector

import (
	"sort"
	"strings"
	"time"

	"github.com/manetu/iamsearch/pkg/catalog"
)

// apiVersion records which upstream API revision produced a dataset.
const apiVersion = "v1"

// Transform converts raw upstream roles into a catalog dataset.
//
// Deleted roles are skipped.  The permission universe is the sorted set of
// unique permission names across all role membership lists, each attributed
// to the service named by its first dot-delimited segment.
func Transform(roles []RawRole, fetchedAt time.Time) *catalog.Catalog {
	out := make([]catalog.Role, 0, len(roles))
	seen := make(map[string]struct{})

	for _, r := range roles {
		if r.Deleted {
			continue
		}
		out = append(out, catalog.Role{
			Name:                r.Name,
			Title:               r.Title,
			Description:         r.Description,
			Stage:               r.Stage,
			IncludedPermissions: r.IncludedPermissions,
		})
		for _, p := range r.IncludedPermissions {
			seen[p] = struct{}{}
		}
	}

	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)

	permissions := make([]catalog.Permission, 0, len(names))
	for _, name := range names {
		service, _, _ := strings.Cut(name, ".")
		permissions = append(permissions, catalog.Permission{
			Name:    name,
			Service: service,
		})
	}

	return &catalog.Catalog{
		Metadata: catalog.Metadata{
			LastUpdated:      fetchedAt.UTC().Format(time.RFC3339),
			TotalRoles:       len(out),
			TotalPermissions: len(permissions),
			APIVersion:       apiVersion,
		},
		Roles:       out,
		Permissions: permissions,
	}
}
