//
//  Copyright © Manetu Inc. All rights reserved.
//

// Package engine implements the in-memory indexing and search core: the
// canonical entity tables, the incremental builder that populates them from
// catalog data, the lexical query engine, and the result assembler.  Both
// engine realizations (the mutable service engine and the precompiled
// read-only engine) sit on top of this package.
package engine

import (
	"strings"

	"github.com/manetu/iamsearch/internal/logging"
)

var log = logging.GetLogger("engine")

// Phase tracks the life-cycle of an Engine instance.  Queries are legal in
// either phase; cross-reference data (granted-by lists) is only complete
// once the engine is Frozen.
type Phase int

const (
	// Building accepts IndexRole/IndexPermission calls.
	Building Phase = iota
	// Frozen means Finalize has run and the tables are immutable.
	Frozen
)

// Engine owns a Tables value and the transient state needed to build it.
// It is not safe for concurrent use; callers serialize access.
type Engine struct {
	tables *Tables
	phase  Phase

	// grantors is the provisional cross-reference multimap: permission
	// name -> granting role names, in insertion order.  Finalize resolves
	// it to index form and drops it.
	grantors map[string][]string
}

// New returns an empty Engine in the Building phase.
func New() *Engine {
	return &Engine{
		tables:   NewTables(),
		grantors: make(map[string][]string),
	}
}

// FromTables wraps an already-populated table set, such as one decoded from
// a compiled artifact.  The resulting engine is Frozen; its lookup maps are
// rebuilt here.
func FromTables(t *Tables) *Engine {
	t.Reindex()
	return &Engine{
		tables: t,
		phase:  Frozen,
	}
}

// Phase reports the engine's current life-cycle phase.
func (e *Engine) Phase() Phase {
	return e.phase
}

// Tables exposes the underlying table set, primarily for serialization.
func (e *Engine) Tables() *Tables {
	return e.tables
}

// Stats returns the permission and role counts.
func (e *Engine) Stats() (int, int) {
	return len(e.tables.Permissions), len(e.tables.Roles)
}

// splitPermission derives (service, resource, action) from a dot-delimited
// permission name.  Missing segments are empty strings; malformed names
// degrade rather than fail.
func splitPermission(name string) (service, resource, action string) {
	parts := strings.SplitN(name, ".", 3)
	if len(parts) > 0 {
		service = parts[0]
	}
	if len(parts) > 1 {
		resource = parts[1]
	}
	if len(parts) > 2 {
		action = parts[2]
	}
	return
}

// insertPermission appends a permission record plus all of its derived
// projections, keeping every parallel array in lock-step.  No-op when the
// name is already present.
func (e *Engine) insertPermission(name, service string) {
	t := e.tables
	if _, ok := t.permissionIndex[name]; ok {
		return
	}

	_, resource, action := splitPermission(name)
	idx := len(t.Permissions)

	t.Permissions = append(t.Permissions, Permission{
		Name:     name,
		Service:  service,
		Resource: resource,
		Action:   action,
	})
	t.PermissionNames = append(t.PermissionNames, name)
	t.PermissionNamesLower = append(t.PermissionNamesLower, strings.ToLower(name))
	t.permissionIndex[name] = idx
	t.ServicePermissions[service] = append(t.ServicePermissions[service], uint32(idx))
}

// IndexRole inserts or overwrites a role record and registers its
// membership list.  Re-indexing an existing role name overwrites the stored
// record in place (last write wins), while grantor registrations always
// append to the provisional multimap.  Permissions named by the membership
// list that have not been seen before are inserted with fields derived from
// the name.  Calling after Finalize is ignored.
func (e *Engine) IndexRole(r Role) {
	if e.phase == Frozen {
		log.SysWarnf("IndexRole %s ignored: tables are frozen", r.Name)
		return
	}

	t := e.tables
	summary := RoleSummary{Name: r.Name, Title: r.Title, Stage: r.Stage}

	if idx, ok := t.roleIndex[r.Name]; ok {
		t.Roles[idx] = r
		t.RoleSummaries[idx] = summary
		t.RoleNamesLower[idx] = strings.ToLower(r.Name)
		t.RoleTitlesLower[idx] = strings.ToLower(r.Title)
	} else {
		idx = len(t.Roles)
		t.Roles = append(t.Roles, r)
		t.RoleNames = append(t.RoleNames, r.Name)
		t.RoleSummaries = append(t.RoleSummaries, summary)
		t.RoleNamesLower = append(t.RoleNamesLower, strings.ToLower(r.Name))
		t.RoleTitlesLower = append(t.RoleTitlesLower, strings.ToLower(r.Title))
		t.roleIndex[r.Name] = idx
	}

	for _, perm := range r.IncludedPermissions {
		e.grantors[perm] = append(e.grantors[perm], r.Name)
		service, _, _ := splitPermission(perm)
		e.insertPermission(perm, service)
	}
}

// IndexPermission inserts a standalone permission under the given service
// group.  Names already present are left untouched.  Calling after Finalize
// is ignored.
func (e *Engine) IndexPermission(name, service string) {
	if e.phase == Frozen {
		log.SysWarnf("IndexPermission %s ignored: tables are frozen", name)
		return
	}
	e.insertPermission(name, service)
}

// Finalize resolves the provisional grantor multimap into per-permission
// role index lists and freezes the tables.  Role names that cannot be
// resolved are dropped silently; with a well-formed load sequence every
// grantor was itself indexed by IndexRole.  Finalize is idempotent.
func (e *Engine) Finalize() {
	if e.phase == Frozen {
		return
	}

	t := e.tables
	for i := range t.Permissions {
		names := e.grantors[t.Permissions[i].Name]
		if len(names) == 0 {
			continue
		}
		granted := make([]uint32, 0, len(names))
		for _, name := range names {
			if idx, ok := t.roleIndex[name]; ok {
				granted = append(granted, uint32(idx))
			}
		}
		t.Permissions[i].GrantedBy = granted
	}

	e.grantors = nil
	e.phase = Frozen

	log.SysInfof("index finalized: %d permissions, %d roles", len(t.Permissions), len(t.Roles))
}
