//
//  Copyright © Manetu Inc. All rights reserved.
//

package engine

// Permission identifies a single grantable action, keyed by its
// dot-delimited name ("service.resource.action").  Service, Resource, and
// Action are derived from Name by splitting on '.'; absent segments are
// empty strings.
type Permission struct {
	Name     string `json:"name"`
	Service  string `json:"service"`
	Resource string `json:"resource"`
	Action   string `json:"action"`

	// GrantedBy holds indices into Tables.Roles, in catalog load order.
	// It is populated by Finalize (or by the offline compiler) and is
	// empty before the tables are frozen.
	GrantedBy []uint32 `json:"granted_by"`
}

// Role identifies a bundle of permissions.  The membership list is kept
// exactly as supplied by the catalog: unsorted, and not deduplicated.
type Role struct {
	Name                string   `json:"name"`
	Title               string   `json:"title"`
	Description         string   `json:"description"`
	Stage               string   `json:"stage"`
	IncludedPermissions []string `json:"included_permissions"`
}

// RoleSummary is a reduced projection of a Role, used when embedding role
// references inside permission search results.
type RoleSummary struct {
	Name  string `json:"name"`
	Title string `json:"title"`
	Stage string `json:"stage"`
}

// Tables is the canonical table layout shared by both engine realizations.
// The mutable builder populates it incrementally during the load phase; the
// offline compiler produces the same layout in one pass and serializes it
// verbatim.  Cross-references are integer indices into the entity arrays
// rather than repeated strings, which keeps the compiled artifact compact.
//
// The lowercase arrays are derived data: they are appended in lock-step with
// the name arrays so that case-insensitive matching never re-folds a string
// at query time.
type Tables struct {
	Permissions     []Permission `json:"permissions"`
	PermissionNames []string     `json:"permission_names"`

	Roles         []Role        `json:"roles"`
	RoleNames     []string      `json:"role_names"`
	RoleSummaries []RoleSummary `json:"role_summaries"`

	// ServicePermissions groups permission indices by their owning service.
	ServicePermissions map[string][]uint32 `json:"service_permissions"`

	PermissionNamesLower []string `json:"permission_names_lower"`
	RoleNamesLower       []string `json:"role_names_lower"`
	RoleTitlesLower      []string `json:"role_titles_lower"`

	// name -> index lookups; not serialized, rebuilt by Reindex after a
	// compiled artifact is decoded.
	permissionIndex map[string]int
	roleIndex       map[string]int
}

// NewTables returns an empty Tables value with initialized lookups.
func NewTables() *Tables {
	return &Tables{
		ServicePermissions: make(map[string][]uint32),
		permissionIndex:    make(map[string]int),
		roleIndex:          make(map[string]int),
	}
}

// Reindex rebuilds the name->index lookup maps from the entity arrays.
// It must be called after deserializing a compiled artifact, since the
// lookups are derived data and are not part of the wire form.
func (t *Tables) Reindex() {
	t.permissionIndex = make(map[string]int, len(t.PermissionNames))
	for i, name := range t.PermissionNames {
		t.permissionIndex[name] = i
	}

	t.roleIndex = make(map[string]int, len(t.RoleNames))
	for i, name := range t.RoleNames {
		t.roleIndex[name] = i
	}

	if t.ServicePermissions == nil {
		t.ServicePermissions = make(map[string][]uint32)
	}
}

// PermissionIndex returns the table index for a permission name.
func (t *Tables) PermissionIndex(name string) (int, bool) {
	idx, ok := t.permissionIndex[name]
	return idx, ok
}

// RoleIndex returns the table index for a role name.
func (t *Tables) RoleIndex(name string) (int, bool) {
	idx, ok := t.roleIndex[name]
	return idx, ok
}
