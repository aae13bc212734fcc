//
//  Copyright © Manetu Inc. All rights reserved.
//

package engine

import "github.com/mohae/deepcopy"

const (
	// maxRoleSummaries caps the granting-role references embedded in a
	// permission result.
	maxRoleSummaries = 5
	// maxSamplePermissions caps the membership sample embedded in a role
	// result; PermissionCount always reflects the untruncated total.
	maxSamplePermissions = 5
)

// PermissionResult is a fully-assembled permission search hit.
type PermissionResult struct {
	Name           string        `json:"name"`
	Service        string        `json:"service"`
	Resource       string        `json:"resource"`
	Action         string        `json:"action"`
	Score          float64       `json:"score"`
	GrantedByRoles []RoleSummary `json:"granted_by_roles"`
}

// RoleResult is a fully-assembled role search hit.
type RoleResult struct {
	Name              string   `json:"name"`
	Title             string   `json:"title"`
	Description       string   `json:"description"`
	Stage             string   `json:"stage"`
	Score             float64  `json:"score"`
	PermissionCount   int      `json:"permission_count"`
	SamplePermissions []string `json:"sample_permissions"`
}

// PermissionDetail is the full resolution of a single permission: the
// record plus every granting role, uncapped.  Used by the detail pages.
type PermissionDetail struct {
	Permission
	GrantedByRoles []RoleSummary `json:"granted_by_roles"`
}

// roleSummariesFor resolves role indices to summaries, dropping any index
// that falls outside the summary table.
func (e *Engine) roleSummariesFor(granted []uint32, limit int) []RoleSummary {
	summaries := make([]RoleSummary, 0, limit)
	for _, idx := range granted {
		if int(idx) >= len(e.tables.RoleSummaries) {
			continue
		}
		summaries = append(summaries, e.tables.RoleSummaries[idx])
		if limit > 0 && len(summaries) == limit {
			break
		}
	}
	return summaries
}

// AssemblePermissions expands permission candidates into presentable
// results.  Candidates whose index no longer resolves are dropped silently;
// each result carries at most maxRoleSummaries granting roles, in stored
// order.
func (e *Engine) AssemblePermissions(candidates []Candidate) []PermissionResult {
	results := make([]PermissionResult, 0, len(candidates))
	for _, c := range candidates {
		if c.Index < 0 || c.Index >= len(e.tables.Permissions) {
			continue
		}
		p := &e.tables.Permissions[c.Index]
		results = append(results, PermissionResult{
			Name:           p.Name,
			Service:        p.Service,
			Resource:       p.Resource,
			Action:         p.Action,
			Score:          c.Score,
			GrantedByRoles: e.roleSummariesFor(p.GrantedBy, maxRoleSummaries),
		})
	}
	return results
}

// AssembleRoles expands role candidates into presentable results.
// Candidates whose index no longer resolves are dropped silently; each
// result samples at most maxSamplePermissions member permissions while
// reporting the full membership count.
func (e *Engine) AssembleRoles(candidates []Candidate) []RoleResult {
	results := make([]RoleResult, 0, len(candidates))
	for _, c := range candidates {
		if c.Index < 0 || c.Index >= len(e.tables.Roles) {
			continue
		}
		r := &e.tables.Roles[c.Index]
		sample := r.IncludedPermissions
		if len(sample) > maxSamplePermissions {
			sample = sample[:maxSamplePermissions]
		}
		results = append(results, RoleResult{
			Name:              r.Name,
			Title:             r.Title,
			Description:       r.Description,
			Stage:             r.Stage,
			Score:             c.Score,
			PermissionCount:   len(r.IncludedPermissions),
			SamplePermissions: sample,
		})
	}
	return results
}

// ResolvePermission returns the full detail record for an exact permission
// name, with every granting role resolved.  The returned detail is a deep
// copy; callers may retain or mutate it freely.
func (e *Engine) ResolvePermission(name string) (*PermissionDetail, bool) {
	idx, ok := e.tables.PermissionIndex(name)
	if !ok {
		return nil, false
	}
	p := deepcopy.Copy(e.tables.Permissions[idx]).(Permission)
	return &PermissionDetail{
		Permission:     p,
		GrantedByRoles: e.roleSummariesFor(p.GrantedBy, 0),
	}, true
}

// ResolveRole returns the full role record for an exact role name.  The
// returned record is a deep copy; callers may retain or mutate it freely.
func (e *Engine) ResolveRole(name string) (*Role, bool) {
	idx, ok := e.tables.RoleIndex(name)
	if !ok {
		return nil, false
	}
	r := deepcopy.Copy(e.tables.Roles[idx]).(Role)
	return &r, true
}

// PermissionsForService returns the names of all permissions owned by a
// service, in insertion order.  Unknown services yield an empty list.
func (e *Engine) PermissionsForService(service string) []string {
	indices := e.tables.ServicePermissions[service]
	names := make([]string, 0, len(indices))
	for _, idx := range indices {
		if int(idx) < len(e.tables.PermissionNames) {
			names = append(names, e.tables.PermissionNames[idx])
		}
	}
	return names
}

// EntityNames returns the complete permission and role name lists, used for
// sitemap generation.
func (e *Engine) EntityNames() (permissions, roles []string) {
	permissions = make([]string, len(e.tables.PermissionNames))
	copy(permissions, e.tables.PermissionNames)
	roles = make([]string, len(e.tables.RoleNames))
	copy(roles, e.tables.RoleNames)
	return
}
