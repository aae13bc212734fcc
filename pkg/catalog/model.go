//
//  Copyright © Manetu Inc. All rights reserved.
//

// Package catalog defines the on-disk dataset model for IAM role and
// permission catalogs: the document produced by the collector and consumed
// by the indexing engine and the offline compiler.
package catalog

// Role is a catalog role definition.
type Role struct {
	Name                string   `json:"name" yaml:"name"`
	Title               string   `json:"title" yaml:"title"`
	Description         string   `json:"description" yaml:"description"`
	Stage               string   `json:"stage" yaml:"stage"`
	IncludedPermissions []string `json:"included_permissions" yaml:"included_permissions"`
}

// Permission is a standalone catalog permission entry: one that is listed
// explicitly rather than derived from role membership.
type Permission struct {
	Name    string `json:"name" yaml:"name"`
	Service string `json:"service" yaml:"service"`
}

// Metadata describes the provenance of a catalog dataset.
type Metadata struct {
	LastUpdated      string `json:"last_updated" yaml:"last_updated"`
	TotalRoles       int    `json:"total_roles" yaml:"total_roles"`
	TotalPermissions int    `json:"total_permissions" yaml:"total_permissions"`
	APIVersion       string `json:"api_version,omitempty" yaml:"api_version,omitempty"`
}

// Catalog is a complete dataset: every role, the permission universe, and
// provenance metadata.
type Catalog struct {
	Metadata    Metadata     `json:"metadata" yaml:"metadata"`
	Roles       []Role       `json:"roles" yaml:"roles"`
	Permissions []Permission `json:"permissions" yaml:"permissions"`
}
