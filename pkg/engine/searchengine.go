//
//  Copyright © Manetu Inc. All rights reserved.
//

// Package engine provides the primary interface for the IAM search engine,
// an in-memory index over IAM role and permission catalogs supporting
// exact, prefix, and fuzzy lookups.
//
// The engine has two realizations behind one interface: a mutable engine
// that indexes catalogs at startup and serves long-lived processes, and a
// read-only engine constructed from a precompiled artifact for
// per-invocation or constrained runtimes.  Both share identical table
// layouts and query semantics.
//
// # Quick Start
//
// Create a search engine from catalog files and run a query:
//
//	se, err := engine.NewLocalSearchEngine([]string{"iam-data.json"})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer se.Close()
//
//	results, err := se.Search(ctx, "compute.instances", engine.ModePrefix)
//
// # Configuration
//
// The engine supports various configuration options via functional options:
//
//	se, err := engine.NewLocalSearchEngine(paths,
//	    options.WithQueryLog(querylog.NewNullFactory()),
//	    options.WithThreshold(0.3),
//	)
//
// # Silent Mode
//
// For internal probes that should not appear in the query audit trail, use
// silent mode:
//
//	results, err := se.Search(ctx, query, mode, options.SetSilent(true))
//
// See the [options] package for all available configuration options.
package engine

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/manetu/iamsearch/internal/engine"
	"github.com/manetu/iamsearch/internal/logging"
	"github.com/manetu/iamsearch/pkg/catalog"
	"github.com/manetu/iamsearch/pkg/catalog/parsers"
	"github.com/manetu/iamsearch/pkg/engine/config"
	"github.com/manetu/iamsearch/pkg/engine/options"
	"github.com/manetu/iamsearch/pkg/engine/querylog"
	"github.com/manetu/iamsearch/pkg/index"
)

var logger = logging.GetLogger("iamsearch")
var agent = "iamsearch"

// Re-exported entity and result types.  The canonical definitions live in
// the internal engine package; these aliases let callers consume results
// without importing internals.
type (
	// Permission is an indexed permission record.
	Permission = engine.Permission
	// Role is an indexed role record.
	Role = engine.Role
	// RoleSummary is a reduced role projection embedded in results.
	RoleSummary = engine.RoleSummary
	// PermissionResult is a permission search hit.
	PermissionResult = engine.PermissionResult
	// RoleResult is a role search hit.
	RoleResult = engine.RoleResult
	// PermissionDetail is a fully-resolved permission record.
	PermissionDetail = engine.PermissionDetail
	// Mode selects the matching strategy.
	Mode = engine.Mode
)

// Matching modes accepted by Search.
const (
	ModeExact  = engine.ModeExact
	ModePrefix = engine.ModePrefix
	ModeFuzzy  = engine.ModeFuzzy
)

// ParseMode normalizes a caller-supplied mode string: empty selects prefix,
// unrecognized values select fuzzy.
func ParseMode(s string) Mode {
	return engine.ParseMode(s)
}

// Stats summarizes the indexed corpus.
type Stats struct {
	Permissions int `json:"permissions"`
	Roles       int `json:"roles"`
}

// SearchResults bundles the hits for both entity kinds of one query.
type SearchResults struct {
	Permissions []PermissionResult `json:"permissions"`
	Roles       []RoleResult       `json:"roles"`
}

// SearchEngine is the primary interface for querying the IAM index.
//
// Implementations of SearchEngine are safe for concurrent use by multiple
// goroutines.
type SearchEngine interface {
	// Search runs one query against both entity tables and returns the
	// assembled results.  Scores and ordering follow the engine's matching
	// contract; each kind is independently capped.
	Search(ctx context.Context, query string, mode Mode, searchOptions ...options.SearchOptionsFunc) (*SearchResults, error)

	// Stats returns the indexed permission and role counts.
	Stats() Stats

	// PermissionsForService returns the names of all permissions owned by
	// a service, in index order.
	PermissionsForService(service string) []string

	// ResolvePermission returns the full record for an exact permission
	// name, with all granting roles resolved.  The record is a deep copy.
	ResolvePermission(name string) (*PermissionDetail, bool)

	// ResolveRole returns the full record for an exact role name.  The
	// record is a deep copy.
	ResolveRole(name string) (*Role, bool)

	// EntityNames returns the complete permission and role name lists.
	EntityNames() (permissions, roles []string)

	// Close releases the query log stream.  The engine must not be used
	// after Close.
	Close()
}

// SearchEngineImpl is the default implementation of the [SearchEngine]
// interface.  A single mutex serializes all table access, covering both the
// load phase and queries; the compiled realization shares this type with an
// already-frozen instance.
//
// Use [NewSearchEngine], [NewLocalSearchEngine], or
// [NewCompiledSearchEngine] to create a properly initialized instance.
type SearchEngineImpl struct {
	mu        sync.Mutex
	instance  *engine.Engine
	stream    querylog.Stream
	threshold float64
	limit     int
	metadata  map[string]string
}

// NewSearchEngine creates an empty, mutable [SearchEngine] in the load
// phase.  Callers index catalogs via [SearchEngineImpl.IndexCatalog] (or
// the granular IndexRole/IndexPermission) and then call
// [SearchEngineImpl.Finalize].
//
// By default, the engine logs queries to stdout.  Use functional options to
// configure a production query log or override the fuzzy threshold:
//
//	se, err := engine.NewSearchEngine(
//	    options.WithQueryLog(kafka.NewFactory()),
//	    options.WithThreshold(0.3),
//	)
//
// NewSearchEngine loads configuration from environment variables and config
// files before initializing the engine.  See the [config] package for
// details.
func NewSearchEngine(engineOptions ...options.EngineOptionsFunc) (*SearchEngineImpl, error) {
	return newEngine(engine.New(), engineOptions)
}

// NewLocalSearchEngine creates and initializes a [SearchEngine] from local
// catalog files.
//
// Each catalogPath should be a JSON or YAML catalog file.  Catalogs are
// loaded in the order provided; role name collisions resolve to the last
// record loaded.  The returned engine is finalized and ready for queries.
func NewLocalSearchEngine(catalogPaths []string, engineOptions ...options.EngineOptionsFunc) (SearchEngine, error) {
	se, err := NewSearchEngine(engineOptions...)
	if err != nil {
		return nil, err
	}

	for _, path := range catalogPaths {
		c, err := parsers.Load(path)
		if err != nil {
			se.Close()
			return nil, errors.Wrapf(err, "loading catalog %s", path)
		}
		se.IndexCatalog(c)
	}

	se.Finalize()
	return se, nil
}

// NewCompiledSearchEngine creates a read-only [SearchEngine] from a
// compiled artifact blob (see the [index] package).  The engine is frozen
// on construction; indexing operations are not available.
func NewCompiledSearchEngine(blob []byte, engineOptions ...options.EngineOptionsFunc) (SearchEngine, error) {
	tables, err := index.Decode(blob)
	if err != nil {
		return nil, err
	}
	return newEngine(engine.FromTables(tables), engineOptions)
}

func newEngine(instance *engine.Engine, engineOptions []options.EngineOptionsFunc) (*SearchEngineImpl, error) {
	if err := config.Load(); err != nil {
		return nil, errors.Wrap(err, "error loading config")
	}

	opts := &options.EngineOptions{
		QueryLogFactory: querylog.NewStdoutFactory(),
	}
	for _, o := range engineOptions {
		o(opts)
	}

	threshold := config.VConfig.GetFloat64(config.SearchThreshold)
	if opts.Threshold != nil {
		threshold = *opts.Threshold
	}

	stream, err := opts.QueryLogFactory.NewStream()
	if err != nil {
		return nil, errors.Wrap(err, "error creating query log stream")
	}

	return &SearchEngineImpl{
		instance:  instance,
		stream:    stream,
		threshold: threshold,
		limit:     config.VConfig.GetInt(config.SearchLimit),
		metadata:  config.GetAuditEnv(),
	}, nil
}

// IndexCatalog indexes every role and standalone permission of a catalog.
// Ignored once the engine is finalized.
func (se *SearchEngineImpl) IndexCatalog(c *catalog.Catalog) {
	se.mu.Lock()
	defer se.mu.Unlock()

	for _, r := range c.Roles {
		se.instance.IndexRole(engine.Role{
			Name:                r.Name,
			Title:               r.Title,
			Description:         r.Description,
			Stage:               r.Stage,
			IncludedPermissions: r.IncludedPermissions,
		})
	}
	for _, p := range c.Permissions {
		se.instance.IndexPermission(p.Name, p.Service)
	}
}

// IndexRole inserts or overwrites a single role record.  Ignored once the
// engine is finalized.
func (se *SearchEngineImpl) IndexRole(r Role) {
	se.mu.Lock()
	defer se.mu.Unlock()
	se.instance.IndexRole(r)
}

// IndexPermission inserts a single standalone permission.  Ignored once the
// engine is finalized.
func (se *SearchEngineImpl) IndexPermission(name, service string) {
	se.mu.Lock()
	defer se.mu.Unlock()
	se.instance.IndexPermission(name, service)
}

// Finalize resolves cross-references and freezes the tables.  Queries
// issued before Finalize are served from the tables as loaded so far, with
// empty granted-by lists.
func (se *SearchEngineImpl) Finalize() {
	se.mu.Lock()
	defer se.mu.Unlock()
	se.instance.Finalize()
}

// Search runs one query against both entity tables.
//
// The query is matched as-is; callers are responsible for any trimming or
// length policy.  Unless silent mode is requested, a query log record
// capturing the query, mode, hit counts, and service time is emitted:
//
//	results, err := se.Search(ctx, query, mode, options.SetSilent(true))
func (se *SearchEngineImpl) Search(ctx context.Context, query string, mode Mode, searchOptions ...options.SearchOptionsFunc) (*SearchResults, error) {
	logger.Debug(agent, "Search", "Enter")
	defer logger.Debug(agent, "Search", "Exit")

	opts := &options.SearchOptions{}
	for _, o := range searchOptions {
		o(opts)
	}

	start := time.Now()

	se.mu.Lock()
	permissions := se.instance.AssemblePermissions(
		se.instance.Search(engine.KindPermission, query, mode, se.threshold, se.limit))
	roles := se.instance.AssembleRoles(
		se.instance.Search(engine.KindRole, query, mode, se.threshold, se.limit))
	se.mu.Unlock()

	results := &SearchResults{Permissions: permissions, Roles: roles}

	if !opts.Silent {
		record := querylog.NewRecord()
		record.Query = query
		record.Mode = string(mode)
		record.Threshold = se.threshold
		record.PermissionHits = len(permissions)
		record.RoleHits = len(roles)
		record.DurationMicros = time.Since(start).Microseconds()
		record.Metadata = se.metadata
		if err := se.stream.Send(record); err != nil {
			logger.Warnf(agent, "Search", "failed to emit query record: %+v", err)
		}
	}

	return results, nil
}

// Stats returns the indexed permission and role counts.
func (se *SearchEngineImpl) Stats() Stats {
	se.mu.Lock()
	defer se.mu.Unlock()
	permissions, roles := se.instance.Stats()
	return Stats{Permissions: permissions, Roles: roles}
}

// PermissionsForService returns the names of all permissions owned by a
// service, in index order.
func (se *SearchEngineImpl) PermissionsForService(service string) []string {
	se.mu.Lock()
	defer se.mu.Unlock()
	return se.instance.PermissionsForService(service)
}

// ResolvePermission returns the full record for an exact permission name.
func (se *SearchEngineImpl) ResolvePermission(name string) (*PermissionDetail, bool) {
	se.mu.Lock()
	defer se.mu.Unlock()
	return se.instance.ResolvePermission(name)
}

// ResolveRole returns the full record for an exact role name.
func (se *SearchEngineImpl) ResolveRole(name string) (*Role, bool) {
	se.mu.Lock()
	defer se.mu.Unlock()
	return se.instance.ResolveRole(name)
}

// EntityNames returns the complete permission and role name lists.
func (se *SearchEngineImpl) EntityNames() (permissions, roles []string) {
	se.mu.Lock()
	defer se.mu.Unlock()
	return se.instance.EntityNames()
}

// Close releases the query log stream.
func (se *SearchEngineImpl) Close() {
	se.stream.Close()
}
