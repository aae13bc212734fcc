//
//  Copyright © Manetu Inc. All rights reserved.
//
// shared between pkg/engine and internal/engine consumers, and thus must be in a separate package to avoid circular dependencies

package options

import (
	"github.com/manetu/iamsearch/pkg/engine/querylog"
)

// EngineOptions defines the configuration options for initializing a search
// engine, including the query log factory and the fuzzy-match threshold.
type EngineOptions struct {
	QueryLogFactory querylog.Factory

	// Threshold overrides the configured fuzzy similarity threshold when
	// non-nil.
	Threshold *float64
}

// EngineOptionsFunc is a function that modifies EngineOptions.
type EngineOptionsFunc func(*EngineOptions)

// WithQueryLog configures the query log stream for the engine.
func WithQueryLog(factory querylog.Factory) EngineOptionsFunc {
	return func(o *EngineOptions) {
		o.QueryLogFactory = factory
	}
}

// WithThreshold overrides the fuzzy similarity threshold for the engine,
// taking precedence over the search.threshold configuration key.
func WithThreshold(threshold float64) EngineOptionsFunc {
	return func(o *EngineOptions) {
		o.Threshold = &threshold
	}
}

// SearchOptions represents configuration options for Search operations.
type SearchOptions struct {
	Silent bool
}

// SearchOptionsFunc is a function that modifies SearchOptions.
type SearchOptionsFunc func(*SearchOptions)

// SetSilent configures silent mode for Search operations.  Silent searches
// are served normally but emit no query log record, which is helpful for
// internal probes (warm-up queries, health checks, interactive CLI use)
// that should not distort the audit trail or usage statistics.
//
// Silent mode is disabled by default.
func SetSilent(silent bool) SearchOptionsFunc {
	return func(o *SearchOptions) {
		o.Silent = silent
	}
}
