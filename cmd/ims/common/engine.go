package common

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/manetu/iamsearch/pkg/engine"
	"github.com/manetu/iamsearch/pkg/engine/options"
	"github.com/manetu/iamsearch/pkg/engine/querylog"
)

// NewCliSearchEngine creates a SearchEngine instance configured from CLI
// command flags.  The engine is loaded from either a compiled index
// artifact (--index) or one or more catalog files (--catalog); exactly one
// source must be given.
func NewCliSearchEngine(cmd *cli.Command, logFactory querylog.Factory) (engine.SearchEngine, error) {
	indexPath := cmd.String("index")
	catalogs := cmd.StringSlice("catalog")

	switch {
	case indexPath == "" && len(catalogs) == 0:
		return nil, fmt.Errorf("either --index or --catalog must be specified")
	case indexPath != "" && len(catalogs) > 0:
		return nil, fmt.Errorf("--index and --catalog are mutually exclusive")
	}

	opts := []options.EngineOptionsFunc{options.WithQueryLog(logFactory)}
	if cmd.IsSet("threshold") {
		opts = append(opts, options.WithThreshold(cmd.Float("threshold")))
	}

	if indexPath != "" {
		blob, err := os.ReadFile(indexPath) // #nosec G304 -- CLI tool intentionally reads user-provided paths
		if err != nil {
			return nil, err
		}
		return engine.NewCompiledSearchEngine(blob, opts...)
	}

	return engine.NewLocalSearchEngine(catalogs, opts...)
}
