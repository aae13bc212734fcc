//
//  Copyright © Manetu Inc. All rights reserved.
//

package main

import (
	"context"
	"log"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/manetu/iamsearch/cmd/ims/subcommands/compile"
	"github.com/manetu/iamsearch/cmd/ims/subcommands/fetch"
	"github.com/manetu/iamsearch/cmd/ims/subcommands/query"
	"github.com/manetu/iamsearch/cmd/ims/subcommands/serve"
	"github.com/manetu/iamsearch/cmd/ims/version"
	"github.com/manetu/iamsearch/internal/logging"
)

var logger = logging.GetLogger("ims")

// sourceFlags select where a command loads its index from: a compiled
// artifact or raw catalog files.
func sourceFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringSliceFlag{
			Name:    "catalog",
			Aliases: []string{"c"},
			Usage:   "Load catalog dataset from `FILE` (.json, .yaml).  Can be specified multiple times.",
		},
		&cli.StringFlag{
			Name:    "index",
			Aliases: []string{"i"},
			Usage:   "Load a precompiled index artifact from `FILE` instead of catalogs",
		},
	}
}

func main() {
	cmd := &cli.Command{
		Name:    "ims",
		Usage:   "A CLI application for indexing and searching IAM roles and permissions",
		Version: version.GetVersion(),
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "trace",
				Aliases: []string{"t"},
				Usage:   "Enable debug logging output",
				Value:   logger.IsTraceEnabled(),
				Action: func(ctx context.Context, command *cli.Command, enabled bool) error {
					if enabled {
						return logging.UpdateLogLevels(".:debug")
					}
					return nil
				},
			},
		},
		Commands: []*cli.Command{
			{
				Name:  "fetch",
				Usage: "Fetches the IAM role corpus from the upstream API and writes a catalog dataset",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output directory for the dataset files",
						Value:   ".",
					},
					&cli.StringFlag{
						Name:  "endpoint",
						Usage: "Override the upstream roles API endpoint",
					},
					&cli.StringFlag{
						Name:  "token",
						Usage: "Bearer token for the upstream API (default: GCP_ACCESS_TOKEN environment variable)",
					},
					&cli.IntFlag{
						Name:  "pagesize",
						Usage: "Override the upstream page size",
					},
				},
				Action: fetch.Execute,
			},
			{
				Name:  "compile",
				Usage: "Compiles catalog files into a precompiled index artifact",
				Flags: []cli.Flag{
					&cli.StringSliceFlag{
						Name:     "catalog",
						Aliases:  []string{"c"},
						Usage:    "Catalog dataset `FILE` to compile (.json, .yaml).  Can be specified multiple times.",
						Required: true,
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output artifact path",
						Value:   "iam-index.bin",
					},
				},
				Action: compile.Execute,
			},
			{
				Name:  "serve",
				Usage: "Creates a search service over a catalog or precompiled index",
				Flags: append(sourceFlags(),
					&cli.IntFlag{
						Name:  "port",
						Usage: "The TCP port to serve on.",
						Value: 9000,
					},
					&cli.FloatFlag{
						Name:  "threshold",
						Usage: "Override the fuzzy-match similarity threshold",
					}),
				Action: serve.Execute,
			},
			{
				Name:      "query",
				Usage:     "Runs a single search against a catalog or precompiled index and prints the results",
				ArgsUsage: "QUERY",
				Flags: append(sourceFlags(),
					&cli.StringFlag{
						Name:    "mode",
						Aliases: []string{"m"},
						Usage:   "Matching mode: exact, prefix, or fuzzy",
						Value:   "prefix",
					},
					&cli.StringFlag{
						Name:    "kind",
						Aliases: []string{"k"},
						Usage:   "Restrict output to one entity kind: permission, role, or all",
						Value:   "all",
					},
					&cli.FloatFlag{
						Name:  "threshold",
						Usage: "Override the fuzzy-match similarity threshold",
					}),
				Action: query.Execute,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}
