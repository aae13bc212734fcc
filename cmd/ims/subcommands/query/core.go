//
//  Copyright © Manetu Inc. All rights reserved.
//

package query

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	clicommon "github.com/manetu/iamsearch/cmd/ims/common"
	"github.com/manetu/iamsearch/pkg/common"
	"github.com/manetu/iamsearch/pkg/engine"
	"github.com/manetu/iamsearch/pkg/engine/options"
	"github.com/manetu/iamsearch/pkg/engine/querylog"
)

// Execute runs the query command: load an index, run one search, and print
// the results as JSON.
func Execute(ctx context.Context, cmd *cli.Command) error {
	q := cmd.Args().First()
	if q == "" {
		return fmt.Errorf("a query argument is required")
	}

	se, err := clicommon.NewCliSearchEngine(cmd, querylog.NewNullFactory())
	if err != nil {
		return err
	}
	defer se.Close()

	mode := engine.ParseMode(cmd.String("mode"))

	// Interactive invocations are not audit-worthy traffic.
	results, err := se.Search(ctx, q, mode, options.SetSilent(true))
	if err != nil {
		return err
	}

	switch cmd.String("kind") {
	case "permission":
		common.PrettyPrint(results.Permissions)
	case "role":
		common.PrettyPrint(results.Roles)
	default:
		common.PrettyPrint(results)
	}

	return nil
}
