//
//  Copyright © Manetu Inc. All rights reserved.
//

package fetch

import (
	"context"
	"fmt"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/manetu/iamsearch/internal/logging"
	"github.com/manetu/iamsearch/pkg/collector"
)

var logger = logging.GetLogger("iamsearch")

const agent string = "fetch"

// Execute runs the fetch command: pull the complete role corpus from the
// upstream IAM API, transform it into a catalog dataset, and persist it to
// the output directory.
func Execute(ctx context.Context, cmd *cli.Command) error {
	client, err := collector.NewClient(
		collector.WithEndpoint(cmd.String("endpoint")),
		collector.WithToken(cmd.String("token")),
		collector.WithPageSize(int(cmd.Int("pagesize"))),
	)
	if err != nil {
		return err
	}

	storage, err := collector.NewStorage(cmd.String("output"))
	if err != nil {
		return err
	}

	previous, err := storage.LoadPrevious()
	if err != nil {
		return err
	}

	roles, err := client.FetchAll(ctx)
	if err != nil {
		return err
	}

	c := collector.Transform(roles, time.Now())
	if err := storage.Save(c); err != nil {
		return err
	}

	fmt.Printf("✓ fetched %d roles / %d permissions\n", c.Metadata.TotalRoles, c.Metadata.TotalPermissions)
	if previous != nil {
		fmt.Printf("  previous dataset: %d roles (%s)\n", previous.Metadata.TotalRoles, previous.Metadata.LastUpdated)
		logger.Infof(agent, "Execute", "role delta since last fetch: %+d", c.Metadata.TotalRoles-previous.Metadata.TotalRoles)
	}

	return nil
}
