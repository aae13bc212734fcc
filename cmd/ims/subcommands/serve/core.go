//
//  Copyright © Manetu Inc. All rights reserved.
//

package serve

import (
	"context"
	"os"
	"os/signal"

	"github.com/urfave/cli/v3"

	"github.com/manetu/iamsearch/cmd/ims/common"
	"github.com/manetu/iamsearch/cmd/ims/version"
	"github.com/manetu/iamsearch/internal/logging"
	"github.com/manetu/iamsearch/pkg/engine/querylog"
	"github.com/manetu/iamsearch/pkg/server"
)

var logger = logging.GetLogger("iamsearch")

const agent string = "serve"

// Execute runs the serve command, starting the HTTP search service.
// The server shuts down gracefully on interrupt signals.
func Execute(ctx context.Context, cmd *cli.Command) error {
	port := int(cmd.Int("port"))

	se, err := common.NewCliSearchEngine(cmd, querylog.NewStdoutFactory())
	if err != nil {
		return err
	}
	defer se.Close()

	stats := se.Stats()
	logger.Infof(agent, "startup", "index ready: %d permissions, %d roles", stats.Permissions, stats.Roles)

	srv, err := server.CreateServer(se, port, version.GetVersion())
	if err != nil {
		return err
	}

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt)
	<-quit
	logger.Info(agent, "shutdown", "Shutting down server...")

	err = srv.Stop(ctx)
	if err != nil {
		return err
	}

	logger.Info(agent, "shutdown", "Server exited gracefully.")
	return nil
}
