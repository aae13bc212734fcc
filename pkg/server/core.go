//
//  Copyright © Manetu Inc. All rights reserved.
//

// Package server exposes the search engine over HTTP: the JSON API, the
// server-rendered entity detail pages, the sitemap, and Prometheus metrics.
package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/manetu/iamsearch/internal/logging"
	"github.com/manetu/iamsearch/pkg/engine"
	"github.com/manetu/iamsearch/pkg/engine/config"
	"github.com/manetu/iamsearch/pkg/server/api"
)

var logger = logging.GetLogger("iamsearch.server")
var agent = "server"

// Server is a running HTTP frontend.
type Server interface {
	// Stop gracefully shuts down the server, draining in-flight requests.
	Stop(ctx context.Context) error
}

type serverImpl struct {
	echo *echo.Echo
}

// CreateServer creates and starts a new HTTP server for the given engine.
// It sets up the JSON API, detail pages, sitemap, and metrics endpoints,
// and begins listening on the given port.  The version string is reported
// by the health and stats endpoints.
func CreateServer(se engine.SearchEngine, port int, version string) (Server, error) {
	e := newRouter(se, version)

	// Start server in goroutine since e.Start() blocks
	go func() {
		if err := e.Start(fmt.Sprintf(":%d", port)); err != nil && err != http.ErrServerClosed {
			e.Logger.Fatal(err)
		}
	}()

	logger.Infof(agent, "CreateServer", "listening on :%d", port)

	return &serverImpl{
		echo: e,
	}, nil
}

// Stop gracefully stops the Server by shutting down the Echo HTTP server.
func (s *serverImpl) Stop(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

// newRouter wires the middleware chain and routes.  Metrics run outermost so
// requests rejected by the host filter still show up in the counters.
func newRouter(se engine.SearchEngine, version string) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(observeRequests)
	e.Use(hostFilter(config.Hosts()))
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{config.VConfig.GetString(config.ServerOrigin)},
		AllowMethods: []string{http.MethodGet, http.MethodOptions},
	}))

	apiServer := api.NewServer(se, version)
	e.GET("/api/v1/health", apiServer.Health)
	e.GET("/api/v1/search", apiServer.Search)
	e.GET("/api/v1/stats", apiServer.Stats)
	e.GET("/api/v1/services/:service", apiServer.Service)

	pages := newPages(se)
	e.GET("/permissions/*", pages.permission)
	e.GET("/roles/*", pages.role)
	e.GET("/sitemap.xml", pages.sitemap)

	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	return e
}

// hostFilter rejects requests whose Host header is not on the allow-list.
// An empty allow-list disables the check.
func hostFilter(allowed []string) echo.MiddlewareFunc {
	set := make(map[string]struct{}, len(allowed))
	for _, h := range allowed {
		set[strings.ToLower(h)] = struct{}{}
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if len(set) == 0 {
				return next(c)
			}

			host := c.Request().Host
			if h, _, err := net.SplitHostPort(host); err == nil {
				host = h
			}
			if _, ok := set[strings.ToLower(host)]; !ok {
				return c.JSON(http.StatusForbidden, map[string]interface{}{
					"success": false,
					"error":   "forbidden host",
				})
			}
			return next(c)
		}
	}
}
