//
//  Copyright © Manetu Inc. All rights reserved.
//

// Package api implements the JSON API handlers.
package api

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/manetu/iamsearch/pkg/engine"
)

// maxQueryLength bounds the accepted query text.
const maxQueryLength = 100

// Server implements the JSON API endpoints.
type Server struct {
	se      engine.SearchEngine
	version string
}

// NewServer creates a new API server instance with the given SearchEngine.
func NewServer(se engine.SearchEngine, version string) Server {
	return Server{
		se:      se,
		version: version,
	}
}

func fail(c echo.Context, status int, msg string) error {
	return c.JSON(status, map[string]interface{}{
		"success": false,
		"error":   msg,
	})
}

// Health reports liveness.
func (s Server) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":  "healthy",
		"version": s.version,
	})
}

// Search serves GET /api/v1/search?q=&mode=.
//
// The query is trimmed and must be non-empty and at most 100 characters;
// violations return 400.  An omitted mode defaults to prefix, and an
// unrecognized mode falls back to fuzzy matching.
func (s Server) Search(c echo.Context) error {
	q := strings.TrimSpace(c.QueryParam("q"))
	if q == "" {
		return fail(c, http.StatusBadRequest, "query parameter 'q' is required")
	}
	if len(q) > maxQueryLength {
		return fail(c, http.StatusBadRequest, "query exceeds maximum length")
	}

	mode := engine.ParseMode(c.QueryParam("mode"))

	results, err := s.se.Search(c.Request().Context(), q, mode)
	if err != nil {
		return fail(c, http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"success": true,
		"data": map[string]interface{}{
			"query":       q,
			"mode":        string(mode),
			"permissions": results.Permissions,
			"roles":       results.Roles,
		},
	})
}

// Stats serves GET /api/v1/stats.
func (s Server) Stats(c echo.Context) error {
	stats := s.se.Stats()
	return c.JSON(http.StatusOK, map[string]interface{}{
		"success": true,
		"data": map[string]interface{}{
			"total_permissions": stats.Permissions,
			"total_roles":       stats.Roles,
			"indexed":           stats.Permissions > 0 || stats.Roles > 0,
			"version":           s.version,
		},
	})
}

// Service serves GET /api/v1/services/:service, listing the permission
// names owned by one service.
func (s Server) Service(c echo.Context) error {
	service := c.Param("service")
	permissions := s.se.PermissionsForService(service)
	if len(permissions) == 0 {
		return fail(c, http.StatusNotFound, "unknown service")
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"success": true,
		"data": map[string]interface{}{
			"service":     service,
			"count":       len(permissions),
			"permissions": permissions,
		},
	})
}
