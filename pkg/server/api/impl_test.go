//
//  Copyright © Manetu Inc. All rights reserved.
//

package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/manetu/iamsearch/pkg/catalog"
	"github.com/manetu/iamsearch/pkg/engine"
	"github.com/manetu/iamsearch/pkg/engine/options"
	"github.com/manetu/iamsearch/pkg/engine/querylog"
)

func newTestServer(t *testing.T) Server {
	t.Helper()
	se, err := engine.NewSearchEngine(options.WithQueryLog(querylog.NewNullFactory()))
	require.NoError(t, err)
	t.Cleanup(se.Close)

	se.IndexCatalog(&catalog.Catalog{
		Roles: []catalog.Role{
			{
				Name:  "roles/compute.admin",
				Title: "Compute Admin",
				Stage: "GA",
				IncludedPermissions: []string{
					"compute.instances.start",
					"compute.instances.stop",
				},
			},
		},
		Permissions: []catalog.Permission{
			{Name: "iam.roles.get", Service: "iam"},
		},
	})
	se.Finalize()

	return NewServer(se, "test-version")
}

func perform(t *testing.T, handler echo.HandlerFunc, target string, params map[string]string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	for k, v := range params {
		c.SetParamNames(k)
		c.SetParamValues(v)
	}

	require.NoError(t, handler(c))

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return rec, body
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)

	rec, body := perform(t, s.Health, "/api/v1/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "test-version", body["version"])
}

func TestSearch(t *testing.T) {
	s := newTestServer(t)

	rec, body := perform(t, s.Search, "/api/v1/search?q=compute.instances.&mode=prefix", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, body["success"])

	data := body["data"].(map[string]interface{})
	assert.Equal(t, "compute.instances.", data["query"])
	assert.Equal(t, "prefix", data["mode"])
	assert.Len(t, data["permissions"], 2)
}

func TestSearchDefaultsToPrefix(t *testing.T) {
	s := newTestServer(t)

	_, body := perform(t, s.Search, "/api/v1/search?q=compute", nil)
	data := body["data"].(map[string]interface{})
	assert.Equal(t, "prefix", data["mode"])
}

func TestSearchTrimsQuery(t *testing.T) {
	s := newTestServer(t)

	_, body := perform(t, s.Search, "/api/v1/search?q=%20compute%20", nil)
	data := body["data"].(map[string]interface{})
	assert.Equal(t, "compute", data["query"])
}

func TestSearchRejectsEmptyQuery(t *testing.T) {
	s := newTestServer(t)

	rec, body := perform(t, s.Search, "/api/v1/search", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, false, body["success"])

	rec, _ = perform(t, s.Search, "/api/v1/search?q=%20%20", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSearchRejectsOverlongQuery(t *testing.T) {
	s := newTestServer(t)

	q := strings.Repeat("a", maxQueryLength+1)
	rec, _ := perform(t, s.Search, "/api/v1/search?q="+q, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Exactly at the limit is accepted.
	rec, _ = perform(t, s.Search, "/api/v1/search?q="+q[:maxQueryLength], nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestStats(t *testing.T) {
	s := newTestServer(t)

	rec, body := perform(t, s.Stats, "/api/v1/stats", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	data := body["data"].(map[string]interface{})
	assert.Equal(t, float64(3), data["total_permissions"])
	assert.Equal(t, float64(1), data["total_roles"])
	assert.Equal(t, true, data["indexed"])
}

func TestService(t *testing.T) {
	s := newTestServer(t)

	rec, body := perform(t, s.Service, "/api/v1/services/compute", map[string]string{"service": "compute"})
	assert.Equal(t, http.StatusOK, rec.Code)

	data := body["data"].(map[string]interface{})
	assert.Equal(t, float64(2), data["count"])

	rec, _ = perform(t, s.Service, "/api/v1/services/nosuch", map[string]string{"service": "nosuch"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
