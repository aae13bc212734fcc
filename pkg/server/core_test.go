//
//  Copyright © Manetu Inc. All rights reserved.
//

package server

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/manetu/iamsearch/pkg/catalog"
	"github.com/manetu/iamsearch/pkg/engine"
	"github.com/manetu/iamsearch/pkg/engine/config"
	"github.com/manetu/iamsearch/pkg/engine/options"
	"github.com/manetu/iamsearch/pkg/engine/querylog"
)

func newTestEngine(t *testing.T) engine.SearchEngine {
	t.Helper()
	se, err := engine.NewSearchEngine(options.WithQueryLog(querylog.NewNullFactory()))
	require.NoError(t, err)
	t.Cleanup(se.Close)

	se.IndexCatalog(&catalog.Catalog{
		Roles: []catalog.Role{
			{
				Name:  "roles/storage.objectViewer",
				Title: "Storage Object Viewer",
				Stage: "BETA",
				IncludedPermissions: []string{
					"storage.objects.get",
					"storage.objects.list",
				},
			},
		},
	})
	se.Finalize()
	return se
}

func TestHostFilter(t *testing.T) {
	e := echo.New()
	e.Use(hostFilter([]string{"gcpiam.com"}))
	e.GET("/", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Host = "gcpiam.com"
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	// Host port is stripped before matching.
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Host = "gcpiam.com:8080"
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Host = "evil.example.com"
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestHostFilterDisabledWhenEmpty(t *testing.T) {
	e := echo.New()
	e.Use(hostFilter(nil))
	e.GET("/", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Host = "anything.example.com"
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRejectedRequestsAreObserved(t *testing.T) {
	e := newRouter(newTestEngine(t), "test")

	counter := requestsTotal.WithLabelValues("/api/v1/health", http.MethodGet, "403")
	before := testutil.ToFloat64(counter)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	req.Host = "evil.example.com"
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	// Metrics run outside the host filter, so the rejection is counted.
	assert.Equal(t, before+1, testutil.ToFloat64(counter))
}

func pageRequest(t *testing.T, p *pages, handler echo.HandlerFunc, path, wildcard string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("*")
	c.SetParamValues(wildcard)
	require.NoError(t, handler(c))
	return rec
}

func TestPermissionPage(t *testing.T) {
	p := newPages(newTestEngine(t))

	rec := pageRequest(t, p, p.permission, "/permissions/storage.objects.get", "storage.objects.get")
	assert.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.Contains(t, body, "storage.objects.get")
	assert.Contains(t, body, `href="/roles/storage.objectViewer"`)
	assert.Contains(t, body, "#FF9800") // BETA badge
}

func TestRolePage(t *testing.T) {
	p := newPages(newTestEngine(t))

	rec := pageRequest(t, p, p.role, "/roles/storage.objectViewer", "storage.objectViewer")
	assert.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.Contains(t, body, "roles/storage.objectViewer")
	assert.Contains(t, body, "storage.objects.list")
	assert.Contains(t, body, "2 permission(s)")
}

func TestPageNotFound(t *testing.T) {
	p := newPages(newTestEngine(t))

	rec := pageRequest(t, p, p.permission, "/permissions/nosuch.permission", "nosuch.permission")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "nosuch.permission")

	rec = pageRequest(t, p, p.role, "/roles/nosuch", "nosuch")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSitemap(t *testing.T) {
	p := newPages(newTestEngine(t))

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/sitemap.xml", nil)
	rec := httptest.NewRecorder()
	require.NoError(t, p.sitemap(e.NewContext(req, rec)))

	assert.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "<urlset")
	assert.Contains(t, body, "/permissions/storage.objects.get")
	assert.Contains(t, body, "/roles/storage.objectViewer")
}

func TestSitemapBaseURL(t *testing.T) {
	t.Setenv("IMS_SERVER_BASEURL", "https://gcpiam.example.com/")
	p := newPages(newTestEngine(t))

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/sitemap.xml", nil)
	rec := httptest.NewRecorder()
	require.NoError(t, p.sitemap(e.NewContext(req, rec)))

	// The configured base URL wins over the host allow-list, with any
	// trailing slash trimmed.
	body := rec.Body.String()
	assert.Contains(t, body, "https://gcpiam.example.com/permissions/storage.objects.get")
	assert.NotContains(t, body, "https://localhost")
	assert.Equal(t, "https://gcpiam.example.com/", config.VConfig.GetString(config.ServerBaseURL))
}

func TestStageColor(t *testing.T) {
	assert.Equal(t, "#4CAF50", stageColor("GA"))
	assert.Equal(t, "#FF9800", stageColor("BETA"))
	assert.Equal(t, "#2196F3", stageColor("ALPHA"))
	assert.Equal(t, "#9E9E9E", stageColor("DEPRECATED"))
}
