//
//  Copyright © Manetu Inc. All rights reserved.
//

package server

import (
	"bytes"
	"encoding/xml"
	"html/template"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/manetu/iamsearch/pkg/engine"
	"github.com/manetu/iamsearch/pkg/engine/config"
)

// stageColor maps a launch stage to its badge color.
func stageColor(stage string) string {
	switch stage {
	case "GA":
		return "#4CAF50"
	case "BETA":
		return "#FF9800"
	case "ALPHA":
		return "#2196F3"
	default:
		return "#9E9E9E"
	}
}

const pageShell = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.Title}}</title>
<style>
body { font-family: -apple-system, sans-serif; margin: 0 auto; max-width: 800px; padding: 2rem 1rem; color: #202124; }
h1 { font-size: 1.4rem; word-break: break-all; }
.badge { display: inline-block; color: #fff; border-radius: 4px; padding: 2px 8px; font-size: .8rem; }
ul { padding-left: 1.2rem; }
li { margin: .2rem 0; word-break: break-all; }
.muted { color: #5f6368; }
a { color: #1a73e8; text-decoration: none; }
</style>
</head>
<body>
{{block "content" .}}{{end}}
</body>
</html>`

const permissionContent = `{{define "content"}}
<h1>{{.Detail.Name}}</h1>
<p class="muted">Service: {{.Detail.Service}} &middot; Resource: {{.Detail.Resource}} &middot; Action: {{.Detail.Action}}</p>
<h2>Granted by {{len .Detail.GrantedByRoles}} role(s)</h2>
<ul>
{{range .Detail.GrantedByRoles}}
<li><a href="/{{.Name}}">{{.Name}}</a> &mdash; {{.Title}} <span class="badge" style="background:{{stageColor .Stage}}">{{.Stage}}</span></li>
{{else}}
<li class="muted">No roles grant this permission.</li>
{{end}}
</ul>
{{end}}`

const roleContent = `{{define "content"}}
<h1>{{.Role.Name}}</h1>
<p>{{.Role.Title}} <span class="badge" style="background:{{stageColor .Role.Stage}}">{{.Role.Stage}}</span></p>
<p class="muted">{{.Role.Description}}</p>
<h2>{{len .Role.IncludedPermissions}} permission(s)</h2>
<ul>
{{range .Role.IncludedPermissions}}
<li><a href="/permissions/{{.}}">{{.}}</a></li>
{{end}}
</ul>
{{end}}`

const notFoundContent = `{{define "content"}}
<h1>Not Found</h1>
<p class="muted">No indexed entity matches <code>{{.Name}}</code>.</p>
{{end}}`

type pages struct {
	se           engine.SearchEngine
	permissionTp *template.Template
	roleTp       *template.Template
	notFoundTp   *template.Template
}

func newPages(se engine.SearchEngine) *pages {
	funcs := template.FuncMap{"stageColor": stageColor}
	parse := func(content string) *template.Template {
		return template.Must(template.Must(
			template.New("page").Funcs(funcs).Parse(pageShell)).Parse(content))
	}
	return &pages{
		se:           se,
		permissionTp: parse(permissionContent),
		roleTp:       parse(roleContent),
		notFoundTp:   parse(notFoundContent),
	}
}

func (p *pages) render(c echo.Context, status int, tp *template.Template, data interface{}) error {
	var buf bytes.Buffer
	if err := tp.Execute(&buf, data); err != nil {
		return err
	}
	return c.HTMLBlob(status, buf.Bytes())
}

func (p *pages) notFound(c echo.Context, name string) error {
	return p.render(c, http.StatusNotFound, p.notFoundTp, map[string]interface{}{
		"Title": "Not Found",
		"Name":  name,
	})
}

// permission serves GET /permissions/<name>.
func (p *pages) permission(c echo.Context) error {
	name := c.Param("*")
	detail, ok := p.se.ResolvePermission(name)
	if !ok {
		return p.notFound(c, name)
	}
	return p.render(c, http.StatusOK, p.permissionTp, map[string]interface{}{
		"Title":  detail.Name,
		"Detail": detail,
	})
}

// role serves GET /roles/<name>.  Indexed role names carry the "roles/"
// prefix, so the URL path maps directly onto the name.
func (p *pages) role(c echo.Context) error {
	name := "roles/" + c.Param("*")
	r, ok := p.se.ResolveRole(name)
	if !ok {
		return p.notFound(c, name)
	}
	return p.render(c, http.StatusOK, p.roleTp, map[string]interface{}{
		"Title": r.Name,
		"Role":  r,
	})
}

type sitemapURL struct {
	Loc string `xml:"loc"`
}

type sitemapDoc struct {
	XMLName xml.Name     `xml:"urlset"`
	Xmlns   string       `xml:"xmlns,attr"`
	URLs    []sitemapURL `xml:"url"`
}

// sitemap serves GET /sitemap.xml, enumerating every indexed entity page.
// The base URL comes from server.baseurl, falling back to the first entry of
// the host allow-list.
func (p *pages) sitemap(c echo.Context) error {
	base := strings.TrimRight(config.VConfig.GetString(config.ServerBaseURL), "/")
	if base == "" {
		base = "https://localhost"
		if hosts := config.Hosts(); len(hosts) > 0 {
			base = "https://" + hosts[0]
		}
	}

	permissions, roles := p.se.EntityNames()
	doc := sitemapDoc{
		Xmlns: "http://www.sitemaps.org/schemas/sitemap/0.9",
		URLs:  make([]sitemapURL, 0, len(permissions)+len(roles)+1),
	}
	doc.URLs = append(doc.URLs, sitemapURL{Loc: base + "/"})
	for _, name := range permissions {
		doc.URLs = append(doc.URLs, sitemapURL{Loc: base + "/permissions/" + name})
	}
	for _, name := range roles {
		doc.URLs = append(doc.URLs, sitemapURL{Loc: base + "/" + name})
	}

	out, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	return c.Blob(http.StatusOK, "application/xml", append([]byte(xml.Header), out...))
}
