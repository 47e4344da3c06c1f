// Package swagger serves the API's OpenAPI document and its browsable docs.
package swagger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"net/http"

	"github.com/knadh/koanf/parsers/yaml"
)

// Error constants.
var (
	ErrServe  = errors.New("swagger serve failed")
	ErrRender = errors.New("openapi render failed")
)

// Register attaches the docs routes to mux.
// Routes (defaults):.
//
//	GET /docs          -> Swagger UI
//	GET /redoc         -> ReDoc
//	GET /openapi.json  -> OpenAPI document as JSON, info block from WithInfo
//	GET /openapi.yaml  -> Embedded OpenAPI document as written
func Register(_ context.Context, mux *http.ServeMux, opts ...Option) {
	if mux == nil {
		panic("mux is nil")
	}

	c := config{
		docsPath:    "/docs",
		redocPath:   "/redoc",
		openAPIPath: "/openapi.json",
	}
	for _, opt := range opts {
		opt(&c)
	}

	mux.HandleFunc("GET /openapi.yaml", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/yaml; charset=utf-8")
		_, _ = w.Write(OpenAPI)
	})

	if c.openAPIPath == "" {
		return
	}

	doc, err := RenderJSON(c.info)
	if err != nil {
		panic(err)
	}
	mux.HandleFunc("GET "+c.openAPIPath, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		_, _ = w.Write(doc)
	})

	page := pageData{Title: title(c.info), SpecURL: c.openAPIPath}
	if c.docsPath != "" {
		mux.HandleFunc("GET "+c.docsPath, htmlHandler(swaggerUITemplate, page))
	}
	if c.redocPath != "" {
		mux.HandleFunc("GET "+c.redocPath, htmlHandler(redocTemplate, page))
	}
}

// RenderJSON converts the embedded YAML document to JSON, replacing the
// non-empty fields of info.
func RenderJSON(info Info) ([]byte, error) {
	doc, err := yaml.Parser().Unmarshal(OpenAPI)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRender, err)
	}

	block, _ := doc["info"].(map[string]interface{})
	if block == nil {
		block = map[string]interface{}{}
		doc["info"] = block
	}
	if info.Title != "" {
		block["title"] = info.Title
	}
	if info.Description != "" {
		block["description"] = info.Description
	}
	if info.Version != "" {
		block["version"] = info.Version
	}

	out, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRender, err)
	}
	return out, nil
}

func title(info Info) string {
	if info.Title != "" {
		return info.Title
	}
	return "API Docs"
}

type pageData struct {
	Title   string
	SpecURL string
}

func htmlHandler(t *template.Template, data pageData) http.HandlerFunc {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		panic(fmt.Errorf("%w: %w", ErrServe, err))
	}
	body := buf.Bytes()
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write(body)
	}
}

var swaggerUITemplate = template.Must(template.New("swagger-ui").Parse(`<!doctype html>
<html>
  <head>
    <meta charset="utf-8">
    <title>{{.Title}} - Swagger UI</title>
    <link rel="stylesheet" href="https://cdn.jsdelivr.net/npm/swagger-ui-dist@5/swagger-ui.css">
  </head>
  <body>
    <div id="swagger-ui"></div>
    <script src="https://cdn.jsdelivr.net/npm/swagger-ui-dist@5/swagger-ui-bundle.js"></script>
    <script>
      SwaggerUIBundle({url: {{.SpecURL}}, dom_id: '#swagger-ui', deepLinking: true});
    </script>
  </body>
</html>`))

var redocTemplate = template.Must(template.New("redoc").Parse(`<!doctype html>
<html>
  <head>
    <meta charset="utf-8">
    <title>{{.Title}} - ReDoc</title>
    <style>body{margin:0;padding:0}</style>
  </head>
  <body>
    <redoc spec-url="{{.SpecURL}}"></redoc>
    <script src="https://cdn.jsdelivr.net/npm/redoc@2/bundles/redoc.standalone.js"></script>
  </body>
</html>`))
