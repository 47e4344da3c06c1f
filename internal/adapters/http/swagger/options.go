package swagger

// Option configures Register.
type Option func(*config)

type config struct {
	docsPath    string
	redocPath   string
	openAPIPath string
	info        Info
}

// Info overrides the info block of the served OpenAPI document.
type Info struct {
	Title       string
	Description string
	Version     string
}

// WithDocsPath sets where Swagger UI is served. Empty disables it.
func WithDocsPath(path string) Option {
	return func(c *config) { c.docsPath = path }
}

// WithRedocPath sets where ReDoc is served. Empty disables it.
func WithRedocPath(path string) Option {
	return func(c *config) { c.redocPath = path }
}

// WithOpenAPIPath sets where the JSON document is served. Empty disables it
// together with both UI pages, which depend on it.
func WithOpenAPIPath(path string) Option {
	return func(c *config) { c.openAPIPath = path }
}

// WithInfo overrides non-empty fields of the document's info block.
func WithInfo(info Info) Option {
	return func(c *config) { c.info = info }
}
