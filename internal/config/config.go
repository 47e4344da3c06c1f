// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New(ctx) to build a Config with defaults.
// - Load layers files, environment and flags over those defaults.
// - External errors must be wrapped with this package's sentinel errors.
package config

import (
	"context"
	"fmt"
	"net"
	"path"
	"strconv"
	"strings"

	"github.com/okian/mvp/pkg/logger"
	"github.com/prometheus/common/model"
)

// Config contains process configuration.
type Config struct {
	// BackendPort is the HTTP listen port.
	BackendPort int `koanf:"backend_port"`

	// FrontendPort is where the companion frontend runs. Reported at startup only.
	FrontendPort int `koanf:"frontend_port"`

	// BackendHost is the listen host; empty means all interfaces.
	BackendHost string `koanf:"backend_host"`

	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log handler: text or json.
	LogFormat string `koanf:"log_format"`

	// APITitle, APIDescription and APIVersion fill the OpenAPI info block.
	APITitle       string `koanf:"api_title"`
	APIDescription string `koanf:"api_description"`
	APIVersion     string `koanf:"api_version"`

	// DocsURL, RedocURL and OpenAPIURL place the docs routes. Empty disables a route.
	DocsURL    string `koanf:"docs_url"`
	RedocURL   string `koanf:"redoc_url"`
	OpenAPIURL string `koanf:"openapi_url"`

	// MetricsPath is where Prometheus metrics are exposed.
	MetricsPath string `koanf:"metrics_path"`

	// CORSAllowedOrigins lists allowed origins; "*" allows any.
	CORSAllowedOrigins []string `koanf:"cors_allowed_origins"`

	// CORSAllowCredentials allows cookies and auth headers on cross-origin calls.
	CORSAllowCredentials bool `koanf:"cors_allow_credentials"`

	// MetricsEnabled turns recording on or off; the endpoint stays mounted.
	MetricsEnabled bool `koanf:"metrics_enabled"`

	// MetricsNamespace, MetricsSubsystem and MetricsPrefix compose metric
	// names: namespace_subsystem_prefix_name.
	MetricsNamespace string `koanf:"metrics_namespace"`
	MetricsSubsystem string `koanf:"metrics_subsystem"`
	MetricsPrefix    string `koanf:"metrics_prefix"`

	// MetricsBuckets are the request duration buckets in milliseconds.
	MetricsBuckets []float64 `koanf:"metrics_buckets"`

	// MetricsLabels are constant labels given as key=value pairs.
	MetricsLabels []string `koanf:"metrics_labels"`

	// TracingExporter selects where spans go: none or stdout.
	TracingExporter string `koanf:"tracing_exporter"`

	// TracingSampleRatio is the fraction of new traces sampled, 0..1.
	TracingSampleRatio float64 `koanf:"tracing_sample_ratio"`
}

// Tracing exporters.
const (
	TracingNone   = "none"
	TracingStdout = "stdout"
)

// reservedPaths are served by the API and the YAML spec route regardless of
// configuration.
var reservedPaths = []string{"/", "/healthcheck", "/api/example", "/api/examples", "/stats", "/openapi.yaml"}

// reservedPrefix holds the per-id route.
const reservedPrefix = "/api/examples/"

// New creates a Config holding the defaults. Context is accepted first to
// satisfy the project-wide convention and is currently unused.
func New(_ context.Context) *Config {
	return &Config{
		BackendPort:          8000,
		FrontendPort:         3000,
		LogLevel:             "info",
		LogFormat:            "text",
		APITitle:             "MVP API",
		APIDescription:       "API for MVP application",
		APIVersion:           "0.1.0",
		DocsURL:              "/docs",
		RedocURL:             "/redoc",
		OpenAPIURL:           "/openapi.json",
		MetricsPath:          "/metrics",
		CORSAllowedOrigins:   []string{"*"},
		CORSAllowCredentials: true,
		MetricsEnabled:       true,
		MetricsNamespace:     "mvp",
		MetricsSubsystem:     "api",
		MetricsBuckets:       []float64{0.1, 0.5, 1, 2.5, 5, 10, 25, 50, 100, 250, 500, 1000},
		MetricsLabels:        []string{},
		TracingExporter:      TracingNone,
		TracingSampleRatio:   1,
	}
}

// Addr returns the listen address, e.g. ":8000".
func (c *Config) Addr() string {
	return net.JoinHostPort(c.BackendHost, strconv.Itoa(c.BackendPort))
}

// Validate checks value ranges and enumerations.
func (c *Config) Validate() error {
	if err := validPort("backend_port", c.BackendPort); err != nil {
		return err
	}
	if err := validPort("frontend_port", c.FrontendPort); err != nil {
		return err
	}
	if _, err := logger.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("%w: log_level %q", ErrInvalidConfig, c.LogLevel)
	}
	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		return fmt.Errorf("%w: log_format %q must be text or json", ErrInvalidConfig, c.LogFormat)
	}
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateMetrics(); err != nil {
		return err
	}
	switch c.TracingExporter {
	case TracingNone, TracingStdout:
	default:
		return fmt.Errorf("%w: tracing_exporter %q must be none or stdout", ErrInvalidConfig, c.TracingExporter)
	}
	if c.TracingSampleRatio < 0 || c.TracingSampleRatio > 1 {
		return fmt.Errorf("%w: tracing_sample_ratio %v out of range 0..1", ErrInvalidConfig, c.TracingSampleRatio)
	}
	return nil
}

// validatePaths checks the configurable routes. Each must be a clean
// absolute path, distinct from the others and from the fixed API routes,
// or the mux would reject or shadow it.
func (c *Config) validatePaths() error {
	seen := make(map[string]string, len(reservedPaths)+4)
	for _, p := range reservedPaths {
		seen[p] = "a built-in route"
	}
	for _, r := range []struct{ key, path string }{
		{"docs_url", c.DocsURL},
		{"redoc_url", c.RedocURL},
		{"openapi_url", c.OpenAPIURL},
		{"metrics_path", c.MetricsPath},
	} {
		if r.path == "" {
			continue
		}
		if !strings.HasPrefix(r.path, "/") {
			return fmt.Errorf("%w: %s %q must start with /", ErrInvalidConfig, r.key, r.path)
		}
		if path.Clean(r.path) != r.path || strings.ContainsAny(r.path, "{} \t") {
			return fmt.Errorf("%w: %s %q is not a plain path", ErrInvalidConfig, r.key, r.path)
		}
		if strings.HasPrefix(r.path, reservedPrefix) {
			return fmt.Errorf("%w: %s %q collides with a built-in route", ErrInvalidConfig, r.key, r.path)
		}
		if owner, ok := seen[r.path]; ok {
			return fmt.Errorf("%w: %s %q collides with %s", ErrInvalidConfig, r.key, r.path, owner)
		}
		seen[r.path] = r.key
	}
	return nil
}

func (c *Config) validateMetrics() error {
	if !model.IsValidLegacyMetricName(c.MetricsNamespace) {
		return fmt.Errorf("%w: metrics_namespace %q", ErrInvalidConfig, c.MetricsNamespace)
	}
	for key, v := range map[string]string{"metrics_subsystem": c.MetricsSubsystem, "metrics_prefix": c.MetricsPrefix} {
		if v != "" && !model.IsValidLegacyMetricName(v) {
			return fmt.Errorf("%w: %s %q", ErrInvalidConfig, key, v)
		}
	}
	for i, b := range c.MetricsBuckets {
		if b <= 0 || (i > 0 && b <= c.MetricsBuckets[i-1]) {
			return fmt.Errorf("%w: metrics_buckets must be positive and increasing", ErrInvalidConfig)
		}
	}
	if _, err := c.MetricLabels(); err != nil {
		return err
	}
	return nil
}

// MetricLabels parses MetricsLabels into a label map.
func (c *Config) MetricLabels() (map[string]string, error) {
	labels := make(map[string]string, len(c.MetricsLabels))
	for _, pair := range c.MetricsLabels {
		k, v, ok := strings.Cut(pair, "=")
		if !ok || !model.LabelName(k).IsValidLegacy() {
			return nil, fmt.Errorf("%w: metrics_labels entry %q must be name=value", ErrInvalidConfig, pair)
		}
		if _, dup := labels[k]; dup {
			return nil, fmt.Errorf("%w: metrics_labels repeats %q", ErrInvalidConfig, k)
		}
		labels[k] = v
	}
	return labels, nil
}

func validPort(key string, port int) error {
	if port < 1 || port > 65535 {
		return fmt.Errorf("%w: %s %d out of range 1..65535", ErrInvalidConfig, key, port)
	}
	return nil
}
