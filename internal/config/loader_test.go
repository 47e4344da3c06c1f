package config_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/okian/mvp/internal/config"
	"github.com/smartystreets/goconvey/convey"
	"github.com/spf13/pflag"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New(context.Background())

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.BackendPort, convey.ShouldEqual, 8000)
			convey.So(cfg.FrontendPort, convey.ShouldEqual, 3000)
			convey.So(cfg.LogLevel, convey.ShouldEqual, "info")
			convey.So(cfg.CORSAllowedOrigins, convey.ShouldResemble, []string{"*"})
			convey.So(cfg.CORSAllowCredentials, convey.ShouldBeTrue)
			convey.So(cfg.Addr(), convey.ShouldEqual, ":8000")
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})

		convey.Convey("When a host is set", func() {
			cfg.BackendHost = "127.0.0.1"

			convey.Convey("Then Addr joins host and port", func() {
				convey.So(cfg.Addr(), convey.ShouldEqual, "127.0.0.1:8000")
			})
		})
	})
}

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()
		clearConfigEnvVars()
		defer clearConfigEnvVars()

		convey.Convey("When loading config with defaults only", func() {
			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg, convey.ShouldResemble, config.New(ctx))
			})
		})

		convey.Convey("When loading config with upper case environment variables", func() {
			_ = os.Setenv("BACKEND_PORT", "9001")
			_ = os.Setenv("FRONTEND_PORT", "4000")
			_ = os.Setenv("API_TITLE", "Custom API")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.BackendPort, convey.ShouldEqual, 9001)
				convey.So(cfg.FrontendPort, convey.ShouldEqual, 4000)
				convey.So(cfg.APITitle, convey.ShouldEqual, "Custom API")
			})
		})

		convey.Convey("When loading config with lower case environment variables", func() {
			_ = os.Setenv("backend_port", "9002")
			_ = os.Setenv("Log_Level", "debug")

			cfg, err := config.Load(ctx)

			convey.Convey("Then names should match case-insensitively", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.BackendPort, convey.ShouldEqual, 9002)
				convey.So(cfg.LogLevel, convey.ShouldEqual, "debug")
			})
		})

		convey.Convey("When loading comma separated origins from env", func() {
			_ = os.Setenv("CORS_ALLOWED_ORIGINS", "http://localhost:3000, https://example.com")
			_ = os.Setenv("CORS_ALLOW_CREDENTIALS", "false")

			cfg, err := config.Load(ctx)

			convey.Convey("Then the list should be split and trimmed", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.CORSAllowedOrigins, convey.ShouldResemble,
					[]string{"http://localhost:3000", "https://example.com"})
				convey.So(cfg.CORSAllowCredentials, convey.ShouldBeFalse)
			})
		})

		convey.Convey("When loading config with YAML file", func() {
			tmpFile := createTempFile(t, "config.yaml", `
backend_port: 9090
log_level: debug
log_format: json
cors_allowed_origins:
  - http://localhost:3000
`)
			_ = os.Setenv(config.ConfigFileEnv, tmpFile)

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load from YAML file", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.BackendPort, convey.ShouldEqual, 9090)
				convey.So(cfg.LogLevel, convey.ShouldEqual, "debug")
				convey.So(cfg.LogFormat, convey.ShouldEqual, "json")
				convey.So(cfg.CORSAllowedOrigins, convey.ShouldResemble, []string{"http://localhost:3000"})
				convey.So(cfg.FrontendPort, convey.ShouldEqual, 3000) // From defaults
			})

			convey.Convey("And environment variables override the file", func() {
				_ = os.Setenv("BACKEND_PORT", "8080")

				cfg, err := config.Load(ctx)
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.BackendPort, convey.ShouldEqual, 8080) // Overridden by env
				convey.So(cfg.LogLevel, convey.ShouldEqual, "debug") // From file
			})
		})

		convey.Convey("When loading config with a dotenv file", func() {
			envFile := createTempFile(t, ".env.test", strings.Join([]string{
				"BACKEND_PORT=7000",
				"FRONTEND_PORT=7001",
				`CORS_ALLOWED_ORIGINS="http://a.test,http://b.test"`,
			}, "\n"))

			cfg, err := config.Load(ctx, config.WithEnvFile(envFile))

			convey.Convey("Then it should load from the dotenv file", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.BackendPort, convey.ShouldEqual, 7000)
				convey.So(cfg.FrontendPort, convey.ShouldEqual, 7001)
				convey.So(cfg.CORSAllowedOrigins, convey.ShouldResemble, []string{"http://a.test", "http://b.test"})
			})

			convey.Convey("And the process environment overrides it", func() {
				_ = os.Setenv("BACKEND_PORT", "9100")

				cfg, err := config.Load(ctx, config.WithEnvFile(envFile))
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.BackendPort, convey.ShouldEqual, 9100)
				convey.So(cfg.FrontendPort, convey.ShouldEqual, 7001)
			})
		})

		convey.Convey("When loading config with flags", func() {
			_ = os.Setenv("BACKEND_PORT", "9200")
			_ = os.Setenv("LOG_LEVEL", "warn")

			fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
			config.RegisterFlags(fs)
			convey.So(fs.Parse([]string{"--backend-port=6000", "--log-format=json"}), convey.ShouldBeNil)

			cfg, err := config.Load(ctx, config.WithFlags(fs))

			convey.Convey("Then changed flags win and unchanged flags do not override", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.BackendPort, convey.ShouldEqual, 6000)
				convey.So(cfg.LogFormat, convey.ShouldEqual, "json")
				convey.So(cfg.LogLevel, convey.ShouldEqual, "warn")
				convey.So(cfg.FrontendPort, convey.ShouldEqual, 3000)
			})
		})

		convey.Convey("When the config file is named by flag", func() {
			tmpFile := createTempFile(t, "flag.yaml", "frontend_port: 5173\n")

			fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
			config.RegisterFlags(fs)
			convey.So(fs.Parse([]string{"--config", tmpFile}), convey.ShouldBeNil)

			cfg, err := config.Load(ctx, config.WithFlags(fs))

			convey.Convey("Then it should be read", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.FrontendPort, convey.ShouldEqual, 5173)
			})
		})

		convey.Convey("When loading config with invalid YAML file", func() {
			tmpFile := createTempFile(t, "bad.yaml", `invalid: yaml: content: [`)

			cfg, err := config.Load(ctx, config.WithConfigFile(tmpFile))

			convey.Convey("Then it should return a load error", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with non-existent files", func() {
			_, fileErr := config.Load(ctx, config.WithConfigFile("/non/existent/file.yaml"))
			_, envErr := config.Load(ctx, config.WithEnvFile("/non/existent/.env"))

			convey.Convey("Then both should return a load error", func() {
				convey.So(errors.Is(fileErr, config.ErrLoadConfig), convey.ShouldBeTrue)
				convey.So(errors.Is(envErr, config.ErrLoadConfig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When loading config with invalid numeric environment variables", func() {
			_ = os.Setenv("BACKEND_PORT", "not_a_number")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a load error", func() {
				convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with out of range values", func() {
			cases := map[string]string{
				"BACKEND_PORT":  "70000",
				"FRONTEND_PORT": "0",
				"LOG_LEVEL":     "verbose",
				"LOG_FORMAT":    "xml",
				"METRICS_PATH":  "metrics",

				"TRACING_EXPORTER":     "jaeger",
				"TRACING_SAMPLE_RATIO": "1.5",
				"METRICS_NAMESPACE":    "mvp-api",
				"METRICS_PREFIX":       "9lives",
				"METRICS_BUCKETS":      "5,1",
				"METRICS_LABELS":       "env",
			}

			convey.Convey("Then each should return a validation error", func() {
				for key, value := range cases {
					_ = os.Setenv(key, value)
					cfg, err := config.Load(ctx)
					_ = os.Unsetenv(key)

					convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
					convey.So(cfg, convey.ShouldBeNil)
				}
			})
		})

		convey.Convey("When loading config with unusable route paths", func() {
			cases := []map[string]string{
				{"DOCS_URL": "docs"},
				{"REDOC_URL": "/redoc/"},
				{"OPENAPI_URL": "/openapi.yaml"},
				{"METRICS_PATH": "/healthcheck"},
				{"METRICS_PATH": "/"},
				{"DOCS_URL": "/api/examples"},
				{"DOCS_URL": "/api/examples/docs"},
				{"REDOC_URL": "/stats"},
				{"DOCS_URL": "/redoc"},
				{"METRICS_PATH": "/openapi.json"},
				{"DOCS_URL": "/docs/{page}"},
				{"DOCS_URL": "/my docs"},
				{"REDOC_URL": "/a/../redoc"},
			}

			convey.Convey("Then each should be rejected before any route is mounted", func() {
				for _, env := range cases {
					for key, value := range env {
						_ = os.Setenv(key, value)
					}
					cfg, err := config.Load(ctx)
					for key := range env {
						_ = os.Unsetenv(key)
					}

					convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
					convey.So(cfg, convey.ShouldBeNil)
				}
			})
		})

		convey.Convey("When route paths are moved or disabled", func() {
			_ = os.Setenv("DOCS_URL", "/swagger")
			_ = os.Setenv("REDOC_URL", "")
			_ = os.Setenv("METRICS_PATH", "/internal/metrics")

			cfg, err := config.Load(ctx)

			convey.Convey("Then distinct paths should be accepted", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.DocsURL, convey.ShouldEqual, "/swagger")
				convey.So(cfg.RedocURL, convey.ShouldBeEmpty)
				convey.So(cfg.MetricsPath, convey.ShouldEqual, "/internal/metrics")
			})
		})

		convey.Convey("When loading metrics and tracing settings from the environment", func() {
			_ = os.Setenv("METRICS_ENABLED", "false")
			_ = os.Setenv("METRICS_NAMESPACE", "shop")
			_ = os.Setenv("METRICS_SUBSYSTEM", "edge")
			_ = os.Setenv("METRICS_PREFIX", "v1")
			_ = os.Setenv("METRICS_BUCKETS", "1, 2.5,10")
			_ = os.Setenv("METRICS_LABELS", "env=prod,region=eu")
			_ = os.Setenv("TRACING_EXPORTER", "stdout")
			_ = os.Setenv("TRACING_SAMPLE_RATIO", "0.25")

			cfg, err := config.Load(ctx)

			convey.Convey("Then they should be parsed into typed fields", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.MetricsEnabled, convey.ShouldBeFalse)
				convey.So(cfg.MetricsNamespace, convey.ShouldEqual, "shop")
				convey.So(cfg.MetricsSubsystem, convey.ShouldEqual, "edge")
				convey.So(cfg.MetricsPrefix, convey.ShouldEqual, "v1")
				convey.So(cfg.MetricsBuckets, convey.ShouldResemble, []float64{1, 2.5, 10})
				convey.So(cfg.TracingExporter, convey.ShouldEqual, config.TracingStdout)
				convey.So(cfg.TracingSampleRatio, convey.ShouldEqual, 0.25)

				labels, err := cfg.MetricLabels()
				convey.So(err, convey.ShouldBeNil)
				convey.So(labels, convey.ShouldResemble, map[string]string{"env": "prod", "region": "eu"})
			})
		})
	})
}

var configKeys = []string{
	"backend_port", "frontend_port", "backend_host", "log_level", "log_format",
	"api_title", "api_description", "api_version", "docs_url", "redoc_url",
	"openapi_url", "metrics_path", "cors_allowed_origins", "cors_allow_credentials",
	"metrics_enabled", "metrics_namespace", "metrics_subsystem", "metrics_prefix",
	"metrics_buckets", "metrics_labels", "tracing_exporter", "tracing_sample_ratio",
}

// clearConfigEnvVars clears every spelling the tests use.
func clearConfigEnvVars() {
	for _, key := range configKeys {
		_ = os.Unsetenv(key)
		_ = os.Unsetenv(strings.ToUpper(key))
	}
	_ = os.Unsetenv("Log_Level")
	_ = os.Unsetenv(config.ConfigFileEnv)
	_ = os.Unsetenv(config.EnvFileEnv)
}

// createTempFile writes content into a file under the test's temp dir.
func createTempFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write temp file: %v", err)
	}
	return path
}
