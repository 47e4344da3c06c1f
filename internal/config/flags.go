package config

import (
	"context"

	"github.com/spf13/pflag"
)

// Flag names understood by Load. Names map to config keys with "-" -> "_".
const (
	FlagConfig       = "config"
	FlagEnvFile      = "env-file"
	FlagBackendHost  = "backend-host"
	FlagBackendPort  = "backend-port"
	FlagFrontendPort = "frontend-port"
	FlagLogLevel     = "log-level"
	FlagLogFormat    = "log-format"
)

// RegisterFlags defines the server flags on fs. Defaults mirror New so help
// output is accurate; unchanged flags never override other sources.
func RegisterFlags(fs *pflag.FlagSet) {
	d := New(context.Background())

	fs.String(FlagConfig, "", "YAML config file (env "+ConfigFileEnv+")")
	fs.String(FlagEnvFile, "", "dotenv file (env "+EnvFileEnv+", default "+DefaultEnvFile+" if present)")
	fs.String(FlagBackendHost, d.BackendHost, "listen host, empty for all interfaces")
	fs.Int(FlagBackendPort, d.BackendPort, "HTTP listen port")
	fs.Int(FlagFrontendPort, d.FrontendPort, "frontend port, reported at startup")
	fs.String(FlagLogLevel, d.LogLevel, "log level: debug, info, warn, error")
	fs.String(FlagLogFormat, d.LogFormat, "log format: text or json")
}
