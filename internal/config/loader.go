package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/dotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// Environment variables naming the optional config files.
const (
	ConfigFileEnv = "MVP_CONFIG"
	EnvFileEnv    = "MVP_ENV_FILE"
)

// DefaultEnvFile is read when present and no other env file is named.
const DefaultEnvFile = ".env.development"

const (
	listDelim   = ","
	flagSkipped = ""
)

// listKeys may be given as comma separated strings by env and dotenv.
var listKeys = []string{"cors_allowed_origins", "metrics_buckets", "metrics_labels"}

type loadOptions struct {
	flags      *pflag.FlagSet
	configFile string
	envFile    string
}

// LoadOption customizes Load.
type LoadOption func(*loadOptions)

// WithFlags layers the changed flags of fs over everything else. The flags
// registered by RegisterFlags for the config and env files are honored too.
func WithFlags(fs *pflag.FlagSet) LoadOption {
	return func(o *loadOptions) { o.flags = fs }
}

// WithConfigFile names a YAML file, overriding MVP_CONFIG.
func WithConfigFile(path string) LoadOption {
	return func(o *loadOptions) { o.configFile = path }
}

// WithEnvFile names a dotenv file, overriding MVP_ENV_FILE.
func WithEnvFile(path string) LoadOption {
	return func(o *loadOptions) { o.envFile = path }
}

// Load builds a Config by layering sources.
// Order of precedence (low -> high):.
//  1. defaults (New(ctx))
//  2. YAML file named by --config, WithConfigFile or MVP_CONFIG
//  3. dotenv file named by --env-file, WithEnvFile or MVP_ENV_FILE, else .env.development if present
//  4. process environment, matched case-insensitively against known keys
//  5. flags the caller actually set
func Load(ctx context.Context, opts ...LoadOption) (*Config, error) {
	o := loadOptions{
		configFile: os.Getenv(ConfigFileEnv),
		envFile:    os.Getenv(EnvFileEnv),
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.flags != nil {
		if v, _ := o.flags.GetString(FlagConfig); v != "" {
			o.configFile = v
		}
		if v, _ := o.flags.GetString(FlagEnvFile); v != "" {
			o.envFile = v
		}
	}

	k := koanf.New(".")

	if err := k.Load(structs.Provider(New(ctx), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("%w: defaults: %w", ErrLoadConfig, err)
	}
	known := make(map[string]struct{}, len(k.Keys()))
	for _, key := range k.Keys() {
		known[key] = struct{}{}
	}

	if o.configFile != "" {
		if err := k.Load(file.Provider(o.configFile), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrLoadConfig, o.configFile, err)
		}
	}

	if err := loadEnvFile(k, o.envFile); err != nil {
		return nil, err
	}

	// Env names are matched against known keys only so PATH, HOME and
	// friends never leak into the config tree.
	envProvider := env.ProviderWithValue("", ".", func(key, value string) (string, interface{}) {
		key = strings.ToLower(key)
		if _, ok := known[key]; !ok {
			return "", nil
		}
		return key, value
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: env: %w", ErrLoadConfig, err)
	}

	if o.flags != nil {
		flagProvider := posflag.ProviderWithFlag(o.flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			key := strings.ReplaceAll(f.Name, "-", "_")
			if _, ok := known[key]; !ok {
				return flagSkipped, nil
			}
			return key, posflag.FlagVal(o.flags, f)
		})
		if err := k.Load(flagProvider, nil); err != nil {
			return nil, fmt.Errorf("%w: flags: %w", ErrLoadConfig, err)
		}
	}

	for _, key := range listKeys {
		if err := splitList(k, key); err != nil {
			return nil, err
		}
	}

	cfg := *New(ctx)
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// loadEnvFile reads a dotenv file. The default file is optional; a file
// named explicitly must exist.
func loadEnvFile(k *koanf.Koanf, path string) error {
	explicit := path != ""
	if !explicit {
		path = DefaultEnvFile
	}
	if _, err := os.Stat(path); err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("%w: %s: %w", ErrLoadConfig, path, err)
	}
	if err := k.Load(file.Provider(path), dotenv.ParserEnv("", ".", strings.ToLower)); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrLoadConfig, path, err)
	}
	return nil
}

// splitList turns a comma separated string value into a trimmed list.
func splitList(k *koanf.Koanf, key string) error {
	raw, ok := k.Get(key).(string)
	if !ok {
		return nil
	}
	var items []string
	for _, item := range strings.Split(raw, listDelim) {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	if err := k.Set(key, items); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrLoadConfig, key, err)
	}
	return nil
}
