package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// findConfigFile returns the configuration file to read.
// Priority: explicit path > zdb.yaml > zdb.yml
func findConfigFile(explicit string) string {
	if explicit != "" {
		return explicit
	}
	for _, name := range []string{"zdb.yaml", "zdb.yml"} {
		if _, err := os.Stat(name); err == nil {
			return name
		}
	}
	return ""
}

// Load reads the configuration. Precedence (highest to lowest): flags that
// were set > env vars > config file > defaults. Flags are named after the
// keys with dashes, --table-prefix sets table_prefix.
func Load(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	// 1. Load defaults
	if err := k.Load(confmap.Provider(map[string]any{
		"driver":       DefaultDriver,
		"dsn":          DefaultDSN,
		"table_prefix": "",
		"smart_joins":  false,
		"log_level":    DefaultLogLevel,
		"cache_size":   DefaultCacheSize,
		"output":       DefaultOutput,
	}, "."), nil); err != nil {
		return nil, fmt.Errorf("cannot load defaults: %w", err)
	}

	// 2. Load the config file
	used := findConfigFile(cfgFile)
	if used != "" {
		if err := k.Load(file.Provider(used), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("cannot read config file %s: %w", used, err)
		}
	}

	// 3. Load environment variables: ZDB_TABLE_PREFIX -> table_prefix
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	}), nil); err != nil {
		return nil, fmt.Errorf("cannot load environment: %w", err)
	}

	// 4. Load flags that were explicitly set
	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, any) {
			if !f.Changed {
				return "", nil
			}
			return strings.ReplaceAll(f.Name, "-", "_"), posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("cannot load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("cannot decode config: %w", err)
	}
	cfg.File = used
	if err := cfg.Validate(); err != nil {
		if used != "" {
			return nil, fmt.Errorf("invalid configuration in %s: %w", used, err)
		}
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// AddFlags registers the flags read by Load on flags.
func AddFlags(flags *pflag.FlagSet) {
	flags.String("driver", DefaultDriver, "database driver (mysql|sqlite3)")
	flags.String("dsn", DefaultDSN, "data source name of the database")
	flags.String("table-prefix", "", "table prefix inserted by :_ and ::")
	flags.Bool("smart-joins", false, "add table.column keys to joined rows")
	flags.String("log-level", DefaultLogLevel, "log level (debug|info|warn|error)")
	flags.Int("cache-size", DefaultCacheSize, "number of parsed templates kept")
	flags.StringP("output", "o", DefaultOutput, "output format (auto|table|json)")
}
