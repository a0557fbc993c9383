// Package cliconfig resolves the tool's runtime configuration from, in
// rising precedence: built-in defaults, an optional YAML config file,
// CFGTREE_-prefixed environment variables, and command-line flags.
package cliconfig

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

// Config is the resolved runtime configuration.
type Config struct {
	// ModelDir holds the class model files (.hcl).
	ModelDir string `koanf:"model_dir"`
	// RootClass names the class the tree is instantiated from.
	RootClass string `koanf:"root_class"`
	// Access is the caller's permission grade: intermediate, advanced or
	// master.
	Access string `koanf:"access"`
	// DumpMode selects the dump filter: customized, full or preset.
	DumpMode string `koanf:"dump_mode"`

	LogLevel  string `koanf:"log_level"`
	LogFormat string `koanf:"log_format"`
}

const envPrefix = "CFGTREE_"

// defaultConfigNames are probed in order when no --config flag is given.
var defaultConfigNames = []string{"cfgtree.yaml", "cfgtree.yml"}

// Load resolves the configuration. cfgFile may be empty, in which case the
// default config file names are probed in the working directory; flags may
// be nil.
func Load(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(map[string]interface{}{
		"model_dir":  "models",
		"root_class": "",
		"access":     "master",
		"dump_mode":  "customized",
		"log_level":  "info",
		"log_format": "text",
	}, "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if cfgFile == "" {
		for _, name := range defaultConfigNames {
			if _, err := os.Stat(name); err == nil {
				cfgFile = name
				break
			}
		}
	}
	if cfgFile != "" {
		if err := k.Load(file.Provider(cfgFile), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", cfgFile, err)
		}
	}

	// CFGTREE_MODEL_DIR -> model_dir
	if err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, envPrefix))
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			if !f.Changed {
				return "", nil
			}
			// kebab-case flags map to snake_case config keys.
			return strings.ReplaceAll(f.Name, "-", "_"), posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("invalid log-format %q: must be 'text' or 'json'", c.LogFormat)
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log-level %q: must be 'debug', 'info', 'warn' or 'error'", c.LogLevel)
	}
	return nil
}
