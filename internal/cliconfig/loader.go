package cliconfig

import (
	"context"
	"fmt"
	"log/slog"
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

// configFileUsed records the path Load last read a config file from, for
// the CLI's `--help`/diagnostic output (mirrors the teacher's package-level
// configFileUsed tracking).
var configFileUsed string

// findConfigFile resolves which config file Load should read: an explicit
// path wins, otherwise the first of FileNames found in the working
// directory.
func findConfigFile(explicit string) string {
	if explicit != "" {
		return explicit
	}
	for _, name := range FileNames {
		if _, err := os.Stat(name); err == nil {
			return name
		}
	}
	return ""
}

// Load builds a Config from, in ascending precedence: built-in defaults,
// the project config file (explicit via cfgFile, else discovered in the
// working directory), PQLC_-prefixed environment variables, and any
// pflag.FlagSet whose flags were explicitly Changed (SPEC_FULL.md §6
// "flags > env > file > defaults").
func Load(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(map[string]interface{}{
		"target": DefaultTarget,
		"output": DefaultOutput,
		"color":  DefaultColor,
	}, "."), nil); err != nil {
		return nil, fmt.Errorf("cliconfig: loading defaults: %w", err)
	}

	configFileUsed = findConfigFile(cfgFile)
	if configFileUsed != "" {
		if err := k.Load(file.Provider(configFileUsed), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("cliconfig: reading config file %s: %w", configFileUsed, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	}), nil); err != nil {
		return nil, fmt.Errorf("cliconfig: loading env vars: %w", err)
	}

	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			if !f.Changed {
				return "", nil
			}
			key := strings.ReplaceAll(f.Name, "-", "_")
			return key, posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("cliconfig: loading flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("cliconfig: decoding config: %w", err)
	}
	return &cfg, nil
}

// GetConfigFileUsed returns the path Load most recently read a config file
// from, or "" if none was found.
func GetConfigFileUsed() string { return configFileUsed }

type contextKey struct{ name string }

var configContextKey = &contextKey{"cliconfig.Config"}

// WithConfig returns a context carrying cfg, for PersistentPreRunE to stash
// the loaded Config where subcommand RunE functions can retrieve it
// (mirrors the teacher's loggerKey-in-context idiom in
// internal/cli/config/loader.go's LoggerKey/GetLogger, generalized to the
// whole Config rather than just its logger).
func WithConfig(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, configContextKey, cfg)
}

// FromContext retrieves the Config stashed by WithConfig, or a zero-value
// Config carrying the package defaults if none was stashed (e.g. in a unit
// test that drives a command directly).
func FromContext(ctx context.Context) *Config {
	if cfg, ok := ctx.Value(configContextKey).(*Config); ok {
		return cfg
	}
	return &Config{Target: DefaultTarget, Output: DefaultOutput, Color: DefaultColor}
}

type loggerKey struct{}

// LoggerKey returns the context key commands use to retrieve the root
// command's *slog.Logger (mirrors LoggerKey/GetLogger in the teacher's
// internal/cli/config/loader.go, used so the commands package doesn't
// import the root package and create a cycle).
func LoggerKey() any { return loggerKey{} }

// WithLogger returns a context carrying logger.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, logger)
}

// GetLogger retrieves the logger stashed by WithLogger, falling back to a
// discard logger.
func GetLogger(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok {
		return l
	}
	return slog.New(slog.DiscardHandler)
}
