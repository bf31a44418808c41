// Package cli implements the gospel command-line tool: one-shot evaluation
// and an interactive REPL.
package cli

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cast"
	"go.uber.org/multierr"

	"github.com/sandrolain/gospel/pkg/cache"
	"github.com/sandrolain/gospel/pkg/evaluator"
)

// Environment variables read by LoadConfig.
const (
	EnvTimeout   = "GOSPEL_TIMEOUT"
	EnvDebug     = "GOSPEL_DEBUG"
	EnvCacheSize = "GOSPEL_CACHE_SIZE"
	// EnvFile names an extra dotenv file whose values win over the process
	// environment.
	EnvFile = "GOSPEL_ENV_FILE"
)

// Config holds the settings shared by all commands.
type Config struct {
	Timeout   time.Duration
	Debug     bool
	CacheSize int
}

// DefaultConfig returns the settings used when nothing is configured.
func DefaultConfig() Config {
	return Config{
		Timeout:   30 * time.Second,
		CacheSize: cache.DefaultCapacity,
	}
}

// LoadConfig reads the GOSPEL_* variables through getenv on top of the
// defaults. An unset or empty variable keeps its default; every malformed
// one is reported.
func LoadConfig(getenv func(string) string) (Config, error) {
	cfg := DefaultConfig()
	var err error
	if v := getenv(EnvTimeout); v != "" {
		d, e := cast.ToDurationE(v)
		if e != nil || d < 0 {
			err = multierr.Append(err, fmt.Errorf("%s: invalid duration %q", EnvTimeout, v))
		} else {
			cfg.Timeout = d
		}
	}
	if v := getenv(EnvDebug); v != "" {
		b, e := cast.ToBoolE(v)
		if e != nil {
			err = multierr.Append(err, fmt.Errorf("%s: %w", EnvDebug, e))
		} else {
			cfg.Debug = b
		}
	}
	if v := getenv(EnvCacheSize); v != "" {
		n, e := cast.ToIntE(v)
		if e != nil || n <= 0 {
			err = multierr.Append(err, fmt.Errorf("%s: invalid cache size %q", EnvCacheSize, v))
		} else {
			cfg.CacheSize = n
		}
	}
	return cfg, err
}

// LoadEnvFile reads a dotenv file and layers its values over getenv, so
// that the file wins for the keys it defines.
func LoadEnvFile(path string, getenv func(string) string) (func(string) string, error) {
	vars, err := godotenv.Read(path)
	if err != nil {
		return nil, err
	}
	return func(key string) string {
		if v, ok := vars[key]; ok {
			return v
		}
		return getenv(key)
	}, nil
}

// RegisterFlags adds -timeout, -debug and -cache-size to fs, using the
// current values as defaults so that flags override the environment.
func (c *Config) RegisterFlags(fs *flag.FlagSet) {
	fs.DurationVar(&c.Timeout, "timeout", c.Timeout, "evaluation timeout (0 disables it)")
	fs.BoolVar(&c.Debug, "debug", c.Debug, "log variable and context accesses to stderr")
	fs.IntVar(&c.CacheSize, "cache-size", c.CacheSize, "number of compiled expressions kept")
}

// Logger returns a text logger on w, at debug level when Debug is set.
func (c Config) Logger(w io.Writer) *slog.Logger {
	level := slog.LevelInfo
	if c.Debug {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// Evaluator builds an evaluator configured from c that logs to logw.
func (c Config) Evaluator(logw io.Writer) *evaluator.Evaluator {
	return evaluator.New(
		evaluator.WithTimeout(c.Timeout),
		evaluator.WithDebug(c.Debug),
		evaluator.WithLogger(c.Logger(logw)),
		evaluator.WithCaching(true),
		evaluator.WithCacheSize(c.CacheSize),
	)
}
