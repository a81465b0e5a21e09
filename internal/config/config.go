// Package config resolves the server's runtime settings from defaults, an
// optional TOML file, the environment, and command-line flags, in that
// order of precedence.
package config

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Config carries the server's runtime settings.
type Config struct {
	// Addr is the HTTP and websocket listen address.
	Addr string `toml:"addr"`

	// Debug enables debug-level logging.
	Debug bool `toml:"debug"`

	// StatsInterval is how often runtime counters are logged. Zero or
	// negative disables the reporter.
	StatsInterval time.Duration `toml:"stats_interval"`
}

// Default is the baseline configuration.
var Default = Config{
	Addr:          "127.0.0.1:3000",
	Debug:         false,
	StatsInterval: time.Minute,
}

// Load resolves the configuration. Later sources override earlier ones:
// defaults, then the TOML file named by -config, then the environment
// (PORT and DEBUG, with an optional .env file feeding it), then any flag
// given explicitly on the command line.
func Load(args []string) (Config, error) {
	cfg := Default

	fs := flag.NewFlagSet("skribbl-server", flag.ContinueOnError)
	confPath := fs.String("config", "", "Path to TOML configuration file")
	envPath := fs.String("env", ".env", "Path to .env file")
	addr := fs.String("addr", cfg.Addr, "HTTP listen address")
	debug := fs.Bool("debug", cfg.Debug, "Enable debug logging")
	statsInterval := fs.Duration("stats-interval", cfg.StatsInterval, "Runtime stats logging interval (0 disables)")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	if *confPath != "" {
		if _, err := toml.DecodeFile(*confPath, &cfg); err != nil {
			return Config{}, fmt.Errorf("load config file: %w", err)
		}
	}

	// A missing .env file is fine; when present it feeds the same
	// variables the environment can set.
	_ = godotenv.Load(*envPath)
	if port := os.Getenv("PORT"); port != "" {
		cfg.Addr = "127.0.0.1:" + port
	}
	if v := os.Getenv("DEBUG"); v != "" {
		on, err := strconv.ParseBool(v)
		if err != nil {
			return Config{}, fmt.Errorf("parse DEBUG: %w", err)
		}
		cfg.Debug = on
	}

	// Flags given explicitly win over file and environment.
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "addr":
			cfg.Addr = *addr
		case "debug":
			cfg.Debug = *debug
		case "stats-interval":
			cfg.StatsInterval = *statsInterval
		}
	})
	return cfg, nil
}
