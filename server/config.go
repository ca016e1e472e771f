package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"

	"space-invasion/invasion"
)

// Config is the server configuration, read from a TOML file and then
// overridden by command-line flags
type Config struct {
	Addr      string  `toml:"addr"`
	ClientDir string  `toml:"client_dir"`
	DBPath    string  `toml:"db"`         // empty runs without accounts or stats
	PublicURL string  `toml:"public_url"` // base URL encoded into pairing QR codes
	Countdown float64 `toml:"countdown"`  // seconds

	Ship   invasion.ShipConfig `toml:"ship"`
	Rules  invasion.Rules      `toml:"rules"`
	Limits Limits              `toml:"limits"`
}

// Limits caps what a single server will accept
type Limits struct {
	ConnsPerIP     int `toml:"conns_per_ip"`
	TotalConns     int `toml:"total_conns"`
	Sessions       int `toml:"sessions"`
	MessagesPerSec int `toml:"messages_per_sec"`
}

// DefaultConfig returns the settings used when no file is given
func DefaultConfig() Config {
	return Config{
		Addr:      ":8080",
		Countdown: DefaultMatchConfig().Countdown,
		Ship:      invasion.DefaultShipConfig(),
		Limits: Limits{
			ConnsPerIP:     5,
			TotalConns:     1000,
			Sessions:       defaultMaxSessions,
			MessagesPerSec: 50,
		},
	}
}

// LoadConfig reads path over the defaults. An empty path returns the
// defaults. Unknown keys are rejected so typos do not pass silently.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		sort.Strings(keys)
		return cfg, fmt.Errorf("config %s: unknown keys %s", path, strings.Join(keys, ", "))
	}
	return cfg, cfg.Validate()
}

// Validate checks values that would otherwise fail later at runtime
func (c Config) Validate() error {
	if err := c.Ship.Validate(); err != nil {
		return err
	}
	if c.Countdown < 0 {
		return fmt.Errorf("countdown must not be negative, got %g", c.Countdown)
	}
	if c.Limits.ConnsPerIP < 1 || c.Limits.TotalConns < 1 || c.Limits.Sessions < 1 || c.Limits.MessagesPerSec < 1 {
		return fmt.Errorf("limits must all be at least 1: %+v", c.Limits)
	}
	return nil
}

// Game returns the per-session settings
func (c Config) Game() GameConfig {
	return GameConfig{
		Ship:  c.Ship,
		Rules: c.Rules,
		Match: MatchConfig{Countdown: c.Countdown},
	}
}
