package main

import (
	"fmt"

	"github.com/BurntSushi/toml"

	"space-invasion/invasion"
)

// Config is the terminal client's optional TOML file
type Config struct {
	Server  string              `toml:"server"`
	Session string              `toml:"session"`
	Name    string              `toml:"name"`
	Keys    map[string]string   `toml:"keys"` // action -> key
	Ship    invasion.ShipConfig `toml:"ship"`
	Rules   invasion.Rules      `toml:"rules"`
}

func defaultConfig() Config {
	return Config{
		Name: "Pilot",
		Ship: invasion.DefaultShipConfig(),
	}
}

// loadConfig reads path over the defaults; an empty path keeps them
func loadConfig(path string) (Config, error) {
	cfg := defaultConfig()
	if path == "" {
		return cfg, nil
	}
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return cfg, fmt.Errorf("config %s: unknown key %s", path, undecoded[0])
	}
	if err := cfg.Ship.Validate(); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// keyMap builds the bindings from the defaults, the file, then the flag
func (c Config) keyMap(flagKeys string) (KeyMap, error) {
	km := DefaultKeyMap()
	for action, key := range c.Keys {
		if err := km.Bind(action, key); err != nil {
			return km, err
		}
	}
	return km, km.ParseKeys(flagKeys)
}
