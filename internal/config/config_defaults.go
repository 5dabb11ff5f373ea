package config

import (
	_ "embed"
)

//go:embed embedkit.default.yaml
var defaultYAML []byte

var defaults Config

func init() {
	cfg, err := newDefault()
	if err != nil {
		panic(err)
	}
	defaults = *cfg
}

func newDefault() (*Config, error) {
	return ParseYAML(defaultYAML)
}

// Default returns a copy of the built-in configuration.
func Default() *Config {
	cfg := defaults
	cfg.ContentHosts = append([]string(nil), defaults.ContentHosts...)
	return &cfg
}
