// Package config loads the service configuration from a yaml or json file
// with optional environment overrides.
package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/vertiops/evtol-ops/core/dispatch"
	"github.com/vertiops/evtol-ops/core/metrics"
	"github.com/vertiops/evtol-ops/infra/ingest"
)

type Config struct {
	Store    StoreConfig     `json:"store"`
	Model    ModelConfig     `json:"model"`
	API      APIConfig       `json:"api"`
	Dispatch dispatch.Config `json:"dispatch"`
	Ingest   ingest.Config   `json:"ingest"`
	Metrics  metrics.Config  `json:"metrics"`
}

// Default returns a configuration usable without any config file.
func Default() *Config {
	cfg := &Config{}
	cfg.Store.SetDefaults()
	cfg.Model.SetDefaults()
	cfg.API.SetDefaults()
	cfg.Dispatch.SetDefaults()
	cfg.Ingest.SetDefaults()
	cfg.Metrics.SetDefaults()
	return cfg
}

func Load(path string) (*Config, error) {
	k := koanf.New(".")
	ext := strings.ToLower(filepath.Ext(path))
	var parser koanf.Parser
	switch ext {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		return nil, fmt.Errorf("unsupported config format: %s", ext)
	}
	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, err
	}
	// Optional environment overrides
	if err := k.Load(env.Provider("EVTOL_", "__", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), "evtol_")
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.Store.SetDefaults()
	cfg.Model.SetDefaults()
	cfg.API.SetDefaults()
	cfg.Dispatch.SetDefaults()
	cfg.Ingest.SetDefaults()
	cfg.Metrics.SetDefaults()
	if err := cfg.Store.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Dispatch.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Ingest.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
