package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	data := `store:
  backend: "sqlite"
  path: "/var/lib/evtol/ops.db"
model:
  path: "models/safety_model.json"
api:
  listen: ":9000"
dispatch:
  min_battery_level: 30
ingest:
  enabled: true
  broker: "tcp://localhost:1883"
  weather_topic: "telemetry/weather"
  traffic_topic: "telemetry/traffic"
metrics:
  prometheus_enabled: true
  influx_enabled: true
  influx_url: "http://localhost:8086"
  influx_org: "vertiops"
  influx_bucket: "ops"
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load error: %v", err)
	}
	checks := []struct {
		name string
		got  any
		want any
	}{
		{"store.backend", cfg.Store.Backend, "sqlite"},
		{"store.path", cfg.Store.Path, "/var/lib/evtol/ops.db"},
		{"model.path", cfg.Model.Path, "models/safety_model.json"},
		{"api.listen", cfg.API.Listen, ":9000"},
		{"dispatch.min_battery_level", cfg.Dispatch.MinBatteryLevel, 30.0},
		{"ingest.enabled", cfg.Ingest.Enabled, true},
		{"ingest.broker", cfg.Ingest.Broker, "tcp://localhost:1883"},
		{"ingest.client_id", cfg.Ingest.ClientID, "evtol-ingest"},
		{"metrics.prometheus_enabled", cfg.Metrics.PrometheusEnabled, true},
		{"metrics.prometheus_port", cfg.Metrics.PrometheusPort, "2112"},
		{"metrics.influx_bucket", cfg.Metrics.InfluxBucket, "ops"},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s mismatch: %v", c.name, c.got)
		}
	}
}

func TestLoadUnsupportedFormat(t *testing.T) {
	if _, err := Load("config.toml"); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	data := `store:
  backend: "postgres"
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("unknown store backend accepted")
	}
}

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.Store.Backend != "sqlite" || cfg.Store.Path == "" {
		t.Fatalf("unexpected store defaults: %#v", cfg.Store)
	}
	if cfg.API.Listen != ":8080" {
		t.Fatalf("unexpected api defaults: %#v", cfg.API)
	}
	if cfg.Dispatch.MinBatteryLevel != 20 {
		t.Fatalf("unexpected dispatch defaults: %#v", cfg.Dispatch)
	}
	if cfg.Metrics.PrometheusPort != "2112" {
		t.Fatalf("unexpected metrics defaults: %#v", cfg.Metrics)
	}
}
