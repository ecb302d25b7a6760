package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"factory-floor/internal/config"
	"factory-floor/internal/stations"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := config.Load(t.TempDir())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.Port != "8080" || cfg.Server.ReadTimeout != 10*time.Second {
		t.Errorf("unexpected server defaults: %+v", cfg.Server)
	}
	if cfg.Redis.Addr != "" || cfg.Redis.SnapshotTTL != time.Hour {
		t.Errorf("unexpected redis defaults: %+v", cfg.Redis)
	}
	if len(cfg.Floor.Stations) != 12 || cfg.Floor.Stations[4].StationID != "ST-05" {
		t.Errorf("expected default 12-station layout, got %+v", cfg.Floor.Stations)
	}
}

func TestLoadFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	yaml := `
server:
  port: "9000"
processor:
  workers: 3
floor:
  stations:
    - station_id: P-1
      production_line: PRESS
      ordinal: 1
    - station_id: P-2
      production_line: PRESS
      ordinal: 2
  field_mapping:
    station_id: Machine
    temperature: Temp (C)
`
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("REDIS_ADDR", "redis:6379")
	t.Setenv("SERVER_PORT", "9100")

	cfg, err := config.Load(dir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.Port != "9100" {
		t.Errorf("env must override file, got port %q", cfg.Server.Port)
	}
	if cfg.Redis.Addr != "redis:6379" {
		t.Errorf("expected REDIS_ADDR from env, got %q", cfg.Redis.Addr)
	}
	if cfg.Processor.Workers != 3 {
		t.Errorf("expected 3 workers, got %d", cfg.Processor.Workers)
	}
	if len(cfg.Floor.Stations) != 2 || cfg.Floor.Stations[1].ProductionLine != "PRESS" {
		t.Errorf("unexpected stations: %+v", cfg.Floor.Stations)
	}

	mapping := cfg.Mapping()
	if mapping[stations.FieldStationID] != "Machine" || mapping[stations.FieldTemperatureCelsius] != "Temp (C)" {
		t.Errorf("unexpected mapping: %v", mapping)
	}
}

func TestLoadRejectsInvalidConfig(t *testing.T) {
	dir := t.TempDir()
	yaml := "floor:\n  field_mapping:\n    humidity: H\n"
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	if _, err := config.Load(dir); err == nil {
		t.Errorf("expected error for unknown mapped field")
	}
}
