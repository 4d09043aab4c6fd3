package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaultPlannerConfig(t *testing.T) {
	cfg := DefaultPlannerConfig()

	if cfg.LookaheadWaypoints == nil || *cfg.LookaheadWaypoints != 200 {
		t.Errorf("Expected LookaheadWaypoints 200, got %v", cfg.LookaheadWaypoints)
	}
	if cfg.MaxDecel == nil || *cfg.MaxDecel != 0.5 {
		t.Errorf("Expected MaxDecel 0.5, got %v", cfg.MaxDecel)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
	if got := cfg.GetTickInterval(); got != 20*time.Millisecond {
		t.Errorf("GetTickInterval() = %v, want 20ms", got)
	}
}

func TestEmptyConfigUsesDefaults(t *testing.T) {
	cfg := &PlannerConfig{}

	if cfg.GetLookaheadWaypoints() != 200 {
		t.Errorf("GetLookaheadWaypoints() = %d, want 200", cfg.GetLookaheadWaypoints())
	}
	if cfg.GetTickRateHz() != 50 {
		t.Errorf("GetTickRateHz() = %f, want 50", cfg.GetTickRateHz())
	}
	if cfg.GetMaxDecel() != 0.5 {
		t.Errorf("GetMaxDecel() = %f, want 0.5", cfg.GetMaxDecel())
	}
	if cfg.GetStopBuffer() != 2 {
		t.Errorf("GetStopBuffer() = %d, want 2", cfg.GetStopBuffer())
	}
	if cfg.GetSnapSpeed() != 1.0 {
		t.Errorf("GetSnapSpeed() = %f, want 1.0", cfg.GetSnapSpeed())
	}
	if cfg.GetRecordEvery() != 50 {
		t.Errorf("GetRecordEvery() = %d, want 50", cfg.GetRecordEvery())
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("empty config should validate: %v", err)
	}
}

func TestLoadPlannerConfig(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "planner.json")

	testJSON := `{
  "lookahead_waypoints": 120,
  "max_decel": 1.2,
  "tick_rate_hz": 10
}`
	if err := os.WriteFile(configPath, []byte(testJSON), 0644); err != nil {
		t.Fatalf("Failed to write test config: %v", err)
	}

	cfg, err := LoadPlannerConfig(configPath)
	if err != nil {
		t.Fatalf("LoadPlannerConfig failed: %v", err)
	}

	if cfg.GetLookaheadWaypoints() != 120 {
		t.Errorf("GetLookaheadWaypoints() = %d, want 120", cfg.GetLookaheadWaypoints())
	}
	if cfg.GetMaxDecel() != 1.2 {
		t.Errorf("GetMaxDecel() = %f, want 1.2", cfg.GetMaxDecel())
	}
	if cfg.GetTickInterval() != 100*time.Millisecond {
		t.Errorf("GetTickInterval() = %v, want 100ms", cfg.GetTickInterval())
	}
	// Omitted fields fall back to defaults.
	if cfg.GetStopBuffer() != 2 {
		t.Errorf("GetStopBuffer() = %d, want default 2", cfg.GetStopBuffer())
	}
}

func TestLoadPlannerConfig_Rejects(t *testing.T) {
	tmpDir := t.TempDir()

	tests := []struct {
		name     string
		file     string
		contents string
		errPart  string
	}{
		{"wrong extension", "planner.yaml", `{}`, ".json extension"},
		{"bad json", "bad.json", `{"max_decel": }`, "parse config JSON"},
		{"zero decel", "decel0.json", `{"max_decel": 0}`, "max_decel"},
		{"negative decel", "decelneg.json", `{"max_decel": -0.5}`, "max_decel"},
		{"zero lookahead", "n0.json", `{"lookahead_waypoints": 0}`, "lookahead_waypoints"},
		{"negative lookahead", "nneg.json", `{"lookahead_waypoints": -10}`, "lookahead_waypoints"},
		{"zero tick rate", "hz.json", `{"tick_rate_hz": 0}`, "tick_rate_hz"},
		{"negative buffer", "buf.json", `{"stop_buffer": -1}`, "stop_buffer"},
		{"negative snap", "snap.json", `{"snap_speed": -0.1}`, "snap_speed"},
		{"negative record_every", "rec.json", `{"record_every": -1}`, "record_every"},
		{"zero clients", "clients.json", `{"publisher_max_clients": 0}`, "publisher_max_clients"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(tmpDir, tt.file)
			if err := os.WriteFile(path, []byte(tt.contents), 0644); err != nil {
				t.Fatalf("write: %v", err)
			}
			_, err := LoadPlannerConfig(path)
			if err == nil {
				t.Fatalf("expected error containing %q", tt.errPart)
			}
			if !strings.Contains(err.Error(), tt.errPart) {
				t.Errorf("error %q does not mention %q", err, tt.errPart)
			}
		})
	}
}

func TestLoadPlannerConfig_MissingFile(t *testing.T) {
	_, err := LoadPlannerConfig(filepath.Join(t.TempDir(), "missing.json"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoadPlannerConfig_TooLarge(t *testing.T) {
	path := filepath.Join(t.TempDir(), "huge.json")
	big := make([]byte, 1024*1024+1)
	for i := range big {
		big[i] = ' '
	}
	if err := os.WriteFile(path, big, 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := LoadPlannerConfig(path); err == nil || !strings.Contains(err.Error(), "too large") {
		t.Errorf("expected size error, got %v", err)
	}
}

func TestMustLoadDefaultConfig(t *testing.T) {
	cfg := MustLoadDefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults file should validate: %v", err)
	}
	want := DefaultPlannerConfig()
	if cfg.GetLookaheadWaypoints() != want.GetLookaheadWaypoints() ||
		cfg.GetMaxDecel() != want.GetMaxDecel() ||
		cfg.GetTickRateHz() != want.GetTickRateHz() ||
		cfg.GetStopBuffer() != want.GetStopBuffer() ||
		cfg.GetSnapSpeed() != want.GetSnapSpeed() {
		t.Errorf("defaults file drifted from DefaultPlannerConfig: %+v", cfg)
	}
}
