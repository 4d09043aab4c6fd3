// Package config loads and validates the waypoint updater configuration.
package config

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"
)

// DefaultConfigPath is the path to the canonical planner defaults file.
const DefaultConfigPath = "config/planner.defaults.json"

// PlannerConfig is the root configuration for the waypoint updater. Every
// field is optional: omitted fields fall back to the defaults returned by
// the Get* accessors, so partial files are safe.
type PlannerConfig struct {
	// Window and cadence
	LookaheadWaypoints *int     `json:"lookahead_waypoints,omitempty"`
	TickRateHz         *float64 `json:"tick_rate_hz,omitempty"`

	// Braking profile
	MaxDecel   *float64 `json:"max_decel,omitempty"`   // m/s²
	StopBuffer *int     `json:"stop_buffer,omitempty"` // waypoints
	SnapSpeed  *float64 `json:"snap_speed,omitempty"`  // m/s

	// Window log: record one window in every RecordEvery ticks (0 disables)
	RecordEvery *int `json:"record_every,omitempty"`

	// Publisher
	PublisherMaxClients   *int `json:"publisher_max_clients,omitempty"`
	PublisherClientBuffer *int `json:"publisher_client_buffer,omitempty"`
}

// Helper functions to create pointers
func ptrFloat64(v float64) *float64 { return &v }
func ptrInt(v int) *int             { return &v }

// DefaultPlannerConfig returns a PlannerConfig with every field set to its
// default value.
func DefaultPlannerConfig() *PlannerConfig {
	return &PlannerConfig{
		LookaheadWaypoints:    ptrInt(200),
		TickRateHz:            ptrFloat64(50),
		MaxDecel:              ptrFloat64(0.5),
		StopBuffer:            ptrInt(2),
		SnapSpeed:             ptrFloat64(1.0),
		RecordEvery:           ptrInt(50),
		PublisherMaxClients:   ptrInt(5),
		PublisherClientBuffer: ptrInt(10),
	}
}

// LoadPlannerConfig loads a PlannerConfig from a JSON file.
// The file must have a .json extension and be under 1MB. The result is
// validated before it is returned.
func LoadPlannerConfig(path string) (*PlannerConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := &PlannerConfig{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// MustLoadDefaultConfig loads the canonical defaults from DefaultConfigPath,
// searching the current directory and its parents up to the repository root.
// Panics if the file cannot be loaded, intended for test setup.
func MustLoadDefaultConfig() *PlannerConfig {
	candidates := []string{
		DefaultConfigPath,
		"../" + DefaultConfigPath,
		"../../" + DefaultConfigPath,
		"../../../" + DefaultConfigPath,
	}
	for _, path := range candidates {
		if cfg, err := LoadPlannerConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run tests from repository root")
}

// Validate checks the effective values (explicit or default). The planner
// refuses to start on an invalid configuration.
func (c *PlannerConfig) Validate() error {
	if n := c.GetLookaheadWaypoints(); n <= 0 {
		return fmt.Errorf("lookahead_waypoints must be positive, got %d", n)
	}
	if hz := c.GetTickRateHz(); !(hz > 0) || math.IsInf(hz, 0) {
		return fmt.Errorf("tick_rate_hz must be a positive finite value, got %f", hz)
	}
	if a := c.GetMaxDecel(); !(a > 0) || math.IsInf(a, 0) {
		return fmt.Errorf("max_decel must be a positive finite value, got %f", a)
	}
	if b := c.GetStopBuffer(); b < 0 {
		return fmt.Errorf("stop_buffer must be non-negative, got %d", b)
	}
	if s := c.GetSnapSpeed(); s < 0 || math.IsNaN(s) {
		return fmt.Errorf("snap_speed must be non-negative, got %f", s)
	}
	if r := c.GetRecordEvery(); r < 0 {
		return fmt.Errorf("record_every must be non-negative, got %d", r)
	}
	if m := c.GetPublisherMaxClients(); m <= 0 {
		return fmt.Errorf("publisher_max_clients must be positive, got %d", m)
	}
	if b := c.GetPublisherClientBuffer(); b <= 0 {
		return fmt.Errorf("publisher_client_buffer must be positive, got %d", b)
	}
	return nil
}

// GetLookaheadWaypoints returns the lookahead_waypoints value or the default.
func (c *PlannerConfig) GetLookaheadWaypoints() int {
	if c.LookaheadWaypoints == nil {
		return 200
	}
	return *c.LookaheadWaypoints
}

// GetTickRateHz returns the tick_rate_hz value or the default.
func (c *PlannerConfig) GetTickRateHz() float64 {
	if c.TickRateHz == nil {
		return 50
	}
	return *c.TickRateHz
}

// GetTickInterval returns the planner period derived from tick_rate_hz.
func (c *PlannerConfig) GetTickInterval() time.Duration {
	hz := c.GetTickRateHz()
	if hz <= 0 {
		return 20 * time.Millisecond
	}
	return time.Duration(float64(time.Second) / hz)
}

// GetMaxDecel returns the max_decel value or the default.
func (c *PlannerConfig) GetMaxDecel() float64 {
	if c.MaxDecel == nil {
		return 0.5
	}
	return *c.MaxDecel
}

// GetStopBuffer returns the stop_buffer value or the default.
func (c *PlannerConfig) GetStopBuffer() int {
	if c.StopBuffer == nil {
		return 2
	}
	return *c.StopBuffer
}

// GetSnapSpeed returns the snap_speed value or the default.
func (c *PlannerConfig) GetSnapSpeed() float64 {
	if c.SnapSpeed == nil {
		return 1.0
	}
	return *c.SnapSpeed
}

// GetRecordEvery returns the record_every value or the default.
func (c *PlannerConfig) GetRecordEvery() int {
	if c.RecordEvery == nil {
		return 50 // one window per second at 50 Hz
	}
	return *c.RecordEvery
}

// GetPublisherMaxClients returns the publisher_max_clients value or the default.
func (c *PlannerConfig) GetPublisherMaxClients() int {
	if c.PublisherMaxClients == nil {
		return 5
	}
	return *c.PublisherMaxClients
}

// GetPublisherClientBuffer returns the publisher_client_buffer value or the default.
func (c *PlannerConfig) GetPublisherClientBuffer() int {
	if c.PublisherClientBuffer == nil {
		return 10
	}
	return *c.PublisherClientBuffer
}
