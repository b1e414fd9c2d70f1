// Package config loads the JSON machine configuration that describes a
// Cartesian machine's kinematics and the motion planner's settings,
// following the teacher's standalone/config package: a LoadConfig entry
// point, an applyDefaults pass, and a DefaultCartesianConfig helper for
// callers that have no configuration file of their own.
package config

import (
	"encoding/json"

	"stepplan/plan"
)

// AxisConfig describes one linear axis: its step resolution and the
// travel limits kinematics.Cartesian.CheckLimits enforces.
type AxisConfig struct {
	StepsPerMM  float64 `json:"steps_per_mm"`
	MinPosition float64 `json:"min_position"`
	MaxPosition float64 `json:"max_position"`
}

// MachineConfig is the complete machine configuration: which kinematics to
// build, per-axis geometry, and the planner settings from spec §6
// (acceleration, max_jerk, the two compile-time constants, and a default
// feedrate for G-code that omits F).
type MachineConfig struct {
	Kinematics string                `json:"kinematics"`
	Axes       map[string]AxisConfig `json:"axes"`

	// Acceleration is the planner's single global constant acceleration,
	// in the same mm/min^2-equivalent units as plan.Settings.Acceleration.
	Acceleration float64 `json:"acceleration"`

	// MaxJerk is the maximum instantaneous junction speed change, mm/min.
	MaxJerk float64 `json:"max_jerk"`

	// BlockBufferSize is the planner's ring buffer capacity.
	BlockBufferSize int `json:"block_buffer_size"`

	// AccelerationTicksPerSecond controls how finely the (simulated)
	// stepper subdivides acceleration ramps.
	AccelerationTicksPerSecond int `json:"acceleration_ticks_per_second"`

	// DefaultFeedRate is used for G0/G1 moves that omit an F parameter,
	// mm/min.
	DefaultFeedRate float64 `json:"default_feed_rate"`
}

// LoadConfig parses a JSON configuration document and fills in any
// missing fields with sensible defaults.
func LoadConfig(jsonData []byte) (*MachineConfig, error) {
	var cfg MachineConfig
	if err := json.Unmarshal(jsonData, &cfg); err != nil {
		return nil, err
	}
	applyDefaults(&cfg)
	return &cfg, nil
}

// applyDefaults fills in missing configuration values the way the
// teacher's standalone/config.applyDefaults does: only zero-valued fields
// are touched, so an explicit JSON value of 0 is indistinguishable from
// "unset" here, matching the teacher's own tradeoff.
func applyDefaults(cfg *MachineConfig) {
	if cfg.Kinematics == "" {
		cfg.Kinematics = "cartesian"
	}
	if cfg.Acceleration == 0 {
		cfg.Acceleration = 3000 * 60 * 60 // 3000 mm/s^2 expressed as mm/min^2
	}
	if cfg.MaxJerk == 0 {
		cfg.MaxJerk = 600 // mm/min
	}
	if cfg.BlockBufferSize == 0 {
		cfg.BlockBufferSize = plan.DefaultBlockBufferSize
	}
	if cfg.AccelerationTicksPerSecond == 0 {
		cfg.AccelerationTicksPerSecond = plan.DefaultAccelerationTicksPerSecond
	}
	if cfg.DefaultFeedRate == 0 {
		cfg.DefaultFeedRate = 3000 // mm/min
	}

	for name, axis := range cfg.Axes {
		if axis.StepsPerMM == 0 {
			axis.StepsPerMM = 80.0
		}
		if axis.MinPosition == 0 && axis.MaxPosition == 0 {
			axis.MaxPosition = 200.0
		}
		cfg.Axes[name] = axis
	}
}

// DefaultCartesianConfig returns a ready-to-use configuration for a small
// three-axis Cartesian machine, analogous to the teacher's
// DefaultCartesianConfig for a Cartesian 3D printer.
func DefaultCartesianConfig() *MachineConfig {
	cfg := &MachineConfig{
		Kinematics: "cartesian",
		Axes: map[string]AxisConfig{
			"x": {StepsPerMM: 80, MinPosition: 0, MaxPosition: 220},
			"y": {StepsPerMM: 80, MinPosition: 0, MaxPosition: 220},
			"z": {StepsPerMM: 400, MinPosition: 0, MaxPosition: 250},
		},
		Acceleration:               3000 * 60 * 60,
		MaxJerk:                    600,
		BlockBufferSize:            plan.DefaultBlockBufferSize,
		AccelerationTicksPerSecond: plan.DefaultAccelerationTicksPerSecond,
		DefaultFeedRate:            3000,
	}
	applyDefaults(cfg)
	return cfg
}

// ToPlanSettings derives the motion planner's settings from the loaded
// configuration. Axes missing from the configuration fall back to
// steps-per-mm of 1 so the planner still constructs; kinematics.NewCartesian
// is what actually rejects a configuration missing X/Y/Z.
func (cfg *MachineConfig) ToPlanSettings() plan.Settings {
	stepsPerMM := [3]float64{1, 1, 1}
	for i, name := range []string{"x", "y", "z"} {
		if axis, ok := cfg.Axes[name]; ok && axis.StepsPerMM > 0 {
			stepsPerMM[i] = axis.StepsPerMM
		}
	}

	return plan.Settings{
		Acceleration:               cfg.Acceleration,
		MaxJerk:                    cfg.MaxJerk,
		StepsPerMM:                 stepsPerMM,
		BlockBufferSize:            cfg.BlockBufferSize,
		AccelerationTicksPerSecond: cfg.AccelerationTicksPerSecond,
	}
}
