package kinematics

import (
	"errors"
	"math"

	"stepplan/config"
)

// Cartesian implements basic Cartesian kinematics: a 1:1 mapping between
// machine axes and X/Y/Z/E.
type Cartesian struct {
	cfg *config.MachineConfig
}

// NewCartesian creates a Cartesian kinematics instance, validating that
// the configuration names all three linear axes.
func NewCartesian(cfg *config.MachineConfig) (*Cartesian, error) {
	for _, axis := range []string{"x", "y", "z"} {
		if _, ok := cfg.Axes[axis]; !ok {
			return nil, errors.New("kinematics: " + axis + " axis not configured")
		}
	}
	return &Cartesian{cfg: cfg}, nil
}

// CalcSteps converts a millimeter-space move into signed step deltas,
// rounding each axis independently to the nearest whole step.
func (k *Cartesian) CalcSteps(from, to Position, stepsPerMM [3]float64) (dx, dy, dz int32) {
	dx = int32(math.Round((to.X - from.X) * stepsPerMM[0]))
	dy = int32(math.Round((to.Y - from.Y) * stepsPerMM[1]))
	dz = int32(math.Round((to.Z - from.Z) * stepsPerMM[2]))
	return dx, dy, dz
}

// GetAxisNames returns the axis names for Cartesian kinematics.
func (k *Cartesian) GetAxisNames() []string {
	return []string{"x", "y", "z", "e"}
}

// CheckLimits validates that a position is within each configured axis's
// travel limits. Axes absent from the configuration are not checked.
func (k *Cartesian) CheckLimits(pos Position) error {
	if axis, ok := k.cfg.Axes["x"]; ok {
		if pos.X < axis.MinPosition || pos.X > axis.MaxPosition {
			return errors.New("kinematics: X position out of limits")
		}
	}
	if axis, ok := k.cfg.Axes["y"]; ok {
		if pos.Y < axis.MinPosition || pos.Y > axis.MaxPosition {
			return errors.New("kinematics: Y position out of limits")
		}
	}
	if axis, ok := k.cfg.Axes["z"]; ok {
		if pos.Z < axis.MinPosition || pos.Z > axis.MaxPosition {
			return errors.New("kinematics: Z position out of limits")
		}
	}
	return nil
}
