package plan

import "errors"

// Direction bit assignments. Part of the stepper ABI; a real step pulse
// generator decodes Block.DirectionBits against these exact bit positions.
const (
	XDirectionBit = 0
	YDirectionBit = 1
	ZDirectionBit = 2
)

// Default compile-time constants, overridable per Settings instance.
const (
	DefaultBlockBufferSize           = 16 // power-of-two keeps the modular index math cheap
	DefaultAccelerationTicksPerSecond = 100
)

// Settings is the read-only configuration the planner consumes from the
// host machine configuration. It mirrors grbl's `settings` global plus the
// two knobs that control how finely acceleration ramps are subdivided.
type Settings struct {
	// Acceleration is the single global constant acceleration, in
	// mm/min^2-equivalent units (the same units grbl's settings.acceleration
	// uses: mm/min of rate change per minute).
	Acceleration float64

	// MaxJerk is the maximum instantaneous vector speed change tolerated at
	// a junction between two blocks, in mm/min.
	MaxJerk float64

	// StepsPerMM holds steps-per-millimeter for the X, Y, Z axes in that
	// order.
	StepsPerMM [3]float64

	// BlockBufferSize is the ring buffer capacity. A power of two is
	// recommended but not required; the queue's modular arithmetic works
	// for any capacity >= 2.
	BlockBufferSize int

	// AccelerationTicksPerSecond controls how often the (simulated) stepper
	// updates its step rate while ramping.
	AccelerationTicksPerSecond int
}

// Validate rejects configurations the planner's numeric core cannot safely
// operate on: zero acceleration would divide by zero inside the trapezoid
// math and produce NaN/Inf trapezoids downstream, so it is rejected up
// front, as are a non-positive max_jerk, buffer size, tick rate or
// steps-per-mm.
func (s Settings) Validate() error {
	if s.Acceleration <= 0 {
		return errors.New("plan: acceleration must be > 0")
	}
	if s.MaxJerk <= 0 {
		return errors.New("plan: max_jerk must be > 0")
	}
	if s.BlockBufferSize < 2 {
		return errors.New("plan: block buffer size must be >= 2")
	}
	if s.AccelerationTicksPerSecond <= 0 {
		return errors.New("plan: acceleration ticks per second must be > 0")
	}
	for axis, spm := range s.StepsPerMM {
		if spm <= 0 {
			return errors.New("plan: steps_per_mm[" + string(rune('x'+axis)) + "] must be > 0")
		}
	}
	return nil
}

// DefaultSettings returns reasonable defaults for a small CNC/3D-printer
// class machine, analogous to the teacher's standalone/config defaults.
func DefaultSettings() Settings {
	return Settings{
		Acceleration:               3000 * 60 * 60, // 3000 mm/s^2 expressed as mm/min^2
		MaxJerk:                    600,             // mm/min
		StepsPerMM:                 [3]float64{80, 80, 400},
		BlockBufferSize:            DefaultBlockBufferSize,
		AccelerationTicksPerSecond: DefaultAccelerationTicksPerSecond,
	}
}
