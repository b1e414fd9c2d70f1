// Package kinematics converts machine-space positions into the step
// deltas the motion planner consumes. It generalizes the teacher's
// standalone/kinematics package, adding the CalcSteps conversion the
// simplified teacher planner never needed (it moved steppers directly in
// millimeters; a real plan.Planner wants signed step counts per axis).
package kinematics

// Position is a machine-space position in millimeters, plus extruder
// position for machines that have one.
type Position struct {
	X, Y, Z, E float64
}

// Kinematics defines the interface between the gcode front end and a
// specific machine geometry. Only Cartesian is implemented: the spec's
// Non-goals exclude rotary/4th-axis support, and the teacher itself never
// ships CoreXY or delta kinematics for standalone mode either.
type Kinematics interface {
	// CalcSteps converts a millimeter-space move into signed per-axis step
	// deltas, the (Δx, Δy, Δz) input plan.Planner.BufferLine expects.
	CalcSteps(from, to Position, stepsPerMM [3]float64) (dx, dy, dz int32)

	// GetAxisNames returns the names of axes controlled by this kinematics.
	GetAxisNames() []string

	// CheckLimits validates that a position is within configured limits.
	CheckLimits(pos Position) error
}
