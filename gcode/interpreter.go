// Package gcode turns a G-code text stream into calls against the motion
// planner, generalizing the teacher's standalone/gcode package: the same
// byte-level Parser and state-tracking Interpreter, adapted to call the
// real producer API (plan.Planner.BufferLine, no error return) instead of
// the teacher's simplified QueueMove(*Move) error.
package gcode

import (
	"math"

	"stepplan/kinematics"
)

// MachineState is the interpreter's notion of how the machine is currently
// configured to move. Position itself is not tracked here: it lives on the
// Planner (CurrentPosition/SetPosition), the single source of truth callers
// should read it from.
type MachineState struct {
	Homed        [3]bool
	AbsoluteMode bool
	FeedRate     float64 // mm/min
	ExtrudeMode  bool    // true = relative extrusion
	TargetTemp   map[string]float64
}

// Planner is the motion-planning surface the interpreter drives. It is
// adapted from the teacher's QueueMove(*Move) error to the real producer
// contract: BufferLine has no error return, matching spec §4.1's
// no-op/blocking-admission contract exactly.
type Planner interface {
	BufferLine(dx, dy, dz int32, durationUS uint32, lengthMM float64)
	CurrentPosition() kinematics.Position
	SetPosition(pos kinematics.Position)
}

// Interpreter executes parsed G-code commands against a Planner.
type Interpreter struct {
	state      *MachineState
	stepsPerMM [3]float64
	kin        kinematics.Kinematics
	planner    Planner
}

// NewInterpreter creates an interpreter starting in absolute-positioning
// mode with defaultFeedRate as its initial feedrate (mm/min).
func NewInterpreter(kin kinematics.Kinematics, planner Planner, stepsPerMM [3]float64, defaultFeedRate float64) *Interpreter {
	return &Interpreter{
		state: &MachineState{
			AbsoluteMode: true,
			FeedRate:     defaultFeedRate,
			TargetTemp:   make(map[string]float64),
		},
		stepsPerMM: stepsPerMM,
		kin:        kin,
		planner:    planner,
	}
}

// Execute runs one parsed command. A nil command (blank line) and a
// comment-only command (no G/M type letter) are no-ops.
func (interp *Interpreter) Execute(cmd *Command) error {
	if cmd == nil {
		return nil
	}

	switch cmd.Type {
	case 'G':
		return interp.executeG(cmd)
	case 'M':
		return interp.executeM(cmd)
	}
	return nil
}

func (interp *Interpreter) executeG(cmd *Command) error {
	switch cmd.Number {
	case 0, 1:
		return interp.doMove(cmd)
	case 28:
		return interp.doHome(cmd)
	case 90:
		interp.state.AbsoluteMode = true
	case 91:
		interp.state.AbsoluteMode = false
	case 92:
		return interp.doSetPosition(cmd)
	}
	return nil
}

// executeM handles the handful of M-codes this machine understands.
// Temperature commands are recognized but left inert: heaters are outside
// this spec's scope, and no original_source material covers them either.
func (interp *Interpreter) executeM(cmd *Command) error {
	switch cmd.Number {
	case 82:
		interp.state.ExtrudeMode = false
	case 83:
		interp.state.ExtrudeMode = true
	case 104, 109:
		if cmd.HasParameter('S') {
			interp.state.TargetTemp["extruder"] = cmd.GetParameter('S', 0)
		}
		// TODO: Wait for temperature
	case 140, 190:
		if cmd.HasParameter('S') {
			interp.state.TargetTemp["bed"] = cmd.GetParameter('S', 0)
		}
		// TODO: Wait for temperature
	}
	return nil
}

// doMove executes a linear move (G0/G1): compute the target position from
// the command's parameters and current mode, convert it to step deltas via
// the configured kinematics, and hand it to the planner as a single
// straight-line block.
func (interp *Interpreter) doMove(cmd *Command) error {
	current := interp.planner.CurrentPosition()
	target := current

	if cmd.HasParameter('F') {
		interp.state.FeedRate = cmd.GetParameter('F', interp.state.FeedRate)
	}

	if interp.state.AbsoluteMode {
		if cmd.HasParameter('X') {
			target.X = cmd.GetParameter('X', current.X)
		}
		if cmd.HasParameter('Y') {
			target.Y = cmd.GetParameter('Y', current.Y)
		}
		if cmd.HasParameter('Z') {
			target.Z = cmd.GetParameter('Z', current.Z)
		}
	} else {
		target.X = current.X + cmd.GetParameter('X', 0)
		target.Y = current.Y + cmd.GetParameter('Y', 0)
		target.Z = current.Z + cmd.GetParameter('Z', 0)
	}

	if cmd.HasParameter('E') {
		if interp.state.ExtrudeMode {
			target.E = current.E + cmd.GetParameter('E', 0)
		} else {
			target.E = cmd.GetParameter('E', current.E)
		}
	}

	dx := target.X - current.X
	dy := target.Y - current.Y
	dz := target.Z - current.Z
	distance := math.Sqrt(dx*dx + dy*dy + dz*dz)

	if distance < 0.001 && math.Abs(target.E-current.E) < 0.001 {
		return nil
	}

	if err := interp.kin.CheckLimits(target); err != nil {
		return err
	}

	if distance > 0 && interp.state.FeedRate > 0 {
		sdx, sdy, sdz := interp.kin.CalcSteps(current, target, interp.stepsPerMM)
		durationUS := uint32(distance / interp.state.FeedRate * 60_000_000)
		interp.planner.BufferLine(sdx, sdy, sdz, durationUS, distance)
	}

	interp.planner.SetPosition(target)
	return nil
}

// doHome executes G28. Real homing (driving an axis to its endstop) is
// outside this spec's scope; as in the teacher, it marks the requested
// axes homed and zeroes their position.
func (interp *Interpreter) doHome(cmd *Command) error {
	current := interp.planner.CurrentPosition()

	if !cmd.HasParameter('X') && !cmd.HasParameter('Y') && !cmd.HasParameter('Z') {
		interp.state.Homed = [3]bool{true, true, true}
		current.X, current.Y, current.Z = 0, 0, 0
	} else {
		if cmd.HasParameter('X') {
			interp.state.Homed[0] = true
			current.X = 0
		}
		if cmd.HasParameter('Y') {
			interp.state.Homed[1] = true
			current.Y = 0
		}
		if cmd.HasParameter('Z') {
			interp.state.Homed[2] = true
			current.Z = 0
		}
	}

	interp.planner.SetPosition(current)
	return nil
}

// doSetPosition executes G92: redefine the current position without
// moving.
func (interp *Interpreter) doSetPosition(cmd *Command) error {
	current := interp.planner.CurrentPosition()

	if cmd.HasParameter('X') {
		current.X = cmd.GetParameter('X', 0)
	}
	if cmd.HasParameter('Y') {
		current.Y = cmd.GetParameter('Y', 0)
	}
	if cmd.HasParameter('Z') {
		current.Z = cmd.GetParameter('Z', 0)
	}
	if cmd.HasParameter('E') {
		current.E = cmd.GetParameter('E', 0)
	}

	interp.planner.SetPosition(current)
	return nil
}

// State returns the interpreter's current machine state.
func (interp *Interpreter) State() *MachineState {
	return interp.state
}
