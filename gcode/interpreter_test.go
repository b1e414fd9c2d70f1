package gcode

import (
	"testing"

	"stepplan/config"
	"stepplan/kinematics"
)

type bufferedLine struct {
	dx, dy, dz int32
	durationUS uint32
	lengthMM   float64
}

type fakePlanner struct {
	pos   kinematics.Position
	lines []bufferedLine
}

func (f *fakePlanner) BufferLine(dx, dy, dz int32, durationUS uint32, lengthMM float64) {
	f.lines = append(f.lines, bufferedLine{dx, dy, dz, durationUS, lengthMM})
}

func (f *fakePlanner) CurrentPosition() kinematics.Position { return f.pos }

func (f *fakePlanner) SetPosition(pos kinematics.Position) { f.pos = pos }

func newTestInterpreter(t *testing.T) (*Interpreter, *fakePlanner) {
	t.Helper()
	cfg := config.DefaultCartesianConfig()
	kin, err := kinematics.NewCartesian(cfg)
	if err != nil {
		t.Fatalf("NewCartesian: %v", err)
	}
	fp := &fakePlanner{}
	interp := NewInterpreter(kin, fp, [3]float64{80, 80, 400}, 3000)
	return interp, fp
}

func TestG1MoveBuffersALine(t *testing.T) {
	interp, fp := newTestInterpreter(t)
	parser := NewParser()

	cmd, _ := parser.ParseLine("G1 X10 Y0 Z0 F6000")
	if err := interp.Execute(cmd); err != nil {
		t.Fatalf("Execute: %v", err)
	}

	if len(fp.lines) != 1 {
		t.Fatalf("expected 1 buffered line, got %d", len(fp.lines))
	}
	line := fp.lines[0]
	if line.dx != 800 { // 10mm * 80 steps/mm
		t.Errorf("expected dx=800, got %d", line.dx)
	}
	if line.lengthMM != 10 {
		t.Errorf("expected length_mm=10, got %v", line.lengthMM)
	}
	if fp.pos.X != 10 {
		t.Errorf("expected current position X=10 after the move, got %v", fp.pos.X)
	}
}

func TestG1ZeroLengthMoveIsNoOp(t *testing.T) {
	interp, fp := newTestInterpreter(t)
	parser := NewParser()

	cmd, _ := parser.ParseLine("G1 X0 Y0 Z0")
	if err := interp.Execute(cmd); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if len(fp.lines) != 0 {
		t.Errorf("expected no buffered lines for a zero-length move, got %d", len(fp.lines))
	}
}

func TestG1RejectsOutOfLimitsMove(t *testing.T) {
	interp, fp := newTestInterpreter(t)
	parser := NewParser()

	cmd, _ := parser.ParseLine("G1 X99999")
	if err := interp.Execute(cmd); err == nil {
		t.Error("expected an error for a move past the axis travel limit")
	}
	if len(fp.lines) != 0 {
		t.Errorf("expected no buffered lines for a rejected move, got %d", len(fp.lines))
	}
}

func TestG91RelativeMove(t *testing.T) {
	interp, fp := newTestInterpreter(t)
	parser := NewParser()

	for _, line := range []string{"G91", "G1 X5", "G1 X5"} {
		cmd, _ := parser.ParseLine(line)
		if err := interp.Execute(cmd); err != nil {
			t.Fatalf("Execute(%q): %v", line, err)
		}
	}

	if fp.pos.X != 10 {
		t.Errorf("expected X=10 after two relative +5 moves, got %v", fp.pos.X)
	}
}

func TestG92SetsPositionWithoutMoving(t *testing.T) {
	interp, fp := newTestInterpreter(t)
	parser := NewParser()

	cmd, _ := parser.ParseLine("G92 X5 Y5")
	if err := interp.Execute(cmd); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if len(fp.lines) != 0 {
		t.Errorf("expected G92 not to buffer a move, got %d", len(fp.lines))
	}
	if fp.pos.X != 5 || fp.pos.Y != 5 {
		t.Errorf("expected position (5,5), got (%v,%v)", fp.pos.X, fp.pos.Y)
	}
}

func TestG28HomesAllAxesToZero(t *testing.T) {
	interp, fp := newTestInterpreter(t)
	fp.pos = kinematics.Position{X: 50, Y: 50, Z: 50}

	parser := NewParser()
	cmd, _ := parser.ParseLine("G28")
	if err := interp.Execute(cmd); err != nil {
		t.Fatalf("Execute: %v", err)
	}

	if fp.pos.X != 0 || fp.pos.Y != 0 || fp.pos.Z != 0 {
		t.Errorf("expected position to zero after G28, got %+v", fp.pos)
	}
	for i, homed := range interp.State().Homed {
		if !homed {
			t.Errorf("expected axis %d marked homed after G28", i)
		}
	}
}

func TestM104SetsInertTargetTemperature(t *testing.T) {
	interp, _ := newTestInterpreter(t)
	parser := NewParser()

	cmd, _ := parser.ParseLine("M104 S200")
	if err := interp.Execute(cmd); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if got := interp.State().TargetTemp["extruder"]; got != 200 {
		t.Errorf("expected extruder target temp 200, got %v", got)
	}
}
