package plan

import (
	"math"
	"testing"
)

func TestJunctionSpeedNilPreviousIsRestStart(t *testing.T) {
	s := testSettings()
	b := buildBlock(1000, 0, 0, 1_000_000, 10.0, nil, s)
	if got := junctionSpeed(nil, b, s.MaxJerk); got != 0 {
		t.Errorf("expected 0 for a block with no predecessor, got %v", got)
	}
}

func TestJunctionSpeedColinearSameDirectionHasZeroJerk(t *testing.T) {
	s := testSettings()
	prev := buildBlock(1000, 0, 0, 1_000_000, 10.0, nil, s)
	cur := buildBlock(1000, 0, 0, 1_000_000, 10.0, prev, s)

	// Same speed, same direction: zero jerk, so entry is free up to the
	// slower of the two nominal speeds (here, equal).
	got := junctionSpeed(prev, cur, s.MaxJerk)
	if got != cur.NominalSpeed {
		t.Errorf("expected junction speed %v (unclamped), got %v", cur.NominalSpeed, got)
	}
}

func TestJunctionSpeedOrthogonalTurnScalesByJerkRatio(t *testing.T) {
	s := testSettings()
	prev := buildBlock(1000, 0, 0, 1_000_000, 10.0, nil, s) // speed_x=600
	cur := buildBlock(0, 1000, 0, 1_000_000, 10.0, prev, s) // speed_y=600

	jerk := 600.0 * math.Sqrt2
	want := cur.NominalSpeed * (s.MaxJerk / jerk)

	got := junctionSpeed(prev, cur, s.MaxJerk)
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("expected junction speed %v, got %v", want, got)
	}
}

func Test180DegreeReversalForcesLowEntrySpeed(t *testing.T) {
	s := testSettings()
	prev := buildBlock(1000, 0, 0, 1_000_000, 10.0, nil, s)  // +X at 600 mm/min
	cur := buildBlock(-1000, 0, 0, 1_000_000, 10.0, prev, s) // -X at 600 mm/min

	jerk := 1200.0 // full reversal: velocity delta is 2x the cruise speed
	want := cur.NominalSpeed * (s.MaxJerk / jerk)

	got := junctionSpeed(prev, cur, s.MaxJerk)
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("expected junction speed %v, got %v", want, got)
	}
	if got >= cur.NominalSpeed {
		t.Errorf("reversal junction speed %v should be far below nominal %v", got, cur.NominalSpeed)
	}
}
