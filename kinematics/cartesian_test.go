package kinematics

import (
	"testing"

	"stepplan/config"
)

func TestNewCartesianRequiresXYZ(t *testing.T) {
	cfg := &config.MachineConfig{Axes: map[string]config.AxisConfig{
		"x": {StepsPerMM: 80, MaxPosition: 200},
		"y": {StepsPerMM: 80, MaxPosition: 200},
	}}
	if _, err := NewCartesian(cfg); err == nil {
		t.Error("expected an error when Z axis is missing")
	}
}

func TestCartesianCalcSteps(t *testing.T) {
	cfg := config.DefaultCartesianConfig()
	k, err := NewCartesian(cfg)
	if err != nil {
		t.Fatalf("NewCartesian: %v", err)
	}

	from := Position{X: 0, Y: 0, Z: 0}
	to := Position{X: 10, Y: -5, Z: 1}
	stepsPerMM := [3]float64{100, 100, 400}

	dx, dy, dz := k.CalcSteps(from, to, stepsPerMM)
	if dx != 1000 {
		t.Errorf("expected dx=1000, got %d", dx)
	}
	if dy != -500 {
		t.Errorf("expected dy=-500, got %d", dy)
	}
	if dz != 400 {
		t.Errorf("expected dz=400, got %d", dz)
	}
}

func TestCartesianCheckLimits(t *testing.T) {
	cfg := config.DefaultCartesianConfig()
	k, err := NewCartesian(cfg)
	if err != nil {
		t.Fatalf("NewCartesian: %v", err)
	}

	if err := k.CheckLimits(Position{X: 10, Y: 10, Z: 10}); err != nil {
		t.Errorf("expected an in-bounds position to pass, got %v", err)
	}
	if err := k.CheckLimits(Position{X: -1, Y: 10, Z: 10}); err == nil {
		t.Error("expected an out-of-bounds X position to fail")
	}
}
