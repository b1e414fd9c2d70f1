package machine

import (
	"testing"
	"time"

	"stepplan/config"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	mgr, err := NewManagerWithConfig(config.DefaultCartesianConfig())
	if err != nil {
		t.Fatalf("NewManagerWithConfig: %v", err)
	}
	return mgr
}

func TestProcessLineMovesAndSynchronizes(t *testing.T) {
	mgr := newTestManager(t)
	defer mgr.Close()

	if err := mgr.ProcessLine("G1 X10 Y10 F6000"); err != nil {
		t.Fatalf("ProcessLine: %v", err)
	}

	done := make(chan struct{})
	go func() {
		mgr.Synchronize()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Synchronize did not return within 1s")
	}

	pos := mgr.CurrentPosition()
	if pos.X != 10 || pos.Y != 10 {
		t.Errorf("expected position (10,10), got (%v,%v)", pos.X, pos.Y)
	}
}

func TestProcessByteAssemblesLines(t *testing.T) {
	mgr := newTestManager(t)
	defer mgr.Close()

	for _, b := range []byte("G1 X5\n") {
		if err := mgr.ProcessByte(b); err != nil {
			t.Fatalf("ProcessByte: %v", err)
		}
	}

	mgr.Synchronize()
	if pos := mgr.CurrentPosition(); pos.X != 5 {
		t.Errorf("expected X=5 after streamed line, got %v", pos.X)
	}
}

func TestAccelerationManagementToggle(t *testing.T) {
	mgr := newTestManager(t)
	defer mgr.Close()

	if !mgr.AccelerationManagementEnabled() {
		t.Fatal("expected acceleration management enabled by default")
	}
	mgr.DisableAccelerationManagement()
	if mgr.AccelerationManagementEnabled() {
		t.Error("expected acceleration management disabled")
	}
	mgr.EnableAccelerationManagement()
	if !mgr.AccelerationManagementEnabled() {
		t.Error("expected acceleration management re-enabled")
	}
}

func TestSnapshotIsEmptyOnceDrained(t *testing.T) {
	mgr := newTestManager(t)
	defer mgr.Close()

	if err := mgr.ProcessLine("G1 X1 F100"); err != nil {
		t.Fatalf("ProcessLine: %v", err)
	}
	mgr.Synchronize()

	if depth := mgr.QueueDepth(); depth != 0 {
		t.Errorf("expected queue depth 0 after Synchronize, got %d", depth)
	}
	if snap := mgr.Snapshot(); len(snap) != 0 {
		t.Errorf("expected empty snapshot after Synchronize, got %d entries", len(snap))
	}
}

func TestUnsupportedKinematicsIsRejected(t *testing.T) {
	cfg := config.DefaultCartesianConfig()
	cfg.Kinematics = "delta"
	if _, err := NewManagerWithConfig(cfg); err == nil {
		t.Error("expected an error for unsupported kinematics")
	}
}
