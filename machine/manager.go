// Package machine coordinates the motion planner, the simulated stepper
// consumer, and the G-code front end into one runnable unit, generalizing
// the teacher's standalone.Manager to the real plan.Planner/stepgen.Consumer
// pair rather than a GPIO-driven Planner.
package machine

import (
	"errors"
	"sync"

	"stepplan/config"
	"stepplan/gcode"
	"stepplan/kinematics"
	"stepplan/plan"
	"stepplan/stepgen"
)

// Manager owns one machine's full pipeline: config, kinematics, planner,
// consumer, and G-code interpreter. It implements gcode.Planner itself,
// tracking the interpreter's notion of "current position" independently
// of whatever has actually drained from the block queue, exactly as the
// teacher's front end does.
type Manager struct {
	cfg  *config.MachineConfig
	kin  kinematics.Kinematics
	plan *plan.Planner
	cons *stepgen.Consumer

	parser *gcode.Parser
	interp *gcode.Interpreter

	posMu sync.Mutex
	pos   kinematics.Position

	inputBuffer []byte

	running bool
}

// NewManager loads configData as a machine configuration and wires up a
// complete planner/consumer/interpreter pipeline for it.
func NewManager(configData []byte) (*Manager, error) {
	cfg, err := config.LoadConfig(configData)
	if err != nil {
		return nil, err
	}
	return NewManagerWithConfig(cfg)
}

// NewManagerWithConfig wires up a pipeline from an already-loaded config.
func NewManagerWithConfig(cfg *config.MachineConfig) (*Manager, error) {
	var kin kinematics.Kinematics
	var err error

	switch cfg.Kinematics {
	case "cartesian", "":
		kin, err = kinematics.NewCartesian(cfg)
	default:
		return nil, errors.New("unsupported kinematics: " + cfg.Kinematics)
	}
	if err != nil {
		return nil, err
	}

	planSettings := cfg.ToPlanSettings()
	planner, err := plan.NewPlanner(planSettings)
	if err != nil {
		return nil, err
	}

	mgr := &Manager{
		cfg:         cfg,
		kin:         kin,
		plan:        planner,
		parser:      gcode.NewParser(),
		inputBuffer: make([]byte, 0, 256),
	}

	mgr.interp = gcode.NewInterpreter(kin, mgr, planSettings.StepsPerMM, cfg.DefaultFeedRate)
	mgr.cons = stepgen.NewConsumer(planner)
	mgr.running = true

	return mgr, nil
}

// BufferLine implements gcode.Planner by forwarding straight to the
// motion planner.
func (m *Manager) BufferLine(dx, dy, dz int32, durationUS uint32, lengthMM float64) {
	m.plan.BufferLine(dx, dy, dz, durationUS, lengthMM)
}

// CurrentPosition implements gcode.Planner.
func (m *Manager) CurrentPosition() kinematics.Position {
	m.posMu.Lock()
	defer m.posMu.Unlock()
	return m.pos
}

// SetPosition implements gcode.Planner.
func (m *Manager) SetPosition(pos kinematics.Position) {
	m.posMu.Lock()
	m.pos = pos
	m.posMu.Unlock()
}

// ProcessLine parses and executes a single line of G-code.
func (m *Manager) ProcessLine(line string) error {
	if !m.running {
		return errors.New("machine not running")
	}

	cmd, err := m.parser.ParseLine(line)
	if err != nil {
		return err
	}
	if cmd == nil {
		return nil
	}
	return m.interp.Execute(cmd)
}

// ProcessByte feeds one byte of a streamed G-code source, executing a
// line each time a terminator is seen. It mirrors the teacher's
// byte-at-a-time serial ingestion path.
func (m *Manager) ProcessByte(b byte) error {
	m.inputBuffer = append(m.inputBuffer, b)

	if b != '\n' && b != '\r' {
		return nil
	}

	line := string(m.inputBuffer)
	m.inputBuffer = m.inputBuffer[:0]

	for len(line) > 0 && (line[len(line)-1] == '\n' || line[len(line)-1] == '\r' || line[len(line)-1] == ' ') {
		line = line[:len(line)-1]
	}
	if len(line) == 0 {
		return nil
	}
	return m.ProcessLine(line)
}

// Synchronize blocks until every buffered move has drained from the
// planner.
func (m *Manager) Synchronize() {
	m.plan.Synchronize()
}

// Snapshot returns the planner's current queue contents for status
// reporting.
func (m *Manager) Snapshot() []plan.BlockSnapshot {
	return m.plan.Snapshot()
}

// QueueDepth returns the number of blocks currently queued.
func (m *Manager) QueueDepth() int {
	return m.plan.QueueDepth()
}

// EnableAccelerationManagement turns the look-ahead optimizer back on.
func (m *Manager) EnableAccelerationManagement() {
	m.plan.EnableAccelerationManagement()
}

// DisableAccelerationManagement switches the planner to constant-rate
// mode.
func (m *Manager) DisableAccelerationManagement() {
	m.plan.DisableAccelerationManagement()
}

// AccelerationManagementEnabled reports the planner's current mode.
func (m *Manager) AccelerationManagementEnabled() bool {
	return m.plan.AccelerationManagementEnabled()
}

// State returns the interpreter's current machine state.
func (m *Manager) State() *gcode.MachineState {
	return m.interp.State()
}

// Close stops the simulated stepper consumer and the planner, and waits
// for the consumer goroutine to exit.
func (m *Manager) Close() {
	m.running = false
	m.plan.Close()
	m.cons.Wait()
}
