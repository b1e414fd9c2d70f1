package plan

import (
	"sync"
	"sync/atomic"

	"stepplan/core"
)

// BlockView is a read-only, self-contained copy of the fields a step
// generator needs to execute one block. It exists so the consumer never
// holds a pointer into the live ring buffer past the instant it grabs a
// block: once copied, the optimizer is free to keep rewriting the
// buffer's trapezoids without the consumer observing a half-updated one.
type BlockView struct {
	StepsX, StepsY, StepsZ uint32
	DirectionBits          uint8
	StepEventCount         int32
	InitialRate            int32
	NominalRate            int32
	RateDelta              int32
	AccelerateUntil        int32
	DecelerateAfter        int32
}

// BlockSnapshot is a read-only introspection view of a queued block,
// returned by Planner.Snapshot for status reporting; unlike BlockView it
// keeps the plan-level fields (entry factor, nominal speed) rather than
// the step-rate fields a consumer executes.
type BlockSnapshot struct {
	EntryFactor     float64
	StepEventCount  int32
	AccelerateUntil int32
	DecelerateAfter int32
	NominalSpeed    float64
}

// Planner is the motion planner: it accepts line segments as they are
// computed by the kinematics and gcode front ends, queues them as
// Blocks, and runs the look-ahead optimizer across the queue so that
// consecutive blocks blend through their shared junction instead of
// always slowing to a stop.
type Planner struct {
	q        *queue
	settings Settings

	accelManagement uint32 // atomic bool; 1 = look-ahead optimizer runs on admission

	closeOnce sync.Once
	stopCh    chan struct{}
}

// NewPlanner validates settings and constructs a Planner with an empty
// queue of the configured capacity. Acceleration management starts
// enabled.
func NewPlanner(s Settings) (*Planner, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}
	p := &Planner{
		q:        newQueue(s.BlockBufferSize),
		settings: s,
		stopCh:   make(chan struct{}),
	}
	atomic.StoreUint32(&p.accelManagement, 1)
	return p, nil
}

// BufferLine admits one straight-line move, expressed as signed step
// deltas for each axis plus the move's intended duration and cartesian
// length, into the planner's queue. It blocks if the queue is full,
// woken once the consumer finishes a block and advances the tail. A
// zero-length move (all deltas zero) is silently dropped.
func (p *Planner) BufferLine(dx, dy, dz int32, durationUS uint32, lengthMM float64) {
	p.q.mu.Lock()
	defer p.q.mu.Unlock()

	for p.q.fullLocked() {
		select {
		case <-p.stopCh:
			return
		default:
		}
		core.RecordTiming(core.EvtQueueFull, 0, core.GetTime(), 0, 0)
		p.q.cond.Wait()
	}
	idx := p.q.head

	var previous *Block
	if idx != p.q.tail {
		previous = &p.q.slots[p.q.prevIndex(idx)]
	}

	b := buildBlock(dx, dy, dz, durationUS, lengthMM, previous, p.settings)
	if b == nil {
		return
	}

	accelManagement := atomic.LoadUint32(&p.accelManagement) != 0
	if accelManagement {
		calculateTrapezoidForBlock(b, 0, 0, p.settings)
	} else {
		b.AccelerateUntil = 0
		b.DecelerateAfter = 0
		b.RateDelta = 0
	}

	p.q.slots[idx] = *b
	p.q.publishLocked()
	core.RecordTiming(core.EvtBlockAdmit, 0, core.GetTime(), uint32(b.StepEventCount), 0)

	if accelManagement {
		p.recalculateLocked()
		core.RecordTiming(core.EvtRecalculate, 0, core.GetTime(), 0, 0)
	}
}

// Synchronize blocks until the queue has fully drained, or until Close
// is called. It is the host-facing equivalent of waiting for the
// simulated stepper to catch up to the planner.
func (p *Planner) Synchronize() {
	p.q.mu.Lock()
	defer p.q.mu.Unlock()
	for !p.q.emptyLocked() {
		select {
		case <-p.stopCh:
			return
		default:
		}
		p.q.cond.Wait()
	}
}

// SleepUntilProgress blocks until the consumer finishes at least one more
// block (advances the queue's tail) than it had when this was called, or
// until Close is called. It is the host-facing equivalent of a producer
// that only needs to know "has anything drained yet", as opposed to
// Synchronize's "has everything drained".
func (p *Planner) SleepUntilProgress() {
	p.q.mu.Lock()
	defer p.q.mu.Unlock()
	start := p.q.generation
	for p.q.generation == start {
		select {
		case <-p.stopCh:
			return
		default:
		}
		p.q.cond.Wait()
	}
}

// EnableAccelerationManagement turns the look-ahead optimizer back on.
// It synchronizes first so the switch never lands mid-block.
func (p *Planner) EnableAccelerationManagement() {
	p.Synchronize()
	atomic.StoreUint32(&p.accelManagement, 1)
}

// DisableAccelerationManagement switches to constant-rate mode, where
// every new block gets rate_delta=0 and accelerate_until=decelerate_after=0
// (no ramps) and no look-ahead runs. It synchronizes first for the same
// reason Enable does.
func (p *Planner) DisableAccelerationManagement() {
	p.Synchronize()
	atomic.StoreUint32(&p.accelManagement, 0)
}

// AccelerationManagementEnabled reports the current mode.
func (p *Planner) AccelerationManagementEnabled() bool {
	return atomic.LoadUint32(&p.accelManagement) != 0
}

// Settings returns the configuration the planner was constructed with.
func (p *Planner) Settings() Settings {
	return p.settings
}

// WaitNextBlock blocks until a block is available at the tail of the
// queue and returns a copy of the fields a consumer needs to execute it.
// It returns ok=false if Close is called before one becomes available.
func (p *Planner) WaitNextBlock() (BlockView, bool) {
	p.q.mu.Lock()
	defer p.q.mu.Unlock()
	for p.q.emptyLocked() {
		select {
		case <-p.stopCh:
			return BlockView{}, false
		default:
		}
		p.q.cond.Wait()
		select {
		case <-p.stopCh:
			return BlockView{}, false
		default:
		}
	}
	b := &p.q.slots[p.q.tail]
	return BlockView{
		StepsX:          b.StepsX,
		StepsY:          b.StepsY,
		StepsZ:          b.StepsZ,
		DirectionBits:   b.DirectionBits,
		StepEventCount:  b.StepEventCount,
		InitialRate:     b.InitialRate,
		NominalRate:     b.NominalRate,
		RateDelta:       b.RateDelta,
		AccelerateUntil: b.AccelerateUntil,
		DecelerateAfter: b.DecelerateAfter,
	}, true
}

// FinishBlock advances the tail past the block the consumer just
// finished executing, waking any producer parked on a full queue and
// any goroutine waiting in Synchronize.
func (p *Planner) FinishBlock() {
	p.q.mu.Lock()
	p.q.advanceTailLocked()
	p.q.mu.Unlock()
	core.RecordTiming(core.EvtBlockConsumed, 0, core.GetTime(), 0, 0)
}

// Snapshot returns a read-only copy of every block currently queued,
// oldest first, for status reporting.
func (p *Planner) Snapshot() []BlockSnapshot {
	p.q.mu.Lock()
	defer p.q.mu.Unlock()

	out := make([]BlockSnapshot, 0, p.q.lenLocked())
	for idx := p.q.tail; idx != p.q.head; idx = p.q.nextIndex(idx) {
		b := &p.q.slots[idx]
		out = append(out, BlockSnapshot{
			EntryFactor:     b.EntryFactor,
			StepEventCount:  b.StepEventCount,
			AccelerateUntil: b.AccelerateUntil,
			DecelerateAfter: b.DecelerateAfter,
			NominalSpeed:    b.NominalSpeed,
		})
	}
	return out
}

// QueueDepth returns the number of blocks currently queued.
func (p *Planner) QueueDepth() int {
	p.q.mu.Lock()
	defer p.q.mu.Unlock()
	return int(p.q.lenLocked())
}

// Close unblocks any goroutine parked in Synchronize or WaitNextBlock.
// It is idempotent.
func (p *Planner) Close() {
	p.closeOnce.Do(func() {
		close(p.stopCh)
		p.q.mu.Lock()
		p.q.cond.Broadcast()
		p.q.mu.Unlock()
	})
}
