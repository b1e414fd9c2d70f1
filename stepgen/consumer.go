// Package stepgen simulates the real-time step pulse generator that spec
// §1 treats as an external collaborator of the planner: something that
// reads the block at the queue's tail, paces its own virtual clock through
// the block's trapezoid, and reports back when it is ready for the next
// one. It exists so the planner is runnable and testable end to end
// without real stepper silicon underneath it.
package stepgen

import (
	"fmt"
	"math"
	"sync"

	"stepplan/core"
	"stepplan/plan"
)

// Consumer drains a plan.Planner's queue in its own goroutine. It owns no
// producer-side state and never writes to a block; it only reads the
// BlockView copy plan.Planner.WaitNextBlock hands it, exactly as §5
// requires of the consumer context.
//
// Grounded on the teacher's standalone/stepgen.Stepper: where that type
// re-arms a single core.Timer between a step pulse and its step-down edge
// to walk a constant-velocity move, Consumer re-arms one between the
// trapezoid's region boundaries (accelerate_until, decelerate_after,
// step_event_count) to walk the planner's full ramp/cruise/ramp profile.
type Consumer struct {
	planner *plan.Planner
	wg      sync.WaitGroup
}

// NewConsumer creates a stepper consumer bound to planner and starts its
// consumer goroutine. The goroutine runs until planner.Close is called
// (directly, or via the owning machine.Manager.Close).
func NewConsumer(planner *plan.Planner) *Consumer {
	c := &Consumer{planner: planner}
	c.wg.Add(1)
	go c.run()
	return c
}

// Wait blocks until the consumer goroutine has exited, which only happens
// once the bound planner is closed. Callers that close the planner
// themselves should Wait afterward to know the consumer has stopped
// touching it.
func (c *Consumer) Wait() {
	c.wg.Wait()
}

// Synchronize blocks until the queue this consumer drains is fully empty.
// It is the external collaborator interface §1 names, implemented by
// delegating to the planner that actually owns the queue's lock and
// condition variable.
func (c *Consumer) Synchronize() {
	c.planner.Synchronize()
}

// SleepUntilProgress blocks until this consumer finishes at least one more
// block than it had when called. Like Synchronize, it delegates to the
// planner, which is the only thing holding the queue's mutex/cond pair.
func (c *Consumer) SleepUntilProgress() {
	c.planner.SleepUntilProgress()
}

func (c *Consumer) run() {
	defer c.wg.Done()
	for {
		view, ok := c.planner.WaitNextBlock()
		if !ok {
			return
		}
		c.executeBlock(view)
		c.planner.FinishBlock()
	}
}

// executeBlock advances the virtual step clock across the three regions
// of a block's trapezoid: accelerating from InitialRate to NominalRate,
// cruising at NominalRate, and decelerating from NominalRate to whatever
// rate RateDelta implies the block lands on at StepEventCount. Only the
// region boundaries are scheduled as core.Timer wake points, not every
// individual step event, since a simulated consumer has no pulse hardware
// to actually drive at per-step granularity.
func (c *Consumer) executeBlock(b plan.BlockView) {
	settings := c.planner.Settings()
	accelPerMinute := float64(b.RateDelta) * float64(settings.AccelerationTicksPerSecond) * 60.0

	decelSteps := float64(b.StepEventCount - b.DecelerateAfter)
	finalRateSq := float64(b.NominalRate)*float64(b.NominalRate) - 2*accelPerMinute*decelSteps
	if finalRateSq < 0 {
		finalRateSq = 0
	}
	finalRate := int32(math.Sqrt(finalRateSq))

	core.RecordTiming(core.EvtBlockAdmit, 0, core.GetTime(), uint32(b.StepEventCount), 0)
	if core.IsDebugEnabled() {
		core.DebugAsync(fmt.Sprintf("[stepgen] block steps=%d accel_until=%d decel_after=%d nominal_rate=%d final_rate=%d",
			b.StepEventCount, b.AccelerateUntil, b.DecelerateAfter, b.NominalRate, finalRate))
	}

	regions := [3]struct {
		steps            int32
		fromRate, toRate int32
	}{
		{b.AccelerateUntil, b.InitialRate, b.NominalRate},
		{b.DecelerateAfter - b.AccelerateUntil, b.NominalRate, b.NominalRate},
		{b.StepEventCount - b.DecelerateAfter, b.NominalRate, finalRate},
	}

	for _, r := range regions {
		if r.steps <= 0 {
			continue
		}
		avgRate := (r.fromRate + r.toRate) / 2
		if avgRate <= 0 {
			avgRate = 1
		}
		elapsedUS := uint32(float64(r.steps) * 60_000_000 / float64(avgRate))
		c.armRegionTimer(core.TimerFromUS(elapsedUS))
	}
}

// armRegionTimer re-arms a single core.Timer to wake elapsedTicks after the
// current virtual clock, schedules it through the same ScheduleTimer/
// TimerDispatch path a real ISR would use, and advances the virtual clock
// to the timer's wake point before dispatching it. Grounded on the
// teacher's standalone/stepgen.Stepper, which re-arms one core.Timer
// between a step pulse and its step-down edge; here one region of the
// trapezoid (ramp, cruise, or ramp-down) takes the place of one step.
func (c *Consumer) armRegionTimer(elapsedTicks uint32) {
	wake := core.GetTime() + elapsedTicks
	timer := &core.Timer{WakeTime: wake}
	timer.Handler = func(t *core.Timer) uint8 { return core.SF_DONE }

	core.ScheduleTimer(timer)
	core.SetTime(wake)
	core.ProcessTimers()
}
