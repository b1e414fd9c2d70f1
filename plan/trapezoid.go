package plan

import "math"

// estimateAccelDistance returns the distance (in step events) needed to
// change speed from initialRate to targetRate under constant acceleration.
func estimateAccelDistance(initialRate, targetRate, acceleration float64) float64 {
	return (targetRate*targetRate - initialRate*initialRate) / (2 * acceleration)
}

// intersectionDistance returns the step-event index at which acceleration
// must give way to deceleration so that a block too short to reach cruise
// still lands on finalRate exactly at the end of distance step events.
func intersectionDistance(initialRate, finalRate, acceleration, distance float64) float64 {
	return (2*acceleration*distance - initialRate*initialRate + finalRate*finalRate) / (4 * acceleration)
}

// maxAllowableSpeed returns the fastest speed from which, decelerating at
// the given (negative) acceleration over distance d, one can still reach
// targetVelocity. The radicand can go slightly negative at exact numeric
// boundaries; it is clamped to zero before the square root.
func maxAllowableSpeed(acceleration, targetVelocity, d float64) float64 {
	radicand := targetVelocity*targetVelocity - 2*acceleration*d
	if radicand < 0 {
		radicand = 0
	}
	return math.Sqrt(radicand)
}

// calculateTrapezoidForBlock is the Trapezoid Generator (spec §4.2): given
// entry/exit factors in [0,1], it populates InitialRate, AccelerateUntil
// and DecelerateAfter so the block's profile starts at
// NominalRate*entryFactor, ramps toward NominalRate, cruises, then ramps
// down to NominalRate*exitFactor, across exactly StepEventCount events.
//
// grbl's original stepper_plan.c computes final_rate from entry_factor
// instead of exit_factor, which is wrong: exit_factor is what the next
// block's reverse pass actually constrained. This implementation uses
// exit_factor.
func calculateTrapezoidForBlock(block *Block, entryFactor, exitFactor float64, s Settings) {
	block.EntryFactor = entryFactor

	block.InitialRate = int32(math.Ceil(float64(block.NominalRate) * entryFactor))
	finalRate := int32(math.Ceil(float64(block.NominalRate) * exitFactor))

	accelPerMinute := float64(block.RateDelta) * float64(s.AccelerationTicksPerSecond) * 60.0

	accelSteps := int32(math.Ceil(estimateAccelDistance(
		float64(block.InitialRate), float64(block.NominalRate), accelPerMinute)))
	decelSteps := int32(math.Ceil(estimateAccelDistance(
		float64(block.NominalRate), float64(finalRate), -accelPerMinute)))

	plateauSteps := block.StepEventCount - accelSteps - decelSteps

	if plateauSteps < 0 {
		// Too short to reach cruise: solve for where acceleration must give
		// way to deceleration so the block ends exactly at finalRate.
		accelSteps = int32(math.Ceil(intersectionDistance(
			float64(block.InitialRate), float64(finalRate), accelPerMinute, float64(block.StepEventCount))))
		plateauSteps = block.StepEventCount - 2*accelSteps
	}

	accelSteps = clampI32(accelSteps, 0, block.StepEventCount)
	decelerateAfter := accelSteps + plateauSteps
	decelerateAfter = clampI32(decelerateAfter, accelSteps, block.StepEventCount)

	block.AccelerateUntil = accelSteps
	block.DecelerateAfter = decelerateAfter
}

func clampI32(v, lo, hi int32) int32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
