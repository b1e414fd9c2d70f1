package plan

import "math"

// junctionSpeed bounds the speed block may enter its junction with
// previous at. previous is nil when block is being admitted into an
// empty queue, in which case the junction is a start from rest.
//
// The two blocks' per-axis cruise speeds are treated as velocity vectors
// (signed by direction); the junction's jerk is the euclidean distance
// between them. A jerk under the configured maximum is free: block may
// enter at whichever is slower of the two nominal speeds. Past the
// maximum, entry speed is scaled down by maxJerk/jerk.
func junctionSpeed(previous, block *Block, maxJerk float64) float64 {
	if previous == nil {
		return 0
	}

	dx := signedAxisSpeed(block.SpeedX, block.DirectionBits, XDirectionBit) -
		signedAxisSpeed(previous.SpeedX, previous.DirectionBits, XDirectionBit)
	dy := signedAxisSpeed(block.SpeedY, block.DirectionBits, YDirectionBit) -
		signedAxisSpeed(previous.SpeedY, previous.DirectionBits, YDirectionBit)
	dz := signedAxisSpeed(block.SpeedZ, block.DirectionBits, ZDirectionBit) -
		signedAxisSpeed(previous.SpeedZ, previous.DirectionBits, ZDirectionBit)

	jerk := math.Sqrt(dx*dx + dy*dy + dz*dz)
	if jerk <= maxJerk {
		if previous.NominalSpeed < block.NominalSpeed {
			return previous.NominalSpeed
		}
		return block.NominalSpeed
	}
	return block.NominalSpeed * (maxJerk / jerk)
}
