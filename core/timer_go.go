//go:build !tinygo

package core

import "sync/atomic"

var systemTicks uint32

// getSystemTicks returns the current system ticks (regular Go implementation).
// The planner's producer goroutine and the simulated stepper consumer
// goroutine both call GetTime concurrently, so this is atomic even off
// TinyGo (the teacher's !tinygo build left this unguarded).
func getSystemTicks() uint32 {
	return atomic.LoadUint32(&systemTicks)
}

// setSystemTicks sets the system ticks (regular Go implementation)
func setSystemTicks(ticks uint32) {
	atomic.StoreUint32(&systemTicks, ticks)
}
