package core

import "sync/atomic"

// shutdownFlag is set once the simulated firmware has hit an unrecoverable
// condition (a timer too far in the past to trust, most often meaning the
// step rate asked of the consumer outran the virtual clock).
var shutdownFlag uint32

// TryShutdown marks the simulated firmware as shut down and logs the
// reason. Adapted from the teacher's core/commands.go TryShutdown, trimmed
// of the ADC/GPIO/I2C peripheral teardown that belonged to the MCU-protocol
// side this repo no longer implements.
func TryShutdown(reason string) {
	if atomic.CompareAndSwapUint32(&shutdownFlag, 0, 1) {
		DebugPrintln("[SHUTDOWN] " + reason)
	}
}

// IsShutdown reports whether TryShutdown has been called.
func IsShutdown() bool {
	return atomic.LoadUint32(&shutdownFlag) != 0
}

// ResetShutdown clears the shutdown flag, used between test runs.
func ResetShutdown() {
	atomic.StoreUint32(&shutdownFlag, 0)
}
