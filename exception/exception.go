package exception

import (
	"runtime/debug"

	"github.com/starnotary/notary/logx"
	"github.com/starnotary/notary/monitoring"
)

// ReportPanic logs a recovered value with its stack and counts it.
func ReportPanic(name string, r interface{}) {
	monitoring.IncreasePanicCount()
	logx.Error("PANIC", "Panic in ", name, ": ", r, "\n", string(debug.Stack()))
}

// SafeGo runs fn on a new goroutine. A panic in fn is reported and the
// goroutine ends without taking the process down.
func SafeGo(name string, fn func()) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				ReportPanic(name, r)
			}
		}()
		fn()
	}()
}
