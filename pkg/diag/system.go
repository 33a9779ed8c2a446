// system.go snapshots process state for fatal events.

package diag

import (
	"os"
	"runtime"
	"time"
)

// processStart is used for uptime when no start time is configured.
var processStart = time.Now()

// CaptureSystemState snapshots memory, goroutines, uptime since startTime
// and host identity. A zero startTime measures from package initialization.
func CaptureSystemState(startTime time.Time) *SystemState {
	if startTime.IsZero() {
		startTime = processStart
	}

	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)

	state := &SystemState{
		MemoryBytes:    int64(ms.Alloc),
		GoroutineCount: runtime.NumGoroutine(),
		UptimeMs:       max(time.Since(startTime).Milliseconds(), 0),
		PID:            os.Getpid(),
		GoVersion:      runtime.Version(),
	}
	// An unknown hostname leaves the field empty.
	state.HostName, _ = os.Hostname()
	return state
}
