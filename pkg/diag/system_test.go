package diag

import (
	"os"
	"runtime"
	"testing"
	"time"
)

func TestCaptureSystemState_PopulatesFields(t *testing.T) {
	state := CaptureSystemState(time.Now().Add(-1 * time.Second))

	if state.MemoryBytes <= 0 {
		t.Errorf("MemoryBytes = %d, want > 0", state.MemoryBytes)
	}
	if state.GoroutineCount < 1 {
		t.Errorf("GoroutineCount = %d, want >= 1", state.GoroutineCount)
	}
	if state.UptimeMs < 1000 {
		t.Errorf("UptimeMs = %d, want >= 1000", state.UptimeMs)
	}
	if state.PID != os.Getpid() {
		t.Errorf("PID = %d, want %d", state.PID, os.Getpid())
	}
	if state.GoVersion != runtime.Version() {
		t.Errorf("GoVersion = %q, want %q", state.GoVersion, runtime.Version())
	}
}

func TestCaptureSystemState_ZeroStartUsesProcessStart(t *testing.T) {
	state := CaptureSystemState(time.Time{})

	if limit := time.Since(processStart).Milliseconds() + 1; state.UptimeMs > limit {
		t.Errorf("UptimeMs = %d, want <= %d", state.UptimeMs, limit)
	}
}

func TestCaptureSystemState_FutureStartClampsToZero(t *testing.T) {
	state := CaptureSystemState(time.Now().Add(time.Hour))
	if state.UptimeMs != 0 {
		t.Errorf("UptimeMs = %d, want 0", state.UptimeMs)
	}
}
