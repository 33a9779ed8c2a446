package diag

import (
	"context"
	"fmt"
	"runtime"
	"strings"
	"sync"
	"testing"
)

// mockFatal is the panic value mockCallback uses to leave OnFatal.
type mockFatal struct{}

// mockCallback renders every dispatch into text, the way a test harness
// would capture diagnostics.
type mockCallback struct {
	mu          sync.Mutex
	text        strings.Builder
	recoverable int
	fatal       int
	logs        int
	failures    []*Failure
}

func (m *mockCallback) OnRecoverable(ctx context.Context, f *Failure) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recoverable++
	m.failures = append(m.failures, f)
	m.text.WriteString("recoverable exception: " + f.Error() + "\n")
}

func (m *mockCallback) OnFatal(ctx context.Context, f *Failure) {
	m.mu.Lock()
	m.fatal++
	m.failures = append(m.failures, f)
	m.text.WriteString("fatal exception: " + f.Error() + "\n")
	m.mu.Unlock()
	panic(mockFatal{})
}

func (m *mockCallback) LogMessage(ctx context.Context, text string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.logs++
	m.text.WriteString("log message: " + text)
}

// take returns the captured text and clears it.
func (m *mockCallback) take() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.text.String()
	m.text.Reset()
	return s
}

func (m *mockCallback) calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.recoverable + m.fatal + m.logs
}

// withMock registers a fresh mockCallback on a background context.
func withMock() (context.Context, *mockCallback) {
	mock := &mockCallback{}
	return WithCallback(context.Background(), mock), mock
}

// fileLine returns "<file>:<line>" for the line delta lines below the caller.
func fileLine(delta int) string {
	_, file, line, _ := runtime.Caller(1)
	return fmt.Sprintf("%s:%d", file, line+delta)
}

// setLogLevel changes the threshold for the duration of a test.
func setLogLevel(t *testing.T, s Severity) {
	t.Helper()
	prev := LogLevel()
	SetLogLevel(s)
	t.Cleanup(func() { SetLogLevel(prev) })
}
