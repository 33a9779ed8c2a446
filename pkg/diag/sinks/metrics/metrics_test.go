package metrics

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/strongdm/ai-cxdb-diag/pkg/diag"
)

func TestMetricsSink_ImplementsSinkInterface(t *testing.T) {
	s, err := NewMetricsSink(WithRegisterer(prometheus.NewRegistry()))
	require.NoError(t, err)
	var _ diag.Sink = s
}

func TestMetricsSink_CountsEvents(t *testing.T) {
	reg := prometheus.NewRegistry()
	s, err := NewMetricsSink(WithRegisterer(reg), WithNamespace("store"))
	require.NoError(t, err)

	ctx := context.Background()
	events := []diag.ErrorEvent{
		{Severity: diag.SeverityError, ErrorType: "bug", File: "/app/store/journal.go"},
		{Severity: diag.SeverityError, ErrorType: "bug", File: "/build/store/journal.go"},
		{Severity: diag.SeverityFatal, ErrorType: "os_error", File: "/app/store/file.go"},
		{Severity: diag.SeverityWarning, ErrorType: diag.ErrorTypeLog, File: "/app/main.go"},
	}
	for _, e := range events {
		require.NoError(t, s.Write(ctx, e))
	}

	assert.Equal(t, 2.0, testutil.ToFloat64(s.events.WithLabelValues("error", "bug")))
	assert.Equal(t, 1.0, testutil.ToFloat64(s.events.WithLabelValues("fatal", "os_error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(s.events.WithLabelValues("warning", "log")))

	assert.Equal(t, 2.0, testutil.ToFloat64(s.failures.WithLabelValues("bug", "journal.go")))
	assert.Equal(t, 1.0, testutil.ToFloat64(s.failures.WithLabelValues("os_error", "file.go")))
	assert.Equal(t, 2, testutil.CollectAndCount(s.failures), "log lines are not failures")

	n, err := testutil.GatherAndCount(reg, "store_events_total")
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestMetricsSink_DuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := NewMetricsSink(WithRegisterer(reg))
	require.NoError(t, err)

	_, err = NewMetricsSink(WithRegisterer(reg))
	assert.Error(t, err)

	_, err = NewMetricsSink(WithRegisterer(reg), WithNamespace("other"))
	assert.NoError(t, err)
}

func TestMetricsSink_FlushAndClose(t *testing.T) {
	s, err := NewMetricsSink(WithRegisterer(prometheus.NewRegistry()))
	require.NoError(t, err)
	assert.NoError(t, s.Flush(context.Background()))
	assert.NoError(t, s.Close())
}
