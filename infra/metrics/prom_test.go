package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coremetrics "github.com/kilianp07/parkagent/core/metrics"
)

func TestPromSink_RecordDecision(t *testing.T) {
	reg := prometheus.NewRegistry()
	sink, err := NewPromSinkWithRegistry(reg)
	require.NoError(t, err)

	require.NoError(t, sink.RecordDecision(coremetrics.DecisionEvent{Mode: "static", OK: true, Score: 1.3, Candidates: 4}))
	require.NoError(t, sink.RecordDecision(coremetrics.DecisionEvent{Mode: "static", Reason: "All providers exceed price limit", Candidates: 4}))
	require.NoError(t, sink.RecordDecision(coremetrics.DecisionEvent{Mode: "scenario", OK: true, Score: 0.4, Candidates: 2}))

	assert.Equal(t, 1.0, testutil.ToFloat64(sink.decisions.WithLabelValues("static", "ok", "")))
	assert.Equal(t, 1.0, testutil.ToFloat64(sink.decisions.WithLabelValues("static", "rejected", "All providers exceed price limit")))
	assert.Equal(t, 1.0, testutil.ToFloat64(sink.decisions.WithLabelValues("scenario", "ok", "")))
	assert.Equal(t, 2.0, testutil.ToFloat64(sink.candidates.WithLabelValues("scenario")))
	assert.Equal(t, 3, testutil.CollectAndCount(sink.decisions))
	assert.Equal(t, 2, testutil.CollectAndCount(sink.scores))
}

func TestPromSink_RecordPayment(t *testing.T) {
	reg := prometheus.NewRegistry()
	sink, err := NewPromSinkWithRegistry(reg)
	require.NoError(t, err)

	require.NoError(t, sink.RecordPayment(coremetrics.PaymentEvent{Amount: 1.5, Latency: time.Second}))
	require.NoError(t, sink.RecordPayment(coremetrics.PaymentEvent{Error: "gateway down"}))

	assert.Equal(t, 1.0, testutil.ToFloat64(sink.payments.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(sink.payments.WithLabelValues("failed")))
}

func TestPromSink_ReusesRegisteredCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	first, err := NewPromSinkWithRegistry(reg)
	require.NoError(t, err)
	second, err := NewPromSinkWithRegistry(reg)
	require.NoError(t, err)

	require.NoError(t, first.RecordDecision(coremetrics.DecisionEvent{Mode: "static", OK: true}))
	require.NoError(t, second.RecordDecision(coremetrics.DecisionEvent{Mode: "static", OK: true}))
	assert.Equal(t, 2.0, testutil.ToFloat64(first.decisions.WithLabelValues("static", "ok", "")))
}
