package monitoring

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coremon "github.com/kilianp07/parkagent/core/monitoring"
)

func TestNewSentryMonitor_NoDSN(t *testing.T) {
	m, err := NewSentryMonitor(Config{})
	require.NoError(t, err)
	assert.IsType(t, coremon.NopMonitor{}, m)
}

func TestNewSentryMonitor_BadDSN(t *testing.T) {
	_, err := NewSentryMonitor(Config{DSN: "not a dsn"})
	assert.Error(t, err)
}

func TestSentryMonitor_CaptureWithTags(t *testing.T) {
	var (
		mu     sync.Mutex
		events []*sentry.Event
	)
	m, err := newSentryMonitor(sentry.ClientOptions{
		Dsn: "https://public@example.com/1",
		BeforeSend: func(ev *sentry.Event, _ *sentry.EventHint) *sentry.Event {
			mu.Lock()
			events = append(events, ev)
			mu.Unlock()
			return nil
		},
	})
	require.NoError(t, err)

	m.CaptureException(errors.New("payment gateway down"), map[string]string{"module": "payment"})
	m.CaptureException(nil, nil)
	m.Flush(time.Second)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, events, 1)
	assert.Equal(t, "payment", events[0].Tags["module"])
	require.NotEmpty(t, events[0].Exception)
	assert.Equal(t, "payment gateway down", events[0].Exception[0].Value)
}

func TestConfig_Validate(t *testing.T) {
	assert.NoError(t, Config{TracesSampleRate: 0.5}.Validate())
	assert.Error(t, Config{TracesSampleRate: 2}.Validate())
}
