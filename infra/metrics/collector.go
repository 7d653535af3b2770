package metrics

import (
	"context"

	coremetrics "github.com/kilianp07/parkagent/core/metrics"
	"github.com/kilianp07/parkagent/infra/logger"
	"github.com/kilianp07/parkagent/internal/eventbus"
)

// StartEventCollector subscribes to bus and records each event in sink.
// The returned channel is closed once the collector has stopped, which
// happens when ctx is canceled or the bus is closed.
func StartEventCollector(ctx context.Context, bus *eventbus.Bus[coremetrics.Event], sink coremetrics.MetricsSink, log logger.Logger) <-chan struct{} {
	done := make(chan struct{})
	if bus == nil || sink == nil {
		close(done)
		return done
	}
	if log == nil {
		log = logger.NopLogger{}
	}
	sub := bus.Subscribe()
	go func() {
		defer close(done)
		defer bus.Unsubscribe(sub)
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-sub:
				if !ok {
					return
				}
				if err := record(sink, ev); err != nil {
					log.Warnf("metrics sink: %v", err)
				}
			}
		}
	}()
	return done
}

func record(sink coremetrics.MetricsSink, ev coremetrics.Event) error {
	switch e := ev.(type) {
	case coremetrics.DecisionEvent:
		return sink.RecordDecision(e)
	case coremetrics.PaymentEvent:
		if r, ok := sink.(coremetrics.PaymentRecorder); ok {
			return r.RecordPayment(e)
		}
	}
	return nil
}
