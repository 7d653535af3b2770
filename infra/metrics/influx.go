package metrics

import (
	"context"
	"math"
	"net/http"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	coremetrics "github.com/kilianp07/parkagent/core/metrics"
	"github.com/kilianp07/parkagent/infra/logger"
)

// InfluxConfig locates the InfluxDB bucket receiving events.
type InfluxConfig struct {
	URL    string `json:"url"`
	Token  string `json:"token"`
	Org    string `json:"org"`
	Bucket string `json:"bucket"`
}

// InfluxSink writes decision and payment events to InfluxDB.
type InfluxSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	log      logger.Logger
}

// NewInfluxSink creates a sink for the given endpoint. A URL ending in the
// write path is accepted.
func NewInfluxSink(cfg InfluxConfig) *InfluxSink {
	base := strings.TrimSuffix(cfg.URL, "/api/v2/write")
	client := influxdb2.NewClientWithOptions(base, cfg.Token,
		influxdb2.DefaultOptions().SetHTTPClient(&http.Client{Timeout: 5 * time.Second}))
	return &InfluxSink{
		client:   client,
		writeAPI: client.WriteAPIBlocking(cfg.Org, cfg.Bucket),
		log:      logger.New("influx-sink"),
	}
}

// NewInfluxSinkWithFallback checks the instance health and returns a NopSink
// when it is unreachable.
func NewInfluxSinkWithFallback(cfg InfluxConfig) coremetrics.MetricsSink {
	sink := NewInfluxSink(cfg)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	health, err := sink.client.Health(ctx)
	if err != nil || health.Status != "pass" {
		if err != nil {
			sink.log.Errorf("influx health check error: %v", err)
		} else {
			sink.log.Errorf("influx health status: %s", health.Status)
		}
		sink.client.Close()
		return coremetrics.NopSink{}
	}
	return sink
}

// DecisionPoint converts ev to its line protocol point.
func DecisionPoint(ev coremetrics.DecisionEvent) *write.Point {
	p := write.NewPointWithMeasurement("decision").
		AddTag("mode", ev.Mode).
		AddTag("urgency", ev.Urgency).
		AddTag("outcome", ev.Outcome()).
		AddTag("decision_id", ev.DecisionID)
	if ev.ProviderID != "" {
		p = p.AddTag("provider_id", ev.ProviderID)
	}
	if ev.Reason != "" {
		p = p.AddField("reason", ev.Reason)
	}
	return p.AddField("score", round3(ev.Score)).
		AddField("estimated_cost", round3(ev.EstimatedCost)).
		AddField("candidates", ev.Candidates).
		AddField("feasible", ev.Feasible).
		AddField("duration_ms", round3(ev.Duration.Seconds()*1000)).
		SetTime(ev.Time)
}

// PaymentPoint converts ev to its line protocol point.
func PaymentPoint(ev coremetrics.PaymentEvent) *write.Point {
	p := write.NewPointWithMeasurement("payment").
		AddTag("decision_id", ev.DecisionID).
		AddTag("provider_id", ev.ProviderID).
		AddField("amount", round3(ev.Amount)).
		AddField("latency_ms", round3(ev.Latency.Seconds()*1000))
	if ev.TxHash != "" {
		p = p.AddField("tx_hash", ev.TxHash)
	}
	if ev.Error != "" {
		p = p.AddField("error", ev.Error)
	}
	return p.SetTime(ev.Time)
}

// RecordDecision implements coremetrics.MetricsSink.
func (s *InfluxSink) RecordDecision(ev coremetrics.DecisionEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.writeAPI.WritePoint(ctx, DecisionPoint(ev))
}

// RecordPayment implements coremetrics.PaymentRecorder.
func (s *InfluxSink) RecordPayment(ev coremetrics.PaymentEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.writeAPI.WritePoint(ctx, PaymentPoint(ev))
}

// Close releases the client.
func (s *InfluxSink) Close() { s.client.Close() }

func round3(v float64) float64 { return math.Round(v*1000) / 1000 }
