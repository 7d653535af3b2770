// Package metrics defines the events emitted around each parking decision and
// the sinks that record them. Sinks are built from configuration through the
// registry in this package; infra/metrics registers the Prometheus and
// InfluxDB implementations. Several configured sinks are combined in a
// MultiSink.
package metrics
