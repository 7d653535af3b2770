// Package infra contains technical adapters: the provider catalog file,
// payment rails, metrics sinks, the MQTT event publisher, Sentry and the
// zerolog logger. These packages depend only on the interfaces defined in
// the core packages.
package infra
