// Package metrics instruments the generation pipeline.
//
// # Design
//
// The package follows the Null Object pattern so callers never branch on
// whether metrics are configured: every component defaults to NoopRecorder,
// whose methods compile down to nothing, and calling methods on a nil
// *PrometheusRecorder is equally safe.
//
// # Pieces
//
//  1. Recorder - the interface instrumented components depend on
//  2. NoopRecorder - the default, used when monitoring is disabled
//  3. PrometheusRecorder - histograms/counters/gauges on a Registry
//
// # Wiring
//
// Components take a Recorder by injection and default to NoopRecorder in
// their constructors:
//
//	generator := site.NewGenerator(client, concurrency)
//
// When the server config enables monitoring, the daemon swaps in Prometheus:
//
//	recorder := metrics.NewPrometheusRecorder(registry)
//	generator = generator.WithRecorder(recorder)
//
// Tests use the same seam with in-test capture recorders. The admin server
// exposes the registry through HTTPHandler on the configured metrics path.
package metrics
