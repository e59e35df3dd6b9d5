// Package prometheus provides Prometheus collectors for zauth metrics.
//
// [NewPrometheusExporter] accepts a [zauth.Engine] and exposes an [http.Handler]
// that renders all zauth counters and histograms in Prometheus text exposition format.
// Counter names are prefixed zauth_*_total; the single histogram is
// zauth_verify_latency_seconds.
//
// # What this package must NOT do
//
//   - Register metrics in a global Prometheus registry — callers mount the Handler.
//   - Mutate engine state.
package prometheus
