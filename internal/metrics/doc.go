// Package metrics provides Prometheus metrics for monitoring.
//
// Key metrics:
//   - Stream connection state, frame rates by variant, reconnects
//   - Router fan-out deliveries
//   - View reloads, merges and query errors per view kind
//   - Journal batch sizes, flush latency and write errors
//
// A nil *Metrics is valid and records nothing, so components can take it as
// an optional dependency.
package metrics
