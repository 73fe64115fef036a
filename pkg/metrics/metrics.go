// Package metrics documents the Prometheus metrics exposed by the Sintel
// client. The metrics themselves are defined next to the code that drives
// them (pkg/client) and registered automatically via promauto; this package
// only pins the registry and serves as the reference list.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Registry is the Prometheus registerer the client metrics attach to.
var Registry = prometheus.DefaultRegisterer

// Request metrics (pkg/client):
//   - sintel_requests_total{operation, status} (Counter): requests by operation and HTTP status
//   - sintel_request_duration_seconds{operation} (Histogram): dispatch-to-headers latency
//   - sintel_errors_total{kind} (Counter): errors by taxonomy kind
//     (rate_limited, bad_request, unexpected_status, proxy_unreachable, decode)
//   - sintel_gate_wait_seconds{operation} (Histogram): time blocked on a gate permit
//   - sintel_records_total{operation} (Counter): records yielded to callers
//
// Example queries:
//
//   # Error rate by kind
//   rate(sintel_errors_total[5m])
//
//   # P95 request latency per operation
//   histogram_quantile(0.95, rate(sintel_request_duration_seconds_bucket[5m]))
//
//   # Export backpressure: time spent serialized on the export gate
//   rate(sintel_gate_wait_seconds_sum{operation="export"}[5m])
