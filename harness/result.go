// Package harness times single JSON-RPC round trips against an endpoint.
package harness

import "time"

// Result is the outcome of one timed request. A non-nil Err means the
// round trip never completed and Duration carries no meaning. A completed
// round trip with a non-2xx status is still a valid sample.
type Result struct {
	Endpoint   string
	Method     string
	Block      uint64
	Duration   time.Duration
	StatusCode int
	Err        error
}

// OK reports whether the round trip completed.
func (r Result) OK() bool {
	return r.Err == nil
}

// StatusOK reports whether the endpoint answered with a 2xx status.
func (r Result) StatusOK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Milliseconds returns Duration as fractional milliseconds.
func (r Result) Milliseconds() float64 {
	return float64(r.Duration) / float64(time.Millisecond)
}
