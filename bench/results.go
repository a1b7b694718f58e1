package bench

import "math"

// EndpointResult holds every sample collected for one endpoint under one
// method, in request order.
type EndpointResult struct {
	Name string
	// Samples are round-trip durations in milliseconds. Failed requests
	// are not included.
	Samples  []float64
	Failures int
	Non2xx   int
}

// Mean returns the arithmetic mean of Samples, or NaN when there are none.
func (e EndpointResult) Mean() float64 {
	return Mean(e.Samples)
}

// MethodResult groups endpoint results for one JSON-RPC method.
type MethodResult struct {
	Method    string
	Endpoints []EndpointResult
}

// Results is the outcome of a full run, ordered by method then endpoint.
type Results struct {
	Methods []MethodResult
}

// Raw returns samples keyed by method then endpoint. Endpoints with no
// samples map to an empty, non-nil slice.
func (r *Results) Raw() map[string]map[string][]float64 {
	raw := make(map[string]map[string][]float64, len(r.Methods))
	for _, m := range r.Methods {
		byEndpoint := make(map[string][]float64, len(m.Endpoints))
		for _, ep := range m.Endpoints {
			samples := ep.Samples
			if samples == nil {
				samples = []float64{}
			}
			byEndpoint[ep.Name] = samples
		}
		raw[m.Method] = byEndpoint
	}
	return raw
}

// Summary returns means keyed by method then endpoint. NaN marks an
// endpoint that produced no samples.
func (r *Results) Summary() map[string]map[string]float64 {
	summary := make(map[string]map[string]float64, len(r.Methods))
	for _, m := range r.Methods {
		byEndpoint := make(map[string]float64, len(m.Endpoints))
		for _, ep := range m.Endpoints {
			byEndpoint[ep.Name] = ep.Mean()
		}
		summary[m.Method] = byEndpoint
	}
	return summary
}

// Mean returns the arithmetic mean of samples, or NaN for an empty slice.
func Mean(samples []float64) float64 {
	if len(samples) == 0 {
		return math.NaN()
	}

	var sum float64
	for _, s := range samples {
		sum += s
	}
	return sum / float64(len(samples))
}
