// Package bench drives the latency benchmark: every method against every
// endpoint, one request at a time.
package bench

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"

	"github.com/weiihann/rpcbench/config"
	"github.com/weiihann/rpcbench/harness"
	"github.com/weiihann/rpcbench/metrics"
	"github.com/weiihann/rpcbench/workload"
)

// Timer times a single JSON-RPC request. *harness.Timer implements it.
type Timer interface {
	Time(ctx context.Context, ep config.Endpoint, req workload.Request) harness.Result
}

// Config holds orchestration parameters for a Runner.
type Config struct {
	Iterations int
	// Ignore names endpoints to drop before the run starts.
	Ignore  []string
	Verbose bool
}

// Runner executes benchmark runs. Requests are strictly sequential so each
// sample reflects a single outstanding request.
type Runner struct {
	timer   Timer
	gen     *workload.Generator
	cfg     Config
	out     io.Writer
	logger  *slog.Logger
	metrics *metrics.BenchMetrics
}

// NewRunner creates a Runner. Progress lines go to out. m may be nil.
func NewRunner(
	timer Timer,
	gen *workload.Generator,
	cfg Config,
	out io.Writer,
	logger *slog.Logger,
	m *metrics.BenchMetrics,
) *Runner {
	if out == nil {
		out = io.Discard
	}

	return &Runner{
		timer:   timer,
		gen:     gen,
		cfg:     cfg,
		out:     out,
		logger:  logger.With(slog.String("component", "bench")),
		metrics: m,
	}
}

// Run benchmarks each method against each non-ignored endpoint. Request
// failures never abort the run; only context cancellation does.
func (r *Runner) Run(
	ctx context.Context,
	methods []workload.Method,
	endpoints []config.Endpoint,
) (*Results, error) {
	if r.cfg.Iterations < 1 {
		return nil, fmt.Errorf("iterations must be at least 1, got %d", r.cfg.Iterations)
	}

	active := make([]config.Endpoint, 0, len(endpoints))
	for _, ep := range endpoints {
		if slices.Contains(r.cfg.Ignore, ep.Name) {
			r.logger.Debug("skipping ignored endpoint", slog.String("endpoint", ep.Name))
			continue
		}
		if ep.URL == "" {
			r.logger.Warn("endpoint URL is empty, every request will fail",
				slog.String("endpoint", ep.Name))
		}
		active = append(active, ep)
	}

	results := &Results{Methods: make([]MethodResult, 0, len(methods))}

	for _, m := range methods {
		mr := MethodResult{
			Method:    m.Name,
			Endpoints: make([]EndpointResult, 0, len(active)),
		}

		for _, ep := range active {
			er, err := r.runPair(ctx, m, ep)
			if err != nil {
				return nil, err
			}
			mr.Endpoints = append(mr.Endpoints, er)
		}

		results.Methods = append(results.Methods, mr)
	}

	return results, nil
}

func (r *Runner) runPair(
	ctx context.Context,
	m workload.Method,
	ep config.Endpoint,
) (EndpointResult, error) {
	er := EndpointResult{
		Name:    ep.Name,
		Samples: make([]float64, 0, r.cfg.Iterations),
	}

	fmt.Fprintf(r.out, "Benchmarking %s on %s...\n", m.Name, ep.Name)

	for i := 0; i < r.cfg.Iterations; i++ {
		if err := ctx.Err(); err != nil {
			return er, err
		}

		req, block := r.gen.Next(m)
		result := r.timer.Time(ctx, ep, req)
		result.Block = block
		r.metrics.ObserveResult(result)

		if !result.OK() {
			er.Failures++
			r.logger.Warn("request failed",
				slog.String("endpoint", ep.Name),
				slog.String("method", m.Name),
				slog.Int("iteration", i+1),
				slog.String("error", result.Err.Error()),
			)
			continue
		}

		if !result.StatusOK() {
			er.Non2xx++
			r.logger.Warn("non-2xx response",
				slog.String("endpoint", ep.Name),
				slog.String("method", m.Name),
				slog.Int("status", result.StatusCode),
			)
		}

		er.Samples = append(er.Samples, result.Milliseconds())

		if r.cfg.Verbose {
			fmt.Fprintf(r.out, "  [%d/%d] %s %s block=%d: %.2f ms\n",
				i+1, r.cfg.Iterations, ep.Name, m.Name, block, result.Milliseconds())
		}
	}

	fmt.Fprintf(r.out, "Average request time for %s (%s): %.2f ms\n",
		ep.Name, m.Name, er.Mean())

	return er, nil
}
