package harness

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/weiihann/rpcbench/config"
	"github.com/weiihann/rpcbench/types"
	"github.com/weiihann/rpcbench/workload"
)

// Config holds HTTP client settings for a Timer.
type Config struct {
	// Timeout bounds a whole request. Zero means no timeout.
	Timeout time.Duration
	// KeepAlive reuses connections between requests. When false every
	// sample includes connection setup and TLS handshake.
	KeepAlive bool
}

// Timer issues JSON-RPC POSTs and measures their wall-clock duration.
// It never logs; callers decide what to do with a failed Result.
type Timer struct {
	client *http.Client
}

// NewTimer creates a Timer with its own transport.
func NewTimer(cfg Config) *Timer {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.DisableKeepAlives = !cfg.KeepAlive

	return &Timer{
		client: &http.Client{
			Transport: transport,
			Timeout:   cfg.Timeout,
		},
	}
}

// NewTimerWithClient creates a Timer that sends through client.
func NewTimerWithClient(client *http.Client) *Timer {
	return &Timer{client: client}
}

// Time posts req to ep.URL and returns the elapsed time between sending the
// request and receiving the response headers. The response body is drained
// after the clock stops and is never parsed.
func (t *Timer) Time(
	ctx context.Context,
	ep config.Endpoint,
	req workload.Request,
) Result {
	result := Result{Endpoint: ep.Name, Method: req.Method}

	body, err := json.Marshal(req)
	if err != nil {
		result.Err = fmt.Errorf("encode %s request: %w", req.Method, err)
		return result
	}

	httpReq, err := http.NewRequestWithContext(
		ctx, http.MethodPost, ep.URL, bytes.NewReader(body),
	)
	if err != nil {
		result.Err = types.NewNetworkError(ep.Name, ep.URL, err)
		return result
	}
	httpReq.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := t.client.Do(httpReq)
	elapsed := time.Since(start)

	if err != nil {
		result.Err = types.NewNetworkError(ep.Name, ep.URL, err)
		return result
	}

	_, _ = io.Copy(io.Discard, resp.Body)
	resp.Body.Close()

	result.Duration = elapsed
	result.StatusCode = resp.StatusCode

	return result
}
