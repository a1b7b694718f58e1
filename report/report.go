// Package report formats benchmark results into comparison tables and
// persists them as timestamped artifacts.
package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/weiihann/rpcbench/bench"
)

// TimestampLayout is the ISO-8601 UTC layout used in artifact names.
const TimestampLayout = "2006-01-02T15:04:05.000Z"

// LatestResultsFile is overwritten on every run.
const LatestResultsFile = "results.txt"

// Artifacts lists the files written by WriteArtifacts.
type Artifacts struct {
	RawPath     string
	SummaryPath string
	LatestPath  string
}

// WriteArtifacts writes raw samples and summary means as timestamped JSON
// under dir/data, and the flattened text report to dir/results.txt.
func WriteArtifacts(dir string, results *bench.Results, now time.Time) (Artifacts, error) {
	ts := now.UTC().Format(TimestampLayout)

	artifacts := Artifacts{
		RawPath:     filepath.Join(dir, "data", "raw", fmt.Sprintf("results-%s.json", ts)),
		SummaryPath: filepath.Join(dir, "data", fmt.Sprintf("results-%s.json", ts)),
		LatestPath:  filepath.Join(dir, LatestResultsFile),
	}

	if err := os.MkdirAll(filepath.Dir(artifacts.RawPath), 0o755); err != nil {
		return artifacts, fmt.Errorf("create raw results dir: %w", err)
	}

	raw, err := json.MarshalIndent(rawJSON(results), "", "  ")
	if err != nil {
		return artifacts, fmt.Errorf("encode raw results: %w", err)
	}
	if err := os.WriteFile(artifacts.RawPath, raw, 0o644); err != nil {
		return artifacts, fmt.Errorf("write raw results: %w", err)
	}

	summary, err := json.MarshalIndent(summaryJSON(results), "", "  ")
	if err != nil {
		return artifacts, fmt.Errorf("encode summary results: %w", err)
	}
	if err := os.WriteFile(artifacts.SummaryPath, summary, 0o644); err != nil {
		return artifacts, fmt.Errorf("write summary results: %w", err)
	}

	if err := os.WriteFile(artifacts.LatestPath, []byte(FormatText(results)), 0o644); err != nil {
		return artifacts, fmt.Errorf("write latest results: %w", err)
	}

	return artifacts, nil
}

// FormatText renders one block per method: the method name, then one
// "<endpoint>: <mean> ms" line per endpoint. Blocks are separated by a
// blank line.
func FormatText(results *bench.Results) string {
	blocks := make([]string, 0, len(results.Methods))
	for _, m := range results.Methods {
		lines := make([]string, 0, len(m.Endpoints)+1)
		lines = append(lines, m.Method)
		for _, ep := range m.Endpoints {
			lines = append(lines, fmt.Sprintf("%s: %s", ep.Name, formatMs(ep.Mean())))
		}
		blocks = append(blocks, strings.Join(lines, "\n"))
	}

	return strings.Join(blocks, "\n\n") + "\n"
}

// Generate writes a markdown comparison table for the given results.
func Generate(w io.Writer, results *bench.Results) error {
	if results == nil || len(results.Methods) == 0 {
		return fmt.Errorf("no results to report")
	}

	fmt.Fprintln(w, "## Benchmark Results")
	fmt.Fprintln(w)

	fmt.Fprintln(w, "| Method | Endpoint | Samples | Failures "+
		"| Mean | Min | Max | Slowdown |")
	fmt.Fprintln(w, "|--------|----------|---------|----------"+
		"|------|-----|-----|----------|")

	for _, m := range results.Methods {
		fastest := findFastest(m.Endpoints)

		for _, ep := range m.Endpoints {
			mean := ep.Mean()
			slowdown := "-"
			if fastest > 0 && !math.IsNaN(mean) {
				slowdown = fmt.Sprintf("%.2fx", mean/fastest)
			}

			minMs, maxMs := math.NaN(), math.NaN()
			if len(ep.Samples) > 0 {
				minMs, maxMs = slices.Min(ep.Samples), slices.Max(ep.Samples)
			}

			fmt.Fprintf(w, "| %s | %s | %d | %d | %s | %s | %s | %s |\n",
				m.Method,
				ep.Name,
				len(ep.Samples),
				ep.Failures,
				formatMs(mean),
				formatMs(minMs),
				formatMs(maxMs),
				slowdown,
			)
		}
	}

	return nil
}

// GenerateJSON writes summary means as JSON to w.
func GenerateJSON(w io.Writer, results *bench.Results) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	return enc.Encode(summaryJSON(results))
}

// object is a JSON object that keeps its keys in insertion order, so
// artifacts list methods and endpoints in benchmark order.
type object []member

type member struct {
	key   string
	value any
}

func (o object) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, m := range o {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(m.key)
		if err != nil {
			return nil, err
		}
		value, err := json.Marshal(m.value)
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", m.key, err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func rawJSON(results *bench.Results) object {
	out := make(object, 0, len(results.Methods))
	for _, m := range results.Methods {
		samples := make(object, 0, len(m.Endpoints))
		for _, ep := range m.Endpoints {
			s := ep.Samples
			if s == nil {
				s = []float64{}
			}
			samples = append(samples, member{key: ep.Name, value: s})
		}
		out = append(out, member{key: m.Method, value: samples})
	}
	return out
}

// summaryJSON maps NaN means to nil so they encode as null; JSON has no NaN.
func summaryJSON(results *bench.Results) object {
	out := make(object, 0, len(results.Methods))
	for _, m := range results.Methods {
		means := make(object, 0, len(m.Endpoints))
		for _, ep := range m.Endpoints {
			var mean *float64
			if v := ep.Mean(); !math.IsNaN(v) {
				mean = &v
			}
			means = append(means, member{key: ep.Name, value: mean})
		}
		out = append(out, member{key: m.Method, value: means})
	}
	return out
}

func findFastest(endpoints []bench.EndpointResult) float64 {
	fastest := math.Inf(1)
	for _, ep := range endpoints {
		if mean := ep.Mean(); !math.IsNaN(mean) && mean > 0 && mean < fastest {
			fastest = mean
		}
	}

	if math.IsInf(fastest, 1) {
		return 0
	}

	return fastest
}

func formatMs(ms float64) string {
	return fmt.Sprintf("%.2f ms", ms)
}
