package client

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"
)

const (
	// DefaultLatencyURL is Cloudflare's zero-byte download endpoint used for latency sampling
	DefaultLatencyURL = "https://speed.cloudflare.com/__down?bytes=0"

	// DefaultLatencySamples is the number of round trips per measurement
	DefaultLatencySamples = 25

	latencyTimeout = 10 * time.Second
)

// LatencyTester measures round-trip latency to an edge endpoint
type LatencyTester interface {
	MeasureLatency(ctx context.Context, samples int) (results []float64, avg float64, err error)
}

// CloudflareLatency measures latency against Cloudflare's speed test edge.
// Each sample is the HTTP round trip minus the server processing time the
// edge reports in its Server-Timing header.
type CloudflareLatency struct {
	url  string
	http *http.Client
}

// NewCloudflareLatency creates a latency tester for the given endpoint
func NewCloudflareLatency(url string) *CloudflareLatency {
	return &CloudflareLatency{
		url:  url,
		http: &http.Client{Timeout: latencyTimeout},
	}
}

// MeasureLatency runs samples sequential requests and returns each latency
// in milliseconds along with their arithmetic mean.
func (c *CloudflareLatency) MeasureLatency(ctx context.Context, samples int) ([]float64, float64, error) {
	if samples <= 0 {
		return nil, 0, fmt.Errorf("latency: sample count must be positive, got %d", samples)
	}

	results := make([]float64, 0, samples)
	for i := 0; i < samples; i++ {
		ms, err := c.sample(ctx)
		if err != nil {
			return nil, 0, fmt.Errorf("latency sample %d/%d: %w", i+1, samples, err)
		}
		results = append(results, ms)
	}

	return results, Mean(results), nil
}

func (c *CloudflareLatency) sample(ctx context.Context) (float64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return 0, fmt.Errorf("%w: build request: %v", ErrTransport, err)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrTransport, err)
	}
	_, err = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseSize))
	resp.Body.Close()
	elapsed := float64(time.Since(start).Microseconds()) / 1000.0
	if err != nil {
		return 0, fmt.Errorf("%w: read body: %v", ErrTransport, err)
	}
	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("%w: unexpected status %s", ErrTransport, resp.Status)
	}

	latency := elapsed - serverDuration(resp.Header.Get("Server-Timing"))
	if latency < 0 {
		latency = 0
	}
	return latency, nil
}

// serverDuration extracts cfRequestDuration from a Server-Timing header.
// Returns 0 if the metric is not present or malformed.
func serverDuration(header string) float64 {
	for _, metric := range strings.Split(header, ",") {
		parts := strings.Split(strings.TrimSpace(metric), ";")
		if strings.TrimSpace(parts[0]) != "cfRequestDuration" {
			continue
		}
		for _, param := range parts[1:] {
			key, value, ok := strings.Cut(strings.TrimSpace(param), "=")
			if !ok || key != "dur" {
				continue
			}
			if d, err := strconv.ParseFloat(value, 64); err == nil {
				return d
			}
		}
	}
	return 0
}

// Mean returns the arithmetic mean of values, or 0 for an empty slice
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
