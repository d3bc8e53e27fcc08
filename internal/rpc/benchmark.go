package rpc

import (
	"context"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/ethclient"
	"golang.org/x/sync/errgroup"
)

// maxConcurrentPings bounds how many endpoints are probed at once.
const maxConcurrentPings = 8

// Pinger reports the head block of the node behind url.
type Pinger interface {
	Ping(ctx context.Context, url string) (uint64, error)
}

// PingFunc adapts a function to Pinger.
type PingFunc func(ctx context.Context, url string) (uint64, error)

func (f PingFunc) Ping(ctx context.Context, url string) (uint64, error) { return f(ctx, url) }

// EthPinger dials url and asks for eth_blockNumber.
var EthPinger Pinger = PingFunc(func(ctx context.Context, url string) (uint64, error) {
	client, err := ethclient.DialContext(ctx, url)
	if err != nil {
		return 0, fmt.Errorf("dial %s: %w", url, err)
	}
	defer client.Close()
	return client.BlockNumber(ctx)
})

// BenchmarkResult holds the result of probing one endpoint.
type BenchmarkResult struct {
	URL         string
	Latency     time.Duration
	BlockNumber uint64
	Err         error
}

// Benchmark probes every url concurrently, each bounded by timeout. Results
// keep the input order.
func Benchmark(ctx context.Context, urls []string, p Pinger, timeout time.Duration) []BenchmarkResult {
	results := make([]BenchmarkResult, len(urls))

	var g errgroup.Group
	g.SetLimit(maxConcurrentPings)
	for i, url := range urls {
		g.Go(func() error {
			pctx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()

			start := time.Now()
			block, err := p.Ping(pctx, url)
			results[i] = BenchmarkResult{
				URL:         url,
				Latency:     time.Since(start),
				BlockNumber: block,
				Err:         err,
			}
			return nil
		})
	}
	g.Wait() //nolint:errcheck
	return results
}

// ResultsToEndpoints converts benchmark results to picker Endpoints.
// Every returned endpoint is marked Checked.
func ResultsToEndpoints(results []BenchmarkResult) []Endpoint {
	endpoints := make([]Endpoint, 0, len(results))
	for _, r := range results {
		endpoints = append(endpoints, Endpoint{
			URL:         r.URL,
			Latency:     r.Latency,
			BlockNumber: r.BlockNumber,
			Healthy:     r.Err == nil,
			Checked:     true,
		})
	}
	return endpoints
}

// Select probes urls and returns the one algo prefers. A single url is
// returned without probing.
func Select(ctx context.Context, urls []string, algo Algorithm, p Pinger, timeout time.Duration) (string, error) {
	switch len(urls) {
	case 0:
		return "", ErrNoHealthyRPC
	case 1:
		return urls[0], nil
	}
	if p == nil {
		p = EthPinger
	}

	winner, err := NewPicker(algo).Pick(ResultsToEndpoints(Benchmark(ctx, urls, p, timeout)))
	if err != nil {
		return "", err
	}
	return winner.URL, nil
}
