package rpc_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Mohsinsiddi/w3dapp/internal/rpc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeNodes answers pings from a table; unknown urls fail.
type fakeNodes struct {
	heads map[string]uint64
	delay map[string]time.Duration
	calls atomic.Int32
}

func (f *fakeNodes) Ping(ctx context.Context, url string) (uint64, error) {
	f.calls.Add(1)
	if d := f.delay[url]; d > 0 {
		select {
		case <-time.After(d):
		case <-ctx.Done():
			return 0, ctx.Err()
		}
	}
	h, ok := f.heads[url]
	if !ok {
		return 0, errors.New("connection refused")
	}
	return h, nil
}

func TestBenchmarkKeepsOrder(t *testing.T) {
	nodes := &fakeNodes{heads: map[string]uint64{"a": 10, "c": 12}}

	results := rpc.Benchmark(context.Background(), []string{"a", "b", "c"}, nodes, time.Second)

	require.Len(t, results, 3)
	assert.Equal(t, "a", results[0].URL)
	assert.Equal(t, uint64(10), results[0].BlockNumber)
	assert.Error(t, results[1].Err)
	assert.Equal(t, uint64(12), results[2].BlockNumber)
}

func TestBenchmarkTimeout(t *testing.T) {
	nodes := &fakeNodes{
		heads: map[string]uint64{"slow": 1},
		delay: map[string]time.Duration{"slow": time.Second},
	}

	results := rpc.Benchmark(context.Background(), []string{"slow"}, nodes, 20*time.Millisecond)

	require.Len(t, results, 1)
	assert.ErrorIs(t, results[0].Err, context.DeadlineExceeded)
}

func TestResultsToEndpoints(t *testing.T) {
	assert.Empty(t, rpc.ResultsToEndpoints(nil))

	eps := rpc.ResultsToEndpoints([]rpc.BenchmarkResult{
		{URL: "ok", Latency: 50 * time.Millisecond, BlockNumber: 100},
		{URL: "dead", Err: errors.New("refused")},
	})
	require.Len(t, eps, 2)
	assert.True(t, eps[0].Healthy)
	assert.True(t, eps[0].Checked)
	assert.Equal(t, 50*time.Millisecond, eps[0].Latency)
	assert.False(t, eps[1].Healthy)
	assert.True(t, eps[1].Checked)
}

func TestSelectSingleURLSkipsPing(t *testing.T) {
	nodes := &fakeNodes{}

	url, err := rpc.Select(context.Background(), []string{"only"}, rpc.AlgorithmFastest, nodes, time.Second)

	require.NoError(t, err)
	assert.Equal(t, "only", url)
	assert.Zero(t, nodes.calls.Load())
}

func TestSelectEmpty(t *testing.T) {
	_, err := rpc.Select(context.Background(), nil, rpc.AlgorithmFastest, nil, time.Second)
	assert.ErrorIs(t, err, rpc.ErrNoHealthyRPC)
}

func TestSelectSkipsDeadEndpoints(t *testing.T) {
	nodes := &fakeNodes{heads: map[string]uint64{"backup": 50}}

	url, err := rpc.Select(context.Background(), []string{"primary", "backup"}, rpc.AlgorithmFailover, nodes, time.Second)

	require.NoError(t, err)
	assert.Equal(t, "backup", url)
}

func TestSelectAllDead(t *testing.T) {
	nodes := &fakeNodes{}

	_, err := rpc.Select(context.Background(), []string{"a", "b"}, rpc.AlgorithmFastest, nodes, time.Second)
	assert.ErrorIs(t, err, rpc.ErrNoHealthyRPC)
}
