package rpc

import (
	"errors"
	"sync"
	"time"
)

// ErrNoHealthyRPC is returned when no healthy RPC endpoint is available.
var ErrNoHealthyRPC = errors.New("no healthy RPC endpoint available")

// Algorithm defines how an RPC endpoint is selected.
type Algorithm string

const (
	AlgorithmFastest  Algorithm = "fastest"
	AlgorithmFailover Algorithm = "failover"

	// Discard nodes more than this many blocks behind the best.
	staleBlockThreshold = 3
	// Cache winner for this duration before re-scoring.
	cacheTTL = 5 * time.Minute
)

// ParseAlgorithm maps a config value to an Algorithm, defaulting to fastest.
func ParseAlgorithm(s string) Algorithm {
	if Algorithm(s) == AlgorithmFailover {
		return AlgorithmFailover
	}
	return AlgorithmFastest
}

// Endpoint is one RPC URL with its measured attributes.
type Endpoint struct {
	URL         string
	Latency     time.Duration
	BlockNumber uint64
	Healthy     bool // meaningful only when Checked
	Checked     bool
}

// usable reports whether e may be selected. Unchecked endpoints always are.
func (e *Endpoint) usable() bool {
	return !e.Checked || e.Healthy
}

// Picker selects an endpoint according to its algorithm.
type Picker struct {
	algo        Algorithm
	mu          sync.Mutex
	cachedURL   string
	cacheExpiry time.Time
	onScore     func()
}

// NewPicker creates a new Picker with the given algorithm.
func NewPicker(algo Algorithm) *Picker {
	return &Picker{algo: algo}
}

// OnScore registers a hook called each time the fastest picker re-scores
// its candidates instead of reusing the cached winner.
func (p *Picker) OnScore(fn func()) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onScore = fn
}

// Pick selects an endpoint from the provided list.
func (p *Picker) Pick(endpoints []Endpoint) (*Endpoint, error) {
	if len(endpoints) == 0 {
		return nil, ErrNoHealthyRPC
	}
	if p.algo == AlgorithmFailover {
		return pickFailover(endpoints)
	}
	return p.pickFastest(endpoints)
}

func (p *Picker) pickFastest(endpoints []Endpoint) (*Endpoint, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.cachedURL != "" && time.Now().Before(p.cacheExpiry) {
		for i := range endpoints {
			if endpoints[i].URL == p.cachedURL && endpoints[i].usable() {
				return &endpoints[i], nil
			}
		}
	}
	if p.onScore != nil {
		p.onScore()
	}

	var head uint64
	for i := range endpoints {
		if endpoints[i].usable() && endpoints[i].BlockNumber > head {
			head = endpoints[i].BlockNumber
		}
	}

	var (
		winner *Endpoint
		best   float64
	)
	for i := range endpoints {
		e := &endpoints[i]
		if !e.usable() || head-e.BlockNumber > staleBlockThreshold {
			continue
		}
		if s := score(e, head); winner == nil || s > best {
			winner, best = e, s
		}
	}
	if winner == nil {
		return nil, ErrNoHealthyRPC
	}

	p.cachedURL = winner.URL
	p.cacheExpiry = time.Now().Add(cacheTTL)
	return winner, nil
}

// pickFailover returns the first endpoint in list order that is usable.
func pickFailover(endpoints []Endpoint) (*Endpoint, error) {
	for i := range endpoints {
		if endpoints[i].usable() {
			return &endpoints[i], nil
		}
	}
	return nil, ErrNoHealthyRPC
}

// score favours low latency, then block recency. Endpoints without a latency
// sample score on recency alone.
func score(e *Endpoint, head uint64) float64 {
	var s float64
	if us := e.Latency.Microseconds(); us > 0 {
		s += 1e6 / float64(us)
	}
	if head > 0 {
		s -= float64(head - e.BlockNumber)
	}
	return s
}
