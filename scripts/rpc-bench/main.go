// rpc-bench: probes every built-in RPC endpoint (mainnet + testnet) in
// parallel and prints latency, head block and the endpoint the picker would
// choose.
//
// Run from the module root:
//
//	go run ./scripts/rpc-bench
//	go run ./scripts/rpc-bench -algorithm failover -network base
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"sync"
	"text/tabwriter"
	"time"

	"github.com/Mohsinsiddi/w3dapp/internal/chain"
	"github.com/Mohsinsiddi/w3dapp/internal/rpc"
)

const pingTimeout = 8 * time.Second

type row struct {
	chain  string
	mode   string
	result rpc.BenchmarkResult
	picked bool
}

func main() {
	algorithm := flag.String("algorithm", "fastest", "fastest or failover")
	only := flag.String("network", "", "bench one network only")
	flag.Parse()

	reg := chain.NewRegistry()
	algo := rpc.ParseAlgorithm(*algorithm)

	var (
		mu   sync.Mutex
		wg   sync.WaitGroup
		rows = map[string][]row{}
	)

	for _, c := range reg.All() {
		if *only != "" && !strings.EqualFold(c.Name, *only) {
			continue
		}
		for _, mode := range []string{chain.ModeMainnet, chain.ModeTestnet} {
			urls := c.RPCs(mode)
			if len(urls) == 0 {
				continue
			}
			wg.Add(1)
			go func(name, mode string, urls []string) {
				defer wg.Done()
				results := rpc.Benchmark(context.Background(), urls, rpc.EthPinger, pingTimeout)

				var winner string
				if ep, err := rpc.NewPicker(algo).Pick(rpc.ResultsToEndpoints(results)); err == nil {
					winner = ep.URL
				}

				out := make([]row, 0, len(results))
				for _, r := range results {
					out = append(out, row{chain: name, mode: mode, result: r, picked: r.URL == winner})
				}
				mu.Lock()
				rows[name+"|"+mode] = out
				mu.Unlock()
			}(c.Name, mode, urls)
		}
	}
	wg.Wait()

	printTable(reg, rows)
}

func printTable(reg *chain.Registry, rows map[string][]row) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "CHAIN\tMODE\tURL\tLATENCY\tBLOCK\tNOTE")

	for _, name := range reg.Names() {
		for _, mode := range []string{chain.ModeMainnet, chain.ModeTestnet} {
			for _, r := range rows[name+"|"+mode] {
				latency, block, note := "-", "-", ""
				if r.result.Err != nil {
					note = shortErr(r.result.Err)
				} else {
					latency = r.result.Latency.Round(time.Millisecond).String()
					block = fmt.Sprintf("%d", r.result.BlockNumber)
				}
				if r.picked {
					note = "selected"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n", r.chain, r.mode, r.result.URL, latency, block, note)
			}
		}
	}
	w.Flush()
}

func shortErr(err error) string {
	s := err.Error()
	if len(s) > 40 {
		return s[:40] + "…"
	}
	return s
}
