// Command benchmark measures ranking quality and latency of an index against
// a set of queries with known answers.
//
// Cases file (YAML):
//
//	- query: how do I install it
//	  expect: guide/setup.md#install
//	- query: what is this project
//	  expect: index.md
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"semsearch/config"
	"semsearch/internal/adapter/analyzer"
	"semsearch/internal/adapter/embedding"
	"semsearch/internal/adapter/retriever"
	"semsearch/internal/adapter/store"
	"semsearch/internal/domain"
)

type benchCase struct {
	Query  string `yaml:"query"`
	Expect string `yaml:"expect"` // "path" or "path#slug"
}

func main() {
	configDir := flag.String("config-dir", ".", "directory holding semsearch.yaml")
	indexPath := flag.String("index", "", "index file (default from config)")
	casesPath := flag.String("cases", "", "YAML file of benchmark cases")
	topK := flag.Int("k", 10, "number of results")
	flag.Parse()

	if *casesPath == "" {
		fmt.Println("Usage: go run ./cmd/benchmark -cases cases.yaml [-index embeddings.json] [-k 10]")
		fmt.Println("\nReports:")
		fmt.Println("  1. Hit@1 and Hit@k: expected section ranked first / within k")
		fmt.Println("  2. MRR: mean reciprocal rank of the expected section")
		fmt.Println("  3. Query latency including embedding")
		os.Exit(1)
	}

	cfg, err := config.LoadFromDir(*configDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	if *indexPath == "" {
		*indexPath = cfg.Store.Output
	}

	index, err := store.NewJSONStore(*indexPath).Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening index: %v\n", err)
		os.Exit(1)
	}

	cases, err := loadCases(*casesPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading cases: %v\n", err)
		os.Exit(1)
	}

	embedder, err := embedding.New(cfg.Embedding)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Embedding not available: %v\n", err)
		os.Exit(1)
	}

	r := retriever.NewSemanticRetriever(embedder, index, retriever.RetrieverOptions{})

	stats := index.Stats()
	fmt.Println("SEMANTIC SEARCH BENCHMARK")
	fmt.Println(strings.Repeat("=", 70))
	fmt.Printf("Index: %s (%s)\n", *indexPath, index.Shape)
	fmt.Printf("Documents: %d, embedded entries: %d\n", stats.Documents, stats.EmbeddedSections)
	fmt.Printf("Model: %s (%s), dimension %d\n", embedder.ModelName(), cfg.Embedding.Provider, embedder.Dimension())
	fmt.Println()

	var hits1, hitsK int
	var reciprocal float64
	var latencies []time.Duration

	for _, c := range cases {
		start := time.Now()
		results, err := r.Search(context.Background(), c.Query, *topK)
		latencies = append(latencies, time.Since(start))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Search error for %q: %v\n", c.Query, err)
			os.Exit(1)
		}

		rank := rankOf(results, c.Expect)
		status := "MISS"
		if rank > 0 {
			hitsK++
			reciprocal += 1 / float64(rank)
			status = fmt.Sprintf("#%d", rank)
			if rank == 1 {
				hits1++
			}
		}
		fmt.Printf("[%-4s] %q -> %s\n", status, c.Query, c.Expect)
		if rank != 1 && len(results) > 0 {
			fmt.Printf("       top: %s (%.3f)\n", target(results[0]), results[0].Score)
		}
	}

	n := float64(len(cases))
	fmt.Println(strings.Repeat("=", 70))
	fmt.Printf("QUALITY METRICS (%d cases):\n", len(cases))
	fmt.Printf("  Hit@1:  %.2f\n", float64(hits1)/n)
	fmt.Printf("  Hit@%d: %.2f\n", *topK, float64(hitsK)/n)
	fmt.Printf("  MRR:    %.3f\n", reciprocal/n)
	fmt.Printf("LATENCY:\n")
	fmt.Printf("  p50: %s\n", percentile(latencies, 0.5))
	fmt.Printf("  p95: %s\n", percentile(latencies, 0.95))
}

func loadCases(path string) ([]benchCase, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cases []benchCase
	if err := yaml.Unmarshal(data, &cases); err != nil {
		return nil, err
	}
	if len(cases) == 0 {
		return nil, fmt.Errorf("no cases in %s", path)
	}
	return cases, nil
}

// target renders a result as "path" or "path#slug".
func target(r domain.RankedResult) string {
	if slug := analyzer.Slugify(r.Header); slug != "" {
		return r.DocumentPath + "#" + slug
	}
	return r.DocumentPath
}

// rankOf returns the 1-based rank of expect, or 0 when absent. An expectation
// without a slug matches any section of the document.
func rankOf(results []domain.RankedResult, expect string) int {
	for i, r := range results {
		if target(r) == expect || (!strings.Contains(expect, "#") && r.DocumentPath == expect) {
			return i + 1
		}
	}
	return 0
}

func percentile(durations []time.Duration, p float64) time.Duration {
	if len(durations) == 0 {
		return 0
	}
	sorted := append([]time.Duration(nil), durations...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	return sorted[int(p*float64(len(sorted)-1))]
}
