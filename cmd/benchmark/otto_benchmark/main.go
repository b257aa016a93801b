// Comparison benchmark: evaluates the same expression cases with
// robertkrimen/otto, a full JavaScript interpreter, to put jsexpr's numbers
// in context. Run the jsexpr side with `go test -bench .` at the module
// root.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/robertkrimen/otto"
)

type BenchmarkCase struct {
	Name       string                 `json:"name"`
	Expression string                 `json:"expression"`
	Context    map[string]interface{} `json:"context"`
}

type BenchmarkResult struct {
	Name            string  `json:"name"`
	ExecutionTimeMs float64 `json:"execution_time_ms"`
}

func main() {
	iterations := flag.Int("iterations", 1000, "Number of iterations for each benchmark")
	outputFile := flag.String("output", "otto_results.json", "Output file for benchmark results")
	casesFile := flag.String("cases", "cmd/benchmark/cases.json", "JSON file containing expression test cases")
	flag.Parse()

	benchmarks, err := loadBenchmarkCases(*casesFile)
	if err != nil {
		fmt.Printf("Error loading expression cases: %v\n", err)
		os.Exit(1)
	}

	results := make([]BenchmarkResult, 0, len(benchmarks))

	for _, bm := range benchmarks {
		fmt.Printf("Running benchmark: %s\n", bm.Name)

		vm := otto.New()
		for name, value := range bm.Context {
			if err := vm.Set(name, value); err != nil {
				fmt.Printf("Error setting context for benchmark %s: %v\n", bm.Name, err)
				continue
			}
		}

		// Compile once, evaluate many times
		script, err := vm.Compile("", bm.Expression)
		if err != nil {
			fmt.Printf("Error compiling expression for benchmark %s: %v\n", bm.Name, err)
			continue
		}

		startTime := time.Now()
		for i := 0; i < *iterations; i++ {
			if _, err := vm.Run(script); err != nil {
				fmt.Printf("Error in benchmark %s: %v\n", bm.Name, err)
				break
			}
		}

		elapsed := time.Since(startTime)
		avgTimeMs := float64(elapsed.Microseconds()) / float64(*iterations) / 1000.0

		results = append(results, BenchmarkResult{
			Name:            bm.Name,
			ExecutionTimeMs: avgTimeMs,
		})

		fmt.Printf("  Average time: %.6f ms\n", avgTimeMs)
	}

	jsonData, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		fmt.Printf("Error marshaling results: %v\n", err)
		os.Exit(1)
	}

	if err := os.WriteFile(*outputFile, jsonData, 0644); err != nil {
		fmt.Printf("Error writing results to file: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Results written to %s\n", *outputFile)
}

func loadBenchmarkCases(path string) ([]BenchmarkCase, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cases []BenchmarkCase
	if err := json.Unmarshal(content, &cases); err != nil {
		return nil, err
	}
	return cases, nil
}
