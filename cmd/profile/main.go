package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"runtime/pprof"
	"time"

	jsexpr "github.com/AlexanderGrooff/jsexpr-go"
)

var (
	cpuprofile  = flag.String("cpuprofile", "", "write cpu profile to file")
	memprofile  = flag.String("memprofile", "", "write memory profile to file")
	exprFile    = flag.String("expr-file", "", "file containing the expression to evaluate")
	contextFile = flag.String("context", "", "JSON file with context data")
	iterations  = flag.Int("iterations", 100000, "number of iterations to run")
	expr        = flag.String("expr", "", "expression to evaluate (alternative to expr file)")
	outputDir   = flag.String("output-dir", "profile", "directory to store profile output")
	parseEach   = flag.Bool("parse-each", false, "re-parse the expression on every iteration instead of reusing the tree")
)

func main() {
	flag.Parse()

	// Create output directory if it doesn't exist
	if err := os.MkdirAll(*outputDir, 0755); err != nil {
		log.Fatalf("Failed to create output directory: %v", err)
	}

	// Get expression
	var source string
	if *exprFile != "" {
		content, err := os.ReadFile(*exprFile)
		if err != nil {
			log.Fatalf("Failed to read expression file: %v", err)
		}
		source = string(content)
	} else if *expr != "" {
		source = *expr
	} else {
		log.Fatal("Either --expr or --expr-file must be provided")
	}

	// Get context
	variables := make(map[string]jsexpr.Value)
	if *contextFile != "" {
		content, err := os.ReadFile(*contextFile)
		if err != nil {
			log.Fatalf("Failed to read context file: %v", err)
		}
		var decoded map[string]interface{}
		if err := json.Unmarshal(content, &decoded); err != nil {
			log.Fatalf("Failed to parse context JSON: %v", err)
		}
		for name, v := range decoded {
			value, err := jsexpr.FromInterface(v)
			if err != nil {
				log.Fatalf("Failed to convert context variable %q: %v", name, err)
			}
			variables[name] = value
		}
	}

	// Start CPU profiling if requested
	if *cpuprofile != "" {
		cpuFile := filepath.Join(*outputDir, *cpuprofile)
		f, err := os.Create(cpuFile)
		if err != nil {
			log.Fatalf("Failed to create CPU profile file: %v", err)
		}
		defer f.Close()

		if err := pprof.StartCPUProfile(f); err != nil {
			log.Fatalf("Failed to start CPU profile: %v", err)
		}
		defer pprof.StopCPUProfile()
		fmt.Printf("CPU profiling enabled, writing to %s\n", cpuFile)
	}

	eval := jsexpr.NewEvaluator(variables, nil)

	tree, err := jsexpr.Parse(source)
	if err != nil {
		log.Fatalf("Failed to parse expression: %v", err)
	}

	// Perform the evaluation
	fmt.Printf("Evaluating expression %d times\n", *iterations)
	start := time.Now()

	var result jsexpr.Value
	for i := 0; i < *iterations; i++ {
		if *parseEach {
			var parsed *jsexpr.Expr
			if parsed, err = jsexpr.Parse(source); err == nil {
				result, err = eval.EvaluateTree(parsed)
			}
		} else {
			result, err = eval.EvaluateTree(tree)
		}
		if err != nil {
			log.Fatalf("Failed to evaluate expression: %v", err)
		}
	}

	duration := time.Since(start)
	fmt.Printf("Result: %s\n", result.ToString())
	fmt.Printf("Time taken: %v\n", duration)
	fmt.Printf("Average time per iteration: %v\n", duration/time.Duration(*iterations))

	// Memory profiling
	if *memprofile != "" {
		memFile := filepath.Join(*outputDir, *memprofile)
		f, err := os.Create(memFile)
		if err != nil {
			log.Fatalf("Failed to create memory profile file: %v", err)
		}
		defer f.Close()

		if err := pprof.WriteHeapProfile(f); err != nil {
			log.Fatalf("Failed to write memory profile: %v", err)
		}
		fmt.Printf("Memory profile written to %s\n", memFile)
	}
}
