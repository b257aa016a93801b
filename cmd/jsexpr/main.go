// Command jsexpr evaluates a JavaScript expression against a JSON context.
//
//	jsexpr -context ctx.json "user_age >= 18 && user_status === 'active'"
//
// The result is printed as JSON. Non-finite numbers (NaN, ±Infinity) have no
// JSON representation and are printed as null with a warning.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"math"
	"os"

	"github.com/sirupsen/logrus"

	jsexpr "github.com/AlexanderGrooff/jsexpr-go"
)

var (
	contextFile = flag.String("context", "", "JSON file with the variable context")
	contextJSON = flag.String("context-json", "", "inline JSON variable context (alternative to -context)")
	trace       = flag.Bool("trace", false, "emit per-node trace events (requires a -tags jsexprtrace build)")
	verbose     = flag.Bool("verbose", false, "debug-level logging")
)

// logrusSink forwards evaluator trace events to logrus.
type logrusSink struct {
	log *logrus.Logger
}

func (s *logrusSink) Event(ev jsexpr.TraceEvent) {
	s.log.WithFields(logrus.Fields{
		"node":   ev.Node,
		"detail": ev.Detail,
	}).Debug(ev.Summary)
}

func main() {
	flag.Parse()

	log := logrus.New()
	log.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	if *verbose || *trace {
		log.SetLevel(logrus.DebugLevel)
	}

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: jsexpr [flags] <expression>")
		flag.PrintDefaults()
		os.Exit(2)
	}
	source := flag.Arg(0)

	variables, err := loadContext(*contextFile, *contextJSON)
	if err != nil {
		log.Fatalf("Failed to load context: %v", err)
	}

	eval := jsexpr.NewEvaluator(variables, nil)
	if *trace {
		eval.SetTraceSink(&logrusSink{log: log})
	}

	result, err := eval.Evaluate(source)
	if err != nil {
		log.Fatalf("Evaluation failed: %v", err)
	}

	out, err := json.Marshal(sanitizeForJSON(result.Interface(), log))
	if err != nil {
		log.Fatalf("Failed to marshal result: %v", err)
	}
	fmt.Println(string(out))
}

// loadContext reads the variable context from a file or an inline JSON
// string and converts it to the value universe.
func loadContext(file, inline string) (map[string]jsexpr.Value, error) {
	var raw []byte
	switch {
	case file != "":
		content, err := os.ReadFile(file)
		if err != nil {
			return nil, err
		}
		raw = content
	case inline != "":
		raw = []byte(inline)
	default:
		return nil, nil
	}

	var decoded map[string]interface{}
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, fmt.Errorf("invalid context JSON: %w", err)
	}

	variables := make(map[string]jsexpr.Value, len(decoded))
	for name, v := range decoded {
		value, err := jsexpr.FromInterface(v)
		if err != nil {
			return nil, fmt.Errorf("context variable %q: %w", name, err)
		}
		variables[name] = value
	}
	return variables, nil
}

// sanitizeForJSON replaces non-finite numbers with nil so the result can be
// marshalled. JSON round-trip fidelity for NaN and the infinities is a known
// limitation of the output format, not of the value model.
func sanitizeForJSON(v interface{}, log *logrus.Logger) interface{} {
	switch t := v.(type) {
	case float64:
		if math.IsNaN(t) || math.IsInf(t, 0) {
			log.Warnf("non-finite number %v has no JSON form, printing null", t)
			return nil
		}
		return t
	case []interface{}:
		for i, e := range t {
			t[i] = sanitizeForJSON(e, log)
		}
		return t
	case map[string]interface{}:
		for k, e := range t {
			t[k] = sanitizeForJSON(e, log)
		}
		return t
	default:
		return v
	}
}
