// Package main implements shadowdiffctl, a command-line wrapper around the
// shadowdiff comparison engine.
//
// Usage:
//
//	shadowdiffctl -schema schema.yaml -baseline old.json -candidate new.json
//
// Flags:
//
//	-schema string      Path to the OpenAPI schema fragment (JSON or YAML)
//	-baseline string    Path to the baseline (old system) JSON document
//	-candidate string   Path to the candidate (new system) JSON document
//	-locale string      Message locale: "en" or "zh-Hans" (default "en")
//	-trace              Include rule-application trace in the report
//	-fail-fast          Stop at the first confirmed mismatch
//	-timeout int        Per-comparison timeout in seconds (default 30)
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/go-json-experiment/json"
	"github.com/goccy/go-yaml"

	"github.com/openmigrate/shadowdiff"
)

var (
	schemaPath    = flag.String("schema", "", "Path to the OpenAPI schema fragment (JSON or YAML)")
	baselinePath  = flag.String("baseline", "", "Path to the baseline JSON document")
	candidatePath = flag.String("candidate", "", "Path to the candidate JSON document")
	locale        = flag.String("locale", "en", "Message locale: en or zh-Hans")
	trace         = flag.Bool("trace", false, "Include rule-application trace in the report")
	failFast      = flag.Bool("fail-fast", false, "Stop at the first confirmed mismatch")
	timeout       = flag.Int("timeout", 30, "Per-comparison timeout in seconds")
)

func main() {
	flag.Parse()

	if *schemaPath == "" || *baselinePath == "" || *candidatePath == "" {
		fmt.Fprintln(os.Stderr, "shadowdiffctl: -schema, -baseline, and -candidate are all required")
		flag.PrintDefaults()
		os.Exit(2)
	}

	schema, err := loadSchema(*schemaPath)
	if err != nil {
		log.Fatalf("shadowdiffctl: loading schema: %v", err)
	}

	baseline, err := loadDocument(*baselinePath)
	if err != nil {
		log.Fatalf("shadowdiffctl: loading baseline: %v", err)
	}

	candidate, err := loadDocument(*candidatePath)
	if err != nil {
		log.Fatalf("shadowdiffctl: loading candidate: %v", err)
	}

	engine, err := shadowdiff.NewEngine(*locale)
	if err != nil {
		log.Fatalf("shadowdiffctl: initializing engine: %v", err)
	}
	engine = engine.WithTrace(*trace).WithFailFast(*failFast).WithTimeout(*timeout)

	ctx := context.Background()
	report, errResp := engine.Compare(ctx, baseline, candidate, schema)
	if errResp != nil {
		out, marshalErr := json.MarshalIndent(errResp, "", "  ")
		if marshalErr != nil {
			log.Fatalf("shadowdiffctl: encoding error response: %v", marshalErr)
		}
		fmt.Println(string(out))
		os.Exit(1)
	}

	out, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		log.Fatalf("shadowdiffctl: encoding report: %v", err)
	}
	fmt.Println(string(out))

	if !report.IsMatch {
		os.Exit(1)
	}
}

// loadSchema reads a schema fragment from either JSON or YAML. Every file is
// parsed as YAML, a superset of JSON; the file extension is not consulted.
func loadSchema(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var schema map[string]any
	if err := yaml.Unmarshal(data, &schema); err != nil {
		return nil, err
	}
	return schema, nil
}

func loadDocument(path string) (any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}
