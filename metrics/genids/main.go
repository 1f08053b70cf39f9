// Copyright The OpenTelemetry Authors
// SPDX-License-Identifier: Apache-2.0

// genids writes the metric ID constants for the definitions in metrics.json.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"go/format"
	"os"
)

type metricDef struct {
	Description string `json:"description"`
	MetricType  string `json:"type"`
	Name        string `json:"name"`
	FieldName   string `json:"field"`
	Unit        string `json:"unit"`
	ID          uint32 `json:"id"`
	Obsolete    bool   `json:"obsolete"`
}

func main() {
	if len(os.Args) < 3 {
		fmt.Fprintf(os.Stderr, "Usage: %s <metrics.json> <output.go>\n", os.Args[0])
		os.Exit(1)
	}
	if err := generate(os.Args[1], os.Args[2]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func generate(in, out string) error {
	input, err := os.ReadFile(in)
	if err != nil {
		return fmt.Errorf("reading %s: %w", in, err)
	}

	var defs []metricDef
	if err = json.Unmarshal(input, &defs); err != nil {
		return fmt.Errorf("unmarshaling %s: %w", in, err)
	}

	var output bytes.Buffer
	output.WriteString("// Code generated from metrics.json. DO NOT EDIT.\n\n" +
		"package metrics\n\n" +
		"// To add a new metric append an entry to metrics.json and run 'go generate'.\n" +
		"const (\n" +
		"\t// IDInvalid marks a metric ID that was not explicitly initialized.\n" +
		"\tIDInvalid MetricID = 0\n")

	for i, m := range defs {
		// IDs index a dense slice, so they must follow the entry order.
		if m.ID != uint32(i+1) {
			return fmt.Errorf("metric %s has ID %d, expected %d", m.Name, m.ID, i+1)
		}
		if m.MetricType != "counter" && m.MetricType != "gauge" {
			return fmt.Errorf("metric %s has unknown type %q", m.Name, m.MetricType)
		}
		if m.Obsolete {
			continue
		}
		fmt.Fprintf(&output, "\n\t// %s\n\tID%s MetricID = %d\n", m.Description, m.Name, m.ID)
	}

	fmt.Fprintf(&output, "\n\t// IDMax is one past the largest metric ID.\n\tIDMax MetricID = %d\n)\n",
		len(defs)+1)

	src, err := format.Source(output.Bytes())
	if err != nil {
		return fmt.Errorf("formatting output: %w", err)
	}
	return os.WriteFile(out, src, 0o600)
}
