package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"gopkg.in/yaml.v3"
)

// Format selects how views print their data
type Format string

const (
	Table Format = "table"
	JSON  Format = "json"
	YAML  Format = "yaml"
)

// ParseFormat validates a --output value
func ParseFormat(raw string) (Format, error) {
	switch Format(strings.ToLower(raw)) {
	case Table, "":
		return Table, nil
	case JSON:
		return JSON, nil
	case YAML, "yml":
		return YAML, nil
	default:
		return "", fmt.Errorf("invalid output format '%s', must be one of: table, json, yaml", raw)
	}
}

// Write prints v as JSON or YAML, or calls table for the table format
func Write(w io.Writer, format Format, v any, table func(w io.Writer) error) error {
	switch format {
	case JSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case YAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("failed to encode yaml: %w", err)
		}
		return enc.Close()
	default:
		return table(w)
	}
}

// NewTable returns a tabwriter configured like every table in the CLI
func NewTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

// Underline returns a rule as wide as each header
func Underline(headers ...string) string {
	rules := make([]string, len(headers))
	for i, header := range headers {
		rules[i] = strings.Repeat("─", len([]rune(header)))
	}
	return strings.Join(rules, "\t")
}
