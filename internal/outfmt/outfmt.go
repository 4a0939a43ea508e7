// Package outfmt renders command output as JSON with optional jq-style
// filtering of the result.
package outfmt

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/itchyny/gojq"
)

// WriteJSON writes data to w as JSON, indented unless compact is set.
func WriteJSON(w io.Writer, data any, compact bool) error {
	enc := json.NewEncoder(w)
	if !compact {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(data); err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	return nil
}

// ApplyQuery runs a jq expression over data and returns the filtered result.
// An empty expression returns data unchanged. A query yielding a single value
// collapses to that value; multiple values are returned as a list.
func ApplyQuery(data any, expression string) (any, error) {
	if expression == "" {
		return data, nil
	}

	query, err := gojq.Parse(expression)
	if err != nil {
		return nil, fmt.Errorf("invalid filter expression: %w", err)
	}

	iter := query.Run(normalize(data))
	var results []any
	for {
		v, ok := iter.Next()
		if !ok {
			break
		}
		if err, ok := v.(error); ok {
			return nil, fmt.Errorf("filter error: %w", err)
		}
		results = append(results, v)
	}

	if len(results) == 1 {
		return results[0], nil
	}
	return results, nil
}

// normalize round-trips data through JSON so gojq sees only the types it
// understands (map[string]any, []any, float64, string, bool, nil).
func normalize(data any) any {
	raw, err := json.Marshal(data)
	if err != nil {
		return data
	}
	var out any
	if err := json.Unmarshal(raw, &out); err != nil {
		return data
	}
	return out
}
