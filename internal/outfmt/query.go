package outfmt

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strings"

	"github.com/itchyny/gojq"
)

// NormalizeExpression fixes shell-escaped operators in jq expressions.
// Zsh escapes ! to \! even in single quotes, breaking operators like !=.
func NormalizeExpression(expr string) string {
	return strings.ReplaceAll(strings.TrimSpace(expr), `\!`, `!`)
}

// Apply runs a jq query over v and returns every emitted value. An empty
// query yields v itself in its generic JSON form.
func Apply(v any, query string) ([]any, error) {
	data, err := toGeneric(v)
	if err != nil {
		return nil, err
	}
	query = NormalizeExpression(query)
	if query == "" {
		return []any{data}, nil
	}

	parsed, err := gojq.Parse(query)
	if err != nil {
		return nil, fmt.Errorf("invalid query expression: %w", err)
	}
	code, err := gojq.Compile(parsed)
	if err != nil {
		return nil, fmt.Errorf("invalid query expression: %w", err)
	}

	var results []any
	iter := code.Run(data)
	for {
		out, ok := iter.Next()
		if !ok {
			break
		}
		if err, ok := out.(error); ok {
			return nil, fmt.Errorf("query error: %w", err)
		}
		results = append(results, out)
	}
	return results, nil
}

// toGeneric converts v into the map/slice/number tree gojq works on.
// Integers that fit are kept as int so 64-bit ids are not rounded.
func toGeneric(v any) (any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode output: %w", err)
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var out any
	if err := dec.Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode output: %w", err)
	}
	return convertNumbers(out), nil
}

func convertNumbers(v any) any {
	switch t := v.(type) {
	case map[string]any:
		for k, val := range t {
			t[k] = convertNumbers(val)
		}
		return t
	case []any:
		for i, val := range t {
			t[i] = convertNumbers(val)
		}
		return t
	case json.Number:
		if n, err := t.Int64(); err == nil && n >= math.MinInt && n <= math.MaxInt {
			return int(n)
		}
		if f, err := t.Float64(); err == nil {
			return f
		}
		return t.String()
	default:
		return v
	}
}
