// Package outfmt renders command results as text tables, JSON or JSON lines.
package outfmt

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
)

// Mode represents the output format mode
type Mode int

const (
	// Text is the default human-readable output
	Text Mode = iota
	// JSON outputs structured JSON
	JSON
	// JSONL outputs one compact JSON value per line
	JSONL
)

type (
	contextKey struct{}
	compactKey struct{}
	queryKey   struct{}
)

// Parse parses an output mode string
func Parse(s string) (Mode, error) {
	switch s {
	case "text", "":
		return Text, nil
	case "json":
		return JSON, nil
	case "jsonl", "ndjson":
		return JSONL, nil
	default:
		return Text, fmt.Errorf("invalid output format: %q (use 'text', 'json', or 'jsonl')", s)
	}
}

// String returns the string representation of the mode
func (m Mode) String() string {
	switch m {
	case JSON:
		return "json"
	case JSONL:
		return "jsonl"
	default:
		return "text"
	}
}

// WithMode adds the output mode to the context
func WithMode(ctx context.Context, mode Mode) context.Context {
	return context.WithValue(ctx, contextKey{}, mode)
}

// ModeFromContext retrieves the output mode from context
func ModeFromContext(ctx context.Context) Mode {
	if mode, ok := ctx.Value(contextKey{}).(Mode); ok {
		return mode
	}
	return Text
}

// IsJSON reports whether output is JSON or JSON lines.
func IsJSON(ctx context.Context) bool {
	mode := ModeFromContext(ctx)
	return mode == JSON || mode == JSONL
}

// WithCompact adds the compact flag to the context
func WithCompact(ctx context.Context, compact bool) context.Context {
	return context.WithValue(ctx, compactKey{}, compact)
}

// IsCompact returns true if compact output mode is set in the context
func IsCompact(ctx context.Context) bool {
	c, _ := ctx.Value(compactKey{}).(bool)
	return c
}

// WithQuery adds a jq query to the context
func WithQuery(ctx context.Context, query string) context.Context {
	return context.WithValue(ctx, queryKey{}, query)
}

// GetQuery retrieves the jq query from context
func GetQuery(ctx context.Context) string {
	q, _ := ctx.Value(queryKey{}).(string)
	return q
}

// WriteJSON writes v as JSON, indented unless compact.
func WriteJSON(w io.Writer, v any, compact bool) error {
	enc := json.NewEncoder(w)
	if !compact {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(v)
}

// Write renders v for a JSON mode context, applying the context query.
// In JSONL mode each query result, or each element of a top-level array,
// goes on its own line.
func Write(ctx context.Context, w io.Writer, v any) error {
	results, err := Apply(v, GetQuery(ctx))
	if err != nil {
		return err
	}

	if ModeFromContext(ctx) == JSONL {
		for _, r := range results {
			if items, ok := r.([]any); ok {
				for _, item := range items {
					if err := WriteJSON(w, item, true); err != nil {
						return err
					}
				}
				continue
			}
			if err := WriteJSON(w, r, true); err != nil {
				return err
			}
		}
		return nil
	}

	compact := IsCompact(ctx)
	if len(results) == 1 {
		return WriteJSON(w, results[0], compact)
	}
	for _, r := range results {
		if err := WriteJSON(w, r, compact); err != nil {
			return err
		}
	}
	return nil
}
