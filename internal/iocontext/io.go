// Package iocontext carries the command's I/O streams in a context so
// commands can be run against buffers in tests.
package iocontext

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
)

// IO holds the input/output streams for commands.
type IO struct {
	Out    io.Writer
	ErrOut io.Writer
	In     io.Reader
}

// DefaultIO returns the process streams.
func DefaultIO() *IO {
	return &IO{Out: os.Stdout, ErrOut: os.Stderr, In: os.Stdin}
}

type ioKey struct{}

// WithIO adds IO streams to a context.
func WithIO(ctx context.Context, streams *IO) context.Context {
	return context.WithValue(ctx, ioKey{}, streams)
}

// GetIO retrieves IO streams from context, defaulting to the process streams.
func GetIO(ctx context.Context) *IO {
	if streams, ok := ctx.Value(ioKey{}).(*IO); ok && streams != nil {
		return streams
	}
	return DefaultIO()
}

// maxInput caps request bodies read from files or stdin.
const maxInput = 1 << 20

// ReadInput reads a request body from path, or from the context's stdin
// when path is "-".
func ReadInput(ctx context.Context, path string) ([]byte, error) {
	var r io.Reader
	switch strings.TrimSpace(path) {
	case "":
		return nil, fmt.Errorf("input path is empty")
	case "-":
		r = GetIO(ctx).In
	default:
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open input: %w", err)
		}
		defer f.Close()
		r = f
	}
	data, err := io.ReadAll(io.LimitReader(r, maxInput+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read input: %w", err)
	}
	if len(data) > maxInput {
		return nil, fmt.Errorf("input exceeds %d bytes", maxInput)
	}
	return data, nil
}
