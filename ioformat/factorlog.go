package ioformat

import (
	"bufio"
	"fmt"
	"io"

	"github.com/luxfi/sievemt/sink"
)

// ExpressionFunc renders a factor record's term as a human-readable
// expression, e.g. "4!-1" for a MultiFactorial hit or "16*3^2+1" for a
// FixedBNC hit. Family-specific rendering lives with the caller; this
// package only owns the "p | expression" line format and append discipline.
type ExpressionFunc func(rec sink.Record) string

// FactorLogWriter appends "p | expression" lines to an underlying writer.
// Deduplication is the sink's responsibility (spec.md §6): this writer
// appends every record it is given, in the order given.
type FactorLogWriter struct {
	w    *bufio.Writer
	expr ExpressionFunc
}

// NewFactorLogWriter wraps w, rendering each record's term via expr.
func NewFactorLogWriter(w io.Writer, expr ExpressionFunc) *FactorLogWriter {
	return &FactorLogWriter{w: bufio.NewWriter(w), expr: expr}
}

// Append writes one "p | expression" line and flushes immediately, so a
// crash mid-run loses at most the record currently being written.
func (f *FactorLogWriter) Append(rec sink.Record) error {
	if _, err := fmt.Fprintf(f.w, "%d | %s\n", rec.Prime, f.expr(rec)); err != nil {
		return fmt.Errorf("ioformat: append factor log entry: %w", err)
	}
	return f.w.Flush()
}
