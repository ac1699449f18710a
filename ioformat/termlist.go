// Package ioformat implements the three external file formats a sieve run
// consumes or produces: the ASCII term-list input, the append-only factor
// log, and the atomically-rewritten checkpoint file.
package ioformat

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// TermList is a parsed term-list file: a family header line (e.g.
// "ABC $a!$b+$c" for multi-factorial) followed by family-specific rows,
// each a whitespace-separated token list (e.g. "n m c").
type TermList struct {
	Header string
	Rows   [][]string
}

// ReadTermList parses the ASCII term-list format: the first non-blank,
// non-comment line is the header naming the family and its fixed
// parameters; every subsequent line is a row of whitespace-separated
// fields. Lines starting with '#' are comments and skipped.
func ReadTermList(r io.Reader) (*TermList, error) {
	scanner := bufio.NewScanner(r)
	tl := &TermList{}
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if tl.Header == "" {
			tl.Header = line
			continue
		}
		tl.Rows = append(tl.Rows, strings.Fields(line))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("ioformat: read term list: %w", err)
	}
	if tl.Header == "" {
		return nil, fmt.Errorf("ioformat: term list has no header line")
	}
	return tl, nil
}

// RowUint64 parses field i of row as a uint64.
func RowUint64(row []string, i int) (uint64, error) {
	if i >= len(row) {
		return 0, fmt.Errorf("ioformat: row %v missing field %d", row, i)
	}
	return strconv.ParseUint(row[i], 10, 64)
}

// RowInt64 parses field i of row as an int64.
func RowInt64(row []string, i int) (int64, error) {
	if i >= len(row) {
		return 0, fmt.Errorf("ioformat: row %v missing field %d", row, i)
	}
	return strconv.ParseInt(row[i], 10, 64)
}
