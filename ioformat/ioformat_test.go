package ioformat

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/luxfi/sievemt/sink"
	"github.com/luxfi/sievemt/term"
)

func TestReadTermListParsesHeaderAndRows(t *testing.T) {
	input := strings.NewReader("ABC $a!$b+$c\n# comment\n4 1 -1\n6 1 1\n")
	tl, err := ReadTermList(input)
	if err != nil {
		t.Fatal(err)
	}
	if tl.Header != "ABC $a!$b+$c" {
		t.Errorf("unexpected header: %q", tl.Header)
	}
	if len(tl.Rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(tl.Rows))
	}
	n, err := RowUint64(tl.Rows[0], 0)
	if err != nil || n != 4 {
		t.Errorf("expected first row field 0 == 4, got %d, err=%v", n, err)
	}
	c, err := RowInt64(tl.Rows[0], 2)
	if err != nil || c != -1 {
		t.Errorf("expected first row field 2 == -1, got %d, err=%v", c, err)
	}
}

func TestReadTermListRejectsEmptyInput(t *testing.T) {
	if _, err := ReadTermList(strings.NewReader("\n\n")); err == nil {
		t.Fatal("expected error for header-less input")
	}
}

func TestFactorLogWriterAppendsLines(t *testing.T) {
	var buf bytes.Buffer
	w := NewFactorLogWriter(&buf, func(rec sink.Record) string {
		return "expr"
	})
	if err := w.Append(sink.Record{Prime: 23, Term: term.Key{N: 4}}); err != nil {
		t.Fatal(err)
	}
	if err := w.Append(sink.Record{Prime: 5, Term: term.Key{N: 3}}); err != nil {
		t.Fatal(err)
	}
	want := "23 | expr\n5 | expr\n"
	if buf.String() != want {
		t.Errorf("got %q, want %q", buf.String(), want)
	}
}

func TestCheckpointRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "checkpoint.txt")

	terms := []term.Key{{K: 1, N: 2, C: -1}, {K: 3, N: 4, C: 1}}
	if err := WriteCheckpoint(path, 1000, terms); err != nil {
		t.Fatal(err)
	}

	cp, err := ReadCheckpoint(path)
	if err != nil {
		t.Fatal(err)
	}
	if cp.Watermark != 1000 {
		t.Errorf("expected watermark 1000, got %d", cp.Watermark)
	}
	if len(cp.Terms) != 2 {
		t.Fatalf("expected 2 terms, got %d", len(cp.Terms))
	}
	for i, want := range terms {
		if cp.Terms[i] != want {
			t.Errorf("term %d: got %+v, want %+v", i, cp.Terms[i], want)
		}
	}
}

func TestCheckpointIsAtomicNoPartialFileLeftOnDisk(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "checkpoint.txt")

	if err := WriteCheckpoint(path, 1, nil); err != nil {
		t.Fatal(err)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected exactly one file in directory after checkpoint, got %d", len(entries))
	}
	if entries[0].Name() != "checkpoint.txt" {
		t.Errorf("expected only checkpoint.txt to remain, got %q", entries[0].Name())
	}
}

func TestFileCheckpointerSatisfiesInterface(t *testing.T) {
	dir := t.TempDir()
	c := FileCheckpointer{Path: filepath.Join(dir, "cp.txt")}
	if err := c.WriteCheckpoint(42, nil); err != nil {
		t.Fatal(err)
	}
	cp, err := ReadCheckpoint(c.Path)
	if err != nil {
		t.Fatal(err)
	}
	if cp.Watermark != 42 {
		t.Errorf("expected watermark 42, got %d", cp.Watermark)
	}
}
