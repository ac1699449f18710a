package ioformat

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/luxfi/sievemt/term"
)

// Checkpoint is the parsed contents of a checkpoint file: the watermark
// below which every term has either survived or been proven composite, and
// the snapshot of terms still alive at that point.
type Checkpoint struct {
	Watermark uint64
	Terms     []term.Key
}

// WriteCheckpoint atomically rewrites path: the checkpoint is built in a
// temp file in the same directory and renamed over path, so a reader never
// observes a partially-written checkpoint (spec.md §6).
func WriteCheckpoint(path string, watermark uint64, alive []term.Key) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".checkpoint-*.tmp")
	if err != nil {
		return fmt.Errorf("ioformat: create checkpoint temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath) // no-op once the rename below succeeds

	w := bufio.NewWriter(tmp)
	fmt.Fprintf(w, "watermark=%d\n", watermark)
	fmt.Fprintf(w, "termCount=%d\n", len(alive))
	for _, k := range alive {
		fmt.Fprintf(w, "%d %d %d\n", k.K, k.N, k.C)
	}
	if err := w.Flush(); err != nil {
		tmp.Close()
		return fmt.Errorf("ioformat: flush checkpoint temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("ioformat: sync checkpoint temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("ioformat: close checkpoint temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("ioformat: rename checkpoint into place: %w", err)
	}
	return nil
}

// FileCheckpointer adapts WriteCheckpoint to the supervisor.Checkpointer
// shape (watermark + alive terms, no path argument) by closing over a
// fixed destination path.
type FileCheckpointer struct {
	Path string
}

// WriteCheckpoint satisfies supervisor.Checkpointer.
func (c FileCheckpointer) WriteCheckpoint(watermark uint64, alive []term.Key) error {
	return WriteCheckpoint(c.Path, watermark, alive)
}

// ReadCheckpoint parses a checkpoint file written by WriteCheckpoint.
func ReadCheckpoint(path string) (*Checkpoint, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("ioformat: open checkpoint: %w", err)
	}
	defer f.Close()

	cp := &Checkpoint{}
	var termCount int
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		switch {
		case strings.HasPrefix(line, "watermark="):
			v, err := strconv.ParseUint(strings.TrimPrefix(line, "watermark="), 10, 64)
			if err != nil {
				return nil, fmt.Errorf("ioformat: parse watermark: %w", err)
			}
			cp.Watermark = v
		case strings.HasPrefix(line, "termCount="):
			v, err := strconv.Atoi(strings.TrimPrefix(line, "termCount="))
			if err != nil {
				return nil, fmt.Errorf("ioformat: parse termCount: %w", err)
			}
			termCount = v
		default:
			fields := strings.Fields(line)
			if len(fields) != 3 {
				return nil, fmt.Errorf("ioformat: malformed term line %q", line)
			}
			k, err1 := strconv.ParseUint(fields[0], 10, 64)
			n, err2 := strconv.ParseUint(fields[1], 10, 64)
			c, err3 := strconv.ParseInt(fields[2], 10, 32)
			if err1 != nil || err2 != nil || err3 != nil {
				return nil, fmt.Errorf("ioformat: malformed term line %q", line)
			}
			cp.Terms = append(cp.Terms, term.Key{K: k, N: n, C: int32(c)})
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("ioformat: read checkpoint: %w", err)
	}
	if len(cp.Terms) != termCount {
		return nil, fmt.Errorf("ioformat: checkpoint termCount=%d but found %d term lines", termCount, len(cp.Terms))
	}
	return cp, nil
}
