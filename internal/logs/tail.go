package logs

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"
)

const maxLineBytes = 1024 * 1024

// Matcher selects which log lines are shown. A nil Matcher keeps every line.
type Matcher func(line string) bool

// RunMatcher keeps lines tagged with the given run identifier in either the
// console (run_id=...) or JSON ("run_id":"...") format.
func RunMatcher(runID string) Matcher {
	runID = strings.TrimSpace(runID)
	if runID == "" {
		return nil
	}
	console := "run_id=" + runID
	jsonField := `"run_id":"` + runID + `"`
	return func(line string) bool {
		return strings.Contains(line, console) || strings.Contains(line, jsonField)
	}
}

// Last returns up to limit trailing lines of path that satisfy match, along
// with the end-of-file offset for a subsequent Follow. A missing file yields
// no lines and offset zero.
func Last(path string, limit int, match Matcher) ([]string, int64, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, 0, nil
		}
		return nil, 0, fmt.Errorf("open log file: %w", err)
	}
	defer file.Close()

	if info, err := file.Stat(); err != nil {
		return nil, 0, fmt.Errorf("stat log file: %w", err)
	} else if info.IsDir() {
		return nil, 0, fmt.Errorf("log path %q is a directory", path)
	}

	var ring []string
	if limit > 0 {
		ring = make([]string, 0, limit)
	}
	next, err := scanLines(file, func(line string) {
		if limit <= 0 || (match != nil && !match(line)) {
			return
		}
		if len(ring) == limit {
			ring = append(ring[:0], ring[1:]...)
		}
		ring = append(ring, line)
	})
	if err != nil {
		return nil, 0, err
	}
	return ring, next, nil
}

// Follow polls path from offset and calls emit for every new matching line
// until ctx is cancelled. A truncated file (rotation) restarts from zero.
func Follow(ctx context.Context, path string, offset int64, poll time.Duration, match Matcher, emit func(string)) error {
	if poll <= 0 {
		poll = 250 * time.Millisecond
	}
	ticker := time.NewTicker(poll)
	defer ticker.Stop()

	for {
		next, err := readFrom(path, offset, match, emit)
		if err != nil {
			return err
		}
		offset = next

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func readFrom(path string, offset int64, match Matcher, emit func(string)) (int64, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, nil
		}
		return offset, fmt.Errorf("open log file: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return offset, fmt.Errorf("stat log file: %w", err)
	}
	if offset > info.Size() {
		offset = 0
	}
	if _, err := file.Seek(offset, io.SeekStart); err != nil {
		return offset, fmt.Errorf("seek log file: %w", err)
	}

	consumed, err := scanLines(file, func(line string) {
		if match == nil || match(line) {
			emit(line)
		}
	})
	if err != nil {
		return offset, err
	}
	return offset + consumed, nil
}

// scanLines feeds every complete line of r to fn and reports how many bytes
// those lines occupied. A trailing partial line is left for the next read.
func scanLines(r io.Reader, fn func(string)) (int64, error) {
	reader := bufio.NewReaderSize(r, 64*1024)
	var consumed int64
	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			if errors.Is(err, io.EOF) {
				return consumed, nil
			}
			return consumed, fmt.Errorf("read log file: %w", err)
		}
		consumed += int64(len(line))
		if len(line) > maxLineBytes {
			line = line[:maxLineBytes]
		}
		fn(strings.TrimRight(line, "\r\n"))
	}
}
