package httpx

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// maxFrameSize is the maximum size of a single frame line (1 MB). The default
// bufio.Scanner limit is 64 KiB, which is too small for long completions
// delivered as one event. A longer line surfaces as a wrapped
// bufio.ErrTooLong through the Next error path.
const maxFrameSize = 1 * 1024 * 1024

// MaxErrorBodySize caps how much of an error response body is read into an
// error message, preventing unbounded allocation from rogue responses.
const MaxErrorBodySize int64 = 10 * 1024 * 1024

// FrameScanner reads event-stream frames ("data:" lines) from an io.Reader.
// It joins multi-line data fields, skips comments and empty lines, and
// detects the [DONE] sentinel. Reads from the underlying reader happen in
// blocks no larger than the configured chunk size.
type FrameScanner struct {
	scanner *bufio.Scanner

	// pending holds a raw line that arrived while data lines were still
	// accumulating; it is returned by the next Next call.
	pending    string
	hasPending bool
}

// NewFrameScanner creates a FrameScanner over reader. chunkSize bounds each
// read from the underlying transport; values <= 0 fall back to 4096.
// Individual frames up to maxFrameSize are supported.
func NewFrameScanner(reader io.Reader, chunkSize int) *FrameScanner {
	if chunkSize <= 0 {
		chunkSize = 4096
	}
	scanner := bufio.NewScanner(reader)
	scanner.Buffer(make([]byte, 0, chunkSize), maxFrameSize)
	return &FrameScanner{scanner: scanner}
}

// Next returns the next frame payload as a string.
// It skips empty lines and comment lines (starting with ':').
// Returns io.EOF when the stream is exhausted or the [DONE] sentinel arrives.
//
// Consecutive "data:" lines belonging to one event are joined with newlines
// into a single payload. Lines without a "data:" prefix are returned verbatim
// as their own payload so that non-SSE bodies (plain JSON envelopes) still
// flow through the same scanning loop.
func (fs *FrameScanner) Next() (string, error) {
	if fs.hasPending {
		fs.hasPending = false
		return fs.pending, nil
	}

	var dataLines []string

	for fs.scanner.Scan() {
		line := fs.scanner.Text()

		// Empty line ends the current event; flush accumulated data lines.
		if line == "" {
			if len(dataLines) > 0 {
				return strings.Join(dataLines, "\n"), nil
			}
			continue
		}

		if strings.HasPrefix(line, ":") {
			continue
		}

		if strings.HasPrefix(line, "data:") {
			data := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
			if data == "[DONE]" {
				return "", io.EOF
			}
			dataLines = append(dataLines, data)
			continue
		}

		// Not SSE framing: hand the raw line over as one payload. When data
		// lines are still accumulating, flush those first and hold the raw
		// line for the next call so nothing is lost in mixed bodies.
		if len(dataLines) > 0 {
			fs.pending = line
			fs.hasPending = true
			return strings.Join(dataLines, "\n"), nil
		}
		return line, nil
	}

	if err := fs.scanner.Err(); err != nil {
		return "", fmt.Errorf("frame scanner error: %w", err)
	}

	if len(dataLines) > 0 {
		return strings.Join(dataLines, "\n"), nil
	}

	return "", io.EOF
}
