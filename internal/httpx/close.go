package httpx

import (
	"io"
	"log/slog"
)

// CloseWithLog closes c and logs any close error at warn level. Close errors
// never override the primary error of the surrounding call, so logging is the
// only sensible place for them.
func CloseWithLog(c io.Closer) {
	if c == nil {
		return
	}
	if err := c.Close(); err != nil {
		slog.Warn("failed to close response body", "error", err.Error())
	}
}
