package middleware

import (
	"context"
	"log/slog"
	"time"

	"github.com/sujalrajpoot/chatgpt-go/core/chat"
	"github.com/sujalrajpoot/chatgpt-go/core/client"
	"github.com/sujalrajpoot/chatgpt-go/internal/httpx"
)

// LogLevel controls how much detail the logging middleware emits per request.
type LogLevel int

const (
	// LogLevelMinimal logs only the model and the total duration.
	LogLevelMinimal LogLevel = iota

	// LogLevelStandard adds the message count and reply length. Recommended
	// default for most applications.
	LogLevelStandard

	// LogLevelVerbose adds prompt and reply content, truncated to 500
	// characters. Do not use in production: it logs raw user text.
	LogLevelVerbose
)

// truncateLen is the maximum content length included in verbose log output.
const truncateLen = 500

// NewLoggingMiddleware creates a MiddlewareConfig that emits structured slog
// entries before and after every provider call. For streams the completion
// entry is emitted once the iterator is fully consumed.
//
// logger must not be nil; use slog.Default() if no custom logger is set up.
func NewLoggingMiddleware(logger *slog.Logger, level LogLevel) client.MiddlewareConfig {
	return client.MiddlewareConfig{
		Send:   buildSendLogging(logger, level),
		Stream: buildStreamLogging(logger, level),
	}
}

func buildSendLogging(logger *slog.Logger, level LogLevel) client.Middleware {
	return func(next client.SendFunc) client.SendFunc {
		return func(ctx context.Context, request chat.Request) (*chat.Reply, error) {
			logger.InfoContext(ctx, "chat send", buildRequestAttrs(request, level)...)

			start := time.Now()
			reply, err := next(ctx, request)
			elapsed := time.Since(start)

			if err != nil {
				logger.ErrorContext(ctx, "chat send failed",
					slog.String("model", request.Model.String()),
					slog.Duration("duration", elapsed),
					slog.String("error", err.Error()),
				)
				return nil, err
			}

			logger.InfoContext(ctx, "chat send completed", buildReplyAttrs(reply, elapsed, level)...)
			return reply, nil
		}
	}
}

func buildStreamLogging(logger *slog.Logger, level LogLevel) client.StreamMiddleware {
	return func(next client.StreamFunc) client.StreamFunc {
		return func(ctx context.Context, request chat.Request) (*chat.ReplyStream, error) {
			logger.InfoContext(ctx, "chat stream", buildRequestAttrs(request, level)...)

			start := time.Now()
			stream, err := next(ctx, request)
			if err != nil {
				logger.ErrorContext(ctx, "chat stream failed",
					slog.String("model", request.Model.String()),
					slog.Duration("duration", time.Since(start)),
					slog.String("error", err.Error()),
				)
				return nil, err
			}

			return wrapStreamWithLogging(ctx, stream, logger, request.Model.String(), start), nil
		}
	}
}

// wrapStreamWithLogging returns a new ReplyStream whose iterator logs a
// completion entry when the stream ends, or an error entry on failure.
func wrapStreamWithLogging(
	ctx context.Context,
	stream *chat.ReplyStream,
	logger *slog.Logger,
	model string,
	start time.Time,
) *chat.ReplyStream {
	iteratorFunc := func(yield func(chat.StreamEvent, error) bool) {
		fragments := 0

		for event, err := range stream.Iter() {
			if err != nil {
				logger.ErrorContext(ctx, "chat stream failed",
					slog.String("model", model),
					slog.Duration("duration", time.Since(start)),
					slog.String("error", err.Error()),
				)
				yield(event, err)
				return
			}

			if event.Type == chat.StreamEventFragment {
				fragments++
			}

			if !yield(event, nil) {
				logger.InfoContext(ctx, "chat stream abandoned",
					slog.String("model", model),
					slog.Duration("duration", time.Since(start)),
					slog.Int("fragments", fragments),
				)
				return
			}
		}

		logger.InfoContext(ctx, "chat stream completed",
			slog.String("model", model),
			slog.Duration("duration", time.Since(start)),
			slog.Int("fragments", fragments),
		)
	}

	return chat.NewReplyStream(stream.Model(), iteratorFunc)
}

// buildRequestAttrs returns slog attributes for an outgoing request,
// expanding detail according to the verbosity level.
func buildRequestAttrs(request chat.Request, level LogLevel) []any {
	attrs := []any{
		slog.String("model", request.Model.String()),
	}

	if level >= LogLevelStandard {
		attrs = append(attrs, slog.Int("message_count", len(request.Messages)))
	}

	if level >= LogLevelVerbose && len(request.Messages) > 0 {
		last := request.Messages[len(request.Messages)-1]
		attrs = append(attrs,
			slog.String("last_message_role", string(last.Role)),
			slog.String("last_message_content", httpx.TruncateString(last.Content, truncateLen)),
		)
	}

	return attrs
}

// buildReplyAttrs returns slog attributes for a completed reply.
func buildReplyAttrs(reply *chat.Reply, elapsed time.Duration, level LogLevel) []any {
	attrs := []any{
		slog.String("model", reply.Model),
		slog.Duration("duration", elapsed),
	}

	if level >= LogLevelStandard {
		attrs = append(attrs, slog.Int("reply_chars", len(reply.Text)))
	}

	if level >= LogLevelVerbose && reply.Text != "" {
		attrs = append(attrs,
			slog.String("reply_content", httpx.TruncateString(reply.Text, truncateLen)),
		)
	}

	return attrs
}
