package middleware

import (
	"context"
	"time"

	"github.com/sujalrajpoot/chatgpt-go/core/chat"
	"github.com/sujalrajpoot/chatgpt-go/core/client"
)

// NewTimeoutMiddleware creates a MiddlewareConfig that enforces a per-request
// deadline on both blocking and streaming calls.
//
// For blocking sends the context is wrapped with context.WithTimeout and the
// cancel function deferred, so it fires once the provider returns or the
// deadline expires.
//
// For streaming calls the cancel function is NOT deferred immediately; it is
// called once the stream is fully consumed, errors mid-stream, or is
// abandoned. The timeout therefore governs the complete lifetime of the
// stream, not just the time to first byte.
//
// If the caller's context already carries a shorter deadline, the shorter one
// wins, as per normal context semantics.
func NewTimeoutMiddleware(timeout time.Duration) client.MiddlewareConfig {
	return client.MiddlewareConfig{
		Send:   buildSendTimeout(timeout),
		Stream: buildStreamTimeout(timeout),
	}
}

func buildSendTimeout(timeout time.Duration) client.Middleware {
	return func(next client.SendFunc) client.SendFunc {
		return func(ctx context.Context, request chat.Request) (*chat.Reply, error) {
			ctx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()

			return next(ctx, request)
		}
	}
}

func buildStreamTimeout(timeout time.Duration) client.StreamMiddleware {
	return func(next client.StreamFunc) client.StreamFunc {
		return func(ctx context.Context, request chat.Request) (*chat.ReplyStream, error) {
			ctx, cancel := context.WithTimeout(ctx, timeout)

			stream, err := next(ctx, request)
			if err != nil {
				// Pre-stream error, cancel immediately.
				cancel()
				return nil, err
			}

			return wrapStreamWithCancel(stream, cancel), nil
		}
	}
}

// wrapStreamWithCancel returns a new ReplyStream whose iterator calls cancel
// once the stream finishes, errors, or the caller breaks out of the loop.
func wrapStreamWithCancel(stream *chat.ReplyStream, cancel context.CancelFunc) *chat.ReplyStream {
	iteratorFunc := func(yield func(chat.StreamEvent, error) bool) {
		defer cancel()

		for event, err := range stream.Iter() {
			if !yield(event, err) {
				return
			}
			if err != nil {
				return
			}
		}
	}

	return chat.NewReplyStream(stream.Model(), iteratorFunc)
}
