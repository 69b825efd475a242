package client

import (
	"context"

	"github.com/sujalrajpoot/chatgpt-go/core/chat"
)

// SendFunc sends a chat request and returns the assembled reply. It is the
// base unit threaded through the send middleware chain.
type SendFunc func(ctx context.Context, request chat.Request) (*chat.Reply, error)

// StreamFunc sends a chat request and returns a ReplyStream for incremental
// fragment delivery. It is the base unit threaded through the stream chain.
type StreamFunc func(ctx context.Context, request chat.Request) (*chat.ReplyStream, error)

// Middleware intercepts and optionally transforms send calls. Each Middleware
// receives the next SendFunc in the chain and returns a new SendFunc wrapping
// it. Middlewares apply outermost-first: the first entry in the slice is the
// outermost wrapper.
type Middleware func(next SendFunc) SendFunc

// StreamMiddleware is the streaming counterpart of Middleware. It may wrap
// the returned ReplyStream to observe the event sequence.
type StreamMiddleware func(next StreamFunc) StreamFunc

// MiddlewareConfig pairs a send middleware with its optional streaming
// counterpart. Send is required; a nil Send causes [New] to return an error.
// A nil Stream means streaming calls bypass this entry entirely.
type MiddlewareConfig struct {
	Send   Middleware
	Stream StreamMiddleware
}

// buildSendChain constructs the linear send chain. The base function calls
// the provider directly; middlewares are applied in reverse so the first
// entry executes first on an incoming request.
func buildSendChain(provider chat.Provider, middlewares []MiddlewareConfig) SendFunc {
	var chain SendFunc = func(ctx context.Context, request chat.Request) (*chat.Reply, error) {
		return provider.Send(ctx, request)
	}

	for i := len(middlewares) - 1; i >= 0; i-- {
		chain = middlewares[i].Send(chain)
	}

	return chain
}

// buildStreamChain constructs the linear stream chain. The base function uses
// native streaming when the provider implements chat.StreamProvider and falls
// back to a blocking send wrapped in a single-fragment stream otherwise.
// Entries with a nil Stream field are skipped.
func buildStreamChain(provider chat.Provider, middlewares []MiddlewareConfig) StreamFunc {
	var chain StreamFunc = func(ctx context.Context, request chat.Request) (*chat.ReplyStream, error) {
		if streamProvider, ok := provider.(chat.StreamProvider); ok {
			return streamProvider.Stream(ctx, request)
		}

		reply, err := provider.Send(ctx, request)
		if err != nil {
			return nil, err
		}
		return chat.NewSingleFragmentStream(reply), nil
	}

	for i := len(middlewares) - 1; i >= 0; i-- {
		if middlewares[i].Stream != nil {
			chain = middlewares[i].Stream(chain)
		}
	}

	return chain
}
