package client

import (
	"context"
	"slices"

	"github.com/sujalrajpoot/chatgpt-go/core/chat"
)

// Client is a stateful, multi-turn conversation over a stateless provider.
// It is not safe for concurrent use: the message list and the provider's
// session carry no lock discipline, so give each goroutine its own Client.
type Client struct {
	provider    chat.Provider
	model       chat.Model
	messages    []chat.Message
	sendChain   SendFunc
	streamChain StreamFunc
}

// Option configures a Client during construction.
type Option func(*Client) error

// WithModel selects the model used for every request. The default is
// [chat.ModelGPT4o].
func WithModel(model chat.Model) Option {
	return func(c *Client) error {
		if _, err := model.Resolve(); err != nil {
			return err
		}
		c.model = model
		return nil
	}
}

// WithSystemPrompt seeds the conversation with a system message.
func WithSystemPrompt(content string) Option {
	return func(c *Client) error {
		c.messages = append(c.messages, chat.Message{Role: chat.RoleSystem, Content: content})
		return nil
	}
}

// WithMiddleware installs the middleware chain, outermost-first.
func WithMiddleware(middlewares ...MiddlewareConfig) Option {
	return func(c *Client) error {
		for _, m := range middlewares {
			if m.Send == nil {
				return chat.NewGenericError("middleware with nil Send func", nil)
			}
		}
		c.sendChain = buildSendChain(c.provider, middlewares)
		c.streamChain = buildStreamChain(c.provider, middlewares)
		return nil
	}
}

// New creates a conversation client over provider.
func New(provider chat.Provider, opts ...Option) (*Client, error) {
	if provider == nil {
		return nil, chat.NewGenericError("provider must not be nil", nil)
	}

	c := &Client{
		provider:    provider,
		model:       chat.ModelGPT4o,
		sendChain:   buildSendChain(provider, nil),
		streamChain: buildStreamChain(provider, nil),
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// SendMessage appends a user message, sends the full conversation, records
// the assistant reply in the history, and returns it. On failure the user
// message is rolled back so the history only ever reflects completed turns.
func (c *Client) SendMessage(ctx context.Context, content string) (*chat.Reply, error) {
	c.messages = append(c.messages, chat.Message{Role: chat.RoleUser, Content: content})

	reply, err := c.sendChain(ctx, chat.Request{
		Model:    c.model,
		Messages: slices.Clone(c.messages),
	})
	if err != nil {
		c.messages = c.messages[:len(c.messages)-1]
		return nil, err
	}

	c.messages = append(c.messages, chat.Message{Role: chat.RoleAssistant, Content: reply.Text})
	return reply, nil
}

// StreamMessage is the streaming counterpart of SendMessage. The returned
// stream must be consumed; the assistant reply is appended to the history
// once the stream finishes normally, and the user message is rolled back if
// it fails before producing the done event.
func (c *Client) StreamMessage(ctx context.Context, content string) (*chat.ReplyStream, error) {
	c.messages = append(c.messages, chat.Message{Role: chat.RoleUser, Content: content})

	stream, err := c.streamChain(ctx, chat.Request{
		Model:    c.model,
		Messages: slices.Clone(c.messages),
	})
	if err != nil {
		c.messages = c.messages[:len(c.messages)-1]
		return nil, err
	}

	return c.recordStream(stream), nil
}

// recordStream wraps a ReplyStream so the conversation history is updated
// when the stream completes.
func (c *Client) recordStream(stream *chat.ReplyStream) *chat.ReplyStream {
	iteratorFunc := func(yield func(chat.StreamEvent, error) bool) {
		var text []byte
		done := false

		for event, err := range stream.Iter() {
			if err != nil {
				c.messages = c.messages[:len(c.messages)-1]
				yield(event, err)
				return
			}
			if event.Type == chat.StreamEventFragment {
				text = append(text, event.Text...)
			}
			if event.Type == chat.StreamEventDone {
				done = true
			}
			if !yield(event, nil) {
				// Breaking on the done event is still a completed turn;
				// only an earlier break abandons it.
				if done {
					c.messages = append(c.messages, chat.Message{Role: chat.RoleAssistant, Content: string(text)})
				} else {
					c.messages = c.messages[:len(c.messages)-1]
				}
				return
			}
		}

		if done {
			c.messages = append(c.messages, chat.Message{Role: chat.RoleAssistant, Content: string(text)})
		} else {
			c.messages = c.messages[:len(c.messages)-1]
		}
	}

	return chat.NewReplyStream(stream.Model(), iteratorFunc)
}

// History returns a copy of the conversation so far.
func (c *Client) History() []chat.Message {
	return slices.Clone(c.messages)
}

// Reset clears the conversation history.
func (c *Client) Reset() {
	c.messages = nil
}
