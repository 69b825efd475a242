package chat

import "context"

// Role identifies the author of a conversation message; compatible with string.
type Role string

const (
	// RoleSystem carries system instructions/configuration.
	RoleSystem Role = "system"
	// RoleUser is an end-user message.
	RoleUser Role = "user"
	// RoleAssistant is a model response.
	RoleAssistant Role = "assistant"
)

// Message is a single immutable message in a conversation. It is owned by the
// call that builds the outgoing payload and is never mutated after creation.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Request represents one chat request: the selected model and the full message
// list for this call. Providers do not retain it past the call that sends it.
type Request struct {
	Model    Model     `json:"model"`
	Messages []Message `json:"messages"`
}

// LastUserMessage returns the content of the most recent user message, or the
// empty string when the request carries none. Providers that submit only the
// latest message (with history encoded separately) use this as the payload body.
func (r Request) LastUserMessage() string {
	for i := len(r.Messages) - 1; i >= 0; i-- {
		if r.Messages[i].Role == RoleUser {
			return r.Messages[i].Content
		}
	}
	return ""
}

// Reply is the assembled response for a single request: the ordered
// concatenation of every text fragment extracted from the response stream.
type Reply struct {
	// Text is the full reply text. Never empty on a successful call; a stream
	// that produced zero fragments is surfaced as a parse error instead.
	Text string `json:"text"`
	// Model is the provider-side model string that produced the reply.
	Model string `json:"model,omitempty"`
}

// Provider is the contract every concrete chat backend must satisfy: send one
// request, return the assembled reply or a classified error. Implementations
// must not share response state across concurrent calls.
type Provider interface {
	// Send issues a single chat request and blocks until the full reply is
	// assembled. Failures are returned as *Error values carrying one of the
	// four taxonomy kinds.
	Send(ctx context.Context, request Request) (*Reply, error)
}

// StreamProvider is an optional interface a provider can implement to expose
// incremental fragments as they arrive. Callers detect support via type
// assertion: provider.(StreamProvider). Pre-stream errors (auth, connect) are
// returned directly; mid-stream errors are yielded through the iterator.
type StreamProvider interface {
	Provider
	// Stream issues a chat request and returns a ReplyStream yielding text
	// fragments in arrival order.
	Stream(ctx context.Context, request Request) (*ReplyStream, error)
}

// Chatter is the minimal caller-facing operation: send one prompt, get the
// reply text. It is the surface most callers want when they do not manage
// conversation state themselves.
type Chatter interface {
	Chat(ctx context.Context, prompt string, model Model) (string, error)
}
