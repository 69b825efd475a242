package chatgptes

import (
	"bufio"
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"time"

	fhttp "github.com/bogdanfinn/fhttp"

	"github.com/sujalrajpoot/chatgpt-go/core/chat"
	"github.com/sujalrajpoot/chatgpt-go/internal/httpx"
)

const (
	// DefaultBaseURL is the site the widget is embedded on.
	DefaultBaseURL = "https://chatgpt.es"
	// apiEndpoint is the WordPress ajax entry point every widget call goes through.
	apiEndpoint = "/wp-admin/admin-ajax.php"

	// DefaultTimeout bounds each network operation (connect and read).
	DefaultTimeout = 30 * time.Second
	// DefaultChunkSize bounds each read from the streamed response body, in bytes.
	DefaultChunkSize = 1000
)

// Provider is the concrete chatgpt.es client. Construct it with [New]; the
// zero value is not usable. It holds no per-conversation state: every call
// carries its own message list and opens exactly one scoped connection.
type Provider struct {
	baseURL   string
	timeout   time.Duration
	chunkSize int
	session   Doer
	frames    FrameParser
	markdown  bool
	logger    *slog.Logger
}

var (
	_ chat.Provider       = (*Provider)(nil)
	_ chat.StreamProvider = (*Provider)(nil)
	_ chat.Chatter        = (*Provider)(nil)
)

// Option configures a Provider during construction.
type Option func(*Provider)

// WithTimeout sets the per-operation network timeout. Must be positive.
func WithTimeout(timeout time.Duration) Option {
	return func(p *Provider) { p.timeout = timeout }
}

// WithChunkSize sets the maximum size of each streamed read, in bytes.
// Must be positive.
func WithChunkSize(size int) Option {
	return func(p *Provider) { p.chunkSize = size }
}

// WithBaseURL overrides the upstream site URL. Trailing slashes are stripped.
func WithBaseURL(baseURL string) Option {
	return func(p *Provider) { p.baseURL = strings.TrimRight(baseURL, "/") }
}

// WithSession replaces the fingerprinted session with a custom transport.
// Tests use this to inject stubs.
func WithSession(session Doer) Option {
	return func(p *Provider) { p.session = session }
}

// WithFrameParser replaces the default frame parsing strategy. The framing
// convention is upstream-defined and has drifted before; this is the seam to
// adapt without forking the client.
func WithFrameParser(frames FrameParser) Option {
	return func(p *Provider) { p.frames = frames }
}

// WithMarkdownReplies converts HTML markup in assembled replies to Markdown.
// Off by default so Chat returns the exact fragment concatenation.
func WithMarkdownReplies() Option {
	return func(p *Provider) { p.markdown = true }
}

// WithLogger sets the logger for debug-level request tracing.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Provider) { p.logger = logger }
}

// New creates a Provider. Unless [WithSession] is supplied, a browser-
// fingerprinted TLS session is built with the configured timeout.
func New(opts ...Option) (*Provider, error) {
	p := &Provider{
		baseURL:   DefaultBaseURL,
		timeout:   DefaultTimeout,
		chunkSize: DefaultChunkSize,
		frames:    EventStreamFrames{},
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}

	if p.timeout <= 0 {
		return nil, chat.NewGenericError("timeout must be positive", nil)
	}
	if p.chunkSize <= 0 {
		return nil, chat.NewGenericError("stream chunk size must be positive", nil)
	}

	if p.session == nil {
		session, err := newSession(p.timeout)
		if err != nil {
			return nil, chat.NewConnectionError("failed to initialize session", err)
		}
		p.session = session
	}

	return p, nil
}

// Chat sends a single prompt and returns the assembled reply text. It is the
// one-shot surface for callers who do not manage conversation state.
func (p *Provider) Chat(ctx context.Context, prompt string, model chat.Model) (string, error) {
	if strings.TrimSpace(prompt) == "" {
		return "", chat.NewGenericError("prompt must not be empty", nil)
	}

	reply, err := p.Send(ctx, chat.Request{
		Model:    model,
		Messages: []chat.Message{{Role: chat.RoleUser, Content: prompt}},
	})
	if err != nil {
		return "", err
	}
	return reply.Text, nil
}

// Send implements chat.Provider: it streams the response internally and
// returns the assembled reply.
func (p *Provider) Send(ctx context.Context, request chat.Request) (*chat.Reply, error) {
	stream, err := p.Stream(ctx, request)
	if err != nil {
		return nil, err
	}

	reply, err := stream.Collect()
	if err != nil {
		return nil, err
	}

	if p.markdown {
		reply.Text = renderMarkdown(reply.Text)
	}
	return reply, nil
}

// Stream implements chat.StreamProvider. It resolves the model, scrapes the
// page tokens, issues the chat POST, and returns a ReplyStream that yields
// fragments as frames arrive. Pre-stream failures are returned directly;
// mid-stream failures come through the iterator. The response body is
// released when the iterator finishes, errors, or is abandoned.
func (p *Provider) Stream(ctx context.Context, request chat.Request) (*chat.ReplyStream, error) {
	modelName, err := request.Model.Resolve()
	if err != nil {
		return nil, err
	}

	message := request.LastUserMessage()
	if strings.TrimSpace(message) == "" {
		return nil, chat.NewGenericError("request carries no user message", nil)
	}

	tokens, err := p.fetchPageTokens(ctx)
	if err != nil {
		return nil, err
	}

	payload := buildPayload(tokens, p.baseURL, modelName, message, conversationLines(request.Messages))

	req, err := fhttp.NewRequestWithContext(ctx, fhttp.MethodPost, p.baseURL+apiEndpoint,
		strings.NewReader(payload.Encode()))
	if err != nil {
		return nil, chat.NewConnectionError("error creating chat request", err)
	}
	req.Header = chatHeaders(p.baseURL)

	p.logger.DebugContext(ctx, "chatgpt.es chat request",
		slog.String("model", modelName),
		slog.Int("history_len", len(request.Messages)),
	)

	res, err := p.session.Do(req)
	if err != nil {
		return nil, chat.NewConnectionError("failed to send chat request", err)
	}

	if isBlockedStatus(res.StatusCode) {
		httpx.CloseWithLog(res.Body)
		return nil, chat.NewAuthenticationError(
			"upstream rejected the chat request with status " + res.Status)
	}

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		defer httpx.CloseWithLog(res.Body)
		errorBody, _ := io.ReadAll(io.LimitReader(res.Body, httpx.MaxErrorBodySize))
		if isChallengePage(string(errorBody)) {
			return nil, chat.NewAuthenticationError("chat request answered with a bot challenge")
		}
		return nil, chat.NewGenericError(
			"non-2xx status "+res.Status+": "+httpx.TruncateString(string(errorBody), 200), nil)
	}

	scanner := httpx.NewFrameScanner(res.Body, p.chunkSize)

	iteratorFunc := func(yield func(chat.StreamEvent, error) bool) {
		defer httpx.CloseWithLog(res.Body)

		for {
			if ctx.Err() != nil {
				yield(chat.StreamEvent{}, chat.NewConnectionError("request cancelled mid-stream", ctx.Err()))
				return
			}

			frame, scanErr := scanner.Next()
			if scanErr == io.EOF {
				yield(chat.StreamEvent{Type: chat.StreamEventDone}, nil)
				return
			}
			if scanErr != nil {
				if errors.Is(scanErr, bufio.ErrTooLong) {
					yield(chat.StreamEvent{}, chat.NewParseError("response frame exceeds maximum size", scanErr))
				} else {
					yield(chat.StreamEvent{}, chat.NewConnectionError("error reading response stream", scanErr))
				}
				return
			}

			fragment, ok, parseErr := p.frames.Parse(frame)
			if parseErr != nil {
				yield(chat.StreamEvent{}, parseErr)
				return
			}
			if !ok {
				// Control or unrecognized frame; the stream continues.
				continue
			}

			if !yield(chat.StreamEvent{Type: chat.StreamEventFragment, Text: fragment}, nil) {
				return
			}
		}
	}

	return chat.NewReplyStream(modelName, iteratorFunc), nil
}
