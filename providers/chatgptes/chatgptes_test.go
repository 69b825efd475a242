package chatgptes

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
	"testing"
	"time"

	fhttp "github.com/bogdanfinn/fhttp"

	"github.com/sujalrajpoot/chatgpt-go/core/chat"
)

const landingPage = `<html><body>
<div class="wpaicg-chat-shortcode" data-nonce="abc123" data-post-id="77"></div>
</body></html>`

const streamedReply = "data: {\"choices\":[{\"delta\":{\"content\":\"He\"}}]}\n\n" +
	"data: {\"choices\":[{\"delta\":{\"content\":\"llo\"}}]}\n\n" +
	"data: {\"choices\":[{\"delta\":{\"content\":\" there\"}}]}\n\n" +
	"data: [DONE]\n\n"

// trackedBody counts Close calls so tests can assert the scoped-release
// property: exactly one close per call, on every exit path.
type trackedBody struct {
	io.Reader
	closes int
}

func (b *trackedBody) Close() error {
	b.closes++
	return nil
}

// stubCall describes one scripted transport exchange.
type stubCall struct {
	status int
	body   *trackedBody
	err    error
}

func newCall(status int, body string) *stubCall {
	return &stubCall{status: status, body: &trackedBody{Reader: strings.NewReader(body)}}
}

// stubSession replays scripted calls in order and records every request.
type stubSession struct {
	t        *testing.T
	calls    []*stubCall
	requests []*fhttp.Request
}

func (s *stubSession) Do(req *fhttp.Request) (*fhttp.Response, error) {
	index := len(s.requests)
	s.requests = append(s.requests, req)

	if index >= len(s.calls) {
		s.t.Fatalf("unexpected request #%d to %s", index+1, req.URL)
	}
	call := s.calls[index]
	if call.err != nil {
		return nil, call.err
	}
	return &fhttp.Response{
		StatusCode: call.status,
		Status:     fmt.Sprintf("%d %s", call.status, fhttp.StatusText(call.status)),
		Header:     fhttp.Header{},
		Body:       call.body,
	}, nil
}

func newTestProvider(t *testing.T, session *stubSession, opts ...Option) *Provider {
	t.Helper()
	provider, err := New(append([]Option{WithSession(session)}, opts...)...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return provider
}

func assertClosedOnce(t *testing.T, session *stubSession) {
	t.Helper()
	for i, call := range session.calls {
		if call.body == nil {
			continue
		}
		if call.body.closes != 1 {
			t.Errorf("response body #%d closed %d times, expected exactly once", i+1, call.body.closes)
		}
	}
}

// TestChat_StreamedChunks verifies the assembled reply is the exact in-order
// concatenation of the extracted fragments.
func TestChat_StreamedChunks_ConcatenatesFragments(t *testing.T) {
	session := &stubSession{t: t, calls: []*stubCall{
		newCall(200, landingPage),
		newCall(200, streamedReply),
	}}
	provider := newTestProvider(t, session)

	reply, err := provider.Chat(context.Background(), "Hello!", chat.ModelGPT4o)
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if reply != "Hello there" {
		t.Errorf("expected %q, got %q", "Hello there", reply)
	}

	if len(session.requests) != 2 {
		t.Fatalf("expected 2 requests (landing + chat), got %d", len(session.requests))
	}
	assertClosedOnce(t, session)
}

// TestChat_PayloadFields verifies the chat POST carries the scraped tokens
// and the resolved model string.
func TestChat_PayloadFields_CarryTokensAndModel(t *testing.T) {
	session := &stubSession{t: t, calls: []*stubCall{
		newCall(200, landingPage),
		newCall(200, streamedReply),
	}}
	provider := newTestProvider(t, session)

	if _, err := provider.Chat(context.Background(), "Hello!", chat.ModelGPT4oMini); err != nil {
		t.Fatalf("Chat: %v", err)
	}

	post := session.requests[1]
	if post.Method != fhttp.MethodPost {
		t.Fatalf("expected POST, got %s", post.Method)
	}
	if !strings.HasSuffix(post.URL.Path, "/wp-admin/admin-ajax.php") {
		t.Errorf("unexpected endpoint path %q", post.URL.Path)
	}

	raw, err := io.ReadAll(post.Body)
	if err != nil {
		t.Fatalf("reading POST body: %v", err)
	}
	form, err := url.ParseQuery(string(raw))
	if err != nil {
		t.Fatalf("parsing form body: %v", err)
	}

	if got := form.Get("_wpnonce"); got != "abc123" {
		t.Errorf("expected scraped nonce, got %q", got)
	}
	if got := form.Get("post_id"); got != "77" {
		t.Errorf("expected scraped post id, got %q", got)
	}
	if got := form.Get("model"); got != "gpt-4o-mini" {
		t.Errorf("expected resolved model string, got %q", got)
	}
	if got := form.Get("message"); got != "Hello!" {
		t.Errorf("expected prompt as message, got %q", got)
	}
}

// TestChat_ZeroFragments verifies a stream with no extractable fragments is a
// parse failure with no text.
func TestChat_ZeroFragments_ReturnsParseError(t *testing.T) {
	session := &stubSession{t: t, calls: []*stubCall{
		newCall(200, landingPage),
		newCall(200, "data: {\"success\":true}\n\ndata: [DONE]\n\n"),
	}}
	provider := newTestProvider(t, session)

	reply, err := provider.Chat(context.Background(), "Hello!", chat.ModelGPT4o)
	if reply != "" {
		t.Errorf("expected no text, got %q", reply)
	}
	if !errors.Is(err, chat.ErrParse) {
		t.Errorf("expected parse error, got %v", err)
	}
	assertClosedOnce(t, session)
}

// TestChat_ConnectionFault verifies a transport fault before any chunk is a
// connection error.
func TestChat_ConnectionFaultBeforeFirstChunk_ReturnsConnectionError(t *testing.T) {
	session := &stubSession{t: t, calls: []*stubCall{
		{err: fmt.Errorf("dial tcp: connection refused")},
	}}
	provider := newTestProvider(t, session)

	_, err := provider.Chat(context.Background(), "Hello!", chat.ModelGPT4o)
	if !errors.Is(err, chat.ErrConnection) {
		t.Errorf("expected connection error, got %v", err)
	}
}

// TestChat_BlockedStatus verifies 401/403 surface as authentication errors on
// both the landing GET and the chat POST, independent of body content.
func TestChat_BlockedStatus_ReturnsAuthenticationError(t *testing.T) {
	cases := []struct {
		name  string
		calls []*stubCall
	}{
		{"landing 403", []*stubCall{newCall(403, "whatever")}},
		{"landing 401", []*stubCall{newCall(401, "")}},
		{"chat 403", []*stubCall{newCall(200, landingPage), newCall(403, "denied")}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			session := &stubSession{t: t, calls: tc.calls}
			provider := newTestProvider(t, session)

			_, err := provider.Chat(context.Background(), "Hello!", chat.ModelGPT4o)
			if !errors.Is(err, chat.ErrAuthentication) {
				t.Errorf("expected authentication error, got %v", err)
			}
			assertClosedOnce(t, session)
		})
	}
}

// TestChat_ChallengePage verifies a bot-challenge interstitial is an
// authentication error even when served with status 200.
func TestChat_ChallengePage_ReturnsAuthenticationError(t *testing.T) {
	session := &stubSession{t: t, calls: []*stubCall{
		newCall(200, "<html><title>Just a moment...</title></html>"),
	}}
	provider := newTestProvider(t, session)

	_, err := provider.Chat(context.Background(), "Hello!", chat.ModelGPT4o)
	if !errors.Is(err, chat.ErrAuthentication) {
		t.Errorf("expected authentication error, got %v", err)
	}
	assertClosedOnce(t, session)
}

// TestChat_MissingTokens verifies a landing page without the widget tokens is
// a parse failure.
func TestChat_MissingTokens_ReturnsParseError(t *testing.T) {
	session := &stubSession{t: t, calls: []*stubCall{
		newCall(200, "<html><body>nothing here</body></html>"),
	}}
	provider := newTestProvider(t, session)

	_, err := provider.Chat(context.Background(), "Hello!", chat.ModelGPT4o)
	if !errors.Is(err, chat.ErrParse) {
		t.Errorf("expected parse error, got %v", err)
	}
	assertClosedOnce(t, session)
}

// TestChat_UpstreamFault verifies a plain 5xx on the chat POST is a generic
// error, not misclassified into a specific kind.
func TestChat_UpstreamFault_ReturnsGenericError(t *testing.T) {
	session := &stubSession{t: t, calls: []*stubCall{
		newCall(200, landingPage),
		newCall(500, "internal error"),
	}}
	provider := newTestProvider(t, session)

	_, err := provider.Chat(context.Background(), "Hello!", chat.ModelGPT4o)
	if !errors.Is(err, chat.ErrChat) {
		t.Fatalf("expected a taxonomy error, got %v", err)
	}
	if errors.Is(err, chat.ErrConnection) || errors.Is(err, chat.ErrAuthentication) || errors.Is(err, chat.ErrParse) {
		t.Errorf("expected the generic kind, got %v", err)
	}
	assertClosedOnce(t, session)
}

// TestChat_Preconditions verifies prompt and model validation happen before
// any network traffic.
func TestChat_Preconditions_FailBeforeAnyRequest(t *testing.T) {
	session := &stubSession{t: t}
	provider := newTestProvider(t, session)

	if _, err := provider.Chat(context.Background(), "   ", chat.ModelGPT4o); err == nil {
		t.Error("expected error for empty prompt")
	}
	if _, err := provider.Chat(context.Background(), "Hello!", chat.Model(99)); err == nil {
		t.Error("expected error for unknown model")
	}
	if len(session.requests) != 0 {
		t.Errorf("expected no requests, got %d", len(session.requests))
	}
}

// TestNew_Validation verifies construction rejects non-positive timeout and
// chunk size.
func TestNew_InvalidConfiguration_ReturnsError(t *testing.T) {
	session := &stubSession{t: t}

	if _, err := New(WithSession(session), WithTimeout(0)); err == nil {
		t.Error("expected error for zero timeout")
	}
	if _, err := New(WithSession(session), WithTimeout(-time.Second)); err == nil {
		t.Error("expected error for negative timeout")
	}
	if _, err := New(WithSession(session), WithChunkSize(0)); err == nil {
		t.Error("expected error for zero chunk size")
	}
}

// TestChat_MarkdownReplies verifies opt-in HTML to Markdown conversion of the
// assembled reply.
func TestChat_MarkdownReplies_ConvertsHTML(t *testing.T) {
	session := &stubSession{t: t, calls: []*stubCall{
		newCall(200, landingPage),
		newCall(200, `{"data":"<p>Hello <strong>there</strong></p>"}`),
	}}
	provider := newTestProvider(t, session, WithMarkdownReplies())

	reply, err := provider.Chat(context.Background(), "Hello!", chat.ModelGPT4o)
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if !strings.Contains(reply, "**there**") {
		t.Errorf("expected Markdown emphasis in reply, got %q", reply)
	}
	if strings.Contains(reply, "<p>") {
		t.Errorf("expected HTML stripped, got %q", reply)
	}
}

// TestStream_EarlyBreak verifies abandoning the stream mid-way still releases
// the response body exactly once.
func TestStream_EarlyBreak_ClosesBodyOnce(t *testing.T) {
	session := &stubSession{t: t, calls: []*stubCall{
		newCall(200, landingPage),
		newCall(200, streamedReply),
	}}
	provider := newTestProvider(t, session)

	stream, err := provider.Stream(context.Background(), chat.Request{
		Model:    chat.ModelGPT4o,
		Messages: []chat.Message{{Role: chat.RoleUser, Content: "Hello!"}},
	})
	if err != nil {
		t.Fatalf("Stream: %v", err)
	}

	for event, err := range stream.Iter() {
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if event.Type == chat.StreamEventFragment {
			break
		}
	}

	assertClosedOnce(t, session)
}

// TestStream_FragmentOrder verifies fragments arrive through Iter in the
// order the transport delivered them.
func TestStream_FragmentOrder_MatchesArrivalOrder(t *testing.T) {
	session := &stubSession{t: t, calls: []*stubCall{
		newCall(200, landingPage),
		newCall(200, streamedReply),
	}}
	provider := newTestProvider(t, session)

	stream, err := provider.Stream(context.Background(), chat.Request{
		Model:    chat.ModelGPT4o,
		Messages: []chat.Message{{Role: chat.RoleUser, Content: "Hello!"}},
	})
	if err != nil {
		t.Fatalf("Stream: %v", err)
	}

	var fragments []string
	for event, err := range stream.Iter() {
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if event.Type == chat.StreamEventFragment {
			fragments = append(fragments, event.Text)
		}
	}

	expected := []string{"He", "llo", " there"}
	if len(fragments) != len(expected) {
		t.Fatalf("expected %d fragments, got %d: %v", len(expected), len(fragments), fragments)
	}
	for i, want := range expected {
		if fragments[i] != want {
			t.Errorf("fragment %d: expected %q, got %q", i, want, fragments[i])
		}
	}
}
