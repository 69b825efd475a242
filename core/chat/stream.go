package chat

import (
	"iter"
	"strings"
)

// StreamEventType identifies the payload carried by a StreamEvent.
type StreamEventType string

const (
	// StreamEventFragment indicates an incremental text fragment.
	StreamEventFragment StreamEventType = "fragment"
	// StreamEventDone signals that the stream finished normally.
	StreamEventDone StreamEventType = "done"
)

// StreamEvent is a single delta yielded while a reply streams in. Each event
// carries exactly one payload, identified by Type.
type StreamEvent struct {
	Type StreamEventType `json:"type"`
	// Text is the fragment payload (Type == StreamEventFragment).
	Text string `json:"text,omitempty"`
}

// ReplyStream wraps a streaming iterator over reply fragments. It is a lazy,
// finite, non-restartable sequence consumed exactly once per call: iterate
// with Iter for real-time fragments, or call Collect for the assembled reply.
//
// Callers must consume the stream, either by ranging over Iter (breaking out
// early is fine) or by calling Collect. The provider holds the HTTP response
// body open until the iterator completes or is abandoned via a loop break;
// constructing a ReplyStream and never touching it leaks that body.
type ReplyStream struct {
	iterator iter.Seq2[StreamEvent, error]
	model    string
}

// NewReplyStream creates a ReplyStream from a raw streaming iterator. The
// iterator yields StreamEvent values with a nil error for normal deltas and a
// non-nil error for a mid-stream failure, which terminates the sequence.
// model is the provider-side model string recorded on the collected Reply.
func NewReplyStream(model string, iterator iter.Seq2[StreamEvent, error]) *ReplyStream {
	return &ReplyStream{iterator: iterator, model: model}
}

// NewSingleFragmentStream wraps an already-assembled reply as a stream of one
// fragment followed by a done event. Used as a fallback when a provider does
// not stream natively.
func NewSingleFragmentStream(reply *Reply) *ReplyStream {
	iteratorFunc := func(yield func(StreamEvent, error) bool) {
		if reply.Text != "" {
			if !yield(StreamEvent{Type: StreamEventFragment, Text: reply.Text}, nil) {
				return
			}
		}
		yield(StreamEvent{Type: StreamEventDone}, nil)
	}
	return NewReplyStream(reply.Model, iteratorFunc)
}

// Model returns the provider-side model string the stream was created for.
func (stream *ReplyStream) Model() string {
	return stream.model
}

// Iter returns the underlying iterator for range-over-func loops.
//
// Example:
//
//	for event, err := range stream.Iter() {
//	    if err != nil { handle error }
//	    fmt.Print(event.Text)
//	}
func (stream *ReplyStream) Iter() iter.Seq2[StreamEvent, error] {
	return stream.iterator
}

// Collect consumes the entire stream and returns the assembled Reply: the
// in-order concatenation of every fragment. A mid-stream error terminates
// collection and is returned as-is. A stream that finishes without producing
// a single fragment yields a parse error, since the upstream produced no
// usable content.
func (stream *ReplyStream) Collect() (*Reply, error) {
	var text strings.Builder
	fragments := 0

	for event, err := range stream.iterator {
		if err != nil {
			return nil, err
		}
		if event.Type == StreamEventFragment {
			text.WriteString(event.Text)
			fragments++
		}
	}

	if fragments == 0 {
		return nil, NewParseError("stream ended without any extractable fragments", nil)
	}

	return &Reply{Text: text.String(), Model: stream.model}, nil
}
