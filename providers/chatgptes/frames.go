package chatgptes

import (
	"github.com/kaptinlin/jsonrepair"
	"github.com/tidwall/gjson"

	"github.com/sujalrajpoot/chatgpt-go/core/chat"
	"github.com/sujalrajpoot/chatgpt-go/internal/httpx"
)

// FrameParser extracts the human-readable fragment from one frame payload.
// The upstream's framing convention is provider-defined and has changed
// before, so the parser is a pluggable strategy rather than a hard-coded
// format.
//
// Parse returns the extracted fragment with ok=true, or ok=false for a
// control or unrecognized frame that should be skipped without aborting the
// stream. A non-nil error means the frame was recognized but malformed in a
// way that invalidates the whole response.
type FrameParser interface {
	Parse(frame string) (fragment string, ok bool, err error)
}

// EventStreamFrames parses the plugin's streamed frames. In stream mode the
// plugin relays OpenAI-style delta events; older responses wrap the whole
// reply in a {"data": ...} envelope. Both shapes are handled, with one
// jsonrepair pass for payloads the upstream mangles.
type EventStreamFrames struct{}

// Parse implements FrameParser.
func (EventStreamFrames) Parse(frame string) (string, bool, error) {
	body, ok := normalizeJSON(frame)
	if !ok {
		// Not JSON even after repair: control frame or framing noise, skip.
		return "", false, nil
	}

	if delta := gjson.Get(body, "choices.0.delta.content"); delta.Exists() {
		return delta.String(), true, nil
	}

	return parseDataField(body)
}

// JSONEnvelopeFrames parses only the strict {"data": "..."} envelope shape,
// treating everything else as unrecognized. Use it when the endpoint is known
// to answer non-streamed.
type JSONEnvelopeFrames struct{}

// Parse implements FrameParser.
func (JSONEnvelopeFrames) Parse(frame string) (string, bool, error) {
	body, ok := normalizeJSON(frame)
	if !ok {
		return "", false, nil
	}
	return parseDataField(body)
}

// parseDataField extracts the plugin's "data" reply field. A present but
// non-string data value is the recognized-but-broken case: the envelope is
// there, the content is not usable.
func parseDataField(body string) (string, bool, error) {
	data := gjson.Get(body, "data")
	if !data.Exists() {
		return "", false, nil
	}
	if data.Type != gjson.String {
		return "", false, chat.NewParseError(
			"invalid message format in response: "+httpx.TruncateString(body, 200), nil)
	}
	return data.String(), true, nil
}

// normalizeJSON returns a valid JSON document for the frame, repairing it
// once if needed. ok=false means the frame is not JSON at all.
func normalizeJSON(frame string) (string, bool) {
	if frame == "" {
		return "", false
	}
	if gjson.Valid(frame) {
		return frame, true
	}
	repaired, err := jsonrepair.JSONRepair(frame)
	if err != nil || !gjson.Valid(repaired) {
		return "", false
	}
	return repaired, true
}
