// Package chatgptes implements [chat.Provider] and [chat.StreamProvider] for
// the unofficial chatgpt.es endpoint, a WordPress chat plugin fronting the
// upstream models.
//
// The endpoint sits behind bot protection, so requests go through a session
// that mimics a real browser TLS/HTTP fingerprint. Each chat call first
// scrapes two per-page auth tokens from the landing page, then POSTs a
// form-encoded payload and parses the streamed response into text. The
// upstream framing convention is an external, versioned contract; when it
// drifts, failures surface as parse errors.
//
// A Provider keeps no conversation history between calls and guarantees one
// network connection per call, released on every exit path. Sharing one
// Provider across concurrent calls is not protected by any lock; give each
// goroutine its own Provider if ordering matters.
package chatgptes
