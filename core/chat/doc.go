// Package chat defines the shared, provider-agnostic types used across the
// client: conversation messages, the model selector registry, the request and
// reply shapes, and the error taxonomy every failure is classified into.
//
// The two central interfaces are [Provider] for blocking chat calls and
// [StreamProvider] for streamed responses. Incremental fragments flow to the
// caller through [ReplyStream] and [StreamEvent].
package chat
