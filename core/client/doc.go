// Package client provides the conversation layer on top of a raw
// [chat.Provider]. The provider itself keeps no history between calls; a
// Client owns the message list, replays it on every send, and threads each
// call through a configurable middleware chain (logging, timeout).
//
// The entry point is [New], which accepts a provider and functional options
// such as [WithModel], [WithSystemPrompt], and [WithMiddleware].
package client
