// Package middleware ships the built-in middleware for the conversation
// client: structured request/response logging and per-call timeouts. There is
// deliberately no retry middleware — a failed call yields an error, never a
// silent second request.
package middleware
