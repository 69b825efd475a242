// Package httpx holds transport-level helpers shared by the provider
// implementations: the frame scanner that splits a streamed response body
// into event payloads, and small logging/cleanup utilities.
package httpx
