// Package notify implements async delivery of user-facing notices (toasts).
//
// # Components
//
//   - [Sink]: interface for notice consumers (channel, text writer, JSON writer, zap, no-op).
//   - [Dispatcher]: buffered async relay with drop-if-full / block-if-full semantics.
//   - [Notice]: one toast: level, display text, timestamp.
//
// # Architecture boundaries
//
// This package owns buffering and sink delivery. It does NOT decide when a notice
// is raised or how its text is prefixed; the Client does that.
//
// # What this package must NOT do
//
//   - Import suvclient or any sibling internal package.
//   - Perform network I/O beyond what a caller-supplied Sink does.
package notify
