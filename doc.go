// Package suvclient is a client for the suv disciplinary-records web application.
//
// A [Client] talks to one deployment on behalf of one user session. It keeps
// the session in a cookie store, sends credentials to its own origin only,
// encodes JSON request bodies and turns every 401 reply into a single
// navigation to the login route. Clients are safe to call from multiple
// goroutines after [Builder.Build].
//
// # Architecture boundaries
//
// suvclient is the public surface. It exposes [Client], [Builder], [Config],
// the typed API methods and value types (User, Violation, Stats,
// MetricsSnapshot). Cookie persistence lives in package cookiestore, token
// decoding in package token, toast delivery under internal/notify.
//
// # Failure model
//
// Request recognises exactly one failure, HTTP 401, and reports it as
// [OutcomeUnauthenticated] rather than an error. Every other status reaches
// the caller unexamined. The typed API methods (ListViolations, Stats, ...)
// add a thin layer on top: 401 becomes [ErrUnauthenticated] and other non-2xx
// replies become [*APIError].
//
// # What this package must NOT do
//
//   - Send cookies or the CSRF header to a foreign origin.
//   - Retry requests or hide transport errors.
//   - Verify or issue session tokens; it holds no server secret.
package suvclient
