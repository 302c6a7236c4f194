// Package cookiestore provides the cookie jars that hold a suv session.
//
// The server authenticates with an HttpOnly "token" cookie and a readable
// "csrf_token" cookie. A [Store] is an [net/http.CookieJar] that can also be
// cleared; the client never reads or writes session state anywhere else.
//
// # Backends
//
//   - [Memory]: process-local jar built on net/http/cookiejar with the public
//     suffix list from golang.org/x/net/publicsuffix.
//   - [Redis]: cookies kept in one redis hash per domain so a session survives
//     process restarts and can be shared between processes.
//   - [File]: a YAML document on disk, the default of the suvctl CLI.
//
// Redis and File apply the same domain, path and Secure matching rules.
//
// # What this package must NOT do
//
//   - Import suvclient (no upward imports).
//   - Interpret cookie values; token inspection lives in package token.
package cookiestore
