// Package token reads the suv session token.
//
// The server issues an HS256 JWT in the "token" cookie carrying user_id,
// username, role and exp. The client holds no signing secret, so [Inspect]
// decodes claims without verifying the signature; the result is for display
// and expiry bookkeeping only and must never drive an authorization decision.
//
// [Signer] issues and verifies tokens the way the server does. It backs the
// fake server in internal/suvtest.
package token
