package suvclient

import (
	"errors"
	"fmt"
)

var (
	// ErrClientNotReady is returned when a nil or unbuilt Client is used.
	ErrClientNotReady = errors.New("client not ready")
	// ErrBuilderUsed is returned when Build is called twice on the same Builder.
	ErrBuilderUsed = errors.New("builder already used")
	// ErrInvalidBaseURL is returned when Config.BaseURL is not an absolute http(s) URL.
	ErrInvalidBaseURL = errors.New("invalid base url")
	// ErrInvalidConfig wraps every Config.Validate failure.
	ErrInvalidConfig = errors.New("invalid client configuration")
	// ErrRedisRequired is returned when the redis cookie store is selected without a redis client.
	ErrRedisRequired = errors.New("redis cookie store requires redis client")
	// ErrEncode is returned when RequestOptions.JSON cannot be serialized.
	ErrEncode = errors.New("request body encode failed")
	// ErrDecode wraps JSON parse failures of a response body. It signals a
	// server contract violation and is never swallowed.
	ErrDecode = errors.New("response body decode failed")
	// ErrUnauthenticated is returned by the typed API methods after the
	// client has already navigated to the login route.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrInvalidCredentials is returned by Login when the server rejects the
	// username or password.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidID is returned for non-positive record identifiers.
	ErrInvalidID = errors.New("invalid record id")
)

// APIError carries a non-2xx reply of a typed API call. The server reports
// failures as {"error": "..."}; Message holds that text when present.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("suv api: status %d", e.StatusCode)
	}
	return fmt.Sprintf("suv api: status %d: %s", e.StatusCode, e.Message)
}
