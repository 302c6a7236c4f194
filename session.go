package suvclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/MrEthical07/suvclient/cookiestore"
	"go.uber.org/zap"
)

// CheckSession asks the server who is logged in. A reply whose user field
// holds an object caches and returns it. A body that is not an object, or a
// user that is absent, null, false, 0 or "", returns nil. A 401 has already
// navigated to the login route and also returns nil.
func (c *Client) CheckSession(ctx context.Context) (*User, error) {
	if c == nil {
		return nil, ErrClientNotReady
	}

	var body json.RawMessage
	res, err := c.RequestJSON(ctx, c.config.Paths.Me, nil, &body)
	if err != nil {
		return nil, err
	}
	if res.Outcome != OutcomeAuthenticated {
		return nil, nil
	}

	var payload struct {
		User json.RawMessage `json:"user"`
	}
	if !isJSONObject(body) || json.Unmarshal(body, &payload) != nil || isFalsyJSON(payload.User) {
		c.metrics.Inc(MetricSessionMiss)
		return nil, nil
	}

	var u User
	if err := json.Unmarshal(payload.User, &u); err != nil {
		c.metrics.Inc(MetricDecodeFailure)
		return nil, fmt.Errorf("%w: user: %v", ErrDecode, err)
	}
	c.setUser(&u)
	c.metrics.Inc(MetricSessionHit)
	return &u, nil
}

func isJSONObject(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) > 0 && raw[0] == '{'
}

// isFalsyJSON reports whether raw is missing or one of the values a page
// script treats as false: null, false, a zero number or "".
func isFalsyJSON(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return true
	}
	switch raw[0] {
	case 'n', 'f':
		return true
	case '"':
		return len(raw) == 2
	case '{', '[', 't':
		return false
	}
	var n float64
	if err := json.Unmarshal(raw, &n); err != nil {
		return false
	}
	return n == 0
}

// Logout posts to the logout route and then navigates to the root whatever
// happened. The result of the post is only logged.
func (c *Client) Logout(ctx context.Context) {
	if c == nil {
		return
	}
	c.metrics.Inc(MetricLogout)

	res, err := c.Request(ctx, c.config.Paths.Logout, &RequestOptions{Method: http.MethodPost})
	switch {
	case err != nil:
		c.logger.Warn("logout request failed", zap.Error(err))
	case res.Response != nil:
		if res.Response.StatusCode >= 300 {
			c.logger.Warn("logout rejected", zap.Int("status", res.Response.StatusCode))
		}
		_, _ = io.Copy(io.Discard, res.Response.Body)
		_ = res.Response.Body.Close()
	}

	c.navigate(ctx, c.config.Paths.Root)
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string `json:"token"`
	User  *User  `json:"user"`
}

// Login exchanges credentials for a session cookie and caches the returned
// user. A 401 here means the credentials were rejected, so it does not
// trigger the login navigation.
func (c *Client) Login(ctx context.Context, username, password string) (*User, error) {
	if c == nil {
		return nil, ErrClientNotReady
	}
	username = strings.TrimSpace(username)
	if username == "" || strings.TrimSpace(password) == "" {
		return nil, fmt.Errorf("%w: username and password are required", ErrInvalidCredentials)
	}

	if err := c.ensureCSRF(ctx); err != nil {
		return nil, err
	}

	resp, err := c.send(ctx, c.config.Paths.LoginAPI, &RequestOptions{
		Method: http.MethodPost,
		JSON:   loginRequest{Username: username, Password: password},
	})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		c.metrics.Inc(MetricLoginFailure)
		apiErr := readAPIError(resp)
		return nil, fmt.Errorf("%w: %v", ErrInvalidCredentials, apiErr)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.metrics.Inc(MetricLoginFailure)
		return nil, readAPIError(resp)
	}

	var out loginResponse
	if err := decodeJSON(resp.Body, &out); err != nil {
		c.metrics.Inc(MetricDecodeFailure)
		return nil, fmt.Errorf("%w: %s: %v", ErrDecode, c.config.Paths.LoginAPI, err)
	}
	if out.User == nil {
		return nil, fmt.Errorf("%w: login reply has no user", ErrDecode)
	}

	c.setUser(out.User)
	c.metrics.Inc(MetricLoginSuccess)
	c.logger.Info("logged in", zap.String("username", out.User.Username), zap.String("role", out.User.Role))
	return out.User, nil
}

// ensureCSRF makes sure the store holds a CSRF cookie before a mutating
// call. The server hands one out on every GET, so a missing cookie is fetched
// from the login page.
func (c *Client) ensureCSRF(ctx context.Context) error {
	if !c.config.CSRF.Enabled {
		return nil
	}
	if _, ok := cookiestore.Lookup(c.store, c.base, c.config.CSRF.CookieName); ok {
		return nil
	}

	resp, err := c.send(ctx, c.config.Paths.Login, &RequestOptions{Method: http.MethodGet})
	if err != nil {
		return fmt.Errorf("fetch csrf cookie: %w", err)
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()

	if _, ok := cookiestore.Lookup(c.store, c.base, c.config.CSRF.CookieName); !ok {
		c.logger.Debug("server did not issue a csrf cookie")
	}
	return nil
}
