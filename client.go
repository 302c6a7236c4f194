package suvclient

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/MrEthical07/suvclient/cookiestore"
	internalnotify "github.com/MrEthical07/suvclient/internal/notify"
	"github.com/MrEthical07/suvclient/token"
	"go.uber.org/zap"
)

// Client talks to one suv deployment on behalf of one user session.
//
// A Client is safe for concurrent use. The only mutable state is the cached
// user, which every navigation discards.
type Client struct {
	config      Config
	base        *url.URL
	origin      string
	sameOrigin  *http.Client
	crossOrigin *http.Client
	store       cookiestore.Store
	navigator   Navigator
	notify      *internalnotify.Dispatcher
	metrics     *Metrics
	logger      *zap.Logger

	mu   sync.RWMutex
	user *User
}

// Close stops the toast dispatcher after flushing queued notices.
func (c *Client) Close() {
	if c == nil {
		return
	}
	c.notify.Close()
}

// BaseURL returns a copy of the deployment root.
func (c *Client) BaseURL() *url.URL {
	if c == nil {
		return nil
	}
	u := *c.base
	return &u
}

// CookieStore returns the store holding the session cookies.
func (c *Client) CookieStore() cookiestore.Store {
	if c == nil {
		return nil
	}
	return c.store
}

// ClearCookies forgets the local session without contacting the server.
func (c *Client) ClearCookies(ctx context.Context) error {
	if c == nil {
		return ErrClientNotReady
	}
	c.setUser(nil)
	return c.store.Clear(ctx)
}

// User returns the user cached by the last successful session check or
// login, or nil.
func (c *Client) User() *User {
	if c == nil {
		return nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.user
}

func (c *Client) setUser(u *User) {
	c.mu.Lock()
	c.user = u
	c.mu.Unlock()
}

// Token decodes the session token cookie without verifying it.
func (c *Client) Token() (*token.Claims, error) {
	if c == nil {
		return nil, ErrClientNotReady
	}
	raw, ok := cookiestore.Lookup(c.store, c.base, c.config.CookieStore.TokenCookie)
	if !ok {
		return nil, fmt.Errorf("%w: no session token", ErrUnauthenticated)
	}
	return token.Inspect(raw)
}

// MetricsSnapshot returns the current counters.
func (c *Client) MetricsSnapshot() MetricsSnapshot {
	if c == nil || c.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return c.metrics.Snapshot()
}

// NotifyDropped returns how many toasts were dropped because the buffer was full.
func (c *Client) NotifyDropped() uint64 {
	if c == nil {
		return 0
	}
	return c.notify.Dropped()
}

// navigate is the client-side page load: the cached user does not survive it.
func (c *Client) navigate(ctx context.Context, target string) {
	c.setUser(nil)
	c.metrics.Inc(MetricNavigation)
	c.logger.Debug("navigate", zap.String("target", target))
	c.navigator.Navigate(ctx, target)
}

// resolve turns a caller path into an absolute URL. Absolute URLs are kept,
// a network-path reference such as //host/x takes the base scheme, and
// anything else is appended to the base path.
func (c *Client) resolve(path string) (*url.URL, error) {
	ref, err := url.Parse(path)
	if err != nil {
		return nil, fmt.Errorf("parse request path %q: %w", path, err)
	}
	if ref.IsAbs() {
		if ref.Host == "" {
			return nil, fmt.Errorf("request url %q has no host", path)
		}
		return ref, nil
	}
	if ref.Host != "" {
		return c.base.ResolveReference(ref), nil
	}

	u := *c.base
	u.Path = c.base.Path + "/" + strings.TrimLeft(ref.Path, "/")
	u.RawPath = ""
	u.RawQuery = ref.RawQuery
	u.Fragment = ""
	return &u, nil
}

func (c *Client) isSameOrigin(u *url.URL) bool {
	return originOf(u) == c.origin
}

func originOf(u *url.URL) string {
	scheme := strings.ToLower(u.Scheme)
	host := strings.ToLower(u.Hostname())
	port := u.Port()
	if port == "" {
		switch scheme {
		case "http":
			port = "80"
		case "https":
			port = "443"
		}
	}
	return scheme + "://" + net.JoinHostPort(host, port)
}

// sameOriginRedirects stops the credentialed transport from following a
// redirect off the base origin; the 3xx response is returned as is.
func sameOriginRedirects(base *url.URL, next func(*http.Request, []*http.Request) error) func(*http.Request, []*http.Request) error {
	origin := originOf(base)
	return func(req *http.Request, via []*http.Request) error {
		if originOf(req.URL) != origin {
			return http.ErrUseLastResponse
		}
		if next != nil {
			return next(req, via)
		}
		if len(via) >= 10 {
			return errors.New("stopped after 10 redirects")
		}
		return nil
	}
}
