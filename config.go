package suvclient

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Config holds every tunable of a Client.
//
// Config instances are intended to be configured during initialization and then treated as immutable.
type Config struct {
	BaseURL     string
	HTTP        HTTPConfig
	Paths       PathsConfig
	CSRF        CSRFConfig
	CookieStore CookieStoreConfig
	Notify      NotifyConfig
	Metrics     MetricsConfig
}

/*
====================================
HTTP CONFIG
====================================
*/

// HTTPConfig controls the underlying transport.
type HTTPConfig struct {
	Timeout         time.Duration
	UserAgent       string
	RequestIDHeader string // empty disables request ids
}

/*
====================================
PATHS CONFIG
====================================
*/

// PathsConfig names the fixed routes the client talks to or navigates to.
type PathsConfig struct {
	Login    string // navigation target on 401
	Root     string // navigation target after logout
	Me       string
	Logout   string
	LoginAPI string
}

/*
====================================
CSRF CONFIG
====================================
*/

// CSRFConfig mirrors the server's double-submit check: the cookie value is
// echoed in a header on mutating same-origin requests.
type CSRFConfig struct {
	Enabled    bool
	CookieName string
	HeaderName string
}

/*
====================================
COOKIE STORE CONFIG
====================================
*/

// CookieBackend selects where session cookies live.
type CookieBackend string

const (
	// CookieBackendMemory keeps cookies in process memory.
	CookieBackendMemory CookieBackend = "memory"
	// CookieBackendRedis keeps cookies in redis so a session survives process restarts.
	CookieBackendRedis CookieBackend = "redis"
	// CookieBackendFile keeps cookies in a local YAML file.
	CookieBackendFile CookieBackend = "file"
)

// CookieStoreConfig configures the cookie store built by Builder.Build.
type CookieStoreConfig struct {
	Backend     CookieBackend
	RedisPrefix string
	FilePath    string
	DefaultTTL  time.Duration // applied to session cookies without Max-Age/Expires
	TokenCookie string
}

// NotifyConfig configures the toast dispatcher.
type NotifyConfig struct {
	Enabled       bool
	BufferSize    int
	DropIfFull    bool
	DisplayFor    time.Duration // how long a toast stays on screen; 0 keeps it until shown
	ErrorPrefix   string
	WarningPrefix string
}

// MetricsConfig toggles in-process counters.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

/*
====================================
DEFAULT CONFIG
====================================
*/

// DefaultConfig returns the configuration matching the stock suv deployment.
// BaseURL is left empty and must be set by the caller.
func DefaultConfig() Config {
	return defaultConfig()
}

func defaultConfig() Config {
	return Config{
		HTTP: HTTPConfig{
			Timeout:         30 * time.Second,
			UserAgent:       "suvclient/1",
			RequestIDHeader: "X-Request-ID",
		},
		Paths: PathsConfig{
			Login:    "/login",
			Root:     "/",
			Me:       "/api/me",
			Logout:   "/api/logout",
			LoginAPI: "/api/login",
		},
		CSRF: CSRFConfig{
			Enabled:    true,
			CookieName: "csrf_token",
			HeaderName: "X-CSRF-Token",
		},
		CookieStore: CookieStoreConfig{
			Backend:     CookieBackendMemory,
			RedisPrefix: "suv",
			DefaultTTL:  24 * time.Hour,
			TokenCookie: "token",
		},
		Notify: NotifyConfig{
			Enabled:       true,
			BufferSize:    64,
			DropIfFull:    true,
			DisplayFor:    3 * time.Second,
			ErrorPrefix:   "[错误] ",
			WarningPrefix: "[提示] ",
		},
		Metrics: MetricsConfig{
			Enabled:                 true,
			EnableLatencyHistograms: false,
		},
	}
}

func cloneConfig(cfg Config) Config {
	return cfg
}

/*
====================================
VALIDATION
====================================
*/

// Validate reports the first configuration problem, wrapped in ErrInvalidConfig
// (or ErrInvalidBaseURL for a bad base URL).
func (c *Config) Validate() error {
	if _, err := parseBaseURL(c.BaseURL); err != nil {
		return err
	}

	if c.HTTP.Timeout < 0 {
		return invalid("HTTP.Timeout must be >= 0")
	}
	if c.HTTP.RequestIDHeader != "" && strings.TrimSpace(c.HTTP.RequestIDHeader) != c.HTTP.RequestIDHeader {
		return invalid("HTTP.RequestIDHeader must not contain surrounding spaces")
	}

	for name, p := range map[string]string{
		"Paths.Login":    c.Paths.Login,
		"Paths.Root":     c.Paths.Root,
		"Paths.Me":       c.Paths.Me,
		"Paths.Logout":   c.Paths.Logout,
		"Paths.LoginAPI": c.Paths.LoginAPI,
	} {
		if !strings.HasPrefix(p, "/") {
			return invalid(name + " must be an absolute path")
		}
	}

	if c.CSRF.Enabled {
		if strings.TrimSpace(c.CSRF.CookieName) == "" || strings.TrimSpace(c.CSRF.HeaderName) == "" {
			return invalid("CSRF cookie and header names are required when CSRF is enabled")
		}
	}

	switch c.CookieStore.Backend {
	case CookieBackendMemory:
	case CookieBackendRedis:
		if strings.TrimSpace(c.CookieStore.RedisPrefix) == "" {
			return invalid("CookieStore.RedisPrefix is required for the redis backend")
		}
	case CookieBackendFile:
		if strings.TrimSpace(c.CookieStore.FilePath) == "" {
			return invalid("CookieStore.FilePath is required for the file backend")
		}
	default:
		return invalid(fmt.Sprintf("unknown CookieStore.Backend %q", c.CookieStore.Backend))
	}
	if c.CookieStore.DefaultTTL <= 0 {
		return invalid("CookieStore.DefaultTTL must be > 0")
	}

	if c.Notify.Enabled && c.Notify.BufferSize <= 0 {
		return invalid("Notify.BufferSize must be > 0")
	}
	if c.Notify.DisplayFor < 0 {
		return invalid("Notify.DisplayFor must be >= 0")
	}

	if c.Metrics.EnableLatencyHistograms && !c.Metrics.Enabled {
		return invalid("latency histograms require metrics to be enabled")
	}

	return nil
}

func invalid(msg string) error {
	return fmt.Errorf("%w: %s", ErrInvalidConfig, msg)
}

func parseBaseURL(raw string) (*url.URL, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, fmt.Errorf("%w: empty", ErrInvalidBaseURL)
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidBaseURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("%w: scheme must be http or https", ErrInvalidBaseURL)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("%w: missing host", ErrInvalidBaseURL)
	}
	if u.RawQuery != "" || u.Fragment != "" {
		return nil, errors.Join(ErrInvalidBaseURL, errors.New("base url must not carry query or fragment"))
	}
	u.Path = strings.TrimRight(u.Path, "/")
	return u, nil
}

func isSafeMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return true
	}
	return false
}
