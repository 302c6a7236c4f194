package cookiestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/net/publicsuffix"
)

// ErrRedisUnavailable wraps redis transport failures.
var ErrRedisUnavailable = errors.New("redis unavailable")

const defaultOpTimeout = 2 * time.Second

type entry struct {
	Name     string        `json:"n" yaml:"name"`
	Value    string        `json:"v" yaml:"value"`
	Path     string        `json:"p" yaml:"path"`
	Domain   string        `json:"d" yaml:"domain"`
	HostOnly bool          `json:"h,omitempty" yaml:"host_only,omitempty"`
	Secure   bool          `json:"s,omitempty" yaml:"secure,omitempty"`
	HTTPOnly bool          `json:"ho,omitempty" yaml:"http_only,omitempty"`
	SameSite http.SameSite `json:"ss,omitempty" yaml:"same_site,omitempty"`
	Expires  int64         `json:"e" yaml:"expires"` // unix seconds
}

// Redis is a cookie jar persisted in redis. Cookies of one domain live in the
// hash <prefix>:cookies:<domain>, keyed by name and path.
//
// http.CookieJar has no error return; failures are logged and the affected
// cookies are skipped.
type Redis struct {
	redis      redis.UniversalClient
	prefix     string
	defaultTTL time.Duration
	opTimeout  time.Duration
	logger     *zap.Logger
	now        func() time.Time
}

// RedisOption customizes a Redis store.
type RedisOption func(*Redis)

// WithLogger sets the logger used for failures that SetCookies/Cookies cannot return.
func WithLogger(l *zap.Logger) RedisOption {
	return func(r *Redis) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithOpTimeout bounds every redis round-trip.
func WithOpTimeout(d time.Duration) RedisOption {
	return func(r *Redis) {
		if d > 0 {
			r.opTimeout = d
		}
	}
}

// NewRedis returns a redis-backed store. Session cookies (no Max-Age/Expires)
// are kept for defaultTTL.
func NewRedis(client redis.UniversalClient, prefix string, defaultTTL time.Duration, opts ...RedisOption) *Redis {
	r := &Redis{
		redis:      client,
		prefix:     prefix,
		defaultTTL: defaultTTL,
		opTimeout:  defaultOpTimeout,
		logger:     zap.NewNop(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Redis) key(domain string) string {
	return r.prefix + ":cookies:" + domain
}

func field(name, path string) string {
	return name + ";" + path
}

// SetCookies stores cookies received from u, deleting those that are expired
// or carry a negative Max-Age.
func (r *Redis) SetCookies(u *url.URL, cookies []*http.Cookie) {
	if u == nil || len(cookies) == 0 {
		return
	}
	host, err := canonicalHost(u.Host)
	if err != nil {
		r.logger.Debug("cookie host rejected", zap.String("host", u.Host), zap.Error(err))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), r.opTimeout)
	defer cancel()

	now := r.now()
	for _, c := range cookies {
		e, ok := newEntry(host, u, c, now, r.defaultTTL)
		if !ok {
			continue
		}
		key := r.key(e.Domain)
		f := field(e.Name, e.Path)

		if e.Expires <= now.Unix() {
			if err := r.redis.HDel(ctx, key, f).Err(); err != nil {
				r.logger.Warn("cookie delete failed", zap.String("cookie", e.Name), zap.Error(err))
			}
			continue
		}

		data, err := json.Marshal(e)
		if err != nil {
			continue
		}
		if err := r.store(ctx, key, f, data, time.Unix(e.Expires, 0).Sub(now)); err != nil {
			r.logger.Warn("cookie save failed", zap.String("cookie", e.Name), zap.Error(err))
		}
	}
}

func (r *Redis) store(ctx context.Context, key, f string, data []byte, ttl time.Duration) error {
	current, err := r.redis.PTTL(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	_, err = r.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key, f, data)
		// the hash lives as long as its longest-lived cookie
		if current < ttl {
			pipe.PExpire(ctx, key, ttl)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

func newEntry(host string, u *url.URL, c *http.Cookie, now time.Time, defaultTTL time.Duration) (entry, bool) {
	if c == nil || c.Name == "" {
		return entry{}, false
	}

	e := entry{
		Name:     c.Name,
		Value:    c.Value,
		Secure:   c.Secure,
		HTTPOnly: c.HttpOnly,
		SameSite: c.SameSite,
	}

	domain := strings.TrimPrefix(strings.ToLower(c.Domain), ".")
	switch {
	case domain == "" || domain == host:
		e.Domain = host
		e.HostOnly = domain == ""
	case isIP(host):
		return entry{}, false
	case !strings.HasSuffix(host, "."+domain):
		return entry{}, false
	default:
		if ps, _ := publicsuffix.PublicSuffix(domain); ps == domain {
			return entry{}, false
		}
		e.Domain = domain
	}

	e.Path = c.Path
	if e.Path == "" || e.Path[0] != '/' {
		e.Path = defaultPath(u.Path)
	}

	switch {
	case c.MaxAge < 0:
		e.Expires = now.Unix() - 1
	case c.MaxAge > 0:
		e.Expires = now.Add(time.Duration(c.MaxAge) * time.Second).Unix()
	case !c.Expires.IsZero():
		e.Expires = c.Expires.Unix()
	default:
		e.Expires = now.Add(defaultTTL).Unix()
	}

	return e, true
}

// Cookies returns the cookies to send to u, longest path first.
func (r *Redis) Cookies(u *url.URL) []*http.Cookie {
	if u == nil || (u.Scheme != "http" && u.Scheme != "https") {
		return nil
	}
	host, err := canonicalHost(u.Host)
	if err != nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), r.opTimeout)
	defer cancel()

	path := requestPath(u)
	https := u.Scheme == "https"
	now := r.now().Unix()

	var selected []entry
	for _, domain := range candidateDomains(host) {
		key := r.key(domain)
		raw, err := r.redis.HGetAll(ctx, key).Result()
		if err != nil {
			r.logger.Warn("cookie load failed", zap.String("domain", domain), zap.Error(err))
			return nil
		}
		for f, v := range raw {
			var e entry
			if err := json.Unmarshal([]byte(v), &e); err != nil {
				_ = r.redis.HDel(ctx, key, f).Err()
				continue
			}
			if e.Expires <= now {
				_ = r.redis.HDel(ctx, key, f).Err()
				continue
			}
			if e.sendable(host, path, https) {
				selected = append(selected, e)
			}
		}
	}
	return toCookies(selected)
}

// Clear deletes every hash under the store prefix.
func (r *Redis) Clear(ctx context.Context) error {
	iter := r.redis.Scan(ctx, 0, r.prefix+":cookies:*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	if len(keys) == 0 {
		return nil
	}
	if err := r.redis.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

func (e entry) sendable(host, path string, https bool) bool {
	if e.HostOnly && e.Domain != host {
		return false
	}
	if e.Secure && !https {
		return false
	}
	return pathMatch(path, e.Path)
}

// sortEntries orders entries longest path first, then by name and domain.
func sortEntries(entries []entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		if len(entries[i].Path) != len(entries[j].Path) {
			return len(entries[i].Path) > len(entries[j].Path)
		}
		if entries[i].Name != entries[j].Name {
			return entries[i].Name < entries[j].Name
		}
		return entries[i].Domain < entries[j].Domain
	})
}

func toCookies(selected []entry) []*http.Cookie {
	sortEntries(selected)

	out := make([]*http.Cookie, 0, len(selected))
	for _, e := range selected {
		out = append(out, &http.Cookie{Name: e.Name, Value: e.Value})
	}
	return out
}

func requestPath(u *url.URL) string {
	if u.Path == "" {
		return "/"
	}
	return u.Path
}

func canonicalHost(hostport string) (string, error) {
	host := hostport
	if h, _, err := net.SplitHostPort(hostport); err == nil {
		host = h
	}
	host = strings.TrimSuffix(strings.ToLower(host), ".")
	if host == "" {
		return "", errors.New("empty host")
	}
	return host, nil
}

func isIP(host string) bool {
	return net.ParseIP(strings.Trim(host, "[]")) != nil
}

// candidateDomains lists host and its parent domains, most specific first.
func candidateDomains(host string) []string {
	if isIP(host) {
		return []string{host}
	}
	out := []string{host}
	for i := 0; i < len(host); i++ {
		if host[i] == '.' {
			out = append(out, host[i+1:])
		}
	}
	return out
}

func defaultPath(p string) string {
	if p == "" || p[0] != '/' {
		return "/"
	}
	i := strings.LastIndex(p, "/")
	if i == 0 {
		return "/"
	}
	return p[:i]
}

func pathMatch(reqPath, cookiePath string) bool {
	if reqPath == cookiePath {
		return true
	}
	if !strings.HasPrefix(reqPath, cookiePath) {
		return false
	}
	return strings.HasSuffix(cookiePath, "/") || reqPath[len(cookiePath)] == '/'
}
