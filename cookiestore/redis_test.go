package cookiestore

import (
	"context"
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisStoreTest(t *testing.T) (*Redis, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewRedis(rdb, "suv", time.Hour), mr
}

func mustURL(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	require.NoError(t, err)
	return u
}

func names(cookies []*http.Cookie) []string {
	out := make([]string, 0, len(cookies))
	for _, c := range cookies {
		out = append(out, c.Name+"="+c.Value)
	}
	return out
}

func TestRedisStoreRoundTrip(t *testing.T) {
	store, mr := newRedisStoreTest(t)
	u := mustURL(t, "http://suv.example.com/api/login")

	store.SetCookies(u, []*http.Cookie{
		{Name: "token", Value: "jwt", Path: "/", HttpOnly: true, MaxAge: 86400},
		{Name: "csrf_token", Value: "abc", Path: "/", MaxAge: 3600},
	})

	got := store.Cookies(mustURL(t, "http://suv.example.com/api/me"))
	assert.ElementsMatch(t, []string{"token=jwt", "csrf_token=abc"}, names(got))

	assert.True(t, mr.Exists("suv:cookies:suv.example.com"))
	assert.Greater(t, mr.TTL("suv:cookies:suv.example.com"), 23*time.Hour)
}

func TestRedisStoreNegativeMaxAgeDeletes(t *testing.T) {
	store, _ := newRedisStoreTest(t)
	u := mustURL(t, "http://suv.example.com/")

	store.SetCookies(u, []*http.Cookie{{Name: "token", Value: "jwt", Path: "/"}})
	require.Len(t, store.Cookies(u), 1)

	// logout clears the cookie with MaxAge -1
	store.SetCookies(u, []*http.Cookie{{Name: "token", Value: "", Path: "/", MaxAge: -1}})
	assert.Empty(t, store.Cookies(u))
}

func TestRedisStoreExpiredEntriesAreSkipped(t *testing.T) {
	store, mr := newRedisStoreTest(t)
	u := mustURL(t, "http://suv.example.com/")
	now := time.Now()
	store.now = func() time.Time { return now }

	store.SetCookies(u, []*http.Cookie{{Name: "csrf_token", Value: "abc", Path: "/", MaxAge: 60}})
	require.Len(t, store.Cookies(u), 1)

	store.now = func() time.Time { return now.Add(2 * time.Minute) }
	assert.Empty(t, store.Cookies(u))

	fields, err := mr.HKeys("suv:cookies:suv.example.com")
	if err == nil {
		assert.Empty(t, fields, "expired cookie must be removed lazily")
	}
}

func TestRedisStoreHostOnlyAndDomainCookies(t *testing.T) {
	store, _ := newRedisStoreTest(t)

	store.SetCookies(mustURL(t, "http://app.suv.example.com/"), []*http.Cookie{
		{Name: "host", Value: "1", Path: "/"},
		{Name: "shared", Value: "2", Path: "/", Domain: ".suv.example.com"},
	})

	assert.ElementsMatch(t, []string{"host=1", "shared=2"},
		names(store.Cookies(mustURL(t, "http://app.suv.example.com/"))))
	assert.Equal(t, []string{"shared=2"},
		names(store.Cookies(mustURL(t, "http://other.suv.example.com/"))))
	assert.Empty(t, store.Cookies(mustURL(t, "http://evil.example.org/")))
}

func TestRedisStoreRejectsForeignAndPublicSuffixDomains(t *testing.T) {
	store, _ := newRedisStoreTest(t)
	u := mustURL(t, "http://suv.example.com/")

	store.SetCookies(u, []*http.Cookie{
		{Name: "foreign", Value: "x", Domain: "example.org"},
		{Name: "suffix", Value: "x", Domain: "com"},
	})

	assert.Empty(t, store.Cookies(u))
	assert.Empty(t, store.Cookies(mustURL(t, "http://example.org/")))
}

func TestRedisStorePathAndSecureMatching(t *testing.T) {
	store, _ := newRedisStoreTest(t)

	store.SetCookies(mustURL(t, "https://suv.example.com/api/x"), []*http.Cookie{
		{Name: "root", Value: "r", Path: "/"},
		{Name: "api", Value: "a", Path: "/api"},
		{Name: "secure", Value: "s", Path: "/", Secure: true},
	})

	got := names(store.Cookies(mustURL(t, "https://suv.example.com/api/violations")))
	require.Len(t, got, 3)
	assert.Equal(t, "api=a", got[0], "longest path first")

	assert.ElementsMatch(t, []string{"root=r"},
		names(store.Cookies(mustURL(t, "http://suv.example.com/apiother"))))
}

func TestRedisStoreClear(t *testing.T) {
	store, mr := newRedisStoreTest(t)
	u := mustURL(t, "http://suv.example.com/")
	store.SetCookies(u, []*http.Cookie{{Name: "token", Value: "jwt"}})
	require.NoError(t, mr.Set("other:key", "keep"))

	require.NoError(t, store.Clear(context.Background()))

	assert.Empty(t, store.Cookies(u))
	assert.True(t, mr.Exists("other:key"), "clear must stay inside the prefix")
}

func TestRedisStoreUnavailable(t *testing.T) {
	store, mr := newRedisStoreTest(t)
	mr.Close()

	u := mustURL(t, "http://suv.example.com/")
	store.SetCookies(u, []*http.Cookie{{Name: "token", Value: "jwt"}})
	assert.Empty(t, store.Cookies(u))
	assert.ErrorIs(t, store.Clear(context.Background()), ErrRedisUnavailable)
}

func TestLookup(t *testing.T) {
	store := NewMemory()
	u := mustURL(t, "http://suv.example.com/")
	store.SetCookies(u, []*http.Cookie{{Name: "csrf_token", Value: "abc"}})

	v, ok := Lookup(store, u, "csrf_token")
	assert.True(t, ok)
	assert.Equal(t, "abc", v)

	_, ok = Lookup(store, u, "missing")
	assert.False(t, ok)
	_, ok = Lookup(nil, u, "csrf_token")
	assert.False(t, ok)
}
