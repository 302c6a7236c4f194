package cookiestore

import (
	"context"
	"net/http"
	"net/url"
)

// Store is a cookie jar that can be emptied.
type Store interface {
	http.CookieJar
	Clear(ctx context.Context) error
}

// Lookup returns the value of the cookie name that jar would send to u.
func Lookup(jar http.CookieJar, u *url.URL, name string) (string, bool) {
	if jar == nil || u == nil {
		return "", false
	}
	for _, c := range jar.Cookies(u) {
		if c.Name == name {
			return c.Value, true
		}
	}
	return "", false
}
