package cookiestore

import (
	"context"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"sync"

	"golang.org/x/net/publicsuffix"
)

// Memory is an in-process cookie jar.
type Memory struct {
	mu  sync.RWMutex
	jar *cookiejar.Jar
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{jar: newJar()}
}

func newJar() *cookiejar.Jar {
	// cookiejar.New only fails on a nil-safe options path that never errors.
	jar, _ := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	return jar
}

func (m *Memory) SetCookies(u *url.URL, cookies []*http.Cookie) {
	m.mu.RLock()
	jar := m.jar
	m.mu.RUnlock()
	jar.SetCookies(u, cookies)
}

func (m *Memory) Cookies(u *url.URL) []*http.Cookie {
	m.mu.RLock()
	jar := m.jar
	m.mu.RUnlock()
	return jar.Cookies(u)
}

// Clear drops every cookie.
func (m *Memory) Clear(context.Context) error {
	m.mu.Lock()
	m.jar = newJar()
	m.mu.Unlock()
	return nil
}
