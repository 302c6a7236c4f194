package cookiestore

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// File is a cookie jar persisted as a YAML document, for command-line use
// where the session must outlive the process. Every change rewrites the file
// with mode 0600.
type File struct {
	path       string
	defaultTTL time.Duration
	logger     *zap.Logger
	now        func() time.Time

	mu      sync.Mutex
	entries map[string]entry
}

type fileDocument struct {
	Cookies []entry `yaml:"cookies"`
}

// NewFile opens the store at path. A missing file is an empty store.
func NewFile(path string, defaultTTL time.Duration, logger *zap.Logger) (*File, error) {
	if path == "" {
		return nil, errors.New("cookie file path is empty")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	f := &File{
		path:       path,
		defaultTTL: defaultTTL,
		logger:     logger,
		now:        time.Now,
		entries:    map[string]entry{},
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return f, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read cookie file: %w", err)
	}

	var doc fileDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse cookie file %s: %w", path, err)
	}
	for _, e := range doc.Cookies {
		f.entries[fileKey(e)] = e
	}
	return f, nil
}

func fileKey(e entry) string {
	return e.Domain + "|" + field(e.Name, e.Path)
}

// Path returns the backing file.
func (f *File) Path() string { return f.path }

func (f *File) SetCookies(u *url.URL, cookies []*http.Cookie) {
	if u == nil || len(cookies) == 0 {
		return
	}
	host, err := canonicalHost(u.Host)
	if err != nil {
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	now := f.now()
	changed := false
	for _, c := range cookies {
		e, ok := newEntry(host, u, c, now, f.defaultTTL)
		if !ok {
			continue
		}
		k := fileKey(e)
		if e.Expires <= now.Unix() {
			if _, ok := f.entries[k]; ok {
				delete(f.entries, k)
				changed = true
			}
			continue
		}
		f.entries[k] = e
		changed = true
	}
	if changed {
		f.persistLocked()
	}
}

// Cookies returns the cookies to send to u, longest path first.
func (f *File) Cookies(u *url.URL) []*http.Cookie {
	if u == nil || (u.Scheme != "http" && u.Scheme != "https") {
		return nil
	}
	host, err := canonicalHost(u.Host)
	if err != nil {
		return nil
	}
	path := requestPath(u)
	https := u.Scheme == "https"

	f.mu.Lock()
	defer f.mu.Unlock()

	now := f.now().Unix()
	domains := map[string]bool{}
	for _, d := range candidateDomains(host) {
		domains[d] = true
	}

	var selected []entry
	expired := false
	for k, e := range f.entries {
		if e.Expires <= now {
			delete(f.entries, k)
			expired = true
			continue
		}
		if domains[e.Domain] && e.sendable(host, path, https) {
			selected = append(selected, e)
		}
	}
	if expired {
		f.persistLocked()
	}
	return toCookies(selected)
}

// Clear drops every cookie and removes the file.
func (f *File) Clear(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.entries = map[string]entry{}
	if err := os.Remove(f.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove cookie file: %w", err)
	}
	return nil
}

func (f *File) persistLocked() {
	if err := f.writeLocked(); err != nil {
		f.logger.Warn("cookie file save failed", zap.String("path", f.path), zap.Error(err))
	}
}

func (f *File) writeLocked() error {
	doc := fileDocument{Cookies: make([]entry, 0, len(f.entries))}
	for _, e := range f.entries {
		doc.Cookies = append(doc.Cookies, e)
	}
	// stable output keeps diffs of the file readable
	sortEntries(doc.Cookies)

	data, err := yaml.Marshal(doc)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(f.path), 0o700); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(f.path), ".cookies-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Chmod(0o600); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), f.path)
}
