package suvtest

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/MrEthical07/suvclient/token"
	"golang.org/x/crypto/bcrypt"
)

const (
	// AdminUsername and AdminPassword are the seeded administrator.
	AdminUsername = "admin"
	AdminPassword = "admin123"
	// StaffUsername and StaffPassword are the seeded staff account.
	StaffUsername = "staff"
	StaffPassword = "staff123"

	TokenCookie = "token"
	CSRFCookie  = "csrf_token"
	CSRFHeader  = "X-CSRF-Token"
)

type account struct {
	ID          int64     `json:"id"`
	Username    string    `json:"username"`
	PassHash    []byte    `json:"-"`
	DisplayName string    `json:"display_name"`
	Role        string    `json:"role"`
	CreatedAt   time.Time `json:"created_at"`
}

type violation struct {
	ID          int64     `json:"id"`
	Dorm        string    `json:"dorm"`
	StudentName string    `json:"student_name"`
	ClassName   string    `json:"class_name"`
	Period      string    `json:"period"`
	Reason      string    `json:"reason"`
	Department  string    `json:"department"`
	Inspector   string    `json:"inspector"`
	PhotoPath   string    `json:"photo_path"`
	CreatedBy   int64     `json:"created_by"`
	CreatorName string    `json:"creator_name"`
	CreatedAt   time.Time `json:"created_at"`
}

type photo struct {
	contentType string
	data        []byte
}

// Recorded is one request seen by the server.
type Recorded struct {
	Method  string
	Path    string
	Header  http.Header
	Cookies []*http.Cookie
}

// Server is a fake suv deployment.
type Server struct {
	*httptest.Server

	signer *token.Signer
	now    func() time.Time

	mu         sync.Mutex
	accounts   []*account
	violations []*violation
	photos     map[int64]photo
	nextUser   int64
	nextRecord int64
	requests   []Recorded
	csrfOff    bool
}

// Option tweaks a Server.
type Option func(*Server)

// WithoutCSRF disables the CSRF check.
func WithoutCSRF() Option {
	return func(s *Server) { s.csrfOff = true }
}

// WithClock fixes the server clock.
func WithClock(now func() time.Time) Option {
	return func(s *Server) { s.now = now }
}

// New starts a server seeded with an admin and a staff account. It is
// closed when the test ends.
func New(t testing.TB, opts ...Option) *Server {
	t.Helper()
	s := NewUnstarted(opts...)
	s.Start()
	t.Cleanup(s.Close)
	return s
}

// NewUnstarted builds a server without starting it, for callers outside tests.
func NewUnstarted(opts ...Option) *Server {
	signer, err := token.NewSigner([]byte("suvtest-secret"), 24*time.Hour)
	if err != nil {
		panic(err)
	}

	s := &Server{
		signer: signer,
		now:    time.Now,
		photos: map[int64]photo{},
	}
	for _, opt := range opts {
		opt(s)
	}
	s.AddUser(AdminUsername, AdminPassword, "系统管理员", "admin")
	s.AddUser(StaffUsername, StaffPassword, "值班老师", "staff")

	s.Server = httptest.NewUnstartedServer(s.routes())
	return s
}

// AddUser creates an account and returns its id.
func (s *Server) AddUser(username, password, displayName, role string) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextUser++
	if displayName == "" {
		displayName = username
	}
	s.accounts = append(s.accounts, &account{
		ID:          s.nextUser,
		Username:    username,
		PassHash:    hashPassword(password),
		DisplayName: displayName,
		Role:        role,
		CreatedAt:   s.now(),
	})
	return s.nextUser
}

// IssueToken signs a session token for username, for tests that bypass login.
func (s *Server) IssueToken(username string) (string, bool) {
	s.mu.Lock()
	acc := s.findByName(username)
	s.mu.Unlock()
	if acc == nil {
		return "", false
	}
	raw, err := s.signer.Issue(acc.ID, acc.Username, acc.Role)
	return raw, err == nil
}

// Requests returns a copy of every request seen so far.
func (s *Server) Requests() []Recorded {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Recorded(nil), s.requests...)
}

// LastRequest returns the most recent request matching method and path.
func (s *Server) LastRequest(method, path string) (Recorded, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := len(s.requests) - 1; i >= 0; i-- {
		r := s.requests[i]
		if r.Method == method && r.Path == path {
			return r, true
		}
	}
	return Recorded{}, false
}

// ViolationCount returns how many records are stored.
func (s *Server) ViolationCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.violations)
}

func (s *Server) findByName(username string) *account {
	for _, a := range s.accounts {
		if a.Username == username {
			return a
		}
	}
	return nil
}

func (s *Server) findByID(id int64) (*account, int) {
	for i, a := range s.accounts {
		if a.ID == id {
			return a, i
		}
	}
	return nil, -1
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	page := func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte("<!doctype html><title>suv</title>"))
	}
	mux.HandleFunc("GET /login", page)
	mux.HandleFunc("GET /{$}", page)

	mux.HandleFunc("POST /api/login", s.login)
	mux.Handle("POST /api/logout", s.auth(s.logout))
	mux.Handle("GET /api/me", s.auth(s.me))

	mux.Handle("GET /api/violations", s.auth(s.listViolations))
	mux.Handle("GET /api/violations/today", s.auth(s.todayViolations))
	mux.Handle("POST /api/violations", s.auth(s.createViolation))
	mux.Handle("DELETE /api/violations/{id}", s.auth(s.deleteViolation))
	mux.Handle("GET /api/violations/{id}/photo", s.auth(s.violationPhoto))
	mux.Handle("GET /api/export", s.auth(s.exportCSV))
	mux.Handle("GET /api/stats", s.auth(s.stats))

	mux.Handle("GET /api/users", s.auth(s.admin(s.listUsers)))
	mux.Handle("POST /api/users", s.auth(s.admin(s.createUser)))
	mux.Handle("DELETE /api/users/{id}", s.auth(s.admin(s.deleteUser)))
	mux.Handle("PUT /api/users/{id}/password", s.auth(s.admin(s.resetPassword)))

	return s.record(s.csrf(mux))
}

func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.requests = append(s.requests, Recorded{
			Method:  r.Method,
			Path:    r.URL.Path,
			Header:  r.Header.Clone(),
			Cookies: r.Cookies(),
		})
		s.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

func (s *Server) csrf(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			http.SetCookie(w, &http.Cookie{Name: CSRFCookie, Value: randomHex(), Path: "/", MaxAge: 3600})
			next.ServeHTTP(w, r)
			return
		}
		if s.csrfOff {
			next.ServeHTTP(w, r)
			return
		}

		cookie, err := r.Cookie(CSRFCookie)
		if err != nil {
			writeError(w, http.StatusForbidden, "缺少 CSRF token")
			return
		}
		if h := r.Header.Get(CSRFHeader); h == "" || h != cookie.Value {
			writeError(w, http.StatusForbidden, "CSRF 验证失败")
			return
		}
		next.ServeHTTP(w, r)
	})
}

type authedHandler func(w http.ResponseWriter, r *http.Request, c *token.Claims)

func (s *Server) auth(next authedHandler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := ""
		if c, err := r.Cookie(TokenCookie); err == nil {
			raw = c.Value
		}
		if raw == "" {
			raw = strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		}
		if raw == "" {
			writeError(w, http.StatusUnauthorized, "未登录")
			return
		}
		claims, err := s.signer.Verify(raw)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "登录已过期")
			return
		}
		next(w, r, claims)
	})
}

func (s *Server) admin(next authedHandler) authedHandler {
	return func(w http.ResponseWriter, r *http.Request, c *token.Claims) {
		if !c.IsAdmin() {
			writeError(w, http.StatusForbidden, "权限不足")
			return
		}
		next(w, r, c)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// hashPassword uses the minimum bcrypt cost to keep tests fast.
func hashPassword(password string) []byte {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		panic(err)
	}
	return hash
}

func randomHex() string {
	b := make([]byte, 32)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}
