package suvclient

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"

	internalnotify "github.com/MrEthical07/suvclient/internal/notify"
)

// CredentialsMode mirrors the fetch credentials setting. The client accepts
// it for compatibility but always sends credentials same-origin only.
type CredentialsMode string

const (
	CredentialsSameOrigin CredentialsMode = "same-origin"
	CredentialsInclude    CredentialsMode = "include"
	CredentialsOmit       CredentialsMode = "omit"
)

// RequestOptions configures one call to [Client.Request].
//
// JSON, when non-nil, is encoded as the request body with a JSON content
// type and is consumed by the client rather than forwarded. Method, Header
// and Body pass through unmodified. Credentials is always overridden with
// [CredentialsSameOrigin].
type RequestOptions struct {
	JSON        any
	Method      string
	Header      http.Header
	Body        io.Reader
	Credentials CredentialsMode
}

// Outcome tags a [Result].
type Outcome uint8

const (
	// OutcomeAuthenticated means the server answered with anything but 401.
	OutcomeAuthenticated Outcome = iota + 1
	// OutcomeUnauthenticated means the server answered 401 and the client has
	// already navigated to the login route.
	OutcomeUnauthenticated
)

func (o Outcome) String() string {
	switch o {
	case OutcomeAuthenticated:
		return "authenticated"
	case OutcomeUnauthenticated:
		return "unauthenticated"
	default:
		return "unknown"
	}
}

// Result is the tagged outcome of a request. Response is nil unless Outcome
// is OutcomeAuthenticated; the caller owns and must close its body.
type Result struct {
	Outcome  Outcome
	Response *http.Response
}

// Authenticated reports whether r carries a response.
func (r Result) Authenticated() bool {
	return r.Outcome == OutcomeAuthenticated && r.Response != nil
}

// User is the cached current user. Raw holds the exact object the server
// sent; the typed fields are filled when present.
type User struct {
	ID          int64  `json:"id"`
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
	Role        string `json:"role"`

	Raw json.RawMessage `json:"-"`
}

// IsAdmin reports whether u has the admin role.
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == "admin"
}

// UnmarshalJSON fills the typed fields and keeps a copy of data in Raw.
func (u *User) UnmarshalJSON(data []byte) error {
	type plain User
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*u = User(p)
	u.Raw = append(json.RawMessage(nil), bytes.TrimSpace(data)...)
	return nil
}

// MarshalJSON returns Raw when set so a cached user round-trips unchanged.
func (u User) MarshalJSON() ([]byte, error) {
	if len(u.Raw) > 0 {
		return u.Raw, nil
	}
	type plain User
	return json.Marshal(plain(u))
}

// Fields decodes Raw into a generic map.
func (u *User) Fields() (map[string]any, error) {
	if u == nil || len(u.Raw) == 0 {
		return nil, nil
	}
	var m map[string]any
	if err := json.Unmarshal(u.Raw, &m); err != nil {
		return nil, err
	}
	return m, nil
}

// NoticeLevel is the kind of a toast.
type NoticeLevel = internalnotify.Level

const (
	NoticeSuccess = internalnotify.LevelSuccess
	NoticeError   = internalnotify.LevelError
	NoticeWarning = internalnotify.LevelWarning
)

// Notice is one toast handed to a [NotifySink].
type Notice = internalnotify.Notice

// NotifySink receives toasts from the client's dispatcher.
type NotifySink = internalnotify.Sink

// NoOpSink discards every notice.
type NoOpSink = internalnotify.NoOpSink

// ChannelSink is a buffered channel-based [NotifySink].
type ChannelSink = internalnotify.ChannelSink

// WriterSink writes the display text of each notice on its own line.
type WriterSink = internalnotify.WriterSink

// JSONWriterSink writes one JSON object per notice.
type JSONWriterSink = internalnotify.JSONWriterSink

// ZapSink logs notices through zap.
type ZapSink = internalnotify.ZapSink

// NewChannelSink returns a [ChannelSink] with the given buffer.
func NewChannelSink(buffer int) *ChannelSink {
	return internalnotify.NewChannelSink(buffer)
}

// NewWriterSink returns a [WriterSink] writing to w.
func NewWriterSink(w io.Writer) *WriterSink {
	return internalnotify.NewWriterSink(w)
}

// NewJSONWriterSink returns a [JSONWriterSink] writing to w.
func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return internalnotify.NewJSONWriterSink(w)
}
