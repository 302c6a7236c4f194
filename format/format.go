package format

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrBadTime is returned when a timestamp matches none of the accepted layouts.
var ErrBadTime = errors.New("unrecognised timestamp")

const (
	DateLayout     = "2006-01-02"
	DateTimeLayout = "2006-01-02 15:04"
)

var textEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	"\u00a0", "&nbsp;",
)

// EscapeHTML escapes s for use as HTML text content. Quotes are left alone,
// so the result is not safe inside an attribute value.
func EscapeHTML(s string) string {
	if s == "" {
		return ""
	}
	return textEscaper.Replace(s)
}

// layouts accepted by Parse. Zoned layouts come first; the rest are read in
// the caller's location.
var layouts = []struct {
	layout string
	zoned  bool
}{
	{time.RFC3339Nano, true},
	{"2006-01-02 15:04:05Z07:00", true},
	{"2006-01-02T15:04:05", false},
	{"2006-01-02 15:04:05", false},
	{"2006-01-02 15:04", false},
	{DateLayout, false},
}

// Parse reads a server timestamp. A nil loc means time.Local.
func Parse(s string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	s = strings.TrimSpace(s)
	for _, l := range layouts {
		var (
			t   time.Time
			err error
		)
		if l.zoned {
			t, err = time.Parse(l.layout, s)
		} else {
			t, err = time.ParseInLocation(l.layout, s, loc)
		}
		if err == nil {
			return t.In(loc), nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrBadTime, s)
}

// FormatDate renders s as YYYY-MM-DD in loc.
func FormatDate(s string, loc *time.Location) (string, error) {
	t, err := Parse(s, loc)
	if err != nil {
		return "", err
	}
	return t.Format(DateLayout), nil
}

// FormatDateTime renders s as YYYY-MM-DD HH:MM in loc.
func FormatDateTime(s string, loc *time.Location) (string, error) {
	t, err := Parse(s, loc)
	if err != nil {
		return "", err
	}
	return t.Format(DateTimeLayout), nil
}

// Date renders t as YYYY-MM-DD in loc. The zero time renders empty.
func Date(t time.Time, loc *time.Location) string {
	if t.IsZero() {
		return ""
	}
	if loc == nil {
		loc = time.Local
	}
	return t.In(loc).Format(DateLayout)
}

// DateTime renders t as YYYY-MM-DD HH:MM in loc. The zero time renders empty.
func DateTime(t time.Time, loc *time.Location) string {
	if t.IsZero() {
		return ""
	}
	if loc == nil {
		loc = time.Local
	}
	return t.In(loc).Format(DateTimeLayout)
}
