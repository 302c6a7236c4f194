package suvclient

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Violation is one disciplinary record.
type Violation struct {
	ID          int64     `json:"id" yaml:"id"`
	Dorm        string    `json:"dorm" yaml:"dorm"`
	StudentName string    `json:"student_name" yaml:"student_name"`
	ClassName   string    `json:"class_name" yaml:"class_name"`
	Period      string    `json:"period" yaml:"period"`
	Reason      string    `json:"reason" yaml:"reason"`
	Department  string    `json:"department" yaml:"department"`
	Inspector   string    `json:"inspector" yaml:"inspector"`
	PhotoPath   string    `json:"photo_path" yaml:"photo_path,omitempty"`
	CreatedBy   int64     `json:"created_by" yaml:"created_by"`
	CreatorName string    `json:"creator_name" yaml:"creator_name"`
	CreatedAt   time.Time `json:"created_at" yaml:"created_at"`
}

// HasPhoto reports whether the record has an attached photo.
func (v Violation) HasPhoto() bool {
	return v.PhotoPath != ""
}

// ViolationQuery filters ListViolations. Zero values are left to the server
// defaults (page 1, 50 per page, no filter).
type ViolationQuery struct {
	Date    string // YYYY-MM-DD
	Page    int
	Limit   int // the server caps this at 200
	Keyword string
}

func (q ViolationQuery) values() url.Values {
	v := url.Values{}
	if q.Date != "" {
		v.Set("date", q.Date)
	}
	if q.Page > 0 {
		v.Set("page", strconv.Itoa(q.Page))
	}
	if q.Limit > 0 {
		v.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.Keyword != "" {
		v.Set("keyword", q.Keyword)
	}
	return v
}

// ViolationPage is one page of ListViolations.
type ViolationPage struct {
	Data  []Violation `json:"data" yaml:"data"`
	Total int         `json:"total" yaml:"total"`
	Page  int         `json:"page" yaml:"page"`
	Limit int         `json:"limit" yaml:"limit"`
}

// Pages returns how many pages the result set spans.
func (p *ViolationPage) Pages() int {
	if p == nil || p.Limit <= 0 {
		return 0
	}
	return (p.Total + p.Limit - 1) / p.Limit
}

// TodayViolations is the reply of the today route.
type TodayViolations struct {
	Data  []Violation `json:"data" yaml:"data"`
	Date  string      `json:"date" yaml:"date"`
	Count int         `json:"count" yaml:"count"`
}

// ViolationInput holds the form fields of a new record. Every field is
// required by the server.
type ViolationInput struct {
	Dorm        string `json:"dorm"`
	StudentName string `json:"student_name"`
	ClassName   string `json:"class_name"`
	Period      string `json:"period"`
	Reason      string `json:"reason"`
	Department  string `json:"department"`
	Inspector   string `json:"inspector"`
}

func (in ViolationInput) fields() [][2]string {
	return [][2]string{
		{"dorm", in.Dorm},
		{"student_name", in.StudentName},
		{"class_name", in.ClassName},
		{"period", in.Period},
		{"reason", in.Reason},
		{"department", in.Department},
		{"inspector", in.Inspector},
	}
}

// Validate reports the first missing field.
func (in ViolationInput) Validate() error {
	for _, f := range in.fields() {
		if strings.TrimSpace(f[1]) == "" {
			return fmt.Errorf("violation field %s is required", f[0])
		}
	}
	return nil
}

// Photo is an optional image attached to a new record. The server accepts
// jpg, jpeg, png, gif and webp up to its upload limit.
type Photo struct {
	Filename    string
	ContentType string // sniffed from Data when empty
	Data        io.Reader
}

const (
	violationsPath      = "/api/violations"
	todayViolationsPath = "/api/violations/today"
)

// ListViolations returns one page of records, newest first.
func (c *Client) ListViolations(ctx context.Context, q ViolationQuery) (*ViolationPage, error) {
	if c == nil {
		return nil, ErrClientNotReady
	}
	path := violationsPath
	if enc := q.values().Encode(); enc != "" {
		path += "?" + enc
	}
	var out ViolationPage
	if err := c.call(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// TodayViolations returns every record created today, server time.
func (c *Client) TodayViolations(ctx context.Context) (*TodayViolations, error) {
	if c == nil {
		return nil, ErrClientNotReady
	}
	var out TodayViolations
	if err := c.call(ctx, http.MethodGet, todayViolationsPath, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateViolation submits a record as a multipart form and returns its id.
func (c *Client) CreateViolation(ctx context.Context, in ViolationInput, photo *Photo) (int64, error) {
	if c == nil {
		return 0, ErrClientNotReady
	}
	if err := in.Validate(); err != nil {
		return 0, err
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for _, f := range in.fields() {
		if err := mw.WriteField(f[0], f[1]); err != nil {
			return 0, fmt.Errorf("%w: %v", ErrEncode, err)
		}
	}
	if photo != nil && photo.Data != nil {
		if err := writePhoto(mw, photo); err != nil {
			return 0, fmt.Errorf("%w: photo: %v", ErrEncode, err)
		}
	}
	if err := mw.Close(); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrEncode, err)
	}

	header := http.Header{}
	header.Set("Content-Type", mw.FormDataContentType())

	var out struct {
		ID      int64  `json:"id"`
		Message string `json:"message"`
	}
	err := c.callWith(ctx, violationsPath, &RequestOptions{
		Method: http.MethodPost,
		Header: header,
		Body:   &body,
	}, &out)
	if err != nil {
		return 0, err
	}
	return out.ID, nil
}

func writePhoto(mw *multipart.Writer, p *Photo) error {
	data, err := io.ReadAll(p.Data)
	if err != nil {
		return err
	}
	name := filepath.Base(p.Filename)
	if name == "." || name == "/" || name == "" {
		name = "photo.jpg"
	}
	ct := p.ContentType
	if ct == "" {
		ct = http.DetectContentType(data)
	}

	h := textproto.MIMEHeader{}
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="photo"; filename=%q`, name))
	h.Set("Content-Type", ct)
	part, err := mw.CreatePart(h)
	if err != nil {
		return err
	}
	_, err = part.Write(data)
	return err
}

// DeleteViolation removes a record and its photo.
func (c *Client) DeleteViolation(ctx context.Context, id int64) error {
	if c == nil {
		return ErrClientNotReady
	}
	if id < 1 {
		return ErrInvalidID
	}
	return c.call(ctx, http.MethodDelete, violationsPath+"/"+strconv.FormatInt(id, 10), nil, nil)
}

// ViolationPhoto streams the photo of a record. The caller closes the reader.
func (c *Client) ViolationPhoto(ctx context.Context, id int64) (io.ReadCloser, string, error) {
	if c == nil {
		return nil, "", ErrClientNotReady
	}
	if id < 1 {
		return nil, "", ErrInvalidID
	}
	resp, err := c.open(ctx, violationsPath+"/"+strconv.FormatInt(id, 10)+"/photo", nil)
	if err != nil {
		return nil, "", err
	}
	return resp.Body, resp.Header.Get("Content-Type"), nil
}
