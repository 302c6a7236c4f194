package suvclient

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
)

// Stats is the dashboard summary.
type Stats struct {
	TodayCount int `json:"today_count" yaml:"today_count"`
	TotalCount int `json:"total_count" yaml:"total_count"`
	UserCount  int `json:"user_count" yaml:"user_count"`
}

// Stats returns record and account counts.
func (c *Client) Stats(ctx context.Context) (*Stats, error) {
	if c == nil {
		return nil, ErrClientNotReady
	}
	var out Stats
	if err := c.call(ctx, http.MethodGet, "/api/stats", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ExportCSV writes the CSV export of one day (YYYY-MM-DD, empty for today)
// to w, byte for byte including the leading BOM.
func (c *Client) ExportCSV(ctx context.Context, date string, w io.Writer) (int64, error) {
	if c == nil {
		return 0, ErrClientNotReady
	}
	path := "/api/export"
	if date != "" {
		path += "?" + url.Values{"date": {date}}.Encode()
	}

	resp, err := c.open(ctx, path, nil)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	n, err := io.Copy(w, resp.Body)
	if err != nil {
		return n, fmt.Errorf("copy export: %w", err)
	}
	return n, nil
}
