package suvclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/MrEthical07/suvclient/cookiestore"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Request sends one request to path, resolved against the base URL.
//
// Cookies are attached only when the target shares the base origin. A 401
// reply is never handed to the caller: the body is closed unread, the client
// navigates once to the login route, and the result is
// [OutcomeUnauthenticated] with a nil error. Every other status is returned
// unexamined. Transport failures are returned as errors.
func (c *Client) Request(ctx context.Context, path string, opts *RequestOptions) (Result, error) {
	if c == nil {
		return Result{}, ErrClientNotReady
	}

	resp, err := c.send(ctx, path, opts)
	if err != nil {
		return Result{}, err
	}

	if resp.StatusCode == http.StatusUnauthorized {
		_ = resp.Body.Close()
		c.metrics.Inc(MetricUnauthenticated)
		c.navigate(ctx, c.config.Paths.Login)
		return Result{Outcome: OutcomeUnauthenticated}, nil
	}

	return Result{Outcome: OutcomeAuthenticated, Response: resp}, nil
}

// RequestJSON calls [Client.Request] and decodes the body into out whatever
// the status. An unauthenticated result is returned untouched. The response
// body is consumed and closed. A body that is not valid JSON fails with an
// error wrapping [ErrDecode]; a nil out still validates the body.
func (c *Client) RequestJSON(ctx context.Context, path string, opts *RequestOptions, out any) (Result, error) {
	res, err := c.Request(ctx, path, opts)
	if err != nil || res.Outcome != OutcomeAuthenticated {
		return res, err
	}
	defer res.Response.Body.Close()

	if out == nil {
		var discard json.RawMessage
		out = &discard
	}
	if err := decodeJSON(res.Response.Body, out); err != nil {
		c.metrics.Inc(MetricDecodeFailure)
		return res, fmt.Errorf("%w: %s: %v", ErrDecode, path, err)
	}
	return res, nil
}

// send performs the request without applying the 401 policy.
func (c *Client) send(ctx context.Context, path string, opts *RequestOptions) (*http.Response, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	var o RequestOptions
	if opts != nil {
		o = *opts
	}
	if o.Credentials != "" && o.Credentials != CredentialsSameOrigin {
		c.logger.Debug("credentials mode overridden",
			zap.String("requested", string(o.Credentials)),
			zap.String("path", path),
		)
	}
	o.Credentials = CredentialsSameOrigin

	target, err := c.resolve(path)
	if err != nil {
		return nil, err
	}
	sameOrigin := c.isSameOrigin(target)

	header := o.Header.Clone()
	if header == nil {
		header = http.Header{}
	}

	body := o.Body
	if o.JSON != nil {
		data, err := json.Marshal(o.JSON)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrEncode, err)
		}
		body = bytes.NewReader(data)
		header.Set("Content-Type", "application/json")
	}

	method := o.Method
	if method == "" {
		method = http.MethodGet
	}

	req, err := http.NewRequestWithContext(ctx, method, target.String(), body)
	if err != nil {
		return nil, fmt.Errorf("build request %s %s: %w", method, path, err)
	}
	req.Header = header

	if c.config.HTTP.UserAgent != "" && req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", c.config.HTTP.UserAgent)
	}
	requestID := ""
	if name := c.config.HTTP.RequestIDHeader; name != "" {
		requestID = req.Header.Get(name)
		if requestID == "" {
			requestID = uuid.NewString()
			req.Header.Set(name, requestID)
		}
	}

	transport := c.crossOrigin
	if sameOrigin {
		transport = c.sameOrigin
		c.attachCSRF(req)
	} else {
		c.metrics.Inc(MetricCrossOrigin)
	}

	c.metrics.Inc(MetricRequest)
	start := time.Now()
	resp, err := transport.Do(req)
	elapsed := time.Since(start)
	c.metrics.Observe(MetricRequestLatency, elapsed)

	if err != nil {
		c.metrics.Inc(MetricRequestError)
		c.logger.Warn("request failed",
			zap.String("method", method),
			zap.String("path", path),
			zap.String("request_id", requestID),
			zap.Duration("latency", elapsed),
			zap.Error(err),
		)
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}

	c.logger.Debug("request",
		zap.String("method", method),
		zap.String("path", path),
		zap.Int("status", resp.StatusCode),
		zap.String("request_id", requestID),
		zap.Bool("same_origin", sameOrigin),
		zap.Duration("latency", elapsed),
	)
	return resp, nil
}

// attachCSRF echoes the CSRF cookie in the header on mutating requests,
// unless the caller already set one.
func (c *Client) attachCSRF(req *http.Request) {
	if !c.config.CSRF.Enabled || isSafeMethod(req.Method) {
		return
	}
	if req.Header.Get(c.config.CSRF.HeaderName) != "" {
		return
	}
	if v, ok := cookiestore.Lookup(c.store, req.URL, c.config.CSRF.CookieName); ok {
		req.Header.Set(c.config.CSRF.HeaderName, v)
	}
}

var errTrailingData = errors.New("unexpected data after JSON value")

// decodeJSON decodes exactly one JSON value from r into out. Anything other
// than whitespace after that value is an error.
func decodeJSON(r io.Reader, out any) error {
	dec := json.NewDecoder(r)
	if err := dec.Decode(out); err != nil {
		return err
	}
	if _, err := dec.Token(); err != io.EOF {
		return errTrailingData
	}
	return nil
}

// readAPIError turns a non-2xx reply into an *APIError. The caller closes the body.
func readAPIError(resp *http.Response) error {
	apiErr := &APIError{StatusCode: resp.StatusCode}
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	var payload struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(data, &payload) == nil && payload.Error != "" {
		apiErr.Message = payload.Error
	} else {
		apiErr.Message = string(bytes.TrimSpace(data))
	}
	return apiErr
}

// call runs a typed API request: in is sent as JSON when non-nil, a 2xx body
// is decoded into out, and other statuses become *APIError.
func (c *Client) call(ctx context.Context, method, path string, in, out any) error {
	opts := &RequestOptions{Method: method}
	if in != nil {
		opts.JSON = in
	}
	return c.callWith(ctx, path, opts, out)
}

func (c *Client) callWith(ctx context.Context, path string, opts *RequestOptions, out any) error {
	resp, err := c.open(ctx, path, opts)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := decodeJSON(resp.Body, out); err != nil {
		c.metrics.Inc(MetricDecodeFailure)
		return fmt.Errorf("%w: %s: %v", ErrDecode, path, err)
	}
	return nil
}

// open runs a typed API request and returns the 2xx response with its body
// still open.
func (c *Client) open(ctx context.Context, path string, opts *RequestOptions) (*http.Response, error) {
	if opts != nil && opts.Method != "" && !isSafeMethod(opts.Method) {
		if err := c.ensureCSRF(ctx); err != nil {
			return nil, err
		}
	}

	res, err := c.Request(ctx, path, opts)
	if err != nil {
		return nil, err
	}
	if res.Outcome == OutcomeUnauthenticated {
		return nil, ErrUnauthenticated
	}
	resp := res.Response
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		return nil, readAPIError(resp)
	}
	return resp, nil
}
