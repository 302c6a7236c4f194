package suvclient

import (
	"context"
	"net/http"
	"strconv"
	"time"
)

// Account is a user row as listed by the admin routes.
type Account struct {
	ID          int64     `json:"id" yaml:"id"`
	Username    string    `json:"username" yaml:"username"`
	DisplayName string    `json:"display_name" yaml:"display_name"`
	Role        string    `json:"role" yaml:"role"`
	CreatedAt   time.Time `json:"created_at" yaml:"created_at"`
}

// NewUser is the payload of CreateUser. Role is "admin" or "staff"; an empty
// DisplayName defaults to Username on the server.
type NewUser struct {
	Username    string `json:"username"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name,omitempty"`
	Role        string `json:"role"`
}

const usersPath = "/api/users"

// ListUsers returns every account. Admin only.
func (c *Client) ListUsers(ctx context.Context) ([]Account, error) {
	if c == nil {
		return nil, ErrClientNotReady
	}
	var out struct {
		Data []Account `json:"data"`
	}
	if err := c.call(ctx, http.MethodGet, usersPath, nil, &out); err != nil {
		return nil, err
	}
	return out.Data, nil
}

// CreateUser adds an account. Admin only.
func (c *Client) CreateUser(ctx context.Context, u NewUser) error {
	if c == nil {
		return ErrClientNotReady
	}
	return c.call(ctx, http.MethodPost, usersPath, u, nil)
}

// DeleteUser removes an account. The server refuses to delete the caller.
func (c *Client) DeleteUser(ctx context.Context, id int64) error {
	if c == nil {
		return ErrClientNotReady
	}
	if id < 1 {
		return ErrInvalidID
	}
	return c.call(ctx, http.MethodDelete, usersPath+"/"+strconv.FormatInt(id, 10), nil, nil)
}

// ResetPassword sets a new password for an account. Admin only.
func (c *Client) ResetPassword(ctx context.Context, id int64, password string) error {
	if c == nil {
		return ErrClientNotReady
	}
	if id < 1 {
		return ErrInvalidID
	}
	body := struct {
		Password string `json:"password"`
	}{Password: password}
	return c.call(ctx, http.MethodPut, usersPath+"/"+strconv.FormatInt(id, 10)+"/password", body, nil)
}
