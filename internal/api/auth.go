package api

import (
	"context"
	"net/http"

	"github.com/and161185/jobassist/internal/model"
)

// AuthResult is the signup/login envelope.
type AuthResult struct {
	Message string     `json:"message,omitempty"`
	Token   string     `json:"token"`
	User    model.User `json:"user"`
}

type credentials struct {
	Name     string `json:"name,omitempty"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Signup creates an account. No bearer header is attached.
func (c *Client) Signup(ctx context.Context, name, email, password string) (AuthResult, error) {
	var out AuthResult
	err := c.doJSON(ctx, http.MethodPost, "/auth/signup", false,
		credentials{Name: name, Email: email, Password: password}, &out)
	return out, err
}

// Login exchanges credentials for a token. No bearer header is attached.
func (c *Client) Login(ctx context.Context, email, password string) (AuthResult, error) {
	var out AuthResult
	err := c.doJSON(ctx, http.MethodPost, "/auth/login", false,
		credentials{Email: email, Password: password}, &out)
	return out, err
}

// Logout tells the backend the token is no longer used.
func (c *Client) Logout(ctx context.Context) error {
	return c.doJSON(ctx, http.MethodPost, "/auth/logout", true, nil, nil)
}

// CurrentUser returns the identity behind the current token.
func (c *Client) CurrentUser(ctx context.Context) (model.User, error) {
	var out struct {
		User model.User `json:"user"`
	}
	err := c.doJSON(ctx, http.MethodGet, "/auth/me", true, nil, &out)
	return out.User, err
}
