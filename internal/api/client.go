// Package api is the uniform HTTP access layer for every backend resource group.
//
// Every call declares its method, path and body; authenticated calls carry the
// session credential as a bearer header; every non-success response is
// normalized into a single *errs.Error.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"github.com/and161185/jobassist/internal/errs"
	"github.com/and161185/jobassist/internal/session"
)

// Defaults used by the backend when a caller does not choose.
const (
	DefaultModel    = "gpt-4.1-mini"
	DefaultProvider = "openai"
	DefaultLanguage = "en"
	DefaultTone     = "formal"
	DefaultDocType  = "resume"
)

// Client talks to the backend. It holds no cache; every call hits the network.
type Client struct {
	base   string
	tokens oauth2.TokenSource
	log    *zap.Logger
	rt     http.RoundTripper

	plain  *http.Client
	authed *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithTransport sets the underlying RoundTripper (default http.DefaultTransport).
func WithTransport(rt http.RoundTripper) Option { return func(c *Client) { c.rt = rt } }

// WithLogger sets the request logger.
func WithLogger(log *zap.Logger) Option { return func(c *Client) { c.log = log } }

// New builds a client for baseURL (for example http://localhost:5000/api).
// tokens supplies the session credential; it may be nil for anonymous use.
func New(baseURL string, tokens oauth2.TokenSource, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil {
		return nil, fmt.Errorf("api base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("api base url: unsupported scheme %q", u.Scheme)
	}
	c := &Client{
		base:   strings.TrimRight(u.String(), "/"),
		tokens: tokens,
		log:    zap.NewNop(),
		rt:     http.DefaultTransport,
	}
	for _, o := range opts {
		o(c)
	}
	logged := LoggingTransport(c.log, c.rt)
	c.plain = &http.Client{Transport: logged}
	if tokens != nil {
		c.authed = &http.Client{Transport: &oauth2.Transport{Source: tokens, Base: logged}}
	}
	return c, nil
}

// BaseURL returns the normalized base URL.
func (c *Client) BaseURL() string { return c.base }

// httpFor picks the client for a call: the bearer one only when the call is
// authenticated and a credential is currently held.
func (c *Client) httpFor(auth bool) *http.Client {
	if auth && c.authed != nil && session.HasToken(c.tokens) {
		return c.authed
	}
	return c.plain
}

func (c *Client) url(path string) string { return c.base + path }

// seg escapes one path segment (an id or a provider name).
func seg(s string) string { return url.PathEscape(s) }

// doJSON sends an optional JSON body and decodes a JSON response into out.
func (c *Client) doJSON(ctx context.Context, method, path string, auth bool, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.url(path), body)
	if err != nil {
		return errs.Transport(err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	return c.send(req, auth, out)
}

func (c *Client) send(req *http.Request, auth bool, out any) error {
	resp, err := c.httpFor(auth).Do(req)
	if err != nil {
		return errs.Transport(unwrapURLError(err))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Normalize(resp.StatusCode, resp.Body)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &errs.Error{
			Kind:    errs.KindResponse,
			Status:  resp.StatusCode,
			Message: "invalid response from server",
			Err:     err,
		}
	}
	return nil
}

// unwrapURLError drops the *url.Error wrapper so messages read "connection refused"
// rather than repeating method and URL.
func unwrapURLError(err error) error {
	var ue *url.Error
	if errors.As(err, &ue) && ue.Err != nil {
		return ue.Err
	}
	return err
}
