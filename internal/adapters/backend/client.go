// Package backend is the HTTP client for the competency REST backend.
//
// Every request carries the bearer token of the session found in the request
// context. A 401 from the backend invokes the configured unauthorized hook
// before the error is returned to the caller. There is no retry and no token
// refresh.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	domainauth "github.com/target/competency-console/internal/domain/auth"
	"github.com/target/competency-console/internal/ports"
	"golang.org/x/oauth2"
)

// Backend session endpoints.
const (
	LoginPath    = "/login/"
	RegisterPath = "/register/"
)

const (
	defaultTimeout   = 15 * time.Second
	maxResponseBytes = 8 << 20
)

var (
	// ErrNotConfigured is returned when a request is made before Configure.
	ErrNotConfigured = errors.New("backend client not configured")
	// ErrUnauthorized matches any APIError with status 401.
	ErrUnauthorized = errors.New("backend rejected credentials")
)

// UnauthorizedFunc is invoked with the request context when the backend answers 401.
type UnauthorizedFunc func(ctx context.Context)

// Config groups construction parameters for Client.
type Config struct {
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client // optional; Timeout is ignored when set
	Logger     *slog.Logger
}

// Client is safe for concurrent use. One instance serves the whole process.
type Client struct {
	baseURL        string
	http           *http.Client
	logger         *slog.Logger
	onUnauthorized atomic.Pointer[UnauthorizedFunc]
}

// New validates cfg and returns an unconfigured client.
func New(cfg Config) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	u, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("parse backend base url: %w", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("backend base url must be absolute http(s): %q", cfg.BaseURL)
	}

	hc := cfg.HTTPClient
	if hc == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		hc = &http.Client{Timeout: timeout}
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{baseURL: base, http: hc, logger: logger}, nil
}

// Configure installs the unauthorized hook. Calling it again replaces the
// previous hook; passing nil returns the client to the unconfigured state.
func (c *Client) Configure(fn UnauthorizedFunc) {
	if fn == nil {
		c.onUnauthorized.Store(nil)
		return
	}
	c.onUnauthorized.Store(&fn)
}

// Configured reports whether an unauthorized hook is installed.
func (c *Client) Configured() bool { return c.onUnauthorized.Load() != nil }

// Do sends a JSON request to path (relative to the base URL) and decodes a
// JSON response into out when out is non-nil.
func (c *Client) Do(ctx context.Context, method, path string, body, out any) error {
	hook := c.onUnauthorized.Load()
	if hook == nil {
		return ErrNotConfigured
	}

	req, err := c.newRequest(ctx, method, path, body)
	if err != nil {
		return err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("read %s %s response: %w", method, path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := newAPIError(resp.StatusCode, payload)
		if resp.StatusCode == http.StatusUnauthorized {
			c.logger.WarnContext(ctx, "backend returned unauthorized", "method", method, "path", path)
			(*hook)(ctx)
		}
		return apiErr
	}

	if out == nil || len(bytes.TrimSpace(payload)) == 0 {
		return nil
	}
	if raw, ok := out.(*json.RawMessage); ok {
		*raw = append((*raw)[:0], payload...)
		return nil
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return fmt.Errorf("decode %s %s response: %w", method, path, err)
	}
	return nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, body any) (*http.Request, error) {
	if !strings.HasPrefix(path, "/") {
		return nil, fmt.Errorf("backend path must start with /: %q", path)
	}

	var rdr io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode %s %s body: %w", method, path, err)
		}
		rdr = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rdr)
	if err != nil {
		return nil, fmt.Errorf("build %s %s: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	if sess, ok := domainauth.SessionFromContext(ctx); ok && sess.AccessToken != "" {
		bearerToken(sess).SetAuthHeader(req)
	}
	return req, nil
}

func bearerToken(sess *domainauth.Session) *oauth2.Token {
	return &oauth2.Token{
		AccessToken:  sess.AccessToken,
		RefreshToken: sess.RefreshToken,
		TokenType:    "Bearer",
		Expiry:       sess.ExpiresAt,
	}
}

// Login posts credentials to the backend login endpoint.
func (c *Client) Login(ctx context.Context, in ports.LoginRequest) (ports.LoginResponse, error) {
	var out ports.LoginResponse
	if err := c.Do(ctx, http.MethodPost, LoginPath, in, &out); err != nil {
		return ports.LoginResponse{}, err
	}
	return out, nil
}

// Register posts a new account to the backend register endpoint.
func (c *Client) Register(ctx context.Context, in ports.RegisterRequest) error {
	return c.Do(ctx, http.MethodPost, RegisterPath, in, nil)
}

// Fetch GETs path and returns the raw JSON body.
func (c *Client) Fetch(ctx context.Context, path string) (json.RawMessage, error) {
	var raw json.RawMessage
	if err := c.Do(ctx, http.MethodGet, path, nil, &raw); err != nil {
		return nil, err
	}
	return raw, nil
}
