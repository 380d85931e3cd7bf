package array

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/bladeshare/bladeshare/pkg/errors"
)

const (
	headerAPIToken  = "api-token"
	headerAuthToken = "x-auth-token"
)

// Client talks to the array management API. It owns the session lifecycle:
// a session token is acquired on first use, refreshed transparently when
// the array expires it, and released on Close. All methods are safe for
// concurrent use; the array serializes conflicting resource operations on
// its side.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiToken   string
	userAgent  string
	logger     *slog.Logger

	mu      sync.Mutex
	session string
}

// NewClient creates an array client. No network traffic happens until the
// first call; the session is established lazily so construction cannot
// block startup on an unreachable array.
func NewClient(cfg *Config, logger *slog.Logger) (*Client, error) {
	if cfg == nil {
		return nil, errors.NewError(errors.ErrCodeMissingConfig, "array client config is required")
	}
	if cfg.Endpoint == "" {
		return nil, errors.NewError(errors.ErrCodeMissingConfig, "array management endpoint is required")
	}
	if cfg.APIToken == "" {
		return nil, errors.NewError(errors.ErrCodeMissingConfig, "array api token is required")
	}
	cfg.applyDefaults()

	base := cfg.Endpoint
	if !strings.Contains(base, "://") {
		base = "https://" + base
	}
	base = strings.TrimRight(base, "/")

	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: !cfg.VerifyTLS} //nolint:gosec

	return &Client{
		httpClient: &http.Client{
			Timeout:   cfg.RequestTimeout,
			Transport: transport,
		},
		baseURL:   base,
		apiToken:  cfg.APIToken,
		userAgent: cfg.UserAgent,
		logger:    logger.With("component", "array"),
	}, nil
}

// Login exchanges the API token for a session token.
func (c *Client) Login(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/login", nil)
	if err != nil {
		return errors.NewError(errors.ErrCodeTransportError, "failed to build login request").WithCause(err)
	}
	req.Header.Set(headerAPIToken, c.apiToken)
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.NewError(errors.ErrCodeTransportError, "array unreachable during login").WithCause(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
			return errors.NewError(errors.ErrCodeAuthenticationFailed, "array rejected the api token")
		}
		return errors.Newf(errors.ErrCodeTransportError, "unexpected login status %d", resp.StatusCode)
	}

	session := resp.Header.Get(headerAuthToken)
	if session == "" {
		return errors.NewError(errors.ErrCodeTransportError, "array returned no session token")
	}

	c.mu.Lock()
	c.session = session
	c.mu.Unlock()

	c.logger.Debug("array session established")
	return nil
}

// Close releases the session on the array. Safe to call with no session.
func (c *Client) Close(ctx context.Context) error {
	c.mu.Lock()
	session := c.session
	c.session = ""
	c.mu.Unlock()
	if session == "" {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/logout", nil)
	if err != nil {
		return errors.NewError(errors.ErrCodeTransportError, "failed to build logout request").WithCause(err)
	}
	req.Header.Set(headerAuthToken, session)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.NewError(errors.ErrCodeTransportError, "array unreachable during logout").WithCause(err)
	}
	resp.Body.Close()
	return nil
}

func (c *Client) currentSession(ctx context.Context) (string, error) {
	c.mu.Lock()
	session := c.session
	c.mu.Unlock()
	if session != "" {
		return session, nil
	}
	if err := c.Login(ctx); err != nil {
		return "", err
	}
	c.mu.Lock()
	session = c.session
	c.mu.Unlock()
	return session, nil
}

// do performs one API call, refreshing the session once if the array
// reports it expired. This is session upkeep, not an operation retry: the
// request is only re-sent when the array never evaluated it.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return errors.NewError(errors.ErrCodeInternalError, "failed to encode request body").WithCause(err)
		}
	}

	resp, err := c.send(ctx, method, path, query, payload, false)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return errors.NewError(errors.ErrCodeTransportError, "failed to read array response").WithCause(err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return c.mapError(method+" "+path, resp.StatusCode, data)
	}

	if out != nil && len(data) > 0 {
		if err := json.Unmarshal(data, out); err != nil {
			return errors.NewError(errors.ErrCodeTransportError, "malformed array response").WithCause(err)
		}
	}
	return nil
}

func (c *Client) send(ctx context.Context, method, path string, query url.Values, payload []byte, retried bool) (*http.Response, error) {
	session, err := c.currentSession(ctx)
	if err != nil {
		return nil, err
	}

	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return nil, errors.NewError(errors.ErrCodeTransportError, "failed to build array request").WithCause(err)
	}
	req.Header.Set(headerAuthToken, session)
	req.Header.Set("User-Agent", c.userAgent)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.NewError(errors.ErrCodeTransportError, "array unreachable").WithCause(err)
	}

	if resp.StatusCode == http.StatusUnauthorized && !retried {
		resp.Body.Close()
		c.logger.Debug("array session expired, re-authenticating")
		c.mu.Lock()
		c.session = ""
		c.mu.Unlock()
		return c.send(ctx, method, path, query, payload, true)
	}

	return resp, nil
}

// mapError translates an array error response into the driver taxonomy.
func (c *Client) mapError(op string, status int, body []byte) error {
	var envelope apiError
	msg := fmt.Sprintf("array returned status %d", status)
	if len(body) > 0 {
		if err := json.Unmarshal(body, &envelope); err == nil && len(envelope.Errors) > 0 {
			msg = envelope.message()
		}
	}
	lower := strings.ToLower(msg)

	var derr *errors.DriverError
	switch {
	case status == http.StatusNotFound,
		strings.Contains(lower, "does not exist"),
		strings.Contains(lower, "not found"):
		derr = errors.NewError(errors.ErrCodeNotFound, msg)
	case strings.Contains(lower, "already exists"):
		derr = errors.NewError(errors.ErrCodeResourceConflict, msg)
	case status == http.StatusConflict,
		strings.Contains(lower, "in progress"),
		strings.Contains(lower, "busy"):
		derr = errors.NewError(errors.ErrCodeBusy, msg)
	case status == http.StatusUnauthorized, status == http.StatusForbidden:
		derr = errors.NewError(errors.ErrCodeAuthenticationFailed, msg)
	case status >= 500:
		derr = errors.NewError(errors.ErrCodeTransportError, msg)
	default:
		derr = errors.NewError(errors.ErrCodeInvalidState, msg)
	}

	c.logger.Debug("array call failed", "op", op, "status", status, "code", derr.Code, "message", msg)
	return derr.WithComponent("array").WithOperation(op).WithDetail("status", status)
}
