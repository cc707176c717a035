package client

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
	"time"

	"github.com/dmitrijs2005/accounts/internal/client/models"
	"github.com/dmitrijs2005/accounts/internal/common"
)

const defaultTimeout = 10 * time.Second

// HTTPClient talks to the accounts HTTP API.
type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
	timeout    time.Duration
}

// Option customises client instantiation.
type Option func(*HTTPClient)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *HTTPClient) {
		if h != nil {
			c.httpClient = h
		}
	}
}

// WithTimeout sets the per-request timeout. A client passed with
// WithHTTPClient is copied, not modified.
func WithTimeout(d time.Duration) Option {
	return func(c *HTTPClient) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// NewHTTPClient constructs a client for the API at base. A missing scheme
// defaults to http.
func NewHTTPClient(base string, opts ...Option) (*HTTPClient, error) {
	trimmed := strings.TrimSpace(base)
	if trimmed == "" {
		return nil, errors.New("empty api base url")
	}
	if !strings.HasPrefix(trimmed, "http://") && !strings.HasPrefix(trimmed, "https://") {
		trimmed = "http://" + trimmed
	}
	if _, err := url.Parse(trimmed); err != nil {
		return nil, fmt.Errorf("invalid api base url: %w", err)
	}

	c := &HTTPClient{
		baseURL:    strings.TrimRight(trimmed, "/"),
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.timeout > 0 && c.httpClient.Timeout != c.timeout {
		hc := *c.httpClient
		hc.Timeout = c.timeout
		c.httpClient = &hc
	}
	return c, nil
}

// APIError is a non-2xx response. Detail is the server's "detail" message.
type APIError struct {
	Status int
	Detail string
}

func (e *APIError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("api request failed with status %d", e.Status)
	}
	return e.Detail
}

func (e *APIError) Unwrap() error {
	switch {
	case e.Status == http.StatusUnauthorized:
		return ErrUnauthorized
	case e.Status == http.StatusForbidden:
		return ErrForbidden
	case e.Status == http.StatusNotFound:
		return ErrNotFound
	case e.Status >= http.StatusInternalServerError:
		return ErrUnavailable
	default:
		return nil
	}
}

func (c *HTTPClient) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}

func (c *HTTPClient) Register(ctx context.Context, username, email string, password []byte) (*models.Profile, error) {
	body := map[string]string{
		"username": username,
		"email":    email,
		"password": string(password),
	}
	var p models.Profile
	if err := c.do(ctx, http.MethodPost, "/auth/register", body, "", &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// Login authenticates by email when identifier contains "@", otherwise by
// username.
func (c *HTTPClient) Login(ctx context.Context, identifier string, password []byte) (*models.Session, error) {
	body := map[string]string{"password": string(password)}
	if strings.Contains(identifier, "@") {
		body["email"] = identifier
	} else {
		body["username"] = identifier
	}

	var s models.Session
	if err := c.do(ctx, http.MethodPost, "/auth/login", body, "", &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (c *HTTPClient) GetUser(ctx context.Context, username string) (*models.Profile, error) {
	var p models.Profile
	if err := c.do(ctx, http.MethodGet, userPath(username), nil, "", &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *HTTPClient) UpdateUser(ctx context.Context, token, username string, upd models.ProfileUpdate) (*models.Profile, error) {
	var p models.Profile
	if err := c.do(ctx, http.MethodPatch, userPath(username), upd, token, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *HTTPClient) DeleteUser(ctx context.Context, token, username string) (*models.Profile, error) {
	var resp struct {
		DeletedUser models.Profile `json:"deleted_user"`
	}
	if err := c.do(ctx, http.MethodDelete, userPath(username), nil, token, &resp); err != nil {
		return nil, err
	}
	return &resp.DeletedUser, nil
}

func (c *HTTPClient) RequestImageUpload(ctx context.Context, token, username string) (*models.ImageUpload, error) {
	var up models.ImageUpload
	if err := c.do(ctx, http.MethodPost, userPath(username)+"/image", nil, token, &up); err != nil {
		return nil, err
	}
	return &up, nil
}

// Ping checks /healthz.
func (c *HTTPClient) Ping(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/healthz", nil, "", nil)
}

func userPath(username string) string {
	return "/users/" + url.PathEscape(username)
}

func (c *HTTPClient) do(ctx context.Context, method, path string, body any, token string, v any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set(common.TokenHeaderName, token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return &APIError{Status: resp.StatusCode, Detail: extractDetail(resp.Body)}
	}

	if v == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func extractDetail(body io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(body, 64<<10))
	if err != nil || len(data) == 0 {
		return ""
	}
	var payload struct {
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return strings.TrimSpace(string(data))
	}
	return strings.TrimSpace(payload.Detail)
}
