package authclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"time"

	"packly/pkg/ability"
)

const csrfHeaderName = "x-csrf-token"

// APIError is a decoded error envelope from the server.
type APIError struct {
	StatusCode int    `json:"-"`
	Code       string `json:"code"`
	Suggestion string `json:"suggestion"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s (%d): %s", e.Code, e.StatusCode, e.Suggestion)
}

// envelope mirrors the server's uniform response shape.
type envelope struct {
	Success    bool            `json:"success"`
	Message    string          `json:"message"`
	Data       json.RawMessage `json:"data"`
	Code       string          `json:"code"`
	Suggestion string          `json:"suggestion"`
}

// UserInfo is the identity snapshot returned by signup/login/me.
type UserInfo struct {
	ID        string `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Role      string `json:"role"`
}

// SessionData is the payload of signup, login, and me responses. The token
// pair itself travels in HTTP-only cookies handled by the jar, so the body
// carries only what the client state needs.
type SessionData struct {
	User        UserInfo        `json:"user"`
	Permissions ability.RuleSet `json:"permissions"`
}

// Client talks to the auth endpoints. Cookies (access, refresh, CSRF secret)
// live in the jar; the CSRF token is remembered and echoed in the header on
// every mutating request.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client

	csrfToken string
}

// NewClient creates a client with a fresh cookie jar.
func NewClient(baseURL string) (*Client, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}

	return &Client{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		HTTPClient: &http.Client{
			Jar:     jar,
			Timeout: 10 * time.Second,
		},
	}, nil
}

// FetchCSRFToken obtains a fresh CSRF pair. The secret lands in the cookie
// jar; the derived token is kept for header echo.
func (c *Client) FetchCSRFToken(ctx context.Context) error {
	var data struct {
		CSRFToken string `json:"csrfToken"`
	}
	if err := c.do(ctx, http.MethodGet, "/auth/csrf-token", nil, &data); err != nil {
		return err
	}
	c.csrfToken = data.CSRFToken
	return nil
}

// Signup registers a new account and starts a session.
func (c *Client) Signup(ctx context.Context, firstName, lastName, email, password string) (*SessionData, error) {
	body := map[string]any{
		"first_name": firstName,
		"last_name":  lastName,
		"email":      email,
		"password":   password,
	}
	var data SessionData
	if err := c.do(ctx, http.MethodPost, "/auth/signup", body, &data); err != nil {
		return nil, err
	}
	return &data, nil
}

// Login authenticates and starts a session.
func (c *Client) Login(ctx context.Context, email, password string, rememberMe bool) (*SessionData, error) {
	body := map[string]any{
		"email":       email,
		"password":    password,
		"remember_me": rememberMe,
	}
	var data SessionData
	if err := c.do(ctx, http.MethodPost, "/auth/login", body, &data); err != nil {
		return nil, err
	}
	return &data, nil
}

// Me returns the current session's identity and permissions.
func (c *Client) Me(ctx context.Context) (*SessionData, error) {
	var data SessionData
	if err := c.do(ctx, http.MethodGet, "/auth/me", nil, &data); err != nil {
		return nil, err
	}
	return &data, nil
}

// Refresh mints a new access cookie off the refresh cookie in the jar.
func (c *Client) Refresh(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/auth/refresh-token", nil, nil)
}

// Logout clears the session cookies server-side.
func (c *Client) Logout(ctx context.Context) error {
	return c.do(ctx, http.MethodDelete, "/auth/logout", nil, nil)
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reqBody *bytes.Buffer
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewBuffer(encoded)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if method != http.MethodGet && method != http.MethodHead && c.csrfToken != "" {
		req.Header.Set(csrfHeaderName, c.csrfToken)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	if !env.Success {
		return &APIError{
			StatusCode: resp.StatusCode,
			Code:       env.Code,
			Suggestion: env.Suggestion,
		}
	}

	if out != nil && env.Data != nil {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("failed to decode response data: %w", err)
		}
	}
	return nil
}
