// Package authapi is the HTTP client for the remote authentication service.
// The service is an external collaborator; everything here is JSON over HTTP
// with a bearer token on authenticated routes.
package authapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/nenelamp/cyberguard/internal/config"
	"github.com/nenelamp/cyberguard/internal/model"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// APIError is a response the service rejected, carrying the message it
// supplied, if any.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("auth service: %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("auth service: %d", e.Status)
}

// Credentials is the body of a successful login or signup.
type Credentials struct {
	Token string     `json:"token"`
	User  model.User `json:"user"`
}

// SignupRequest carries the registration fields. Field validation (presence,
// password confirmation) is the caller's concern.
type SignupRequest struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Company   string `json:"company"`
	Password  string `json:"password"`
}

type Client struct {
	baseURL string
	http    *http.Client
	log     *zap.Logger
}

type Params struct {
	fx.In

	Config *config.Config
	Log    *zap.Logger
}

func New(p Params) *Client {
	return &Client{
		baseURL: strings.TrimRight(p.Config.API.BaseURL, "/"),
		http: &http.Client{
			Timeout: p.Config.API.Timeout,
		},
		log: p.Log,
	}
}

// Verify asks the service whether token is still valid. Any non-2xx status
// or transport failure means invalid.
func (c *Client) Verify(ctx context.Context, token string) error {
	return c.do(ctx, http.MethodGet, "/auth/verify", token, nil, nil)
}

// Login exchanges credentials for a token and user record.
func (c *Client) Login(ctx context.Context, email, password string) (*Credentials, error) {
	body := map[string]string{"email": email, "password": password}

	var creds Credentials
	if err := c.do(ctx, http.MethodPost, "/auth/login", "", body, &creds); err != nil {
		return nil, err
	}
	return &creds, nil
}

// Signup registers a new account and returns its credentials.
func (c *Client) Signup(ctx context.Context, req SignupRequest) (*Credentials, error) {
	var creds Credentials
	if err := c.do(ctx, http.MethodPost, "/auth/signup", "", req, &creds); err != nil {
		return nil, err
	}
	return &creds, nil
}

// Me fetches the current user record. The patch shape keeps fields the
// service omitted from overwriting local state.
func (c *Client) Me(ctx context.Context, token string) (*model.UserPatch, error) {
	var patch model.UserPatch
	if err := c.do(ctx, http.MethodGet, "/auth/me", token, nil, &patch); err != nil {
		return nil, err
	}
	return &patch, nil
}

func (c *Client) do(ctx context.Context, method, path, token string, in, out any) error {
	var body *bytes.Buffer
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewBuffer(b)
	} else {
		body = &bytes.Buffer{}
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-Id", uuid.NewString())
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Warn("auth service unreachable", zap.String("path", path), zap.Error(err))
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{Status: resp.StatusCode}

		var msg struct {
			Message string `json:"message"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&msg); err == nil {
			apiErr.Message = msg.Message
		}

		return apiErr
	}

	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}
