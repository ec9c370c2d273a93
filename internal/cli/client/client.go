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

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ErrSessionExpired is returned when the API rejects the session token
var ErrSessionExpired = errors.New("session expired. Please run 'taskboard login' again")

// Authorizer supplies the Authorization header for protected requests and is
// told when the API rejects it
type Authorizer interface {
	AuthorizationHeader() (string, error)
	Expire() error
}

// APIError is a non-2xx response from the API
type APIError struct {
	StatusCode int
	Message    string

	// Expired is set when a protected request was rejected with 401
	Expired bool
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("request failed with status %d", e.StatusCode)
}

func (e *APIError) Unwrap() error {
	if e.Expired {
		return ErrSessionExpired
	}
	return nil
}

// Client represents an HTTP client for the task API
type Client struct {
	baseURL    string
	httpClient *http.Client
	auth       Authorizer
	logger     zerolog.Logger
}

// New creates a new API client. auth may be nil for clients that only call
// public endpoints.
func New(endpoint string, timeout time.Duration, auth Authorizer) *Client {
	return &Client{
		baseURL: strings.TrimRight(endpoint, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		auth:   auth,
		logger: zerolog.Nop(),
	}
}

// SetLogger sets the logger used for request tracing
func (c *Client) SetLogger(logger zerolog.Logger) {
	c.logger = logger
}

// Login authenticates the user. It does not touch the local session.
func (c *Client) Login(ctx context.Context, email, password string) (*LoginResponse, error) {
	var loginResp LoginResponse
	if err := c.do(ctx, http.MethodPost, "/auth/login", LoginRequest{Email: email, Password: password}, false, &loginResp); err != nil {
		return nil, err
	}
	if loginResp.TokenDetails.Token == "" {
		return nil, errors.New("login response did not include a token")
	}
	return &loginResp, nil
}

// Register creates an account
func (c *Client) Register(ctx context.Context, req RegisterRequest) error {
	return c.do(ctx, http.MethodPost, "/auth/register", req, false, nil)
}

// ListProjects returns all projects visible to the user
func (c *Client) ListProjects(ctx context.Context) ([]Project, error) {
	var envelope projectsEnvelope
	if err := c.do(ctx, http.MethodGet, "/project", nil, true, &envelope); err != nil {
		return nil, err
	}
	return envelope.Projects, nil
}

// GetProject returns one project
func (c *Client) GetProject(ctx context.Context, id string) (*Project, error) {
	var envelope projectEnvelope
	if err := c.do(ctx, http.MethodGet, "/project/"+url.PathEscape(id), nil, true, &envelope); err != nil {
		return nil, err
	}
	if envelope.Project == nil {
		return nil, fmt.Errorf("project %s not found in response", id)
	}
	return envelope.Project, nil
}

// CreateProject creates a project. The returned project is nil if the API does
// not echo it back.
func (c *Client) CreateProject(ctx context.Context, input ProjectInput) (*Project, error) {
	var envelope projectEnvelope
	if err := c.do(ctx, http.MethodPost, "/project", input, true, &envelope); err != nil {
		return nil, err
	}
	return envelope.Project, nil
}

// UpdateProject replaces the editable fields of a project
func (c *Client) UpdateProject(ctx context.Context, id string, input ProjectInput) (*Project, error) {
	var envelope projectEnvelope
	if err := c.do(ctx, http.MethodPut, "/project/"+url.PathEscape(id), input, true, &envelope); err != nil {
		return nil, err
	}
	return envelope.Project, nil
}

// ListTasks returns all tasks visible to the user
func (c *Client) ListTasks(ctx context.Context) ([]Task, error) {
	var envelope tasksEnvelope
	if err := c.do(ctx, http.MethodGet, "/task", nil, true, &envelope); err != nil {
		return nil, err
	}
	return envelope.Tasks, nil
}

// GetTask returns one task
func (c *Client) GetTask(ctx context.Context, id string) (*Task, error) {
	var envelope taskEnvelope
	if err := c.do(ctx, http.MethodGet, "/task/"+url.PathEscape(id), nil, true, &envelope); err != nil {
		return nil, err
	}
	if envelope.Task == nil {
		return nil, fmt.Errorf("task %s not found in response", id)
	}
	return envelope.Task, nil
}

// CreateTask creates a task. The returned task is nil if the API does not
// echo it back.
func (c *Client) CreateTask(ctx context.Context, input TaskInput) (*Task, error) {
	var envelope taskEnvelope
	if err := c.do(ctx, http.MethodPost, "/task", input, true, &envelope); err != nil {
		return nil, err
	}
	return envelope.Task, nil
}

// UpdateTask replaces the editable fields of a task
func (c *Client) UpdateTask(ctx context.Context, id string, input TaskInput) (*Task, error) {
	var envelope taskEnvelope
	if err := c.do(ctx, http.MethodPut, "/task/"+url.PathEscape(id), input, true, &envelope); err != nil {
		return nil, err
	}
	return envelope.Task, nil
}

// do sends one request. Protected requests carry the Authorization header
// from the Authorizer; a 401 on them expires the session.
func (c *Client) do(ctx context.Context, method, path string, body any, protected bool, out any) error {
	var reader io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	if protected {
		if c.auth == nil {
			return errors.New("protected request without an authorizer")
		}
		header, err := c.auth.AuthorizationHeader()
		if err != nil {
			return err
		}
		req.Header.Set("Authorization", header)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	c.logger.Debug().
		Str("method", method).
		Str("path", path).
		Str("request_id", requestID).
		Int("status", resp.StatusCode).
		Dur("duration", time.Since(start)).
		Msg("API request")

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := decodeError(resp)
		if protected && resp.StatusCode == http.StatusUnauthorized {
			apiErr.Expired = true
			if err := c.auth.Expire(); err != nil {
				c.logger.Warn().Err(err).Msg("Failed to clear expired session")
			}
		}
		return apiErr
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// decodeError reads the human-readable message of an error response
func decodeError(resp *http.Response) *APIError {
	apiErr := &APIError{StatusCode: resp.StatusCode}

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		apiErr.Message = payload.Message
		if apiErr.Message == "" {
			apiErr.Message = payload.Error
		}
	}
	return apiErr
}

// Message returns the text to show the user for err: the API's message when
// there is one, fallback otherwise
func Message(err error, fallback string) string {
	if errors.Is(err, ErrSessionExpired) {
		return ErrSessionExpired.Error()
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return fallback
}
