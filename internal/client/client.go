// Package client provides a Go client for the MapGrid A2A protocol.
package client

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/mapgrid-network/mapgrid/internal/app/card"
	"github.com/mapgrid-network/mapgrid/internal/domain"
)

// DefaultTimeout bounds a single API call.
const DefaultTimeout = 30 * time.Second

// Config configures a Client.
type Config struct {
	// BaseURL is the server root, e.g. "http://127.0.0.1:8000".
	BaseURL string
	// APIKey is sent on every authenticated request.
	APIKey string
	// Timeout bounds each request. Zero means DefaultTimeout.
	Timeout time.Duration
}

// Client talks to a MapGrid server.
type Client struct {
	http *resty.Client
}

// New creates a Client for the given server.
func New(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}

	http := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")
	if cfg.APIKey != "" {
		http.SetHeader(card.AuthHeader, cfg.APIKey)
	}

	return &Client{http: http}
}

// apiError is the error payload the server returns on failures.
type apiError struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// AgentCard fetches the server's capability descriptor. No auth required.
func (c *Client) AgentCard(ctx context.Context) (*domain.AgentCard, error) {
	var out domain.AgentCard
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&out).
		SetError(&apiError{}).
		Get("/agent-card")
	if err != nil {
		return nil, fmt.Errorf("fetch agent card: %w", err)
	}
	if resp.IsError() {
		return nil, responseError(resp)
	}
	return &out, nil
}

// CreateTaskRequest is the body for CreateTask.
type CreateTaskRequest struct {
	Type         domain.TaskType `json:"type"`
	Input        domain.Payload  `json:"input"`
	OutputFormat domain.Format   `json:"output_format,omitempty"`
}

// CreateTask registers a new task on the server.
func (c *Client) CreateTask(ctx context.Context, req CreateTaskRequest) (*domain.Task, error) {
	var out domain.Task
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&out).
		SetError(&apiError{}).
		Post("/tasks")
	if err != nil {
		return nil, fmt.Errorf("create task: %w", err)
	}
	if resp.IsError() {
		return nil, responseError(resp)
	}
	return &out, nil
}

// GetTask fetches the current record for a task.
func (c *Client) GetTask(ctx context.Context, id string) (*domain.Task, error) {
	var out domain.Task
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&out).
		SetError(&apiError{}).
		Get("/tasks/" + id)
	if err != nil {
		return nil, fmt.Errorf("get task: %w", err)
	}
	if resp.IsError() {
		return nil, responseError(resp)
	}
	return &out, nil
}

// ExecuteTask runs a task and returns its final record. Executing an
// already-executed task returns the existing record unchanged.
func (c *Client) ExecuteTask(ctx context.Context, id string) (*domain.Task, error) {
	var out domain.Task
	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&out).
		SetError(&apiError{}).
		Put("/tasks/" + id + "/execute")
	if err != nil {
		return nil, fmt.Errorf("execute task: %w", err)
	}
	if resp.IsError() {
		return nil, responseError(resp)
	}
	return &out, nil
}

// RunTask creates a task and immediately executes it.
func (c *Client) RunTask(ctx context.Context, req CreateTaskRequest) (*domain.Task, error) {
	created, err := c.CreateTask(ctx, req)
	if err != nil {
		return nil, err
	}
	return c.ExecuteTask(ctx, created.ID)
}

func responseError(resp *resty.Response) error {
	if apiErr, ok := resp.Error().(*apiError); ok && apiErr.Error.Message != "" {
		return fmt.Errorf("server returned %d: %s", resp.StatusCode(), apiErr.Error.Message)
	}
	return fmt.Errorf("server returned %d", resp.StatusCode())
}
