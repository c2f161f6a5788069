// Package rest is the remote-synced store: every call maps onto the
// backend's JSON endpoints under a base URL such as
// http://localhost:8081/api/v1.
package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"brewtrack/internal/core"
	"brewtrack/internal/log"
	"brewtrack/internal/store"
)

const (
	DefaultBaseURL = "http://localhost:8081/api/v1"
	DefaultTimeout = 10 * time.Second

	maxErrorBody = 512
)

var _ store.Gateway = (*Client)(nil)

// APIError reports a non-2xx answer from the backend.
type APIError struct {
	Method     string
	Path       string
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s %s: status %d", e.Method, e.Path, e.StatusCode)
	}
	return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.Path, e.StatusCode, e.Body)
}

type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *log.Logger
}

func New(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return NewWithHTTPClient(baseURL, &http.Client{Timeout: timeout})
}

func NewWithHTTPClient(baseURL string, hc *http.Client) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), httpClient: hc, logger: log.Discard()}
}

// WithLogger sets the logger used for rows the backend sent in bad shape.
func (c *Client) WithLogger(logger *log.Logger) *Client {
	if logger != nil {
		c.logger = logger.WithComponent(log.ComponentStore)
	}
	return c
}

func (c *Client) task(ctx context.Context, d taskDTO) core.Task {
	t, ok := d.toCore()
	if !ok {
		c.logger.WarnContext(ctx, "Unknown task status from backend, showing as pending",
			log.FieldTaskID, d.ID, log.FieldTaskStatus, d.Status)
	}
	return t
}

func (c *Client) ListTasks(ctx context.Context) ([]core.Task, error) {
	var dtos []taskDTO
	if err := c.do(ctx, http.MethodGet, "/tasks", nil, &dtos); err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	tasks := make([]core.Task, len(dtos))
	for i, d := range dtos {
		tasks[i] = c.task(ctx, d)
	}
	return tasks, nil
}

func (c *Client) CreateTask(ctx context.Context, nt core.NewTask) (core.Task, error) {
	req := createTaskRequest{TaskName: nt.Name, Owner: nt.Owner, Status: nt.Status.String()}
	var out taskDTO
	if err := c.do(ctx, http.MethodPost, "/tasks", req, &out); err != nil {
		return core.Task{}, fmt.Errorf("create task: %w", err)
	}
	return c.task(ctx, out), nil
}

// UpdateTask sends the full task. The response body is not read; the caller
// keeps its own copy.
func (c *Client) UpdateTask(ctx context.Context, t core.Task) (core.Task, error) {
	if err := c.do(ctx, http.MethodPut, taskPath(t.ID), fromTask(t), nil); err != nil {
		return core.Task{}, fmt.Errorf("update task %d: %w", t.ID, err)
	}
	return t, nil
}

func (c *Client) DeleteTask(ctx context.Context, id int64) error {
	if err := c.do(ctx, http.MethodDelete, taskPath(id), nil, nil); err != nil {
		return fmt.Errorf("delete task %d: %w", id, err)
	}
	return nil
}

func (c *Client) ListExpenses(ctx context.Context) ([]core.Expense, error) {
	var dtos []expenseDTO
	if err := c.do(ctx, http.MethodGet, "/expenses", nil, &dtos); err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	out := make([]core.Expense, len(dtos))
	for i, d := range dtos {
		out[i] = d.toCore()
	}
	return out, nil
}

func (c *Client) CreateExpense(ctx context.Context, ne core.NewExpense) (core.Expense, error) {
	req := createExpenseRequest{ExpenseTitle: ne.Title, Amount: jsonAmount(ne.Amount), Category: ne.Category}
	var out expenseDTO
	if err := c.do(ctx, http.MethodPost, "/expenses", req, &out); err != nil {
		return core.Expense{}, fmt.Errorf("create expense: %w", err)
	}
	return out.toCore(), nil
}

func (c *Client) DeleteExpense(ctx context.Context, id int64) error {
	if err := c.do(ctx, http.MethodDelete, "/expenses/"+strconv.FormatInt(id, 10), nil, nil); err != nil {
		return fmt.Errorf("delete expense %d: %w", id, err)
	}
	return nil
}

// Ping reports whether the backend answers the task listing.
func (c *Client) Ping(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/tasks", nil, nil)
}

func taskPath(id int64) string {
	return "/tasks/" + strconv.FormatInt(id, 10)
}

// do issues one request. A nil in sends no body; a nil out discards the
// response body.
func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		excerpt, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &APIError{
			Method:     method,
			Path:       path,
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(excerpt)),
		}
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
