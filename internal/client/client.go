// Package client talks to a testdeck server over its HTTP API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/waabox/testdeck/internal/domain"
	"github.com/waabox/testdeck/internal/executionlog"
	"github.com/waabox/testdeck/internal/query"
)

const defaultBaseURL = "http://localhost:8080"

// APIError is a non-2xx response. It unwraps to the matching domain sentinel,
// so callers can test it with errors.Is(err, domain.ErrConflict) and friends.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("testdeck API error: %d", e.StatusCode)
	}
	return fmt.Sprintf("testdeck API error: %d %s", e.StatusCode, e.Message)
}

func (e *APIError) Unwrap() error {
	switch e.StatusCode {
	case http.StatusBadRequest:
		return domain.ErrValidation
	case http.StatusNotFound:
		return domain.ErrNotFound
	case http.StatusConflict:
		return domain.ErrConflict
	}
	return nil
}

// Client is a testdeck API client.
type Client struct {
	baseURL string
	client  *http.Client
}

// New creates a client. Pass an empty baseURL to use the local default.
func New(baseURL string) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 15 * time.Second},
	}
}

// ListPipelines returns the pipelines matching crit, in creation order.
func (c *Client) ListPipelines(ctx context.Context, crit query.PipelineCriteria) ([]domain.Pipeline, error) {
	q := url.Values{}
	setNonEmpty(q, "search", crit.Search)
	setNonEmpty(q, "type", crit.Type)
	setNonEmpty(q, "status", crit.Status)
	var out []domain.Pipeline
	if err := c.do(ctx, http.MethodGet, "/api/pipelines", q, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetPipeline returns a single pipeline.
func (c *Client) GetPipeline(ctx context.Context, id string) (domain.Pipeline, error) {
	var p domain.Pipeline
	err := c.do(ctx, http.MethodGet, "/api/pipelines/"+url.PathEscape(id), nil, nil, &p)
	return p, err
}

// CreatePipeline registers a new pipeline.
func (c *Client) CreatePipeline(ctx context.Context, def domain.PipelineDefinition) (domain.Pipeline, error) {
	var p domain.Pipeline
	err := c.do(ctx, http.MethodPost, "/api/pipelines", nil, def, &p)
	return p, err
}

// DeletePipeline removes a pipeline; its executions stay in the history.
func (c *Client) DeletePipeline(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/pipelines/"+url.PathEscape(id), nil, nil, nil)
}

// RunPipeline starts a run and returns the new execution.
func (c *Client) RunPipeline(ctx context.Context, id, triggeredBy string) (domain.Execution, error) {
	var resp struct {
		Execution domain.Execution `json:"execution"`
	}
	body := map[string]string{"triggeredBy": triggeredBy}
	if err := c.do(ctx, http.MethodPost, "/api/pipelines/"+url.PathEscape(id)+"/run", nil, body, &resp); err != nil {
		return domain.Execution{}, err
	}
	return resp.Execution, nil
}

// ListExecutions returns the history matching crit, most recent first.
func (c *Client) ListExecutions(ctx context.Context, crit query.ExecutionCriteria) ([]domain.Execution, error) {
	var out []domain.Execution
	if err := c.do(ctx, http.MethodGet, "/api/executions", executionQuery(crit), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ExecutionSummary aggregates the history matching crit.
func (c *Client) ExecutionSummary(ctx context.Context, crit query.ExecutionCriteria) (executionlog.Summary, error) {
	var s executionlog.Summary
	err := c.do(ctx, http.MethodGet, "/api/executions/summary", executionQuery(crit), nil, &s)
	return s, err
}

// CompleteExecution delivers a runner outcome for an open execution.
func (c *Client) CompleteExecution(ctx context.Context, id string, outcome domain.Outcome) (domain.Execution, error) {
	var e domain.Execution
	err := c.do(ctx, http.MethodPost, "/api/executions/"+url.PathEscape(id)+"/complete", nil, outcome, &e)
	return e, err
}

// CancelExecution force-cancels an open execution.
func (c *Client) CancelExecution(ctx context.Context, id string) (domain.Execution, error) {
	var e domain.Execution
	err := c.do(ctx, http.MethodPost, "/api/executions/"+url.PathEscape(id)+"/cancel", nil, nil, &e)
	return e, err
}

// Dashboard returns the landing-page counts.
func (c *Client) Dashboard(ctx context.Context) (query.Dashboard, error) {
	var d query.Dashboard
	err := c.do(ctx, http.MethodGet, "/api/dashboard", nil, nil, &d)
	return d, err
}

// NotificationSettings returns the current notification settings.
func (c *Client) NotificationSettings(ctx context.Context) (domain.NotificationSettings, error) {
	var s domain.NotificationSettings
	err := c.do(ctx, http.MethodGet, "/api/settings/notifications", nil, nil, &s)
	return s, err
}

func executionQuery(crit query.ExecutionCriteria) url.Values {
	q := url.Values{}
	setNonEmpty(q, "search", crit.Search)
	setNonEmpty(q, "status", crit.Status)
	setNonEmpty(q, "range", string(crit.Range))
	return q
}

func setNonEmpty(q url.Values, key, value string) {
	if value != "" {
		q.Set(key, value)
	}
}

func (c *Client) do(ctx context.Context, method, path string, q url.Values, body, target interface{}) error {
	u := c.baseURL + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		reader = bytes.NewReader(buf)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var e struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&e)
		return &APIError{StatusCode: resp.StatusCode, Message: e.Error}
	}
	if target == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(target)
}
