package api

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
)

// Client talks to a running daemon's HTTP API. The CLI renders whatever the
// daemon answers; all domain logic stays on the daemon side.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewClient constructs an API client for the given bind address. The
// address may be a bare host:port or a full http URL.
func NewClient(address, token string) *Client {
	base := strings.TrimSpace(address)
	if base != "" && !strings.HasPrefix(base, "http://") && !strings.HasPrefix(base, "https://") {
		base = "http://" + base
	}
	return &Client{
		baseURL:    strings.TrimRight(base, "/"),
		token:      token,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// Status fetches daemon runtime information.
func (c *Client) Status(ctx context.Context) (*DaemonStatus, error) {
	var status DaemonStatus
	if err := c.do(ctx, http.MethodGet, "/api/status", nil, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// OpenSession opens or resumes a staging session.
func (c *Client) OpenSession(ctx context.Context, projectID string, step int) (*SessionView, error) {
	var resp SessionResponse
	err := c.do(ctx, http.MethodPost, "/api/sessions", OpenSessionRequest{ProjectID: projectID, Step: step}, &resp)
	if err != nil {
		return nil, err
	}
	return &resp.Session, nil
}

// Session fetches one open session.
func (c *Client) Session(ctx context.Context, projectID string) (*SessionView, error) {
	var resp SessionResponse
	if err := c.do(ctx, http.MethodGet, "/api/sessions/"+url.PathEscape(projectID), nil, &resp); err != nil {
		return nil, err
	}
	return &resp.Session, nil
}

// Sessions lists every open session.
func (c *Client) Sessions(ctx context.Context) ([]SessionSummary, error) {
	var resp SessionListResponse
	if err := c.do(ctx, http.MethodGet, "/api/sessions", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Sessions, nil
}

// Intake seeds a session's working set.
func (c *Client) Intake(ctx context.Context, projectID string, items json.RawMessage) (*SessionView, error) {
	return c.sessionItems(ctx, projectID, "intake", items)
}

// Update replaces a session's working set.
func (c *Client) Update(ctx context.Context, projectID string, items json.RawMessage) (*SessionView, error) {
	return c.sessionItems(ctx, projectID, "update", items)
}

func (c *Client) sessionItems(ctx context.Context, projectID, action string, items json.RawMessage) (*SessionView, error) {
	var resp SessionResponse
	path := "/api/sessions/" + url.PathEscape(projectID) + "/" + action
	if err := c.do(ctx, http.MethodPost, path, ItemsRequest{Items: items}, &resp); err != nil {
		return nil, err
	}
	return &resp.Session, nil
}

// BuildSchedule asks the daemon to (re)build a session's schedule.
func (c *Client) BuildSchedule(ctx context.Context, projectID string, req ScheduleRequest) ([]ScheduledView, error) {
	var resp ScheduleResponse
	path := "/api/sessions/" + url.PathEscape(projectID) + "/schedule"
	if err := c.do(ctx, http.MethodPost, path, req, &resp); err != nil {
		return nil, err
	}
	return resp.Scheduled, nil
}

// Advance moves a session one step forward.
func (c *Client) Advance(ctx context.Context, projectID string) (*SessionView, error) {
	return c.sessionAction(ctx, projectID, "advance")
}

// Retreat moves a session one step back.
func (c *Client) Retreat(ctx context.Context, projectID string) (*SessionView, error) {
	return c.sessionAction(ctx, projectID, "retreat")
}

// Clear resets a session's prepared content and purges its draft.
func (c *Client) Clear(ctx context.Context, projectID string) (*SessionView, error) {
	return c.sessionAction(ctx, projectID, "clear")
}

func (c *Client) sessionAction(ctx context.Context, projectID, action string) (*SessionView, error) {
	var resp SessionResponse
	path := "/api/sessions/" + url.PathEscape(projectID) + "/" + action
	if err := c.do(ctx, http.MethodPost, path, nil, &resp); err != nil {
		return nil, err
	}
	return &resp.Session, nil
}

// Publish commits the reviewed selection.
func (c *Client) Publish(ctx context.Context, projectID string, selectedIDs []string) (*PublishResponse, error) {
	var resp PublishResponse
	path := "/api/sessions/" + url.PathEscape(projectID) + "/publish"
	if err := c.do(ctx, http.MethodPost, path, PublishRequest{SelectedIDs: selectedIDs}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// SubmitJob starts or joins a generation job.
func (c *Client) SubmitJob(ctx context.Context, req SubmitJobRequest) (*JobView, error) {
	var resp JobResponse
	if err := c.do(ctx, http.MethodPost, "/api/jobs", req, &resp); err != nil {
		return nil, err
	}
	return &resp.Job, nil
}

// Job fetches a single job.
func (c *Client) Job(ctx context.Context, jobID string) (*JobView, error) {
	var resp JobResponse
	if err := c.do(ctx, http.MethodGet, "/api/jobs/"+url.PathEscape(jobID), nil, &resp); err != nil {
		return nil, err
	}
	return &resp.Job, nil
}

// RetryJob resubmits a failed job's request as a fresh job.
func (c *Client) RetryJob(ctx context.Context, jobID string) (*JobView, error) {
	var resp JobResponse
	if err := c.do(ctx, http.MethodPost, "/api/jobs/"+url.PathEscape(jobID)+"/retry", nil, &resp); err != nil {
		return nil, err
	}
	return &resp.Job, nil
}

// ProjectJobs fetches a project's job history.
func (c *Client) ProjectJobs(ctx context.Context, projectID string) ([]JobView, error) {
	var resp JobListResponse
	path := "/api/jobs?project=" + url.QueryEscape(projectID)
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Jobs, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	if c.baseURL == "" {
		return fmt.Errorf("no api address configured; set paths.api_bind")
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("connect to daemon at %s: %w (is lineupd running?)", c.baseURL, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode >= 400 {
		var apiErr ErrorResponse
		if json.Unmarshal(data, &apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("daemon: %s", apiErr.Error)
		}
		return fmt.Errorf("daemon returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
