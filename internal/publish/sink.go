package publish

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"lineup/internal/config"
	"lineup/internal/schedule"
)

const defaultSinkTimeout = 30 * time.Second

// Receipt is the sink's answer to a commit. A sink that only supports
// partial success reports the items it rejected in FailedIDs; the committer
// surfaces them instead of dropping them.
type Receipt struct {
	Success   bool     `json:"success"`
	FailedIDs []string `json:"failedIds,omitempty"`
}

// Sink is the external calendar/publish store boundary. Its internals are
// out of scope; the commit contract is not.
type Sink interface {
	Commit(ctx context.Context, items []schedule.ScheduledContent) (*Receipt, error)
}

// HTTPSink posts commits to a remote publish store.
type HTTPSink struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// HTTPSinkOption customizes the sink.
type HTTPSinkOption func(*HTTPSink)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) HTTPSinkOption {
	return func(s *HTTPSink) {
		if client != nil {
			s.httpClient = client
		}
	}
}

// NewHTTPSink constructs a sink from the publish config section.
func NewHTTPSink(cfg config.Publish, opts ...HTTPSinkOption) *HTTPSink {
	timeout := defaultSinkTimeout
	if cfg.RequestTimeout > 0 {
		timeout = time.Duration(cfg.RequestTimeout) * time.Second
	}
	sink := &HTTPSink{
		baseURL:    strings.TrimRight(cfg.SinkURL, "/"),
		token:      cfg.Token,
		httpClient: &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(sink)
	}
	return sink
}

// Commit sends the selected schedule in a single request. Transport and
// server errors are returned as errors; a decoded Receipt reports the
// sink's own accept/reject decision.
func (s *HTTPSink) Commit(ctx context.Context, items []schedule.ScheduledContent) (*Receipt, error) {
	body, err := json.Marshal(map[string]any{"items": items})
	if err != nil {
		return nil, fmt.Errorf("marshal commit request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/v1/commit", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build commit request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("publish sink request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read sink response: %w", err)
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("publish sink status %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}

	var receipt Receipt
	if err := json.Unmarshal(data, &receipt); err != nil {
		return nil, fmt.Errorf("decode sink response: %w", err)
	}
	return &receipt, nil
}
