package api

import "encoding/json"

// dateTimeFormat is used for RFC3339 timestamps in API payloads.
const dateTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// FieldView is one platform's publishable fields for a staged item.
type FieldView struct {
	Platform         string   `json:"platform"`
	Caption          string   `json:"caption"`
	Hashtags         []string `json:"hashtags,omitempty"`
	CallToAction     string   `json:"callToAction,omitempty"`
	AltText          string   `json:"altText,omitempty"`
	Link             string   `json:"link,omitempty"`
	CharacterCount   int      `json:"characterCount"`
	Valid            bool     `json:"valid"`
	ValidationErrors []string `json:"validationErrors,omitempty"`
}

// ItemView describes a staged content item in a transport-friendly format.
type ItemView struct {
	ID              string      `json:"id"`
	SourceType      string      `json:"sourceType"`
	Title           string      `json:"title"`
	Description     string      `json:"description,omitempty"`
	TargetPlatforms []string    `json:"targetPlatforms"`
	Fields          []FieldView `json:"fields"`
	MediaRefs       []string    `json:"mediaRefs,omitempty"`
	EstimatedReach  int         `json:"estimatedReach,omitempty"`
	Ready           bool        `json:"ready"`
}

// ScheduledView describes one assigned publish slot.
type ScheduledView struct {
	ItemID            string   `json:"itemId"`
	Title             string   `json:"title"`
	ScheduledDate     string   `json:"scheduledDate"`
	Platforms         []string `json:"platforms"`
	SuggestedHashtags []string `json:"suggestedHashtags,omitempty"`
	EngagementScore   int      `json:"engagementScore"`
}

// SessionView aggregates one project's staging session state.
type SessionView struct {
	ProjectID string          `json:"projectId"`
	Step      string          `json:"step"`
	Dirty     bool            `json:"dirty"`
	Finished  bool            `json:"finished"`
	Items     []ItemView      `json:"items"`
	Scheduled []ScheduledView `json:"scheduled,omitempty"`
}

// SessionSummary is the list form of a session.
type SessionSummary struct {
	ProjectID string `json:"projectId"`
	Step      string `json:"step"`
	Dirty     bool   `json:"dirty"`
	Items     int    `json:"items"`
	Scheduled int    `json:"scheduled"`
}

// JobView describes a generation job in a transport-friendly format.
type JobView struct {
	ID          string          `json:"id"`
	ProjectID   string          `json:"projectId"`
	Kind        string          `json:"kind"`
	Status      string          `json:"status"`
	Result      json.RawMessage `json:"result,omitempty"`
	Error       string          `json:"error,omitempty"`
	CreatedAt   string          `json:"createdAt,omitempty"`
	UpdatedAt   string          `json:"updatedAt,omitempty"`
	CompletedAt string          `json:"completedAt,omitempty"`
}

// DaemonStatus aggregates daemon runtime information for API consumers.
type DaemonStatus struct {
	Running      bool             `json:"running"`
	PID          int              `json:"pid"`
	DraftDBPath  string           `json:"draftDbPath"`
	JobDBPath    string           `json:"jobDbPath"`
	LockFilePath string           `json:"lockFilePath"`
	Sessions     []SessionSummary `json:"sessions"`
}

// SessionResponse wraps a single session.
type SessionResponse struct {
	Session SessionView `json:"session"`
}

// SessionListResponse wraps the open-session list.
type SessionListResponse struct {
	Sessions []SessionSummary `json:"sessions"`
}

// ScheduleResponse wraps a freshly built schedule.
type ScheduleResponse struct {
	Scheduled []ScheduledView `json:"scheduled"`
}

// PublishResponse reports a commit outcome.
type PublishResponse struct {
	Success   bool     `json:"success"`
	FailedIDs []string `json:"failedIds,omitempty"`
}

// JobResponse wraps a single job.
type JobResponse struct {
	Job JobView `json:"job"`
}

// JobListResponse wraps a project's job history.
type JobListResponse struct {
	Jobs []JobView `json:"jobs"`
}

// OpenSessionRequest opens or resumes a staging session.
type OpenSessionRequest struct {
	ProjectID string `json:"projectId"`
	Step      int    `json:"step,omitempty"`
}

// ItemsRequest carries a working set for intake or update.
type ItemsRequest struct {
	Items json.RawMessage `json:"items"`
}

// ScheduleRequest optionally pins explicit times per item ID (RFC3339).
type ScheduleRequest struct {
	ExplicitTimes map[string]string `json:"explicitTimes,omitempty"`
}

// PublishRequest names the reviewed selection to commit.
type PublishRequest struct {
	SelectedIDs []string `json:"selectedIds"`
}

// SubmitJobRequest starts (or joins) a generation job.
type SubmitJobRequest struct {
	ProjectID string          `json:"projectId"`
	Kind      string          `json:"kind"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

// ErrorResponse is the API's uniform error payload.
type ErrorResponse struct {
	Error string `json:"error"`
}
