package draft

import (
	"time"

	"lineup/internal/content"
	"lineup/internal/schedule"
)

// CurrentVersion is the schema version written by Save. Loaded drafts with
// an older version pass through the migration chain before use.
const CurrentVersion = 2

// Draft is a recoverable snapshot of an in-progress staging session. It is
// never the source of truth while a session is live; the session's in-memory
// state is.
type Draft struct {
	ProjectID   string                      `json:"projectId"`
	SavedAt     time.Time                   `json:"savedAt"`
	CurrentStep int                         `json:"currentStep"`
	Staged      []*content.Item             `json:"stagedContent"`
	Scheduled   []schedule.ScheduledContent `json:"scheduledContent"`
	Version     int                         `json:"version"`
}
