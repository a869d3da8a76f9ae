package schedule

import (
	"time"

	"lineup/internal/config"
	"lineup/internal/content"
	"lineup/internal/platform"
)

// Prediction is an advisory engagement estimate. It never gates whether a
// slot assignment is valid.
type Prediction struct {
	Score int `json:"score"`
}

// ScheduledContent wraps a staged item with its assigned publish slot.
type ScheduledContent struct {
	Item              *content.Item `json:"item"`
	ScheduledDate     time.Time     `json:"scheduledDate"`
	Platforms         []platform.ID `json:"platforms"`
	SuggestedHashtags []string      `json:"suggestedHashtags"`
	Engagement        Prediction    `json:"engagementPrediction"`
}

// Options controls slot assignment.
type Options struct {
	// Start is the beginning of the scheduling horizon.
	Start time.Time
	// Horizon is how far ahead slots may be assigned.
	Horizon time.Duration
	// Granularity is the minimum slot spacing; collisions shift forward by
	// this amount.
	Granularity time.Duration
	// WindowStartHour..WindowEndHour bounds the local posting hours.
	WindowStartHour int
	WindowEndHour   int
	// ExplicitTimes overrides the evenly spaced slot for specific item IDs.
	ExplicitTimes map[string]time.Time
}

// OptionsFromConfig builds scheduling options starting at the given time.
func OptionsFromConfig(cfg *config.Config, start time.Time) Options {
	return Options{
		Start:           start,
		Horizon:         time.Duration(cfg.Scheduling.HorizonDays) * 24 * time.Hour,
		Granularity:     time.Duration(cfg.Scheduling.GranularityMinutes) * time.Minute,
		WindowStartHour: cfg.Scheduling.WindowStartHour,
		WindowEndHour:   cfg.Scheduling.WindowEndHour,
	}
}

func (o *Options) normalize() {
	if o.Start.IsZero() {
		o.Start = time.Now()
	}
	if o.Horizon <= 0 {
		o.Horizon = 7 * 24 * time.Hour
	}
	if o.Granularity <= 0 {
		o.Granularity = 30 * time.Minute
	}
	if o.WindowStartHour < 0 || o.WindowStartHour > 23 {
		o.WindowStartHour = 9
	}
	if o.WindowEndHour <= o.WindowStartHour || o.WindowEndHour > 24 {
		o.WindowEndHour = 21
	}
}
