package api

import (
	"lineup/internal/content"
	"lineup/internal/genjob"
	"lineup/internal/schedule"
	"lineup/internal/staging"
)

// FromItem converts a staged item into its API form. Field sets are emitted
// in stable platform order.
func FromItem(item *content.Item) ItemView {
	view := ItemView{
		ID:              item.ID,
		SourceType:      string(item.SourceType),
		Title:           item.Title,
		Description:     item.Description,
		MediaRefs:       append([]string(nil), item.MediaRefs...),
		EstimatedReach:  item.EstimatedReach,
		Ready:           item.Ready,
		TargetPlatforms: make([]string, 0, len(item.TargetPlatforms)),
	}
	for _, id := range item.TargetPlatforms {
		view.TargetPlatforms = append(view.TargetPlatforms, string(id))
	}
	for _, id := range item.SortedPlatforms() {
		fields := item.PlatformContent[id]
		view.Fields = append(view.Fields, FieldView{
			Platform:         string(id),
			Caption:          fields.Caption,
			Hashtags:         append([]string(nil), fields.Hashtags...),
			CallToAction:     fields.CallToAction,
			AltText:          fields.AltText,
			Link:             fields.Link,
			CharacterCount:   fields.CharacterCount,
			Valid:            fields.Valid,
			ValidationErrors: append([]string(nil), fields.ValidationErrors...),
		})
	}
	return view
}

// FromScheduled converts one publish slot assignment.
func FromScheduled(entry schedule.ScheduledContent) ScheduledView {
	view := ScheduledView{
		ScheduledDate:     entry.ScheduledDate.Format(dateTimeFormat),
		SuggestedHashtags: append([]string(nil), entry.SuggestedHashtags...),
		EngagementScore:   entry.Engagement.Score,
		Platforms:         make([]string, 0, len(entry.Platforms)),
	}
	if entry.Item != nil {
		view.ItemID = entry.Item.ID
		view.Title = entry.Item.Title
	}
	for _, id := range entry.Platforms {
		view.Platforms = append(view.Platforms, string(id))
	}
	return view
}

// FromScheduledList converts a full schedule.
func FromScheduledList(entries []schedule.ScheduledContent) []ScheduledView {
	views := make([]ScheduledView, 0, len(entries))
	for _, entry := range entries {
		views = append(views, FromScheduled(entry))
	}
	return views
}

// FromSession snapshots a live session into its API form.
func FromSession(session *staging.Session) SessionView {
	view := SessionView{
		ProjectID: session.ProjectID(),
		Step:      session.CurrentStep().String(),
		Dirty:     session.IsDirty(),
		Finished:  session.Finished(),
		Scheduled: FromScheduledList(session.Scheduled()),
	}
	staged := session.Staged()
	view.Items = make([]ItemView, 0, len(staged))
	for _, item := range staged {
		view.Items = append(view.Items, FromItem(item))
	}
	return view
}

// SummarizeSession produces the list form of a session.
func SummarizeSession(session *staging.Session) SessionSummary {
	return SessionSummary{
		ProjectID: session.ProjectID(),
		Step:      session.CurrentStep().String(),
		Dirty:     session.IsDirty(),
		Items:     len(session.Staged()),
		Scheduled: len(session.Scheduled()),
	}
}

// FromJob converts a generation job record.
func FromJob(job *genjob.Job) JobView {
	view := JobView{
		ID:        job.ID,
		ProjectID: job.ProjectID,
		Kind:      job.Kind,
		Status:    string(job.Status),
		Result:    job.Result,
		Error:     job.Error,
	}
	if !job.CreatedAt.IsZero() {
		view.CreatedAt = job.CreatedAt.Format(dateTimeFormat)
	}
	if !job.UpdatedAt.IsZero() {
		view.UpdatedAt = job.UpdatedAt.Format(dateTimeFormat)
	}
	if job.CompletedAt != nil {
		view.CompletedAt = job.CompletedAt.Format(dateTimeFormat)
	}
	return view
}

// FromJobs converts a job history.
func FromJobs(jobs []*genjob.Job) []JobView {
	views := make([]JobView, 0, len(jobs))
	for _, job := range jobs {
		views = append(views, FromJob(job))
	}
	return views
}
