package staging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"lineup/internal/config"
	"lineup/internal/content"
	"lineup/internal/draft"
	"lineup/internal/genjob"
	"lineup/internal/logging"
	"lineup/internal/platform"
	"lineup/internal/publish"
	"lineup/internal/schedule"
	"lineup/internal/services"
	"lineup/internal/validate"
)

// Deps bundles the collaborators a session composes.
type Deps struct {
	Config    *config.Config
	Drafts    *draft.Store
	Jobs      *genjob.Manager
	Validator *validate.Validator
	Assistant *schedule.Assistant
	Logger    *slog.Logger
}

func (d *Deps) validate() error {
	if d.Config == nil {
		return fmt.Errorf("staging: config is required")
	}
	if d.Drafts == nil {
		return fmt.Errorf("staging: draft store is required")
	}
	if d.Validator == nil {
		return fmt.Errorf("staging: validator is required")
	}
	if d.Assistant == nil {
		return fmt.Errorf("staging: scheduling assistant is required")
	}
	return nil
}

// Session drives one project's staging pipeline. It exclusively owns the
// in-memory working set; the draft store only ever holds a serialized
// snapshot for crash recovery. A session is mutated by one logical caller
// at a time, but the autosave timer runs on its own goroutine, so all state
// access goes through the mutex.
type Session struct {
	projectID string
	cfg       *config.Config
	logger    *slog.Logger
	drafts    *draft.Store
	jobs      *genjob.Manager
	validator *validate.Validator
	assistant *schedule.Assistant
	autosaver *draft.Autosaver

	mu        sync.Mutex
	step      Step
	staged    []*content.Item
	scheduled []schedule.ScheduledContent
	dirty     bool
	seeded    bool
	edited    bool
	finished  bool
	// mutation counter; an autosave only clears dirty when no mutation
	// landed between snapshot and persist.
	gen uint64
}

// Open starts or resumes a session for the given project. A recovered draft
// seeds the working set; requestedStep, when non-zero, overrides the
// draft's step. Out-of-range steps are clamped, never rejected.
func Open(ctx context.Context, projectID string, requestedStep int, deps Deps) (*Session, error) {
	if projectID == "" {
		return nil, fmt.Errorf("staging: project id is required")
	}
	if err := deps.validate(); err != nil {
		return nil, err
	}
	logger := deps.Logger
	if logger == nil {
		logger = logging.NewNop()
	}

	recovered, err := deps.Drafts.Load(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("load draft for %s: %w", projectID, err)
	}

	s := &Session{
		projectID: projectID,
		cfg:       deps.Config,
		logger: logger.With(
			slog.String(logging.FieldComponent, "staging"),
			slog.String(logging.FieldProjectID, projectID),
		),
		drafts:    deps.Drafts,
		jobs:      deps.Jobs,
		validator: deps.Validator,
		assistant: deps.Assistant,
		step:      ResolveInitialStep(requestedStep, recovered),
	}
	if recovered != nil {
		s.staged = content.CloneItems(recovered.Staged)
		for _, item := range s.staged {
			item.Normalize()
		}
		s.scheduled = cloneScheduled(recovered.Scheduled)
		s.seeded = len(s.staged) > 0
		s.logger.Info("session resumed from draft",
			slog.String(logging.FieldStep, s.step.String()),
			slog.Int("items", len(s.staged)),
			slog.Time("saved_at", recovered.SavedAt))
	}

	debounce := time.Duration(deps.Config.Workflow.AutosaveDebounce) * time.Second
	if debounce <= 0 {
		debounce = 3 * time.Second
	}
	s.autosaver = draft.NewAutosaver(debounce, s.autosave)
	return s, nil
}

// ProjectID returns the project this session stages content for.
func (s *Session) ProjectID() string {
	return s.projectID
}

// CurrentStep returns the session's pipeline position.
func (s *Session) CurrentStep() Step {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.step
}

// IsDirty reports whether in-memory state has changed since the last
// successful save. Callers use this as an exit guard; the session itself
// never blocks navigation.
func (s *Session) IsDirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dirty
}

// Finished reports whether the session ended through a successful publish.
func (s *Session) Finished() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.finished
}

// Staged returns a deep copy of the working set.
func (s *Session) Staged() []*content.Item {
	s.mu.Lock()
	defer s.mu.Unlock()
	return content.CloneItems(s.staged)
}

// Scheduled returns a deep copy of the current schedule.
func (s *Session) Scheduled() []schedule.ScheduledContent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneScheduled(s.scheduled)
}

// Intake seeds the working set from the external selection step. It runs
// once per session: content is immutable once staged except via Update, so
// a second intake, or an intake after Prepare has produced edits, is
// rejected.
func (s *Session) Intake(items []*content.Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.finished {
		return errFinished()
	}
	if s.seeded || s.edited {
		return services.Wrap(services.ErrValidation, "staging", "intake",
			"content already staged; use update to replace the working set", nil)
	}
	staged := content.CloneItems(items)
	for _, item := range staged {
		item.Normalize()
		if err := s.validator.CheckTargets(item); err != nil {
			return err
		}
	}
	s.staged = staged
	s.seeded = true
	s.markDirtyLocked()
	s.logger.Info("content staged", slog.Int("items", len(staged)))
	return nil
}

// Update replaces the working set and marks the session dirty. Every update
// re-arms the debounced autosave.
func (s *Session) Update(items []*content.Item) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.finished {
		return errFinished()
	}
	staged := content.CloneItems(items)
	for _, item := range staged {
		item.Normalize()
		if err := s.validator.CheckTargets(item); err != nil {
			return err
		}
	}
	s.staged = staged
	s.seeded = len(staged) > 0
	s.edited = true
	s.markDirtyLocked()
	return nil
}

// Advance moves the session one step forward. Leaving Prepare validates
// every staged item and writes the results onto its field sets; invalid
// items block advancement only when workflow.strict_prepare is set,
// otherwise they carry their errors forward and block at commit instead.
// Entering Schedule builds a default schedule when none exists yet.
func (s *Session) Advance(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.finished {
		return errFinished()
	}
	if s.step >= StepReview {
		return services.Wrap(services.ErrValidation, "staging", "advance",
			"already at review; publish or retreat", nil)
	}

	if s.step == StepPrepare {
		allValid := true
		for _, item := range s.staged {
			ok, err := s.validator.Apply(item)
			if err != nil {
				return err
			}
			if !ok {
				allValid = false
			}
		}
		if !allValid && s.cfg.Workflow.StrictPrepare {
			return services.Wrap(services.ErrValidation, "staging", "advance",
				"staged content has validation errors and strict_prepare is enabled", nil)
		}
	}

	s.step++
	if s.step == StepSchedule && len(s.scheduled) == 0 {
		if err := s.buildScheduleLocked(schedule.OptionsFromConfig(s.cfg, time.Now())); err != nil {
			s.step--
			return err
		}
	}
	s.markDirtyLocked()
	s.logger.Info("step advanced", slog.String(logging.FieldStep, s.step.String()))
	return nil
}

// Retreat moves the session one step back, bottoming out at Prepare.
func (s *Session) Retreat() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.finished {
		return errFinished()
	}
	if s.step <= StepPrepare {
		return services.Wrap(services.ErrValidation, "staging", "retreat",
			"already at prepare", nil)
	}
	s.step--
	s.markDirtyLocked()
	s.logger.Info("step retreated", slog.String(logging.FieldStep, s.step.String()))
	return nil
}

// BuildSchedule assigns publish slots to the working set, replacing any
// prior schedule. Options not set fall back to configured defaults.
func (s *Session) BuildSchedule(ctx context.Context, opts schedule.Options) ([]schedule.ScheduledContent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.finished {
		return nil, errFinished()
	}
	if err := s.buildScheduleLocked(opts); err != nil {
		return nil, err
	}
	s.markDirtyLocked()
	return cloneScheduled(s.scheduled), nil
}

func (s *Session) buildScheduleLocked(opts schedule.Options) error {
	scheduled, err := s.assistant.Schedule(s.staged, opts)
	if err != nil {
		return err
	}
	s.scheduled = scheduled
	return nil
}

// ClearAll resets every staged item's platform content, drops the schedule,
// returns the session to Prepare, and purges the persisted draft. This is
// destructive; confirmation is the caller's responsibility.
func (s *Session) ClearAll(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.finished {
		return errFinished()
	}
	// A pending autosave would resurrect the cleared state.
	s.autosaver.Stop()
	for _, item := range s.staged {
		item.ClearContent()
	}
	s.scheduled = nil
	s.step = StepPrepare
	if err := s.drafts.Clear(ctx, s.projectID); err != nil {
		s.autosaver.Resume()
		return services.Wrap(services.ErrTransient, "staging", "clear all",
			"failed to purge draft", err)
	}
	s.autosaver.Resume()
	s.gen++
	s.dirty = false
	s.logger.Info("session cleared", slog.Int("items", len(s.staged)))
	return nil
}

// SubmitGeneration hands a generation request to the job manager under this
// session's project. Submission is single-flight per kind.
func (s *Session) SubmitGeneration(ctx context.Context, kind string, payload json.RawMessage) (*genjob.Job, error) {
	if s.jobs == nil {
		return nil, services.Wrap(services.ErrConfiguration, "staging", "submit generation",
			"no generation backend configured", nil)
	}
	return s.jobs.Submit(ctx, s.projectID, kind, payload)
}

// ResumeGeneration returns any non-terminal job for this project and kind
// (empty kind matches any), so a resumed session polls the existing job
// instead of re-submitting. The job is refreshed against the backend first;
// when the backend is unreachable the last persisted state is returned and
// the next poll retries.
func (s *Session) ResumeGeneration(ctx context.Context, kind string) (*genjob.Job, error) {
	if s.jobs == nil {
		return nil, nil
	}
	job, err := s.jobs.ResumeIfPending(ctx, s.projectID, kind)
	if err != nil || job == nil {
		return job, err
	}
	refreshed, err := s.jobs.Refresh(ctx, job.ID)
	if err != nil {
		if errors.Is(err, services.ErrTransient) {
			return job, nil
		}
		return nil, err
	}
	return refreshed, nil
}

// Publish commits the selected subset of the schedule through the
// committer. The session must be at Review. On success the session is
// finished: the draft is already cleared by the committer, the working set
// is dropped, and no further autosave runs. On failure everything stays
// staged and selectable for a retry.
func (s *Session) Publish(ctx context.Context, committer *publish.Committer, selectedIDs []string) (*publish.Receipt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.finished {
		return nil, errFinished()
	}
	if s.step != StepReview {
		return nil, services.Wrap(services.ErrValidation, "staging", "publish",
			fmt.Sprintf("publish requires the review step, session is at %s", s.step), nil)
	}

	selected, err := selectScheduled(s.scheduled, selectedIDs)
	if err != nil {
		return nil, err
	}

	receipt, err := committer.Commit(ctx, s.projectID, selected)
	if err != nil {
		return receipt, err
	}

	s.autosaver.Stop()
	s.staged = nil
	s.scheduled = nil
	s.dirty = false
	s.finished = true
	s.logger.Info("session published", slog.Int("items", len(selected)))
	return receipt, nil
}

// Close flushes any pending autosave so crash recovery is current, then
// stops the timer. A finished session has nothing to flush.
func (s *Session) Close() {
	s.mu.Lock()
	finished := s.finished
	dirty := s.dirty
	s.mu.Unlock()
	if finished || !dirty {
		s.autosaver.Stop()
		return
	}
	s.autosaver.Flush()
	s.autosaver.Stop()
}

// markDirtyLocked records a mutation and re-arms the debounce timer.
// Callers must hold s.mu.
func (s *Session) markDirtyLocked() {
	s.gen++
	s.dirty = true
	s.autosaver.Arm()
}

// autosave runs on the debounce timer goroutine. A failed save is logged
// and retried on the next mutation; it never touches domain state, it only
// makes crash recovery stale. A clean session is never saved: a timer that
// fired before ClearAll but acquired the lock after it must not write a
// fresh draft behind the purge.
func (s *Session) autosave() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	s.mu.Lock()
	if s.finished || !s.dirty {
		s.mu.Unlock()
		return
	}
	snap := s.snapshotLocked()
	snapGen := s.gen
	s.mu.Unlock()

	if err := s.drafts.Save(ctx, snap); err != nil {
		s.logger.Warn("autosave failed, will retry on next change",
			slog.String("error", err.Error()))
		return
	}

	s.mu.Lock()
	if s.gen == snapGen {
		s.dirty = false
	}
	s.mu.Unlock()
}

func (s *Session) snapshotLocked() *draft.Draft {
	return &draft.Draft{
		ProjectID:   s.projectID,
		CurrentStep: int(s.step),
		Staged:      content.CloneItems(s.staged),
		Scheduled:   cloneScheduled(s.scheduled),
	}
}

func cloneScheduled(entries []schedule.ScheduledContent) []schedule.ScheduledContent {
	if entries == nil {
		return nil
	}
	cp := make([]schedule.ScheduledContent, len(entries))
	for idx, entry := range entries {
		cp[idx] = entry
		if entry.Item != nil {
			cp[idx].Item = entry.Item.Clone()
		}
		cp[idx].Platforms = append([]platform.ID(nil), entry.Platforms...)
		cp[idx].SuggestedHashtags = append([]string(nil), entry.SuggestedHashtags...)
	}
	return cp
}

// selectScheduled resolves the reviewed selection against the schedule.
// Review allows de-selection, so the selection may be a subset, but every
// selected ID must resolve.
func selectScheduled(scheduled []schedule.ScheduledContent, ids []string) ([]schedule.ScheduledContent, error) {
	if len(ids) == 0 {
		return nil, services.Wrap(services.ErrValidation, "staging", "publish",
			"nothing selected for publishing", nil)
	}
	byID := make(map[string]schedule.ScheduledContent, len(scheduled))
	for _, entry := range scheduled {
		if entry.Item != nil {
			byID[entry.Item.ID] = entry
		}
	}
	selected := make([]schedule.ScheduledContent, 0, len(ids))
	for _, id := range ids {
		entry, ok := byID[id]
		if !ok {
			return nil, services.Wrap(services.ErrValidation, "staging", "publish",
				fmt.Sprintf("selected item %s is not on the schedule", id), nil)
		}
		selected = append(selected, entry)
	}
	return selected, nil
}

func errFinished() error {
	return services.Wrap(services.ErrValidation, "staging", "session",
		"session already published; open a new session", nil)
}
