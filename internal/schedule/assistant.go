package schedule

import (
	"fmt"
	"log/slog"
	"time"

	"lineup/internal/content"
	"lineup/internal/logging"
	"lineup/internal/platform"
)

// Assistant assigns concrete publish slots to staged items. Scheduling is
// deterministic: the same input list and options always produce the same
// assignments, so the review step stays stable across re-renders.
type Assistant struct {
	logger *slog.Logger
}

// NewAssistant constructs a scheduling assistant.
func NewAssistant(logger *slog.Logger) *Assistant {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Assistant{logger: logger}
}

// Schedule produces a time-ordered, collision-free schedule for the given
// items. Items keep their input order for slot spacing; collisions on a
// (slot, platform) pair shift the later item forward by the granularity
// until the slot is free.
func (a *Assistant) Schedule(items []*content.Item, opts Options) ([]ScheduledContent, error) {
	opts.normalize()

	scheduled := make([]ScheduledContent, 0, len(items))
	taken := make(map[string]struct{})

	spacing := opts.Granularity
	if len(items) > 1 {
		spacing = opts.Horizon / time.Duration(len(items))
	}

	for idx, item := range items {
		candidate, ok := opts.ExplicitTimes[item.ID]
		if !ok {
			candidate = opts.Start.Add(time.Duration(idx) * spacing)
		}
		slot := a.resolveSlot(candidate, item.TargetPlatforms, taken, opts)

		for _, id := range item.TargetPlatforms {
			taken[slotKey(slot, id, opts.Granularity)] = struct{}{}
		}

		scheduled = append(scheduled, ScheduledContent{
			Item:              item,
			ScheduledDate:     slot,
			Platforms:         append([]platform.ID(nil), item.TargetPlatforms...),
			SuggestedHashtags: suggestHashtags(item),
			Engagement:        Prediction{Score: predictEngagement(item, slot)},
		})
	}

	a.logger.Debug("schedule built",
		slog.Int("items", len(items)),
		slog.Duration("granularity", opts.Granularity),
		slog.Duration("horizon", opts.Horizon))
	return scheduled, nil
}

// resolveSlot rounds the candidate into the scheduling granularity, clamps
// it into the posting window, and shifts forward until every platform slot
// is free.
func (a *Assistant) resolveSlot(candidate time.Time, platforms []platform.ID, taken map[string]struct{}, opts Options) time.Time {
	slot := clampToWindow(candidate.Truncate(opts.Granularity), opts)
	for a.collides(slot, platforms, taken, opts) {
		slot = clampToWindow(slot.Add(opts.Granularity), opts)
	}
	return slot
}

func (a *Assistant) collides(slot time.Time, platforms []platform.ID, taken map[string]struct{}, opts Options) bool {
	for _, id := range platforms {
		if _, ok := taken[slotKey(slot, id, opts.Granularity)]; ok {
			return true
		}
	}
	return false
}

func slotKey(slot time.Time, id platform.ID, granularity time.Duration) string {
	return fmt.Sprintf("%d|%s", slot.Truncate(granularity).Unix(), id)
}

// clampToWindow moves a slot into the allowed posting hours. Slots before
// the window open at the window start; slots at or past the close move to
// the next day's window start.
func clampToWindow(slot time.Time, opts Options) time.Time {
	hour := slot.Hour()
	if hour < opts.WindowStartHour {
		return time.Date(slot.Year(), slot.Month(), slot.Day(), opts.WindowStartHour, 0, 0, 0, slot.Location())
	}
	if hour >= opts.WindowEndHour {
		next := slot.AddDate(0, 0, 1)
		return time.Date(next.Year(), next.Month(), next.Day(), opts.WindowStartHour, 0, 0, 0, slot.Location())
	}
	return slot
}
