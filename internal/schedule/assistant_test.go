package schedule_test

import (
	"fmt"
	"testing"
	"time"

	"lineup/internal/content"
	"lineup/internal/schedule"
)

func newItems(t *testing.T, types ...content.SourceType) []*content.Item {
	t.Helper()
	items := make([]*content.Item, 0, len(types))
	for idx, st := range types {
		item, err := content.NewItem(st, fmt.Sprintf("Item %d", idx), "", nil)
		if err != nil {
			t.Fatalf("NewItem failed: %v", err)
		}
		items = append(items, item)
	}
	return items
}

func testOptions(start time.Time) schedule.Options {
	return schedule.Options{
		Start:           start,
		Horizon:         7 * 24 * time.Hour,
		Granularity:     30 * time.Minute,
		WindowStartHour: 9,
		WindowEndHour:   21,
	}
}

func TestScheduleIsDeterministic(t *testing.T) {
	assistant := schedule.NewAssistant(nil)
	items := newItems(t, content.SourceClip, content.SourceImage, content.SourceSocialText)
	opts := testOptions(time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC))

	first, err := assistant.Schedule(items, opts)
	if err != nil {
		t.Fatalf("Schedule failed: %v", err)
	}
	second, err := assistant.Schedule(items, opts)
	if err != nil {
		t.Fatalf("Schedule failed: %v", err)
	}
	if len(first) != len(second) {
		t.Fatalf("lengths differ: %d vs %d", len(first), len(second))
	}
	for idx := range first {
		if !first[idx].ScheduledDate.Equal(second[idx].ScheduledDate) {
			t.Fatalf("slot %d differs: %v vs %v", idx, first[idx].ScheduledDate, second[idx].ScheduledDate)
		}
		if first[idx].Engagement.Score != second[idx].Engagement.Score {
			t.Fatalf("score %d differs", idx)
		}
	}
}

func TestScheduleHasNoCollisions(t *testing.T) {
	assistant := schedule.NewAssistant(nil)
	// Several items with overlapping platform fan-outs, all requesting the
	// same explicit time, forcing the collision path.
	items := newItems(t, content.SourceClip, content.SourceClip, content.SourceImage, content.SourceSocialText)
	start := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	opts := testOptions(start)
	opts.ExplicitTimes = map[string]time.Time{}
	for _, item := range items {
		opts.ExplicitTimes[item.ID] = start
	}

	scheduled, err := assistant.Schedule(items, opts)
	if err != nil {
		t.Fatalf("Schedule failed: %v", err)
	}

	granularity := opts.Granularity
	seen := make(map[string]string)
	for _, sc := range scheduled {
		for _, id := range sc.Platforms {
			key := fmt.Sprintf("%d|%s", sc.ScheduledDate.Truncate(granularity).Unix(), id)
			if prior, ok := seen[key]; ok {
				t.Fatalf("items %s and %s share slot %s on %s", prior, sc.Item.ID, sc.ScheduledDate, id)
			}
			seen[key] = sc.Item.ID
		}
	}
}

func TestScheduleSingleClipWithinHorizon(t *testing.T) {
	assistant := schedule.NewAssistant(nil)
	items := newItems(t, content.SourceClip)
	items[0].Ready = true
	start := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	opts := testOptions(start)

	scheduled, err := assistant.Schedule(items, opts)
	if err != nil {
		t.Fatalf("Schedule failed: %v", err)
	}
	if len(scheduled) != 1 {
		t.Fatalf("expected exactly 1 scheduled entry, got %d", len(scheduled))
	}
	sc := scheduled[0]
	if sc.ScheduledDate.Before(start) || sc.ScheduledDate.After(start.Add(opts.Horizon)) {
		t.Fatalf("slot %v outside horizon", sc.ScheduledDate)
	}
	allowed := map[string]bool{"instagram": true, "tiktok": true, "youtube": true}
	for _, id := range sc.Platforms {
		if !allowed[string(id)] {
			t.Fatalf("unexpected platform %q for a clip", id)
		}
	}
	if sc.Engagement.Score < 0 || sc.Engagement.Score > 100 {
		t.Fatalf("engagement score %d out of range", sc.Engagement.Score)
	}
}

func TestSlotsRespectPostingWindow(t *testing.T) {
	assistant := schedule.NewAssistant(nil)
	items := newItems(t, content.SourceSocialText, content.SourceSocialText, content.SourceSocialText)
	// Start at 03:00, well before the window opens.
	opts := testOptions(time.Date(2026, 3, 2, 3, 0, 0, 0, time.UTC))

	scheduled, err := assistant.Schedule(items, opts)
	if err != nil {
		t.Fatalf("Schedule failed: %v", err)
	}
	for _, sc := range scheduled {
		hour := sc.ScheduledDate.Hour()
		if hour < opts.WindowStartHour || hour >= opts.WindowEndHour {
			t.Fatalf("slot %v outside posting window", sc.ScheduledDate)
		}
	}
}

func TestExplicitTimesAreRounded(t *testing.T) {
	assistant := schedule.NewAssistant(nil)
	items := newItems(t, content.SourceSocialText)
	requested := time.Date(2026, 3, 2, 10, 17, 42, 0, time.UTC)
	opts := testOptions(requested)
	opts.ExplicitTimes = map[string]time.Time{items[0].ID: requested}

	scheduled, err := assistant.Schedule(items, opts)
	if err != nil {
		t.Fatalf("Schedule failed: %v", err)
	}
	got := scheduled[0].ScheduledDate
	if got.Minute()%30 != 0 || got.Second() != 0 {
		t.Fatalf("slot %v not aligned to granularity", got)
	}
}

func TestSuggestedHashtagsStable(t *testing.T) {
	assistant := schedule.NewAssistant(nil)
	items := newItems(t, content.SourceClip)
	for _, id := range items[0].TargetPlatforms {
		items[0].PlatformContent[id].Hashtags = []string{"#Launch", "golang"}
	}
	opts := testOptions(time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC))

	scheduled, err := assistant.Schedule(items, opts)
	if err != nil {
		t.Fatalf("Schedule failed: %v", err)
	}
	tags := scheduled[0].SuggestedHashtags
	want := []string{"golang", "launch", "shorts", "video"}
	if len(tags) != len(want) {
		t.Fatalf("tags = %v, want %v", tags, want)
	}
	for idx := range want {
		if tags[idx] != want[idx] {
			t.Fatalf("tags = %v, want %v", tags, want)
		}
	}
}
