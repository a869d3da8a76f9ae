package validate_test

import (
	"errors"
	"strings"
	"testing"

	"lineup/internal/content"
	"lineup/internal/platform"
	"lineup/internal/services"
	"lineup/internal/validate"
)

func newValidator(t *testing.T) *validate.Validator {
	t.Helper()
	return validate.New(platform.DefaultTable())
}

func newItem(t *testing.T, st content.SourceType, title string) *content.Item {
	t.Helper()
	item, err := content.NewItem(st, title, "", nil)
	if err != nil {
		t.Fatalf("NewItem failed: %v", err)
	}
	return item
}

func TestCharacterLimitBoundary(t *testing.T) {
	v := newValidator(t)
	item := newItem(t, content.SourceSocialText, "Note")
	fields := item.PlatformContent[platform.Twitter]

	// Twitter's limit is 280. One character under passes, one over fails.
	fields.Caption = strings.Repeat("a", 279)
	result, err := v.Validate(item, platform.Twitter)
	if err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if !result.Valid {
		t.Fatalf("279 characters should be valid: %v", result.Errors)
	}

	fields.Caption = strings.Repeat("a", 281)
	result, err = v.Validate(item, platform.Twitter)
	if err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if result.Valid {
		t.Fatal("281 characters should be invalid")
	}
	if result.CharacterCount != 281 {
		t.Fatalf("character count = %d, want 281", result.CharacterCount)
	}
}

func TestHashtagsCountTowardLimit(t *testing.T) {
	v := newValidator(t)
	item := newItem(t, content.SourceSocialText, "Note")
	fields := item.PlatformContent[platform.Twitter]
	// 272 caption + " #golang" (8) = 280, exactly at the limit.
	fields.Caption = strings.Repeat("a", 272)
	fields.Hashtags = []string{"golang"}

	result, err := v.Validate(item, platform.Twitter)
	if err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if !result.Valid || result.CharacterCount != 280 {
		t.Fatalf("expected exactly 280 valid characters, got %d valid=%v", result.CharacterCount, result.Valid)
	}
}

func TestVisualContentRequiresAltText(t *testing.T) {
	v := newValidator(t)
	item := newItem(t, content.SourceImage, "Poster")
	result, err := v.Validate(item, platform.Instagram)
	if err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if result.Valid {
		t.Fatal("image without alt text should be invalid")
	}

	item.PlatformContent[platform.Instagram].AltText = "A launch poster"
	result, err = v.Validate(item, platform.Instagram)
	if err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if !result.Valid {
		t.Fatalf("expected valid after alt text set: %v", result.Errors)
	}
}

func TestYouTubeRequiresTitle(t *testing.T) {
	v := newValidator(t)
	item := newItem(t, content.SourceLongform, "")
	result, err := v.Validate(item, platform.YouTube)
	if err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if result.Valid {
		t.Fatal("longform without title should be invalid on youtube")
	}
}

func TestBlogPostRequiresLink(t *testing.T) {
	v := newValidator(t)
	item := newItem(t, content.SourceBlogPost, "Release notes")
	result, err := v.Validate(item, platform.Blog)
	if err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if result.Valid {
		t.Fatal("blog post without link should be invalid on blog")
	}
	// The same item on linkedin has no link requirement.
	result, err = v.Validate(item, platform.LinkedIn)
	if err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if !result.Valid {
		t.Fatalf("linkedin should not require a link: %v", result.Errors)
	}
}

func TestPreviewText(t *testing.T) {
	v := newValidator(t)
	item := newItem(t, content.SourceImage, "Poster")
	fields := item.PlatformContent[platform.Instagram]
	fields.Caption = strings.Repeat("x", 300)
	fields.AltText = "poster"

	result, err := v.Validate(item, platform.Instagram)
	if err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if len(result.PreviewText) != 125 {
		t.Fatalf("preview length = %d, want 125", len(result.PreviewText))
	}
}

func TestApplyWritesResultsBack(t *testing.T) {
	v := newValidator(t)
	item := newItem(t, content.SourceClip, "Teaser")
	for _, id := range item.TargetPlatforms {
		item.PlatformContent[id].Caption = "watch this"
		item.PlatformContent[id].AltText = "teaser frame"
	}

	allValid, err := v.Apply(item)
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if !allValid {
		t.Fatal("expected all platforms valid")
	}
	for _, id := range item.TargetPlatforms {
		fields := item.PlatformContent[id]
		if !fields.Valid || fields.CharacterCount == 0 {
			t.Fatalf("results not written back for %q: %#v", id, fields)
		}
	}
}

func TestApplyFillsMissingFieldSets(t *testing.T) {
	v := newValidator(t)
	item := newItem(t, content.SourceClip, "Teaser")
	// An item deserialized from an external caller can arrive without its
	// platform fan-out materialized.
	item.PlatformContent = nil

	allValid, err := v.Apply(item)
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if allValid {
		t.Fatal("missing alt text should fail required-field checks")
	}
	for _, id := range item.TargetPlatforms {
		fields := item.PlatformContent[id]
		if fields == nil {
			t.Fatalf("field set for %q not materialized", id)
		}
		if len(fields.ValidationErrors) == 0 {
			t.Fatalf("expected validation errors recorded for %q", id)
		}
	}
}

func TestUnknownTargetFailsFast(t *testing.T) {
	v := newValidator(t)
	item := newItem(t, content.SourceClip, "Teaser")
	item.TargetPlatforms = append(item.TargetPlatforms, platform.ID("myspace"))

	err := v.CheckTargets(item)
	if err == nil {
		t.Fatal("expected configuration error for unknown platform")
	}
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected ErrConfiguration, got %v", err)
	}
}
