package schedule

import (
	"sort"
	"strings"
	"time"

	"lineup/internal/content"
	"lineup/internal/platform"
)

// Advisory engagement model: platform reach base, content type affinity,
// and an hour-of-day curve. Deterministic by construction.

var platformBase = map[platform.ID]int{
	platform.Instagram: 62,
	platform.TikTok:    70,
	platform.YouTube:   55,
	platform.Twitter:   48,
	platform.LinkedIn:  44,
	platform.Facebook:  40,
	platform.Blog:      35,
}

var sourceAffinity = map[content.SourceType]int{
	content.SourceClip:       12,
	content.SourceCarousel:   8,
	content.SourceImage:      6,
	content.SourceSocialText: 4,
	content.SourceLongform:   2,
	content.SourceBlogPost:   0,
}

var defaultHashtags = map[content.SourceType][]string{
	content.SourceClip:       {"shorts", "video"},
	content.SourceLongform:   {"video"},
	content.SourceBlogPost:   {"blog"},
	content.SourceImage:      {"photo"},
	content.SourceCarousel:   {"gallery"},
	content.SourceSocialText: {},
}

func predictEngagement(item *content.Item, slot time.Time) int {
	base := 0
	for _, id := range item.TargetPlatforms {
		base += platformBase[id]
	}
	if len(item.TargetPlatforms) > 0 {
		base /= len(item.TargetPlatforms)
	}

	score := base + sourceAffinity[item.SourceType] + hourBoost(slot.Hour())
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	return score
}

// hourBoost favors commute and evening windows.
func hourBoost(hour int) int {
	switch {
	case hour >= 7 && hour < 9:
		return 8
	case hour >= 12 && hour < 14:
		return 10
	case hour >= 17 && hour < 21:
		return 12
	case hour >= 9 && hour < 17:
		return 5
	default:
		return 0
	}
}

// suggestHashtags merges the hashtags already present across the item's
// field sets with the defaults for its content type, deduplicated and
// sorted for stable output.
func suggestHashtags(item *content.Item) []string {
	seen := make(map[string]struct{})
	for _, id := range item.SortedPlatforms() {
		for _, tag := range item.PlatformContent[id].Hashtags {
			tag = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(tag, "#")))
			if tag != "" {
				seen[tag] = struct{}{}
			}
		}
	}
	for _, tag := range defaultHashtags[item.SourceType] {
		seen[tag] = struct{}{}
	}

	tags := make([]string, 0, len(seen))
	for tag := range seen {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	const maxSuggestions = 5
	if len(tags) > maxSuggestions {
		tags = tags[:maxSuggestions]
	}
	return tags
}
