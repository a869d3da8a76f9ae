package platform

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// CounterID names a registered character counting function.
type CounterID string

const (
	// CounterDefault counts NFC-normalized runes of caption plus hashtags.
	CounterDefault CounterID = "default"
	// CounterWeightedURL counts like CounterDefault but weighs every URL as
	// a fixed 23 characters, matching link-shortener behavior.
	CounterWeightedURL CounterID = "weighted_url"
)

// CountFunc computes the effective character count for a caption and its
// hashtags. Hashtags are prefixed with '#' and space-joined onto the caption
// before counting.
type CountFunc func(caption string, hashtags []string) int

const shortenedURLLength = 23

var urlPattern = regexp.MustCompile(`https?://\S+`)

var counters = map[CounterID]CountFunc{
	CounterDefault:     countDefault,
	CounterWeightedURL: countWeightedURL,
}

// Counter returns the counting function registered under id.
func Counter(id CounterID) (CountFunc, bool) {
	fn, ok := counters[id]
	return fn, ok
}

// ComposeText joins a caption and its hashtags the way platforms render
// them: caption, then each hashtag '#'-prefixed and space-separated.
func ComposeText(caption string, hashtags []string) string {
	var b strings.Builder
	b.WriteString(caption)
	for _, tag := range hashtags {
		tag = strings.TrimSpace(strings.TrimPrefix(tag, "#"))
		if tag == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		b.WriteByte('#')
		b.WriteString(tag)
	}
	return b.String()
}

func countDefault(caption string, hashtags []string) int {
	return utf8.RuneCountInString(norm.NFC.String(ComposeText(caption, hashtags)))
}

func countWeightedURL(caption string, hashtags []string) int {
	text := norm.NFC.String(ComposeText(caption, hashtags))
	weighted := 0
	text = urlPattern.ReplaceAllStringFunc(text, func(string) string {
		weighted += shortenedURLLength
		return ""
	})
	return utf8.RuneCountInString(text) + weighted
}
