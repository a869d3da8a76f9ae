package platform

import "strings"

// ID identifies a publishing platform.
type ID string

const (
	Instagram ID = "instagram"
	TikTok    ID = "tiktok"
	YouTube   ID = "youtube"
	Twitter   ID = "twitter"
	LinkedIn  ID = "linkedin"
	Facebook  ID = "facebook"
	Blog      ID = "blog"
)

var allPlatforms = []ID{
	Instagram,
	TikTok,
	YouTube,
	Twitter,
	LinkedIn,
	Facebook,
	Blog,
}

var platformSet = func() map[ID]struct{} {
	set := make(map[ID]struct{}, len(allPlatforms))
	for _, id := range allPlatforms {
		set[id] = struct{}{}
	}
	return set
}()

// All returns the ordered list of known platforms.
func All() []ID {
	cp := make([]ID, len(allPlatforms))
	copy(cp, allPlatforms)
	return cp
}

// Parse converts a string into a known platform ID.
func Parse(value string) (ID, bool) {
	normalized := ID(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := platformSet[normalized]
	return normalized, ok
}

// Known reports whether the platform identifier is recognized.
func Known(id ID) bool {
	_, ok := platformSet[id]
	return ok
}
