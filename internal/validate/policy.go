package validate

import (
	"strings"

	"lineup/internal/content"
	"lineup/internal/platform"
)

// requirement is one row of the declarative required-field policy. A zero
// Platform matches every platform; a nil Sources list matches every source
// type. Extending the policy means adding rows here, not touching the
// validator.
type requirement struct {
	Platform platform.ID
	Sources  []content.SourceType
	present  func(item *content.Item, fields *content.FieldSet) bool
	message  string
}

var requiredFields = []requirement{
	{
		Sources: []content.SourceType{content.SourceClip, content.SourceImage, content.SourceCarousel},
		present: func(_ *content.Item, fields *content.FieldSet) bool {
			return strings.TrimSpace(fields.AltText) != ""
		},
		message: "alt text is required for visual content",
	},
	{
		Platform: platform.YouTube,
		present: func(item *content.Item, _ *content.FieldSet) bool {
			return strings.TrimSpace(item.Title) != ""
		},
		message: "youtube requires a title",
	},
	{
		Platform: platform.Blog,
		Sources:  []content.SourceType{content.SourceBlogPost},
		present: func(_ *content.Item, fields *content.FieldSet) bool {
			return strings.TrimSpace(fields.Link) != ""
		},
		message: "blog posts require a canonical link",
	},
}

func (r requirement) applies(id platform.ID, st content.SourceType) bool {
	if r.Platform != "" && r.Platform != id {
		return false
	}
	if r.Sources == nil {
		return true
	}
	for _, candidate := range r.Sources {
		if candidate == st {
			return true
		}
	}
	return false
}
