package content

import (
	"fmt"
	"sort"
	"strings"

	"github.com/oklog/ulid/v2"

	"lineup/internal/platform"
)

// SourceType discriminates the kind of generated artifact being staged.
type SourceType string

const (
	SourceClip       SourceType = "clip"
	SourceLongform   SourceType = "longform"
	SourceBlogPost   SourceType = "blog_post"
	SourceImage      SourceType = "image"
	SourceCarousel   SourceType = "carousel"
	SourceSocialText SourceType = "social_text"
)

var allSourceTypes = []SourceType{
	SourceClip,
	SourceLongform,
	SourceBlogPost,
	SourceImage,
	SourceCarousel,
	SourceSocialText,
}

// Fixed fan-out from artifact kind to the platforms it publishes to.
var targetsBySource = map[SourceType][]platform.ID{
	SourceClip:       {platform.Instagram, platform.TikTok, platform.YouTube},
	SourceLongform:   {platform.YouTube},
	SourceBlogPost:   {platform.Blog, platform.LinkedIn, platform.Twitter},
	SourceImage:      {platform.Instagram, platform.Facebook, platform.Twitter},
	SourceCarousel:   {platform.Instagram, platform.LinkedIn},
	SourceSocialText: {platform.Twitter, platform.LinkedIn, platform.Facebook},
}

// AllSourceTypes returns the ordered list of known source types.
func AllSourceTypes() []SourceType {
	cp := make([]SourceType, len(allSourceTypes))
	copy(cp, allSourceTypes)
	return cp
}

// ParseSourceType converts a string into a known SourceType.
func ParseSourceType(value string) (SourceType, bool) {
	normalized := SourceType(strings.ToLower(strings.TrimSpace(value)))
	_, ok := targetsBySource[normalized]
	return normalized, ok
}

// TargetPlatforms returns the platform fan-out for a source type.
func TargetPlatforms(st SourceType) []platform.ID {
	targets := targetsBySource[st]
	cp := make([]platform.ID, len(targets))
	copy(cp, targets)
	return cp
}

// IsVisual reports whether the source type carries imagery that needs alt text.
func (st SourceType) IsVisual() bool {
	switch st {
	case SourceClip, SourceImage, SourceCarousel:
		return true
	default:
		return false
	}
}

// FieldSet holds the per-platform publishable fields of one staged item.
type FieldSet struct {
	Caption          string   `json:"caption"`
	Hashtags         []string `json:"hashtags"`
	CallToAction     string   `json:"callToAction"`
	AltText          string   `json:"altText"`
	Link             string   `json:"link"`
	CharacterCount   int      `json:"characterCount"`
	Valid            bool     `json:"valid"`
	ValidationErrors []string `json:"validationErrors"`
}

// Reset clears every field back to its zero value.
func (f *FieldSet) Reset() {
	*f = FieldSet{}
}

// Clone returns a deep copy.
func (f *FieldSet) Clone() *FieldSet {
	if f == nil {
		return nil
	}
	cp := *f
	cp.Hashtags = append([]string(nil), f.Hashtags...)
	cp.ValidationErrors = append([]string(nil), f.ValidationErrors...)
	return &cp
}

// Item is a content artifact plus its per-platform field data, not yet
// scheduled. The staging session owns the authoritative copy; the draft
// store only ever holds a serialized snapshot.
type Item struct {
	ID              string                    `json:"id"`
	SourceType      SourceType                `json:"sourceType"`
	Title           string                    `json:"title"`
	Description     string                    `json:"description"`
	TargetPlatforms []platform.ID             `json:"targetPlatforms"`
	PlatformContent map[platform.ID]*FieldSet `json:"platformContent"`
	MediaRefs       []string                  `json:"mediaRefs"`
	EstimatedReach  int                       `json:"estimatedReach"`
	Ready           bool                      `json:"ready"`
}

// NewID returns a lexically sortable item identifier.
func NewID() string {
	return ulid.Make().String()
}

// NewItem builds an item with its platform fan-out derived from the source
// type and an empty field set per target platform.
func NewItem(st SourceType, title, description string, mediaRefs []string) (*Item, error) {
	if _, ok := targetsBySource[st]; !ok {
		return nil, fmt.Errorf("content: unknown source type %q", st)
	}
	item := &Item{
		ID:          NewID(),
		SourceType:  st,
		Title:       title,
		Description: description,
		MediaRefs:   append([]string(nil), mediaRefs...),
	}
	item.Normalize()
	return item, nil
}

// Normalize enforces the platform-content invariant: every target platform
// has exactly one field set and no extraneous keys remain. The target list
// is re-derived from the source type.
func (i *Item) Normalize() {
	i.TargetPlatforms = TargetPlatforms(i.SourceType)
	if i.PlatformContent == nil {
		i.PlatformContent = make(map[platform.ID]*FieldSet, len(i.TargetPlatforms))
	}
	for _, id := range i.TargetPlatforms {
		if i.PlatformContent[id] == nil {
			i.PlatformContent[id] = &FieldSet{}
		}
	}
	for id := range i.PlatformContent {
		if !contains(i.TargetPlatforms, id) {
			delete(i.PlatformContent, id)
		}
	}
}

// ClearContent resets every platform field set back to empty.
func (i *Item) ClearContent() {
	for _, fields := range i.PlatformContent {
		fields.Reset()
	}
	i.Ready = false
}

// Invalid reports whether any platform field set carries validation errors.
func (i *Item) Invalid() bool {
	for _, fields := range i.PlatformContent {
		if len(fields.ValidationErrors) > 0 {
			return true
		}
	}
	return false
}

// Clone returns a deep copy of the item.
func (i *Item) Clone() *Item {
	cp := *i
	cp.TargetPlatforms = append([]platform.ID(nil), i.TargetPlatforms...)
	cp.MediaRefs = append([]string(nil), i.MediaRefs...)
	cp.PlatformContent = make(map[platform.ID]*FieldSet, len(i.PlatformContent))
	for id, fields := range i.PlatformContent {
		cp.PlatformContent[id] = fields.Clone()
	}
	return &cp
}

// CloneItems deep-copies a working set.
func CloneItems(items []*Item) []*Item {
	cp := make([]*Item, len(items))
	for idx, item := range items {
		cp[idx] = item.Clone()
	}
	return cp
}

// SortedPlatforms returns the item's content keys in stable order, for
// deterministic iteration.
func (i *Item) SortedPlatforms() []platform.ID {
	keys := make([]platform.ID, 0, len(i.PlatformContent))
	for id := range i.PlatformContent {
		keys = append(keys, id)
	}
	sort.Slice(keys, func(a, b int) bool { return keys[a] < keys[b] })
	return keys
}

func contains(ids []platform.ID, id platform.ID) bool {
	for _, candidate := range ids {
		if candidate == id {
			return true
		}
	}
	return false
}
