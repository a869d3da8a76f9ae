package platform

import (
	"fmt"

	"lineup/internal/config"
)

// Rules describes the publishing constraints for one platform.
type Rules struct {
	// CharacterLimit is the hard cap on caption plus hashtags.
	CharacterLimit int
	// PreviewLength is the number of characters visible before a
	// "show more" interaction. Zero means the full text is shown.
	PreviewLength int
	// Counter selects the character counting function for this platform.
	Counter CounterID
}

// Built-in constraints. Config overrides adjust limits per deployment;
// the counter binding is fixed per platform.
var builtinRules = map[ID]Rules{
	Instagram: {CharacterLimit: 2200, PreviewLength: 125, Counter: CounterDefault},
	TikTok:    {CharacterLimit: 2200, PreviewLength: 1000, Counter: CounterDefault},
	YouTube:   {CharacterLimit: 5000, PreviewLength: 157, Counter: CounterDefault},
	Twitter:   {CharacterLimit: 280, PreviewLength: 0, Counter: CounterWeightedURL},
	LinkedIn:  {CharacterLimit: 3000, PreviewLength: 210, Counter: CounterDefault},
	Facebook:  {CharacterLimit: 63206, PreviewLength: 477, Counter: CounterDefault},
	Blog:      {CharacterLimit: 100000, PreviewLength: 0, Counter: CounterDefault},
}

// Table is the resolved per-platform rule set after config overrides.
type Table struct {
	rules map[ID]Rules
}

// NewTable builds a rule table from the built-in constraints and any
// configured overrides. Overrides naming an unknown platform are rejected so
// typos surface at startup rather than during validation.
func NewTable(overrides map[string]config.PlatformOverride) (*Table, error) {
	rules := make(map[ID]Rules, len(builtinRules))
	for id, r := range builtinRules {
		rules[id] = r
	}
	for name, override := range overrides {
		id, ok := Parse(name)
		if !ok {
			return nil, fmt.Errorf("platform rules: unknown platform %q in overrides", name)
		}
		r := rules[id]
		if override.CharacterLimit > 0 {
			r.CharacterLimit = override.CharacterLimit
		}
		if override.PreviewLength > 0 {
			r.PreviewLength = override.PreviewLength
		}
		rules[id] = r
	}
	return &Table{rules: rules}, nil
}

// DefaultTable returns the rule table without overrides.
func DefaultTable() *Table {
	table, err := NewTable(nil)
	if err != nil {
		panic(err)
	}
	return table
}

// Lookup returns the rules for a platform.
func (t *Table) Lookup(id ID) (Rules, bool) {
	r, ok := t.rules[id]
	return r, ok
}

// Count applies the platform's counting function to caption plus hashtags.
func (t *Table) Count(id ID, caption string, hashtags []string) (int, error) {
	r, ok := t.rules[id]
	if !ok {
		return 0, fmt.Errorf("platform rules: unknown platform %q", id)
	}
	count, ok := Counter(r.Counter)
	if !ok {
		return 0, fmt.Errorf("platform rules: unknown counter %q for platform %q", r.Counter, id)
	}
	return count(caption, hashtags), nil
}

// Preview returns the text visible before truncation on the given platform.
// Platforms without a preview cutoff return the text unchanged.
func (t *Table) Preview(id ID, text string) string {
	r, ok := t.rules[id]
	if !ok || r.PreviewLength <= 0 {
		return text
	}
	runes := []rune(text)
	if len(runes) <= r.PreviewLength {
		return text
	}
	return string(runes[:r.PreviewLength])
}
