package platform_test

import (
	"strings"
	"testing"

	"lineup/internal/config"
	"lineup/internal/platform"
)

func TestParse(t *testing.T) {
	cases := []struct {
		input string
		want  platform.ID
		ok    bool
	}{
		{"instagram", platform.Instagram, true},
		{"  TikTok ", platform.TikTok, true},
		{"", "", false},
		{"myspace", "", false},
	}
	for _, tc := range cases {
		got, ok := platform.Parse(tc.input)
		if ok != tc.ok || got != tc.want {
			t.Errorf("Parse(%q) = (%q, %v), want (%q, %v)", tc.input, got, ok, tc.want, tc.ok)
		}
	}
}

func TestEveryPlatformHasRules(t *testing.T) {
	table := platform.DefaultTable()
	for _, id := range platform.All() {
		rules, ok := table.Lookup(id)
		if !ok {
			t.Fatalf("no rules for platform %q", id)
		}
		if rules.CharacterLimit <= 0 {
			t.Fatalf("platform %q has no character limit", id)
		}
		if _, ok := platform.Counter(rules.Counter); !ok {
			t.Fatalf("platform %q references unknown counter %q", id, rules.Counter)
		}
	}
}

func TestNewTableAppliesOverrides(t *testing.T) {
	table, err := platform.NewTable(map[string]config.PlatformOverride{
		"instagram": {CharacterLimit: 500, PreviewLength: 50},
	})
	if err != nil {
		t.Fatalf("NewTable failed: %v", err)
	}
	rules, _ := table.Lookup(platform.Instagram)
	if rules.CharacterLimit != 500 || rules.PreviewLength != 50 {
		t.Fatalf("override not applied: %#v", rules)
	}
	// Other platforms keep built-in limits.
	rules, _ = table.Lookup(platform.Twitter)
	if rules.CharacterLimit != 280 {
		t.Fatalf("unrelated platform changed: %#v", rules)
	}
}

func TestNewTableRejectsUnknownPlatform(t *testing.T) {
	if _, err := platform.NewTable(map[string]config.PlatformOverride{"myspace": {}}); err == nil {
		t.Fatal("expected error for unknown platform override")
	}
}

func TestComposeText(t *testing.T) {
	got := platform.ComposeText("launch day", []string{"golang", "#release", " ", ""})
	want := "launch day #golang #release"
	if got != want {
		t.Fatalf("ComposeText = %q, want %q", got, want)
	}
}

func TestDefaultCounterCountsRunes(t *testing.T) {
	count, err := platform.DefaultTable().Count(platform.Instagram, "héllo", []string{"go"})
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	// "héllo #go" is 9 runes regardless of UTF-8 byte length.
	if count != 9 {
		t.Fatalf("count = %d, want 9", count)
	}
}

func TestWeightedURLCounter(t *testing.T) {
	table := platform.DefaultTable()
	longURL := "https://example.com/" + strings.Repeat("x", 100)
	count, err := table.Count(platform.Twitter, "read this "+longURL, nil)
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	// "read this " is 10 characters; the URL collapses to 23.
	if count != 33 {
		t.Fatalf("count = %d, want 33", count)
	}
}

func TestPreviewTruncates(t *testing.T) {
	table := platform.DefaultTable()
	text := strings.Repeat("a", 200)
	preview := table.Preview(platform.Instagram, text)
	if len(preview) != 125 {
		t.Fatalf("preview length = %d, want 125", len(preview))
	}
	if table.Preview(platform.Twitter, text) != text {
		t.Fatal("platforms without preview cutoff should return text unchanged")
	}
	short := "short caption"
	if table.Preview(platform.Instagram, short) != short {
		t.Fatal("text under the cutoff should be unchanged")
	}
}
