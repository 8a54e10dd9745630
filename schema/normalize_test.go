package schema

import (
	"errors"
	"testing"
)

func TestNormalizeTabIDsDropsEmptyAndDuplicates(t *testing.T) {
	got, err := NormalizeTabIDs([]TabID{"1", "", "2", "1", "3"})
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	want := []TabID{"1", "2", "3"}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
}

func TestNormalizeTabIDsRejectsEmpty(t *testing.T) {
	for _, ids := range [][]TabID{nil, {}, {""}} {
		if _, err := NormalizeTabIDs(ids); !errors.Is(err, ErrNoTabs) {
			t.Fatalf("expected ErrNoTabs for %v, got %v", ids, err)
		}
	}
}

func TestNormalizeColor(t *testing.T) {
	cases := map[string]Color{
		"blue":   ColorBlue,
		" Cyan ": ColorCyan,
		"GRAY":   ColorGrey,
		"grey":   ColorGrey,
		"orange": ColorOrange,
	}
	for in, want := range cases {
		got, err := NormalizeColor(in)
		if err != nil {
			t.Fatalf("normalize %q: %v", in, err)
		}
		if got != want {
			t.Fatalf("normalize %q: expected %q, got %q", in, want, got)
		}
	}
	if _, err := NormalizeColor("magenta"); !errors.Is(err, ErrInvalidColor) {
		t.Fatalf("expected ErrInvalidColor, got %v", err)
	}
}

func TestPaletteHasNineColors(t *testing.T) {
	if len(Palette) != 9 {
		t.Fatalf("expected 9 palette colors, got %d", len(Palette))
	}
	seen := map[Color]bool{}
	for _, c := range Palette {
		if seen[c] {
			t.Fatalf("duplicate palette color %q", c)
		}
		seen[c] = true
	}
}

func TestQueryMatches(t *testing.T) {
	tab := Tab{ID: "1", WindowID: 2, GroupID: "g"}
	if !(TabQuery{}).Matches(tab) {
		t.Fatalf("empty tab query should match")
	}
	if (TabQuery{WindowID: InWindow(3)}).Matches(tab) {
		t.Fatalf("window filter should not match")
	}
	if !(TabQuery{WindowID: InWindow(2), GroupID: "g"}).Matches(tab) {
		t.Fatalf("window+group filter should match")
	}
	group := Group{ID: "g", WindowID: 2, Label: "example.com"}
	if !(GroupQuery{Label: WithLabel("example.com")}).Matches(group) {
		t.Fatalf("label filter should match")
	}
	if (GroupQuery{WindowID: InWindow(1), Label: WithLabel("example.com")}).Matches(group) {
		t.Fatalf("window filter should not match")
	}
}
