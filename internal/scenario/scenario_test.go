package scenario

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"pkt.systems/tabgrouper/schema"
)

func writeScenario(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	if err := os.WriteFile(path, []byte(strings.TrimSpace(content)+"\n"), 0o600); err != nil {
		t.Fatalf("write scenario: %v", err)
	}
	return path
}

func blue() schema.Color { return schema.ColorBlue }

func TestLoadAndRunGroupsByDomain(t *testing.T) {
	path := writeScenario(t, `
tabs:
  - {window: 1, url: "https://www.example.com/a"}
  - {window: 1, url: "https://example.com/b"}
  - {window: 1, url: "https://other.org/"}
  - {window: 2, url: "https://example.com/c"}
`)
	sc, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	report, err := Run(context.Background(), sc, blue)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(report.Created) != 1 {
		t.Fatalf("expected one created group, got %v", report.Created)
	}
	if report.RunID == "" {
		t.Fatalf("expected run id on report")
	}
	if len(report.Windows) != 2 {
		t.Fatalf("expected two windows, got %d", len(report.Windows))
	}
	w1 := report.Windows[0]
	if len(w1.Groups) != 1 || w1.Groups[0].Label != "example.com" || w1.Groups[0].Color != schema.ColorBlue {
		t.Fatalf("unexpected window 1 groups: %+v", w1.Groups)
	}
	if len(w1.Groups[0].Tabs) != 2 || len(w1.Ungrouped) != 1 {
		t.Fatalf("unexpected window 1 layout: %+v", w1)
	}
	if len(report.Windows[1].Groups) != 0 {
		t.Fatalf("expected lone window 2 tab to stay ungrouped, got %+v", report.Windows[1].Groups)
	}
}

func TestRunReusesDeclaredGroupAndDissolvesSingleton(t *testing.T) {
	sc, err := Parse([]byte(`
groups:
  - {id: mine, window: 1, label: example.com, color: red}
  - {id: lonely, window: 1, label: solo.dev, color: pink}
tabs:
  - {id: a, window: 1, url: "https://example.com/1", group: mine}
  - {id: b, window: 1, url: "https://example.com/2"}
  - {id: c, window: 1, url: "https://solo.dev/", group: lonely}
`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	report, err := Run(context.Background(), sc, blue)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(report.Reused) != 1 || report.Reused[0] != "mine" {
		t.Fatalf("expected group mine reused, got %v", report.Reused)
	}
	if len(report.Dissolved) != 1 || report.Dissolved[0] != "lonely" {
		t.Fatalf("expected group lonely dissolved, got %v", report.Dissolved)
	}
	groups := report.Windows[0].Groups
	if len(groups) != 1 || groups[0].Color != schema.ColorRed || len(groups[0].Tabs) != 2 {
		t.Fatalf("unexpected groups: %+v", groups)
	}
}

func TestParseRejectsUnknownFields(t *testing.T) {
	if _, err := Parse([]byte("tabs:\n  - {window: 1, href: x}\n")); err == nil {
		t.Fatalf("expected unknown field error")
	}
}

func TestParseRejectsInvalidScenarios(t *testing.T) {
	cases := map[string]string{
		"duplicate tab":   "tabs:\n  - {id: a, window: 1}\n  - {id: a, window: 1}\n",
		"group id":        "groups:\n  - {window: 1}\ntabs: []\n",
		"duplicate group": "groups:\n  - {id: g, window: 1}\n  - {id: g, window: 1}\ntabs:\n  - {window: 1, group: g}\n",
		"bad color":       "groups:\n  - {id: g, window: 1, color: mauve}\ntabs:\n  - {window: 1, group: g}\n",
		"empty group":     "groups:\n  - {id: g, window: 1}\ntabs: []\n",
	}
	for name, data := range cases {
		if _, err := Parse([]byte(data)); err == nil {
			t.Fatalf("%s: expected validation error", name)
		}
	}
}

func TestParseRejectsCrossWindowMembership(t *testing.T) {
	_, err := Parse([]byte(`
groups:
  - {id: g, window: 1}
tabs:
  - {window: 2, url: "https://a.com", group: g}
`))
	if !errors.Is(err, schema.ErrWindowMismatch) {
		t.Fatalf("expected ErrWindowMismatch, got %v", err)
	}
}

func TestParseEmptyDocument(t *testing.T) {
	sc, err := Parse(nil)
	if err != nil {
		t.Fatalf("parse empty: %v", err)
	}
	report, err := Run(context.Background(), sc, blue)
	if err != nil {
		t.Fatalf("run empty: %v", err)
	}
	if len(report.Windows) != 0 || len(report.Created) != 0 {
		t.Fatalf("expected empty report, got %+v", report)
	}
}
