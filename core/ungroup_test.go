package core

import (
	"context"
	"errors"
	"testing"

	"pkt.systems/tabgrouper/internal/memhost"
	"pkt.systems/tabgrouper/schema"
)

func TestUngroupDissolvesGroupAfterExternalUngroup(t *testing.T) {
	host := newSequentialHost()
	seedTabs(host,
		schema.Tab{ID: "1", URL: "https://example.com/a", WindowID: 1},
		schema.Tab{ID: "2", URL: "https://example.com/b", WindowID: 1},
	)
	engine := newTestEngine(t, host)
	ctx := context.Background()
	if _, err := engine.GroupTabsByBaseURL(ctx); err != nil {
		t.Fatalf("group: %v", err)
	}
	if err := host.UngroupTabs(ctx, []schema.TabID{"1"}); err != nil {
		t.Fatalf("external ungroup: %v", err)
	}
	result, err := engine.UngroupIfNecessary(ctx)
	if err != nil {
		t.Fatalf("ungroup: %v", err)
	}
	if len(result.Dissolved) != 1 {
		t.Fatalf("expected one dissolved group, got %+v", result)
	}
	tab, err := host.GetTab(ctx, "2")
	if err != nil {
		t.Fatalf("get tab: %v", err)
	}
	if tab.Grouped() {
		t.Fatalf("expected remaining tab ungrouped, got %+v", tab)
	}
	if groups := groupsIn(t, host, schema.GroupQuery{}); len(groups) != 0 {
		t.Fatalf("expected no groups, got %+v", groups)
	}
}

func TestUngroupKeepsHealthyGroups(t *testing.T) {
	host := newSequentialHost()
	seedTabs(host,
		schema.Tab{ID: "1", URL: "https://a.test/1", WindowID: 1},
		schema.Tab{ID: "2", URL: "https://a.test/2", WindowID: 1},
		schema.Tab{ID: "3", URL: "https://b.test/1", WindowID: 2},
		schema.Tab{ID: "4", URL: "https://b.test/2", WindowID: 2},
	)
	engine := newTestEngine(t, host)
	ctx := context.Background()
	if _, err := engine.GroupTabsByBaseURL(ctx); err != nil {
		t.Fatalf("group: %v", err)
	}
	if err := host.CloseTab("3"); err != nil {
		t.Fatalf("close: %v", err)
	}
	result, err := engine.UngroupIfNecessary(ctx)
	if err != nil {
		t.Fatalf("ungroup: %v", err)
	}
	if result.Inspected != 2 || len(result.Dissolved) != 1 {
		t.Fatalf("unexpected result: %+v", result)
	}
	groups := groupsIn(t, host, schema.GroupQuery{})
	if len(groups) != 1 || groups[0].Label != "a.test" {
		t.Fatalf("expected only a.test to survive, got %+v", groups)
	}
	for _, group := range groups {
		if got := membersOf(t, host, group.ID); len(got) < MinGroupSize {
			t.Fatalf("group %s below minimum: %v", group.ID, got)
		}
	}
}

func TestUngroupIsolatesGroupFailures(t *testing.T) {
	host := newSequentialHost()
	seedTabs(host,
		schema.Tab{ID: "1", URL: "https://a.test/1", WindowID: 1},
		schema.Tab{ID: "2", URL: "https://b.test/1", WindowID: 1},
	)
	if err := host.SeedGroup(schema.Group{ID: "ga", WindowID: 1, Label: "a.test"}, []schema.TabID{"1"}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if err := host.SeedGroup(schema.Group{ID: "gb", WindowID: 1, Label: "b.test"}, []schema.TabID{"2"}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	surface := &flakyUngroup{Host: host, failFor: "1", err: errors.New("tab busy")}
	engine, err := NewEngine(EngineDeps{Surface: surface})
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	result, err := engine.UngroupIfNecessary(context.Background())
	var gerr *GroupError
	if !errors.As(err, &gerr) || gerr.GroupID != "ga" {
		t.Fatalf("expected group error for ga, got %v", err)
	}
	if result.Failed != 1 || len(result.Dissolved) != 1 || result.Dissolved[0] != "gb" {
		t.Fatalf("expected gb dissolved despite ga failure, got %+v", result)
	}
}

func TestUngroupQueryFailureAborts(t *testing.T) {
	host := newSequentialHost()
	boom := errors.New("boom")
	host.FailOn(memhost.OpQueryGroups, boom)
	engine := newTestEngine(t, host)
	if _, err := engine.UngroupIfNecessary(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("expected query failure, got %v", err)
	}
}

func TestGroupThenUngroupLeavesNoSmallGroups(t *testing.T) {
	host := newSequentialHost()
	urls := []string{
		"https://a.test/1", "https://a.test/2", "https://www.a.test/3",
		"https://b.test/1", "https://c.test/1", "https://c.test/2",
	}
	for i, u := range urls {
		host.Seed(schema.Tab{URL: u, WindowID: schema.WindowID(i%2 + 1)})
	}
	engine := newTestEngine(t, host)
	ctx := context.Background()
	if _, err := engine.GroupTabsByBaseURL(ctx); err != nil {
		t.Fatalf("group: %v", err)
	}
	tabs, _ := host.QueryTabs(ctx, schema.TabQuery{})
	for _, tab := range tabs[:2] {
		if err := host.CloseTab(tab.ID); err != nil {
			t.Fatalf("close: %v", err)
		}
	}
	if _, err := engine.UngroupIfNecessary(ctx); err != nil {
		t.Fatalf("ungroup: %v", err)
	}
	for _, group := range groupsIn(t, host, schema.GroupQuery{}) {
		if got := membersOf(t, host, group.ID); len(got) < MinGroupSize {
			t.Fatalf("group %s below minimum: %v", group.Label, got)
		}
	}
}

// flakyUngroup fails ungroup requests that include one tab.
type flakyUngroup struct {
	*memhost.Host
	failFor schema.TabID
	err     error
}

func (f *flakyUngroup) UngroupTabs(ctx context.Context, tabIDs []schema.TabID) error {
	for _, id := range tabIDs {
		if id == f.failFor {
			return f.err
		}
	}
	return f.Host.UngroupTabs(ctx, tabIDs)
}
