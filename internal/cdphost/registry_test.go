package cdphost

import (
	"errors"
	"testing"

	"pkt.systems/tabgrouper/internal/groupstore"
	"pkt.systems/tabgrouper/schema"
)

func restoredStore(t *testing.T) *groupstore.Store {
	t.Helper()
	groups := groupstore.New()
	restored := groups.Restore([]schema.GroupSnapshot{
		{Group: schema.Group{ID: "g-dead", WindowID: 1, Label: "gone.example"}, Tabs: []schema.TabID{"T1", "T2"}},
		{Group: schema.Group{ID: "g-part", WindowID: 1, Label: "example.com"}, Tabs: []schema.TabID{"T3", "T4"}},
	})
	if restored != 2 {
		t.Fatalf("expected 2 restored groups, got %d", restored)
	}
	return groups
}

func TestPruneDeadDropsGroupWithNoLiveMembers(t *testing.T) {
	groups := restoredStore(t)
	live := []schema.Tab{{ID: "T3", WindowID: 1}, {ID: "T4", WindowID: 1}}
	if !pruneDead(groups, live) {
		t.Fatalf("expected prune to report removals")
	}
	if _, ok := groups.Group("g-dead"); ok {
		t.Fatalf("expected group with only dead members to disappear")
	}
	if groups.GroupOf("T1") != "" || groups.GroupOf("T2") != "" {
		t.Fatalf("expected dead tabs to be detached")
	}
	if groups.Len() != 1 {
		t.Fatalf("expected 1 group left, got %d", groups.Len())
	}
}

func TestPruneDeadKeepsLiveMembers(t *testing.T) {
	groups := restoredStore(t)
	live := []schema.Tab{{ID: "T3", WindowID: 1}, {ID: "T9", WindowID: 1}}
	if !pruneDead(groups, live) {
		t.Fatalf("expected prune to report removals")
	}
	members := groups.Members("g-part")
	if len(members) != 1 || members[0] != "T3" {
		t.Fatalf("expected g-part to keep T3 only, got %v", members)
	}
	group, ok := groups.Group("g-part")
	if !ok || group.Label != "example.com" {
		t.Fatalf("expected partially dead group to keep its label, got %+v", group)
	}
	if pruneDead(groups, live) {
		t.Fatalf("expected second prune to be a no-op")
	}
}

func TestCheckWindowTabsWindowMismatch(t *testing.T) {
	tabs := []schema.Tab{{ID: "T1", WindowID: 1}, {ID: "T2", WindowID: 2}}
	err := checkWindowTabs(tabs, []schema.TabID{"T1", "T2"}, 1)
	if !errors.Is(err, schema.ErrWindowMismatch) {
		t.Fatalf("expected window mismatch, got %v", err)
	}
	if err := checkWindowTabs(tabs, []schema.TabID{"T1"}, 1); err != nil {
		t.Fatalf("expected same-window tabs to pass, got %v", err)
	}
}

func TestCheckWindowTabsUnknownTab(t *testing.T) {
	tabs := []schema.Tab{{ID: "T1", WindowID: 1}}
	err := checkWindowTabs(tabs, []schema.TabID{"T1", "T404"}, 1)
	if !errors.Is(err, schema.ErrTabNotFound) {
		t.Fatalf("expected tab not found, got %v", err)
	}
}
