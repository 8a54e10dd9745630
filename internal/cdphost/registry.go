package cdphost

import (
	"fmt"

	"pkt.systems/tabgrouper/internal/groupstore"
	"pkt.systems/tabgrouper/schema"
)

// pruneDead drops registry members missing from the live page list and
// reports whether anything was removed. Groups left empty disappear.
func pruneDead(groups *groupstore.Store, live []schema.Tab) bool {
	alive := make(map[schema.TabID]struct{}, len(live))
	for _, tab := range live {
		alive[tab.ID] = struct{}{}
	}
	pruned := false
	for _, group := range groups.Groups(schema.GroupQuery{}) {
		var gone []schema.TabID
		for _, id := range groups.Members(group.ID) {
			if _, ok := alive[id]; !ok {
				gone = append(gone, id)
			}
		}
		if len(gone) > 0 {
			groups.Remove(gone)
			pruned = true
		}
	}
	return pruned
}

// checkWindowTabs requires every id to be a live tab in windowID.
func checkWindowTabs(tabs []schema.Tab, tabIDs []schema.TabID, windowID schema.WindowID) error {
	windows := make(map[schema.TabID]schema.WindowID, len(tabs))
	for _, tab := range tabs {
		windows[tab.ID] = tab.WindowID
	}
	for _, id := range tabIDs {
		w, ok := windows[id]
		if !ok {
			return fmt.Errorf("tab %s: %w", id, schema.ErrTabNotFound)
		}
		if w != windowID {
			return fmt.Errorf("tab %s in window %d, want %d: %w", id, w, windowID, schema.ErrWindowMismatch)
		}
	}
	return nil
}
