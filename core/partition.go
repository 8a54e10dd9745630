package core

import (
	"context"
	"slices"

	"pkt.systems/tabgrouper/schema"
)

// Partition maps each window to the tab ids sharing a grouping key in it.
type Partition map[schema.WindowID]map[schema.GroupingKey][]schema.TabID

// BuildPartition classifies tabs and buckets them per window and key.
// Tabs without an id, URL or window, and tabs whose URL is not groupable,
// are left out. Tab order from the snapshot is preserved within a bucket.
func BuildPartition(ctx context.Context, tabs []schema.Tab) Partition {
	partition := Partition{}
	for _, tab := range tabs {
		if tab.ID == "" || tab.URL == "" || !tab.HasWindow() {
			continue
		}
		if !IsValidTabURL(tab.URL) {
			continue
		}
		key, ok := ClassifyContext(ctx, tab.URL)
		if !ok {
			continue
		}
		keys := partition[tab.WindowID]
		if keys == nil {
			keys = map[schema.GroupingKey][]schema.TabID{}
			partition[tab.WindowID] = keys
		}
		keys[key] = append(keys[key], tab.ID)
	}
	return partition
}

// Windows returns the window ids in ascending order.
func (p Partition) Windows() []schema.WindowID {
	out := make([]schema.WindowID, 0, len(p))
	for id := range p {
		out = append(out, id)
	}
	slices.Sort(out)
	return out
}

// Keys returns the grouping keys of a window in ascending order.
func (p Partition) Keys(windowID schema.WindowID) []schema.GroupingKey {
	keys := p[windowID]
	out := make([]schema.GroupingKey, 0, len(keys))
	for key := range keys {
		out = append(out, key)
	}
	slices.Sort(out)
	return out
}
