package core

import (
	"context"

	"pkt.systems/tabgrouper/schema"
)

// TabSurface is the tab-management capability supplied by the host browser.
//
// Implementations own all tab and group state. The engine only reads
// snapshots through the query methods and issues mutation requests; it never
// caches what it reads across invocations.
type TabSurface interface {
	// QueryTabs returns tabs matching the filter. A zero query returns every
	// open tab across all windows.
	QueryTabs(ctx context.Context, query schema.TabQuery) ([]schema.Tab, error)
	// QueryGroups returns groups matching the filter, in host order.
	QueryGroups(ctx context.Context, query schema.GroupQuery) ([]schema.Group, error)
	// CreateGroup groups the tabs (which must live in windowID) into a new group.
	CreateGroup(ctx context.Context, tabIDs []schema.TabID, windowID schema.WindowID) (schema.GroupID, error)
	// UpdateGroup applies label and/or color changes.
	UpdateGroup(ctx context.Context, groupID schema.GroupID, update schema.GroupUpdate) error
	// AddTabsToGroup moves the tabs into an existing group.
	AddTabsToGroup(ctx context.Context, tabIDs []schema.TabID, groupID schema.GroupID) error
	// UngroupTabs removes the tabs from their groups. Groups left without
	// members cease to exist.
	UngroupTabs(ctx context.Context, tabIDs []schema.TabID) error
}
