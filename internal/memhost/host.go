// Package memhost is an in-memory tab host with browser-like group semantics.
package memhost

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"pkt.systems/tabgrouper/internal/groupstore"
	"pkt.systems/tabgrouper/schema"
)

// EventSink receives tab lifecycle events produced by host mutations.
type EventSink interface {
	OnTabEvent(event schema.TabEvent)
}

// Op names a host operation for fault injection.
type Op string

const (
	OpQueryTabs   Op = "query_tabs"
	OpQueryGroups Op = "query_groups"
	OpCreateGroup Op = "create_group"
	OpUpdateGroup Op = "update_group"
	OpAddTabs     Op = "add_tabs"
	OpUngroup     Op = "ungroup"
	OpGetTab      Op = "get_tab"
)

// Host keeps tabs and groups in memory.
type Host struct {
	mu      sync.Mutex
	order   []schema.TabID
	tabs    map[schema.TabID]*schema.Tab
	groups  *groupstore.Store
	sink    EventSink
	nextTab int
	faults  map[Op]error
	calls   map[Op]int
}

// Option configures a Host.
type Option func(*hostOptions)

type hostOptions struct {
	sink      EventSink
	storeOpts []groupstore.Option
}

// WithSink publishes tab events to sink.
func WithSink(sink EventSink) Option {
	return func(o *hostOptions) { o.sink = sink }
}

// WithGroupIDs overrides group id allocation.
func WithGroupIDs(fn func() schema.GroupID) Option {
	return func(o *hostOptions) { o.storeOpts = append(o.storeOpts, groupstore.WithIDSource(fn)) }
}

// New constructs an empty host.
func New(opts ...Option) *Host {
	options := hostOptions{}
	for _, opt := range opts {
		opt(&options)
	}
	return &Host{
		tabs:   make(map[schema.TabID]*schema.Tab),
		groups: groupstore.New(options.storeOpts...),
		sink:   options.sink,
		faults: make(map[Op]error),
		calls:  make(map[Op]int),
	}
}

// FailOn makes every subsequent call of op return err. A nil err clears it.
func (h *Host) FailOn(op Op, err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if err == nil {
		delete(h.faults, op)
		return
	}
	h.faults[op] = err
}

// Calls returns how often op was invoked.
func (h *Host) Calls(op Op) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.calls[op]
}

// Seed inserts a tab without emitting events. Missing ids are assigned.
// A non-empty GroupID joins that group, creating an unlabeled one in the
// tab's window when it does not exist yet.
func (h *Host) Seed(tab schema.Tab) schema.Tab {
	h.mu.Lock()
	defer h.mu.Unlock()
	if tab.ID == "" {
		tab.ID = h.allocTabID()
	}
	if tab.Status == "" {
		tab.Status = schema.TabStatusComplete
	}
	groupID := tab.GroupID
	tab.GroupID = ""
	stored := tab
	h.tabs[tab.ID] = &stored
	h.order = append(h.order, tab.ID)
	if groupID != "" {
		h.seedMembership(groupID, stored)
	}
	return h.view(stored)
}

func (h *Host) seedMembership(groupID schema.GroupID, tab schema.Tab) {
	if group, ok := h.groups.Group(groupID); ok {
		if group.WindowID == tab.WindowID {
			_ = h.groups.Add(groupID, []schema.TabID{tab.ID})
		}
		return
	}
	_ = h.groups.Insert(schema.Group{ID: groupID, WindowID: tab.WindowID, Color: schema.ColorGrey}, []schema.TabID{tab.ID})
}

// SeedGroup inserts a group with caller-chosen properties around tabs that
// were already seeded, without emitting events.
func (h *Host) SeedGroup(group schema.Group, tabIDs []schema.TabID) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if err := h.checkWindow(tabIDs, group.WindowID); err != nil {
		return err
	}
	if _, ok := h.groups.Group(group.ID); ok {
		if err := h.groups.Update(group.ID, schema.GroupUpdate{Label: &group.Label, Color: &group.Color}); err != nil {
			return err
		}
		return h.groups.Add(group.ID, tabIDs)
	}
	return h.groups.Insert(group, tabIDs)
}

// OpenTab creates a tab in windowID and emits TabCreated. When url is set
// the tab finishes loading immediately and TabUpdated follows.
func (h *Host) OpenTab(windowID schema.WindowID, url string) schema.Tab {
	h.mu.Lock()
	tab := schema.Tab{ID: h.allocTabID(), URL: url, WindowID: windowID, Status: schema.TabStatusLoading}
	stored := tab
	h.tabs[tab.ID] = &stored
	h.order = append(h.order, tab.ID)
	h.mu.Unlock()

	h.emit(schema.TabEvent{Type: schema.TabCreated, TabID: tab.ID, Tab: tab})
	if url != "" {
		_ = h.Navigate(tab.ID, url)
		return h.mustView(tab.ID)
	}
	return tab
}

// Navigate sets the tab URL, marks it complete and emits TabUpdated with the URL.
func (h *Host) Navigate(tabID schema.TabID, url string) error {
	tab, err := h.setURL(tabID, url)
	if err != nil {
		return err
	}
	h.emit(schema.TabEvent{
		Type:   schema.TabUpdated,
		TabID:  tabID,
		Tab:    tab,
		Change: schema.TabChange{Status: schema.TabStatusComplete, URL: url},
	})
	return nil
}

// SetURL changes the tab URL without emitting an event.
func (h *Host) SetURL(tabID schema.TabID, url string) error {
	_, err := h.setURL(tabID, url)
	return err
}

// FinishLoad emits a completed TabUpdated event that does not carry the URL.
func (h *Host) FinishLoad(tabID schema.TabID) error {
	h.mu.Lock()
	t, ok := h.tabs[tabID]
	if !ok {
		h.mu.Unlock()
		return schema.ErrTabNotFound
	}
	t.Status = schema.TabStatusComplete
	tab := h.view(*t)
	h.mu.Unlock()
	h.emit(schema.TabEvent{
		Type:   schema.TabUpdated,
		TabID:  tabID,
		Tab:    tab,
		Change: schema.TabChange{Status: schema.TabStatusComplete},
	})
	return nil
}

// CloseTab removes the tab, drops its group membership and emits TabRemoved.
func (h *Host) CloseTab(tabID schema.TabID) error {
	h.mu.Lock()
	t, ok := h.tabs[tabID]
	if !ok {
		h.mu.Unlock()
		return schema.ErrTabNotFound
	}
	tab := h.view(*t)
	h.groups.Remove([]schema.TabID{tabID})
	delete(h.tabs, tabID)
	for i, id := range h.order {
		if id == tabID {
			h.order = append(h.order[:i], h.order[i+1:]...)
			break
		}
	}
	h.mu.Unlock()
	h.emit(schema.TabEvent{Type: schema.TabRemoved, TabID: tabID, Tab: tab})
	return nil
}

// GetTab returns a single tab.
func (h *Host) GetTab(ctx context.Context, tabID schema.TabID) (schema.Tab, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if err := h.fault(OpGetTab); err != nil {
		return schema.Tab{}, err
	}
	t, ok := h.tabs[tabID]
	if !ok {
		return schema.Tab{}, fmt.Errorf("tab %s: %w", tabID, schema.ErrTabNotFound)
	}
	return h.view(*t), nil
}

// QueryTabs implements core.TabSurface.
func (h *Host) QueryTabs(ctx context.Context, query schema.TabQuery) ([]schema.Tab, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if err := h.fault(OpQueryTabs); err != nil {
		return nil, err
	}
	out := make([]schema.Tab, 0, len(h.order))
	for _, id := range h.order {
		tab := h.view(*h.tabs[id])
		if query.Matches(tab) {
			out = append(out, tab)
		}
	}
	return out, nil
}

// QueryGroups implements core.TabSurface. Groups come back in creation order.
func (h *Host) QueryGroups(ctx context.Context, query schema.GroupQuery) ([]schema.Group, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if err := h.fault(OpQueryGroups); err != nil {
		return nil, err
	}
	return h.groups.Groups(query), nil
}

// CreateGroup implements core.TabSurface.
func (h *Host) CreateGroup(ctx context.Context, tabIDs []schema.TabID, windowID schema.WindowID) (schema.GroupID, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if err := h.fault(OpCreateGroup); err != nil {
		return "", err
	}
	if err := h.checkWindow(tabIDs, windowID); err != nil {
		return "", err
	}
	return h.groups.Create(windowID, tabIDs)
}

// UpdateGroup implements core.TabSurface.
func (h *Host) UpdateGroup(ctx context.Context, groupID schema.GroupID, update schema.GroupUpdate) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if err := h.fault(OpUpdateGroup); err != nil {
		return err
	}
	return h.groups.Update(groupID, update)
}

// AddTabsToGroup implements core.TabSurface.
func (h *Host) AddTabsToGroup(ctx context.Context, tabIDs []schema.TabID, groupID schema.GroupID) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if err := h.fault(OpAddTabs); err != nil {
		return err
	}
	group, ok := h.groups.Group(groupID)
	if !ok {
		return fmt.Errorf("group %s: %w", groupID, schema.ErrGroupNotFound)
	}
	if err := h.checkWindow(tabIDs, group.WindowID); err != nil {
		return err
	}
	return h.groups.Add(groupID, tabIDs)
}

// UngroupTabs implements core.TabSurface. Unknown tabs are ignored.
func (h *Host) UngroupTabs(ctx context.Context, tabIDs []schema.TabID) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if err := h.fault(OpUngroup); err != nil {
		return err
	}
	h.groups.Remove(tabIDs)
	return nil
}

// Snapshot returns every window with its groups and ungrouped tabs.
func (h *Host) Snapshot() []schema.WindowSnapshot {
	h.mu.Lock()
	defer h.mu.Unlock()
	var out []schema.WindowSnapshot
	index := map[schema.WindowID]int{}
	window := func(id schema.WindowID) *schema.WindowSnapshot {
		if i, ok := index[id]; ok {
			return &out[i]
		}
		index[id] = len(out)
		out = append(out, schema.WindowSnapshot{WindowID: id})
		return &out[len(out)-1]
	}
	for _, id := range h.order {
		w := window(h.tabs[id].WindowID)
		if h.groups.GroupOf(id) == "" {
			w.Ungrouped = append(w.Ungrouped, id)
		}
	}
	for _, group := range h.groups.Groups(schema.GroupQuery{}) {
		w := window(group.WindowID)
		w.Groups = append(w.Groups, schema.GroupSnapshot{Group: group, Tabs: h.groups.Members(group.ID)})
	}
	return out
}

func (h *Host) setURL(tabID schema.TabID, url string) (schema.Tab, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	t, ok := h.tabs[tabID]
	if !ok {
		return schema.Tab{}, schema.ErrTabNotFound
	}
	t.URL = url
	t.Status = schema.TabStatusComplete
	return h.view(*t), nil
}

func (h *Host) checkWindow(tabIDs []schema.TabID, windowID schema.WindowID) error {
	for _, id := range tabIDs {
		t, ok := h.tabs[id]
		if !ok {
			return fmt.Errorf("tab %s: %w", id, schema.ErrTabNotFound)
		}
		if t.WindowID != windowID {
			return fmt.Errorf("tab %s in window %d, want %d: %w", id, t.WindowID, windowID, schema.ErrWindowMismatch)
		}
	}
	return nil
}

func (h *Host) fault(op Op) error {
	h.calls[op]++
	return h.faults[op]
}

func (h *Host) allocTabID() schema.TabID {
	for {
		h.nextTab++
		id := schema.TabID(strconv.Itoa(h.nextTab))
		if _, exists := h.tabs[id]; !exists {
			return id
		}
	}
}

func (h *Host) view(tab schema.Tab) schema.Tab {
	tab.GroupID = h.groups.GroupOf(tab.ID)
	return tab
}

func (h *Host) mustView(tabID schema.TabID) schema.Tab {
	h.mu.Lock()
	defer h.mu.Unlock()
	if t, ok := h.tabs[tabID]; ok {
		return h.view(*t)
	}
	return schema.Tab{ID: tabID}
}

func (h *Host) emit(event schema.TabEvent) {
	if h.sink == nil {
		return
	}
	h.sink.OnTabEvent(event)
}
