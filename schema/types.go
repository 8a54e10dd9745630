package schema

// TabID identifies a browser tab. Empty means the host has not assigned one yet.
type TabID string

// GroupID identifies a tab group. Empty means ungrouped.
type GroupID string

// WindowID identifies a browser window.
type WindowID int64

// WindowIDNone marks a tab that is not (yet) attached to a window.
const WindowIDNone WindowID = -1

// GroupingKey is the normalized domain that decides which tabs belong together.
type GroupingKey string

// TabStatus reports the loading state of a tab.
type TabStatus string

const (
	// TabStatusLoading indicates the tab is still loading.
	TabStatusLoading TabStatus = "loading"
	// TabStatusComplete indicates the tab finished loading.
	TabStatusComplete TabStatus = "complete"
)

// Tab is a host-owned view of a single browser tab.
type Tab struct {
	ID       TabID     `json:"id,omitempty" yaml:"id,omitempty"`
	URL      string    `json:"url,omitempty" yaml:"url,omitempty"`
	WindowID WindowID  `json:"window_id" yaml:"window"`
	GroupID  GroupID   `json:"group_id,omitempty" yaml:"group,omitempty"`
	Status   TabStatus `json:"status,omitempty" yaml:"status,omitempty"`
}

// HasWindow reports whether the tab is attached to a window.
func (t Tab) HasWindow() bool {
	return t.WindowID != WindowIDNone
}

// Grouped reports whether the tab is a member of a group.
func (t Tab) Grouped() bool {
	return t.GroupID != ""
}

// Group is a host-owned tab group scoped to a single window.
// Membership is derived by querying tabs with a matching GroupID.
type Group struct {
	ID       GroupID  `json:"id" yaml:"id"`
	WindowID WindowID `json:"window_id" yaml:"window"`
	Label    string   `json:"label" yaml:"label"`
	Color    Color    `json:"color" yaml:"color"`
}

// TabIDs returns the identifiers of tabs that have one.
func TabIDs(tabs []Tab) []TabID {
	out := make([]TabID, 0, len(tabs))
	for _, tab := range tabs {
		if tab.ID == "" {
			continue
		}
		out = append(out, tab.ID)
	}
	return out
}
