package schema

// TabQuery filters tabs. Zero-valued fields do not filter.
type TabQuery struct {
	WindowID *WindowID
	GroupID  GroupID
}

// GroupQuery filters groups. Nil fields do not filter.
type GroupQuery struct {
	WindowID *WindowID
	Label    *string
}

// GroupUpdate carries optional group property changes.
type GroupUpdate struct {
	Label *string
	Color *Color
}

// InWindow returns a pointer suitable for query filters.
func InWindow(id WindowID) *WindowID {
	return &id
}

// WithLabel returns a pointer suitable for query filters and updates.
func WithLabel(label string) *string {
	return &label
}

// Matches reports whether the tab satisfies the query.
func (q TabQuery) Matches(tab Tab) bool {
	if q.WindowID != nil && tab.WindowID != *q.WindowID {
		return false
	}
	if q.GroupID != "" && tab.GroupID != q.GroupID {
		return false
	}
	return true
}

// Matches reports whether the group satisfies the query.
func (q GroupQuery) Matches(group Group) bool {
	if q.WindowID != nil && group.WindowID != *q.WindowID {
		return false
	}
	if q.Label != nil && group.Label != *q.Label {
		return false
	}
	return true
}
