package schema

// GroupSnapshot is a transport-friendly view of a group and its members.
type GroupSnapshot struct {
	Group `yaml:",inline"`
	Tabs  []TabID `json:"tabs" yaml:"tabs"`
}

// WindowSnapshot summarizes one window's tabs and groups.
type WindowSnapshot struct {
	WindowID  WindowID        `json:"window_id" yaml:"window"`
	Groups    []GroupSnapshot `json:"groups,omitempty" yaml:"groups,omitempty"`
	Ungrouped []TabID         `json:"ungrouped,omitempty" yaml:"ungrouped,omitempty"`
}
