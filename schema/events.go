package schema

// TabEventType identifies a tab lifecycle event.
type TabEventType string

const (
	// TabCreated fires when a tab is opened.
	TabCreated TabEventType = "created"
	// TabUpdated fires when a tab changes URL or loading status.
	TabUpdated TabEventType = "updated"
	// TabRemoved fires when a tab is closed.
	TabRemoved TabEventType = "removed"
)

// TabChange describes what changed in a TabUpdated event.
// URL is only set when the host reports a new URL with the change.
type TabChange struct {
	Status TabStatus
	URL    string
}

// TabEvent is a tab lifecycle notification emitted by a host.
type TabEvent struct {
	Type   TabEventType
	TabID  TabID
	Tab    Tab
	Change TabChange
}
