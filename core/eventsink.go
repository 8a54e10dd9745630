package core

import "pkt.systems/tabgrouper/schema"

// EventSink receives tab lifecycle events from a tab host.
type EventSink interface {
	OnTabEvent(event schema.TabEvent)
}
