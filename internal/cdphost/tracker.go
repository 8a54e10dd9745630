package cdphost

import (
	"github.com/chromedp/cdproto/target"

	"pkt.systems/tabgrouper/schema"
)

const (
	pageTargetType = "page"
	blankURL       = "about:blank"
)

// tracker turns CDP target events into tab events. It remembers the last
// URL per page target so title-only changes are not reported.
type tracker struct {
	urls map[target.ID]string
}

func newTracker() *tracker {
	return &tracker{urls: make(map[target.ID]string)}
}

// apply translates a raw CDP event. ok is false for events that do not map
// to a tab lifecycle change.
func (t *tracker) apply(ev any) (schema.TabEvent, bool) {
	switch e := ev.(type) {
	case *target.EventTargetCreated:
		info := e.TargetInfo
		if info == nil || info.Type != pageTargetType {
			return schema.TabEvent{}, false
		}
		t.urls[info.TargetID] = info.URL
		tab := tabFromInfo(info, schema.WindowIDNone)
		return schema.TabEvent{Type: schema.TabCreated, TabID: tab.ID, Tab: tab}, true
	case *target.EventTargetInfoChanged:
		info := e.TargetInfo
		if info == nil || info.Type != pageTargetType {
			return schema.TabEvent{}, false
		}
		prev, known := t.urls[info.TargetID]
		if known && prev == info.URL {
			return schema.TabEvent{}, false
		}
		t.urls[info.TargetID] = info.URL
		tab := tabFromInfo(info, schema.WindowIDNone)
		change := schema.TabChange{Status: tab.Status}
		if tab.Status == schema.TabStatusComplete {
			change.URL = tab.URL
		}
		return schema.TabEvent{Type: schema.TabUpdated, TabID: tab.ID, Tab: tab, Change: change}, true
	case *target.EventTargetDestroyed:
		if _, known := t.urls[e.TargetID]; !known {
			return schema.TabEvent{}, false
		}
		delete(t.urls, e.TargetID)
		id := schema.TabID(e.TargetID)
		return schema.TabEvent{Type: schema.TabRemoved, TabID: id, Tab: schema.Tab{ID: id, WindowID: schema.WindowIDNone}}, true
	}
	return schema.TabEvent{}, false
}

func tabFromInfo(info *target.Info, windowID schema.WindowID) schema.Tab {
	status := schema.TabStatusComplete
	url := info.URL
	if url == "" || url == blankURL {
		status = schema.TabStatusLoading
	}
	return schema.Tab{
		ID:       schema.TabID(info.TargetID),
		URL:      url,
		WindowID: windowID,
		Status:   status,
	}
}
