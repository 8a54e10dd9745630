package eventbus

import (
	"context"
	"sync"

	"pkt.systems/pslog"
	"pkt.systems/tabgrouper/schema"
)

// DefaultDepth is the per-subscriber buffer used when none is configured.
const DefaultDepth = 256

// Bus fans tab lifecycle events out to subscribers.
type Bus struct {
	mu    sync.Mutex
	subs  map[chan schema.TabEvent]struct{}
	log   pslog.Logger
	depth int
}

// New constructs a Bus. A depth <= 0 selects DefaultDepth.
func New(logger pslog.Logger, depth int) *Bus {
	if logger == nil {
		logger = pslog.Ctx(context.Background())
	}
	if depth <= 0 {
		depth = DefaultDepth
	}
	return &Bus{
		subs:  make(map[chan schema.TabEvent]struct{}),
		log:   logger,
		depth: depth,
	}
}

// Subscribe registers a subscriber and returns a channel + cancel.
func (b *Bus) Subscribe() (<-chan schema.TabEvent, func()) {
	if b == nil {
		return nil, func() {}
	}
	ch := make(chan schema.TabEvent, b.depth)
	b.mu.Lock()
	b.subs[ch] = struct{}{}
	count := len(b.subs)
	b.mu.Unlock()
	if b.log != nil {
		b.log.Debug("eventbus subscribe", "subs", count)
	}
	var once sync.Once
	return ch, func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, ch)
			b.mu.Unlock()
			close(ch)
			if b.log != nil {
				b.log.Debug("eventbus unsubscribe")
			}
		})
	}
}

// Subscribers returns the current subscriber count.
func (b *Bus) Subscribers() int {
	if b == nil {
		return 0
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

// OnTabEvent publishes a tab event. Subscribers with a full buffer miss it.
func (b *Bus) OnTabEvent(event schema.TabEvent) {
	if b == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.subs) == 0 {
		return
	}
	dropped := 0
	for sub := range b.subs {
		select {
		case sub <- event:
		default:
			dropped++
		}
	}
	if dropped > 0 && b.log != nil {
		b.log.Warn("eventbus dropped", "count", dropped, "event", event.Type, "tab", event.TabID)
	}
}
