// Package listener turns tab lifecycle events into grouping runs.
package listener

import (
	"context"
	"errors"
	"time"

	"pkt.systems/pslog"
	"pkt.systems/tabgrouper/core"
	"pkt.systems/tabgrouper/internal/logx"
	"pkt.systems/tabgrouper/schema"
)

// DefaultSettleDelay is how long to wait before re-reading a tab whose load
// completed without a final URL.
const DefaultSettleDelay = 100 * time.Millisecond

// Grouper is the engine surface the listener drives.
type Grouper interface {
	GroupTabsByBaseURL(ctx context.Context) (core.GroupResult, error)
	UngroupIfNecessary(ctx context.Context) (core.UngroupResult, error)
}

// TabGetter reads a single tab for settle-delay rechecks.
type TabGetter interface {
	GetTab(ctx context.Context, tabID schema.TabID) (schema.Tab, error)
}

// Source delivers tab lifecycle events.
type Source interface {
	Subscribe() (<-chan schema.TabEvent, func())
}

// Config controls listener behavior.
type Config struct {
	SettleDelay  time.Duration
	GroupOnStart bool
}

// Deps captures listener collaborators.
type Deps struct {
	Engine Grouper
	Tabs   TabGetter
	Source Source
	Logger pslog.Logger
}

// Listener processes events one at a time so engine runs never overlap.
type Listener struct {
	cfg      Config
	engine   Grouper
	tabs     TabGetter
	source   Source
	logger   pslog.Logger
	rechecks chan schema.TabID
}

// New constructs a Listener.
func New(cfg Config, deps Deps) (*Listener, error) {
	if deps.Engine == nil {
		return nil, errors.New("listener engine is required")
	}
	if deps.Source == nil {
		return nil, errors.New("listener event source is required")
	}
	if cfg.SettleDelay < 0 {
		return nil, errors.New("listener settle delay must not be negative")
	}
	logger := deps.Logger
	if logger == nil {
		logger = pslog.Ctx(context.Background())
	}
	return &Listener{
		cfg:      cfg,
		engine:   deps.Engine,
		tabs:     deps.Tabs,
		source:   deps.Source,
		logger:   logger,
		rechecks: make(chan schema.TabID, 64),
	}, nil
}

// Run subscribes to the source and handles events until ctx is done or the
// source closes. It returns nil on a clean shutdown.
func (l *Listener) Run(ctx context.Context) error {
	events, cancel := l.source.Subscribe()
	defer cancel()
	return l.Serve(ctx, events)
}

// Serve handles events from an existing subscription. Callers that need the
// subscription in place before returning control subscribe themselves and
// hand the channel to Serve.
func (l *Listener) Serve(ctx context.Context, events <-chan schema.TabEvent) error {
	if events == nil {
		return errors.New("listener source returned no subscription")
	}
	ctx = pslog.ContextWithLogger(ctx, l.logger)
	l.logger.Info("listener started", "settle_delay", l.cfg.SettleDelay.String())
	if l.cfg.GroupOnStart {
		l.sweep(ctx)
	}
	for {
		select {
		case <-ctx.Done():
			l.logger.Info("listener stopped")
			return nil
		case event, ok := <-events:
			if !ok {
				l.logger.Info("listener source closed")
				return nil
			}
			l.Handle(ctx, event)
		case tabID := <-l.rechecks:
			l.recheck(ctx, tabID)
		}
	}
}

// Handle dispatches a single event.
func (l *Listener) Handle(ctx context.Context, event schema.TabEvent) {
	ctx = logx.ContextWithTabLogger(ctx, event.TabID)
	log := pslog.Ctx(ctx)
	switch event.Type {
	case schema.TabCreated:
		if core.IsValidTabURL(event.Tab.URL) {
			l.group(ctx)
		}
	case schema.TabUpdated:
		if event.Change.Status != schema.TabStatusComplete {
			return
		}
		if core.IsValidTabURL(event.Change.URL) {
			l.group(ctx)
			return
		}
		l.scheduleRecheck(ctx, event.TabID)
	case schema.TabRemoved:
		l.ungroup(ctx)
	default:
		log.Debug("listener ignored event", "event", event.Type)
	}
}

func (l *Listener) scheduleRecheck(ctx context.Context, tabID schema.TabID) {
	if l.tabs == nil || tabID == "" {
		return
	}
	logx.WithTab(ctx, tabID).Trace("listener recheck scheduled", "delay", l.cfg.SettleDelay.String())
	time.AfterFunc(l.cfg.SettleDelay, func() {
		select {
		case l.rechecks <- tabID:
		case <-ctx.Done():
		}
	})
}

func (l *Listener) recheck(ctx context.Context, tabID schema.TabID) {
	ctx = logx.ContextWithTabLogger(ctx, tabID)
	tab, err := l.tabs.GetTab(ctx, tabID)
	if err != nil {
		pslog.Ctx(ctx).Debug("listener recheck skipped", "err", err)
		return
	}
	if core.IsValidTabURL(tab.URL) {
		l.group(ctx)
	}
}

func (l *Listener) sweep(ctx context.Context) {
	ctx, _ = core.StartRun(ctx, nil)
	l.group(ctx)
	l.ungroup(ctx)
}

func (l *Listener) group(ctx context.Context) {
	result, err := l.engine.GroupTabsByBaseURL(ctx)
	if err != nil {
		pslog.Ctx(ctx).Warn("listener group run failed", "run", result.RunID, "err", err)
	}
}

func (l *Listener) ungroup(ctx context.Context) {
	result, err := l.engine.UngroupIfNecessary(ctx)
	if err != nil {
		pslog.Ctx(ctx).Warn("listener ungroup run failed", "run", result.RunID, "err", err)
	}
}
