// Package cdphost drives a Chrome browser over the DevTools protocol.
//
// CDP exposes tabs (page targets) and windows but has no tab-group domain,
// so groups live in the host's in-process registry.
package cdphost

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"github.com/chromedp/cdproto/browser"
	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/target"
	"github.com/chromedp/chromedp"

	"pkt.systems/pslog"
	"pkt.systems/tabgrouper/internal/groupstore"
	"pkt.systems/tabgrouper/internal/persist"
	"pkt.systems/tabgrouper/schema"
)

const (
	ModeExec   = "exec"
	ModeRemote = "remote"
)

// Config selects how the browser is reached.
type Config struct {
	Mode      string
	RemoteURL string
	ExecPath  string
	Headless  bool
	Flags     map[string]string
	// EventDepth bounds raw CDP events waiting for translation.
	EventDepth int
	// State, when set, keeps the group registry across reconnects under
	// StateKey.
	State    StateStore
	StateKey string
}

// StateStore persists group registry snapshots.
type StateStore interface {
	Load(key string) (persist.RegistrySnapshot, bool, error)
	Save(key string, snapshot persist.RegistrySnapshot) error
}

// StateKey names the registry snapshot for a browser: one per remote
// endpoint host, one shared by launched browsers.
func StateKey(cfg Config) string {
	if cfg.Mode == ModeRemote {
		if parsed, err := url.Parse(cfg.RemoteURL); err == nil && parsed.Host != "" {
			return "remote-" + parsed.Host
		}
		return "remote"
	}
	return "exec"
}

// EventSink receives translated tab lifecycle events.
type EventSink interface {
	OnTabEvent(event schema.TabEvent)
}

// Host implements core.TabSurface on top of a chromedp browser context.
type Host struct {
	ctx     context.Context
	cancel  context.CancelFunc
	logger  pslog.Logger
	sink    EventSink
	mu      sync.Mutex
	groups  *groupstore.Store
	state   StateStore
	key     string
	tracker *tracker
	raw     chan any
	done    chan struct{}
}

// Connect starts or attaches to a browser and begins target discovery.
// Tab events are published to sink when it is non-nil.
func Connect(ctx context.Context, cfg Config, sink EventSink, logger pslog.Logger) (*Host, error) {
	if logger == nil {
		logger = pslog.Ctx(ctx)
	}
	allocCtx, cancelAlloc, err := newAllocator(ctx, cfg)
	if err != nil {
		return nil, err
	}
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	cancel := func() {
		cancelBrowser()
		cancelAlloc()
	}
	depth := cfg.EventDepth
	if depth <= 0 {
		depth = 256
	}
	h := &Host{
		ctx:     browserCtx,
		cancel:  cancel,
		logger:  logger,
		sink:    sink,
		groups:  groupstore.New(),
		state:   cfg.State,
		key:     cfg.StateKey,
		tracker: newTracker(),
		raw:     make(chan any, depth),
		done:    make(chan struct{}),
	}
	if h.key == "" {
		h.key = StateKey(cfg)
	}
	h.restore()
	chromedp.ListenBrowser(browserCtx, h.onBrowserEvent)
	if err := h.runBrowser(func(ctx context.Context) error {
		return target.SetDiscoverTargets(true).Do(ctx)
	}); err != nil {
		cancel()
		return nil, fmt.Errorf("cdp discover targets: %w", err)
	}
	go h.translate()
	logger.Info("cdp host connected", "mode", cfg.Mode)
	return h, nil
}

func newAllocator(ctx context.Context, cfg Config) (context.Context, context.CancelFunc, error) {
	switch cfg.Mode {
	case ModeRemote:
		if strings.TrimSpace(cfg.RemoteURL) == "" {
			return nil, nil, errors.New("cdp remote url is required")
		}
		allocCtx, cancel := chromedp.NewRemoteAllocator(ctx, cfg.RemoteURL)
		return allocCtx, cancel, nil
	case ModeExec, "":
		allocCtx, cancel := chromedp.NewExecAllocator(ctx, execOptions(cfg)...)
		return allocCtx, cancel, nil
	default:
		return nil, nil, fmt.Errorf("unsupported cdp mode %q", cfg.Mode)
	}
}

func execOptions(cfg Config) []chromedp.ExecAllocatorOption {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", cfg.Headless),
	)
	if cfg.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(cfg.ExecPath))
	}
	for name, value := range cfg.Flags {
		opts = append(opts, chromedp.Flag(name, flagValue(value)))
	}
	return opts
}

func flagValue(value string) any {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "true":
		return true
	case "false":
		return false
	default:
		return value
	}
}

func (h *Host) restore() {
	if h.state == nil {
		return
	}
	snapshot, ok, err := h.state.Load(h.key)
	if err != nil {
		h.logger.Warn("cdp host state restore failed", "key", h.key, "err", err)
		return
	}
	if !ok {
		return
	}
	h.mu.Lock()
	restored := h.groups.Restore(snapshot.Groups)
	h.mu.Unlock()
	h.logger.Info("cdp host state restored", "key", h.key, "groups", restored)
}

// saveLocked writes the registry snapshot. Callers hold h.mu.
func (h *Host) saveLocked() {
	if h.state == nil {
		return
	}
	if err := h.state.Save(h.key, persist.RegistrySnapshot{Groups: h.groups.Export()}); err != nil {
		h.logger.Warn("cdp host state save failed", "key", h.key, "err", err)
	}
}

// Close stops event translation and releases the browser.
func (h *Host) Close() error {
	h.cancel()
	<-h.done
	return nil
}

// Done is closed once event translation has stopped.
func (h *Host) Done() <-chan struct{} {
	return h.done
}

func (h *Host) onBrowserEvent(ev any) {
	switch ev.(type) {
	case *target.EventTargetCreated, *target.EventTargetInfoChanged, *target.EventTargetDestroyed:
	default:
		return
	}
	select {
	case h.raw <- ev:
	default:
		h.logger.Warn("cdp host dropped target event")
	}
}

func (h *Host) translate() {
	defer close(h.done)
	for {
		select {
		case <-h.ctx.Done():
			return
		case ev := <-h.raw:
			event, ok := h.tracker.apply(ev)
			if !ok {
				continue
			}
			switch event.Type {
			case schema.TabRemoved:
				h.mu.Lock()
				if h.groups.GroupOf(event.TabID) != "" {
					h.groups.Remove([]schema.TabID{event.TabID})
					h.saveLocked()
				}
				h.mu.Unlock()
			default:
				event.Tab.WindowID = h.windowOf(target.ID(event.TabID))
			}
			if h.sink != nil {
				h.sink.OnTabEvent(event)
			}
		}
	}
}

// runBrowser executes fn against the browser session rather than the page
// session chromedp attaches to, so target discovery events arrive as
// browser events.
func (h *Host) runBrowser(fn func(ctx context.Context) error) error {
	return chromedp.Run(h.ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		c := chromedp.FromContext(ctx)
		if c == nil || c.Browser == nil {
			return errors.New("cdp browser not available")
		}
		return fn(cdp.WithExecutor(ctx, c.Browser))
	}))
}

func (h *Host) windowOf(id target.ID) schema.WindowID {
	var windowID browser.WindowID
	err := h.runBrowser(func(ctx context.Context) error {
		var err error
		windowID, _, err = browser.GetWindowForTarget().WithTargetID(id).Do(ctx)
		return err
	})
	if err != nil {
		h.logger.Debug("cdp host window lookup failed", "tab", string(id), "err", err)
		return schema.WindowIDNone
	}
	return schema.WindowID(windowID)
}

func (h *Host) pages(ctx context.Context) ([]schema.Tab, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	infos, err := chromedp.Targets(h.ctx)
	if err != nil {
		return nil, fmt.Errorf("cdp list targets: %w", err)
	}
	tabs := make([]schema.Tab, 0, len(infos))
	for _, info := range infos {
		if info.Type != pageTargetType {
			continue
		}
		tabs = append(tabs, tabFromInfo(info, h.windowOf(info.TargetID)))
	}
	return tabs, nil
}

// QueryTabs implements core.TabSurface.
func (h *Host) QueryTabs(ctx context.Context, query schema.TabQuery) ([]schema.Tab, error) {
	tabs, err := h.pages(ctx)
	if err != nil {
		return nil, err
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]schema.Tab, 0, len(tabs))
	for _, tab := range tabs {
		tab.GroupID = h.groups.GroupOf(tab.ID)
		if query.Matches(tab) {
			out = append(out, tab)
		}
	}
	return out, nil
}

// QueryGroups implements core.TabSurface. Members whose targets are gone
// are pruned first, so groups emptied by missed events disappear.
func (h *Host) QueryGroups(ctx context.Context, query schema.GroupQuery) ([]schema.Group, error) {
	tabs, err := h.pages(ctx)
	if err != nil {
		return nil, err
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if pruneDead(h.groups, tabs) {
		h.saveLocked()
	}
	return h.groups.Groups(query), nil
}

// CreateGroup implements core.TabSurface.
func (h *Host) CreateGroup(ctx context.Context, tabIDs []schema.TabID, windowID schema.WindowID) (schema.GroupID, error) {
	if err := h.checkWindow(ctx, tabIDs, windowID); err != nil {
		return "", err
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	id, err := h.groups.Create(windowID, tabIDs)
	if err != nil {
		return "", err
	}
	h.saveLocked()
	return id, nil
}

// UpdateGroup implements core.TabSurface.
func (h *Host) UpdateGroup(ctx context.Context, groupID schema.GroupID, update schema.GroupUpdate) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if err := h.groups.Update(groupID, update); err != nil {
		return err
	}
	h.saveLocked()
	return nil
}

// AddTabsToGroup implements core.TabSurface.
func (h *Host) AddTabsToGroup(ctx context.Context, tabIDs []schema.TabID, groupID schema.GroupID) error {
	h.mu.Lock()
	group, ok := h.groups.Group(groupID)
	h.mu.Unlock()
	if !ok {
		return fmt.Errorf("group %s: %w", groupID, schema.ErrGroupNotFound)
	}
	if err := h.checkWindow(ctx, tabIDs, group.WindowID); err != nil {
		return err
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if err := h.groups.Add(groupID, tabIDs); err != nil {
		return err
	}
	h.saveLocked()
	return nil
}

// UngroupTabs implements core.TabSurface.
func (h *Host) UngroupTabs(ctx context.Context, tabIDs []schema.TabID) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.groups.Remove(tabIDs)
	h.saveLocked()
	return nil
}

// GetTab returns a single page target as a tab.
func (h *Host) GetTab(ctx context.Context, tabID schema.TabID) (schema.Tab, error) {
	tabs, err := h.QueryTabs(ctx, schema.TabQuery{})
	if err != nil {
		return schema.Tab{}, err
	}
	for _, tab := range tabs {
		if tab.ID == tabID {
			return tab, nil
		}
	}
	return schema.Tab{}, fmt.Errorf("tab %s: %w", tabID, schema.ErrTabNotFound)
}

// OpenTab opens a new page target at url.
func (h *Host) OpenTab(ctx context.Context, rawURL string) (schema.TabID, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	var id target.ID
	err := h.runBrowser(func(ctx context.Context) error {
		var err error
		id, err = target.CreateTarget(rawURL).Do(ctx)
		return err
	})
	if err != nil {
		return "", fmt.Errorf("cdp open tab: %w", err)
	}
	return schema.TabID(id), nil
}

// Snapshot lists groups with their members.
func (h *Host) Snapshot() []schema.GroupSnapshot {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.groups.Export()
}

func (h *Host) checkWindow(ctx context.Context, tabIDs []schema.TabID, windowID schema.WindowID) error {
	tabs, err := h.pages(ctx)
	if err != nil {
		return err
	}
	return checkWindowTabs(tabs, tabIDs, windowID)
}
