package tabgrouper

import (
	"context"
	"errors"
	"sync"

	"pkt.systems/pslog"
	"pkt.systems/tabgrouper/core"
	"pkt.systems/tabgrouper/internal/listener"
)

// ErrBrowserGone is returned by Wait when the host reports that the browser
// went away.
var ErrBrowserGone = errors.New("browser disconnected")

// Host is a tab surface that can also read single tabs.
type Host interface {
	core.TabSurface
	listener.TabGetter
}

// Server runs the grouping listener over a host.
type Server interface {
	Start(ctx context.Context) error
	Wait() error
	Stop(ctx context.Context) error
}

// ServerConfig configures the grouper.
type ServerConfig struct {
	Listener listener.Config
}

// ServerDeps captures dependencies required to build the server.
type ServerDeps struct {
	Host   Host
	Events listener.Source
	Colors core.ColorPicker
	Logger pslog.Logger
}

// New constructs a grouper server.
func New(cfg ServerConfig, deps ServerDeps) (Server, error) {
	if deps.Host == nil {
		return nil, errors.New("host dependency is required")
	}
	if deps.Events == nil {
		return nil, errors.New("event source dependency is required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = pslog.Ctx(context.Background())
	}
	engine, err := core.NewEngine(core.EngineDeps{
		Surface: deps.Host,
		Colors:  deps.Colors,
		Logger:  logger,
	})
	if err != nil {
		return nil, err
	}
	l, err := listener.New(cfg.Listener, listener.Deps{
		Engine: engine,
		Tabs:   deps.Host,
		Source: deps.Events,
		Logger: logger,
	})
	if err != nil {
		return nil, err
	}
	var hostDone <-chan struct{}
	if d, ok := deps.Host.(interface{ Done() <-chan struct{} }); ok {
		hostDone = d.Done()
	}
	return &grouperServer{
		cfg:      cfg,
		listener: l,
		events:   deps.Events,
		hostDone: hostDone,
		logger:   logger,
	}, nil
}

type grouperServer struct {
	cfg      ServerConfig
	listener *listener.Listener
	events   listener.Source
	hostDone <-chan struct{}

	mu      sync.Mutex
	ctx     context.Context
	cancel  context.CancelFunc
	errCh   chan error
	done    chan struct{}
	started bool
	logger  pslog.Logger
}

func (s *grouperServer) Start(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		pslog.Ctx(ctx).Warn("server start rejected", "reason", "already started")
		return errors.New("server already started")
	}
	events, unsubscribe := s.events.Subscribe()
	s.ctx, s.cancel = context.WithCancel(ctx)
	s.errCh = make(chan error, 1)
	s.done = make(chan struct{})
	s.started = true
	log := s.logger
	s.mu.Unlock()

	log.Info(
		"server start",
		"settle_delay", s.cfg.Listener.SettleDelay.String(),
		"group_on_start", s.cfg.Listener.GroupOnStart,
	)
	go func() {
		defer close(s.done)
		defer unsubscribe()
		if err := s.listener.Serve(s.ctx, events); err != nil {
			log.Error("listener failed", "err", err)
			s.errCh <- err
			return
		}
		s.errCh <- nil
	}()
	return nil
}

func (s *grouperServer) Wait() error {
	s.mu.Lock()
	ctx := s.ctx
	errCh := s.errCh
	started := s.started
	s.mu.Unlock()
	if !started {
		return errors.New("server not started")
	}

	select {
	case <-ctx.Done():
		return nil
	case <-s.hostDone:
		s.logger.Warn("server host closed")
		_ = s.Stop(context.Background())
		return ErrBrowserGone
	case err := <-errCh:
		if err != nil {
			s.logger.Error("server stopped", "err", err)
			_ = s.Stop(context.Background())
			return err
		}
		return nil
	}
}

func (s *grouperServer) Stop(ctx context.Context) error {
	s.mu.Lock()
	cancel := s.cancel
	done := s.done
	started := s.started
	log := s.logger
	s.mu.Unlock()
	if !started {
		return nil
	}
	log.Info("server stop requested")
	if cancel != nil {
		cancel()
	}
	if ctx == nil {
		log.Info("server stop completed")
		return nil
	}
	select {
	case <-ctx.Done():
		log.Warn("server stop timed out", "err", ctx.Err())
		return ctx.Err()
	case <-done:
		log.Info("server stopped")
		return nil
	}
}
