package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"pkt.systems/pslog"
	"pkt.systems/tabgrouper"
	"pkt.systems/tabgrouper/core"
	"pkt.systems/tabgrouper/internal/appconfig"
	"pkt.systems/tabgrouper/internal/cdphost"
	"pkt.systems/tabgrouper/internal/eventbus"
	"pkt.systems/tabgrouper/internal/listener"
	"pkt.systems/tabgrouper/internal/persist"
)

func newRunCmd() *cobra.Command {
	var cfgPath string
	var openURLs []string
	var logEvents bool
	var headless bool
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Connect to Chrome and group tabs as they change",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := pslog.Ctx(cmd.Context())
			cfg, err := appconfig.Load(cfgPath)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("headless") {
				cfg.Browser.Headless = headless
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			bus := eventbus.New(logger, cfg.Listener.QueueDepth)
			var sink core.EventSink = bus
			if logEvents {
				sink = tabgrouper.FanoutSink(bus, tabgrouper.LogSink(logger))
			}
			logger.Info("browser connect start", "mode", cfg.Browser.Mode, "remote_url", cfg.Browser.RemoteURL, "headless", cfg.Browser.Headless)
			browserCfg := toBrowserConfig(cfg.Browser)
			browserCfg.State, err = stateStore(cfg, logger)
			if err != nil {
				return err
			}
			host, err := cdphost.Connect(ctx, browserCfg, sink, logger)
			if err != nil {
				return err
			}
			defer func() { _ = host.Close() }()
			logger.Info("browser connect ok")

			server, err := tabgrouper.New(toServerConfig(cfg), tabgrouper.ServerDeps{
				Host:   host,
				Events: bus,
				Logger: logger,
			})
			if err != nil {
				return err
			}
			go func() {
				<-ctx.Done()
				stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				if err := server.Stop(stopCtx); err != nil {
					logger.Warn("server stop failed", "err", err)
				}
			}()
			if err := server.Start(ctx); err != nil {
				return err
			}
			for _, url := range openURLs {
				id, err := host.OpenTab(ctx, url)
				if err != nil {
					logger.Warn("tab open failed", "url", url, "err", err)
					continue
				}
				logger.Info("tab opened", "tab", id, "url", url)
			}
			return server.Wait()
		},
	}
	cmd.Flags().StringVarP(&cfgPath, "config", "c", "", "path to config file")
	cmd.Flags().StringArrayVar(&openURLs, "open", nil, "open a tab with this url after connecting (repeatable)")
	cmd.Flags().BoolVar(&logEvents, "log-events", false, "log every tab event at debug level")
	cmd.Flags().BoolVar(&headless, "headless", false, "override browser.headless")
	return cmd
}

func toBrowserConfig(cfg appconfig.BrowserConfig) cdphost.Config {
	return cdphost.Config{
		Mode:       cfg.Mode,
		RemoteURL:  cfg.RemoteURL,
		ExecPath:   cfg.ExecPath,
		Headless:   cfg.Headless,
		Flags:      cfg.Flags,
		EventDepth: cfg.EventDepth,
	}
}

// stateStore returns nil unless state_dir is configured.
func stateStore(cfg appconfig.Config, logger pslog.Logger) (cdphost.StateStore, error) {
	if cfg.StateDir == "" {
		return nil, nil
	}
	store, err := persist.NewStoreWithLogger(cfg.StateDir, logger)
	if err != nil {
		return nil, err
	}
	return store, nil
}

func toServerConfig(cfg appconfig.Config) tabgrouper.ServerConfig {
	return tabgrouper.ServerConfig{
		Listener: listener.Config{
			SettleDelay:  cfg.Listener.SettleDelay(),
			GroupOnStart: cfg.Listener.GroupOnStart,
		},
	}
}
