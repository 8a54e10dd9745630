package appconfig

import (
	"testing"
	"time"
)

func TestDefaultConfigSettleDelay(t *testing.T) {
	cfg, err := DefaultConfig()
	if err != nil {
		t.Fatalf("default config: %v", err)
	}
	if cfg.Listener.SettleDelay() != 100*time.Millisecond {
		t.Fatalf("expected 100ms settle delay, got %s", cfg.Listener.SettleDelay())
	}
	if cfg.Browser.Mode != "exec" {
		t.Fatalf("expected exec browser mode by default, got %q", cfg.Browser.Mode)
	}
	if !cfg.Listener.GroupOnStart {
		t.Fatalf("expected startup sweep enabled by default")
	}
	if cfg.StateDir != "" {
		t.Fatalf("expected registry persistence off by default, got state dir %q", cfg.StateDir)
	}
}
