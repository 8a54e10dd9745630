package appconfig

import (
	"os"
	"path/filepath"
	"time"
)

// Config is the top-level application configuration.
type Config struct {
	ConfigVersion int            `mapstructure:"config_version" yaml:"config_version"`
	StateDir      string         `mapstructure:"state_dir" yaml:"state_dir"`
	Browser       BrowserConfig  `mapstructure:"browser" yaml:"browser"`
	Listener      ListenerConfig `mapstructure:"listener" yaml:"listener"`
}

// CurrentConfigVersion marks the supported config version.
const CurrentConfigVersion = 1

// BrowserConfig selects how the Chrome browser is reached.
type BrowserConfig struct {
	Mode       string            `mapstructure:"mode" yaml:"mode"`
	RemoteURL  string            `mapstructure:"remote_url" yaml:"remote_url"`
	ExecPath   string            `mapstructure:"exec_path" yaml:"exec_path"`
	Headless   bool              `mapstructure:"headless" yaml:"headless"`
	Flags      map[string]string `mapstructure:"flags" yaml:"flags"`
	EventDepth int               `mapstructure:"event_depth" yaml:"event_depth"`
}

// ListenerConfig controls event handling.
type ListenerConfig struct {
	SettleDelayMS int  `mapstructure:"settle_delay_ms" yaml:"settle_delay_ms"`
	QueueDepth    int  `mapstructure:"queue_depth" yaml:"queue_depth"`
	GroupOnStart  bool `mapstructure:"group_on_start" yaml:"group_on_start"`
}

// SettleDelay returns the settle delay as a duration.
func (c ListenerConfig) SettleDelay() time.Duration {
	return time.Duration(c.SettleDelayMS) * time.Millisecond
}

// DefaultConfig returns a config with sensible defaults. The group registry
// is not persisted unless state_dir is set.
func DefaultConfig() (Config, error) {
	return Config{
		ConfigVersion: CurrentConfigVersion,
		StateDir:      "",
		Browser: BrowserConfig{
			Mode:       "exec",
			RemoteURL:  "",
			ExecPath:   "",
			Headless:   false,
			Flags:      map[string]string{},
			EventDepth: 256,
		},
		Listener: ListenerConfig{
			SettleDelayMS: 100,
			QueueDepth:    256,
			GroupOnStart:  true,
		},
	}, nil
}

// DefaultConfigPath returns the standard config path.
func DefaultConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".tabgrouper", "config.yaml"), nil
}
