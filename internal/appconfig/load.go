package appconfig

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Load reads configuration from the provided path. If path is empty, uses
// DefaultConfigPath. A missing file yields the defaults.
func Load(path string) (Config, error) {
	if path == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			return Config{}, err
		}
		path = defaultPath
	}

	cfg, err := DefaultConfig()
	if err != nil {
		return Config{}, err
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetDefault("config_version", cfg.ConfigVersion)
	v.SetDefault("state_dir", cfg.StateDir)
	v.SetDefault("browser.mode", cfg.Browser.Mode)
	v.SetDefault("browser.remote_url", cfg.Browser.RemoteURL)
	v.SetDefault("browser.exec_path", cfg.Browser.ExecPath)
	v.SetDefault("browser.headless", cfg.Browser.Headless)
	v.SetDefault("browser.flags", cfg.Browser.Flags)
	v.SetDefault("browser.event_depth", cfg.Browser.EventDepth)
	v.SetDefault("listener.settle_delay_ms", cfg.Listener.SettleDelayMS)
	v.SetDefault("listener.queue_depth", cfg.Listener.QueueDepth)
	v.SetDefault("listener.group_on_start", cfg.Listener.GroupOnStart)

	configLoaded := false
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, err
		}
	} else {
		configLoaded = true
	}

	if configLoaded {
		if !v.IsSet("config_version") {
			return Config{}, fmt.Errorf("config_version is required; expected %d", CurrentConfigVersion)
		}
		if v.GetInt("config_version") != CurrentConfigVersion {
			return Config{}, fmt.Errorf("unsupported config_version %d; expected %d", v.GetInt("config_version"), CurrentConfigVersion)
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}
	expandConfigEnv(&cfg)
	if err := validateBrowserConfig(cfg.Browser); err != nil {
		return Config{}, err
	}
	if err := validateListenerConfig(cfg.Listener); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func validateBrowserConfig(cfg BrowserConfig) error {
	switch cfg.Mode {
	case "exec":
	case "remote":
		remote := strings.TrimSpace(cfg.RemoteURL)
		if remote == "" {
			return fmt.Errorf("browser.remote_url is required when browser.mode is remote")
		}
		parsed, err := url.Parse(remote)
		if err != nil || parsed.Host == "" {
			return fmt.Errorf("browser.remote_url must include scheme and host (e.g. ws://127.0.0.1:9222)")
		}
		switch parsed.Scheme {
		case "ws", "wss", "http", "https":
		default:
			return fmt.Errorf("browser.remote_url scheme %q is not supported", parsed.Scheme)
		}
	default:
		return fmt.Errorf("unsupported browser.mode %q", cfg.Mode)
	}
	if cfg.EventDepth < 0 {
		return fmt.Errorf("browser.event_depth must not be negative")
	}
	return nil
}

func validateListenerConfig(cfg ListenerConfig) error {
	if cfg.SettleDelayMS < 0 {
		return fmt.Errorf("listener.settle_delay_ms must not be negative")
	}
	if cfg.QueueDepth < 0 {
		return fmt.Errorf("listener.queue_depth must not be negative")
	}
	return nil
}

func expandConfigEnv(cfg *Config) {
	if cfg == nil {
		return
	}
	cfg.StateDir = expandEnv(cfg.StateDir)
	cfg.Browser.RemoteURL = expandEnv(cfg.Browser.RemoteURL)
	cfg.Browser.ExecPath = expandEnv(cfg.Browser.ExecPath)
}

func expandEnv(value string) string {
	if value == "" {
		return value
	}
	return os.Expand(value, func(key string) string {
		if key == "" {
			return ""
		}
		if val, ok := lookupEnv(key); ok {
			return val
		}
		return "$" + key
	})
}

func lookupEnv(key string) (string, bool) {
	return os.LookupEnv(key)
}

// WriteDefault writes the default config to the target path.
func WriteDefault(path string, overwrite bool) (string, error) {
	if path == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			return "", err
		}
		path = defaultPath
	}

	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return "", fmt.Errorf("config already exists at %s", path)
		}
	}

	cfg, err := DefaultConfig()
	if err != nil {
		return "", err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return "", err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", err
	}
	return path, nil
}
