// Package config handles TOML-based configuration loading and validation.
// TOML is parsed as data only, and environment variables override the file.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/sirupsen/logrus"

	"unity/internal/httputil"
	"unity/internal/provider"
	"unity/internal/proxy"
)

// Config holds all application configuration.
type Config struct {
	Addr        string `toml:"addr"`
	PublicURL   string `toml:"public_url"`
	LogLevel    string `toml:"log_level"`
	LogJSON     bool   `toml:"log_json"`
	Debug       bool   `toml:"debug"`
	Player      string `toml:"player"`
	DownloadDir string `toml:"download_dir"`

	AnimeUnity         AnimeUnityConfig         `toml:"animeunity"`
	StreamingCommunity StreamingCommunityConfig `toml:"streamingcommunity"`
	Proxy              ProxyConfig              `toml:"proxy"`
}

// AnimeUnityConfig configures the AnimeUnity provider.
type AnimeUnityConfig struct {
	Enabled bool   `toml:"enabled"`
	Base    string `toml:"base"`
}

// StreamingCommunityConfig configures the StreamingCommunity provider.
type StreamingCommunityConfig struct {
	Enabled   bool   `toml:"enabled"`
	Base      string `toml:"base"`
	CDN       string `toml:"cdn"`
	EmbedBase string `toml:"embed_base"`
	Locale    string `toml:"locale"`
}

// ProxyConfig configures the stream proxy.
type ProxyConfig struct {
	Enabled      bool     `toml:"enabled"`
	AllowedHosts []string `toml:"allowed_hosts"`
}

// Environment variables that override the file.
const (
	EnvAddr      = "UNITY_ADDR"
	EnvPublicURL = "UNITY_PUBLIC_URL"
	EnvLogLevel  = "UNITY_LOG_LEVEL"
	EnvSCBase    = "UNITY_SC_BASE"
	EnvAUBase    = "UNITY_AU_BASE"
)

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Addr:        ":7000",
		PublicURL:   "http://127.0.0.1:7000",
		LogLevel:    "info",
		Player:      "mpv",
		DownloadDir: "~/Videos/unity",
		AnimeUnity: AnimeUnityConfig{
			Enabled: true,
			Base:    provider.DefaultAnimeUnityBase,
		},
		StreamingCommunity: StreamingCommunityConfig{
			Enabled:   true,
			Base:      provider.DefaultStreamingCommunityBase,
			CDN:       provider.DefaultStreamingCommunityCDN,
			EmbedBase: provider.DefaultEmbedBase,
			Locale:    provider.DefaultLocale,
		},
		Proxy: ProxyConfig{
			Enabled:      true,
			AllowedHosts: append([]string(nil), proxy.DefaultAllowedHosts...),
		},
	}
}

// configDir returns the XDG-compliant config directory.
func configDir() (string, error) {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "unity"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, ".config", "unity"), nil
}

// ConfigPath returns the path to the config file.
func ConfigPath() (string, error) {
	dir, err := configDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// Load reads the config file, merges it with defaults and applies
// environment overrides. If the config file doesn't exist, defaults are used.
func Load() (*Config, error) {
	cfg := Default()

	path, err := ConfigPath()
	if err == nil {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	cfg.ApplyEnv(os.LookupEnv)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("reading config: %w", err)
	}

	if err := toml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parsing config %s: %w", path, err)
	}
	return nil
}

// ApplyEnv overrides fields from the environment. lookup is usually os.LookupEnv.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	overrides := []struct {
		key string
		dst *string
	}{
		{EnvAddr, &c.Addr},
		{EnvPublicURL, &c.PublicURL},
		{EnvLogLevel, &c.LogLevel},
		{EnvSCBase, &c.StreamingCommunity.Base},
		{EnvAUBase, &c.AnimeUnity.Base},
	}
	for _, o := range overrides {
		if v, ok := lookup(o.key); ok && strings.TrimSpace(v) != "" {
			*o.dst = strings.TrimSpace(v)
		}
	}
}

// Validate checks config values are within acceptable bounds.
func (c *Config) Validate() error {
	validPlayers := map[string]bool{
		"mpv": true, "vlc": true, "iina": true, "celluloid": true,
	}
	if !validPlayers[strings.ToLower(c.Player)] {
		return fmt.Errorf("unsupported player %q (valid: mpv, vlc, iina, celluloid)", c.Player)
	}

	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("log_level: %w", err)
	}

	if c.Addr == "" {
		return fmt.Errorf("addr cannot be empty")
	}

	if c.PublicURL != "" {
		u, err := url.Parse(c.PublicURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("public_url %q must be an absolute http(s) URL", c.PublicURL)
		}
	}

	if !c.AnimeUnity.Enabled && !c.StreamingCommunity.Enabled {
		return fmt.Errorf("at least one provider must be enabled")
	}

	if c.AnimeUnity.Enabled {
		if err := httputil.ValidateURL(c.AnimeUnity.Base); err != nil {
			return fmt.Errorf("animeunity.base: %w", err)
		}
	}

	if c.StreamingCommunity.Enabled {
		sc := c.StreamingCommunity
		for name, v := range map[string]string{"base": sc.Base, "cdn": sc.CDN, "embed_base": sc.EmbedBase} {
			if err := httputil.ValidateURL(v); err != nil {
				return fmt.Errorf("streamingcommunity.%s: %w", name, err)
			}
		}
		if sc.Locale == "" {
			return fmt.Errorf("streamingcommunity.locale cannot be empty")
		}
	}

	return nil
}

// Level returns the logrus level to run at. Debug forces debug level.
func (c *Config) Level() (logrus.Level, error) {
	if c.Debug {
		return logrus.DebugLevel, nil
	}
	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		return 0, fmt.Errorf("log_level: %w", err)
	}
	return level, nil
}

// ExpandDownloadDir resolves ~ in the download directory path.
func (c *Config) ExpandDownloadDir() (string, error) {
	dir := c.DownloadDir
	if strings.HasPrefix(dir, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("expanding home dir: %w", err)
		}
		dir = filepath.Join(home, dir[2:])
	}
	return filepath.Abs(dir)
}
