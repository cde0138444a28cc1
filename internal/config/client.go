package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	yamlv3 "gopkg.in/yaml.v3"
)

// EnvPrefix is the prefix of environment variables overriding the client config.
const EnvPrefix = "PLINTH_"

// DefaultConfigDir returns the default config directory (~/.config/plinth).
func DefaultConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home directory: %w", err)
	}
	return filepath.Join(home, ".config", "plinth"), nil
}

// DefaultConfigPath returns the default config file path (~/.config/plinth/widget.yaml).
func DefaultConfigPath() (string, error) {
	dir, err := DefaultConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "widget.yaml"), nil
}

// ClientConfig holds the widget CLI configuration.
type ClientConfig struct {
	APIURL       string        `yaml:"api_url,omitempty" koanf:"api_url"`
	WebsiteID    string        `yaml:"website_id,omitempty" koanf:"website_id"`
	Theme        string        `yaml:"theme,omitempty" koanf:"theme"`
	Layout       string        `yaml:"layout,omitempty" koanf:"layout"`
	ItemsPerPage int           `yaml:"items_per_page,omitempty" koanf:"items_per_page"`
	OpenInNewTab bool          `yaml:"open_in_new_tab,omitempty" koanf:"open_in_new_tab"`
	Timeout      time.Duration `yaml:"timeout,omitempty" koanf:"timeout"`
	Proxy        string        `yaml:"proxy,omitempty" koanf:"proxy"` // http(s):// or socks5:// URL
	NoProxy      string        `yaml:"no_proxy,omitempty" koanf:"no_proxy"`
}

// DefaultClientConfig returns the client defaults.
func DefaultClientConfig() *ClientConfig {
	return &ClientConfig{
		APIURL:  "http://localhost:8080",
		Timeout: 30 * time.Second,
	}
}

// Validate checks that the configuration can reach a server.
func (c *ClientConfig) Validate() error {
	if c.APIURL == "" {
		return errors.New("api_url is required")
	}
	u, err := url.Parse(c.APIURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("api_url %q must be an absolute http(s) URL", c.APIURL)
	}
	if c.ItemsPerPage < 0 || c.ItemsPerPage > 50 {
		return errors.New("items_per_page must be between 1 and 50")
	}
	if c.Timeout < 0 {
		return errors.New("timeout must be non-negative")
	}
	return nil
}

// LoadClient reads the configuration from path, then overlays PLINTH_*
// environment variables. A missing file yields the defaults.
func LoadClient(path string) (*ClientConfig, error) {
	k := koanf.New(".")
	cfg := DefaultClientConfig()

	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("access config %s: %w", path, err)
	}

	// PLINTH_API_URL -> api_url
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	}), nil); err != nil {
		return nil, fmt.Errorf("load env overrides: %w", err)
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return cfg, nil
}

// LoadDefaultClient loads the configuration from the default path.
func LoadDefaultClient() (*ClientConfig, error) {
	path, err := DefaultConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadClient(path)
}

// Save writes the configuration to path, creating directories as needed.
func (c *ClientConfig) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}

	data, err := yamlv3.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}
