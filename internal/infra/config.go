package infra

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"tradegate/internal/domain"
)

// Config holds the whole application configuration. Secrets can be
// overridden through environment variables after loading. There are no
// built-in endpoint defaults: every URL must come from the file.
type Config struct {
	App struct {
		Name    string `yaml:"name"`
		Version string `yaml:"version"`
	} `yaml:"app"`

	Gateways struct {
		Hsc HscConfig `yaml:"hsc"`
		Ib  IbConfig  `yaml:"ib"`
	} `yaml:"gateways"`

	Logging struct {
		Level string `yaml:"level"`
		Dir   string `yaml:"dir"`
	} `yaml:"logging"`
}

// HscConfig configures the REST+streaming gateway.
type HscConfig struct {
	StreamURL    string `yaml:"stream_url"`    // pub/sub endpoint (ws/wss)
	RestURL      string `yaml:"rest_url"`      // trading REST base
	ReferenceURL string `yaml:"reference_url"` // bulk contract reference data
	AccountURL   string `yaml:"account_url"`
	OrdersURL    string `yaml:"orders_url"`
	BearerToken  string `yaml:"bearer_token"`
	AccountID    string `yaml:"account_id"`
}

// Validate rejects missing or malformed required keys with a
// field-named configuration error.
func (c *HscConfig) Validate() error {
	if !strings.HasPrefix(c.StreamURL, "ws://") && !strings.HasPrefix(c.StreamURL, "wss://") {
		return &domain.ConfigError{Field: "hsc.stream_url", Err: fmt.Errorf("want ws:// or wss:// URL, got %q", c.StreamURL)}
	}
	restURLs := []struct {
		field string
		url   string
	}{
		{"hsc.rest_url", c.RestURL},
		{"hsc.reference_url", c.ReferenceURL},
		{"hsc.account_url", c.AccountURL},
		{"hsc.orders_url", c.OrdersURL},
	}
	for _, u := range restURLs {
		if !strings.HasPrefix(u.url, "http://") && !strings.HasPrefix(u.url, "https://") {
			return &domain.ConfigError{Field: u.field, Err: fmt.Errorf("want http(s) URL, got %q", u.url)}
		}
	}
	if c.BearerToken == "" {
		return &domain.ConfigError{Field: "hsc.bearer_token", Err: errors.New("missing")}
	}
	if c.AccountID == "" {
		return &domain.ConfigError{Field: "hsc.account_id", Err: errors.New("missing")}
	}
	return nil
}

// IbConfig configures the native-API gateway.
type IbConfig struct {
	Host      string `yaml:"host"`
	Port      int    `yaml:"port"`
	ClientID  int    `yaml:"client_id"`
	Account   string `yaml:"account"`
	CachePath string `yaml:"cache_path"` // on-disk contract cache
}

// Validate rejects missing required keys.
func (c *IbConfig) Validate() error {
	if c.Host == "" {
		return &domain.ConfigError{Field: "ib.host", Err: errors.New("missing")}
	}
	if c.Port <= 0 || c.Port > 65535 {
		return &domain.ConfigError{Field: "ib.port", Err: fmt.Errorf("out of range: %d", c.Port)}
	}
	if c.ClientID < 0 {
		return &domain.ConfigError{Field: "ib.client_id", Err: fmt.Errorf("negative: %d", c.ClientID)}
	}
	if c.CachePath == "" {
		return &domain.ConfigError{Field: "ib.cache_path", Err: errors.New("missing")}
	}
	return nil
}

// LoadConfig reads and parses the configuration file, then applies
// environment overrides for secrets.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	overrideWithEnv(&cfg)
	return &cfg, nil
}

// overrideWithEnv lets secrets come from the environment instead of
// the file.
func overrideWithEnv(cfg *Config) {
	if token := os.Getenv("TRADEGATE_HSC_TOKEN"); token != "" {
		cfg.Gateways.Hsc.BearerToken = token
	}
	if account := os.Getenv("TRADEGATE_HSC_ACCOUNT"); account != "" {
		cfg.Gateways.Hsc.AccountID = account
	}
	if account := os.Getenv("TRADEGATE_IB_ACCOUNT"); account != "" {
		cfg.Gateways.Ib.Account = account
	}
}
