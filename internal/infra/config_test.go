package infra

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"tradegate/internal/domain"
)

func validHsc() HscConfig {
	return HscConfig{
		StreamURL:    "wss://stream.example.com/connection/websocket",
		RestURL:      "https://api.example.com",
		ReferenceURL: "https://api.example.com/tickers",
		AccountURL:   "https://api.example.com/account",
		OrdersURL:    "https://api.example.com/orders",
		BearerToken:  "token",
		AccountID:    "068C000001",
	}
}

func TestHscConfig_Validate(t *testing.T) {
	t.Run("Valid", func(t *testing.T) {
		cfg := validHsc()
		if err := cfg.Validate(); err != nil {
			t.Errorf("valid config rejected: %v", err)
		}
	})

	tests := []struct {
		name   string
		mutate func(*HscConfig)
		field  string
	}{
		{"Missing Stream URL", func(c *HscConfig) { c.StreamURL = "" }, "hsc.stream_url"},
		{"HTTP Stream URL", func(c *HscConfig) { c.StreamURL = "https://nope" }, "hsc.stream_url"},
		{"Missing Rest URL", func(c *HscConfig) { c.RestURL = "" }, "hsc.rest_url"},
		{"Missing Reference URL", func(c *HscConfig) { c.ReferenceURL = "" }, "hsc.reference_url"},
		{"Missing Token", func(c *HscConfig) { c.BearerToken = "" }, "hsc.bearer_token"},
		{"Missing Account", func(c *HscConfig) { c.AccountID = "" }, "hsc.account_id"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validHsc()
			tt.mutate(&cfg)

			err := cfg.Validate()
			var cfgErr *domain.ConfigError
			if !errors.As(err, &cfgErr) {
				t.Fatalf("want ConfigError, got %v", err)
			}
			if cfgErr.Field != tt.field {
				t.Errorf("field = %s, want %s", cfgErr.Field, tt.field)
			}
		})
	}
}

func TestIbConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     IbConfig
		wantErr bool
	}{
		{"Valid", IbConfig{Host: "127.0.0.1", Port: 7497, ClientID: 1, CachePath: "contracts.db"}, false},
		{"Missing Host", IbConfig{Port: 7497, CachePath: "contracts.db"}, true},
		{"Zero Port", IbConfig{Host: "127.0.0.1", CachePath: "contracts.db"}, true},
		{"Port Too Big", IbConfig{Host: "127.0.0.1", Port: 100000, CachePath: "contracts.db"}, true},
		{"Negative Client", IbConfig{Host: "127.0.0.1", Port: 7497, ClientID: -1, CachePath: "contracts.db"}, true},
		{"Missing Cache Path", IbConfig{Host: "127.0.0.1", Port: 7497}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoadConfig_EnvOverride(t *testing.T) {
	yml := `
app:
  name: tradegate
gateways:
  hsc:
    stream_url: wss://stream.example.com/ws
    rest_url: https://api.example.com
    reference_url: https://api.example.com/tickers
    account_url: https://api.example.com/account
    orders_url: https://api.example.com/orders
    bearer_token: from-file
    account_id: ACC1
logging:
  level: debug
`
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(yml), 0644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("TRADEGATE_HSC_TOKEN", "from-env")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Gateways.Hsc.BearerToken != "from-env" {
		t.Errorf("bearer_token = %s, want env override", cfg.Gateways.Hsc.BearerToken)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("logging.level = %s, want debug", cfg.Logging.Level)
	}
}

func TestCalculateBackoff(t *testing.T) {
	tests := []struct {
		retryCount int
		want       time.Duration
	}{
		{0, time.Second},
		{1, 2 * time.Second},
		{2, 4 * time.Second},
		{3, 8 * time.Second},
		{10, 60 * time.Second},
		{100, 60 * time.Second},
	}

	for _, tt := range tests {
		if got := CalculateBackoff(tt.retryCount); got != tt.want {
			t.Errorf("CalculateBackoff(%d) = %v, want %v", tt.retryCount, got, tt.want)
		}
	}
}
