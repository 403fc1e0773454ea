package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadDefaultsToLongpoll(t *testing.T) {
	path := writeConfig(t, `
telegram:
  token: "123:abc"
  admin_id: 42
rate_limit:
  interval_ms: 500
  exclude_updates: [" Callback "]
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Telegram.RunMode != RunModeLongpoll {
		t.Fatalf("run mode = %q", cfg.Telegram.RunMode)
	}
	if cfg.Telegram.AdminID != 42 || cfg.RateLimit.IntervalMS != 500 {
		t.Fatalf("unexpected values: %+v", cfg)
	}
	if cfg.RateLimit.ExcludeUpdates[0] != UpdateCallback {
		t.Fatalf("exclude updates not normalized: %v", cfg.RateLimit.ExcludeUpdates)
	}
}

func TestEnvOverridesYAML(t *testing.T) {
	path := writeConfig(t, `
telegram:
  token: "from-file"
`)
	t.Setenv("BOT_TOKEN", "from-env")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Telegram.Token != "from-env" {
		t.Fatalf("token = %q", cfg.Telegram.Token)
	}
}

func TestNormalizeWebhookRequiresURL(t *testing.T) {
	cfg := &Config{Telegram: TelegramConfig{Token: "x", RunMode: "webhook"}}
	if err := Normalize(cfg); err == nil {
		t.Fatalf("expected error for webhook without url")
	}
	cfg.Webhook = WebhookConfig{URL: "https://example.org/hook", Listen: "0.0.0.0", Port: 8443}
	if err := Normalize(cfg); err != nil {
		t.Fatalf("normalize: %v", err)
	}
}

func TestNormalizeRejectsUnknownValues(t *testing.T) {
	if err := Normalize(&Config{}); err == nil {
		t.Fatalf("missing token must fail")
	}
	if err := Normalize(&Config{Telegram: TelegramConfig{Token: "x", RunMode: "push"}}); err == nil {
		t.Fatalf("unknown run mode must fail")
	}
	bad := &Config{Telegram: TelegramConfig{Token: "x"}, RateLimit: RateLimitConfig{ExcludeUpdates: []string{"sticker"}}}
	if err := Normalize(bad); err == nil {
		t.Fatalf("unknown exclude update must fail")
	}
}
