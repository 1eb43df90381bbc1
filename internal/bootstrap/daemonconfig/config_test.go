package daemonconfig

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"modelmarket/go-backend/internal/platform/amount"
	"modelmarket/go-backend/internal/waku"
)

func TestLoadFromPathMergesFileOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := `
marketplace:
  adminAddress: mkt1example
  feePercentage: 0
  feedbackPrice: "250"
storage:
  dataDir: /var/lib/modelmarket
notifications:
  transport: none
  minPeers: 3
  reconnectInterval: 2s
rpc:
  rateLimitRps: 5
logging:
  level: debug
  json: true
`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath: %v", err)
	}
	if cfg.Marketplace.AdminAddress != "mkt1example" {
		t.Fatalf("unexpected admin address: %q", cfg.Marketplace.AdminAddress)
	}
	if cfg.Marketplace.FeePercentage != 0 {
		t.Fatalf("explicit zero fee must win: got=%d want=0", cfg.Marketplace.FeePercentage)
	}
	if !cfg.Marketplace.FeedbackPrice.Equal(amount.New(250)) {
		t.Fatalf("unexpected feedback price: got=%s want=250", cfg.Marketplace.FeedbackPrice)
	}
	if cfg.Storage.DataDir != "/var/lib/modelmarket" {
		t.Fatalf("unexpected data dir: %q", cfg.Storage.DataDir)
	}
	if cfg.Notifications.Transport != waku.TransportNone || cfg.Notifications.MinPeers != 3 {
		t.Fatalf("unexpected notifications config: %+v", cfg.Notifications)
	}
	if cfg.Notifications.ReconnectInterval != 2*time.Second {
		t.Fatalf("unexpected reconnect interval: %s", cfg.Notifications.ReconnectInterval)
	}
	if cfg.Notifications.ContentTopic != waku.DefaultContentTopic {
		t.Fatalf("default topic lost: %q", cfg.Notifications.ContentTopic)
	}
	if cfg.RPC.RateLimitRPS != 5 || cfg.RPC.RateLimitBurst != DefaultRPCRateBurst {
		t.Fatalf("unexpected rpc config: %+v", cfg.RPC)
	}
	if cfg.Logging.Level != "debug" || !cfg.Logging.JSON {
		t.Fatalf("unexpected logging config: %+v", cfg.Logging)
	}
}

func TestLoadFromPathRequiresExplicitFile(t *testing.T) {
	if _, err := LoadFromPath(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error for missing explicit config")
	}
}

func TestLoadFromPathRejectsBadFeedbackPrice(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("marketplace:\n  feedbackPrice: \"-3\"\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := LoadFromPath(path); err == nil {
		t.Fatal("expected error for negative feedback price")
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	t.Setenv("MKT_ADMIN_ADDRESS", " mkt1env ")
	t.Setenv("MKT_FEE_PERCENTAGE", "12")
	t.Setenv("MKT_FEEDBACK_PRICE", "7")
	t.Setenv("MKT_DATA_DIR", "/tmp/mkt")
	t.Setenv("MKT_NOTIFY_TRANSPORT", "go-waku")
	t.Setenv("MKT_NOTIFY_BOOTSTRAP_NODES", "/ip4/1.2.3.4/tcp/1, ,/ip4/5.6.7.8/tcp/2")
	t.Setenv("MKT_RPC_RATE_LIMIT_RPS", "0")
	t.Setenv("MKT_LOG_FORMAT", "JSON")

	cfg := Default()
	if err := ApplyEnvOverrides(&cfg); err != nil {
		t.Fatalf("ApplyEnvOverrides: %v", err)
	}
	if cfg.Marketplace.AdminAddress != "mkt1env" || cfg.Marketplace.FeePercentage != 12 {
		t.Fatalf("unexpected marketplace config: %+v", cfg.Marketplace)
	}
	if !cfg.Marketplace.FeedbackPrice.Equal(amount.New(7)) {
		t.Fatalf("unexpected feedback price: %s", cfg.Marketplace.FeedbackPrice)
	}
	if cfg.Storage.DataDir != "/tmp/mkt" || cfg.Notifications.Transport != waku.TransportGoWaku {
		t.Fatalf("unexpected overrides: %+v", cfg)
	}
	if got := len(cfg.Notifications.BootstrapNodes); got != 2 {
		t.Fatalf("unexpected bootstrap nodes: got=%d want=2", got)
	}
	if cfg.RPC.RateLimitRPS != 0 || !cfg.Logging.JSON {
		t.Fatalf("unexpected rpc/logging overrides: %+v %+v", cfg.RPC, cfg.Logging)
	}
}

func TestApplyEnvOverridesRejectsGarbage(t *testing.T) {
	t.Setenv("MKT_FEE_PERCENTAGE", "ten")
	cfg := Default()
	if err := ApplyEnvOverrides(&cfg); err == nil {
		t.Fatal("expected error for non-numeric fee percentage")
	}
}

func TestExampleConfigParses(t *testing.T) {
	cfg, err := LoadFromPath(filepath.Join("..", "..", "..", "configs", "config.example.yaml"))
	if err != nil {
		t.Fatalf("LoadFromPath example: %v", err)
	}
	if cfg.Marketplace.FeePercentage != DefaultFeePercentage {
		t.Fatalf("unexpected fee percentage: got=%d want=%d", cfg.Marketplace.FeePercentage, DefaultFeePercentage)
	}
	if cfg.Notifications.Transport != waku.TransportNone {
		t.Fatalf("example must ship with broadcast disabled, got=%q", cfg.Notifications.Transport)
	}
	if cfg.Notifications.PublishTimeout != 5*time.Second {
		t.Fatalf("unexpected publish timeout: %s", cfg.Notifications.PublishTimeout)
	}
	if cfg.RPC.MaxBodyBytes != 1<<20 {
		t.Fatalf("unexpected body limit: got=%d", cfg.RPC.MaxBodyBytes)
	}
}
