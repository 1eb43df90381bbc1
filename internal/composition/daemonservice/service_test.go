package daemonservice

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"modelmarket/go-backend/internal/adminsecret"
	"modelmarket/go-backend/internal/bootstrap/daemonconfig"
	marketdomain "modelmarket/go-backend/internal/domains/marketplace"
	"modelmarket/go-backend/internal/platform/amount"
	"modelmarket/go-backend/internal/waku"
)

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func testAddress(t *testing.T, seed byte) string {
	t.Helper()
	key := ed25519.NewKeyFromSeed(bytes.Repeat([]byte{seed}, ed25519.SeedSize))
	addr, err := marketdomain.BuildAddress(key.Public().(ed25519.PublicKey))
	if err != nil {
		t.Fatalf("build address: %v", err)
	}
	return string(addr)
}

func testConfig(t *testing.T, transport string) daemonconfig.Config {
	t.Helper()
	cfg := daemonconfig.Default()
	cfg.Marketplace.AdminAddress = testAddress(t, 1)
	cfg.Marketplace.FeePercentage = 10
	cfg.Marketplace.FeedbackPrice = amount.New(3)
	cfg.Notifications.Transport = transport
	return cfg
}

func testOptions() Options {
	return Options{
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		Now:    func() time.Time { return fixedNow },
	}
}

func setSecrets(t *testing.T, adminSecret string) {
	t.Helper()
	t.Setenv(ephemeralEnv, "")
	t.Setenv("MKT_ENV", "")
	t.Setenv("MKT_STORAGE_PASSPHRASE", "storage-passphrase")
	t.Setenv(adminSecretEnv, adminSecret)
	t.Setenv(adminSecretFileEnv, "")
}

func TestNewServicePersistsLedgerAndPayoutsAcrossRestart(t *testing.T) {
	setSecrets(t, "first-secret")
	dataDir := t.TempDir()
	cfg := testConfig(t, waku.TransportNone)
	seller := testAddress(t, 2)
	fan := testAddress(t, 3)

	svc, err := newServiceWithOptions(cfg, dataDir, testOptions())
	if err != nil {
		t.Fatalf("build service: %v", err)
	}
	if _, err := svc.AddModel(seller, marketdomain.ListingRequest{AuctionState: 1, RentState: 1}); err != nil {
		t.Fatalf("add model: %v", err)
	}
	if _, err := svc.Like(fan, 0, amount.New(3)); err != nil {
		t.Fatalf("like: %v", err)
	}
	creds := marketdomain.AdminCredentials{Caller: cfg.Marketplace.AdminAddress, Secret: "first-secret"}
	paid, err := svc.AdminWithdraw(context.Background(), creds, amount.Zero)
	if err != nil {
		t.Fatalf("admin withdraw: %v", err)
	}
	if !paid.Equal(amount.New(3)) {
		t.Fatalf("unexpected admin payout: got=%s want=3", paid)
	}
	if err := svc.ChangeSecret(creds, "second-secret"); err != nil {
		t.Fatalf("change secret: %v", err)
	}

	for _, name := range []string{"marketplace.enc", "admin_secret.enc", "payouts.enc"} {
		if _, err := os.Stat(filepath.Join(dataDir, name)); err != nil {
			t.Fatalf("expected %s to be written: %v", name, err)
		}
	}

	// A restart with a different fee setting and the old env secret keeps
	// everything that was persisted.
	cfg.Marketplace.FeePercentage = 50
	restarted, err := newServiceWithOptions(cfg, dataDir, testOptions())
	if err != nil {
		t.Fatalf("rebuild service: %v", err)
	}
	if got := restarted.CountModels(); got != 1 {
		t.Fatalf("unexpected model count: got=%d want=1", got)
	}
	if got := restarted.FeePercentage(); got != 10 {
		t.Fatalf("persisted fee percentage must win: got=%d want=10", got)
	}
	payouts := restarted.ListPayouts(0, 0)
	if len(payouts) != 1 || payouts[0].Seq != 1 || !payouts[0].Payout.Amount.Equal(amount.New(3)) {
		t.Fatalf("unexpected restored payouts: %+v", payouts)
	}
	if n, err := restarted.AckPayouts(1); err != nil || n != 1 {
		t.Fatalf("unexpected ack: got=%d err=%v want=1", n, err)
	}
	stale := marketdomain.AdminCredentials{Caller: cfg.Marketplace.AdminAddress, Secret: "first-secret"}
	if err := restarted.ForceLock(stale, seller); err == nil {
		t.Fatal("rotated secret must survive restart")
	}
	rotated := marketdomain.AdminCredentials{Caller: cfg.Marketplace.AdminAddress, Secret: "second-secret"}
	if err := restarted.ForceLock(rotated, seller); err != nil {
		t.Fatalf("force lock with rotated secret: %v", err)
	}

	again, err := newServiceWithOptions(cfg, dataDir, testOptions())
	if err != nil {
		t.Fatalf("third build: %v", err)
	}
	if got := len(again.ListPayouts(0, 0)); got != 0 {
		t.Fatalf("acked payouts must stay acked: got=%d", got)
	}
}

func TestNewServiceRejectsWrongPassphrase(t *testing.T) {
	setSecrets(t, "secret")
	dataDir := t.TempDir()
	cfg := testConfig(t, waku.TransportNone)
	if _, err := newServiceWithOptions(cfg, dataDir, testOptions()); err != nil {
		t.Fatalf("build service: %v", err)
	}

	t.Setenv("MKT_STORAGE_PASSPHRASE", "another-passphrase")
	_, err := newServiceWithOptions(cfg, dataDir, testOptions())
	if err == nil || !strings.Contains(err.Error(), "MKT_STORAGE_PASSPHRASE") {
		t.Fatalf("expected passphrase hint, got=%v", err)
	}
}

func TestNewServiceGeneratesAdminSecretOnce(t *testing.T) {
	setSecrets(t, adminSecretAuto)
	dataDir := t.TempDir()
	cfg := testConfig(t, waku.TransportNone)

	svc, err := newServiceWithOptions(cfg, dataDir, testOptions())
	if err != nil {
		t.Fatalf("build service: %v", err)
	}
	secretPath := filepath.Join(dataDir, generatedSecretFileTxt)
	raw, err := os.ReadFile(secretPath)
	if err != nil {
		t.Fatalf("read generated secret: %v", err)
	}
	mnemonic := strings.TrimSpace(string(raw))
	if words := len(strings.Fields(mnemonic)); words != 24 {
		t.Fatalf("unexpected mnemonic length: got=%d want=24", words)
	}
	creds := marketdomain.AdminCredentials{Caller: cfg.Marketplace.AdminAddress, Secret: mnemonic}
	if _, err := svc.SetFeePercentage(creds, 20); err != nil {
		t.Fatalf("generated secret must authorize admin: %v", err)
	}

	if _, err := newServiceWithOptions(cfg, dataDir, testOptions()); err != nil {
		t.Fatalf("restart with auto must reuse the persisted hash: %v", err)
	}
	after, err := os.ReadFile(secretPath)
	if err != nil {
		t.Fatalf("read secret after restart: %v", err)
	}
	if string(after) != string(raw) {
		t.Fatal("generated secret file must not change on restart")
	}
}

func TestNewServiceConfigurationErrors(t *testing.T) {
	t.Run("missing admin address", func(t *testing.T) {
		setSecrets(t, "secret")
		cfg := testConfig(t, waku.TransportNone)
		cfg.Marketplace.AdminAddress = ""
		_, err := newServiceWithOptions(cfg, t.TempDir(), testOptions())
		if !errors.Is(err, ErrAdminAddressRequired) {
			t.Fatalf("expected ErrAdminAddressRequired, got=%v", err)
		}
	})
	t.Run("malformed admin address", func(t *testing.T) {
		setSecrets(t, "secret")
		cfg := testConfig(t, waku.TransportNone)
		cfg.Marketplace.AdminAddress = "not-an-address"
		if _, err := newServiceWithOptions(cfg, t.TempDir(), testOptions()); err == nil {
			t.Fatal("expected malformed admin address to fail")
		}
	})
	t.Run("fee percentage out of range", func(t *testing.T) {
		setSecrets(t, "secret")
		cfg := testConfig(t, waku.TransportNone)
		cfg.Marketplace.FeePercentage = 100
		if _, err := newServiceWithOptions(cfg, t.TempDir(), testOptions()); err == nil {
			t.Fatal("expected fee percentage 100 to fail")
		}
	})
	t.Run("missing admin secret", func(t *testing.T) {
		setSecrets(t, "")
		_, err := newServiceWithOptions(testConfig(t, waku.TransportNone), t.TempDir(), testOptions())
		if !errors.Is(err, adminsecret.ErrSecretRequired) {
			t.Fatalf("expected ErrSecretRequired, got=%v", err)
		}
	})
	t.Run("ephemeral auto secret needs a file", func(t *testing.T) {
		setSecrets(t, adminSecretAuto)
		t.Setenv(ephemeralEnv, "true")
		_, err := newServiceWithOptions(testConfig(t, waku.TransportNone), "", testOptions())
		if !errors.Is(err, ErrAdminSecretFileRequired) {
			t.Fatalf("expected ErrAdminSecretFileRequired, got=%v", err)
		}
	})
	t.Run("garbage ephemeral flag", func(t *testing.T) {
		setSecrets(t, "secret")
		t.Setenv(ephemeralEnv, "maybe")
		dataDir := t.TempDir()
		_, err := newServiceWithOptions(testConfig(t, waku.TransportNone), dataDir, testOptions())
		if !errors.Is(err, ErrInvalidEnvBool) {
			t.Fatalf("expected ErrInvalidEnvBool, got=%v", err)
		}
		entries, _ := os.ReadDir(dataDir)
		if len(entries) != 0 {
			t.Fatalf("rejected config must not touch the data dir, found %d entries", len(entries))
		}
	})
}

func TestEphemeralServiceWritesNothing(t *testing.T) {
	setSecrets(t, "secret")
	t.Setenv(ephemeralEnv, "true")
	dataDir := t.TempDir()

	svc, err := newServiceWithOptions(testConfig(t, waku.TransportNone), dataDir, testOptions())
	if err != nil {
		t.Fatalf("build ephemeral service: %v", err)
	}
	if _, err := svc.AddModel(testAddress(t, 2), marketdomain.ListingRequest{AuctionState: 1, RentState: 1}); err != nil {
		t.Fatalf("add model: %v", err)
	}
	entries, err := os.ReadDir(dataDir)
	if err != nil {
		t.Fatalf("read data dir: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("ephemeral service must not write to disk, found %d entries", len(entries))
	}
}

func TestNetworkingLifecycleWithMockTransport(t *testing.T) {
	setSecrets(t, "secret")
	t.Setenv(ephemeralEnv, "true")
	svc, err := newServiceWithOptions(testConfig(t, waku.TransportMock), "", testOptions())
	if err != nil {
		t.Fatalf("build service: %v", err)
	}
	ctx := context.Background()

	if err := svc.StartNetworking(ctx); err != nil {
		t.Fatalf("start networking: %v", err)
	}
	if err := svc.StartNetworking(ctx); err != nil {
		t.Fatalf("second start must be a no-op: %v", err)
	}
	status := svc.NotificationStatus()
	if status.Transport != waku.TransportMock || status.State != waku.StateConnected {
		t.Fatalf("unexpected status after start: %+v", status)
	}

	backlog, live, cancel := svc.SubscribeNotifications(0)
	defer cancel()
	if len(backlog) != 0 {
		t.Fatalf("unexpected backlog: %d", len(backlog))
	}
	if _, err := svc.AddModel(testAddress(t, 2), marketdomain.ListingRequest{AuctionState: 1, RentState: 1}); err != nil {
		t.Fatalf("add model: %v", err)
	}
	select {
	case evt := <-live:
		if evt.Method != "listing.added" {
			t.Fatalf("unexpected live method: got=%s want=listing.added", evt.Method)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for live notification")
	}

	if err := svc.StopNetworking(ctx); err != nil {
		t.Fatalf("stop networking: %v", err)
	}
	status = svc.NotificationStatus()
	if status.State != waku.StateDisconnected {
		t.Fatalf("unexpected state after stop: %s", status.State)
	}
	if status.Published != 1 || status.Dropped != 0 {
		t.Fatalf("unexpected counters: published=%d dropped=%d", status.Published, status.Dropped)
	}
	if err := svc.StopNetworking(ctx); err != nil {
		t.Fatalf("second stop must be a no-op: %v", err)
	}

	if err := svc.StartNetworking(ctx); err != nil {
		t.Fatalf("restart networking: %v", err)
	}
	if _, err := svc.AddModel(testAddress(t, 3), marketdomain.ListingRequest{AuctionState: 1, RentState: 1}); err != nil {
		t.Fatalf("add model after restart: %v", err)
	}
	if err := svc.StopNetworking(ctx); err != nil {
		t.Fatalf("stop networking: %v", err)
	}
	if got := svc.NotificationStatus().Published; got != 2 {
		t.Fatalf("counters must accumulate across restarts: got=%d want=2", got)
	}
}

func TestDisabledTransportReportsDisabled(t *testing.T) {
	setSecrets(t, "secret")
	t.Setenv(ephemeralEnv, "true")
	svc, err := newServiceWithOptions(testConfig(t, waku.TransportNone), "", testOptions())
	if err != nil {
		t.Fatalf("build service: %v", err)
	}
	if err := svc.StartNetworking(context.Background()); err != nil {
		t.Fatalf("start networking: %v", err)
	}
	status := svc.NotificationStatus()
	if status.Transport != waku.TransportNone || status.State != "disabled" {
		t.Fatalf("unexpected status: %+v", status)
	}
	if err := svc.StopNetworking(context.Background()); err != nil {
		t.Fatalf("stop networking: %v", err)
	}
}
