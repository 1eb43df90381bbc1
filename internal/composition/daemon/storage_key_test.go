package daemon

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"modelmarket/go-backend/internal/securestore"
	"modelmarket/go-backend/internal/testutil/fsperm"
)

func TestStoragePassphrasePrefersEnvironment(t *testing.T) {
	t.Setenv(storagePassphraseEnv, "  from-env  ")
	dataDir := t.TempDir()

	secret, err := StoragePassphrase(dataDir)
	if err != nil {
		t.Fatalf("storage passphrase: %v", err)
	}
	if secret != "from-env" {
		t.Fatalf("unexpected passphrase: got=%q want=%q", secret, "from-env")
	}
	if _, err := os.Stat(filepath.Join(dataDir, storageKeyFileName)); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("env passphrase must not write storage.key, stat err=%v", err)
	}
}

func TestStoragePassphraseGeneratesAndReusesKeyFile(t *testing.T) {
	t.Setenv(storagePassphraseEnv, "")
	t.Setenv("MKT_ENV", "")
	dataDir := filepath.Join(t.TempDir(), "data")

	first, err := StoragePassphrase(dataDir)
	if err != nil {
		t.Fatalf("generate passphrase: %v", err)
	}
	if first == "" {
		t.Fatal("generated passphrase must not be empty")
	}
	fsperm.AssertPrivateDirPerm(t, dataDir)
	info, err := os.Stat(filepath.Join(dataDir, storageKeyFileName))
	if err != nil {
		t.Fatalf("stat storage key: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Fatalf("unexpected storage key perm: got=%04o want=%04o", perm, 0o600)
	}

	second, err := StoragePassphrase(dataDir)
	if err != nil {
		t.Fatalf("reuse passphrase: %v", err)
	}
	if second != first {
		t.Fatal("existing storage.key must be reused")
	}
}

func TestStoragePassphraseRefusesToRegenerateForExistingLedger(t *testing.T) {
	t.Setenv(storagePassphraseEnv, "")
	t.Setenv("MKT_ENV", "")
	dataDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dataDir, snapshotFileName), []byte("sealed"), 0o600); err != nil {
		t.Fatalf("write snapshot marker: %v", err)
	}

	_, err := StoragePassphrase(dataDir)
	if !errors.Is(err, ErrStoragePassphraseRequired) {
		t.Fatalf("expected ErrStoragePassphraseRequired, got=%v", err)
	}
}

func TestStoragePassphraseProductionPolicy(t *testing.T) {
	t.Setenv(storagePassphraseEnv, "")
	t.Setenv("MKT_ENV", "production")
	t.Setenv(storageKeyWrappedEnv, "")

	_, err := StoragePassphrase(t.TempDir())
	if !errors.Is(err, ErrInsecureStorageKeyMode) {
		t.Fatalf("production must refuse key generation, got=%v", err)
	}

	dataDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dataDir, storageKeyFileName), []byte("raw-key"), 0o600); err != nil {
		t.Fatalf("write storage key: %v", err)
	}
	if _, err := StoragePassphrase(dataDir); !errors.Is(err, ErrInsecureStorageKeyMode) {
		t.Fatalf("production must refuse a raw storage.key, got=%v", err)
	}

	t.Setenv(storageKeyWrappedEnv, "maybe")
	if _, err := StoragePassphrase(dataDir); err == nil || !strings.Contains(err.Error(), "is not a boolean") {
		t.Fatalf("garbage wrapped flag must be rejected, got=%v", err)
	}

	t.Setenv(storageKeyWrappedEnv, "true")
	secret, err := StoragePassphrase(dataDir)
	if err != nil {
		t.Fatalf("wrapped key flow must be allowed: %v", err)
	}
	if secret != "raw-key" {
		t.Fatalf("unexpected passphrase: got=%q want=%q", secret, "raw-key")
	}
}

func TestResolveStorageBuildsBundle(t *testing.T) {
	t.Setenv(storagePassphraseEnv, "bundle-secret")
	dataDir := t.TempDir()

	bundle, err := ResolveStorage("  " + dataDir + "  ")
	if err != nil {
		t.Fatalf("resolve storage: %v", err)
	}
	if bundle.Dir != dataDir || bundle.Passphrase != "bundle-secret" {
		t.Fatalf("unexpected bundle: %+v", bundle)
	}
	if bundle.SnapshotPath != filepath.Join(dataDir, "marketplace.enc") {
		t.Fatalf("unexpected snapshot path: %s", bundle.SnapshotPath)
	}
	if bundle.AdminSecretPath != filepath.Join(dataDir, "admin_secret.enc") {
		t.Fatalf("unexpected admin secret path: %s", bundle.AdminSecretPath)
	}
}

func TestExplainStorageError(t *testing.T) {
	if got := ExplainStorageError(nil); got != nil {
		t.Fatalf("nil must stay nil, got=%v", got)
	}
	plain := errors.New("disk full")
	if got := ExplainStorageError(plain); got != plain {
		t.Fatalf("unrelated errors must pass through, got=%v", got)
	}
	wrapped := ExplainStorageError(fmt.Errorf("bootstrap: %w", securestore.ErrAuthFailed))
	if !errors.Is(wrapped, securestore.ErrAuthFailed) {
		t.Fatalf("explained error must keep the cause, got=%v", wrapped)
	}
	if !strings.Contains(wrapped.Error(), storagePassphraseEnv) {
		t.Fatalf("explained error must name %s, got=%v", storagePassphraseEnv, wrapped)
	}
}
