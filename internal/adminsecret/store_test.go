package adminsecret

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/tyler-smith/go-bip39"
)

func TestStoreVerifyAndRotate(t *testing.T) {
	store := NewStore()
	if _, err := store.Bootstrap("first"); err != nil {
		t.Fatalf("bootstrap failed: %v", err)
	}
	if !store.Verify("first") {
		t.Fatal("expected initial secret to verify")
	}
	if store.Verify("First") {
		t.Fatal("expected different secret to fail")
	}
	if err := store.Rotate("second"); err != nil {
		t.Fatalf("rotate failed: %v", err)
	}
	if store.Verify("first") || !store.Verify("second") {
		t.Fatal("rotation did not replace the secret")
	}
	if err := store.Rotate("  "); !errors.Is(err, ErrSecretRequired) {
		t.Fatalf("expected ErrSecretRequired, got %v", err)
	}
}

func TestStoreRequiresBootstrap(t *testing.T) {
	store := NewStore()
	if store.Verify("anything") {
		t.Fatal("unbootstrapped store must not verify")
	}
	if err := store.Rotate("next"); !errors.Is(err, ErrNotBootstrapped) {
		t.Fatalf("expected ErrNotBootstrapped, got %v", err)
	}
	if _, err := store.Bootstrap(""); !errors.Is(err, ErrSecretRequired) {
		t.Fatalf("expected ErrSecretRequired, got %v", err)
	}
}

func TestStorePersistedRotationWinsOverInitial(t *testing.T) {
	path := filepath.Join(t.TempDir(), "admin_secret.enc")
	store := NewStore()
	store.Configure(path, "storage-pass")
	loaded, err := store.Bootstrap("first")
	if err != nil || loaded {
		t.Fatalf("first bootstrap: loaded=%v err=%v", loaded, err)
	}
	if err := store.Rotate("rotated"); err != nil {
		t.Fatalf("rotate failed: %v", err)
	}

	restarted := NewStore()
	restarted.Configure(path, "storage-pass")
	loaded, err = restarted.Bootstrap("first")
	if err != nil || !loaded {
		t.Fatalf("second bootstrap: loaded=%v err=%v", loaded, err)
	}
	if restarted.Verify("first") || !restarted.Verify("rotated") {
		t.Fatal("persisted rotation was not restored")
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read file: %v", err)
	}
	if strings.Contains(string(raw), "rotated") {
		t.Fatal("secret leaked into the persisted file")
	}
}

func TestStoreLocksOutAfterRepeatedFailures(t *testing.T) {
	now := time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC)
	store := newStoreWithClock(func() time.Time { return now })
	if _, err := store.Bootstrap("secret"); err != nil {
		t.Fatalf("bootstrap failed: %v", err)
	}
	for i := 0; i < maxFailedAttempts; i++ {
		store.Verify("wrong")
	}
	if store.Verify("secret") {
		t.Fatal("expected verification to be closed during lockout")
	}
	now = now.Add(lockoutWindow)
	if !store.Verify("secret") {
		t.Fatal("expected verification after lockout window")
	}
}

func TestGenerateMnemonicAndWriteSecretFile(t *testing.T) {
	mnemonic, err := GenerateMnemonic()
	if err != nil {
		t.Fatalf("generate failed: %v", err)
	}
	if !bip39.IsMnemonicValid(mnemonic) || len(strings.Fields(mnemonic)) != 24 {
		t.Fatalf("unexpected mnemonic: %q", mnemonic)
	}
	path := filepath.Join(t.TempDir(), "secret.txt")
	if err := WriteSecretFile(path, mnemonic); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	if err := WriteSecretFile(path, mnemonic); err == nil {
		t.Fatal("expected existing secret file to be preserved")
	}
	raw, err := os.ReadFile(path)
	if err != nil || strings.TrimSpace(string(raw)) != mnemonic {
		t.Fatalf("unexpected secret file: %q err=%v", raw, err)
	}
}
