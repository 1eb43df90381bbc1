package securestore

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestEncryptDecryptRoundtrip(t *testing.T) {
	data, err := Encrypt("pass", "marketplace", []byte("secret"))
	if err != nil {
		t.Fatalf("encrypt failed: %v", err)
	}
	plain, err := Decrypt("pass", "marketplace", data)
	if err != nil {
		t.Fatalf("decrypt failed: %v", err)
	}
	if string(plain) != "secret" {
		t.Fatalf("unexpected plaintext: %q", string(plain))
	}
}

func TestDecryptTamperedFailsDeterministically(t *testing.T) {
	data, err := Encrypt("pass", "marketplace", []byte("secret"))
	if err != nil {
		t.Fatalf("encrypt failed: %v", err)
	}
	if len(data) < 10 {
		t.Fatalf("unexpected encrypted payload size: %d", len(data))
	}
	data[len(data)-2] ^= 0xFF
	_, err = Decrypt("pass", "marketplace", data)
	if !errors.Is(err, ErrAuthFailed) && !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrAuthFailed, got %v", err)
	}
}

func TestDecryptRejectsWrongPassphraseAndPurpose(t *testing.T) {
	data, err := Encrypt("pass", "marketplace", []byte("secret"))
	if err != nil {
		t.Fatalf("encrypt failed: %v", err)
	}
	if _, err := Decrypt("other", "marketplace", data); !errors.Is(err, ErrAuthFailed) {
		t.Fatalf("expected ErrAuthFailed, got %v", err)
	}
	if _, err := Decrypt("pass", "admin-secret", data); !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid for purpose mismatch, got %v", err)
	}
	if _, err := Decrypt("pass", "marketplace", []byte(`{"models":[]}`)); !errors.Is(err, ErrNotEnvelope) {
		t.Fatalf("expected ErrNotEnvelope, got %v", err)
	}
}

func TestEncryptEnvelopeRejectsUnboundedParams(t *testing.T) {
	_, err := EncryptEnvelope("pass", "marketplace", []byte("x"), KDFParams{Time: 1, MemoryKB: 1 << 30, Threads: 1})
	if !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid, got %v", err)
	}
}

func TestWriteEncryptedJSONReplacesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "state.enc")
	if err := WriteEncryptedJSON(path, "pass", "marketplace", map[string]int{"v": 1}); err != nil {
		t.Fatalf("first write failed: %v", err)
	}
	if err := WriteEncryptedJSON(path, "pass", "marketplace", map[string]int{"v": 2}); err != nil {
		t.Fatalf("second write failed: %v", err)
	}
	plain, err := ReadDecryptedFile(path, "pass", "marketplace")
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if string(plain) != `{"v":2}` {
		t.Fatalf("unexpected payload: %s", plain)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat failed: %v", err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Fatalf("unexpected file mode: %v", info.Mode().Perm())
	}
	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatalf("read dir failed: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("temp files left behind: %d entries", len(entries))
	}
}
