package adminsecret

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"modelmarket/go-backend/internal/securestore"

	"github.com/tyler-smith/go-bip39"
	"golang.org/x/crypto/argon2"
)

const (
	recordVersion = 1
	filePurpose   = "admin-secret"
	saltSize      = 16
	hashSize      = 32

	maxFailedAttempts = 5
	lockoutWindow     = 30 * time.Second
)

var (
	ErrSecretRequired  = errors.New("admin secret is required")
	ErrNotBootstrapped = errors.New("admin secret store is not bootstrapped")
)

type hashParams struct {
	Time     uint32 `json:"time"`
	MemoryKB uint32 `json:"memory_kb"`
	Threads  uint8  `json:"threads"`
}

var defaultHashParams = hashParams{Time: 2, MemoryKB: 19 * 1024, Threads: 1}

type record struct {
	Version   int        `json:"version"`
	Params    hashParams `json:"params"`
	Salt      []byte     `json:"salt"`
	Hash      []byte     `json:"hash"`
	RotatedAt time.Time  `json:"rotated_at"`
}

// Store holds only the argon2id hash of the admin secret. When configured
// with a path and passphrase the hash survives restarts in an encrypted file.
type Store struct {
	mu             sync.Mutex
	path           string
	passphrase     string
	current        *record
	failedAttempts int
	lockedUntil    time.Time
	now            func() time.Time
}

func NewStore() *Store {
	return &Store{now: time.Now}
}

func newStoreWithClock(now func() time.Time) *Store {
	return &Store{now: now}
}

func (s *Store) Configure(path, passphrase string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.path, s.passphrase = securestore.NormalizeStorageConfig(path, passphrase)
}

// Bootstrap loads a persisted hash. When none exists, initial becomes the
// secret. A persisted hash always wins over initial, since rotations must
// survive restarts.
func (s *Store) Bootstrap(initial string) (loaded bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if securestore.IsStorageConfigured(s.path, s.passphrase) {
		plaintext, err := securestore.ReadDecryptedFile(s.path, s.passphrase, filePurpose)
		switch {
		case err == nil:
			var rec record
			if err := json.Unmarshal(plaintext, &rec); err != nil {
				return false, err
			}
			if rec.Version != recordVersion || len(rec.Hash) != hashSize || len(rec.Salt) != saltSize {
				return false, errors.New("admin secret record is invalid")
			}
			s.current = &rec
			return true, nil
		case !errors.Is(err, fs.ErrNotExist):
			return false, fmt.Errorf("read admin secret: %w", err)
		}
	}
	if strings.TrimSpace(initial) == "" {
		return false, ErrSecretRequired
	}
	return false, s.installLocked(initial)
}

// Verify compares in constant time. Repeated failures close verification for
// a short window.
func (s *Store) Verify(secret string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return false
	}
	now := s.now()
	if now.Before(s.lockedUntil) {
		return false
	}
	candidate := argon2.IDKey([]byte(secret), s.current.Salt, s.current.Params.Time, s.current.Params.MemoryKB, s.current.Params.Threads, hashSize)
	if subtle.ConstantTimeCompare(candidate, s.current.Hash) == 1 {
		s.failedAttempts = 0
		return true
	}
	s.failedAttempts++
	if s.failedAttempts >= maxFailedAttempts {
		s.failedAttempts = 0
		s.lockedUntil = now.Add(lockoutWindow)
	}
	return false
}

func (s *Store) Rotate(newSecret string) error {
	if strings.TrimSpace(newSecret) == "" {
		return ErrSecretRequired
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.current == nil {
		return ErrNotBootstrapped
	}
	return s.installLocked(newSecret)
}

func (s *Store) installLocked(secret string) error {
	salt := make([]byte, saltSize)
	if _, err := rand.Read(salt); err != nil {
		return err
	}
	p := defaultHashParams
	rec := &record{
		Version:   recordVersion,
		Params:    p,
		Salt:      salt,
		Hash:      argon2.IDKey([]byte(secret), salt, p.Time, p.MemoryKB, p.Threads, hashSize),
		RotatedAt: s.now().UTC(),
	}
	if securestore.IsStorageConfigured(s.path, s.passphrase) {
		if err := securestore.WriteEncryptedJSON(s.path, s.passphrase, filePurpose, rec); err != nil {
			return fmt.Errorf("persist admin secret: %w", err)
		}
	}
	s.current = rec
	s.failedAttempts = 0
	s.lockedUntil = time.Time{}
	return nil
}

// GenerateMnemonic returns a fresh 24-word secret.
func GenerateMnemonic() (string, error) {
	entropy, err := bip39.NewEntropy(256)
	if err != nil {
		return "", err
	}
	return bip39.NewMnemonic(entropy)
}

// WriteSecretFile hands a generated secret to the operator. It refuses to
// overwrite an existing file.
func WriteSecretFile(path, secret string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return err
	}
	if _, err := f.WriteString(secret + "\n"); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
