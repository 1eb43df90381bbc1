package daemon

import (
	"errors"
	"fmt"
	"strings"

	"modelmarket/go-backend/internal/securestore"
)

const DefaultDataDir = "go-backend/data"

// ResolveStorage picks the data dir and the passphrase protecting it.
func ResolveStorage(dataDir string) (StorageBundle, error) {
	resolvedDir := strings.TrimSpace(dataDir)
	if resolvedDir == "" {
		resolvedDir = DefaultDataDir
	}
	secret, err := StoragePassphrase(resolvedDir)
	if err != nil {
		return StorageBundle{}, err
	}
	return BuildStorageBundle(resolvedDir, secret), nil
}

// ExplainStorageError turns an envelope authentication failure into an
// actionable message; other errors pass through.
func ExplainStorageError(err error) error {
	if err == nil || !errors.Is(err, securestore.ErrAuthFailed) {
		return err
	}
	return fmt.Errorf(
		"storage authentication failed: set %s to the passphrase the ledger was written with: %w",
		storagePassphraseEnv,
		err,
	)
}
