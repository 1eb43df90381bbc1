package daemon

import "path/filepath"

const (
	snapshotFileName    = "marketplace.enc"
	adminSecretFileName = "admin_secret.enc"
)

// StorageBundle names every file the daemon keeps under its data dir.
type StorageBundle struct {
	Dir             string
	Passphrase      string
	SnapshotPath    string
	AdminSecretPath string
}

func BuildStorageBundle(dataDir, secret string) StorageBundle {
	return StorageBundle{
		Dir:             dataDir,
		Passphrase:      secret,
		SnapshotPath:    filepath.Join(dataDir, snapshotFileName),
		AdminSecretPath: filepath.Join(dataDir, adminSecretFileName),
	}
}
