package daemonservice

import (
	"errors"
	"fmt"

	"modelmarket/go-backend/internal/adminsecret"
)

const (
	adminSecretEnv     = "MKT_ADMIN_SECRET"
	adminSecretFileEnv = "MKT_ADMIN_SECRET_FILE"
	adminSecretAuto    = "auto"
)

var ErrAdminSecretFileRequired = errors.New(adminSecretFileEnv + " is required when " + adminSecretEnv + "=auto")

type adminSecretOutcome struct {
	loaded        bool
	generatedPath string
	envIgnored    bool
}

// bootstrapAdminSecret installs the admin secret. A persisted hash always
// wins; MKT_ADMIN_SECRET=auto generates a mnemonic only when none exists and
// hands it to the operator through a private file.
func bootstrapAdminSecret(store *adminsecret.Store, defaultSecretFile string) (adminSecretOutcome, error) {
	raw := envString(adminSecretEnv)
	if raw != adminSecretAuto {
		loaded, err := store.Bootstrap(raw)
		if err != nil {
			if errors.Is(err, adminsecret.ErrSecretRequired) {
				return adminSecretOutcome{}, fmt.Errorf("%w: set %s", err, adminSecretEnv)
			}
			return adminSecretOutcome{}, err
		}
		return adminSecretOutcome{loaded: loaded, envIgnored: loaded && raw != ""}, nil
	}

	loaded, err := store.Bootstrap("")
	if err == nil {
		return adminSecretOutcome{loaded: loaded}, nil
	}
	if !errors.Is(err, adminsecret.ErrSecretRequired) {
		return adminSecretOutcome{}, err
	}
	path := envString(adminSecretFileEnv)
	if path == "" {
		path = defaultSecretFile
	}
	if path == "" {
		return adminSecretOutcome{}, ErrAdminSecretFileRequired
	}
	mnemonic, err := adminsecret.GenerateMnemonic()
	if err != nil {
		return adminSecretOutcome{}, err
	}
	if err := adminsecret.WriteSecretFile(path, mnemonic); err != nil {
		return adminSecretOutcome{}, fmt.Errorf("write generated admin secret: %w", err)
	}
	if _, err := store.Bootstrap(mnemonic); err != nil {
		return adminSecretOutcome{}, err
	}
	return adminSecretOutcome{generatedPath: path}, nil
}
