package marketplace

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"

	marketmodel "modelmarket/go-backend/internal/domains/marketplace/model"
	"modelmarket/go-backend/internal/securestore"
)

const (
	snapshotPurpose = "marketplace-state"
	snapshotVersion = 1
)

var ErrAdminAddressMismatch = errors.New("configured admin address differs from persisted state")

type persistedMarketState struct {
	Version int   `json:"version"`
	State   State `json:"state"`
}

// SnapshotStore keeps the whole marketplace state in one encrypted file.
// Without a path and passphrase it is inert and the ledger is memory only.
type SnapshotStore struct {
	path   string
	secret string
}

func NewSnapshotStore() *SnapshotStore {
	return &SnapshotStore{}
}

func (s *SnapshotStore) Configure(path, secret string) {
	s.path, s.secret = securestore.NormalizeStorageConfig(path, secret)
}

func (s *SnapshotStore) Configured() bool {
	return securestore.IsStorageConfigured(s.path, s.secret)
}

// Bootstrap loads the persisted state, or seeds a fresh one from defaults.
// Fee settings and the fee pool always come from the snapshot once it
// exists; only the admin address is cross-checked against configuration.
func (s *SnapshotStore) Bootstrap(defaults AdminConfig) (State, error) {
	if !s.Configured() {
		return NewState(defaults), nil
	}
	plaintext, err := securestore.ReadDecryptedFile(s.path, s.secret, snapshotPurpose)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			state := NewState(defaults)
			if err := s.Persist(state); err != nil {
				return State{}, err
			}
			return state, nil
		}
		return State{}, err
	}
	defer clear(plaintext)

	var payload persistedMarketState
	if err := json.Unmarshal(plaintext, &payload); err != nil {
		return State{}, err
	}
	if payload.Version != snapshotVersion {
		return State{}, errors.New("marketplace state persistence payload is invalid")
	}
	state := normalizeState(payload.State)
	if err := marketmodel.ValidateState(state); err != nil {
		return State{}, fmt.Errorf("marketplace state snapshot: %w", err)
	}
	if defaults.AdminAddress != "" && state.Admin.AdminAddress != defaults.AdminAddress {
		return State{}, ErrAdminAddressMismatch
	}
	return state, nil
}

func (s *SnapshotStore) Persist(state State) error {
	if !s.Configured() {
		return nil
	}
	if err := marketmodel.ValidateState(state); err != nil {
		return err
	}
	return securestore.WriteEncryptedJSON(s.path, s.secret, snapshotPurpose, persistedMarketState{
		Version: snapshotVersion,
		State:   normalizeState(state),
	})
}

func (s *SnapshotStore) Wipe() error {
	if s.path == "" {
		return nil
	}
	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

func normalizeState(state State) State {
	out := state.Clone()
	if out.Models == nil {
		out.Models = []marketmodel.Model{}
	}
	if out.Rentals == nil {
		out.Rentals = []marketmodel.ProofOfRental{}
	}
	return out
}
