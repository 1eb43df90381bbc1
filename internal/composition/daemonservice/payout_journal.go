package daemonservice

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"

	"modelmarket/go-backend/internal/domains/marketplace/adapters/outbox"
	"modelmarket/go-backend/internal/securestore"
)

const (
	payoutJournalPurpose = "payout-outbox"
	payoutJournalVersion = 1
)

type persistedPayoutJournal struct {
	Version int            `json:"version"`
	Journal outbox.Journal `json:"journal"`
}

// payoutJournal seals the outbox next to the ledger snapshot. Debited
// withdrawals must survive a restart until a settlement worker acks them.
type payoutJournal struct {
	path   string
	secret string
}

func newPayoutJournal(path, secret string) *payoutJournal {
	path, secret = securestore.NormalizeStorageConfig(path, secret)
	return &payoutJournal{path: path, secret: secret}
}

func (j *payoutJournal) configured() bool {
	return securestore.IsStorageConfigured(j.path, j.secret)
}

func (j *payoutJournal) load() (outbox.Journal, error) {
	if !j.configured() {
		return outbox.Journal{}, nil
	}
	plaintext, err := securestore.ReadDecryptedFile(j.path, j.secret, payoutJournalPurpose)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return outbox.Journal{}, nil
		}
		return outbox.Journal{}, fmt.Errorf("read payout journal: %w", err)
	}
	defer clear(plaintext)
	var payload persistedPayoutJournal
	if err := json.Unmarshal(plaintext, &payload); err != nil {
		return outbox.Journal{}, fmt.Errorf("decode payout journal: %w", err)
	}
	if payload.Version != payoutJournalVersion {
		return outbox.Journal{}, outbox.ErrInvalidJournal
	}
	return payload.Journal, nil
}

func (j *payoutJournal) persist(journal outbox.Journal) error {
	if !j.configured() {
		return nil
	}
	return securestore.WriteEncryptedJSON(j.path, j.secret, payoutJournalPurpose, persistedPayoutJournal{
		Version: payoutJournalVersion,
		Journal: journal,
	})
}
