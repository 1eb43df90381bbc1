package usecase

import (
	"context"
	"time"

	"modelmarket/go-backend/internal/platform/amount"
)

// SnapshotPersist stores a state that is about to be committed.
type SnapshotPersist func(state State) error

// SecretStore owns the admin secret hash.
type SecretStore interface {
	Verify(secret string) bool
	Rotate(newSecret string) error
}

type PayoutKind string

const (
	PayoutKindUser     PayoutKind = "user"
	PayoutKindPlatform PayoutKind = "platform"
)

// Payout moves value out of the ledger to a recipient.
type Payout struct {
	Kind        PayoutKind    `json:"kind"`
	To          Address       `json:"to"`
	Amount      amount.Amount `json:"amount"`
	RequestedAt time.Time     `json:"requested_at"`
}

type PayoutGateway interface {
	Transfer(ctx context.Context, payout Payout) error
}

// EventSink receives one notification per committed operation.
type EventSink interface {
	Emit(event Event)
}

// OperationRecorder is the metrics port.
type OperationRecorder interface {
	RecordOperation(op string, err error)
	RecordSettlement(kind string, split Split)
	SetFeePool(pool amount.Amount)
}
