package usecase

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	marketmodel "modelmarket/go-backend/internal/domains/marketplace/model"
	marketpolicy "modelmarket/go-backend/internal/domains/marketplace/policy"
)

// Service runs every marketplace operation to completion under one mutex.
// Each operation mutates a clone; only a fully successful clone is persisted
// and swapped in.
type Service struct {
	mu    sync.Mutex
	state State

	Persist  SnapshotPersist
	Secrets  SecretStore
	Payouts  PayoutGateway
	Events   EventSink
	Metrics  OperationRecorder
	Now      func() time.Time
	LogInfo  func(message string, args ...any)
	LogError func(message string, args ...any)
}

// Load replaces the in-memory state, typically with a bootstrapped snapshot.
func (s *Service) Load(state State) error {
	if err := marketmodel.ValidateState(state); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = state.Clone()
	s.setFeePool()
	return nil
}

// Snapshot returns a copy of the committed state.
func (s *Service) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

func (s *Service) nowUTC() time.Time {
	if s.Now == nil {
		return time.Now().UTC()
	}
	return s.Now().UTC()
}

func (s *Service) logInfo(message string, args ...any) {
	if s.LogInfo != nil {
		s.LogInfo(message, args...)
	}
}

func (s *Service) logError(message string, args ...any) {
	if s.LogError != nil {
		s.LogError(message, args...)
	}
}

func (s *Service) setFeePool() {
	if s.Metrics != nil {
		s.Metrics.SetFeePool(s.state.Admin.AvailableBalance)
	}
}

func normalizeCaller(raw string) (Address, error) {
	return marketpolicy.NormalizeAddress(raw)
}

// commit is the all-or-nothing boundary shared by every mutating operation.
func (s *Service) commit(ctx context.Context, op string, fn func(tx *ledgerTx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.commitLocked(ctx, fn)
	if s.Metrics != nil {
		s.Metrics.RecordOperation(op, err)
	}
	if err != nil {
		s.logInfo("marketplace operation rejected", "op", op, "reason", marketmodel.ReasonOf(err))
	}
	return err
}

func (s *Service) commitLocked(ctx context.Context, fn func(tx *ledgerTx) error) error {
	if s.state.Accounts == nil {
		s.state = marketmodel.NewState(s.state.Admin)
	}
	tx := newLedgerTx(s.state, s.nowUTC())
	if err := fn(tx); err != nil {
		return err
	}
	for addr, acc := range tx.state.Accounts {
		if err := acc.Validate(); err != nil {
			return fmt.Errorf("%w: %s", err, addr)
		}
	}
	if s.Persist != nil {
		if err := s.Persist(tx.state); err != nil {
			return fmt.Errorf("persist marketplace state: %w", err)
		}
	}
	if tx.payout != nil {
		if err := s.transfer(ctx, *tx.payout); err != nil {
			s.rollbackPersisted()
			return marketmodel.ErrTransferFailed.WithCause(err)
		}
	}
	// The secret store writes through, so rotation runs only once the state
	// that records it is durable.
	if tx.nextSecret != nil {
		if err := s.rotateSecret(*tx.nextSecret); err != nil {
			s.rollbackPersisted()
			return err
		}
	}

	s.state = tx.state
	s.setFeePool()
	if s.Metrics != nil {
		for _, st := range tx.settlements {
			s.Metrics.RecordSettlement(st.kind, st.split)
		}
	}
	if tx.event != nil && s.Events != nil {
		s.Events.Emit(*tx.event)
	}
	return nil
}

// rollbackPersisted restores the last committed snapshot after a later
// commit stage failed.
func (s *Service) rollbackPersisted() {
	if s.Persist == nil {
		return
	}
	if err := s.Persist(s.state); err != nil {
		s.logError("marketplace rollback persist failed", "error", err)
	}
}

func (s *Service) rotateSecret(next string) error {
	if s.Secrets == nil {
		return fmt.Errorf("rotate admin secret: secret store is not configured")
	}
	if err := s.Secrets.Rotate(next); err != nil {
		return fmt.Errorf("rotate admin secret: %w", err)
	}
	return nil
}

func (s *Service) transfer(ctx context.Context, payout Payout) error {
	if s.Payouts == nil {
		return fmt.Errorf("payout gateway is not configured")
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.Payouts.Transfer(ctx, payout)
}

// authorizeAdmin checks identity first, then the secret.
func (s *Service) authorizeAdmin(tx *ledgerTx, caller Address, secret string) error {
	if tx.state.Admin.AdminAddress == "" || caller != tx.state.Admin.AdminAddress {
		return marketmodel.ErrNotAdmin
	}
	if strings.TrimSpace(secret) == "" || s.Secrets == nil || !s.Secrets.Verify(secret) {
		return marketmodel.ErrInvalidSecret
	}
	return nil
}

// noCtx is used by operations that never block on external systems.
var noCtx = context.Background()
