package usecase

import (
	"context"

	marketmodel "modelmarket/go-backend/internal/domains/marketplace/model"
	"modelmarket/go-backend/internal/platform/amount"
)

// withdrawable resolves the zero-means-all rule against an available amount.
func withdrawable(requested, available amount.Amount) (amount.Amount, error) {
	if requested.IsZero() {
		if available.IsZero() {
			return amount.Zero, marketmodel.ErrNothingToWithdraw
		}
		return available, nil
	}
	if requested.GreaterThan(available) {
		return amount.Zero, marketmodel.ErrInsufficientAvailableBalance
	}
	return requested, nil
}

// Withdraw pays out part of the caller's available balance. A zero amount
// withdraws everything available. The ledger change is rolled back when the
// payout gateway fails.
func (s *Service) Withdraw(ctx context.Context, caller string, requested amount.Amount) (amount.Amount, error) {
	owner, err := normalizeCaller(caller)
	if err != nil {
		return amount.Zero, err
	}
	var paid amount.Amount
	err = s.commit(ctx, "withdraw", func(tx *ledgerTx) error {
		release, err := tx.acquire(owner)
		if err != nil {
			return err
		}
		defer release()

		available, err := tx.account(owner).Available()
		if err != nil {
			return err
		}
		value, err := withdrawable(requested, available)
		if err != nil {
			return err
		}
		if err := tx.debit(owner, value); err != nil {
			return err
		}
		paid = value
		tx.payout = &Payout{Kind: PayoutKindUser, To: owner, Amount: value, RequestedAt: tx.now}
		tx.emit(Event{Type: marketmodel.EventWithdrawal, Address: owner, Amount: marketmodel.Ref(value)})
		return nil
	})
	if err != nil {
		return amount.Zero, err
	}
	s.logInfo("withdrawal paid", "address", owner, "amount", paid.String())
	return paid, nil
}
