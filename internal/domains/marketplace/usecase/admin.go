package usecase

import (
	"context"
	"strings"

	marketmodel "modelmarket/go-backend/internal/domains/marketplace/model"
	marketpolicy "modelmarket/go-backend/internal/domains/marketplace/policy"
	"modelmarket/go-backend/internal/platform/amount"
)

// AdminCredentials identifies a privileged call. Both fields are checked on
// every admin operation.
type AdminCredentials struct {
	Caller string
	Secret string
}

func (s *Service) adminCommit(ctx context.Context, op string, creds AdminCredentials, fn func(tx *ledgerTx) error) error {
	caller, err := normalizeCaller(creds.Caller)
	if err != nil {
		return marketmodel.ErrNotAdmin
	}
	return s.commit(ctx, op, func(tx *ledgerTx) error {
		if err := s.authorizeAdmin(tx, caller, creds.Secret); err != nil {
			return err
		}
		return fn(tx)
	})
}

// AdminWithdraw pays out of the platform fee pool to the admin address.
func (s *Service) AdminWithdraw(ctx context.Context, creds AdminCredentials, requested amount.Amount) (amount.Amount, error) {
	var paid amount.Amount
	err := s.adminCommit(ctx, "admin_withdraw", creds, func(tx *ledgerTx) error {
		value, err := withdrawable(requested, tx.state.Admin.AvailableBalance)
		if err != nil {
			return err
		}
		pool, err := tx.state.Admin.AvailableBalance.Sub(value)
		if err != nil {
			return marketmodel.ArithmeticError(err)
		}
		tx.state.Admin.AvailableBalance = pool
		paid = value
		to := tx.state.Admin.AdminAddress
		tx.payout = &Payout{Kind: PayoutKindPlatform, To: to, Amount: value, RequestedAt: tx.now}
		tx.emit(Event{Type: marketmodel.EventAdminWithdrawal, Address: to, Amount: marketmodel.Ref(value)})
		return nil
	})
	if err != nil {
		return amount.Zero, err
	}
	s.logInfo("fee pool withdrawal paid", "amount", paid.String())
	return paid, nil
}

// ChangeSecret rotates the admin secret. There is no recovery path: whoever
// holds the current secret decides the next one.
func (s *Service) ChangeSecret(creds AdminCredentials, newSecret string) error {
	err := s.adminCommit(noCtx, "change_secret", creds, func(tx *ledgerTx) error {
		if strings.TrimSpace(newSecret) == "" {
			return marketmodel.ErrSecretRequired
		}
		tx.nextSecret = &newSecret
		tx.emit(Event{Type: marketmodel.EventSecretRotated, Address: tx.state.Admin.AdminAddress})
		return nil
	})
	if err != nil {
		return err
	}
	s.logInfo("admin secret rotated")
	return nil
}

func (s *Service) ForceLock(creds AdminCredentials, target string) error {
	return s.forceSetLocked(creds, target, true)
}

func (s *Service) ForceUnlock(creds AdminCredentials, target string) error {
	return s.forceSetLocked(creds, target, false)
}

func (s *Service) forceSetLocked(creds AdminCredentials, target string, locked bool) error {
	addr, err := normalizeCaller(target)
	if err != nil {
		return err
	}
	op, eventType := "force_unlock", marketmodel.EventAddressUnlocked
	if locked {
		op, eventType = "force_lock", marketmodel.EventAddressLocked
	}
	err = s.adminCommit(noCtx, op, creds, func(tx *ledgerTx) error {
		tx.setLocked(addr, locked)
		tx.emit(Event{Type: eventType, Address: addr})
		return nil
	})
	if err != nil {
		return err
	}
	s.logInfo("address lock changed", "address", addr, "locked", locked)
	return nil
}

// ForceCloseAuction settles a valid top bid regardless of lock flags, unlocks
// both parties, and always resets the auction fields.
func (s *Service) ForceCloseAuction(creds AdminCredentials, id uint64) (Model, error) {
	var updated Model
	err := s.adminCommit(noCtx, "force_close_auction", creds, func(tx *ledgerTx) error {
		m, err := tx.model(id)
		if err != nil {
			return err
		}
		if !m.AuctionState.UnderAuction() {
			return marketmodel.ErrNotUnderAuction
		}
		event := Event{Type: marketmodel.EventAuctionForceClosed, ModelID: marketmodel.Ref(m.ID)}
		if m.HasTopBid() {
			previous, price := m.Owner, m.TopBidPrice
			settled, err := tx.settleTopBid("force_close_auction", m)
			if err != nil {
				return err
			}
			tx.setLocked(previous, false)
			tx.setLocked(settled.Owner, false)
			m = settled
			event.PreviousOwner = previous
			event.NewOwner = settled.Owner
			event.Amount = marketmodel.Ref(price)
		} else {
			m.ClearAuction()
		}
		tx.putModel(m)
		updated = m
		tx.emit(event)
		return nil
	})
	if err != nil {
		return Model{}, err
	}
	s.logInfo("auction force closed", "model_id", id, "owner", updated.Owner)
	return updated, nil
}

// SetFeePercentage changes the platform cut. Profit rate follows as the
// complement to 100 and applies to the next settlement.
func (s *Service) SetFeePercentage(creds AdminCredentials, feePercentage uint64) (FeeSchedule, error) {
	var schedule FeeSchedule
	err := s.adminCommit(noCtx, "set_fee_percentage", creds, func(tx *ledgerTx) error {
		next, err := marketpolicy.NewFeeSchedule(feePercentage)
		if err != nil {
			return err
		}
		schedule = next
		tx.state.Admin.FeePercentage = schedule.FeePercentage
		tx.state.Admin.ProfitRate = schedule.ProfitRate
		tx.emit(Event{Type: marketmodel.EventFeePercentageChanged, FeePercentage: marketmodel.Ref(schedule.FeePercentage)})
		return nil
	})
	if err != nil {
		return FeeSchedule{}, err
	}
	s.logInfo("fee percentage changed", "fee_percentage", schedule.FeePercentage, "profit_rate", schedule.ProfitRate)
	return schedule, nil
}

func (s *Service) SetFeedbackPrice(creds AdminCredentials, price amount.Amount) error {
	return s.adminCommit(noCtx, "set_feedback_price", creds, func(tx *ledgerTx) error {
		if price.IsZero() {
			return marketmodel.ErrFeedbackPriceRequired
		}
		tx.state.Admin.FeedbackPrice = price
		tx.emit(Event{Type: marketmodel.EventFeedbackPriceChanged, Amount: marketmodel.Ref(price)})
		return nil
	})
}
