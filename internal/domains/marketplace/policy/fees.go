package policy

import (
	"modelmarket/go-backend/internal/domains/marketplace/model"
	"modelmarket/go-backend/internal/platform/amount"
)

const percentBase = 100

// FeeSchedule keeps FeePercentage + ProfitRate == 100.
type FeeSchedule struct {
	FeePercentage uint8
	ProfitRate    uint8
}

func NewFeeSchedule(feePercentage uint64) (FeeSchedule, error) {
	if feePercentage >= percentBase {
		return FeeSchedule{}, model.ErrFeePercentageOutOfRange
	}
	return FeeSchedule{
		FeePercentage: uint8(feePercentage),
		ProfitRate:    uint8(percentBase - feePercentage),
	}, nil
}

func FeeScheduleOf(cfg model.AdminConfig) FeeSchedule {
	return FeeSchedule{FeePercentage: cfg.FeePercentage, ProfitRate: cfg.ProfitRate}
}

// Split is the settlement of one price. Remainder is the integer-division dust
// the seller receives on top of Profit, so Fee+Profit+Remainder == Price.
type Split struct {
	Price     amount.Amount
	Fee       amount.Amount
	Profit    amount.Amount
	Remainder amount.Amount
}

// SellerShare is what the owner is credited.
func (s Split) SellerShare() (amount.Amount, error) {
	share, err := s.Profit.Add(s.Remainder)
	return share, model.ArithmeticError(err)
}

func (f FeeSchedule) Fee(base amount.Amount) (amount.Amount, error) {
	fee, err := base.MulDiv(uint64(f.FeePercentage), percentBase)
	return fee, model.ArithmeticError(err)
}

func (f FeeSchedule) Profit(base amount.Amount) (amount.Amount, error) {
	profit, err := base.MulDiv(uint64(f.ProfitRate), percentBase)
	return profit, model.ArithmeticError(err)
}

func (f FeeSchedule) Split(price amount.Amount) (Split, error) {
	fee, err := f.Fee(price)
	if err != nil {
		return Split{}, err
	}
	profit, err := f.Profit(price)
	if err != nil {
		return Split{}, err
	}
	allocated, err := fee.Add(profit)
	if err != nil {
		return Split{}, model.ArithmeticError(err)
	}
	remainder, err := price.Sub(allocated)
	if err != nil {
		return Split{}, model.ArithmeticError(err)
	}
	return Split{Price: price, Fee: fee, Profit: profit, Remainder: remainder}, nil
}

// Rest is the overpayment returned to the payer's balance.
func Rest(sent, required amount.Amount) (amount.Amount, error) {
	if sent.LessThan(required) {
		return amount.Zero, model.ErrInsufficientPayment
	}
	rest, err := sent.Sub(required)
	return rest, model.ArithmeticError(err)
}
