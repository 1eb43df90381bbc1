package policy

import (
	"time"

	"modelmarket/go-backend/internal/domains/marketplace/model"
	"modelmarket/go-backend/internal/platform/amount"
)

// AuctionTerms is the sale side of a listing as requested by its owner.
type AuctionTerms struct {
	State        model.AuctionState
	SellPrice    amount.Amount
	AuctionLimit time.Time
}

type RentTerms struct {
	State     model.RentState
	RentPrice amount.Amount
}

func ParseAuctionTerms(rawState uint64, sellPrice amount.Amount, limit time.Time, now time.Time) (AuctionTerms, error) {
	state, err := model.AuctionStateFromRaw(rawState)
	if err != nil {
		return AuctionTerms{}, err
	}
	terms := AuctionTerms{State: state, SellPrice: sellPrice, AuctionLimit: limit.UTC()}
	if err := ValidateAuctionTerms(terms, now); err != nil {
		return AuctionTerms{}, err
	}
	return terms, nil
}

func ValidateAuctionTerms(terms AuctionTerms, now time.Time) error {
	switch terms.State {
	case model.AuctionStateAuctionWithTimeLimit:
		if !terms.AuctionLimit.After(now) {
			return model.ErrAuctionLimitNotInFuture
		}
	case model.AuctionStateAuctionWithPriceLimit:
		if terms.SellPrice.IsZero() {
			return model.ErrSellPriceRequired
		}
	}
	return nil
}

func ParseRentTerms(rawState uint64, rentPrice amount.Amount) (RentTerms, error) {
	state, err := model.RentStateFromRaw(rawState)
	if err != nil {
		return RentTerms{}, err
	}
	if state == model.RentStateForRent && rentPrice.IsZero() {
		return RentTerms{}, model.ErrRentPriceRequired
	}
	return RentTerms{State: state, RentPrice: rentPrice}, nil
}

// AuctionDeadlinePassed treats the limit instant itself as passed, so bidding
// and closing never overlap.
func AuctionDeadlinePassed(m model.Model, now time.Time) bool {
	return !now.Before(m.AuctionLimit)
}
