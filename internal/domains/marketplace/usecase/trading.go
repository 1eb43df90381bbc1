package usecase

import (
	marketmodel "modelmarket/go-backend/internal/domains/marketplace/model"
	marketpolicy "modelmarket/go-backend/internal/domains/marketplace/policy"
	"modelmarket/go-backend/internal/platform/amount"
)

// Bid places or raises a bid. The full bid is credited to the bidder and
// escrowed; a bidder raising their own top bid only escrows the delta.
func (s *Service) Bid(caller string, id uint64, payment amount.Amount) (Model, error) {
	bidder, err := normalizeCaller(caller)
	if err != nil {
		return Model{}, err
	}
	var updated Model
	err = s.commit(noCtx, "bid", func(tx *ledgerTx) error {
		m, err := tx.model(id)
		if err != nil {
			return err
		}
		switch m.AuctionState {
		case marketmodel.AuctionStateAuctionWithPriceLimit:
		case marketmodel.AuctionStateAuctionWithTimeLimit:
			if marketpolicy.AuctionDeadlinePassed(m, tx.now) {
				return marketmodel.ErrAuctionExpired
			}
		default:
			return marketmodel.ErrNotUnderAuction
		}
		if !payment.GreaterThan(m.TopBidPrice) {
			return marketmodel.ErrBidTooLow
		}
		previous := m.TopBidOwner
		release, err := tx.acquire(bidder, previous)
		if err != nil {
			return err
		}
		defer release()

		if err := tx.credit(bidder, payment); err != nil {
			return err
		}
		if previous == bidder {
			delta, err := payment.Sub(m.TopBidPrice)
			if err != nil {
				return marketmodel.ArithmeticError(err)
			}
			if err := tx.escrow(bidder, delta); err != nil {
				return err
			}
		} else {
			if err := tx.escrow(bidder, payment); err != nil {
				return err
			}
			if previous != "" {
				if err := tx.releaseEscrow(previous, m.TopBidPrice); err != nil {
					return err
				}
			}
		}
		m.TopBidOwner = bidder
		m.TopBidPrice = payment
		tx.putModel(m)
		updated = m
		tx.emit(Event{
			Type:    marketmodel.EventNewBid,
			ModelID: marketmodel.Ref(m.ID),
			Address: bidder,
			Amount:  marketmodel.Ref(payment),
		})
		return nil
	})
	if err != nil {
		return Model{}, err
	}
	s.logInfo("bid accepted", "model_id", id, "bidder", bidder, "amount", payment.String())
	return updated, nil
}

// Buy settles a fixed-price sale at sellPrice and returns the overpayment to
// the buyer's balance.
func (s *Service) Buy(caller string, id uint64, payment amount.Amount) (Model, error) {
	buyer, err := normalizeCaller(caller)
	if err != nil {
		return Model{}, err
	}
	var updated Model
	err = s.commit(noCtx, "buy", func(tx *ledgerTx) error {
		m, err := tx.model(id)
		if err != nil {
			return err
		}
		if m.AuctionState != marketmodel.AuctionStateForSaleWithoutAuction {
			return marketmodel.ErrNotForSale
		}
		if payment.LessThan(m.SellPrice) {
			return marketmodel.ErrInsufficientPayment
		}
		seller := m.Owner
		release, err := tx.acquire(buyer, seller)
		if err != nil {
			return err
		}
		defer release()

		if err := tx.settle("buy", m.SellPrice, seller); err != nil {
			return err
		}
		if err := tx.creditRest(buyer, payment, m.SellPrice); err != nil {
			return err
		}
		price := m.SellPrice
		m.Owner = buyer
		m.OwnerSince = tx.now
		m.ClearAuction()
		tx.putModel(m)
		updated = m
		tx.emit(Event{
			Type:          marketmodel.EventNewOwner,
			ModelID:       marketmodel.Ref(m.ID),
			PreviousOwner: seller,
			NewOwner:      buyer,
			Amount:        marketmodel.Ref(price),
		})
		return nil
	})
	if err != nil {
		return Model{}, err
	}
	s.logInfo("model sold", "model_id", id, "owner", buyer)
	return updated, nil
}

// CloseAuction lets the owner settle the top bid once the auction's own
// closing rule is met.
func (s *Service) CloseAuction(caller string, id uint64) (Model, error) {
	owner, err := normalizeCaller(caller)
	if err != nil {
		return Model{}, err
	}
	var updated Model
	err = s.commit(noCtx, "close_auction", func(tx *ledgerTx) error {
		m, err := tx.ownedModel(id, owner)
		if err != nil {
			return err
		}
		if !m.AuctionState.UnderAuction() {
			return marketmodel.ErrNotUnderAuction
		}
		if !m.HasTopBid() {
			return marketmodel.ErrNoTopBid
		}
		switch m.AuctionState {
		case marketmodel.AuctionStateAuctionWithTimeLimit:
			if !marketpolicy.AuctionDeadlinePassed(m, tx.now) {
				return marketmodel.ErrAuctionNotExpired
			}
		case marketmodel.AuctionStateAuctionWithPriceLimit:
			if m.TopBidPrice.LessThan(m.SellPrice) {
				return marketmodel.ErrReserveNotMet
			}
		}
		release, err := tx.acquire(owner, m.TopBidOwner)
		if err != nil {
			return err
		}
		defer release()

		price := m.TopBidPrice
		settled, err := tx.settleTopBid("close_auction", m)
		if err != nil {
			return err
		}
		tx.putModel(settled)
		updated = settled
		tx.emit(Event{
			Type:          marketmodel.EventNewOwner,
			ModelID:       marketmodel.Ref(settled.ID),
			PreviousOwner: owner,
			NewOwner:      settled.Owner,
			Amount:        marketmodel.Ref(price),
		})
		return nil
	})
	if err != nil {
		return Model{}, err
	}
	s.logInfo("auction closed", "model_id", id, "owner", updated.Owner)
	return updated, nil
}

// Rent charges rentPrice, issues a proof of rental and leaves ownership as is.
func (s *Service) Rent(caller string, id uint64, payment amount.Amount) (ProofOfRental, error) {
	renter, err := normalizeCaller(caller)
	if err != nil {
		return ProofOfRental{}, err
	}
	var proof ProofOfRental
	err = s.commit(noCtx, "rent", func(tx *ledgerTx) error {
		m, err := tx.model(id)
		if err != nil {
			return err
		}
		if m.RentState != marketmodel.RentStateForRent {
			return marketmodel.ErrNotForRent
		}
		if payment.LessThan(m.RentPrice) {
			return marketmodel.ErrInsufficientPayment
		}
		release, err := tx.acquire(renter, m.Owner)
		if err != nil {
			return err
		}
		defer release()

		if err := tx.settle("rent", m.RentPrice, m.Owner); err != nil {
			return err
		}
		if err := tx.creditRest(renter, payment, m.RentPrice); err != nil {
			return err
		}
		if err := marketmodel.Increment(&m.CountOfRents); err != nil {
			return err
		}
		tx.putModel(m)
		proof = ProofOfRental{
			ID:       uint64(len(tx.state.Rentals)),
			ModelID:  m.ID,
			Renter:   renter,
			RentedAt: tx.now,
		}
		tx.state.Rentals = append(tx.state.Rentals, proof)
		tx.emit(Event{
			Type:     marketmodel.EventNewRental,
			ModelID:  marketmodel.Ref(m.ID),
			RentalID: marketmodel.Ref(proof.ID),
			Address:  renter,
		})
		return nil
	})
	if err != nil {
		return ProofOfRental{}, err
	}
	s.logInfo("model rented", "model_id", id, "rental_id", proof.ID, "renter", renter)
	return proof, nil
}

func (s *Service) Like(caller string, id uint64, payment amount.Amount) (Model, error) {
	return s.feedback(caller, id, payment, true)
}

func (s *Service) Dislike(caller string, id uint64, payment amount.Amount) (Model, error) {
	return s.feedback(caller, id, payment, false)
}

// feedback sends the whole feedback price to the fee pool; owners earn nothing
// from likes.
func (s *Service) feedback(caller string, id uint64, payment amount.Amount, isLike bool) (Model, error) {
	author, err := normalizeCaller(caller)
	if err != nil {
		return Model{}, err
	}
	op := "dislike"
	if isLike {
		op = "like"
	}
	var updated Model
	err = s.commit(noCtx, op, func(tx *ledgerTx) error {
		m, err := tx.model(id)
		if err != nil {
			return err
		}
		price := tx.state.Admin.FeedbackPrice
		if payment.LessThan(price) {
			return marketmodel.ErrInsufficientPayment
		}
		release, err := tx.acquire(author)
		if err != nil {
			return err
		}
		defer release()

		if err := tx.addToFeePool(price); err != nil {
			return err
		}
		if err := tx.creditRest(author, payment, price); err != nil {
			return err
		}
		counter := &m.Dislikes
		if isLike {
			counter = &m.Likes
		}
		if err := marketmodel.Increment(counter); err != nil {
			return err
		}
		tx.putModel(m)
		updated = m
		tx.settlements = append(tx.settlements, settlement{kind: op, split: Split{Price: price, Fee: price}})
		tx.emit(Event{
			Type:    marketmodel.EventNewFeedback,
			ModelID: marketmodel.Ref(m.ID),
			Address: author,
			IsLike:  marketmodel.Ref(isLike),
		})
		return nil
	})
	if err != nil {
		return Model{}, err
	}
	return updated, nil
}
