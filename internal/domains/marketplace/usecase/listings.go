package usecase

import (
	"time"

	marketmodel "modelmarket/go-backend/internal/domains/marketplace/model"
	marketpolicy "modelmarket/go-backend/internal/domains/marketplace/policy"
	"modelmarket/go-backend/internal/platform/amount"
)

// ListingRequest carries raw enum codes exactly as received from a client.
type ListingRequest struct {
	AuctionState uint64
	SellPrice    amount.Amount
	AuctionLimit time.Time
	RentState    uint64
	RentPrice    amount.Amount
}

func (s *Service) AddModel(caller string, req ListingRequest) (Model, error) {
	owner, err := normalizeCaller(caller)
	if err != nil {
		return Model{}, err
	}
	var created Model
	err = s.commit(noCtx, "add_model", func(tx *ledgerTx) error {
		auction, err := marketpolicy.ParseAuctionTerms(req.AuctionState, req.SellPrice, req.AuctionLimit, tx.now)
		if err != nil {
			return err
		}
		rent, err := marketpolicy.ParseRentTerms(req.RentState, req.RentPrice)
		if err != nil {
			return err
		}
		release, err := tx.acquire(owner)
		if err != nil {
			return err
		}
		defer release()

		created = Model{
			ID:           uint64(len(tx.state.Models)),
			Owner:        owner,
			CreatedAt:    tx.now,
			OwnerSince:   tx.now,
			AuctionState: auction.State,
			SellPrice:    auction.SellPrice,
			AuctionLimit: auction.AuctionLimit,
			RentState:    rent.State,
			RentPrice:    rent.RentPrice,
		}
		tx.state.Models = append(tx.state.Models, created)
		tx.emit(Event{Type: marketmodel.EventListingAdded, ModelID: marketmodel.Ref(created.ID), Address: owner})
		return nil
	})
	if err != nil {
		return Model{}, err
	}
	s.logInfo("listing added", "model_id", created.ID, "owner", owner, "auction_state", created.AuctionState.String())
	return created, nil
}

// SetAuction changes the sale terms. A running auction must be closed first.
func (s *Service) SetAuction(caller string, id uint64, rawState uint64, sellPrice amount.Amount, auctionLimit time.Time) (Model, error) {
	owner, err := normalizeCaller(caller)
	if err != nil {
		return Model{}, err
	}
	var updated Model
	err = s.commit(noCtx, "set_auction", func(tx *ledgerTx) error {
		m, err := tx.ownedModel(id, owner)
		if err != nil {
			return err
		}
		if m.AuctionState.UnderAuction() {
			return marketmodel.ErrAuctionInProgress
		}
		terms, err := marketpolicy.ParseAuctionTerms(rawState, sellPrice, auctionLimit, tx.now)
		if err != nil {
			return err
		}
		release, err := tx.acquire(owner)
		if err != nil {
			return err
		}
		defer release()

		m.AuctionState = terms.State
		m.SellPrice = terms.SellPrice
		m.AuctionLimit = terms.AuctionLimit
		m.TopBidOwner = ""
		m.TopBidPrice = amount.Zero
		tx.putModel(m)
		updated = m
		tx.emit(Event{Type: marketmodel.EventListingChanged, ModelID: marketmodel.Ref(m.ID), Address: owner})
		return nil
	})
	if err != nil {
		return Model{}, err
	}
	return updated, nil
}

func (s *Service) SetRent(caller string, id uint64, rawState uint64, rentPrice amount.Amount) (Model, error) {
	owner, err := normalizeCaller(caller)
	if err != nil {
		return Model{}, err
	}
	var updated Model
	err = s.commit(noCtx, "set_rent", func(tx *ledgerTx) error {
		m, err := tx.ownedModel(id, owner)
		if err != nil {
			return err
		}
		terms, err := marketpolicy.ParseRentTerms(rawState, rentPrice)
		if err != nil {
			return err
		}
		release, err := tx.acquire(owner)
		if err != nil {
			return err
		}
		defer release()

		m.RentState = terms.State
		m.RentPrice = terms.RentPrice
		tx.putModel(m)
		updated = m
		tx.emit(Event{Type: marketmodel.EventListingChanged, ModelID: marketmodel.Ref(m.ID), Address: owner})
		return nil
	})
	if err != nil {
		return Model{}, err
	}
	return updated, nil
}

func (tx *ledgerTx) ownedModel(id uint64, caller Address) (Model, error) {
	m, err := tx.model(id)
	if err != nil {
		return Model{}, err
	}
	if m.Owner != caller {
		return Model{}, marketmodel.ErrNotOwner
	}
	return m, nil
}
