package usecase

import (
	marketmodel "modelmarket/go-backend/internal/domains/marketplace/model"
	"modelmarket/go-backend/internal/platform/amount"
)

const (
	defaultPageLimit = 50
	maxPageLimit     = 500
)

// AccountView is the read model of a ledger entry.
type AccountView struct {
	Address       Address       `json:"address"`
	Balance       amount.Amount `json:"balance"`
	LockedBalance amount.Amount `json:"locked_balance"`
	Available     amount.Amount `json:"available"`
	Locked        bool          `json:"locked"`
}

type Page struct {
	Offset uint64
	Limit  uint64
}

func (p Page) normalize() (Page, error) {
	if p.Limit > maxPageLimit {
		return Page{}, marketmodel.ErrInvalidPage
	}
	if p.Limit == 0 {
		p.Limit = defaultPageLimit
	}
	return p, nil
}

func pageBounds(total int, p Page) (int, int) {
	if p.Offset >= uint64(total) {
		return total, total
	}
	start := int(p.Offset)
	end := total
	if uint64(end-start) > p.Limit {
		end = start + int(p.Limit)
	}
	return start, end
}

func (s *Service) GetModel(id uint64) (Model, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id >= uint64(len(s.state.Models)) {
		return Model{}, marketmodel.ErrModelNotFound
	}
	return s.state.Models[id], nil
}

func (s *Service) CountModels() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return uint64(len(s.state.Models))
}

func (s *Service) CountRentals() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return uint64(len(s.state.Rentals))
}

func (s *Service) GetRental(id uint64) (ProofOfRental, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id >= uint64(len(s.state.Rentals)) {
		return ProofOfRental{}, marketmodel.ErrRentalNotFound
	}
	return s.state.Rentals[id], nil
}

func (s *Service) FeePercentage() uint8 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Admin.FeePercentage
}

func (s *Service) FeedbackPrice() amount.Amount {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Admin.FeedbackPrice
}

func (s *Service) AdminAddress() Address {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Admin.AdminAddress
}

func (s *Service) FeePool() amount.Amount {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Admin.AvailableBalance
}

// GetAccount never fails for a well-formed address; untouched addresses read
// as a zero entry.
func (s *Service) GetAccount(raw string) (AccountView, error) {
	addr, err := normalizeCaller(raw)
	if err != nil {
		return AccountView{}, err
	}
	s.mu.Lock()
	acc := s.state.Accounts[addr]
	s.mu.Unlock()
	available, err := acc.Available()
	if err != nil {
		return AccountView{}, err
	}
	return AccountView{
		Address:       addr,
		Balance:       acc.Balance,
		LockedBalance: acc.LockedBalance,
		Available:     available,
		Locked:        acc.Locked,
	}, nil
}

func (s *Service) ListModels(page Page) ([]Model, uint64, error) {
	page, err := page.normalize()
	if err != nil {
		return nil, 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	start, end := pageBounds(len(s.state.Models), page)
	return append([]Model(nil), s.state.Models[start:end]...), uint64(len(s.state.Models)), nil
}

// ListRentals pages through rentals, optionally only those of one model.
// The returned total counts matching rentals.
func (s *Service) ListRentals(modelID *uint64, page Page) ([]ProofOfRental, uint64, error) {
	page, err := page.normalize()
	if err != nil {
		return nil, 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if modelID != nil && *modelID >= uint64(len(s.state.Models)) {
		return nil, 0, marketmodel.ErrModelNotFound
	}
	matched := s.state.Rentals
	if modelID != nil {
		matched = make([]ProofOfRental, 0)
		for _, r := range s.state.Rentals {
			if r.ModelID == *modelID {
				matched = append(matched, r)
			}
		}
	}
	start, end := pageBounds(len(matched), page)
	return append([]ProofOfRental(nil), matched[start:end]...), uint64(len(matched)), nil
}
