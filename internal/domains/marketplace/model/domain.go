package model

import (
	"errors"
	"math"
	"time"

	"modelmarket/go-backend/internal/platform/amount"
)

// Address identifies a party. Format rules live in policy.NormalizeAddress.
type Address string

// Model is one listing. Its ID is the index in State.Models.
type Model struct {
	ID           uint64        `json:"id"`
	Owner        Address       `json:"owner"`
	CreatedAt    time.Time     `json:"created_at"`
	OwnerSince   time.Time     `json:"owner_since"`
	AuctionState AuctionState  `json:"auction_state"`
	SellPrice    amount.Amount `json:"sell_price"`
	AuctionLimit time.Time     `json:"auction_limit"`
	TopBidOwner  Address       `json:"top_bid_owner,omitempty"`
	TopBidPrice  amount.Amount `json:"top_bid_price"`
	RentState    RentState     `json:"rent_state"`
	RentPrice    amount.Amount `json:"rent_price"`
	CountOfRents uint64        `json:"count_of_rents"`
	Likes        uint64        `json:"likes"`
	Dislikes     uint64        `json:"dislikes"`
}

// HasTopBid reports whether the listing carries a settleable bid.
func (m Model) HasTopBid() bool {
	return m.AuctionState.UnderAuction() && !m.TopBidPrice.IsZero() && m.TopBidOwner != ""
}

// ClearAuction returns the listing to NotSet and drops the bid fields.
func (m *Model) ClearAuction() {
	m.AuctionState = AuctionStateNotSet
	m.TopBidOwner = ""
	m.TopBidPrice = amount.Zero
}

// ProofOfRental is an immutable rental receipt.
type ProofOfRental struct {
	ID       uint64    `json:"id"`
	ModelID  uint64    `json:"model_id"`
	Renter   Address   `json:"renter"`
	RentedAt time.Time `json:"rented_at"`
}

// Account is the ledger entry for one address. Locked is the lock-guard flag;
// LockedBalance is the escrowed part of Balance.
type Account struct {
	Balance       amount.Amount `json:"balance"`
	LockedBalance amount.Amount `json:"locked_balance"`
	Locked        bool          `json:"locked"`
}

func (a Account) Available() (amount.Amount, error) {
	available, err := a.Balance.Sub(a.LockedBalance)
	if err != nil {
		return amount.Zero, ErrLockedExceedsTotal
	}
	return available, nil
}

func (a Account) Validate() error {
	if a.LockedBalance.GreaterThan(a.Balance) {
		return ErrLockedExceedsTotal
	}
	return nil
}

// AdminConfig holds platform parameters. The secret hash is owned by the
// injected secret store, not by this struct.
type AdminConfig struct {
	AdminAddress     Address       `json:"admin_address"`
	FeePercentage    uint8         `json:"fee_percentage"`
	ProfitRate       uint8         `json:"profit_rate"`
	FeedbackPrice    amount.Amount `json:"feedback_price"`
	AvailableBalance amount.Amount `json:"available_balance"`
}

// State is the whole persisted marketplace layout.
type State struct {
	Models   []Model             `json:"models"`
	Rentals  []ProofOfRental     `json:"rentals"`
	Accounts map[Address]Account `json:"accounts"`
	Admin    AdminConfig         `json:"admin"`
}

func NewState(admin AdminConfig) State {
	return State{
		Models:   []Model{},
		Rentals:  []ProofOfRental{},
		Accounts: make(map[Address]Account),
		Admin:    admin,
	}
}

func (s State) Clone() State {
	out := State{
		Models:   append(make([]Model, 0, len(s.Models)+1), s.Models...),
		Rentals:  append(make([]ProofOfRental, 0, len(s.Rentals)+1), s.Rentals...),
		Accounts: make(map[Address]Account, len(s.Accounts)),
		Admin:    s.Admin,
	}
	for addr, acc := range s.Accounts {
		out.Accounts[addr] = acc
	}
	return out
}

var errCounterOverflow = errors.New("counter overflow")

// Increment bumps a monotonic counter without wrapping.
func Increment(counter *uint64) error {
	if *counter == math.MaxUint64 {
		return ErrArithmeticOverflow.WithCause(errCounterOverflow)
	}
	*counter++
	return nil
}

// ValidateState checks structural invariants of a loaded snapshot.
func ValidateState(s State) error {
	if uint16(s.Admin.FeePercentage)+uint16(s.Admin.ProfitRate) != 100 || s.Admin.FeePercentage >= 100 {
		return ErrFeePercentageOutOfRange
	}
	for i, m := range s.Models {
		if m.ID != uint64(i) {
			return ErrModelNotFound
		}
		if !m.AuctionState.Valid() {
			return ErrInvalidAuctionState
		}
		if !m.RentState.Valid() {
			return ErrInvalidRentState
		}
		if m.Owner == "" {
			return ErrInvalidAddress
		}
		if !m.AuctionState.UnderAuction() && (!m.TopBidPrice.IsZero() || m.TopBidOwner != "") {
			return ErrNotUnderAuction
		}
	}
	for i, r := range s.Rentals {
		if r.ID != uint64(i) || r.ModelID >= uint64(len(s.Models)) {
			return ErrRentalNotFound
		}
	}
	for addr, acc := range s.Accounts {
		if addr == "" {
			return ErrInvalidAddress
		}
		if err := acc.Validate(); err != nil {
			return err
		}
	}
	return nil
}
