package model

import (
	"strings"
)

// AuctionState is the sale lifecycle of a listing. Raw codes are part of the
// wire contract and must stay stable.
type AuctionState uint8

const (
	AuctionStateNotSet AuctionState = iota
	AuctionStateNotForSale
	AuctionStateForSaleWithoutAuction
	AuctionStateAuctionWithPriceLimit
	AuctionStateAuctionWithTimeLimit
)

var auctionStateNames = [...]string{
	AuctionStateNotSet:                "not_set",
	AuctionStateNotForSale:            "not_for_sale",
	AuctionStateForSaleWithoutAuction: "for_sale_without_auction",
	AuctionStateAuctionWithPriceLimit: "auction_with_price_limit",
	AuctionStateAuctionWithTimeLimit:  "auction_with_time_limit",
}

// RentState is the rental availability of a listing.
type RentState uint8

const (
	RentStateNotSet RentState = iota
	RentStateNotForRent
	RentStateForRent
)

var rentStateNames = [...]string{
	RentStateNotSet:     "not_set",
	RentStateNotForRent: "not_for_rent",
	RentStateForRent:    "for_rent",
}

// AuctionStateFromRaw is the only conversion from an untrusted numeric code.
func AuctionStateFromRaw(raw uint64) (AuctionState, error) {
	if raw >= uint64(len(auctionStateNames)) {
		return 0, ErrInvalidAuctionState
	}
	return AuctionState(raw), nil
}

func RentStateFromRaw(raw uint64) (RentState, error) {
	if raw >= uint64(len(rentStateNames)) {
		return 0, ErrInvalidRentState
	}
	return RentState(raw), nil
}

func (s AuctionState) Valid() bool {
	return int(s) < len(auctionStateNames)
}

// UnderAuction reports whether top-bid fields are meaningful.
func (s AuctionState) UnderAuction() bool {
	return s == AuctionStateAuctionWithPriceLimit || s == AuctionStateAuctionWithTimeLimit
}

func (s AuctionState) String() string {
	if !s.Valid() {
		return "unknown"
	}
	return auctionStateNames[s]
}

func (s AuctionState) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, ErrInvalidAuctionState
	}
	return []byte(s.String()), nil
}

func (s *AuctionState) UnmarshalText(text []byte) error {
	name := strings.TrimSpace(string(text))
	for i, candidate := range auctionStateNames {
		if candidate == name {
			*s = AuctionState(i)
			return nil
		}
	}
	return ErrInvalidAuctionState
}

func (s RentState) Valid() bool {
	return int(s) < len(rentStateNames)
}

func (s RentState) String() string {
	if !s.Valid() {
		return "unknown"
	}
	return rentStateNames[s]
}

func (s RentState) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, ErrInvalidRentState
	}
	return []byte(s.String()), nil
}

func (s *RentState) UnmarshalText(text []byte) error {
	name := strings.TrimSpace(string(text))
	for i, candidate := range rentStateNames {
		if candidate == name {
			*s = RentState(i)
			return nil
		}
	}
	return ErrInvalidRentState
}
