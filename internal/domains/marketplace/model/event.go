package model

import (
	"time"

	"modelmarket/go-backend/internal/platform/amount"
)

type EventType string

const (
	EventListingAdded         EventType = "listing.added"
	EventListingChanged       EventType = "listing.changed"
	EventNewBid               EventType = "bid.new"
	EventNewOwner             EventType = "owner.new"
	EventNewRental            EventType = "rental.new"
	EventNewFeedback          EventType = "feedback.new"
	EventWithdrawal           EventType = "withdrawal"
	EventAdminWithdrawal      EventType = "admin.withdrawal"
	EventSecretRotated        EventType = "admin.secret_rotated"
	EventAddressLocked        EventType = "admin.address_locked"
	EventAddressUnlocked      EventType = "admin.address_unlocked"
	EventAuctionForceClosed   EventType = "admin.auction_force_closed"
	EventFeePercentageChanged EventType = "admin.fee_percentage_changed"
	EventFeedbackPriceChanged EventType = "admin.feedback_price_changed"
)

// Event is the notification emitted once per committed state change.
type Event struct {
	Type       EventType `json:"type"`
	OccurredAt time.Time `json:"occurred_at"`

	ModelID       *uint64        `json:"model_id,omitempty"`
	RentalID      *uint64        `json:"rental_id,omitempty"`
	Address       Address        `json:"address,omitempty"`
	PreviousOwner Address        `json:"previous_owner,omitempty"`
	NewOwner      Address        `json:"new_owner,omitempty"`
	Amount        *amount.Amount `json:"amount,omitempty"`
	IsLike        *bool          `json:"is_like,omitempty"`
	FeePercentage *uint8         `json:"fee_percentage,omitempty"`
}

func Ref[T any](v T) *T {
	return &v
}
