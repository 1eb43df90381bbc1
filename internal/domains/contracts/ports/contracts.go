package ports

import (
	"context"
	"time"

	marketdomain "modelmarket/go-backend/internal/domains/marketplace"
	"modelmarket/go-backend/internal/domains/marketplace/adapters/outbox"
	"modelmarket/go-backend/internal/platform/amount"
)

// MarketAPI is the transport-neutral surface available to every party.
type MarketAPI interface {
	AddModel(caller string, req marketdomain.ListingRequest) (marketdomain.Model, error)
	SetAuction(caller string, id uint64, rawState uint64, sellPrice amount.Amount, auctionLimit time.Time) (marketdomain.Model, error)
	SetRent(caller string, id uint64, rawState uint64, rentPrice amount.Amount) (marketdomain.Model, error)
	Bid(caller string, id uint64, payment amount.Amount) (marketdomain.Model, error)
	Buy(caller string, id uint64, payment amount.Amount) (marketdomain.Model, error)
	CloseAuction(caller string, id uint64) (marketdomain.Model, error)
	Rent(caller string, id uint64, payment amount.Amount) (marketdomain.ProofOfRental, error)
	Like(caller string, id uint64, payment amount.Amount) (marketdomain.Model, error)
	Dislike(caller string, id uint64, payment amount.Amount) (marketdomain.Model, error)
	Withdraw(ctx context.Context, caller string, requested amount.Amount) (amount.Amount, error)
}

// AdminAPI requires the admin address and the current shared secret.
type AdminAPI interface {
	AdminWithdraw(ctx context.Context, creds marketdomain.AdminCredentials, requested amount.Amount) (amount.Amount, error)
	ChangeSecret(creds marketdomain.AdminCredentials, newSecret string) error
	ForceLock(creds marketdomain.AdminCredentials, target string) error
	ForceUnlock(creds marketdomain.AdminCredentials, target string) error
	ForceCloseAuction(creds marketdomain.AdminCredentials, id uint64) (marketdomain.Model, error)
	SetFeePercentage(creds marketdomain.AdminCredentials, feePercentage uint64) (marketdomain.FeeSchedule, error)
	SetFeedbackPrice(creds marketdomain.AdminCredentials, price amount.Amount) error
}

// ReadAPI never mutates ledger state.
type ReadAPI interface {
	GetModel(id uint64) (marketdomain.Model, error)
	CountModels() uint64
	CountRentals() uint64
	GetRental(id uint64) (marketdomain.ProofOfRental, error)
	FeePercentage() uint8
	FeedbackPrice() amount.Amount
	AdminAddress() marketdomain.Address
	FeePool() amount.Amount
	GetAccount(address string) (marketdomain.AccountView, error)
	ListModels(page marketdomain.Page) ([]marketdomain.Model, uint64, error)
	ListRentals(modelID *uint64, page marketdomain.Page) ([]marketdomain.ProofOfRental, uint64, error)
}

// PayoutAPI exposes the payout outbox to settlement workers.
type PayoutAPI interface {
	ListPayouts(afterSeq uint64, limit int) []outbox.Record
	AckPayouts(seq uint64) (int, error)
}

type MarketplaceAPI interface {
	MarketAPI
	AdminAPI
	ReadAPI
	PayoutAPI
}

type DaemonService interface {
	MarketplaceAPI
	StartNetworking(ctx context.Context) error
	StopNetworking(ctx context.Context) error
	NotificationStatus() NotificationStatus
	SubscribeNotifications(cursor int64) ([]NotificationEvent, <-chan NotificationEvent, func())
}

type NotificationEvent struct {
	Seq       int64     `json:"seq"`
	Method    string    `json:"method"`
	Payload   any       `json:"payload"`
	Timestamp time.Time `json:"timestamp"`
}

// NotificationStatus reports the indexer broadcast transport.
type NotificationStatus struct {
	Transport string `json:"transport"`
	State     string `json:"state"`
	PeerCount int    `json:"peer_count"`
	Published uint64 `json:"published"`
	Dropped   uint64 `json:"dropped"`
}
