package marketplace

import (
	marketmodel "modelmarket/go-backend/internal/domains/marketplace/model"
	marketpolicy "modelmarket/go-backend/internal/domains/marketplace/policy"
	marketusecase "modelmarket/go-backend/internal/domains/marketplace/usecase"
)

type State = marketmodel.State
type AdminConfig = marketmodel.AdminConfig
type Address = marketmodel.Address
type Event = marketmodel.Event

type Service = marketusecase.Service
type SnapshotPersist = marketusecase.SnapshotPersist
type Payout = marketusecase.Payout
type AdminCredentials = marketusecase.AdminCredentials
type ListingRequest = marketusecase.ListingRequest
type AccountView = marketusecase.AccountView
type Page = marketusecase.Page

func NewState(admin AdminConfig) State {
	return marketmodel.NewState(admin)
}

type Model = marketmodel.Model
type ProofOfRental = marketmodel.ProofOfRental
type FeeSchedule = marketusecase.FeeSchedule

func NormalizeAddress(raw string) (Address, error) {
	return marketpolicy.NormalizeAddress(raw)
}

func BuildAddress(signingPublicKey []byte) (Address, error) {
	return marketpolicy.BuildAddress(signingPublicKey)
}

func NewFeeSchedule(feePercentage uint64) (FeeSchedule, error) {
	return marketpolicy.NewFeeSchedule(feePercentage)
}
