package usecase

import (
	marketmodel "modelmarket/go-backend/internal/domains/marketplace/model"
	marketpolicy "modelmarket/go-backend/internal/domains/marketplace/policy"
)

type Address = marketmodel.Address
type Model = marketmodel.Model
type ProofOfRental = marketmodel.ProofOfRental
type Account = marketmodel.Account
type AdminConfig = marketmodel.AdminConfig
type State = marketmodel.State
type Event = marketmodel.Event
type EventType = marketmodel.EventType
type FeeSchedule = marketpolicy.FeeSchedule
type Split = marketpolicy.Split

var (
	ErrModelNotFound                = marketmodel.ErrModelNotFound
	ErrRentalNotFound               = marketmodel.ErrRentalNotFound
	ErrInvalidPage                  = marketmodel.ErrInvalidPage
	ErrInsufficientAvailableBalance = marketmodel.ErrInsufficientAvailableBalance
	ErrFeedbackPriceRequired        = marketmodel.ErrFeedbackPriceRequired
	ErrSecretRequired               = marketmodel.ErrSecretRequired
	ErrBidTooLow                    = marketmodel.ErrBidTooLow
	ErrInsufficientPayment          = marketmodel.ErrInsufficientPayment
	ErrNotAdmin                     = marketmodel.ErrNotAdmin
	ErrInvalidSecret                = marketmodel.ErrInvalidSecret
	ErrNotOwner                     = marketmodel.ErrNotOwner
	ErrAddressLocked                = marketmodel.ErrAddressLocked
	ErrAuctionInProgress            = marketmodel.ErrAuctionInProgress
	ErrNotForSale                   = marketmodel.ErrNotForSale
	ErrNotUnderAuction              = marketmodel.ErrNotUnderAuction
	ErrAuctionExpired               = marketmodel.ErrAuctionExpired
	ErrAuctionNotExpired            = marketmodel.ErrAuctionNotExpired
	ErrNoTopBid                     = marketmodel.ErrNoTopBid
	ErrReserveNotMet                = marketmodel.ErrReserveNotMet
	ErrNotForRent                   = marketmodel.ErrNotForRent
	ErrNothingToWithdraw            = marketmodel.ErrNothingToWithdraw
	ErrTransferFailed               = marketmodel.ErrTransferFailed
)
