package model

import (
	"errors"

	"modelmarket/go-backend/internal/platform/amount"
)

// Error kinds. Every domain error unwraps to exactly one of them.
var (
	ErrValidation    = errors.New("validation error")
	ErrAuthorization = errors.New("authorization error")
	ErrState         = errors.New("state error")
	ErrArithmetic    = errors.New("arithmetic error")
	ErrTransfer      = errors.New("transfer error")
)

var kinds = []error{ErrValidation, ErrAuthorization, ErrState, ErrArithmetic, ErrTransfer}

// Error carries a stable reason string that clients can match on.
type Error struct {
	Kind   error
	Reason string
	Cause  error
}

func newError(kind error, reason string) *Error {
	return &Error{Kind: kind, Reason: reason}
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return e.Reason + ": " + e.Cause.Error()
	}
	return e.Reason
}

func (e *Error) Unwrap() []error {
	if e.Cause != nil {
		return []error{e.Kind, e.Cause}
	}
	return []error{e.Kind}
}

// Is matches on kind and reason so copies made with WithCause still compare
// equal to the sentinel they came from.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.Reason == e.Reason
}

func (e *Error) WithCause(cause error) *Error {
	return &Error{Kind: e.Kind, Reason: e.Reason, Cause: cause}
}

// KindOf returns the kind sentinel of err, or nil for non-domain errors.
func KindOf(err error) error {
	if err == nil {
		return nil
	}
	for _, kind := range kinds {
		if errors.Is(err, kind) {
			return kind
		}
	}
	return nil
}

// KindName is the stable label of the kind of err, or "" for non-domain errors.
func KindName(err error) string {
	switch KindOf(err) {
	case ErrValidation:
		return "validation"
	case ErrAuthorization:
		return "authorization"
	case ErrState:
		return "state"
	case ErrArithmetic:
		return "arithmetic"
	case ErrTransfer:
		return "transfer"
	default:
		return ""
	}
}

// ReasonOf returns the stable reason of a domain error.
func ReasonOf(err error) string {
	var domainErr *Error
	if errors.As(err, &domainErr) {
		return domainErr.Reason
	}
	if err == nil {
		return ""
	}
	return err.Error()
}

var (
	ErrModelNotFound                = newError(ErrValidation, "model not found")
	ErrRentalNotFound               = newError(ErrValidation, "rental not found")
	ErrInvalidAuctionState          = newError(ErrValidation, "invalid auction state")
	ErrInvalidRentState             = newError(ErrValidation, "invalid rent state")
	ErrInvalidAddress               = newError(ErrValidation, "invalid address")
	ErrAuctionLimitNotInFuture      = newError(ErrValidation, "auction limit must be in the future")
	ErrSellPriceRequired            = newError(ErrValidation, "sell price must be positive")
	ErrRentPriceRequired            = newError(ErrValidation, "rent price must be positive")
	ErrFeedbackPriceRequired        = newError(ErrValidation, "feedback price must be positive")
	ErrInsufficientPayment          = newError(ErrValidation, "payment is below the required amount")
	ErrBidTooLow                    = newError(ErrValidation, "bid must exceed the current top bid")
	ErrFeePercentageOutOfRange      = newError(ErrValidation, "fee percentage must be below 100")
	ErrInsufficientAvailableBalance = newError(ErrValidation, "insufficient available balance")
	ErrSecretRequired               = newError(ErrValidation, "secret is required")
	ErrInvalidPage                  = newError(ErrValidation, "invalid page")

	ErrNotAdmin      = newError(ErrAuthorization, "caller is not the admin")
	ErrInvalidSecret = newError(ErrAuthorization, "invalid admin secret")
	ErrNotOwner      = newError(ErrAuthorization, "caller is not the model owner")

	ErrAddressLocked     = newError(ErrState, "affected parties must be unlocked")
	ErrAuctionInProgress = newError(ErrState, "auction must be closed first")
	ErrNotForSale        = newError(ErrState, "model is not for sale")
	ErrNotUnderAuction   = newError(ErrState, "model is not under auction")
	ErrAuctionExpired    = newError(ErrState, "auction deadline has passed")
	ErrAuctionNotExpired = newError(ErrState, "auction deadline has not passed")
	ErrNoTopBid          = newError(ErrState, "no bid to settle")
	ErrReserveNotMet     = newError(ErrState, "top bid is below the sell price")
	ErrNotForRent        = newError(ErrState, "model is not for rent")
	ErrNothingToWithdraw = newError(ErrState, "nothing to withdraw")

	ErrArithmeticOverflow  = newError(ErrArithmetic, "arithmetic overflow")
	ErrArithmeticUnderflow = newError(ErrArithmetic, "arithmetic underflow")
	ErrDivisionByZero      = newError(ErrArithmetic, "division by zero")
	ErrLockedExceedsTotal  = newError(ErrArithmetic, "locked balance exceeds balance")

	ErrTransferFailed = newError(ErrTransfer, "payout transfer failed")
)

// ArithmeticError maps checked-amount failures onto the domain taxonomy.
func ArithmeticError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, amount.ErrOverflow):
		return ErrArithmeticOverflow
	case errors.Is(err, amount.ErrUnderflow):
		return ErrArithmeticUnderflow
	case errors.Is(err, amount.ErrDivisionByZero):
		return ErrDivisionByZero
	default:
		return err
	}
}
