package rpc

import (
	"bytes"
	"encoding/json"
	"errors"
	"time"

	"modelmarket/go-backend/internal/domains/rpckit"
	"modelmarket/go-backend/internal/platform/amount"
)

var errInvalidParams = errors.New("invalid params")

type validatable interface {
	valid() bool
}

type paymentParams struct {
	Caller  string         `json:"caller"`
	ModelID *uint64        `json:"model_id"`
	Amount  *amount.Amount `json:"amount"`
}

func (p paymentParams) valid() bool {
	return p.Caller != "" && p.ModelID != nil && p.Amount != nil
}

type modelCallParams struct {
	Caller  string  `json:"caller"`
	ModelID *uint64 `json:"model_id"`
}

func (p modelCallParams) valid() bool {
	return p.Caller != "" && p.ModelID != nil
}

type addModelParams struct {
	Caller       string        `json:"caller"`
	AuctionState *uint64       `json:"auction_state"`
	SellPrice    amount.Amount `json:"sell_price"`
	AuctionLimit time.Time     `json:"auction_limit"`
	RentState    *uint64       `json:"rent_state"`
	RentPrice    amount.Amount `json:"rent_price"`
}

func (p addModelParams) valid() bool {
	return p.Caller != "" && p.AuctionState != nil && p.RentState != nil
}

type setAuctionParams struct {
	Caller       string        `json:"caller"`
	ModelID      *uint64       `json:"model_id"`
	AuctionState *uint64       `json:"auction_state"`
	SellPrice    amount.Amount `json:"sell_price"`
	AuctionLimit time.Time     `json:"auction_limit"`
}

func (p setAuctionParams) valid() bool {
	return p.Caller != "" && p.ModelID != nil && p.AuctionState != nil
}

type setRentParams struct {
	Caller    string        `json:"caller"`
	ModelID   *uint64       `json:"model_id"`
	RentState *uint64       `json:"rent_state"`
	RentPrice amount.Amount `json:"rent_price"`
}

func (p setRentParams) valid() bool {
	return p.Caller != "" && p.ModelID != nil && p.RentState != nil
}

// withdrawParams treats a missing amount as zero, which withdraws everything.
type withdrawParams struct {
	Caller string        `json:"caller"`
	Amount amount.Amount `json:"amount"`
}

func (p withdrawParams) valid() bool {
	return p.Caller != ""
}

type adminParams struct {
	Caller string `json:"caller"`
	Secret string `json:"secret"`
}

type adminWithdrawParams struct {
	adminParams
	Amount amount.Amount `json:"amount"`
}

func (p adminWithdrawParams) valid() bool {
	return p.Caller != ""
}

type changeSecretParams struct {
	adminParams
	NewSecret string `json:"new_secret"`
}

func (p changeSecretParams) valid() bool {
	return p.Caller != ""
}

type adminAddressParams struct {
	adminParams
	Address string `json:"address"`
}

func (p adminAddressParams) valid() bool {
	return p.Caller != "" && p.Address != ""
}

type adminModelParams struct {
	adminParams
	ModelID *uint64 `json:"model_id"`
}

func (p adminModelParams) valid() bool {
	return p.Caller != "" && p.ModelID != nil
}

type feePercentageParams struct {
	adminParams
	FeePercentage *uint64 `json:"fee_percentage"`
}

func (p feePercentageParams) valid() bool {
	return p.Caller != "" && p.FeePercentage != nil
}

type feedbackPriceParams struct {
	adminParams
	FeedbackPrice *amount.Amount `json:"feedback_price"`
}

func (p feedbackPriceParams) valid() bool {
	return p.Caller != "" && p.FeedbackPrice != nil
}

type modelIDParams struct {
	ModelID *uint64 `json:"model_id"`
}

func (p modelIDParams) valid() bool {
	return p.ModelID != nil
}

type rentalIDParams struct {
	RentalID *uint64 `json:"rental_id"`
}

func (p rentalIDParams) valid() bool {
	return p.RentalID != nil
}

type addressParams struct {
	Address string `json:"address"`
}

func (p addressParams) valid() bool {
	return p.Address != ""
}

type listModelsParams struct {
	Offset uint64 `json:"offset"`
	Limit  uint64 `json:"limit"`
}

func (p listModelsParams) valid() bool {
	return true
}

type pageParams struct {
	ModelID *uint64 `json:"model_id"`
	Offset  uint64  `json:"offset"`
	Limit   uint64  `json:"limit"`
}

func (p pageParams) valid() bool {
	return true
}

type payoutListParams struct {
	AfterSeq uint64 `json:"after_seq"`
	Limit    int    `json:"limit"`
}

func (p payoutListParams) valid() bool {
	return p.Limit >= 0 && p.Limit <= maxPayoutListLimit
}

type payoutAckParams struct {
	Seq *uint64 `json:"seq"`
}

func (p payoutAckParams) valid() bool {
	return p.Seq != nil
}

// decodeParams accepts a single JSON object. Missing or null params decode
// as the zero value so read methods can be called without them.
func decodeParams(raw json.RawMessage, dst any) error {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil
	}
	if trimmed[0] != '{' {
		return errInvalidParams
	}
	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return errInvalidParams
	}
	if dec.More() {
		return errInvalidParams
	}
	return nil
}

func callWithParams[P validatable](rawParams json.RawMessage, call func(P) (any, error)) (any, *rpckit.Error) {
	var params P
	if err := decodeParams(rawParams, &params); err != nil || !params.valid() {
		return nil, rpckit.InvalidParams()
	}
	result, err := call(params)
	if err != nil {
		return nil, mapServiceError(err)
	}
	return result, nil
}

func callWithoutParams(call func() (any, error)) (any, *rpckit.Error) {
	result, err := call()
	if err != nil {
		return nil, mapServiceError(err)
	}
	return result, nil
}
