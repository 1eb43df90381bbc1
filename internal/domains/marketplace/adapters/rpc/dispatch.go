package rpc

import (
	"context"
	"encoding/json"

	"modelmarket/go-backend/internal/domains/contracts"
	marketdomain "modelmarket/go-backend/internal/domains/marketplace"
	"modelmarket/go-backend/internal/domains/rpckit"
	"modelmarket/go-backend/internal/platform/amount"
)

const maxPayoutListLimit = 1000

var mutatingMethods = map[string]struct{}{
	"market.add_model":          {},
	"market.set_auction":        {},
	"market.set_rent":           {},
	"market.bid":                {},
	"market.buy":                {},
	"market.rent":               {},
	"market.close_auction":      {},
	"market.like":               {},
	"market.dislike":            {},
	"market.withdraw":           {},
	"market.ack_payouts":        {},
	"admin.withdraw":            {},
	"admin.change_secret":       {},
	"admin.force_lock":          {},
	"admin.force_unlock":        {},
	"admin.force_close_auction": {},
	"admin.set_fee_percentage":  {},
	"admin.set_feedback_price":  {},
}

// IsMutating reports whether method changes ledger or outbox state. Only these
// methods take part in idempotent replay.
func IsMutating(method string) bool {
	_, ok := mutatingMethods[method]
	return ok
}

func Dispatch(ctx context.Context, service contracts.MarketplaceAPI, method string, rawParams json.RawMessage) (any, *rpckit.Error, bool) {
	if result, rpcErr, ok := dispatchMarketRPC(ctx, service, method, rawParams); ok {
		return result, rpcErr, true
	}
	if result, rpcErr, ok := dispatchAdminRPC(ctx, service, method, rawParams); ok {
		return result, rpcErr, true
	}
	return dispatchReadRPC(service, method, rawParams)
}

func dispatchMarketRPC(ctx context.Context, service contracts.MarketplaceAPI, method string, rawParams json.RawMessage) (any, *rpckit.Error, bool) {
	switch method {
	case "market.add_model":
		result, rpcErr := callWithParams(rawParams, func(p addModelParams) (any, error) {
			return service.AddModel(p.Caller, marketdomain.ListingRequest{
				AuctionState: *p.AuctionState,
				SellPrice:    p.SellPrice,
				AuctionLimit: p.AuctionLimit,
				RentState:    *p.RentState,
				RentPrice:    p.RentPrice,
			})
		})
		return result, rpcErr, true
	case "market.set_auction":
		result, rpcErr := callWithParams(rawParams, func(p setAuctionParams) (any, error) {
			return service.SetAuction(p.Caller, *p.ModelID, *p.AuctionState, p.SellPrice, p.AuctionLimit)
		})
		return result, rpcErr, true
	case "market.set_rent":
		result, rpcErr := callWithParams(rawParams, func(p setRentParams) (any, error) {
			return service.SetRent(p.Caller, *p.ModelID, *p.RentState, p.RentPrice)
		})
		return result, rpcErr, true
	case "market.bid":
		result, rpcErr := callWithParams(rawParams, func(p paymentParams) (any, error) {
			return service.Bid(p.Caller, *p.ModelID, *p.Amount)
		})
		return result, rpcErr, true
	case "market.buy":
		result, rpcErr := callWithParams(rawParams, func(p paymentParams) (any, error) {
			return service.Buy(p.Caller, *p.ModelID, *p.Amount)
		})
		return result, rpcErr, true
	case "market.rent":
		result, rpcErr := callWithParams(rawParams, func(p paymentParams) (any, error) {
			return service.Rent(p.Caller, *p.ModelID, *p.Amount)
		})
		return result, rpcErr, true
	case "market.close_auction":
		result, rpcErr := callWithParams(rawParams, func(p modelCallParams) (any, error) {
			return service.CloseAuction(p.Caller, *p.ModelID)
		})
		return result, rpcErr, true
	case "market.like":
		result, rpcErr := callWithParams(rawParams, func(p paymentParams) (any, error) {
			return service.Like(p.Caller, *p.ModelID, *p.Amount)
		})
		return result, rpcErr, true
	case "market.dislike":
		result, rpcErr := callWithParams(rawParams, func(p paymentParams) (any, error) {
			return service.Dislike(p.Caller, *p.ModelID, *p.Amount)
		})
		return result, rpcErr, true
	case "market.withdraw":
		result, rpcErr := callWithParams(rawParams, func(p withdrawParams) (any, error) {
			paid, err := service.Withdraw(ctx, p.Caller, p.Amount)
			if err != nil {
				return nil, err
			}
			return map[string]amount.Amount{"amount": paid}, nil
		})
		return result, rpcErr, true
	case "market.ack_payouts":
		result, rpcErr := callWithParams(rawParams, func(p payoutAckParams) (any, error) {
			acked, err := service.AckPayouts(*p.Seq)
			if err != nil {
				return nil, err
			}
			return map[string]int{"acked": acked}, nil
		})
		return result, rpcErr, true
	default:
		return nil, nil, false
	}
}

func dispatchAdminRPC(ctx context.Context, service contracts.MarketplaceAPI, method string, rawParams json.RawMessage) (any, *rpckit.Error, bool) {
	switch method {
	case "admin.withdraw":
		result, rpcErr := callWithParams(rawParams, func(p adminWithdrawParams) (any, error) {
			paid, err := service.AdminWithdraw(ctx, p.credentials(), p.Amount)
			if err != nil {
				return nil, err
			}
			return map[string]amount.Amount{"amount": paid}, nil
		})
		return result, rpcErr, true
	case "admin.change_secret":
		result, rpcErr := callWithParams(rawParams, func(p changeSecretParams) (any, error) {
			if err := service.ChangeSecret(p.credentials(), p.NewSecret); err != nil {
				return nil, err
			}
			return map[string]bool{"rotated": true}, nil
		})
		return result, rpcErr, true
	case "admin.force_lock":
		result, rpcErr := callWithParams(rawParams, func(p adminAddressParams) (any, error) {
			if err := service.ForceLock(p.credentials(), p.Address); err != nil {
				return nil, err
			}
			return map[string]bool{"locked": true}, nil
		})
		return result, rpcErr, true
	case "admin.force_unlock":
		result, rpcErr := callWithParams(rawParams, func(p adminAddressParams) (any, error) {
			if err := service.ForceUnlock(p.credentials(), p.Address); err != nil {
				return nil, err
			}
			return map[string]bool{"locked": false}, nil
		})
		return result, rpcErr, true
	case "admin.force_close_auction":
		result, rpcErr := callWithParams(rawParams, func(p adminModelParams) (any, error) {
			return service.ForceCloseAuction(p.credentials(), *p.ModelID)
		})
		return result, rpcErr, true
	case "admin.set_fee_percentage":
		result, rpcErr := callWithParams(rawParams, func(p feePercentageParams) (any, error) {
			schedule, err := service.SetFeePercentage(p.credentials(), *p.FeePercentage)
			if err != nil {
				return nil, err
			}
			return feeScheduleResult(schedule.FeePercentage, schedule.ProfitRate), nil
		})
		return result, rpcErr, true
	case "admin.set_feedback_price":
		result, rpcErr := callWithParams(rawParams, func(p feedbackPriceParams) (any, error) {
			if err := service.SetFeedbackPrice(p.credentials(), *p.FeedbackPrice); err != nil {
				return nil, err
			}
			return map[string]amount.Amount{"feedback_price": *p.FeedbackPrice}, nil
		})
		return result, rpcErr, true
	default:
		return nil, nil, false
	}
}

func dispatchReadRPC(service contracts.MarketplaceAPI, method string, rawParams json.RawMessage) (any, *rpckit.Error, bool) {
	switch method {
	case "market.get_model":
		result, rpcErr := callWithParams(rawParams, func(p modelIDParams) (any, error) {
			return service.GetModel(*p.ModelID)
		})
		return result, rpcErr, true
	case "market.count_models":
		return map[string]uint64{"count": service.CountModels()}, nil, true
	case "market.count_rentals":
		return map[string]uint64{"count": service.CountRentals()}, nil, true
	case "market.get_rental":
		result, rpcErr := callWithParams(rawParams, func(p rentalIDParams) (any, error) {
			return service.GetRental(*p.RentalID)
		})
		return result, rpcErr, true
	case "market.fee_percentage":
		fee := service.FeePercentage()
		return feeScheduleResult(fee, 100-fee), nil, true
	case "market.feedback_price":
		return map[string]amount.Amount{"feedback_price": service.FeedbackPrice()}, nil, true
	case "market.admin_address":
		return map[string]marketdomain.Address{"admin_address": service.AdminAddress()}, nil, true
	case "market.fee_pool":
		return map[string]amount.Amount{"fee_pool": service.FeePool()}, nil, true
	case "market.get_account":
		result, rpcErr := callWithParams(rawParams, func(p addressParams) (any, error) {
			return service.GetAccount(p.Address)
		})
		return result, rpcErr, true
	case "market.list_models":
		result, rpcErr := callWithParams(rawParams, func(p listModelsParams) (any, error) {
			items, total, err := service.ListModels(marketdomain.Page{Offset: p.Offset, Limit: p.Limit})
			if err != nil {
				return nil, err
			}
			return pageResult(items, total), nil
		})
		return result, rpcErr, true
	case "market.list_rentals":
		result, rpcErr := callWithParams(rawParams, func(p pageParams) (any, error) {
			items, total, err := service.ListRentals(p.ModelID, marketdomain.Page{Offset: p.Offset, Limit: p.Limit})
			if err != nil {
				return nil, err
			}
			return pageResult(items, total), nil
		})
		return result, rpcErr, true
	case "market.list_payouts":
		result, rpcErr := callWithParams(rawParams, func(p payoutListParams) (any, error) {
			return map[string]any{"items": service.ListPayouts(p.AfterSeq, p.Limit)}, nil
		})
		return result, rpcErr, true
	default:
		return nil, nil, false
	}
}

func (p adminParams) credentials() marketdomain.AdminCredentials {
	return marketdomain.AdminCredentials{Caller: p.Caller, Secret: p.Secret}
}

func feeScheduleResult(fee, profit uint8) map[string]uint8 {
	return map[string]uint8{"fee_percentage": fee, "profit_rate": profit}
}

func pageResult[T any](items []T, total uint64) map[string]any {
	if items == nil {
		items = []T{}
	}
	return map[string]any{"items": items, "total": total}
}
