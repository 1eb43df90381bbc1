package usecase

import (
	"time"

	marketmodel "modelmarket/go-backend/internal/domains/marketplace/model"
	marketpolicy "modelmarket/go-backend/internal/domains/marketplace/policy"
	"modelmarket/go-backend/internal/platform/amount"
)

// ledgerTx is one operation's view of a cloned state. Nothing written here is
// visible until the service commits it.
type ledgerTx struct {
	state       State
	now         time.Time
	payout      *Payout
	nextSecret  *string
	event       *Event
	settlements []settlement
}

type settlement struct {
	kind  string
	split Split
}

func newLedgerTx(state State, now time.Time) *ledgerTx {
	return &ledgerTx{state: state.Clone(), now: now}
}

func (tx *ledgerTx) fees() FeeSchedule {
	return marketpolicy.FeeScheduleOf(tx.state.Admin)
}

func (tx *ledgerTx) account(addr Address) Account {
	return tx.state.Accounts[addr]
}

// putAccount re-checks balance >= locked on every write.
func (tx *ledgerTx) putAccount(addr Address, acc Account) error {
	if err := acc.Validate(); err != nil {
		return err
	}
	tx.state.Accounts[addr] = acc
	return nil
}

func (tx *ledgerTx) model(id uint64) (Model, error) {
	if id >= uint64(len(tx.state.Models)) {
		return Model{}, marketmodel.ErrModelNotFound
	}
	return tx.state.Models[id], nil
}

func (tx *ledgerTx) putModel(m Model) {
	tx.state.Models[m.ID] = m
}

func (tx *ledgerTx) emit(event Event) {
	event.OccurredAt = tx.now
	tx.event = &event
}

// acquire is the lock guard: it rejects when any party is already locked,
// then flags all of them. The returned release must run before commit.
func (tx *ledgerTx) acquire(parties ...Address) (func(), error) {
	unique := make([]Address, 0, len(parties))
	seen := make(map[Address]struct{}, len(parties))
	for _, addr := range parties {
		if addr == "" {
			continue
		}
		if _, ok := seen[addr]; ok {
			continue
		}
		seen[addr] = struct{}{}
		unique = append(unique, addr)
	}
	for _, addr := range unique {
		if tx.account(addr).Locked {
			return nil, marketmodel.ErrAddressLocked
		}
	}
	for _, addr := range unique {
		acc := tx.account(addr)
		acc.Locked = true
		tx.state.Accounts[addr] = acc
	}
	return func() {
		for _, addr := range unique {
			acc := tx.account(addr)
			acc.Locked = false
			tx.state.Accounts[addr] = acc
		}
	}, nil
}

func (tx *ledgerTx) setLocked(addr Address, locked bool) {
	acc := tx.account(addr)
	acc.Locked = locked
	tx.state.Accounts[addr] = acc
}

func (tx *ledgerTx) credit(addr Address, value amount.Amount) error {
	if value.IsZero() {
		return nil
	}
	acc := tx.account(addr)
	balance, err := acc.Balance.Add(value)
	if err != nil {
		return marketmodel.ArithmeticError(err)
	}
	acc.Balance = balance
	return tx.putAccount(addr, acc)
}

func (tx *ledgerTx) debit(addr Address, value amount.Amount) error {
	acc := tx.account(addr)
	balance, err := acc.Balance.Sub(value)
	if err != nil {
		return marketmodel.ArithmeticError(err)
	}
	acc.Balance = balance
	return tx.putAccount(addr, acc)
}

// escrow moves part of the balance into the locked portion.
func (tx *ledgerTx) escrow(addr Address, value amount.Amount) error {
	acc := tx.account(addr)
	locked, err := acc.LockedBalance.Add(value)
	if err != nil {
		return marketmodel.ArithmeticError(err)
	}
	acc.LockedBalance = locked
	return tx.putAccount(addr, acc)
}

func (tx *ledgerTx) releaseEscrow(addr Address, value amount.Amount) error {
	acc := tx.account(addr)
	locked, err := acc.LockedBalance.Sub(value)
	if err != nil {
		return marketmodel.ArithmeticError(err)
	}
	acc.LockedBalance = locked
	return tx.putAccount(addr, acc)
}

// creditRest returns any overpayment to the payer.
func (tx *ledgerTx) creditRest(addr Address, sent, required amount.Amount) error {
	rest, err := marketpolicy.Rest(sent, required)
	if err != nil {
		return err
	}
	return tx.credit(addr, rest)
}

func (tx *ledgerTx) addToFeePool(value amount.Amount) error {
	pool, err := tx.state.Admin.AvailableBalance.Add(value)
	if err != nil {
		return marketmodel.ArithmeticError(err)
	}
	tx.state.Admin.AvailableBalance = pool
	return nil
}

// applyProfit accumulates the seller share of split into the owner balance.
func (tx *ledgerTx) applyProfit(split Split, owner Address) error {
	share, err := split.SellerShare()
	if err != nil {
		return err
	}
	return tx.credit(owner, share)
}

// settle splits price between the fee pool and owner. Both sides are added to
// existing balances.
func (tx *ledgerTx) settle(kind string, price amount.Amount, owner Address) error {
	split, err := tx.fees().Split(price)
	if err != nil {
		return err
	}
	if err := tx.addToFeePool(split.Fee); err != nil {
		return err
	}
	if err := tx.applyProfit(split, owner); err != nil {
		return err
	}
	tx.settlements = append(tx.settlements, settlement{kind: kind, split: split})
	return nil
}

// reckonTopBid spends the top bidder's escrowed bid.
func (tx *ledgerTx) reckonTopBid(m Model) error {
	if err := tx.releaseEscrow(m.TopBidOwner, m.TopBidPrice); err != nil {
		return err
	}
	return tx.debit(m.TopBidOwner, m.TopBidPrice)
}

// settleTopBid runs the full top-bid settlement and hands ownership over.
func (tx *ledgerTx) settleTopBid(kind string, m Model) (Model, error) {
	if err := tx.reckonTopBid(m); err != nil {
		return Model{}, err
	}
	if err := tx.settle(kind, m.TopBidPrice, m.Owner); err != nil {
		return Model{}, err
	}
	m.Owner = m.TopBidOwner
	m.OwnerSince = tx.now
	m.ClearAuction()
	return m, nil
}
