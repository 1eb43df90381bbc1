package marketplace

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	marketmodel "modelmarket/go-backend/internal/domains/marketplace/model"
	"modelmarket/go-backend/internal/platform/amount"
	"modelmarket/go-backend/internal/testutil/fsperm"
)

func testAdmin() AdminConfig {
	return AdminConfig{
		AdminAddress:  "mkt1admin",
		FeePercentage: 10,
		ProfitRate:    90,
		FeedbackPrice: amount.New(5),
	}
}

func TestSnapshotStoreBootstrapDefaultsWhenMissing(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "data")
	path := filepath.Join(dir, "marketplace.enc")
	store := NewSnapshotStore()
	store.Configure(path, "test-secret")

	state, err := store.Bootstrap(testAdmin())
	if err != nil {
		t.Fatalf("bootstrap failed: %v", err)
	}
	if len(state.Models) != 0 || len(state.Rentals) != 0 {
		t.Fatalf("expected empty state, got %d models %d rentals", len(state.Models), len(state.Rentals))
	}
	if state.Admin.FeePercentage != 10 {
		t.Fatalf("expected default fee, got %d", state.Admin.FeePercentage)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected marketplace state file to be created, err=%v", err)
	}
	fsperm.AssertPrivateDirPerm(t, dir)
}

func TestSnapshotStorePersistAndReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "marketplace.enc")
	store := NewSnapshotStore()
	store.Configure(path, "test-secret")

	now := time.Now().UTC().Truncate(time.Second)
	state := NewState(testAdmin())
	state.Admin.AvailableBalance = amount.New(25)
	state.Models = append(state.Models, marketmodel.Model{
		ID:           0,
		Owner:        "mkt1owner",
		CreatedAt:    now,
		OwnerSince:   now,
		AuctionState: marketmodel.AuctionStateAuctionWithTimeLimit,
		AuctionLimit: now.Add(time.Hour),
		TopBidOwner:  "mkt1bidder",
		TopBidPrice:  amount.New(40),
		RentState:    marketmodel.RentStateForRent,
		RentPrice:    amount.New(3),
		CountOfRents: 1,
	})
	state.Rentals = append(state.Rentals, marketmodel.ProofOfRental{ID: 0, ModelID: 0, Renter: "mkt1renter", RentedAt: now})
	state.Accounts["mkt1bidder"] = marketmodel.Account{Balance: amount.New(40), LockedBalance: amount.New(40)}
	state.Accounts["mkt1frozen"] = marketmodel.Account{Locked: true}

	if err := store.Persist(state); err != nil {
		t.Fatalf("persist failed: %v", err)
	}
	loaded, err := store.Bootstrap(testAdmin())
	if err != nil {
		t.Fatalf("bootstrap failed: %v", err)
	}
	m := loaded.Models[0]
	if m.AuctionState != marketmodel.AuctionStateAuctionWithTimeLimit || !m.TopBidPrice.Equal(amount.New(40)) || !m.AuctionLimit.Equal(now.Add(time.Hour)) {
		t.Fatalf("model did not round trip: %+v", m)
	}
	if !loaded.Admin.AvailableBalance.Equal(amount.New(25)) {
		t.Fatalf("fee pool did not round trip: %s", loaded.Admin.AvailableBalance)
	}
	if !loaded.Accounts["mkt1frozen"].Locked {
		t.Fatal("lock flag did not round trip")
	}
	if len(loaded.Rentals) != 1 || loaded.Rentals[0].Renter != "mkt1renter" {
		t.Fatalf("rentals did not round trip: %+v", loaded.Rentals)
	}
}

func TestSnapshotStoreRejectsAdminMismatchAndWrongSecret(t *testing.T) {
	path := filepath.Join(t.TempDir(), "marketplace.enc")
	store := NewSnapshotStore()
	store.Configure(path, "test-secret")
	if _, err := store.Bootstrap(testAdmin()); err != nil {
		t.Fatalf("bootstrap failed: %v", err)
	}

	other := testAdmin()
	other.AdminAddress = "mkt1someoneelse"
	if _, err := store.Bootstrap(other); !errors.Is(err, ErrAdminAddressMismatch) {
		t.Fatalf("expected admin mismatch, got %v", err)
	}

	wrong := NewSnapshotStore()
	wrong.Configure(path, "other-secret")
	if _, err := wrong.Bootstrap(testAdmin()); err == nil {
		t.Fatal("expected wrong passphrase to fail")
	}
}

func TestSnapshotStoreRejectsInvalidState(t *testing.T) {
	store := NewSnapshotStore()
	store.Configure(filepath.Join(t.TempDir(), "marketplace.enc"), "test-secret")
	state := NewState(testAdmin())
	state.Accounts["mkt1bad"] = marketmodel.Account{Balance: amount.New(1), LockedBalance: amount.New(2)}
	if err := store.Persist(state); !errors.Is(err, marketmodel.ErrLockedExceedsTotal) {
		t.Fatalf("expected invariant violation, got %v", err)
	}
}

func TestSnapshotStoreUnconfiguredIsMemoryOnly(t *testing.T) {
	store := NewSnapshotStore()
	state, err := store.Bootstrap(testAdmin())
	if err != nil {
		t.Fatalf("bootstrap failed: %v", err)
	}
	if err := store.Persist(state); err != nil {
		t.Fatalf("persist must be a no-op, got %v", err)
	}
	if err := store.Wipe(); err != nil {
		t.Fatalf("wipe failed: %v", err)
	}
}
