package rpc

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"testing"
	"time"

	"modelmarket/go-backend/internal/app"
	"modelmarket/go-backend/internal/domains/contracts"
	marketdomain "modelmarket/go-backend/internal/domains/marketplace"
	"modelmarket/go-backend/internal/domains/marketplace/adapters/outbox"
	marketpolicy "modelmarket/go-backend/internal/domains/marketplace/policy"
	"modelmarket/go-backend/internal/platform/amount"
)

const testAdminSecret = "admin-secret"

type staticSecrets struct{}

func (staticSecrets) Verify(secret string) bool { return secret == testAdminSecret }
func (staticSecrets) Rotate(string) error       { return nil }

type testDaemon struct {
	*marketdomain.Service
	payouts *outbox.Gateway
	hub     *app.NotificationHub
	admin   string
}

func newTestDaemon(t *testing.T) *testDaemon {
	t.Helper()
	hub := app.NewNotificationHub(32)
	gateway := outbox.New(0)
	svc := &marketdomain.Service{
		Secrets: staticSecrets{},
		Payouts: gateway,
		Events:  &app.EventFanout{Hub: hub},
		Now:     func() time.Time { return time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC) },
	}
	admin := testAddress(t, 9)
	err := svc.Load(marketdomain.NewState(marketdomain.AdminConfig{
		AdminAddress:  marketdomain.Address(admin),
		FeePercentage: 10,
		ProfitRate:    90,
		FeedbackPrice: amount.New(5),
	}))
	if err != nil {
		t.Fatalf("load state: %v", err)
	}
	return &testDaemon{Service: svc, payouts: gateway, hub: hub, admin: admin}
}

func testAddress(t *testing.T, seed byte) string {
	t.Helper()
	key := ed25519.NewKeyFromSeed(bytes.Repeat([]byte{seed}, ed25519.SeedSize))
	addr, err := marketpolicy.BuildAddress(key.Public().(ed25519.PublicKey))
	if err != nil {
		t.Fatalf("build address: %v", err)
	}
	return string(addr)
}

func (d *testDaemon) ListPayouts(afterSeq uint64, limit int) []outbox.Record {
	return d.payouts.List(afterSeq, limit)
}

func (d *testDaemon) AckPayouts(seq uint64) (int, error) {
	return d.payouts.Ack(seq)
}

func (d *testDaemon) StartNetworking(context.Context) error { return nil }
func (d *testDaemon) StopNetworking(context.Context) error  { return nil }

func (d *testDaemon) NotificationStatus() contracts.NotificationStatus {
	return contracts.NotificationStatus{Transport: "none", State: "disconnected"}
}

func (d *testDaemon) SubscribeNotifications(cursor int64) ([]contracts.NotificationEvent, <-chan contracts.NotificationEvent, func()) {
	return d.hub.Subscribe(cursor)
}
