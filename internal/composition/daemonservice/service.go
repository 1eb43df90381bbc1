package daemonservice

import (
	"context"
	"log/slog"
	"sync"

	"modelmarket/go-backend/internal/app"
	"modelmarket/go-backend/internal/domains/contracts"
	marketdomain "modelmarket/go-backend/internal/domains/marketplace"
	"modelmarket/go-backend/internal/domains/marketplace/adapters/outbox"
	"modelmarket/go-backend/internal/metrics"
	"modelmarket/go-backend/internal/waku"
)

var _ contracts.MarketplaceAPI = (*Service)(nil)
var _ contracts.DaemonService = (*Service)(nil)

// Service is the daemon-facing marketplace: the ledger plus the outbox it
// pays into and the transports its events leave through.
type Service struct {
	*marketdomain.Service

	payouts *outbox.Gateway
	hub     *app.NotificationHub
	node    *waku.Node
	relay   *broadcastRelay
	metrics *metrics.Registry
	logger  *slog.Logger

	startStopMu sync.Mutex
	networking  bool
}

func (s *Service) Metrics() *metrics.Registry {
	return s.metrics
}

func (s *Service) Logger() *slog.Logger {
	return s.logger
}

func (s *Service) ListPayouts(afterSeq uint64, limit int) []outbox.Record {
	return s.payouts.List(afterSeq, limit)
}

func (s *Service) AckPayouts(seq uint64) (int, error) {
	acked, err := s.payouts.Ack(seq)
	if err != nil {
		s.logError("payout.ack", err, "through_seq", seq)
		return 0, err
	}
	if acked > 0 {
		s.logInfo("payout.ack", "payouts acknowledged", "through_seq", seq, "count", acked, "pending", s.payouts.Pending())
	}
	return acked, nil
}

func (s *Service) StartNetworking(ctx context.Context) error {
	s.startStopMu.Lock()
	defer s.startStopMu.Unlock()
	if s.networking {
		return nil
	}
	transport := s.node.Config().Transport
	if transport == waku.TransportNone {
		s.networking = true
		s.logInfo("networking.start", "indexer broadcast disabled", "transport", transport)
		return nil
	}
	if err := s.node.Start(ctx); err != nil {
		s.logError("networking.start", err, "transport", transport)
		return err
	}
	publisher := waku.NewPublisher(s.node, s.logger)
	publisher.Start()
	s.relay.attach(publisher)
	s.networking = true
	s.logInfo("networking.start", "indexer broadcast started", "transport", transport, "state", s.node.Status().State)
	return nil
}

// StopNetworking flushes queued notifications before the node goes down.
func (s *Service) StopNetworking(ctx context.Context) error {
	s.startStopMu.Lock()
	defer s.startStopMu.Unlock()
	if !s.networking {
		return nil
	}
	s.networking = false
	if publisher := s.relay.detach(); publisher != nil {
		publisher.Stop()
		s.relay.retire(publisher)
	}
	if s.node.Config().Transport == waku.TransportNone {
		return nil
	}
	if err := s.node.Stop(ctx); err != nil {
		s.logError("networking.stop", err)
		return err
	}
	s.logInfo("networking.stop", "indexer broadcast stopped")
	return nil
}

func (s *Service) NotificationStatus() contracts.NotificationStatus {
	transport := s.node.Config().Transport
	published, dropped := s.relay.counters()
	if transport == waku.TransportNone {
		return contracts.NotificationStatus{Transport: transport, State: "disabled"}
	}
	status := s.node.Status()
	return contracts.NotificationStatus{
		Transport: transport,
		State:     status.State,
		PeerCount: status.PeerCount,
		Published: published,
		Dropped:   dropped,
	}
}

func (s *Service) SubscribeNotifications(cursor int64) ([]contracts.NotificationEvent, <-chan contracts.NotificationEvent, func()) {
	return s.hub.Subscribe(cursor)
}

// broadcastRelay forwards ledger events to whichever publisher is running.
// Publishers are single-use, so every networking start attaches a fresh one;
// counters of retired publishers are folded into the totals.
type broadcastRelay struct {
	mu               sync.RWMutex
	current          *waku.Publisher
	retiredPublished uint64
	retiredDropped   uint64
}

func (r *broadcastRelay) Enqueue(eventType string, payload any) bool {
	r.mu.RLock()
	publisher := r.current
	r.mu.RUnlock()
	if publisher == nil {
		return false
	}
	return publisher.Enqueue(eventType, payload)
}

func (r *broadcastRelay) attach(publisher *waku.Publisher) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.current = publisher
}

func (r *broadcastRelay) detach() *waku.Publisher {
	r.mu.Lock()
	defer r.mu.Unlock()
	publisher := r.current
	r.current = nil
	return publisher
}

func (r *broadcastRelay) counters() (published, dropped uint64) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	published, dropped = r.retiredPublished, r.retiredDropped
	if r.current != nil {
		p, d, _ := r.current.Counters()
		published += p
		dropped += d
	}
	return published, dropped
}

func (r *broadcastRelay) retire(publisher *waku.Publisher) {
	p, d, _ := publisher.Counters()
	r.mu.Lock()
	defer r.mu.Unlock()
	r.retiredPublished += p
	r.retiredDropped += d
}
