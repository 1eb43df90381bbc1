package app

import (
	"testing"
	"time"

	marketdomain "modelmarket/go-backend/internal/domains/marketplace"
	marketmodel "modelmarket/go-backend/internal/domains/marketplace/model"
)

type fakeQueue struct {
	accept bool
	types  []string
}

func (q *fakeQueue) Enqueue(eventType string, _ any) bool {
	q.types = append(q.types, eventType)
	return q.accept
}

type fakeRecorder struct {
	outcomes []string
}

func (r *fakeRecorder) RecordNotification(outcome string) {
	r.outcomes = append(r.outcomes, outcome)
}

func TestEventFanoutPublishesToHubAndQueue(t *testing.T) {
	hub := NewNotificationHub(8)
	queue := &fakeQueue{accept: true}
	recorder := &fakeRecorder{}
	fanout := &EventFanout{Hub: hub, Broadcast: queue, Metrics: recorder}

	fanout.Emit(marketdomain.Event{Type: marketmodel.EventNewBid, OccurredAt: time.Unix(10, 0).UTC()})

	replay, _, cancel := hub.Subscribe(0)
	defer cancel()
	if len(replay) != 1 || replay[0].Method != "bid.new" {
		t.Fatalf("unexpected hub replay: %+v", replay)
	}
	if evt, ok := replay[0].Payload.(marketdomain.Event); !ok || evt.Type != marketmodel.EventNewBid {
		t.Fatalf("unexpected hub payload: %#v", replay[0].Payload)
	}
	if len(queue.types) != 1 || queue.types[0] != "bid.new" {
		t.Fatalf("unexpected queued types: %v", queue.types)
	}
	if len(recorder.outcomes) != 1 || recorder.outcomes[0] != "queued" {
		t.Fatalf("unexpected outcomes: %v", recorder.outcomes)
	}
}

func TestEventFanoutCountsDrops(t *testing.T) {
	recorder := &fakeRecorder{}
	var logged int
	fanout := &EventFanout{
		Broadcast: &fakeQueue{accept: false},
		Metrics:   recorder,
		LogInfo:   func(string, ...any) { logged++ },
	}
	fanout.Emit(marketdomain.Event{Type: marketmodel.EventWithdrawal})
	if len(recorder.outcomes) != 1 || recorder.outcomes[0] != "dropped" || logged != 1 {
		t.Fatalf("expected one dropped notification, got outcomes=%v logged=%d", recorder.outcomes, logged)
	}
}
