package app

import (
	"sync"
	"time"

	"modelmarket/go-backend/internal/domains/contracts"
)

type NotificationEvent = contracts.NotificationEvent

// NotificationHub keeps a bounded replay history and fans events out to
// stream subscribers. A subscriber that cannot keep up is disconnected rather
// than slowing the publisher down.
type NotificationHub struct {
	mu          sync.Mutex
	nextSeq     int64
	limit       int
	history     []NotificationEvent
	subs        map[int]chan NotificationEvent
	nextSub     int
	bufferSize  int
	disconnects int
	now         func() time.Time
}

func NewNotificationHub(limit int) *NotificationHub {
	if limit < 1 {
		limit = 1
	}
	return &NotificationHub{
		limit:      limit,
		subs:       make(map[int]chan NotificationEvent),
		bufferSize: 128,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

func (h *NotificationHub) Publish(method string, payload any) NotificationEvent {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.nextSeq++
	event := NotificationEvent{
		Seq:       h.nextSeq,
		Method:    method,
		Payload:   payload,
		Timestamp: h.now(),
	}
	h.history = append(h.history, event)
	if len(h.history) > h.limit {
		h.history = append([]NotificationEvent(nil), h.history[len(h.history)-h.limit:]...)
	}

	for id, ch := range h.subs {
		select {
		case ch <- event:
		default:
			close(ch)
			delete(h.subs, id)
			h.disconnects++
		}
	}
	return event
}

// Subscribe returns the retained events after fromSeq plus a live channel.
// The channel is closed by cancel or when the subscriber falls behind.
func (h *NotificationHub) Subscribe(fromSeq int64) ([]NotificationEvent, <-chan NotificationEvent, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	replay := make([]NotificationEvent, 0)
	for _, event := range h.history {
		if event.Seq > fromSeq {
			replay = append(replay, event)
		}
	}

	id := h.nextSub
	h.nextSub++
	ch := make(chan NotificationEvent, h.bufferSize)
	h.subs[id] = ch

	cancel := func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if sub, ok := h.subs[id]; ok {
			close(sub)
			delete(h.subs, id)
		}
	}
	return replay, ch, cancel
}

func (h *NotificationHub) BacklogSize() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.history)
}

func (h *NotificationHub) Stats() (subscribers, disconnects int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs), h.disconnects
}
