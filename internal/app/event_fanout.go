package app

import (
	marketdomain "modelmarket/go-backend/internal/domains/marketplace"
)

type BroadcastQueue interface {
	Enqueue(eventType string, payload any) bool
}

type NotificationRecorder interface {
	RecordNotification(outcome string)
}

// EventFanout delivers every committed ledger event to the local hub and, when
// configured, to the indexer broadcast queue. It never blocks the caller.
type EventFanout struct {
	Hub       *NotificationHub
	Broadcast BroadcastQueue
	Metrics   NotificationRecorder
	LogInfo   func(message string, args ...any)
}

func (f *EventFanout) Emit(event marketdomain.Event) {
	method := string(event.Type)
	if f.Hub != nil {
		f.Hub.Publish(method, event)
	}
	if f.Broadcast == nil {
		return
	}
	outcome := "queued"
	if !f.Broadcast.Enqueue(method, event) {
		outcome = "dropped"
		if f.LogInfo != nil {
			f.LogInfo("ledger notification dropped", "type", method)
		}
	}
	if f.Metrics != nil {
		f.Metrics.RecordNotification(outcome)
	}
}
