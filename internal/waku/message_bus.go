package waku

import "sync"

// messageBus is the in-process broadcast used by the mock transport.
type messageBus struct {
	mu     sync.Mutex
	nextID int
	topics map[string]map[int]func(Notification)
}

var globalBus = &messageBus{topics: make(map[string]map[int]func(Notification))}

func (b *messageBus) publish(topic string, msg Notification) {
	b.mu.Lock()
	handlers := make([]func(Notification), 0, len(b.topics[topic]))
	for _, h := range b.topics[topic] {
		handlers = append(handlers, h)
	}
	b.mu.Unlock()
	for _, h := range handlers {
		h(msg)
	}
}

func (b *messageBus) subscribe(topic string, handler func(Notification)) func() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	id := b.nextID
	if b.topics[topic] == nil {
		b.topics[topic] = make(map[int]func(Notification))
	}
	b.topics[topic][id] = handler
	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.topics[topic], id)
	}
}
