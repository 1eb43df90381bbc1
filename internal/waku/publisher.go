package waku

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

// Publisher drains a bounded queue of notifications onto the node. The
// ledger never waits on the network: when the queue is full the notification
// is dropped and counted.
type Publisher struct {
	node    *Node
	timeout time.Duration
	queue   chan Notification
	seq     atomic.Uint64
	now     func() time.Time
	logger  *slog.Logger

	published atomic.Uint64
	dropped   atomic.Uint64
	failed    atomic.Uint64

	stopOnce sync.Once
	done     chan struct{}
	wg       sync.WaitGroup
}

func NewPublisher(node *Node, logger *slog.Logger) *Publisher {
	cfg := node.Config()
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{
		node:    node,
		timeout: cfg.PublishTimeout,
		queue:   make(chan Notification, cfg.QueueSize),
		now:     time.Now,
		logger:  logger,
		done:    make(chan struct{}),
	}
}

func (p *Publisher) Start() {
	p.wg.Add(1)
	go p.run()
}

// Stop flushes what is already queued, then returns.
func (p *Publisher) Stop() {
	p.stopOnce.Do(func() { close(p.done) })
	p.wg.Wait()
}

func (p *Publisher) Enqueue(eventType string, payload any) bool {
	raw, err := json.Marshal(payload)
	if err != nil {
		p.failed.Add(1)
		p.logger.Error("notification encode failed", "type", eventType, "error", err)
		return false
	}
	msg := Notification{
		Seq:         p.seq.Add(1),
		Type:        eventType,
		PublishedAt: p.now().UTC(),
		Payload:     raw,
	}
	select {
	case p.queue <- msg:
		return true
	default:
		p.dropped.Add(1)
		p.logger.Warn("notification queue full, dropping", "type", eventType, "seq", msg.Seq)
		return false
	}
}

func (p *Publisher) run() {
	defer p.wg.Done()
	for {
		select {
		case msg := <-p.queue:
			p.publish(msg)
		case <-p.done:
			for {
				select {
				case msg := <-p.queue:
					p.publish(msg)
				default:
					return
				}
			}
		}
	}
}

func (p *Publisher) publish(msg Notification) {
	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()
	if err := p.node.Publish(ctx, msg); err != nil {
		p.failed.Add(1)
		p.logger.Warn("notification publish failed", "type", msg.Type, "seq", msg.Seq, "reason", err.Error())
		return
	}
	p.published.Add(1)
}

// Counters returns published, dropped and failed totals.
func (p *Publisher) Counters() (published, dropped, failed uint64) {
	return p.published.Load(), p.dropped.Load(), p.failed.Load()
}
