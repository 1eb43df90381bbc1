package outbox

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	marketusecase "modelmarket/go-backend/internal/domains/marketplace/usecase"
)

const defaultCapacity = 10000

var (
	ErrOutboxFull     = errors.New("payout outbox is full")
	ErrInvalidJournal = errors.New("payout journal is invalid")
)

// Record is one payout handed to the outbox. Seq is assigned in arrival order.
type Record struct {
	Seq      uint64               `json:"seq"`
	Payout   marketusecase.Payout `json:"payout"`
	QueuedAt time.Time            `json:"queued_at"`
}

// Journal is the durable form of the outbox.
type Journal struct {
	NextSeq uint64   `json:"next_seq"`
	Records []Record `json:"records"`
}

// Gateway keeps payouts for an external settlement worker to drain. With a
// Persist hook every change is journaled before it becomes visible; a failed
// write leaves the outbox unchanged.
type Gateway struct {
	mu       sync.Mutex
	records  []Record
	nextSeq  uint64
	capacity int

	Persist func(Journal) error
	Now     func() time.Time
	LogInfo func(message string, args ...any)
}

func New(capacity int) *Gateway {
	if capacity <= 0 {
		capacity = defaultCapacity
	}
	return &Gateway{capacity: capacity, nextSeq: 1}
}

func (g *Gateway) Transfer(ctx context.Context, payout marketusecase.Payout) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.records) >= g.capacity {
		return ErrOutboxFull
	}
	now := time.Now().UTC()
	if g.Now != nil {
		now = g.Now().UTC()
	}
	rec := Record{Seq: g.nextSeq, Payout: payout, QueuedAt: now}
	next := append(append(make([]Record, 0, len(g.records)+1), g.records...), rec)
	if err := g.persistLocked(next, g.nextSeq+1); err != nil {
		return err
	}
	g.nextSeq++
	g.records = next
	if g.LogInfo != nil {
		g.LogInfo("payout queued", "seq", rec.Seq, "kind", payout.Kind, "to", string(payout.To), "amount", payout.Amount.String())
	}
	return nil
}

// List returns records with Seq greater than afterSeq, at most limit of them.
func (g *Gateway) List(afterSeq uint64, limit int) []Record {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]Record, 0)
	for _, rec := range g.records {
		if rec.Seq <= afterSeq {
			continue
		}
		if limit > 0 && len(out) >= limit {
			break
		}
		out = append(out, rec)
	}
	return out
}

// Ack drops every record up to and including seq. A failed journal write
// keeps every record and is returned to the caller.
func (g *Gateway) Ack(seq uint64) (int, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	n := 0
	for n < len(g.records) && g.records[n].Seq <= seq {
		n++
	}
	if n == 0 {
		return 0, nil
	}
	rest := append(make([]Record, 0, len(g.records)-n), g.records[n:]...)
	if err := g.persistLocked(rest, g.nextSeq); err != nil {
		return 0, fmt.Errorf("journal payout ack through %d: %w", seq, err)
	}
	g.records = rest
	return n, nil
}

// Restore replaces the outbox with a journal loaded at startup.
func (g *Gateway) Restore(j Journal) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	next := j.NextSeq
	if next == 0 {
		next = 1
	}
	for i, rec := range j.Records {
		if rec.Seq == 0 || rec.Seq >= next || (i > 0 && rec.Seq <= j.Records[i-1].Seq) {
			return ErrInvalidJournal
		}
	}
	g.records = append(make([]Record, 0, len(j.Records)), j.Records...)
	g.nextSeq = next
	return nil
}

func (g *Gateway) persistLocked(records []Record, nextSeq uint64) error {
	if g.Persist == nil {
		return nil
	}
	return g.Persist(Journal{NextSeq: nextSeq, Records: records})
}

func (g *Gateway) Pending() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.records)
}
