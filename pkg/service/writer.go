package service

import (
	"time"

	"go.uber.org/zap"

	"github.com/marketgrid/limitbook/pkg/storage"
)

// WriterConfig tunes the write-behind worker.
type WriterConfig struct {
	QueueDepth int           // buffered operations before enqueue blocks
	Retries    int           // attempts per record beyond the first
	Backoff    time.Duration // delay between attempts
}

func (c WriterConfig) withDefaults() WriterConfig {
	if c.QueueDepth <= 0 {
		c.QueueDepth = 1024
	}
	if c.Retries < 0 {
		c.Retries = 0
	}
	if c.Backoff <= 0 {
		c.Backoff = 50 * time.Millisecond
	}
	return c
}

// writeOp is the durable delta of one completed book mutation.
type writeOp struct {
	orders []storage.OrderRecord
	trades []storage.TradeRecord
}

// writer applies write-behind operations on a single goroutine. One
// serialized consumer means enqueue order is apply order, so a newer
// record for an id can never be overwritten by an older one. A failed
// write is retried with backoff, then logged and dropped; it never
// rolls back or surfaces to the operation's caller.
type writer struct {
	store *storage.Store
	ops   chan writeOp
	done  chan struct{}
	log   *zap.SugaredLogger
	cfg   WriterConfig
}

func newWriter(store *storage.Store, log *zap.SugaredLogger, cfg WriterConfig) *writer {
	w := &writer{
		store: store,
		ops:   make(chan writeOp, cfg.withDefaults().QueueDepth),
		done:  make(chan struct{}),
		log:   log,
		cfg:   cfg.withDefaults(),
	}
	go w.run()
	return w
}

// enqueue hands a delta to the worker. The caller has already released
// the book lock; it does not wait for the write to land.
func (w *writer) enqueue(op writeOp) {
	w.ops <- op
}

func (w *writer) run() {
	defer close(w.done)
	for op := range w.ops {
		for _, rec := range op.orders {
			w.putOrder(rec)
		}
		for _, rec := range op.trades {
			w.putTrade(rec)
		}
	}
}

func (w *writer) putOrder(rec storage.OrderRecord) {
	var err error
	for attempt := 0; attempt <= w.cfg.Retries; attempt++ {
		if attempt > 0 {
			time.Sleep(w.cfg.Backoff)
		}
		if err = w.store.PutOrder(rec); err == nil {
			return
		}
	}
	// In-memory state stays authoritative; the next write for this id
	// carries the full record again.
	w.log.Errorw("order_write_failed", "id", rec.ID, "err", err)
}

func (w *writer) putTrade(rec storage.TradeRecord) {
	var err error
	for attempt := 0; attempt <= w.cfg.Retries; attempt++ {
		if attempt > 0 {
			time.Sleep(w.cfg.Backoff)
		}
		if err = w.store.PutTrade(rec); err == nil {
			return
		}
	}
	w.log.Errorw("trade_write_failed", "bid_id", rec.BidID, "ask_id", rec.AskID, "err", err)
}

// close stops intake and blocks until every queued operation has been
// applied.
func (w *writer) close() {
	close(w.ops)
	<-w.done
}
