// Package service is the only write entry point into the system. It
// coordinates the book, the ID allocator, and the durable store:
// mutations run under the book lock, then their deltas are handed to
// the write-behind worker after the lock is released.
package service

import (
	"sync"

	"go.uber.org/zap"

	"github.com/marketgrid/limitbook/pkg/book"
	"github.com/marketgrid/limitbook/pkg/sequence"
	"github.com/marketgrid/limitbook/pkg/storage"
)

type Service struct {
	// mu spans each book mutation and its enqueue so write-behind
	// operations reach the worker in mutation order. Without it, two
	// operations on the same id could enqueue in the opposite order
	// from their commits and the older snapshot would land last in the
	// store. A buffered channel send is not I/O; the no-I/O-under-lock
	// rule holds.
	mu     sync.Mutex
	book   *book.Book
	seq    *sequence.Sequencer
	writer *writer
	log    *zap.SugaredLogger
}

// New wires the service. The caller owns the store and closes it after
// Close has drained the write-behind queue.
func New(b *book.Book, seq *sequence.Sequencer, store *storage.Store, log *zap.SugaredLogger, cfg WriterConfig) *Service {
	return &Service{
		book:   b,
		seq:    seq,
		writer: newWriter(store, log, cfg),
		log:    log,
	}
}

// Submit validates, allocates an id, places the order, and hands the
// resulting order and trade deltas to the write-behind worker. The
// returned snapshot may already be PartiallyFilled or Filled.
//
// Validation runs before id allocation so a rejected request burns
// neither an id nor any state.
func (s *Service) Submit(side book.Side, price, qty int64) (book.Order, error) {
	if price <= 0 {
		return book.Order{}, book.ErrInvalidPrice
	}
	if qty <= 0 {
		return book.Order{}, book.ErrInvalidQuantity
	}

	id := s.seq.Next()

	s.mu.Lock()
	res, err := s.book.Submit(id, side, price, qty)
	if err != nil {
		s.mu.Unlock()
		return book.Order{}, err
	}

	op := writeOp{orders: make([]storage.OrderRecord, 0, 1+len(res.Makers))}
	op.orders = append(op.orders, storage.RecordFromOrder(res.Order))
	for _, m := range res.Makers {
		op.orders = append(op.orders, storage.RecordFromOrder(m))
	}
	for _, t := range res.Trades {
		op.trades = append(op.trades, storage.RecordFromTrade(t))
	}
	s.writer.enqueue(op)
	s.mu.Unlock()

	s.log.Infow("order_submitted",
		"id", res.Order.ID,
		"side", res.Order.Side.String(),
		"price", res.Order.Price,
		"qty", res.Order.OriginalQty,
		"status", res.Order.Status.String(),
		"trades", len(res.Trades),
	)
	return res.Order, nil
}

// Modify replaces an order's remaining quantity. Quantity 0 delegates
// to Cancel. Returns book.ErrOrderNotFound for ids not resting in
// either side.
func (s *Service) Modify(id uint64, qty int64) (book.Order, error) {
	s.mu.Lock()
	o, err := s.book.Modify(id, qty)
	if err != nil {
		s.mu.Unlock()
		return book.Order{}, err
	}
	s.writer.enqueue(writeOp{orders: []storage.OrderRecord{storage.RecordFromOrder(o)}})
	s.mu.Unlock()

	s.log.Infow("order_modified", "id", o.ID, "remaining", o.RemainingQty, "status", o.Status.String())
	return o, nil
}

// Cancel removes an order from the book. Returns book.ErrOrderNotFound
// for ids not resting in either side (never issued or already terminal).
func (s *Service) Cancel(id uint64) (book.Order, error) {
	s.mu.Lock()
	o, err := s.book.Cancel(id)
	if err != nil {
		s.mu.Unlock()
		return book.Order{}, err
	}
	s.writer.enqueue(writeOp{orders: []storage.OrderRecord{storage.RecordFromOrder(o)}})
	s.mu.Unlock()

	s.log.Infow("order_cancelled", "id", o.ID, "remaining", o.RemainingQty)
	return o, nil
}

// Book exposes the in-memory book for read paths (snapshots, health).
// In-memory state is authoritative for all reads.
func (s *Service) Book() *book.Book {
	return s.book
}

// Close drains the write-behind queue. Call before closing the store.
func (s *Service) Close() {
	s.writer.close()
}
