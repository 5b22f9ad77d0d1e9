// Package storage is the durable record of every order the system has
// ever accepted, keyed by id. The in-memory book is authoritative while
// the process runs; this store exists so a restart can rebuild it.
package storage

import (
	"encoding/json"
	"fmt"
	"strconv"
	"sync/atomic"

	"github.com/cockroachdb/pebble"

	"github.com/marketgrid/limitbook/pkg/book"
)

type Store struct {
	db       *pebble.DB
	tradeSeq atomic.Uint64
}

func Open(path string) (*Store, error) {
	db, err := pebble.Open(path, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("open pebble at %s: %w", path, err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error { return s.db.Close() }

// PutOrder writes the full record for an order, replacing any previous
// value under the same id. Writes are idempotent per id: replaying the
// same record converges to the same state.
func (s *Store) PutOrder(rec OrderRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal order %d: %w", rec.ID, err)
	}
	if err := s.db.Set(orderKey(rec.ID), data, pebble.Sync); err != nil {
		return fmt.Errorf("put order %d: %w", rec.ID, err)
	}
	return nil
}

// PutTrade appends an execution record. Trades are history, not state
// the book rebuilds from, so NoSync is acceptable here.
func (s *Store) PutTrade(rec TradeRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal trade %d/%d: %w", rec.BidID, rec.AskID, err)
	}
	ts, err := strconv.ParseInt(rec.Timestamp, 10, 64)
	if err != nil {
		return fmt.Errorf("trade %d/%d: invalid timestamp %q: %w", rec.BidID, rec.AskID, rec.Timestamp, err)
	}
	if err := s.db.Set(tradeKey(ts, rec.BidID, rec.AskID, s.tradeSeq.Add(1)), data, pebble.NoSync); err != nil {
		return fmt.Errorf("put trade %d/%d: %w", rec.BidID, rec.AskID, err)
	}
	return nil
}

// GetOrder loads a single order record. Returns false if the id was
// never persisted.
func (s *Store) GetOrder(id uint64) (OrderRecord, bool, error) {
	data, closer, err := s.db.Get(orderKey(id))
	if err == pebble.ErrNotFound {
		return OrderRecord{}, false, nil
	}
	if err != nil {
		return OrderRecord{}, false, fmt.Errorf("get order %d: %w", id, err)
	}
	defer closer.Close()

	var rec OrderRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return OrderRecord{}, false, fmt.Errorf("decode order %d: %w", id, err)
	}
	return rec, true, nil
}

// LoadOpenOrders returns every record whose status is Open or
// PartiallyFilled, in id order. This is the recovery query.
func (s *Store) LoadOpenOrders() ([]book.Order, error) {
	prefix := []byte(prefixOrder)
	iter, err := s.db.NewIter(&pebble.IterOptions{
		LowerBound: prefix,
		UpperBound: keyUpperBound(prefix),
	})
	if err != nil {
		return nil, fmt.Errorf("iterate orders: %w", err)
	}
	defer iter.Close()

	var orders []book.Order
	for iter.First(); iter.Valid(); iter.Next() {
		var rec OrderRecord
		if err := json.Unmarshal(iter.Value(), &rec); err != nil {
			return nil, fmt.Errorf("decode order record at %s: %w", iter.Key(), err)
		}
		if rec.Status != book.Open.String() && rec.Status != book.PartiallyFilled.String() {
			continue
		}
		o, err := rec.ToOrder()
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, iter.Error()
}

// MaxOrderID returns the highest id ever persisted, across every status
// including terminal ones. Zero-padded keys make this a single reverse
// seek.
func (s *Store) MaxOrderID() (uint64, error) {
	prefix := []byte(prefixOrder)
	iter, err := s.db.NewIter(&pebble.IterOptions{
		LowerBound: prefix,
		UpperBound: keyUpperBound(prefix),
	})
	if err != nil {
		return 0, fmt.Errorf("iterate orders: %w", err)
	}
	defer iter.Close()

	if !iter.Last() {
		return 0, iter.Error()
	}
	var rec OrderRecord
	if err := json.Unmarshal(iter.Value(), &rec); err != nil {
		return 0, fmt.Errorf("decode order record at %s: %w", iter.Key(), err)
	}
	return rec.ID, nil
}
