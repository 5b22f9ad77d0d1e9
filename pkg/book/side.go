package book

import "container/heap"

// priceHeap is the common surface of the two heap directions.
type priceHeap interface {
	heap.Interface
	Peek() int64
}

// sideIndex holds one side of the book in price-time priority.
//
// Best price is tracked by a heap of price levels, FIFO order within a
// level by an append-only slice, and order lookup by an id -> price map
// so cancel/modify never scan the whole side.
type sideIndex struct {
	side   Side
	prices priceHeap
	levels map[int64][]*Order
	byID   map[uint64]int64 // order id -> resting price
}

func newSideIndex(side Side) *sideIndex {
	var prices priceHeap
	if side == Buy {
		prices = &maxPriceHeap{}
	} else {
		prices = &minPriceHeap{}
	}
	heap.Init(prices)
	return &sideIndex{
		side:   side,
		prices: prices,
		levels: make(map[int64][]*Order),
		byID:   make(map[uint64]int64),
	}
}

func (s *sideIndex) len() int {
	return len(s.byID)
}

// insert places the order at the back of its price level. Arrival order
// within a level is never reordered afterwards.
func (s *sideIndex) insert(o *Order) {
	if len(s.levels[o.Price]) == 0 {
		heap.Push(s.prices, o.Price)
	}
	s.levels[o.Price] = append(s.levels[o.Price], o)
	s.byID[o.ID] = o.Price
}

// peekBest returns the highest-priority resting order, or nil if the
// side is empty.
func (s *sideIndex) peekBest() *Order {
	for s.prices.Len() > 0 {
		p := s.prices.Peek()
		level := s.levels[p]
		if len(level) == 0 {
			// Stale heap entry; drop it and keep looking.
			delete(s.levels, p)
			s.removePrice(p)
			continue
		}
		return level[0]
	}
	return nil
}

// popBest removes the current head of the side. Only the matching loop
// calls this, after the head's remaining quantity reached zero.
func (s *sideIndex) popBest() {
	o := s.peekBest()
	if o == nil {
		return
	}
	s.levels[o.Price] = s.levels[o.Price][1:]
	delete(s.byID, o.ID)
	if len(s.levels[o.Price]) == 0 {
		delete(s.levels, o.Price)
		s.removePrice(o.Price)
	}
}

// removeByID takes an order out of the side regardless of position,
// preserving the relative order of everything else. Returns nil if the
// id is not resting here.
func (s *sideIndex) removeByID(id uint64) *Order {
	price, ok := s.byID[id]
	if !ok {
		return nil
	}
	level := s.levels[price]
	for i, o := range level {
		if o.ID != id {
			continue
		}
		s.levels[price] = append(level[:i], level[i+1:]...)
		delete(s.byID, id)
		if len(s.levels[price]) == 0 {
			delete(s.levels, price)
			s.removePrice(price)
		}
		return o
	}
	return nil
}

// get returns the resting order with the given id, or nil.
func (s *sideIndex) get(id uint64) *Order {
	price, ok := s.byID[id]
	if !ok {
		return nil
	}
	for _, o := range s.levels[price] {
		if o.ID == id {
			return o
		}
	}
	return nil
}

// removePrice drops a price level from the heap (O(n) worst case, but a
// level disappears far less often than orders arrive).
func (s *sideIndex) removePrice(price int64) {
	for i := 0; i < s.prices.Len(); i++ {
		var v int64
		switch h := s.prices.(type) {
		case *maxPriceHeap:
			v = (*h)[i]
		case *minPriceHeap:
			v = (*h)[i]
		}
		if v == price {
			heap.Remove(s.prices, i)
			return
		}
	}
}

// each visits every resting order. Iteration order is per-level FIFO but
// levels come in map order; callers that need price order sort themselves.
func (s *sideIndex) each(fn func(*Order)) {
	for _, level := range s.levels {
		for _, o := range level {
			fn(o)
		}
	}
}
