package book

import (
	"errors"
	"sort"
	"sync"
	"time"
)

var (
	// ErrInvalidPrice rejects a submission with price <= 0.
	ErrInvalidPrice = errors.New("price must be positive")
	// ErrInvalidQuantity rejects a submission with quantity <= 0.
	ErrInvalidQuantity = errors.New("quantity must be positive")
	// ErrOrderNotFound is returned by Modify/Cancel when the id is not
	// resting in either side: never issued, already filled, or cancelled.
	ErrOrderNotFound = errors.New("order not found")
)

// PriceLevel is an aggregated view of one price on one side.
type PriceLevel struct {
	Price int64 `json:"price"`
	Qty   int64 `json:"qty"`
}

// Book is the single-instrument limit order book.
//
// It is single-writer: every mutation takes the one mutex for the full
// in-memory change, including a complete matching cascade on submit.
// The lock is never held across I/O; durable writes happen after the
// mutation returns, in the persistence coordinator.
type Book struct {
	mu   sync.Mutex
	bids *sideIndex
	asks *sideIndex

	now func() int64 // nanosecond clock, swappable in tests
}

func New() *Book {
	return &Book{
		bids: newSideIndex(Buy),
		asks: newSideIndex(Sell),
		now:  func() int64 { return time.Now().UnixNano() },
	}
}

// SubmitResult carries everything a submission changed: the submitted
// order's post-match snapshot, the trades in execution order, and the
// post-fill snapshot of each resting counterparty (index-aligned with
// Trades; a maker is touched at most once per submission).
type SubmitResult struct {
	Order  Order
	Trades []Trade
	Makers []Order
}

// Submit places a new limit order, matches it against the opposite side,
// and rests any remainder. The returned snapshot may already be
// PartiallyFilled or Filled.
//
// Validation happens before any state mutation.
func (b *Book) Submit(id uint64, side Side, price, qty int64) (SubmitResult, error) {
	if price <= 0 {
		return SubmitResult{}, ErrInvalidPrice
	}
	if qty <= 0 {
		return SubmitResult{}, ErrInvalidQuantity
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	o := &Order{
		ID:           id,
		Side:         side,
		Price:        price,
		OriginalQty:  qty,
		RemainingQty: qty,
		CreatedAt:    b.now(),
		Status:       Open,
	}

	res := b.match(o)

	if o.RemainingQty > 0 {
		if side == Buy {
			b.bids.insert(o)
		} else {
			b.asks.insert(o)
		}
	}

	res.Order = *o
	return res, nil
}

// match runs the crossing loop for a newly submitted order. The incoming
// order is the taker; each trade executes at the resting (maker) price.
// Purely in-memory and bounded: every iteration removes quantity from
// the book, so it terminates once prices no longer cross or a side runs
// out.
func (b *Book) match(taker *Order) SubmitResult {
	var res SubmitResult
	opposite := b.asks
	if taker.Side == Sell {
		opposite = b.bids
	}

	for taker.RemainingQty > 0 {
		maker := opposite.peekBest()
		if maker == nil {
			break
		}
		if taker.Side == Buy && maker.Price > taker.Price {
			break
		}
		if taker.Side == Sell && maker.Price < taker.Price {
			break
		}

		qty := min(taker.RemainingQty, maker.RemainingQty)
		taker.RemainingQty -= qty
		maker.RemainingQty -= qty
		taker.deriveStatus()
		maker.deriveStatus()

		t := Trade{Qty: qty, Price: maker.Price, ExecutedAt: b.now()}
		if taker.Side == Buy {
			t.BidID, t.AskID = taker.ID, maker.ID
		} else {
			t.BidID, t.AskID = maker.ID, taker.ID
		}
		res.Trades = append(res.Trades, t)
		res.Makers = append(res.Makers, *maker)

		if maker.RemainingQty == 0 {
			opposite.popBest()
		}
	}
	return res
}

// Modify replaces an order's remaining quantity in place. Priority
// position does not change and matching is not re-run, even when the
// quantity grows. newQty == 0 delegates to Cancel.
func (b *Book) Modify(id uint64, newQty int64) (Order, error) {
	if newQty == 0 {
		return b.Cancel(id)
	}
	if newQty < 0 {
		return Order{}, ErrInvalidQuantity
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	o := b.bids.get(id)
	if o == nil {
		o = b.asks.get(id)
	}
	if o == nil {
		return Order{}, ErrOrderNotFound
	}

	o.RemainingQty = newQty
	o.deriveStatus()
	return *o, nil
}

// Cancel removes an order from whichever side holds it and marks it
// Cancelled. Cancelling an id that is not resting (never issued or
// already terminal) returns ErrOrderNotFound.
func (b *Book) Cancel(id uint64) (Order, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	o := b.bids.removeByID(id)
	if o == nil {
		o = b.asks.removeByID(id)
	}
	if o == nil {
		return Order{}, ErrOrderNotFound
	}

	o.Status = Cancelled
	return *o, nil
}

// Restore inserts a recovered order without running the matcher. Used
// only by the startup recovery load; records come from a book that had
// no residual crossing when they were written.
func (b *Book) Restore(o Order) {
	b.mu.Lock()
	defer b.mu.Unlock()

	cp := o
	if cp.Side == Buy {
		b.bids.insert(&cp)
	} else {
		b.asks.insert(&cp)
	}
}

// Get returns a snapshot of a resting order, or false if the id is not
// in either side. In-memory state is authoritative for reads.
func (b *Book) Get(id uint64) (Order, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	o := b.bids.get(id)
	if o == nil {
		o = b.asks.get(id)
	}
	if o == nil {
		return Order{}, false
	}
	return *o, true
}

// BestBid returns the highest resting bid price, or false if no bids.
func (b *Book) BestBid() (int64, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if o := b.bids.peekBest(); o != nil {
		return o.Price, true
	}
	return 0, false
}

// BestAsk returns the lowest resting ask price, or false if no asks.
func (b *Book) BestAsk() (int64, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if o := b.asks.peekBest(); o != nil {
		return o.Price, true
	}
	return 0, false
}

// Depth reports the number of resting orders per side.
func (b *Book) Depth() (bids, asks int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.bids.len(), b.asks.len()
}

// BidLevels returns aggregated bid levels sorted best-first (high to low).
func (b *Book) BidLevels() []PriceLevel {
	b.mu.Lock()
	defer b.mu.Unlock()
	levels := aggregate(b.bids)
	sort.Slice(levels, func(i, j int) bool { return levels[i].Price > levels[j].Price })
	return levels
}

// AskLevels returns aggregated ask levels sorted best-first (low to high).
func (b *Book) AskLevels() []PriceLevel {
	b.mu.Lock()
	defer b.mu.Unlock()
	levels := aggregate(b.asks)
	sort.Slice(levels, func(i, j int) bool { return levels[i].Price < levels[j].Price })
	return levels
}

func aggregate(s *sideIndex) []PriceLevel {
	var levels []PriceLevel
	for price, orders := range s.levels {
		var total int64
		for _, o := range orders {
			total += o.RemainingQty
		}
		if total > 0 {
			levels = append(levels, PriceLevel{Price: price, Qty: total})
		}
	}
	return levels
}

func min(a, b int64) int64 {
	if a < b {
		return a
	}
	return b
}
