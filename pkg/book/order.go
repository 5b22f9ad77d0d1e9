package book

import "fmt"

// Side of the book an order rests on.
type Side int

const (
	Buy Side = iota
	Sell
)

// Status of an order. Filled and Cancelled are terminal: once an order
// reaches either, it leaves the book and is never mutated again.
type Status int

const (
	Open Status = iota
	PartiallyFilled
	Filled
	Cancelled
)

// String spellings below are the wire contract with the durable store
// and the API layer. Do not change them.

func (s Side) String() string {
	switch s {
	case Buy:
		return "Buy"
	case Sell:
		return "Sell"
	}
	return fmt.Sprintf("Side(%d)", int(s))
}

// ParseSide maps a wire string back to a Side.
func ParseSide(s string) (Side, error) {
	switch s {
	case "Buy":
		return Buy, nil
	case "Sell":
		return Sell, nil
	}
	return 0, fmt.Errorf("invalid side %q", s)
}

func (s Status) String() string {
	switch s {
	case Open:
		return "Open"
	case PartiallyFilled:
		return "PartiallyFilled"
	case Filled:
		return "Filled"
	case Cancelled:
		return "Cancelled"
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

// ParseStatus maps a wire string back to a Status.
func ParseStatus(s string) (Status, error) {
	switch s {
	case "Open":
		return Open, nil
	case "PartiallyFilled":
		return PartiallyFilled, nil
	case "Filled":
		return Filled, nil
	case "Cancelled":
		return Cancelled, nil
	}
	return 0, fmt.Errorf("invalid status %q", s)
}

// Terminal reports whether no further mutation is permitted.
func (s Status) Terminal() bool {
	return s == Filled || s == Cancelled
}

// Order is the mutable book entry for a single limit order.
//
// Price is in the smallest currency unit (integer ticks), quantities in
// integer lots. OriginalQty is immutable after construction; RemainingQty
// only moves through matching, modify, or cancel while the order is held
// under the book lock.
type Order struct {
	ID           uint64
	Side         Side
	Price        int64
	OriginalQty  int64
	RemainingQty int64
	CreatedAt    int64 // nanoseconds since epoch
	Status       Status
}

// deriveStatus recomputes status from remaining quantity after a fill or
// a modify. Cancellation is handled separately; it never goes through here.
func (o *Order) deriveStatus() {
	switch {
	case o.RemainingQty == 0:
		o.Status = Filled
	case o.RemainingQty < o.OriginalQty:
		o.Status = PartiallyFilled
	default:
		o.Status = Open
	}
}

// Trade is one execution between a resting order and an incoming order.
// Price is always the maker's price: the price of the order that was
// already resting when the crossing was detected.
type Trade struct {
	BidID      uint64
	AskID      uint64
	Qty        int64
	Price      int64
	ExecutedAt int64 // nanoseconds since epoch
}
