package storage

import (
	"fmt"
	"strconv"

	"github.com/marketgrid/limitbook/pkg/book"
)

// OrderRecord is the durable wire form of an order. The string spellings
// of side and status, and the string-encoded integer timestamp, are the
// storage contract; recovery parses them back through the closed enums.
type OrderRecord struct {
	ID                uint64 `json:"id"`
	Side              string `json:"side"`
	Price             int64  `json:"price"`
	OriginalQuantity  int64  `json:"original_quantity"`
	RemainingQuantity int64  `json:"remaining_quantity"`
	Status            string `json:"status"`
	Timestamp         string `json:"timestamp"`
}

// TradeRecord is the durable wire form of one execution.
type TradeRecord struct {
	BidID     uint64 `json:"bid_id"`
	AskID     uint64 `json:"ask_id"`
	Quantity  int64  `json:"quantity"`
	Price     int64  `json:"price"`
	Timestamp string `json:"timestamp"`
}

// RecordFromOrder snapshots an order into its wire form.
func RecordFromOrder(o book.Order) OrderRecord {
	return OrderRecord{
		ID:                o.ID,
		Side:              o.Side.String(),
		Price:             o.Price,
		OriginalQuantity:  o.OriginalQty,
		RemainingQuantity: o.RemainingQty,
		Status:            o.Status.String(),
		Timestamp:         strconv.FormatInt(o.CreatedAt, 10),
	}
}

// RecordFromTrade snapshots a trade into its wire form.
func RecordFromTrade(t book.Trade) TradeRecord {
	return TradeRecord{
		BidID:     t.BidID,
		AskID:     t.AskID,
		Quantity:  t.Qty,
		Price:     t.Price,
		Timestamp: strconv.FormatInt(t.ExecutedAt, 10),
	}
}

// ToOrder converts a wire record back to the domain entity. A record
// with an unknown side or status spelling is corrupt, not skippable.
func (r OrderRecord) ToOrder() (book.Order, error) {
	side, err := book.ParseSide(r.Side)
	if err != nil {
		return book.Order{}, fmt.Errorf("order %d: %w", r.ID, err)
	}
	status, err := book.ParseStatus(r.Status)
	if err != nil {
		return book.Order{}, fmt.Errorf("order %d: %w", r.ID, err)
	}
	ts, err := strconv.ParseInt(r.Timestamp, 10, 64)
	if err != nil {
		return book.Order{}, fmt.Errorf("order %d: invalid timestamp %q: %w", r.ID, r.Timestamp, err)
	}
	return book.Order{
		ID:           r.ID,
		Side:         side,
		Price:        r.Price,
		OriginalQty:  r.OriginalQuantity,
		RemainingQty: r.RemainingQuantity,
		CreatedAt:    ts,
		Status:       status,
	}, nil
}
