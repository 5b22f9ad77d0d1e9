package api

import (
	"strconv"

	"github.com/marketgrid/limitbook/pkg/book"
)

// Request/response types for the REST endpoints.

// CreateOrderRequest is the POST /orders payload.
type CreateOrderRequest struct {
	Side     string `json:"side"`     // "Buy" or "Sell"
	Price    int64  `json:"price"`    // integer ticks, smallest currency unit
	Quantity int64  `json:"quantity"` // integer lots
}

// ModifyOrderRequest is the PUT /orders/{id} payload.
type ModifyOrderRequest struct {
	Quantity int64 `json:"quantity"`
}

// OrderResponse is the external view of an order snapshot. Side and
// status use the same spellings as the durable store.
type OrderResponse struct {
	ID                uint64 `json:"id"`
	Side              string `json:"side"`
	Price             int64  `json:"price"`
	OriginalQuantity  int64  `json:"originalQuantity"`
	RemainingQuantity int64  `json:"remainingQuantity"`
	Status            string `json:"status"`
	Timestamp         string `json:"timestamp"` // nanoseconds since epoch, string-encoded
}

func orderResponse(o book.Order) OrderResponse {
	return OrderResponse{
		ID:                o.ID,
		Side:              o.Side.String(),
		Price:             o.Price,
		OriginalQuantity:  o.OriginalQty,
		RemainingQuantity: o.RemainingQty,
		Status:            o.Status.String(),
		Timestamp:         strconv.FormatInt(o.CreatedAt, 10),
	}
}

// BookSnapshot is the GET /orderbook response: aggregated price levels
// per side, best-first.
type BookSnapshot struct {
	Bids      []book.PriceLevel `json:"bids"`      // sorted high to low
	Asks      []book.PriceLevel `json:"asks"`      // sorted low to high
	Timestamp int64             `json:"timestamp"` // unix milliseconds
}

// ErrorResponse is the body of every non-2xx reply.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
