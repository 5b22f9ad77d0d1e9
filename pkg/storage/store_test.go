package storage

import (
	"testing"

	"github.com/cockroachdb/pebble"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marketgrid/limitbook/pkg/book"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func rec(id uint64, status book.Status, remaining int64) OrderRecord {
	return RecordFromOrder(book.Order{
		ID:           id,
		Side:         book.Buy,
		Price:        100,
		OriginalQty:  10,
		RemainingQty: remaining,
		CreatedAt:    int64(id) * 1000,
		Status:       status,
	})
}

func TestPutOrderIsIdempotentPerID(t *testing.T) {
	s := openTestStore(t)

	require.NoError(t, s.PutOrder(rec(1, book.Open, 10)))
	require.NoError(t, s.PutOrder(rec(1, book.PartiallyFilled, 4)))
	// Retried older-state write converging back is still a full record.
	require.NoError(t, s.PutOrder(rec(1, book.PartiallyFilled, 4)))

	got, ok, err := s.GetOrder(1)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, int64(4), got.RemainingQuantity)
	assert.Equal(t, "PartiallyFilled", got.Status)
}

func TestGetOrderMissing(t *testing.T) {
	s := openTestStore(t)

	_, ok, err := s.GetOrder(99)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestLoadOpenOrdersFiltersTerminal(t *testing.T) {
	s := openTestStore(t)

	require.NoError(t, s.PutOrder(rec(1, book.Open, 10)))
	require.NoError(t, s.PutOrder(rec(2, book.Filled, 0)))
	require.NoError(t, s.PutOrder(rec(3, book.PartiallyFilled, 4)))
	require.NoError(t, s.PutOrder(rec(4, book.Cancelled, 7)))

	orders, err := s.LoadOpenOrders()
	require.NoError(t, err)
	require.Len(t, orders, 2)
	assert.Equal(t, uint64(1), orders[0].ID)
	assert.Equal(t, uint64(3), orders[1].ID)
}

func TestMaxOrderIDCountsTerminalRecords(t *testing.T) {
	s := openTestStore(t)

	max, err := s.MaxOrderID()
	require.NoError(t, err)
	assert.Zero(t, max)

	require.NoError(t, s.PutOrder(rec(1, book.Open, 10)))
	require.NoError(t, s.PutOrder(rec(7, book.Cancelled, 10)))
	require.NoError(t, s.PutOrder(rec(3, book.Filled, 0)))

	// The highest id ever issued wins even though it is terminal, so a
	// restart can never reissue id 7.
	max, err = s.MaxOrderID()
	require.NoError(t, err)
	assert.Equal(t, uint64(7), max)
}

func TestPutTrade(t *testing.T) {
	s := openTestStore(t)

	require.NoError(t, s.PutTrade(RecordFromTrade(book.Trade{
		BidID: 3, AskID: 1, Qty: 5, Price: 100, ExecutedAt: 123456789,
	})))
}

func TestPutTradeRejectsBadTimestamp(t *testing.T) {
	s := openTestStore(t)

	rec := RecordFromTrade(book.Trade{BidID: 3, AskID: 1, Qty: 5, Price: 100, ExecutedAt: 1})
	rec.Timestamp = "not-a-number"
	err := s.PutTrade(rec)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid timestamp")
}

func TestPutTradeKeysDistinctForSameNanosecond(t *testing.T) {
	s := openTestStore(t)

	// Two partial executions between the same pair can land on the same
	// nanosecond; both records must survive.
	tr := RecordFromTrade(book.Trade{BidID: 3, AskID: 1, Qty: 5, Price: 100, ExecutedAt: 123456789})
	require.NoError(t, s.PutTrade(tr))
	require.NoError(t, s.PutTrade(tr))

	prefix := []byte(prefixTrade)
	iter, err := s.db.NewIter(&pebble.IterOptions{
		LowerBound: prefix,
		UpperBound: keyUpperBound(prefix),
	})
	require.NoError(t, err)
	defer iter.Close()

	n := 0
	for iter.First(); iter.Valid(); iter.Next() {
		n++
	}
	require.NoError(t, iter.Error())
	assert.Equal(t, 2, n)
}
