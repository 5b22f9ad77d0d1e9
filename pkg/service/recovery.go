package service

import (
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/marketgrid/limitbook/pkg/book"
	"github.com/marketgrid/limitbook/pkg/sequence"
	"github.com/marketgrid/limitbook/pkg/storage"
)

// Recover rebuilds the book from the durable store and seeds the ID
// allocator past the highest id ever issued. It must complete before
// the process accepts traffic.
//
// Records are inserted oldest-first so FIFO order within each price
// level is reconstructed exactly. No matching runs during recovery: the
// records came from a book with no residual crossing.
func Recover(store *storage.Store, b *book.Book, log *zap.SugaredLogger) (*sequence.Sequencer, error) {
	orders, err := store.LoadOpenOrders()
	if err != nil {
		return nil, fmt.Errorf("load open orders: %w", err)
	}

	// Ties on the nanosecond stamp break on id: ids are issued in
	// arrival order, so equal-timestamp orders on a coarse clock still
	// come back in their original FIFO position.
	sort.Slice(orders, func(i, j int) bool {
		if orders[i].CreatedAt != orders[j].CreatedAt {
			return orders[i].CreatedAt < orders[j].CreatedAt
		}
		return orders[i].ID < orders[j].ID
	})
	for _, o := range orders {
		b.Restore(o)
	}

	maxID, err := store.MaxOrderID()
	if err != nil {
		return nil, fmt.Errorf("max order id: %w", err)
	}

	log.Infow("recovery_complete", "open_orders", len(orders), "max_id", maxID)
	return sequence.New(maxID), nil
}
