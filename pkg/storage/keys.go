package storage

import "fmt"

// Pebble key schema:
//
//   ord:<20-digit id>                       → order record (JSON)
//   trade:<20-digit ts>:<bid>-<ask>:<seq>   → trade record (JSON)
//
// IDs and timestamps are zero-padded so lexicographic key order matches
// numeric order; MaxOrderID relies on this to find the highest id with a
// single reverse seek. The seq component keeps two executions between
// the same pair in the same nanosecond from sharing a key.
const (
	prefixOrder = "ord:"
	prefixTrade = "trade:"
)

func orderKey(id uint64) []byte {
	return []byte(fmt.Sprintf("%s%020d", prefixOrder, id))
}

func tradeKey(ts int64, bidID, askID, seq uint64) []byte {
	return []byte(fmt.Sprintf("%s%020d:%d-%d:%d", prefixTrade, ts, bidID, askID, seq))
}

// keyUpperBound returns the exclusive upper bound for a prefix scan.
func keyUpperBound(prefix []byte) []byte {
	bound := make([]byte, len(prefix))
	copy(bound, prefix)
	bound[len(bound)-1]++
	return bound
}
