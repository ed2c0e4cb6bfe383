package domain

// RecentOrdersCapacity bounds the recent-orders index.
const RecentOrdersCapacity = 10

// RecentIndex is the most-recent-first list of order IDs backing the
// listing view. Value semantics: Prepend returns the updated list.
type RecentIndex []string

// Prepend inserts id at the front and truncates to capacity, evicting
// from the back. An id already present is moved to the front rather
// than duplicated.
func (ix RecentIndex) Prepend(id string) RecentIndex {
	out := make(RecentIndex, 0, len(ix)+1)
	out = append(out, id)
	for _, v := range ix {
		if v != id {
			out = append(out, v)
		}
	}
	if len(out) > RecentOrdersCapacity {
		out = out[:RecentOrdersCapacity]
	}
	return out
}
