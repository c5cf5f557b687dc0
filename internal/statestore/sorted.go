package statestore

import (
	"sort"

	"github.com/bwmarrin/snowflake"
)

// Sorted copies the values of m that keep accepts, ordered by id. For
// snowflake ids that is creation order. A nil keep accepts everything.
func Sorted[V any](m map[snowflake.ID]*V, keep func(*V) bool) []V {
	ids := make([]snowflake.ID, 0, len(m))
	for id, v := range m {
		if keep == nil || keep(v) {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	out := make([]V, 0, len(ids))
	for _, id := range ids {
		out = append(out, *m[id])
	}
	return out
}
