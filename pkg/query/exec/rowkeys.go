package exec

import (
	"github.com/netleaf/telemetry/pkg/query/compiler"
	"github.com/netleaf/telemetry/pkg/store"
)

// rowKeyGranule is the time-bucket width folded into a row key's leading
// T2 component, matching the compiler's 2^RowTimeBits slice floor so a
// chunk's row keys align one-to-one with its time granules.
const rowKeyGranule = int64(1) << compiler.RowTimeBits

// BuildRowKeys enumerates the candidate row keys a sub-query's time
// chunk spans: one per T2 granule in [batch.From, batch.End), with the
// sub-query's row-key suffix (stat name/attr, when present) appended.
func BuildRowKeys(sub compiler.WhereSubQuery, batch compiler.Batch) []store.Key {
	if batch.NoOp {
		return nil
	}
	var keys []store.Key
	for t2 := batch.From - batch.From%rowKeyGranule; t2 < batch.End; t2 += rowKeyGranule {
		key := make(store.Key, 0, len(sub.RowKeySuffix)+1)
		key = append(key, store.Uint(uint64(t2)))
		key = append(key, sub.RowKeySuffix...)
		keys = append(keys, key)
	}
	return keys
}
