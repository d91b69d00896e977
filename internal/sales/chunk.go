package sales

// span is a half-open range [lo, hi) of projected rows.
type span struct{ lo, hi int }

// upsertChunks splits n rows into statement-sized spans, in order.
//
// A span never holds two rows with the same key: engines reject an upsert
// that touches one row twice, and splitting there lets the later candidate
// overwrite the earlier one in a following statement. Spans are also capped
// at limit rows.
func upsertChunks(n, limit int, key func(i int) string) []span {
	if n == 0 {
		return nil
	}
	if limit < 1 {
		limit = 1
	}

	var out []span
	lo := 0
	seen := make(map[string]struct{})
	for i := 0; i < n; i++ {
		k := key(i)
		_, dup := seen[k]
		if dup || i-lo >= limit {
			out = append(out, span{lo, i})
			lo = i
			clear(seen)
		}
		seen[k] = struct{}{}
	}
	return append(out, span{lo, n})
}

// rowLimit is the most rows one statement may carry given the dialect's
// bind parameter ceiling and the configured batch size.
func rowLimit(maxParams, width, batch int) int {
	limit := batch
	if width > 0 {
		if byParams := maxParams / width; limit <= 0 || byParams < limit {
			limit = byParams
		}
	}
	if limit < 1 {
		limit = 1
	}
	return limit
}
