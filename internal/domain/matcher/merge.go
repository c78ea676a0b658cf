package matcher

// MergeOne reconciles a stored result with a fresh one for the same
// transaction. Status never moves backwards; on equal rank the fresh
// result wins.
func MergeOne(stored, fresh Transaction) Transaction {
	if fresh.Status.Rank() < stored.Status.Rank() {
		return stored
	}
	return fresh
}

// Merge reconciles two result sets by transaction id. Output follows the
// order of fresh, followed by stored-only transactions in stored order.
func Merge(stored, fresh []Transaction) []Transaction {
	byID := make(map[string]Transaction, len(stored))
	for _, tx := range stored {
		byID[tx.ID] = tx
	}

	seen := make(map[string]bool, len(fresh))
	out := make([]Transaction, 0, len(stored)+len(fresh))
	for _, tx := range fresh {
		if prev, ok := byID[tx.ID]; ok {
			tx = MergeOne(prev, tx)
		}
		seen[tx.ID] = true
		out = append(out, tx)
	}
	for _, tx := range stored {
		if !seen[tx.ID] {
			out = append(out, tx)
		}
	}
	return out
}

// CanTransition reports whether a stored status may be replaced by next.
func CanTransition(from, to Status) bool {
	return to.Rank() >= from.Rank()
}
