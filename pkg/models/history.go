package models

// HistoryCap is the maximum number of entries kept in any per-card history.
// Every bounded history in CardMemoryState shares this cap.
const HistoryCap = 20

// AppendBounded appends v to history and drops the oldest entries so that at
// most max remain. The returned slice is a fresh copy when eviction happens,
// so callers can keep the previous history unchanged.
func AppendBounded[T any](history []T, v T, max int) []T {
	history = append(history, v)
	if len(history) > max {
		trimmed := make([]T, max)
		copy(trimmed, history[len(history)-max:])
		return trimmed
	}
	return history
}
