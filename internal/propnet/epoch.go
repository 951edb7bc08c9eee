package propnet

// Epoch is a monotonic query counter. A memo entry is current exactly when
// its stamp equals the epoch, so invalidating every entry is one increment.
//
// Epoch is not safe for concurrent use; it belongs to one evaluator.
type Epoch struct {
	n uint64
}

// Next advances the epoch and returns the new value.
func (e *Epoch) Next() uint64 {
	e.n++
	return e.n
}

// Current returns the epoch without advancing it. The zero epoch is never
// current for a query, so zero-valued stamps start stale.
func (e *Epoch) Current() uint64 {
	return e.n
}
