package chh

// Sketch is the capability shared by all five CHH sketches: feed it a
// stream of (x, y) observations one at a time via Update, and query it any
// number of times for the current heavy flows and their hot correlated
// elements. Implementations are single-threaded and exclusively owned by
// their caller — see the package's concurrency notes in DESIGN.md.
//
// Query returns heavyFlows as x -> estimated frequency, and hotElements as
// x -> (y -> estimated co-occurrence count), restricted to x already
// present in heavyFlows. Both maps omit zero-frequency entries. The
// reference implementation returns ordered (std::map) containers; a Go
// map carries the same key/value content but not the iteration order, so
// callers that need ascending-key order should range over SortedKeys of
// the returned map rather than the map itself.
type Sketch interface {
	Update(x, y uint32)
	Query(threshold uint32, phi float64) (heavyFlows map[uint32]uint32, hotElements map[uint32]map[uint32]uint32)
}
