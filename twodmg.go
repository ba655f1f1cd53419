package chh

import (
	"math"
	mrand "math/rand/v2"
)

var _ Sketch = (*TwoDMisraGries)(nil)

const (
	twoDMGInnerCap  = 8 // s2: max elements tracked per flow
	twoDMGOuterBits = 32 + 32
	twoDMGInnerBits = 32 + 32
)

// twoDMGInner is one tracked element and its Misra-Gries count within a
// flow's inner list.
type twoDMGInner struct {
	key  uint32
	freq uint32
}

// twoDMGOuter is one tracked flow: its own Misra-Gries count and a capped
// list of its tracked elements.
type twoDMGOuter struct {
	freq  uint32
	inner []twoDMGInner
}

// TwoDMisraGries nests Misra-Gries counting: the outer level tracks flows
// (capped at s1), and each tracked flow owns its own inner Misra-Gries
// list over elements (capped at 8). When the outer map is full, an unseen
// flow triggers a decrement pass over every tracked flow, and a flow whose
// count survives that pass also has a uniformly random element in its
// inner list decremented. See original_source/Cpp/TwoDMisraGries.cpp; the
// reference reseeds a random generator on every decrement, this keeps one
// generator for the sketch's lifetime per the resource model's
// single-generator rule.
type TwoDMisraGries struct {
	s1    uint32
	outer map[uint32]*twoDMGOuter
	rng   *mrand.Rand
}

// NewTwoDMisraGries derives s1 from the memory budget: each outer cell
// costs 64 bits of its own plus 8 inner cells of 64 bits each.
func NewTwoDMisraGries(memoryKB float64) (*TwoDMisraGries, error) {
	bitsPerOuterCell := float64(twoDMGOuterBits + twoDMGInnerCap*twoDMGInnerBits)
	s1 := uint32(math.Round(memoryKB * 1024 * 8 / bitsPerOuterCell))
	if s1 == 0 {
		return nil, &ConfigError{Sketch: "TwoDMisraGries", Field: "s1", MemoryKB: memoryKB}
	}

	return &TwoDMisraGries{
		s1:    s1,
		outer: make(map[uint32]*twoDMGOuter),
		rng:   newLocalRand(),
	}, nil
}

// Update advances the nested Misra-Gries counts for one observation.
func (t *TwoDMisraGries) Update(x, y uint32) {
	if e, ok := t.outer[x]; ok {
		e.freq++
		t.updateInner(e, y)
		return
	}

	if uint32(len(t.outer)) < t.s1 {
		t.outer[x] = &twoDMGOuter{freq: 1, inner: []twoDMGInner{{key: y, freq: 1}}}
		return
	}

	t.decrementAll()
}

// decrementAll runs the outer Misra-Gries eviction pass: every tracked
// flow loses one from its count, a flow that hits zero is dropped, and a
// flow that survives also loses one from a uniformly random inner entry.
func (t *TwoDMisraGries) decrementAll() {
	var toRemove []uint32
	for key, e := range t.outer {
		e.freq--
		if e.freq == 0 {
			toRemove = append(toRemove, key)
			continue
		}
		if len(e.inner) == 0 {
			continue
		}
		idx := t.rng.IntN(len(e.inner))
		e.inner[idx].freq--
		if e.inner[idx].freq == 0 {
			e.inner = append(e.inner[:idx], e.inner[idx+1:]...)
		}
	}
	for _, key := range toRemove {
		delete(t.outer, key)
	}
}

// updateInner applies Misra-Gries to a single flow's element list.
func (t *TwoDMisraGries) updateInner(e *twoDMGOuter, y uint32) {
	for i := range e.inner {
		if e.inner[i].key == y {
			e.inner[i].freq++
			return
		}
	}

	if len(e.inner) < twoDMGInnerCap {
		e.inner = append(e.inner, twoDMGInner{key: y, freq: 1})
		return
	}

	kept := e.inner[:0]
	for i := range e.inner {
		e.inner[i].freq--
		if e.inner[i].freq > 0 {
			kept = append(kept, e.inner[i])
		}
	}
	e.inner = kept
}

// Query reports flows whose outer count meets threshold, and for each,
// elements whose inner count meets phi*(flow's outer count).
func (t *TwoDMisraGries) Query(threshold uint32, phi float64) (map[uint32]uint32, map[uint32]map[uint32]uint32) {
	heavyFlows := make(map[uint32]uint32)
	hotElements := make(map[uint32]map[uint32]uint32)

	for x, e := range t.outer {
		if e.freq < threshold {
			continue
		}
		heavyFlows[x] = e.freq

		cutoff := phi * float64(e.freq)
		for _, in := range e.inner {
			if float64(in.freq) >= cutoff {
				if hotElements[x] == nil {
					hotElements[x] = make(map[uint32]uint32)
				}
				hotElements[x][in.key] = in.freq
			}
		}
	}
	return heavyFlows, hotElements
}
