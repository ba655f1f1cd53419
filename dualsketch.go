package chh

import "math"

var _ Sketch = (*DualSketch)(nil)

// EstimateMethod selects how DualSketch turns a bucket's (C, V, U) counters
// into a single frequency estimate on query.
type EstimateMethod int

const (
	EstimateLower    EstimateMethod = iota // C + V
	EstimateUpper                          // U + C + V
	EstimateMean                           // arithmetic mean of lower and upper (default)
	EstimateHarmonic                       // harmonic mean of lower and upper
)

const (
	dualClusterSize = 32   // k: QT cells per cluster
	dualHTFrac      = 0.55 // fraction of memory given to HeavyTable
	htBucketBits    = 32 * 5
	qtCellBits      = 32 * 3
)

// htBucket is one HeavyTable slot: F is the flow occupying it (0 = empty),
// C matches since last promotion, V mismatch (collision) weight, U the
// value of D at the moment F was installed, D accumulated discarded
// weight. Lower-bound estimate is C+V; upper bound is U+C+V.
type htBucket struct {
	f, u, c, v, d uint32
}

// qtCell is one QuadTable slot: E the element, R its frequency, P its
// owning flow. E=0 means empty.
type qtCell struct {
	e, r, p uint32
}

// DualSketch pairs a HeavyTable of flow buckets with a QuadTable of
// per-flow element clusters, using a shared hash to locate both a flow's
// bucket and the cluster of QT cells it may claim. See
// original_source/Cpp/DualSketch.cpp for the exact displacement and
// reconciliation order this mirrors.
type DualSketch struct {
	ht     []htBucket
	qt     []qtCell
	m1     uint32 // len(ht)
	m2     uint32 // len(qt)
	seed   uint32
	method EstimateMethod
}

// NewDualSketch derives HT/QT sizes from the memory budget per the 0.55/0.45
// split and fixed 160/96-bit slot widths.
func NewDualSketch(memoryKB float64) (*DualSketch, error) {
	memoKBHT := memoryKB * dualHTFrac
	memoKBQT := memoryKB - memoKBHT

	m1 := uint32(math.Round(memoKBHT * 1024 * 8 / htBucketBits))
	m2 := uint32(math.Round(memoKBQT * 1024 * 8 / qtCellBits))

	if m1 == 0 {
		return nil, &ConfigError{Sketch: "DualSketch", Field: "m1", MemoryKB: memoryKB}
	}
	if m2 < dualClusterSize {
		return nil, &ConfigError{Sketch: "DualSketch", Field: "m2", MemoryKB: memoryKB}
	}

	seeds := generateSeeds(1)
	return &DualSketch{
		ht:     make([]htBucket, m1),
		qt:     make([]qtCell, m2),
		m1:     m1,
		m2:     m2,
		seed:   seeds[0],
		method: EstimateMean,
	}, nil
}

// SetEstimateMethod overrides the default arithmetic-mean estimator.
func (d *DualSketch) SetEstimateMethod(m EstimateMethod) {
	d.method = m
}

func (d *DualSketch) clusterStart(hash uint32) uint32 {
	return hash % (d.m2 - dualClusterSize + 1)
}

// reconcile drops x's HT bucket if no QT cell in its cluster still claims
// ownership, folding the lost C+V weight into D. This is what keeps HT
// estimates from outliving every trace of a flow in QT.
func (d *DualSketch) reconcile(x uint32) {
	h := hash32(x, d.seed)
	j0 := d.clusterStart(h)
	for j := j0; j < j0+dualClusterSize; j++ {
		if d.qt[j].p == x {
			return
		}
	}
	idx := h % d.m1
	b := &d.ht[idx]
	b.f = 0
	b.u = 0
	b.d += b.c + b.v
	b.c = 0
	b.v = 0
}

// evictFlowFromQT clears every QT cell still owned by x, after its HT
// bucket has already been evicted (Case C).
func (d *DualSketch) evictFlowFromQT(x uint32) {
	h := hash32(x, d.seed)
	j0 := d.clusterStart(h)
	for j := j0; j < j0+dualClusterSize; j++ {
		if d.qt[j].p == x {
			d.qt[j] = qtCell{}
		}
	}
}

// installNewOccupant claims HT[idx] for x with a fresh C=1 bucket and
// installs (y, 1, x) at QT cell j.
func (d *DualSketch) installNewOccupant(idx, j, x, y uint32) {
	d.qt[j] = qtCell{e: y, r: 1, p: x}
	b := &d.ht[idx]
	b.f = x
	b.u = b.d
	b.c = 1
	b.v = 0
}

// minRCell finds the cluster cell with the smallest R.
func (d *DualSketch) minRCell(j0 uint32) uint32 {
	minJ := j0
	minR := d.qt[j0].r
	for j := j0 + 1; j < j0+dualClusterSize; j++ {
		if d.qt[j].r < minR {
			minR = d.qt[j].r
			minJ = j
		}
	}
	return minJ
}

// Update advances the sketch by one observation. x is the flow label, y
// the element label.
func (d *DualSketch) Update(x, y uint32) {
	h := hash32(x, d.seed)
	idx := h % d.m1
	j0 := d.clusterStart(h)

	switch {
	case d.ht[idx].f == 0:
		d.updateEmptyBucket(idx, j0, x, y)
	case d.ht[idx].f == x:
		d.updateOwnBucket(idx, j0, x, y)
	default:
		d.updateForeignBucket(idx, x)
	}
}

// updateEmptyBucket handles Case A: HT[idx] is unoccupied.
func (d *DualSketch) updateEmptyBucket(idx, j0, x, y uint32) {
	for j := j0; j < j0+dualClusterSize; j++ {
		if d.qt[j].e == 0 {
			d.installNewOccupant(idx, j, x, y)
			return
		}
	}

	minJ := d.minRCell(j0)
	d.qt[minJ].r--
	if d.qt[minJ].r > 0 {
		d.ht[idx].d++
		return
	}

	xClear := d.qt[minJ].p
	d.installNewOccupant(idx, minJ, x, y)
	if xClear == x {
		// The cleared cell belonged to the arriving flow itself; nothing
		// to reconcile. The reference implementation notes this should
		// never happen in practice.
		return
	}
	d.reconcile(xClear)
}

// updateOwnBucket handles Case B: HT[idx].F == x already.
func (d *DualSketch) updateOwnBucket(idx, j0, x, y uint32) {
	d.ht[idx].c++

	emptyJ := int64(-1)
	for j := j0; j < j0+dualClusterSize; j++ {
		if d.qt[j].e == y && d.qt[j].p == x {
			d.qt[j].r++
			return
		}
		if d.qt[j].e == 0 && emptyJ == -1 {
			emptyJ = int64(j)
		}
	}

	if emptyJ != -1 {
		d.qt[emptyJ] = qtCell{e: y, r: 1, p: x}
		return
	}

	minJ := d.minRCell(j0)
	d.qt[minJ].r--
	if d.qt[minJ].r > 0 {
		return
	}

	xClear := d.qt[minJ].p
	d.qt[minJ] = qtCell{e: y, r: 1, p: x}
	if xClear == x {
		return
	}
	d.reconcile(xClear)
}

// updateForeignBucket handles Case C: HT[idx] is occupied by another flow.
// The arriving (x, y) pair is dropped outright. HT's counters move, and if
// the occupant's C reaches zero it is evicted and its QT cells are cleared.
func (d *DualSketch) updateForeignBucket(idx, x uint32) {
	b := &d.ht[idx]
	b.c--
	b.v++
	if b.c > 0 {
		b.d++
		return
	}

	xClear := b.f
	b.f = 0
	b.u = 0
	b.c = 0
	b.d += b.v
	b.v = 0

	d.evictFlowFromQT(xClear)
	b.d++
}

// estimate computes the bucket's frequency estimate under d.method.
func (d *DualSketch) estimate(b htBucket) uint32 {
	lower := b.c + b.v
	upper := b.u + b.c + b.v
	switch d.method {
	case EstimateLower:
		return lower
	case EstimateUpper:
		return upper
	case EstimateHarmonic:
		if lower+upper == 0 {
			return 0
		}
		return uint32((2 * uint64(lower) * uint64(upper)) / uint64(lower+upper))
	default: // EstimateMean
		return (lower + upper) / 2
	}
}

// queryRaw returns heavy flows at or above threshold and, for each, the
// raw (element -> count) pairs from its QT cluster, with no phi filtering.
func (d *DualSketch) queryRaw(threshold uint32) (heavyFlows map[uint32]uint32, elements map[uint32]map[uint32]uint32) {
	heavyFlows = make(map[uint32]uint32)
	elements = make(map[uint32]map[uint32]uint32)

	for i := uint32(0); i < d.m1; i++ {
		b := d.ht[i]
		if b.f == 0 {
			continue
		}
		est := d.estimate(b)
		if est < threshold {
			continue
		}
		heavyFlows[b.f] = est

		h := hash32(b.f, d.seed)
		j0 := d.clusterStart(h)
		current := make(map[uint32]uint32)
		for j := j0; j < j0+dualClusterSize; j++ {
			if d.qt[j].e != 0 && d.qt[j].p == b.f {
				current[d.qt[j].e] = d.qt[j].r
			}
		}
		elements[b.f] = current
	}
	return heavyFlows, elements
}

// Query satisfies the common Sketch interface: heavy flows at threshold,
// restricted further to elements whose count meets phi*estimate, matching
// DUET/GlobalHH/2D-MG's post-processing convention (spec's
// "DualSketch derives hot-element selection at post-processing" note).
func (d *DualSketch) Query(threshold uint32, phi float64) (map[uint32]uint32, map[uint32]map[uint32]uint32) {
	heavyFlows, rawElements := d.queryRaw(threshold)
	hot := make(map[uint32]map[uint32]uint32, len(heavyFlows))
	for x, freq := range heavyFlows {
		cutoff := phi * float64(freq)
		filtered := make(map[uint32]uint32)
		for y, count := range rawElements[x] {
			if float64(count) >= cutoff {
				filtered[y] = count
			}
		}
		hot[x] = filtered
	}
	return heavyFlows, hot
}
