package chh

var _ Sketch = (*DUET)(nil)

const (
	duetNth         = 1000
	duetCMRatio     = 0.35
	duetFilterRatio = 0.35
	duetStableRatio = 0.30

	duetBucketBits  = 64 + 32 // combined (x,y) key plus a 32-bit count
	duetDFilter     = 4
	duetLStable     = 200
	duetFilterSeed  = 799957137 // hashes y to pick a Filter row
	duetStableXSeed = 17157137  // hashes x to pick an STable row
)

// duetBucket holds a packed (x,y) key and its counter; element 0 means the
// slot is empty (0 is never a valid combine(x,y) since x and y are drawn
// from label space starting at 1 in every test stream this sketch sees).
type duetBucket struct {
	element uint64
	count   uint32
}

// DUET gates arriving pairs through a CountMin flow-frequency estimate: a
// pair belongs to the light Filter (a Misra-Gries sketch over combined
// (x,y) keys) until its flow crosses Nth, at which point the flow's
// surviving Filter entries are promoted into STable and every subsequent
// pair for that flow goes straight to STable. See
// original_source/Cpp/DUET.cpp.
type DUET struct {
	countMin *CountMin

	filter      [][]duetBucket
	dFilter     int
	wFilter     int
	filterSeeds []uint32 // per-row seed for hashing x into a column

	stable  [][]duetBucket
	lStable int
	rStable int
}

// NewDUET splits the memory budget 35% CountMin / 35% Filter / 30% STable.
func NewDUET(memoryKB float64) (*DUET, error) {
	totalBits := memoryKB * 1024 * 8

	cm, err := NewCountMin(totalBits * duetCMRatio / 1024 / 8)
	if err != nil {
		return nil, err
	}

	filterBits := totalBits * duetFilterRatio
	wFilter := int(filterBits / (duetDFilter * duetBucketBits))
	if wFilter < 1 {
		return nil, &ConfigError{Sketch: "DUET", Field: "wFilter", MemoryKB: memoryKB}
	}
	filter := make([][]duetBucket, duetDFilter)
	for i := range filter {
		filter[i] = make([]duetBucket, wFilter)
	}

	stableBits := totalBits * duetStableRatio
	rStable := int(stableBits / (duetLStable * duetBucketBits))
	if rStable < 1 {
		return nil, &ConfigError{Sketch: "DUET", Field: "rStable", MemoryKB: memoryKB}
	}
	stable := make([][]duetBucket, duetLStable)
	for i := range stable {
		stable[i] = make([]duetBucket, rStable)
	}

	return &DUET{
		countMin:    cm,
		filter:      filter,
		dFilter:     duetDFilter,
		wFilter:     wFilter,
		filterSeeds: generateSeeds(duetDFilter),
		stable:      stable,
		lStable:     duetLStable,
		rStable:     rStable,
	}, nil
}

// insertFilter applies the Misra-Gries discipline to the Filter: the row is
// fixed by hashing y (not x), so every flow's pairs scatter across rows by
// element rather than by flow, and the column within that row is chosen by
// hashing x with the row's own seed.
func (d *DUET) insertFilter(x, y uint32) {
	row := hash32(y, duetFilterSeed) % uint32(d.dFilter)
	col := hash32(x, d.filterSeeds[row]) % uint32(d.wFilter)

	cell := &d.filter[row][col]
	combined := combine(x, y)
	switch {
	case cell.element == 0:
		cell.element = combined
		cell.count = 1
	case cell.element == combined:
		cell.count++
	default:
		cell.count--
		if cell.count == 0 {
			cell.element = combined
			cell.count = 1
		}
	}
}

// insertTable applies the weighted Misra-Gries discipline to STable: the
// row is fixed by hashing x, then the row is scanned for an exact match, an
// empty cell, or (failing both) the minimum-count cell, which loses cnt if
// its count exceeds cnt and is otherwise replaced with count cnt-min.
func (d *DUET) insertTable(x, y uint32, cnt uint32) {
	combined := combine(x, y)
	row := hash32(x, duetStableXSeed) % uint32(d.lStable)

	emptyCol := -1
	minCol := -1
	minCount := uint32(0)

	for j := 0; j < d.rStable; j++ {
		cell := &d.stable[row][j]
		if cell.element == combined {
			cell.count += cnt
			return
		}
		if cell.element == 0 && emptyCol == -1 {
			emptyCol = j
		}
		if cell.element != 0 && (minCol == -1 || cell.count < minCount) {
			minCount = cell.count
			minCol = j
		}
	}

	if emptyCol != -1 {
		d.stable[row][emptyCol] = duetBucket{element: combined, count: cnt}
		return
	}

	min := &d.stable[row][minCol]
	if min.count > cnt {
		min.count -= cnt
	} else {
		min.element = combined
		min.count = cnt - min.count
	}
}

// Update routes x,y through the CountMin gate: below Nth it goes to Filter,
// and the instant a flow's CountMin estimate crosses Nth, every Filter
// entry still attributed to that flow is drained into STable.
func (d *DUET) Update(x, y uint32) {
	cmEstimate := d.countMin.Query(x)
	d.countMin.Update(x, 1)

	if cmEstimate >= duetNth {
		d.insertTable(x, y, 1)
		return
	}

	d.insertFilter(x, y)
	if cmEstimate+1 != duetNth {
		return
	}

	for i := 0; i < d.dFilter; i++ {
		col := hash32(x, d.filterSeeds[i]) % uint32(d.wFilter)
		cell := &d.filter[i][col]
		cellX, cellY := split(cell.element)
		if cellX != x {
			continue
		}
		d.insertTable(x, cellY, cell.count)
		cell.element = 0
		cell.count = 0
	}
}

// Query walks STable, reports heavy flows by their CountMin estimate, and
// restricts each flow's hot elements to those meeting phi*estimate.
func (d *DUET) Query(threshold uint32, phi float64) (map[uint32]uint32, map[uint32]map[uint32]uint32) {
	heavyFlows := make(map[uint32]uint32)
	hotElements := make(map[uint32]map[uint32]uint32)

	for i := 0; i < d.lStable; i++ {
		for j := 0; j < d.rStable; j++ {
			cell := d.stable[i][j]
			if cell.element == 0 {
				continue
			}
			x, y := split(cell.element)
			est := d.countMin.Query(x)
			if est < threshold {
				continue
			}
			heavyFlows[x] = est
			if cell.count > 0 && float64(cell.count) >= float64(est)*phi {
				if hotElements[x] == nil {
					hotElements[x] = make(map[uint32]uint32)
				}
				hotElements[x][y] = cell.count
			}
		}
	}
	return heavyFlows, hotElements
}
