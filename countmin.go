package chh

// countMinDepth is the fixed row count d (spec.md §3, §4.6).
const countMinDepth = 3

// CountMin is a d x w counter matrix used as a point-frequency estimator
// for flow labels x. Depth is fixed at 3; width is derived once from the
// memory budget. Counters are monotone non-decreasing: query never
// underestimates the true frequency.
type CountMin struct {
	width   uint32
	seeds   [countMinDepth]uint32
	counter [countMinDepth][]uint32
}

// NewCountMin derives width from memoryKB (d rows x w columns x 32-bit
// counters) and allocates the matrix once. It fails if the derived width
// would be zero.
func NewCountMin(memoryKB float64) (*CountMin, error) {
	totalBits := memoryKB * 1024 * 8
	width := uint32(totalBits / (countMinDepth * 32))
	if width == 0 {
		return nil, &ConfigError{Sketch: "CountMin", Field: "width", MemoryKB: memoryKB}
	}

	cm := &CountMin{width: width}
	seeds := generateSeeds(countMinDepth)
	copy(cm.seeds[:], seeds)
	for r := range cm.counter {
		cm.counter[r] = make([]uint32, width)
	}
	return cm, nil
}

// Update adds weight to x's counter in every row.
func (c *CountMin) Update(x uint32, weight uint32) {
	for r := 0; r < countMinDepth; r++ {
		col := hash32(x, c.seeds[r]) % c.width
		c.counter[r][col] += weight
	}
}

// Query returns the minimum counter across all rows for x, an upper-bound
// estimate of its true frequency.
func (c *CountMin) Query(x uint32) uint32 {
	minVal := uint32(0)
	for r := 0; r < countMinDepth; r++ {
		col := hash32(x, c.seeds[r]) % c.width
		v := c.counter[r][col]
		if r == 0 || v < minVal {
			minVal = v
		}
	}
	return minVal
}
