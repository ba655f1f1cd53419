package chh

var _ Sketch = (*GlobalHH)(nil)

const globalHHCMRatio = 0.4

// globalHHEntry is one Space-Saving arena slot: a packed (x,y) key and its
// counter.
type globalHHEntry struct {
	key     uint64
	counter uint32
}

// GlobalHH estimates flow size with a CountMin sketch and tracks the
// heaviest (x,y) pairs directly with an approximate Space-Saving arena, an
// append-only slice plus a key->index map for O(1) lookup. See
// original_source/Cpp/GlobalHH.cpp.
type GlobalHH struct {
	countMin *CountMin

	arena    []globalHHEntry
	keyToIdx map[uint64]uint32
	maxNum   uint32
}

// NewGlobalHH splits the memory budget 40% CountMin / 60% Space-Saving
// arena (96 bits per slot: 64-bit key, 32-bit counter).
func NewGlobalHH(memoryKB float64) (*GlobalHH, error) {
	cmKB := memoryKB * globalHHCMRatio
	cm, err := NewCountMin(cmKB)
	if err != nil {
		return nil, err
	}

	ssKB := memoryKB - cmKB
	maxNum := uint32(ssKB * 1024 * 8 / 96)
	if maxNum == 0 {
		return nil, &ConfigError{Sketch: "GlobalHH", Field: "maxNum", MemoryKB: memoryKB}
	}

	return &GlobalHH{
		countMin: cm,
		arena:    make([]globalHHEntry, 0, maxNum),
		keyToIdx: make(map[uint64]uint32, maxNum),
		maxNum:   maxNum,
	}, nil
}

// Update feeds x into the CountMin flow estimator, then applies the
// Space-Saving discipline to combine(x,y) in the arena.
func (g *GlobalHH) Update(x, y uint32) {
	g.countMin.Update(x, 1)

	key := combine(x, y)
	if idx, ok := g.keyToIdx[key]; ok {
		if int(idx) < len(g.arena) && g.arena[idx].key == key {
			g.arena[idx].counter++
			return
		}
		g.repairAndIncrement(key)
		return
	}

	if uint32(len(g.arena)) < g.maxNum {
		g.arena = append(g.arena, globalHHEntry{key: key, counter: 1})
		g.keyToIdx[key] = uint32(len(g.arena) - 1)
		return
	}

	g.replaceMinWithNewKey(key)
}

// repairAndIncrement handles a stale index entry: the map pointed at a
// slot that no longer holds key. Fall back to a linear scan, increment
// whichever slot does hold it, and repair the index.
func (g *GlobalHH) repairAndIncrement(key uint64) {
	for i := range g.arena {
		if g.arena[i].key == key {
			g.arena[i].counter++
			g.keyToIdx[key] = uint32(i)
			logIndexRepair("GlobalHH", "keyToIdx", key)
			return
		}
	}
}

// replaceMinWithNewKey evicts the arena's minimum-counter entry for an
// incoming key once the arena is full, bumping the counter by one the way
// Space-Saving absorbs the unknown weight of what it displaced.
func (g *GlobalHH) replaceMinWithNewKey(newKey uint64) {
	if len(g.arena) == 0 {
		g.arena = append(g.arena, globalHHEntry{key: newKey, counter: 1})
		g.keyToIdx[newKey] = 0
		return
	}

	minIdx := 0
	minCounter := g.arena[0].counter
	for i := 1; i < len(g.arena); i++ {
		if g.arena[i].counter < minCounter {
			minCounter = g.arena[i].counter
			minIdx = i
		}
	}

	delete(g.keyToIdx, g.arena[minIdx].key)
	g.arena[minIdx].key = newKey
	g.arena[minIdx].counter++
	g.keyToIdx[newKey] = uint32(minIdx)
}

// Query walks the arena, reports heavy flows by CountMin estimate, and
// restricts hot elements to those meeting phi*estimate.
func (g *GlobalHH) Query(threshold uint32, phi float64) (map[uint32]uint32, map[uint32]map[uint32]uint32) {
	heavyFlows := make(map[uint32]uint32)
	hotElements := make(map[uint32]map[uint32]uint32)

	for _, entry := range g.arena {
		x, y := split(entry.key)
		est := g.countMin.Query(x)
		if est < threshold {
			continue
		}
		heavyFlows[x] = est
		if float64(entry.counter) >= float64(est)*phi {
			if hotElements[x] == nil {
				hotElements[x] = make(map[uint32]uint32)
			}
			hotElements[x][y] = entry.counter
		}
	}
	return heavyFlows, hotElements
}
