package chh

var _ Sketch = (*CSSCHH)(nil)

const csschhSS1Ratio = 0.4

// csschhFlowEntry is one SS1 arena slot: a flow label and its count.
type csschhFlowEntry struct {
	label uint32
	freq  uint32
}

// csschhElemEntry is one SS2 arena slot: a packed (x,y) key and its count.
type csschhElemEntry struct {
	key     uint64
	counter uint32
}

// CSSCHH cascades two independent Space-Saving arenas: SS1 tracks heavy
// flows directly over x, SS2 tracks hot quadratic elements over
// combine(x,y). Every observation updates both; a flow only contributes
// an element to the final result if SS1 also reports it heavy. N counts
// total observations processed, used to correct SS2's per-flow frequency
// floor at query time. See original_source/Cpp/CSSCHH.cpp.
type CSSCHH struct {
	n uint32

	ss1       []csschhFlowEntry
	keyToIdx1 map[uint32]uint32
	maxNumSS1 uint32

	ss2       []csschhElemEntry
	keyToIdx2 map[uint64]uint32
	maxNumSS2 uint32
}

// NewCSSCHH splits the memory budget 40% SS1 (64 bits/slot: 32-bit label +
// 32-bit count) / 60% SS2 (96 bits/slot: 64-bit key + 32-bit count).
func NewCSSCHH(memoryKB float64) (*CSSCHH, error) {
	ss1KB := memoryKB * csschhSS1Ratio
	ss2KB := memoryKB - ss1KB

	maxNumSS1 := uint32(ss1KB * 1024 * 8 / 64)
	if maxNumSS1 == 0 {
		return nil, &ConfigError{Sketch: "CSSCHH", Field: "maxNumSS1", MemoryKB: memoryKB}
	}
	maxNumSS2 := uint32(ss2KB * 1024 * 8 / 96)
	if maxNumSS2 == 0 {
		return nil, &ConfigError{Sketch: "CSSCHH", Field: "maxNumSS2", MemoryKB: memoryKB}
	}

	return &CSSCHH{
		ss1:       make([]csschhFlowEntry, 0, maxNumSS1),
		keyToIdx1: make(map[uint32]uint32, maxNumSS1),
		maxNumSS1: maxNumSS1,
		ss2:       make([]csschhElemEntry, 0, maxNumSS2),
		keyToIdx2: make(map[uint64]uint32, maxNumSS2),
		maxNumSS2: maxNumSS2,
	}, nil
}

// Update feeds x into SS1 and combine(x,y) into SS2, each under its own
// Space-Saving discipline, and advances the observation count N.
func (c *CSSCHH) Update(x, y uint32) {
	c.n++
	c.insertSS1(x)

	key := combine(x, y)
	if idx, ok := c.keyToIdx2[key]; ok {
		if int(idx) < len(c.ss2) && c.ss2[idx].key == key {
			c.ss2[idx].counter++
			return
		}
		c.repairSS2AndIncrement(key)
		return
	}

	if uint32(len(c.ss2)) < c.maxNumSS2 {
		c.ss2 = append(c.ss2, csschhElemEntry{key: key, counter: 1})
		c.keyToIdx2[key] = uint32(len(c.ss2) - 1)
		return
	}
	c.replaceMinElement(key)
}

func (c *CSSCHH) insertSS1(x uint32) {
	if idx, ok := c.keyToIdx1[x]; ok {
		if int(idx) < len(c.ss1) && c.ss1[idx].label == x {
			c.ss1[idx].freq++
			return
		}
		c.repairSS1AndIncrement(x)
		return
	}

	if uint32(len(c.ss1)) < c.maxNumSS1 {
		c.ss1 = append(c.ss1, csschhFlowEntry{label: x, freq: 1})
		c.keyToIdx1[x] = uint32(len(c.ss1) - 1)
		return
	}
	c.replaceMinFlow(x)
}

func (c *CSSCHH) repairSS1AndIncrement(x uint32) {
	for i := range c.ss1 {
		if c.ss1[i].label == x {
			c.ss1[i].freq++
			c.keyToIdx1[x] = uint32(i)
			logIndexRepair("CSSCHH", "keyToIdx1", uint64(x))
			return
		}
	}
}

func (c *CSSCHH) repairSS2AndIncrement(key uint64) {
	for i := range c.ss2 {
		if c.ss2[i].key == key {
			c.ss2[i].counter++
			c.keyToIdx2[key] = uint32(i)
			logIndexRepair("CSSCHH", "keyToIdx2", key)
			return
		}
	}
}

func (c *CSSCHH) replaceMinFlow(newFlow uint32) {
	if len(c.ss1) == 0 {
		c.ss1 = append(c.ss1, csschhFlowEntry{label: newFlow, freq: 1})
		c.keyToIdx1[newFlow] = 0
		return
	}

	minIdx := 0
	minFreq := c.ss1[0].freq
	for i := 1; i < len(c.ss1); i++ {
		if c.ss1[i].freq < minFreq {
			minFreq = c.ss1[i].freq
			minIdx = i
		}
	}

	delete(c.keyToIdx1, c.ss1[minIdx].label)
	c.ss1[minIdx].label = newFlow
	c.ss1[minIdx].freq++
	c.keyToIdx1[newFlow] = uint32(minIdx)
}

func (c *CSSCHH) replaceMinElement(newKey uint64) {
	if len(c.ss2) == 0 {
		c.ss2 = append(c.ss2, csschhElemEntry{key: newKey, counter: 1})
		c.keyToIdx2[newKey] = 0
		return
	}

	minIdx := 0
	minCounter := c.ss2[0].counter
	for i := 1; i < len(c.ss2); i++ {
		if c.ss2[i].counter < minCounter {
			minCounter = c.ss2[i].counter
			minIdx = i
		}
	}

	delete(c.keyToIdx2, c.ss2[minIdx].key)
	c.ss2[minIdx].key = newKey
	c.ss2[minIdx].counter++
	c.keyToIdx2[newKey] = uint32(minIdx)
}

// Query reports SS1 entries at or above threshold as heavy flows, then
// restricts SS2 entries to those whose flow is heavy and whose count
// meets phi*(freq - N/maxNumSS1), the cascade's correction for SS1's own
// overestimation bound.
func (c *CSSCHH) Query(threshold uint32, phi float64) (map[uint32]uint32, map[uint32]map[uint32]uint32) {
	heavyFlows := make(map[uint32]uint32)
	for _, e := range c.ss1 {
		if e.freq >= threshold {
			heavyFlows[e.label] = e.freq
		}
	}

	hotElements := make(map[uint32]map[uint32]uint32)
	for _, e := range c.ss2 {
		x, y := split(e.key)
		freq, ok := heavyFlows[x]
		if !ok {
			continue
		}
		floor := float64(freq) - float64(c.n/c.maxNumSS1)
		if float64(e.counter) >= phi*floor {
			if hotElements[x] == nil {
				hotElements[x] = make(map[uint32]uint32)
			}
			hotElements[x][y] = e.counter
		}
	}
	return heavyFlows, hotElements
}
