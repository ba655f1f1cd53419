package chh

import "slices"

// SortedKeys returns the keys of m in ascending order, matching the
// ordering the reference C++ implementation gets for free from std::map.
func SortedKeys(m map[uint32]uint32) []uint32 {
	keys := make([]uint32, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
