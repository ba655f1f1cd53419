package chh

import (
	"crypto/rand"
	"encoding/binary"
	mrand "math/rand/v2"
)

// minSeed keeps generated seeds away from the low bit range the way the
// reference implementation's generateSeeds32 does (it draws from
// [1<<24, UINT32_MAX]): small seeds make the first MurmurHash3 block mix
// weakly for short keys.
const minSeed = uint32(1) << 24

// newLocalRand returns a process-local, non-cryptographic generator seeded
// from OS entropy. Every sketch that needs its own random stream (2D-MG's
// eviction victim pick) owns exactly one of these, built once at
// construction, per spec's resource-model requirement that random number
// generation be a single seeded generator rather than fresh entropy per
// update.
func newLocalRand() *mrand.Rand {
	var seed [16]byte
	if _, err := rand.Read(seed[:]); err != nil {
		// crypto/rand failing means the OS entropy source is broken; fall
		// back to a fixed seed rather than panicking mid-construction.
		return mrand.New(mrand.NewPCG(1, 2))
	}
	return mrand.New(mrand.NewPCG(
		binary.LittleEndian.Uint64(seed[0:8]),
		binary.LittleEndian.Uint64(seed[8:16]),
	))
}

// generateSeeds produces n independent 32-bit hash seeds.
func generateSeeds(n int) []uint32 {
	seeds := make([]uint32, n)
	r := newLocalRand()
	span := ^minSeed // maxUint32 - minSeed
	for i := range seeds {
		seeds[i] = minSeed + r.Uint32()%span
	}
	return seeds
}
