// Package chh implements a family of memory-bounded streaming sketches for
// Correlated Heavy Hitter (CHH) detection over a stream of keyed (x, y)
// pairs: DualSketch, DUET, GlobalHH, TwoDMisraGries, and CSSCHH, plus the
// CountMin and hashing primitives they share.
package chh

import "encoding/binary"

// murmur3_x86_32 constants, per the canonical algorithm.
const (
	murmurC1 uint32 = 0xcc9e2d51
	murmurC2 uint32 = 0x1b873593
)

// murmurHash3X86_32 reproduces the canonical MurmurHash3 x86_32 algorithm,
// including tail handling and final avalanche, bit-for-bit. Every key in
// this package is a fixed-width uint32, but the general byte-slice form is
// kept so the implementation is checkable against the published test
// vectors for arbitrary lengths (spec's cross-implementation hash
// contract).
func murmurHash3X86_32(data []byte, seed uint32) uint32 {
	h := seed
	n := len(data)
	nblocks := n / 4

	for i := 0; i < nblocks; i++ {
		k := binary.LittleEndian.Uint32(data[i*4 : i*4+4])
		h = murmurMix(h, k)
	}

	var k1 uint32
	tail := data[nblocks*4:]
	switch len(tail) {
	case 3:
		k1 ^= uint32(tail[2]) << 16
		fallthrough
	case 2:
		k1 ^= uint32(tail[1]) << 8
		fallthrough
	case 1:
		k1 ^= uint32(tail[0])
		k1 *= murmurC1
		k1 = rotl32(k1, 15)
		k1 *= murmurC2
		h ^= k1
	}

	h ^= uint32(n)
	h = murmurFmix(h)
	return h
}

func murmurMix(h, k uint32) uint32 {
	k *= murmurC1
	k = rotl32(k, 15)
	k *= murmurC2
	h ^= k
	h = rotl32(h, 13)
	h = h*5 + 0xe6546b64
	return h
}

func murmurFmix(h uint32) uint32 {
	h ^= h >> 16
	h *= 0x85ebca6b
	h ^= h >> 13
	h *= 0xc2b2ae35
	h ^= h >> 16
	return h
}

func rotl32(x uint32, r uint) uint32 {
	return (x << r) | (x >> (32 - r))
}

// hash32 hashes a 32-bit key under seed, matching the reference
// implementation's MurmurHash3_x86_32(&x, sizeof(x), seed, &out) call on a
// native (little-endian on every platform this module targets) uint32.
func hash32(key uint32, seed uint32) uint32 {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], key)
	return murmurHash3X86_32(buf[:], seed)
}
