package table

import "math/bits"

// popcount counts set bits in x.
func popcount(x uint64) int { return bits.OnesCount64(x) }
