// Package kmerclass produces advisory similarity annotations between two
// inserted sequences: a canonicalized-kmer Jaccard score and a Jaro-Winkler
// string-similarity score. Neither feeds the resolver's merge decisions —
// they are informational annotations only, attached to a group's ALT_SEQ
// entries so a reviewer can sanity-check an insertion-sequence match.
package kmerclass

import (
	"github.com/antzucaro/matchr"
	farm "github.com/dgryski/go-farm"
)

const invalidBase = uint8(255)

var baseCode, rcBaseCode [256]uint8

func init() {
	for i := range baseCode {
		baseCode[i] = invalidBase
		rcBaseCode[i] = invalidBase
	}
	baseCode['A'], baseCode['a'] = 0, 0
	baseCode['C'], baseCode['c'] = 1, 1
	baseCode['G'], baseCode['g'] = 2, 2
	baseCode['T'], baseCode['t'] = 3, 3

	rcBaseCode['A'], rcBaseCode['a'] = 3, 3
	rcBaseCode['C'], rcBaseCode['c'] = 2, 2
	rcBaseCode['G'], rcBaseCode['g'] = 1, 1
	rcBaseCode['T'], rcBaseCode['t'] = 0, 0
}

// Kmer is a 2-bit-per-base encoding of up to 32 ACGT bases.
type Kmer uint64

// canonical returns the lexicographically smaller of a kmer and its
// reverse complement, so sequences from either DNA strand bucket together.
func canonical(forward, revcomp Kmer) Kmer {
	if forward < revcomp {
		return forward
	}
	return revcomp
}

// kmerSet produces the canonicalized kmer set of seq at the given length, as
// a FarmHash-bucketed set keyed by the 64-bit hash of each canonical kmer
// (cheaper to intersect than raw Kmer values for long sequences with many
// distinct k-mers, and collision-tolerant enough for an advisory score).
func kmerSet(seq string, k int) map[uint64]struct{} {
	out := make(map[uint64]struct{})
	if len(seq) < k {
		return out
	}
	mask := Kmer((uint64(1) << uint(2*k)) - 1)
	var forward, revcomp Kmer
	shift := uint(2 * (k - 1))
	valid := 0
	for i := 0; i < len(seq); i++ {
		fb := baseCode[seq[i]]
		if fb == invalidBase {
			valid = 0
			forward, revcomp = 0, 0
			continue
		}
		forward = ((forward << 2) | Kmer(fb)) & mask
		revcomp = (revcomp >> 2) | (Kmer(rcBaseCode[seq[i]]) << shift)
		valid++
		if valid >= k {
			c := canonical(forward, revcomp)
			h := farm.Hash64([]byte{
				byte(c), byte(c >> 8), byte(c >> 16), byte(c >> 24),
				byte(c >> 32), byte(c >> 40), byte(c >> 48), byte(c >> 56),
			})
			out[h] = struct{}{}
		}
	}
	return out
}

// DefaultKmerLength is the k-mer length used when callers do not need a
// different one; 13 bases keeps the canonical space well above what short
// inserted sequences would saturate by chance.
const DefaultKmerLength = 13

// Jaccard returns the kmer-set Jaccard similarity of a and b at
// DefaultKmerLength: |A∩B| / |A∪B|, or 0 if either sequence is too short to
// produce a single k-mer.
func Jaccard(a, b string) float64 {
	return JaccardK(a, b, DefaultKmerLength)
}

// JaccardK is Jaccard with an explicit k-mer length.
func JaccardK(a, b string, k int) float64 {
	sa, sb := kmerSet(a, k), kmerSet(b, k)
	if len(sa) == 0 || len(sb) == 0 {
		return 0
	}
	inter := 0
	small, big := sa, sb
	if len(sb) < len(sa) {
		small, big = sb, sa
	}
	for h := range small {
		if _, ok := big[h]; ok {
			inter++
		}
	}
	union := len(sa) + len(sb) - inter
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}

// JaroWinkler is a secondary string-similarity metric: unlike Jaccard it is
// sensitive to insertion order rather than just k-mer set membership, which
// helps on near-identical sequences whose k-mer sets coincide despite a
// rearrangement.
func JaroWinkler(a, b string) float64 {
	return matchr.JaroWinkler(a, b, true)
}

// Similarity scores two inserted sequences: k-mer Jaccard when both are long
// enough to decompose into at least one k-mer, Jaro-Winkler otherwise (short
// insertions produce no k-mers, so set similarity would degenerate to zero).
func Similarity(a, b string) float64 {
	if len(a) < DefaultKmerLength || len(b) < DefaultKmerLength {
		return JaroWinkler(a, b)
	}
	return Jaccard(a, b)
}
