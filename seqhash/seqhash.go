// Package seqhash computes the 64-bit digest svmerge stores as an INS row's
// seq_hash: a fingerprint of the inserted sequence used to strengthen the
// exact-indel predicate beyond position and length agreement. The digest is
// the first eight bytes of a SHA-512 hash of the alt sequence minus its
// anchor base.
package seqhash

import "crypto/sha512"

// Of returns the seq_hash of an inserted sequence, excluding its leading
// anchor base (VCF ALT strings for INS carry the anchor base that precedes
// the inserted sequence; svmerge hashes only the inserted portion so two
// callers placing the anchor at slightly different positions still agree).
func Of(altWithAnchor string) (uint64, bool) {
	if len(altWithAnchor) < 2 {
		return 0, false
	}
	inserted := altWithAnchor[1:]
	sum := sha512.Sum512([]byte(inserted))
	var v uint64
	for i := 0; i < 8; i++ {
		v = (v << 8) | uint64(sum[i])
	}
	return v, true
}
