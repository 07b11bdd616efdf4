// Package varid generates the synthetic variant identifiers svmerge assigns
// to merged records: SVELT_<kind>_<hash7>, derived from a 256-bit digest of
// the variant's defining fields, base62-encoded and truncated, with an
// occurrence counter to disambiguate the rare truncated-digest collision.
package varid

import (
	"encoding/binary"
	"fmt"
	"strconv"

	"github.com/minio/highwayhash"
)

const base62Alphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"

// highwayKey is a fixed, arbitrary 256-bit key: variant IDs need not resist
// an adversary, only collide rarely, so a constant key (rather than a
// per-run random one) keeps ID generation deterministic given the inputs,
// as the contract requires.
var highwayKey = [32]byte{
	0x73, 0x76, 0x65, 0x6c, 0x74, 0x2d, 0x76, 0x61,
	0x72, 0x69, 0x61, 0x6e, 0x74, 0x2d, 0x69, 0x64,
	0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0x08,
	0x09, 0x0a, 0x0b, 0x0c, 0x0d, 0x0e, 0x0f, 0x10,
}

// Generator produces variant IDs, tracking how many times each truncated
// hash has already been issued so collisions get numbered apart instead of
// silently colliding.
type Generator struct {
	seen map[string]uint32
}

// NewGenerator returns an empty Generator.
func NewGenerator() *Generator {
	return &Generator{seen: make(map[string]uint32)}
}

// Generate builds the ID for one variant's defining fields. chrom2 may be
// empty for non-BND kinds; hasSeqHash distinguishes "no seq_hash" from a
// seq_hash of zero.
func (g *Generator) Generate(kind, chrom string, start, end, length int64, chrom2 string, end2 int64, seqHash uint64, hasSeqHash bool) (string, error) {
	base := tupleString(kind, chrom, start, end, length, chrom2, end2, seqHash, hasSeqHash, 0)
	hash7, err := hash7Of(base)
	if err != nil {
		return "", err
	}
	occurrence := g.seen[hash7]
	g.seen[hash7]++

	final := tupleString(kind, chrom, start, end, length, chrom2, end2, seqHash, hasSeqHash, occurrence)
	finalHash7, err := hash7Of(final)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("SVELT_%s_%s", kind, finalHash7), nil
}

func tupleString(kind, chrom string, start, end, length int64, chrom2 string, end2 int64, seqHash uint64, hasSeqHash bool, occurrence uint32) string {
	seqHashStr := ""
	if hasSeqHash {
		seqHashStr = strconv.FormatUint(seqHash, 10)
	}
	return kind + "_" + chrom + "_" +
		strconv.FormatInt(start, 10) + "_" +
		strconv.FormatInt(end, 10) + "_" +
		strconv.FormatInt(length, 10) + "_" +
		chrom2 + "_" +
		strconv.FormatInt(end2, 10) + "_" +
		seqHashStr + "_" +
		strconv.FormatUint(uint64(occurrence), 10)
}

func hash7Of(s string) (string, error) {
	h, err := highwayhash.New(highwayKey[:])
	if err != nil {
		return "", err
	}
	if _, err := h.Write([]byte(s)); err != nil {
		return "", err
	}
	digest := h.Sum(nil)
	return base62Encode(digest)[:7], nil
}

// base62Encode reads the first eight bytes of digest as a big-endian uint64
// and encodes that in base 62, padding to at least 7 characters so callers
// can always safely truncate to the first 7.
func base62Encode(digest []byte) string {
	// Work over the first 8 bytes of the 256-bit digest: a single uint64 gives
	// more than enough entropy for a 7-character base62 truncation, and
	// avoids pulling in a bignum dependency for the remaining 24 bytes.
	v := binary.BigEndian.Uint64(digest[:8])
	if v == 0 {
		return "0000000"
	}
	var buf [16]byte
	i := len(buf)
	for v > 0 {
		i--
		buf[i] = base62Alphabet[v%62]
		v /= 62
	}
	s := string(buf[i:])
	for len(s) < 7 {
		s = "0" + s
	}
	return s
}
