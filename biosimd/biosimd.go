// Package biosimd provides the byte-level sequence transform the FASTA
// reader applies while loading reference sequences: normalizing arbitrary
// ASCII to uppercase ACGTN in a single lookup-table pass, safe on any input
// bytes.
package biosimd

var cleanASCIITable [256]byte

func init() {
	for i := range cleanASCIITable {
		cleanASCIITable[i] = 'N'
	}
	for _, b := range []byte("ACGT") {
		cleanASCIITable[b] = b
		cleanASCIITable[b|0x20] = b // lowercase
	}
}

// CleanASCIISeqInplace capitalizes 'a'/'c'/'g'/'t', and replaces everything
// non-ACGT with 'N'.
func CleanASCIISeqInplace(ascii8 []byte) {
	for pos, b := range ascii8 {
		ascii8[pos] = cleanASCIITable[b]
	}
}
