// Package refseq supplies the reference-genome lookups that breakend
// flipping and REF-allele fill-in need: given a chromosome and a 1-based VCF
// position, fetch the single anchor base there. It wraps the indexed FASTA
// reader the way cmd/doppelmark wraps bamprovider, as a thin adapter between
// the generic file format and the one or two calls the domain logic needs.
package refseq

import (
	"bytes"
	"io"
	"strings"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/svmerge/encoding/fasta"
	"github.com/grailbio/svmerge/svmerr"
)

// Lookup answers anchor-base queries against a reference genome.
type Lookup interface {
	// BaseAt returns the single reference base at the 1-based position pos on
	// chrom.
	BaseAt(chrom string, pos int) (byte, error)
}

type indexedRef struct {
	f fasta.Fasta
}

// OpenReader builds a Lookup from an open FASTA handle and its .fai index
// stream. fa must remain open for the lifetime of the Lookup; anchor bases
// are fetched lazily per query.
func OpenReader(fa io.ReadSeeker, fai io.Reader) (Lookup, error) {
	f, err := fasta.NewIndexed(fa, fai)
	if err != nil {
		return nil, errors.E(err, "parsing reference fasta index")
	}
	return &indexedRef{f: f}, nil
}

// OpenUnindexed builds a Lookup from a FASTA handle with no .fai alongside
// it, generating the index in memory: one full scan of the FASTA at startup
// buys the same lazy per-query reads OpenReader gives.
func OpenUnindexed(fa io.ReadSeeker) (Lookup, error) {
	var faiBuf bytes.Buffer
	if err := fasta.GenerateIndex(&faiBuf, fa); err != nil {
		return nil, errors.E(err, "indexing reference fasta")
	}
	if _, err := fa.Seek(0, io.SeekStart); err != nil {
		return nil, errors.E(err, "rewinding reference fasta")
	}
	return OpenReader(fa, &faiBuf)
}

// FromFasta wraps an already-parsed fasta.Fasta (e.g. the in-memory,
// unindexed form fasta.New produces) as a Lookup, for small references and
// tests that do not want to build a .fai index.
func FromFasta(f fasta.Fasta) Lookup {
	return &indexedRef{f: f}
}

// BaseAt implements Lookup.
func (r *indexedRef) BaseAt(chrom string, pos int) (byte, error) {
	if pos < 1 {
		return 0, svmerr.New(svmerr.BadBreakEnd, "position %d is not 1-based", pos)
	}
	start := uint64(pos - 1)
	s, err := r.f.Get(chrom, start, start+1)
	if err != nil {
		return 0, errors.E(err, "fetching anchor base", chrom, pos)
	}
	return s[0], nil
}

// RequireReference returns an OptionRequiresReference error naming flag if
// referencePath is empty. Both --fill-in-refs and --allow-breakend-flipping
// depend on having a reference available; this captures the shared
// preflight check run once per option.
func RequireReference(flag, referencePath string) error {
	if strings.TrimSpace(referencePath) == "" {
		return svmerr.New(svmerr.OptionRequiresReference, "%s requires --reference", flag)
	}
	return nil
}
