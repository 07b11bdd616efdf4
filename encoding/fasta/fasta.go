// Package fasta reads reference genome sequences in FASTA format, either
// fully in memory or by random access through a samtools-style .fai index
// (http://www.htslib.org/doc/faidx.html). svmerge uses it for anchor-base
// lookups when rewriting breakend orientations and filling in missing REF
// alleles, so every sequence handed back is normalized to uppercase ACGTN.
//
// A sequence name is the text between '>' and the first space; anything
// after the space is ignored, so ">chr1 assembled from ..." is just "chr1".
package fasta

import (
	"bufio"
	"io"
	"strings"

	"github.com/grailbio/base/unsafe"
	"github.com/pkg/errors"

	"github.com/grailbio/svmerge/biosimd"
)

// Fasta is a set of named sequences.
type Fasta interface {
	// Get returns the bases of seqName in the 0-based half-open interval
	// [start, end), uppercase ACGTN. Get is safe for concurrent use.
	Get(seqName string, start, end uint64) (string, error)

	// Len returns the length of the named sequence.
	Len(seqName string) (uint64, error)

	// SeqNames returns all sequence names in file order.
	SeqNames() []string
}

type memFasta struct {
	seqs     map[string]string
	seqNames []string
}

// New reads all of r into memory. Suited to small references and tests; use
// NewIndexed for whole-genome references.
func New(r io.Reader) (Fasta, error) {
	f := &memFasta{seqs: make(map[string]string)}
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 512*1024*1024)
	var name string
	var seq strings.Builder
	flush := func() error {
		if seq.Len() == 0 {
			return nil
		}
		if name == "" {
			return errors.New("malformed FASTA: sequence data before any '>' header")
		}
		f.seqs[name] = seq.String()
		f.seqNames = append(f.seqNames, name)
		seq.Reset()
		return nil
	}
	for scanner.Scan() {
		line := scanner.Text()
		if len(line) == 0 {
			continue
		}
		if line[0] == '>' {
			if err := flush(); err != nil {
				return nil, err
			}
			name = strings.SplitN(line[1:], " ", 2)[0]
			continue
		}
		seq.WriteString(line)
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "reading FASTA data")
	}
	if err := flush(); err != nil {
		return nil, err
	}
	for n := range f.seqs {
		biosimd.CleanASCIISeqInplace(unsafe.StringToBytes(f.seqs[n]))
	}
	return f, nil
}

// Get implements Fasta.
func (f *memFasta) Get(seqName string, start, end uint64) (string, error) {
	s, ok := f.seqs[seqName]
	if !ok {
		return "", errors.Errorf("sequence not found: %s", seqName)
	}
	if end <= start {
		return "", errors.New("start must be less than end")
	}
	if end > uint64(len(s)) {
		return "", errors.Errorf("invalid query range [%d, %d) for sequence %s with length %d",
			start, end, seqName, len(s))
	}
	return s[start:end], nil
}

// Len implements Fasta.
func (f *memFasta) Len(seqName string) (uint64, error) {
	s, ok := f.seqs[seqName]
	if !ok {
		return 0, errors.Errorf("sequence not found: %s", seqName)
	}
	return uint64(len(s)), nil
}

// SeqNames implements Fasta.
func (f *memFasta) SeqNames() []string {
	return f.seqNames
}
