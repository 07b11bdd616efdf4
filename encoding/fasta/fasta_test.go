package fasta_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/grailbio/testutil/assert"

	"github.com/grailbio/svmerge/encoding/fasta"
)

const (
	fastaData  = ">seq1\n" + "ACGTA\nCGTAC\nGT\n" + ">seq2 A viral sequence\n" + "ACGT\n" + "ACGT\n"
	fastaIndex = "seq1\t12\t6\t5\t6\n" + "seq2\t8\t44\t4\t5\n"
)

func openBoth(t *testing.T) [2]fasta.Fasta {
	t.Helper()
	mem, err := fasta.New(strings.NewReader(fastaData))
	assert.NoError(t, err)
	idx, err := fasta.NewIndexed(strings.NewReader(fastaData), strings.NewReader(fastaIndex))
	assert.NoError(t, err)
	return [2]fasta.Fasta{mem, idx}
}

func TestGet(t *testing.T) {
	tests := []struct {
		seq        string
		start, end uint64
		want       string
		wantErr    bool
	}{
		{"seq1", 1, 2, "C", false},
		{"seq1", 1, 6, "CGTAC", false},
		{"seq1", 0, 12, "ACGTACGTACGT", false},
		{"seq1", 10, 12, "GT", false},
		{"seq2", 0, 8, "ACGTACGT", false},
		{"seq2", 2, 5, "GTA", false},
		{"seq0", 0, 1, "", true},
		{"seq1", 10, 13, "", true},
		{"seq1", 4, 3, "", true},
	}
	for _, f := range openBoth(t) {
		for _, tt := range tests {
			got, err := f.Get(tt.seq, tt.start, tt.end)
			if tt.wantErr {
				if err == nil {
					t.Errorf("Get(%s, %d, %d): expected error, got %q", tt.seq, tt.start, tt.end, got)
				}
				continue
			}
			assert.NoError(t, err)
			assert.EQ(t, got, tt.want)
		}
	}
}

func TestGetNormalizesSoftMaskedBases(t *testing.T) {
	data := ">chr1\nacgtr\nACGTN\n"
	index := "chr1\t10\t6\t5\t6\n"
	mem, err := fasta.New(strings.NewReader(data))
	assert.NoError(t, err)
	idx, err := fasta.NewIndexed(strings.NewReader(data), strings.NewReader(index))
	assert.NoError(t, err)
	for _, f := range [2]fasta.Fasta{mem, idx} {
		got, err := f.Get("chr1", 0, 10)
		assert.NoError(t, err)
		assert.EQ(t, got, "ACGTNACGTN")
	}
}

func TestLenAndSeqNames(t *testing.T) {
	for _, f := range openBoth(t) {
		assert.EQ(t, f.SeqNames(), []string{"seq1", "seq2"})
		n, err := f.Len("seq1")
		assert.NoError(t, err)
		assert.EQ(t, n, uint64(12))
		n, err = f.Len("seq2")
		assert.NoError(t, err)
		assert.EQ(t, n, uint64(8))
		_, err = f.Len("seq0")
		if err == nil {
			t.Error("Len(seq0): expected error")
		}
	}
}

func TestGenerateIndex(t *testing.T) {
	generate := func(data string) string {
		var buf bytes.Buffer
		assert.NoError(t, fasta.GenerateIndex(&buf, strings.NewReader(data)))
		return buf.String()
	}
	assert.EQ(t, generate(fastaData), fastaIndex)
	// Note: samtools faidx emits "5 13 5 6" for E1, but E1's only line has no
	// trailing newline, so width 5 is what is actually on disk.
	assert.EQ(t, generate(">E0\nGGGG\n>E1\nAAAAA"),
		"E0\t4\t4\t4\t5\nE1\t5\t13\t5\t5\n")

	var buf bytes.Buffer
	if err := fasta.GenerateIndex(&buf, strings.NewReader("")); err == nil {
		t.Error("expected error on empty input")
	}
	if err := fasta.GenerateIndex(&buf, strings.NewReader("ACGT\n")); err == nil {
		t.Error("expected error on headerless input")
	}
}

func TestGenerateIndexRoundTrip(t *testing.T) {
	var faiBuf bytes.Buffer
	assert.NoError(t, fasta.GenerateIndex(&faiBuf, strings.NewReader(fastaData)))
	assert.EQ(t, faiBuf.String(), fastaIndex)

	idx, err := fasta.NewIndexed(strings.NewReader(fastaData), bytes.NewReader(faiBuf.Bytes()))
	assert.NoError(t, err)
	mem, err := fasta.New(strings.NewReader(fastaData))
	assert.NoError(t, err)
	for _, name := range mem.SeqNames() {
		n, err := mem.Len(name)
		assert.NoError(t, err)
		want, err := mem.Get(name, 0, n)
		assert.NoError(t, err)
		got, err := idx.Get(name, 0, n)
		assert.NoError(t, err)
		assert.EQ(t, got, want)
	}
}
