package refseq

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grailbio/svmerge/encoding/fasta"
)

func testRef(t *testing.T) Lookup {
	t.Helper()
	fa, err := fasta.New(strings.NewReader(">chr1\nACGTACGT\n>chr2\nTTTTGGGG\n"))
	require.NoError(t, err)
	return FromFasta(fa)
}

func TestBaseAtReturnsOneBasedBase(t *testing.T) {
	ref := testRef(t)
	b, err := ref.BaseAt("chr1", 1)
	require.NoError(t, err)
	assert.Equal(t, byte('A'), b)

	b, err = ref.BaseAt("chr1", 5)
	require.NoError(t, err)
	assert.Equal(t, byte('A'), b)
}

func TestBaseAtRejectsZeroPosition(t *testing.T) {
	ref := testRef(t)
	_, err := ref.BaseAt("chr1", 0)
	assert.Error(t, err)
}

func TestBaseAtUnknownChromErrors(t *testing.T) {
	ref := testRef(t)
	_, err := ref.BaseAt("chrX", 1)
	assert.Error(t, err)
}

func TestOpenUnindexedMatchesIndexedLookups(t *testing.T) {
	data := ">chr1\nACGTA\nCGT\n"
	ref, err := OpenUnindexed(strings.NewReader(data))
	require.NoError(t, err)
	b, err := ref.BaseAt("chr1", 6)
	require.NoError(t, err)
	assert.Equal(t, byte('C'), b)
	b, err = ref.BaseAt("chr1", 8)
	require.NoError(t, err)
	assert.Equal(t, byte('T'), b)
}

func TestRequireReference(t *testing.T) {
	assert.Error(t, RequireReference("--fill-in-refs", ""))
	assert.NoError(t, RequireReference("--fill-in-refs", "ref.fa"))
}
