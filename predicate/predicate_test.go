package predicate

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/grailbio/svmerge/table"
)

func newRow(vix int, rowNum uint32, kind table.Kind, chrom table.ChromID, start, end, length int64) table.Row {
	return table.Row{
		RowID:  table.EncodeRowID(vix, rowNum),
		Vix:    vix,
		Kind:   kind,
		Chrom:  chrom,
		Start:  start,
		End:    end,
		Length: length,
	}
}

func buildTable(rows ...table.Row) *table.Table {
	chroms := table.NewChromDict()
	nSources := 0
	for _, r := range rows {
		if r.Vix+1 > nSources {
			nSources = r.Vix + 1
		}
	}
	tb := table.NewTable(chroms, nSources)
	for _, r := range rows {
		tb.Add(r)
	}
	return tb
}

// S1 — exact indel: two sources, identical DEL chr1:1000-2000 length -1000.
func TestExactIndelMatches(t *testing.T) {
	tb := buildTable(
		newRow(0, 0, table.KindDel, 0, 1000, 2000, -1000),
		newRow(1, 0, table.KindDel, 0, 1000, 2000, -1000),
	)
	pairs := ExactIndel(tb)
	assert.Len(t, pairs, 1)
	assert.Equal(t, Pair{L: 0, R: 1}, pairs[0])
}

func TestExactIndelRequiresSeqHashForINS(t *testing.T) {
	a := newRow(0, 0, table.KindIns, 0, 1000, 1000, 10)
	a.HasSeqHash, a.SeqHash = true, 111
	b := newRow(1, 0, table.KindIns, 0, 1000, 1000, 10)
	b.HasSeqHash, b.SeqHash = true, 222
	tb := buildTable(a, b)
	assert.Empty(t, ExactIndel(tb))
}

func TestExactIndelSeqHashAgreementMatches(t *testing.T) {
	a := newRow(0, 0, table.KindIns, 0, 1000, 1000, 10)
	a.HasSeqHash, a.SeqHash = true, 111
	b := newRow(1, 0, table.KindIns, 0, 1000, 1000, 10)
	b.HasSeqHash, b.SeqHash = true, 111
	tb := buildTable(a, b)
	assert.Len(t, ExactIndel(tb), 1)
}

func TestExactIndelExcludesBND(t *testing.T) {
	tb := buildTable(
		newRow(0, 0, table.KindBnd, 0, 1000, 2000, 0),
		newRow(1, 0, table.KindBnd, 0, 1000, 2000, 0),
	)
	assert.Empty(t, ExactIndel(tb))
}

func TestExactBNDMatches(t *testing.T) {
	a := newRow(0, 0, table.KindBnd, 0, 1000, 1000, 0)
	a.Chrom2, a.End2 = 1, 5000
	b := newRow(1, 0, table.KindBnd, 0, 1000, 1000, 0)
	b.Chrom2, b.End2 = 1, 5000
	tb := buildTable(a, b)
	assert.Len(t, ExactBND(tb), 1)
}

func TestExactInsLocusLengthRatio(t *testing.T) {
	tb := buildTable(
		newRow(0, 0, table.KindIns, 0, 1000, 1000, 100),
		newRow(1, 0, table.KindIns, 0, 1000, 1000, 85),
	)
	assert.Empty(t, ExactInsLocus(tb, 0.9))
	assert.Len(t, ExactInsLocus(tb, 0.8), 1)
}

func TestLengthRatioZeroZeroSatisfied(t *testing.T) {
	assert.True(t, lengthRatioOK(0, 0, 1.0))
	assert.False(t, lengthRatioOK(0, 10, 1.0))
	assert.False(t, lengthRatioOK(10, 0, 1.0))
}

func TestApproxBNDWindow(t *testing.T) {
	a := newRow(0, 0, table.KindBnd, 0, 1000, 1000, 0)
	a.Chrom2, a.End2 = 1, 5000
	b := newRow(1, 0, table.KindBnd, 0, 1010, 1010, 0)
	b.Chrom2, b.End2 = 1, 5010
	tb := buildTable(a, b)
	assert.Empty(t, ApproxBND(tb, Params{W: 5, W2: 25, R: 0.9}))
	assert.Len(t, ApproxBND(tb, Params{W: 25, W2: 25, R: 0.9}), 1)
}

// S4 — flipped breakend: A reports chr1:1000 → chr2:5000 and B reports the
// same junction from the other end, chr2:5000 → chr1:1000. A straight
// comparison never matches them (their chrom/chrom2 point opposite ways);
// the flipped comparison does.
func TestFlippedBNDMatchesMirror(t *testing.T) {
	a := newRow(0, 0, table.KindBnd, 0, 1000, 1000, 0)
	a.Chrom2, a.End2 = 1, 5000
	b := newRow(1, 0, table.KindBnd, 1, 5000, 5000, 0)
	b.Chrom2, b.End2 = 0, 1000
	tb := buildTable(a, b)

	assert.Empty(t, ApproxBND(tb, Params{W: 25, W2: 150, R: 0.9}), "a straight comparison must not match a's and b's swapped coordinates")

	pairs := FlippedBND(tb, Params{W: 25, W2: 150, R: 0.9})
	assert.Len(t, pairs, 1)
	assert.Equal(t, Pair{L: 0, R: 1}, pairs[0])
}

func TestFlippedBNDRejectsOutsideWindow(t *testing.T) {
	a := newRow(0, 0, table.KindBnd, 0, 1000, 1000, 0)
	a.Chrom2, a.End2 = 1, 5000
	b := newRow(1, 0, table.KindBnd, 1, 5000, 5000, 0)
	b.Chrom2, b.End2 = 0, 1100 // b's companion is 100 away from a's primary locus
	tb := buildTable(a, b)
	assert.Empty(t, FlippedBND(tb, Params{W: 25, W2: 150, R: 0.9}))
}

func TestFlippedBNDRejectsUnmirroredChroms(t *testing.T) {
	// Both rows point chr1 → chr2; nothing to flip.
	a := newRow(0, 0, table.KindBnd, 0, 1000, 1000, 0)
	a.Chrom2, a.End2 = 1, 5000
	b := newRow(1, 0, table.KindBnd, 0, 1000, 1000, 0)
	b.Chrom2, b.End2 = 1, 5000
	tb := buildTable(a, b)
	assert.Empty(t, FlippedBND(tb, Params{W: 25, W2: 150, R: 0.9}))
}

func TestOkRejectsSourceCollisionAndFullGroup(t *testing.T) {
	a := newRow(0, 0, table.KindDel, 0, 1000, 2000, -1000)
	b := newRow(1, 0, table.KindDel, 0, 1000, 2000, -1000)
	tb := buildTable(a, b)
	assert.True(t, ok(tb, 0, 1))

	// same vix
	c := newRow(0, 1, table.KindDel, 0, 1000, 2000, -1000)
	tb2 := buildTable(a, c)
	assert.False(t, ok(tb2, 0, 1))

	// source collision via overlapping vix_set
	tb3 := buildTable(a, b)
	tb3.VixSets[0] = tb3.VixSets[0].Union(table.NewVixSet(1))
	assert.False(t, ok(tb3, 0, 1))
}
