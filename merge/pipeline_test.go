package merge

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grailbio/svmerge/table"
)

func row(vix int, rowNum uint32, kind table.Kind, chrom table.ChromID, start, end, length int64) table.Row {
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

func buildTable(numSources int, rows ...table.Row) *table.Table {
	chroms := table.NewChromDict()
	tb := table.NewTable(chroms, numSources)
	for _, r := range rows {
		tb.Add(r)
	}
	return tb
}

func noFlipOpts() Options {
	o := DefaultOptions()
	o.AllowBreakendFlipping = false
	o.FillInRefs = false
	return o
}

// S1 — exact indel: one output group, vix_set = 0b11, criteria = "exact".
func TestRunExactIndelMerges(t *testing.T) {
	tb := buildTable(2,
		row(0, 0, table.KindDel, 0, 1000, 2000, -1000),
		row(1, 0, table.KindDel, 0, 1000, 2000, -1000),
	)
	require.NoError(t, Run(tb, noFlipOpts()))
	assert.Equal(t, tb.RowKeys[0], tb.RowKeys[1])
	assert.Equal(t, 2, tb.VixSets[0].Count())
	assert.Contains(t, tb.Rows[0].Criteria, passExactIndel)
}

// S2 — near-miss indel merges via range-sweep, with criteria naming the pass.
func TestRunNearMissIndelMergesViaRangeSweep(t *testing.T) {
	tb := buildTable(2,
		row(0, 0, table.KindDel, 0, 1000, 2000, -1000),
		row(1, 0, table.KindDel, 0, 1010, 1995, -985),
	)
	opts := noFlipOpts()
	opts.PositionWindow = 25
	opts.LengthRatio = 0.9
	require.NoError(t, Run(tb, opts))
	assert.Equal(t, tb.RowKeys[0], tb.RowKeys[1])
	assert.Contains(t, tb.Rows[0].Criteria, passRangeSweep)
}

// S3 — source-collision rejection: a fourth near-miss record from a source
// already in the group must not be folded in.
func TestRunSourceCollisionRejected(t *testing.T) {
	tb := buildTable(3,
		row(0, 0, table.KindDel, 0, 1000, 2000, -1000),
		row(1, 0, table.KindDel, 0, 1000, 2000, -1000),
		row(2, 0, table.KindDel, 0, 1000, 2000, -1000),
		row(0, 1, table.KindDel, 0, 1005, 1998, -993),
	)
	opts := noFlipOpts()
	opts.PositionWindow = 25
	opts.LengthRatio = 0.9
	require.NoError(t, Run(tb, opts))
	assert.Equal(t, tb.RowKeys[0], tb.RowKeys[1])
	assert.Equal(t, tb.RowKeys[0], tb.RowKeys[2])
	assert.Equal(t, 3, tb.VixSets[0].Count())
	assert.NotEqual(t, tb.RowKeys[3], tb.RowKeys[0])
	assert.Equal(t, 1, tb.VixSets[3].Count())
}

// S4 — flipped breakend: A reports chr1:1000 → chr2:5000, B reports the same
// junction from the other end. Only the flipped pass can join them, and the
// row whose orientation departs from the canonical convention is the one
// flagged for rewriting.
func TestRunFlippedBreakendMerges(t *testing.T) {
	a := row(0, 0, table.KindBnd, 0, 1000, 1000, 0)
	a.Chrom2, a.End2 = 1, 5000
	a.Side1, a.Side2 = table.BndSideAfter, table.BndSideBefore
	b := row(1, 0, table.KindBnd, 1, 5000, 5000, 0)
	b.Chrom2, b.End2 = 0, 1000
	b.Side1, b.Side2 = table.BndSideBefore, table.BndSideAfter
	tb := buildTable(2, a, b)

	opts := DefaultOptions()
	opts.FillInRefs = false
	opts.ReferencePath = "ref.fa"
	require.NoError(t, Run(tb, opts))

	assert.Equal(t, tb.RowKeys[0], tb.RowKeys[1])
	assert.Contains(t, tb.Rows[0].Criteria, passFlippedBND)
	assert.False(t, tb.Rows[0].Flip, "a already has the canonical orientation")
	assert.True(t, tb.Rows[1].Flip, "b's orientation departs from the canonical convention")
}

// S5 — determinism: re-running on the same table layout from scratch
// yields the same row_key structure (same groups).
func TestRunIsDeterministic(t *testing.T) {
	build := func() *table.Table {
		return buildTable(2,
			row(0, 0, table.KindDel, 0, 1000, 2000, -1000),
			row(1, 0, table.KindDel, 0, 1010, 1995, -985),
		)
	}
	opts := noFlipOpts()
	tb1 := build()
	require.NoError(t, Run(tb1, opts))
	tb2 := build()
	require.NoError(t, Run(tb2, opts))

	assert.Equal(t, tb1.RowKeys[0] == tb1.RowKeys[1], tb2.RowKeys[0] == tb2.RowKeys[1])
	assert.Equal(t, tb1.Rows[0].Criteria, tb2.Rows[0].Criteria)
}

func TestRunDisjointSourcesNeverExceedPairGroups(t *testing.T) {
	tb := buildTable(2,
		row(0, 0, table.KindDel, 0, 1000, 2000, -1000),
		row(1, 0, table.KindDup, 0, 1000, 2000, 1000),
	)
	require.NoError(t, Run(tb, noFlipOpts()))
	assert.NotEqual(t, tb.RowKeys[0], tb.RowKeys[1])
}

func TestOptionsCheckRequiresReferenceForFlippingAndFillIn(t *testing.T) {
	o := DefaultOptions()
	o.ReferencePath = ""
	assert.Error(t, o.Check())

	o.AllowBreakendFlipping = false
	o.FillInRefs = false
	assert.NoError(t, o.Check())
}

func TestOptionsCheckRejectsBadLengthRatio(t *testing.T) {
	o := noFlipOpts()
	o.LengthRatio = 0
	assert.Error(t, o.Check())
	o.LengthRatio = 1.5
	assert.Error(t, o.Check())
}
