package table

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRowIDRoundTrip(t *testing.T) {
	tests := []struct {
		vix    int
		rowNum uint32
	}{
		{0, 0},
		{1, 0},
		{63, 0},
		{0, 1},
		{5, 1000},
		{63, 999999},
	}
	for _, tc := range tests {
		id := EncodeRowID(tc.vix, tc.rowNum)
		gotVix, gotRowNum := id.Decode()
		assert.Equal(t, tc.vix, gotVix, "vix for %+v", tc)
		assert.Equal(t, tc.rowNum, gotRowNum, "rowNum for %+v", tc)
	}
}

func TestVixSetCountAndHas(t *testing.T) {
	a := NewVixSet(0)
	b := NewVixSet(3)
	u := a.Union(b)
	assert.Equal(t, 2, u.Count())
	assert.True(t, u.Has(0))
	assert.True(t, u.Has(3))
	assert.False(t, u.Has(1))
}

func TestVixSetDisjoint(t *testing.T) {
	a := NewVixSet(0).Union(NewVixSet(1))
	b := NewVixSet(1).Union(NewVixSet(2))
	c := NewVixSet(2).Union(NewVixSet(3))
	assert.False(t, a.Disjoint(b))
	assert.True(t, a.Disjoint(c))
}

func TestParseKind(t *testing.T) {
	tests := []struct {
		s  string
		k  Kind
		ok bool
	}{
		{"INS", KindIns, true},
		{"DEL", KindDel, true},
		{"DUP", KindDup, true},
		{"INV", KindInv, true},
		{"BND", KindBnd, true},
		{"CPX", KindCpx, true},
		{"NOPE", KindInvalid, false},
	}
	for _, tc := range tests {
		k, ok := ParseKind(tc.s)
		assert.Equal(t, tc.ok, ok, tc.s)
		if tc.ok {
			assert.Equal(t, tc.k, k, tc.s)
		}
	}
}

func TestCheckSourceCount(t *testing.T) {
	assert.NoError(t, CheckSourceCount(64))
	assert.Error(t, CheckSourceCount(65))
}

func TestChromDictInternStable(t *testing.T) {
	d := NewChromDict()
	c1 := d.Intern("chr1")
	c2 := d.Intern("chr2")
	c1again := d.Intern("chr1")
	assert.Equal(t, c1, c1again)
	assert.NotEqual(t, c1, c2)
	assert.Equal(t, "chr1", d.Name(c1))
	assert.Equal(t, 2, d.Len())
}

func TestTableAddInitializesGroupState(t *testing.T) {
	chroms := NewChromDict()
	tb := NewTable(chroms, 4)
	row := Row{RowID: EncodeRowID(2, 7), Vix: 2}
	idx := tb.Add(row)
	assert.Equal(t, RowKey(row.RowID), tb.RowKeys[idx])
	assert.Equal(t, NewVixSet(2), tb.VixSets[idx])
}

func TestByRowKeyGroups(t *testing.T) {
	chroms := NewChromDict()
	tb := NewTable(chroms, 2)
	tb.Add(Row{RowID: EncodeRowID(0, 0), Vix: 0})
	tb.Add(Row{RowID: EncodeRowID(1, 0), Vix: 1})
	tb.RowKeys[1] = tb.RowKeys[0]
	groups := tb.ByRowKey()
	assert.Len(t, groups, 1)
	assert.Len(t, groups[tb.RowKeys[0]], 2)
}
