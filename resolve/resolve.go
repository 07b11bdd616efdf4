// Package resolve implements the group resolver: it absorbs a pass's
// candidate pairs in priority order, folding them into the table's
// disjoint-set forest while enforcing the one-record-per-source-per-group
// invariant, then stamps the pass name onto every row that moved.
package resolve

import (
	"sort"

	"github.com/grailbio/svmerge/table"
	"github.com/grailbio/svmerge/unionfind"
)

// Candidate is one pair offered to the resolver, already resolved to table
// indices so the resolver can read current RowKey/VixSet directly.
type Candidate struct {
	L, R int
}

// Resolver owns the disjoint-set forest shared across every pass of a merge
// run. Passes run in the fixed order the pipeline dictates; each call to
// Resolve folds one pass's candidates into the forest and the table.
type Resolver struct {
	forest *unionfind.Forest
}

// New returns a resolver with a fresh, empty forest.
func New() *Resolver {
	return &Resolver{forest: unionfind.New()}
}

// Resolve absorbs candidates (from a single pass) into the forest, then
// applies the resulting unions to t and appends passName to the criteria of
// every row whose group changed. It returns the number of rows updated: rows
// whose RowKey or VixSet changed.
func (rs *Resolver) Resolve(t *table.Table, candidates []Candidate, passName string) int {
	sort.SliceStable(candidates, func(i, j int) bool {
		ci, cj := candidates[i], candidates[j]
		wi := t.VixSets[ci.L].Count() + t.VixSets[ci.R].Count()
		wj := t.VixSets[cj.L].Count() + t.VixSets[cj.R].Count()
		if wi != wj {
			return wi > wj
		}
		lki, lkj := t.RowKeys[ci.L], t.RowKeys[cj.L]
		if lki != lkj {
			return lki < lkj
		}
		return t.RowKeys[ci.R] < t.RowKeys[cj.R]
	})

	beforeKeys := make([]table.RowKey, t.Len())
	copy(beforeKeys, t.RowKeys)
	beforeVix := make([]table.VixSet, t.Len())
	copy(beforeVix, t.VixSets)

	// vix tracks each live group's combined vix-set, seeded lazily from the
	// incoming candidate's own row the first time a root is seen.
	vix := make(map[table.RowKey]table.VixSet)
	seed := func(root table.RowKey, idx int) table.VixSet {
		if v, ok := vix[root]; ok {
			return v
		}
		v := t.VixSets[idx]
		vix[root] = v
		return v
	}

	for _, c := range candidates {
		lk := t.RowKeys[c.L]
		rk := t.RowKeys[c.R]
		a := rs.forest.Find(lk)
		b := rs.forest.Find(rk)
		if a == b {
			continue
		}
		av := seed(a, c.L)
		bv := seed(b, c.R)
		if !av.Disjoint(bv) {
			continue // a source already contributes to both sides; reject.
		}
		c2 := rs.forest.Union(a, b)
		merged := av.Union(bv)
		delete(vix, a)
		delete(vix, b)
		vix[c2] = merged
	}

	rs.forest.Apply(t)

	moved := 0
	for i := range t.Rows {
		if t.RowKeys[i] != beforeKeys[i] || t.VixSets[i] != beforeVix[i] {
			moved++
		}
	}
	if moved == 0 {
		return 0
	}
	// Stamp criteria on every row now sharing a group that changed, not just
	// the rows whose own key moved this pass: the representative builder
	// reads criteria per-group, and a group's criteria list should name every
	// pass that contributed to its current membership.
	touched := make(map[table.RowKey]bool)
	for i := range t.Rows {
		if t.RowKeys[i] != beforeKeys[i] {
			touched[t.RowKeys[i]] = true
		}
	}
	for i := range t.Rows {
		if touched[t.RowKeys[i]] {
			appendCriteria(&t.Rows[i], passName)
		}
	}
	return moved
}

func appendCriteria(row *table.Row, passName string) {
	if row.Criteria == "" {
		row.Criteria = passName
		return
	}
	for _, existing := range splitCriteria(row.Criteria) {
		if existing == passName {
			return
		}
	}
	row.Criteria = row.Criteria + "," + passName
}

func splitCriteria(s string) []string {
	var out []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == ',' {
			out = append(out, s[start:i])
			start = i + 1
		}
	}
	out = append(out, s[start:])
	return out
}
