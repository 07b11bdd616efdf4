// Package unionfind implements a disjoint-set forest over table.RowKey,
// path-compressed and union-by-rank, used by the resolver to fold matching
// rows into groups pass by pass.
package unionfind

import "github.com/grailbio/svmerge/table"

// Forest is a disjoint-set forest keyed by table.RowKey. The zero value is
// not usable; construct with New.
type Forest struct {
	parent map[table.RowKey]table.RowKey
	rank   map[table.RowKey]uint32
}

// New returns an empty forest.
func New() *Forest {
	return &Forest{
		parent: make(map[table.RowKey]table.RowKey),
		rank:   make(map[table.RowKey]uint32),
	}
}

// Find returns the representative RowKey of the partition containing x,
// compressing the path from x to the root as it goes.
func (f *Forest) Find(x table.RowKey) table.RowKey {
	p, ok := f.parent[x]
	if !ok {
		f.parent[x] = x
		f.rank[x] = 0
		return x
	}
	if p == x {
		return x
	}
	root := f.Find(p)
	f.parent[x] = root
	return root
}

// Union merges the partitions containing x and y, returning the resulting
// representative. If x and y are already in the same partition, that
// representative is returned unchanged.
func (f *Forest) Union(x, y table.RowKey) table.RowKey {
	xr := f.Find(x)
	yr := f.Find(y)
	if xr == yr {
		return xr
	}
	switch {
	case f.rank[xr] < f.rank[yr]:
		f.parent[xr] = yr
		return yr
	case f.rank[xr] > f.rank[yr]:
		f.parent[yr] = xr
		return xr
	default:
		f.parent[yr] = xr
		f.rank[xr]++
		return xr
	}
}

// Connected reports whether x and y are already in the same partition.
func (f *Forest) Connected(x, y table.RowKey) bool {
	return f.Find(x) == f.Find(y)
}

// Apply rewrites t's RowKeys and VixSets to reflect every union recorded in
// the forest so far: every row's RowKey becomes its partition's
// representative, and every row in a partition shares the union of that
// partition's VixSets.
func (f *Forest) Apply(t *table.Table) {
	groupVix := make(map[table.RowKey]table.VixSet)
	roots := make([]table.RowKey, len(t.RowKeys))
	for i, rk := range t.RowKeys {
		root := f.Find(rk)
		roots[i] = root
		groupVix[root] = groupVix[root].Union(t.VixSets[i])
	}
	for i, root := range roots {
		t.RowKeys[i] = root
		t.VixSets[i] = groupVix[root]
	}
}
