// Package rangesweep implements the approximate-indel range join: a
// dual-heap sweep over start-sorted partitions that produces candidate
// record pairs within a position window and length-ratio tolerance,
// without the pre-bucketing an equi-join would need.
package rangesweep

import (
	"container/heap"
	"sort"

	"github.com/grailbio/base/traverse"

	"github.com/grailbio/svmerge/table"
)

// Pair is a candidate match between two rows, addressed by table index so
// callers can read whatever fields they need from the source table.
type Pair struct {
	L, R int // indices into the Table passed to Sweep
}

// Params bounds the sweep: W is the position window, R the minimum
// length-ratio (shorter/longer) two rows must share to be paired.
type Params struct {
	W int64
	R float64
}

// item is one heap entry: the table index plus the start coordinate it was
// keyed on, so eviction doesn't need to re-read the table.
type item struct {
	idx   int
	start int64
}

// minHeap orders items by ascending start; container/heap is the idiomatic
// Go substitute for a hand-rolled binary heap.
type minHeap []item

func (h minHeap) Len() int            { return len(h) }
func (h minHeap) Less(i, j int) bool  { return h[i].start < h[j].start }
func (h minHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *minHeap) Push(x interface{}) { *h = append(*h, x.(item)) }
func (h *minHeap) Pop() interface{} {
	old := *h
	n := len(old)
	it := old[n-1]
	*h = old[:n-1]
	return it
}

// partitionKey groups rows the sweep must never compare across: kind and
// chromosome. BND rows never enter this sweep (breakend
// pairing goes through the predicate joins in package predicate instead).
type partitionKey struct {
	kind  table.Kind
	chrom table.ChromID
}

// Sweep returns every candidate pair satisfying the approximate-indel
// predicate. t's RowKeys/VixSets are read at call time; passes wishing to
// see prior unions reflected must call unionfind.Forest.Apply(t) before
// invoking Sweep again.
//
// Partitions are swept in parallel (they share no candidate pairs), then
// concatenated in sorted partition order so the result is deterministic.
func Sweep(t *table.Table, p Params) []Pair {
	parts := partition(t)
	keys := make([]partitionKey, 0, len(parts))
	for k := range parts {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].kind != keys[j].kind {
			return keys[i].kind < keys[j].kind
		}
		return keys[i].chrom < keys[j].chrom
	})
	perPart := make([][]Pair, len(keys))
	traverse.Each(len(keys), func(i int) error { // nolint: errcheck
		perPart[i] = sweepPartition(t, parts[keys[i]], p)
		return nil
	})
	var out []Pair
	for _, pairs := range perPart {
		out = append(out, pairs...)
	}
	return out
}

func partition(t *table.Table) map[partitionKey][]int {
	parts := make(map[partitionKey][]int)
	for i, row := range t.Rows {
		if row.Kind == table.KindBnd {
			continue
		}
		key := partitionKey{kind: row.Kind, chrom: row.Chrom}
		parts[key] = append(parts[key], i)
	}
	for key := range parts {
		idxs := parts[key]
		sort.Slice(idxs, func(a, b int) bool { return t.Rows[idxs[a]].Start < t.Rows[idxs[b]].Start })
	}
	return parts
}

// sweepPartition runs the dual-heap sweep described in the range-sweep join
// contract over a single (kind, chrom) partition, already sorted by start.
//
// Two identical walks over the same sorted index sequence (lhs, rhs) each
// maintain a min-heap of rows whose position window is still open. The loop
// advances whichever side holds the smaller current start; each step evicts
// closed entries from the *opposite* heap, emits candidates against whatever
// remains there, then pushes the current row into its own heap.
func sweepPartition(t *table.Table, idxs []int, p Params) []Pair {
	var out []Pair
	var lhsHeap, rhsHeap minHeap
	li, ri := 0, 0
	n := len(idxs)

	emit := func(cur int, opposite *minHeap, oppositeIsRHS bool) {
		for _, it := range *opposite {
			var l, r int
			if oppositeIsRHS {
				l, r = cur, it.idx
			} else {
				l, r = it.idx, cur
			}
			if candidateOK(t, l, r, p) {
				out = append(out, Pair{L: l, R: r})
			}
		}
	}

	evictClosed := func(h *minHeap, cutoff int64) {
		kept := (*h)[:0]
		for _, it := range *h {
			if it.start+p.W >= cutoff {
				kept = append(kept, it)
			}
		}
		*h = kept
	}

	for li < n && ri < n {
		lStart := t.Rows[idxs[li]].Start
		rStart := t.Rows[idxs[ri]].Start
		if lStart <= rStart {
			cur := idxs[li]
			evictClosed(&rhsHeap, lStart)
			emit(cur, &rhsHeap, true)
			heap.Push(&lhsHeap, item{idx: cur, start: lStart})
			li++
		} else {
			cur := idxs[ri]
			evictClosed(&lhsHeap, rStart)
			emit(cur, &lhsHeap, false)
			heap.Push(&rhsHeap, item{idx: cur, start: rStart})
			ri++
		}
	}
	for li < n {
		cur := idxs[li]
		lStart := t.Rows[cur].Start
		evictClosed(&rhsHeap, lStart)
		emit(cur, &rhsHeap, true)
		heap.Push(&lhsHeap, item{idx: cur, start: lStart})
		li++
	}
	for ri < n {
		cur := idxs[ri]
		rStart := t.Rows[cur].Start
		evictClosed(&lhsHeap, rStart)
		emit(cur, &lhsHeap, false)
		heap.Push(&rhsHeap, item{idx: cur, start: rStart})
		ri++
	}
	return out
}

// candidateOK applies every row-pair predicate from the range-sweep join
// contract beyond partitioning and window membership (which the sweep
// itself already guarantees by construction).
func candidateOK(t *table.Table, l, r int, p Params) bool {
	if l == r {
		return false
	}
	lr, rr := t.Rows[l], t.Rows[r]
	// Requiring row_id(l) < row_id(r) both orders the pair and dedupes it:
	// the two sweep sides each see the same pair once, in opposite
	// orientations, and exactly one orientation survives this check.
	if lr.RowID >= rr.RowID {
		return false
	}
	if absInt64(lr.Start-rr.Start) > p.W || absInt64(lr.End-rr.End) > p.W {
		return false
	}
	ll, rl := absInt64(lr.Length), absInt64(rr.Length)
	switch {
	case ll == 0 && rl == 0:
		// 0/0 is degenerate; both lengths trivially agree.
	case ll == 0 || rl == 0:
		return false
	default:
		shorter, longer := ll, rl
		if longer < shorter {
			shorter, longer = longer, shorter
		}
		if float64(shorter)/float64(longer) < p.R {
			return false
		}
	}
	if lr.Vix == rr.Vix {
		return false
	}
	lk, rk := t.RowKeys[l], t.RowKeys[r]
	if lk == rk {
		return false
	}
	lv, rv := t.VixSets[l], t.VixSets[r]
	if !lv.Disjoint(rv) {
		return false
	}
	n := t.NumSources
	if lv.Count() >= n || rv.Count() >= n {
		return false
	}
	return true
}

func absInt64(x int64) int64 {
	if x < 0 {
		return -x
	}
	return x
}
