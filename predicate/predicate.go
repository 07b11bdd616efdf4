// Package predicate implements the exact and approximate candidate-pair
// producers that are not range-sweep joins: grouping rows by an equality
// key and emitting every pair within a group that also satisfies the pass's
// additional predicate.
package predicate

import "github.com/grailbio/svmerge/table"

// Pair is a candidate match between two rows, addressed by table index.
type Pair struct {
	L, R int
}

// Params bounds the approximate passes.
type Params struct {
	W  int64   // position_window
	W2 int64   // end2_window, breakend-companion window
	R  float64 // length_ratio
}

func ok(t *table.Table, l, r int) bool {
	if l == r {
		return false
	}
	lr, rr := t.Rows[l], t.Rows[r]
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

func canonicalize(t *table.Table, l, r int) (int, int) {
	if t.Rows[l].RowID > t.Rows[r].RowID {
		return r, l
	}
	return l, r
}

func abs64(x int64) int64 {
	if x < 0 {
		return -x
	}
	return x
}

func lengthRatioOK(l, r int64, minRatio float64) bool {
	la, ra := abs64(l), abs64(r)
	if la == 0 && ra == 0 {
		// 0/0 is degenerate; both lengths trivially agree.
		return true
	}
	if la == 0 || ra == 0 {
		return false
	}
	shorter, longer := la, ra
	if longer < shorter {
		shorter, longer = longer, shorter
	}
	return float64(shorter)/float64(longer) >= minRatio
}

// ExactIndel groups non-BND rows sharing (chrom_id, start, end, kind,
// length), additionally requiring matching seq_hash for INS.
func ExactIndel(t *table.Table) []Pair {
	type key struct {
		chrom  table.ChromID
		start  int64
		end    int64
		kind   table.Kind
		length int64
	}
	groups := make(map[key][]int)
	for i, row := range t.Rows {
		if row.Kind == table.KindBnd {
			continue
		}
		k := key{row.Chrom, row.Start, row.End, row.Kind, row.Length}
		groups[k] = append(groups[k], i)
	}
	var out []Pair
	for _, idxs := range groups {
		for a := 0; a < len(idxs); a++ {
			for b := a + 1; b < len(idxs); b++ {
				l, r := canonicalize(t, idxs[a], idxs[b])
				if !ok(t, l, r) {
					continue
				}
				if t.Rows[l].Kind == table.KindIns {
					lr, rr := t.Rows[l], t.Rows[r]
					if lr.HasSeqHash != rr.HasSeqHash || lr.SeqHash != rr.SeqHash {
						continue
					}
				}
				out = append(out, Pair{L: l, R: r})
			}
		}
	}
	return out
}

// ExactBND groups BND rows sharing (chrom_id, start, end, kind, chrom2_id,
// end2) with no further predicate.
func ExactBND(t *table.Table) []Pair {
	type key struct {
		chrom  table.ChromID
		start  int64
		end    int64
		chrom2 table.ChromID
		end2   int64
	}
	groups := make(map[key][]int)
	for i, row := range t.Rows {
		if row.Kind != table.KindBnd {
			continue
		}
		k := key{row.Chrom, row.Start, row.End, row.Chrom2, row.End2}
		groups[k] = append(groups[k], i)
	}
	var out []Pair
	for _, idxs := range groups {
		for a := 0; a < len(idxs); a++ {
			for b := a + 1; b < len(idxs); b++ {
				l, r := canonicalize(t, idxs[a], idxs[b])
				if ok(t, l, r) {
					out = append(out, Pair{L: l, R: r})
				}
			}
		}
	}
	return out
}

// ExactInsLocus groups INS rows sharing (chrom_id, start, end), requiring
// length-ratio agreement instead of an exact length or seq_hash match.
func ExactInsLocus(t *table.Table, minRatio float64) []Pair {
	type key struct {
		chrom table.ChromID
		start int64
		end   int64
	}
	groups := make(map[key][]int)
	for i, row := range t.Rows {
		if row.Kind != table.KindIns {
			continue
		}
		k := key{row.Chrom, row.Start, row.End}
		groups[k] = append(groups[k], i)
	}
	var out []Pair
	for _, idxs := range groups {
		for a := 0; a < len(idxs); a++ {
			for b := a + 1; b < len(idxs); b++ {
				l, r := canonicalize(t, idxs[a], idxs[b])
				if !ok(t, l, r) {
					continue
				}
				if !lengthRatioOK(t.Rows[l].Length, t.Rows[r].Length, minRatio) {
					continue
				}
				out = append(out, Pair{L: l, R: r})
			}
		}
	}
	return out
}

// ApproxBND groups BND rows sharing (chrom_id, chrom2_id), requiring
// |Δstart|,|Δend| < W and |Δend2| < W2.
func ApproxBND(t *table.Table, p Params) []Pair {
	type key struct {
		chrom  table.ChromID
		chrom2 table.ChromID
	}
	groups := make(map[key][]int)
	for i, row := range t.Rows {
		if row.Kind != table.KindBnd {
			continue
		}
		k := key{row.Chrom, row.Chrom2}
		groups[k] = append(groups[k], i)
	}
	var out []Pair
	for _, idxs := range groups {
		for a := 0; a < len(idxs); a++ {
			for b := a + 1; b < len(idxs); b++ {
				l, r := canonicalize(t, idxs[a], idxs[b])
				if !ok(t, l, r) {
					continue
				}
				lr, rr := t.Rows[l], t.Rows[r]
				if abs64(lr.Start-rr.Start) >= p.W || abs64(lr.End-rr.End) >= p.W {
					continue
				}
				if abs64(lr.End2-rr.End2) >= p.W2 {
					continue
				}
				out = append(out, Pair{L: l, R: r})
			}
		}
	}
	return out
}

// FlippedBND pairs BND rows whose junctions mirror each other: l's primary
// locus sits where r's companion locus is and vice versa, as when one caller
// emits the "low" side of a junction and another the "high" side. Rows are
// bucketed by the unordered chromosome pair, then compared componentwise
// against the flipped partner — (start, end) against the partner's end2 and
// end2 against the partner's start — with the position windows swapped along
// with the axes: the companion window guards the comparisons that now involve
// a primary coordinate.
func FlippedBND(t *table.Table, p Params) []Pair {
	type key struct {
		lo, hi table.ChromID
	}
	unordered := func(a, b table.ChromID) key {
		if b < a {
			a, b = b, a
		}
		return key{a, b}
	}
	groups := make(map[key][]int)
	for i, row := range t.Rows {
		if row.Kind != table.KindBnd {
			continue
		}
		groups[unordered(row.Chrom, row.Chrom2)] = append(groups[unordered(row.Chrom, row.Chrom2)], i)
	}
	var out []Pair
	for _, idxs := range groups {
		for a := 0; a < len(idxs); a++ {
			for b := a + 1; b < len(idxs); b++ {
				l, r := canonicalize(t, idxs[a], idxs[b])
				if !ok(t, l, r) {
					continue
				}
				lr, rr := t.Rows[l], t.Rows[r]
				if lr.Chrom != rr.Chrom2 || lr.Chrom2 != rr.Chrom {
					continue
				}
				if abs64(lr.Start-rr.End2) >= p.W2 {
					continue
				}
				if abs64(lr.End-rr.End2) >= p.W {
					continue
				}
				if abs64(lr.End2-rr.Start) >= p.W2 {
					continue
				}
				out = append(out, Pair{L: l, R: r})
			}
		}
	}
	return out
}
