package merge

import (
	"github.com/grailbio/svmerge/predicate"
	"github.com/grailbio/svmerge/rangesweep"
	"github.com/grailbio/svmerge/resolve"
	"github.com/grailbio/svmerge/table"
)

const (
	passExactIndel    = "exact"
	passExactBND      = "exact_bnd"
	passExactInsLocus = "exact_ins_locus"
	passRangeSweep    = "range_sweep_indel"
	passApproxBND     = "approx_bnd"
	passFlippedBND    = "flipped_bnd"
)

// Run executes the fixed pass sequence over t, mutating its RowKey/VixSet
// state in place via the resolver. Passes run from the strictest predicate
// (exact matches) to the loosest (windowed matches): a later pass may only
// add to the groups earlier passes formed, never override an earlier
// grouping decision.
func Run(t *table.Table, opts Options) error {
	if err := opts.Check(); err != nil {
		return err
	}
	rs := resolve.New()

	rs.Resolve(t, toResolveCandidates(predicate.ExactIndel(t)), passExactIndel)
	rs.Resolve(t, toResolveCandidates(predicate.ExactBND(t)), passExactBND)
	rs.Resolve(t, toResolveCandidates(predicate.ExactInsLocus(t, opts.LengthRatio)), passExactInsLocus)

	sweepPairs := rangesweep.Sweep(t, rangesweep.Params{W: opts.PositionWindow, R: opts.LengthRatio})
	rs.Resolve(t, toResolveCandidatesSweep(sweepPairs), passRangeSweep)

	approxParams := predicate.Params{W: opts.PositionWindow, W2: opts.End2Window, R: opts.LengthRatio}
	rs.Resolve(t, toResolveCandidates(predicate.ApproxBND(t, approxParams)), passApproxBND)

	if opts.AllowBreakendFlipping {
		flipped := predicate.FlippedBND(t, approxParams)
		rs.Resolve(t, toResolveCandidates(flipped), passFlippedBND)
		markFlips(t, flipped)
	}

	return nil
}

func toResolveCandidates(pairs []predicate.Pair) []resolve.Candidate {
	out := make([]resolve.Candidate, len(pairs))
	for i, p := range pairs {
		out[i] = resolve.Candidate{L: p.L, R: p.R}
	}
	return out
}

func toResolveCandidatesSweep(pairs []rangesweep.Pair) []resolve.Candidate {
	out := make([]resolve.Candidate, len(pairs))
	for i, p := range pairs {
		out[i] = resolve.Candidate{L: p.L, R: p.R}
	}
	return out
}

// markFlips decides, independently for each row the Flipped-BND pass joined,
// whether that row's own breakend orientation needs rewriting to match a
// fixed canonical convention (Side1 == After). This is deliberately
// per-row rather than per-pair-side: the representative builder always
// picks the group's minimum row_id as representative, so if "needs
// flip" were pinned to whichever side of the pair sorts second by row_id
// (as a naive reading of the pass's own l/r canonicalization would do), it
// could never land on the eventual representative and the flip codepath
// would be dead. Keying it to the row's own orientation instead means
// either side of a matched pair can end up flagged, and whichever one is
// later elected representative carries the flag through to output.
func markFlips(t *table.Table, pairs []predicate.Pair) {
	for _, p := range pairs {
		if t.RowKeys[p.L] != t.RowKeys[p.R] {
			// The resolver rejected this pair (source collision); the rows
			// were never joined, so neither orientation gets rewritten.
			continue
		}
		for _, idx := range [2]int{p.L, p.R} {
			if t.Rows[idx].Side1 != table.BndSideAfter {
				t.Rows[idx].Flip = true
			}
		}
	}
}
