// Package merge orchestrates the fixed pass sequence over a loaded variant
// table: Exact indel, Exact BND, Exact-INS-locus, Range-sweep indel,
// Approximate BND, and optionally Flipped BND, handing each pass's
// candidates to the resolver in turn.
package merge

import (
	"github.com/grailbio/svmerge/refseq"
	"github.com/grailbio/svmerge/svmerr"
)

// Options controls merge tolerance and optional behaviors. Field names and
// defaults mirror the CLI flags in cmd/svmerge.
type Options struct {
	PositionWindow        int64   // position_window, default 25
	End2Window            int64   // end2_window, default 150
	LengthRatio           float64 // length_ratio, default 0.9
	AllowBreakendFlipping bool    // default true
	ForceAltTags          bool
	FillInRefs            bool // default true
	UnwantedInfo          []string
	ReferencePath         string
}

// DefaultOptions returns the default merge parameters.
func DefaultOptions() Options {
	return Options{
		PositionWindow:        25,
		End2Window:            150,
		LengthRatio:           0.9,
		AllowBreakendFlipping: true,
		ForceAltTags:          true,
		FillInRefs:            true,
	}
}

// Check validates mutual consistency of the options up front, before any
// input file is touched.
func (o Options) Check() error {
	if o.FillInRefs && o.ReferencePath == "" {
		return refseq.RequireReference("--fill-in-refs", o.ReferencePath)
	}
	if o.AllowBreakendFlipping && o.ReferencePath == "" {
		return refseq.RequireReference("--allow-breakend-flipping", o.ReferencePath)
	}
	if o.PositionWindow < 0 {
		return svmerr.New(svmerr.InvalidOption, "position_window must be non-negative")
	}
	if o.LengthRatio <= 0 || o.LengthRatio > 1 {
		return svmerr.New(svmerr.InvalidOption, "length_ratio must be in (0, 1]")
	}
	return nil
}
