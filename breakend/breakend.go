// Package breakend parses and reformats VCF BND ALT strings: the
// bracket-notation mini-language that encodes which side of a breakend joins
// to which side of its partner.
package breakend

import (
	"fmt"
	"regexp"
	"strconv"

	"github.com/grailbio/svmerge/refseq"
	"github.com/grailbio/svmerge/svmerr"
)

// Side identifies which side of a breakend is joined: Before means the join
// continues to the reference leftward of the anchor base, After means it
// continues rightward.
type Side uint8

const (
	Before Side = iota
	After
)

func (s Side) String() string {
	if s == Before {
		return "Before"
	}
	return "After"
}

var (
	// t[p[ — piece extends to the right of p (After), joined after t (After).
	reAfterAfter = regexp.MustCompile(`[ACGTNacgtn]\[([^:]+):([0-9]+)\[`)
	// t]p] — piece extends left of p (Before), joined after t (After).
	reAfterBefore = regexp.MustCompile(`[ACGTNacgtn]\]([^:]+):([0-9]+)\]`)
	// ]p]t — piece extends left of p (Before), joined before t (Before).
	reBeforeBefore = regexp.MustCompile(`\]([^:]+):([0-9]+)\][ACGTNacgtn]`)
	// [p[t — piece extends right of p (After), joined before t (Before).
	reBeforeAfter = regexp.MustCompile(`\[([^:]+):([0-9]+)\[[ACGTNacgtn]`)
)

// Parse extracts the partner chromosome, partner position, and the two sides
// joined from a BND ALT string such as "G]chr2:500]" or "[chr3:10[T".
func Parse(alt string) (chrom2 string, end2 int, side, side2 Side, err error) {
	if len(alt) == 0 {
		return "", 0, 0, 0, svmerr.New(svmerr.BadBreakEnd, "empty ALT")
	}
	hasBracket := alt[0] == '[' || alt[0] == ']' || alt[len(alt)-1] == '[' || alt[len(alt)-1] == ']'
	if !hasBracket {
		return "", 0, 0, 0, svmerr.New(svmerr.BadBreakEnd, "ALT %q is not breakend bracket notation", alt)
	}

	if m := reAfterAfter.FindStringSubmatch(alt); m != nil {
		pos, e := strconv.Atoi(m[2])
		if e != nil {
			return "", 0, 0, 0, svmerr.Wrap(svmerr.BadBreakEnd, e, "bad position in %q", alt)
		}
		return m[1], pos, After, After, nil
	}
	if m := reAfterBefore.FindStringSubmatch(alt); m != nil {
		pos, e := strconv.Atoi(m[2])
		if e != nil {
			return "", 0, 0, 0, svmerr.Wrap(svmerr.BadBreakEnd, e, "bad position in %q", alt)
		}
		return m[1], pos, After, Before, nil
	}
	if m := reBeforeBefore.FindStringSubmatch(alt); m != nil {
		pos, e := strconv.Atoi(m[2])
		if e != nil {
			return "", 0, 0, 0, svmerr.Wrap(svmerr.BadBreakEnd, e, "bad position in %q", alt)
		}
		return m[1], pos, Before, Before, nil
	}
	if m := reBeforeAfter.FindStringSubmatch(alt); m != nil {
		pos, e := strconv.Atoi(m[2])
		if e != nil {
			return "", 0, 0, 0, svmerr.Wrap(svmerr.BadBreakEnd, e, "bad position in %q", alt)
		}
		return m[1], pos, Before, After, nil
	}
	return "", 0, 0, 0, svmerr.New(svmerr.BadBreakEnd, "ALT %q did not match any breakend pattern", alt)
}

// BreakEnd is one parsed breakend record: its own anchor (chrom, end, side)
// and its partner's (chrom2, end2, side2).
type BreakEnd struct {
	Chrom  string
	End    int
	Side   Side
	Chrom2 string
	End2   int
	Side2  Side
}

// New parses alt in the context of the record's own chromosome and position.
func New(chrom string, end int, alt string) (BreakEnd, error) {
	chrom2, end2, side, side2, err := Parse(alt)
	if err != nil {
		return BreakEnd{}, err
	}
	return BreakEnd{Chrom: chrom, End: end, Side: side, Chrom2: chrom2, End2: end2, Side2: side2}, nil
}

// Flip swaps the breakend's own anchor with its partner's, producing the
// record that the partner's source would have emitted for the same junction.
// Flip is its own inverse: b.Flip().Flip() == b.
func (b BreakEnd) Flip() BreakEnd {
	return BreakEnd{
		Chrom:  b.Chrom2,
		End:    b.End2,
		Side:   b.Side2,
		Chrom2: b.Chrom,
		End2:   b.End,
		Side2:  b.Side,
	}
}

// Format renders the breakend back to (chrom, pos, anchorBase, alt), fetching
// the anchor base from ref at the breakend's own position. Positions below 1
// are clamped to 1: some callers (long-read SV callers in particular) emit
// a zero or negative breakend position, which has no valid anchor base.
func (b BreakEnd) Format(ref refseq.Lookup) (chrom string, pos int, anchor byte, alt string, err error) {
	p := b.End
	if p < 1 {
		p = 1
	}
	base, err := ref.BaseAt(b.Chrom, p)
	if err != nil {
		return "", 0, 0, "", err
	}
	var rendered string
	switch {
	case b.Side == Before && b.Side2 == Before:
		rendered = fmt.Sprintf("]%s:%d]%c", b.Chrom2, b.End2, base)
	case b.Side == Before && b.Side2 == After:
		rendered = fmt.Sprintf("[%s:%d[%c", b.Chrom2, b.End2, base)
	case b.Side == After && b.Side2 == Before:
		rendered = fmt.Sprintf("%c]%s:%d]", base, b.Chrom2, b.End2)
	default: // After, After
		rendered = fmt.Sprintf("%c[%s:%d[", base, b.Chrom2, b.End2)
	}
	return b.Chrom, p, base, rendered, nil
}
