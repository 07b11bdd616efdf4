package table

import "fmt"

// Kind is the structural variant category of a Row.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindIns
	KindDel
	KindDup
	KindInv
	KindBnd
	KindCpx
)

func (k Kind) String() string {
	switch k {
	case KindIns:
		return "INS"
	case KindDel:
		return "DEL"
	case KindDup:
		return "DUP"
	case KindInv:
		return "INV"
	case KindBnd:
		return "BND"
	case KindCpx:
		return "CPX"
	default:
		return "INVALID"
	}
}

// ParseKind maps an SVTYPE string to a Kind. ok is false for anything outside
// the closed set svmerge understands.
func ParseKind(s string) (k Kind, ok bool) {
	switch s {
	case "INS":
		return KindIns, true
	case "DEL":
		return KindDel, true
	case "DUP":
		return KindDup, true
	case "INV":
		return KindInv, true
	case "BND":
		return KindBnd, true
	case "CPX":
		return KindCpx, true
	default:
		return KindInvalid, false
	}
}

// VixSet is a bitmask over source indices: bit i set means source i
// contributed a record to whatever row or group this mask describes. 64
// sources is the ceiling enforced by MaxSources.
type VixSet uint64

// NewVixSet returns a mask with only vix's bit set.
func NewVixSet(vix int) VixSet { return VixSet(1) << uint(vix) }

// Count returns the number of sources set in the mask (popcount).
func (s VixSet) Count() int { return popcount(uint64(s)) }

// Has reports whether source vix is a member.
func (s VixSet) Has(vix int) bool { return s&(VixSet(1)<<uint(vix)) != 0 }

// Union returns s | other.
func (s VixSet) Union(other VixSet) VixSet { return s | other }

// Disjoint reports whether s and other share no source, the precondition for
// unioning two groups: a group invariant forbids a source contributing two
// records to the same group.
func (s VixSet) Disjoint(other VixSet) bool { return s&other == 0 }

// RowID packs a source index (vix) and an intra-source row number into a
// single uint32 as vix + 100*row_num: vix occupies the low two decimal
// digits, row_num the rest, so an id printed in decimal is self-describing.
// MaxSources is 64, comfortably under 100, so the split never collides.
type RowID uint32

// EncodeRowID builds a RowID from a source index and row number.
func EncodeRowID(vix int, rowNum uint32) RowID {
	return RowID(uint32(vix) + 100*rowNum)
}

// Decode splits a RowID back into its source index and row number.
func (r RowID) Decode() (vix int, rowNum uint32) {
	return int(uint32(r) % 100), uint32(r) / 100
}

func (r RowID) String() string {
	vix, rn := r.Decode()
	return fmt.Sprintf("row(vix=%d,num=%d)", vix, rn)
}

// RowKey identifies a row (or, after union-find resolution, a group of rows)
// for the lifetime of a merge run. Before resolution RowKey(row) == RowID of
// that row; after resolution every row in a group shares its representative's
// RowKey.
type RowKey uint32

// Row is one variant record from one input source, indexed into the
// dictionaries the caller supplies (ChromDict for chromosome names). The
// positional and source fields are fixed at load time; RowKey and VixSet
// live alongside the row in the Table so union-find can mutate group
// membership without touching the parsed record, while Criteria and Flip
// are mutated in place by the resolver and by the merge pipeline after the
// Flipped-BND pass respectively as a group's state evolves.
type Row struct {
	RowID      RowID
	Vix        int
	Kind       Kind
	Chrom      ChromID
	Start      int64
	End        int64
	Chrom2     ChromID
	End2       int64
	Length     int64
	SeqHash    uint64
	HasSeqHash bool   // true only for INS rows with a literal alt sequence
	RefLen     int    // length of the REF allele, for inferring literal-insertion lengths
	AltSeq     string

	// Side1, Side2 are the breakend sidedness this row's own ALT string
	// encoded at load time (meaningful only for Kind == KindBnd). They let
	// the Flipped-BND pass decide, per row, whether this record's own
	// orientation is the one that needs rewriting, independent of which
	// side of a matched pair happened to sort first by row_id.
	Side1, Side2 BndSide

	Flip     bool   // true iff this row's breakend orientation must be rewritten to match the chosen canonical convention
	Criteria string // comma-joined predicate names that caused this row's group to grow
}

// BndSide mirrors breakend.Side without importing package breakend (which
// itself depends on refseq): Before means the junction continues leftward
// of the anchor base, After means rightward. table stays a leaf package;
// loader translates breakend.Side into BndSide when it populates a row.
type BndSide uint8

const (
	BndSideBefore BndSide = iota
	BndSideAfter
)

// Table holds every Row from every source plus the resolution state attached
// to each one: the current RowKey (initially the row's own RowID) and the
// VixSet of sources already folded into that key's group.
type Table struct {
	Rows    []Row
	RowKeys []RowKey
	VixSets []VixSet
	Chroms  *ChromDict
	// NumSources is S, the count of input files participating in this run.
	// It bounds "full group" checks (vix_count < N) independent of how many
	// chromosomes happen to be in play.
	NumSources int
}

// NewTable returns an empty table over the given chromosome dictionary.
func NewTable(chroms *ChromDict, numSources int) *Table {
	return &Table{Chroms: chroms, NumSources: numSources}
}

// Add appends row to the table, initializing its RowKey to its own RowID and
// its VixSet to a singleton containing its own source.
func (t *Table) Add(row Row) int {
	idx := len(t.Rows)
	t.Rows = append(t.Rows, row)
	t.RowKeys = append(t.RowKeys, RowKey(row.RowID))
	t.VixSets = append(t.VixSets, NewVixSet(row.Vix))
	return idx
}

// Len reports the number of rows in the table.
func (t *Table) Len() int { return len(t.Rows) }

// ByRowKey groups the table's row indices by their current RowKey. Each
// group's indices are in table order; the map itself has no order.
func (t *Table) ByRowKey() map[RowKey][]int {
	groups := make(map[RowKey][]int)
	for i, rk := range t.RowKeys {
		groups[rk] = append(groups[rk], i)
	}
	return groups
}
