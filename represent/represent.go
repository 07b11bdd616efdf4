// Package represent builds the output record for each resolved group:
// picking the representative row, combining quality/filter/provenance
// fields across the group's contributors, stitching per-sample columns,
// and generating the synthetic variant ID.
package represent

import (
	"sort"
	"strconv"
	"strings"

	"github.com/grailbio/svmerge/breakend"
	"github.com/grailbio/svmerge/encoding/vcf"
	"github.com/grailbio/svmerge/kmerclass"
	"github.com/grailbio/svmerge/refseq"
	"github.com/grailbio/svmerge/svmerr"
	"github.com/grailbio/svmerge/table"
	"github.com/grailbio/svmerge/varid"
)

// Source bundles one input file's header and parsed records, indexed by
// row_num, so the builder can recover INFO/FORMAT/sample data for every
// contributing row of a group.
type Source struct {
	Header  vcf.Header
	Records []vcf.Record // indexed by row_num
}

// Output is one assembled merged record.
type Output struct {
	Chrom      string
	Pos        int
	ID         string
	Ref        string
	Alt        string
	Qual       float64
	HasQual    bool
	Filter     []string
	Criteria   string
	AltSeqs    []string // one per contributing non-representative INS source
	KmerScores []float64
	Info       map[string]string
	InfoOrder  []string // key order, original-column-first then svmerge additions
	Format  string
	Samples []string // one block of columns per source, in source order
	RowKey  table.RowKey
}

// Opts controls the ambient rewriting behaviors that ride alongside merge
// tolerance: stripping unwanted INFO tags, normalizing literal indel ALTs
// to symbolic form, filling in missing REF bases from the reference, and
// annotating insertion groups with the advisory kmerclass similarity.
type Opts struct {
	ForceAltTags bool
	FillInRefs   bool
	UnwantedInfo map[string]bool
	AnnotateKmer bool
}

// Builder assembles Output records for every group in a table.
type Builder struct {
	Sources []Source
	Ref     refseq.Lookup // nil if no reference was configured; required only for flips
	VarID   *varid.Generator
	Opts    Opts
}

// NewBuilder returns a Builder over sources, generating variant IDs with a
// fresh occurrence-tracking generator.
func NewBuilder(sources []Source, ref refseq.Lookup, opts Opts) *Builder {
	return &Builder{Sources: sources, Ref: ref, VarID: varid.NewGenerator(), Opts: opts}
}

// BuildAll assembles one Output per group in t, sorted by
// (chrom_id, start, end, row_key) as the emission order requires.
func (b *Builder) BuildAll(t *table.Table) ([]Output, error) {
	groups := t.ByRowKey()
	keys := make([]table.RowKey, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		gi, gj := groups[keys[i]], groups[keys[j]]
		ri, rj := repIndex(t, gi), repIndex(t, gj)
		a, c := t.Rows[ri], t.Rows[rj]
		if a.Chrom != c.Chrom {
			return a.Chrom < c.Chrom
		}
		if a.Start != c.Start {
			return a.Start < c.Start
		}
		if a.End != c.End {
			return a.End < c.End
		}
		return keys[i] < keys[j]
	})

	out := make([]Output, 0, len(keys))
	for _, k := range keys {
		rec, err := b.buildGroup(t, groups[k])
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, nil
}

// repIndex returns the index of the group's representative row: the
// minimum row_id, ordered by (vix, row_num) i.e. earliest source, earliest
// row.
func repIndex(t *table.Table, idxs []int) int {
	best := idxs[0]
	for _, i := range idxs[1:] {
		if t.Rows[i].RowID < t.Rows[best].RowID {
			best = i
		}
	}
	return best
}

func (b *Builder) buildGroup(t *table.Table, idxs []int) (Output, error) {
	repIdx := repIndex(t, idxs)
	rep := t.Rows[repIdx]
	repRec, err := b.recordFor(rep)
	if err != nil {
		return Output{}, err
	}

	out := Output{
		Chrom:    t.Chroms.Name(rep.Chrom),
		Pos:      int(rep.Start),
		Ref:      repRec.Ref,
		Alt:      repRec.Alt,
		Format:   repRec.Format,
		Criteria: rep.Criteria,
		RowKey:   t.RowKeys[repIdx],
	}

	maxQual := repRec.Qual
	hasQual := repRec.HasQual
	filterSet := map[string]struct{}{}
	for _, f := range repRec.Filter {
		filterSet[f] = struct{}{}
	}
	var altSeqs []string

	bySource := make(map[int]table.Row, len(idxs))
	for _, i := range idxs {
		bySource[t.Rows[i].Vix] = t.Rows[i]
	}

	for _, i := range idxs {
		row := t.Rows[i]
		rec, err := b.recordFor(row)
		if err != nil {
			return Output{}, err
		}
		if rec.HasQual && (!hasQual || rec.Qual > maxQual) {
			maxQual = rec.Qual
			hasQual = true
		}
		for _, f := range rec.Filter {
			filterSet[f] = struct{}{}
		}
		if i != repIdx && row.Kind == table.KindIns && rec.Alt != "" {
			altSeqs = append(altSeqs, rec.Alt)
		}
	}
	out.Qual = maxQual
	out.HasQual = hasQual
	out.AltSeqs = altSeqs

	filters := make([]string, 0, len(filterSet))
	for f := range filterSet {
		filters = append(filters, f)
	}
	sort.Strings(filters)
	out.Filter = filters

	out.Samples = b.stitchSamples(bySource)

	// The companion locus tracks the flip: when the representative's
	// orientation is rewritten, its old primary locus becomes the companion.
	end := rep.End
	chrom2 := chrom2NameOrEmpty(t, rep)
	end2 := rep.End2
	if rep.Flip {
		chrom, pos, anchor, alt, err := b.flipRecord(rep)
		if err != nil {
			return Output{}, err
		}
		out.Chrom = chrom
		out.Pos = pos
		out.Ref = string(anchor)
		out.Alt = alt
		end = int64(pos)
		chrom2 = t.Chroms.Name(rep.Chrom)
		end2 = rep.Start
	}

	id, err := b.VarID.Generate(rep.Kind.String(), out.Chrom, int64(out.Pos), end, rep.Length,
		chrom2, end2, rep.SeqHash, rep.HasSeqHash)
	if err != nil {
		return Output{}, err
	}
	out.ID = id

	if b.Opts.AnnotateKmer && rep.Kind == table.KindIns && len(altSeqs) > 0 {
		scores := make([]float64, len(altSeqs))
		for i, alt := range altSeqs {
			scores[i] = kmerclass.Similarity(repRec.Alt, alt)
		}
		out.KmerScores = scores
	}

	if b.Opts.ForceAltTags {
		out.Alt = forceAltTag(rep.Kind, out.Alt)
	}
	if b.Opts.FillInRefs && (out.Ref == "" || out.Ref == "N" || out.Ref == "n") {
		if b.Ref != nil {
			if base, err := b.Ref.BaseAt(out.Chrom, out.Pos); err == nil {
				out.Ref = string(base)
			}
		}
	}

	out.Info, out.InfoOrder = b.buildInfo(rep, repRec, out, end, chrom2, end2)

	return out, nil
}

// forceAltTag rewrites a literal indel ALT (a bare sequence of bases) to
// its symbolic form, e.g. "ACGT" -> "<DEL>", leaving already-symbolic ALTs
// (breakends, existing <TAG> forms) untouched.
func forceAltTag(kind table.Kind, alt string) string {
	if alt == "" || alt[0] == '<' || alt[0] == '[' || alt[0] == ']' {
		return alt
	}
	if kind == table.KindInvalid || kind == table.KindBnd {
		return alt
	}
	return "<" + kind.String() + ">"
}

// buildInfo assembles the merged record's INFO column: the representative's
// own INFO (minus any unwanted_info tags), refreshed SVTYPE/END/SVLEN/
// CHR2/END2 reflecting the (possibly flipped) representative, plus
// svmerge's own provenance tags.
func (b *Builder) buildInfo(rep table.Row, repRec vcf.Record, out Output, end int64, chrom2 string, end2 int64) (map[string]string, []string) {
	info := make(map[string]string, len(repRec.Info)+6)
	var order []string
	add := func(k, v string) {
		if b.Opts.UnwantedInfo[k] {
			return
		}
		if _, exists := info[k]; !exists {
			order = append(order, k)
		}
		info[k] = v
	}
	// Walk the original INFO column text rather than the parsed map so the
	// output key order matches the input record's, run after run. Records
	// without raw text fall back to sorted keys, which is just as stable.
	if repRec.InfoRaw != "." && repRec.InfoRaw != "" {
		for _, kv := range strings.Split(repRec.InfoRaw, ";") {
			if kv == "" {
				continue
			}
			k := kv
			if i := strings.IndexByte(kv, '='); i >= 0 {
				k = kv[:i]
			}
			add(k, repRec.Info[k])
		}
	} else if len(repRec.Info) > 0 {
		keys := make([]string, 0, len(repRec.Info))
		for k := range repRec.Info {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			add(k, repRec.Info[k])
		}
	}
	add("SVTYPE", rep.Kind.String())
	if end != 0 {
		add("END", strconv.FormatInt(end, 10))
	}
	if rep.Length != 0 {
		add("SVLEN", strconv.FormatInt(rep.Length, 10))
	}
	if rep.Kind == table.KindBnd {
		add("CHR2", chrom2)
		add("END2", strconv.FormatInt(end2, 10))
	}
	if rep.Criteria != "" {
		add("CRITERIA", rep.Criteria)
	}
	if len(out.AltSeqs) > 0 {
		add("ALT_SEQ", strings.Join(out.AltSeqs, ","))
	}
	if len(out.KmerScores) > 0 {
		parts := make([]string, len(out.KmerScores))
		for i, s := range out.KmerScores {
			parts[i] = strconv.FormatFloat(s, 'f', 4, 64)
		}
		add("SVMERGE_KMER_JACCARD", strings.Join(parts, ","))
	}
	return info, order
}

// InfoString renders Info/InfoOrder back to VCF INFO column text.
func (o Output) InfoString() string {
	if len(o.InfoOrder) == 0 {
		return "."
	}
	parts := make([]string, 0, len(o.InfoOrder))
	for _, k := range o.InfoOrder {
		v := o.Info[k]
		if v == "" {
			parts = append(parts, k)
		} else {
			parts = append(parts, k+"="+v)
		}
	}
	return strings.Join(parts, ";")
}

func chrom2NameOrEmpty(t *table.Table, row table.Row) string {
	if row.Kind != table.KindBnd {
		return ""
	}
	return t.Chroms.Name(row.Chrom2)
}

func (b *Builder) recordFor(row table.Row) (vcf.Record, error) {
	src := b.Sources[row.Vix]
	_, rowNum := row.RowID.Decode()
	if int(rowNum) >= len(src.Records) {
		return vcf.Record{}, svmerr.New(svmerr.MissingAlt, "row_num %d out of range for source %d", rowNum, row.Vix)
	}
	return src.Records[rowNum], nil
}

// stitchSamples concatenates per-sample columns from every contributing
// source in source order; sources that did not contribute a record to this
// group contribute a null block sized to that source's own sample count.
func (b *Builder) stitchSamples(bySource map[int]table.Row) []string {
	var out []string
	for vix, src := range b.Sources {
		row, contributed := bySource[vix]
		if !contributed {
			for range src.Header.Samples {
				out = append(out, ".")
			}
			continue
		}
		rec, err := b.recordFor(row)
		if err != nil {
			for range src.Header.Samples {
				out = append(out, ".")
			}
			continue
		}
		out = append(out, rec.Samples...)
	}
	return out
}

// flipRecord rewrites a BND row with its breakend sides swapped, fetching
// the new anchor base from the reference.
func (b *Builder) flipRecord(row table.Row) (chrom string, pos int, anchor byte, alt string, err error) {
	if b.Ref == nil {
		return "", 0, 0, "", svmerr.New(svmerr.OptionRequiresReference, "breakend flip requested but no reference configured")
	}
	rec, err := b.recordFor(row)
	if err != nil {
		return "", 0, 0, "", err
	}
	// The breakend parser works purely in terms of names, so it is fed the
	// chromosome, position and ALT of the row's own source record rather
	// than the row's interned ChromIDs.
	be, err := breakend.New(rec.Chrom, rec.Pos, rec.Alt)
	if err != nil {
		return "", 0, 0, "", err
	}
	return be.Flip().Format(b.Ref)
}
