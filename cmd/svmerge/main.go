package main

/*
  svmerge merges structural-variant call sets from multiple VCF sources
  into one deduplicated, provenance-annotated VCF stream. For more
  information, see github.com/grailbio/svmerge/merge.
*/

import (
	"context"
	"flag"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/grailbio/base/file"
	"github.com/grailbio/base/grail"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/tsv"
	"github.com/grailbio/base/vcontext"

	"github.com/grailbio/svmerge/encoding/vcf"
	"github.com/grailbio/svmerge/loader"
	"github.com/grailbio/svmerge/merge"
	"github.com/grailbio/svmerge/refseq"
	"github.com/grailbio/svmerge/represent"
	"github.com/grailbio/svmerge/table"
)

// sliceValue is a multi-value flag, one --variant per input source.
type sliceValue []string

func (s *sliceValue) Set(v string) error {
	*s = append(*s, v)
	return nil
}

func (s *sliceValue) String() string {
	return fmt.Sprintf("%q", []string(*s))
}

var (
	variants     sliceValue
	unwantedInfo sliceValue

	outputPath    = flag.String("output", "", "output VCF path")
	referencePath = flag.String("reference", "", "reference FASTA path, required when --allow-breakend-flipping or --fill-in-refs is set")
	referenceFai  = flag.String("reference-fai", "", "reference .fai index path, defaults to --reference + \".fai\"")
	traceFile     = flag.String("trace-file", "", "optional TSV trace of per-group merge provenance")

	positionWindow = flag.Int64("position-window", 25, "position_window: max start/end drift (bp) for an approximate match")
	end2Window     = flag.Int64("end2-window", 150, "end2_window: max companion-position drift (bp) for an approximate BND match")
	lengthRatio    = flag.Float64("length-ratio", 0.9, "length_ratio: minimum shorter/longer length ratio for an approximate match")

	allowBreakendFlipping = flag.Bool("allow-breakend-flipping", true, "allow a representative to be rewritten to its partner's orientation")
	forceAltTags          = flag.Bool("force-alt-tags", true, "rewrite literal indel ALTs to symbolic <DEL>/<DUP>/... form")
	fillInRefs            = flag.Bool("fill-in-refs", true, "fill in a missing or placeholder REF base from --reference")
	annotateKmer          = flag.Bool("annotate-kmer-jaccard", false, "annotate merged insertion groups with an advisory SVMERGE_KMER_JACCARD score")
)

func init() {
	flag.Var(&variants, "variant", "input VCF path; repeat once per source (at least 2 required)")
	flag.Var(&unwantedInfo, "unwanted-info", "INFO tag to strip from merged output; repeatable")
}

// validate mirrors markduplicates/validate.go's explicit pre-flight pass:
// every CLI-level precondition is checked before any file is touched.
func validate(opts *merge.Options) error {
	if len(variants) < 2 {
		return fmt.Errorf("at least two --variant sources are required")
	}
	if len(variants) > table.MaxSources {
		return fmt.Errorf("got %d --variant sources, max is %d", len(variants), table.MaxSources)
	}
	if *outputPath == "" {
		return fmt.Errorf("you must specify an output path with --output")
	}
	opts.ReferencePath = *referencePath
	if err := opts.Check(); err != nil {
		return err
	}
	return nil
}

func main() {
	shutdown := grail.Init()
	defer shutdown()

	flag.Parse()
	if flag.NArg() > 0 {
		log.Fatalf("unparsed flags, please check flag syntax: '%s'", strings.Join(flag.Args(), " "))
	}

	opts := merge.DefaultOptions()
	opts.PositionWindow = *positionWindow
	opts.End2Window = *end2Window
	opts.LengthRatio = *lengthRatio
	opts.AllowBreakendFlipping = *allowBreakendFlipping
	opts.ForceAltTags = *forceAltTags
	opts.FillInRefs = *fillInRefs
	opts.UnwantedInfo = unwantedInfo

	if err := validate(&opts); err != nil {
		log.Fatalf(err.Error())
	}

	ctx := vcontext.Background()
	if err := run(ctx, opts); err != nil {
		log.Fatalf(err.Error())
	}
	log.Debug.Printf("exiting")
}

func run(ctx context.Context, opts merge.Options) error {
	ref, closeRef, err := openReference(ctx, opts)
	if err != nil {
		return err
	}
	defer closeRef()

	ioReaders, closeAll, err := openVariantSources(ctx)
	if err != nil {
		return err
	}
	defer closeAll()

	t, sources, err := loader.Load(ioReaders)
	if err != nil {
		return fmt.Errorf("loading variant sources: %w", err)
	}

	if err := merge.Run(t, opts); err != nil {
		return fmt.Errorf("merging: %w", err)
	}

	unwanted := make(map[string]bool, len(opts.UnwantedInfo))
	for _, k := range opts.UnwantedInfo {
		unwanted[k] = true
	}
	repOpts := represent.Opts{
		ForceAltTags: opts.ForceAltTags,
		FillInRefs:   opts.FillInRefs,
		UnwantedInfo: unwanted,
		AnnotateKmer: *annotateKmer,
	}
	builder := represent.NewBuilder(sources, ref, repOpts)
	outputs, err := builder.BuildAll(t)
	if err != nil {
		return fmt.Errorf("building merged records: %w", err)
	}

	if err := writeOutput(ctx, t, sources, outputs); err != nil {
		return err
	}

	if *traceFile != "" {
		if err := writeTrace(ctx, *traceFile, t, outputs); err != nil {
			return fmt.Errorf("writing trace file: %w", err)
		}
	}
	return nil
}

// openReference opens --reference/--reference-fai whenever a reference path
// was supplied, whether or not any option needs anchor-base lookups;
// opts.Check has already confirmed a path was supplied whenever one is
// required. The returned closer must
// outlive every use of the Lookup: fasta.NewIndexed seeks into the
// underlying file lazily on each BaseAt call rather than reading it
// eagerly, so closing the handle before the merge finishes would break
// later flips/fill-ins.
func openReference(ctx context.Context, opts merge.Options) (refseq.Lookup, func(), error) {
	noop := func() {}
	if opts.ReferencePath == "" {
		return nil, noop, nil
	}
	fai := *referenceFai
	if fai == "" {
		fai = opts.ReferencePath + ".fai"
	}
	faFile, err := file.Open(ctx, opts.ReferencePath)
	if err != nil {
		return nil, noop, fmt.Errorf("opening reference fasta %s: %w", opts.ReferencePath, err)
	}
	faCloser := func() { faFile.Close(ctx) } // nolint: errcheck

	faiFile, err := file.Open(ctx, fai)
	if err != nil {
		// No readable index alongside the reference; build one in memory.
		log.Debug.Printf("reference index %s unavailable (%v), indexing %s directly", fai, err, opts.ReferencePath)
		ref, err := refseq.OpenUnindexed(faFile.Reader(ctx))
		if err != nil {
			faCloser()
			return nil, noop, fmt.Errorf("indexing reference fasta %s: %w", opts.ReferencePath, err)
		}
		return ref, faCloser, nil
	}
	closer := func() {
		faiFile.Close(ctx) // nolint: errcheck
		faFile.Close(ctx)  // nolint: errcheck
	}

	ref, err := refseq.OpenReader(faFile.Reader(ctx), faiFile.Reader(ctx))
	if err != nil {
		closer()
		return nil, noop, fmt.Errorf("parsing reference fasta index %s: %w", fai, err)
	}
	return ref, closer, nil
}

func openVariantSources(ctx context.Context) ([]io.Reader, func(), error) {
	readers := make([]io.Reader, len(variants))
	handles := make([]file.File, 0, len(variants))
	closeAll := func() {
		for _, h := range handles {
			h.Close(ctx) // nolint: errcheck
		}
	}
	for i, path := range variants {
		h, err := file.Open(ctx, path)
		if err != nil {
			closeAll()
			return nil, nil, fmt.Errorf("opening variant source %s: %w", path, err)
		}
		handles = append(handles, h)
		readers[i] = h.Reader(ctx)
	}
	return readers, closeAll, nil
}

func writeOutput(ctx context.Context, t *table.Table, sources []represent.Source, outputs []represent.Output) error {
	outFile, err := file.Create(ctx, *outputPath)
	if err != nil {
		return fmt.Errorf("creating output %s: %w", *outputPath, err)
	}
	defer outFile.Close(ctx) // nolint: errcheck

	contigs := make([]string, 0, t.Chroms.Len())
	for _, name := range t.Chroms.Names() {
		contigs = append(contigs, "##contig=<ID="+name+">")
	}
	w, err := vcf.NewWriter(outFile.Writer(ctx), contigs, mergedSampleNames(sources))
	if err != nil {
		return fmt.Errorf("opening output writer: %w", err)
	}
	for _, o := range outputs {
		if err := w.WriteFields(o.Chrom, o.Pos, o.ID, o.Ref, o.Alt, o.HasQual, o.Qual, o.Filter, o.InfoString(), o.Format, o.Samples); err != nil {
			return fmt.Errorf("writing merged record: %w", err)
		}
	}
	return w.Flush()
}

// mergedSampleNames disambiguates same-named samples across sources the
// way the stitched Samples columns in represent.Output are ordered: one
// block per source, in source order.
func mergedSampleNames(sources []represent.Source) []string {
	var out []string
	for i, s := range sources {
		for _, name := range s.Header.Samples {
			out = append(out, fmt.Sprintf("%s.%d", name, i))
		}
	}
	return out
}

// writeTrace emits one TSV line per input record, grouped under its merged
// variant's ID, with per-record offsets relative to the group representative.
// Rows follow output emission order, then row_id within a group, so two runs
// over the same inputs produce byte-identical traces.
func writeTrace(ctx context.Context, path string, t *table.Table, outputs []represent.Output) error {
	h, err := file.Create(ctx, path)
	if err != nil {
		return err
	}
	defer h.Close(ctx) // nolint: errcheck

	tw := tsv.NewWriter(h.Writer(ctx))
	for _, col := range []string{
		"variant_id", "chrom", "start", "end", "kind", "length",
		"start_offset", "end_offset", "end2_offset", "total_offset", "length_ratio",
		"chrom2", "end2", "seq_hash", "vix", "row_id", "row_key", "flip",
		"vix_set", "vix_count", "criteria", "alt_seq",
	} {
		tw.WriteString(col)
	}
	if err := tw.EndLine(); err != nil {
		return err
	}

	groups := t.ByRowKey()
	for _, o := range outputs {
		idxs := append([]int(nil), groups[o.RowKey]...)
		sort.Slice(idxs, func(a, b int) bool { return t.Rows[idxs[a]].RowID < t.Rows[idxs[b]].RowID })
		rep := t.Rows[idxs[0]]
		for _, i := range idxs {
			row := t.Rows[i]
			tw.WriteString(o.ID)
			tw.WriteString(t.Chroms.Name(row.Chrom))
			tw.WriteInt64(row.Start)
			tw.WriteInt64(row.End)
			tw.WriteString(row.Kind.String())
			tw.WriteInt64(row.Length)
			tw.WriteInt64(row.Start - rep.Start)
			tw.WriteInt64(row.End - rep.End)
			tw.WriteInt64(row.End2 - rep.End2)
			tw.WriteInt64(abs64(row.Start-rep.Start) + abs64(row.End-rep.End) + abs64(row.End2-rep.End2))
			tw.WriteString(strconv.FormatFloat(lengthRatioOf(row.Length, rep.Length), 'f', 4, 64))
			if row.Kind == table.KindBnd {
				tw.WriteString(t.Chroms.Name(row.Chrom2))
			} else {
				tw.WriteString("")
			}
			tw.WriteInt64(row.End2)
			if row.HasSeqHash {
				tw.WriteString(strconv.FormatUint(row.SeqHash, 10))
			} else {
				tw.WriteString("")
			}
			tw.WriteInt64(int64(row.Vix))
			tw.WriteInt64(int64(row.RowID))
			tw.WriteInt64(int64(t.RowKeys[i]))
			tw.WriteString(strconv.FormatBool(row.Flip))
			tw.WriteString(strconv.FormatUint(uint64(t.VixSets[i]), 10))
			tw.WriteInt64(int64(t.VixSets[i].Count()))
			tw.WriteString(row.Criteria)
			tw.WriteString(row.AltSeq)
			if err := tw.EndLine(); err != nil {
				return err
			}
		}
	}
	return tw.Flush()
}

func abs64(x int64) int64 {
	if x < 0 {
		return -x
	}
	return x
}

// lengthRatioOf is shorter/longer of the absolute lengths; both zero counts as
// a perfect 1.0, exactly one zero as 0.
func lengthRatioOf(a, b int64) float64 {
	la, lb := abs64(a), abs64(b)
	if la == 0 && lb == 0 {
		return 1.0
	}
	if la == 0 || lb == 0 {
		return 0
	}
	if la > lb {
		la, lb = lb, la
	}
	return float64(la) / float64(lb)
}
