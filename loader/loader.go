// Package loader builds a table.Table and the per-source records
// represent.Source needs from a set of VCF input files: one variant file
// per input source, per the variant table loader contract.
package loader

import (
	"fmt"
	"io"
	"strconv"

	"github.com/grailbio/base/errors"

	"github.com/grailbio/svmerge/breakend"
	"github.com/grailbio/svmerge/encoding/vcf"
	"github.com/grailbio/svmerge/represent"
	"github.com/grailbio/svmerge/seqhash"
	"github.com/grailbio/svmerge/svmerr"
	"github.com/grailbio/svmerge/table"
)

// Load reads one VCF stream per entry in readers (in source-index order)
// into a single table.Table plus the represent.Source slice the
// representative builder needs to recover per-record fields later.
func Load(readers []io.Reader) (*table.Table, []represent.Source, error) {
	if err := table.CheckSourceCount(len(readers)); err != nil {
		return nil, nil, err
	}
	chroms := table.NewChromDict()
	sources := make([]represent.Source, len(readers))
	t := table.NewTable(chroms, len(readers))

	var chromSets [][]string
	for vix, r := range readers {
		rd, err := vcf.NewReader(r)
		if err != nil {
			return nil, nil, errors.E(err, fmt.Sprintf("opening source %d", vix))
		}
		sources[vix].Header = rd.Header

		var observed []string
		seen := make(map[string]bool)
		rowNum := uint32(0)
		for {
			rec, err := rd.Next()
			if err == io.EOF {
				break
			}
			if err != nil {
				return nil, nil, errors.E(err, fmt.Sprintf("reading source %d record %d", vix, rowNum))
			}
			sources[vix].Records = append(sources[vix].Records, rec)

			if !seen[rec.Chrom] {
				seen[rec.Chrom] = true
				observed = append(observed, rec.Chrom)
			}

			row, err := buildRow(chroms, vix, rowNum, rec)
			if err != nil {
				return nil, nil, err
			}
			t.Add(row)
			rowNum++
		}
		// The declared header contigs are the source's chromosome set; only
		// a header with no ##contig lines at all falls back to the
		// chromosomes observed in its records.
		names := rd.Header.Contigs
		if len(names) == 0 {
			names = observed
		}
		chromSets = append(chromSets, names)
	}

	if err := checkChromConsistency(chromSets); err != nil {
		return nil, nil, err
	}

	return t, sources, nil
}

// checkChromConsistency enforces that every source declares the same
// chromosome set as source 0: same count, same names, same order. Any
// disagreement in any of the three fails the whole run, since a record's
// chrom_id is only meaningful if all sources share one dictionary.
func checkChromConsistency(sets [][]string) error {
	if len(sets) == 0 {
		return nil
	}
	reference := sets[0]
	refPos := make(map[string]int, len(reference))
	for i, name := range reference {
		refPos[name] = i
	}
	for vix, names := range sets[1:] {
		if len(names) != len(reference) {
			return svmerr.New(svmerr.SourceChromosomeMismatch,
				"source %d declares %d chromosomes, source 0 declares %d", vix+1, len(names), len(reference))
		}
		for i, name := range names {
			pos, ok := refPos[name]
			if !ok {
				return svmerr.New(svmerr.SourceChromosomeMismatch,
					"source %d chromosome %q is not declared by source 0", vix+1, name)
			}
			if pos != i {
				return svmerr.New(svmerr.SourceChromosomeMismatch,
					"source %d declares chromosome %q at position %d, source 0 at position %d", vix+1, name, i, pos)
			}
		}
	}
	return nil
}

func buildRow(chroms *table.ChromDict, vix int, rowNum uint32, rec vcf.Record) (table.Row, error) {
	kindStr, ok := rec.Info["SVTYPE"]
	kind, kindOK := table.ParseKind(kindStr)
	if !ok || !kindOK {
		inferred, inferOK := inferKind(rec)
		if !inferOK {
			return table.Row{}, svmerr.New(svmerr.MissingVariantKind,
				"record at %s:%d has no SVTYPE and no inferable kind", rec.Chrom, rec.Pos)
		}
		kind = inferred
	}

	row := table.Row{
		RowID:  table.EncodeRowID(vix, rowNum),
		Vix:    vix,
		Kind:   kind,
		Chrom:  chroms.Intern(rec.Chrom),
		Start:  int64(rec.Pos),
		RefLen: len(rec.Ref),
		AltSeq: rec.Alt,
	}

	if end, ok := rec.Info["END"]; ok {
		if v, err := strconv.ParseInt(end, 10, 64); err == nil {
			row.End = v
		}
	} else {
		row.End = row.Start
	}
	if length, ok := rec.Info["SVLEN"]; ok {
		if v, err := strconv.ParseInt(length, 10, 64); err == nil {
			row.Length = v
		}
	} else {
		switch {
		case kind == table.KindDel && row.End > row.Start:
			// Deletions carry negative lengths by convention.
			row.Length = -(row.End - row.Start)
		case kind == table.KindIns && rec.Alt != "" && rec.Alt[0] != '<':
			// Literal insertion: inserted bases = ALT minus the REF anchor.
			row.Length = int64(len(rec.Alt) - row.RefLen)
		case row.End > row.Start:
			row.Length = row.End - row.Start
		}
	}

	if kind == table.KindBnd {
		be, err := breakend.New(rec.Chrom, rec.Pos, rec.Alt)
		if err != nil {
			return table.Row{}, err
		}
		if be.Chrom2 == "" {
			return table.Row{}, svmerr.New(svmerr.MissingChr2, "BND at %s:%d has no companion chromosome", rec.Chrom, rec.Pos)
		}
		if chr2, ok := rec.Info["CHR2"]; ok && chr2 != be.Chrom2 {
			return table.Row{}, svmerr.New(svmerr.BadChr2, "BND at %s:%d: CHR2=%s disagrees with ALT partner %s",
				rec.Chrom, rec.Pos, chr2, be.Chrom2)
		}
		row.Chrom2 = chroms.Intern(be.Chrom2)
		row.End2 = int64(be.End2)
		row.Side1 = toBndSide(be.Side)
		row.Side2 = toBndSide(be.Side2)
	}

	if kind == table.KindIns && rec.Alt != "" && rec.Alt[0] != '<' {
		if h, ok := seqhash.Of(rec.Alt); ok {
			row.SeqHash = h
			row.HasSeqHash = true
		}
	}

	return row, nil
}

// toBndSide translates a breakend.Side into the table package's own BndSide,
// keeping table free of a dependency on the breakend parser.
func toBndSide(s breakend.Side) table.BndSide {
	if s == breakend.After {
		return table.BndSideAfter
	}
	return table.BndSideBefore
}

// inferKind guesses a kind from ALT string shape when SVTYPE is absent:
// breakend bracket notation implies BND, and an ALT symbolic allele like
// <DEL> names its own kind.
func inferKind(rec vcf.Record) (table.Kind, bool) {
	if rec.Alt == "" {
		return table.KindInvalid, false
	}
	if _, _, _, _, err := breakend.Parse(rec.Alt); err == nil {
		return table.KindBnd, true
	}
	if len(rec.Alt) > 2 && rec.Alt[0] == '<' && rec.Alt[len(rec.Alt)-1] == '>' {
		return table.ParseKind(rec.Alt[1 : len(rec.Alt)-1])
	}
	return table.KindInvalid, false
}
