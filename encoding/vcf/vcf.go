// Package vcf is a minimal streaming reader/writer for the VCF columns
// svmerge's merge core touches: chromosome, position, ID, REF/ALT, QUAL,
// FILTER, INFO and the per-sample genotype columns. It is deliberately
// thin — a source of table.Row values plus the side data the representative
// builder needs to reassemble an output record — not a general-purpose VCF
// library.
package vcf

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"github.com/grailbio/base/errors"
	"github.com/klauspost/compress/gzip"
)

// Header is the subset of a VCF header svmerge cares about: the sample
// names in column order, used to size and label per-sample output columns,
// and the contig dictionary, used to verify that every input source agrees
// on the chromosome set.
type Header struct {
	Samples []string
	Contigs []string // ##contig IDs in declaration order
	Lines   []string // raw header lines, preserved for passthrough on output
}

// Record is one VCF data line, parsed into the columns the merge core and
// representative builder need. Samples holds the raw per-sample column
// text, in header sample order, unparsed beyond the tab split: the merge
// core never interprets genotype fields itself.
type Record struct {
	Chrom   string
	Pos     int
	ID      string
	Ref     string
	Alt     string
	Qual    float64
	HasQual bool
	Filter  []string
	Info    map[string]string
	InfoRaw string // original INFO column text, order-preserving
	Format  string
	Samples []string
}

// Reader streams Records from a VCF file, transparently decompressing
// gzip-compressed input (recognised by its magic bytes, not by a file name
// suffix) with klauspost/compress/gzip.
type Reader struct {
	s      *bufio.Scanner
	Header Header
}

// NewReader wraps r, auto-detecting gzip by magic bytes so callers do not
// need to know the source's compression up front.
func NewReader(r io.Reader) (*Reader, error) {
	br := bufio.NewReaderSize(r, 64*1024)
	magic, err := br.Peek(2)
	if err == nil && len(magic) == 2 && magic[0] == 0x1f && magic[1] == 0x8b {
		gz, gzErr := gzip.NewReader(br)
		if gzErr != nil {
			return nil, errors.E(gzErr, "opening gzip VCF stream")
		}
		r = gz
	} else {
		r = br
	}
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 64*1024*1024)
	rd := &Reader{s: scanner}
	if err := rd.readHeader(); err != nil {
		return nil, err
	}
	return rd, nil
}

func (r *Reader) readHeader() error {
	for r.s.Scan() {
		line := r.s.Text()
		if strings.HasPrefix(line, "##") {
			r.Header.Lines = append(r.Header.Lines, line)
			if id := contigID(line); id != "" {
				r.Header.Contigs = append(r.Header.Contigs, id)
			}
			continue
		}
		if strings.HasPrefix(line, "#CHROM") {
			fields := strings.Split(line, "\t")
			if len(fields) > 9 {
				r.Header.Samples = fields[9:]
			}
			return nil
		}
		return errors.E("malformed VCF: missing #CHROM header line")
	}
	if err := r.s.Err(); err != nil {
		return errors.E(err, "reading VCF header")
	}
	return errors.E("empty VCF stream")
}

// contigID extracts the ID field from a ##contig header line, e.g.
// "##contig=<ID=chr1,length=248956422>" -> "chr1". Returns "" for any other
// header line.
func contigID(line string) string {
	const prefix = "##contig=<"
	if !strings.HasPrefix(line, prefix) || !strings.HasSuffix(line, ">") {
		return ""
	}
	for _, field := range strings.Split(line[len(prefix):len(line)-1], ",") {
		if strings.HasPrefix(field, "ID=") {
			return field[len("ID="):]
		}
	}
	return ""
}

// Next returns the next Record, or io.EOF once the stream is exhausted.
func (r *Reader) Next() (Record, error) {
	if !r.s.Scan() {
		if err := r.s.Err(); err != nil {
			return Record{}, errors.E(err, "reading VCF record")
		}
		return Record{}, io.EOF
	}
	return parseLine(r.s.Text())
}

func parseLine(line string) (Record, error) {
	fields := strings.Split(line, "\t")
	if len(fields) < 8 {
		return Record{}, errors.E("malformed VCF record: fewer than 8 columns")
	}
	pos, err := strconv.Atoi(fields[1])
	if err != nil {
		return Record{}, errors.E(err, "parsing POS")
	}
	rec := Record{
		Chrom:   fields[0],
		Pos:     pos,
		ID:      fields[2],
		Ref:     fields[3],
		Alt:     fields[4],
		InfoRaw: fields[7],
		Info:    parseInfo(fields[7]),
	}
	if fields[5] != "." {
		q, err := strconv.ParseFloat(fields[5], 64)
		if err == nil {
			rec.Qual = q
			rec.HasQual = true
		}
	}
	if fields[6] != "." && fields[6] != "PASS" {
		rec.Filter = strings.Split(fields[6], ";")
	} else if fields[6] == "PASS" {
		rec.Filter = []string{"PASS"}
	}
	if len(fields) > 8 {
		rec.Format = fields[8]
	}
	if len(fields) > 9 {
		rec.Samples = fields[9:]
	}
	return rec, nil
}

func parseInfo(s string) map[string]string {
	out := make(map[string]string)
	if s == "." || s == "" {
		return out
	}
	for _, kv := range strings.Split(s, ";") {
		if kv == "" {
			continue
		}
		if i := strings.IndexByte(kv, '='); i >= 0 {
			out[kv[:i]] = kv[i+1:]
		} else {
			out[kv] = ""
		}
	}
	return out
}
