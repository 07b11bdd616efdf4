package vcf

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/grailbio/base/errors"
)

// Writer serializes merged output records back to VCF text.
type Writer struct {
	w   *bufio.Writer
	buf []string
}

// NewWriter wraps w and writes a minimal header naming samples, in the
// order the caller's stitched sample columns appear.
func NewWriter(w io.Writer, extraHeaderLines []string, samples []string) (*Writer, error) {
	bw := bufio.NewWriter(w)
	if _, err := bw.WriteString("##fileformat=VCFv4.2\n"); err != nil {
		return nil, errors.E(err, "writing VCF header")
	}
	for _, line := range extraHeaderLines {
		if _, err := bw.WriteString(line + "\n"); err != nil {
			return nil, errors.E(err, "writing VCF header")
		}
	}
	cols := []string{"#CHROM", "POS", "ID", "REF", "ALT", "QUAL", "FILTER", "INFO"}
	if len(samples) > 0 {
		cols = append(cols, "FORMAT")
		cols = append(cols, samples...)
	}
	if _, err := bw.WriteString(strings.Join(cols, "\t") + "\n"); err != nil {
		return nil, errors.E(err, "writing VCF header")
	}
	return &Writer{w: bw}, nil
}

// WriteFields writes one data line directly from column values, letting
// the caller (the representative builder) own INFO string assembly.
func (w *Writer) WriteFields(chrom string, pos int, id, ref, alt string, hasQual bool, qual float64, filter []string, info string, format string, samples []string) error {
	qualStr := "."
	if hasQual {
		qualStr = strconv.FormatFloat(qual, 'f', -1, 64)
	}
	filterStr := "."
	if len(filter) > 0 {
		filterStr = strings.Join(filter, ";")
	}
	if id == "" {
		id = "."
	}
	if info == "" {
		info = "."
	}
	fields := []string{chrom, strconv.Itoa(pos), id, ref, alt, qualStr, filterStr, info}
	if format != "" || len(samples) > 0 {
		fields = append(fields, format)
		fields = append(fields, samples...)
	}
	if _, err := fmt.Fprintln(w.w, strings.Join(fields, "\t")); err != nil {
		return errors.E(err, "writing VCF record")
	}
	return nil
}

// Flush flushes any buffered output.
func (w *Writer) Flush() error {
	if err := w.w.Flush(); err != nil {
		return errors.E(err, "flushing VCF output")
	}
	return nil
}
