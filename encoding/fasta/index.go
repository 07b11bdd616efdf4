package fasta

import (
	"bufio"
	"bytes"
	"io"
	"strings"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/tsv"
)

// GenerateIndex writes the .fai index of the FASTA stream in to out, in the
// format "samtools faidx" produces, for later use with NewIndexed. Each
// sequence must use a uniform line width; only its final line may be short.
func GenerateIndex(out io.Writer, in io.Reader) error {
	w := tsv.NewWriter(out)
	r := bufio.NewReader(in)

	var (
		name      string
		bases     int64 // total bases in the current sequence
		baseOff   int64 // byte offset of its first base
		lineBases int64
		lineWidth int64
		offset    int64 // bytes consumed so far
		haveSeq   bool
	)
	emit := func() error {
		if !haveSeq {
			return nil
		}
		w.WriteString(name)
		w.WriteInt64(bases)
		w.WriteInt64(baseOff)
		w.WriteInt64(lineBases)
		w.WriteInt64(lineWidth)
		return w.EndLine()
	}

	for {
		full, readErr := r.ReadBytes('\n')
		if readErr != nil && readErr != io.EOF {
			return errors.E(readErr, "reading FASTA")
		}
		offset += int64(len(full))
		line := bytes.TrimRight(full, "\r\n")
		switch {
		case len(line) == 0:
		case line[0] == '>':
			if err := emit(); err != nil {
				return err
			}
			name = strings.SplitN(string(line[1:]), " ", 2)[0]
			if name == "" {
				return errors.E("malformed FASTA: empty sequence name")
			}
			baseOff = offset
			bases, lineBases, lineWidth = 0, 0, 0
			haveSeq = true
		default:
			if !haveSeq {
				return errors.E("malformed FASTA: sequence data before any '>' header")
			}
			if lineWidth == 0 {
				lineWidth = int64(len(full))
				lineBases = int64(len(line))
			}
			bases += int64(len(line))
		}
		if readErr == io.EOF {
			break
		}
	}
	if offset == 0 {
		return errors.E("empty FASTA file")
	}
	if err := emit(); err != nil {
		return err
	}
	return w.Flush()
}
