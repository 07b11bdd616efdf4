package fasta

import (
	"bufio"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/pkg/errors"

	"github.com/grailbio/svmerge/biosimd"
)

// faiEntry is one line of a .fai index: where a sequence's bases start in
// the FASTA file and how they are folded into lines.
type faiEntry struct {
	length    uint64 // total bases
	offset    uint64 // byte offset of the first base
	lineBases uint64 // bases per full line
	lineWidth uint64 // bytes per full line, terminator included
}

type indexedFasta struct {
	entries  map[string]faiEntry
	seqNames []string

	// mu serializes seeks and the two scratch buffers below; anchor-base
	// lookups during representative construction may come from several
	// goroutines.
	mu     sync.Mutex
	reader io.ReadSeeker
	raw    []byte // file bytes for the current query, newlines included
	bases  []byte // query result being assembled
}

// NewIndexed returns a Fasta that reads index (.fai format) up front and
// seeks into fasta on each Get, never holding more than one query's bytes in
// memory. fasta must remain open for the lifetime of the returned value.
func NewIndexed(fasta io.ReadSeeker, index io.Reader) (Fasta, error) {
	f := &indexedFasta{entries: make(map[string]faiEntry), reader: fasta}
	scanner := bufio.NewScanner(index)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		name, ent, err := parseFaiLine(line)
		if err != nil {
			return nil, err
		}
		f.entries[name] = ent
		f.seqNames = append(f.seqNames, name)
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "reading FASTA index")
	}
	return f, nil
}

func parseFaiLine(line string) (string, faiEntry, error) {
	cols := strings.Split(line, "\t")
	if len(cols) != 5 {
		return "", faiEntry{}, errors.Errorf("invalid index line: %q", line)
	}
	var ent faiEntry
	var err error
	for i, dst := range []*uint64{&ent.length, &ent.offset, &ent.lineBases, &ent.lineWidth} {
		if *dst, err = strconv.ParseUint(cols[i+1], 10, 64); err != nil {
			return "", faiEntry{}, errors.Wrapf(err, "invalid index line: %q", line)
		}
	}
	if ent.lineBases == 0 || ent.lineWidth < ent.lineBases {
		return "", faiEntry{}, errors.Errorf("invalid line geometry in index line: %q", line)
	}
	return cols[0], ent, nil
}

// Len implements Fasta.
func (f *indexedFasta) Len(seqName string) (uint64, error) {
	ent, ok := f.entries[seqName]
	if !ok {
		return 0, errors.Errorf("sequence not found in index: %s", seqName)
	}
	return ent.length, nil
}

// SeqNames implements Fasta.
func (f *indexedFasta) SeqNames() []string {
	return f.seqNames
}

// Get implements Fasta. The byte range to read is computed from the line
// geometry in the index: base i of a sequence lives at
// offset + i + terminatorWidth * (i / lineBases).
func (f *indexedFasta) Get(seqName string, start, end uint64) (string, error) {
	if end <= start {
		return "", errors.New("start must be less than end")
	}
	ent, ok := f.entries[seqName]
	if !ok {
		return "", errors.Errorf("sequence not found in index: %s", seqName)
	}
	if end > ent.length {
		return "", errors.Errorf("end is past end of sequence %s: %d", seqName, ent.length)
	}

	termWidth := ent.lineWidth - ent.lineBases
	byteStart := ent.offset + start + termWidth*(start/ent.lineBases)
	byteEnd := ent.offset + (end - 1) + termWidth*((end-1)/ent.lineBases) + 1
	n := int(byteEnd - byteStart)

	f.mu.Lock()
	defer f.mu.Unlock()

	if _, err := f.reader.Seek(int64(byteStart), io.SeekStart); err != nil {
		return "", errors.Wrapf(err, "seeking to byte %d of sequence %s", byteStart, seqName)
	}
	if cap(f.raw) < n {
		f.raw = make([]byte, n)
	}
	f.raw = f.raw[:n]
	if _, err := io.ReadFull(f.reader, f.raw); err != nil {
		return "", errors.Wrapf(err, "reading %d bytes of sequence %s (truncated file or stale index?)", n, seqName)
	}

	// Strip line terminators while copying out the bases.
	f.bases = f.bases[:0]
	linePos := (byteStart - ent.offset) % ent.lineWidth
	for _, b := range f.raw {
		if linePos < ent.lineBases {
			f.bases = append(f.bases, b)
		}
		linePos++
		if linePos == ent.lineWidth {
			linePos = 0
		}
	}
	if uint64(len(f.bases)) != end-start {
		return "", errors.Errorf("extracted %d bases for [%d, %d) of %s (stale index?)",
			len(f.bases), start, end, seqName)
	}
	biosimd.CleanASCIISeqInplace(f.bases)
	return string(f.bases), nil
}
