// Package table holds the in-memory variant row model that every merge pass
// reads and writes: the Row itself, the RowID encoding that ties a row back
// to its originating source, and a dictionary that interns chromosome names
// to small integers so comparisons and sorts never touch strings.
package table

import (
	"blainsmith.com/go/seahash"

	"github.com/grailbio/svmerge/svmerr"
)

// ChromID is a dense integer standing in for a chromosome name, assigned in
// first-seen order across the union of all input sources.
type ChromID int32

// ChromDict interns chromosome names into ChromIDs. All sources merged
// together share one dictionary; the loader separately verifies that they
// agree on chromosome order.
type ChromDict struct {
	names []string
	ids   map[uint64]ChromID
	// byName keeps the literal string for collision-checking; seahash gives
	// us an O(1) probe but two different names can theoretically hash alike,
	// so we keep the canonical name around to confirm a hit.
	byName map[string]ChromID
}

// NewChromDict returns an empty dictionary.
func NewChromDict() *ChromDict {
	return &ChromDict{
		ids:    make(map[uint64]ChromID),
		byName: make(map[string]ChromID),
	}
}

func hashName(name string) uint64 {
	return seahash.Sum64([]byte(name))
}

// Intern returns the ChromID for name, assigning a new one if this is the
// first time name has been seen.
func (d *ChromDict) Intern(name string) ChromID {
	if id, ok := d.Lookup(name); ok {
		return id
	}
	id := ChromID(len(d.names))
	d.names = append(d.names, name)
	d.byName[name] = id
	d.ids[hashName(name)] = id
	return id
}

// Lookup returns the ChromID already assigned to name, if any.
func (d *ChromDict) Lookup(name string) (ChromID, bool) {
	id, ok := d.ids[hashName(name)]
	if !ok {
		return 0, false
	}
	if d.names[id] != name {
		// Hash collision with a different name; resolve via the string map.
		id, ok = d.byName[name]
		return id, ok
	}
	return id, true
}

// Name returns the chromosome name for id.
func (d *ChromDict) Name(id ChromID) string {
	return d.names[id]
}

// Len reports how many distinct chromosomes have been interned.
func (d *ChromDict) Len() int { return len(d.names) }

// Names returns the chromosome names in interning (first-seen) order.
func (d *ChromDict) Names() []string {
	out := make([]string, len(d.names))
	copy(out, d.names)
	return out
}

// MaxSources is the width of the VixSet bitmask: svmerge never merges more
// than this many input files in one run.
const MaxSources = 64

// CheckSourceCount returns a TooManySources error if n exceeds MaxSources.
func CheckSourceCount(n int) error {
	if n > MaxSources {
		return svmerr.New(svmerr.TooManySources, "got %d input sources, max is %d", n, MaxSources)
	}
	return nil
}
