// Package svmerr defines the error taxonomy for svmerge: a closed set of
// error kinds that callers can switch on, wrapped through
// github.com/grailbio/base/errors for contextual chaining the way the rest
// of this repo reports I/O and validation failures.
package svmerr

import (
	"fmt"

	"github.com/grailbio/base/errors"
)

// Kind identifies one of the error categories a merge run can fail with.
type Kind int

const (
	// BadBreakEnd means a BND ALT string did not parse.
	BadBreakEnd Kind = iota
	// BadVariantKind means SVTYPE held a value outside {INS,DEL,DUP,INV,BND,CPX}.
	BadVariantKind
	// MissingVariantKind means a record had neither SVTYPE nor an inferable kind.
	MissingVariantKind
	// MissingChr2 means a BND record lacked a companion chromosome.
	MissingChr2
	// BadChr2 means the companion chromosome disagreed with the ALT string.
	BadChr2
	// MissingAlt means a record had no ALT allele at all.
	MissingAlt
	// BadInfoType means an INFO value's type disagreed with the header declaration.
	BadInfoType
	// SourceChromosomeMismatch means two input sources disagree on the chromosome
	// dictionary (count, order, or names).
	SourceChromosomeMismatch
	// OptionRequiresReference means an option that needs --reference was set
	// without one.
	OptionRequiresReference
	// TooManySources means more than 64 input files were supplied.
	TooManySources
	// InvalidOption means a CLI/merge option value was out of its valid range.
	InvalidOption
)

func (k Kind) String() string {
	switch k {
	case BadBreakEnd:
		return "BadBreakEnd"
	case BadVariantKind:
		return "BadVariantKind"
	case MissingVariantKind:
		return "MissingVariantKind"
	case MissingChr2:
		return "MissingChr2"
	case BadChr2:
		return "BadChr2"
	case MissingAlt:
		return "MissingAlt"
	case BadInfoType:
		return "BadInfoType"
	case SourceChromosomeMismatch:
		return "SourceChromosomeMismatch"
	case OptionRequiresReference:
		return "OptionRequiresReference"
	case TooManySources:
		return "TooManySources"
	case InvalidOption:
		return "InvalidOption"
	default:
		return "UnknownKind"
	}
}

// Error is a svmerge domain error: a Kind plus a human-readable message,
// optionally wrapping an underlying cause.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error { return e.Err }

// New builds a svmerge error of the given kind. Callers may layer further
// context on top with base/errors.E; KindOf digs back down through the
// wrapping.
func New(kind Kind, msg string, args ...interface{}) error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(msg, args...)}
}

// Wrap attaches a Kind to an existing error, preserving it as the cause.
func Wrap(kind Kind, err error, msg string, args ...interface{}) error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(msg, args...), Err: err}
}

// KindOf reports the Kind of err, if err (or something it wraps) is an
// *Error. The second return is false otherwise.
func KindOf(err error) (Kind, bool) {
	var se *Error
	for err != nil {
		if e, ok := err.(*Error); ok {
			se = e
			break
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			break
		}
		err = u.Unwrap()
	}
	if se == nil {
		return 0, false
	}
	return se.Kind, true
}

// Context carries positional information (chromosome, position) that gets
// attached to any error returned by the wrapped function, so a parse failure
// deep in record traversal still reports where in the input it happened.
type Context struct {
	Chrom string
	Pos   int
}

// With runs fn, and if it returns an error, wraps it with the receiver's
// chromosome and position so the caller can report "parse error at chr1:1000"
// regardless of which nested field failed.
func (c Context) With(fn func() error) error {
	if err := fn(); err != nil {
		return errors.E(err, fmt.Sprintf("at %s:%d", c.Chrom, c.Pos))
	}
	return nil
}
