package svmerr

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewAndKindOf(t *testing.T) {
	err := New(BadBreakEnd, "alt %q did not parse", "G[x")
	kind, ok := KindOf(err)
	assert.True(t, ok)
	assert.Equal(t, BadBreakEnd, kind)
	assert.Contains(t, err.Error(), "BadBreakEnd")
}

func TestWrapPreservesCause(t *testing.T) {
	cause := errors.New("boom")
	err := Wrap(MissingVariantKind, cause, "loading source %d", 3)
	kind, ok := KindOf(err)
	assert.True(t, ok)
	assert.Equal(t, MissingVariantKind, kind)
	assert.ErrorIs(t, err, cause)
}

func TestKindOfFalseForForeignError(t *testing.T) {
	_, ok := KindOf(errors.New("plain"))
	assert.False(t, ok)
}

func TestContextWithAnnotatesPosition(t *testing.T) {
	ctx := Context{Chrom: "chr1", Pos: 1000}
	err := ctx.With(func() error {
		return New(BadChr2, "mismatch")
	})
	assert.Contains(t, err.Error(), "chr1:1000")
}

func TestContextWithPassesThroughNil(t *testing.T) {
	ctx := Context{Chrom: "chr1", Pos: 1000}
	assert.NoError(t, ctx.With(func() error { return nil }))
}

func TestKindStringCoversAllKinds(t *testing.T) {
	kinds := []Kind{
		BadBreakEnd, BadVariantKind, MissingVariantKind, MissingChr2, BadChr2,
		MissingAlt, BadInfoType, SourceChromosomeMismatch, OptionRequiresReference,
		TooManySources, InvalidOption,
	}
	for _, k := range kinds {
		assert.NotEqual(t, "UnknownKind", k.String(), k)
	}
}
