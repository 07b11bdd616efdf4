package seqhash

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOfIsDeterministic(t *testing.T) {
	h1, ok1 := Of("AACGTACGT")
	h2, ok2 := Of("AACGTACGT")
	assert.True(t, ok1)
	assert.True(t, ok2)
	assert.Equal(t, h1, h2)
}

func TestOfIgnoresAnchorBase(t *testing.T) {
	// Same inserted sequence, different anchor base: must hash the same.
	h1, _ := Of("ACGTACGT")
	h2, _ := Of("GCGTACGT")
	assert.Equal(t, h1, h2)
}

func TestOfDistinguishesSequences(t *testing.T) {
	h1, _ := Of("AACGTACGT")
	h2, _ := Of("AATTTTTTT")
	assert.NotEqual(t, h1, h2)
}

func TestOfRejectsTooShort(t *testing.T) {
	_, ok := Of("A")
	assert.False(t, ok)
	_, ok = Of("")
	assert.False(t, ok)
}
