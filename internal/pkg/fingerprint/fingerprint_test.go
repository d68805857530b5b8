package fingerprint

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHash_KnownVector(t *testing.T) {
	// sha256("hello"), independently verifiable with any sha256 tool.
	assert.Equal(t,
		"2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824",
		Hash([]byte("hello")))
}

func TestHash_Deterministic(t *testing.T) {
	content := []byte("You are hereby notified of the termination of contract #42.")
	assert.Equal(t, Hash(content), Hash(content))
}

func TestHash_DiffersAcrossContent(t *testing.T) {
	assert.NotEqual(t, Hash([]byte("contract #42")), Hash([]byte("contract #43")))
}

func TestHash_EmptyContent(t *testing.T) {
	assert.Len(t, Hash(nil), 64)
	assert.Equal(t, Hash(nil), Hash([]byte{}))
}
