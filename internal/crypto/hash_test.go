package crypto

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHashData(t *testing.T) {
	h := HashData([]byte("data"))

	// Deterministic and input-sensitive
	assert.Equal(t, h, HashData([]byte("data")))
	assert.NotEqual(t, h, HashData([]byte("other")))
	assert.False(t, h.IsZero())
}

func TestHashIsZero(t *testing.T) {
	assert.True(t, Hash{}.IsZero())
}
