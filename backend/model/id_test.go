package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerateUniqueIDRetriesUntilUnused(t *testing.T) {
	rejected := map[string]bool{}
	probes := 0
	// The first two candidates are reported as already taken.
	taken := func(id string) (bool, error) {
		probes++
		if probes <= 2 {
			rejected[id] = true
			return true, nil
		}
		return rejected[id], nil
	}

	id, err := generateUniqueID(taken)
	assert.NoError(t, err)
	assert.Equal(t, 3, probes)
	assert.Len(t, rejected, 2)
	assert.False(t, rejected[id])

	exists, err := taken(id)
	assert.NoError(t, err)
	assert.False(t, exists)
}

func TestGenerateUniqueIDPropagatesProbeError(t *testing.T) {
	taken := func(string) (bool, error) {
		return false, assert.AnError
	}
	id, err := generateUniqueID(taken)
	assert.Error(t, err)
	assert.Empty(t, id)
}
