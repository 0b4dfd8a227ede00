package storage_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"chatrelay/backend/internal/storage"
)

func TestNormalizeName(t *testing.T) {
	assert.Equal(t, "ALICE", storage.NormalizeName("alice"))
	assert.Equal(t, "ALICE", storage.NormalizeName("  Alice "))
	assert.Equal(t, "STUDY GROUP", storage.NormalizeName("Study Group"))
	assert.Equal(t, "", storage.NormalizeName("   "))
}
