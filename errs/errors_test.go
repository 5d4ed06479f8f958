package errs

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInvariantErrorUnwrapsToSentinel(t *testing.T) {
	err := New(ErrSectionOverflow, "101", "[1,2,3,4]", "64 nodes, max 60")
	assert.True(t, errors.Is(err, ErrSectionOverflow))
	assert.False(t, errors.Is(err, ErrDuplicatePrefix))
}

func TestInvariantErrorMessageIncludesSeed(t *testing.T) {
	err := New(ErrMaxPrefixLength, "", "[9,9,9,9]", "length 64")
	assert.Contains(t, err.Error(), "[9,9,9,9]")
	assert.Contains(t, err.Error(), "length 64")
}
