package password

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHashCompare(t *testing.T) {
	hash, err := Hash("correct horse")
	require.NoError(t, err)
	require.NoError(t, Compare(hash, "correct horse"))
	require.Error(t, Compare(hash, "wrong horse"))
}

func TestHashTooShort(t *testing.T) {
	_, err := Hash("short")
	require.ErrorIs(t, err, ErrTooShort)
}
