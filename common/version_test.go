package common

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCheckVersion(t *testing.T) {
	require.NoError(t, CheckVersion(Version))
	require.NoError(t, CheckVersion(PrevVersion))
	require.ErrorIs(t, CheckVersion(PrevVersion-1), ErrVersionMismatch)
	require.ErrorIs(t, CheckVersion(Version+1), ErrVersionTooNew)
}

func TestVersionString(t *testing.T) {
	require.Equal(t, "0.1.0", VersionString(Version))
	require.Equal(t, "1.22.333", VersionString(1_022_333))
}
