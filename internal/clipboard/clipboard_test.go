package clipboard

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMemory(t *testing.T) {
	var c Clipboard = &Memory{}

	got, err := c.ReadAll()
	require.NoError(t, err)
	require.Empty(t, got)

	require.NoError(t, c.WriteAll("foo bar"))
	got, err = c.ReadAll()
	require.NoError(t, err)
	require.Equal(t, "foo bar", got)
}

func TestNewSystem_NeverNil(t *testing.T) {
	require.NotNil(t, NewSystem())
}
