package storage

import (
	"errors"
	"io/fs"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
)

func TestWriteRead_CreatesDirectory(t *testing.T) {
	s := New(afero.NewMemMapFs(), "/data/codes")

	require.NoError(t, s.Write("main.c", "int main() {}"))

	ok, err := afero.DirExists(s.Fs(), "/data/codes")
	require.NoError(t, err)
	require.True(t, ok)

	got, err := s.Read("main.c")
	require.NoError(t, err)
	require.Equal(t, "int main() {}", got)

	got, err = s.Read("/data/codes/main.c")
	require.NoError(t, err, "absolute paths are read as-is")
	require.Equal(t, "int main() {}", got)

	exists, err := s.Exists("main.c")
	require.NoError(t, err)
	require.True(t, exists)
}

func TestWrite_PermissionDenied(t *testing.T) {
	s := New(afero.NewReadOnlyFs(afero.NewMemMapFs()), "/codes")

	err := s.Write("main.c", "x")
	require.ErrorIs(t, err, ErrPermissionDenied)
}

func TestWrite_ReadOnlyFileInExistingDir(t *testing.T) {
	base := afero.NewMemMapFs()
	require.NoError(t, base.MkdirAll("/codes", 0o755))
	s := New(afero.NewReadOnlyFs(base), "/codes")

	err := s.Write("main.c", "x")
	require.ErrorIs(t, err, ErrPermissionDenied)
}

func TestRead_MissingIsIOError(t *testing.T) {
	s := New(afero.NewMemMapFs(), "/codes")

	_, err := s.Read("nope.txt")
	var ioErr *IOError
	require.True(t, errors.As(err, &ioErr))
	require.Equal(t, "read", ioErr.Op)
	require.ErrorIs(t, err, fs.ErrNotExist)
}

func TestValidateName(t *testing.T) {
	require.NoError(t, ValidateName("main.c"))
	for _, bad := range []string{"", "  ", "../main.c", "dir/main.c", ".", ".."} {
		require.ErrorIs(t, ValidateName(bad), ErrInvalidName, bad)
	}
}

func TestRemove(t *testing.T) {
	s := New(afero.NewMemMapFs(), "/codes")
	require.NoError(t, s.Write("main.txt", "stale"))

	require.NoError(t, s.Remove("main.txt"))
	exists, err := s.Exists("main.txt")
	require.NoError(t, err)
	require.False(t, exists)

	require.NoError(t, s.Remove("main.txt"), "missing file is not an error")
	require.ErrorIs(t, s.Remove("../main.txt"), ErrInvalidName)
}
