package paths

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoaderPath(t *testing.T) {
	fs := afero.NewMemMapFs()
	l, err := New(fs, "/home/u/.weave", "")
	require.NoError(t, err)

	_, err = l.LoaderPath()
	assert.True(t, errors.Is(err, ErrLoaderNotInstalled))

	require.NoError(t, afero.WriteFile(fs, "/home/u/.weave/loader.jar", []byte("jar"), 0o644))
	p, err := l.LoaderPath()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/home/u/.weave", "loader.jar"), p)
}

func TestClientLogsDirCreatedLazily(t *testing.T) {
	fs := afero.NewMemMapFs()
	l, err := New(fs, "/data", "loader.jar")
	require.NoError(t, err)

	ok, _ := afero.DirExists(fs, "/data/logs/client")
	assert.False(t, ok)

	dir, err := l.ClientLogsDir()
	require.NoError(t, err)
	ok, err = afero.DirExists(fs, dir)
	require.NoError(t, err)
	assert.True(t, ok)
}
