package modconfig

import (
	"archive/zip"
	"bytes"
	"errors"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"weavectl/internal/model"
)

func writeJar(t *testing.T, fs afero.Fs, path string, entries map[string]string) {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, body := range entries {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(body))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	require.NoError(t, afero.WriteFile(fs, path, buf.Bytes(), 0o644))
}

func TestReadAbsentEntryIsDefault(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeJar(t, fs, "/mods/plain.jar", map[string]string{"META-INF/MANIFEST.MF": "Manifest-Version: 1.0\n"})

	cfg, err := Read(fs, "/mods/plain.jar")
	require.NoError(t, err)
	assert.Equal(t, model.ModConfig{Name: "undefined", Version: "undefined", Description: "undefined", Authors: []string{}}, cfg)
}

func TestReadPresentEntry(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeJar(t, fs, "/mods/keystrokes.jar", map[string]string{
		EntryName: `{"name":"Keystrokes","version":"1.2.0","description":"shows keys","authors":["a","b"]}`,
	})

	cfg, err := Read(fs, "/mods/keystrokes.jar")
	require.NoError(t, err)
	assert.Equal(t, model.ModConfig{Name: "Keystrokes", Version: "1.2.0", Description: "shows keys", Authors: []string{"a", "b"}}, cfg)
}

func TestReadPartialEntryKeepsDefaults(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeJar(t, fs, "/mods/partial.jar", map[string]string{EntryName: `{"name":"Partial"}`})

	cfg, err := Read(fs, "/mods/partial.jar")
	require.NoError(t, err)
	assert.Equal(t, "Partial", cfg.Name)
	assert.Equal(t, "undefined", cfg.Version)
	assert.Equal(t, []string{}, cfg.Authors)
}

func TestReadMalformedEntry(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeJar(t, fs, "/mods/broken.jar", map[string]string{EntryName: `{"name": `})

	_, err := Read(fs, "/mods/broken.jar")
	var decodeErr *DecodeError
	require.True(t, errors.As(err, &decodeErr), "got %v", err)
	assert.Equal(t, "/mods/broken.jar", decodeErr.Path)
}

func TestReadCorruptArchive(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/mods/junk.jar", []byte("definitely not a zip file"), 0o644))

	_, err := Read(fs, "/mods/junk.jar")
	require.Error(t, err)
	assert.True(t, errors.Is(err, zip.ErrFormat), "got %v", err)
	var decodeErr *DecodeError
	assert.False(t, errors.As(err, &decodeErr))
}

func TestReadMissingFile(t *testing.T) {
	_, err := Read(afero.NewMemMapFs(), "/mods/none.jar")
	assert.Error(t, err)
}

func TestCache(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeJar(t, fs, "/mods/a.jar", map[string]string{EntryName: `{"name":"A"}`})

	c, err := NewCache(fs, 8)
	require.NoError(t, err)

	cfg, err := c.Read("/mods/a.jar")
	require.NoError(t, err)
	assert.Equal(t, "A", cfg.Name)
	assert.Equal(t, 1, c.Len())

	cfg, err = c.Read("/mods/a.jar")
	require.NoError(t, err)
	assert.Equal(t, "A", cfg.Name)
	assert.Equal(t, 1, c.Len())

	writeJar(t, fs, "/mods/b.jar", map[string]string{EntryName: `{"name":`})
	_, err = c.Read("/mods/b.jar")
	assert.Error(t, err)
	assert.Equal(t, 1, c.Len())
}
