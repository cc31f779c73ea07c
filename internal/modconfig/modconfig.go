// Package modconfig reads the weave.mod.json entry packaged inside mod jars.
package modconfig

import (
	"archive/zip"
	"encoding/json"
	"fmt"
	"io"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/spf13/afero"

	"weavectl/internal/model"
)

// EntryName is the configuration entry looked up in every archive.
const EntryName = "weave.mod.json"

// DecodeError is returned when the entry exists but is not valid JSON for a
// ModConfig. An absent entry is not an error.
type DecodeError struct {
	Path string
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s in %s: %v", EntryName, e.Path, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// Read returns the mod configuration packaged in the archive at path.
// Fields missing from the entry keep their "undefined" defaults.
func Read(fs afero.Fs, path string) (model.ModConfig, error) {
	f, err := fs.Open(path)
	if err != nil {
		return model.ModConfig{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	st, err := f.Stat()
	if err != nil {
		return model.ModConfig{}, fmt.Errorf("stat %s: %w", path, err)
	}
	zr, err := zip.NewReader(f, st.Size())
	if err != nil {
		return model.ModConfig{}, fmt.Errorf("open archive %s: %w", path, err)
	}

	var entry *zip.File
	for _, zf := range zr.File {
		if zf.Name == EntryName {
			entry = zf
			break
		}
	}
	if entry == nil {
		return model.DefaultModConfig(), nil
	}

	rc, err := entry.Open()
	if err != nil {
		return model.ModConfig{}, fmt.Errorf("open %s in %s: %w", EntryName, path, err)
	}
	defer rc.Close()
	raw, err := io.ReadAll(rc)
	if err != nil {
		return model.ModConfig{}, fmt.Errorf("read %s in %s: %w", EntryName, path, err)
	}

	cfg := model.DefaultModConfig()
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return model.ModConfig{}, &DecodeError{Path: path, Err: err}
	}
	if cfg.Authors == nil {
		cfg.Authors = []string{}
	}
	return cfg, nil
}

type cacheKey struct {
	path    string
	size    int64
	modTime time.Time
}

// Cache memoises Read results until the archive's size or mtime changes.
type Cache struct {
	fs    afero.Fs
	items *lru.Cache[cacheKey, model.ModConfig]
}

func NewCache(fs afero.Fs, size int) (*Cache, error) {
	items, err := lru.New[cacheKey, model.ModConfig](size)
	if err != nil {
		return nil, err
	}
	return &Cache{fs: fs, items: items}, nil
}

// Read behaves like the package-level Read. Failures are not cached.
func (c *Cache) Read(path string) (model.ModConfig, error) {
	st, err := c.fs.Stat(path)
	if err != nil {
		return model.ModConfig{}, fmt.Errorf("stat %s: %w", path, err)
	}
	key := cacheKey{path: path, size: st.Size(), modTime: st.ModTime()}
	if cfg, ok := c.items.Get(key); ok {
		return cfg, nil
	}
	cfg, err := Read(c.fs, path)
	if err != nil {
		return model.ModConfig{}, err
	}
	c.items.Add(key, cfg)
	return cfg, nil
}

func (c *Cache) Len() int { return c.items.Len() }
