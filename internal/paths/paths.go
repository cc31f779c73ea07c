// Package paths resolves the well-known locations under the Weave data
// directory (~/.weave by default).
package paths

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
)

const (
	DefaultDirName    = ".weave"
	DefaultLoaderFile = "loader.jar"
	analyticsFile     = "analytics.json"
)

var (
	// ErrNoHome is returned when the data directory cannot be derived from the
	// user's home directory.
	ErrNoHome = errors.New("home directory not found")
	// ErrLoaderNotInstalled means the loader jar is missing from the data dir.
	ErrLoaderNotInstalled = errors.New("weave loader is not installed")
)

// Layout describes where Weave keeps its files.
type Layout struct {
	Fs         afero.Fs
	DataDir    string
	LoaderFile string
}

// DefaultDataDir returns ~/.weave.
func DefaultDataDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return "", ErrNoHome
	}
	return filepath.Join(home, DefaultDirName), nil
}

// New builds a layout rooted at dataDir. An empty dataDir resolves to the
// default under the user's home.
func New(fs afero.Fs, dataDir, loaderFile string) (Layout, error) {
	if dataDir == "" {
		dir, err := DefaultDataDir()
		if err != nil {
			return Layout{}, err
		}
		dataDir = dir
	}
	if loaderFile == "" {
		loaderFile = DefaultLoaderFile
	}
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return Layout{Fs: fs, DataDir: dataDir, LoaderFile: loaderFile}, nil
}

// LoaderPath returns the loader jar path, failing if it is not present.
func (l Layout) LoaderPath() (string, error) {
	p := filepath.Join(l.DataDir, l.LoaderFile)
	if _, err := l.Fs.Stat(p); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("%w: %s not found", ErrLoaderNotInstalled, p)
		}
		return "", fmt.Errorf("stat loader: %w", err)
	}
	return p, nil
}

// ClientLogsDir returns logs/client, creating it on first use.
func (l Layout) ClientLogsDir() (string, error) {
	dir := filepath.Join(l.DataDir, "logs", "client")
	if err := l.Fs.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create log dir: %w", err)
	}
	return dir, nil
}

// ModsDir is where mod profile entries live.
func (l Layout) ModsDir() string {
	return filepath.Join(l.DataDir, "mods")
}

func (l Layout) AnalyticsPath() string {
	return filepath.Join(l.DataDir, analyticsFile)
}
