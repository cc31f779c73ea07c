// Package digest verifies artifact integrity by SHA-256 content hash.
package digest

import (
	_ "crypto/sha256" // registers the hash behind digest.SHA256
	"fmt"
	"io"
	"strings"

	godigest "github.com/opencontainers/go-digest"
	"github.com/spf13/afero"
)

// chunkSize only affects throughput, never the digest.
const chunkSize = 1024

// SumFile returns the uppercase hex SHA-256 of the file at path.
func SumFile(fs afero.Fs, path string) (string, error) {
	f, err := fs.Open(path)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	return Sum(f)
}

// Sum streams r through SHA-256.
func Sum(r io.Reader) (string, error) {
	digester := godigest.SHA256.Digester()
	buf := make([]byte, chunkSize)
	if _, err := io.CopyBuffer(digester.Hash(), r, buf); err != nil {
		return "", fmt.Errorf("read: %w", err)
	}
	return strings.ToUpper(digester.Digest().Encoded()), nil
}

// VerifyFile reports whether the file's digest equals expected exactly.
// expected must be uppercase hex; any other casing is a mismatch.
func VerifyFile(fs afero.Fs, path, expected string) (bool, error) {
	sum, err := SumFile(fs, path)
	if err != nil {
		return false, err
	}
	return sum == expected, nil
}
