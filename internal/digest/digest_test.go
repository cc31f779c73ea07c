package digest

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSumMatchesSHA256(t *testing.T) {
	data := []byte(strings.Repeat("weave-loader", 500))
	want := sha256.Sum256(data)

	got, err := Sum(strings.NewReader(string(data)))
	require.NoError(t, err)
	assert.Equal(t, strings.ToUpper(hex.EncodeToString(want[:])), got)
}

func TestVerifyFileRoundTrip(t *testing.T) {
	fs := afero.NewMemMapFs()
	data := []byte(strings.Repeat("0123456789abcdef", 257))
	require.NoError(t, afero.WriteFile(fs, "/w/loader.jar", data, 0o644))

	sum, err := SumFile(fs, "/w/loader.jar")
	require.NoError(t, err)

	ok, err := VerifyFile(fs, "/w/loader.jar", sum)
	require.NoError(t, err)
	assert.True(t, ok)

	for _, idx := range []int{0, 1023, 1024, len(data) - 1} {
		altered := append([]byte(nil), data...)
		altered[idx] ^= 0x01
		require.NoError(t, afero.WriteFile(fs, "/w/loader.jar", altered, 0o644))

		ok, err := VerifyFile(fs, "/w/loader.jar", sum)
		require.NoError(t, err)
		assert.False(t, ok, "byte %d altered", idx)
	}
}

func TestVerifyFileLowercaseIsMismatch(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/w/loader.jar", []byte("x"), 0o644))
	sum, err := SumFile(fs, "/w/loader.jar")
	require.NoError(t, err)

	ok, err := VerifyFile(fs, "/w/loader.jar", strings.ToLower(sum))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestVerifyFileMissing(t *testing.T) {
	ok, err := VerifyFile(afero.NewMemMapFs(), "/w/loader.jar", "00")
	assert.Error(t, err)
	assert.False(t, ok)
}
