package registry

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSystemSourceSelf(t *testing.T) {
	src := SystemSource{}
	self, err := src.Lookup(context.Background(), uint32(os.Getpid()))
	require.NoError(t, err)
	assert.Equal(t, uint32(os.Getpid()), self.PID)
	assert.NotEmpty(t, self.Cmdline)

	total, err := src.TotalMemory(context.Background())
	require.NoError(t, err)
	assert.Greater(t, total, uint64(0))
}

func TestSystemSourceSnapshotContainsSelf(t *testing.T) {
	entries, err := SystemSource{}.Snapshot(context.Background())
	require.NoError(t, err)

	found := false
	for _, e := range entries {
		if e.PID == uint32(os.Getpid()) {
			found = true
			break
		}
	}
	assert.True(t, found)
}
