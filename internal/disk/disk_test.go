package disk

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetDiskUsage(t *testing.T) {
	u, err := GetDiskUsage(t.TempDir())
	require.NoError(t, err)

	assert.Greater(t, u.TotalBytes, int64(0))
	assert.LessOrEqual(t, u.FreeBytes, u.TotalBytes)
	assert.GreaterOrEqual(t, u.UsedPercent, 0.0)
	assert.LessOrEqual(t, u.UsedPercent, 100.0)
	assert.InDelta(t, 100.0, u.UsedPercent+u.FreePercent(), 1e-9)
}

func TestGetDiskUsageMissingPath(t *testing.T) {
	_, err := GetDiskUsage(filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestFreePercentEmptyVolume(t *testing.T) {
	assert.Equal(t, 100.0, Usage{}.FreePercent())
}

func TestProbe(t *testing.T) {
	dir := t.TempDir()
	assert.NoError(t, Probe(dir, time.Second))

	err := Probe(filepath.Join(dir, "missing"), time.Second)
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
	assert.NotErrorIs(t, err, ErrStale)
}
