package docsync

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStabilityProber_StableFile(t *testing.T) {
	tmp := t.TempDir()
	path := filepath.Join(tmp, "stable.txt")
	require.NoError(t, os.WriteFile(path, []byte("done writing"), 0o644))

	p := NewStabilityProber(20 * time.Millisecond)
	assert.True(t, p.IsStable(path))
}

func TestStabilityProber_MissingFile(t *testing.T) {
	p := NewStabilityProber(5 * time.Millisecond)
	assert.False(t, p.IsStable(filepath.Join(t.TempDir(), "nope.txt")))
}

func TestStabilityProber_FileGrowingDuringDwell(t *testing.T) {
	tmp := t.TempDir()
	path := filepath.Join(tmp, "growing.txt")
	require.NoError(t, os.WriteFile(path, []byte("partial"), 0o644))

	go func() {
		time.Sleep(20 * time.Millisecond)
		f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return
		}
		defer f.Close()
		f.WriteString(" more bytes")
	}()

	p := NewStabilityProber(60 * time.Millisecond)
	assert.False(t, p.IsStable(path))
}

func TestStabilityProber_FileRemovedDuringDwell(t *testing.T) {
	tmp := t.TempDir()
	path := filepath.Join(tmp, "vanishing.txt")
	require.NoError(t, os.WriteFile(path, []byte("soon gone"), 0o644))

	go func() {
		time.Sleep(20 * time.Millisecond)
		os.Remove(path)
	}()

	p := NewStabilityProber(60 * time.Millisecond)
	assert.False(t, p.IsStable(path))
}
