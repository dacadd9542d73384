package docsync

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileFingerprint(t *testing.T) {
	tmp := t.TempDir()
	a := filepath.Join(tmp, "a.txt")
	b := filepath.Join(tmp, "b.txt")
	c := filepath.Join(tmp, "c.txt")
	require.NoError(t, os.WriteFile(a, []byte("same content"), 0o644))
	require.NoError(t, os.WriteFile(b, []byte("same content"), 0o644))
	require.NoError(t, os.WriteFile(c, []byte("other content"), 0o644))

	fa, err := FileFingerprint(a)
	require.NoError(t, err)
	fb, err := FileFingerprint(b)
	require.NoError(t, err)
	fc, err := FileFingerprint(c)
	require.NoError(t, err)

	assert.Equal(t, fa, fb, "identical content yields identical fingerprints")
	assert.NotEqual(t, fa, fc)
	assert.Len(t, fa, 64, "sha-256 hex digest")
}

func TestFileFingerprint_MissingFile(t *testing.T) {
	_, err := FileFingerprint(filepath.Join(t.TempDir(), "nope"))
	assert.Error(t, err)
}

func TestCanonicalKey(t *testing.T) {
	key := CanonicalKey("/Docs/Sub/../Brief.PDF")
	assert.Equal(t, "/docs/brief.pdf", key)
	assert.True(t, strings.HasPrefix(key, "/"))

	// same file spelled differently collapses to one identity
	assert.Equal(t, CanonicalKey("/docs/brief.pdf"), CanonicalKey("/docs/./brief.pdf"))
}
