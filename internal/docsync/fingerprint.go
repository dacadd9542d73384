package docsync

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// FileFingerprint returns the SHA-256 hex digest of the file's full
// content. Matching fingerprints mean the remote copy is current and no
// upload is needed.
func FileFingerprint(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer file.Close()

	hash := sha256.New()
	if _, err := io.Copy(hash, file); err != nil {
		return "", err
	}

	return hex.EncodeToString(hash.Sum(nil)), nil
}

// CanonicalKey converts a path into the stable identity used to key
// tracked-file records: absolute, cleaned, case-normalized. Symlinks
// are not resolved because the key must also be computable for paths
// that no longer exist (delete events).
func CanonicalKey(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = filepath.Clean(path)
	}
	return strings.ToLower(abs)
}
