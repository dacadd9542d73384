// Package utils provides small filesystem and logging helpers shared
// across the docsync daemon.
package utils

import (
	"io"
	"os"
	"path/filepath"
)

// CopyFile copies src to dst byte for byte, creating dst's parent
// directory if needed. The destination is truncated if it exists.
func CopyFile(src, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}

	srcFile, err := os.Open(src)
	if err != nil {
		return err
	}
	defer srcFile.Close()

	dstFile, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer dstFile.Close()

	if _, err := io.Copy(dstFile, srcFile); err != nil {
		return err
	}
	return dstFile.Sync()
}
