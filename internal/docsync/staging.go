package docsync

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/econbot/docsync/internal/utils"
)

const (
	stageMaxAttempts  = 10
	stageInitialDelay = 500 * time.Millisecond
	stageMaxDelay     = 4 * time.Second
	stageBackoff      = 1.7
)

// StagingArea snapshots files into an isolated directory before upload.
// Uploading the snapshot instead of the watched path keeps the upload
// and its fingerprint self-consistent even if a new write starts right
// after the stability check.
type StagingArea struct {
	dir          string
	maxAttempts  int
	initialDelay time.Duration
	maxDelay     time.Duration
}

func NewStagingArea(dir string) (*StagingArea, error) {
	if err := utils.EnsureDir(dir); err != nil {
		return nil, fmt.Errorf("create staging dir: %w", err)
	}
	return &StagingArea{
		dir:          dir,
		maxAttempts:  stageMaxAttempts,
		initialDelay: stageInitialDelay,
		maxDelay:     stageMaxDelay,
	}, nil
}

// Stage copies src into the staging directory and returns the staged
// path. A source transiently locked by another process is retried with
// exponential backoff; exhausting the attempts surfaces the last error
// so the caller can reschedule the whole action.
func (s *StagingArea) Stage(src string) (string, error) {
	dst := filepath.Join(s.dir, stagedName(src))

	delay := s.initialDelay
	var lastErr error
	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		if err := utils.CopyFile(src, dst); err == nil {
			return dst, nil
		} else {
			lastErr = err
		}

		if attempt == s.maxAttempts {
			break
		}
		time.Sleep(delay)
		delay = min(s.maxDelay, time.Duration(float64(delay)*stageBackoff))
	}

	return "", fmt.Errorf("stage %s after %d attempts: %w", src, s.maxAttempts, lastErr)
}

// Discard removes a staged copy. Called on every exit path of an upload
// attempt, success or failure.
func (s *StagingArea) Discard(stagedPath string) {
	if err := os.Remove(stagedPath); err != nil && !os.IsNotExist(err) {
		slog.Warn("failed to remove staged copy", "path", stagedPath, "error", err)
	}
}

// stagedName derives a deterministic staging filename from the source's
// stem, e.g. brief.pdf -> brief__staging.pdf.
func stagedName(src string) string {
	base := filepath.Base(src)
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)
	return stem + "__staging" + ext
}
