package docsync

import (
	"os"
	"time"
)

// StabilityProber decides whether a file looks done being written by
// sampling (size, mtime) twice across a dwell window. This is a
// best-effort heuristic, not a lock: a writer slower than the dwell can
// still slip through. Writers that want a hard guarantee should rename
// finished files into the watched tree, which arrives as a create.
type StabilityProber struct {
	dwell time.Duration
}

func NewStabilityProber(dwell time.Duration) *StabilityProber {
	return &StabilityProber{dwell: dwell}
}

type fileSample struct {
	size  int64
	mtime time.Time
}

// IsStable reports whether the file's size and mtime held still across
// one dwell window. A file that disappears mid-probe is unstable.
func (p *StabilityProber) IsStable(path string) bool {
	first, ok := sample(path)
	if !ok {
		return false
	}

	time.Sleep(p.dwell)

	second, ok := sample(path)
	if !ok {
		return false
	}

	return first.size == second.size && first.mtime.Equal(second.mtime)
}

func sample(path string) (fileSample, bool) {
	info, err := os.Stat(path)
	if err != nil {
		return fileSample{}, false
	}
	return fileSample{size: info.Size(), mtime: info.ModTime()}, true
}
