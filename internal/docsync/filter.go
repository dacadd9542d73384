package docsync

import (
	"path/filepath"
	"strings"

	gitignore "github.com/sabhiram/go-gitignore"
)

// lockPatternLines match editor lock files and partial writes that must
// never reach the index, whatever their extension says.
var lockPatternLines = []string{
	"~$*",      // MS Office lock files
	".~lock.*", // LibreOffice lock files
	"*.tmp",
	"*.part",
	"*.lock",
	"*.crdownload",
	"*__staging*", // our own snapshots, should staging ever live in the tree
}

// Qualifier decides which events are worth syncing: the extension must
// be allow-listed, the name must not look like a lock/temp file, and
// in-place modification events only count when enabled.
type Qualifier struct {
	exts         map[string]struct{}
	lockPatterns *gitignore.GitIgnore
	syncOnModify bool
}

func NewQualifier(allowedExts []string, syncOnModify bool) *Qualifier {
	exts := make(map[string]struct{}, len(allowedExts))
	for _, ext := range allowedExts {
		exts[strings.ToLower(ext)] = struct{}{}
	}

	return &Qualifier{
		exts:         exts,
		lockPatterns: gitignore.CompileIgnoreLines(lockPatternLines...),
		syncOnModify: syncOnModify,
	}
}

// Qualifies reports whether the event should enter the sync pipeline.
func (q *Qualifier) Qualifies(e Event) bool {
	if e.Kind == EventModified && !q.syncOnModify {
		// editors emit many intermediate writes while saving; when
		// disabled, only the terminal create/move is actionable
		return false
	}
	return q.QualifiesPath(e.Path)
}

// QualifiesPath applies the name-based checks alone, independent of the
// event kind. Used by the startup rescan.
func (q *Qualifier) QualifiesPath(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	if _, ok := q.exts[ext]; !ok {
		return false
	}
	return !q.lockPatterns.MatchesPath(filepath.Base(path))
}
