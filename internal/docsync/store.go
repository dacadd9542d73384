package docsync

import (
	"fmt"
	"os"
	"sync"

	"github.com/goccy/go-json"
	"github.com/gofrs/flock"

	"github.com/econbot/docsync/internal/utils"
)

// TrackedFile is the persisted record for one synced document.
// ObjectID is non-empty iff the file has been uploaded and is currently
// attached to the remote index.
type TrackedFile struct {
	ObjectID    string `json:"object_id"`
	Fingerprint string `json:"fingerprint"`
	Name        string `json:"name"`
}

type storeDoc struct {
	IndexID string                  `json:"index_id"`
	Files   map[string]*TrackedFile `json:"files"`
}

// Store is the fingerprint store: the full set of tracked-file records
// plus the remote index identity, persisted as a single JSON document
// that is rewritten wholesale and synchronously after every mutation.
// A file lock guards against a second daemon instance sharing the same
// state file.
type Store struct {
	path string
	lock *flock.Flock
	mu   sync.Mutex
	doc  storeDoc
}

// OpenStore loads the store at path, creating an empty one if the file
// does not exist. A corrupt document or a state file held by another
// process is a startup failure; the engine must not run on guessed
// state.
func OpenStore(path string) (*Store, error) {
	if err := utils.EnsureParent(path); err != nil {
		return nil, fmt.Errorf("create state dir: %w", err)
	}

	lock := flock.New(path + ".lock")
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("lock state file: %w", err)
	}
	if !locked {
		return nil, fmt.Errorf("state file %s is locked by another instance", path)
	}

	s := &Store{
		path: path,
		lock: lock,
		doc:  storeDoc{Files: make(map[string]*TrackedFile)},
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		lock.Unlock()
		return nil, fmt.Errorf("read state file: %w", err)
	}

	if err := json.Unmarshal(data, &s.doc); err != nil {
		lock.Unlock()
		return nil, fmt.Errorf("corrupt state file %s: %w", path, err)
	}
	if s.doc.Files == nil {
		s.doc.Files = make(map[string]*TrackedFile)
	}

	return s, nil
}

func (s *Store) Close() error {
	return s.lock.Unlock()
}

func (s *Store) IndexID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc.IndexID
}

func (s *Store) SetIndexID(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.doc.IndexID = id
	return s.flushLocked()
}

// Get returns a copy of the record for key, if any.
func (s *Store) Get(key string) (TrackedFile, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tf, ok := s.doc.Files[key]
	if !ok {
		return TrackedFile{}, false
	}
	return *tf, true
}

// Set upserts the record for key and flushes.
func (s *Store) Set(key string, tf TrackedFile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.doc.Files[key] = &tf
	return s.flushLocked()
}

// Delete removes the record for key and flushes. Deleting an unknown
// key is a no-op.
func (s *Store) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.doc.Files[key]; !ok {
		return nil
	}
	delete(s.doc.Files, key)
	return s.flushLocked()
}

func (s *Store) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.doc.Files)
}

// flushLocked rewrites the whole document atomically: marshal, write a
// sibling temp file, rename over the old document.
func (s *Store) flushLocked() error {
	data, err := json.MarshalIndent(&s.doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write state: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace state: %w", err)
	}
	return nil
}

// StoreSummary is a read-only snapshot of a state file, used by the
// status command without taking the daemon's lock.
type StoreSummary struct {
	IndexID string
	Files   int
}

func PeekStore(path string) (*StoreSummary, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &StoreSummary{}, nil
	}
	if err != nil {
		return nil, err
	}

	var doc storeDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("corrupt state file %s: %w", path, err)
	}
	return &StoreSummary{IndexID: doc.IndexID, Files: len(doc.Files)}, nil
}
