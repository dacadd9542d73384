package docsync

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/econbot/docsync/internal/utils"
	"github.com/econbot/docsync/internal/vecstore"
)

// RemoteClient is the remote index's object lifecycle as the
// coordinator needs it. *vecstore.Client implements it; tests use a
// recording fake.
type RemoteClient interface {
	CreateIndex(ctx context.Context, name string) (string, error)
	CreateObject(ctx context.Context, filePath, name string) (string, error)
	Attach(ctx context.Context, indexID, objectID string) error
	Detach(ctx context.Context, indexID, objectID string) error
	DeleteObject(ctx context.Context, objectID string) error
}

// Coordinator orchestrates the sync pipeline: qualify, debounce, probe
// stability, stage, fingerprint, diff against the store, and perform
// the minimal remote operation. It is the sole writer of the store.
type Coordinator struct {
	root      string
	indexID   string
	store     *Store
	remote    RemoteClient
	qualifier *Qualifier
	debouncer *Debouncer
	prober    *StabilityProber
	staging   *StagingArea
}

func NewCoordinator(root string, store *Store, remote RemoteClient, qualifier *Qualifier, debouncer *Debouncer, prober *StabilityProber, staging *StagingArea) *Coordinator {
	return &Coordinator{
		root:      root,
		store:     store,
		remote:    remote,
		qualifier: qualifier,
		debouncer: debouncer,
		prober:    prober,
		staging:   staging,
	}
}

// EnsureIndex resolves the remote index identity: reuse the id file if
// present, fall back to the store, otherwise create a new index and
// persist its id both places. Restarts must never create a duplicate
// index.
func (c *Coordinator) EnsureIndex(ctx context.Context, name, idPath string) error {
	if data, err := os.ReadFile(idPath); err == nil {
		id := strings.TrimSpace(string(data))
		if id != "" {
			c.indexID = id
			if c.store.IndexID() != id {
				if err := c.store.SetIndexID(id); err != nil {
					return err
				}
			}
			return nil
		}
	}

	if id := c.store.IndexID(); id != "" {
		c.indexID = id
		return c.writeIndexID(idPath, id)
	}

	id, err := c.remote.CreateIndex(ctx, name)
	if err != nil {
		return err
	}
	slog.Info("created vector index", "name", name, "id", id)

	c.indexID = id
	if err := c.writeIndexID(idPath, id); err != nil {
		return err
	}
	return c.store.SetIndexID(id)
}

func (c *Coordinator) writeIndexID(idPath, id string) error {
	if err := utils.EnsureParent(idPath); err != nil {
		return err
	}
	return os.WriteFile(idPath, []byte(id+"\n"), 0o644)
}

// IndexID returns the resolved remote index identity.
func (c *Coordinator) IndexID() string {
	return c.indexID
}

// HandleEvent runs one qualified event through the pipeline. Removals
// act immediately; everything else is debounced so bursts collapse into
// a single upload.
func (c *Coordinator) HandleEvent(ctx context.Context, e Event) {
	if !c.qualifier.Qualifies(e) {
		return
	}

	slog.Debug("event", "kind", e.Kind.String(), "path", e.Path)

	switch e.Kind {
	case EventRemoved:
		c.removePath(ctx, e.Path)
	default:
		c.scheduleSync(ctx, e.Path)
	}
}

// Rescan walks the watched tree and feeds every qualifying file through
// the pipeline as a synthetic created event. Run at startup so the
// persisted state converges with the current directory contents.
func (c *Coordinator) Rescan(ctx context.Context) error {
	return filepath.WalkDir(c.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if d.IsDir() {
			return nil
		}
		c.HandleEvent(ctx, Event{Kind: EventCreated, Path: path})
		return nil
	})
}

// Stop cancels all pending debounce timers. In-flight actions run to
// completion.
func (c *Coordinator) Stop() {
	c.debouncer.StopAll()
}

func (c *Coordinator) scheduleSync(ctx context.Context, path string) {
	key := CanonicalKey(path)
	c.debouncer.Schedule(key, func() {
		c.syncPath(ctx, path)
	})
}

// syncPath is the debounced action for a single path: stabilize, stage,
// fingerprint, and reconcile with the remote index.
func (c *Coordinator) syncPath(ctx context.Context, path string) {
	if ctx.Err() != nil {
		return
	}
	if !utils.FileExists(path) {
		return
	}

	// two dwell windows; still unstable means a writer is active, so
	// re-enter the debounce pipeline instead of blocking here
	if !c.prober.IsStable(path) && !c.prober.IsStable(path) {
		slog.Debug("file not stable yet, rescheduling", "path", path)
		c.scheduleSync(ctx, path)
		return
	}

	staged, err := c.staging.Stage(path)
	if err != nil {
		slog.Warn("staging failed, rescheduling", "path", path, "error", err)
		c.scheduleSync(ctx, path)
		return
	}
	defer c.staging.Discard(staged)

	// fingerprint the staged copy, not the original, so the decision
	// and the upload see the same bytes
	fingerprint, err := FileFingerprint(staged)
	if err != nil {
		slog.Error("fingerprint failed", "path", path, "error", err)
		return
	}

	key := CanonicalKey(path)
	prev, tracked := c.store.Get(key)
	if tracked && prev.Fingerprint == fingerprint {
		slog.Debug("skip unchanged", "path", path)
		return
	}

	name := filepath.Base(path)
	size := int64(0)
	if info, err := os.Stat(staged); err == nil {
		size = info.Size()
	}

	objectID, err := c.remote.CreateObject(ctx, staged, name)
	if err != nil {
		slog.Error("upload failed", "path", path, "error", err)
		return
	}

	if err := c.remote.Attach(ctx, c.indexID, objectID); err != nil {
		slog.Error("attach failed", "path", path, "object", objectID, "error", err)
		// don't leave a created-but-unattached object behind
		if err := c.remote.DeleteObject(ctx, objectID); err != nil && !vecstore.IsNotFound(err) {
			slog.Warn("cleanup of unattached object failed", "object", objectID, "error", err)
		}
		return
	}

	// new object is live before the old one goes away, so the index is
	// never momentarily empty for this document
	if tracked && prev.ObjectID != "" {
		c.cleanupObject(ctx, prev.ObjectID)
	}

	if err := c.store.Set(key, TrackedFile{
		ObjectID:    objectID,
		Fingerprint: fingerprint,
		Name:        name,
	}); err != nil {
		slog.Error("state flush failed", "path", path, "error", err)
		return
	}

	slog.Info("sync", "op", "upload", "path", name, "object", objectID, "size", humanize.Bytes(uint64(size)))
}

// removePath handles a qualifying deletion: drop the remote object and
// the store record. No record means nothing was ever synced.
func (c *Coordinator) removePath(ctx context.Context, path string) {
	key := CanonicalKey(path)
	c.debouncer.Cancel(key)

	record, tracked := c.store.Get(key)
	if !tracked {
		return
	}

	c.cleanupObject(ctx, record.ObjectID)

	if err := c.store.Delete(key); err != nil {
		slog.Error("state flush failed", "path", path, "error", err)
		return
	}
	slog.Info("sync", "op", "delete", "path", record.Name, "object", record.ObjectID)
}

// cleanupObject detaches and deletes a superseded or removed object.
// Failures are warnings: a dangling remote object is a cleanliness
// problem, not a correctness one, and a missing object means the work
// is already done.
func (c *Coordinator) cleanupObject(ctx context.Context, objectID string) {
	if objectID == "" {
		return
	}
	if err := c.remote.Detach(ctx, c.indexID, objectID); err != nil && !vecstore.IsNotFound(err) {
		slog.Warn("detach failed", "object", objectID, "error", err)
	}
	if err := c.remote.DeleteObject(ctx, objectID); err != nil && !vecstore.IsNotFound(err) {
		slog.Warn("delete failed", "object", objectID, "error", err)
	}
}
