// Package docsync keeps a watched directory of documents mirrored into
// a remote vector index: filesystem events are debounced, stabilized,
// staged, fingerprinted, and reconciled against a persisted store so
// the remote index converges with the directory contents.
package docsync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/econbot/docsync/internal/config"
	"github.com/econbot/docsync/internal/utils"
	"github.com/econbot/docsync/internal/vecstore"
)

// Manager wires the monitor, the coordinator, and their shared state,
// and owns the engine lifecycle.
type Manager struct {
	cfg         *config.Config
	store       *Store
	monitor     *Monitor
	coordinator *Coordinator
}

func NewManager(cfg *config.Config) (*Manager, error) {
	return NewManagerWithClient(cfg, vecstore.New(cfg.ServerURL, cfg.APIKey))
}

// NewManagerWithClient builds a manager around an explicit remote
// client.
func NewManagerWithClient(cfg *config.Config, remote RemoteClient) (*Manager, error) {
	if err := utils.EnsureDir(cfg.DocsDir); err != nil {
		return nil, fmt.Errorf("create docs dir: %w", err)
	}

	store, err := OpenStore(cfg.StatePath())
	if err != nil {
		return nil, fmt.Errorf("open fingerprint store: %w", err)
	}

	staging, err := NewStagingArea(cfg.StagingDir())
	if err != nil {
		store.Close()
		return nil, err
	}

	monitor, err := NewMonitor(cfg.DocsDir)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("create filesystem monitor: %w", err)
	}

	coordinator := NewCoordinator(
		cfg.DocsDir,
		store,
		remote,
		NewQualifier(cfg.AllowedExts, cfg.SyncOnModify),
		NewDebouncer(cfg.Debounce),
		NewStabilityProber(cfg.Dwell),
		staging,
	)

	return &Manager{
		cfg:         cfg,
		store:       store,
		monitor:     monitor,
		coordinator: coordinator,
	}, nil
}

// Start resolves the index identity, reconciles pre-existing files, and
// runs the watch loops until ctx is cancelled.
func (m *Manager) Start(ctx context.Context) error {
	slog.Info("docsync start",
		"docs", m.cfg.DocsDir,
		"index", m.cfg.IndexName,
		"tracked", m.store.Count(),
	)

	if err := m.coordinator.EnsureIndex(ctx, m.cfg.IndexName, m.cfg.IndexIDPath()); err != nil {
		return fmt.Errorf("ensure index: %w", err)
	}
	slog.Info("using vector index", "id", m.coordinator.IndexID())

	if err := m.coordinator.Rescan(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("startup rescan: %w", err)
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return m.monitor.Start(ctx)
	})

	g.Go(func() error {
		return m.dispatch(ctx)
	})

	err := g.Wait()
	if errors.Is(err, context.Canceled) || errors.Is(err, ErrMonitorClosed) {
		return nil
	}
	return err
}

// dispatch is the single consumer of monitor notifications. It keeps
// the notification path non-blocking; the heavy lifting happens on
// debounce timer goroutines.
func (m *Manager) dispatch(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-m.monitor.Events:
			if !ok {
				return ErrMonitorClosed
			}
			m.coordinator.HandleEvent(ctx, event)

		case err, ok := <-m.monitor.Errors:
			if !ok {
				return ErrMonitorClosed
			}
			slog.Warn("monitor error", "error", err)
		}
	}
}

// Stop shuts down the monitor, cancels pending work, and releases the
// store lock.
func (m *Manager) Stop() error {
	slog.Info("docsync stop")
	err := m.monitor.Stop()
	m.coordinator.Stop()
	if cerr := m.store.Close(); cerr != nil && err == nil {
		err = cerr
	}
	if errors.Is(err, ErrMonitorClosed) {
		return nil
	}
	return err
}

// Store exposes the fingerprint store for status reporting.
func (m *Manager) Store() *Store {
	return m.store
}
