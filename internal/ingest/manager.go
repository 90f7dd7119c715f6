// Package ingest owns the catalog lifecycle: fetching the rules
// document, rebuilding the catalog, and publishing the new version to
// readers without blocking them.
package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/greedhall/rules-engine/internal/rules"
	"github.com/greedhall/rules-engine/internal/source"
)

// SnapshotStore persists catalogs across restarts.
type SnapshotStore interface {
	StoreCatalogSnapshot(ctx context.Context, catalog *rules.Catalog) error
	LatestCatalogSnapshot(ctx context.Context) (*rules.Catalog, error)
}

// CatalogCache is the fast restore path in front of the snapshot store.
type CatalogCache interface {
	StoreCatalog(ctx context.Context, catalog *rules.Catalog) error
	LoadCatalog(ctx context.Context) (*rules.Catalog, error)
}

// Event describes one completed refresh, for watch subscribers.
type Event struct {
	LastModified time.Time `json:"last_modified"`
	OriginCount  int       `json:"origin_count"`
	ClassCount   int       `json:"class_count"`
	RefreshedAt  time.Time `json:"refreshed_at"`
}

// Manager holds the current catalog and coordinates refreshes. Readers
// always see a complete catalog: a refresh builds the replacement off
// to the side and swaps it in atomically, or leaves the old one
// untouched when anything fails.
type Manager struct {
	fetcher source.Fetcher
	store   SnapshotStore
	cache   CatalogCache

	current atomic.Pointer[rules.Catalog]

	mu          sync.Mutex
	subscribers map[int]chan Event
	nextSubID   int
}

// NewManager creates a catalog manager. The store and cache may be nil;
// the manager then runs without persistence.
func NewManager(fetcher source.Fetcher, store SnapshotStore, cache CatalogCache) *Manager {
	m := &Manager{
		fetcher:     fetcher,
		store:       store,
		cache:       cache,
		subscribers: make(map[int]chan Event),
	}
	m.current.Store(&rules.Catalog{
		Origins: make(map[string]rules.OriginRecord),
		Classes: make(map[string]rules.ClassRecord),
	})
	return m
}

// Current returns the catalog readers should use right now. It never
// returns nil; before the first successful ingestion it is empty.
func (m *Manager) Current() *rules.Catalog {
	return m.current.Load()
}

// Restore loads the last persisted catalog so the service can answer
// queries before the first fetch completes. Cache first, then the
// snapshot store; starting empty is not an error.
func (m *Manager) Restore(ctx context.Context) error {
	if m.cache != nil {
		catalog, err := m.cache.LoadCatalog(ctx)
		if err != nil {
			slog.Warn("failed to restore catalog from cache", "error", err)
		} else if catalog != nil {
			m.current.Store(catalog)
			slog.Info("catalog restored from cache",
				"origins", len(catalog.Origins),
				"classes", len(catalog.Classes),
				"last_modified", catalog.LastModified,
			)
			return nil
		}
	}

	if m.store != nil {
		catalog, err := m.store.LatestCatalogSnapshot(ctx)
		if err != nil {
			return fmt.Errorf("restore catalog snapshot: %w", err)
		}
		if catalog != nil {
			m.current.Store(catalog)
			slog.Info("catalog restored from snapshot",
				"origins", len(catalog.Origins),
				"classes", len(catalog.Classes),
				"last_modified", catalog.LastModified,
			)
			return nil
		}
	}

	slog.Info("no persisted catalog, starting empty")
	return nil
}

// Refresh checks the source document's modification time and, when it
// differs from the current catalog's, fetches and re-ingests the whole
// document. It reports whether a new catalog was installed. Any fetch
// or parse error leaves the current catalog in place.
func (m *Manager) Refresh(ctx context.Context) (bool, error) {
	modified, err := m.fetcher.ModifiedTime(ctx)
	if err != nil {
		return false, fmt.Errorf("check document modification time: %w", err)
	}

	if modified.Equal(m.current.Load().LastModified) {
		slog.Debug("catalog up to date", "last_modified", modified)
		return false, nil
	}

	doc, err := m.fetcher.Fetch(ctx)
	if err != nil {
		return false, fmt.Errorf("fetch document: %w", err)
	}

	catalog, err := rules.BuildCatalog(rules.Segment(doc), modified)
	if err != nil {
		return false, fmt.Errorf("build catalog: %w", err)
	}

	m.current.Store(catalog)
	slog.Info("catalog refreshed",
		"origins", len(catalog.Origins),
		"classes", len(catalog.Classes),
		"last_modified", catalog.LastModified,
	)

	m.persist(ctx, catalog)
	m.notify(Event{
		LastModified: catalog.LastModified,
		OriginCount:  len(catalog.Origins),
		ClassCount:   len(catalog.Classes),
		RefreshedAt:  time.Now().UTC(),
	})

	return true, nil
}

// persist writes the new catalog to the cache and snapshot store.
// Persistence failures are logged, not returned: the in-memory swap
// already happened and readers are serving the new catalog.
func (m *Manager) persist(ctx context.Context, catalog *rules.Catalog) {
	if m.cache != nil {
		if err := m.cache.StoreCatalog(ctx, catalog); err != nil {
			slog.Warn("failed to cache catalog", "error", err)
		}
	}
	if m.store != nil {
		if err := m.store.StoreCatalogSnapshot(ctx, catalog); err != nil {
			slog.Warn("failed to store catalog snapshot", "error", err)
		}
	}
}

// Subscribe registers for refresh events. The returned function
// unsubscribes; events are dropped for subscribers that fall behind.
func (m *Manager) Subscribe() (<-chan Event, func()) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := m.nextSubID
	m.nextSubID++

	ch := make(chan Event, 4)
	m.subscribers[id] = ch

	return ch, func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		if _, ok := m.subscribers[id]; ok {
			delete(m.subscribers, id)
			close(ch)
		}
	}
}

func (m *Manager) notify(event Event) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, ch := range m.subscribers {
		select {
		case ch <- event:
		default:
		}
	}
}
