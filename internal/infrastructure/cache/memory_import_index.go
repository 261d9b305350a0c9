package cache

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/catalog"
)

type indexEntry struct {
	productID uuid.UUID
	expiresAt time.Time
}

// InMemoryImportIndex implements catalog.ImportIndex with a process-local map.
// Entries are not shared between instances.
type InMemoryImportIndex struct {
	mu        sync.RWMutex
	entries   map[string]indexEntry
	now       func() time.Time
	stopChan  chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewInMemoryImportIndex creates an in-memory import index that evicts
// expired entries every cleanupInterval. A zero interval disables the sweeper.
func NewInMemoryImportIndex(cleanupInterval time.Duration) *InMemoryImportIndex {
	idx := &InMemoryImportIndex{
		entries:  make(map[string]indexEntry),
		now:      time.Now,
		stopChan: make(chan struct{}),
	}
	if cleanupInterval > 0 {
		idx.wg.Add(1)
		go idx.cleanupLoop(cleanupInterval)
	}
	return idx
}

// Lookup returns the product recorded for sourceURL, ignoring expired entries
func (i *InMemoryImportIndex) Lookup(ctx context.Context, sourceURL string) (uuid.UUID, bool, error) {
	i.mu.RLock()
	defer i.mu.RUnlock()

	e, ok := i.entries[sourceURL]
	if !ok || !i.now().Before(e.expiresAt) {
		return uuid.Nil, false, nil
	}
	return e.productID, true, nil
}

// Remember records sourceURL → productID for ttl
func (i *InMemoryImportIndex) Remember(ctx context.Context, sourceURL string, productID uuid.UUID, ttl time.Duration) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	i.entries[sourceURL] = indexEntry{productID: productID, expiresAt: i.now().Add(ttl)}
	return nil
}

// Forget drops the entry for sourceURL
func (i *InMemoryImportIndex) Forget(ctx context.Context, sourceURL string) error {
	i.mu.Lock()
	defer i.mu.Unlock()

	delete(i.entries, sourceURL)
	return nil
}

// Size returns the number of stored entries, expired ones included
func (i *InMemoryImportIndex) Size() int {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return len(i.entries)
}

// Close stops the sweeper. Safe to call multiple times.
func (i *InMemoryImportIndex) Close() error {
	i.closeOnce.Do(func() {
		close(i.stopChan)
		i.wg.Wait()
	})
	return nil
}

func (i *InMemoryImportIndex) cleanupLoop(interval time.Duration) {
	defer i.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-i.stopChan:
			return
		case <-ticker.C:
			i.cleanup()
		}
	}
}

func (i *InMemoryImportIndex) cleanup() {
	i.mu.Lock()
	defer i.mu.Unlock()

	now := i.now()
	for url, e := range i.entries {
		if !now.Before(e.expiresAt) {
			delete(i.entries, url)
		}
	}
}

var _ catalog.ImportIndex = (*InMemoryImportIndex)(nil)

const defaultCleanupInterval = 5 * time.Minute
