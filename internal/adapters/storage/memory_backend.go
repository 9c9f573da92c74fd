package storage

import (
	"context"
	"sync"

	"github.com/comitanigiacomo/kanso-habit-store/internal/core/domain"
)

var _ domain.StorageBackend = (*MemoryBackend)(nil)

// MemoryBackend keeps documents in process memory. Failures can be injected
// to exercise the error paths of the store.
type MemoryBackend struct {
	store map[string][]byte

	FailLoad   error
	FailSave   error
	FailClear  error
	FailReload error

	Reloads int
	Saves   int

	mu sync.RWMutex
}

func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{
		store: make(map[string][]byte),
	}
}

func (b *MemoryBackend) Name() string {
	return "memory"
}

func (b *MemoryBackend) Load(ctx context.Context, key string) ([]byte, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.FailLoad != nil {
		return nil, b.FailLoad
	}

	data, ok := b.store[key]
	if !ok {
		return nil, nil
	}
	return append([]byte{}, data...), nil
}

func (b *MemoryBackend) Save(ctx context.Context, key string, data []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.FailSave != nil {
		return b.FailSave
	}

	b.store[key] = append([]byte{}, data...)
	b.Saves++
	return nil
}

func (b *MemoryBackend) Clear(ctx context.Context, key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.FailClear != nil {
		return b.FailClear
	}

	delete(b.store, key)
	return nil
}

func (b *MemoryBackend) ReloadSurfaces(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.FailReload != nil {
		return b.FailReload
	}

	b.Reloads++
	return nil
}

// Raw returns the stored bytes for key without going through the store.
func (b *MemoryBackend) Raw(key string) []byte {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.store[key]
}

// Put writes bytes directly, simulating an out-of-band writer.
func (b *MemoryBackend) Put(key string, data []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.store[key] = data
}

// SetFailures replaces the injected errors under the backend lock.
func (b *MemoryBackend) SetFailures(load, save error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.FailLoad = load
	b.FailSave = save
}

func (b *MemoryBackend) SaveCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.Saves
}

func (b *MemoryBackend) ReloadCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.Reloads
}
