package storage

import (
	"context"
	"fmt"
	"log"

	"github.com/comitanigiacomo/kanso-habit-store/internal/core/domain"
)

// NativeSurface is the key-value store shared with the home-screen widget
// renderer. It is owned by the platform and may fail on any call.
type NativeSurface interface {
	// GetItem returns the value stored under (key, group), or "" when absent.
	GetItem(ctx context.Context, key, group string) (string, error)

	SetItem(ctx context.Context, key, value, group string) error

	RemoveItem(ctx context.Context, key, group string) error

	// ReloadAllTimelines asks every widget to redraw from the shared store.
	ReloadAllTimelines(ctx context.Context) error
}

var _ domain.StorageBackend = (*BridgeBackend)(nil)

type BridgeBackend struct {
	surface NativeSurface
	group   string
}

func NewBridgeBackend(surface NativeSurface, group string) *BridgeBackend {
	if group == "" {
		group = domain.StorageGroup
	}
	return &BridgeBackend{
		surface: surface,
		group:   group,
	}
}

func (b *BridgeBackend) Name() string {
	return "bridge"
}

// guard runs a surface call, turning a panic in the native layer into an error.
func guard(op string, call func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("native surface %s panicked: %v", op, r)
		}
	}()
	return call()
}

// Load contains surface errors and panics and reports them as errors. The
// store decides whether a failed read may fall back to the empty document.
func (b *BridgeBackend) Load(ctx context.Context, key string) ([]byte, error) {
	var value string
	err := guard("getItem", func() error {
		var callErr error
		value, callErr = b.surface.GetItem(ctx, key, b.group)
		return callErr
	})
	if err != nil {
		log.Printf("[BRIDGE] getItem %s failed: %v", key, err)
		return nil, fmt.Errorf("bridge load: %w", err)
	}

	if value == "" {
		return nil, nil
	}
	return []byte(value), nil
}

func (b *BridgeBackend) Save(ctx context.Context, key string, data []byte) error {
	err := guard("setItem", func() error {
		return b.surface.SetItem(ctx, key, string(data), b.group)
	})
	if err != nil {
		log.Printf("[BRIDGE] setItem %s failed: %v", key, err)
		return fmt.Errorf("bridge save: %w", err)
	}
	return nil
}

func (b *BridgeBackend) Clear(ctx context.Context, key string) error {
	err := guard("removeItem", func() error {
		return b.surface.RemoveItem(ctx, key, b.group)
	})
	if err != nil {
		log.Printf("[BRIDGE] removeItem %s failed: %v", key, err)
		return fmt.Errorf("bridge clear: %w", err)
	}
	return nil
}

func (b *BridgeBackend) ReloadSurfaces(ctx context.Context) error {
	return guard("reloadAllTimelines", func() error {
		return b.surface.ReloadAllTimelines(ctx)
	})
}
