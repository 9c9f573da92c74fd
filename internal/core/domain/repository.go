package domain

import (
	"context"
	"errors"
)

var (
	ErrHabitNotFound      = errors.New("habit not found")
	ErrInvalidOperation   = errors.New("operation not valid for this habit")
	ErrPersistenceFailure = errors.New("storage backend failure")
	ErrCorruptDocument    = errors.New("stored habit document is corrupt")
)

const (
	// StorageKey and StorageGroup are shared by every backend so that a change
	// in capability detection still resolves to the same logical document.
	StorageKey   = "habitData"
	StorageGroup = "group.app.kanso.habits"
)

type StorageBackend interface {
	// Load returns the raw document stored under key, or nil when there is none.
	Load(ctx context.Context, key string) ([]byte, error)

	// Save replaces the document stored under key.
	Save(ctx context.Context, key string, data []byte) error

	// Clear removes the document stored under key.
	Clear(ctx context.Context, key string) error

	// ReloadSurfaces asks external renderers (home-screen widgets) to redraw.
	ReloadSurfaces(ctx context.Context) error

	Name() string
}
