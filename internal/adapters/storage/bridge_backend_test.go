package storage_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/comitanigiacomo/kanso-habit-store/internal/adapters/storage"
	"github.com/comitanigiacomo/kanso-habit-store/internal/core/domain"
)

type MockSurface struct {
	mock.Mock
}

func (m *MockSurface) GetItem(ctx context.Context, key, group string) (string, error) {
	args := m.Called(ctx, key, group)
	return args.String(0), args.Error(1)
}

func (m *MockSurface) SetItem(ctx context.Context, key, value, group string) error {
	args := m.Called(ctx, key, value, group)
	return args.Error(0)
}

func (m *MockSurface) RemoveItem(ctx context.Context, key, group string) error {
	args := m.Called(ctx, key, group)
	return args.Error(0)
}

func (m *MockSurface) ReloadAllTimelines(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

type panickingSurface struct {
	MockSurface
}

func (p *panickingSurface) GetItem(ctx context.Context, key, group string) (string, error) {
	panic("native bridge not linked")
}

func (p *panickingSurface) SetItem(ctx context.Context, key, value, group string) error {
	panic("native bridge not linked")
}

func TestBridgeBackend(t *testing.T) {
	ctx := context.Background()
	group := "group.test"

	t.Run("Success: Load passes the stored value through", func(t *testing.T) {
		surface := new(MockSurface)
		surface.On("GetItem", ctx, domain.StorageKey, group).Return(`{"habits":[{"id":"h1"}]}`, nil)
		backend := storage.NewBridgeBackend(surface, group)

		data, err := backend.Load(ctx, domain.StorageKey)

		assert.NoError(t, err)
		assert.Equal(t, `{"habits":[{"id":"h1"}]}`, string(data))
		surface.AssertExpectations(t)
	})

	t.Run("Success: Missing item is no document", func(t *testing.T) {
		surface := new(MockSurface)
		surface.On("GetItem", ctx, domain.StorageKey, group).Return("", nil)
		backend := storage.NewBridgeBackend(surface, group)

		data, err := backend.Load(ctx, domain.StorageKey)

		assert.NoError(t, err)
		assert.Nil(t, data)
	})

	t.Run("Failure: Load error is reported, not hidden", func(t *testing.T) {
		surface := new(MockSurface)
		surface.On("GetItem", ctx, domain.StorageKey, group).Return("", errors.New("bridge offline"))
		backend := storage.NewBridgeBackend(surface, group)

		data, err := backend.Load(ctx, domain.StorageKey)

		assert.ErrorContains(t, err, "bridge offline")
		assert.Nil(t, data)
	})

	t.Run("Failure: Panics in the native layer are contained", func(t *testing.T) {
		backend := storage.NewBridgeBackend(&panickingSurface{}, group)

		data, err := backend.Load(ctx, domain.StorageKey)
		assert.ErrorContains(t, err, "panicked")
		assert.Nil(t, data)

		err = backend.Save(ctx, domain.StorageKey, []byte(`{}`))
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "panicked")
	})

	t.Run("Save and Clear report surface errors", func(t *testing.T) {
		surface := new(MockSurface)
		surface.On("SetItem", ctx, domain.StorageKey, `{"habits":[]}`, group).Return(errors.New("quota exceeded"))
		surface.On("RemoveItem", ctx, domain.StorageKey, group).Return(nil)
		backend := storage.NewBridgeBackend(surface, group)

		err := backend.Save(ctx, domain.StorageKey, []byte(`{"habits":[]}`))
		assert.ErrorContains(t, err, "quota exceeded")

		assert.NoError(t, backend.Clear(ctx, domain.StorageKey))
		surface.AssertExpectations(t)
	})

	t.Run("Reload delegates to the timelines call", func(t *testing.T) {
		surface := new(MockSurface)
		surface.On("ReloadAllTimelines", ctx).Return(nil).Once()
		backend := storage.NewBridgeBackend(surface, group)

		require.NoError(t, backend.ReloadSurfaces(ctx))
		surface.AssertExpectations(t)
	})
}
