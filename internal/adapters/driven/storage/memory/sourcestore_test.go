package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quarrylabs/quarry/internal/core/domain"
)

func TestSourceStore_SaveAndGet(t *testing.T) {
	store := NewSourceStore()
	ctx := context.Background()

	source := domain.Source{
		ID:        "src-1",
		Type:      domain.SourceTypeUpload,
		Name:      "Local Docs",
		Config:    map[string]string{"path": "/data/docs"},
		CreatedAt: time.Now(),
	}

	err := store.Save(ctx, source)
	require.NoError(t, err)

	saved, err := store.Get(ctx, "src-1")
	require.NoError(t, err)
	assert.Equal(t, "src-1", saved.ID)
	assert.Equal(t, domain.SourceTypeUpload, saved.Type)
	assert.Equal(t, "/data/docs", saved.Config["path"])
}

func TestSourceStore_Save_Update(t *testing.T) {
	store := NewSourceStore()
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, domain.Source{ID: "src-1", Name: "Old"}))
	require.NoError(t, store.Save(ctx, domain.Source{ID: "src-1", Name: "New"}))

	saved, err := store.Get(ctx, "src-1")
	require.NoError(t, err)
	assert.Equal(t, "New", saved.Name)
}

func TestSourceStore_Get_NotFound(t *testing.T) {
	store := NewSourceStore()
	ctx := context.Background()

	source, err := store.Get(ctx, "nonexistent")

	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Nil(t, source)
}

func TestSourceStore_Delete_Success(t *testing.T) {
	store := NewSourceStore()
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, domain.Source{ID: "src-1"}))

	err := store.Delete(ctx, "src-1")
	require.NoError(t, err)

	_, err = store.Get(ctx, "src-1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSourceStore_Delete_NotFound(t *testing.T) {
	store := NewSourceStore()
	ctx := context.Background()

	err := store.Delete(ctx, "nonexistent")

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSourceStore_List_SortedByID(t *testing.T) {
	store := NewSourceStore()
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, domain.Source{ID: "src-b"}))
	require.NoError(t, store.Save(ctx, domain.Source{ID: "src-a"}))
	require.NoError(t, store.Save(ctx, domain.Source{ID: "src-c"}))

	sources, err := store.List(ctx)

	require.NoError(t, err)
	require.Len(t, sources, 3)
	assert.Equal(t, "src-a", sources[0].ID)
	assert.Equal(t, "src-b", sources[1].ID)
	assert.Equal(t, "src-c", sources[2].ID)
}

func TestSourceStore_List_Empty(t *testing.T) {
	store := NewSourceStore()
	ctx := context.Background()

	sources, err := store.List(ctx)

	require.NoError(t, err)
	assert.Empty(t, sources)
}
