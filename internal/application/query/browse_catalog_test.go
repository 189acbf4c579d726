package query

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aikidslabs/ai-kids-hub/internal/domain/catalog"
	"github.com/aikidslabs/ai-kids-hub/internal/domain/shared"
	"github.com/aikidslabs/ai-kids-hub/internal/infrastructure/persistence/memory"
)

func newBrowseFixture(t *testing.T) (*BrowseCatalogHandler, *memory.ProgressStore) {
	t.Helper()
	store := memory.NewProgressStore()
	return NewBrowseCatalogHandler(catalog.Generate(), store, nil), store
}

func TestBrowseCatalogUnfiltered(t *testing.T) {
	h, _ := newBrowseFixture(t)

	result, err := h.Handle(context.Background(), BrowseCatalogQuery{})
	require.NoError(t, err)

	assert.Len(t, result.Rows, catalog.SeasonCount)
	assert.Equal(t, catalog.TotalItems, result.TotalItems)
	for _, row := range result.Rows {
		assert.Len(t, row.Items, catalog.ModulesPerSeason)
	}
}

func TestBrowseCatalogSearch(t *testing.T) {
	h, _ := newBrowseFixture(t)

	result, err := h.Handle(context.Background(), BrowseCatalogQuery{Search: "criptografia"})
	require.NoError(t, err)

	require.NotZero(t, result.TotalItems)
	for _, row := range result.Rows {
		assert.NotEmpty(t, row.Items, "empty shelves must be dropped")
	}
}

func TestBrowseCatalogAgeFilter(t *testing.T) {
	h, _ := newBrowseFixture(t)
	ctx := context.Background()

	filtered, err := h.Handle(ctx, BrowseCatalogQuery{AgeRating: "7+"})
	require.NoError(t, err)
	for _, row := range filtered.Rows {
		for _, item := range row.Items {
			assert.Equal(t, "7+", item.AgeRating)
		}
	}

	// "Todos" disables the filter entirely.
	all, err := h.Handle(ctx, BrowseCatalogQuery{AgeRating: catalog.AgeFilterAll})
	require.NoError(t, err)
	assert.Equal(t, catalog.TotalItems, all.TotalItems)
	assert.Less(t, filtered.TotalItems, all.TotalItems)
}

func TestBrowseCatalogInvalidType(t *testing.T) {
	h, _ := newBrowseFixture(t)

	_, err := h.Handle(context.Background(), BrowseCatalogQuery{Type: "podcast"})
	require.Error(t, err)
}

func TestBrowseCatalogJoinsProgress(t *testing.T) {
	h, store := newBrowseFixture(t)
	ctx := context.Background()

	tracker, err := store.Load(ctx, "learner-1")
	require.NoError(t, err)
	_, err = tracker.Update(shared.NewItemID(1, 1), 40)
	require.NoError(t, err)
	require.NoError(t, store.Save(ctx, tracker))

	result, err := h.Handle(ctx, BrowseCatalogQuery{LearnerID: "learner-1"})
	require.NoError(t, err)

	first := result.Rows[0].Items[0]
	assert.Equal(t, "1-1", first.ID)
	assert.Equal(t, 40, first.Progress)
	assert.Equal(t, 0, result.Rows[0].Items[1].Progress)
}

func TestGetItem(t *testing.T) {
	store := memory.NewProgressStore()
	h := NewGetItemHandler(catalog.Generate(), store)
	ctx := context.Background()

	item, err := h.Handle(ctx, GetItemQuery{ItemID: "3-14"})
	require.NoError(t, err)
	assert.Equal(t, "3-14", item.ID)
	assert.NotEmpty(t, item.Title)
	assert.NotEmpty(t, item.VideoURL)

	_, err = h.Handle(ctx, GetItemQuery{ItemID: "21-1"})
	require.ErrorIs(t, err, shared.ErrItemNotFound)

	_, err = h.Handle(ctx, GetItemQuery{ItemID: "not-an-id"})
	require.Error(t, err)
}
