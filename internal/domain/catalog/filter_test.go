package catalog

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aikidslabs/ai-kids-hub/internal/domain/shared"
)

func TestFilter_Zero_MatchesEverything(t *testing.T) {
	c := Generate()
	rows := c.Rows(Filter{})
	require.Len(t, rows, SeasonCount)
	total := 0
	for _, row := range rows {
		total += len(row.Items)
	}
	assert.Equal(t, TotalItems, total)
}

func TestFilter_AgeRating(t *testing.T) {
	c := Generate()
	items := c.Find(Filter{AgeRating: "7+"})
	require.NotEmpty(t, items)
	for _, item := range items {
		assert.Equal(t, shared.AgeRating7, item.AgeRating)
	}

	// "Todos" behaves like no filter at all.
	assert.Len(t, c.Find(Filter{AgeRating: AgeFilterAll}), TotalItems)
}

func TestFilter_Search_CaseInsensitive(t *testing.T) {
	c := Generate()

	lower := c.Find(Filter{Query: "robôs"})
	upper := c.Find(Filter{Query: "ROBÔS"})
	require.NotEmpty(t, lower)
	assert.Equal(t, lower, upper)

	// "robôs" appears in the Season 3 category label, so every item of that
	// season matches through its category.
	for _, item := range lower {
		matched := strings.Contains(strings.ToLower(item.Title), "robôs") ||
			strings.Contains(strings.ToLower(item.Description), "robôs") ||
			strings.Contains(strings.ToLower(item.Category), "robôs")
		assert.True(t, matched, "item %s", item.ID)
	}
}

func TestFilter_Search_MatchesTitleAndDescription(t *testing.T) {
	c := Generate()
	items := c.Find(Filter{Query: "criptografia"})
	require.NotEmpty(t, items)
	// Criptografia appears once per season as a module topic.
	assert.Len(t, items, SeasonCount)
}

func TestFilter_Rows_DropsEmptySeasons(t *testing.T) {
	c := Generate()

	rows := c.Rows(Filter{Query: "singularidade"})
	require.Len(t, rows, 1)
	assert.Equal(t, "Temporada 20: Singularidade e Além", rows[0].Category)
	assert.Len(t, rows[0].Items, ModulesPerSeason)
}

func TestFilter_Rows_PreservesOrder(t *testing.T) {
	c := Generate()
	rows := c.Rows(Filter{AgeRating: "12+"})
	require.NotEmpty(t, rows)

	lastSeason := 0
	for _, row := range rows {
		require.NotEmpty(t, row.Items)
		season := row.Items[0].Season()
		assert.Greater(t, season, lastSeason, "season rows out of order")
		lastSeason = season

		lastModule := 0
		for _, item := range row.Items {
			assert.Greater(t, item.Module(), lastModule, "modules out of order in %s", row.Category)
			lastModule = item.Module()
		}
	}
}

func TestFilter_Combined(t *testing.T) {
	c := Generate()
	items := c.Find(Filter{Query: "neurônios", AgeRating: "12+", Type: shared.ContentVideo})
	for _, item := range items {
		assert.Equal(t, shared.AgeRating12, item.AgeRating)
		assert.Equal(t, shared.ContentVideo, item.Type)
	}
	// "1-1" is the canonical match: title topic, 12+ rating, video type.
	found := false
	for _, item := range items {
		if item.ID == "1-1" {
			found = true
		}
	}
	assert.True(t, found)
}

func TestFilter_NoMatches(t *testing.T) {
	c := Generate()
	assert.Empty(t, c.Rows(Filter{Query: "xyzzy"}))
	assert.Empty(t, c.Find(Filter{Query: "xyzzy"}))
}
