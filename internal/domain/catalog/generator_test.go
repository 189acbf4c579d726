package catalog

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aikidslabs/ai-kids-hub/internal/domain/shared"
)

func TestGenerate_SizeAndUniqueIDs(t *testing.T) {
	c := Generate()
	require.Equal(t, TotalItems, c.Len())

	seen := make(map[shared.ItemID]bool, TotalItems)
	for _, item := range c.Items() {
		assert.False(t, seen[item.ID], "duplicate id %s", item.ID)
		seen[item.ID] = true
	}
}

func TestGenerate_Deterministic(t *testing.T) {
	a := Generate()
	b := Generate()
	require.Equal(t, a.Len(), b.Len())
	for i := range a.Items() {
		assert.Equal(t, a.Items()[i], b.Items()[i])
	}
}

func TestGenerate_FirstItem(t *testing.T) {
	c := Generate()
	item, err := c.Get("1-1")
	require.NoError(t, err)

	assert.Equal(t, "Módulo 1: Neurônios Digitais", item.Title)
	assert.Equal(t, "Temporada 1: O Despertar da Máquina", item.Category)
	assert.Equal(t, shared.AgeRating12, item.AgeRating) // (0+1)%3 = 1
	assert.Equal(t, shared.ContentVideo, item.Type)     // (0*1)%3 = 0
	assert.Equal(t, "6 min", item.Duration)             // 5 + 1%15
	assert.Contains(t, item.Thumbnail, "neuron,technology,cyberpunk")
	assert.Contains(t, item.Thumbnail, "lock=7001")
	// Hand-written welcome blurb replaces the template for 1-1.
	assert.Contains(t, item.Description, "Bem-vindos ao primeiro módulo")
}

func TestGenerate_TemplatedDescription(t *testing.T) {
	c := Generate()
	item, err := c.Get("1-2")
	require.NoError(t, err)
	assert.Contains(t, item.Description, "Neste módulo da Temporada 1")
	assert.Contains(t, item.Description, strings.ToLower(item.Topic()))
}

func TestGenerate_TopicRotation(t *testing.T) {
	c := Generate()

	// Season 1: topic index is (m-1)%20, so module m gets topics[m-1].
	item, err := c.Get("1-5")
	require.NoError(t, err)
	assert.Equal(t, "Módulo 5: NLP Básico", item.Title)

	// Season 2 shifts the rotation by one.
	item, err = c.Get("2-5")
	require.NoError(t, err)
	assert.Equal(t, "Módulo 5: Redes Neurais", item.Title)

	// The rotation wraps at the end of the topic table.
	item, err = c.Get("2-20")
	require.NoError(t, err)
	assert.Equal(t, "Módulo 20: Neurônios Digitais", item.Title)
}

func TestGenerate_AgeRatingRotation(t *testing.T) {
	c := Generate()

	cases := map[shared.ItemID]shared.AgeRating{
		"1-1": shared.AgeRating12,    // (0+1)%3 = 1
		"1-2": shared.AgeRatingAdult, // (0+2)%3 = 2
		"1-3": shared.AgeRating7,     // (0+3)%3 = 0
		"3-4": shared.AgeRating7,     // (2+4)%3 = 0
	}
	for id, want := range cases {
		item, err := c.Get(id)
		require.NoError(t, err)
		assert.Equal(t, want, item.AgeRating, "item %s", id)
	}
}

func TestGenerate_TypeAndDuration(t *testing.T) {
	c := Generate()

	// Season 1 (s=0): s*m is always 0, so every item is a video.
	items, err := c.Season(1)
	require.NoError(t, err)
	for _, item := range items {
		assert.Equal(t, shared.ContentVideo, item.Type)
		assert.Contains(t, item.Duration, "min")
	}

	// Season 2 (s=1): type index is m%3.
	item, err := c.Get("2-2")
	require.NoError(t, err)
	assert.Equal(t, shared.ContentGame, item.Type)
	assert.Equal(t, "Desafio", item.Duration)

	item, err = c.Get("2-1")
	require.NoError(t, err)
	assert.Equal(t, shared.ContentInteractive, item.Type)
	assert.Equal(t, "Interativo", item.Duration)
}

func TestGenerate_VideoBucketAssignment(t *testing.T) {
	c := Generate()

	// "1-1" is Neurônios Digitais -> AI_CORE bucket {0,6,7}, index (0+1)%3 = 1.
	item, err := c.Get("1-1")
	require.NoError(t, err)
	assert.Equal(t, stockVideos[6], item.VideoURL)

	// Every item must point at one of the stock streams.
	pool := make(map[string]bool, len(stockVideos))
	for _, url := range stockVideos {
		pool[url] = true
	}
	for _, item := range c.Items() {
		assert.True(t, pool[item.VideoURL], "item %s has unknown video URL", item.ID)
	}
}

func TestCatalog_Get_NotFound(t *testing.T) {
	c := Generate()
	_, err := c.Get("99-99")
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestCatalog_Season_Bounds(t *testing.T) {
	c := Generate()

	items, err := c.Season(20)
	require.NoError(t, err)
	assert.Len(t, items, ModulesPerSeason)
	assert.Equal(t, shared.ItemID("20-1"), items[0].ID)

	_, err = c.Season(0)
	assert.ErrorIs(t, err, shared.ErrValueOutOfRange)
	_, err = c.Season(21)
	assert.ErrorIs(t, err, shared.ErrValueOutOfRange)
}

func TestCategories_Order(t *testing.T) {
	cats := Categories()
	require.Len(t, cats, SeasonCount)
	assert.Equal(t, "Temporada 1: O Despertar da Máquina", cats[0])
	assert.Equal(t, "Temporada 20: Singularidade e Além", cats[19])
}
