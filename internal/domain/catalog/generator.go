package catalog

import (
	"fmt"
	"strings"

	"github.com/aikidslabs/ai-kids-hub/internal/domain/shared"
)

// firstModuleDescription replaces the templated blurb for item "1-1",
// which the home screen features as the welcome module.
const firstModuleDescription = "Bem-vindos ao primeiro módulo. A era dos neurônios digitais chegou. " +
	"Explore como as simulações imersivas e a lógica neural estão moldando o futuro da inteligência artificial. " +
	"Prepare-se para uma jornada onde a biologia encontra o código."

// Catalog holds the full generated item set with an index by ID.
// It is immutable after construction and safe for concurrent reads.
type Catalog struct {
	items []Item
	byID  map[shared.ItemID]int
}

// Generate builds the complete 400-item catalog from the fixed tables.
// The output is fully deterministic.
func Generate() *Catalog {
	c := &Catalog{
		items: make([]Item, 0, TotalItems),
		byID:  make(map[shared.ItemID]int, TotalItems),
	}

	for s := 0; s < SeasonCount; s++ {
		theme := seasonVisualThemes[s]
		for m := 1; m <= ModulesPerSeason; m++ {
			item := generateItem(s, m, theme)
			c.byID[item.ID] = len(c.items)
			c.items = append(c.items, item)
		}
	}

	return c
}

// generateItem derives the item for season index s (0-based) and module m (1-based).
func generateItem(s, m int, theme string) Item {
	id := shared.NewItemID(s+1, m)
	topic := moduleTopic(m, s)

	keyword := topicKeywords[topic]
	if keyword == "" {
		keyword = "technology"
	}
	lockID := s*ModulesPerSeason + m + 7000
	thumbnail := fmt.Sprintf("https://loremflickr.com/800/450/%s,technology,%s?lock=%d", keyword, theme, lockID)

	bucketName := topicVideoBucket[topic]
	if bucketName == "" {
		bucketName = "AI_CORE"
	}
	bucket := videoBuckets[bucketName]
	videoURL := stockVideos[bucket[(s+m)%len(bucket)]]

	contentType := shared.ContentTypes[(s*m)%len(shared.ContentTypes)]

	var duration string
	switch contentType {
	case shared.ContentVideo:
		duration = fmt.Sprintf("%d min", 5+(m%15))
	case shared.ContentGame:
		duration = "Desafio"
	default:
		duration = "Interativo"
	}

	description := fmt.Sprintf(
		"Neste módulo da Temporada %d, mergulhamos no conceito de %s. "+
			"Descubra como essa tecnologia está moldando o futuro através de exemplos práticos e simulações imersivas.",
		s+1, strings.ToLower(topic))
	if id == "1-1" {
		description = firstModuleDescription
	}

	return Item{
		ID:          id,
		Title:       fmt.Sprintf("Módulo %d: %s", m, topic),
		Thumbnail:   thumbnail,
		VideoURL:    videoURL,
		Duration:    duration,
		Description: description,
		Category:    CategoryName(s + 1),
		AgeRating:   shared.AgeRatings[(s+m)%len(shared.AgeRatings)],
		Type:        contentType,
	}
}

// CategoryName returns the row label for a 1-based season number.
func CategoryName(season int) string {
	return fmt.Sprintf("Temporada %d: %s", season, seasonTitles[season-1])
}

// Categories returns all season row labels in season order.
func Categories() []string {
	out := make([]string, SeasonCount)
	for s := 0; s < SeasonCount; s++ {
		out[s] = CategoryName(s + 1)
	}
	return out
}

// Items returns all items in generation order (season, then module).
// The returned slice must not be modified.
func (c *Catalog) Items() []Item {
	return c.items
}

// Get looks up an item by ID.
func (c *Catalog) Get(id shared.ItemID) (Item, error) {
	idx, ok := c.byID[id]
	if !ok {
		return Item{}, shared.ErrItemNotFound
	}
	return c.items[idx], nil
}

// Season returns all items of a 1-based season, in module order.
func (c *Catalog) Season(season int) ([]Item, error) {
	if season < 1 || season > SeasonCount {
		return nil, shared.ErrInvalidSeason
	}
	start := (season - 1) * ModulesPerSeason
	return c.items[start : start+ModulesPerSeason], nil
}

// Len returns the number of items in the catalog.
func (c *Catalog) Len() int {
	return len(c.items)
}
