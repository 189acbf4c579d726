package catalog

import (
	"strings"

	"github.com/aikidslabs/ai-kids-hub/internal/domain/shared"
)

// AgeFilterAll disables age filtering.
const AgeFilterAll = "Todos"

// Filter selects catalog items for the browse view. The zero value
// matches everything.
type Filter struct {
	// Query is a free-text search term. Matching is case-insensitive over
	// title, description and category. Empty means no text filtering.
	Query string

	// AgeRating keeps only items with exactly this rating.
	// Empty or AgeFilterAll keeps all ratings.
	AgeRating string

	// Type keeps only items of this content type when set.
	Type shared.ContentType
}

// IsZero reports whether the filter matches everything.
func (f Filter) IsZero() bool {
	return f.Query == "" && (f.AgeRating == "" || f.AgeRating == AgeFilterAll) && f.Type == ""
}

// Matches reports whether the item passes the filter.
func (f Filter) Matches(item Item) bool {
	if f.AgeRating != "" && f.AgeRating != AgeFilterAll && string(item.AgeRating) != f.AgeRating {
		return false
	}
	if f.Type != "" && item.Type != f.Type {
		return false
	}

	query := strings.ToLower(strings.TrimSpace(f.Query))
	if query == "" {
		return true
	}
	return strings.Contains(strings.ToLower(item.Title), query) ||
		strings.Contains(strings.ToLower(item.Description), query) ||
		strings.Contains(strings.ToLower(item.Category), query)
}

// Rows applies the filter and groups surviving items into season shelves,
// preserving season order and module order within each shelf. Seasons with
// no matching items are dropped entirely.
func (c *Catalog) Rows(f Filter) []Row {
	rows := make([]Row, 0, SeasonCount)
	for s := 1; s <= SeasonCount; s++ {
		start := (s - 1) * ModulesPerSeason
		var items []Item
		for _, item := range c.items[start : start+ModulesPerSeason] {
			if f.Matches(item) {
				items = append(items, item)
			}
		}
		if len(items) == 0 {
			continue
		}
		rows = append(rows, Row{Category: CategoryName(s), Items: items})
	}
	return rows
}

// Find applies the filter over the whole catalog and returns matches
// in generation order.
func (c *Catalog) Find(f Filter) []Item {
	var out []Item
	for _, item := range c.items {
		if f.Matches(item) {
			out = append(out, item)
		}
	}
	return out
}
