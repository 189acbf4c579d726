// Package catalog contains the content catalog: the deterministic item
// generator, the season/module tables, and the filter engine used by the
// browse queries. The catalog is derived entirely from fixed tables, so two
// generations always produce identical items.
package catalog

import (
	"github.com/aikidslabs/ai-kids-hub/internal/domain/shared"
)

const (
	// SeasonCount is the number of seasons in the catalog.
	SeasonCount = 20

	// ModulesPerSeason is the number of modules in every season.
	ModulesPerSeason = 20

	// TotalItems is the full catalog size.
	TotalItems = SeasonCount * ModulesPerSeason
)

// Item is a single entry of the content catalog.
type Item struct {
	// ID is the "season-module" identifier, e.g. "1-1".
	ID shared.ItemID `json:"id"`

	// Title is the display title, e.g. "Módulo 3: Sensores Ativos".
	Title string `json:"title"`

	// Thumbnail is the poster image URL.
	Thumbnail string `json:"thumbnail"`

	// VideoURL points to the stock stream used by the player.
	VideoURL string `json:"videoUrl"`

	// Duration is the display duration label. Videos carry a minute count,
	// games show "Desafio" and interactive items show "Interativo".
	Duration string `json:"duration"`

	// Description is the module blurb shown in the detail panel.
	Description string `json:"description"`

	// Category is the season row label, e.g. "Temporada 1: O Despertar da Máquina".
	Category string `json:"category"`

	// AgeRating restricts who may view the item.
	AgeRating shared.AgeRating `json:"ageRating"`

	// Type distinguishes videos from games and interactive modules.
	Type shared.ContentType `json:"type"`
}

// Season returns the 1-based season number of the item.
func (i Item) Season() int {
	return i.ID.Season()
}

// Module returns the 1-based module number of the item.
func (i Item) Module() int {
	return i.ID.Module()
}

// Topic returns the rotating curriculum topic of the item.
func (i Item) Topic() string {
	return moduleTopic(i.Module(), i.Season()-1)
}

// Row is a season shelf: the row label plus the items it contains,
// in module order.
type Row struct {
	Category string `json:"category"`
	Items    []Item `json:"items"`
}
