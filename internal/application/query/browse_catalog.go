// Package query contains read operations (CQRS - Queries).
package query

import (
	"context"
	"errors"
	"fmt"

	"github.com/aikidslabs/ai-kids-hub/internal/domain/catalog"
	"github.com/aikidslabs/ai-kids-hub/internal/domain/progress"
	"github.com/aikidslabs/ai-kids-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// BROWSE CATALOG QUERY
// The home screen read: season shelves filtered by search text, age
// rating and content type, with the learner's progress joined onto every
// item. The catalog itself is deterministic and immutable; only the
// progress join varies per learner.
// ══════════════════════════════════════════════════════════════════════════════

// BrowseCatalogQuery contains the filter parameters for the browse view.
type BrowseCatalogQuery struct {
	// LearnerID joins this learner's progress onto the items.
	// Empty skips the join.
	LearnerID string

	// Search is the free-text filter over title, description and category.
	Search string

	// AgeRating keeps only items with this exact rating.
	// Empty or "Todos" keeps everything.
	AgeRating string

	// Type keeps only items of this content type when set.
	Type string
}

// Validate validates the query parameters.
func (q *BrowseCatalogQuery) Validate() error {
	if q.Type != "" {
		if _, err := shared.ParseContentType(q.Type); err != nil {
			return err
		}
	}
	if q.AgeRating != "" && q.AgeRating != catalog.AgeFilterAll {
		if _, err := shared.ParseAgeRating(q.AgeRating); err != nil {
			return err
		}
	}
	return nil
}

// ItemDTO is one catalog item with the learner's progress joined on.
type ItemDTO struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Thumbnail   string `json:"thumbnail"`
	VideoURL    string `json:"video_url"`
	Duration    string `json:"duration"`
	Description string `json:"description"`
	Category    string `json:"category"`
	AgeRating   string `json:"age_rating"`
	Type        string `json:"type"`

	// Progress is the learner's percentage on this item, 0-100.
	Progress int `json:"progress"`
}

// RowDTO is one season shelf.
type RowDTO struct {
	Category string    `json:"category"`
	Items    []ItemDTO `json:"items"`
}

// BrowseCatalogResult contains the filtered shelves.
type BrowseCatalogResult struct {
	Rows []RowDTO `json:"rows"`

	// TotalItems counts items across all returned shelves.
	TotalItems int `json:"total_items"`
}

// ══════════════════════════════════════════════════════════════════════════════
// HANDLER
// ══════════════════════════════════════════════════════════════════════════════

// BrowseCatalogHandler handles the BrowseCatalogQuery.
type BrowseCatalogHandler struct {
	catalog       *catalog.Catalog
	progressRepo  progress.Repository
	progressCache progress.Cache
}

// NewBrowseCatalogHandler creates a new BrowseCatalogHandler.
// The progress cache may be nil.
func NewBrowseCatalogHandler(cat *catalog.Catalog, progressRepo progress.Repository, progressCache progress.Cache) *BrowseCatalogHandler {
	return &BrowseCatalogHandler{
		catalog:       cat,
		progressRepo:  progressRepo,
		progressCache: progressCache,
	}
}

// Handle executes the browse catalog query.
func (h *BrowseCatalogHandler) Handle(ctx context.Context, q BrowseCatalogQuery) (*BrowseCatalogResult, error) {
	if err := q.Validate(); err != nil {
		return nil, fmt.Errorf("browse_catalog: %w", err)
	}

	filter := catalog.Filter{
		Query:     q.Search,
		AgeRating: q.AgeRating,
		Type:      shared.ContentType(q.Type),
	}
	rows := h.catalog.Rows(filter)

	snapshot, err := h.loadSnapshot(ctx, q.LearnerID)
	if err != nil {
		return nil, fmt.Errorf("browse_catalog: failed to load progress: %w", err)
	}

	result := &BrowseCatalogResult{Rows: make([]RowDTO, 0, len(rows))}
	for _, row := range rows {
		dto := RowDTO{Category: row.Category, Items: make([]ItemDTO, 0, len(row.Items))}
		for _, item := range row.Items {
			dto.Items = append(dto.Items, toItemDTO(item, snapshot[item.ID].Int()))
		}
		result.TotalItems += len(dto.Items)
		result.Rows = append(result.Rows, dto)
	}
	return result, nil
}

// loadSnapshot returns the learner's progress map, reading through the
// cache when one is wired.
func (h *BrowseCatalogHandler) loadSnapshot(ctx context.Context, learnerID string) (map[shared.ItemID]shared.ProgressValue, error) {
	if learnerID == "" {
		return nil, nil
	}

	if h.progressCache != nil {
		snapshot, err := h.progressCache.GetSnapshot(ctx, learnerID)
		if err == nil {
			return snapshot, nil
		}
		if !shared.IsNotFound(err) {
			// A broken cache degrades to the repository, not to an error.
			snapshot = nil
		}
	}

	tracker, err := h.progressRepo.Load(ctx, learnerID)
	if err != nil {
		return nil, err
	}
	snapshot := tracker.Snapshot()

	if h.progressCache != nil && len(snapshot) > 0 {
		_ = h.progressCache.SetSnapshot(ctx, learnerID, snapshot, 0)
	}
	return snapshot, nil
}

func toItemDTO(item catalog.Item, progressValue int) ItemDTO {
	return ItemDTO{
		ID:          item.ID.String(),
		Title:       item.Title,
		Thumbnail:   item.Thumbnail,
		VideoURL:    item.VideoURL,
		Duration:    item.Duration,
		Description: item.Description,
		Category:    item.Category,
		AgeRating:   item.AgeRating.String(),
		Type:        item.Type.String(),
		Progress:    progressValue,
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// GET ITEM QUERY
// Single-item read for the player screen.
// ══════════════════════════════════════════════════════════════════════════════

// GetItemQuery identifies one catalog item.
type GetItemQuery struct {
	// LearnerID joins this learner's progress. Empty skips the join.
	LearnerID string

	// ItemID is the catalog item, "{season}-{module}".
	ItemID string
}

// Validate validates the query parameters.
func (q *GetItemQuery) Validate() error {
	if q.ItemID == "" {
		return errors.New("get_item: item_id is required")
	}
	return nil
}

// GetItemHandler handles the GetItemQuery.
type GetItemHandler struct {
	catalog      *catalog.Catalog
	progressRepo progress.Repository
}

// NewGetItemHandler creates a new GetItemHandler.
func NewGetItemHandler(cat *catalog.Catalog, progressRepo progress.Repository) *GetItemHandler {
	return &GetItemHandler{catalog: cat, progressRepo: progressRepo}
}

// Handle executes the get item query.
func (h *GetItemHandler) Handle(ctx context.Context, q GetItemQuery) (*ItemDTO, error) {
	if err := q.Validate(); err != nil {
		return nil, fmt.Errorf("get_item: %w", err)
	}

	itemID, err := shared.ParseItemID(q.ItemID)
	if err != nil {
		return nil, fmt.Errorf("get_item: %w", err)
	}
	item, err := h.catalog.Get(itemID)
	if err != nil {
		return nil, err
	}

	value := 0
	if q.LearnerID != "" {
		tracker, err := h.progressRepo.Load(ctx, q.LearnerID)
		if err != nil {
			return nil, fmt.Errorf("get_item: failed to load progress: %w", err)
		}
		value = tracker.Get(itemID).Int()
	}

	dto := toItemDTO(item, value)
	return &dto, nil
}
