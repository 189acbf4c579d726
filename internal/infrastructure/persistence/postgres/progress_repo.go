package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/aikidslabs/ai-kids-hub/internal/domain/progress"
	"github.com/aikidslabs/ai-kids-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// PROGRESS REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// ProgressRepository implements progress.Repository for PostgreSQL.
// One row per (learner, item); monotonicity is enforced by the domain
// tracker, the upsert here just writes whatever state it is handed.
type ProgressRepository struct {
	conn *Connection
}

// NewProgressRepository creates a new ProgressRepository.
func NewProgressRepository(conn *Connection) *ProgressRepository {
	return &ProgressRepository{conn: conn}
}

// Load returns the tracker of a learner. A learner with no rows gets an
// empty tracker.
func (r *ProgressRepository) Load(ctx context.Context, learnerID string) (*progress.Tracker, error) {
	query := `
		SELECT item_id, progress, updated_at, completed_at
		FROM module_progress
		WHERE learner_id = $1
	`

	rows, err := r.conn.Query(ctx, query, learnerID)
	if err != nil {
		return nil, fmt.Errorf("failed to query progress: %w", err)
	}
	defer rows.Close()

	var records []progress.Record
	for rows.Next() {
		var (
			itemID      string
			value       int
			updatedAt   time.Time
			completedAt *time.Time
		)
		if err := rows.Scan(&itemID, &value, &updatedAt, &completedAt); err != nil {
			return nil, fmt.Errorf("failed to scan progress row: %w", err)
		}

		record := progress.Record{
			ItemID:    shared.ItemID(itemID),
			Value:     shared.ProgressValue(value),
			UpdatedAt: updatedAt,
		}
		if completedAt != nil {
			record.CompletedAt = *completedAt
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read progress rows: %w", err)
	}

	return progress.Restore(learnerID, records), nil
}

// Save persists the full tracker state.
func (r *ProgressRepository) Save(ctx context.Context, tracker *progress.Tracker) error {
	if tracker == nil {
		return shared.ErrInvalidInput
	}

	for _, record := range tracker.Records() {
		if err := r.SaveRecord(ctx, tracker.LearnerID, record); err != nil {
			return err
		}
	}
	return nil
}

// SaveRecord upserts a single progress row.
func (r *ProgressRepository) SaveRecord(ctx context.Context, learnerID string, record progress.Record) error {
	query := `
		INSERT INTO module_progress (learner_id, item_id, progress, updated_at, completed_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (learner_id, item_id) DO UPDATE
		SET progress = EXCLUDED.progress,
			updated_at = EXCLUDED.updated_at,
			completed_at = COALESCE(module_progress.completed_at, EXCLUDED.completed_at)
	`

	var completedAt *time.Time
	if !record.CompletedAt.IsZero() {
		completedAt = &record.CompletedAt
	}

	updatedAt := record.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now()
	}

	_, err := r.conn.Exec(ctx, query,
		learnerID,
		record.ItemID.String(),
		record.Value.Int(),
		updatedAt,
		completedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save progress record: %w", err)
	}

	return nil
}

// Delete removes all progress rows of a learner.
func (r *ProgressRepository) Delete(ctx context.Context, learnerID string) error {
	_, err := r.conn.Exec(ctx, `DELETE FROM module_progress WHERE learner_id = $1`, learnerID)
	if err != nil {
		return fmt.Errorf("failed to delete progress: %w", err)
	}
	return nil
}

// CompletedPerSeason returns a season -> completed-count map, used by the
// parent dashboard to render the season grid without loading full trackers.
func (r *ProgressRepository) CompletedPerSeason(ctx context.Context, learnerID string) (map[int]int, error) {
	query := `
		SELECT split_part(item_id, '-', 1)::int AS season, COUNT(*)
		FROM module_progress
		WHERE learner_id = $1 AND progress >= 100
		GROUP BY season
	`

	rows, err := r.conn.Query(ctx, query, learnerID)
	if err != nil {
		return nil, fmt.Errorf("failed to query season completion: %w", err)
	}
	defer rows.Close()

	counts := make(map[int]int)
	for rows.Next() {
		var season, count int
		if err := rows.Scan(&season, &count); err != nil {
			return nil, fmt.Errorf("failed to scan season completion row: %w", err)
		}
		counts[season] = count
	}

	return counts, rows.Err()
}
