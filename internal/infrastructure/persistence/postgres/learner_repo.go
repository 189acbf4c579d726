// Package postgres implements the PostgreSQL persistence layer for AI Kids Hub.
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/aikidslabs/ai-kids-hub/internal/domain/learner"
	"github.com/aikidslabs/ai-kids-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// LEARNER REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// LearnerRepository implements learner.Repository for PostgreSQL.
// Badge unlocks live in their own table keyed by unlock order, so the
// profile row never carries a denormalized badge list.
type LearnerRepository struct {
	conn *Connection
}

// NewLearnerRepository creates a new LearnerRepository.
func NewLearnerRepository(conn *Connection) *LearnerRepository {
	return &LearnerRepository{conn: conn}
}

// ─────────────────────────────────────────────────────────────────────────────
// CRUD Operations
// ─────────────────────────────────────────────────────────────────────────────

// Create stores a new learner profile.
func (r *LearnerRepository) Create(ctx context.Context, l *learner.Learner) error {
	query := `
		INSERT INTO learners (
			id, name, avatar, role, current_xp, tutor_interactions,
			parent_pin_hash, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	err := r.conn.WithTx(ctx, DefaultTxOptions(), func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, query,
			l.ID,
			l.Name,
			l.Avatar,
			string(l.Role),
			int(l.XP),
			l.TutorInteractions,
			l.ParentPINHash,
			l.CreatedAt,
			l.UpdatedAt,
		)
		if err != nil {
			return err
		}
		return r.syncBadges(ctx, tx, l)
	})
	if err != nil {
		if IsUniqueViolation(err) {
			return shared.ErrAlreadyExists
		}
		return fmt.Errorf("failed to create learner: %w", err)
	}

	return nil
}

// GetByID returns a learner by ID, badges included.
func (r *LearnerRepository) GetByID(ctx context.Context, id string) (*learner.Learner, error) {
	query := `
		SELECT id, name, avatar, role, current_xp, tutor_interactions,
			   parent_pin_hash, created_at, updated_at
		FROM learners
		WHERE id = $1
	`

	row := r.conn.QueryRow(ctx, query, id)
	l, err := r.scanLearner(row)
	if err != nil {
		return nil, err
	}

	badges, err := r.loadBadges(ctx, id)
	if err != nil {
		return nil, err
	}
	l.Badges = badges

	return l, nil
}

// Update persists profile changes and reconciles badge unlocks.
func (r *LearnerRepository) Update(ctx context.Context, l *learner.Learner) error {
	query := `
		UPDATE learners
		SET name = $2, avatar = $3, role = $4, current_xp = $5,
			tutor_interactions = $6, parent_pin_hash = $7
		WHERE id = $1
	`

	err := r.conn.WithTx(ctx, DefaultTxOptions(), func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, query,
			l.ID,
			l.Name,
			l.Avatar,
			string(l.Role),
			int(l.XP),
			l.TutorInteractions,
			l.ParentPINHash,
		)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return shared.ErrLearnerNotFound
		}
		return r.syncBadges(ctx, tx, l)
	})
	if err != nil {
		if shared.IsNotFound(err) {
			return err
		}
		return fmt.Errorf("failed to update learner: %w", err)
	}

	return nil
}

// Delete removes a learner profile. Badge unlocks, progress and history
// follow via ON DELETE CASCADE.
func (r *LearnerRepository) Delete(ctx context.Context, id string) error {
	_, err := r.conn.Exec(ctx, `DELETE FROM learners WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete learner: %w", err)
	}
	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// XP History
// ─────────────────────────────────────────────────────────────────────────────

// XPHistoryEntry is one row of the XP audit trail.
type XPHistoryEntry struct {
	LearnerID string
	OldXP     int
	NewXP     int
	Delta     int
	Reason    string
	ItemID    string
	CreatedAt time.Time
}

// RecordXPChange appends an entry to the XP history.
func (r *LearnerRepository) RecordXPChange(ctx context.Context, entry XPHistoryEntry) error {
	query := `
		INSERT INTO xp_history (learner_id, old_xp, new_xp, delta, reason, item_id)
		VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''))
	`

	_, err := r.conn.Exec(ctx, query,
		entry.LearnerID,
		entry.OldXP,
		entry.NewXP,
		entry.Delta,
		entry.Reason,
		entry.ItemID,
	)
	if err != nil {
		return fmt.Errorf("failed to record xp change: %w", err)
	}
	return nil
}

// XPHistory returns the most recent XP changes of a learner, newest first.
func (r *LearnerRepository) XPHistory(ctx context.Context, learnerID string, limit int) ([]XPHistoryEntry, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT learner_id, old_xp, new_xp, delta, reason, COALESCE(item_id, ''), created_at
		FROM xp_history
		WHERE learner_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := r.conn.Query(ctx, query, learnerID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query xp history: %w", err)
	}
	defer rows.Close()

	var entries []XPHistoryEntry
	for rows.Next() {
		var e XPHistoryEntry
		if err := rows.Scan(&e.LearnerID, &e.OldXP, &e.NewXP, &e.Delta, &e.Reason, &e.ItemID, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan xp history row: %w", err)
		}
		entries = append(entries, e)
	}

	return entries, rows.Err()
}

// ─────────────────────────────────────────────────────────────────────────────
// Internal helpers
// ─────────────────────────────────────────────────────────────────────────────

func (r *LearnerRepository) scanLearner(row pgx.Row) (*learner.Learner, error) {
	var (
		l    learner.Learner
		role string
		xp   int
	)

	err := row.Scan(
		&l.ID,
		&l.Name,
		&l.Avatar,
		&role,
		&xp,
		&l.TutorInteractions,
		&l.ParentPINHash,
		&l.CreatedAt,
		&l.UpdatedAt,
	)
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrLearnerNotFound
		}
		return nil, fmt.Errorf("failed to scan learner: %w", err)
	}

	l.Role = learner.Role(role)
	l.XP = shared.XP(xp)
	return &l, nil
}

func (r *LearnerRepository) loadBadges(ctx context.Context, learnerID string) ([]string, error) {
	query := `
		SELECT badge_id
		FROM badge_unlocks
		WHERE learner_id = $1
		ORDER BY id
	`

	rows, err := r.conn.Query(ctx, query, learnerID)
	if err != nil {
		return nil, fmt.Errorf("failed to query badges: %w", err)
	}
	defer rows.Close()

	badges := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan badge row: %w", err)
		}
		badges = append(badges, id)
	}

	return badges, rows.Err()
}

// syncBadges inserts unlocks present on the aggregate but missing in storage.
// Unlocks are never removed; badges are permanent.
func (r *LearnerRepository) syncBadges(ctx context.Context, tx pgx.Tx, l *learner.Learner) error {
	query := `
		INSERT INTO badge_unlocks (learner_id, badge_id)
		VALUES ($1, $2)
		ON CONFLICT (learner_id, badge_id) DO NOTHING
	`

	for _, badgeID := range l.Badges {
		if _, err := tx.Exec(ctx, query, l.ID, badgeID); err != nil {
			return fmt.Errorf("failed to sync badge %s: %w", badgeID, err)
		}
	}
	return nil
}
