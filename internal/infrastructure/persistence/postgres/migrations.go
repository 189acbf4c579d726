// Package postgres implements the PostgreSQL persistence layer for AI Kids Hub.
package postgres

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 001: CREATE LEARNERS
// ══════════════════════════════════════════════════════════════════════════════

const migration001Up = `
-- Migration: Create learners table
-- Version: 001

-- Main learners table. IDs are app-assigned (single-profile installs use a
-- fixed ID), so no UUID default here.
CREATE TABLE IF NOT EXISTS learners (
    id VARCHAR(64) PRIMARY KEY,
    name VARCHAR(100) NOT NULL,
    avatar TEXT NOT NULL DEFAULT '',
    role VARCHAR(10) NOT NULL DEFAULT 'child',
    current_xp INTEGER NOT NULL DEFAULT 0,
    tutor_interactions INTEGER NOT NULL DEFAULT 0,
    parent_pin_hash BYTEA,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT valid_role CHECK (role IN ('child', 'parent')),
    CONSTRAINT valid_xp CHECK (current_xp >= 0),
    CONSTRAINT valid_tutor_interactions CHECK (tutor_interactions >= 0)
);

CREATE INDEX IF NOT EXISTS idx_learners_current_xp ON learners(current_xp DESC);

-- Badge unlocks. Order of unlocking matters for the profile screen, so the
-- serial ID doubles as the unlock sequence.
CREATE TABLE IF NOT EXISTS badge_unlocks (
    id SERIAL PRIMARY KEY,
    learner_id VARCHAR(64) NOT NULL REFERENCES learners(id) ON DELETE CASCADE,
    badge_id VARCHAR(50) NOT NULL,
    unlocked_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    UNIQUE(learner_id, badge_id)
);

CREATE INDEX IF NOT EXISTS idx_badge_unlocks_learner ON badge_unlocks(learner_id);

-- XP history for the parent dashboard's activity timeline.
CREATE TABLE IF NOT EXISTS xp_history (
    id SERIAL PRIMARY KEY,
    learner_id VARCHAR(64) NOT NULL REFERENCES learners(id) ON DELETE CASCADE,
    old_xp INTEGER NOT NULL,
    new_xp INTEGER NOT NULL,
    delta INTEGER NOT NULL,
    reason VARCHAR(50) NOT NULL,
    item_id VARCHAR(10),
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_xp_history_learner ON xp_history(learner_id);
CREATE INDEX IF NOT EXISTS idx_xp_history_learner_date ON xp_history(learner_id, created_at DESC);

-- Updated_at trigger function for automatic timestamp updates
CREATE OR REPLACE FUNCTION update_updated_at_column()
RETURNS TRIGGER AS $$
BEGIN
    NEW.updated_at = NOW();
    RETURN NEW;
END;
$$ language 'plpgsql';

DROP TRIGGER IF EXISTS update_learners_updated_at ON learners;
CREATE TRIGGER update_learners_updated_at
    BEFORE UPDATE ON learners
    FOR EACH ROW
    EXECUTE FUNCTION update_updated_at_column();
`

const migration001Down = `
DROP TRIGGER IF EXISTS update_learners_updated_at ON learners;
DROP FUNCTION IF EXISTS update_updated_at_column();
DROP TABLE IF EXISTS xp_history;
DROP TABLE IF EXISTS badge_unlocks;
DROP TABLE IF EXISTS learners;
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 002: CREATE MODULE PROGRESS
// ══════════════════════════════════════════════════════════════════════════════

const migration002Up = `
-- Migration: Create module progress table
-- Version: 002
-- Purpose: Store per-module completion percentages per learner

CREATE TABLE IF NOT EXISTS module_progress (
    id SERIAL PRIMARY KEY,
    learner_id VARCHAR(64) NOT NULL REFERENCES learners(id) ON DELETE CASCADE,
    item_id VARCHAR(10) NOT NULL,
    progress INTEGER NOT NULL DEFAULT 0,
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    completed_at TIMESTAMP WITH TIME ZONE,

    UNIQUE(learner_id, item_id),
    CONSTRAINT valid_progress CHECK (progress >= 0 AND progress <= 100)
);

CREATE INDEX IF NOT EXISTS idx_module_progress_learner ON module_progress(learner_id);
CREATE INDEX IF NOT EXISTS idx_module_progress_completed
    ON module_progress(learner_id, completed_at)
    WHERE completed_at IS NOT NULL;
`

const migration002Down = `
DROP TABLE IF EXISTS module_progress;
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 003: CREATE AI INTERACTIONS
// ══════════════════════════════════════════════════════════════════════════════

const migration003Up = `
-- Migration: Create AI interaction tables
-- Version: 003
-- Purpose: Record tutor conversations and trailer generation tasks

-- Tutor exchanges, kept for the parent dashboard's conversation review.
CREATE TABLE IF NOT EXISTS tutor_messages (
    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    learner_id VARCHAR(64) NOT NULL REFERENCES learners(id) ON DELETE CASCADE,
    audience VARCHAR(10) NOT NULL DEFAULT 'child',
    question TEXT NOT NULL,
    answer TEXT NOT NULL,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT valid_audience CHECK (audience IN ('child', 'adult'))
);

CREATE INDEX IF NOT EXISTS idx_tutor_messages_learner ON tutor_messages(learner_id);
CREATE INDEX IF NOT EXISTS idx_tutor_messages_created ON tutor_messages(created_at DESC);

-- Trailer generation tasks. The in-process task manager is the source of
-- truth while a task runs; finished tasks land here for history.
CREATE TABLE IF NOT EXISTS trailer_tasks (
    id UUID PRIMARY KEY,
    learner_id VARCHAR(64) NOT NULL REFERENCES learners(id) ON DELETE CASCADE,
    status VARCHAR(20) NOT NULL DEFAULT 'pending',
    video_url TEXT,
    failure_reason TEXT,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    finished_at TIMESTAMP WITH TIME ZONE,

    CONSTRAINT valid_task_status CHECK (status IN ('pending', 'succeeded', 'failed', 'cancelled'))
);

CREATE INDEX IF NOT EXISTS idx_trailer_tasks_learner ON trailer_tasks(learner_id);
CREATE INDEX IF NOT EXISTS idx_trailer_tasks_status ON trailer_tasks(status) WHERE status = 'pending';
`

const migration003Down = `
DROP TABLE IF EXISTS trailer_tasks;
DROP TABLE IF EXISTS tutor_messages;
`
