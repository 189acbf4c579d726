// Package shared contains common domain types, errors, events, and value objects
// that are used across all domain packages.
package shared

import (
	"encoding/json"
	"time"
)

// EventType represents the type of domain event.
type EventType string

// Domain event types - these drive the event-driven architecture.
// Each event represents something significant that happened in the domain.
const (
	// Module events
	EventProgressUpdated EventType = "module.progress_updated"
	EventModuleCompleted EventType = "module.completed"

	// Learner events
	EventXPGained       EventType = "learner.xp_gained"
	EventLevelUp        EventType = "learner.level_up"
	EventBadgeUnlocked  EventType = "learner.badge_unlocked"
	EventSeasonMastered EventType = "learner.season_mastered"

	// Tutor events
	EventTutorInteracted EventType = "tutor.interacted"

	// Trailer events
	EventTrailerRequested EventType = "trailer.requested"
	EventTrailerSucceeded EventType = "trailer.succeeded"
	EventTrailerFailed    EventType = "trailer.failed"

	// Notification events
	EventNotificationPushed    EventType = "notification.pushed"
	EventNotificationExpired   EventType = "notification.expired"
	EventNotificationDismissed EventType = "notification.dismissed"

	// System events
	EventParentVerified EventType = "system.parent_verified"
)

// Event is the base interface for all domain events.
type Event interface {
	// EventType returns the type of the event.
	EventType() EventType

	// OccurredAt returns when the event occurred.
	OccurredAt() time.Time

	// AggregateID returns the ID of the aggregate that produced this event.
	AggregateID() string

	// Payload returns the event data as a map for serialization.
	Payload() map[string]interface{}
}

// BaseEvent provides common event functionality.
type BaseEvent struct {
	Type          EventType `json:"type"`
	Timestamp     time.Time `json:"timestamp"`
	AggregateId   string    `json:"aggregate_id"`
	Version       int       `json:"version"`
	CorrelationID string    `json:"correlation_id,omitempty"`
}

// EventType implements Event interface.
func (e BaseEvent) EventType() EventType {
	return e.Type
}

// OccurredAt implements Event interface.
func (e BaseEvent) OccurredAt() time.Time {
	return e.Timestamp
}

// AggregateID implements Event interface.
func (e BaseEvent) AggregateID() string {
	return e.AggregateId
}

// NewBaseEvent creates a new base event.
func NewBaseEvent(eventType EventType, aggregateID string) BaseEvent {
	return BaseEvent{
		Type:        eventType,
		Timestamp:   time.Now(),
		AggregateId: aggregateID,
		Version:     1,
	}
}

// WithCorrelationID sets the correlation ID for tracing.
func (e BaseEvent) WithCorrelationID(id string) BaseEvent {
	e.CorrelationID = id
	return e
}

// ═══════════════════════════════════════════════════════════════════════════
// Module Events
// ═══════════════════════════════════════════════════════════════════════════

// ProgressUpdatedEvent is emitted when a learner's progress on an item advances.
type ProgressUpdatedEvent struct {
	BaseEvent
	LearnerID string `json:"learner_id"`
	ItemID    string `json:"item_id"`
	OldValue  int    `json:"old_value"`
	NewValue  int    `json:"new_value"`
}

// Payload implements Event interface.
func (e ProgressUpdatedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"learner_id": e.LearnerID,
		"item_id":    e.ItemID,
		"old_value":  e.OldValue,
		"new_value":  e.NewValue,
	}
}

// NewProgressUpdatedEvent creates a new ProgressUpdatedEvent.
func NewProgressUpdatedEvent(learnerID, itemID string, oldValue, newValue int) ProgressUpdatedEvent {
	return ProgressUpdatedEvent{
		BaseEvent: NewBaseEvent(EventProgressUpdated, learnerID),
		LearnerID: learnerID,
		ItemID:    itemID,
		OldValue:  oldValue,
		NewValue:  newValue,
	}
}

// ModuleCompletedEvent is emitted when an item first reaches full progress.
type ModuleCompletedEvent struct {
	BaseEvent
	LearnerID string `json:"learner_id"`
	ItemID    string `json:"item_id"`
	Season    int    `json:"season"`
	Module    int    `json:"module"`
}

// Payload implements Event interface.
func (e ModuleCompletedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"learner_id": e.LearnerID,
		"item_id":    e.ItemID,
		"season":     e.Season,
		"module":     e.Module,
	}
}

// NewModuleCompletedEvent creates a new ModuleCompletedEvent.
func NewModuleCompletedEvent(learnerID, itemID string, season, module int) ModuleCompletedEvent {
	return ModuleCompletedEvent{
		BaseEvent: NewBaseEvent(EventModuleCompleted, learnerID),
		LearnerID: learnerID,
		ItemID:    itemID,
		Season:    season,
		Module:    module,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Learner Events
// ═══════════════════════════════════════════════════════════════════════════

// XPGainedEvent is emitted when a learner gains XP.
type XPGainedEvent struct {
	BaseEvent
	LearnerID string `json:"learner_id"`
	Amount    int    `json:"amount"`
	NewTotal  int    `json:"new_total"`
	Source    string `json:"source"` // e.g., "module_completion", "season_mastery"
	ItemID    string `json:"item_id,omitempty"`
}

// Payload implements Event interface.
func (e XPGainedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"learner_id": e.LearnerID,
		"amount":     e.Amount,
		"new_total":  e.NewTotal,
		"source":     e.Source,
		"item_id":    e.ItemID,
	}
}

// NewXPGainedEvent creates a new XPGainedEvent.
func NewXPGainedEvent(learnerID string, amount, newTotal int, source, itemID string) XPGainedEvent {
	return XPGainedEvent{
		BaseEvent: NewBaseEvent(EventXPGained, learnerID),
		LearnerID: learnerID,
		Amount:    amount,
		NewTotal:  newTotal,
		Source:    source,
		ItemID:    itemID,
	}
}

// LevelUpEvent is emitted when a learner's level increases.
type LevelUpEvent struct {
	BaseEvent
	LearnerID string `json:"learner_id"`
	OldLevel  int    `json:"old_level"`
	NewLevel  int    `json:"new_level"`
	TotalXP   int    `json:"total_xp"`
}

// Payload implements Event interface.
func (e LevelUpEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"learner_id": e.LearnerID,
		"old_level":  e.OldLevel,
		"new_level":  e.NewLevel,
		"total_xp":   e.TotalXP,
	}
}

// NewLevelUpEvent creates a new LevelUpEvent.
func NewLevelUpEvent(learnerID string, oldLevel, newLevel, totalXP int) LevelUpEvent {
	return LevelUpEvent{
		BaseEvent: NewBaseEvent(EventLevelUp, learnerID),
		LearnerID: learnerID,
		OldLevel:  oldLevel,
		NewLevel:  newLevel,
		TotalXP:   totalXP,
	}
}

// BadgeUnlockedEvent is emitted when a learner unlocks a badge.
type BadgeUnlockedEvent struct {
	BaseEvent
	LearnerID string `json:"learner_id"`
	BadgeID   string `json:"badge_id"`
	Title     string `json:"title"`
	ItemID    string `json:"item_id,omitempty"` // Item that triggered the unlock
}

// Payload implements Event interface.
func (e BadgeUnlockedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"learner_id": e.LearnerID,
		"badge_id":   e.BadgeID,
		"title":      e.Title,
		"item_id":    e.ItemID,
	}
}

// NewBadgeUnlockedEvent creates a new BadgeUnlockedEvent.
func NewBadgeUnlockedEvent(learnerID, badgeID, title string) BadgeUnlockedEvent {
	return BadgeUnlockedEvent{
		BaseEvent: NewBaseEvent(EventBadgeUnlocked, learnerID),
		LearnerID: learnerID,
		BadgeID:   badgeID,
		Title:     title,
	}
}

// WithItem records the item that triggered the unlock.
func (e BadgeUnlockedEvent) WithItem(itemID string) BadgeUnlockedEvent {
	e.ItemID = itemID
	return e
}

// SeasonMasteredEvent is emitted when every item of a season reaches full progress.
type SeasonMasteredEvent struct {
	BaseEvent
	LearnerID string `json:"learner_id"`
	Season    int    `json:"season"`
	XPAwarded int    `json:"xp_awarded"`
}

// Payload implements Event interface.
func (e SeasonMasteredEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"learner_id": e.LearnerID,
		"season":     e.Season,
		"xp_awarded": e.XPAwarded,
	}
}

// NewSeasonMasteredEvent creates a new SeasonMasteredEvent.
func NewSeasonMasteredEvent(learnerID string, season, xpAwarded int) SeasonMasteredEvent {
	return SeasonMasteredEvent{
		BaseEvent: NewBaseEvent(EventSeasonMastered, learnerID),
		LearnerID: learnerID,
		Season:    season,
		XPAwarded: xpAwarded,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Tutor Events
// ═══════════════════════════════════════════════════════════════════════════

// TutorInteractedEvent is emitted when a learner sends a message to the tutor.
type TutorInteractedEvent struct {
	BaseEvent
	LearnerID string `json:"learner_id"`
	Audience  string `json:"audience"` // "child" or "adult"
	First     bool   `json:"first"`    // First tutor interaction for this learner
}

// Payload implements Event interface.
func (e TutorInteractedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"learner_id": e.LearnerID,
		"audience":   e.Audience,
		"first":      e.First,
	}
}

// NewTutorInteractedEvent creates a new TutorInteractedEvent.
func NewTutorInteractedEvent(learnerID, audience string, first bool) TutorInteractedEvent {
	return TutorInteractedEvent{
		BaseEvent: NewBaseEvent(EventTutorInteracted, learnerID),
		LearnerID: learnerID,
		Audience:  audience,
		First:     first,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Trailer Events
// ═══════════════════════════════════════════════════════════════════════════

// TrailerRequestedEvent is emitted when a trailer generation task is accepted.
type TrailerRequestedEvent struct {
	BaseEvent
	TaskID string `json:"task_id"`
	ItemID string `json:"item_id"`
	Prompt string `json:"prompt"`
}

// Payload implements Event interface.
func (e TrailerRequestedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"task_id": e.TaskID,
		"item_id": e.ItemID,
		"prompt":  e.Prompt,
	}
}

// NewTrailerRequestedEvent creates a new TrailerRequestedEvent.
func NewTrailerRequestedEvent(taskID, itemID, prompt string) TrailerRequestedEvent {
	return TrailerRequestedEvent{
		BaseEvent: NewBaseEvent(EventTrailerRequested, taskID),
		TaskID:    taskID,
		ItemID:    itemID,
		Prompt:    prompt,
	}
}

// TrailerFinishedEvent is emitted when a trailer generation task finishes,
// successfully or not.
type TrailerFinishedEvent struct {
	BaseEvent
	TaskID   string        `json:"task_id"`
	ItemID   string        `json:"item_id"`
	VideoURL string        `json:"video_url,omitempty"`
	Reason   string        `json:"reason,omitempty"`
	Elapsed  time.Duration `json:"elapsed"`
}

// Payload implements Event interface.
func (e TrailerFinishedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"task_id":   e.TaskID,
		"item_id":   e.ItemID,
		"video_url": e.VideoURL,
		"reason":    e.Reason,
		"elapsed":   e.Elapsed.String(),
	}
}

// NewTrailerSucceededEvent creates a TrailerFinishedEvent for a successful task.
func NewTrailerSucceededEvent(taskID, itemID, videoURL string, elapsed time.Duration) TrailerFinishedEvent {
	return TrailerFinishedEvent{
		BaseEvent: NewBaseEvent(EventTrailerSucceeded, taskID),
		TaskID:    taskID,
		ItemID:    itemID,
		VideoURL:  videoURL,
		Elapsed:   elapsed,
	}
}

// NewTrailerFailedEvent creates a TrailerFinishedEvent for a failed task.
func NewTrailerFailedEvent(taskID, itemID, reason string, elapsed time.Duration) TrailerFinishedEvent {
	return TrailerFinishedEvent{
		BaseEvent: NewBaseEvent(EventTrailerFailed, taskID),
		TaskID:    taskID,
		ItemID:    itemID,
		Reason:    reason,
		Elapsed:   elapsed,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Notification Events
// ═══════════════════════════════════════════════════════════════════════════

// NotificationPushedEvent is emitted when a toast is added to the queue.
type NotificationPushedEvent struct {
	BaseEvent
	NotificationID string `json:"notification_id"`
	LearnerID      string `json:"learner_id"`
	Kind           string `json:"kind"`
	Message        string `json:"message"`
}

// Payload implements Event interface.
func (e NotificationPushedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"notification_id": e.NotificationID,
		"learner_id":      e.LearnerID,
		"kind":            e.Kind,
		"message":         e.Message,
	}
}

// NewNotificationPushedEvent creates a new NotificationPushedEvent.
func NewNotificationPushedEvent(notificationID, learnerID, kind, message string) NotificationPushedEvent {
	return NotificationPushedEvent{
		BaseEvent:      NewBaseEvent(EventNotificationPushed, notificationID),
		NotificationID: notificationID,
		LearnerID:      learnerID,
		Kind:           kind,
		Message:        message,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// System Events
// ═══════════════════════════════════════════════════════════════════════════

// ParentVerifiedEvent is emitted when the parental gate accepts a PIN.
type ParentVerifiedEvent struct {
	BaseEvent
	LearnerID  string    `json:"learner_id"`
	VerifiedAt time.Time `json:"verified_at"`
}

// Payload implements Event interface.
func (e ParentVerifiedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"learner_id":  e.LearnerID,
		"verified_at": e.VerifiedAt.Format(time.RFC3339),
	}
}

// NewParentVerifiedEvent creates a new ParentVerifiedEvent.
func NewParentVerifiedEvent(learnerID string, verifiedAt time.Time) ParentVerifiedEvent {
	return ParentVerifiedEvent{
		BaseEvent:  NewBaseEvent(EventParentVerified, learnerID),
		LearnerID:  learnerID,
		VerifiedAt: verifiedAt,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Event Envelope (for serialization and transport)
// ═══════════════════════════════════════════════════════════════════════════

// EventEnvelope wraps an event for transport/storage.
type EventEnvelope struct {
	ID            string          `json:"id"`
	Type          EventType       `json:"type"`
	AggregateID   string          `json:"aggregate_id"`
	Timestamp     time.Time       `json:"timestamp"`
	Version       int             `json:"version"`
	CorrelationID string          `json:"correlation_id,omitempty"`
	Payload       json.RawMessage `json:"payload"`
}

// EventHandler is a function that handles an event.
type EventHandler func(event Event) error

// EventPublisher defines the interface for publishing events.
type EventPublisher interface {
	// Publish sends an event to subscribers.
	Publish(event Event) error
}

// EventSubscriber defines the interface for subscribing to events.
type EventSubscriber interface {
	// Subscribe registers a handler for an event type.
	Subscribe(eventType EventType, handler EventHandler) error

	// SubscribeAll registers a handler for all events.
	SubscribeAll(handler EventHandler) error
}

// EventBus combines publishing and subscribing.
type EventBus interface {
	EventPublisher
	EventSubscriber
}
