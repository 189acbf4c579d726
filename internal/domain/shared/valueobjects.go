// Package shared contains common domain types, errors, events, and value objects
// that are used across all domain packages.
package shared

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// ═══════════════════════════════════════════════════════════════════════════
// ItemID Value Object
// ═══════════════════════════════════════════════════════════════════════════

// ItemID represents a catalog item identifier in "season-module" form,
// e.g. "1-1" for Season 1 Module 1 or "20-20" for the last item.
type ItemID string

var itemIDRegex = regexp.MustCompile(`^([1-9][0-9]*)-([1-9][0-9]*)$`)

// IsValid checks if the item ID has the "season-module" format.
func (i ItemID) IsValid() bool {
	return itemIDRegex.MatchString(string(i))
}

// String returns the string representation.
func (i ItemID) String() string {
	return string(i)
}

// Season extracts the 1-based season number from the item ID.
func (i ItemID) Season() int {
	parts := strings.SplitN(string(i), "-", 2)
	if len(parts) != 2 {
		return 0
	}
	n, _ := strconv.Atoi(parts[0])
	return n
}

// Module extracts the 1-based module number from the item ID.
func (i ItemID) Module() int {
	parts := strings.SplitN(string(i), "-", 2)
	if len(parts) != 2 {
		return 0
	}
	n, _ := strconv.Atoi(parts[1])
	return n
}

// NewItemID creates an ItemID from season and module numbers.
func NewItemID(season, module int) ItemID {
	return ItemID(fmt.Sprintf("%d-%d", season, module))
}

// ParseItemID validates and parses an item ID string.
func ParseItemID(id string) (ItemID, error) {
	iid := ItemID(strings.TrimSpace(id))
	if !iid.IsValid() {
		return "", ErrInvalidItemID
	}
	return iid, nil
}

// ═══════════════════════════════════════════════════════════════════════════
// XP Value Object (Experience Points)
// ═══════════════════════════════════════════════════════════════════════════

// XP represents experience points earned by a learner.
type XP int

const (
	// XP boundaries
	MinXP XP = 0
	MaxXP XP = 1000000 // 1 million XP cap

	// XPPerLevel is the flat amount of XP needed per level.
	XPPerLevel = 100
)

// IsValid checks if the XP value is within valid range.
func (x XP) IsValid() bool {
	return x >= MinXP && x <= MaxXP
}

// Int returns the underlying int value.
func (x XP) Int() int {
	return int(x)
}

// Add adds XP and returns the result, capped at MaxXP.
func (x XP) Add(amount int) XP {
	result := XP(int(x) + amount)
	if result > MaxXP {
		return MaxXP
	}
	if result < MinXP {
		return MinXP
	}
	return result
}

// Level calculates the level from XP using a flat progression:
// every 100 XP is one level, starting at level 0.
func (x XP) Level() Level {
	if x <= 0 {
		return 0
	}
	return Level(int(x) / XPPerLevel)
}

// ProgressToNextLevel returns percentage progress to the next level (0-100).
func (x XP) ProgressToNextLevel() int {
	if x < 0 {
		return 0
	}
	return (int(x) % XPPerLevel) * 100 / XPPerLevel
}

// NewXP creates a new XP value with validation.
func NewXP(amount int) (XP, error) {
	if amount < int(MinXP) {
		return 0, NewDomainError("shared", "NewXP", ErrNegativeValue, "XP cannot be negative")
	}
	if amount > int(MaxXP) {
		return MaxXP, nil // Cap at max
	}
	return XP(amount), nil
}

// ═══════════════════════════════════════════════════════════════════════════
// Level Value Object
// ═══════════════════════════════════════════════════════════════════════════

// Level represents a learner's level.
type Level int

const (
	MinLevel Level = 0
	MaxLevel Level = 10000
)

// IsValid checks if the level is within valid range.
func (l Level) IsValid() bool {
	return l >= MinLevel && l <= MaxLevel
}

// Int returns the underlying int value.
func (l Level) Int() int {
	return int(l)
}

// RequiredXP returns the total XP required to reach this level.
func (l Level) RequiredXP() int {
	if l <= 0 {
		return 0
	}
	return int(l) * XPPerLevel
}

// Title returns a human-readable title for the level.
func (l Level) Title() string {
	switch {
	case l < 2:
		return "Explorador"
	case l < 5:
		return "Aprendiz"
	case l < 10:
		return "Hacker Júnior"
	case l < 20:
		return "Programador"
	case l < 50:
		return "Engenheiro"
	default:
		return "Mestre da Matrix"
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// ProgressValue Value Object
// ═══════════════════════════════════════════════════════════════════════════

// ProgressValue represents completion progress of a catalog item (0-100).
type ProgressValue int

const (
	MinProgress      ProgressValue = 0
	CompleteProgress ProgressValue = 100
)

// IsValid checks if the progress value is within valid range.
func (p ProgressValue) IsValid() bool {
	return p >= MinProgress && p <= CompleteProgress
}

// Int returns the underlying int value.
func (p ProgressValue) Int() int {
	return int(p)
}

// IsComplete checks if the item is fully watched or played.
func (p ProgressValue) IsComplete() bool {
	return p >= CompleteProgress
}

// Clamp returns the value clamped to the upper bound. Negative values are
// not clamped here; they are rejected by NewProgressValue.
func (p ProgressValue) Clamp() ProgressValue {
	if p > CompleteProgress {
		return CompleteProgress
	}
	return p
}

// NewProgressValue creates a progress value. Values above 100 are clamped,
// negative values are rejected.
func NewProgressValue(value int) (ProgressValue, error) {
	if value < 0 {
		return 0, ErrNegativeProgress
	}
	return ProgressValue(value).Clamp(), nil
}

// ═══════════════════════════════════════════════════════════════════════════
// AgeRating Value Object
// ═══════════════════════════════════════════════════════════════════════════

// AgeRating represents the audience rating of a catalog item.
type AgeRating string

const (
	AgeRating7     AgeRating = "7+"
	AgeRating12    AgeRating = "12+"
	AgeRatingAdult AgeRating = "Adulto"
)

// AgeRatings lists all ratings in rotation order.
var AgeRatings = []AgeRating{AgeRating7, AgeRating12, AgeRatingAdult}

// IsValid checks if the rating is one of the known values.
func (a AgeRating) IsValid() bool {
	switch a {
	case AgeRating7, AgeRating12, AgeRatingAdult:
		return true
	}
	return false
}

// String returns the string representation.
func (a AgeRating) String() string {
	return string(a)
}

// AllowedFor reports whether content with this rating may be shown to a
// viewer of the given age. The adult rating always requires the parental gate.
func (a AgeRating) AllowedFor(viewerAge int) bool {
	switch a {
	case AgeRating7:
		return viewerAge >= 7
	case AgeRating12:
		return viewerAge >= 12
	case AgeRatingAdult:
		return viewerAge >= 18
	}
	return false
}

// ParseAgeRating validates an age rating string.
func ParseAgeRating(value string) (AgeRating, error) {
	r := AgeRating(strings.TrimSpace(value))
	if !r.IsValid() {
		return "", ErrInvalidAgeRating
	}
	return r, nil
}

// ═══════════════════════════════════════════════════════════════════════════
// ContentType Value Object
// ═══════════════════════════════════════════════════════════════════════════

// ContentType represents the interaction type of a catalog item.
type ContentType string

const (
	ContentVideo       ContentType = "video"
	ContentInteractive ContentType = "interactive"
	ContentGame        ContentType = "game"
)

// ContentTypes lists all types in rotation order.
var ContentTypes = []ContentType{ContentVideo, ContentInteractive, ContentGame}

// IsValid checks if the content type is one of the known values.
func (c ContentType) IsValid() bool {
	switch c {
	case ContentVideo, ContentInteractive, ContentGame:
		return true
	}
	return false
}

// String returns the string representation.
func (c ContentType) String() string {
	return string(c)
}

// IsPlayable reports whether the item carries a video stream.
func (c ContentType) IsPlayable() bool {
	return c == ContentVideo
}

// ParseContentType validates a content type string.
func ParseContentType(value string) (ContentType, error) {
	t := ContentType(strings.ToLower(strings.TrimSpace(value)))
	if !t.IsValid() {
		return "", ErrInvalidContentType
	}
	return t, nil
}

// ═══════════════════════════════════════════════════════════════════════════
// Audience Value Object
// ═══════════════════════════════════════════════════════════════════════════

// Audience selects which tutor persona answers a chat message.
type Audience string

const (
	AudienceChild Audience = "child"
	AudienceAdult Audience = "adult"
)

// IsValid checks if the audience is one of the known values.
func (a Audience) IsValid() bool {
	return a == AudienceChild || a == AudienceAdult
}

// String returns the string representation.
func (a Audience) String() string {
	return string(a)
}

// ParseAudience validates an audience string, defaulting to child.
func ParseAudience(value string) Audience {
	if Audience(strings.ToLower(strings.TrimSpace(value))) == AudienceAdult {
		return AudienceAdult
	}
	return AudienceChild
}

// ═══════════════════════════════════════════════════════════════════════════
// TimeRange Value Object
// ═══════════════════════════════════════════════════════════════════════════

// TimeRange represents a time period.
type TimeRange struct {
	From time.Time
	To   time.Time
}

// IsValid checks if the time range is valid.
func (t TimeRange) IsValid() bool {
	return !t.From.IsZero() && !t.To.IsZero() && !t.From.After(t.To)
}

// Duration returns the duration of the time range.
func (t TimeRange) Duration() time.Duration {
	return t.To.Sub(t.From)
}

// Contains checks if a time is within the range.
func (t TimeRange) Contains(tm time.Time) bool {
	return (tm.Equal(t.From) || tm.After(t.From)) && (tm.Equal(t.To) || tm.Before(t.To))
}

// NewTimeRange creates a new TimeRange with validation.
func NewTimeRange(from, to time.Time) (TimeRange, error) {
	tr := TimeRange{From: from, To: to}
	if !tr.IsValid() {
		return TimeRange{}, NewDomainError("shared", "NewTimeRange", ErrInvalidInput, "'from' must be before 'to'")
	}
	return tr, nil
}

// Today returns a TimeRange for today (local time).
func Today() TimeRange {
	now := time.Now()
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	end := start.Add(24 * time.Hour).Add(-time.Nanosecond)
	return TimeRange{From: start, To: end}
}

// Last24Hours returns a TimeRange for the last 24 hours.
func Last24Hours() TimeRange {
	now := time.Now()
	return TimeRange{
		From: now.Add(-24 * time.Hour),
		To:   now,
	}
}

// LastNDays returns a TimeRange for the last N days.
func LastNDays(n int) TimeRange {
	now := time.Now()
	return TimeRange{
		From: now.AddDate(0, 0, -n),
		To:   now,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Pagination Value Object
// ═══════════════════════════════════════════════════════════════════════════

// Pagination represents pagination parameters.
type Pagination struct {
	Page     int
	PageSize int
}

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Offset returns the offset for database queries.
func (p Pagination) Offset() int {
	if p.Page <= 0 {
		return 0
	}
	return (p.Page - 1) * p.Limit()
}

// Limit returns the limit for database queries.
func (p Pagination) Limit() int {
	if p.PageSize <= 0 {
		return DefaultPageSize
	}
	if p.PageSize > MaxPageSize {
		return MaxPageSize
	}
	return p.PageSize
}

// NewPagination creates a new Pagination with defaults.
func NewPagination(page, pageSize int) Pagination {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	return Pagination{Page: page, PageSize: pageSize}
}

// DefaultPagination returns default pagination.
func DefaultPagination() Pagination {
	return NewPagination(1, DefaultPageSize)
}
