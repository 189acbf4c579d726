// Package timeutil provides timezone utilities for the São Paulo timezone (UTC-3).
// This is essential for AI Kids Hub as the viewing-day windows shown on the parent
// dashboard are anchored to the family's local day in Brazil.
// Handles date formatting, screen-time windows, and timezone-aware time operations.
// No external dependencies - uses only standard library.
package timeutil

import (
	"fmt"
	"time"
)

// SaoPauloTZ is the São Paulo timezone (UTC-3, no DST).
// Brazil abolished DST in 2019, so this is constant year-round.
var SaoPauloTZ = time.FixedZone("America/Sao_Paulo", -3*60*60)

// Now returns the current time in São Paulo timezone.
func Now() time.Time {
	return time.Now().In(SaoPauloTZ)
}

// ToSaoPaulo converts a time to São Paulo timezone.
func ToSaoPaulo(t time.Time) time.Time {
	return t.In(SaoPauloTZ)
}

// ToUTC converts a time to UTC.
func ToUTC(t time.Time) time.Time {
	return t.UTC()
}

// Date creates a time in São Paulo timezone with the given date.
func Date(year, month, day int) time.Time {
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, SaoPauloTZ)
}

// DateTime creates a time in São Paulo timezone with the given date and time.
func DateTime(year, month, day, hour, min, sec int) time.Time {
	return time.Date(year, time.Month(month), day, hour, min, sec, 0, SaoPauloTZ)
}

// StartOfDay returns the start of the day (00:00:00) in São Paulo timezone.
func StartOfDay(t time.Time) time.Time {
	local := ToSaoPaulo(t)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, SaoPauloTZ)
}

// EndOfDay returns the end of the day (23:59:59.999999999) in São Paulo timezone.
func EndOfDay(t time.Time) time.Time {
	local := ToSaoPaulo(t)
	return time.Date(local.Year(), local.Month(), local.Day(), 23, 59, 59, 999999999, SaoPauloTZ)
}

// StartOfWeek returns the start of the week (Monday 00:00:00) in São Paulo timezone.
func StartOfWeek(t time.Time) time.Time {
	local := ToSaoPaulo(t)
	weekday := int(local.Weekday())
	if weekday == 0 {
		weekday = 7 // Sunday
	}
	daysToSubtract := weekday - 1 // Monday = 1
	return StartOfDay(local.AddDate(0, 0, -daysToSubtract))
}

// EndOfWeek returns the end of the week (Sunday 23:59:59) in São Paulo timezone.
func EndOfWeek(t time.Time) time.Time {
	start := StartOfWeek(t)
	return EndOfDay(start.AddDate(0, 0, 6))
}

// StartOfMonth returns the start of the month in São Paulo timezone.
func StartOfMonth(t time.Time) time.Time {
	local := ToSaoPaulo(t)
	return time.Date(local.Year(), local.Month(), 1, 0, 0, 0, 0, SaoPauloTZ)
}

// EndOfMonth returns the end of the month in São Paulo timezone.
func EndOfMonth(t time.Time) time.Time {
	start := StartOfMonth(t)
	return EndOfDay(start.AddDate(0, 1, -1))
}

// IsToday checks if the given time is today in São Paulo timezone.
func IsToday(t time.Time) bool {
	now := Now()
	local := ToSaoPaulo(t)
	return local.Year() == now.Year() &&
		local.Month() == now.Month() &&
		local.Day() == now.Day()
}

// IsYesterday checks if the given time is yesterday in São Paulo timezone.
func IsYesterday(t time.Time) bool {
	yesterday := Now().AddDate(0, 0, -1)
	local := ToSaoPaulo(t)
	return local.Year() == yesterday.Year() &&
		local.Month() == yesterday.Month() &&
		local.Day() == yesterday.Day()
}

// IsThisWeek checks if the given time is in the current week.
func IsThisWeek(t time.Time) bool {
	now := Now()
	weekStart := StartOfWeek(now)
	weekEnd := EndOfWeek(now)
	local := ToSaoPaulo(t)
	return !local.Before(weekStart) && !local.After(weekEnd)
}

// DaysSince calculates the number of days since the given time.
func DaysSince(t time.Time) int {
	now := StartOfDay(Now())
	then := StartOfDay(t)
	duration := now.Sub(then)
	return int(duration.Hours() / 24)
}

// Screen-time window for the parent dashboard.
const (
	// ScreenTimeStart is when supervised viewing opens (7:00 AM).
	ScreenTimeStart = 7
	// ScreenTimeEnd is when supervised viewing closes (9:00 PM).
	ScreenTimeEnd = 21
)

// IsScreenTime checks if the given time is within the supervised viewing window (7:00-21:00).
func IsScreenTime(t time.Time) bool {
	local := ToSaoPaulo(t)
	hour := local.Hour()
	return hour >= ScreenTimeStart && hour < ScreenTimeEnd
}

// IsWeekend checks if the given time is on a weekend.
func IsWeekend(t time.Time) bool {
	local := ToSaoPaulo(t)
	weekday := local.Weekday()
	return weekday == time.Saturday || weekday == time.Sunday
}

// IsSchoolDay checks if the given time is on a school day (Mon-Fri).
func IsSchoolDay(t time.Time) bool {
	return !IsWeekend(t)
}

// NextSchoolDay returns the next school day (skipping weekends).
func NextSchoolDay(t time.Time) time.Time {
	next := ToSaoPaulo(t).AddDate(0, 0, 1)
	for IsWeekend(next) {
		next = next.AddDate(0, 0, 1)
	}
	return StartOfDay(next)
}

// Common date/time formats.
const (
	// FormatDate is the standard date format (YYYY-MM-DD).
	FormatDate = "2006-01-02"
	// FormatTime is the standard time format (HH:MM).
	FormatTime = "15:04"
	// FormatDateTime is the standard datetime format.
	FormatDateTime = "2006-01-02 15:04"
	// FormatDateTimeSeconds includes seconds.
	FormatDateTimeSeconds = "2006-01-02 15:04:05"
	// FormatBrazilianDate is the Brazilian date format (DD/MM/YYYY).
	FormatBrazilianDate = "02/01/2006"
	// FormatBrazilianDateTime is the Brazilian datetime format.
	FormatBrazilianDateTime = "02/01/2006 15:04"
	// FormatHumanDate is a human-readable format.
	FormatHumanDate = "2 January 2006"
	// FormatShortDate is a short format (Jan 2).
	FormatShortDate = "Jan 2"
)

// FormatSaoPaulo formats a time in São Paulo timezone with the given layout.
func FormatSaoPaulo(t time.Time, layout string) string {
	return ToSaoPaulo(t).Format(layout)
}

// FormatDateStr formats a time as a date string (YYYY-MM-DD) in São Paulo timezone.
func FormatDateStr(t time.Time) string {
	return FormatSaoPaulo(t, FormatDate)
}

// FormatTimeStr formats a time as a time string (HH:MM) in São Paulo timezone.
func FormatTimeStr(t time.Time) string {
	return FormatSaoPaulo(t, FormatTime)
}

// FormatDateTimeStr formats a time as datetime string in São Paulo timezone.
func FormatDateTimeStr(t time.Time) string {
	return FormatSaoPaulo(t, FormatDateTime)
}

// FormatBrazilian formats a time in Brazilian format (DD/MM/YYYY).
func FormatBrazilian(t time.Time) string {
	return FormatSaoPaulo(t, FormatBrazilianDate)
}

// FormatRelative returns a human-readable relative time string in Portuguese.
func FormatRelative(t time.Time) string {
	now := Now()
	local := ToSaoPaulo(t)
	duration := now.Sub(local)

	if duration < 0 {
		duration = -duration
		return formatFutureDuration(duration)
	}

	return formatPastDuration(duration)
}

func formatPastDuration(d time.Duration) string {
	switch {
	case d < time.Minute:
		return "agora mesmo"
	case d < time.Hour:
		mins := int(d.Minutes())
		return fmt.Sprintf("%d min atrás", mins)
	case d < 24*time.Hour:
		hours := int(d.Hours())
		return fmt.Sprintf("%d h atrás", hours)
	case d < 7*24*time.Hour:
		days := int(d.Hours() / 24)
		if days == 1 {
			return "ontem"
		}
		return fmt.Sprintf("%d dias atrás", days)
	case d < 30*24*time.Hour:
		weeks := int(d.Hours() / 24 / 7)
		return fmt.Sprintf("%d semanas atrás", weeks)
	default:
		months := int(d.Hours() / 24 / 30)
		if months < 12 {
			return fmt.Sprintf("%d meses atrás", months)
		}
		years := months / 12
		return fmt.Sprintf("%d anos atrás", years)
	}
}

func formatFutureDuration(d time.Duration) string {
	switch {
	case d < time.Minute:
		return "agora"
	case d < time.Hour:
		mins := int(d.Minutes())
		return fmt.Sprintf("em %d min", mins)
	case d < 24*time.Hour:
		hours := int(d.Hours())
		return fmt.Sprintf("em %d h", hours)
	default:
		days := int(d.Hours() / 24)
		if days == 1 {
			return "amanhã"
		}
		return fmt.Sprintf("em %d dias", days)
	}
}

// ParseSaoPaulo parses a time string in São Paulo timezone.
func ParseSaoPaulo(layout, value string) (time.Time, error) {
	return time.ParseInLocation(layout, value, SaoPauloTZ)
}

// ParseDateSaoPaulo parses a date string (YYYY-MM-DD) in São Paulo timezone.
func ParseDateSaoPaulo(value string) (time.Time, error) {
	return ParseSaoPaulo(FormatDate, value)
}

// ParseDateTimeSaoPaulo parses a datetime string in São Paulo timezone.
func ParseDateTimeSaoPaulo(value string) (time.Time, error) {
	return ParseSaoPaulo(FormatDateTime, value)
}

// Viewing-streak utilities for the parent dashboard.

// IsSameDay checks if two times are on the same day in São Paulo timezone.
func IsSameDay(t1, t2 time.Time) bool {
	a1, a2 := ToSaoPaulo(t1), ToSaoPaulo(t2)
	return a1.Year() == a2.Year() && a1.YearDay() == a2.YearDay()
}

// IsConsecutiveDay checks if t2 is the day after t1.
func IsConsecutiveDay(t1, t2 time.Time) bool {
	a1, a2 := ToSaoPaulo(t1), ToSaoPaulo(t2)
	nextDay := a1.AddDate(0, 0, 1)
	return IsSameDay(nextDay, a2)
}

// DaysBetween calculates the number of days between two times.
func DaysBetween(t1, t2 time.Time) int {
	a1 := StartOfDay(t1)
	a2 := StartOfDay(t2)
	duration := a2.Sub(a1)
	days := int(duration.Hours() / 24)
	if days < 0 {
		days = -days
	}
	return days
}

// Notification timing helpers.

// IsSafeNotificationTime checks if it's appropriate to alert parents (8:00-22:00).
func IsSafeNotificationTime(t time.Time) bool {
	local := ToSaoPaulo(t)
	hour := local.Hour()
	return hour >= 8 && hour < 22
}

// NextSafeNotificationTime returns the next time when parent alerts are appropriate.
func NextSafeNotificationTime(t time.Time) time.Time {
	local := ToSaoPaulo(t)
	hour := local.Hour()

	if hour < 8 {
		// Before 8 AM - return 8 AM today
		return DateTime(local.Year(), int(local.Month()), local.Day(), 8, 0, 0)
	} else if hour >= 22 {
		// After 10 PM - return 8 AM tomorrow
		tomorrow := local.AddDate(0, 0, 1)
		return DateTime(tomorrow.Year(), int(tomorrow.Month()), tomorrow.Day(), 8, 0, 0)
	}

	// Already in safe time window
	return local
}

// WeekdayNamePt returns the Portuguese name for a weekday.
func WeekdayNamePt(t time.Time) string {
	local := ToSaoPaulo(t)
	switch local.Weekday() {
	case time.Monday:
		return "Segunda-feira"
	case time.Tuesday:
		return "Terça-feira"
	case time.Wednesday:
		return "Quarta-feira"
	case time.Thursday:
		return "Quinta-feira"
	case time.Friday:
		return "Sexta-feira"
	case time.Saturday:
		return "Sábado"
	case time.Sunday:
		return "Domingo"
	default:
		return ""
	}
}

// MonthNamePt returns the Portuguese name for a month.
func MonthNamePt(m time.Month) string {
	names := []string{
		"", "Janeiro", "Fevereiro", "Março", "Abril", "Maio", "Junho",
		"Julho", "Agosto", "Setembro", "Outubro", "Novembro", "Dezembro",
	}
	if int(m) >= 1 && int(m) <= 12 {
		return names[m]
	}
	return ""
}
