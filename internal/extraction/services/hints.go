package services

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

const (
	endOfDayHour   = 17
	startOfDayHour = 9
)

var (
	mentionPattern  = regexp.MustCompile(`<@([A-Z0-9]+)>`)
	assignPattern   = regexp.MustCompile(`(?i)assign(?:ed)?\s+to\s+<@([A-Z0-9]+)>`)
	requestPattern  = regexp.MustCompile(`(?i)<@([A-Z0-9]+)>[,:]?\s+(?:please|can you|could you|should)`)
	clockPattern    = regexp.MustCompile(`(?i)\b(?:by|at)\s+(\d{1,2})(?::(\d{2}))?\s*(am|pm)?\b`)
	isoDatePattern  = regexp.MustCompile(`\b(\d{4})-(\d{2})-(\d{2})\b`)
	weekdayByName   = map[string]time.Weekday{
		"monday":    time.Monday,
		"tuesday":   time.Tuesday,
		"wednesday": time.Wednesday,
		"thursday":  time.Thursday,
		"friday":    time.Friday,
		"saturday":  time.Saturday,
		"sunday":    time.Sunday,
	}
)

// ResolveDueHint turns a relative due phrase into a concrete timestamp.
// Returns nil when the hint resolves to nothing.
//
// Rules: "today"/"eod" means 17:00 today, days and weeks start at 09:00,
// and a clock time already in the past rolls forward one day.
func ResolveDueHint(hint string, now time.Time) *time.Time {
	hint = strings.TrimSpace(hint)
	if hint == "" {
		return nil
	}

	// RFC3339 before lowercasing: its T and Z literals are case sensitive.
	if t, err := time.Parse(time.RFC3339, hint); err == nil {
		t = t.UTC()
		return &t
	}
	hint = strings.ToLower(hint)
	if m := isoDatePattern.FindStringSubmatch(hint); m != nil {
		year, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		day, _ := strconv.Atoi(m[3])
		t := time.Date(year, time.Month(month), day, endOfDayHour, 0, 0, 0, now.Location())
		return &t
	}

	switch {
	case strings.Contains(hint, "today"), strings.Contains(hint, "eod"),
		strings.Contains(hint, "end of day"):
		t := rollIfPast(at(now, 0, endOfDayHour), now)
		return &t
	case strings.Contains(hint, "tomorrow"):
		t := at(now, 1, startOfDayHour)
		return &t
	case strings.Contains(hint, "next week"):
		t := at(now, daysUntilNext(now, time.Monday), startOfDayHour)
		return &t
	case strings.Contains(hint, "this week"):
		days := int(time.Friday - now.Weekday())
		if days < 0 {
			days = 0
		}
		t := rollIfPast(at(now, days, endOfDayHour), now)
		return &t
	}

	for name, weekday := range weekdayByName {
		if strings.Contains(hint, name) {
			t := at(now, daysUntilNext(now, weekday), startOfDayHour)
			return &t
		}
	}

	if m := clockPattern.FindStringSubmatch(hint); m != nil {
		hour, _ := strconv.Atoi(m[1])
		minute := 0
		if m[2] != "" {
			minute, _ = strconv.Atoi(m[2])
		}
		switch strings.ToLower(m[3]) {
		case "pm":
			if hour < 12 {
				hour += 12
			}
		case "am":
			if hour == 12 {
				hour = 0
			}
		}
		if hour > 23 || minute > 59 {
			return nil
		}
		t := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, now.Location())
		t = rollIfPast(t, now)
		return &t
	}

	return nil
}

var duePhrasePattern = regexp.MustCompile(
	`(?i)\b(?:by|due|before)\s+(today|tomorrow|eod|end of day|next week|this week|monday|tuesday|wednesday|thursday|friday|saturday|sunday|\d{1,2}(?::\d{2})?\s*(?:am|pm)?)\b`)

// ExtractDueFromText finds an explicit deadline phrase ("by friday",
// "due tomorrow", "before 5pm") in free text and resolves it.
func ExtractDueFromText(text string, now time.Time) *time.Time {
	m := duePhrasePattern.FindStringSubmatch(text)
	if m == nil {
		return nil
	}
	phrase := m[1]
	// Bare clock times need their "at" prefix back for ResolveDueHint.
	if phrase != "" && phrase[0] >= '0' && phrase[0] <= '9' {
		phrase = "at " + phrase
	}
	return ResolveDueHint(phrase, now)
}

// ExtractAssigneeID pulls an assignee mention out of a message, matching
// "assigned to @user" and "@user please/can you/should" phrasings. Falls
// back to the sole mention when the message contains exactly one.
func ExtractAssigneeID(text string) string {
	if m := assignPattern.FindStringSubmatch(text); m != nil {
		return m[1]
	}
	if m := requestPattern.FindStringSubmatch(text); m != nil {
		return m[1]
	}
	mentions := mentionPattern.FindAllStringSubmatch(text, 2)
	if len(mentions) == 1 {
		return mentions[0][1]
	}
	return ""
}

func at(now time.Time, addDays, hour int) time.Time {
	base := now.AddDate(0, 0, addDays)
	return time.Date(base.Year(), base.Month(), base.Day(), hour, 0, 0, 0, now.Location())
}

func rollIfPast(t, now time.Time) time.Time {
	if t.Before(now) {
		return t.AddDate(0, 0, 1)
	}
	return t
}

func daysUntilNext(now time.Time, weekday time.Weekday) int {
	days := int(weekday-now.Weekday()+7) % 7
	if days == 0 {
		days = 7
	}
	return days
}
