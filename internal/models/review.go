package models

import (
	"strings"
	"time"
)

// ReviewTimeLayout matches ISO-8601 timestamps with millisecond precision in UTC.
const ReviewTimeLayout = "2006-01-02T15:04:05.000Z"

// UserReview is a locally stored reader review. Lists are kept newest first.
type UserReview struct {
	ID   string `json:"id,omitempty" yaml:"id,omitempty"`
	Text string `json:"text" yaml:"text"`
	Date string `json:"date" yaml:"date"`
}

// NewUserReview stamps text with now, keeping it as entered. It returns false for blank text.
func NewUserReview(id, text string, now time.Time) (UserReview, bool) {
	if strings.TrimSpace(text) == "" {
		return UserReview{}, false
	}
	return UserReview{ID: id, Text: text, Date: now.UTC().Format(ReviewTimeLayout)}, true
}

// Time parses Date. Any RFC 3339 value is accepted.
func (r UserReview) Time() (time.Time, error) {
	return time.Parse(time.RFC3339Nano, r.Date)
}

// Theme is the persisted color scheme preference.
type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

// ParseTheme accepts "light" or "dark".
func ParseTheme(s string) (Theme, bool) {
	switch t := Theme(strings.ToLower(strings.TrimSpace(s))); t {
	case ThemeLight, ThemeDark:
		return t, true
	default:
		return "", false
	}
}

// Toggle returns the opposite theme.
func (t Theme) Toggle() Theme {
	if t == ThemeDark {
		return ThemeLight
	}
	return ThemeDark
}
