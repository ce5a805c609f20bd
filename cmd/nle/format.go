package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"nle/internal/timeline"
)

// parseInstant reads a time value as plain microseconds ("1500000") or as a
// Go duration ("1.5s", "2m3s").
func parseInstant(value string) (uint64, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, fmt.Errorf("time value is required")
	}
	if micros, err := strconv.ParseUint(value, 10, 64); err == nil {
		return micros, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid time value %q: use microseconds or a duration like 1.5s", value)
	}
	if d < 0 {
		return 0, fmt.Errorf("invalid time value %q: must not be negative", value)
	}
	return uint64(d.Microseconds()), nil
}

// formatMicros renders an instant as H:MM:SS.ffffff.
func formatMicros(us uint64) string {
	const perSecond = 1_000_000
	seconds := us / perSecond
	return fmt.Sprintf("%d:%02d:%02d.%06d", seconds/3600, seconds/60%60, seconds%60, us%perSecond)
}

func formatRange(r timeline.TimeRange) string {
	if !r.Valid() {
		return fmt.Sprintf("%d+%d", r.Start, r.Duration)
	}
	return formatMicros(r.Start) + " - " + formatMicros(r.End())
}

// kindLabel renders a track kind for headings ("Video 0").
func kindLabel(kind timeline.TrackKind, index int) string {
	return fmt.Sprintf("%s %d", cases.Title(language.Und).String(kind.String()), index)
}

// parseAsset accepts a UUID; an empty value mints a new one.
func parseAsset(value string) (uuid.UUID, bool, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return uuid.New(), true, nil
	}
	id, err := uuid.Parse(value)
	if err != nil {
		return uuid.Nil, false, fmt.Errorf("invalid asset id %q: %w", value, err)
	}
	return id, false, nil
}
