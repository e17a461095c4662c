package main

import (
	"fmt"
	"strings"
	"time"
)

const (
	clockLayout    = "15:04"
	dateLayout     = "2006-01-02"
	dateTimeLayout = "2006-01-02 15:04"
)

// parseTime reads a point in time typed by the user. A bare clock time means
// that time today; layouts without an offset are read in loc.
func parseTime(s string, now time.Time, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.ParseInLocation(clockLayout, s, loc); err == nil {
		y, m, d := now.In(loc).Date()
		return time.Date(y, m, d, t.Hour(), t.Minute(), 0, 0, loc), nil
	}
	for _, layout := range []string{dateTimeLayout, dateLayout} {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("cannot parse time %q (use HH:MM, YYYY-MM-DD, \"YYYY-MM-DD HH:MM\" or RFC 3339)", s)
}

// parseDay reads a calendar day, "today" or "yesterday", as midnight in loc.
func parseDay(s string, now time.Time, loc *time.Location) (time.Time, error) {
	today := midnight(now, loc)
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "today":
		return today, nil
	case "yesterday":
		return today.AddDate(0, 0, -1), nil
	}
	t, err := time.ParseInLocation(dateLayout, strings.TrimSpace(s), loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("cannot parse day %q (use YYYY-MM-DD, today or yesterday)", s)
	}
	return t, nil
}

func midnight(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

// dayRange is an inclusive range of calendar days.
type dayRange struct {
	From time.Time
	To   time.Time
}

// End is the midnight after the last day.
func (r dayRange) End() time.Time {
	return r.To.AddDate(0, 0, 1)
}

// parseDayRange reads --from/--to days; both default to today and to
// defaults to from.
func parseDayRange(from, to string, now time.Time, loc *time.Location) (dayRange, error) {
	start, err := parseDay(from, now, loc)
	if err != nil {
		return dayRange{}, err
	}
	end := start
	if strings.TrimSpace(to) != "" {
		if end, err = parseDay(to, now, loc); err != nil {
			return dayRange{}, err
		}
	}
	if end.Before(start) {
		return dayRange{}, fmt.Errorf("--to %s is before --from %s", end.Format(dateLayout), start.Format(dateLayout))
	}
	return dayRange{From: start, To: end}, nil
}

// formatDuration renders d as 1h05m, rounded down to the minute.
func formatDuration(d time.Duration) string {
	d = d.Truncate(time.Minute)
	h := int(d / time.Hour)
	m := int((d % time.Hour) / time.Minute)
	if h == 0 {
		return fmt.Sprintf("%dm", m)
	}
	return fmt.Sprintf("%dh%02dm", h, m)
}
