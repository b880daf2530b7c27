package calendar

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// DateLayout is the ISO day layout used for every stored date.
const DateLayout = "2006-01-02"

// Weekday is a one-letter weekday symbol, Monday first.
type Weekday string

const (
	Monday    Weekday = "L"
	Tuesday   Weekday = "M"
	Wednesday Weekday = "X"
	Thursday  Weekday = "J"
	Friday    Weekday = "V"
	Saturday  Weekday = "S"
	Sunday    Weekday = "D"
)

// Weekdays lists the full alphabet in calendar order.
var Weekdays = []Weekday{Monday, Tuesday, Wednesday, Thursday, Friday, Saturday, Sunday}

var fromStdlib = map[time.Weekday]Weekday{
	time.Sunday:    Sunday,
	time.Monday:    Monday,
	time.Tuesday:   Tuesday,
	time.Wednesday: Wednesday,
	time.Thursday:  Thursday,
	time.Friday:    Friday,
	time.Saturday:  Saturday,
}

// FromTime maps a time.Weekday onto its symbol.
func FromTime(d time.Weekday) Weekday {
	return fromStdlib[d]
}

func (w Weekday) index() int {
	for i, candidate := range Weekdays {
		if candidate == w {
			return i
		}
	}
	return -1
}

// Valid reports whether w belongs to the alphabet.
func (w Weekday) Valid() bool {
	return w.index() >= 0
}

// ParseWeekday accepts a single symbol, case-insensitively.
func ParseWeekday(value string) (Weekday, error) {
	w := Weekday(strings.ToUpper(strings.TrimSpace(value)))
	if !w.Valid() {
		return "", fmt.Errorf("invalid weekday %q (expected one of L, M, X, J, V, S, D)", value)
	}
	return w, nil
}

// ParseWeekdays parses a comma separated list such as "L,M,X".
func ParseWeekdays(value string) ([]Weekday, error) {
	var days []Weekday
	for _, part := range strings.Split(value, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		w, err := ParseWeekday(part)
		if err != nil {
			return nil, err
		}
		days = append(days, w)
	}
	return NewWeekdaySet(days...).Days(), nil
}

// WeekdaySet is a bitmask over the seven symbols.
type WeekdaySet uint8

// NewWeekdaySet builds a set, ignoring symbols outside the alphabet.
func NewWeekdaySet(days ...Weekday) WeekdaySet {
	var s WeekdaySet
	for _, d := range days {
		if i := d.index(); i >= 0 {
			s |= 1 << uint(i)
		}
	}
	return s
}

// Has reports membership.
func (s WeekdaySet) Has(d Weekday) bool {
	i := d.index()
	return i >= 0 && s&(1<<uint(i)) != 0
}

// Len returns the number of members.
func (s WeekdaySet) Len() int {
	n := 0
	for i := range Weekdays {
		if s&(1<<uint(i)) != 0 {
			n++
		}
	}
	return n
}

// Days returns the members in calendar order.
func (s WeekdaySet) Days() []Weekday {
	var out []Weekday
	for i, d := range Weekdays {
		if s&(1<<uint(i)) != 0 {
			out = append(out, d)
		}
	}
	return out
}

// ParseDate parses an ISO day. The result sits at noon UTC.
func ParseDate(value string) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout, strings.TrimSpace(value), time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q (expected YYYY-MM-DD)", value)
	}
	return noon(t, time.UTC), nil
}

// FormatDate renders the calendar day of t in t's own location.
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// Today returns the ISO day of now as observed in loc.
func Today(now time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.Local
	}
	return FormatDate(now.In(loc))
}

// Expand lists every day from anchor through deadline, both inclusive, whose
// weekday is in days. Both bounds are pinned to noon in the anchor's location
// before iterating so a DST transition never skips or repeats a day.
func Expand(anchor, deadline time.Time, days WeekdaySet) []string {
	loc := anchor.Location()
	cur := noon(anchor, loc)
	end := time.Date(deadline.Year(), deadline.Month(), deadline.Day(), 12, 0, 0, 0, loc)

	var out []string
	for !cur.After(end) {
		if days.Has(FromTime(cur.Weekday())) {
			out = append(out, FormatDate(cur))
		}
		cur = cur.AddDate(0, 0, 1)
	}
	return out
}

// ExpandISO is Expand over ISO day strings.
func ExpandISO(anchor, deadline string, days WeekdaySet) ([]string, error) {
	from, err := ParseDate(anchor)
	if err != nil {
		return nil, fmt.Errorf("anchor: %w", err)
	}
	to, err := ParseDate(deadline)
	if err != nil {
		return nil, fmt.Errorf("deadline: %w", err)
	}
	return Expand(from, to, days), nil
}

// NormalizeDates validates, sorts and de-duplicates ISO days.
func NormalizeDates(dates []string) ([]string, error) {
	seen := make(map[string]struct{}, len(dates))
	out := make([]string, 0, len(dates))
	for _, raw := range dates {
		t, err := ParseDate(raw)
		if err != nil {
			return nil, err
		}
		day := FormatDate(t)
		if _, ok := seen[day]; ok {
			continue
		}
		seen[day] = struct{}{}
		out = append(out, day)
	}
	sort.Strings(out)
	return out, nil
}

// Until keeps the days that fall on or before deadline. ISO days order
// lexicographically, so no parsing is needed.
func Until(dates []string, deadline string) []string {
	out := make([]string, 0, len(dates))
	for _, d := range dates {
		if d <= deadline {
			out = append(out, d)
		}
	}
	return out
}

func noon(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 12, 0, 0, 0, loc)
}
