package tracker

import (
	"fmt"
	"slices"
	"sort"

	"timeplanner/internal/calendar"
	"timeplanner/internal/progress"
)

// Clone returns a deep copy of the plan.
func (p ExecutionPlan) Clone() ExecutionPlan {
	p.Dates = slices.Clone(p.Dates)
	p.PatternDays = slices.Clone(p.PatternDays)
	p.ScheduledDates = slices.Clone(p.ScheduledDates)
	p.CompletedDates = slices.Clone(p.CompletedDates)
	return p
}

// normalize sorts and de-duplicates the stored date lists. Plans read back
// from storage may have been edited by hand.
func (p *ExecutionPlan) normalize() error {
	scheduled, err := calendar.NormalizeDates(p.ScheduledDates)
	if err != nil {
		return ValidationError{Field: "plan.scheduled_dates", Message: err.Error()}
	}
	completed, err := calendar.NormalizeDates(p.CompletedDates)
	if err != nil {
		return ValidationError{Field: "plan.completed_dates", Message: err.Error()}
	}
	p.ScheduledDates = scheduled
	p.CompletedDates = completed
	return nil
}

// IsScheduled reports whether work is due on date. ScheduledDates must be
// sorted.
func (p ExecutionPlan) IsScheduled(date string) bool {
	_, ok := slices.BinarySearch(p.ScheduledDates, date)
	return ok
}

// IsCompleted reports whether the occurrence on date was executed.
func (p ExecutionPlan) IsCompleted(date string) bool {
	return slices.Contains(p.CompletedDates, date)
}

// Toggle flips date between pending and completed and returns the new state.
// Only scheduled dates can be toggled, which keeps completed ⊆ scheduled.
func (p *ExecutionPlan) Toggle(date string) (bool, error) {
	if !p.IsScheduled(date) {
		return false, fmt.Errorf("%s: %w", date, ErrNotScheduled)
	}
	if i := slices.Index(p.CompletedDates, date); i >= 0 {
		p.CompletedDates = slices.Delete(p.CompletedDates, i, i+1)
		return false, nil
	}
	p.CompletedDates = append(p.CompletedDates, date)
	sort.Strings(p.CompletedDates)
	return true, nil
}

// CompletedCount counts completions that fall on a currently scheduled date.
// Completions orphaned by a regeneration are kept but not counted.
func (p ExecutionPlan) CompletedCount() int {
	n := 0
	for _, d := range p.CompletedDates {
		if p.IsScheduled(d) {
			n++
		}
	}
	return n
}

// OrphanedDates lists completions that no longer match a scheduled date.
func (p ExecutionPlan) OrphanedDates() []string {
	var out []string
	for _, d := range p.CompletedDates {
		if !p.IsScheduled(d) {
			out = append(out, d)
		}
	}
	return out
}

// Progress is the plan's own completion percentage.
func (p ExecutionPlan) Progress() int {
	return progress.Percentage(len(p.ScheduledDates), p.CompletedCount())
}

// TotalMinutes is the time required to execute every scheduled occurrence.
func (p ExecutionPlan) TotalMinutes() int {
	return len(p.ScheduledDates) * p.DurationMin
}

// Generate materialises ScheduledDates from the plan rule. Weekly patterns
// expand from anchor through deadline; explicit lists are normalised and cut
// at the deadline. CompletedDates are left untouched.
func (p *ExecutionPlan) Generate(anchor, deadline string) error {
	var scheduled []string
	switch p.Type {
	case PlanWeekly:
		set := calendar.NewWeekdaySet(p.PatternDays...)
		if set.Len() == 0 {
			return ValidationError{Field: "plan.pattern_days", Message: "select at least one weekday"}
		}
		p.PatternDays = set.Days()
		p.Dates = nil
		dates, err := calendar.ExpandISO(anchor, deadline, set)
		if err != nil {
			return ValidationError{Field: "plan", Message: err.Error()}
		}
		scheduled = dates
	case PlanDates:
		dates, err := calendar.NormalizeDates(p.Dates)
		if err != nil {
			return ValidationError{Field: "plan.dates", Message: err.Error()}
		}
		if len(dates) == 0 {
			return ValidationError{Field: "plan.dates", Message: "provide at least one date"}
		}
		p.Dates = dates
		p.PatternDays = nil
		scheduled = calendar.Until(dates, deadline)
	default:
		return ValidationError{Field: "plan.type", Message: fmt.Sprintf("unknown plan type %q", p.Type)}
	}
	if len(scheduled) == 0 {
		return ValidationError{Field: "plan.scheduled_dates", Message: fmt.Sprintf("plan yields no dates on or before the deadline %s", deadline)}
	}
	p.ScheduledDates = scheduled
	if p.CompletedDates == nil {
		p.CompletedDates = []string{}
	}
	return nil
}

// sameRule reports whether two plans would expand to the same dates for the
// same anchor and deadline.
func (p ExecutionPlan) sameRule(o ExecutionPlan) bool {
	if p.Type != o.Type {
		return false
	}
	switch p.Type {
	case PlanWeekly:
		return calendar.NewWeekdaySet(p.PatternDays...) == calendar.NewWeekdaySet(o.PatternDays...)
	default:
		a, errA := calendar.NormalizeDates(p.Dates)
		b, errB := calendar.NormalizeDates(o.Dates)
		return errA == nil && errB == nil && slices.Equal(a, b)
	}
}

// reconcile prepares next for storage given the stored plan prev (nil on
// insert). The schedule is regenerated when the rule or deadline changed;
// otherwise the stored schedule is reused. Completions always come from prev.
func reconcile(prev *ExecutionPlan, prevDeadline string, next ExecutionPlan, deadline, anchor string) (ExecutionPlan, error) {
	out := next.Clone()
	if prev == nil {
		out.CompletedDates = nil
		if err := out.Generate(anchor, deadline); err != nil {
			return ExecutionPlan{}, err
		}
		return out, nil
	}

	out.CompletedDates = slices.Clone(prev.CompletedDates)
	if prev.sameRule(next) && prevDeadline == deadline && len(prev.ScheduledDates) > 0 {
		out.Type = prev.Type
		out.Dates = slices.Clone(prev.Dates)
		out.PatternDays = slices.Clone(prev.PatternDays)
		out.ScheduledDates = slices.Clone(prev.ScheduledDates)
		return out, nil
	}
	if err := out.Generate(anchor, deadline); err != nil {
		return ExecutionPlan{}, err
	}
	return out, nil
}
