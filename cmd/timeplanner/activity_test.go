package main

import (
	"flag"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"timeplanner/internal/calendar"
	"timeplanner/internal/tracker"
)

func TestDescribePlanListsOrphanedCompletions(t *testing.T) {
	p := tracker.ExecutionPlan{
		Type:           tracker.PlanDates,
		Dates:          []string{"2025-06-12"},
		DurationMin:    30,
		ScheduledDates: []string{"2025-06-12"},
		CompletedDates: []string{"2025-06-10", "2025-06-12"},
	}
	assert.Equal(t, "dates 2025-06-12, 30 min, 1/1 done (completions no longer scheduled: 2025-06-10)", describePlan(p))

	p.CompletedDates = []string{"2025-06-12"}
	assert.Equal(t, "dates 2025-06-12, 30 min, 1/1 done", describePlan(p))
}

func TestPlanFlagsMergeWithExistingPlan(t *testing.T) {
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	pf := bindPlanFlags(fs)
	require.NoError(t, fs.Parse([]string{"--days", "l,x"}))

	prev := &tracker.ExecutionPlan{Type: tracker.PlanDates, Dates: []string{"2025-06-10"}, DurationMin: 25}
	plan, err := pf.apply(prev, setFlags(fs))
	require.NoError(t, err)
	assert.Equal(t, tracker.PlanWeekly, plan.Type)
	assert.Equal(t, []calendar.Weekday{calendar.Monday, calendar.Wednesday}, plan.PatternDays)
	assert.Nil(t, plan.Dates)
	assert.Equal(t, 25, plan.DurationMin)
	assert.Equal(t, []string{"2025-06-10"}, prev.Dates, "previous plan is not modified")

	fs = flag.NewFlagSet("test", flag.ContinueOnError)
	pf = bindPlanFlags(fs)
	require.NoError(t, fs.Parse([]string{"--days", "Q"}))
	_, err = pf.apply(nil, setFlags(fs))
	assert.True(t, tracker.IsValidation(err))
}
