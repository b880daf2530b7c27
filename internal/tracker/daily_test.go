package tracker_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"timeplanner/internal/calendar"
	"timeplanner/internal/tracker"
)

func TestTasksDueOnlyOnScheduledDate(t *testing.T) {
	f := newFixture(t)
	g := f.goal(t, "G")
	tuesdays := f.activity(t, simple(g.ID, "Tuesdays", "2025-06-30", weeklyPlan(30, calendar.Tuesday)))
	f.activity(t, simple(g.ID, "Wednesday only", "2025-06-30", datesPlan(20, "2025-06-11")))
	f.activity(t, simple(g.ID, "Ends early", "2025-06-09", weeklyPlan(15, calendar.Weekdays...)))
	c := f.activity(t, composite(g.ID, "Course", "2025-06-30"))
	lesson := f.sub(t, c.ID, "Lesson", "2025-06-15", datesPlan(45, "2025-06-12", "2025-06-10"))

	tasks := f.tr.TasksDueToday("2025-06-10")
	assert.Equal(t, []tracker.Task{
		{ID: tuesdays.ID, Title: "Tuesdays", DurationMin: 30, Source: tracker.NodeActivity},
		{ID: lesson.ID, Title: "Lesson", DurationMin: 45, Source: tracker.NodeSubActivity, ParentActivityID: c.ID},
	}, tasks)

	assert.Empty(t, f.tr.TasksDueToday("2025-06-14"))
	assert.Equal(t, tracker.Metrics{}, f.tr.TodaysMetrics("2025-06-14"))
}

func TestTodaysMetricsFollowToggles(t *testing.T) {
	f := newFixture(t)
	g := f.goal(t, "G")
	a := f.activity(t, simple(g.ID, "A", "2025-06-30", datesPlan(30, "2025-06-10")))
	b := f.activity(t, simple(g.ID, "B", "2025-06-30", datesPlan(30, "2025-06-10")))
	f.activity(t, simple(g.ID, "C", "2025-06-30", datesPlan(30, "2025-06-10")))

	f.toggle(t, tracker.NodeActivity, a.ID, "2025-06-10")
	assert.Equal(t, tracker.Metrics{Total: 3, Completed: 1, Percentage: 33, Remaining: 2}, f.tr.TodaysMetrics("2025-06-10"))

	f.toggle(t, tracker.NodeActivity, b.ID, "2025-06-10")
	assert.Equal(t, tracker.Metrics{Total: 3, Completed: 2, Percentage: 67, Remaining: 1}, f.tr.TodaysMetrics("2025-06-10"))

	tasks := f.tr.TasksDueToday("2025-06-10")
	require.Len(t, tasks, 3)
	assert.True(t, tasks[0].Completed)
	assert.True(t, tasks[1].Completed)
	assert.False(t, tasks[2].Completed)
}

func TestCloseDayAppendsRecords(t *testing.T) {
	f := newFixture(t)
	g := f.goal(t, "G")
	a := f.activity(t, simple(g.ID, "A", "2025-06-30", weeklyPlan(30, calendar.Tuesday)))
	c := f.activity(t, composite(g.ID, "C", "2025-06-30"))
	s := f.sub(t, c.ID, "S", "2025-06-30", datesPlan(45, "2025-06-10"))
	f.toggle(t, tracker.NodeSubActivity, s.ID, "2025-06-10")
	ctx := context.Background()

	f.clock.now = time.Date(2025, 6, 10, 21, 0, 0, 0, time.UTC)
	first, err := f.tr.CloseDay(ctx, "", "felt good")
	require.NoError(t, err)
	assert.Equal(t, "2025-06-10", first.Date)
	assert.Equal(t, 2, first.PlannedItems)
	assert.Equal(t, 1, first.CompletedItems)
	assert.Equal(t, 50, first.ExecutionPercentage)
	assert.Equal(t, 75, first.PlannedTimeMin)
	assert.Equal(t, 45, first.ExecutedTimeMin)
	assert.Equal(t, "felt good", first.Notes)
	assert.Equal(t, f.clock.now, first.CreatedAt)
	assert.Contains(t, f.dialog.alerts, "Day closed: 2025-06-10: 1/2 tasks (50%), 45 of 75 min")

	f.toggle(t, tracker.NodeActivity, a.ID, "2025-06-10")
	second, err := f.tr.CloseDay(ctx, "2025-06-10", "")
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, 100, second.ExecutionPercentage)

	records := f.tr.Records()
	require.Len(t, records, 2)
	assert.Equal(t, first, records[0], "earlier records are never rewritten")
	assert.Equal(t, second, records[1])

	reopened := f.open(t)
	assert.Len(t, reopened.Records(), 2)
}

func TestCloseDayOnEmptyDay(t *testing.T) {
	f := newFixture(t)
	rec, err := f.tr.CloseDay(context.Background(), "2025-06-14", "")
	require.NoError(t, err)
	assert.Equal(t, 0, rec.PlannedItems)
	assert.Equal(t, 0, rec.ExecutionPercentage)

	_, err = f.tr.CloseDay(context.Background(), "yesterday", "")
	assert.True(t, tracker.IsValidation(err))
	assert.Len(t, f.tr.Records(), 1)
}
