package tracker

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"timeplanner/internal/calendar"
	"timeplanner/internal/progress"
)

// TasksDueToday lists the simple activities and sub-activities scheduled on
// date, activities first, each group in creation order.
func (t *Tracker) TasksDueToday(date string) []Task {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.tasksDue(date)
}

// TodaysMetrics summarises the tasks due on date.
func (t *Tracker) TodaysMetrics(date string) Metrics {
	t.mu.Lock()
	defer t.mu.Unlock()
	return metricsOf(t.tasksDue(date))
}

// CloseDay appends a record of date's execution. Earlier records, including
// ones for the same date, are left as they are. An empty date means today.
func (t *Tracker) CloseDay(ctx context.Context, date, notes string) (DailyRecord, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if date == "" {
		date = t.Today()
	}
	day, err := calendar.ParseDate(date)
	if err != nil {
		return DailyRecord{}, ValidationError{Field: "date", Message: err.Error()}
	}
	date = calendar.FormatDate(day)

	tasks := t.tasksDue(date)
	m := metricsOf(tasks)
	rec := DailyRecord{
		ID:                  uuid.NewString(),
		Date:                date,
		PlannedItems:        m.Total,
		CompletedItems:      m.Completed,
		ExecutionPercentage: m.Percentage,
		Notes:               notes,
		CreatedAt:           t.now().UTC(),
	}
	for _, task := range tasks {
		rec.PlannedTimeMin += task.DurationMin
		if task.Completed {
			rec.ExecutedTimeMin += task.DurationMin
		}
	}

	t.records = append(t.records, rec)
	t.log.Debug("day closed", zap.String("date", date), zap.Int("planned", rec.PlannedItems), zap.Int("completed", rec.CompletedItems))
	t.alert(ctx, "Day closed", fmt.Sprintf("%s: %d/%d tasks (%d%%), %d of %d min",
		date, rec.CompletedItems, rec.PlannedItems, rec.ExecutionPercentage, rec.ExecutedTimeMin, rec.PlannedTimeMin))
	return rec, t.persist(ctx)
}

func (t *Tracker) tasksDue(date string) []Task {
	tasks := []Task{}
	for _, a := range t.activities.list() {
		if a.Kind != KindSimple || a.Plan == nil || !a.Plan.IsScheduled(date) {
			continue
		}
		tasks = append(tasks, Task{
			ID:          a.ID,
			Title:       a.Title,
			DurationMin: a.Plan.DurationMin,
			Completed:   a.Plan.IsCompleted(date),
			Source:      NodeActivity,
		})
	}
	for _, s := range t.subs.list() {
		if !s.Plan.IsScheduled(date) {
			continue
		}
		tasks = append(tasks, Task{
			ID:               s.ID,
			Title:            s.Title,
			DurationMin:      s.Plan.DurationMin,
			Completed:        s.Plan.IsCompleted(date),
			Source:           NodeSubActivity,
			ParentActivityID: s.ActivityID,
		})
	}
	return tasks
}

func metricsOf(tasks []Task) Metrics {
	m := Metrics{Total: len(tasks)}
	for _, task := range tasks {
		if task.Completed {
			m.Completed++
		}
	}
	m.Percentage = progress.Percentage(m.Total, m.Completed)
	m.Remaining = m.Total - m.Completed
	return m
}
