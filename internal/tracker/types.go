package tracker

import (
	"time"

	"timeplanner/internal/calendar"
)

// GoalCategory classifies a goal.
type GoalCategory string

const (
	CategoryWork       GoalCategory = "work"
	CategoryLifeSystem GoalCategory = "life_system"
	CategoryProgress   GoalCategory = "progress"
	CategoryCreative   GoalCategory = "creative"
)

// GoalHorizon is the time horizon of a goal.
type GoalHorizon string

const (
	HorizonShort  GoalHorizon = "short"
	HorizonMedium GoalHorizon = "medium"
	HorizonLong   GoalHorizon = "long"
)

// GoalStatus is set by the user only; progress never changes it.
type GoalStatus string

const (
	GoalActive   GoalStatus = "active"
	GoalPaused   GoalStatus = "paused"
	GoalArchived GoalStatus = "archived"
)

// ActivityLevel is the urgency/nature of an activity.
type ActivityLevel string

const (
	LevelUrgentDirect   ActivityLevel = "urgent_direct"
	LevelUrgentSystemic ActivityLevel = "urgent_systemic"
	LevelProgress       ActivityLevel = "progress"
	LevelSystem         ActivityLevel = "system"
	LevelCreative       ActivityLevel = "creative"
)

// ActivityKind tells whether an activity is scheduled directly or through
// its sub-activities.
type ActivityKind string

const (
	KindSimple    ActivityKind = "simple"
	KindComposite ActivityKind = "composite"
)

// Status is shared by activities and sub-activities. StatusPaused is only
// valid on activities.
type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusDone       Status = "done"
	StatusPaused     Status = "paused"
)

// PlanType selects how scheduled dates are produced.
type PlanType string

const (
	PlanDates  PlanType = "dates"
	PlanWeekly PlanType = "weekly"
)

// NodeKind identifies which collection a schedulable node lives in.
type NodeKind string

const (
	NodeActivity    NodeKind = "activity"
	NodeSubActivity NodeKind = "subactivity"
)

// Goal is the top of the hierarchy.
type Goal struct {
	ID        string       `json:"id" yaml:"id"`
	Title     string       `json:"title" yaml:"title" validate:"required"`
	Category  GoalCategory `json:"category" yaml:"category" validate:"oneof=work life_system progress creative"`
	Horizon   GoalHorizon  `json:"horizon" yaml:"horizon" validate:"oneof=short medium long"`
	Status    GoalStatus   `json:"status" yaml:"status" validate:"oneof=active paused archived"`
	Progress  int          `json:"progress" yaml:"progress"`
	CreatedAt time.Time    `json:"created_at" yaml:"created_at"`
}

// ExecutionPlan says when and for how long a node is worked on, and which
// occurrences were done.
type ExecutionPlan struct {
	Type           PlanType           `json:"type" yaml:"type" validate:"oneof=dates weekly"`
	Dates          []string           `json:"dates,omitempty" yaml:"dates,omitempty"`
	PatternDays    []calendar.Weekday `json:"pattern_days,omitempty" yaml:"pattern_days,omitempty"`
	DurationMin    int                `json:"duration_min" yaml:"duration_min" validate:"gt=0"`
	ScheduledDates []string           `json:"scheduled_dates" yaml:"scheduled_dates"`
	CompletedDates []string           `json:"completed_dates" yaml:"completed_dates"`
}

// Activity belongs to a goal. A simple activity owns a plan; a composite one
// delegates to its sub-activities.
type Activity struct {
	ID               string         `json:"id" yaml:"id"`
	GoalID           string         `json:"goal_id" yaml:"goal_id" validate:"required"`
	Title            string         `json:"title" yaml:"title" validate:"required"`
	Level            ActivityLevel  `json:"level" yaml:"level" validate:"oneof=urgent_direct urgent_systemic progress system creative"`
	Kind             ActivityKind   `json:"kind" yaml:"kind" validate:"oneof=simple composite"`
	Deadline         string         `json:"deadline" yaml:"deadline" validate:"required,datetime=2006-01-02"`
	Status           Status         `json:"status" yaml:"status" validate:"oneof=pending in_progress done paused"`
	Progress         int            `json:"progress" yaml:"progress"`
	Plan             *ExecutionPlan `json:"plan,omitempty" yaml:"plan,omitempty" validate:"-"`
	TotalRequiredMin int            `json:"total_required_min,omitempty" yaml:"total_required_min,omitempty"`
}

// SubActivity is always directly schedulable.
type SubActivity struct {
	ID         string        `json:"id" yaml:"id"`
	ActivityID string        `json:"activity_id" yaml:"activity_id" validate:"required"`
	Title      string        `json:"title" yaml:"title" validate:"required"`
	Deadline   string        `json:"deadline" yaml:"deadline" validate:"required,datetime=2006-01-02"`
	Plan       ExecutionPlan `json:"plan" yaml:"plan" validate:"-"`
	Progress   int           `json:"progress" yaml:"progress"`
	Status     Status        `json:"status" yaml:"status" validate:"oneof=pending in_progress done"`
}

// DailyRecord is an immutable end-of-day summary.
type DailyRecord struct {
	ID                  string    `json:"id" yaml:"id"`
	Date                string    `json:"date" yaml:"date"`
	PlannedItems        int       `json:"planned_items" yaml:"planned_items"`
	CompletedItems      int       `json:"completed_items" yaml:"completed_items"`
	ExecutionPercentage int       `json:"execution_percentage" yaml:"execution_percentage"`
	PlannedTimeMin      int       `json:"planned_time_min" yaml:"planned_time_min"`
	ExecutedTimeMin     int       `json:"executed_time_min" yaml:"executed_time_min"`
	Notes               string    `json:"notes,omitempty" yaml:"notes,omitempty"`
	CreatedAt           time.Time `json:"created_at" yaml:"created_at"`
}

// Task is one unit of work due on a given day.
type Task struct {
	ID               string   `json:"id"`
	Title            string   `json:"title"`
	DurationMin      int      `json:"duration_min"`
	Completed        bool     `json:"completed"`
	Source           NodeKind `json:"source"`
	ParentActivityID string   `json:"parent_activity_id,omitempty"`
}

// Metrics summarises a day's tasks.
type Metrics struct {
	Total      int `json:"total"`
	Completed  int `json:"completed"`
	Percentage int `json:"percentage"`
	Remaining  int `json:"remaining"`
}

// Snapshot is a deep copy of every collection.
type Snapshot struct {
	Goals         []Goal        `json:"goals" yaml:"goals"`
	Activities    []Activity    `json:"activities" yaml:"activities"`
	SubActivities []SubActivity `json:"subactivities" yaml:"subactivities"`
	Records       []DailyRecord `json:"records" yaml:"records"`
}
