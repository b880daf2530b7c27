package tracker

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"go.uber.org/zap"

	"timeplanner/internal/calendar"
)

// Tracker owns the four collections and applies every mutation to them.
// Operations are serialised; each mutation ends by saving all collections.
type Tracker struct {
	mu     sync.Mutex
	gw     Gateway
	dialog Dialog
	log    *zap.Logger
	now    func() time.Time
	loc    *time.Location

	goals      arena[Goal]
	activities arena[Activity]
	subs       arena[SubActivity]
	records    []DailyRecord
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithLogger sets the diagnostics logger.
func WithLogger(log *zap.Logger) Option {
	return func(t *Tracker) {
		if log != nil {
			t.log = log
		}
	}
}

// WithDialog sets the confirmation collaborator. Without one every
// confirmation is accepted.
func WithDialog(d Dialog) Option {
	return func(t *Tracker) {
		if d != nil {
			t.dialog = d
		}
	}
}

// WithClock overrides the wall clock used for "today" and timestamps.
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) {
		if now != nil {
			t.now = now
		}
	}
}

// WithLocation sets the zone in which "today" is evaluated.
func WithLocation(loc *time.Location) Option {
	return func(t *Tracker) {
		if loc != nil {
			t.loc = loc
		}
	}
}

// Open loads every collection through gw and returns a ready tracker. Stored
// plan dates are sorted and de-duplicated on load; an unparsable date fails
// the load.
func Open(ctx context.Context, gw Gateway, opts ...Option) (*Tracker, error) {
	if gw == nil {
		return nil, errors.New("tracker: gateway is required")
	}
	t := &Tracker{
		gw:         gw,
		dialog:     acceptAll{},
		log:        zap.NewNop(),
		now:        time.Now,
		loc:        time.Local,
		goals:      newArena[Goal](),
		activities: newArena[Activity](),
		subs:       newArena[SubActivity](),
	}
	for _, opt := range opts {
		opt(t)
	}

	var (
		goals      []Goal
		activities []Activity
		subs       []SubActivity
		records    []DailyRecord
	)
	loads := []struct {
		name string
		dst  any
	}{
		{CollectionGoals, &goals},
		{CollectionActivities, &activities},
		{CollectionSubActivities, &subs},
		{CollectionRecords, &records},
	}
	for _, l := range loads {
		if err := gw.Load(ctx, l.name, l.dst); err != nil {
			return nil, fmt.Errorf("load %s: %w", l.name, err)
		}
	}
	for _, g := range goals {
		t.goals.put(g.ID, g)
	}
	for _, a := range activities {
		if a.Plan != nil {
			if err := a.Plan.normalize(); err != nil {
				return nil, fmt.Errorf("load %s: activity %q: %w", CollectionActivities, a.ID, err)
			}
		}
		t.activities.put(a.ID, a)
	}
	for _, s := range subs {
		if err := s.Plan.normalize(); err != nil {
			return nil, fmt.Errorf("load %s: subactivity %q: %w", CollectionSubActivities, s.ID, err)
		}
		t.subs.put(s.ID, s)
	}
	t.records = records

	t.log.Debug("collections loaded",
		zap.Int("goals", len(goals)),
		zap.Int("activities", len(activities)),
		zap.Int("subactivities", len(subs)),
		zap.Int("records", len(records)),
	)
	return t, nil
}

// Today is the current ISO day in the tracker's zone.
func (t *Tracker) Today() string {
	return calendar.Today(t.now(), t.loc)
}

// persist writes every collection. Each collection is attempted even when an
// earlier one fails; the in-memory state is kept either way.
func (t *Tracker) persist(ctx context.Context) error {
	saves := []struct {
		name  string
		items any
	}{
		{CollectionGoals, t.goals.list()},
		{CollectionActivities, t.activities.list()},
		{CollectionSubActivities, t.subs.list()},
		{CollectionRecords, append([]DailyRecord{}, t.records...)},
	}
	var errs []error
	for _, s := range saves {
		if err := t.gw.SaveAll(ctx, s.name, s.items); err != nil {
			t.log.Error("save collection failed", zap.String("collection", s.name), zap.Error(err))
			errs = append(errs, fmt.Errorf("%s: %w", s.name, err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrPersist, errors.Join(errs...))
	}
	return nil
}

func (t *Tracker) confirm(ctx context.Context, title, message string) error {
	ok, err := t.dialog.Confirm(ctx, title, message, "Delete", "Cancel")
	if err != nil {
		return fmt.Errorf("%w: %w", ErrCancelled, err)
	}
	if !ok {
		return ErrCancelled
	}
	return nil
}

func (t *Tracker) alert(ctx context.Context, title, message string) {
	if err := t.dialog.Alert(ctx, title, message); err != nil {
		t.log.Warn("alert failed", zap.String("title", title), zap.Error(err))
	}
}

// Goals returns every goal in creation order.
func (t *Tracker) Goals() []Goal {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.goals.list()
}

// Goal returns one goal.
func (t *Tracker) Goal(id string) (Goal, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	g, ok := t.goals.get(id)
	if !ok {
		return Goal{}, notFound("goal", id)
	}
	return g, nil
}

// Activities returns the activities of goalID, or all activities when
// goalID is empty.
func (t *Tracker) Activities(goalID string) []Activity {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := []Activity{}
	for _, a := range t.activities.list() {
		if goalID == "" || a.GoalID == goalID {
			out = append(out, cloneActivity(a))
		}
	}
	return out
}

// Activity returns one activity.
func (t *Tracker) Activity(id string) (Activity, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	a, ok := t.activities.get(id)
	if !ok {
		return Activity{}, notFound("activity", id)
	}
	return cloneActivity(a), nil
}

// SubActivities returns the sub-activities of activityID, or all of them when
// activityID is empty.
func (t *Tracker) SubActivities(activityID string) []SubActivity {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := []SubActivity{}
	for _, s := range t.subs.list() {
		if activityID == "" || s.ActivityID == activityID {
			out = append(out, cloneSub(s))
		}
	}
	return out
}

// SubActivity returns one sub-activity.
func (t *Tracker) SubActivity(id string) (SubActivity, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	s, ok := t.subs.get(id)
	if !ok {
		return SubActivity{}, notFound("subactivity", id)
	}
	return cloneSub(s), nil
}

// Records returns the daily records in the order they were closed.
func (t *Tracker) Records() []DailyRecord {
	t.mu.Lock()
	defer t.mu.Unlock()
	return slices.Clone(t.records)
}

// Snapshot returns a deep copy of every collection.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	snap := Snapshot{
		Goals:         t.goals.list(),
		Activities:    make([]Activity, 0, t.activities.len()),
		SubActivities: make([]SubActivity, 0, t.subs.len()),
		Records:       slices.Clone(t.records),
	}
	for _, a := range t.activities.list() {
		snap.Activities = append(snap.Activities, cloneActivity(a))
	}
	for _, s := range t.subs.list() {
		snap.SubActivities = append(snap.SubActivities, cloneSub(s))
	}
	if snap.Records == nil {
		snap.Records = []DailyRecord{}
	}
	return snap
}

func cloneActivity(a Activity) Activity {
	if a.Plan != nil {
		p := a.Plan.Clone()
		a.Plan = &p
	}
	return a
}

func cloneSub(s SubActivity) SubActivity {
	s.Plan = s.Plan.Clone()
	return s
}

// arena stores values by id and remembers insertion order.
type arena[T any] struct {
	byID  map[string]T
	order []string
}

func newArena[T any]() arena[T] {
	return arena[T]{byID: map[string]T{}}
}

func (a *arena[T]) get(id string) (T, bool) {
	v, ok := a.byID[id]
	return v, ok
}

func (a *arena[T]) put(id string, v T) {
	if _, ok := a.byID[id]; !ok {
		a.order = append(a.order, id)
	}
	a.byID[id] = v
}

func (a *arena[T]) remove(id string) {
	if _, ok := a.byID[id]; !ok {
		return
	}
	delete(a.byID, id)
	a.order = slices.DeleteFunc(a.order, func(x string) bool { return x == id })
}

func (a *arena[T]) len() int { return len(a.order) }

// list returns values in insertion order. Slices inside values are shared.
func (a *arena[T]) list() []T {
	out := make([]T, 0, len(a.order))
	for _, id := range a.order {
		out = append(out, a.byID[id])
	}
	return out
}
