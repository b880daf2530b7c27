package tracker

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"timeplanner/internal/calendar"
	"timeplanner/internal/progress"
)

// AddGoal inserts a goal. ID and CreatedAt are assigned when empty.
func (t *Tracker) AddGoal(ctx context.Context, g Goal) (Goal, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if g.ID == "" {
		g.ID = uuid.NewString()
	}
	if _, exists := t.goals.get(g.ID); exists {
		return Goal{}, ValidationError{Field: "goal.id", Message: fmt.Sprintf("id %q already exists", g.ID)}
	}
	if g.Status == "" {
		g.Status = GoalActive
	}
	if g.CreatedAt.IsZero() {
		g.CreatedAt = t.now().UTC()
	}
	g.Progress = 0
	if err := validateGoal(g); err != nil {
		return Goal{}, err
	}

	t.goals.put(g.ID, g)
	t.log.Debug("goal added", zap.String("id", g.ID), zap.String("title", g.Title))
	return g, t.persist(ctx)
}

// UpdateGoal replaces the user-editable fields of a goal. Progress and
// CreatedAt are kept.
func (t *Tracker) UpdateGoal(ctx context.Context, g Goal) (Goal, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	prev, ok := t.goals.get(g.ID)
	if !ok {
		return Goal{}, notFound("goal", g.ID)
	}
	g.Progress = prev.Progress
	g.CreatedAt = prev.CreatedAt
	if g.Status == "" {
		g.Status = prev.Status
	}
	if err := validateGoal(g); err != nil {
		return Goal{}, err
	}

	t.goals.put(g.ID, g)
	t.log.Debug("goal updated", zap.String("id", g.ID))
	return g, t.persist(ctx)
}

// DeleteGoal removes a goal with all its activities and their sub-activities
// after the user confirms.
func (t *Tracker) DeleteGoal(ctx context.Context, id string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	g, ok := t.goals.get(id)
	if !ok {
		return notFound("goal", id)
	}
	var activityIDs, subIDs []string
	for _, a := range t.activities.list() {
		if a.GoalID != id {
			continue
		}
		activityIDs = append(activityIDs, a.ID)
		subIDs = append(subIDs, t.subIDsOf(a.ID)...)
	}
	msg := fmt.Sprintf("Delete goal %q with %d activities and %d sub-activities?", g.Title, len(activityIDs), len(subIDs))
	if err := t.confirm(ctx, "Delete goal", msg); err != nil {
		return err
	}

	for _, sid := range subIDs {
		t.subs.remove(sid)
	}
	for _, aid := range activityIDs {
		t.activities.remove(aid)
	}
	t.goals.remove(id)
	t.log.Debug("goal deleted", zap.String("id", id),
		zap.Int("activities", len(activityIDs)), zap.Int("subactivities", len(subIDs)))
	return t.persist(ctx)
}

// AddActivity inserts an activity under an existing goal. A simple activity's
// plan is expanded from today through its deadline.
func (t *Tracker) AddActivity(ctx context.Context, a Activity) (Activity, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	if _, exists := t.activities.get(a.ID); exists {
		return Activity{}, ValidationError{Field: "activity.id", Message: fmt.Sprintf("id %q already exists", a.ID)}
	}
	if a.Status == "" {
		a.Status = StatusPending
	}
	a.Progress = 0
	if err := validateActivity(a); err != nil {
		return Activity{}, err
	}
	if _, ok := t.goals.get(a.GoalID); !ok {
		return Activity{}, notFound("goal", a.GoalID)
	}
	if a.Kind == KindSimple {
		plan, err := reconcile(nil, "", *a.Plan, a.Deadline, t.Today())
		if err != nil {
			return Activity{}, err
		}
		a.Plan = &plan
	}
	a.TotalRequiredMin = t.requiredMinutes(a)

	t.activities.put(a.ID, a)
	t.log.Debug("activity added", zap.String("id", a.ID), zap.String("goal_id", a.GoalID), zap.String("kind", string(a.Kind)))
	return cloneActivity(a), t.persist(ctx)
}

// UpdateActivity replaces an activity's editable fields. The parent goal is
// immutable. A plan whose rule or deadline changed is regenerated, keeping
// its completions. Turning a composite activity with sub-activities into a
// simple one deletes those sub-activities once the user confirms; declining
// leaves everything untouched.
func (t *Tracker) UpdateActivity(ctx context.Context, a Activity) (Activity, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	prev, ok := t.activities.get(a.ID)
	if !ok {
		return Activity{}, notFound("activity", a.ID)
	}
	if a.GoalID != "" && a.GoalID != prev.GoalID {
		return Activity{}, ValidationError{Field: "activity.goal_id", Message: "cannot move an activity to another goal"}
	}
	a.GoalID = prev.GoalID
	if a.Status == "" {
		a.Status = prev.Status
	}
	if err := validateActivity(a); err != nil {
		return Activity{}, err
	}

	if a.Kind == KindSimple {
		plan, err := reconcile(prev.Plan, prev.Deadline, *a.Plan, a.Deadline, t.Today())
		if err != nil {
			return Activity{}, err
		}
		a.Plan = &plan
	}

	var dropped []string
	if prev.Kind == KindComposite && a.Kind == KindSimple {
		dropped = t.subIDsOf(a.ID)
		if len(dropped) > 0 {
			msg := fmt.Sprintf("Making %q simple deletes its %d sub-activities. Continue?", prev.Title, len(dropped))
			if err := t.confirm(ctx, "Change activity kind", msg); err != nil {
				return Activity{}, err
			}
		}
	}
	for _, sid := range dropped {
		t.subs.remove(sid)
	}

	a.Progress = t.activityProgress(a)
	a.TotalRequiredMin = t.requiredMinutes(a)
	t.activities.put(a.ID, a)
	t.recomputeGoal(ctx, a.GoalID)

	t.log.Debug("activity updated", zap.String("id", a.ID), zap.Int("progress", a.Progress), zap.Int("dropped_subactivities", len(dropped)))
	return cloneActivity(a), t.persist(ctx)
}

// DeleteActivity removes an activity and its sub-activities after the user
// confirms. The goal's progress is not recomputed; call RecomputeGoal.
func (t *Tracker) DeleteActivity(ctx context.Context, id string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	a, ok := t.activities.get(id)
	if !ok {
		return notFound("activity", id)
	}
	subIDs := t.subIDsOf(id)
	msg := fmt.Sprintf("Delete activity %q?", a.Title)
	if len(subIDs) > 0 {
		msg = fmt.Sprintf("Delete activity %q and its %d sub-activities?", a.Title, len(subIDs))
	}
	if err := t.confirm(ctx, "Delete activity", msg); err != nil {
		return err
	}

	for _, sid := range subIDs {
		t.subs.remove(sid)
	}
	t.activities.remove(id)
	t.log.Debug("activity deleted", zap.String("id", id), zap.Int("subactivities", len(subIDs)))
	return t.persist(ctx)
}

// AddSubActivity inserts a sub-activity under a composite activity, expands
// its plan from today through its deadline and refreshes the parent, so a
// done parent reopens when pending work is added.
func (t *Tracker) AddSubActivity(ctx context.Context, s SubActivity) (SubActivity, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	if _, exists := t.subs.get(s.ID); exists {
		return SubActivity{}, ValidationError{Field: "subactivity.id", Message: fmt.Sprintf("id %q already exists", s.ID)}
	}
	if s.Status == "" {
		s.Status = StatusPending
	}
	s.Progress = 0
	if err := validateSubActivity(s); err != nil {
		return SubActivity{}, err
	}
	parent, ok := t.activities.get(s.ActivityID)
	if !ok {
		return SubActivity{}, notFound("activity", s.ActivityID)
	}
	if parent.Kind != KindComposite {
		return SubActivity{}, ValidationError{Field: "subactivity.activity_id", Message: fmt.Sprintf("activity %q is simple; only composite activities own sub-activities", parent.Title)}
	}
	plan, err := reconcile(nil, "", s.Plan, s.Deadline, t.Today())
	if err != nil {
		return SubActivity{}, err
	}
	s.Plan = plan

	t.subs.put(s.ID, s)
	t.activities.put(parent.ID, t.settle(parent))
	t.recomputeGoal(ctx, parent.GoalID)
	t.log.Debug("subactivity added", zap.String("id", s.ID), zap.String("activity_id", s.ActivityID))
	return cloneSub(s), t.persist(ctx)
}

// UpdateSubActivity replaces a sub-activity's editable fields, regenerating
// its plan when the rule or deadline changed, and bubbles progress up.
func (t *Tracker) UpdateSubActivity(ctx context.Context, s SubActivity) (SubActivity, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	prev, ok := t.subs.get(s.ID)
	if !ok {
		return SubActivity{}, notFound("subactivity", s.ID)
	}
	if s.ActivityID != "" && s.ActivityID != prev.ActivityID {
		return SubActivity{}, ValidationError{Field: "subactivity.activity_id", Message: "cannot move a sub-activity to another activity"}
	}
	s.ActivityID = prev.ActivityID
	if s.Status == "" {
		s.Status = prev.Status
	}
	if err := validateSubActivity(s); err != nil {
		return SubActivity{}, err
	}
	plan, err := reconcile(&prev.Plan, prev.Deadline, s.Plan, s.Deadline, t.Today())
	if err != nil {
		return SubActivity{}, err
	}
	s.Plan = plan
	s.Progress = plan.Progress()

	t.subs.put(s.ID, s)
	if parent, ok := t.activities.get(s.ActivityID); ok {
		before := parent.Progress
		parent = t.settle(parent)
		t.activities.put(parent.ID, parent)
		t.announce(ctx, "Activity completed", parent.Title, before, parent.Progress)
		t.recomputeGoal(ctx, parent.GoalID)
	}
	t.log.Debug("subactivity updated", zap.String("id", s.ID), zap.Int("progress", s.Progress))
	return cloneSub(s), t.persist(ctx)
}

// DeleteSubActivity removes a sub-activity after the user confirms. The
// parent's progress is not recomputed; call RecomputeActivity.
func (t *Tracker) DeleteSubActivity(ctx context.Context, id string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	s, ok := t.subs.get(id)
	if !ok {
		return notFound("subactivity", id)
	}
	if err := t.confirm(ctx, "Delete sub-activity", fmt.Sprintf("Delete sub-activity %q?", s.Title)); err != nil {
		return err
	}

	t.subs.remove(id)
	if parent, ok := t.activities.get(s.ActivityID); ok {
		parent.TotalRequiredMin = t.requiredMinutes(parent)
		t.activities.put(parent.ID, parent)
	}
	t.log.Debug("subactivity deleted", zap.String("id", id))
	return t.persist(ctx)
}

// ToggleExecution flips date in the plan of a simple activity or a
// sub-activity, then bubbles progress up to the goal. An empty date means
// today. It returns whether the date is now completed.
func (t *Tracker) ToggleExecution(ctx context.Context, kind NodeKind, id, date string) (bool, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if date == "" {
		date = t.Today()
	}
	day, err := calendar.ParseDate(date)
	if err != nil {
		return false, ValidationError{Field: "date", Message: err.Error()}
	}
	date = calendar.FormatDate(day)

	var (
		completed bool
		goalID    string
	)
	switch kind {
	case NodeActivity:
		a, ok := t.activities.get(id)
		if !ok {
			return false, notFound("activity", id)
		}
		if a.Kind != KindSimple || a.Plan == nil {
			return false, ValidationError{Field: "activity.kind", Message: "composite activities are executed through their sub-activities"}
		}
		plan := a.Plan.Clone()
		if completed, err = plan.Toggle(date); err != nil {
			return false, err
		}
		before := a.Progress
		a.Plan = &plan
		a.Progress = plan.Progress()
		a.Status = statusFor(a.Progress)
		t.activities.put(a.ID, a)
		t.announce(ctx, "Activity completed", a.Title, before, a.Progress)
		goalID = a.GoalID

	case NodeSubActivity:
		s, ok := t.subs.get(id)
		if !ok {
			return false, notFound("subactivity", id)
		}
		plan := s.Plan.Clone()
		if completed, err = plan.Toggle(date); err != nil {
			return false, err
		}
		s.Plan = plan
		s.Progress = plan.Progress()
		s.Status = statusFor(s.Progress)
		t.subs.put(s.ID, s)

		parent, ok := t.activities.get(s.ActivityID)
		if ok {
			before := parent.Progress
			parent.Progress = t.activityProgress(parent)
			parent.Status = statusFor(parent.Progress)
			t.activities.put(parent.ID, parent)
			t.announce(ctx, "Activity completed", parent.Title, before, parent.Progress)
			goalID = parent.GoalID
		}

	default:
		return false, ValidationError{Field: "kind", Message: fmt.Sprintf("unknown node kind %q", kind)}
	}

	if goalID != "" {
		t.recomputeGoal(ctx, goalID)
	}
	t.log.Debug("execution toggled", zap.String("kind", string(kind)), zap.String("id", id),
		zap.String("date", date), zap.Bool("completed", completed))
	return completed, t.persist(ctx)
}

// RecomputeActivity refreshes an activity's progress from its plan or its
// sub-activities, then refreshes its goal. Status becomes done at 100 and
// leaves done below it; other statuses are kept.
func (t *Tracker) RecomputeActivity(ctx context.Context, id string) (Activity, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	a, ok := t.activities.get(id)
	if !ok {
		return Activity{}, notFound("activity", id)
	}
	a = t.settle(a)
	t.activities.put(a.ID, a)
	t.recomputeGoal(ctx, a.GoalID)
	return cloneActivity(a), t.persist(ctx)
}

// RecomputeGoal refreshes a goal's progress from its activities.
func (t *Tracker) RecomputeGoal(ctx context.Context, id string) (Goal, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.goals.get(id); !ok {
		return Goal{}, notFound("goal", id)
	}
	t.recomputeGoal(ctx, id)
	g, _ := t.goals.get(id)
	return g, t.persist(ctx)
}

// recomputeGoal sets the goal's progress to the mean of its activities'.
// Goal status is never derived.
func (t *Tracker) recomputeGoal(ctx context.Context, id string) {
	g, ok := t.goals.get(id)
	if !ok {
		return
	}
	var values []int
	for _, a := range t.activities.list() {
		if a.GoalID == id {
			values = append(values, a.Progress)
		}
	}
	before := g.Progress
	g.Progress = progress.Mean(values)
	t.goals.put(g.ID, g)
	t.announce(ctx, "Goal reached", g.Title, before, g.Progress)
}

// settle refreshes a's derived fields. Status becomes done at 100 and leaves
// done below it; other statuses are kept.
func (t *Tracker) settle(a Activity) Activity {
	a.Progress = t.activityProgress(a)
	a.TotalRequiredMin = t.requiredMinutes(a)
	switch {
	case a.Progress >= 100:
		a.Status = StatusDone
	case a.Status == StatusDone:
		a.Status = StatusInProgress
	}
	return a
}

// activityProgress derives an activity's progress without storing it.
func (t *Tracker) activityProgress(a Activity) int {
	if a.Kind == KindSimple {
		if a.Plan == nil {
			return 0
		}
		return a.Plan.Progress()
	}
	var values []int
	for _, s := range t.subs.list() {
		if s.ActivityID == a.ID {
			values = append(values, s.Progress)
		}
	}
	return progress.Mean(values)
}

func (t *Tracker) requiredMinutes(a Activity) int {
	if a.Kind == KindSimple {
		if a.Plan == nil {
			return 0
		}
		return a.Plan.TotalMinutes()
	}
	total := 0
	for _, s := range t.subs.list() {
		if s.ActivityID == a.ID {
			total += s.Plan.TotalMinutes()
		}
	}
	return total
}

func (t *Tracker) subIDsOf(activityID string) []string {
	var ids []string
	for _, s := range t.subs.list() {
		if s.ActivityID == activityID {
			ids = append(ids, s.ID)
		}
	}
	return ids
}

// announce alerts when a node crosses into 100%.
func (t *Tracker) announce(ctx context.Context, title, name string, before, after int) {
	if before < 100 && after >= 100 {
		t.alert(ctx, title, fmt.Sprintf("%s is at 100%%", name))
	}
}

func statusFor(pct int) Status {
	if pct >= 100 {
		return StatusDone
	}
	return StatusInProgress
}
