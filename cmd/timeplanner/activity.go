package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"timeplanner/internal/calendar"
	"timeplanner/internal/tracker"
)

// planFlags binds the execution plan flags shared by activities and
// sub-activities.
type planFlags struct {
	kind    *string
	dates   *string
	days    *string
	minutes *int
}

func bindPlanFlags(fs *flag.FlagSet) planFlags {
	return planFlags{
		kind:    fs.String("plan", "", "Plan type: dates or weekly"),
		dates:   fs.String("dates", "", "Comma separated YYYY-MM-DD dates (dates plan)"),
		days:    fs.String("days", "", "Comma separated weekdays L,M,X,J,V,S,D (weekly plan)"),
		minutes: fs.Int("minutes", 0, "Minutes per occurrence"),
	}
}

// touched reports whether any plan flag was given.
func (p planFlags) touched(set map[string]bool) bool {
	return set["plan"] || set["dates"] || set["days"] || set["minutes"]
}

// apply overlays the given flags on prev. Without --plan the type is inferred
// from --dates or --days, falling back to prev's type.
func (p planFlags) apply(prev *tracker.ExecutionPlan, set map[string]bool) (tracker.ExecutionPlan, error) {
	var plan tracker.ExecutionPlan
	if prev != nil {
		plan = prev.Clone()
	}
	switch {
	case set["plan"]:
		plan.Type = tracker.PlanType(*p.kind)
	case set["dates"]:
		plan.Type = tracker.PlanDates
	case set["days"]:
		plan.Type = tracker.PlanWeekly
	}
	if set["dates"] {
		plan.Dates = splitList(*p.dates)
	}
	if set["days"] {
		days, err := calendar.ParseWeekdays(*p.days)
		if err != nil {
			return tracker.ExecutionPlan{}, tracker.ValidationError{Field: "plan.pattern_days", Message: err.Error()}
		}
		plan.PatternDays = days
	}
	if set["minutes"] {
		plan.DurationMin = *p.minutes
	}
	switch plan.Type {
	case tracker.PlanDates:
		plan.PatternDays = nil
	case tracker.PlanWeekly:
		plan.Dates = nil
	}
	return plan, nil
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func describePlan(p tracker.ExecutionPlan) string {
	rule := strings.Join(p.Dates, ",")
	if p.Type == tracker.PlanWeekly {
		days := make([]string, 0, len(p.PatternDays))
		for _, d := range p.PatternDays {
			days = append(days, string(d))
		}
		rule = strings.Join(days, ",")
	}
	desc := fmt.Sprintf("%s %s, %d min, %d/%d done", p.Type, rule, p.DurationMin, p.CompletedCount(), len(p.ScheduledDates))
	if orphaned := p.OrphanedDates(); len(orphaned) > 0 {
		desc += fmt.Sprintf(" (completions no longer scheduled: %s)", strings.Join(orphaned, ","))
	}
	return desc
}

func describeMinutes(total int) string {
	if total == 0 {
		return ""
	}
	return fmt.Sprintf("%dh%02dm required", total/60, total%60)
}

func runActivity(args []string, workspacePath string) error {
	return subcommand("activity", args, map[string]func([]string, string) error{
		"add":    runActivityAdd,
		"update": runActivityUpdate,
		"delete": runActivityDelete,
	}, workspacePath)
}

func runActivityAdd(args []string, workspacePath string) error {
	fs := flag.NewFlagSet("activity add", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	id := fs.String("id", "", "Activity id (default: generated)")
	goalID := fs.String("goal", "", "Parent goal id")
	title := fs.String("title", "", "Activity title")
	level := fs.String("level", string(tracker.LevelProgress), "urgent_direct, urgent_systemic, progress, system or creative")
	kind := fs.String("kind", string(tracker.KindSimple), "simple or composite")
	deadline := fs.String("deadline", "", "Deadline YYYY-MM-DD")
	pf := bindPlanFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	ctx := context.Background()
	a, err := openApp(ctx, workspacePath, false)
	if err != nil {
		return err
	}
	defer a.Close()

	return a.audited("activity_add", map[string]any{"goal_id": *goalID, "title": *title}, func(result map[string]any) error {
		act := tracker.Activity{
			ID:       *id,
			GoalID:   *goalID,
			Title:    *title,
			Level:    tracker.ActivityLevel(*level),
			Kind:     tracker.ActivityKind(*kind),
			Deadline: *deadline,
		}
		set := setFlags(fs)
		if pf.touched(set) {
			plan, err := pf.apply(nil, set)
			if err != nil {
				return err
			}
			act.Plan = &plan
		}
		added, err := a.tracker.AddActivity(ctx, act)
		if added.ID != "" {
			result["activity_id"] = added.ID
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(a.out, "Added activity %s: %s\n", added.ID, added.Title)
		if added.Plan != nil {
			fmt.Fprintf(a.out, "  %s\n", describePlan(*added.Plan))
		}
		return nil
	})
}

func runActivityUpdate(args []string, workspacePath string) error {
	fs := flag.NewFlagSet("activity update", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	id := fs.String("id", "", "Activity id")
	title := fs.String("title", "", "New title")
	level := fs.String("level", "", "New level")
	kind := fs.String("kind", "", "simple or composite")
	deadline := fs.String("deadline", "", "New deadline YYYY-MM-DD")
	status := fs.String("status", "", "pending, in_progress, done or paused")
	yes := fs.Bool("yes", false, "Accept confirmations without asking")
	pf := bindPlanFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	ctx := context.Background()
	a, err := openApp(ctx, workspacePath, *yes)
	if err != nil {
		return err
	}
	defer a.Close()

	return a.audited("activity_update", map[string]any{"activity_id": *id}, func(result map[string]any) error {
		act, err := a.tracker.Activity(*id)
		if err != nil {
			return err
		}
		set := setFlags(fs)
		if set["title"] {
			act.Title = *title
		}
		if set["level"] {
			act.Level = tracker.ActivityLevel(*level)
		}
		if set["kind"] {
			act.Kind = tracker.ActivityKind(*kind)
		}
		if set["deadline"] {
			act.Deadline = *deadline
		}
		if set["status"] {
			act.Status = tracker.Status(*status)
		}
		switch {
		case act.Kind == tracker.KindComposite:
			act.Plan = nil
		case pf.touched(set):
			plan, err := pf.apply(act.Plan, set)
			if err != nil {
				return err
			}
			act.Plan = &plan
		}

		updated, err := a.tracker.UpdateActivity(ctx, act)
		if err != nil {
			return cancelled(a, result, err)
		}
		result["progress"] = updated.Progress
		fmt.Fprintf(a.out, "Updated activity %s: %s %d%%\n", updated.ID, updated.Status, updated.Progress)
		if updated.Plan != nil {
			fmt.Fprintf(a.out, "  %s\n", describePlan(*updated.Plan))
		}
		return nil
	})
}

func runActivityDelete(args []string, workspacePath string) error {
	fs := flag.NewFlagSet("activity delete", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	id := fs.String("id", "", "Activity id")
	yes := fs.Bool("yes", false, "Delete without asking")
	if err := fs.Parse(args); err != nil {
		return err
	}

	ctx := context.Background()
	a, err := openApp(ctx, workspacePath, *yes)
	if err != nil {
		return err
	}
	defer a.Close()

	return a.audited("activity_delete", map[string]any{"activity_id": *id}, func(result map[string]any) error {
		act, err := a.tracker.Activity(*id)
		if err != nil {
			return err
		}
		if err := a.tracker.DeleteActivity(ctx, *id); err != nil {
			return cancelled(a, result, err)
		}
		g, err := a.tracker.RecomputeGoal(ctx, act.GoalID)
		if err != nil {
			return err
		}
		result["goal_progress"] = g.Progress
		fmt.Fprintf(a.out, "Deleted activity %s; goal %s is at %d%%\n", *id, g.ID, g.Progress)
		return nil
	})
}

// cancelled turns a declined confirmation into a clean exit.
func cancelled(a *app, result map[string]any, err error) error {
	if !errors.Is(err, tracker.ErrCancelled) {
		return err
	}
	fmt.Fprintln(a.out, "Cancelled.")
	result["cancelled"] = true
	return nil
}

func runSub(args []string, workspacePath string) error {
	return subcommand("sub", args, map[string]func([]string, string) error{
		"add":    runSubAdd,
		"update": runSubUpdate,
		"delete": runSubDelete,
	}, workspacePath)
}

func runSubAdd(args []string, workspacePath string) error {
	fs := flag.NewFlagSet("sub add", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	id := fs.String("id", "", "Sub-activity id (default: generated)")
	activityID := fs.String("activity", "", "Parent composite activity id")
	title := fs.String("title", "", "Sub-activity title")
	deadline := fs.String("deadline", "", "Deadline YYYY-MM-DD")
	pf := bindPlanFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	ctx := context.Background()
	a, err := openApp(ctx, workspacePath, false)
	if err != nil {
		return err
	}
	defer a.Close()

	return a.audited("sub_add", map[string]any{"activity_id": *activityID, "title": *title}, func(result map[string]any) error {
		plan, err := pf.apply(nil, setFlags(fs))
		if err != nil {
			return err
		}
		added, err := a.tracker.AddSubActivity(ctx, tracker.SubActivity{
			ID:         *id,
			ActivityID: *activityID,
			Title:      *title,
			Deadline:   *deadline,
			Plan:       plan,
		})
		if added.ID != "" {
			result["subactivity_id"] = added.ID
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(a.out, "Added sub-activity %s: %s\n  %s\n", added.ID, added.Title, describePlan(added.Plan))
		return nil
	})
}

func runSubUpdate(args []string, workspacePath string) error {
	fs := flag.NewFlagSet("sub update", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	id := fs.String("id", "", "Sub-activity id")
	title := fs.String("title", "", "New title")
	deadline := fs.String("deadline", "", "New deadline YYYY-MM-DD")
	status := fs.String("status", "", "pending, in_progress or done")
	pf := bindPlanFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	ctx := context.Background()
	a, err := openApp(ctx, workspacePath, false)
	if err != nil {
		return err
	}
	defer a.Close()

	return a.audited("sub_update", map[string]any{"subactivity_id": *id}, func(result map[string]any) error {
		sub, err := a.tracker.SubActivity(*id)
		if err != nil {
			return err
		}
		set := setFlags(fs)
		if set["title"] {
			sub.Title = *title
		}
		if set["deadline"] {
			sub.Deadline = *deadline
		}
		if set["status"] {
			sub.Status = tracker.Status(*status)
		}
		if pf.touched(set) {
			plan, err := pf.apply(&sub.Plan, set)
			if err != nil {
				return err
			}
			sub.Plan = plan
		}
		updated, err := a.tracker.UpdateSubActivity(ctx, sub)
		if err != nil {
			return err
		}
		result["progress"] = updated.Progress
		fmt.Fprintf(a.out, "Updated sub-activity %s: %s %d%%\n  %s\n", updated.ID, updated.Status, updated.Progress, describePlan(updated.Plan))
		return nil
	})
}

func runSubDelete(args []string, workspacePath string) error {
	fs := flag.NewFlagSet("sub delete", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	id := fs.String("id", "", "Sub-activity id")
	yes := fs.Bool("yes", false, "Delete without asking")
	if err := fs.Parse(args); err != nil {
		return err
	}

	ctx := context.Background()
	a, err := openApp(ctx, workspacePath, *yes)
	if err != nil {
		return err
	}
	defer a.Close()

	return a.audited("sub_delete", map[string]any{"subactivity_id": *id}, func(result map[string]any) error {
		sub, err := a.tracker.SubActivity(*id)
		if err != nil {
			return err
		}
		if err := a.tracker.DeleteSubActivity(ctx, *id); err != nil {
			return cancelled(a, result, err)
		}
		parent, err := a.tracker.RecomputeActivity(ctx, sub.ActivityID)
		if err != nil {
			return err
		}
		result["activity_progress"] = parent.Progress
		fmt.Fprintf(a.out, "Deleted sub-activity %s; activity %s is at %d%%\n", *id, parent.ID, parent.Progress)
		return nil
	})
}
