package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"

	"timeplanner/internal/tracker"
)

func runGoal(args []string, workspacePath string) error {
	return subcommand("goal", args, map[string]func([]string, string) error{
		"add":    runGoalAdd,
		"list":   runGoalList,
		"show":   runGoalShow,
		"update": runGoalUpdate,
		"delete": runGoalDelete,
	}, workspacePath)
}

func runGoalAdd(args []string, workspacePath string) error {
	fs := flag.NewFlagSet("goal add", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	id := fs.String("id", "", "Goal id (default: generated)")
	title := fs.String("title", "", "Goal title")
	category := fs.String("category", string(tracker.CategoryWork), "work, life_system, progress or creative")
	horizon := fs.String("horizon", string(tracker.HorizonMedium), "short, medium or long")
	if err := fs.Parse(args); err != nil {
		return err
	}

	ctx := context.Background()
	a, err := openApp(ctx, workspacePath, false)
	if err != nil {
		return err
	}
	defer a.Close()

	return a.audited("goal_add", map[string]any{"title": *title}, func(result map[string]any) error {
		g, err := a.tracker.AddGoal(ctx, tracker.Goal{
			ID:       *id,
			Title:    *title,
			Category: tracker.GoalCategory(*category),
			Horizon:  tracker.GoalHorizon(*horizon),
		})
		if g.ID != "" {
			result["goal_id"] = g.ID
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(a.out, "Added goal %s: %s\n", g.ID, g.Title)
		return nil
	})
}

func runGoalList(args []string, workspacePath string) error {
	fs := flag.NewFlagSet("goal list", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	asJSON := fs.Bool("json", false, "Print JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}

	a, err := openApp(context.Background(), workspacePath, false)
	if err != nil {
		return err
	}
	defer a.Close()

	goals := a.tracker.Goals()
	if *asJSON {
		return printJSON(a.out, goals)
	}
	if len(goals) == 0 {
		fmt.Fprintln(a.out, "No goals yet.")
		return nil
	}
	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tCATEGORY\tHORIZON\tSTATUS\tPROGRESS")
	for _, g := range goals {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%d%%\n", g.ID, g.Title, g.Category, g.Horizon, g.Status, g.Progress)
	}
	return tw.Flush()
}

type goalTree struct {
	tracker.Goal
	Activities []activityTree `json:"activities"`
}

type activityTree struct {
	tracker.Activity
	SubActivities []tracker.SubActivity `json:"subactivities,omitempty"`
}

func runGoalShow(args []string, workspacePath string) error {
	fs := flag.NewFlagSet("goal show", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	id := fs.String("id", "", "Goal id")
	asJSON := fs.Bool("json", false, "Print JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}

	a, err := openApp(context.Background(), workspacePath, false)
	if err != nil {
		return err
	}
	defer a.Close()

	g, err := a.tracker.Goal(*id)
	if err != nil {
		return err
	}
	tree := goalTree{Goal: g, Activities: []activityTree{}}
	for _, act := range a.tracker.Activities(g.ID) {
		tree.Activities = append(tree.Activities, activityTree{Activity: act, SubActivities: a.tracker.SubActivities(act.ID)})
	}
	if *asJSON {
		return printJSON(a.out, tree)
	}

	fmt.Fprintf(a.out, "%s  %s  [%s, %s, %s]  %d%%\n", g.ID, g.Title, g.Category, g.Horizon, g.Status, g.Progress)
	for _, act := range tree.Activities {
		fmt.Fprintf(a.out, "  %s  %s  (%s, %s, due %s)  %s %d%%  %s\n",
			act.ID, act.Title, act.Kind, act.Level, act.Deadline, act.Status, act.Progress, describeMinutes(act.TotalRequiredMin))
		if act.Plan != nil {
			fmt.Fprintf(a.out, "      %s\n", describePlan(*act.Plan))
		}
		for _, s := range act.SubActivities {
			fmt.Fprintf(a.out, "    %s  %s  (due %s)  %s %d%%\n", s.ID, s.Title, s.Deadline, s.Status, s.Progress)
			fmt.Fprintf(a.out, "        %s\n", describePlan(s.Plan))
		}
	}
	return nil
}

func runGoalUpdate(args []string, workspacePath string) error {
	fs := flag.NewFlagSet("goal update", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	id := fs.String("id", "", "Goal id")
	title := fs.String("title", "", "New title")
	category := fs.String("category", "", "New category")
	horizon := fs.String("horizon", "", "New horizon")
	status := fs.String("status", "", "active, paused or archived")
	if err := fs.Parse(args); err != nil {
		return err
	}

	ctx := context.Background()
	a, err := openApp(ctx, workspacePath, false)
	if err != nil {
		return err
	}
	defer a.Close()

	return a.audited("goal_update", map[string]any{"goal_id": *id}, func(result map[string]any) error {
		g, err := a.tracker.Goal(*id)
		if err != nil {
			return err
		}
		set := setFlags(fs)
		if set["title"] {
			g.Title = *title
		}
		if set["category"] {
			g.Category = tracker.GoalCategory(*category)
		}
		if set["horizon"] {
			g.Horizon = tracker.GoalHorizon(*horizon)
		}
		if set["status"] {
			g.Status = tracker.GoalStatus(*status)
		}
		updated, err := a.tracker.UpdateGoal(ctx, g)
		if err != nil {
			return err
		}
		result["status"] = updated.Status
		fmt.Fprintf(a.out, "Updated goal %s: %s (%s)\n", updated.ID, updated.Title, updated.Status)
		return nil
	})
}

func runGoalDelete(args []string, workspacePath string) error {
	fs := flag.NewFlagSet("goal delete", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	id := fs.String("id", "", "Goal id")
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

	return a.audited("goal_delete", map[string]any{"goal_id": *id}, func(result map[string]any) error {
		if err := a.tracker.DeleteGoal(ctx, *id); err != nil {
			return cancelled(a, result, err)
		}
		fmt.Fprintf(a.out, "Deleted goal %s\n", *id)
		return nil
	})
}

func setFlags(fs *flag.FlagSet) map[string]bool {
	set := map[string]bool{}
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })
	return set
}
