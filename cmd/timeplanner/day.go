package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"

	"timeplanner/internal/tracker"
)

func runToggle(args []string, workspacePath string) error {
	fs := flag.NewFlagSet("toggle", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	kind := fs.String("kind", string(tracker.NodeActivity), "activity or subactivity")
	id := fs.String("id", "", "Activity or sub-activity id")
	date := fs.String("date", "", "Day to toggle YYYY-MM-DD (default: today)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	ctx := context.Background()
	a, err := openApp(ctx, workspacePath, false)
	if err != nil {
		return err
	}
	defer a.Close()

	day := *date
	if day == "" {
		day = a.tracker.Today()
	}
	return a.audited("toggle", map[string]any{"kind": *kind, "id": *id, "date": day}, func(result map[string]any) error {
		done, err := a.tracker.ToggleExecution(ctx, tracker.NodeKind(*kind), *id, day)
		if err != nil {
			return err
		}
		result["completed"] = done
		state := "pending"
		if done {
			state = "done"
		}
		fmt.Fprintf(a.out, "%s %s on %s: %s\n", *kind, *id, day, state)
		return nil
	})
}

type todayView struct {
	Date    string          `json:"date"`
	Tasks   []tracker.Task  `json:"tasks"`
	Metrics tracker.Metrics `json:"metrics"`
}

func runToday(args []string, workspacePath string) error {
	fs := flag.NewFlagSet("today", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	date := fs.String("date", "", "Day to show YYYY-MM-DD (default: today)")
	asJSON := fs.Bool("json", false, "Print JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}

	a, err := openApp(context.Background(), workspacePath, false)
	if err != nil {
		return err
	}
	defer a.Close()

	view := todayView{Date: *date}
	if view.Date == "" {
		view.Date = a.tracker.Today()
	}
	view.Tasks = a.tracker.TasksDueToday(view.Date)
	view.Metrics = a.tracker.TodaysMetrics(view.Date)
	if *asJSON {
		return printJSON(a.out, view)
	}

	fmt.Fprintf(a.out, "%s: %d/%d done (%d%%), %d remaining\n",
		view.Date, view.Metrics.Completed, view.Metrics.Total, view.Metrics.Percentage, view.Metrics.Remaining)
	if len(view.Tasks) == 0 {
		fmt.Fprintln(a.out, "Nothing scheduled.")
		return nil
	}
	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	for _, t := range view.Tasks {
		mark := "[ ]"
		if t.Completed {
			mark = "[x]"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d min\t%s\n", mark, t.ID, t.Title, t.DurationMin, t.Source)
	}
	return tw.Flush()
}

func runCloseDay(args []string, workspacePath string) error {
	fs := flag.NewFlagSet("close-day", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	date := fs.String("date", "", "Day to close YYYY-MM-DD (default: today)")
	notes := fs.String("notes", "", "Free-form notes for the record")
	if err := fs.Parse(args); err != nil {
		return err
	}

	ctx := context.Background()
	a, err := openApp(ctx, workspacePath, false)
	if err != nil {
		return err
	}
	defer a.Close()

	return a.audited("close_day", map[string]any{"date": *date}, func(result map[string]any) error {
		rec, err := a.tracker.CloseDay(ctx, *date, *notes)
		if rec.ID != "" {
			result["record_id"] = rec.ID
			result["date"] = rec.Date
			result["execution_percentage"] = rec.ExecutionPercentage
		}
		return err
	})
}

func runRecords(args []string, workspacePath string) error {
	fs := flag.NewFlagSet("records", flag.ContinueOnError)
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

	records := a.tracker.Records()
	if *asJSON {
		if records == nil {
			records = []tracker.DailyRecord{}
		}
		return printJSON(a.out, records)
	}
	if len(records) == 0 {
		fmt.Fprintln(a.out, "No days closed yet.")
		return nil
	}
	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "DATE\tITEMS\tEXECUTION\tMINUTES\tNOTES")
	for _, r := range records {
		fmt.Fprintf(tw, "%s\t%d/%d\t%d%%\t%d/%d\t%s\n",
			r.Date, r.CompletedItems, r.PlannedItems, r.ExecutionPercentage, r.ExecutedTimeMin, r.PlannedTimeMin, r.Notes)
	}
	return tw.Flush()
}
