package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"
	"time"

	"timeplanner/internal/export"
)

func runExport(args []string, workspacePath string) error {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	list := fs.Bool("list", false, "List earlier exports instead of writing one")
	dir := fs.String("dir", "", "Exports directory, relative to the workspace (default: exports)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	ctx := context.Background()
	a, err := openApp(ctx, workspacePath, false)
	if err != nil {
		return err
	}
	defer a.Close()

	root := a.ws.ExportsDir
	if *dir != "" {
		if root, err = a.ws.ResolvePath(*dir); err != nil {
			return err
		}
	}

	if *list {
		ids, err := export.List(root)
		if err != nil {
			return err
		}
		for _, id := range ids {
			fmt.Fprintf(a.out, "%s  %s\n", id, filepath.Join(root, id))
		}
		return nil
	}

	return a.audited("export", map[string]any{}, func(result map[string]any) error {
		meta, err := export.Write(ctx, a.tracker.Snapshot(), root, time.Now())
		if err != nil {
			return err
		}
		result["export_id"] = meta.ID
		result["dir"] = meta.Dir
		result["counts"] = meta.Counts
		fmt.Fprintf(a.out, "Export written: %s\n", meta.Dir)
		if meta.DiffFile != "" {
			fmt.Fprintf(a.out, "Changes since %s: %s\n", meta.Previous, meta.DiffFile)
		}
		return nil
	})
}

func runHistory(args []string, workspacePath string) error {
	fs := flag.NewFlagSet("history", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	limit := fs.Int("limit", 20, "Number of events to show")
	asJSON := fs.Bool("json", false, "Print JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}

	a, err := openApp(context.Background(), workspacePath, false)
	if err != nil {
		return err
	}
	defer a.Close()

	events, err := a.audit.Recent(*limit)
	if err != nil {
		return err
	}
	if *asJSON {
		return printJSON(a.out, events)
	}
	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	for _, ev := range events {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", ev.Timestamp.Local().Format(time.DateTime), ev.Type, ev.PayloadJSON)
	}
	return tw.Flush()
}
