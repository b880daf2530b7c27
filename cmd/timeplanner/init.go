package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"timeplanner/internal/audit"
	"timeplanner/internal/config"
	"timeplanner/internal/store"
	"timeplanner/internal/workspace"
)

func runInit(args []string, workspacePath string) error {
	fs := flag.NewFlagSet("init", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	backend := fs.String("backend", "", "Storage backend to write into the config file (sqlite or yaml)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if strings.TrimSpace(workspacePath) == "" {
		return fmt.Errorf("--workspace is required")
	}

	ws, err := workspace.Create(workspacePath)
	if err != nil {
		return err
	}

	logger := audit.NewLogger(ws.AuditDBPath)
	startPayload := map[string]any{
		"workspace": ws.Root,
		"backend":   *backend,
	}
	if err := logger.LogEvent("cli", "workspace_init_started", startPayload); err != nil {
		fmt.Fprintln(os.Stderr, "audit log failed:", err)
	}
	var finishErr error
	defer func() {
		finishPayload := map[string]any{
			"workspace": ws.Root,
			"backend":   *backend,
		}
		if finishErr != nil {
			finishPayload["error"] = finishErr.Error()
		}
		if err := logger.LogEvent("cli", "workspace_init_finished", finishPayload); err != nil {
			fmt.Fprintln(os.Stderr, "audit log failed:", err)
		}
	}()

	initial := config.Default()
	if *backend != "" {
		initial.Storage.Backend = *backend
	}
	wrote, err := config.WriteIfMissing(ws.ConfigPath, initial)
	if err != nil {
		finishErr = err
		return finishErr
	}
	if !wrote && *backend != "" {
		finishErr = fmt.Errorf("%s already exists; edit storage.backend there", ws.ConfigPath)
		return finishErr
	}

	cfg, err := config.Load(ws.ConfigPath)
	if err != nil {
		finishErr = err
		return finishErr
	}
	b, err := store.Open(cfg.Storage.Backend, ws.DataDir)
	if err != nil {
		finishErr = err
		return finishErr
	}
	existing := describeExisting(context.Background(), b)
	if err := b.Close(); err != nil {
		finishErr = err
		return finishErr
	}

	fmt.Fprintf(os.Stdout, "Initialized workspace: %s\n", ws.Root)
	fmt.Fprintf(os.Stdout, "Storage: %s\n", cfg.Storage.Backend)
	if existing != "" {
		fmt.Fprintf(os.Stdout, "Existing data: %s\n", existing)
		return nil
	}
	fmt.Fprintln(os.Stdout, "Next steps:")
	fmt.Fprintf(os.Stdout, "  %s --workspace %s goal add --title \"...\" --category work --horizon short\n", appName, ws.Root)
	fmt.Fprintf(os.Stdout, "  %s --workspace %s today\n", appName, ws.Root)
	return nil
}

// describeExisting summarises what an already used backend holds, or returns
// "" when it is empty or cannot tell.
func describeExisting(ctx context.Context, b store.Backend) string {
	in, ok := b.(store.Inspector)
	if !ok {
		return ""
	}
	last, err := in.LastSavedAt(ctx)
	if err != nil || last.IsZero() {
		return ""
	}
	counts, err := in.Counts(ctx)
	if err != nil {
		return ""
	}
	return fmt.Sprintf("%d goals, %d activities, %d sub-activities, %d records (saved %s)",
		counts["goals"], counts["activities"], counts["subactivities"], counts["records"],
		last.Local().Format(time.DateTime))
}
