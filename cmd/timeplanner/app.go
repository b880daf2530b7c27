package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"

	"timeplanner/internal/audit"
	"timeplanner/internal/config"
	"timeplanner/internal/logging"
	"timeplanner/internal/notify"
	"timeplanner/internal/store"
	"timeplanner/internal/tracker"
	"timeplanner/internal/workspace"
)

// app bundles everything a command needs once the workspace is open.
type app struct {
	ws      *workspace.Workspace
	cfg     *config.Config
	log     *zap.Logger
	audit   *audit.Logger
	backend store.Backend
	tracker *tracker.Tracker
	out     io.Writer
}

// openApp resolves the workspace, loads config and opens the tracker. With
// assumeYes every confirmation is accepted without prompting.
func openApp(ctx context.Context, workspacePath string, assumeYes bool) (*app, error) {
	if strings.TrimSpace(workspacePath) == "" {
		return nil, fmt.Errorf("--workspace is required")
	}
	ws, err := workspace.Resolve(workspacePath)
	if err != nil {
		return nil, err
	}
	cfg, err := config.Load(ws.ConfigPath)
	if err != nil {
		return nil, err
	}
	log, err := logging.New(cfg.Log)
	if err != nil {
		return nil, err
	}
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	notifier := notify.NewNotifier(cfg.Notifications.Enabled)
	var dialog tracker.Dialog = notify.NewPrompt(os.Stdin, os.Stdout, notifier)
	if assumeYes {
		dialog = notify.NewAutoConfirm(os.Stdout, notifier)
	}

	backend, err := store.Open(cfg.Storage.Backend, ws.DataDir)
	if err != nil {
		return nil, err
	}
	tr, err := tracker.Open(ctx, backend,
		tracker.WithLogger(log),
		tracker.WithDialog(dialog),
		tracker.WithLocation(loc),
	)
	if err != nil {
		_ = backend.Close()
		return nil, err
	}

	log.Debug("workspace opened", zap.String("root", ws.Root), zap.String("backend", cfg.Storage.Backend))
	return &app{
		ws:      ws,
		cfg:     cfg,
		log:     log,
		audit:   audit.NewLogger(ws.AuditDBPath),
		backend: backend,
		tracker: tr,
		out:     os.Stdout,
	}, nil
}

func (a *app) Close() {
	if err := a.backend.Close(); err != nil {
		a.log.Warn("close backend", zap.Error(err))
	}
	_ = a.log.Sync()
}

// audited records <event>_started and <event>_finished around fn. fn may add
// fields to result; the finished event carries them plus any error.
func (a *app) audited(event string, payload map[string]any, fn func(result map[string]any) error) error {
	payload["workspace"] = a.ws.Root
	if err := a.audit.LogEvent("cli", event+"_started", payload); err != nil {
		fmt.Fprintln(os.Stderr, "audit log failed:", err)
	}

	result := make(map[string]any, len(payload))
	for k, v := range payload {
		result[k] = v
	}
	runErr := fn(result)
	if runErr != nil {
		result["error"] = runErr.Error()
	}
	if err := a.audit.LogEvent("cli", event+"_finished", result); err != nil {
		fmt.Fprintln(os.Stderr, "audit log failed:", err)
	}
	return runErr
}

func printJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}
