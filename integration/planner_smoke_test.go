package integration_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"timeplanner/integration/harness"
)

type todayOutput struct {
	Date  string `json:"date"`
	Tasks []struct {
		ID        string `json:"id"`
		Completed bool   `json:"completed"`
		Source    string `json:"source"`
	} `json:"tasks"`
	Metrics struct {
		Total      int `json:"total"`
		Completed  int `json:"completed"`
		Percentage int `json:"percentage"`
		Remaining  int `json:"remaining"`
	} `json:"metrics"`
}

type goalOutput struct {
	ID         string `json:"id"`
	Progress   int    `json:"progress"`
	Activities []struct {
		ID       string `json:"id"`
		Status   string `json:"status"`
		Progress int    `json:"progress"`
	} `json:"activities"`
}

type recordOutput struct {
	Date                string `json:"date"`
	PlannedItems        int    `json:"planned_items"`
	CompletedItems      int    `json:"completed_items"`
	ExecutionPercentage int    `json:"execution_percentage"`
	PlannedTimeMin      int    `json:"planned_time_min"`
	ExecutedTimeMin     int    `json:"executed_time_min"`
	Notes               string `json:"notes"`
}

// cli runs commands against one workspace and fails the test on a non-zero
// exit.
type cli struct {
	t         *testing.T
	bin       string
	workspace string
}

func newCLI(t *testing.T, workspace string) cli {
	return cli{t: t, bin: harness.BuildBinary(t), workspace: workspace}
}

func (c cli) run(args ...string) harness.Result {
	c.t.Helper()
	return c.runWithInput("", args...)
}

func (c cli) runWithInput(stdin string, args ...string) harness.Result {
	c.t.Helper()
	res := harness.Exec(c.t, c.bin, harness.Invocation{
		Dir:   c.t.TempDir(),
		Args:  append([]string{"--workspace", c.workspace}, args...),
		Stdin: stdin,
	})
	if res.Code != 0 {
		c.t.Fatalf("timeplanner %s exit code %d\n%s", strings.Join(args, " "), res.Code, res.Output())
	}
	return res
}

func (c cli) json(dst any, args ...string) {
	c.t.Helper()
	res := c.run(append(args, "--json")...)
	if err := json.Unmarshal([]byte(res.Stdout), dst); err != nil {
		c.t.Fatalf("decode %s output: %v\n%s", args[0], err, res.Output())
	}
}

func TestPlannerWorkflowSmoke(t *testing.T) {
	workspace := filepath.Join(t.TempDir(), "ws")
	c := newCLI(t, workspace)

	c.run("init")
	c.run("goal", "add", "--id", "g1", "--title", "Ship the side project", "--category", "creative")
	c.run("activity", "add", "--id", "a1", "--goal", "g1", "--title", "Write chapters",
		"--deadline", "2025-06-30", "--dates", "2025-06-10,2025-06-12", "--minutes", "30")
	c.run("activity", "add", "--id", "a2", "--goal", "g1", "--title", "Prototype",
		"--kind", "composite", "--deadline", "2025-06-30")
	c.run("sub", "add", "--id", "s1", "--activity", "a2", "--title", "Sketch UI",
		"--deadline", "2025-06-30", "--dates", "2025-06-10", "--minutes", "60")

	var before todayOutput
	c.json(&before, "today", "--date", "2025-06-10")
	if before.Metrics.Total != 2 || before.Metrics.Completed != 0 {
		t.Fatalf("unexpected metrics before toggling: %+v", before.Metrics)
	}
	if before.Tasks[0].ID != "a1" || before.Tasks[1].ID != "s1" {
		t.Fatalf("tasks not ordered activities first: %+v", before.Tasks)
	}

	res := c.run("toggle", "--kind", "subactivity", "--id", "s1", "--date", "2025-06-10")
	if !strings.Contains(res.Stdout, "Prototype is at 100%") {
		t.Fatalf("expected completion alert\n%s", res.Output())
	}
	c.run("toggle", "--id", "a1", "--date", "2025-06-10")

	var after todayOutput
	c.json(&after, "today", "--date", "2025-06-10")
	if after.Metrics.Completed != 2 || after.Metrics.Percentage != 100 || after.Metrics.Remaining != 0 {
		t.Fatalf("unexpected metrics after toggling: %+v", after.Metrics)
	}

	var goal goalOutput
	c.json(&goal, "goal", "show", "--id", "g1")
	// a1 is 1 of 2 days done, a2 has its only sub-activity done.
	if goal.Progress != 75 {
		t.Fatalf("goal progress = %d, want 75", goal.Progress)
	}

	res = c.run("close-day", "--date", "2025-06-10", "--notes", "solid")
	if !strings.Contains(res.Stdout, "Day closed") {
		t.Fatalf("expected day closed alert\n%s", res.Output())
	}
	var records []recordOutput
	c.json(&records, "records")
	if len(records) != 1 {
		t.Fatalf("records = %d, want 1", len(records))
	}
	want := recordOutput{Date: "2025-06-10", PlannedItems: 2, CompletedItems: 2, ExecutionPercentage: 100,
		PlannedTimeMin: 90, ExecutedTimeMin: 90, Notes: "solid"}
	if records[0] != want {
		t.Fatalf("record = %+v, want %+v", records[0], want)
	}

	c.run("export")
	exports, err := os.ReadDir(filepath.Join(workspace, "exports"))
	if err != nil || len(exports) != 1 {
		t.Fatalf("expected one export dir, got %v (err %v)", exports, err)
	}
	exportDir := filepath.Join(workspace, "exports", exports[0].Name())
	for _, name := range []string{"goals.yaml", "activities.yaml", "subactivities.yaml", "records.yaml", "export.json"} {
		if _, err := os.Stat(filepath.Join(exportDir, name)); err != nil {
			t.Fatalf("export missing %s: %v", name, err)
		}
	}

	res = c.run("history", "--limit", "5")
	if !strings.Contains(res.Stdout, "export_finished") {
		t.Fatalf("history does not show the export\n%s", res.Output())
	}

	res = c.run("init")
	if !strings.Contains(res.Stdout, "Existing data: 1 goals, 2 activities, 1 sub-activities, 1 records") {
		t.Fatalf("re-init does not describe stored data\n%s", res.Output())
	}

	requireAuditEvents(t, filepath.Join(workspace, "audit", "audit.sqlite"), []string{
		"workspace_init_started",
		"workspace_init_finished",
		"goal_add_started",
		"goal_add_finished",
		"activity_add_finished",
		"sub_add_finished",
		"toggle_started",
		"toggle_finished",
		"close_day_finished",
		"export_started",
		"export_finished",
	})
}

func TestDeleteAsksForConfirmation(t *testing.T) {
	workspace := filepath.Join(t.TempDir(), "ws")
	c := newCLI(t, workspace)
	c.run("init")
	c.run("goal", "add", "--id", "g1", "--title", "Learn Go")

	res := c.runWithInput("n\n", "goal", "delete", "--id", "g1")
	if !strings.Contains(res.Stdout, "Cancelled.") {
		t.Fatalf("expected cancellation\n%s", res.Output())
	}
	var goals []goalOutput
	c.json(&goals, "goal", "list")
	if len(goals) != 1 {
		t.Fatalf("goal deleted despite declining: %+v", goals)
	}

	c.runWithInput("y\n", "goal", "delete", "--id", "g1")
	c.json(&goals, "goal", "list")
	if len(goals) != 0 {
		t.Fatalf("goal still present after confirming: %+v", goals)
	}
}

func TestWorkspaceFromEnvironment(t *testing.T) {
	workspace := filepath.Join(t.TempDir(), "ws")
	bin := harness.BuildBinary(t)
	env := map[string]string{"TIMEPLANNER_WORKSPACE": workspace}

	for _, args := range [][]string{
		{"init"},
		{"goal", "add", "--id", "g1", "--title", "Read more"},
	} {
		res := harness.Exec(t, bin, harness.Invocation{Dir: t.TempDir(), Args: args, Env: env})
		if res.Code != 0 {
			t.Fatalf("timeplanner %v exit code %d\n%s", args, res.Code, res.Output())
		}
	}
	res := harness.Exec(t, bin, harness.Invocation{Dir: t.TempDir(), Args: []string{"goal", "list"}, Env: env})
	if res.Code != 0 || !strings.Contains(res.Stdout, "Read more") {
		t.Fatalf("goal list via env workspace failed\n%s", res.Output())
	}
}

func TestYAMLFixtureWorkspace(t *testing.T) {
	workspace := harness.Fixture(t, "workspace-yaml")
	c := newCLI(t, workspace)

	var day todayOutput
	c.json(&day, "today", "--date", "2025-06-10")
	if day.Metrics.Total != 2 || day.Metrics.Completed != 1 || day.Metrics.Percentage != 50 {
		t.Fatalf("unexpected fixture metrics: %+v", day.Metrics)
	}

	c.run("toggle", "--kind", "subactivity", "--id", "s-core", "--date", "2025-06-10")

	var goal goalOutput
	c.json(&goal, "goal", "show", "--id", "g-fitness")
	if goal.Progress != 50 {
		t.Fatalf("goal progress = %d, want 50", goal.Progress)
	}
	for _, a := range goal.Activities {
		if a.ID == "a-strength" && (a.Progress != 50 || a.Status != "in_progress") {
			t.Fatalf("composite activity not bubbled up: %+v", a)
		}
	}

	subs, err := os.ReadFile(filepath.Join(workspace, "data", "collections", "subactivities.yaml"))
	if err != nil {
		t.Fatalf("read subactivities: %v", err)
	}
	if !strings.Contains(string(subs), "completed_dates:") || !strings.Contains(string(subs), "2025-06-10") {
		t.Fatalf("toggle not persisted to yaml:\n%s", subs)
	}

	c.run("activity", "update", "--id", "a-runs", "--dates", "2025-06-12")
	res := c.run("goal", "show", "--id", "g-fitness")
	if !strings.Contains(res.Stdout, "completions no longer scheduled: 2025-06-10") {
		t.Fatalf("orphaned completion not shown\n%s", res.Output())
	}

	res = harness.Exec(t, c.bin, harness.Invocation{
		Dir:  t.TempDir(),
		Args: []string{"--workspace", workspace, "toggle", "--id", "a-runs", "--date", "2025-06-11"},
	})
	if res.Code == 0 {
		t.Fatalf("toggling an unscheduled day should fail\n%s", res.Output())
	}
}
