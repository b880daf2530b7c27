package main

import (
	"flag"
	"fmt"
	"os"
	"strings"
)

const (
	appName      = "timeplanner"
	workspaceEnv = "TIMEPLANNER_WORKSPACE"
)

func main() {
	flag.String("workspace", "", "Path to workspace root (default: $"+workspaceEnv+")")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "%s: goals, activities and the days you work on them\n\n", appName)
		fmt.Fprintf(os.Stderr, "Usage:\n  %s [--workspace DIR] [command] [flags]\n\n", appName)
		fmt.Fprintln(os.Stderr, "Commands:")
		fmt.Fprintln(os.Stderr, "  init       Initialize a new workspace")
		fmt.Fprintln(os.Stderr, "  goal       Manage goals (add, list, show, update, delete)")
		fmt.Fprintln(os.Stderr, "  activity   Manage activities (add, update, delete)")
		fmt.Fprintln(os.Stderr, "  sub        Manage sub-activities (add, update, delete)")
		fmt.Fprintln(os.Stderr, "  toggle     Mark a scheduled day done or pending")
		fmt.Fprintln(os.Stderr, "  today      Show the tasks due today")
		fmt.Fprintln(os.Stderr, "  close-day  Record how the day went")
		fmt.Fprintln(os.Stderr, "  records    List daily records")
		fmt.Fprintln(os.Stderr, "  export     Write a YAML export with a diff against the last one")
		fmt.Fprintln(os.Stderr, "  history    Show recent audit events")
		fmt.Fprintln(os.Stderr, "  help       Show this help")
		fmt.Fprintln(os.Stderr, "\nFlags:")
		flag.PrintDefaults()
	}

	workspacePath, remaining, err := extractWorkspaceFlag(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if workspacePath == "" {
		workspacePath = os.Getenv(workspaceEnv)
	}

	args := remaining
	if len(args) == 0 || args[0] == "help" || args[0] == "-h" || args[0] == "--help" {
		flag.Usage()
		return
	}

	commands := map[string]func([]string, string) error{
		"init":      runInit,
		"goal":      runGoal,
		"activity":  runActivity,
		"sub":       runSub,
		"toggle":    runToggle,
		"today":     runToday,
		"close-day": runCloseDay,
		"records":   runRecords,
		"export":    runExport,
		"history":   runHistory,
	}
	cmd, ok := commands[args[0]]
	if !ok {
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", args[0])
		flag.Usage()
		os.Exit(1)
	}
	if err := cmd(args[1:], workspacePath); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func extractWorkspaceFlag(args []string) (string, []string, error) {
	var workspacePath string
	remaining := make([]string, 0, len(args))
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if arg == "--workspace" {
			if i+1 >= len(args) {
				return "", nil, fmt.Errorf("--workspace requires a value")
			}
			workspacePath = args[i+1]
			i++
			continue
		}
		if strings.HasPrefix(arg, "--workspace=") {
			workspacePath = strings.TrimPrefix(arg, "--workspace=")
			continue
		}
		remaining = append(remaining, arg)
	}
	return workspacePath, remaining, nil
}

func subcommand(group string, args []string, subs map[string]func([]string, string) error, workspacePath string) error {
	if len(args) == 0 || args[0] == "help" || args[0] == "-h" || args[0] == "--help" {
		return fmt.Errorf("%s %s: missing subcommand", appName, group)
	}
	run, ok := subs[args[0]]
	if !ok {
		return fmt.Errorf("%s %s: unknown subcommand %q", appName, group, args[0])
	}
	return run(args[1:], workspacePath)
}
