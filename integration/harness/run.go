package harness

import (
	"bytes"
	"errors"
	"os"
	"os/exec"
	"sort"
	"strings"
	"testing"
)

// Result is the outcome of one CLI invocation.
type Result struct {
	Stdout string
	Stderr string
	Code   int
}

// Output returns stdout and stderr together, for failure messages.
func (r Result) Output() string {
	return "stdout:\n" + r.Stdout + "\nstderr:\n" + r.Stderr
}

// Invocation describes how to run the CLI.
type Invocation struct {
	Dir   string
	Args  []string
	Env   map[string]string
	Stdin string
}

// Run executes the CLI in workDir.
func Run(t *testing.T, binPath, workDir string, args ...string) Result {
	t.Helper()
	return Exec(t, binPath, Invocation{Dir: workDir, Args: args})
}

// Exec executes the CLI as described by inv. A non-zero exit is reported in
// the result; failing to start the process fails the test.
func Exec(t *testing.T, binPath string, inv Invocation) Result {
	t.Helper()

	cmd := exec.Command(binPath, inv.Args...)
	cmd.Dir = inv.Dir
	if len(inv.Env) > 0 {
		cmd.Env = mergeEnv(inv.Env)
	}
	cmd.Stdin = strings.NewReader(inv.Stdin)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	res := Result{}
	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			t.Fatalf("run %s: %v", binPath, err)
		}
		res.Code = exitErr.ExitCode()
	}
	res.Stdout = stdout.String()
	res.Stderr = stderr.String()
	return res
}

func mergeEnv(overrides map[string]string) []string {
	env := make(map[string]string, len(overrides))
	for _, entry := range os.Environ() {
		key, val, _ := strings.Cut(entry, "=")
		env[key] = val
	}
	for k, v := range overrides {
		env[k] = v
	}
	merged := make([]string, 0, len(env))
	for k, v := range env {
		merged = append(merged, k+"="+v)
	}
	sort.Strings(merged)
	return merged
}
