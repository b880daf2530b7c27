package notify

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"timeplanner/internal/tracker"
)

var (
	_ tracker.Dialog = (*Prompt)(nil)
	_ tracker.Dialog = (*AutoConfirm)(nil)
)

func TestPromptConfirm(t *testing.T) {
	cases := map[string]bool{
		"y\n":     true,
		"YES\n":   true,
		" yes ":   true,
		"n\n":     false,
		"\n":      false,
		"":        false,
		"maybe\n": false,
	}
	for input, want := range cases {
		var out bytes.Buffer
		p := NewPrompt(strings.NewReader(input), &out, nil)
		got, err := p.Confirm(context.Background(), "Delete goal", "Delete goal \"G\"?", "Delete", "Cancel")
		require.NoError(t, err)
		assert.Equal(t, want, got, "input %q", input)
		assert.Contains(t, out.String(), "Delete goal \"G\"? [y = Delete / N]: ")
	}
}

func TestPromptReadsSuccessiveAnswers(t *testing.T) {
	var out bytes.Buffer
	p := NewPrompt(strings.NewReader("n\ny\n"), &out, nil)
	first, err := p.Confirm(context.Background(), "t", "m")
	require.NoError(t, err)
	second, err := p.Confirm(context.Background(), "t", "m")
	require.NoError(t, err)
	assert.False(t, first)
	assert.True(t, second)
}

func TestPromptHonoursCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewPrompt(strings.NewReader("y\n"), &bytes.Buffer{}, nil).Confirm(ctx, "t", "m")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestAutoConfirm(t *testing.T) {
	var out bytes.Buffer
	a := NewAutoConfirm(&out, nil)
	ok, err := a.Confirm(context.Background(), "Delete activity", "Delete activity \"A\"?")
	require.NoError(t, err)
	assert.True(t, ok)
	require.NoError(t, a.Alert(context.Background(), "Day closed", "2025-06-10: 1/2 tasks"))
	assert.Equal(t, "Delete activity: Delete activity \"A\"? (confirmed)\nDay closed: 2025-06-10: 1/2 tasks\n", out.String())
}

func TestNotifierSend(t *testing.T) {
	var calls [][]string
	n := &Notifier{Enabled: true, goos: "darwin", run: func(name string, args ...string) error {
		calls = append(calls, append([]string{name}, args...))
		return nil
	}}
	require.NoError(t, n.Send(`Goal "G"`, "done"))
	require.Len(t, calls, 1)
	assert.Equal(t, []string{"osascript", "-e", `display notification "done" with title "Goal \"G\""`}, calls[0])

	n.goos = "linux"
	require.NoError(t, n.Send("t", "m"))
	assert.Len(t, calls, 1)

	n.goos = "darwin"
	n.Enabled = false
	require.NoError(t, n.Send("t", "m"))
	assert.Len(t, calls, 1)

	n.Enabled = true
	n.run = func(string, ...string) error { return errors.New("no osascript") }
	assert.ErrorContains(t, n.Send("t", "m"), "send notification")

	var nilNotifier *Notifier
	assert.NoError(t, nilNotifier.Send("t", "m"))
}

func TestPromptAlertForwardsToNotifier(t *testing.T) {
	var sent []string
	n := &Notifier{Enabled: true, goos: "darwin", run: func(_ string, args ...string) error {
		sent = append(sent, args[1])
		return nil
	}}
	var out bytes.Buffer
	require.NoError(t, NewPrompt(strings.NewReader(""), &out, n).Alert(context.Background(), "Goal reached", "G is at 100%"))
	assert.Equal(t, "Goal reached: G is at 100%\n", out.String())
	assert.Len(t, sent, 1)
}
