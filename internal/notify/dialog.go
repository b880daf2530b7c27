package notify

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Prompt asks for confirmation on a terminal and prints alerts there.
type Prompt struct {
	in       *bufio.Reader
	out      io.Writer
	notifier *Notifier
}

// NewPrompt reads answers from in and writes questions and alerts to out.
// Alerts are also sent to notifier when it is enabled.
func NewPrompt(in io.Reader, out io.Writer, notifier *Notifier) *Prompt {
	return &Prompt{in: bufio.NewReader(in), out: out, notifier: notifier}
}

// Confirm prints the question and waits for y/yes. Anything else, including
// end of input, is a refusal.
func (p *Prompt) Confirm(ctx context.Context, title, message string, options ...string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	hint := "[y/N]"
	if len(options) > 0 {
		hint = fmt.Sprintf("[y = %s / N]", options[0])
	}
	fmt.Fprintf(p.out, "%s\n%s %s: ", title, message, hint)

	line, err := p.in.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false, fmt.Errorf("read answer: %w", err)
	}
	if errors.Is(err, io.EOF) && line == "" {
		fmt.Fprintln(p.out)
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}

// Alert prints the message and forwards it as a desktop notification.
func (p *Prompt) Alert(_ context.Context, title, message string) error {
	fmt.Fprintf(p.out, "%s: %s\n", title, message)
	return p.notifier.Send(title, message)
}

// AutoConfirm accepts every confirmation, for non-interactive use.
type AutoConfirm struct {
	out      io.Writer
	notifier *Notifier
}

// NewAutoConfirm reports confirmations and alerts on out.
func NewAutoConfirm(out io.Writer, notifier *Notifier) *AutoConfirm {
	return &AutoConfirm{out: out, notifier: notifier}
}

func (a *AutoConfirm) Confirm(ctx context.Context, title, message string, _ ...string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	fmt.Fprintf(a.out, "%s: %s (confirmed)\n", title, message)
	return true, nil
}

func (a *AutoConfirm) Alert(_ context.Context, title, message string) error {
	fmt.Fprintf(a.out, "%s: %s\n", title, message)
	return a.notifier.Send(title, message)
}
