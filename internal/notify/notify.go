package notify

import (
	"fmt"
	"os/exec"
	"runtime"
	"strings"
)

// Notifier sends desktop notifications.
type Notifier struct {
	Enabled bool

	goos string
	run  func(name string, args ...string) error
}

// NewNotifier returns a notifier for the current platform.
func NewNotifier(enabled bool) *Notifier {
	return &Notifier{Enabled: enabled}
}

// Send shows a desktop notification. On macOS it uses osascript; other
// platforms are a no-op.
func (n *Notifier) Send(title, message string) error {
	if n == nil || !n.Enabled {
		return nil
	}
	goos := n.goos
	if goos == "" {
		goos = runtime.GOOS
	}
	if goos != "darwin" {
		return nil
	}

	title = strings.ReplaceAll(title, `"`, `\"`)
	message = strings.ReplaceAll(message, `"`, `\"`)
	script := fmt.Sprintf(`display notification "%s" with title "%s"`, message, title)

	run := n.run
	if run == nil {
		run = func(name string, args ...string) error {
			return exec.Command(name, args...).Run()
		}
	}
	if err := run("osascript", "-e", script); err != nil {
		return fmt.Errorf("send notification: %w", err)
	}
	return nil
}
