package notify

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/zulandar/studyflow/internal/config"
)

// CommandSender runs an external program for every reminder. Placeholders in
// the arguments are replaced with reminder values; the plain-text message is
// written to the program's stdin.
type CommandSender struct {
	path string
	args []string
}

// NewCommandSender returns a sender for cfg.
func NewCommandSender(cfg config.CommandConfig) (*CommandSender, error) {
	if cfg.Path == "" {
		return nil, errors.New("notify: command path is required")
	}
	return &CommandSender{path: cfg.Path, args: cfg.Args}, nil
}

// Name implements Sender.
func (c *CommandSender) Name() string { return "command" }

// Send implements Sender.
func (c *CommandSender) Send(ctx context.Context, msg Message) error {
	args := make([]string, len(c.args))
	for i, a := range c.args {
		args[i] = templateMessage(a, msg)
	}
	cmd := exec.CommandContext(ctx, c.path, args...)
	cmd.Stdin = strings.NewReader(msg.Text())
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("notify: command %s: %w: %s", c.path, err, strings.TrimSpace(string(out)))
	}
	return nil
}

// templateMessage replaces placeholders in s with reminder values.
func templateMessage(s string, msg Message) string {
	r := msg.Reminder
	deadline := ""
	if r.Task.Deadline != nil {
		deadline = r.Task.Deadline.Format("2006-01-02T15:04:05Z07:00")
	}
	return strings.NewReplacer(
		"{{.Title}}", msg.Title,
		"{{.Body}}", msg.Body,
		"{{.Task}}", r.Task.Title,
		"{{.TaskID}}", r.Task.ID,
		"{{.Board}}", r.BoardTitle,
		"{{.Subject}}", r.SubjectName,
		"{{.Deadline}}", deadline,
		"{{.Priority}}", string(r.Task.Priority),
		"{{.User}}", r.UserID,
	).Replace(s)
}
