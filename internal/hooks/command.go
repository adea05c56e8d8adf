package hooks

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/soyeahso/revops/internal/config"
)

// DefaultCommandTimeout bounds a command hook without an explicit timeout.
const DefaultCommandTimeout = 10 * time.Second

// RegisterCommands binds the shell commands declared in cfg to their events.
// It returns the number of handlers registered.
func RegisterCommands(m *Manager, cfg config.HooksConfig) int {
	bindings := []struct {
		event   string
		entries []config.HookEntry
	}{
		{EventQuestionAsked, cfg.QuestionAsked},
		{EventAnswerRecorded, cfg.AnswerRecorded},
		{EventCompletionFailed, cfg.CompletionFailed},
		{EventGatewayStart, cfg.GatewayStart},
		{EventGatewayStop, cfg.GatewayStop},
	}

	n := 0
	for _, b := range bindings {
		for i, e := range b.entries {
			if strings.TrimSpace(e.Command) == "" {
				continue
			}
			name := fmt.Sprintf("command:%s[%d]", b.event, i)
			m.On(b.event, name, CommandHandler(e))
			n++
		}
	}
	return n
}

// CommandHandler runs entry.Command through sh with the JSON-encoded payload
// on stdin.
func CommandHandler(entry config.HookEntry) Handler {
	timeout := DefaultCommandTimeout
	if entry.Timeout > 0 {
		timeout = time.Duration(entry.Timeout) * time.Millisecond
	}

	return func(ctx context.Context, p Payload) error {
		body, err := json.Marshal(p)
		if err != nil {
			return fmt.Errorf("encoding hook payload: %w", err)
		}

		ctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		cmd := exec.CommandContext(ctx, "sh", "-c", entry.Command)
		cmd.Stdin = bytes.NewReader(body)
		var stderr bytes.Buffer
		cmd.Stderr = &stderr

		if err := cmd.Run(); err != nil {
			if ctx.Err() == context.DeadlineExceeded {
				return fmt.Errorf("hook command timed out after %s: %w", timeout, ctx.Err())
			}
			if msg := strings.TrimSpace(stderr.String()); msg != "" {
				return fmt.Errorf("hook command failed: %w: %s", err, msg)
			}
			return fmt.Errorf("hook command failed: %w", err)
		}
		return nil
	}
}
