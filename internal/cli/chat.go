package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os/signal"
	"strings"
	"syscall"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"

	"github.com/soyeahso/revops/internal/agent"
	"github.com/soyeahso/revops/internal/conversation"
	"github.com/soyeahso/revops/internal/hooks"
	"github.com/soyeahso/revops/internal/metrics"
)

const chatBanner = "Ask about an account or opportunity. /history shows the conversation, /quit exits."

// maxQuestionBytes caps one chat line.
const maxQuestionBytes = 1 << 20

func newChatCmd() *cobra.Command {
	var plain bool

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive question-and-answer session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			a, err := newApp(ctx, cfg, true)
			if err != nil {
				return err
			}
			defer a.Close()

			var md *glamour.TermRenderer
			if !plain {
				md = newMarkdownRenderer()
			}
			return runChat(ctx, cmd.InOrStdin(), cmd.OutOrStdout(), a.assistant, a.hooks, md)
		},
	}

	cmd.Flags().BoolVar(&plain, "plain", false, "print answers without markdown rendering")
	return cmd
}

// runChat reads one question per line until EOF, /quit, or ctx ends. The
// session lives exactly as long as the loop. After every answer the whole
// history is redrawn, most recent first.
func runChat(ctx context.Context, in io.Reader, out io.Writer, assistant *agent.Assistant, hm *hooks.Manager, md *glamour.TermRenderer) error {
	sess := conversation.NewSession()
	metrics.ActiveSessions.WithLabelValues("chat").Inc()
	if hm != nil {
		hm.Emit(ctx, hooks.EventSessionStart, map[string]any{"sessionId": sess.ID})
	}
	defer func() {
		sess.Close()
		metrics.ActiveSessions.WithLabelValues("chat").Dec()
		if hm != nil {
			hm.Emit(context.Background(), hooks.EventSessionEnd, map[string]any{"sessionId": sess.ID})
		}
	}()

	fmt.Fprintln(out, headingStyle.Render(chatBanner))
	reader := bufio.NewReader(in)
	for {
		fmt.Fprint(out, "> ")
		raw, tooLong, err := readLine(reader, maxQuestionBytes)
		if err != nil && !errors.Is(err, io.EOF) {
			fmt.Fprintln(out)
			return err
		}
		eof := err != nil
		if ctx.Err() != nil {
			return nil
		}

		switch line := strings.TrimSpace(raw); {
		case tooLong:
			fmt.Fprintln(out, errorStyle.Render(fmt.Sprintf("Question is longer than %d bytes and was not sent.", maxQuestionBytes)))
		case line == "":
		case line == "/quit" || line == "/exit":
			return nil
		case line == "/history":
			renderHistory(out, sess.Recent(), md)
		default:
			_, err := assistant.Ask(ctx, sess, line)
			switch {
			case err == nil:
				renderHistory(out, sess.Recent(), md)
			case errors.Is(err, context.Canceled):
				return nil
			default:
				// The question is not recorded; the user can submit it again.
				fmt.Fprintln(out, errorStyle.Render(failureMessage(err)))
			}
		}

		if eof {
			fmt.Fprintln(out)
			return nil
		}
	}
}

// readLine reads through the next newline. Bytes past limit are consumed
// and dropped, and tooLong reports that the line was cut.
func readLine(r *bufio.Reader, limit int) (string, bool, error) {
	var (
		buf     []byte
		tooLong bool
	)
	for {
		chunk, err := r.ReadSlice('\n')
		if len(buf)+len(chunk) <= limit+1 {
			buf = append(buf, chunk...)
		} else {
			tooLong = true
		}
		if errors.Is(err, bufio.ErrBufferFull) {
			continue
		}
		return string(buf), tooLong, err
	}
}
