package cli

import (
	"context"
	"fmt"
	"io"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/soyeahso/revops/internal/agent"
	"github.com/soyeahso/revops/internal/conversation"
)

func newAskCmd() *cobra.Command {
	var raw bool

	cmd := &cobra.Command{
		Use:   "ask <question...>",
		Short: "Answer one question about an opportunity's buying group",
		Args:  cobra.MinimumNArgs(1),
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

			sess := conversation.NewSession()
			defer sess.Close()
			return askOnce(ctx, cmd.OutOrStdout(), a.assistant, sess, strings.Join(args, " "), raw)
		},
	}

	cmd.Flags().BoolVar(&raw, "raw", false, "print the answer without markdown rendering")
	return cmd
}

// askOnce answers question and prints the answer. A failed completion is
// printed the way the chat shows it and returned.
func askOnce(ctx context.Context, w io.Writer, assistant *agent.Assistant, sess *conversation.Session, question string, raw bool) error {
	res, err := assistant.Ask(ctx, sess, question)
	if err != nil {
		fmt.Fprintln(w, errorStyle.Render(failureMessage(err)))
		return err
	}

	if res.Opportunity != "" {
		fmt.Fprintf(w, "%s %s (matched by %s, %d contacts, %d activities)\n\n",
			headingStyle.Render("Opportunity:"), res.Opportunity, res.MatchedBy, res.Contacts, res.ActivityRecords)
	}
	if raw {
		fmt.Fprintln(w, res.Interaction.Answer)
		return nil
	}
	fmt.Fprintln(w, renderMarkdown(newMarkdownRenderer(), res.Interaction.Answer))
	return nil
}
