package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/soyeahso/revops/internal/agent"
	"github.com/soyeahso/revops/internal/conversation"
)

var (
	userBubbleStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("#5C33F6")).
			Foreground(lipgloss.Color("#FFFFFF")).
			Padding(0, 1).
			MarginLeft(8)

	aiBubbleStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("#E5E9F0")).
			Foreground(lipgloss.Color("#3B3F5C")).
			Padding(0, 1).
			MarginRight(8)

	timestampStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#8A8FA3")).
			Italic(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#E53935")).
			Bold(true)

	headingStyle = lipgloss.NewStyle().Bold(true)
)

// newMarkdownRenderer returns a terminal markdown renderer, or nil when none
// can be built; callers then print plain text.
func newMarkdownRenderer() *glamour.TermRenderer {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(80),
	)
	if err != nil {
		return nil
	}
	return r
}

// renderMarkdown renders text with md, falling back to the raw text.
func renderMarkdown(md *glamour.TermRenderer, text string) string {
	if md == nil {
		return text
	}
	out, err := md.Render(text)
	if err != nil {
		return text
	}
	return strings.TrimRight(out, "\n")
}

// renderHistory writes interactions most recent first, each as a user
// bubble followed by an AI bubble.
func renderHistory(w io.Writer, recent []conversation.Interaction, md *glamour.TermRenderer) {
	for _, in := range recent {
		fmt.Fprintln(w, timestampStyle.Render(in.Timestamp))
		fmt.Fprintln(w, userBubbleStyle.Render(in.Question))
		fmt.Fprintln(w, aiBubbleStyle.Render(renderMarkdown(md, in.Answer)))
		fmt.Fprintln(w)
	}
}

// failureMessage is the text shown when a question could not be answered.
func failureMessage(err error) string {
	var cerr *agent.CompletionError
	if errors.As(err, &cerr) {
		err = cerr.Err
	}
	return "Something went wrong: " + err.Error()
}
