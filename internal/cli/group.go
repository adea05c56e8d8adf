package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newGroupCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "group <question...>",
		Short: "Show the buying group and activities a question resolves to",
		Long:  "Resolves the account or opportunity named in the question and prints the assembled context without calling a language model.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			a, err := newApp(cmd.Context(), cfg, false)
			if err != nil {
				return err
			}
			defer a.Close()

			c, m, ok, err := a.assistant.Context(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				payload := map[string]any{
					"resolved":   ok,
					"context":    c,
					"contactIds": c.ContactIDs(),
				}
				if ok {
					payload["match"] = m
				}
				data, err := json.MarshalIndent(payload, "", "  ")
				if err != nil {
					return err
				}
				fmt.Fprintln(out, string(data))
				return nil
			}

			if !ok {
				fmt.Fprintln(out, "No account or opportunity name found in the question.")
				return nil
			}
			fmt.Fprintf(out, "%s %s (%s, matched by %s)\n",
				headingStyle.Render("Opportunity:"), m.OpportunityName, m.OpportunityID, m.MatchedBy)
			fmt.Fprintf(out, "%s %s\n\n", headingStyle.Render("Contacts:"), strings.Join(c.ContactIDs(), ", "))

			group, err := json.MarshalIndent(c.Group, "", "  ")
			if err != nil {
				return err
			}
			acts, err := json.MarshalIndent(c.Activities, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "%s\n%s\n\n%s\n%s\n",
				headingStyle.Render("Buying group:"), group,
				headingStyle.Render("Sales activities:"), acts)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the context as JSON")
	return cmd
}

func newOpportunitiesCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "opportunities",
		Aliases: []string{"opps"},
		Short:   "List the opportunities that have a buying group",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			a, err := newApp(cmd.Context(), cfg, false)
			if err != nil {
				return err
			}
			defer a.Close()

			names, err := a.assistant.Opportunities(cmd.Context())
			if err != nil {
				return err
			}
			for _, name := range names {
				fmt.Fprintln(cmd.OutOrStdout(), name)
			}
			return nil
		},
	}
}
