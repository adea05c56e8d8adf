package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/soyeahso/revops/internal/config"
	"github.com/soyeahso/revops/internal/crm"
	"github.com/soyeahso/revops/internal/dataset"
	"github.com/soyeahso/revops/internal/llm"
	"github.com/soyeahso/revops/internal/version"
)

func newStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show revops status and configuration summary",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "revops %s (commit %s)\n\n", version.Version, version.Commit)

			fmt.Fprintf(out, "Config:    %s\n", paths.Config)
			fmt.Fprintf(out, "State:     %s\n", paths.State)
			fmt.Fprintln(out)

			if _, err := os.Stat(paths.Config); os.IsNotExist(err) {
				fmt.Fprintln(out, "Config:    not found (using defaults)")
			}
			cfg, err := config.Load(paths.Config)
			if err != nil {
				fmt.Fprintf(out, "Config:    error loading: %v\n", err)
				return nil
			}

			fmt.Fprintf(out, "Gateway:   port=%d bind=%s auth=%s\n",
				cfg.Gateway.Port, cfg.Gateway.Bind, cfg.Gateway.Auth.Mode)

			registry := llm.NewRegistryFromConfig(cfg, log)
			if providers := registry.List(); len(providers) > 0 {
				fmt.Fprintf(out, "LLM:       %s (primary %s)\n", strings.Join(providers, ", "), registry.Fallback())
			} else {
				fmt.Fprintln(out, "LLM:       (none configured)")
			}

			fmt.Fprintf(out, "Data:      %s\n", describeData(cmd.Context(), cfg))

			if issues := config.Validate(&cfg); len(issues) > 0 {
				fmt.Fprintf(out, "\nValidation issues (%d):\n", len(issues))
				for _, issue := range issues {
					fmt.Fprintf(out, "  - %s\n", issue)
				}
			}
			return nil
		},
	}

	return cmd
}

// describeData loads the configured dataset and summarizes it, or reports
// why it could not be loaded.
func describeData(ctx context.Context, cfg config.Config) string {
	src, closeSrc, err := openSource(cfg)
	if err != nil {
		return "error: " + err.Error()
	}
	defer closeSrc()

	ds, err := dataset.Open(ctx, src, log)
	if err != nil {
		return fmt.Sprintf("%s (error: %v)", src.Describe(), err)
	}
	counts := ds.Counts()
	return fmt.Sprintf("%s, %d contacts, %d accounts, %d deals, %d opportunities with a buying group",
		src.Describe(), counts[crm.Contacts], counts[crm.Accounts], counts[crm.Deals], len(ds.OpportunityNames()))
}
