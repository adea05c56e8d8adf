package cli

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/soyeahso/revops/internal/dataset"
)

func newImportCmd() *cobra.Command {
	var (
		target string
		keep   int
	)

	cmd := &cobra.Command{
		Use:   "import [dir]",
		Short: "Import the CRM CSV files into the database",
		Long: "Reads <dir>/<table>.csv (default data.dir) and stores the raw tables as a new dataset.\n" +
			"The sqlite and postgres data sources read the most recent import.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			dir := cfg.Data.Dir
			if len(args) > 0 {
				dir = args[0]
			}
			if target == "" {
				target = "sqlite"
				if cfg.Data.Source == "postgres" {
					target = "postgres"
				}
			}

			src := dataset.CSVSource{Dir: dir}
			tables, err := src.Load(cmd.Context())
			if err != nil {
				return fmt.Errorf("reading %s: %w", src.Describe(), err)
			}
			// Reject files whose headers cannot be normalized before storing them.
			if _, err := dataset.New(src.Describe(), tables); err != nil {
				return err
			}

			db, err := openStore(cfg, target)
			if err != nil {
				return err
			}
			defer db.Close()

			info, err := db.Import(cmd.Context(), src.Describe(), tables)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d tables from %s as dataset %s\n", len(tables), dir, info.ID)

			if keep > 0 {
				removed, err := db.Prune(cmd.Context(), keep)
				if err != nil {
					return err
				}
				if removed > 0 {
					fmt.Fprintf(cmd.OutOrStdout(), "Pruned %d older dataset(s)\n", removed)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&target, "target", "", "database to import into: sqlite or postgres (default from data.source)")
	cmd.Flags().IntVar(&keep, "keep", 0, "keep only the newest N datasets (0 keeps all)")
	return cmd
}

func newDatasetsCmd() *cobra.Command {
	var target string

	cmd := &cobra.Command{
		Use:   "datasets",
		Short: "List imported datasets, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if target == "" {
				target = "sqlite"
				if cfg.Data.Source == "postgres" {
					target = "postgres"
				}
			}
			db, err := openStore(cfg, target)
			if err != nil {
				return err
			}
			defer db.Close()

			all, err := db.Datasets(cmd.Context())
			if err != nil {
				return err
			}
			if len(all) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No datasets imported.")
				return nil
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tSOURCE\tIMPORTED")
			for _, info := range all {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", info.ID, info.Source, info.ImportedAt.Local().Format(time.DateTime))
			}
			return tw.Flush()
		},
	}

	cmd.Flags().StringVar(&target, "target", "", "database to list: sqlite or postgres (default from data.source)")
	return cmd
}
