package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List the registered model parameter versions",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openRegistry()
		if err != nil {
			return err
		}
		defer store.Close()

		records, err := store.List()
		if err != nil {
			return err
		}

		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "VERSION\tKIND\tCREATED\tACTIVE")
		for _, rec := range records {
			active := ""
			if rec.Version == cfg.ModelVersion {
				active = "*"
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", rec.Version, rec.Kind, rec.CreatedAt, active)
		}
		return tw.Flush()
	},
}
