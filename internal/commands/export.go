package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newExportCommand(opts *options) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the bill list to an .xlsx file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), opts, func(a *app) error {
				bills, err := a.container.Bills().FetchBills(cmd.Context())
				if err != nil {
					return fmt.Errorf("fetching bills: %w", err)
				}

				f, err := os.Create(output)
				if err != nil {
					return fmt.Errorf("creating %s: %w", output, err)
				}
				defer f.Close()

				totals, err := a.container.Exporter().Write(f, bills)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%d bills exported to %s (total %s €)\n", len(bills), output, totals.Amount.String())
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "notes-de-frais.xlsx", "output file")
	return cmd
}
