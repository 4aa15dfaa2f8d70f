package commands

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newListCommand(opts *options) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List bills, most recent first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), opts, func(a *app) error {
				bills, err := a.container.Bills().FetchBills(cmd.Context())
				if err != nil {
					return fmt.Errorf("fetching bills: %w", err)
				}
				if !a.container.Bills().HasStore() {
					fmt.Fprintln(cmd.ErrOrStderr(), "no store configured")
					return nil
				}

				if asJSON {
					enc := json.NewEncoder(cmd.OutOrStdout())
					enc.SetIndent("", "  ")
					return enc.Encode(bills)
				}

				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(w, "ID\tDATE\tTYPE\tNAME\tAMOUNT\tSTATUS")
				for _, b := range bills {
					fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d €\t%s\n", b.ID, b.Date, b.Type, b.Name, b.Amount, b.Status)
				}
				return w.Flush()
			})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the bills as JSON")
	return cmd
}
