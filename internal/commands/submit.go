package commands

import (
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/garyjia/billed/internal/domain/draft"
	"github.com/garyjia/billed/internal/domain/entity"
)

func newSubmitCommand(opts *options) *cobra.Command {
	form := map[string]*string{}
	fields := []struct {
		name, usage, def string
	}{
		{draft.FieldType, "expense type", entity.ExpenseTypes[0]},
		{draft.FieldName, "expense name", ""},
		{draft.FieldDate, "expense date (YYYY-MM-DD)", ""},
		{draft.FieldAmount, "amount including VAT, in euros", ""},
		{draft.FieldVAT, "VAT amount", ""},
		{draft.FieldPct, "VAT percentage", strconv.Itoa(entity.DefaultPct)},
		{draft.FieldCommentary, "free commentary", ""},
	}

	cmd := &cobra.Command{
		Use:   "submit <receipt>",
		Short: "Submit a new bill with a .jpg, .jpeg or .png receipt",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			content, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("reading receipt: %w", err)
			}

			snapshot := draft.FormSnapshot{}
			for name, value := range form {
				snapshot[name] = *value
			}

			return withApp(cmd.Context(), opts, func(a *app) error {
				ui := &console{out: cmd.ErrOrStderr(), next: a.container.Reporter()}
				wf := a.container.NewWorkflow(ui, ui, ui)

				err := wf.SelectFile(cmd.Context(), draft.FileSelection{
					Path:        args[0],
					ContentType: mime.TypeByExtension(filepath.Ext(args[0])),
					Content:     content,
				})
				if err != nil {
					return err
				}

				if err := wf.Submit(cmd.Context(), snapshot); err != nil {
					return err
				}

				d := wf.Draft()
				fmt.Fprintf(cmd.OutOrStdout(), "bill %s submitted (%s)\n", d.PendingBillID, d.FileURL)
				if ui.route != "" {
					fmt.Fprintf(cmd.OutOrStdout(), "next: %s\n", ui.route)
				}
				return nil
			})
		},
	}

	for _, f := range fields {
		form[f.name] = cmd.Flags().String(f.name, f.def, f.usage)
	}
	return cmd
}
