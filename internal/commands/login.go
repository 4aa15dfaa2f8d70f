package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/garyjia/billed/internal/domain/entity"
	"github.com/garyjia/billed/internal/infrastructure/session"
)

func newLoginCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "login <email>",
		Short: "Save the employee identity used by submit",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			if err := session.NewFileSession(cfg.Session.Path).Save(entity.User{Type: "Employee", Email: args[0]}); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "signed in as %s\n", args[0])
			return nil
		},
	}
}
