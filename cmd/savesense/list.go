package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"savesense/internal/auth"
	"savesense/internal/bot"
)

func listCommand() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List entries saved by the session user",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup()
			if err != nil {
				return err
			}
			defer a.close()

			session, err := auth.NewStatic(a.cfg.SessionUserID, a.cfg.SessionEmail)
			if err != nil {
				return fmt.Errorf("invalid session configuration: %w", err)
			}
			user, err := session.CurrentUser(cmd.Context())
			if err != nil {
				return err
			}

			entries, err := a.repo.ListByUser(cmd.Context(), user.ID)
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "Nothing saved yet.")
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), bot.FormatEntries(entries, limit))
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 50, "maximum number of entries to print")
	return cmd
}
