package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"taskflow/internal/cache"
	"taskflow/internal/render"
)

func usersCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "Assignable users",
	}
	cmd.AddCommand(&cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "List users",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := c.authed(cmd.Context())
			if err != nil {
				return err
			}
			users, err := cache.Get(cmd.Context(), a.Cache, cache.UsersKey, a.API.ListUsers)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), render.UserTable(users))
			return nil
		},
	})
	return cmd
}
