package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"taskflow/internal/models"
)

func loginCmd(c *cli) *cobra.Command {
	var req models.LoginRequest
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and store the session token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := c.client(cmd.Context())
			if err != nil {
				return err
			}
			if req.Username == "" {
				if err := promptInput("Username", false, &req.Username); err != nil {
					return err
				}
			}
			if req.Password == "" {
				if err := promptInput("Password", true, &req.Password); err != nil {
					return err
				}
			}
			if err := a.Session.Login(cmd.Context(), req); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s\n", a.Session.User().Username)
			return nil
		},
	}
	cmd.Flags().StringVarP(&req.Username, "username", "u", "", "username")
	cmd.Flags().StringVarP(&req.Password, "password", "p", "", "password (prompted when empty)")
	return cmd
}

func registerCmd(c *cli) *cobra.Command {
	var req models.RegisterRequest
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account and log in",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := c.client(cmd.Context())
			if err != nil {
				return err
			}
			if req.Password == "" {
				if err := promptInput("Password", true, &req.Password); err != nil {
					return err
				}
			}
			if err := a.Session.Register(cmd.Context(), req); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Registered and logged in as %s\n", req.Username)
			return nil
		},
	}
	cmd.Flags().StringVar(&req.Email, "email", "", "email address")
	cmd.Flags().StringVarP(&req.Username, "username", "u", "", "username")
	cmd.Flags().StringVarP(&req.Password, "password", "p", "", "password (prompted when empty)")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("username")
	return cmd
}

func logoutCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := c.client(cmd.Context())
			if err != nil {
				return err
			}
			a.Logout()
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
			return nil
		},
	}
}

func whoamiCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the current user and token expiry",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := c.authed(cmd.Context())
			if err != nil {
				return err
			}
			u := a.Session.User()
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s <%s> (id %d)\n", u.Username, u.Email, u.ID)
			if claims, err := a.Session.Claims(); err == nil && !claims.ExpiresAt.IsZero() {
				fmt.Fprintf(out, "token expires %s (in %s)\n",
					claims.ExpiresAt.Local().Format(time.DateTime),
					time.Until(claims.ExpiresAt).Truncate(time.Second))
			}
			return nil
		},
	}
}
