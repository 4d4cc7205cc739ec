package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"taskflow/internal/app"
	"taskflow/internal/config"
)

var Version = "dev"

// cli carries what the root command resolves for its subcommands.
type cli struct {
	configPath string
	verbose    bool
	yes        bool

	cfg *config.Config
	app *app.App
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	c := &cli{}
	root := &cobra.Command{
		Use:           "taskflow",
		Short:         "TaskFlow - manage tasks, assignees and attachments",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.LoadConfig(c.configPath)
			if err != nil {
				return err
			}
			c.cfg = cfg
			return nil
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if c.app != nil {
				c.app.Close()
			}
		},
	}
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default "+config.DefaultPath+")")
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "debug logging")
	root.PersistentFlags().BoolVarP(&c.yes, "yes", "y", false, "answer yes to confirmations")

	root.AddCommand(loginCmd(c), registerCmd(c), logoutCmd(c), whoamiCmd(c))
	root.AddCommand(tasksCmd(c), attachCmd(c), usersCmd(c))
	root.AddCommand(devserverCmd(c))
	return root
}

// client builds the client side and restores the persisted session.
func (c *cli) client(ctx context.Context) (*app.App, error) {
	if c.app != nil {
		return c.app, nil
	}
	logger := app.NewLogger(os.Stderr, c.cfg.Log.Level, c.verbose)
	a, err := app.New(c.cfg, logger, sessionExpired{})
	if err != nil {
		return nil, err
	}
	a.Restore(ctx)
	c.app = a
	return a, nil
}

// authed is client plus a check that someone is logged in.
func (c *cli) authed(ctx context.Context) (*app.App, error) {
	a, err := c.client(ctx)
	if err != nil {
		return nil, err
	}
	if !a.Session.Authenticated() {
		return nil, errNotLoggedIn
	}
	return a, nil
}
