package main

import (
	"os"

	"github.com/spf13/cobra"

	"taskflow/internal/app"
)

func devserverCmd(c *cli) *cobra.Command {
	var port int
	cmd := &cobra.Command{
		Use:   "devserver",
		Short: "Run the development API server",
		Long: "Run a local TaskFlow API. Without database.url in the config all\n" +
			"data lives in memory and is lost on exit.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Flags().Changed("port") {
				c.cfg.Server.Port = port
			}
			logger := app.NewLogger(os.Stderr, c.cfg.Log.Level, c.verbose)
			srv, err := app.NewServer(cmd.Context(), c.cfg, logger)
			if err != nil {
				return err
			}
			if code := srv.Run(cmd.Context()); code != 0 {
				os.Exit(code)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&port, "port", 0, "listen port (overrides server.port)")
	return cmd
}
