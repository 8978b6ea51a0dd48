package cli

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mithrel/classkit/internal/server"
)

func newServeCmd() *cobra.Command {
	var listen string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server for the chat agents and the questionnaire",
		RunE: func(cmd *cobra.Command, args []string) error {
			app := getApp(cmd)
			if listen != "" {
				app.Cfg.Set("http_addr", listen)
			}
			addr := app.Cfg.GetString("http_addr")
			if addr == "" {
				addr = ":8080"
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			srv := server.New(app.Cfg, app.Sessions, app.Quest, app.Log)
			return srv.ListenAndServe(ctx, addr)
		},
	}
	cmd.Flags().StringVar(&listen, "listen", "", "listen address (override config http_addr)")
	return cmd
}
