package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Makepad-fr/tada/internal/server"
)

func newServeCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the reference todo server on SQLite",
		Args:  exactArgs(0, "serve [--addr] [--database] [--cors-origin]"),
		RunE: func(cmd *cobra.Command, args []string) error {
			sc := app.cfg.Server
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			repo, err := server.Open(ctx, sc.Database)
			if err != nil {
				return err
			}
			defer repo.Close()

			logger := app.logger.WithPrefix("serve")
			logger.Info("database ready", "path", sc.Database, "cors_origin", sc.CORSOrigin)
			srv := server.New(repo, server.Options{CORSOrigin: sc.CORSOrigin, Logger: logger})
			return server.ListenAndServe(ctx, sc.Addr, srv.Handler(), logger)
		},
	}
	f := cmd.Flags()
	f.String("addr", "", "listen address (default from server.addr)")
	f.String("database", "", "SQLite database path (default from server.database)")
	f.String("cors-origin", "", "allowed CORS origin (default from server.cors_origin)")
	_ = app.v.BindPFlag("server.addr", f.Lookup("addr"))
	_ = app.v.BindPFlag("server.database", f.Lookup("database"))
	_ = app.v.BindPFlag("server.cors_origin", f.Lookup("cors-origin"))
	return cmd
}
