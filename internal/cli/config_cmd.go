package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Makepad-fr/tada/internal/config"
	"github.com/Makepad-fr/tada/internal/ui"
)

// settable lists keys `tada config set` accepts.
var settable = map[string]bool{
	"base_url":           true,
	"timeout":            true,
	"theme":              true,
	"log_level":          true,
	"log_file":           true,
	"strict_refresh":     true,
	"toggle_rollback":    true,
	"server.addr":        true,
	"server.database":    true,
	"server.cors_origin": true,
}

func newConfigCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or change configuration",
		Args:  exactArgs(0, "config <show|set|path>"),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "show",
			Short: "Print the resolved configuration",
			Args:  exactArgs(0, "config show"),
			RunE: func(cmd *cobra.Command, args []string) error {
				c := app.cfg
				file := c.File
				if file == "" {
					file = "(none)"
				}
				ui.Panel(cmd.OutOrStdout(), []string{
					ui.Current().Title.Render("Configuration"),
					"",
					"file:               " + file,
					"base_url:           " + c.BaseURL,
					"timeout:            " + c.Timeout.String(),
					"theme:              " + c.Theme,
					"log_level:          " + c.LogLevel,
					"log_file:           " + c.LogFile,
					fmt.Sprintf("strict_refresh:     %t", c.StrictRefresh),
					fmt.Sprintf("toggle_rollback:    %t", c.ToggleRollback),
					"server.addr:        " + c.Server.Addr,
					"server.database:    " + c.Server.Database,
					"server.cors_origin: " + c.Server.CORSOrigin,
				})
				return nil
			},
		},
		&cobra.Command{
			Use:   "set <key> <value>",
			Short: "Write one key to the config file",
			Args:  exactArgs(2, "config set <key> <value>"),
			RunE: func(cmd *cobra.Command, args []string) error {
				if !settable[args[0]] {
					return usageErrorf("unknown config key %q", args[0])
				}
				if err := config.Set(app.cfgFile, args[0], args[1]); err != nil {
					return fail(cmd.ErrOrStderr(), "config", err)
				}
				ui.OK(cmd.OutOrStdout(), args[0]+" saved")
				return nil
			},
		},
		&cobra.Command{
			Use:   "path",
			Short: "Print the config file location",
			Args:  exactArgs(0, "config path"),
			RunE: func(cmd *cobra.Command, args []string) error {
				fmt.Fprintln(cmd.OutOrStdout(), app.configPath())
				return nil
			},
		},
	)
	return cmd
}
