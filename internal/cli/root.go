// Package cli is the tada command tree. With no subcommand it starts the
// interactive view; the subcommands are scriptable one-shot calls.
package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/Makepad-fr/tada/internal/api"
	"github.com/Makepad-fr/tada/internal/auth"
	"github.com/Makepad-fr/tada/internal/completion"
	"github.com/Makepad-fr/tada/internal/config"
	"github.com/Makepad-fr/tada/internal/logging"
	"github.com/Makepad-fr/tada/internal/store"
	"github.com/Makepad-fr/tada/internal/tui"
	"github.com/Makepad-fr/tada/internal/ui"
)

// App carries state shared by every command of one invocation.
type App struct {
	v       *viper.Viper
	cfgFile string
	cfg     *config.Config
	logger  *log.Logger
}

// flagKeys maps persistent flags to config keys.
var flagKeys = map[string]string{
	"base-url":  "base_url",
	"timeout":   "timeout",
	"theme":     "theme",
	"log-level": "log_level",
}

func NewRootCmd() *cobra.Command {
	app := &App{v: config.NewViper()}

	cmd := &cobra.Command{
		Use:           "tada",
		Short:         "Todos on a remote server, from the terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
		Example: strings.TrimSpace(`
  # Start the interactive view
  tada

  # Scriptable commands
  tada add "Buy milk" -d "2 litres"
  tada ls --group
  tada done 42

  # Run the reference server
  tada serve --addr :8000
`),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				return usageErrorf("unknown command %q", args[0])
			}
			return app.runTUI()
		},
	}
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &usageError{err}
	})

	pf := cmd.PersistentFlags()
	pf.StringVar(&app.cfgFile, "config", "", "config file (default ~/.tada/config.yaml)")
	pf.String("base-url", config.DefaultBaseURL, "todo server origin")
	pf.Duration("timeout", config.DefaultTimeout, "per-request timeout (0 disables)")
	pf.String("theme", config.DefaultTheme, "classic|neon|mono")
	pf.String("log-level", config.DefaultLogLevel, "debug|info|warn|error")
	bindFlags(app.v, pf)

	cmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(app.v, app.cfgFile)
		if err != nil {
			return err
		}
		app.cfg = cfg
		ui.SetTheme(cfg.Theme)
		app.logger = logging.New(cmd.ErrOrStderr(), logging.Options{Level: cfg.LogLevel, Prefix: "tada"})
		return nil
	}

	cmd.AddCommand(
		newListCmd(app),
		newAddCmd(app),
		newDoneCmd(app),
		newEditCmd(app),
		newRemoveCmd(app),
		newShowCmd(app),
		newAuthCmd(app),
		newConfigCmd(app),
		newServeCmd(app),
	)
	return cmd
}

func bindFlags(v *viper.Viper, fs *pflag.FlagSet) {
	for name, key := range flagKeys {
		if f := fs.Lookup(name); f != nil {
			_ = v.BindPFlag(key, f)
		}
	}
}

// client builds the API client from the resolved config.
// configPath is the file config commands read and write.
func (a *App) configPath() string {
	if a.cfgFile != "" {
		return a.cfgFile
	}
	return config.FilePath()
}

func (a *App) client(logger *log.Logger) (*api.Client, error) {
	return api.New(a.cfg.BaseURL,
		api.WithTimeout(a.cfg.Timeout),
		api.WithToken(auth.Token()),
		api.WithLogger(logger),
	)
}

// runTUI owns the terminal, so it logs to a file instead of stderr.
func (a *App) runTUI() error {
	logger, closeLog, err := logging.OpenFile(a.cfg.LogFile, logging.Options{
		Level:           a.cfg.LogLevel,
		ReportTimestamp: true,
	})
	if err != nil {
		return err
	}
	defer closeLog()

	c, err := a.client(logger)
	if err != nil {
		return err
	}
	opts := tui.Options{
		Policy:  store.LastResponseWins,
		Mode:    completion.FireAndForget,
		Timeout: a.cfg.Timeout,
		Logger:  logger,
	}
	if a.cfg.StrictRefresh {
		opts.Policy = store.DiscardStale
	}
	if a.cfg.ToggleRollback {
		opts.Mode = completion.Rollback
	}
	logger.Info("starting", "base_url", c.BaseURL(), "strict_refresh", a.cfg.StrictRefresh,
		"toggle_rollback", a.cfg.ToggleRollback)
	return tui.Run(c, opts)
}

// usageError marks bad invocations; they exit 2 instead of 1.
type usageError struct{ err error }

func (e *usageError) Error() string { return e.err.Error() }
func (e *usageError) Unwrap() error { return e.err }

func usageErrorf(format string, args ...any) error {
	return &usageError{fmt.Errorf(format, args...)}
}

// reportedError is a failure already shown to the user with ui.Fail.
type reportedError struct{ err error }

func (e *reportedError) Error() string { return e.err.Error() }
func (e *reportedError) Unwrap() error { return e.err }

// fail prints the action notice and returns an error that will not be
// printed again.
func fail(w io.Writer, verb string, err error) error {
	ui.Fail(w, failureNotice(verb, err))
	return &reportedError{err}
}

func exactArgs(n int, usage string) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if len(args) != n {
			return usageErrorf("usage: tada %s", usage)
		}
		return nil
	}
}
