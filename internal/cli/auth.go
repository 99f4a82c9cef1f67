package cli

import (
	"bufio"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Makepad-fr/tada/internal/auth"
	"github.com/Makepad-fr/tada/internal/ui"
)

func newAuthCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage the optional bearer token",
		Args:  exactArgs(0, "auth <login|logout|status|whoami>"),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "login [token]",
			Short: "Save a token to ~/.tada/credentials.json",
			Args:  cobra.MaximumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				token := ""
				if len(args) == 1 {
					token = args[0]
				} else {
					fmt.Fprint(cmd.OutOrStdout(), "Paste your token: ")
					t, err := readLine(cmd.InOrStdin())
					if err != nil {
						return fail(cmd.ErrOrStderr(), "login", fmt.Errorf("read token: %w", err))
					}
					token = t
				}
				if err := auth.SetToken(token); err != nil {
					return fail(cmd.ErrOrStderr(), "login", err)
				}
				ui.OK(cmd.OutOrStdout(), "logged in")
				return nil
			},
		},
		&cobra.Command{
			Use:   "logout",
			Short: "Remove the saved token",
			Args:  exactArgs(0, "auth logout"),
			RunE: func(cmd *cobra.Command, args []string) error {
				ti, _ := auth.GetToken()
				if ti != nil && ti.Source == "env" {
					ui.OK(cmd.OutOrStdout(), "token is provided by TADA_TOKEN env var (nothing to delete)")
					return nil
				}
				if err := auth.DeleteToken(); err != nil {
					return fail(cmd.ErrOrStderr(), "logout", err)
				}
				ui.OK(cmd.OutOrStdout(), "logged out")
				return nil
			},
		},
		&cobra.Command{
			Use:   "status",
			Short: "Show where the token comes from",
			Args:  exactArgs(0, "auth status"),
			RunE: func(cmd *cobra.Command, args []string) error {
				out := cmd.OutOrStdout()
				ti, err := auth.GetToken()
				if err != nil {
					return fail(cmd.ErrOrStderr(), "status", err)
				}
				if ti == nil {
					fmt.Fprintln(out, ui.Current().Muted.Render("not logged in"))
					fmt.Fprintln(out, "Run: tada auth login")
					return nil
				}
				fmt.Fprintf(out, "source: %s\n", ti.Source)
				if !ti.CreatedAt.IsZero() {
					fmt.Fprintf(out, "saved: %s\n", ti.CreatedAt.Format("2006-01-02 15:04"))
				}
				fmt.Fprintln(out, "env override: TADA_TOKEN")
				return nil
			},
		},
		&cobra.Command{
			Use:   "whoami",
			Short: "Decode the token payload when it is a JWT",
			Args:  exactArgs(0, "auth whoami"),
			RunE: func(cmd *cobra.Command, args []string) error {
				ti, _ := auth.GetToken()
				if ti == nil {
					return usageErrorf("not logged in. Run: tada auth login")
				}
				out := cmd.OutOrStdout()
				if payload, ok := jwtPayload(ti.Token); ok {
					fmt.Fprintln(out, "JWT payload:")
					fmt.Fprintln(out, payload)
					return nil
				}
				fmt.Fprintln(out, "Opaque token (cannot introspect locally).")
				fmt.Fprintln(out, "source:", ti.Source)
				return nil
			},
		},
	)
	return cmd
}

func readLine(r io.Reader) (string, error) {
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	line = strings.TrimSpace(line)
	if line == "" {
		return "", errors.New("no token given")
	}
	return line, nil
}

// jwtPayload decodes the claims segment of a JWT. The signature is not checked.
func jwtPayload(token string) (string, bool) {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return "", false
	}
	seg := strings.TrimRight(parts[1], "=")
	b, err := base64.RawURLEncoding.DecodeString(seg)
	if err != nil {
		return "", false
	}
	return string(b), true
}
