package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/Makepad-fr/tada/internal/model"
	"github.com/Makepad-fr/tada/internal/ui"
)

func newListCmd(app *App) *cobra.Command {
	var group bool
	cmd := &cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "List todos",
		Args:    exactArgs(0, "ls [--group]"),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := app.client(app.logger)
			if err != nil {
				return err
			}
			todos, err := c.ListAll(cmd.Context())
			if err != nil {
				return fail(cmd.ErrOrStderr(), "fetch", err)
			}
			lines := listHeader(todos)
			if group {
				lines = append(lines, groupLines(todos)...)
			} else {
				lines = append(lines, flatLines(todos)...)
			}
			lines = append(lines, "", ui.Current().Muted.Render("Tip: add with `tada add \"Buy milk\"`"))
			ui.Panel(cmd.OutOrStdout(), lines)
			return nil
		},
	}
	cmd.Flags().BoolVar(&group, "group", false, "group output by pending/done")
	return cmd
}

func newAddCmd(app *App) *cobra.Command {
	var desc string
	cmd := &cobra.Command{
		Use:   "add <title...>",
		Short: "Add a todo (the title can be several words)",
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return usageErrorf("usage: tada add <title...> [-d description]")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			in := model.NewTodo{Title: strings.Join(args, " "), Description: desc}
			if err := in.Validate(); err != nil {
				return fail(cmd.ErrOrStderr(), "add", err)
			}
			c, err := app.client(app.logger)
			if err != nil {
				return err
			}
			if err := c.Create(cmd.Context(), in); err != nil {
				return fail(cmd.ErrOrStderr(), "add", err)
			}
			ui.OK(cmd.OutOrStdout(), "added")
			return nil
		},
	}
	cmd.Flags().StringVarP(&desc, "description", "d", "", "description (markdown)")
	return cmd
}

// newDoneCmd flips completion from the server's current value.
func newDoneCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "done <id>",
		Short: "Toggle a todo between done and pending",
		Args:  exactArgs(1, "done <id>"),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := model.ParseID(args[0])
			if err != nil {
				return usageErrorf("done: %v", err)
			}
			c, err := app.client(app.logger)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			td, err := c.Find(ctx, id)
			if err != nil {
				return fail(cmd.ErrOrStderr(), "toggle", err)
			}
			if err := c.UpdatePartial(ctx, id, model.CompletedPatch(!td.Completed)); err != nil {
				return fail(cmd.ErrOrStderr(), "toggle", err)
			}
			if td.Completed {
				ui.OK(cmd.OutOrStdout(), "marked pending")
			} else {
				ui.OK(cmd.OutOrStdout(), "marked done")
			}
			return nil
		},
	}
}

func newEditCmd(app *App) *cobra.Command {
	var title, desc string
	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Change the title and/or description of a todo",
		Args:  exactArgs(1, "edit <id> [--title T] [--description D]"),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := model.ParseID(args[0])
			if err != nil {
				return usageErrorf("edit: %v", err)
			}
			var p model.Patch
			if cmd.Flags().Changed("title") {
				t := strings.TrimSpace(title)
				p.Title = &t
			}
			if cmd.Flags().Changed("description") {
				p.Description = &desc
			}
			if p.IsEmpty() {
				return usageErrorf("edit: nothing to change (use --title or --description)")
			}
			if err := p.Validate(); err != nil {
				return fail(cmd.ErrOrStderr(), "edit", err)
			}
			c, err := app.client(app.logger)
			if err != nil {
				return err
			}
			if err := c.UpdatePartial(cmd.Context(), id, p); err != nil {
				return fail(cmd.ErrOrStderr(), "edit", err)
			}
			ui.OK(cmd.OutOrStdout(), "saved")
			return nil
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "new title")
	cmd.Flags().StringVarP(&desc, "description", "d", "", "new description")
	return cmd
}

func newRemoveCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:     "rm <id>",
		Aliases: []string{"delete"},
		Short:   "Delete a todo",
		Args:    exactArgs(1, "rm <id>"),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := model.ParseID(args[0])
			if err != nil {
				return usageErrorf("rm: %v", err)
			}
			c, err := app.client(app.logger)
			if err != nil {
				return err
			}
			if err := c.Delete(cmd.Context(), id); err != nil {
				return fail(cmd.ErrOrStderr(), "delete", err)
			}
			ui.OK(cmd.OutOrStdout(), "deleted")
			return nil
		},
	}
}

func newShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one todo",
		Args:  exactArgs(1, "show <id>"),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := model.ParseID(args[0])
			if err != nil {
				return usageErrorf("show: %v", err)
			}
			c, err := app.client(app.logger)
			if err != nil {
				return err
			}
			td, err := c.Find(cmd.Context(), id)
			if err != nil {
				return fail(cmd.ErrOrStderr(), "fetch", err)
			}
			ui.Panel(cmd.OutOrStdout(), detailLines(td))
			return nil
		},
	}
}
