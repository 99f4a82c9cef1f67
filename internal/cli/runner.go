package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/Makepad-fr/tada/internal/modal"
	"github.com/Makepad-fr/tada/internal/model"
	"github.com/Makepad-fr/tada/internal/ui"
)

// Run executes the command tree and returns an exit code (0 ok, 1 error,
// 2 usage).
func Run(args []string) int {
	return Execute(args, os.Stdout, os.Stderr)
}

// Execute is Run with explicit output streams.
func Execute(args []string, stdout, stderr io.Writer) int {
	cmd := NewRootCmd()
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	err := cmd.Execute()
	if err == nil {
		return 0
	}
	var (
		ue *usageError
		re *reportedError
	)
	switch {
	case errors.As(err, &ue):
		ui.Fail(stderr, err.Error())
		fmt.Fprintln(stderr, ui.Current().Muted.Render("Run `tada --help` for usage."))
		return 2
	case errors.As(err, &re):
		return 1
	}
	if strings.HasPrefix(err.Error(), "unknown command") {
		ui.Fail(stderr, err.Error())
		return 2
	}
	ui.Fail(stderr, err.Error())
	return 1
}

func failureNotice(verb string, err error) string {
	return modal.FailureNotice(verb, err)
}

// -------------- rendering helpers --------------

func listHeader(todos []model.Todo) []string {
	t := ui.Current()
	d, p := model.Stats(todos)
	header := fmt.Sprintf("%s  %s %d  %s %d  %s %d",
		t.Title.Render("Todos"),
		t.Success.Render(t.SymDone), d,
		t.Pending.Render(t.SymPending), p,
		t.Accent.Render("Total"), len(todos),
	)
	return []string{header, t.Muted.Render(ui.ProgressBar(d, d+p, 28)), ""}
}

func flatLines(todos []model.Todo) []string {
	t := ui.Current()
	if len(todos) == 0 {
		return []string{t.Muted.Render("no todos")}
	}
	width := 0
	for _, td := range todos {
		if n := len(td.ID); n > width {
			width = n
		}
	}
	out := make([]string, 0, len(todos))
	for _, td := range todos {
		id := fmt.Sprintf("#%-*s", width, td.ID)
		box := t.Muted.Render(t.BoxUnchecked)
		if td.Completed {
			box = t.Success.Render(t.BoxChecked)
		}
		title := td.Title
		if r := []rune(title); len(r) > 80 {
			title = string(r[:77]) + "..."
		}
		out = append(out, fmt.Sprintf("%s %s %s", t.Muted.Render(id), box, title))
	}
	return out
}

func groupLines(todos []model.Todo) []string {
	t := ui.Current()
	var pend, done []model.Todo
	for _, td := range todos {
		if td.Completed {
			done = append(done, td)
		} else {
			pend = append(pend, td)
		}
	}
	var lines []string
	lines = append(lines, t.Accent.Render("Pending"))
	if len(pend) == 0 {
		lines = append(lines, t.Muted.Render("(none)"))
	} else {
		lines = append(lines, flatLines(pend)...)
	}
	lines = append(lines, "")
	lines = append(lines, t.Accent.Render("Done"))
	if len(done) == 0 {
		lines = append(lines, t.Muted.Render("(none)"))
	} else {
		lines = append(lines, flatLines(done)...)
	}
	return lines
}

func detailLines(td model.Todo) []string {
	t := ui.Current()
	status := t.Pending.Render(t.BoxUnchecked + " pending")
	if td.Completed {
		status = t.Success.Render(t.BoxChecked + " done")
	}
	lines := []string{
		t.Title.Render(td.Title) + "  " + t.Muted.Render("#"+td.ID.String()),
		status,
	}
	if desc := strings.TrimSpace(td.Description); desc != "" {
		lines = append(lines, "")
		lines = append(lines, strings.Split(desc, "\n")...)
	}
	return lines
}
