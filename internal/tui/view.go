package tui

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/Makepad-fr/tada/internal/completion"
	"github.com/Makepad-fr/tada/internal/modal"
	"github.com/Makepad-fr/tada/internal/model"
	"github.com/Makepad-fr/tada/internal/ui"
)

const emptyMessage = "No todos yet. Press a to add one."

// card adapts a record plus its local completion value to bubbles/list.
type card struct {
	todo   model.Todo
	done   bool
	status completion.Status
}

func (c card) Title() string       { return c.todo.Title }
func (c card) Description() string { return c.todo.Description }
func (c card) FilterValue() string { return c.todo.Title }

type cardDelegate struct{}

func (d cardDelegate) Height() int                               { return 1 }
func (d cardDelegate) Spacing() int                              { return 0 }
func (d cardDelegate) Update(msg tea.Msg, m *list.Model) tea.Cmd { return nil }
func (d cardDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	c, ok := item.(card)
	if !ok {
		return
	}
	prefix := "  "
	if index == m.Index() {
		prefix = ui.Current().Accent.Render("> ")
	}
	line := renderCard(c)
	if width := m.Width() - 2; width > 0 {
		line = ansi.Truncate(line, width, "…")
	}
	fmt.Fprint(w, prefix+line)
}

// renderCard colours a card from its local completion value only.
func renderCard(c card) string {
	t := ui.Current()
	box, text := t.Pending.Render(t.BoxUnchecked), c.todo.Title
	if c.done {
		box, text = t.Success.Render(t.BoxChecked), t.Success.Render(c.todo.Title)
	}
	line := box + " " + text
	switch c.status {
	case completion.StatusPending:
		line += t.Muted.Render(" (saving)")
	case completion.StatusFailed:
		line += t.Error.Render(" (not saved)")
	}
	if first := firstLine(c.todo.Description); first != "" {
		line += t.Muted.Render("  " + first)
	}
	return line
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	return s
}

// header is the list title with live counts.
func (m appModel) header(items []list.Item) string {
	t := ui.Current()
	done := 0
	for _, it := range items {
		if c, ok := it.(card); ok && c.done {
			done++
		}
	}
	total := len(items)
	h := fmt.Sprintf("%s   %s %d  %s %d  %s %d  %s",
		t.Title.Render("Todos"),
		t.Success.Render(t.SymDone), done,
		t.Pending.Render(t.SymPending), total-done,
		t.Accent.Render("Total"), total,
		ui.ProgressBar(done, total, 12),
	)
	if m.refreshing > 0 {
		h += " " + m.spinner.View()
	}
	return h
}

func (m appModel) View() string {
	var body string
	switch s := m.modals.State().(type) {
	case modal.Add:
		body = m.viewForm("Add todo", m.keys.addKeys())
	case modal.Detail:
		if s.Editing {
			body = m.viewForm("Edit todo", m.keys.editKeys())
		} else {
			body = m.viewDetail(s.Todo)
		}
	case modal.DeleteConfirm:
		body = m.viewConfirm(s.Todo)
	default:
		body = m.viewList()
	}

	var footer []string
	if m.notice != "" {
		t := ui.Current()
		if m.noticeErr {
			footer = append(footer, t.Error.Render(t.SymFail+" "+m.notice))
		} else {
			footer = append(footer, t.Success.Render(t.SymOK+" "+m.notice))
		}
	}
	if m.modals.IsClosed() {
		footer = append(footer, m.help.ShortHelpView(append(m.keys.listKeys(), m.keys.Quit)))
	}
	if len(footer) > 0 {
		body += "\n\n" + strings.Join(footer, "\n")
	}
	return panelString(body)
}

func (m appModel) viewList() string {
	if !m.store.Loaded() && m.store.LastError() == nil {
		return m.spinner.View() + " Loading todos…"
	}
	m.list.Title = m.header(m.list.Items())
	if len(m.list.Items()) == 0 {
		t := ui.Current()
		return m.list.Title + "\n\n" + t.Muted.Render(emptyMessage)
	}
	return m.list.View()
}

func (m appModel) viewForm(title string, keys []key.Binding) string {
	t := ui.Current()
	head := t.Title.Render(title)
	if m.formErr != "" {
		head += "  " + t.Error.Render(m.formErr)
	}
	lines := []string{
		head,
		"",
		m.title.View(),
		"",
		m.desc.View(),
		"",
	}
	if m.modals.Busy() {
		lines = append(lines, m.spinner.View()+" saving…")
	} else {
		lines = append(lines, m.help.ShortHelpView(keys))
	}
	return dialog(strings.Join(lines, "\n"))
}

func (m appModel) viewDetail(td model.Todo) string {
	t := ui.Current()
	status := t.Pending.Render(t.BoxUnchecked + " not done")
	if m.toggles.Completed(td.ID) {
		status = t.Success.Render(t.BoxChecked + " done")
	}
	if st, ok := m.toggles.State(td.ID); ok && st.Status == completion.StatusPending {
		status += " " + m.spinner.View()
	}

	desc := renderMarkdown(td.Description, m.width-10)
	if desc == "" {
		desc = t.Muted.Render("No description.")
	}
	lines := []string{
		t.Title.Render(td.Title) + "  " + t.Muted.Render("#"+td.ID.String()),
		status,
		"",
		desc,
		"",
		m.help.ShortHelpView(m.keys.detailKeys()),
	}
	return dialog(strings.Join(lines, "\n"))
}

func (m appModel) viewConfirm(td model.Todo) string {
	t := ui.Current()
	lines := []string{
		t.Error.Render("Delete todo?"),
		"",
		fmt.Sprintf("%q will be removed from the server.", td.Title),
		"",
	}
	if m.modals.Busy() {
		lines = append(lines, m.spinner.View()+" deleting…")
	} else {
		lines = append(lines, m.help.ShortHelpView(m.keys.confirmKeys()))
	}
	return dialog(strings.Join(lines, "\n"))
}

func dialog(inner string) string {
	t := ui.Current()
	return lipgloss.NewStyle().
		Border(t.Border).
		BorderForeground(t.BorderColor).
		Padding(0, 1).
		Render(inner)
}

func panelString(inner string) string {
	return lipgloss.NewStyle().Padding(0, 1).Render(inner)
}
