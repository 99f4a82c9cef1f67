package tui

import (
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/Makepad-fr/tada/internal/modal"
	"github.com/Makepad-fr/tada/internal/model"
)

func (m appModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.resize()
		return m, nil
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case refreshRequestMsg:
		return m, m.refreshCmd()
	case todosLoadedMsg:
		return m.handleLoaded(msg)
	case mutationDoneMsg:
		return m.handleMutation(msg)
	case toggleDoneMsg:
		return m.handleToggle(msg)
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		m.notice, m.noticeErr = "", false
		switch m.modals.State().(type) {
		case modal.Add:
			return m.updateAdd(msg)
		case modal.Detail:
			return m.updateDetail(msg)
		case modal.DeleteConfirm:
			return m.updateConfirm(msg)
		}
		return m.updateList(msg)
	}
	return m.forward(msg)
}

func (m appModel) handleLoaded(msg todosLoadedMsg) (tea.Model, tea.Cmd) {
	if m.refreshing > 0 {
		m.refreshing--
	}
	res := m.store.Apply(msg.seq, msg.todos, msg.err)
	if res.Err != nil {
		m.setNotice(modal.FailureNotice("fetch", res.Err), true)
		return m, nil
	}
	if !res.Applied {
		return m, nil
	}
	m.toggles.Mount(m.store.Todos())
	if m.modals.Rebind(m.store.Find) {
		m.resetForm()
		m.setNotice("dialog closed: todo no longer exists", false)
	}
	return m, m.syncList()
}

func (m appModel) handleMutation(msg mutationDoneMsg) (tea.Model, tea.Cmd) {
	c := m.modals.Complete(msg.op, msg.err)
	if c.Notice != "" {
		m.logger.Warn("mutation failed", "action", msg.op.Action, "id", msg.op.ID, "err", msg.err)
		m.setNotice(c.Notice, true)
		return m, nil
	}
	if !c.Refresh {
		return m, nil
	}
	m.logger.Info("mutation done", "action", msg.op.Action, "id", msg.op.ID)
	m.resetForm()
	m.setNotice(doneNotice(msg.op.Action), false)
	return m, m.refreshCmd()
}

func (m appModel) handleToggle(msg toggleDoneMsg) (tea.Model, tea.Cmd) {
	out := m.toggles.Resolve(msg.req, msg.err)
	if msg.err != nil {
		m.logger.Warn("toggle failed", "id", msg.req.ID, "completed", msg.req.Completed,
			"stale", out.Stale, "reverted", out.Reverted, "err", msg.err)
	}
	if out.Notify {
		m.setNotice(modal.FailureNotice("toggle", msg.err), true)
	}
	return m, m.syncList()
}

func (m appModel) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.list.FilterState() == list.Filtering {
		return m.forward(msg)
	}
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Add):
		if m.modals.OpenAdd() {
			m.resetForm()
			return m, m.focusField(fieldTitle)
		}
		return m, nil
	case key.Matches(msg, m.keys.Refresh):
		return m, m.refreshCmd()
	case key.Matches(msg, m.keys.Open):
		if t, ok := m.selected(); ok {
			m.modals.OpenDetail(t)
		}
		return m, nil
	case key.Matches(msg, m.keys.Toggle):
		if t, ok := m.selected(); ok {
			return m, m.toggleCmd(t.ID)
		}
		return m, nil
	case key.Matches(msg, m.keys.Edit):
		if t, ok := m.selected(); ok && m.modals.OpenDetail(t) {
			return m.beginEdit()
		}
		return m, nil
	case key.Matches(msg, m.keys.Delete):
		if t, ok := m.selected(); ok && m.modals.OpenDetail(t) {
			m.modals.RequestDelete()
		}
		return m, nil
	}
	return m.forward(msg)
}

func (m appModel) updateAdd(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.modals.Busy() {
		return m, nil
	}
	switch {
	case key.Matches(msg, m.keys.Back):
		m.modals.Close()
		m.resetForm()
		return m, nil
	case key.Matches(msg, m.keys.Next):
		return m, m.focusField(m.otherField())
	case key.Matches(msg, m.keys.Submit), msg.Type == tea.KeyEnter && m.focus == fieldTitle:
		op, err := m.modals.SubmitAdd(model.NewTodo{Title: m.title.Value(), Description: m.desc.Value()})
		if err != nil {
			m.formErr = err.Error()
			return m, nil
		}
		m.formErr = ""
		return m, m.mutateCmd(op)
	}
	return m.updateForm(msg)
}

func (m appModel) updateDetail(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	d, _ := m.modals.State().(modal.Detail)
	if m.modals.Busy() {
		return m, nil
	}
	if d.Editing {
		switch {
		case key.Matches(msg, m.keys.Back):
			m.modals.Close()
			m.resetForm()
			return m, nil
		case key.Matches(msg, m.keys.View):
			m.modals.ToggleEdit()
			m.resetForm()
			return m, nil
		case key.Matches(msg, m.keys.Next):
			return m, m.focusField(m.otherField())
		case key.Matches(msg, m.keys.Submit), msg.Type == tea.KeyEnter && m.focus == fieldTitle:
			op, err := m.modals.SubmitEdit(m.title.Value(), m.desc.Value())
			if err != nil {
				m.formErr = err.Error()
				return m, nil
			}
			m.formErr = ""
			return m, m.mutateCmd(op)
		}
		return m.updateForm(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Back), key.Matches(msg, m.keys.Quit):
		m.modals.Close()
	case key.Matches(msg, m.keys.Toggle):
		return m, m.toggleCmd(d.Todo.ID)
	case key.Matches(msg, m.keys.Edit):
		return m.beginEdit()
	case key.Matches(msg, m.keys.Delete):
		m.modals.RequestDelete()
	}
	return m, nil
}

func (m appModel) updateConfirm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.modals.Busy() {
		return m, nil
	}
	switch {
	case key.Matches(msg, m.keys.Confirm):
		op, err := m.modals.ConfirmDelete()
		if err != nil {
			return m, nil
		}
		return m, m.mutateCmd(op)
	case key.Matches(msg, m.keys.Cancel):
		m.modals.Close()
	}
	return m, nil
}

// beginEdit switches the open detail dialog to edit mode with a form loaded
// from the record. Unsaved edits from an earlier visit are gone.
func (m appModel) beginEdit() (tea.Model, tea.Cmd) {
	if !m.modals.ToggleEdit() {
		return m, nil
	}
	d, _ := m.modals.State().(modal.Detail)
	m.resetForm()
	m.title.SetValue(d.Todo.Title)
	m.title.CursorEnd()
	m.desc.SetValue(d.Todo.Description)
	return m, m.focusField(fieldTitle)
}

func (m appModel) updateForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	if m.focus == fieldTitle {
		m.title, cmd = m.title.Update(msg)
	} else {
		m.desc, cmd = m.desc.Update(msg)
	}
	return m, cmd
}

// forward hands msg to whatever widget is active.
func (m appModel) forward(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.formOpen() {
		return m.updateForm(msg)
	}
	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m appModel) formOpen() bool {
	switch s := m.modals.State().(type) {
	case modal.Add:
		return true
	case modal.Detail:
		return s.Editing
	}
	return false
}

// selected returns the current snapshot of the highlighted card's record.
func (m appModel) selected() (model.Todo, bool) {
	c, ok := m.list.SelectedItem().(card)
	if !ok {
		return model.Todo{}, false
	}
	return m.store.Find(c.todo.ID)
}

func (m *appModel) focusField(f field) tea.Cmd {
	m.focus = f
	if f == fieldTitle {
		m.desc.Blur()
		return m.title.Focus()
	}
	m.title.Blur()
	return m.desc.Focus()
}

func (m appModel) otherField() field {
	if m.focus == fieldTitle {
		return fieldDescription
	}
	return fieldTitle
}

func (m *appModel) resetForm() {
	m.title.SetValue("")
	m.title.Blur()
	m.desc.Reset()
	m.desc.Blur()
	m.focus = fieldTitle
	m.formErr = ""
}

func (m *appModel) setNotice(s string, isErr bool) {
	m.notice, m.noticeErr = s, isErr
}

func doneNotice(a modal.Action) string {
	switch a {
	case modal.ActionCreate:
		return "added"
	case modal.ActionUpdate:
		return "saved"
	case modal.ActionDelete:
		return "deleted"
	}
	return "done"
}

// syncList rebuilds the cards from the store and the local completion values.
func (m *appModel) syncList() tea.Cmd {
	todos := m.store.Todos()
	items := make([]list.Item, 0, len(todos))
	for _, t := range todos {
		st, _ := m.toggles.State(t.ID)
		items = append(items, card{todo: t, done: m.toggles.Completed(t.ID), status: st.Status})
	}
	cmd := m.list.SetItems(items)
	m.list.Title = m.header(items)
	return cmd
}

func (m *appModel) resize() {
	w, h := m.width-4, m.height-6
	if w < 20 {
		w = 20
	}
	if h < 5 {
		h = 5
	}
	m.list.SetSize(w, h)
	m.title.Width = w - 4
	m.desc.SetWidth(w - 2)
}
