package tui

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Makepad-fr/tada/internal/completion"
	"github.com/Makepad-fr/tada/internal/modal"
	"github.com/Makepad-fr/tada/internal/model"
	"github.com/Makepad-fr/tada/internal/store"
)

type patchCall struct {
	id    model.ID
	patch model.Patch
}

// fakeBackend is an in-memory server that records every call.
type fakeBackend struct {
	mu     sync.Mutex
	todos  []model.Todo
	nextID int

	listErr, createErr, updateErr, deleteErr error

	lists   int
	creates []model.NewTodo
	updates []patchCall
	deletes []model.ID
}

func (f *fakeBackend) ListAll(ctx context.Context) ([]model.Todo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lists++
	if f.listErr != nil {
		return nil, f.listErr
	}
	return append([]model.Todo{}, f.todos...), nil
}

func (f *fakeBackend) Create(ctx context.Context, in model.NewTodo) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.creates = append(f.creates, in)
	if f.createErr != nil {
		return f.createErr
	}
	f.nextID++
	f.todos = append(f.todos, model.Todo{ID: model.ID(strconv.Itoa(100 + f.nextID)), Title: in.Title, Description: in.Description})
	return nil
}

func (f *fakeBackend) UpdatePartial(ctx context.Context, id model.ID, p model.Patch) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates = append(f.updates, patchCall{id, p})
	if f.updateErr != nil {
		return f.updateErr
	}
	for i, t := range f.todos {
		if t.ID == id {
			f.todos[i] = p.Apply(t)
		}
	}
	return nil
}

func (f *fakeBackend) Delete(ctx context.Context, id model.ID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletes = append(f.deletes, id)
	if f.deleteErr != nil {
		return f.deleteErr
	}
	out := f.todos[:0]
	for _, t := range f.todos {
		if t.ID != id {
			out = append(out, t)
		}
	}
	f.todos = out
	return nil
}

func (f *fakeBackend) setTodos(todos ...model.Todo) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.todos = todos
}

func (f *fakeBackend) listCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lists
}

// exec runs cmd, giving up on commands that wait on timers (cursor blink,
// spinner ticks).
func exec(cmd tea.Cmd) (tea.Msg, bool) {
	ch := make(chan tea.Msg, 1)
	go func() { ch <- cmd() }()
	select {
	case msg := <-ch:
		return msg, true
	case <-time.After(250 * time.Millisecond):
		return nil, false
	}
}

// drain runs cmd and every command it leads to, feeding results to Update.
func drain(t *testing.T, m appModel, cmd tea.Cmd) appModel {
	t.Helper()
	queue := []tea.Cmd{cmd}
	for steps := 0; len(queue) > 0; steps++ {
		require.Less(t, steps, 200, "command loop did not settle")
		c := queue[0]
		queue = queue[1:]
		if c == nil {
			continue
		}
		msg, ok := exec(c)
		if !ok || msg == nil {
			continue
		}
		switch msg := msg.(type) {
		case tea.BatchMsg:
			queue = append(queue, msg...)
			continue
		case tea.QuitMsg:
			continue
		}
		next, nc := m.Update(msg)
		m = next.(appModel)
		queue = append(queue, nc)
	}
	return m
}

func keyMsg(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "ctrl+s":
		return tea.KeyMsg{Type: tea.KeyCtrlS}
	case "ctrl+e":
		return tea.KeyMsg{Type: tea.KeyCtrlE}
	case " ":
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// press sends each key and settles the commands it produces.
func press(t *testing.T, m appModel, keys ...string) appModel {
	t.Helper()
	for _, k := range keys {
		next, cmd := m.Update(keyMsg(k))
		m = drain(t, next.(appModel), cmd)
	}
	return m
}

func loaded(t *testing.T, fb *fakeBackend, opts Options) appModel {
	t.Helper()
	m := newModel(fb, opts)
	cmd := m.refreshCmd()
	return drain(t, m, cmd)
}

func todo(id, title string, done bool) model.Todo {
	return model.Todo{ID: model.ID(id), Title: title, Completed: done}
}

func cards(m appModel) []card {
	var out []card
	for _, it := range m.list.Items() {
		out = append(out, it.(card))
	}
	return out
}

func TestInitialRefresh_RendersOneCardPerRecord(t *testing.T) {
	fb := &fakeBackend{}
	fb.setTodos(todo("1", "Buy milk", false), todo("2", "Walk dog", true), todo("3", "Call mum", false))
	m := loaded(t, fb, Options{})

	require.Len(t, m.list.Items(), 3)
	assert.True(t, cards(m)[1].done)
	view := m.View()
	assert.Contains(t, view, "Buy milk")
	assert.NotContains(t, view, emptyMessage)
	assert.Equal(t, 0, m.refreshing)
}

func TestView_FitsWindowWithManyCards(t *testing.T) {
	fb := &fakeBackend{}
	var many []model.Todo
	for i := 1; i <= 40; i++ {
		many = append(many, todo(strconv.Itoa(i), fmt.Sprintf("Card %02d", i), false))
	}
	fb.setTodos(many...)
	m := loaded(t, fb, Options{})

	next, _ := m.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	m = next.(appModel)
	view := m.View()
	assert.LessOrEqual(t, lipgloss.Height(view), 24)
	assert.Contains(t, view, "Todos")
	assert.Contains(t, view, "Card 01")

	lines := strings.Split(view, "\n")
	first, second := -1, -1
	for i, l := range lines {
		switch {
		case strings.Contains(l, "Card 01"):
			first = i
		case strings.Contains(l, "Card 02"):
			second = i
		}
	}
	require.GreaterOrEqual(t, first, 0)
	assert.Equal(t, first+1, second, "one line per card")
}

func TestInit_RefreshGoesThroughUpdate(t *testing.T) {
	fb := &fakeBackend{}
	fb.setTodos(todo("1", "a", false))
	m := newModel(fb, Options{})
	assert.Contains(t, m.View(), "Loading todos")

	next, cmd := m.Update(refreshRequestMsg{})
	m = next.(appModel)
	assert.Equal(t, 1, m.refreshing)
	m = drain(t, m, cmd)

	assert.Equal(t, 0, m.refreshing)
	assert.Len(t, m.list.Items(), 1)
}

func TestEmptyList_RendersEmptyState(t *testing.T) {
	m := loaded(t, &fakeBackend{}, Options{})
	assert.Empty(t, m.list.Items())
	assert.Contains(t, m.View(), emptyMessage)
}

func TestFetchFailure_KeepsPreviousListAndNotifies(t *testing.T) {
	fb := &fakeBackend{}
	fb.setTodos(todo("1", "a", false), todo("2", "b", false))
	m := loaded(t, fb, Options{})

	fb.listErr = errors.New("connection refused")
	m = press(t, m, "r")

	assert.Len(t, m.list.Items(), 2)
	assert.True(t, m.noticeErr)
	assert.Contains(t, m.notice, "fetch failed")
}

func TestInitialFetchFailure_ShowsEmptyStateAndNotice(t *testing.T) {
	fb := &fakeBackend{listErr: errors.New("boom")}
	m := loaded(t, fb, Options{})

	view := m.View()
	assert.Contains(t, view, emptyMessage)
	assert.Contains(t, view, "fetch failed")
}

func TestToggleTwice_IssuesTwoUpdates(t *testing.T) {
	fb := &fakeBackend{}
	fb.setTodos(todo("7", "a", false))
	m := loaded(t, fb, Options{})

	m = press(t, m, " ")
	assert.True(t, m.toggles.Completed("7"))
	assert.True(t, cards(m)[0].done)
	m = press(t, m, "x")
	assert.False(t, m.toggles.Completed("7"))

	require.Len(t, fb.updates, 2)
	assert.Equal(t, true, *fb.updates[0].patch.Completed)
	assert.Equal(t, false, *fb.updates[1].patch.Completed)
	assert.Nil(t, fb.updates[0].patch.Title)
	assert.Equal(t, 1, fb.listCount(), "toggling does not refresh")
}

func TestToggle_IsOptimistic(t *testing.T) {
	fb := &fakeBackend{}
	fb.setTodos(todo("7", "a", false))
	m := loaded(t, fb, Options{})

	next, cmd := m.Update(keyMsg(" "))
	m = next.(appModel)
	require.NotNil(t, cmd)
	assert.True(t, cards(m)[0].done, "card flips before the server answers")
	assert.Equal(t, completion.StatusPending, cards(m)[0].status)
}

func TestToggleFailure_RollsBackAndNotifies(t *testing.T) {
	fb := &fakeBackend{updateErr: errors.New("503")}
	fb.setTodos(todo("7", "a", false))
	m := loaded(t, fb, Options{Mode: completion.Rollback})

	m = press(t, m, " ")
	assert.False(t, m.toggles.Completed("7"))
	assert.False(t, cards(m)[0].done)
	assert.Contains(t, m.notice, "toggle failed")
}

func TestToggleFailure_FireAndForgetKeepsLocalValue(t *testing.T) {
	fb := &fakeBackend{updateErr: errors.New("503")}
	fb.setTodos(todo("7", "a", false))
	m := loaded(t, fb, Options{Mode: completion.FireAndForget})

	m = press(t, m, " ")
	assert.True(t, m.toggles.Completed("7"))
	assert.Empty(t, m.notice)
}

func TestAddFlow(t *testing.T) {
	fb := &fakeBackend{}
	m := loaded(t, fb, Options{})

	m = press(t, m, "a")
	assert.IsType(t, modal.Add{}, m.modals.State())

	m = press(t, m, "Buy milk", "enter")

	require.Len(t, fb.creates, 1)
	assert.Equal(t, model.NewTodo{Title: "Buy milk", Description: ""}, fb.creates[0])
	assert.True(t, m.modals.IsClosed())
	assert.Equal(t, 2, fb.listCount(), "exactly one refresh after the create")
	require.Len(t, m.list.Items(), 1)
	assert.Equal(t, "Buy milk", cards(m)[0].todo.Title)
	assert.Equal(t, "added", m.notice)
}

func TestAddFlow_DescriptionField(t *testing.T) {
	fb := &fakeBackend{}
	m := loaded(t, fb, Options{})

	m = press(t, m, "a", "Call mum", "tab", "sunday", "ctrl+s")

	require.Len(t, fb.creates, 1)
	assert.Equal(t, model.NewTodo{Title: "Call mum", Description: "sunday"}, fb.creates[0])
}

func TestAddFlow_EmptyTitleKeepsDialogOpen(t *testing.T) {
	fb := &fakeBackend{}
	m := loaded(t, fb, Options{})

	m = press(t, m, "a", "enter")

	assert.Empty(t, fb.creates)
	assert.IsType(t, modal.Add{}, m.modals.State())
	assert.NotEmpty(t, m.formErr)
	assert.Equal(t, 1, fb.listCount())
}

func TestAddFailure_KeepsDialogOpenWithoutRefresh(t *testing.T) {
	fb := &fakeBackend{createErr: errors.New("500")}
	m := loaded(t, fb, Options{})

	m = press(t, m, "a", "x", "enter")

	assert.Len(t, fb.creates, 1)
	assert.IsType(t, modal.Add{}, m.modals.State())
	assert.Contains(t, m.notice, "add failed")
	assert.Equal(t, 1, fb.listCount())
}

func TestAdd_CancelIgnoredWhileInFlight(t *testing.T) {
	fb := &fakeBackend{}
	m := loaded(t, fb, Options{})
	m = press(t, m, "a", "x")

	next, submit := m.Update(keyMsg("enter"))
	m = next.(appModel)
	require.NotNil(t, submit)
	assert.True(t, m.modals.Busy())

	m = press(t, m, "esc")
	assert.IsType(t, modal.Add{}, m.modals.State())

	m = drain(t, m, submit)
	assert.True(t, m.modals.IsClosed())
}

func TestEditFlow(t *testing.T) {
	fb := &fakeBackend{}
	fb.setTodos(todo("5", "Old", true))
	m := loaded(t, fb, Options{})

	m = press(t, m, "enter", "e")
	require.Equal(t, modal.Detail{Todo: todo("5", "Old", true), Editing: true}, m.modals.State())
	assert.Equal(t, "Old", m.title.Value())

	m.title.SetValue("New")
	m = press(t, m, "ctrl+s")

	require.Len(t, fb.updates, 1)
	assert.Equal(t, model.ID("5"), fb.updates[0].id)
	assert.Equal(t, "New", *fb.updates[0].patch.Title)
	assert.Nil(t, fb.updates[0].patch.Completed, "editing does not touch completion")
	assert.True(t, m.modals.IsClosed())
	assert.Equal(t, 2, fb.listCount())
	assert.Equal(t, "New", cards(m)[0].todo.Title)
}

func TestEditFlow_EmptyTitleIsBlocked(t *testing.T) {
	fb := &fakeBackend{}
	fb.setTodos(todo("5", "Old", false))
	m := loaded(t, fb, Options{})

	m = press(t, m, "enter", "e")
	m.title.SetValue("   ")
	m = press(t, m, "ctrl+s")

	assert.Empty(t, fb.updates)
	assert.Equal(t, "detail+edit", m.modals.State().(modal.Detail).String())
	assert.NotEmpty(t, m.formErr)
}

func TestEdit_LeavingEditModeDiscardsChanges(t *testing.T) {
	fb := &fakeBackend{}
	fb.setTodos(todo("5", "Old", false))
	m := loaded(t, fb, Options{})

	m = press(t, m, "enter", "e")
	m.title.SetValue("half typed")
	m = press(t, m, "ctrl+e")
	assert.Equal(t, modal.Detail{Todo: todo("5", "Old", false)}, m.modals.State())

	m = press(t, m, "e")
	assert.Equal(t, "Old", m.title.Value())
}

func TestDetail_DoesNotLeakEditModeAcrossRecords(t *testing.T) {
	fb := &fakeBackend{}
	fb.setTodos(todo("1", "A", false), todo("2", "B", false))
	m := loaded(t, fb, Options{})

	m = press(t, m, "enter", "e", "esc")
	require.True(t, m.modals.IsClosed())

	m = press(t, m, "down", "enter")
	assert.Equal(t, modal.Detail{Todo: todo("2", "B", false)}, m.modals.State())
}

func TestDeleteFlow(t *testing.T) {
	fb := &fakeBackend{}
	fb.setTodos(todo("42", "Doomed", false))
	m := loaded(t, fb, Options{})

	m = press(t, m, "enter", "d")
	assert.IsType(t, modal.DeleteConfirm{}, m.modals.State())
	assert.Contains(t, m.View(), "Delete todo?")

	m = press(t, m, "y")

	assert.Equal(t, []model.ID{"42"}, fb.deletes)
	assert.True(t, m.modals.IsClosed())
	assert.Equal(t, 2, fb.listCount())
	assert.Contains(t, m.View(), emptyMessage)
}

func TestDeleteCancel_ReturnsToClosed(t *testing.T) {
	fb := &fakeBackend{}
	fb.setTodos(todo("42", "Kept", false))
	m := loaded(t, fb, Options{})

	m = press(t, m, "enter", "d", "n")

	assert.Empty(t, fb.deletes)
	assert.True(t, m.modals.IsClosed())
	assert.Equal(t, 1, fb.listCount())
}

func TestDeleteFailure_KeepsConfirmOpen(t *testing.T) {
	fb := &fakeBackend{deleteErr: errors.New("500")}
	fb.setTodos(todo("42", "Kept", false))
	m := loaded(t, fb, Options{})

	m = press(t, m, "d", "y")

	assert.IsType(t, modal.DeleteConfirm{}, m.modals.State())
	assert.Contains(t, m.notice, "delete failed")
}

func TestDetailToggle_SharesCardState(t *testing.T) {
	fb := &fakeBackend{}
	fb.setTodos(todo("9", "a", false))
	m := loaded(t, fb, Options{})

	m = press(t, m, "enter", " ")

	require.Len(t, fb.updates, 1)
	assert.True(t, *fb.updates[0].patch.Completed)
	assert.True(t, cards(m)[0].done)
	assert.IsType(t, modal.Detail{}, m.modals.State(), "toggling keeps the dialog open")
}

func TestRefresh_ClosesDialogForVanishedRecord(t *testing.T) {
	fb := &fakeBackend{}
	fb.setTodos(todo("1", "a", false))
	m := loaded(t, fb, Options{})
	m = press(t, m, "enter")

	fb.setTodos()
	cmd := m.refreshCmd()
	m = drain(t, m, cmd)

	assert.True(t, m.modals.IsClosed())
	assert.Contains(t, m.View(), emptyMessage)
}

func TestOutOfOrderRefresh(t *testing.T) {
	tests := []struct {
		name   string
		policy store.Policy
		want   string
	}{
		{"discard stale", store.DiscardStale, "new"},
		{"last response wins", store.LastResponseWins, "old"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fb := &fakeBackend{}
			fb.setTodos(todo("1", "old", false))
			m := loaded(t, fb, Options{Policy: tt.policy})

			first := m.refreshCmd()
			oldMsg := first()
			fb.setTodos(todo("1", "new", false))
			second := m.refreshCmd()
			newMsg := second()

			next, _ := m.Update(newMsg)
			next, _ = next.(appModel).Update(oldMsg)
			m = next.(appModel)

			assert.Equal(t, tt.want, cards(m)[0].todo.Title)
			assert.Equal(t, 0, m.refreshing)
		})
	}
}

func TestOutOfOrderRefresh_StaleFailureIsSilent(t *testing.T) {
	fb := &fakeBackend{}
	fb.setTodos(todo("1", "old", false))
	m := loaded(t, fb, Options{Policy: store.DiscardStale})

	fb.listErr = errors.New("boom")
	first := m.refreshCmd()
	failed := first()
	fb.listErr = nil
	fb.setTodos(todo("1", "new", false))
	second := m.refreshCmd()
	fresh := second()

	next, _ := m.Update(fresh)
	next, _ = next.(appModel).Update(failed)
	m = next.(appModel)

	assert.Equal(t, "new", cards(m)[0].todo.Title)
	assert.Empty(t, m.notice)
	assert.NoError(t, m.store.LastError())
	assert.Equal(t, 0, m.refreshing)
}

func TestRefresh_KeepsLocalCompletionValue(t *testing.T) {
	fb := &fakeBackend{updateErr: errors.New("503")}
	fb.setTodos(todo("1", "a", false))
	m := loaded(t, fb, Options{Mode: completion.FireAndForget})

	m = press(t, m, " ", "r")

	assert.True(t, m.toggles.Completed("1"), "local value survives a refresh")
}

func TestQuit(t *testing.T) {
	m := loaded(t, &fakeBackend{}, Options{})
	_, cmd := m.Update(keyMsg("q"))
	require.NotNil(t, cmd)
	assert.Equal(t, tea.QuitMsg{}, cmd())
}

func TestQuitKeyTypesIntoForm(t *testing.T) {
	fb := &fakeBackend{}
	m := loaded(t, fb, Options{})
	m = press(t, m, "a", "q")
	assert.Equal(t, "q", m.title.Value())
	assert.IsType(t, modal.Add{}, m.modals.State())
}
