// Package tui is the interactive root view: a card list backed by the list
// store, one completion controller shared by cards and the detail dialog, and
// a single modal orchestrator for the add, detail, edit and delete dialogs.
package tui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"github.com/Makepad-fr/tada/internal/completion"
	"github.com/Makepad-fr/tada/internal/logging"
	"github.com/Makepad-fr/tada/internal/modal"
	"github.com/Makepad-fr/tada/internal/model"
	"github.com/Makepad-fr/tada/internal/store"
	"github.com/Makepad-fr/tada/internal/ui"
)

// Backend is the part of the API client the view calls.
type Backend interface {
	ListAll(ctx context.Context) ([]model.Todo, error)
	Create(ctx context.Context, in model.NewTodo) error
	UpdatePartial(ctx context.Context, id model.ID, p model.Patch) error
	Delete(ctx context.Context, id model.ID) error
}

type Options struct {
	Policy store.Policy
	Mode   completion.Mode
	// Timeout bounds each request; zero means none.
	Timeout time.Duration
	Logger  *log.Logger
}

// Results of background commands.
type (
	todosLoadedMsg struct {
		seq   uint64
		todos []model.Todo
		err   error
	}
	mutationDoneMsg struct {
		op  modal.Op
		err error
	}
	toggleDoneMsg struct {
		req completion.Request
		err error
	}
	refreshRequestMsg struct{}
)

type field int

const (
	fieldTitle field = iota
	fieldDescription
)

type appModel struct {
	backend Backend
	timeout time.Duration
	logger  *log.Logger

	store   *store.Store
	toggles *completion.Controller
	modals  *modal.Orchestrator

	list    list.Model
	title   textinput.Model
	desc    textarea.Model
	focus   field
	spinner spinner.Model
	help    help.Model
	keys    keyMap

	// refreshing counts list requests still in flight.
	refreshing int
	notice     string
	noticeErr  bool
	formErr    string

	width, height int
}

func newModel(b Backend, opts Options) appModel {
	logger := opts.Logger
	if logger == nil {
		logger = logging.Discard()
	}

	l := list.New(nil, cardDelegate{}, 0, 0)
	l.SetShowHelp(false)
	l.SetShowStatusBar(true)
	l.SetShowPagination(true)
	l.SetFilteringEnabled(true)
	l.SetStatusBarItemName("todo", "todos")
	l.Styles.Title = ui.Current().Title
	l.FilterInput.Prompt = "/ "
	// q and esc are handled by the view so open dialogs can use them.
	l.KeyMap.Quit.SetEnabled(false)
	l.KeyMap.ForceQuit.SetEnabled(false)

	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "Title"
	ti.CharLimit = model.MaxTitleLen

	ta := textarea.New()
	ta.Placeholder = "Description (markdown)"
	ta.ShowLineNumbers = false
	ta.SetHeight(4)

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = ui.Current().Accent

	m := appModel{
		backend: b,
		timeout: opts.Timeout,
		logger:  logger,
		store:   store.New(store.WithPolicy(opts.Policy), store.WithLogger(logger)),
		toggles: completion.New(opts.Mode),
		modals:  modal.New(),
		list:    l,
		title:   ti,
		desc:    ta,
		spinner: sp,
		help:    help.New(),
		keys:    defaultKeys(),
		width:   80,
		height:  24,
	}
	m.resize()
	m.syncList()
	return m
}

// Run starts the program and blocks until the user quits.
func Run(b Backend, opts Options) error {
	m := newModel(b, opts)
	_, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}

// Init asks for the first refresh through Update so the request is counted
// on the model that Bubble Tea keeps.
func (m appModel) Init() tea.Cmd {
	return tea.Batch(requestRefresh, m.spinner.Tick)
}

func requestRefresh() tea.Msg { return refreshRequestMsg{} }

func (m *appModel) requestContext() (context.Context, context.CancelFunc) {
	if m.timeout <= 0 {
		return context.WithCancel(context.Background())
	}
	return context.WithTimeout(context.Background(), m.timeout)
}

// refreshCmd numbers a new refresh and fetches the collection in the
// background.
func (m *appModel) refreshCmd() tea.Cmd {
	seq := m.store.Begin()
	m.refreshing++
	ctx, cancel := m.requestContext()
	b := m.backend
	return func() tea.Msg {
		defer cancel()
		todos, err := b.ListAll(ctx)
		return todosLoadedMsg{seq: seq, todos: todos, err: err}
	}
}

func (m *appModel) mutateCmd(op modal.Op) tea.Cmd {
	ctx, cancel := m.requestContext()
	b := m.backend
	return func() tea.Msg {
		defer cancel()
		var err error
		switch op.Action {
		case modal.ActionCreate:
			err = b.Create(ctx, op.New)
		case modal.ActionUpdate:
			err = b.UpdatePartial(ctx, op.ID, op.Patch)
		case modal.ActionDelete:
			err = b.Delete(ctx, op.ID)
		}
		return mutationDoneMsg{op: op, err: err}
	}
}

// toggleCmd flips the local value now and persists it in the background.
func (m *appModel) toggleCmd(id model.ID) tea.Cmd {
	req, ok := m.toggles.Toggle(id)
	if !ok {
		return nil
	}
	m.syncList()
	ctx, cancel := m.requestContext()
	b := m.backend
	return func() tea.Msg {
		defer cancel()
		return toggleDoneMsg{req: req, err: b.UpdatePartial(ctx, req.ID, req.Patch())}
	}
}
