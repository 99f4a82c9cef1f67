// Package modal decides which dialog is visible and what a dialog submission
// does. States are a closed set of variants, so impossible combinations such
// as "add and delete-confirm both open" cannot be represented.
//
//	Closed -> Add -> Closed
//	Closed -> Detail{editing:false} <-> Detail{editing:true} -> Closed
//	Detail{editing:false} -> DeleteConfirm -> Closed
//
// Every successful mutation closes the dialog and asks for exactly one
// refresh. A failed mutation leaves the dialog open with a notice.
package modal

import (
	"errors"
	"fmt"

	"github.com/Makepad-fr/tada/internal/model"
)

// ErrBusy is returned when a submission is made while another is in flight.
var ErrBusy = errors.New("a request is already in flight")

// ErrWrongState is returned when a submission does not match the open dialog.
var ErrWrongState = errors.New("no matching dialog is open")

// State is one of Closed, Add, Detail or DeleteConfirm.
type State interface {
	isState()
	String() string
}

type Closed struct{}

type Add struct{}

// Detail shows one record; Editing switches it to the in-place form.
type Detail struct {
	Todo    model.Todo
	Editing bool
}

// DeleteConfirm overlays the detail view of Todo. It always leads back to Closed.
type DeleteConfirm struct {
	Todo model.Todo
}

func (Closed) isState()        {}
func (Add) isState()           {}
func (Detail) isState()        {}
func (DeleteConfirm) isState() {}

func (Closed) String() string { return "closed" }
func (Add) String() string    { return "add" }
func (d Detail) String() string {
	if d.Editing {
		return "detail+edit"
	}
	return "detail"
}
func (DeleteConfirm) String() string { return "detail+delete-confirm" }

type Action int

const (
	ActionCreate Action = iota + 1
	ActionUpdate
	ActionDelete
)

// String is the verb used in notices.
func (a Action) String() string {
	switch a {
	case ActionCreate:
		return "add"
	case ActionUpdate:
		return "edit"
	case ActionDelete:
		return "delete"
	default:
		return "unknown"
	}
}

// Op is a mutation the caller must send to the server.
type Op struct {
	Action Action
	ID     model.ID
	New    model.NewTodo
	Patch  model.Patch
}

// Completion tells the caller what to do after an Op settled.
type Completion struct {
	Refresh bool
	Notice  string
}

// FailureNotice is the user-facing text for a failed action.
func FailureNotice(verb string, err error) string {
	if err == nil {
		return verb + " failed"
	}
	return fmt.Sprintf("%s failed: %v", verb, err)
}

type Orchestrator struct {
	state    State
	inflight *Op
}

func New() *Orchestrator { return &Orchestrator{state: Closed{}} }

func (o *Orchestrator) State() State { return o.state }

// Busy reports whether a submission is waiting for the server.
func (o *Orchestrator) Busy() bool { return o.inflight != nil }

func (o *Orchestrator) IsClosed() bool {
	_, ok := o.state.(Closed)
	return ok
}

// OpenAdd moves Closed -> Add.
func (o *Orchestrator) OpenAdd() bool {
	if !o.IsClosed() || o.Busy() {
		return false
	}
	o.state = Add{}
	return true
}

// OpenDetail moves Closed -> Detail for t, always in view mode.
func (o *Orchestrator) OpenDetail(t model.Todo) bool {
	if !o.IsClosed() || o.Busy() {
		return false
	}
	o.state = Detail{Todo: t}
	return true
}

// ToggleEdit flips Detail between view and edit mode.
func (o *Orchestrator) ToggleEdit() bool {
	d, ok := o.state.(Detail)
	if !ok || o.Busy() {
		return false
	}
	d.Editing = !d.Editing
	o.state = d
	return true
}

// RequestDelete moves Detail (view mode) -> DeleteConfirm.
func (o *Orchestrator) RequestDelete() bool {
	d, ok := o.state.(Detail)
	if !ok || d.Editing || o.Busy() {
		return false
	}
	o.state = DeleteConfirm{Todo: d.Todo}
	return true
}

// Close dismisses whatever is open. Cancelling a delete confirmation lands
// on Closed, not back on Detail.
func (o *Orchestrator) Close() bool {
	if o.Busy() || o.IsClosed() {
		return false
	}
	o.state = Closed{}
	return true
}

// SubmitAdd validates the form and returns the create Op.
func (o *Orchestrator) SubmitAdd(in model.NewTodo) (Op, error) {
	if _, ok := o.state.(Add); !ok {
		return Op{}, ErrWrongState
	}
	if o.Busy() {
		return Op{}, ErrBusy
	}
	if err := in.Validate(); err != nil {
		return Op{}, err
	}
	return o.begin(Op{Action: ActionCreate, New: in}), nil
}

// SubmitEdit validates the in-place form and returns the update Op. An
// invalid title leaves the dialog as it was.
func (o *Orchestrator) SubmitEdit(title, description string) (Op, error) {
	d, ok := o.state.(Detail)
	if !ok || !d.Editing {
		return Op{}, ErrWrongState
	}
	if o.Busy() {
		return Op{}, ErrBusy
	}
	p := model.ContentPatch(title, description)
	if err := p.Validate(); err != nil {
		return Op{}, err
	}
	return o.begin(Op{Action: ActionUpdate, ID: d.Todo.ID, Patch: p}), nil
}

// ConfirmDelete returns the delete Op for the record under confirmation.
func (o *Orchestrator) ConfirmDelete() (Op, error) {
	d, ok := o.state.(DeleteConfirm)
	if !ok {
		return Op{}, ErrWrongState
	}
	if o.Busy() {
		return Op{}, ErrBusy
	}
	return o.begin(Op{Action: ActionDelete, ID: d.Todo.ID}), nil
}

func (o *Orchestrator) begin(op Op) Op {
	o.inflight = &op
	return op
}

// Complete records the server's answer to op.
func (o *Orchestrator) Complete(op Op, err error) Completion {
	if o.inflight == nil || o.inflight.Action != op.Action || o.inflight.ID != op.ID {
		return Completion{}
	}
	o.inflight = nil
	if err != nil {
		return Completion{Notice: FailureNotice(op.Action.String(), err)}
	}
	o.state = Closed{}
	return Completion{Refresh: true}
}

// Rebind points an open dialog at the latest snapshot of its record. A
// dialog whose record disappeared is closed. Editing forms are left alone.
func (o *Orchestrator) Rebind(find func(model.ID) (model.Todo, bool)) (closed bool) {
	if o.Busy() {
		return false
	}
	switch s := o.state.(type) {
	case Detail:
		t, ok := find(s.Todo.ID)
		if !ok {
			o.state = Closed{}
			return true
		}
		if !s.Editing {
			s.Todo = t
			o.state = s
		}
	case DeleteConfirm:
		t, ok := find(s.Todo.ID)
		if !ok {
			o.state = Closed{}
			return true
		}
		s.Todo = t
		o.state = s
	}
	return false
}
