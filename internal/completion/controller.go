// Package completion tracks the optimistic "completed" flag of each card.
//
// A toggle flips the local value immediately and yields a Request to persist
// in the background. The outcome comes back through Resolve. Only the newest
// request of a record may revert its value; older outcomes are stale.
//
// The Controller is not safe for concurrent use. Drive it from the event loop.
package completion

import "github.com/Makepad-fr/tada/internal/model"

type Status int

const (
	// StatusSeeded means the value came from the server and was never toggled.
	StatusSeeded Status = iota
	StatusPending
	StatusConfirmed
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusConfirmed:
		return "confirmed"
	case StatusFailed:
		return "failed"
	default:
		return "seeded"
	}
}

// Mode selects what a failed persist does.
type Mode int

const (
	// Rollback reverts the local value and asks for a notice.
	Rollback Mode = iota
	// FireAndForget keeps the local value and stays silent.
	FireAndForget
)

// State is the per-record view of the controller.
type State struct {
	Completed bool
	Status    Status
}

// Request is one background persist to issue.
type Request struct {
	ID        model.ID
	Completed bool
	Gen       uint64
}

// Patch is the partial update body for the request.
func (r Request) Patch() model.Patch { return model.CompletedPatch(r.Completed) }

// Outcome tells the caller how to react to a resolved request.
type Outcome struct {
	Stale    bool
	Failed   bool
	Reverted bool
	Notify   bool
}

type entry struct {
	completed bool
	status    Status
	gen       uint64
}

type Controller struct {
	mode    Mode
	entries map[model.ID]*entry
}

func New(mode Mode) *Controller {
	return &Controller{mode: mode, entries: map[model.ID]*entry{}}
}

// Mount seeds a local value for records seen for the first time and drops
// records that are gone. Records already mounted keep their local value.
func (c *Controller) Mount(todos []model.Todo) {
	live := make(map[model.ID]struct{}, len(todos))
	for _, t := range todos {
		live[t.ID] = struct{}{}
		if _, ok := c.entries[t.ID]; !ok {
			c.entries[t.ID] = &entry{completed: t.Completed}
		}
	}
	for id := range c.entries {
		if _, ok := live[id]; !ok {
			delete(c.entries, id)
		}
	}
}

// Completed returns the local value, or false for an unmounted id.
func (c *Controller) Completed(id model.ID) bool {
	if e, ok := c.entries[id]; ok {
		return e.completed
	}
	return false
}

func (c *Controller) State(id model.ID) (State, bool) {
	e, ok := c.entries[id]
	if !ok {
		return State{}, false
	}
	return State{Completed: e.completed, Status: e.status}, true
}

// Toggle flips the local value and returns the request that persists it.
func (c *Controller) Toggle(id model.ID) (Request, bool) {
	e, ok := c.entries[id]
	if !ok {
		return Request{}, false
	}
	e.completed = !e.completed
	e.status = StatusPending
	e.gen++
	return Request{ID: id, Completed: e.completed, Gen: e.gen}, true
}

// Resolve applies the result of a persist request.
func (c *Controller) Resolve(req Request, err error) Outcome {
	e, ok := c.entries[req.ID]
	if !ok || req.Gen != e.gen {
		// A newer toggle that already persisted supersedes this failure.
		superseded := ok && e.status == StatusConfirmed
		return Outcome{Stale: true, Failed: err != nil, Notify: err != nil && c.mode == Rollback && !superseded}
	}
	if err == nil {
		e.status = StatusConfirmed
		return Outcome{}
	}
	e.status = StatusFailed
	if c.mode == FireAndForget {
		return Outcome{Failed: true}
	}
	e.completed = !req.Completed
	return Outcome{Failed: true, Reverted: true, Notify: true}
}
