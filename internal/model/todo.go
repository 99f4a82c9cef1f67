package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

// MaxTitleLen matches the server-side limit on titles.
const MaxTitleLen = 100

var (
	ErrTitleRequired = errors.New("title is required")
	ErrTitleTooLong  = fmt.Errorf("title is longer than %d characters", MaxTitleLen)
)

// ID is the server-assigned record identifier. It is opaque to the client:
// the reference server emits JSON numbers, other servers may emit strings.
type ID string

func (id ID) String() string { return string(id) }

func (id ID) MarshalJSON() ([]byte, error) {
	if isDigits(string(id)) {
		return []byte(id), nil
	}
	return json.Marshal(string(id))
}

func (id *ID) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("id: %w", err)
	}
	*id = ID(n.String())
	return nil
}

// ParseID parses a user-supplied id ("42").
func ParseID(s string) (ID, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.ContainsAny(s, "/?# ") {
		return "", fmt.Errorf("invalid id %q", s)
	}
	return ID(s), nil
}

func isDigits(s string) bool {
	if s == "" || (len(s) > 1 && s[0] == '0') {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// Todo is the record exchanged with the server.
type Todo struct {
	ID          ID     `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Completed   bool   `json:"completed"`
}

// NewTodo is the create body. The server assigns id and completed=false.
type NewTodo struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// Validate trims the title and checks it is usable.
func (n *NewTodo) Validate() error {
	n.Title = strings.TrimSpace(n.Title)
	return ValidateTitle(n.Title)
}

// Patch is a partial update. Nil fields are left out of the request body.
type Patch struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	Completed   *bool   `json:"completed,omitempty"`
}

func (p Patch) IsEmpty() bool {
	return p.Title == nil && p.Description == nil && p.Completed == nil
}

// Validate rejects a patch that would blank the title.
func (p Patch) Validate() error {
	if p.Title == nil {
		return nil
	}
	return ValidateTitle(strings.TrimSpace(*p.Title))
}

// Apply returns t with the patch fields applied.
func (p Patch) Apply(t Todo) Todo {
	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.Completed != nil {
		t.Completed = *p.Completed
	}
	return t
}

// CompletedPatch builds the patch the toggle controller sends.
func CompletedPatch(done bool) Patch { return Patch{Completed: &done} }

// ContentPatch builds the patch the edit dialog sends.
func ContentPatch(title, description string) Patch {
	title = strings.TrimSpace(title)
	return Patch{Title: &title, Description: &description}
}

func ValidateTitle(title string) error {
	if title == "" {
		return ErrTitleRequired
	}
	if utf8.RuneCountInString(title) > MaxTitleLen {
		return ErrTitleTooLong
	}
	return nil
}

// Stats counts done and pending records.
func Stats(todos []Todo) (done, pending int) {
	for _, t := range todos {
		if t.Completed {
			done++
		} else {
			pending++
		}
	}
	return
}
