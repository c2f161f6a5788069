package core

import (
	"errors"
	"fmt"
	"strings"
)

const (
	StatusPending    TaskStatus = "PENDING"
	StatusInProgress TaskStatus = "PROGRESS"
	StatusCompleted  TaskStatus = "COMPLETED"
)

type (
	// TaskStatus is the three-valued lifecycle of a task. The string value is
	// the token exchanged with the REST backend.
	TaskStatus string

	Task struct {
		ID       int64
		Name     string
		Owner    string // free text
		Status   TaskStatus
		Comments string // latest progress update
	}

	Expense struct {
		ID       int64
		Title    string
		Amount   Amount
		Category string
	}

	// NewTask holds the fields a client supplies when creating a task.
	NewTask struct {
		Name   string
		Owner  string
		Status TaskStatus
	}

	// NewExpense holds the fields a client supplies when creating an expense.
	NewExpense struct {
		Title    string
		Amount   Amount
		Category string
	}
)

var (
	ErrInvalidStatus = errors.New("invalid task status")
	ErrEmptyName     = errors.New("empty task name")
	ErrEmptyOwner    = errors.New("empty task owner")
	ErrEmptyTitle    = errors.New("empty expense title")
	ErrEmptyCategory = errors.New("empty expense category")
)

// Statuses lists every valid status in display order.
func Statuses() []TaskStatus {
	return []TaskStatus{StatusPending, StatusInProgress, StatusCompleted}
}

func (s TaskStatus) Valid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted:
		return true
	default:
		return false
	}
}

// Label returns the human readable form of the status.
func (s TaskStatus) Label() string {
	switch s {
	case StatusPending:
		return "Pending"
	case StatusInProgress:
		return "In Progress"
	case StatusCompleted:
		return "Completed"
	default:
		return string(s)
	}
}

func (s TaskStatus) String() string {
	return string(s)
}

// Next cycles Pending -> In Progress -> Completed -> Pending.
func (s TaskStatus) Next() TaskStatus {
	switch s {
	case StatusPending:
		return StatusInProgress
	case StatusInProgress:
		return StatusCompleted
	default:
		return StatusPending
	}
}

// ParseTaskStatus accepts wire tokens and display labels, case-insensitively.
func ParseTaskStatus(s string) (TaskStatus, error) {
	norm := strings.ToUpper(strings.TrimSpace(s))
	norm = strings.NewReplacer("_", " ", "-", " ").Replace(norm)
	switch norm {
	case "PENDING", "NOT STARTED":
		return StatusPending, nil
	case "PROGRESS", "IN PROGRESS":
		return StatusInProgress, nil
	case "COMPLETED", "DONE":
		return StatusCompleted, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidStatus, s)
}

func (t NewTask) Validate() error {
	if t.Name == "" {
		return ErrEmptyName
	}
	if t.Owner == "" {
		return ErrEmptyOwner
	}
	if !t.Status.Valid() {
		return ErrInvalidStatus
	}
	return nil
}

// Validate checks presence only. The amount is deliberately unchecked:
// malformed input is carried as NaN.
func (e NewExpense) Validate() error {
	if e.Title == "" {
		return ErrEmptyTitle
	}
	if e.Category == "" {
		return ErrEmptyCategory
	}
	return nil
}
