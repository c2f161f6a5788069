package amqp

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"

	"brewtrack/internal/core"
)

// EventType names a tracker mutation.
type EventType string

const (
	TaskCreated    EventType = "task.created"
	TaskUpdated    EventType = "task.updated"
	TaskDeleted    EventType = "task.deleted"
	ExpenseCreated EventType = "expense.created"
	ExpenseDeleted EventType = "expense.deleted"
)

var ErrMalformedEvent = errors.New("malformed event")

func (t EventType) Valid() bool {
	switch t {
	case TaskCreated, TaskUpdated, TaskDeleted, ExpenseCreated, ExpenseDeleted:
		return true
	}
	return false
}

// TaskSnapshot mirrors the backend's task JSON.
type TaskSnapshot struct {
	ID       int64  `json:"id"`
	TaskName string `json:"taskName"`
	Owner    string `json:"owner"`
	Status   string `json:"status"`
	Comments string `json:"comments"`
}

// ExpenseSnapshot mirrors the backend's expense JSON. A nil Amount stands
// for a non-numeric entry.
type ExpenseSnapshot struct {
	ID           int64    `json:"id"`
	ExpenseTitle string   `json:"expenseTitle"`
	Amount       *float64 `json:"amount"`
	Category     string   `json:"category"`
}

// AmountText renders the amount with two decimals, or NaN.
func (s ExpenseSnapshot) AmountText() string {
	if s.Amount == nil {
		return "NaN"
	}
	return strconv.FormatFloat(*s.Amount, 'f', 2, 64)
}

// Event is one published mutation. Deletions carry no snapshot.
type Event struct {
	ID        string           `json:"id"`
	Type      EventType        `json:"type"`
	EntityID  int64            `json:"entityId"`
	Timestamp time.Time        `json:"timestamp"`
	Task      *TaskSnapshot    `json:"task,omitempty"`
	Expense   *ExpenseSnapshot `json:"expense,omitempty"`
}

func newEvent(t EventType, entityID int64) *Event {
	return &Event{
		ID:        uuid.NewString(),
		Type:      t,
		EntityID:  entityID,
		Timestamp: time.Now().UTC(),
	}
}

// NewTaskEvent builds a created or updated event carrying the task.
func NewTaskEvent(t EventType, task core.Task) *Event {
	ev := newEvent(t, task.ID)
	ev.Task = &TaskSnapshot{
		ID:       task.ID,
		TaskName: task.Name,
		Owner:    task.Owner,
		Status:   task.Status.String(),
		Comments: task.Comments,
	}
	return ev
}

func NewTaskDeletedEvent(id int64) *Event {
	return newEvent(TaskDeleted, id)
}

func NewExpenseCreatedEvent(e core.Expense) *Event {
	ev := newEvent(ExpenseCreated, e.ID)
	snap := &ExpenseSnapshot{ID: e.ID, ExpenseTitle: e.Title, Category: e.Category}
	if !e.Amount.NaN() {
		f := e.Amount.Float64()
		snap.Amount = &f
	}
	ev.Expense = snap
	return ev
}

func NewExpenseDeletedEvent(id int64) *Event {
	return newEvent(ExpenseDeleted, id)
}

func (e *Event) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// EventFromJSON decodes and sanity checks an event body.
func EventFromJSON(data []byte) (*Event, error) {
	var ev Event
	if err := json.Unmarshal(data, &ev); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}
	if ev.ID == "" {
		return nil, fmt.Errorf("%w: missing id", ErrMalformedEvent)
	}
	if !ev.Type.Valid() {
		return nil, fmt.Errorf("%w: unknown type %q", ErrMalformedEvent, ev.Type)
	}
	return &ev, nil
}
