// Package notify carries the transient success and failure messages shown to
// the user after an action.
package notify

import (
	"context"
	"sync"
)

type Level string

const (
	LevelSuccess Level = "success"
	LevelError   Level = "error"
)

// Notification is one toast. The JSON shape matches the show-notification
// event consumed by the web front-end.
type Notification struct {
	Level   Level  `json:"type"`
	Message string `json:"message"`
}

type Notifier interface {
	Notify(n Notification)
}

// Func adapts a plain function to Notifier.
type Func func(Notification)

func (f Func) Notify(n Notification) { f(n) }

// Discard drops every notification.
var Discard Notifier = Func(func(Notification) {})

func Success(n Notifier, msg string) {
	n.Notify(Notification{Level: LevelSuccess, Message: msg})
}

func Error(n Notifier, msg string) {
	n.Notify(Notification{Level: LevelError, Message: msg})
}

// Queue buffers notifications until a front-end drains them.
type Queue struct {
	mu    sync.Mutex
	items []Notification
}

func NewQueue() *Queue { return &Queue{} }

func (q *Queue) Notify(n Notification) {
	q.mu.Lock()
	q.items = append(q.items, n)
	q.mu.Unlock()
}

// Drain returns the buffered notifications in arrival order and empties the queue.
func (q *Queue) Drain() []Notification {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := q.items
	q.items = nil
	return out
}

func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

type ctxKey struct{}

// WithNotifier routes notifications raised while serving ctx to n instead of
// the component's default notifier.
func WithNotifier(ctx context.Context, n Notifier) context.Context {
	return context.WithValue(ctx, ctxKey{}, n)
}

// From returns the notifier attached to ctx, or fallback.
func From(ctx context.Context, fallback Notifier) Notifier {
	if ctx != nil {
		if n, ok := ctx.Value(ctxKey{}).(Notifier); ok && n != nil {
			return n
		}
	}
	if fallback == nil {
		return Discard
	}
	return fallback
}
