// Package services composes store gateways with side effects.
package services

import (
	"context"
	"errors"
	"fmt"
	"io"

	"brewtrack/internal/amqp"
	"brewtrack/internal/core"
	"brewtrack/internal/log"
	"brewtrack/internal/store"
)

// Publisher sends tracker events to the broker.
type Publisher interface {
	Publish(ctx context.Context, ev *amqp.Event) error
}

// EventGateway saves through the wrapped gateway first and then publishes an
// event. A publish failure is logged and never fails the mutation.
type EventGateway struct {
	store     store.Gateway
	publisher Publisher
	logger    *log.Logger
}

var _ store.Gateway = (*EventGateway)(nil)

func NewEventGateway(s store.Gateway, p Publisher, logger *log.Logger) *EventGateway {
	if logger == nil {
		logger = log.Discard()
	}
	return &EventGateway{store: s, publisher: p, logger: logger.WithComponent(log.ComponentAMQP)}
}

func (g *EventGateway) ListTasks(ctx context.Context) ([]core.Task, error) {
	return g.store.ListTasks(ctx)
}

func (g *EventGateway) CreateTask(ctx context.Context, nt core.NewTask) (core.Task, error) {
	t, err := g.store.CreateTask(ctx, nt)
	if err != nil {
		return core.Task{}, err
	}
	g.publish(ctx, amqp.NewTaskEvent(amqp.TaskCreated, t))
	return t, nil
}

func (g *EventGateway) UpdateTask(ctx context.Context, t core.Task) (core.Task, error) {
	updated, err := g.store.UpdateTask(ctx, t)
	if err != nil {
		return core.Task{}, err
	}
	g.publish(ctx, amqp.NewTaskEvent(amqp.TaskUpdated, updated))
	return updated, nil
}

func (g *EventGateway) DeleteTask(ctx context.Context, id int64) error {
	if err := g.store.DeleteTask(ctx, id); err != nil {
		return err
	}
	g.publish(ctx, amqp.NewTaskDeletedEvent(id))
	return nil
}

func (g *EventGateway) ListExpenses(ctx context.Context) ([]core.Expense, error) {
	return g.store.ListExpenses(ctx)
}

func (g *EventGateway) CreateExpense(ctx context.Context, ne core.NewExpense) (core.Expense, error) {
	e, err := g.store.CreateExpense(ctx, ne)
	if err != nil {
		return core.Expense{}, err
	}
	g.publish(ctx, amqp.NewExpenseCreatedEvent(e))
	return e, nil
}

func (g *EventGateway) DeleteExpense(ctx context.Context, id int64) error {
	if err := g.store.DeleteExpense(ctx, id); err != nil {
		return err
	}
	g.publish(ctx, amqp.NewExpenseDeletedEvent(id))
	return nil
}

// Ping forwards to the wrapped store when it can report reachability.
func (g *EventGateway) Ping(ctx context.Context) error {
	if p, ok := g.store.(store.Pinger); ok {
		return p.Ping(ctx)
	}
	return nil
}

func (g *EventGateway) publish(ctx context.Context, ev *amqp.Event) {
	if g.publisher == nil {
		g.logger.WarnContext(ctx, "AMQP publisher not available, skipping event", log.FieldEventType, string(ev.Type))
		return
	}
	if err := g.publisher.Publish(ctx, ev); err != nil {
		g.logger.ErrorContext(ctx, "Failed to publish event",
			log.FieldEventID, ev.ID,
			log.FieldEventType, string(ev.Type),
			log.FieldError, err)
	}
}

// Close closes the wrapped store and the publisher when they hold resources.
func (g *EventGateway) Close() error {
	var errs []error
	if c, ok := g.store.(io.Closer); ok {
		if err := c.Close(); err != nil {
			errs = append(errs, fmt.Errorf("store: %w", err))
		}
	}
	if c, ok := g.publisher.(io.Closer); ok {
		if err := c.Close(); err != nil {
			errs = append(errs, fmt.Errorf("amqp: %w", err))
		}
	}
	return errors.Join(errs...)
}
