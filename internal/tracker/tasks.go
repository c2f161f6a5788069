package tracker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"brewtrack/internal/core"
	"brewtrack/internal/log"
	"brewtrack/internal/notify"
	"brewtrack/internal/store"
)

// TaskForm is the pending add-task input.
type TaskForm struct {
	Name   string
	Owner  string
	Status core.TaskStatus
}

func defaultTaskForm() TaskForm {
	return TaskForm{Status: core.StatusPending}
}

// TaskPanel mirrors the task collection. The mutex guards state only and is
// never held across gateway calls; entries are matched by ID so a slow
// response cannot bring back a deleted task.
type TaskPanel struct {
	gw        store.TaskGateway
	notifier  notify.Notifier
	logger    *log.Logger
	events    *log.StructuredLogger
	policy    SyncPolicy
	bgTimeout time.Duration

	mu     sync.Mutex
	tasks  []core.Task
	form   TaskForm
	drafts map[int64]string

	inflight sync.WaitGroup
}

func NewTaskPanel(gw store.TaskGateway, opts Options) *TaskPanel {
	opts = opts.withDefaults()
	logger := opts.Logger.WithComponent(log.ComponentTracker)
	return &TaskPanel{
		gw:        gw,
		notifier:  opts.Notifier,
		logger:    logger,
		events:    log.NewStructuredLogger(logger),
		policy:    opts.Sync,
		bgTimeout: opts.BackgroundTimeout,
		form:      defaultTaskForm(),
		drafts:    make(map[int64]string),
	}
}

func (p *TaskPanel) Policy() SyncPolicy { return p.policy }

// Load replaces the collection with the gateway's current list.
func (p *TaskPanel) Load(ctx context.Context) error {
	tasks, err := p.gw.ListTasks(ctx)
	if err != nil {
		p.mu.Lock()
		p.tasks = nil
		p.drafts = make(map[int64]string)
		p.mu.Unlock()
		notify.Error(notify.From(ctx, p.notifier), MsgTasksFetchFailed)
		p.logger.ErrorContext(ctx, "Failed to fetch tasks", log.FieldOperation, log.OpList, log.FieldError, err)
		return fmt.Errorf("fetch tasks: %w", err)
	}

	p.mu.Lock()
	p.tasks = append([]core.Task(nil), tasks...)
	live := make(map[int64]string, len(p.drafts))
	for _, t := range tasks {
		if d, ok := p.drafts[t.ID]; ok {
			live[t.ID] = d
		}
	}
	p.drafts = live
	p.mu.Unlock()
	return nil
}

// Tasks returns a copy of the collection in insertion order.
func (p *TaskPanel) Tasks() []core.Task {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]core.Task(nil), p.tasks...)
}

func (p *TaskPanel) Task(id int64) (core.Task, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if i := p.indexOf(id); i >= 0 {
		return p.tasks[i], true
	}
	return core.Task{}, false
}

// Form returns the pending add-task input.
func (p *TaskPanel) Form() TaskForm {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.form
}

// AddTask records f as the pending form and creates the task when name and
// owner are present. The form resets only after the gateway succeeds.
func (p *TaskPanel) AddTask(ctx context.Context, f TaskForm) (core.Task, error) {
	p.mu.Lock()
	p.form = f
	p.mu.Unlock()

	if f.Name == "" || f.Owner == "" {
		return core.Task{}, ErrIncomplete
	}
	status := f.Status
	if status == "" {
		status = core.StatusPending
	}
	if !status.Valid() {
		return core.Task{}, core.ErrInvalidStatus
	}

	n := notify.From(ctx, p.notifier)
	created, err := p.gw.CreateTask(ctx, core.NewTask{Name: f.Name, Owner: f.Owner, Status: status})
	if err != nil {
		notify.Error(n, MsgTaskAddFailed)
		p.logger.ErrorContext(ctx, "Failed to add task", log.FieldOperation, log.OpCreate, log.FieldError, err)
		return core.Task{}, fmt.Errorf("add task: %w", err)
	}

	p.mu.Lock()
	p.tasks = append(p.tasks, created)
	p.form = defaultTaskForm()
	p.mu.Unlock()

	notify.Success(n, MsgTaskAdded)
	p.events.LogTaskChanged(ctx, log.OpCreate, created.ID, created.Name, created.Owner, created.Status.String())
	return created, nil
}

// UpdateStatus changes the status of task id according to the panel's
// sync policy.
func (p *TaskPanel) UpdateStatus(ctx context.Context, id int64, status core.TaskStatus) (core.Task, error) {
	if !status.Valid() {
		return core.Task{}, core.ErrInvalidStatus
	}

	p.mu.Lock()
	i := p.indexOf(id)
	if i < 0 {
		p.mu.Unlock()
		return core.Task{}, fmt.Errorf("task %d: %w", id, ErrNotFound)
	}
	updated := p.tasks[i]
	updated.Status = status
	if p.policy == SyncOptimistic {
		p.tasks[i].Status = status
	}
	p.mu.Unlock()

	if p.policy == SyncOptimistic {
		p.sendInBackground(ctx, updated)
		return updated, nil
	}

	if _, err := p.gw.UpdateTask(ctx, updated); err != nil {
		notify.Error(notify.From(ctx, p.notifier), MsgStatusFailed)
		p.logger.ErrorContext(ctx, "Failed to update task status",
			log.FieldTaskID, id, log.FieldTaskStatus, status.String(), log.FieldError, err)
		return core.Task{}, fmt.Errorf("update status of task %d: %w", id, err)
	}

	p.mu.Lock()
	if i := p.indexOf(id); i >= 0 {
		p.tasks[i].Status = status
		updated = p.tasks[i]
	}
	p.mu.Unlock()
	p.events.LogTaskChanged(ctx, log.OpUpdate, updated.ID, updated.Name, updated.Owner, updated.Status.String())
	return updated, nil
}

// sendInBackground pushes t to the gateway without blocking the caller. The
// outcome is only logged.
func (p *TaskPanel) sendInBackground(ctx context.Context, t core.Task) {
	bg := context.WithoutCancel(ctx)
	p.inflight.Add(1)
	go func() {
		defer p.inflight.Done()
		ctx, cancel := context.WithTimeout(bg, p.bgTimeout)
		defer cancel()
		if _, err := p.gw.UpdateTask(ctx, t); err != nil {
			p.logger.WarnContext(ctx, "Background status update failed",
				log.FieldTaskID, t.ID, log.FieldTaskStatus, t.Status.String(), log.FieldError, err)
			return
		}
		p.events.LogTaskChanged(ctx, log.OpUpdate, t.ID, t.Name, t.Owner, t.Status.String())
	}()
}

// Wait blocks until background status updates have finished.
func (p *TaskPanel) Wait() {
	p.inflight.Wait()
}

// SetDraft stores the pending update text for task id. Empty text clears it.
func (p *TaskPanel) SetDraft(id int64, text string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.indexOf(id) < 0 {
		return fmt.Errorf("task %d: %w", id, ErrNotFound)
	}
	if text == "" {
		delete(p.drafts, id)
		return nil
	}
	p.drafts[id] = text
	return nil
}

func (p *TaskPanel) Draft(id int64) string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.drafts[id]
}

// ApplyUpdate sets the comments of task id to text once the gateway has
// accepted the full task. Empty text is a no-op.
func (p *TaskPanel) ApplyUpdate(ctx context.Context, id int64, text string) (core.Task, error) {
	if text == "" {
		return core.Task{}, ErrIncomplete
	}

	p.mu.Lock()
	i := p.indexOf(id)
	if i < 0 {
		p.mu.Unlock()
		return core.Task{}, fmt.Errorf("task %d: %w", id, ErrNotFound)
	}
	updated := p.tasks[i]
	p.mu.Unlock()
	updated.Comments = text

	n := notify.From(ctx, p.notifier)
	if _, err := p.gw.UpdateTask(ctx, updated); err != nil {
		notify.Error(n, MsgTaskUpdateFailed)
		p.logger.ErrorContext(ctx, "Failed to update task", log.FieldTaskID, id, log.FieldError, err)
		return core.Task{}, fmt.Errorf("update task %d: %w", id, err)
	}

	p.mu.Lock()
	if i := p.indexOf(id); i >= 0 {
		p.tasks[i].Comments = text
		updated = p.tasks[i]
	}
	delete(p.drafts, id)
	p.mu.Unlock()

	notify.Success(n, MsgTaskUpdated)
	p.events.LogTaskChanged(ctx, log.OpUpdate, updated.ID, updated.Name, updated.Owner, updated.Status.String())
	return updated, nil
}

// DeleteTask removes task id once the gateway confirms.
func (p *TaskPanel) DeleteTask(ctx context.Context, id int64) error {
	p.mu.Lock()
	known := p.indexOf(id) >= 0
	p.mu.Unlock()
	if !known {
		return fmt.Errorf("task %d: %w", id, ErrNotFound)
	}

	n := notify.From(ctx, p.notifier)
	if err := p.gw.DeleteTask(ctx, id); err != nil {
		notify.Error(n, MsgTaskDeleteFailed)
		p.logger.ErrorContext(ctx, "Failed to delete task", log.FieldTaskID, id, log.FieldError, err)
		return fmt.Errorf("delete task %d: %w", id, err)
	}

	p.mu.Lock()
	if i := p.indexOf(id); i >= 0 {
		p.tasks = append(p.tasks[:i:i], p.tasks[i+1:]...)
	}
	delete(p.drafts, id)
	p.mu.Unlock()

	notify.Success(n, MsgTaskDeleted)
	p.events.LogTaskChanged(ctx, log.OpDelete, id, "", "", "")
	return nil
}

// indexOf must be called with p.mu held.
func (p *TaskPanel) indexOf(id int64) int {
	for i := range p.tasks {
		if p.tasks[i].ID == id {
			return i
		}
	}
	return -1
}
