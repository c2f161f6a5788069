// Package tui is the terminal front-end over the tracker panels.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"brewtrack/internal/core"
	"brewtrack/internal/notify"
	"brewtrack/internal/tracker"
)

type panel int

const (
	tasksPanel panel = iota
	expensesPanel
)

type mode int

const (
	browsing mode = iota
	adding
	updating
)

const incompleteHint = "Please fill in all fields"

// doneMsg reports that a tracker call finished. Notifications it raised are
// waiting in the queue.
type doneMsg struct{ err error }

// Model is the bubbletea model. The tracker owns all state shown in the
// panels; the model keeps only cursor, mode and input widgets.
type Model struct {
	ctx   context.Context
	tr    *tracker.Tracker
	queue *notify.Queue
	keys  keyMap
	help  help.Model

	panel  panel
	cursor [2]int
	mode   mode

	form     form
	update   textinput.Model
	updateID int64
	hint     string

	status []notify.Notification
	busy   int
}

// New builds a model over tr. queue must be the tracker's notifier so that
// toasts land on the status line.
func New(ctx context.Context, tr *tracker.Tracker, queue *notify.Queue) Model {
	return Model{
		ctx:    ctx,
		tr:     tr,
		queue:  queue,
		keys:   defaultKeys(),
		help:   help.New(),
		update: newInput("Provide update...", ""),
	}
}

// Run starts the program on the alternate screen and blocks until quit.
func Run(ctx context.Context, tr *tracker.Tracker, queue *notify.Queue) error {
	p := tea.NewProgram(New(ctx, tr, queue), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}

func (m Model) Init() tea.Cmd {
	return m.reload()
}

// call runs fn off the event loop.
func (m *Model) call(fn func(ctx context.Context) error) tea.Cmd {
	m.busy++
	ctx := m.ctx
	return func() tea.Msg { return doneMsg{err: fn(ctx)} }
}

func (m *Model) reload() tea.Cmd {
	return m.call(m.tr.Load)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.help.Width = msg.Width
		return m, nil
	case doneMsg:
		if m.busy > 0 {
			m.busy--
		}
		if errors.Is(msg.err, tracker.ErrIncomplete) {
			m.hint = incompleteHint
		}
		m.drain()
		m.clamp()
		return m, nil
	case tea.KeyMsg:
		switch m.mode {
		case adding:
			return m.updateForm(msg)
		case updating:
			return m.updateComment(msg)
		}
		return m.updateBrowse(msg)
	}
	return m, nil
}

func (m *Model) drain() {
	if ns := m.queue.Drain(); len(ns) > 0 {
		m.status = ns
	}
}

func (m *Model) clamp() {
	sizes := [2]int{len(m.tr.Tasks.Tasks()), len(m.tr.Expenses.Expenses())}
	for i, n := range sizes {
		if m.cursor[i] >= n {
			m.cursor[i] = n - 1
		}
		if m.cursor[i] < 0 {
			m.cursor[i] = 0
		}
	}
}

func (m Model) size() int {
	if m.panel == tasksPanel {
		return len(m.tr.Tasks.Tasks())
	}
	return len(m.tr.Expenses.Expenses())
}

func (m Model) selectedTask() (core.Task, bool) {
	tasks := m.tr.Tasks.Tasks()
	i := m.cursor[tasksPanel]
	if i < 0 || i >= len(tasks) {
		return core.Task{}, false
	}
	return tasks[i], true
}

func (m Model) selectedExpense() (core.Expense, bool) {
	expenses := m.tr.Expenses.Expenses()
	i := m.cursor[expensesPanel]
	if i < 0 || i >= len(expenses) {
		return core.Expense{}, false
	}
	return expenses[i], true
}

func (m Model) updateBrowse(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.hint = ""
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Switch):
		m.panel = 1 - m.panel
	case key.Matches(msg, m.keys.Up):
		if m.cursor[m.panel] > 0 {
			m.cursor[m.panel]--
		}
	case key.Matches(msg, m.keys.Down):
		if m.cursor[m.panel] < m.size()-1 {
			m.cursor[m.panel]++
		}
	case key.Matches(msg, m.keys.Reload):
		return m, m.reload()
	case key.Matches(msg, m.keys.Add):
		if m.panel == tasksPanel {
			m.form = newTaskForm(m.tr.Tasks.Form())
		} else {
			m.form = newExpenseForm(m.tr.Expenses.Form())
		}
		m.mode = adding
		return m, textinput.Blink
	case key.Matches(msg, m.keys.Status):
		return m.cycleStatus()
	case key.Matches(msg, m.keys.Update):
		t, ok := m.selectedTask()
		if m.panel != tasksPanel || !ok {
			return m, nil
		}
		m.updateID = t.ID
		m.update.SetValue(m.tr.Tasks.Draft(t.ID))
		m.update.CursorEnd()
		m.update.Focus()
		m.mode = updating
		return m, textinput.Blink
	case key.Matches(msg, m.keys.Delete):
		return m.deleteSelected()
	}
	return m, nil
}

func (m Model) cycleStatus() (tea.Model, tea.Cmd) {
	t, ok := m.selectedTask()
	if m.panel != tasksPanel || !ok {
		return m, nil
	}
	next := t.Status.Next()
	tasks := m.tr.Tasks
	if tasks.Policy() == tracker.SyncOptimistic {
		// The local change is immediate; wait for the send off the loop so
		// a failure toast reaches the status line.
		_, err := tasks.UpdateStatus(m.ctx, t.ID, next)
		return m, m.call(func(context.Context) error {
			tasks.Wait()
			return err
		})
	}
	return m, m.call(func(ctx context.Context) error {
		_, err := tasks.UpdateStatus(ctx, t.ID, next)
		return err
	})
}

func (m Model) deleteSelected() (tea.Model, tea.Cmd) {
	if m.panel == tasksPanel {
		t, ok := m.selectedTask()
		if !ok {
			return m, nil
		}
		return m, m.call(func(ctx context.Context) error {
			return m.tr.Tasks.DeleteTask(ctx, t.ID)
		})
	}
	e, ok := m.selectedExpense()
	if !ok {
		return m, nil
	}
	return m, m.call(func(ctx context.Context) error {
		return m.tr.Expenses.DeleteExpense(ctx, e.ID)
	})
}

func (m Model) updateForm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.mode = browsing
		m.hint = ""
		return m, nil
	case tea.KeyTab, tea.KeyDown:
		m.form.move(1)
		return m, nil
	case tea.KeyShiftTab, tea.KeyUp:
		m.form.move(-1)
		return m, nil
	case tea.KeyEnter:
		if !m.form.last() {
			m.form.move(1)
			return m, nil
		}
		return m.submitForm()
	}
	var cmd tea.Cmd
	m.form, cmd = m.form.update(msg)
	return m, cmd
}

func (m Model) submitForm() (tea.Model, tea.Cmd) {
	for i := 0; i < 2; i++ {
		if m.form.value(i) == "" {
			m.hint = incompleteHint
			return m, nil
		}
	}

	if m.panel == tasksPanel {
		f := tracker.TaskForm{Name: m.form.value(0), Owner: m.form.value(1), Status: m.form.fallback}
		if raw := strings.TrimSpace(m.form.value(2)); raw != "" {
			st, err := core.ParseTaskStatus(raw)
			if err != nil {
				m.hint = fmt.Sprintf("Unknown status %q", raw)
				return m, nil
			}
			f.Status = st
		}
		m.mode = browsing
		m.hint = ""
		return m, m.call(func(ctx context.Context) error {
			_, err := m.tr.Tasks.AddTask(ctx, f)
			return err
		})
	}

	if m.form.value(2) == "" {
		m.hint = incompleteHint
		return m, nil
	}
	f := tracker.ExpenseForm{Title: m.form.value(0), Amount: m.form.value(1), Category: m.form.value(2)}
	m.mode = browsing
	m.hint = ""
	return m, m.call(func(ctx context.Context) error {
		_, err := m.tr.Expenses.AddExpense(ctx, f)
		return err
	})
}

func (m Model) updateComment(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.update.Blur()
		m.mode = browsing
		return m, nil
	case tea.KeyEnter:
		id, text := m.updateID, m.update.Value()
		m.update.Blur()
		m.mode = browsing
		return m, m.call(func(ctx context.Context) error {
			_, err := m.tr.Tasks.ApplyUpdate(ctx, id, text)
			return err
		})
	}
	var cmd tea.Cmd
	m.update, cmd = m.update.Update(msg)
	_ = m.tr.Tasks.SetDraft(m.updateID, m.update.Value())
	return m, cmd
}

func (m Model) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Microbrewery Task & Expense Tracker"))
	b.WriteString("\n\n")

	tabs := []string{"Task Tracker", "Expense Tracker"}
	for i, t := range tabs {
		if panel(i) == m.panel {
			tabs[i] = activeTab.Render(t)
		} else {
			tabs[i] = inactiveTab.Render(t)
		}
	}
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, tabs...))
	b.WriteString("\n")

	var body string
	if m.panel == tasksPanel {
		body = m.tasksView()
	} else {
		body = m.expensesView()
	}
	b.WriteString(boxStyle.Render(body))
	b.WriteString("\n")

	switch m.mode {
	case adding:
		b.WriteString(boxStyle.Render(m.form.view()))
		b.WriteString("\n")
	case updating:
		b.WriteString(boxStyle.Render(titleStyle.Render("Update") + "\n" + m.update.View()))
		b.WriteString("\n")
	}

	b.WriteString(m.statusLine())
	b.WriteString("\n")
	b.WriteString(m.help.View(m.keys))
	return b.String()
}

func (m Model) tasksView() string {
	tasks := m.tr.Tasks.Tasks()
	if len(tasks) == 0 {
		return mutedStyle.Render("No tasks yet")
	}
	lines := make([]string, 0, len(tasks))
	for i, t := range tasks {
		prefix := "  "
		name := t.Name
		if i == m.cursor[tasksPanel] {
			prefix = selectedStyle.Render("> ")
			name = selectedStyle.Render(name)
		}
		line := fmt.Sprintf("%s%d. %s  %s  %s", prefix, i+1, name,
			mutedStyle.Render(t.Owner), statusStyle(t.Status).Render(t.Status.Label()))
		if t.Comments != "" {
			line += mutedStyle.Render("  · " + t.Comments)
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

func (m Model) expensesView() string {
	expenses := m.tr.Expenses.Expenses()
	lines := make([]string, 0, len(expenses)+2)
	if len(expenses) == 0 {
		lines = append(lines, mutedStyle.Render("No expenses yet"))
	}
	for i, e := range expenses {
		prefix := "  "
		title := e.Title
		if i == m.cursor[expensesPanel] {
			prefix = selectedStyle.Render("> ")
			title = selectedStyle.Render(title)
		}
		lines = append(lines, fmt.Sprintf("%s%d. %s  %s  ₹%s", prefix, i+1, title,
			mutedStyle.Render(e.Category), e.Amount))
	}
	lines = append(lines, "", totalStyle.Render("Total Expenses: ₹"+m.tr.Expenses.Total().String()))
	return strings.Join(lines, "\n")
}

func (m Model) statusLine() string {
	if m.hint != "" {
		return errorStyle.Render(m.hint)
	}
	parts := make([]string, 0, len(m.status))
	for _, n := range m.status {
		if n.Level == notify.LevelError {
			parts = append(parts, errorStyle.Render("✖ "+n.Message))
		} else {
			parts = append(parts, successStyle.Render("✔ "+n.Message))
		}
	}
	if m.busy > 0 {
		parts = append(parts, mutedStyle.Render("working..."))
	}
	return strings.Join(parts, "  ")
}
