package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"brewtrack/internal/core"
	"brewtrack/internal/tracker"
)

// form is a column of text inputs with one focused at a time.
type form struct {
	title  string
	inputs []textinput.Model
	focus  int

	// status used when the status input is left empty
	fallback core.TaskStatus
}

func newInput(placeholder, value string) textinput.Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = placeholder
	ti.CharLimit = 200
	ti.SetValue(value)
	return ti
}

// newTaskForm leaves the status input empty and shows the pending status as
// its placeholder, so typing a status never appends to a prefilled label.
func newTaskForm(prefill tracker.TaskForm) form {
	fallback := prefill.Status
	if fallback == "" {
		fallback = core.StatusPending
	}
	f := form{
		title: "Add task",
		inputs: []textinput.Model{
			newInput("Enter Task", prefill.Name),
			newInput("Owner (Bhavya, Teja, Bhanu)", prefill.Owner),
			newInput(fmt.Sprintf("Status: %s (or Pending, In Progress, Completed)", fallback.Label()), ""),
		},
		fallback: fallback,
	}
	f.inputs[0].Focus()
	return f
}

func newExpenseForm(prefill tracker.ExpenseForm) form {
	f := form{
		title: "Add expense",
		inputs: []textinput.Model{
			newInput("Expense Title", prefill.Title),
			newInput("Amount", prefill.Amount),
			newInput("Category (Interiors, License, F&B, etc.)", prefill.Category),
		},
	}
	f.inputs[0].Focus()
	return f
}

func (f *form) move(delta int) {
	f.inputs[f.focus].Blur()
	f.focus = (f.focus + delta + len(f.inputs)) % len(f.inputs)
	f.inputs[f.focus].Focus()
}

func (f form) last() bool { return f.focus == len(f.inputs)-1 }

func (f form) value(i int) string { return f.inputs[i].Value() }

func (f form) update(msg tea.Msg) (form, tea.Cmd) {
	var cmd tea.Cmd
	f.inputs[f.focus], cmd = f.inputs[f.focus].Update(msg)
	return f, cmd
}

func (f form) view() string {
	lines := make([]string, 0, len(f.inputs)+1)
	lines = append(lines, titleStyle.Render(f.title))
	for _, in := range f.inputs {
		lines = append(lines, in.View())
	}
	return strings.Join(lines, "\n")
}
