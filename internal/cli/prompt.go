package cli

import (
	"errors"

	"github.com/charmbracelet/huh"

	"brewtrack/internal/core"
)

func requiredText(s string) error {
	if s == "" {
		return errors.New("required")
	}
	return nil
}

func textInput(title, placeholder string, value *string) *huh.Input {
	return huh.NewInput().
		Title(title).
		Placeholder(placeholder).
		Value(value).
		Validate(requiredText)
}

// taskPrompt asks for the task fields that are still empty.
func taskPrompt(name, owner *string, status *core.TaskStatus) *huh.Form {
	var fields []huh.Field
	if *name == "" {
		fields = append(fields, textInput("Task", "Clean fermenters", name))
	}
	if *owner == "" {
		fields = append(fields, textInput("Owner", "Bhavya, Teja, Bhanu", owner))
	}
	if *status == "" {
		opts := make([]huh.Option[core.TaskStatus], 0, 3)
		for _, s := range core.Statuses() {
			opts = append(opts, huh.NewOption(s.Label(), s))
		}
		*status = core.StatusPending
		fields = append(fields, huh.NewSelect[core.TaskStatus]().
			Title("Status").
			Options(opts...).
			Value(status))
	}
	if len(fields) == 0 {
		return nil
	}
	return huh.NewForm(huh.NewGroup(fields...)).WithShowHelp(false)
}

// expensePrompt asks for the expense fields that are still empty.
func expensePrompt(title, amount, category *string) *huh.Form {
	var fields []huh.Field
	if *title == "" {
		fields = append(fields, textInput("Expense Title", "Glycol chiller service", title))
	}
	if *amount == "" {
		fields = append(fields, textInput("Amount", "500", amount))
	}
	if *category == "" {
		fields = append(fields, textInput("Category", "Interiors, License, F&B, etc.", category))
	}
	if len(fields) == 0 {
		return nil
	}
	return huh.NewForm(huh.NewGroup(fields...)).WithShowHelp(false)
}
