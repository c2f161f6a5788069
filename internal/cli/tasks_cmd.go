package cli

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"brewtrack/internal/core"
	"brewtrack/internal/tracker"
)

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return id, nil
}

// explain turns tracker sentinels into messages fit for a terminal.
func explain(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, tracker.ErrIncomplete):
		return fmt.Errorf("please fill in all fields: %w", err)
	case errors.Is(err, tracker.ErrNotFound):
		return fmt.Errorf("no such record: %w", err)
	}
	return err
}

func newTasksCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "tasks",
		Aliases: []string{"task"},
		Short:   "Manage brewery tasks",
	}

	cmd.AddCommand(
		newTasksListCmd(app),
		newTasksAddCmd(app),
		newTasksStatusCmd(app),
		newTasksCommentCmd(app),
		newTasksDeleteCmd(app),
	)

	return cmd
}

func newTasksListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List tasks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tr, err := app.session(cmd.Context(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), formatTasks(tr.Tasks.Tasks()))
			return nil
		},
	}
}

func newTasksAddCmd(app *App) *cobra.Command {
	var name, owner, status string

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a task",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var st core.TaskStatus
			if status != "" {
				parsed, err := core.ParseTaskStatus(status)
				if err != nil {
					return err
				}
				st = parsed
			}

			if app.IsInteractive() {
				if form := taskPrompt(&name, &owner, &st); form != nil {
					if err := form.Run(); err != nil {
						return err
					}
				}
			}

			tr, err := app.session(cmd.Context(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			task, err := tr.Tasks.AddTask(cmd.Context(), tracker.TaskForm{Name: name, Owner: owner, Status: st})
			if err != nil {
				return explain(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added task %d: %s (%s, %s)\n", task.ID, task.Name, task.Owner, task.Status.Label())
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Task description")
	cmd.Flags().StringVar(&owner, "owner", "", "Person responsible")
	cmd.Flags().StringVar(&status, "status", "", "Initial status (pending, progress, completed)")

	return cmd
}

func newTasksStatusCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "status <id> <status>",
		Short: "Change the status of a task",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			st, err := core.ParseTaskStatus(args[1])
			if err != nil {
				return err
			}

			tr, err := app.session(cmd.Context(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			task, err := tr.Tasks.UpdateStatus(cmd.Context(), id, st)
			// optimistic sends finish in the background
			tr.Wait()
			if err != nil {
				return explain(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Task %d is now %s\n", task.ID, task.Status.Label())
			return nil
		},
	}
}

func newTasksCommentCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:     "comment <id> <update...>",
		Aliases: []string{"update"},
		Short:   "Record a progress update on a task",
		Args:    cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			tr, err := app.session(cmd.Context(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			if _, err := tr.Tasks.ApplyUpdate(cmd.Context(), id, strings.Join(args[1:], " ")); err != nil {
				return explain(err)
			}
			return nil
		},
	}
}

func newTasksDeleteCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:     "delete <id>",
		Aliases: []string{"rm"},
		Short:   "Delete a task",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}

			tr, err := app.session(cmd.Context(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			return explain(tr.Tasks.DeleteTask(cmd.Context(), id))
		},
	}
}
