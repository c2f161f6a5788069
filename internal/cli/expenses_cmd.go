package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"brewtrack/internal/tracker"
)

func newExpensesCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "expenses",
		Aliases: []string{"expense"},
		Short:   "Manage brewery expenses",
	}

	cmd.AddCommand(
		newExpensesListCmd(app),
		newExpensesAddCmd(app),
		newExpensesDeleteCmd(app),
		newExpensesTotalCmd(app),
	)

	return cmd
}

func newExpensesListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List expenses with their total",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tr, err := app.session(cmd.Context(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), formatExpenses(tr.Expenses.Expenses(), tr.Expenses.Total()))
			return nil
		},
	}
}

func newExpensesAddCmd(app *App) *cobra.Command {
	var title, amount, category string

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Record an expense",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if app.IsInteractive() {
				if form := expensePrompt(&title, &amount, &category); form != nil {
					if err := form.Run(); err != nil {
						return err
					}
				}
			}

			tr, err := app.session(cmd.Context(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			e, err := tr.Expenses.AddExpense(cmd.Context(), tracker.ExpenseForm{Title: title, Amount: amount, Category: category})
			if err != nil {
				return explain(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added expense %d: %s %s (%s)\n", e.ID, e.Title, formatAmount(e.Amount), e.Category)
			return nil
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "What the money was spent on")
	cmd.Flags().StringVar(&amount, "amount", "", "Amount in rupees")
	cmd.Flags().StringVar(&category, "category", "", "Category (Interiors, License, F&B, etc.)")

	return cmd
}

func newExpensesDeleteCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:     "delete <id>",
		Aliases: []string{"rm"},
		Short:   "Delete an expense",
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
			return explain(tr.Expenses.DeleteExpense(cmd.Context(), id))
		},
	}
}

func newExpensesTotalCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "total",
		Short: "Print the sum of all expenses",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tr, err := app.session(cmd.Context(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), formatTotal(tr.Expenses.Total()))
			return nil
		},
	}
}
