package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"brewtrack/internal/core"
	"brewtrack/internal/notify"
)

var (
	colorGreen  = lipgloss.Color("#8ec07c")
	colorYellow = lipgloss.Color("#fabd2f")
	colorRed    = lipgloss.Color("#fb4934")
	colorDim    = lipgloss.Color("#928374")
	colorHeader = lipgloss.Color("#fe8019")

	styleGreen  = lipgloss.NewStyle().Foreground(colorGreen)
	styleYellow = lipgloss.NewStyle().Foreground(colorYellow)
	styleRed    = lipgloss.NewStyle().Foreground(colorRed)
	styleDim    = lipgloss.NewStyle().Foreground(colorDim)
	styleHeader = lipgloss.NewStyle().Foreground(colorHeader).Bold(true)
)

// printer writes each notification to w on its own line.
func printer(w io.Writer) notify.Notifier {
	return notify.Func(func(n notify.Notification) {
		fmt.Fprintln(w, formatNotification(n))
	})
}

func formatNotification(n notify.Notification) string {
	if n.Level == notify.LevelError {
		return styleRed.Render("✗ " + n.Message)
	}
	return styleGreen.Render("✓ " + n.Message)
}

func statusStyle(s core.TaskStatus) lipgloss.Style {
	switch s {
	case core.StatusCompleted:
		return styleGreen
	case core.StatusInProgress:
		return styleYellow
	default:
		return styleDim
	}
}

func formatAmount(a core.Amount) string {
	return "₹" + a.String()
}

// formatTasks renders tasks as a table with 1-based serial numbers.
func formatTasks(tasks []core.Task) string {
	if len(tasks) == 0 {
		return styleDim.Render("No tasks yet.")
	}
	rows := make([][]string, 0, len(tasks))
	for i, t := range tasks {
		rows = append(rows, []string{
			strconv.Itoa(i + 1),
			strconv.FormatInt(t.ID, 10),
			t.Name,
			t.Owner,
			statusStyle(t.Status).Render(t.Status.Label()),
			t.Comments,
		})
	}
	return renderTable([]string{"S.NO", "ID", "TASK", "OWNER", "STATUS", "UPDATE"}, rows)
}

func formatExpenses(expenses []core.Expense, total core.Amount) string {
	var b strings.Builder
	if len(expenses) == 0 {
		b.WriteString(styleDim.Render("No expenses yet."))
	} else {
		rows := make([][]string, 0, len(expenses))
		for i, e := range expenses {
			rows = append(rows, []string{
				strconv.Itoa(i + 1),
				strconv.FormatInt(e.ID, 10),
				e.Title,
				e.Category,
				formatAmount(e.Amount),
			})
		}
		b.WriteString(renderTable([]string{"S.NO", "ID", "TITLE", "CATEGORY", "AMOUNT"}, rows))
	}
	b.WriteString("\n")
	b.WriteString(formatTotal(total))
	return b.String()
}

func formatTotal(total core.Amount) string {
	return styleHeader.Render("Total Expenses:") + " " + formatAmount(total)
}

// renderTable aligns columns by visible width so styled cells line up.
func renderTable(headers []string, rows [][]string) string {
	const gap = 2
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range rows {
		for i := 0; i < len(headers) && i < len(row); i++ {
			if w := lipgloss.Width(row[i]); w > widths[i] {
				widths[i] = w
			}
		}
	}

	var b strings.Builder
	writeRow := func(cells []string, style *lipgloss.Style) {
		for i := range headers {
			cell := ""
			if i < len(cells) {
				cell = cells[i]
			}
			pad := widths[i] - lipgloss.Width(cell)
			if style != nil {
				cell = style.Render(cell)
			}
			b.WriteString(cell)
			if i < len(headers)-1 {
				b.WriteString(strings.Repeat(" ", pad+gap))
			}
		}
		b.WriteString("\n")
	}

	writeRow(headers, &styleHeader)
	for i, w := range widths {
		b.WriteString(styleDim.Render(strings.Repeat("─", w)))
		if i < len(widths)-1 {
			b.WriteString(strings.Repeat(" ", gap))
		}
	}
	b.WriteString("\n")
	for _, row := range rows {
		writeRow(row, nil)
	}
	return strings.TrimRight(b.String(), "\n")
}
