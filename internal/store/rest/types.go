package rest

import (
	"encoding/json"
	"fmt"
	"math"

	"brewtrack/internal/core"
)

// Wire shapes of the backend's JSON.
type (
	taskDTO struct {
		ID       int64  `json:"id"`
		TaskName string `json:"taskName"`
		Owner    string `json:"owner"`
		Status   string `json:"status"`
		Comments string `json:"comments"`
	}

	createTaskRequest struct {
		TaskName string `json:"taskName"`
		Owner    string `json:"owner"`
		Status   string `json:"status"`
	}

	expenseDTO struct {
		ID           int64      `json:"id"`
		ExpenseTitle string     `json:"expenseTitle"`
		Amount       jsonAmount `json:"amount"`
		Category     string     `json:"category"`
	}

	createExpenseRequest struct {
		ExpenseTitle string     `json:"expenseTitle"`
		Amount       jsonAmount `json:"amount"`
		Category     string     `json:"category"`
	}
)

// jsonAmount encodes non-finite amounts as null, and decodes null as NaN.
type jsonAmount float64

func (a jsonAmount) MarshalJSON() ([]byte, error) {
	f := float64(a)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return []byte("null"), nil
	}
	return json.Marshal(f)
}

func (a *jsonAmount) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*a = jsonAmount(math.NaN())
		return nil
	}
	var f float64
	if err := json.Unmarshal(b, &f); err != nil {
		return fmt.Errorf("amount: %w", err)
	}
	*a = jsonAmount(f)
	return nil
}

// toCore maps a missing or unknown status to Pending, the first choice of
// the status picker, and reports false so the caller can log it.
func (d taskDTO) toCore() (core.Task, bool) {
	st, err := core.ParseTaskStatus(d.Status)
	if err != nil {
		st = core.StatusPending
	}
	return core.Task{ID: d.ID, Name: d.TaskName, Owner: d.Owner, Status: st, Comments: d.Comments}, err == nil
}

func fromTask(t core.Task) taskDTO {
	return taskDTO{ID: t.ID, TaskName: t.Name, Owner: t.Owner, Status: t.Status.String(), Comments: t.Comments}
}

func (d expenseDTO) toCore() core.Expense {
	return core.Expense{ID: d.ID, Title: d.ExpenseTitle, Amount: core.Amount(d.Amount), Category: d.Category}
}
