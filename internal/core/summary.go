package core

// Total sums every expense amount. It is derived on demand and never stored;
// a single NaN amount makes the total NaN.
func Total(expenses []Expense) Amount {
	var sum Amount
	for _, e := range expenses {
		sum += e.Amount
	}
	return sum
}

// StatusCounts tallies tasks per status for panel headers.
func StatusCounts(tasks []Task) map[TaskStatus]int {
	counts := make(map[TaskStatus]int, 3)
	for _, s := range Statuses() {
		counts[s] = 0
	}
	for _, t := range tasks {
		counts[t.Status]++
	}
	return counts
}
