package http

import (
	"context"
	"encoding/json"
	"fmt"
	"html/template"
	"net/http"
	"sync/atomic"
	"time"

	"brewtrack/internal/core"
	"brewtrack/internal/log"
	"brewtrack/internal/notify"
	"brewtrack/internal/tracker"
)

type appMetrics struct {
	uptime          time.Time
	tasksCreated    int64
	expensesCreated int64
	deletes         int64
	failures        int64
}

func newAppMetrics() *appMetrics {
	return &appMetrics{uptime: time.Now()}
}

var templateFuncs = template.FuncMap{
	"amount":   formatAmount,
	"statuses": core.Statuses,
}

type taskRow struct {
	Index    int
	ID       int64
	Name     string
	Owner    string
	Status   core.TaskStatus
	Comments string
	Draft    string
}

type tasksView struct {
	Rows   []taskRow
	Form   tracker.TaskForm
	Owners []string
}

type expenseRow struct {
	Index    int
	ID       int64
	Title    string
	Category string
	Amount   core.Amount
}

type expensesView struct {
	Rows       []expenseRow
	Form       tracker.ExpenseForm
	Total      core.Amount
	Categories []string
}

type pageView struct {
	Tasks         tasksView
	Expenses      expensesView
	Notifications []notify.Notification
}

func (s *Server) tasksView() tasksView {
	p := s.tracker.Tasks
	tasks := p.Tasks()
	v := tasksView{Form: p.Form(), Owners: s.suggestions.Owners, Rows: make([]taskRow, 0, len(tasks))}
	for i, t := range tasks {
		v.Rows = append(v.Rows, taskRow{
			Index:    i + 1,
			ID:       t.ID,
			Name:     t.Name,
			Owner:    t.Owner,
			Status:   t.Status,
			Comments: t.Comments,
			Draft:    p.Draft(t.ID),
		})
	}
	return v
}

func (s *Server) expensesView() expensesView {
	p := s.tracker.Expenses
	expenses := p.Expenses()
	v := expensesView{Form: p.Form(), Total: p.Total(), Categories: s.suggestions.Categories, Rows: make([]expenseRow, 0, len(expenses))}
	for i, e := range expenses {
		v.Rows = append(v.Rows, expenseRow{
			Index:    i + 1,
			ID:       e.ID,
			Title:    e.Title,
			Category: e.Category,
			Amount:   e.Amount,
		})
	}
	return v
}

// handleIndex mounts the page: both collections are fetched again and the
// page is rendered with every pending notification. A startup notice that
// this fetch raised again is shown once.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if s.templates == nil {
		s.logger.WithComponent(log.ComponentTemplate).ErrorContext(r.Context(), "Templates not loaded",
			log.FieldPath, r.URL.Path)
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}

	q := notify.NewQueue()
	ctx := notify.WithNotifier(r.Context(), q)
	if err := s.tracker.Load(ctx); err != nil {
		s.logger.WarnContext(ctx, "Mount fetch failed", "error", err)
	}

	data := pageView{
		Tasks:         s.tasksView(),
		Expenses:      s.expensesView(),
		Notifications: mergeNotifications(s.mount.Drain(), q.Drain()),
	}

	resp := NewHTMXResponse()
	if err := resp.BodyTemplate(s.templates, "index.html", data); err != nil {
		s.logger.ErrorContext(ctx, "Index template execution failed", "error", err, "template", "index.html")
		http.Error(w, "render failed", http.StatusInternalServerError)
		return
	}
	resp.Write(w)
}

func (s *Server) handleTasksPartial(w http.ResponseWriter, r *http.Request) {
	s.renderPanel(w, r, NewHTMXResponse(), "tasks_panel")
}

func (s *Server) handleExpensesPartial(w http.ResponseWriter, r *http.Request) {
	s.renderPanel(w, r, NewHTMXResponse(), "expenses_panel")
}

// renderPanel writes resp with the current state of the named panel as body.
func (s *Server) renderPanel(w http.ResponseWriter, r *http.Request, resp *HTMXResponseBuilder, name string) {
	if s.templates == nil {
		InternalServerError("templates not loaded").Write(w)
		return
	}
	var data any
	switch name {
	case "tasks_panel":
		data = s.tasksView()
	default:
		data = s.expensesView()
	}
	if err := resp.BodyTemplate(s.templates, name, data); err != nil {
		s.logger.ErrorContext(r.Context(), "Template execution error", "error", err, "template", name)
		InternalServerError("render failed").Write(w)
		return
	}
	resp.Write(w)
}

// handleHealth performs basic liveness check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(s.appMetrics.uptime).String(),
	})
}

// handleReady reports whether templates are loaded and the store answers.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := "ready"
	httpStatus := http.StatusOK
	checks := make(map[string]any)

	if s.templates == nil {
		checks["templates"] = "failed: templates not loaded"
		status = "not_ready"
		httpStatus = http.StatusServiceUnavailable
	} else {
		checks["templates"] = "ok"
	}

	switch {
	case s.pinger == nil:
		checks["store"] = "not_configured"
	default:
		if err := s.pinger.Ping(ctx); err != nil {
			checks["store"] = fmt.Sprintf("failed: %v", err)
			status = "not_ready"
			httpStatus = http.StatusServiceUnavailable
		} else {
			checks["store"] = "ok"
		}
	}

	checks["rate_limiter"] = map[string]any{
		"active_clients": s.rateLimiter.ActiveClients(),
		"status":         "ok",
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(httpStatus)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"status":    status,
		"timestamp": time.Now().Format(time.RFC3339),
		"checks":    checks,
	})
}

// handleMetrics provides application and security metrics in plain text format
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")

	securityMetrics := s.securityDetector.GetMetrics()
	rateLimitMetrics := s.rateLimiter.GetMetrics()
	traceMetrics := s.traceMiddleware.GetMetrics()

	w.WriteHeader(http.StatusOK)

	metric := func(name, kind, help string, value any) {
		fmt.Fprintf(w, "# HELP %s %s\n", name, help)
		fmt.Fprintf(w, "# TYPE %s %s\n", name, kind)
		fmt.Fprintf(w, "%s %v\n\n", name, value)
	}

	metric("http_requests_total", "counter", "Total number of HTTP requests", traceMetrics.TotalRequests)
	metric("http_server_errors_total", "counter", "Total number of 5xx responses", traceMetrics.ServerErrors)
	metric("http_response_time_avg_microseconds", "gauge", "Average response time", traceMetrics.AverageResponseTime)
	metric("tasks_created_total", "counter", "Tasks created through the web interface", atomic.LoadInt64(&s.appMetrics.tasksCreated))
	metric("expenses_created_total", "counter", "Expenses created through the web interface", atomic.LoadInt64(&s.appMetrics.expensesCreated))
	metric("deletes_total", "counter", "Tasks and expenses deleted through the web interface", atomic.LoadInt64(&s.appMetrics.deletes))
	metric("store_failures_total", "counter", "Mutations rejected by the store", atomic.LoadInt64(&s.appMetrics.failures))
	metric("tasks", "gauge", "Tasks currently loaded", len(s.tracker.Tasks.Tasks()))
	metric("expenses", "gauge", "Expenses currently loaded", len(s.tracker.Expenses.Expenses()))
	metric("rate_limit_hits_total", "counter", "Total rate limit hits", rateLimitMetrics.TotalHits)
	metric("active_rate_limit_clients", "gauge", "Currently tracked rate limit clients", rateLimitMetrics.ClientCount)
	metric("suspicious_requests_total", "counter", "Total suspicious requests detected", securityMetrics.SuspiciousRequests)
	metric("uptime_seconds", "gauge", "Application uptime in seconds", fmt.Sprintf("%.0f", time.Since(s.appMetrics.uptime).Seconds()))
}

// mergeNotifications returns stale followed by fresh, minus any stale entry
// that fresh repeats.
func mergeNotifications(stale, fresh []notify.Notification) []notify.Notification {
	seen := make(map[notify.Notification]bool, len(fresh))
	for _, n := range fresh {
		seen[n] = true
	}
	out := make([]notify.Notification, 0, len(stale)+len(fresh))
	for _, n := range stale {
		if !seen[n] {
			out = append(out, n)
		}
	}
	return append(out, fresh...)
}
