package http

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"brewtrack/internal/core"
	"brewtrack/internal/middleware/ratelimit"
	"brewtrack/internal/notify"
	"brewtrack/internal/store"
	"brewtrack/internal/store/memory"
	"brewtrack/internal/tracker"
)

var errBackend = errors.New("backend unavailable")

// flakyGateway is a memory store whose writes, lists and ping can be made
// to fail.
type flakyGateway struct {
	*memory.Store

	mu         sync.Mutex
	failWrites bool
	failLists  bool
	pingErr    error
}

var _ store.Gateway = (*flakyGateway)(nil)

func (g *flakyGateway) set(fn func(g *flakyGateway)) {
	g.mu.Lock()
	fn(g)
	g.mu.Unlock()
}

func (g *flakyGateway) writes() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.failWrites {
		return errBackend
	}
	return nil
}

func (g *flakyGateway) lists() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.failLists {
		return errBackend
	}
	return nil
}

func (g *flakyGateway) ListTasks(ctx context.Context) ([]core.Task, error) {
	if err := g.lists(); err != nil {
		return nil, err
	}
	return g.Store.ListTasks(ctx)
}

func (g *flakyGateway) ListExpenses(ctx context.Context) ([]core.Expense, error) {
	if err := g.lists(); err != nil {
		return nil, err
	}
	return g.Store.ListExpenses(ctx)
}

func (g *flakyGateway) CreateTask(ctx context.Context, nt core.NewTask) (core.Task, error) {
	if err := g.writes(); err != nil {
		return core.Task{}, err
	}
	return g.Store.CreateTask(ctx, nt)
}

func (g *flakyGateway) UpdateTask(ctx context.Context, t core.Task) (core.Task, error) {
	if err := g.writes(); err != nil {
		return core.Task{}, err
	}
	return g.Store.UpdateTask(ctx, t)
}

func (g *flakyGateway) DeleteTask(ctx context.Context, id int64) error {
	if err := g.writes(); err != nil {
		return err
	}
	return g.Store.DeleteTask(ctx, id)
}

func (g *flakyGateway) CreateExpense(ctx context.Context, ne core.NewExpense) (core.Expense, error) {
	if err := g.writes(); err != nil {
		return core.Expense{}, err
	}
	return g.Store.CreateExpense(ctx, ne)
}

func (g *flakyGateway) DeleteExpense(ctx context.Context, id int64) error {
	if err := g.writes(); err != nil {
		return err
	}
	return g.Store.DeleteExpense(ctx, id)
}

func (g *flakyGateway) Ping(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.pingErr
}

type testEnv struct {
	srv   *Server
	gw    *flakyGateway
	tr    *tracker.Tracker
	mount *notify.Queue
}

func newTestEnv(t *testing.T, policy tracker.SyncPolicy, opts Options) *testEnv {
	t.Helper()
	gw := &flakyGateway{Store: memory.New()}
	mount := notify.NewQueue()
	tr := tracker.New(gw, tracker.Options{Notifier: mount, Sync: policy})
	opts.Mount = mount
	opts.Pinger = gw
	srv := NewServer(":0", tr, opts)
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })
	return &testEnv{srv: srv, gw: gw, tr: tr, mount: mount}
}

func (e *testEnv) do(t *testing.T, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	rec := httptest.NewRecorder()
	e.srv.Handler.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) addTask(t *testing.T, name string) core.Task {
	t.Helper()
	rec := e.do(t, http.MethodPost, "/tasks", "taskName="+name+"&owner=Teja&status=PENDING")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	tasks := e.tr.Tasks.Tasks()
	require.NotEmpty(t, tasks)
	return tasks[len(tasks)-1]
}

func idPath(prefix string, id int64, suffix string) string {
	return prefix + "/" + strconv.FormatInt(id, 10) + suffix
}

func TestIndexRendersPanelsAndMountToasts(t *testing.T) {
	env := newTestEnv(t, tracker.SyncOptimistic, Options{})
	_, err := env.gw.Store.CreateTask(context.Background(), core.NewTask{Name: "Sanitize", Owner: "Bhanu", Status: core.StatusInProgress})
	require.NoError(t, err)
	notify.Error(env.mount, "Startup notice")

	rec := env.do(t, http.MethodGet, "/", "")
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.Contains(t, body, "Microbrewery Task &amp; Expense Tracker")
	assert.Contains(t, body, "Sanitize")
	assert.Contains(t, body, "Startup notice")
	assert.Contains(t, body, "Total Expenses: ₹0.00")
	assert.Equal(t, 0, env.mount.Len())
}

func TestIndexMountFailureNotifiesBoth(t *testing.T) {
	env := newTestEnv(t, tracker.SyncOptimistic, Options{})
	env.gw.set(func(g *flakyGateway) { g.failLists = true })

	rec := env.do(t, http.MethodGet, "/", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), tracker.MsgTasksFetchFailed)
	assert.Contains(t, rec.Body.String(), tracker.MsgExpensesFetchFailed)
}

func TestIndexAfterFailedStartupShowsEachToastOnce(t *testing.T) {
	env := newTestEnv(t, tracker.SyncOptimistic, Options{})
	env.gw.set(func(g *flakyGateway) { g.failLists = true })
	require.Error(t, env.tr.Load(context.Background()))
	require.Equal(t, 2, env.mount.Len())
	notify.Success(env.mount, "Startup notice")

	rec := env.do(t, http.MethodGet, "/", "")
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.Equal(t, 1, strings.Count(body, tracker.MsgTasksFetchFailed))
	assert.Equal(t, 1, strings.Count(body, tracker.MsgExpensesFetchFailed))
	assert.Contains(t, body, "Startup notice")
	assert.Equal(t, 0, env.mount.Len())
}

func TestUnknownPathIs404(t *testing.T) {
	env := newTestEnv(t, tracker.SyncOptimistic, Options{})
	rec := env.do(t, http.MethodGet, "/nope", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateTask(t *testing.T) {
	env := newTestEnv(t, tracker.SyncOptimistic, Options{})

	rec := env.do(t, http.MethodPost, "/tasks", "taskName=Mash&owner=Bhavya&status=In+Progress")
	require.Equal(t, http.StatusOK, rec.Code)

	trigger := rec.Header().Get("HX-Trigger")
	assert.Contains(t, trigger, tracker.MsgTaskAdded)
	assert.Contains(t, trigger, `"form:reset":{"form":"task-form"}`)
	assert.Contains(t, rec.Body.String(), "Mash")

	tasks := env.tr.Tasks.Tasks()
	require.Len(t, tasks, 1)
	assert.Equal(t, core.StatusInProgress, tasks[0].Status)
}

func TestCreateTaskValidation(t *testing.T) {
	env := newTestEnv(t, tracker.SyncOptimistic, Options{})

	rec := env.do(t, http.MethodPost, "/tasks", "taskName=Mash&owner=+")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Empty(t, rec.Header().Get("HX-Trigger"))

	rec = env.do(t, http.MethodPost, "/tasks", "taskName=Mash&owner=Teja&status=Brewing")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	assert.Empty(t, env.tr.Tasks.Tasks())
}

func TestCreateTaskStoreFailureKeepsForm(t *testing.T) {
	env := newTestEnv(t, tracker.SyncOptimistic, Options{})
	env.gw.set(func(g *flakyGateway) { g.failWrites = true })

	rec := env.do(t, http.MethodPost, "/tasks", "taskName=Mash&owner=Teja")
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, rec.Header().Get("HX-Trigger"), tracker.MsgTaskAddFailed)
	assert.NotContains(t, rec.Header().Get("HX-Trigger"), "form:reset")
	assert.Contains(t, rec.Body.String(), `value="Mash"`)
	assert.Empty(t, env.tr.Tasks.Tasks())
}

func TestCreateTaskJSON(t *testing.T) {
	env := newTestEnv(t, tracker.SyncOptimistic, Options{})

	req := httptest.NewRequest(http.MethodPost, "/tasks", strings.NewReader(`{"taskName":"Keg","owner":"Teja","status":"COMPLETED"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	env.srv.Handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	tasks := env.tr.Tasks.Tasks()
	require.Len(t, tasks, 1)
	assert.Equal(t, core.StatusCompleted, tasks[0].Status)
}

func TestUpdateStatusOptimistic(t *testing.T) {
	env := newTestEnv(t, tracker.SyncOptimistic, Options{})
	task := env.addTask(t, "Boil")

	rec := env.do(t, http.MethodPost, idPath("/tasks", task.ID, "/status"), "status=COMPLETED")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("HX-Trigger"))

	got, ok := env.tr.Tasks.Task(task.ID)
	require.True(t, ok)
	assert.Equal(t, core.StatusCompleted, got.Status)

	env.tr.Wait()
	stored, err := env.gw.Store.ListTasks(context.Background())
	require.NoError(t, err)
	assert.Equal(t, core.StatusCompleted, stored[0].Status)
}

func TestUpdateStatusConfirmedFailure(t *testing.T) {
	env := newTestEnv(t, tracker.SyncConfirmed, Options{})
	task := env.addTask(t, "Boil")
	env.gw.set(func(g *flakyGateway) { g.failWrites = true })

	rec := env.do(t, http.MethodPost, idPath("/tasks", task.ID, "/status"), "status=COMPLETED")
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, rec.Header().Get("HX-Trigger"), tracker.MsgStatusFailed)

	got, _ := env.tr.Tasks.Task(task.ID)
	assert.Equal(t, core.StatusPending, got.Status)
}

func TestTaskIDErrors(t *testing.T) {
	env := newTestEnv(t, tracker.SyncOptimistic, Options{})

	tests := []struct {
		method, target, body string
		want                 int
	}{
		{http.MethodPost, "/tasks/abc/status", "status=PENDING", http.StatusBadRequest},
		{http.MethodPost, "/tasks/999/status", "status=PENDING", http.StatusNotFound},
		{http.MethodPost, "/tasks/999/update", "update=hi", http.StatusNotFound},
		{http.MethodPost, "/tasks/999/draft", "update=hi", http.StatusNotFound},
		{http.MethodPost, "/tasks/abc/draft", "update=hi", http.StatusBadRequest},
		{http.MethodDelete, "/tasks/999", "", http.StatusNotFound},
		{http.MethodPost, "/tasks/0/delete", "", http.StatusBadRequest},
		{http.MethodDelete, "/expenses/999", "", http.StatusNotFound},
		{http.MethodGet, "/tasks/1/status", "", http.StatusMethodNotAllowed},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.target, func(t *testing.T) {
			rec := env.do(t, tt.method, tt.target, tt.body)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestDraftAndApplyUpdate(t *testing.T) {
	env := newTestEnv(t, tracker.SyncOptimistic, Options{})
	task := env.addTask(t, "Ferment")

	rec := env.do(t, http.MethodPost, idPath("/tasks", task.ID, "/draft"), "update=Gravity+1.050")
	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "Gravity 1.050", env.tr.Tasks.Draft(task.ID))

	rec = env.do(t, http.MethodGet, "/ui/tasks", "")
	assert.Contains(t, rec.Body.String(), `value="Gravity 1.050"`)

	// The stored draft is used when the button posts no text.
	rec = env.do(t, http.MethodPost, idPath("/tasks", task.ID, "/update"), "update=")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("HX-Trigger"), tracker.MsgTaskUpdated)

	got, _ := env.tr.Tasks.Task(task.ID)
	assert.Equal(t, "Gravity 1.050", got.Comments)
	assert.Empty(t, env.tr.Tasks.Draft(task.ID))
}

func TestApplyUpdateEmptyIsNoop(t *testing.T) {
	env := newTestEnv(t, tracker.SyncOptimistic, Options{})
	task := env.addTask(t, "Ferment")

	rec := env.do(t, http.MethodPost, idPath("/tasks", task.ID, "/update"), "update=")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Empty(t, rec.Header().Get("HX-Trigger"))
}

func TestApplyUpdateFailureKeepsDraft(t *testing.T) {
	env := newTestEnv(t, tracker.SyncOptimistic, Options{})
	task := env.addTask(t, "Ferment")
	require.NoError(t, env.tr.Tasks.SetDraft(task.ID, "done"))
	env.gw.set(func(g *flakyGateway) { g.failWrites = true })

	rec := env.do(t, http.MethodPost, idPath("/tasks", task.ID, "/update"), "update=done")
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, rec.Header().Get("HX-Trigger"), tracker.MsgTaskUpdateFailed)
	assert.Equal(t, "done", env.tr.Tasks.Draft(task.ID))
}

func TestDeleteTaskBothMethods(t *testing.T) {
	env := newTestEnv(t, tracker.SyncOptimistic, Options{})
	a := env.addTask(t, "First")
	b := env.addTask(t, "Second")

	rec := env.do(t, http.MethodDelete, idPath("/tasks", a.ID, ""), "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("HX-Trigger"), tracker.MsgTaskDeleted)

	rec = env.do(t, http.MethodPost, idPath("/tasks", b.ID, "/delete"), "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, env.tr.Tasks.Tasks())
	assert.Contains(t, rec.Body.String(), "No tasks yet")
}

func TestCreateExpenseAndTotal(t *testing.T) {
	env := newTestEnv(t, tracker.SyncOptimistic, Options{})

	rec := env.do(t, http.MethodPost, "/expenses", "expenseTitle=Paint&amount=500&category=Interiors")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("HX-Trigger"), tracker.MsgExpenseAdded)
	assert.Contains(t, rec.Header().Get("HX-Trigger"), `"form":"expense-form"`)

	rec = env.do(t, http.MethodPost, "/expenses", "expenseTitle=Permit&amount=20.5&category=License")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Total Expenses: ₹520.50")
}

func TestCreateExpenseNaN(t *testing.T) {
	env := newTestEnv(t, tracker.SyncOptimistic, Options{})
	env.do(t, http.MethodPost, "/expenses", "expenseTitle=Paint&amount=500&category=Interiors")

	rec := env.do(t, http.MethodPost, "/expenses", "expenseTitle=Mystery&amount=abc&category=F%26B")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "₹NaN")
	assert.Contains(t, body, "Total Expenses: ₹NaN")
}

func TestCreateExpenseIncomplete(t *testing.T) {
	env := newTestEnv(t, tracker.SyncOptimistic, Options{})
	rec := env.do(t, http.MethodPost, "/expenses", "expenseTitle=Paint&amount=&category=Interiors")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Empty(t, env.tr.Expenses.Expenses())
}

func TestDeleteExpense(t *testing.T) {
	env := newTestEnv(t, tracker.SyncOptimistic, Options{})
	env.do(t, http.MethodPost, "/expenses", "expenseTitle=Paint&amount=500&category=Interiors")
	exp := env.tr.Expenses.Expenses()[0]

	env.gw.set(func(g *flakyGateway) { g.failWrites = true })
	rec := env.do(t, http.MethodPost, idPath("/expenses", exp.ID, "/delete"), "")
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, rec.Header().Get("HX-Trigger"), tracker.MsgExpenseDeleteFailed)
	assert.Len(t, env.tr.Expenses.Expenses(), 1)

	env.gw.set(func(g *flakyGateway) { g.failWrites = false })
	rec = env.do(t, http.MethodDelete, idPath("/expenses", exp.ID, ""), "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("HX-Trigger"), tracker.MsgExpenseDeleted)
	assert.Empty(t, env.tr.Expenses.Expenses())
}

func TestHealthReadyAndMetrics(t *testing.T) {
	env := newTestEnv(t, tracker.SyncOptimistic, Options{})

	rec := env.do(t, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)

	rec = env.do(t, http.MethodGet, "/readyz", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	env.gw.set(func(g *flakyGateway) { g.pingErr = errBackend })
	rec = env.do(t, http.MethodGet, "/readyz", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "backend unavailable")

	env.addTask(t, "Bottle")
	rec = env.do(t, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "tasks_created_total 1")
	assert.Contains(t, rec.Body.String(), "tasks 1")
}

func TestSecurityHeadersAndRequestID(t *testing.T) {
	env := newTestEnv(t, tracker.SyncOptimistic, Options{})
	rec := env.do(t, http.MethodGet, "/healthz", "")

	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))
	assert.True(t, strings.HasPrefix(rec.Header().Get("X-Request-ID"), "req_"))

	rec = env.do(t, http.MethodGet, "/.git/config", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestStaticAssets(t *testing.T) {
	env := newTestEnv(t, tracker.SyncOptimistic, Options{})
	rec := env.do(t, http.MethodGet, "/static/app.js", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "show-notification")
	assert.Contains(t, rec.Header().Get("Cache-Control"), "max-age=3600")
}

func TestDevProxy(t *testing.T) {
	var gotPath, gotHost string
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotHost = r.Host
		_, _ = io.WriteString(w, "[]")
	}))
	defer upstream.Close()

	env := newTestEnv(t, tracker.SyncOptimistic, Options{
		DevProxyPrefix: "/api",
		DevProxyTarget: upstream.URL,
	})

	rec := env.do(t, http.MethodGet, "/api/v1/tasks", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "[]", rec.Body.String())
	assert.Equal(t, "/api/v1/tasks", gotPath)
	assert.Equal(t, strings.TrimPrefix(upstream.URL, "http://"), gotHost)
}

func TestRateLimitOnMutations(t *testing.T) {
	tr := tracker.New(memory.New(), tracker.Options{})
	limited := NewServer(":0", tr, Options{RateLimit: ratelimit.Config{
		RequestsPerMinute: 1,
		CleanupInterval:   time.Minute,
		Methods:           []string{http.MethodPost},
	}})
	t.Cleanup(func() { _ = limited.Shutdown(context.Background()) })

	post := func() int {
		req := httptest.NewRequest(http.MethodPost, "/tasks", strings.NewReader("taskName=a&owner=b"))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		rec := httptest.NewRecorder()
		limited.Handler.ServeHTTP(rec, req)
		return rec.Code
	}
	assert.Equal(t, http.StatusOK, post())
	assert.Equal(t, http.StatusTooManyRequests, post())

	get := httptest.NewRecorder()
	limited.Handler.ServeHTTP(get, httptest.NewRequest(http.MethodGet, "/ui/tasks", nil))
	assert.Equal(t, http.StatusOK, get.Code)
}
