package http

import (
	"context"
	"html/template"
	"io/fs"
	"net/http"
	"strings"
	"time"

	"brewtrack/internal/log"
	"brewtrack/internal/middleware/ratelimit"
	"brewtrack/internal/middleware/security"
	"brewtrack/internal/middleware/trace"
	"brewtrack/internal/notify"
	"brewtrack/internal/store"
	"brewtrack/internal/tracker"
	appweb "brewtrack/web"
)

// Options configures the optional parts of the server.
type Options struct {
	Logger      *log.Logger
	Suggestions store.Suggestions
	// Pinger backs the readiness probe. Nil means always ready.
	Pinger store.Pinger
	// Mount collects notifications raised outside a request, typically by
	// the initial load. They are shown on the next full page render.
	Mount     *notify.Queue
	RateLimit ratelimit.Config

	DevProxyPrefix string
	DevProxyTarget string
}

// Server wraps http.Server with the panel handlers.
type Server struct {
	http.Server

	tracker     *tracker.Tracker
	mount       *notify.Queue
	suggestions store.Suggestions
	pinger      store.Pinger
	templates   *template.Template

	logger *log.Logger
	sl     *log.StructuredLogger

	rateLimiter      *ratelimit.Limiter
	securityDetector *security.Detector
	traceMiddleware  *trace.Middleware
	appMetrics       *appMetrics
}

// NewServer configures routes and templates, returning a ready-to-run server.
func NewServer(addr string, tr *tracker.Tracker, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = log.Discard()
	}
	logger = logger.WithComponent(log.ComponentHTTP)
	mount := opts.Mount
	if mount == nil {
		mount = notify.NewQueue()
	}
	rl := opts.RateLimit
	if rl.RequestsPerMinute <= 0 {
		rl = ratelimit.DefaultConfig()
	}

	mux := http.NewServeMux()
	s := &Server{
		tracker:          tr,
		mount:            mount,
		suggestions:      opts.Suggestions,
		pinger:           opts.Pinger,
		logger:           logger,
		sl:               log.NewStructuredLogger(logger),
		rateLimiter:      ratelimit.NewLimiter(rl),
		securityDetector: security.NewDetector(logger),
		appMetrics:       newAppMetrics(),
	}
	s.traceMiddleware = trace.NewMiddleware(s.securityDetector.ExtractClientIP, logger)

	t, err := template.New("").Funcs(templateFuncs).ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		logger.WithComponent(log.ComponentTemplate).Warn("Failed parsing templates", "error", err)
	} else {
		s.templates = t
	}

	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		mux.Handle("GET /static/", security.StaticAssetMiddleware(3600)(static))
	} else {
		logger.Warn("Failed to mount embedded static FS", "error", err)
	}

	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /metrics", s.handleMetrics)

	mux.HandleFunc("GET /ui/tasks", s.handleTasksPartial)
	mux.HandleFunc("GET /ui/expenses", s.handleExpensesPartial)

	mux.HandleFunc("POST /tasks", s.handleCreateTask)
	mux.HandleFunc("POST /tasks/{id}/status", s.handleUpdateStatus)
	mux.HandleFunc("POST /tasks/{id}/draft", s.handleSaveDraft)
	mux.HandleFunc("POST /tasks/{id}/update", s.handleApplyUpdate)
	mux.HandleFunc("DELETE /tasks/{id}", s.handleDeleteTask)
	mux.HandleFunc("POST /tasks/{id}/delete", s.handleDeleteTask)

	mux.HandleFunc("POST /expenses", s.handleCreateExpense)
	mux.HandleFunc("DELETE /expenses/{id}", s.handleDeleteExpense)
	mux.HandleFunc("POST /expenses/{id}/delete", s.handleDeleteExpense)

	if opts.DevProxyPrefix != "" && opts.DevProxyTarget != "" {
		proxy, err := newDevProxy(opts.DevProxyTarget, logger)
		if err != nil {
			logger.Warn("Dev proxy disabled", "error", err, "target", opts.DevProxyTarget)
		} else {
			prefix := strings.TrimSuffix(opts.DevProxyPrefix, "/")
			mux.Handle(prefix, proxy)
			mux.Handle(prefix+"/", proxy)
			logger.Info("Dev proxy enabled", "prefix", prefix, "target", opts.DevProxyTarget)
		}
	}

	var h http.Handler = mux
	h = s.rateLimiter.Middleware(s.securityDetector.ExtractClientIP, nil)(h)
	h = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(h)
	h = s.traceMiddleware.Middleware(h)
	h = s.securityDetector.Middleware(h)
	h = log.Middleware(logger)(h)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

// Shutdown stops accepting requests, then waits for background status
// updates to finish.
func (s *Server) Shutdown(ctx context.Context) error {
	s.rateLimiter.Stop()
	err := s.Server.Shutdown(ctx)

	done := make(chan struct{})
	go func() {
		s.tracker.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		s.logger.Warn("Background status updates still running at shutdown", log.FieldOperation, log.OpShutdown)
	}
	return err
}
