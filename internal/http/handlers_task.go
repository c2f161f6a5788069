package http

import (
	"context"
	"errors"
	"net/http"
	"sync/atomic"

	"brewtrack/internal/core"
	"brewtrack/internal/log"
	"brewtrack/internal/notify"
	"brewtrack/internal/tracker"
)

// mutation runs fn with a request-scoped notification queue and turns its
// outcome into a response. Successful and store-failed mutations answer with
// the re-rendered panel; validation problems answer with an error snippet.
func (s *Server) mutation(w http.ResponseWriter, r *http.Request, panel, resetForm string, fn func(ctx context.Context) error) {
	q := notify.NewQueue()
	ctx := notify.WithNotifier(r.Context(), q)
	err := fn(ctx)

	resp := NewHTMXResponse()
	switch {
	case err == nil:
		if resetForm != "" {
			resp.TriggerFormReset(resetForm)
		}
	case errors.Is(err, errBadID):
		resp = BadRequestError("Invalid identifier")
	case errors.Is(err, errBadRequest):
		resp = BadRequestError("Invalid request format")
	case errors.Is(err, tracker.ErrIncomplete):
		resp = UnprocessableEntityError("Please fill in all fields")
	case errors.Is(err, core.ErrInvalidStatus):
		resp = BadRequestError("Invalid status")
	case errors.Is(err, tracker.ErrNotFound):
		resp = NotFoundError("Not found")
	default:
		atomic.AddInt64(&s.appMetrics.failures, 1)
		s.sl.LogError(ctx, "Store rejected mutation", err, r.Method,
			log.NewFields().WithHTTPRequest(r.Method, r.URL.Path, "", "", ""))
		resp.Status(http.StatusBadGateway)
	}
	resp.TriggerNotifications(q.Drain())

	if err != nil && resp.statusCode != http.StatusBadGateway {
		s.logger.DebugContext(ctx, "Rejected request", log.FieldPath, r.URL.Path, log.FieldError, err)
		resp.Write(w)
		return
	}
	s.renderPanel(w, r, resp, panel)
}

func parseBody(r *http.Request) (*RequestBodyParser, error) {
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Server) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	body, err := parseBody(r)
	if err != nil {
		BadRequestError("Invalid request format").Write(w)
		return
	}

	form := tracker.TaskForm{
		Name:  body.Get("taskName"),
		Owner: body.Get("owner"),
	}
	if raw := body.Get("status"); raw != "" {
		st, err := core.ParseTaskStatus(raw)
		if err != nil {
			BadRequestError("Invalid status").Write(w)
			return
		}
		form.Status = st
	}

	s.mutation(w, r, "tasks_panel", "task-form", func(ctx context.Context) error {
		_, err := s.tracker.Tasks.AddTask(ctx, form)
		if err == nil {
			atomic.AddInt64(&s.appMetrics.tasksCreated, 1)
		}
		return err
	})
}

func (s *Server) handleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	s.mutation(w, r, "tasks_panel", "", func(ctx context.Context) error {
		id, err := ParseIDParam(r)
		if err != nil {
			return err
		}
		body, err := parseBody(r)
		if err != nil {
			return errBadRequest
		}
		st, err := core.ParseTaskStatus(body.Get("status"))
		if err != nil {
			return err
		}
		_, err = s.tracker.Tasks.UpdateStatus(ctx, id, st)
		return err
	})
}

// handleSaveDraft keeps the typed update text on the server so it survives
// panel re-renders.
func (s *Server) handleSaveDraft(w http.ResponseWriter, r *http.Request) {
	id, err := ParseIDParam(r)
	if err != nil {
		BadRequestError("Invalid identifier").Write(w)
		return
	}
	body, err := parseBody(r)
	if err != nil {
		BadRequestError("Invalid request format").Write(w)
		return
	}
	if err := s.tracker.Tasks.SetDraft(id, body.Raw("update")); err != nil {
		NotFoundError("Not found").Write(w)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleApplyUpdate(w http.ResponseWriter, r *http.Request) {
	s.mutation(w, r, "tasks_panel", "", func(ctx context.Context) error {
		id, err := ParseIDParam(r)
		if err != nil {
			return err
		}
		body, err := parseBody(r)
		if err != nil {
			return errBadRequest
		}
		text := body.Raw("update")
		if text == "" {
			text = s.tracker.Tasks.Draft(id)
		}
		_, err = s.tracker.Tasks.ApplyUpdate(ctx, id, text)
		return err
	})
}

func (s *Server) handleDeleteTask(w http.ResponseWriter, r *http.Request) {
	s.mutation(w, r, "tasks_panel", "", func(ctx context.Context) error {
		id, err := ParseIDParam(r)
		if err != nil {
			return err
		}
		if err := s.tracker.Tasks.DeleteTask(ctx, id); err != nil {
			return err
		}
		atomic.AddInt64(&s.appMetrics.deletes, 1)
		return nil
	})
}
