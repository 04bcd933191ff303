// Package httpapi serves auto-fit and day schedules over HTTP.
package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/jakechorley/caregiver-rota/pkg/core/scheduler"
	"github.com/jakechorley/caregiver-rota/pkg/core/services"
	"github.com/jakechorley/caregiver-rota/pkg/metrics"
)

const dateLayout = "2006-01-02"

// Dispatcher starts auto-fit runs in the background
type Dispatcher interface {
	Dispatch(ctx context.Context, date time.Time) <-chan scheduler.Completion
}

// RunStatus describes the most recent auto-fit run started through the API
type RunStatus struct {
	Date       string    `json:"date"`
	Running    bool      `json:"running"`
	StartedAt  time.Time `json:"startedAt"`
	FinishedAt time.Time `json:"finishedAt"`
	Committed  int       `json:"committed"`
	Error      string    `json:"error,omitempty"`
}

// Server holds the API dependencies
type Server struct {
	baseCtx    context.Context
	dispatcher Dispatcher
	store      services.DayScheduleStore
	layout     services.DayLayout
	logger     *zap.Logger

	mu   sync.Mutex
	last *RunStatus
	wg   sync.WaitGroup
}

// New creates a Server. Runs started through the API use baseCtx, so cancelling it
// stops an in-flight run at the next slot.
func New(baseCtx context.Context, dispatcher Dispatcher, store services.DayScheduleStore, layout services.DayLayout, logger *zap.Logger) *Server {
	return &Server{
		baseCtx:    baseCtx,
		dispatcher: dispatcher,
		store:      store,
		layout:     layout,
		logger:     logger,
	}
}

// Handler builds the root router
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))

	r.Route("/api/v1", func(api chi.Router) {
		api.Get("/autofit", s.getRunStatus)
		api.Post("/autofit/{date}", s.startAutoFit)
		api.Get("/days/{date}", s.getDay)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "not_found", "Use a versioned path like /api/v1/...")
	})

	return r
}

// Wait blocks until every run started through the API has finished
func (s *Server) Wait() {
	s.wg.Wait()
}

func (s *Server) startAutoFit(w http.ResponseWriter, r *http.Request) {
	date, ok := s.parseDate(w, r)
	if !ok {
		return
	}

	s.mu.Lock()
	if s.last != nil && s.last.Running {
		current := *s.last
		s.mu.Unlock()
		writeJSON(w, http.StatusConflict, map[string]any{
			"error":   "run_in_progress",
			"message": "An auto-fit run is already in progress",
			"run":     current,
		})
		return
	}
	status := &RunStatus{Date: date.Format(dateLayout), Running: true, StartedAt: time.Now()}
	s.last = status
	// awaitRun mutates status under s.mu, so the response encodes a copy
	accepted := *status
	s.mu.Unlock()

	done := s.dispatcher.Dispatch(s.baseCtx, date)
	s.wg.Add(1)
	go s.awaitRun(status, done)

	s.logger.Info("Auto-fit dispatched", zap.String("date", accepted.Date))
	writeJSON(w, http.StatusAccepted, accepted)
}

func (s *Server) awaitRun(status *RunStatus, done <-chan scheduler.Completion) {
	defer s.wg.Done()

	completion, ok := <-done

	s.mu.Lock()
	defer s.mu.Unlock()

	status.Running = false
	status.FinishedAt = time.Now()
	if !ok {
		status.Error = "run ended without a result"
		return
	}
	if completion.Summary != nil {
		status.Committed = len(completion.Summary.Committed)
	}
	if completion.Err != nil {
		status.Error = completion.Err.Error()
		s.logger.Error("Auto-fit run failed", zap.String("date", status.Date), zap.Error(completion.Err))
		return
	}
	s.logger.Info("Auto-fit run finished", zap.String("date", status.Date), zap.Int("committed", status.Committed))
}

func (s *Server) getRunStatus(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	if s.last == nil {
		s.mu.Unlock()
		writeError(w, http.StatusNotFound, "no_runs", "No auto-fit run has been started")
		return
	}
	current := *s.last
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, current)
}

func (s *Server) getDay(w http.ResponseWriter, r *http.Request) {
	date, ok := s.parseDate(w, r)
	if !ok {
		return
	}

	view, err := services.DaySchedule(r.Context(), s.store, s.layout, s.logger, date)
	if err != nil {
		s.logger.Error("Failed to build day schedule", zap.Time("date", date), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "store_error", "Failed to read the day schedule")
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) parseDate(w http.ResponseWriter, r *http.Request) (time.Time, bool) {
	raw := chi.URLParam(r, "date")
	date, err := time.ParseInLocation(dateLayout, raw, s.layout.Calendar.Location)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_date", "Date must be formatted as YYYY-MM-DD")
		return time.Time{}, false
	}
	return date, true
}

// requestLogger logs each request with zap and counts it in metrics.HTTPRequests
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		metrics.HTTPRequests.WithLabelValues(route, r.Method, strconv.Itoa(status)).Inc()

		s.logger.Debug("HTTP request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("route", route),
			zap.Int("status", status),
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.Duration("duration", time.Since(start)))
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]string{"error": code, "message": message})
}
