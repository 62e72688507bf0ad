// Package server exposes the estimator over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/abhinavpachauri/igcse-estimator/internal/aggregate"
	"github.com/abhinavpachauri/igcse-estimator/internal/estimate"
	"github.com/abhinavpachauri/igcse-estimator/internal/model"
	"github.com/abhinavpachauri/igcse-estimator/internal/store"
)

const (
	maxBodyBytes    = 1 << 20
	requestTimeout  = 30 * time.Second
	shutdownTimeout = 5 * time.Second
)

// SubjectStore resolves catalogue subjects.
type SubjectStore interface {
	SubjectID(ctx context.Context, code string) (int64, error)
	SubjectByCode(ctx context.Context, code string) (model.Subject, error)
}

// Options configures a Server.
type Options struct {
	// Origins lists the CORS origins allowed to call the API. Empty allows none.
	Origins []string
	Season  model.Season
	Logger  *slog.Logger
	Clock   func() time.Time
}

// Server serves the estimate API.
type Server struct {
	subjects  SubjectStore
	averages  estimate.Averager
	estimator *estimate.Estimator
	schemas   validators
	season    model.Season
	origins   []string
	logger    *slog.Logger
}

// New returns a Server reading subjects and averaged thresholds from the given sources.
func New(subjects SubjectStore, averages estimate.Averager, opts Options) (*Server, error) {
	schemas, err := compileSchemas()
	if err != nil {
		return nil, err
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	season := opts.Season
	if season == "" {
		season = estimate.DefaultSeason
	}
	return &Server{
		subjects: subjects,
		averages: averages,
		estimator: estimate.New(subjects, averages,
			estimate.WithSeason(season),
			estimate.WithLogger(logger),
			estimate.WithClock(opts.Clock),
		),
		schemas: schemas,
		season:  season,
		origins: opts.Origins,
		logger:  logger,
	}, nil
}

// Handler returns the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, s.logRequests, middleware.Recoverer)
	r.Use(middleware.Timeout(requestTimeout))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.origins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type"},
		ExposedHeaders: []string{"Content-Length"},
		MaxAge:         300,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
	r.Route("/api", func(api chi.Router) {
		api.Post("/estimate/calculate", s.handleCalculate)
		api.Post("/estimate/reverse", s.handleReverse)
		api.Get("/subjects/{code}", s.handleSubject)
		api.Get("/subjects/{code}/thresholds", s.handleThresholds)
	})
	return r
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http.listen", "addr", addr, "season", s.season)
		errCh <- srv.ListenAndServe()
	}()
	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) handleCalculate(w http.ResponseWriter, r *http.Request) {
	var req model.EstimateRequest
	if !s.readBody(w, r, s.schemas.estimate, &req) {
		return
	}
	res, err := s.estimator.Estimate(r.Context(), req)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, res)
}

func (s *Server) handleReverse(w http.ResponseWriter, r *http.Request) {
	var req model.ReverseRequest
	if !s.readBody(w, r, s.schemas.reverse, &req) {
		return
	}
	res, err := estimate.Reverse(req)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, res)
}

func (s *Server) handleSubject(w http.ResponseWriter, r *http.Request) {
	subject, err := s.subjects.SubjectByCode(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if subject.Papers == nil {
		subject.Papers = []model.Paper{}
	}
	s.respondJSON(w, http.StatusOK, subject)
}

func (s *Server) handleThresholds(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	tier, err := model.ParseTier(q.Get("tier"))
	if err != nil {
		s.respondMessage(w, http.StatusBadRequest, err.Error())
		return
	}
	season := s.season
	if v := q.Get("season"); v != "" {
		if season, err = model.ParseSeason(v); err != nil {
			s.respondMessage(w, http.StatusBadRequest, err.Error())
			return
		}
	}
	subjectID, err := s.subjects.SubjectID(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	summaries, err := s.averages.Averages(r.Context(), subjectID, tier, season)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if summaries == nil {
		summaries = []model.GradeThresholdSummary{}
	}
	s.respondJSON(w, http.StatusOK, summaries)
}

// readBody reads, validates and decodes a request body. It writes the error response itself.
func (s *Server) readBody(w http.ResponseWriter, r *http.Request, schema validator, dst any) bool {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.respondMessage(w, http.StatusRequestEntityTooLarge, "request body too large")
			return false
		}
		s.respondMessage(w, http.StatusBadRequest, "failed to read request body")
		return false
	}
	if err := decodeValidated(schema, data, dst); err != nil {
		s.respondMessage(w, http.StatusBadRequest, err.Error())
		return false
	}
	return true
}

func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound), errors.Is(err, aggregate.ErrUnknownSubject):
		s.respondMessage(w, http.StatusNotFound, err.Error())
	case errors.Is(err, estimate.ErrInvalidReverse):
		s.respondMessage(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		s.respondMessage(w, http.StatusServiceUnavailable, "request cancelled")
	default:
		s.logger.Error("http.error", "method", r.Method, "path", r.URL.Path, "err", err)
		s.respondMessage(w, http.StatusInternalServerError, "internal error")
	}
}

func (s *Server) respondMessage(w http.ResponseWriter, status int, msg string) {
	s.respondJSON(w, status, map[string]string{"error": msg})
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn("http.encode", "err", err)
	}
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		s.logger.Info("http.request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", status,
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}
