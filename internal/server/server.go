// Package server exposes the analysis pipeline over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/sells-group/opportunity-agent/internal/config"
	"github.com/sells-group/opportunity-agent/internal/model"
	"github.com/sells-group/opportunity-agent/internal/pipeline"
	"github.com/sells-group/opportunity-agent/internal/store"
)

// maxBodyBytes bounds request bodies; opportunity payloads are small.
const maxBodyBytes = 1 << 20

// Server wires the pipeline and store behind the HTTP surface.
type Server struct {
	cfg   *config.Config
	pipe  *pipeline.Pipeline
	store store.Store
}

// New creates a Server.
func New(cfg *config.Config, pipe *pipeline.Pipeline, st store.Store) *Server {
	return &Server{cfg: cfg, pipe: pipe, store: st}
}

// Router builds the chi router. Business errors are always delivered as a
// JSON envelope; transport-level failures are reserved for malformed
// requests and panics.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "Authorization"},
	}))

	r.Get("/health", s.handleHealth)
	r.Post("/api/analyze", s.handleAnalyze)
	r.Get("/api/analyses", s.handleListAnalyses)
	r.Get("/api/analyses/{opportunityID}", s.handleGetAnalysis)

	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, model.ErrorResponse(
			model.ErrMethodNotAllowed,
			fmt.Sprintf("method %s is not allowed", r.Method),
			"", "",
		))
	})

	return r
}

// ListenAndServe runs the HTTP server until ctx is canceled, then shuts
// down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.cfg.Server.Port),
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		zap.L().Info("server: listening", zap.String("addr", srv.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"services": map[string]bool{
			"search":    s.cfg.SearchConfigured(),
			"anthropic": s.cfg.AnthropicConfigured(),
			"storage":   s.cfg.StorageConfigured(),
		},
	})
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, model.ErrorResponse(
			model.ErrInvalidJSON, "request body could not be read", "", ""))
		return
	}

	resp := s.pipe.Process(r.Context(), body)
	writeJSON(w, statusFor(resp), resp)
}

func (s *Server) handleGetAnalysis(w http.ResponseWriter, r *http.Request) {
	opportunityID := chi.URLParam(r, "opportunityID")

	rec, err := s.store.GetLatestAnalysis(r.Context(), opportunityID)
	if err != nil {
		zap.L().Error("server: get analysis failed", zap.String("opportunity_id", opportunityID), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, model.ErrorResponse(
			model.ErrInternal, "failed to load analysis record", opportunityID, ""))
		return
	}
	if rec == nil {
		writeJSON(w, http.StatusNotFound, map[string]any{
			"success": false,
			"error":   map[string]string{"code": "NOT_FOUND", "message": "no analysis record for opportunity"},
		})
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleListAnalyses(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		fmt.Sscanf(v, "%d", &limit)
	}

	recs, err := s.store.ListRecent(r.Context(), limit)
	if err != nil {
		zap.L().Error("server: list analyses failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, model.ErrorResponse(
			model.ErrInternal, "failed to list analysis records", "", ""))
		return
	}
	if recs == nil {
		recs = []model.AnalysisRecord{}
	}
	writeJSON(w, http.StatusOK, recs)
}

// statusFor maps a response envelope to its transport status. Business
// failures stay 200 so calling workflows do not auto-retry non-transient
// errors; only request-shape defects are 4xx.
func statusFor(resp *model.Response) int {
	if resp.Error == nil {
		return http.StatusOK
	}
	switch resp.Error.Code {
	case model.ErrInvalidJSON, model.ErrEmptyPayload, model.ErrMissingOpportunityID:
		return http.StatusBadRequest
	case model.ErrMethodNotAllowed:
		return http.StatusMethodNotAllowed
	case model.ErrInternal:
		return http.StatusInternalServerError
	default:
		return http.StatusOK
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Warn("server: write response failed", zap.Error(err))
	}
}

// requestLogger logs one structured line per request.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		zap.L().Info("server: request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}

// recoverer converts panics into sanitized INTERNAL_ERROR envelopes. The
// full panic value stays in the server log only.
func recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				zap.L().Error("server: panic recovered",
					zap.Any("panic", rec),
					zap.String("path", r.URL.Path),
					zap.Stack("stack"),
				)
				writeJSON(w, http.StatusInternalServerError, model.ErrorResponse(
					model.ErrInternal, "an unexpected error occurred", "", ""))
			}
		}()
		next.ServeHTTP(w, r)
	})
}
