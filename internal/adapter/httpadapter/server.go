package httpadapter

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/couchcryptid/flight-delay-etl/internal/features"
	"github.com/couchcryptid/flight-delay-etl/internal/model"
	"github.com/couchcryptid/flight-delay-etl/internal/observability"
)

const maxPredictBody = 1 << 16

// Server exposes health, readiness, metrics, and (when a predictor is
// supplied) the model endpoints.
type Server struct {
	httpServer *http.Server
	predictor  model.Predictor
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewServer creates an HTTP server with /healthz, /readyz, and /metrics
// routes. A non-nil predictor adds GET /model and POST /predict.
func NewServer(addr string, ready sharedobs.ReadinessChecker, predictor model.Predictor, metrics *observability.Metrics, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		predictor: predictor,
		metrics:   metrics,
		logger:    logger,
	}

	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(ready))
	mux.Handle("GET /metrics", promhttp.Handler())
	if predictor != nil {
		mux.HandleFunc("GET /model", s.handleModel)
		mux.HandleFunc("POST /predict", s.handlePredict)
	}

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func (s *Server) handleModel(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.predictor.Metadata(r.Context()))
}

func (s *Server) handlePredict(w http.ResponseWriter, r *http.Request) {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxPredictBody))
	dec.DisallowUnknownFields()

	var in features.Input
	if err := dec.Decode(&in); err != nil {
		s.metrics.Predictions.WithLabelValues("error").Inc()
		status := http.StatusBadRequest
		if strings.HasPrefix(err.Error(), "json: unknown field") {
			status = http.StatusUnprocessableEntity
		}
		writeError(w, status, err.Error())
		return
	}

	p, err := s.predictor.Predict(r.Context(), in)
	if err != nil {
		s.metrics.Predictions.WithLabelValues("error").Inc()
		switch {
		case errors.Is(err, model.ErrModelNotFound):
			writeError(w, http.StatusServiceUnavailable, "model not trained; run cmd/train")
		case errors.Is(err, model.ErrSchemaMismatch):
			writeError(w, http.StatusUnprocessableEntity, err.Error())
		default:
			s.logger.Error("prediction failed", "error", err)
			writeError(w, http.StatusInternalServerError, "prediction failed")
		}
		return
	}

	outcome := "on_time"
	if p.Delayed {
		outcome = "delayed"
	}
	s.metrics.Predictions.WithLabelValues(outcome).Inc()
	writeJSON(w, http.StatusOK, p)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response
}
