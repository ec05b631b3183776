package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"ticket_content_improver/improver"
	"ticket_content_improver/logging"
)

const maxBodyBytes = 8 << 20

// TicketImprover is the pipeline entry point the server calls.
type TicketImprover interface {
	Improve(ctx context.Context, in improver.Input) (improver.Result, error)
}

type Server struct {
	improver TicketImprover
	log      *slog.Logger
}

func New(im TicketImprover, logger *slog.Logger) (*Server, error) {
	if im == nil {
		return nil, errors.New("ticket improver required")
	}
	return &Server{improver: im, log: logging.OrDefault(logger)}, nil
}

func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/tickets/improve", s.handleImprove)
	mux.HandleFunc("/healthz", s.handleHealth)
	return logMiddleware(s.log, mux)
}

// --- Handlers ---

type errorResp struct {
	Error     string `json:"error"`
	Kind      string `json:"kind,omitempty"`
	Retryable bool   `json:"retryable"`
}

func (s *Server) handleImprove(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var in improver.Input
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&in); err != nil {
		writeJSONStatus(w, http.StatusBadRequest, errorResp{Error: err.Error()})
		return
	}
	res, err := s.improver.Improve(r.Context(), in)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, res)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]string{"status": "ok"})
}

// --- Helpers ---

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	retryable := improver.IsRetryable(err)
	if retryable {
		w.Header().Set("Retry-After", "5")
	}
	s.log.Warn("improve failed", "status", status, "error", err)
	writeJSONStatus(w, status, errorResp{
		Error:     err.Error(),
		Kind:      string(improver.KindOf(err)),
		Retryable: retryable,
	})
}

func statusFor(err error) int {
	switch improver.KindOf(err) {
	case improver.KindTimeout:
		return http.StatusGatewayTimeout
	case improver.KindUpstream:
		if improver.IsRetryable(err) {
			return http.StatusServiceUnavailable
		}
		return http.StatusBadGateway
	case improver.KindInvalidResponse:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	writeJSONStatus(w, http.StatusOK, v)
}

func writeJSONStatus(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func logMiddleware(log *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		log.Info("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"elapsed", time.Since(start))
	})
}
