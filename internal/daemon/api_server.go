package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"subburn/internal/api"
	"subburn/internal/logging"
	"subburn/internal/services"
)

const (
	maxRequestBytes = 1 << 20
	defaultJobLimit = 50
	maxJobLimit     = 1000
)

type apiServer struct {
	bind   string
	logger *slog.Logger
	daemon *Daemon

	listener net.Listener
	server   *http.Server
}

func newAPIServer(bind, token string, d *Daemon, logger *slog.Logger) *apiServer {
	srv := &apiServer{
		bind:   strings.TrimSpace(bind),
		logger: logger,
		daemon: d,
	}
	srv.server = &http.Server{
		Handler:           srv.routes(token),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return srv
}

func (s *apiServer) routes(token string) http.Handler {
	protected := http.NewServeMux()
	protected.HandleFunc("POST /caption", s.handleCaption)
	protected.HandleFunc("GET /api/status", s.handleStatus)
	protected.HandleFunc("GET /api/jobs", s.handleJobs)
	protected.HandleFunc("GET /api/jobs/{id}", s.handleJob)
	if s.daemon != nil && s.daemon.metrics != nil {
		protected.Handle("GET /metrics", s.daemon.metrics.Handler())
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.Handle("/", authMiddleware(token, protected))
	return mux
}

func (s *apiServer) start(ctx context.Context) error {
	if s.bind == "" {
		return errors.New("api bind address not configured")
	}
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	s.listener = listener

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log().Error("api server error", logging.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}()

	s.log().Info("api server listening", logging.String("address", listener.Addr().String()))
	return nil
}

func (s *apiServer) stop() {
	if s == nil {
		return
	}
	if s.server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}
	if s.listener != nil {
		_ = s.listener.Close()
	}
}

func (s *apiServer) address() string {
	if s == nil || s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

func (s *apiServer) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, api.HealthResponse{Status: "ok"})
}

func (s *apiServer) handleCaption(w http.ResponseWriter, r *http.Request) {
	// Encodes outlive the server-wide write timeout.
	_ = http.NewResponseController(w).SetWriteDeadline(time.Time{})

	requestID := strings.TrimSpace(r.Header.Get("X-Request-ID"))
	payload, err := api.DecodeCaptionRequest(http.MaxBytesReader(w, r.Body, maxRequestBytes))
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, api.ErrorResponse{
			ErrorKind: services.KindValidation,
			Error:     err.Error(),
			RequestID: requestID,
		})
		return
	}

	result, err := s.daemon.run(r.Context(), payload.PipelineRequest(requestID))
	if err != nil {
		if result.ErrorKind == "" {
			// The client left while waiting for a slot.
			s.log().Debug("caption request abandoned", logging.Error(err))
			return
		}
		s.writeJSON(w, api.StatusForKind(result.ErrorKind), api.ErrorResponse{
			ErrorKind: result.ErrorKind,
			Error:     result.Message,
			RequestID: result.RequestID,
		})
		return
	}
	s.writeJSON(w, http.StatusOK, api.CaptionResponse{
		OutputPath:     result.OutputPath,
		OutputFilename: result.OutputFilename,
		RequestID:      result.RequestID,
		ObjectKey:      result.ObjectKey,
		Diagnostics:    result.Diagnostics,
	})
}

func (s *apiServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.daemon.Status(r.Context()))
}

func (s *apiServer) handleJobs(w http.ResponseWriter, r *http.Request) {
	if s.daemon.jobs == nil {
		s.writeError(w, http.StatusNotFound, "job journal disabled")
		return
	}
	limit := defaultJobLimit
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			s.writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(parsed, maxJobLimit)
	}
	entries, err := s.daemon.jobs.List(r.Context(), limit)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if entries == nil {
		entries = []api.JobListEntry{}
	}
	s.writeJSON(w, http.StatusOK, api.JobListResponse{Jobs: entries})
}

func (s *apiServer) handleJob(w http.ResponseWriter, r *http.Request) {
	if s.daemon.jobs == nil {
		s.writeError(w, http.StatusNotFound, "job journal disabled")
		return
	}
	id := strings.TrimSpace(r.PathValue("id"))
	entry, err := s.daemon.jobs.Get(r.Context(), id)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if entry == nil {
		s.writeError(w, http.StatusNotFound, "job not found")
		return
	}
	s.writeJSON(w, http.StatusOK, api.JobResponse{Job: *entry})
}

func (s *apiServer) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.log().Error("failed to encode response", logging.Error(err))
	}
}

func (s *apiServer) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, api.ErrorResponse{Error: message})
}

func (s *apiServer) log() *slog.Logger {
	if s.logger != nil {
		return s.logger.With(logging.String(logging.FieldComponent, "api-server"))
	}
	return logging.NewNop()
}
