package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	"github.com/raysh454/bizaudit/internal/app"
	"github.com/raysh454/bizaudit/internal/auditerr"
	"github.com/raysh454/bizaudit/internal/cache"
	"github.com/raysh454/bizaudit/internal/logging"
	"github.com/raysh454/bizaudit/internal/model"
	"github.com/raysh454/bizaudit/internal/scheduler"

	_ "github.com/raysh454/bizaudit/internal/server/docs" // swagger docs
)

// Auditor is the slice of app.Auditor the HTTP surface needs.
type Auditor interface {
	RunAudit(ctx context.Context, req model.AuditRequest) (*app.AuditResult, error)
	QueueStatus() scheduler.Stats
	CacheStats() cache.Stats
	Pause()
	Resume()
	Clear() int
}

// Server is the HTTP + WebSocket API surface for bizaudit.
type Server struct {
	cfg      Config
	auditor  Auditor
	router   chi.Router
	upgrader websocket.Upgrader
	logger   logging.Logger
	now      func() time.Time
}

// NewServer builds the router around auditor.
func NewServer(cfg Config, auditor Auditor, logger logging.Logger) (*Server, error) {
	if auditor == nil {
		return nil, errors.New("server: nil auditor")
	}
	if logger == nil {
		logger = logging.NewStdoutLogger("server")
	}
	if cfg.StatusInterval <= 0 {
		cfg.StatusInterval = DefaultConfig().StatusInterval
	}
	if cfg.AllowedOrigin == "" {
		cfg.AllowedOrigin = "*"
	}

	s := &Server{
		cfg:     cfg,
		auditor: auditor,
		router:  chi.NewRouter(),
		logger:  logger.With(logging.Component("server")),
		now:     time.Now,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return cfg.AllowedOrigin == "*" || r.Header.Get("Origin") == cfg.AllowedOrigin
			},
		},
	}
	s.routes()
	return s, nil
}

func (s *Server) routes() {
	r := s.router

	r.Use(s.corsMiddleware)

	// CORS preflight
	r.Options("/api/audit", s.optionsHandler("POST"))
	r.Options("/api/analyze-business", s.optionsHandler("POST"))
	r.Options("/api/audit/queue-status", s.optionsHandler("GET"))
	r.Options("/api/audit/queue/{action}", s.optionsHandler("POST"))

	// Audits
	r.Post("/api/audit", s.handleAudit)
	r.Post("/api/analyze-business", s.handleAudit)

	// Queue
	r.Get("/api/audit/queue-status", s.handleQueueStatus)
	r.Post("/api/audit/queue/pause", s.handlePause)
	r.Post("/api/audit/queue/resume", s.handleResume)
	r.Post("/api/audit/queue/clear", s.handleClear)
	r.Get("/ws/queue-status", s.handleQueueStatusWS)

	// Ops
	r.Get("/api/health", s.handleHealth)
	r.Get("/metrics", s.handleMetrics)
	r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))
}

func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", s.cfg.AllowedOrigin)
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Access-Control-Max-Age", "86400")

		next.ServeHTTP(w, r)
	})
}

func (s *Server) optionsHandler(methods string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Methods", methods)
		w.WriteHeader(http.StatusNoContent)
	}
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	fields := []logging.Field{
		logging.F("method", r.Method),
		logging.F("path", r.URL.Path),
	}

	if q := r.URL.Query(); len(q) > 0 {
		fields = append(fields, logging.F("query", q))
	}

	if r.Body != nil && r.Method == http.MethodPost {
		if bodyBytes, err := io.ReadAll(io.LimitReader(r.Body, 64<<10)); err == nil {
			if len(bodyBytes) > 0 {
				fields = append(fields, logging.F("body", string(bodyBytes)))
			}
			r.Body = io.NopCloser(bytes.NewReader(bodyBytes))
		}
	}

	s.logger.Info("http_request", fields...)

	s.router.ServeHTTP(w, r)
}

// HTTPServer creates an *http.Server ready to ListenAndServe.
func (s *Server) HTTPServer() *http.Server {
	return &http.Server{
		Addr:         s.cfg.ListenAddr,
		Handler:      s,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
	}
}

// --- JSON helpers ---

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

// writeAuditError maps a coded error onto its HTTP status and payload.
func writeAuditError(w http.ResponseWriter, err error) {
	e, ok := auditerr.As(err)
	if !ok {
		e = &auditerr.Error{Code: auditerr.CodeInternal, Message: "An unexpected error occurred. Please try again."}
	}
	resp := ErrorResponse{Error: string(e.Code), Message: e.Message}

	status := http.StatusInternalServerError
	switch e.Code {
	case auditerr.CodeMissingFields:
		status = http.StatusBadRequest
	case auditerr.CodeSubjectNotFound:
		status = http.StatusNotFound
	case auditerr.CodeQueueFull, auditerr.CodeExtractionFailed:
		status = http.StatusServiceUnavailable
		retryAfter := e.RetryAfter
		if retryAfter <= 0 {
			retryAfter = auditerr.DefaultRetryAfter
		}
		resp.RetryAfter = int(retryAfter.Seconds())
		w.Header().Set("Retry-After", strconv.Itoa(resp.RetryAfter))
	}
	if status == http.StatusInternalServerError && resp.Message == "" {
		resp.Message = "An unexpected error occurred. Please try again."
	}
	writeJSON(w, status, resp)
}

// --- HTTP handlers ---

// handleAudit runs one audit.
//
// @Summary Audit a business listing
// @Tags audit
// @Accept json
// @Produce json
// @Param request body AuditRequest true "Business identity"
// @Success 200 {object} AuditResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 503 {object} ErrorResponse
// @Router /api/audit [post]
func (s *Server) handleAudit(w http.ResponseWriter, r *http.Request) {
	var body AuditRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil && !errors.Is(err, io.EOF) {
		s.logger.Warn("decoding audit body", logging.Err(err))
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "INVALID_JSON", Message: "Request body must be a JSON object"})
		return
	}

	req := model.AuditRequest{SubjectName: body.BusinessName, Area: body.Area, ResourceRef: body.PlaceURL}
	res, err := s.auditor.RunAudit(r.Context(), req)
	if err != nil {
		s.logger.Warn("audit failed", logging.F("subject", req.Label()), logging.F("code", string(auditerr.CodeOf(err))), logging.Err(err))
		writeAuditError(w, err)
		return
	}
	s.logger.Info("audit served",
		logging.F("audit_id", res.AuditID),
		logging.F("cached", res.Cached),
		logging.F("score", res.TotalScore))
	writeJSON(w, http.StatusOK, AuditResponse{Success: true, AuditResult: res})
}

// handleQueueStatus reports the queue snapshot.
//
// @Summary Queue status
// @Tags queue
// @Produce json
// @Success 200 {object} QueueStatusResponse
// @Router /api/audit/queue-status [get]
func (s *Server) handleQueueStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, QueueStatusResponse{Success: true, Queue: s.auditor.QueueStatus()})
}

// @Summary Pause dispatching
// @Tags queue
// @Produce json
// @Success 200 {object} QueueControlResponse
// @Router /api/audit/queue/pause [post]
func (s *Server) handlePause(w http.ResponseWriter, r *http.Request) {
	s.auditor.Pause()
	writeJSON(w, http.StatusOK, QueueControlResponse{Success: true, Paused: true})
}

// @Summary Resume dispatching
// @Tags queue
// @Produce json
// @Success 200 {object} QueueControlResponse
// @Router /api/audit/queue/resume [post]
func (s *Server) handleResume(w http.ResponseWriter, r *http.Request) {
	s.auditor.Resume()
	writeJSON(w, http.StatusOK, QueueControlResponse{Success: true, Paused: false})
}

// @Summary Drop queued audits
// @Tags queue
// @Produce json
// @Success 200 {object} QueueControlResponse
// @Router /api/audit/queue/clear [post]
func (s *Server) handleClear(w http.ResponseWriter, r *http.Request) {
	dropped := s.auditor.Clear()
	writeJSON(w, http.StatusOK, QueueControlResponse{Success: true, Paused: s.auditor.QueueStatus().Paused, Dropped: dropped})
}

// @Summary Liveness
// @Tags ops
// @Produce json
// @Success 200 {object} HealthResponse
// @Router /api/health [get]
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok", Time: s.now().UTC()})
}

// WebSockets

// handleQueueStatusWS pushes a queue snapshot immediately and then every
// StatusInterval until the client goes away.
func (s *Server) handleQueueStatusWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("upgrading to websocket", logging.Err(err))
		return
	}
	defer conn.Close()

	// Drain client frames so close messages are processed.
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.NextReader(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(s.cfg.StatusInterval)
	defer ticker.Stop()

	send := func() error {
		return conn.WriteJSON(QueueStatusResponse{Success: true, Queue: s.auditor.QueueStatus()})
	}
	if err := send(); err != nil {
		return
	}
	for {
		select {
		case <-ticker.C:
			if err := send(); err != nil {
				s.logger.Debug("queue status stream ended", logging.Err(err))
				return
			}
		case <-gone:
			return
		case <-r.Context().Done():
			return
		}
	}
}
