package server

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/grpc-ecosystem/grpc-gateway/v2/runtime"
	"github.com/rs/zerolog"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/Creek-Finance/lendcore/internal/ingestion"
	"github.com/Creek-Finance/lendcore/internal/observability"
	"github.com/Creek-Finance/lendcore/internal/persistence"
	"github.com/Creek-Finance/lendcore/internal/projection"
	"github.com/Creek-Finance/lendcore/internal/query"
)

// Server exposes the query and admin APIs over gRPC (health, reflection)
// and HTTP/JSON via a grpc-gateway mux. Routes are registered directly on
// the gateway mux so HTTP clients get the same path-parameter and error
// conventions as generated gateway handlers.
type Server struct {
	grpcServer    *grpc.Server
	httpServer    *http.Server
	grpcAddr      string
	httpAddr      string
	healthChecker *observability.HealthChecker
	logger        zerolog.Logger

	deps *Deps
}

// Deps holds all dependencies needed by the API handlers.
type Deps struct {
	DB            *sql.DB
	QueryService  *query.QueryService
	IngestService *ingestion.GRPCIngestService
	SnapshotMgr   *persistence.SnapshotManager
	StartTime     time.Time
	HealthChecker *observability.HealthChecker
	Logger        zerolog.Logger
}

// NewServer creates the API server.
func NewServer(grpcAddr, httpAddr string, deps *Deps) *Server {
	grpcServer := grpc.NewServer()

	// Health check
	healthServer := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)

	// Reflection for grpcurl / grpcui
	reflection.Register(grpcServer)

	return &Server{
		grpcServer:    grpcServer,
		grpcAddr:      grpcAddr,
		httpAddr:      httpAddr,
		healthChecker: deps.HealthChecker,
		logger:        deps.Logger,
		deps:          deps,
	}
}

// StartGRPC starts the gRPC server (blocking).
func (s *Server) StartGRPC(ctx context.Context) error {
	lis, err := net.Listen("tcp", s.grpcAddr)
	if err != nil {
		return fmt.Errorf("grpc listen: %w", err)
	}

	go func() {
		<-ctx.Done()
		s.logger.Info().Msg("gRPC server shutting down")
		s.grpcServer.GracefulStop()
	}()

	s.logger.Info().Str("addr", s.grpcAddr).Msg("gRPC server listening")
	return s.grpcServer.Serve(lis)
}

// StartHTTP starts the HTTP/JSON API (blocking).
func (s *Server) StartHTTP(ctx context.Context) error {
	mux := runtime.NewServeMux()

	routes := []struct {
		method  string
		pattern string
		handler runtime.HandlerFunc
	}{
		{"GET", "/v1/obligations/{user_id}", s.handleGetObligation},
		{"GET", "/v1/obligations/{user_id}/health", s.handleGetHealth},
		{"GET", "/v1/obligations/{user_id}/journals", s.handleListJournals},
		{"GET", "/v1/pools/{asset}", s.handleGetPool},
		{"GET", "/v1/prices/{asset}", s.handleListPrices},
		{"GET", "/v1/liquidations/{obligation_id}", s.handleListLiquidations},
		{"GET", "/v1/admin/integrity", s.handleVerifyIntegrity},
		{"GET", "/v1/admin/eventlog", s.handleEventLogInfo},
		{"POST", "/v1/admin/rebuild-projections", s.handleRebuildProjections},
		{"POST", "/v1/ingest/events", s.handleSubmitEvent},
	}

	for _, r := range routes {
		if err := mux.HandlePath(r.method, r.pattern, r.handler); err != nil {
			return fmt.Errorf("register %s %s: %w", r.method, r.pattern, err)
		}
	}

	httpMux := http.NewServeMux()
	if s.healthChecker != nil {
		httpMux.HandleFunc("/healthz", s.healthChecker.LivenessHandler)
		httpMux.HandleFunc("/readyz", s.healthChecker.ReadinessHandler)
	}
	httpMux.Handle("/", mux)

	s.httpServer = &http.Server{
		Addr:    s.httpAddr,
		Handler: httpMux,
	}

	go func() {
		<-ctx.Done()
		s.logger.Info().Msg("HTTP server shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.httpServer.Shutdown(shutdownCtx)
	}()

	s.logger.Info().Str("addr", s.httpAddr).Msg("HTTP server listening")
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// ============================================================================
// Query handlers
// ============================================================================

func (s *Server) handleGetObligation(w http.ResponseWriter, r *http.Request, pathParams map[string]string) {
	userID, err := uuid.Parse(pathParams["user_id"])
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid user_id")
		return
	}

	resp, err := s.deps.QueryService.GetObligation(r.Context(), userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, resp)
}

func (s *Server) handleGetHealth(w http.ResponseWriter, r *http.Request, pathParams map[string]string) {
	userID, err := uuid.Parse(pathParams["user_id"])
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid user_id")
		return
	}

	resp, err := s.deps.QueryService.GetHealth(r.Context(), userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, resp)
}

func (s *Server) handleListJournals(w http.ResponseWriter, r *http.Request, pathParams map[string]string) {
	userID, err := uuid.Parse(pathParams["user_id"])
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid user_id")
		return
	}

	limit := parseLimit(r, 100, 500)
	var afterSeq *int64
	if v := r.URL.Query().Get("from_sequence"); v != "" {
		seq, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid from_sequence")
			return
		}
		afterSeq = &seq
	}

	entries, err := s.deps.QueryService.GetJournalHistory(r.Context(), userID, limit, afterSeq)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, map[string]interface{}{"journals": entries})
}

func (s *Server) handleGetPool(w http.ResponseWriter, r *http.Request, pathParams map[string]string) {
	asset := pathParams["asset"]
	if asset == "" {
		writeError(w, http.StatusBadRequest, "asset is required")
		return
	}

	resp, err := s.deps.QueryService.GetPool(r.Context(), asset)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, resp)
}

func (s *Server) handleListPrices(w http.ResponseWriter, r *http.Request, pathParams map[string]string) {
	asset := pathParams["asset"]
	if asset == "" {
		writeError(w, http.StatusBadRequest, "asset is required")
		return
	}

	limit := parseLimit(r, 50, 100)
	var beforeSeq *int64
	if v := r.URL.Query().Get("before_sequence"); v != "" {
		seq, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid before_sequence")
			return
		}
		beforeSeq = &seq
	}

	history, err := s.deps.QueryService.GetPriceHistory(r.Context(), asset, limit, beforeSeq)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, map[string]interface{}{"prices": history})
}

func (s *Server) handleListLiquidations(w http.ResponseWriter, r *http.Request, pathParams map[string]string) {
	obligationID, err := uuid.Parse(pathParams["obligation_id"])
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid obligation_id")
		return
	}

	limit := parseLimit(r, 50, 100)
	results, err := s.deps.QueryService.GetLiquidationHistory(r.Context(), obligationID, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, map[string]interface{}{"liquidations": results})
}

// ============================================================================
// Admin handlers
// ============================================================================

func (s *Server) handleVerifyIntegrity(w http.ResponseWriter, r *http.Request, _ map[string]string) {
	report, err := s.deps.QueryService.VerifyIntegrity(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, report)
}

func (s *Server) handleEventLogInfo(w http.ResponseWriter, r *http.Request, _ map[string]string) {
	latestSeq, err := s.deps.SnapshotMgr.GetLatestSequence(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, map[string]interface{}{"last_sequence": latestSeq})
}

func (s *Server) handleRebuildProjections(w http.ResponseWriter, r *http.Request, _ map[string]string) {
	if err := projection.RebuildProjections(r.Context(), s.deps.DB, s.logger); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, map[string]interface{}{"started": true})
}

// ============================================================================
// Ingest handlers
// ============================================================================

// submitEventRequest carries an admin-injected event: the type name plus
// the same JSON payload shape the NATS subjects use.
type submitEventRequest struct {
	EventType string          `json:"event_type"`
	Payload   json.RawMessage `json:"payload"`
}

func (s *Server) handleSubmitEvent(w http.ResponseWriter, r *http.Request, _ map[string]string) {
	var req submitEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.EventType == "" {
		writeError(w, http.StatusBadRequest, "event_type is required")
		return
	}

	raw := ingestion.RawEvent{
		Subject: req.EventType,
		Data:    req.Payload,
	}

	evt, err := ingestion.ParseRawEvent(raw, req.EventType)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("parse payload: %v", err))
		return
	}

	if err := s.deps.IngestService.Submit(r.Context(), evt); err != nil {
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	writeJSON(w, map[string]interface{}{"accepted": true})
}

// ============================================================================
// Helpers
// ============================================================================

func parseLimit(r *http.Request, def, max int) int {
	v := r.URL.Query().Get("limit")
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 || n > max {
		return def
	}
	return n
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
