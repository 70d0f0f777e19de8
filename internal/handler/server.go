// Package handler is the HTTP boundary: routing, request decoding and the
// mapping of pipeline rejections onto status codes and payloads.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"github.com/rs/zerolog/log"

	"lotto-engine/internal/config"
	"lotto-engine/internal/draw"
	"lotto-engine/internal/hierarchy"
	"lotto-engine/internal/model"
	"lotto-engine/internal/pkg/db"
	"lotto-engine/internal/rate"
	"lotto-engine/internal/repository"
	"lotto-engine/internal/service"
)

// Server owns the HTTP listener and the routing table.
type Server struct {
	cfg        *config.ServerConfig
	pool       *db.Pool
	admission  *service.AdmissionPipeline
	entryAdmin *service.EntryAdminService
	results    *service.ResultService
	reports    *service.ReportService
	reconcile  *service.ReconciliationService

	windows      *repository.DrawWindowRepository
	blockedDates *repository.BlockedDateRepository
	blockNumbers *repository.BlockNumberRepository
	credits      *repository.CreditLimitRepository
	rateTables   *repository.RateTableRepository
	rateResolver *rate.Resolver
	schemes      *repository.SchemeRepository
	limits       *repository.TicketLimitRepository
	agents       *repository.AgentRepository
	tree         *hierarchy.Index

	httpServer *http.Server
}

// Deps bundles everything the server routes to.
type Deps struct {
	Pool         *db.Pool
	Admission    *service.AdmissionPipeline
	EntryAdmin   *service.EntryAdminService
	Results      *service.ResultService
	Reports      *service.ReportService
	Reconcile    *service.ReconciliationService
	Windows      *repository.DrawWindowRepository
	BlockedDates *repository.BlockedDateRepository
	BlockNumbers *repository.BlockNumberRepository
	Credits      *repository.CreditLimitRepository
	RateTables   *repository.RateTableRepository
	RateResolver *rate.Resolver
	Schemes      *repository.SchemeRepository
	Limits       *repository.TicketLimitRepository
	Agents       *repository.AgentRepository
	Tree         *hierarchy.Index
}

// NewServer creates a Server over its dependencies.
func NewServer(cfg *config.ServerConfig, d Deps) *Server {
	return &Server{
		cfg:          cfg,
		pool:         d.Pool,
		admission:    d.Admission,
		entryAdmin:   d.EntryAdmin,
		results:      d.Results,
		reports:      d.Reports,
		reconcile:    d.Reconcile,
		windows:      d.Windows,
		blockedDates: d.BlockedDates,
		blockNumbers: d.BlockNumbers,
		credits:      d.Credits,
		rateTables:   d.RateTables,
		rateResolver: d.RateResolver,
		schemes:      d.Schemes,
		limits:       d.Limits,
		agents:       d.Agents,
		tree:         d.Tree,
	}
}

// Router builds the routing table. Exposed separately so tests can drive the
// handlers without a listener.
func (s *Server) Router() http.Handler {
	router := mux.NewRouter()
	api := router.PathPrefix("/api").Subrouter()

	api.HandleFunc("/health", s.handleHealth).Methods("GET")

	api.HandleFunc("/entries", s.handleSubmit).Methods("POST")
	api.HandleFunc("/entries/{billNo}", s.handleGetBill).Methods("GET")
	api.HandleFunc("/entries/{billNo}", s.handleDeleteBill).Methods("DELETE")
	api.HandleFunc("/entries/{billNo}/invalidate", s.handleInvalidateBill).Methods("POST")
	api.HandleFunc("/entries/{billNo}/count", s.handleUpdateCount).Methods("PUT")

	api.HandleFunc("/results", s.handlePublishResult).Methods("POST")
	api.HandleFunc("/results", s.handleListResults).Methods("GET")
	api.HandleFunc("/reconcile", s.handleReconcile).Methods("POST")

	api.HandleFunc("/reports/sales", s.handleSalesReport).Methods("GET")
	api.HandleFunc("/reports/winnings", s.handleWinningsReport).Methods("POST")
	api.HandleFunc("/reports/counts", s.handleCountReport).Methods("GET")

	api.HandleFunc("/windows", s.handleUpsertWindow).Methods("POST")
	api.HandleFunc("/windows", s.handleListWindows).Methods("GET")
	api.HandleFunc("/blocked-dates", s.handleAddBlockedDate).Methods("POST")
	api.HandleFunc("/blocked-dates", s.handleListBlockedDates).Methods("GET")
	api.HandleFunc("/blocked-dates", s.handleRemoveBlockedDate).Methods("DELETE")
	api.HandleFunc("/block-numbers", s.handleUpsertBlockNumber).Methods("POST")
	api.HandleFunc("/block-numbers/{agent}", s.handleListBlockNumbers).Methods("GET")
	api.HandleFunc("/block-numbers/{id}", s.handleDeleteBlockNumber).Methods("DELETE")
	api.HandleFunc("/credit-limits", s.handleUpsertCreditLimit).Methods("POST")
	api.HandleFunc("/credit-limits/{agent}", s.handleListCreditLimits).Methods("GET")
	api.HandleFunc("/rate-tables", s.handleSaveRateTable).Methods("POST")
	api.HandleFunc("/rate-tables/{agent}/{draw}", s.handleGetRateTable).Methods("GET")
	api.HandleFunc("/schemes", s.handleSaveScheme).Methods("POST")
	api.HandleFunc("/schemes/{tier}/{draw}", s.handleGetScheme).Methods("GET")
	api.HandleFunc("/ticket-limits", s.handleGetTicketLimits).Methods("GET")
	api.HandleFunc("/ticket-limits", s.handleSaveTicketLimits).Methods("POST")
	api.HandleFunc("/agents", s.handleCreateAgent).Methods("POST")

	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	})
	return c.Handler(router)
}

// Start blocks on the listener until Stop or a fatal error.
func (s *Server) Start() error {
	s.httpServer = &http.Server{
		Addr:         s.cfg.Addr(),
		Handler:      s.Router(),
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
		IdleTimeout:  s.cfg.IdleTimeout,
	}

	log.Info().Str("addr", s.cfg.Addr()).Msg("HTTP server listening")
	return s.httpServer.ListenAndServe()
}

// Stop drains the listener.
func (s *Server) Stop(ctx context.Context) {
	if s.httpServer == nil {
		return
	}
	if err := s.httpServer.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown error")
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.pool.HealthCheck(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{"status": "degraded"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "time": time.Now().Unix()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("failed to encode response")
	}
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"message": msg})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

// writeError maps pipeline errors onto the wire contract. Rejection payloads
// carry the literal multi-line messages the agent terminals display.
func writeError(w http.ResponseWriter, err error) {
	var allExceeded *service.AllExceededError
	var overrideLimit *service.OverrideLimitError
	var agentLimit *service.AgentLimitError
	var creditLimit *service.CreditLimitError

	switch {
	case errors.As(err, &allExceeded):
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"message":  allExceeded.Error(),
			"exceeded": allExceeded.Exceeded,
		})
	case errors.As(err, &overrideLimit):
		writeMessage(w, http.StatusBadRequest, overrideLimit.Error())
	case errors.As(err, &agentLimit):
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"message":  agentLimit.Error(),
			"exceeded": agentLimit.Violations,
		})
	case errors.As(err, &creditLimit):
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"message": creditLimit.Error(),
			"detail":  creditLimit,
		})
	case errors.Is(err, service.ErrDrawBlocked), errors.Is(err, service.ErrDateBlocked):
		writeMessage(w, http.StatusForbidden, err.Error())
	case errors.Is(err, draw.ErrConfigMissing),
		errors.Is(err, model.ErrUnknownBetType),
		errors.Is(err, service.ErrInvalidResult),
		errors.Is(err, service.ErrBadDateRange):
		writeMessage(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, repository.ErrEntryNotFound),
		errors.Is(err, repository.ErrAgentNotFound),
		errors.Is(err, repository.ErrResultNotFound):
		writeMessage(w, http.StatusNotFound, err.Error())
	default:
		log.Error().Err(err).Msg("request failed")
		writeMessage(w, http.StatusInternalServerError, "internal server error")
	}
}
