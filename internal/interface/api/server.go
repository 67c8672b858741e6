// Package api exposes the application services over HTTP. The surface is
// deliberately small: progress-update commands feeding the orchestrator and
// the read-side match and event-history queries.
package api

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/empowerher/empowerhub/internal/application/command"
	"github.com/empowerher/empowerhub/internal/application/query"
	"github.com/empowerher/empowerhub/internal/domain/shared"
)

// Services bundles the application handlers the API serves.
type Services struct {
	CompleteSkill        *command.CompleteSkill
	SaveOpportunity      *command.SaveOpportunity
	CompleteSafetyModule *command.CompleteSafetyModule
	MatchOpportunities   *query.MatchOpportunities
	ListUserEvents       *query.ListUserEvents
}

// Server wires HTTP routes for the application services.
type Server struct {
	services Services
	logger   *slog.Logger
}

// NewServer creates an API server over the given services.
func NewServer(services Services, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		services: services,
		logger:   logger.With("component", "api"),
	}
}

// Register attaches all routes to mux.
func (s *Server) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/v1/users/{id}/skills", s.handleCompleteSkill)
	mux.HandleFunc("POST /api/v1/users/{id}/saved-opportunities", s.handleSaveOpportunity)
	mux.HandleFunc("POST /api/v1/users/{id}/safety-modules", s.handleCompleteSafetyModule)
	mux.HandleFunc("GET /api/v1/users/{id}/matches", s.handleMatchOpportunities)
	mux.HandleFunc("GET /api/v1/users/{id}/events", s.handleListEvents)
}

// ══════════════════════════════════════════════════════════════════════════════
// COMMAND HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

type completeSkillRequest struct {
	Skill string `json:"skill"`
}

// handleCompleteSkill handles POST /api/v1/users/{id}/skills.
func (s *Server) handleCompleteSkill(w http.ResponseWriter, r *http.Request) {
	var req completeSkillRequest
	if !s.decode(w, r, &req) {
		return
	}

	err := s.services.CompleteSkill.Execute(r.Context(), command.CompleteSkillInput{
		UserID: r.PathValue("id"),
		Skill:  req.Skill,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"status": "completed", "skill": req.Skill})
}

type saveOpportunityRequest struct {
	OpportunityID string `json:"opportunity_id"`
}

// handleSaveOpportunity handles POST /api/v1/users/{id}/saved-opportunities.
func (s *Server) handleSaveOpportunity(w http.ResponseWriter, r *http.Request) {
	var req saveOpportunityRequest
	if !s.decode(w, r, &req) {
		return
	}

	err := s.services.SaveOpportunity.Execute(r.Context(), command.SaveOpportunityInput{
		UserID:        r.PathValue("id"),
		OpportunityID: req.OpportunityID,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"status": "saved", "opportunity_id": req.OpportunityID})
}

type completeSafetyModuleRequest struct {
	ModuleID     string `json:"module_id"`
	CauseEventID string `json:"cause_event_id,omitempty"`
}

// handleCompleteSafetyModule handles POST /api/v1/users/{id}/safety-modules.
func (s *Server) handleCompleteSafetyModule(w http.ResponseWriter, r *http.Request) {
	var req completeSafetyModuleRequest
	if !s.decode(w, r, &req) {
		return
	}

	err := s.services.CompleteSafetyModule.Execute(r.Context(), command.CompleteSafetyModuleInput{
		UserID:       r.PathValue("id"),
		ModuleID:     req.ModuleID,
		CauseEventID: req.CauseEventID,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"status": "completed", "module_id": req.ModuleID})
}

// ══════════════════════════════════════════════════════════════════════════════
// QUERY HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleMatchOpportunities handles GET /api/v1/users/{id}/matches.
func (s *Server) handleMatchOpportunities(w http.ResponseWriter, r *http.Request) {
	result, err := s.services.MatchOpportunities.Execute(r.Context(), query.MatchOpportunitiesInput{
		UserID: r.PathValue("id"),
		Limit:  queryParamInt(r, "limit"),
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// handleListEvents handles GET /api/v1/users/{id}/events.
func (s *Server) handleListEvents(w http.ResponseWriter, r *http.Request) {
	result, err := s.services.ListUserEvents.Execute(r.Context(), query.ListUserEventsInput{
		UserID: r.PathValue("id"),
		Limit:  queryParamInt(r, "limit"),
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// ══════════════════════════════════════════════════════════════════════════════
// HELPERS
// ══════════════════════════════════════════════════════════════════════════════

// decode reads the JSON request body into dst, writing a 400 on failure.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, 1<<20))
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_body", "failed to read request body")
		return false
	}
	if err := json.Unmarshal(body, dst); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid_json", "request body is not valid JSON")
		return false
	}
	return true
}

// writeError maps domain errors to HTTP status codes.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	var domErr *shared.DomainError
	message := err.Error()
	if errors.As(err, &domErr) {
		message = domErr.Message
	}

	switch {
	case shared.IsNotFound(err):
		writeJSONError(w, http.StatusNotFound, "not_found", message)
	case shared.IsAlreadyExists(err):
		writeJSONError(w, http.StatusConflict, "already_exists", message)
	case shared.IsValidation(err):
		writeJSONError(w, http.StatusBadRequest, "invalid_input", message)
	default:
		s.logger.Error("request failed", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "internal", "internal error")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeJSONError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]string{"code": code, "message": message})
}

// queryParamInt reads an integer query parameter, returning 0 when absent
// or malformed.
func queryParamInt(r *http.Request, name string) int {
	v := r.URL.Query().Get(name)
	if v == "" {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0
	}
	return n
}
