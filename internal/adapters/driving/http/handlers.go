package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/swaggo/swag"

	_ "github.com/custodia-labs/sercha-widget/docs" // registers the OpenAPI doc
	"github.com/custodia-labs/sercha-widget/internal/core/domain"
)

const readyTimeout = 5 * time.Second

// ErrorResponse represents an API error response
// @Description API error response
type ErrorResponse struct {
	Error   string            `json:"error" example:"reindex already in progress"`
	Details map[string]string `json:"details,omitempty"`
}

// StatusResponse represents a simple status response
// @Description Simple status response
type StatusResponse struct {
	Status string `json:"status" example:"ok"`
}

// ReadyResponse reports dependency readiness
// @Description Readiness response
type ReadyResponse struct {
	Status string            `json:"status" example:"ready"`
	Checks map[string]string `json:"checks,omitempty"`
}

// VersionResponse represents the API version response
// @Description API version response
type VersionResponse struct {
	Version string `json:"version" example:"1.0.0"`
}

// ReindexResponse is returned by a completed synchronous reindex
// @Description Reindex result
type ReindexResponse struct {
	Success   bool                      `json:"success" example:"true"`
	Stats     *domain.IndexRebuildStats `json:"stats"`
	Timestamp time.Time                 `json:"timestamp"`
}

// AcceptedResponse is returned when a task was queued
// @Description Queued task
type AcceptedResponse struct {
	Status string `json:"status" example:"accepted"`
	TaskID string `json:"task_id" example:"b3c1f6a2-0d7e-4c55-9a1e-2f9f0c3d8e11"`
}

// SuccessResponse is returned by a completed teardown
// @Description Teardown result
type SuccessResponse struct {
	Success bool `json:"success" example:"true"`
}

// Health endpoints

// handleHealth godoc
// @Summary      Health check
// @Description  Returns the health status of the API
// @Tags         Health
// @Produce      json
// @Success      200  {object}  StatusResponse
// @Router       /health [get]
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, StatusResponse{Status: "ok"})
}

// handleReady godoc
// @Summary      Readiness check
// @Description  Pings Postgres, Redis and Qdrant
// @Tags         Health
// @Produce      json
// @Success      200  {object}  ReadyResponse
// @Failure      503  {object}  ReadyResponse
// @Router       /ready [get]
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
	defer cancel()

	resp := ReadyResponse{Status: "ready", Checks: make(map[string]string, len(s.checks))}
	status := http.StatusOK
	for _, check := range s.checks {
		if err := check.Pinger.Ping(ctx); err != nil {
			s.logger.Warn("readiness check failed", "check", check.Name, "error", err)
			resp.Checks[check.Name] = "unavailable"
			resp.Status = "not ready"
			status = http.StatusServiceUnavailable
			continue
		}
		resp.Checks[check.Name] = "ok"
	}
	writeJSON(w, status, resp)
}

// handleVersion godoc
// @Summary      Get API version
// @Description  Returns the current API version
// @Tags         Health
// @Produce      json
// @Success      200  {object}  VersionResponse
// @Router       /version [get]
func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, VersionResponse{Version: s.version})
}

func (s *Server) handleSwaggerDoc(w http.ResponseWriter, r *http.Request) {
	doc, err := swag.ReadDoc()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "api doc unavailable")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(doc))
}

// Reindex endpoints

// handleReindex godoc
// @Summary      Reindex a tenant
// @Description  Wipes and rebuilds the vector namespace of the tenant named in the token. Admin tokens pass tenant_id.
// @Tags         Reindex
// @Produce      json
// @Security     BearerAuth
// @Param        async      query     bool    false  "Queue the reindex and return at once"
// @Param        tenant_id  query     string  false  "Tenant to reindex (admin only)"
// @Success      200        {object}  ReindexResponse
// @Success      202        {object}  AcceptedResponse
// @Failure      400        {object}  ErrorResponse  "Missing tenant"
// @Failure      401        {object}  ErrorResponse  "Missing or invalid token"
// @Failure      403        {object}  ErrorResponse  "Token does not cover the tenant"
// @Failure      404        {object}  ErrorResponse  "Unknown tenant"
// @Failure      409        {object}  ErrorResponse  "Reindex already in progress"
// @Failure      502        {object}  ErrorResponse  "Content store, vector store or registry failure"
// @Failure      500        {object}  ErrorResponse  "Internal server error"
// @Router       /api/v1/reindex [post]
func (s *Server) handleReindex(w http.ResponseWriter, r *http.Request) {
	authCtx := GetAuthContext(r.Context())
	if authCtx == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	tenantID := authCtx.TenantID
	if requested := r.URL.Query().Get("tenant_id"); requested != "" {
		tenantID = requested
	}
	if tenantID == "" {
		writeError(w, http.StatusBadRequest, "tenant_id is required")
		return
	}
	if !authCtx.CanManage(tenantID) {
		writeError(w, http.StatusForbidden, "token does not cover this tenant")
		return
	}

	if queryBool(r, "async") {
		taskID, err := s.reindexService.ReindexAsync(r.Context(), tenantID)
		if err != nil {
			s.writeDomainError(w, err, nil)
			return
		}
		writeJSON(w, http.StatusAccepted, AcceptedResponse{Status: "accepted", TaskID: taskID})
		return
	}

	result, err := s.reindexService.Reindex(r.Context(), tenantID)
	if err != nil {
		details := map[string]string{}
		if stage := domain.FailedStage(err); stage != "" {
			details["stage"] = string(stage)
		}
		s.writeDomainError(w, err, details)
		return
	}

	writeJSON(w, http.StatusOK, ReindexResponse{
		Success:   true,
		Stats:     result.Stats,
		Timestamp: result.CompletedAt,
	})
}

// handleTeardown godoc
// @Summary      Tear down a tenant
// @Description  Removes the tenant's vectors, then its content rows in dependency order
// @Tags         Admin
// @Produce      json
// @Security     BearerAuth
// @Param        id     path      string  true   "Tenant ID"
// @Param        async  query     bool    false  "Queue the teardown and return at once"
// @Success      200    {object}  SuccessResponse
// @Success      202    {object}  AcceptedResponse
// @Failure      401    {object}  ErrorResponse  "Missing or invalid token"
// @Failure      403    {object}  ErrorResponse  "Admin access required"
// @Failure      404    {object}  ErrorResponse  "Unknown tenant"
// @Failure      409    {object}  ErrorResponse  "Tenant busy"
// @Failure      502    {object}  ErrorResponse  "Vector store or database failure"
// @Failure      500    {object}  ErrorResponse  "Internal server error"
// @Router       /api/v1/admin/tenants/{id} [delete]
func (s *Server) handleTeardown(w http.ResponseWriter, r *http.Request) {
	tenantID := r.PathValue("id")
	if tenantID == "" {
		writeError(w, http.StatusBadRequest, "tenant id is required")
		return
	}

	if queryBool(r, "async") {
		taskID, err := s.teardownService.TeardownAsync(r.Context(), tenantID)
		if err != nil {
			s.writeDomainError(w, err, nil)
			return
		}
		writeJSON(w, http.StatusAccepted, AcceptedResponse{Status: "accepted", TaskID: taskID})
		return
	}

	if err := s.teardownService.Teardown(r.Context(), tenantID); err != nil {
		details := map[string]string{}
		var te *domain.TeardownError
		if errors.As(err, &te) {
			details["step"] = string(te.Step)
			if te.Cascade != "" {
				details["table"] = string(te.Cascade)
			}
		}
		s.writeDomainError(w, err, details)
		return
	}

	writeJSON(w, http.StatusOK, SuccessResponse{Success: true})
}

// handleGetNamespace godoc
// @Summary      Get a tenant's namespace registration
// @Tags         Admin
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Tenant ID"
// @Success      200  {object}  domain.NamespaceRegistration
// @Failure      404  {object}  ErrorResponse  "Tenant has never been indexed"
// @Router       /api/v1/tenants/{id}/namespace [get]
func (s *Server) handleGetNamespace(w http.ResponseWriter, r *http.Request) {
	reg, err := s.reindexService.Namespace(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeDomainError(w, err, nil)
		return
	}
	writeJSON(w, http.StatusOK, reg)
}

// writeDomainError maps an error to a status and a fixed message. The
// underlying error text is logged, never returned.
func (s *Server) writeDomainError(w http.ResponseWriter, err error, details map[string]string) {
	status, message := classifyError(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "status", status, "error", err)
	}
	if len(details) == 0 {
		details = nil
	}
	writeJSON(w, status, ErrorResponse{Error: message, Details: details})
}

func classifyError(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest, "invalid request"
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, "not found"
	case errors.Is(err, domain.ErrReindexInProgress):
		return http.StatusConflict, "reindex already in progress"
	case errors.Is(err, domain.ErrStoreUnavailable):
		return http.StatusBadGateway, "content store unavailable"
	case errors.Is(err, domain.ErrIndexCleanupFailed):
		return http.StatusBadGateway, "vector index cleanup failed"
	case errors.Is(err, domain.ErrRegistryUpdateFailed):
		return http.StatusBadGateway, "namespace registry update failed"
	case errors.Is(err, domain.ErrVectorUpsert):
		return http.StatusBadGateway, "vector store write failed"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable, "request canceled"
	default:
		return http.StatusInternalServerError, "internal server error"
	}
}

func queryBool(r *http.Request, key string) bool {
	v, err := strconv.ParseBool(r.URL.Query().Get(key))
	return err == nil && v
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Error: message})
}
