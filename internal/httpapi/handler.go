// Package httpapi implements the REST transport of the lifecycle service.
//
// Mutating routes expect an x-user-role header forwarded by the Gateway.
//
// Routes:
//
//	PUT /jobs/update-job/status                         → apply a job action
//	PUT /job-applications/update-job-application/status → apply an application action
//	GET /jobs/{jobNumber}/actions                       → actions a job accepts now
//	GET /job-applications/{id}/actions                  → actions an application accepts now
//	GET /health                                         → liveness
package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"jobboard/lifecycle-service/internal/lifecycle"
	"jobboard/lifecycle-service/internal/status"
)

// StatusService is implemented by both status.JobService and
// status.ApplicationService.
type StatusService interface {
	ApplyAction(ctx context.Context, id, action string) (*status.Outcome, error)
	AvailableActions(ctx context.Context, id string) (*status.Availability, error)
}

const (
	maxBodyBytes   = 1 << 20
	msgServerError = "Server Error"
	msgConflict    = "The status was changed by another request. Reload and try again."
)

// Handler holds shared dependencies.
type Handler struct {
	jobs    StatusService
	apps    StatusService
	log     *zap.SugaredLogger
	limiter *rate.Limiter
}

// NewHandler returns a configured Handler. limiter may be nil.
func NewHandler(jobs, apps StatusService, log *zap.SugaredLogger, limiter *rate.Limiter) *Handler {
	return &Handler{jobs: jobs, apps: apps, log: log, limiter: limiter}
}

// Routes returns the full HTTP handler including middleware.
func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()

	mutate := func(fn http.HandlerFunc) http.Handler {
		return Chain(fn, RequireRole(RoleAdmin), RateLimit(h.limiter))
	}

	mux.HandleFunc("GET /health", h.health)
	mux.Handle("PUT /jobs/update-job/status", mutate(h.updateJobStatus))
	mux.Handle("PUT /job-applications/update-job-application/status", mutate(h.updateApplicationStatus))
	mux.HandleFunc("GET /jobs/{jobNumber}/actions", h.jobActions)
	mux.HandleFunc("GET /job-applications/{id}/actions", h.applicationActions)

	return Chain(mux, RequestID, Logging(h.log), Recover(h.log))
}

// ─── Handlers ────────────────────────────────────────────────────────────────

func (h *Handler) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, "ok", nil)
}

type jobStatusRequest struct {
	JobNumber string `json:"jobNumber"`
	Action    string `json:"action"`
}

type applicationStatusRequest struct {
	JobApplicationID string `json:"jobApplicationId"`
	Action           string `json:"action"`
}

type newStatusPayload struct {
	NewStatus lifecycle.Status `json:"newStatus"`
}

func (h *Handler) updateJobStatus(w http.ResponseWriter, r *http.Request) {
	var req jobStatusRequest
	if !h.decode(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.JobNumber) == "" || strings.TrimSpace(req.Action) == "" {
		jsonError(w, http.StatusBadRequest, "Job number and action are required.")
		return
	}

	out, err := h.jobs.ApplyAction(r.Context(), req.JobNumber, req.Action)
	if err != nil {
		h.fail(w, r, err, "Job not found.")
		return
	}
	writeJSON(w, http.StatusOK,
		fmt.Sprintf("Job status updated to %s.", out.Status),
		newStatusPayload{NewStatus: out.Status})
}

func (h *Handler) updateApplicationStatus(w http.ResponseWriter, r *http.Request) {
	var req applicationStatusRequest
	if !h.decode(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.JobApplicationID) == "" || strings.TrimSpace(req.Action) == "" {
		jsonError(w, http.StatusBadRequest, "Job Application ID and action are required.")
		return
	}

	out, err := h.apps.ApplyAction(r.Context(), req.JobApplicationID, req.Action)
	if err != nil {
		h.fail(w, r, err, "Job application not found.")
		return
	}
	writeJSON(w, http.StatusOK,
		fmt.Sprintf("Job application status updated to %s.", out.Status),
		newStatusPayload{NewStatus: out.Status})
}

type actionsPayload struct {
	ID       string             `json:"id"`
	Status   lifecycle.Status   `json:"status"`
	Terminal bool               `json:"terminal"`
	Actions  []lifecycle.Action `json:"actions"`
}

func (h *Handler) jobActions(w http.ResponseWriter, r *http.Request) {
	h.actions(w, r, h.jobs, r.PathValue("jobNumber"), "Job not found.")
}

func (h *Handler) applicationActions(w http.ResponseWriter, r *http.Request) {
	h.actions(w, r, h.apps, r.PathValue("id"), "Job application not found.")
}

func (h *Handler) actions(w http.ResponseWriter, r *http.Request, svc StatusService, id, notFound string) {
	av, err := svc.AvailableActions(r.Context(), id)
	if err != nil {
		h.fail(w, r, err, notFound)
		return
	}
	actions := av.Actions
	if actions == nil {
		actions = []lifecycle.Action{}
	}
	writeJSON(w, http.StatusOK, "Available actions retrieved successfully.", actionsPayload{
		ID:       av.ID,
		Status:   av.Status,
		Terminal: av.Terminal,
		Actions:  actions,
	})
}

// ─── Helpers ─────────────────────────────────────────────────────────────────

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		jsonError(w, http.StatusBadRequest, "Invalid request body.")
		return false
	}
	return true
}

// fail maps a service error onto the envelope.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error, notFound string) {
	var te *lifecycle.TransitionError
	switch {
	case errors.As(err, &te):
		jsonError(w, http.StatusBadRequest, te.Error())
	case errors.Is(err, status.ErrNotFound):
		jsonError(w, http.StatusNotFound, notFound)
	case errors.Is(err, status.ErrConflict):
		jsonError(w, http.StatusConflict, msgConflict)
	default:
		h.log.Errorw("status update failed",
			"path", r.URL.Path, "requestId", RequestIDFrom(r.Context()), "err", err)
		jsonError(w, http.StatusInternalServerError, msgServerError)
	}
}
