package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/coursehub/notify/internal/service"
)

// JobHandler serves job status/outcome lookups and push-token registration.
type JobHandler struct {
	svc    *service.EnqueueService
	logger *zap.Logger
}

func NewJobHandler(svc *service.EnqueueService, logger *zap.Logger) *JobHandler {
	return &JobHandler{svc: svc, logger: logger}
}

// GetByID handles GET /api/v1/jobs/{id}
//
// @Summary  Get a job's status and, once done, its dispatch summary
// @Tags     jobs
// @Produce  json
// @Param    id   path      string  true  "Job UUID"
// @Success  200  {object}  domain.Job
// @Failure  404  {object}  map[string]string
// @Router   /api/v1/jobs/{id} [get]
func (h *JobHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	j, err := h.svc.GetJob(r.Context(), id)
	if err != nil {
		mapError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, j)
}

type registerTokenRequest struct {
	Email string `json:"email"`
	Token string `json:"token"`
}

// RegisterPushToken handles PUT /api/v1/push-token
//
// @Summary  Register or replace a user's push token (last-write-wins)
// @Tags     jobs
// @Accept   json
// @Param    body  body  registerTokenRequest  true  "email and token"
// @Success  204
// @Failure  404  {object}  map[string]string
// @Failure  422  {object}  map[string]string
// @Router   /api/v1/push-token [put]
func (h *JobHandler) RegisterPushToken(w http.ResponseWriter, r *http.Request) {
	var req registerTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if err := h.svc.RegisterPushToken(r.Context(), req.Email, req.Token); err != nil {
		h.logger.Warn("register push token failed",
			zap.String("email", req.Email), zap.Error(err))
		mapError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
