package handler

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	apimw "github.com/coursehub/notify/internal/api/middleware"
	"github.com/coursehub/notify/internal/domain"
	"github.com/coursehub/notify/internal/service"
)

// NotifyHandler exposes the producer-facing enqueue endpoints, one per job
// kind. Each validates synchronously and responds 202 once the job is
// durably queued; delivery outcomes are observable later via the job row.
type NotifyHandler struct {
	svc    *service.EnqueueService
	logger *zap.Logger
}

func NewNotifyHandler(svc *service.EnqueueService, logger *zap.Logger) *NotifyHandler {
	return &NotifyHandler{svc: svc, logger: logger}
}

// jobAccepted is the 202 response body for every enqueue endpoint.
type jobAccepted struct {
	JobID  string           `json:"job_id"`
	Kind   domain.JobKind   `json:"kind"`
	Status domain.JobStatus `json:"status"`
}

// NotifyUser handles POST /api/v1/notify/user
//
// @Summary  Queue a notification for a single user
// @Tags     notify
// @Accept   json
// @Produce  json
// @Param    body  body      domain.JobPayload  true  "email, title, body, data?"
// @Success  202   {object}  jobAccepted
// @Failure  422   {object}  map[string]string
// @Router   /api/v1/notify/user [post]
func (h *NotifyHandler) NotifyUser(w http.ResponseWriter, r *http.Request) {
	h.enqueue(w, r, domain.KindSendToUser)
}

// NotifyUsers handles POST /api/v1/notify/users
//
// @Summary  Queue a notification for a list of users
// @Tags     notify
// @Accept   json
// @Produce  json
// @Param    body  body      domain.JobPayload  true  "emails, title, body, data?"
// @Success  202   {object}  jobAccepted
// @Failure  422   {object}  map[string]string
// @Router   /api/v1/notify/users [post]
func (h *NotifyHandler) NotifyUsers(w http.ResponseWriter, r *http.Request) {
	h.enqueue(w, r, domain.KindSendToUsers)
}

// NotifyCourse handles POST /api/v1/notify/course
//
// @Summary  Queue a notification for a course's enrolled students
// @Tags     notify
// @Accept   json
// @Produce  json
// @Param    body  body      domain.JobPayload  true  "course_id, title, body, data?"
// @Success  202   {object}  jobAccepted
// @Failure  422   {object}  map[string]string
// @Router   /api/v1/notify/course [post]
func (h *NotifyHandler) NotifyCourse(w http.ResponseWriter, r *http.Request) {
	h.enqueue(w, r, domain.KindSendToCourse)
}

// NotifyRole handles POST /api/v1/notify/role
//
// @Summary  Queue a notification for every user of a role
// @Tags     notify
// @Accept   json
// @Produce  json
// @Param    body  body      domain.JobPayload  true  "role, title, body, data?"
// @Success  202   {object}  jobAccepted
// @Failure  422   {object}  map[string]string
// @Router   /api/v1/notify/role [post]
func (h *NotifyHandler) NotifyRole(w http.ResponseWriter, r *http.Request) {
	h.enqueue(w, r, domain.KindSendToRole)
}

// NotifyBatch handles POST /api/v1/notify/batch
//
// @Summary  Queue a batch of up to 1000 per-recipient notifications
// @Tags     notify
// @Accept   json
// @Produce  json
// @Param    body  body      domain.JobPayload  true  "notifications: [{email,title,body,data?}]"
// @Success  202   {object}  jobAccepted
// @Failure  422   {object}  map[string]string
// @Router   /api/v1/notify/batch [post]
func (h *NotifyHandler) NotifyBatch(w http.ResponseWriter, r *http.Request) {
	h.enqueue(w, r, domain.KindSendBatch)
}

func (h *NotifyHandler) enqueue(w http.ResponseWriter, r *http.Request, kind domain.JobKind) {
	var payload domain.JobPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	j, err := h.svc.Enqueue(r.Context(), kind, payload)
	if err != nil {
		h.logger.Warn("enqueue failed",
			zap.String("kind", string(kind)),
			zap.String("correlation_id", apimw.GetCorrelationID(r.Context())),
			zap.Error(err),
		)
		mapError(w, err)
		return
	}

	respondJSON(w, http.StatusAccepted, jobAccepted{
		JobID:  j.ID,
		Kind:   j.Kind,
		Status: j.Status,
	})
}
