package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/uniead-br/sigaa-sync/internal/models"
	"github.com/uniead-br/sigaa-sync/internal/service"
	appErrors "github.com/uniead-br/sigaa-sync/pkg/errors"
	"github.com/uniead-br/sigaa-sync/pkg/jobs"
	"github.com/uniead-br/sigaa-sync/pkg/response"
)

type jobQueue interface {
	Enqueue(job jobs.Job) error
}

// IntegrationRequest is the body accepted by all three integration endpoints.
// An empty term means the term in effect today. Dates only apply to the course
// sync, where they become the created courses' start and end dates.
type IntegrationRequest struct {
	Term      string     `json:"term"`
	StartDate *time.Time `json:"start_date"`
	EndDate   *time.Time `json:"end_date"`
}

// IntegrationHandler exposes the operator endpoints that launch sync runs.
// Runs execute asynchronously; the endpoints only validate and enqueue.
type IntegrationHandler struct {
	queue     jobQueue
	validator *validator.Validate
	logger    *zap.Logger
}

// NewIntegrationHandler constructs IntegrationHandler.
func NewIntegrationHandler(queue jobQueue, validate *validator.Validate, logger *zap.Logger) *IntegrationHandler {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &IntegrationHandler{queue: queue, validator: validate, logger: logger}
}

// SyncCourses queues a course-and-category import for a term.
func (h *IntegrationHandler) SyncCourses(c *gin.Context) {
	h.enqueue(c, jobs.TypeSyncCourses, true)
}

// SyncEnrollments queues a learner enrollment run for a term.
func (h *IntegrationHandler) SyncEnrollments(c *gin.Context) {
	h.enqueue(c, jobs.TypeSyncEnrollments, false)
}

// ArchiveCourses queues an archive run for a term.
func (h *IntegrationHandler) ArchiveCourses(c *gin.Context) {
	h.enqueue(c, jobs.TypeArchiveCourses, false)
}

func (h *IntegrationHandler) enqueue(c *gin.Context, jobType string, withDates bool) {
	var req IntegrationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid request body"))
		return
	}
	if err := h.validator.Struct(req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid request"))
		return
	}

	if req.Term == "" {
		req.Term = models.CurrentTerm().String()
	}
	term, err := models.ParseTermKey(req.Term)
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid term"))
		return
	}

	payload := service.SyncPayload{Term: term.String()}
	if withDates {
		if req.StartDate != nil && req.EndDate != nil && !req.EndDate.After(*req.StartDate) {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "end_date must be after start_date"))
			return
		}
		payload.StartDate = req.StartDate
		payload.EndDate = req.EndDate
	}

	job := jobs.Job{ID: uuid.NewString(), Type: jobType, Payload: payload}
	if err := h.queue.Enqueue(job); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to queue run"))
		return
	}

	h.logger.Sugar().Infow("integration run queued", "job_id", job.ID, "type", jobType, "term", term.String())
	response.Accepted(c, gin.H{"job_id": job.ID, "type": jobType, "term": term.String()})
}
