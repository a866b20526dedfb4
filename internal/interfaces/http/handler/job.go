package handler

import (
	"encoding/json"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/santabrisa/backend/internal/application/pipeline"
	"github.com/santabrisa/backend/internal/domain/queue"
	"github.com/santabrisa/backend/internal/interfaces/http/dto"
)

// JobHandler exposes job status and the dead-letter queue.
type JobHandler struct {
	BaseHandler
	jobs        queue.JobRepository
	deadLetters queue.DeadLetterRepository
	enqueuer    *pipeline.Enqueuer
}

// NewJobHandler creates a new job handler
func NewJobHandler(jobs queue.JobRepository, deadLetters queue.DeadLetterRepository, enqueuer *pipeline.Enqueuer) *JobHandler {
	return &JobHandler{
		jobs:        jobs,
		deadLetters: deadLetters,
		enqueuer:    enqueuer,
	}
}

// RegisterRoutes registers job and dead-letter routes
func (h *JobHandler) RegisterRoutes(rg *gin.RouterGroup) {
	jobs := rg.Group("/jobs")
	{
		jobs.GET("/:id", h.Get)
	}
	dead := rg.Group("/dead-letters")
	{
		dead.GET("", h.ListDeadLetters)
		dead.POST("/:id/requeue", h.RequeueDeadLetter)
	}
}

// Get retrieves a job by id.
func (h *JobHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid job ID")
		return
	}

	job, err := h.jobs.FindByID(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toJobResponse(job))
}

// ListDeadLetters returns a page of dead-letter entries, newest first.
func (h *JobHandler) ListDeadLetters(c *gin.Context) {
	var req dto.ListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BadRequest(c, "Invalid query parameters")
		return
	}
	req.Normalize()

	entries, total, err := h.deadLetters.List(c.Request.Context(), req.Page, req.PageSize)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	resp := make([]DeadLetterResponse, 0, len(entries))
	for _, dl := range entries {
		resp = append(resp, toDeadLetterResponse(dl))
	}
	h.SuccessWithMeta(c, resp, total, req.Page, req.PageSize)
}

// RequeueDeadLetter re-enqueues a dead-lettered payload as a fresh job with
// a full retry budget. The dead-letter entry is kept for the audit trail.
func (h *JobHandler) RequeueDeadLetter(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid dead letter ID")
		return
	}

	dl, err := h.deadLetters.FindByID(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	job, err := h.enqueuer.Enqueue(c.Request.Context(), dl.Kind, json.RawMessage(dl.Payload),
		queue.WithCorrelationID("deadletter:"+dl.ID.String()),
	)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Accepted(c, toJobResponse(job))
}

// JobResponse represents a job
type JobResponse struct {
	ID            string          `json:"id"`
	Kind          string          `json:"kind"`
	Status        string          `json:"status"`
	Attempts      int             `json:"attempts"`
	MaxAttempts   int             `json:"max_attempts"`
	NextRunAt     time.Time       `json:"next_run_at"`
	CorrelationID string          `json:"correlation_id,omitempty"`
	LastError     string          `json:"last_error,omitempty"`
	Result        json.RawMessage `json:"result,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

func toJobResponse(job *queue.Job) JobResponse {
	return JobResponse{
		ID:            job.ID.String(),
		Kind:          job.Kind.String(),
		Status:        string(job.Status),
		Attempts:      job.Attempts,
		MaxAttempts:   job.MaxAttempts,
		NextRunAt:     job.NextRunAt,
		CorrelationID: job.CorrelationID,
		LastError:     job.LastError,
		Result:        json.RawMessage(job.Result),
		CreatedAt:     job.CreatedAt,
		UpdatedAt:     job.UpdatedAt,
	}
}

// DeadLetterResponse represents a dead-letter entry
type DeadLetterResponse struct {
	ID        string          `json:"id"`
	JobID     string          `json:"job_id"`
	Kind      string          `json:"kind"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	LastError string          `json:"last_error"`
	Attempts  int             `json:"attempts"`
	CreatedAt time.Time       `json:"created_at"`
}

func toDeadLetterResponse(dl *queue.DeadLetter) DeadLetterResponse {
	return DeadLetterResponse{
		ID:        dl.ID.String(),
		JobID:     dl.JobID.String(),
		Kind:      dl.Kind.String(),
		Payload:   json.RawMessage(dl.Payload),
		LastError: dl.LastError,
		Attempts:  dl.Attempts,
		CreatedAt: dl.CreatedAt,
	}
}
