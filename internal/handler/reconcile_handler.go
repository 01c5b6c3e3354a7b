package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/noah-isme/specreg-bridge/internal/dto"
	"github.com/noah-isme/specreg-bridge/internal/service"
	appErrors "github.com/noah-isme/specreg-bridge/pkg/errors"
	"github.com/noah-isme/specreg-bridge/pkg/jobs"
	"github.com/noah-isme/specreg-bridge/pkg/response"
)

// JobTypeRevalidation identifies queued revalidation jobs.
const JobTypeRevalidation = "revalidation"

// ReconcileHandler exposes reconciliation and revalidation endpoints.
type ReconcileHandler struct {
	reconciler    *service.ReconcileService
	revalidations *jobs.Queue
}

// NewReconcileHandler constructs a reconcile handler.
func NewReconcileHandler(reconciler *service.ReconcileService, revalidations *jobs.Queue) *ReconcileHandler {
	return &ReconcileHandler{reconciler: reconciler, revalidations: revalidations}
}

func studentIDParam(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("studentId"), 10, 64)
	if err != nil || id <= 0 {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid student id"))
		return 0, false
	}
	return id, true
}

// Reconcile godoc
// @Summary Reconcile one student's overrides with the registration site
// @Tags Reconciliations
// @Produce json
// @Param studentId path int true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /reconciliations/{studentId} [post]
func (h *ReconcileHandler) Reconcile(c *gin.Context) {
	studentID, ok := studentIDParam(c)
	if !ok {
		return
	}
	changed, err := h.reconciler.UpdateStudent(c.Request.Context(), studentID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.ReconcileResponse{StudentID: studentID, Changed: changed}, nil)
}

// BatchReconcile godoc
// @Summary Reconcile many students' overrides in batches
// @Tags Reconciliations
// @Accept json
// @Produce json
// @Param termId query int true "Term ID"
// @Param request body dto.BatchReconcileRequest false "Student selection; empty means every pending override"
// @Success 200 {object} response.Envelope
// @Router /reconciliations [post]
func (h *ReconcileHandler) BatchReconcile(c *gin.Context) {
	termID, err := strconv.ParseInt(c.Query("termId"), 10, 64)
	if err != nil || termID <= 0 {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "termId is required"))
		return
	}
	var req dto.BatchReconcileRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid request body"))
			return
		}
	}
	result, err := h.reconciler.UpdateStudents(c.Request.Context(), termID, req.StudentIDs)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Revalidate godoc
// @Summary Enqueue an asynchronous revalidation of a student's request form
// @Tags Reconciliations
// @Produce json
// @Param studentId path int true "Student ID"
// @Param force query bool false "Revalidate even when all overrides are settled"
// @Success 202 {object} response.Envelope
// @Router /revalidations/{studentId} [post]
func (h *ReconcileHandler) Revalidate(c *gin.Context) {
	studentID, ok := studentIDParam(c)
	if !ok {
		return
	}
	if h.revalidations == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrDisabled, "revalidation queue is not running"))
		return
	}
	force := c.Query("force") == "true"
	jobID := uuid.NewString()
	err := h.revalidations.Enqueue(jobs.Job{
		ID:      jobID,
		Type:    JobTypeRevalidation,
		Payload: service.RevalidationPayload{StudentID: studentID, Force: force},
	})
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to enqueue revalidation"))
		return
	}
	response.JSON(c, http.StatusAccepted, dto.RevalidationResponse{StudentID: studentID, JobID: jobID, Queued: true}, nil)
}
