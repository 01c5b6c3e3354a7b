package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/specreg-bridge/internal/middleware"
	"github.com/noah-isme/specreg-bridge/internal/service"
	"github.com/noah-isme/specreg-bridge/pkg/response"
)

// EligibilityHandler exposes the registration eligibility endpoint.
type EligibilityHandler struct {
	eligibility *service.EligibilityService
}

// NewEligibilityHandler constructs an eligibility handler.
func NewEligibilityHandler(eligibility *service.EligibilityService) *EligibilityHandler {
	return &EligibilityHandler{eligibility: eligibility}
}

// Check godoc
// @Summary Check whether a student may register
// @Tags Eligibility
// @Produce json
// @Param studentId path int true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /eligibility/{studentId} [get]
func (h *EligibilityHandler) Check(c *gin.Context) {
	studentID, ok := studentIDParam(c)
	if !ok {
		return
	}
	start := time.Now()
	result, cacheHit, err := h.eligibility.Check(c.Request.Context(), studentID)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, cacheHit)
	meta := middleware.ExtractMeta(c)
	if meta == nil {
		meta = map[string]interface{}{}
	}
	meta["processing_time_ms"] = time.Since(start).Milliseconds()
	response.JSON(c, http.StatusOK, result, nil, meta)
}
