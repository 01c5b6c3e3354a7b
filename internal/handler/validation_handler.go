package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/specreg-bridge/internal/dto"
	"github.com/noah-isme/specreg-bridge/internal/service"
	appErrors "github.com/noah-isme/specreg-bridge/pkg/errors"
	"github.com/noah-isme/specreg-bridge/pkg/response"
)

// ValidationHandler exposes the validate / submit / check endpoints.
type ValidationHandler struct {
	validations *service.ValidationService
}

// NewValidationHandler constructs a validation handler.
func NewValidationHandler(validations *service.ValidationService) *ValidationHandler {
	return &ValidationHandler{validations: validations}
}

// Validate godoc
// @Summary Validate course requests
// @Tags Validations
// @Accept json
// @Produce json
// @Param request body dto.ValidationRequest true "Course requests"
// @Success 200 {object} response.Envelope
// @Router /validations [post]
func (h *ValidationHandler) Validate(c *gin.Context) {
	var req dto.ValidationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid request body"))
		return
	}
	result, err := h.validations.Validate(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Submit godoc
// @Summary Submit course requests and file overrides
// @Tags Validations
// @Accept json
// @Produce json
// @Param request body dto.ValidationRequest true "Course requests"
// @Success 200 {object} response.Envelope
// @Router /validations/submit [post]
func (h *ValidationHandler) Submit(c *gin.Context) {
	var req dto.ValidationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid request body"))
		return
	}
	requestorID, requestorRole := "", ""
	if claims := claimsFromContext(c); claims != nil {
		requestorID = claims.UserID
		requestorRole = string(claims.Role)
	}
	result, err := h.validations.Submit(c.Request.Context(), req, requestorID, requestorRole)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

type checkRequest struct {
	StudentID int64 `json:"studentId" binding:"required"`
}

// Check godoc
// @Summary Check tracked override statuses
// @Tags Validations
// @Accept json
// @Produce json
// @Param request body checkRequest true "Student"
// @Success 200 {object} response.Envelope
// @Router /validations/check [post]
func (h *ValidationHandler) Check(c *gin.Context) {
	var req checkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "studentId is required"))
		return
	}
	result, err := h.validations.Check(c.Request.Context(), req.StudentID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}
