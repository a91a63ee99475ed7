package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/panjiggm/syntegra-app-sub008/internal/services"
	"github.com/panjiggm/syntegra-app-sub008/internal/utils"
	"github.com/panjiggm/syntegra-app-sub008/internal/validator"
)

type AttemptHandler struct {
	BaseHandler
	attemptService services.AttemptService
	validator      *validator.Validator
}

func NewAttemptHandler(attemptService services.AttemptService, validator *validator.Validator, logger utils.Logger) *AttemptHandler {
	return &AttemptHandler{
		BaseHandler:    NewBaseHandler(logger),
		attemptService: attemptService,
		validator:      validator,
	}
}

// StartAttempt opens a new attempt for the caller.
func (h *AttemptHandler) StartAttempt(c *gin.Context) {
	callerID, _, ok := h.callerIdentity(c)
	if !ok {
		return
	}

	var req services.StartAttemptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, http.StatusBadRequest, "invalid_payload", "Invalid request payload", err.Error())
		return
	}

	h.LogRequest(c, "Starting attempt", "user_id", callerID, "test_id", req.TestID)

	attempt, err := h.attemptService.StartAttempt(c.Request.Context(), callerID, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.respondSuccess(c, http.StatusCreated, "Attempt started", attempt)
}

// SubmitAnswer stores one answer with autosave semantics.
func (h *AttemptHandler) SubmitAnswer(c *gin.Context) {
	callerID, _, ok := h.callerIdentity(c)
	if !ok {
		return
	}
	attemptID := h.parseIDParam(c, "id")
	if attemptID == 0 {
		return
	}

	var req services.SubmitAnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, http.StatusBadRequest, "invalid_payload", "Invalid request payload", err.Error())
		return
	}

	answer, err := h.attemptService.SubmitAnswer(c.Request.Context(), callerID, attemptID, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.respondSuccess(c, http.StatusOK, "Answer saved", answer)
}

// FinishAttempt finalizes the caller's attempt.
func (h *AttemptHandler) FinishAttempt(c *gin.Context) {
	callerID, _, ok := h.callerIdentity(c)
	if !ok {
		return
	}
	attemptID := h.parseIDParam(c, "id")
	if attemptID == 0 {
		return
	}

	h.LogRequest(c, "Finishing attempt", "user_id", callerID, "attempt_id", attemptID)

	attempt, err := h.attemptService.FinishAttempt(c.Request.Context(), callerID, attemptID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.respondSuccess(c, http.StatusOK, "Attempt completed", attempt)
}
