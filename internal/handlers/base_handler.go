package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/panjiggm/syntegra-app-sub008/internal/models"
	"github.com/panjiggm/syntegra-app-sub008/internal/services"
	"github.com/panjiggm/syntegra-app-sub008/internal/utils"
)

type BaseHandler struct {
	logger utils.Logger
}

func NewBaseHandler(logger utils.Logger) BaseHandler {
	return BaseHandler{logger: logger}
}

// LogRequest logs a handler entry with the request-scoped logger.
func (h *BaseHandler) LogRequest(c *gin.Context, msg string, args ...any) {
	logger := utils.LoggerFromContext(c.Request.Context(), h.logger)
	logger.Info(msg, args...)
}

func (h *BaseHandler) parseIDParam(c *gin.Context, param string) uint {
	idStr := c.Param(param)
	id, err := strconv.ParseUint(idStr, 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Success:   false,
			Error:     "invalid_parameter",
			Message:   "Invalid " + param,
			Details:   err.Error(),
			Timestamp: time.Now().UTC(),
			Path:      c.Request.URL.Path,
		})
		return 0
	}
	return uint(id)
}

// callerIdentity reads the authenticated user set by the auth middleware.
func (h *BaseHandler) callerIdentity(c *gin.Context) (uint, models.UserRole, bool) {
	userID, exists := c.Get("user_id")
	if !exists {
		c.JSON(http.StatusUnauthorized, models.ErrorResponse{
			Success:   false,
			Error:     "unauthorized",
			Message:   "User not authenticated",
			Timestamp: time.Now().UTC(),
			Path:      c.Request.URL.Path,
		})
		return 0, "", false
	}
	role, _ := c.Get("user_role")
	userRole, _ := role.(models.UserRole)
	return userID.(uint), userRole, true
}

func (h *BaseHandler) respondError(c *gin.Context, status int, code, message string, details interface{}) {
	c.JSON(status, models.ErrorResponse{
		Success:   false,
		Error:     code,
		Message:   message,
		Details:   details,
		Timestamp: time.Now().UTC(),
		Path:      c.Request.URL.Path,
	})
}

func (h *BaseHandler) respondSuccess(c *gin.Context, status int, message string, data interface{}) {
	c.JSON(status, models.SuccessResponse{
		Success:   true,
		Message:   message,
		Data:      data,
		Timestamp: time.Now().UTC(),
	})
}

// handleServiceError maps service errors onto HTTP statuses. Unknown errors
// are logged and returned as a generic 500 so internals never leak.
func (h *BaseHandler) handleServiceError(c *gin.Context, err error) {
	var validationErrors services.ValidationErrors
	if errors.As(err, &validationErrors) {
		h.respondError(c, http.StatusBadRequest, "validation_failed", "Validation failed", validationErrors)
		return
	}

	var permissionError *services.PermissionError
	if errors.As(err, &permissionError) {
		h.respondError(c, http.StatusForbidden, "forbidden", permissionError.Message, map[string]interface{}{
			"action": permissionError.Action,
		})
		return
	}

	switch {
	case errors.Is(err, services.ErrUserNotFound):
		h.respondError(c, http.StatusNotFound, "not_found", "User not found", nil)
	case errors.Is(err, services.ErrTestNotFound):
		h.respondError(c, http.StatusNotFound, "not_found", "Test not found", nil)
	case errors.Is(err, services.ErrSessionNotFound):
		h.respondError(c, http.StatusNotFound, "not_found", "Session not found", nil)
	case errors.Is(err, services.ErrAttemptNotFound):
		h.respondError(c, http.StatusNotFound, "not_found", "Attempt not found", nil)
	case errors.Is(err, services.ErrQuestionNotFound):
		h.respondError(c, http.StatusNotFound, "not_found", "Question not found", nil)
	case errors.Is(err, services.ErrInvalidCredentials):
		h.respondError(c, http.StatusUnauthorized, "invalid_credentials", "Invalid email or password", nil)
	case errors.Is(err, services.ErrUserInactive):
		h.respondError(c, http.StatusForbidden, "user_inactive", "User account is inactive", nil)
	case errors.Is(err, services.ErrAttemptFinalized):
		h.respondError(c, http.StatusConflict, "attempt_finalized", "Attempt is already finalized", nil)
	case errors.Is(err, services.ErrSessionNotActive):
		h.respondError(c, http.StatusConflict, "session_not_active", "Session is not active", nil)
	case errors.Is(err, services.ErrDuplicateAnswer):
		h.respondError(c, http.StatusConflict, "duplicate_answer", "Answer already recorded for question", nil)
	case errors.Is(err, services.ErrValidationFailed):
		h.respondError(c, http.StatusBadRequest, "validation_failed", "Validation failed", nil)
	case errors.Is(err, services.ErrForbidden):
		h.respondError(c, http.StatusForbidden, "forbidden", "Access denied", nil)
	case errors.Is(err, services.ErrUnauthorized):
		h.respondError(c, http.StatusUnauthorized, "unauthorized", "Authentication required", nil)
	case errors.Is(err, services.ErrConflict):
		h.respondError(c, http.StatusConflict, "conflict", "Resource conflict", nil)
	case errors.Is(err, services.ErrBadRequest):
		h.respondError(c, http.StatusBadRequest, "bad_request", "Invalid request", nil)
	default:
		h.logger.Error("Unhandled service error", "error", err, "path", c.Request.URL.Path)
		h.respondError(c, http.StatusInternalServerError, "internal_error", "Internal server error", nil)
	}
}
