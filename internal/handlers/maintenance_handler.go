package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/panjiggm/syntegra-app-sub008/internal/services"
	"github.com/panjiggm/syntegra-app-sub008/internal/utils"
)

type MaintenanceHandler struct {
	BaseHandler
	maintenanceService services.SessionMaintenanceService
}

func NewMaintenanceHandler(maintenanceService services.SessionMaintenanceService, logger utils.Logger) *MaintenanceHandler {
	return &MaintenanceHandler{
		BaseHandler:        NewBaseHandler(logger),
		maintenanceService: maintenanceService,
	}
}

// RunSweep triggers the combined auth-session cleanup. Safe to call
// repeatedly.
func (h *MaintenanceHandler) RunSweep(c *gin.Context) {
	h.LogRequest(c, "Running maintenance sweep")

	result := h.maintenanceService.RunSweep(c.Request.Context())
	h.respondSuccess(c, http.StatusOK, "Maintenance sweep completed", result)
}

// RevokeSession revokes a single auth session.
func (h *MaintenanceHandler) RevokeSession(c *gin.Context) {
	sessionID := h.parseIDParam(c, "id")
	if sessionID == 0 {
		return
	}

	h.LogRequest(c, "Revoking auth session", "auth_session_id", sessionID)

	if err := h.maintenanceService.RevokeSession(c.Request.Context(), sessionID); err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.respondSuccess(c, http.StatusOK, "Session revoked", nil)
}

// RevokeOtherSessions revokes every other active session of a user, keeping
// the one named in the request.
func (h *MaintenanceHandler) RevokeOtherSessions(c *gin.Context) {
	userID := h.parseIDParam(c, "id")
	if userID == 0 {
		return
	}

	var req struct {
		KeepSessionID uint `json:"keep_session_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, http.StatusBadRequest, "invalid_payload", "Invalid request payload", err.Error())
		return
	}

	revoked, err := h.maintenanceService.RevokeOtherUserSessions(c.Request.Context(), userID, req.KeepSessionID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.respondSuccess(c, http.StatusOK, "Other sessions revoked", gin.H{"revoked": revoked})
}
