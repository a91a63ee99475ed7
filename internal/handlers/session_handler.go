package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/panjiggm/syntegra-app-sub008/internal/services"
	"github.com/panjiggm/syntegra-app-sub008/internal/utils"
	"github.com/panjiggm/syntegra-app-sub008/internal/validator"
)

type SessionHandler struct {
	BaseHandler
	sessionService services.SessionService
	validator      *validator.Validator
}

func NewSessionHandler(sessionService services.SessionService, validator *validator.Validator, logger utils.Logger) *SessionHandler {
	return &SessionHandler{
		BaseHandler:    NewBaseHandler(logger),
		sessionService: sessionService,
		validator:      validator,
	}
}

// CreateSession creates a test session with its module assignments.
func (h *SessionHandler) CreateSession(c *gin.Context) {
	var req services.CreateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, http.StatusBadRequest, "invalid_payload", "Invalid request payload", err.Error())
		return
	}

	h.LogRequest(c, "Creating test session", "session_code", req.SessionCode)

	session, err := h.sessionService.CreateSession(c.Request.Context(), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.respondSuccess(c, http.StatusCreated, "Session created successfully", session)
}

// GetSession returns one session with its ordered modules.
func (h *SessionHandler) GetSession(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	h.LogRequest(c, "Getting session", "session_id", id)

	session, err := h.sessionService.GetSession(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.respondSuccess(c, http.StatusOK, "Session retrieved", session)
}

// ListSessions returns the paginated session list.
func (h *SessionHandler) ListSessions(c *gin.Context) {
	params := services.ListSessionsParams{
		Page:      queryInt(c, "page", 1),
		PerPage:   queryInt(c, "per_page", 0),
		Search:    c.Query("search"),
		SortBy:    c.Query("sort_by"),
		SortOrder: c.Query("sort_order"),
	}
	params.DateFrom = queryTime(c, "date_from")
	params.DateTo = queryTime(c, "date_to")

	result, err := h.sessionService.ListSessions(c.Request.Context(), params)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.respondSuccess(c, http.StatusOK, "Sessions retrieved", result)
}

// AddParticipant registers a subject into a session.
func (h *SessionHandler) AddParticipant(c *gin.Context) {
	sessionID := h.parseIDParam(c, "id")
	if sessionID == 0 {
		return
	}

	var req struct {
		UserID uint `json:"user_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, http.StatusBadRequest, "invalid_payload", "Invalid request payload", err.Error())
		return
	}

	h.LogRequest(c, "Adding session participant",
		"session_id", sessionID,
		"user_id", req.UserID)

	if err := h.sessionService.AddParticipant(c.Request.Context(), sessionID, req.UserID); err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.respondSuccess(c, http.StatusCreated, "Participant added successfully", nil)
}
