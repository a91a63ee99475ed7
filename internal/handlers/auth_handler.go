package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/panjiggm/syntegra-app-sub008/internal/services"
	"github.com/panjiggm/syntegra-app-sub008/internal/utils"
	"github.com/panjiggm/syntegra-app-sub008/internal/validator"
)

type AuthHandler struct {
	BaseHandler
	authService services.AuthService
	validator   *validator.Validator
}

func NewAuthHandler(authService services.AuthService, validator *validator.Validator, logger utils.Logger) *AuthHandler {
	return &AuthHandler{
		BaseHandler: NewBaseHandler(logger),
		authService: authService,
		validator:   validator,
	}
}

// Login verifies credentials and issues a token.
func (h *AuthHandler) Login(c *gin.Context) {
	var req services.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, http.StatusBadRequest, "invalid_payload", "Invalid request payload", err.Error())
		return
	}

	result, err := h.authService.Login(c.Request.Context(), &req, c.ClientIP(), c.Request.UserAgent())
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.respondSuccess(c, http.StatusOK, "Login successful", result)
}

// Logout revokes the session behind the presented token.
func (h *AuthHandler) Logout(c *gin.Context) {
	token, exists := c.Get("auth_token")
	if !exists {
		h.respondError(c, http.StatusUnauthorized, "unauthorized", "User not authenticated", nil)
		return
	}

	if err := h.authService.Logout(c.Request.Context(), token.(string)); err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.respondSuccess(c, http.StatusOK, "Logged out", nil)
}

// Me returns the authenticated caller's profile.
func (h *AuthHandler) Me(c *gin.Context) {
	token, exists := c.Get("auth_token")
	if !exists {
		h.respondError(c, http.StatusUnauthorized, "unauthorized", "User not authenticated", nil)
		return
	}

	user, err := h.authService.ValidateSession(c.Request.Context(), token.(string))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.respondSuccess(c, http.StatusOK, "Profile retrieved", user)
}
