package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/panjiggm/syntegra-app-sub008/internal/models"
	"github.com/panjiggm/syntegra-app-sub008/internal/services"
	"github.com/panjiggm/syntegra-app-sub008/internal/utils"
	"github.com/panjiggm/syntegra-app-sub008/internal/validator"
)

type HandlerManager struct {
	serviceManager     services.ServiceManager
	authHandler        *AuthHandler
	reportHandler      *ReportHandler
	sessionHandler     *SessionHandler
	attemptHandler     *AttemptHandler
	maintenanceHandler *MaintenanceHandler
	authMiddleware     *JWTAuthMiddleware
}

func NewHandlerManager(
	serviceManager services.ServiceManager,
	validator *validator.Validator,
	logger utils.Logger,
) *HandlerManager {
	return &HandlerManager{
		serviceManager:     serviceManager,
		authHandler:        NewAuthHandler(serviceManager.Auth(), validator, logger),
		reportHandler:      NewReportHandler(serviceManager.Report(), serviceManager.SessionReport(), validator, logger),
		sessionHandler:     NewSessionHandler(serviceManager.Session(), validator, logger),
		attemptHandler:     NewAttemptHandler(serviceManager.Attempt(), validator, logger),
		maintenanceHandler: NewMaintenanceHandler(serviceManager.SessionMaintenance(), logger),
		authMiddleware:     NewJWTAuthMiddleware(serviceManager.Auth()),
	}
}

// SetupRoutes sets up all API routes
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	router.GET("/health", hm.healthCheck)

	v1 := router.Group("/api/v1")

	// Public routes
	v1.POST("/auth/login", hm.authHandler.Login)

	// Authenticated routes
	auth := v1.Group("")
	auth.Use(hm.authMiddleware.AuthMiddleware())
	{
		auth.POST("/auth/logout", hm.authHandler.Logout)
		auth.GET("/auth/me", hm.authHandler.Me)

		// Reports: individual reports self-narrow for participants, session
		// reports are admin-only inside the service.
		reports := auth.Group("/reports")
		{
			reports.GET("/individual", hm.reportHandler.GetIndividualReports)
			reports.GET("/sessions", hm.reportHandler.GetSessionReports)
		}

		// Test sessions
		sessions := auth.Group("/sessions")
		{
			sessions.POST("", hm.authMiddleware.RequireRoleMiddleware(models.RoleAdmin), hm.sessionHandler.CreateSession)
			sessions.GET("", hm.sessionHandler.ListSessions)
			sessions.GET("/:id", hm.sessionHandler.GetSession)
			sessions.POST("/:id/participants", hm.authMiddleware.RequireRoleMiddleware(models.RoleAdmin), hm.sessionHandler.AddParticipant)
		}

		// Attempts
		attempts := auth.Group("/attempts")
		{
			attempts.POST("", hm.attemptHandler.StartAttempt)
			attempts.POST("/:id/answers", hm.attemptHandler.SubmitAnswer)
			attempts.POST("/:id/finish", hm.attemptHandler.FinishAttempt)
		}

		// Admin maintenance
		admin := auth.Group("/admin", hm.authMiddleware.RequireRoleMiddleware(models.RoleAdmin))
		{
			admin.POST("/maintenance/sweep", hm.maintenanceHandler.RunSweep)
			admin.DELETE("/auth-sessions/:id", hm.maintenanceHandler.RevokeSession)
			admin.POST("/users/:id/revoke-other-sessions", hm.maintenanceHandler.RevokeOtherSessions)
		}
	}
}

func (hm *HandlerManager) healthCheck(c *gin.Context) {
	if err := hm.serviceManager.HealthCheck(c.Request.Context()); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"success":   false,
			"status":    "unhealthy",
			"error":     err.Error(),
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"status":    "healthy",
		"service":   "psychotest-service",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
