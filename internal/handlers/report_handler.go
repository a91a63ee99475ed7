package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/panjiggm/syntegra-app-sub008/internal/services"
	"github.com/panjiggm/syntegra-app-sub008/internal/utils"
	"github.com/panjiggm/syntegra-app-sub008/internal/validator"
)

type ReportHandler struct {
	BaseHandler
	reportService        services.ReportService
	sessionReportService services.SessionReportService
	validator            *validator.Validator
}

func NewReportHandler(
	reportService services.ReportService,
	sessionReportService services.SessionReportService,
	validator *validator.Validator,
	logger utils.Logger,
) *ReportHandler {
	return &ReportHandler{
		BaseHandler:          NewBaseHandler(logger),
		reportService:        reportService,
		sessionReportService: sessionReportService,
		validator:            validator,
	}
}

// GetIndividualReports returns the paginated per-subject report list.
// Non-admin callers only ever see their own row.
func (h *ReportHandler) GetIndividualReports(c *gin.Context) {
	callerID, callerRole, ok := h.callerIdentity(c)
	if !ok {
		return
	}

	params := services.IndividualReportParams{
		Page:      queryInt(c, "page", 1),
		PerPage:   queryInt(c, "per_page", 0),
		Search:    c.Query("search"),
		SortBy:    c.Query("sort_by"),
		SortOrder: c.Query("sort_order"),
	}
	if sessionID, ok := queryUint(c, "session_id"); ok {
		params.SessionID = &sessionID
	}
	if raw := c.Query("has_reports"); raw != "" {
		hasReports := raw == "true" || raw == "1"
		params.HasReports = &hasReports
	}
	params.DateFrom = queryTime(c, "date_from")
	params.DateTo = queryTime(c, "date_to")

	if errs := h.validator.Var(params.SortOrder, "sort_order"); errs != nil {
		h.respondError(c, http.StatusBadRequest, "validation_failed", "Invalid sort_order", nil)
		return
	}

	h.LogRequest(c, "Generating individual reports",
		"caller_id", callerID,
		"page", params.Page)

	result, err := h.reportService.GetIndividualReports(c.Request.Context(), params, callerID, callerRole)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.respondSuccess(c, http.StatusOK, "Individual reports generated", result)
}

// GetSessionReports returns the paginated session report list. Admin-only.
func (h *ReportHandler) GetSessionReports(c *gin.Context) {
	callerID, callerRole, ok := h.callerIdentity(c)
	if !ok {
		return
	}

	params := services.SessionReportParams{
		Page:      queryInt(c, "page", 1),
		PerPage:   queryInt(c, "per_page", 0),
		Search:    c.Query("search"),
		SortBy:    c.Query("sort_by"),
		SortOrder: c.Query("sort_order"),
	}
	params.DateFrom = queryTime(c, "date_from")
	params.DateTo = queryTime(c, "date_to")

	h.LogRequest(c, "Generating session reports",
		"caller_id", callerID,
		"page", params.Page)

	result, err := h.sessionReportService.GetSessionReports(c.Request.Context(), params, callerID, callerRole)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.respondSuccess(c, http.StatusOK, "Session reports generated", result)
}

func queryInt(c *gin.Context, name string, fallback int) int {
	raw := c.Query(name)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}

func queryUint(c *gin.Context, name string) (uint, bool) {
	raw := c.Query(name)
	if raw == "" {
		return 0, false
	}
	value, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return 0, false
	}
	return uint(value), true
}

// queryTime accepts RFC 3339 timestamps and plain dates.
func queryTime(c *gin.Context, name string) *time.Time {
	raw := c.Query(name)
	if raw == "" {
		return nil
	}
	if parsed, err := time.Parse(time.RFC3339, raw); err == nil {
		return &parsed
	}
	if parsed, err := time.Parse("2006-01-02", raw); err == nil {
		return &parsed
	}
	return nil
}
