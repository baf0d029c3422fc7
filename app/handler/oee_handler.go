package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"oeecore/internal/service"
	"oeecore/pkg/logger"
	"oeecore/pkg/oee"

	"github.com/gin-gonic/gin"
)

// OEEHandler handles OEE query operations
type OEEHandler struct {
	queryService *service.QueryService
}

// NewOEEHandler creates OEE handler
func NewOEEHandler(queryService *service.QueryService) *OEEHandler {
	return &OEEHandler{queryService: queryService}
}

// GetOEE gets the OEE result for one window
// @Summary Get OEE
// @Description Get the OEE result for one equipment and window; recomputes on cache miss, serves a stale result when the recompute budget is exceeded
// @Tags oee
// @Produce json
// @Param id path string true "Equipment ID"
// @Param start query string true "Window start (RFC3339)"
// @Param end query string true "Window end (RFC3339)"
// @Param shift_instance_id query string false "Shift instance ID"
// @Success 200 {object} model.OEEResultResponse
// @Router /api/v1/equipment/{id}/oee [get]
func (h *OEEHandler) GetOEE(c *gin.Context) {
	equipmentID := c.Param("id")
	window, ok := parseWindow(c)
	if !ok {
		return
	}

	resp, err := h.queryService.GetOEE(c.Request.Context(), equipmentID, window, c.Query("shift_instance_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// GetTrend gets an ordered result sequence at one resolution
// @Summary Get OEE trend
// @Tags oee
// @Produce json
// @Param id path string true "Equipment ID"
// @Param start query string true "Range start (RFC3339)"
// @Param end query string true "Range end (RFC3339)"
// @Param resolution query string true "realtime|hourly|daily|shift"
// @Success 200 {object} model.TrendResponse
// @Router /api/v1/equipment/{id}/trend [get]
func (h *OEEHandler) GetTrend(c *gin.Context) {
	equipmentID := c.Param("id")
	window, ok := parseWindow(c)
	if !ok {
		return
	}

	resolution := oee.Resolution(c.Query("resolution"))
	resp, err := h.queryService.GetTrend(c.Request.Context(), equipmentID, window.Start, window.End, resolution)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// GetLossPareto gets the ranked loss categories for a range
// @Summary Get loss pareto
// @Tags oee
// @Produce json
// @Param id path string true "Equipment ID"
// @Param start query string true "Range start (RFC3339)"
// @Param end query string true "Range end (RFC3339)"
// @Success 200 {object} model.LossParetoResponse
// @Router /api/v1/equipment/{id}/losses [get]
func (h *OEEHandler) GetLossPareto(c *gin.Context) {
	equipmentID := c.Param("id")
	window, ok := parseWindow(c)
	if !ok {
		return
	}

	resp, err := h.queryService.GetLossPareto(c.Request.Context(), equipmentID, window.Start, window.End)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// GetWorkCenterLossPareto gets the ranked loss categories across a work center
// @Summary Get work center loss pareto
// @Tags oee
// @Produce json
// @Param id path string true "Work center ID"
// @Param start query string true "Range start (RFC3339)"
// @Param end query string true "Range end (RFC3339)"
// @Success 200 {object} model.LossParetoResponse
// @Router /api/v1/work-centers/{id}/losses [get]
func (h *OEEHandler) GetWorkCenterLossPareto(c *gin.Context) {
	workCenterID := c.Param("id")
	window, ok := parseWindow(c)
	if !ok {
		return
	}

	resp, err := h.queryService.GetWorkCenterLossPareto(c.Request.Context(), workCenterID, window.Start, window.End)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// GetShiftSummary gets true and naive multi-shift OEE for a range
// @Summary Get shift summary
// @Description Duration-weighted OEE of the covered shifts next to the naive per-shift average
// @Tags oee
// @Produce json
// @Param id path string true "Equipment ID"
// @Param start query string true "Range start (RFC3339)"
// @Param end query string true "Range end (RFC3339)"
// @Success 200 {object} model.ShiftSummaryResponse
// @Router /api/v1/equipment/{id}/shift-summary [get]
func (h *OEEHandler) GetShiftSummary(c *gin.Context) {
	equipmentID := c.Param("id")
	window, ok := parseWindow(c)
	if !ok {
		return
	}

	resp, err := h.queryService.GetShiftSummary(c.Request.Context(), equipmentID, window.Start, window.End)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// GetAnomalies lists recent anomaly warnings
// @Summary List anomalies
// @Tags oee
// @Produce json
// @Param id path string true "Equipment ID"
// @Param start query string true "Range start (RFC3339)"
// @Param end query string true "Range end (RFC3339)"
// @Param limit query int false "Max rows (default 100)"
// @Success 200 {object} model.AnomalyListResponse
// @Router /api/v1/equipment/{id}/anomalies [get]
func (h *OEEHandler) GetAnomalies(c *gin.Context) {
	equipmentID := c.Param("id")
	window, ok := parseWindow(c)
	if !ok {
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))

	resp, err := h.queryService.ListAnomalies(c.Request.Context(), equipmentID, window.Start, window.End, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// parseWindow reads the start/end query parameters. On failure it writes the
// 400 response and returns ok=false.
func parseWindow(c *gin.Context) (oee.Window, bool) {
	start, err := time.Parse(time.RFC3339, c.Query("start"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "start must be RFC3339"})
		return oee.Window{}, false
	}
	end, err := time.Parse(time.RFC3339, c.Query("end"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "end must be RFC3339"})
		return oee.Window{}, false
	}
	if !end.After(start) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "end must be after start"})
		return oee.Window{}, false
	}
	return oee.Window{Start: start, End: end}, true
}

// respondError maps domain errors onto HTTP statuses.
func respondError(c *gin.Context, err error) {
	var notFound *oee.NotFoundError
	var validation *oee.ValidationError
	var configuration *oee.ConfigurationError

	switch {
	case errors.As(err, &notFound):
		c.JSON(http.StatusNotFound, gin.H{"error": notFound.Error()})
	case errors.As(err, &validation):
		c.JSON(http.StatusBadRequest, gin.H{"error": validation.Error()})
	case errors.As(err, &configuration):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": configuration.Error()})
	default:
		logger.ErrorCtx(c.Request.Context(), "query failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

// resolutionFor picks the resolution a recompute window belongs to.
func resolutionFor(window oee.Window, shiftInstanceID string) oee.Resolution {
	if shiftInstanceID != "" {
		return oee.ResolutionShift
	}
	switch window.Duration() {
	case time.Hour:
		return oee.ResolutionHourly
	case 24 * time.Hour:
		return oee.ResolutionDaily
	default:
		return oee.ResolutionRealtime
	}
}
