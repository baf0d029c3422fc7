package handler

import (
	"net/http"

	"oeecore/internal/service"

	"github.com/gin-gonic/gin"
)

// EquipmentHandler serves the read-only equipment registry mirror
type EquipmentHandler struct {
	queryService *service.QueryService
}

// NewEquipmentHandler creates equipment handler
func NewEquipmentHandler(queryService *service.QueryService) *EquipmentHandler {
	return &EquipmentHandler{queryService: queryService}
}

// List lists registered equipment
// @Summary List equipment
// @Tags equipment
// @Produce json
// @Success 200 {array} model.EquipmentResponse
// @Router /api/v1/equipment [get]
func (h *EquipmentHandler) List(c *gin.Context) {
	resp, err := h.queryService.ListEquipment(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ListShifts lists the shift instances of one equipment inside a window
// @Summary List shift instances
// @Tags equipment
// @Produce json
// @Param id path string true "Equipment ID"
// @Param start query string true "Window start (RFC3339)"
// @Param end query string true "Window end (RFC3339)"
// @Success 200 {array} model.ShiftInstanceResponse
// @Router /api/v1/equipment/{id}/shifts [get]
func (h *EquipmentHandler) ListShifts(c *gin.Context) {
	window, ok := parseWindow(c)
	if !ok {
		return
	}
	resp, err := h.queryService.ListShiftInstances(c.Request.Context(), c.Param("id"), window.Start, window.End)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
