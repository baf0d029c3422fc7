package handler

import (
	"net/http"

	"oeecore/internal/model"
	"oeecore/internal/service"
	"oeecore/pkg/logger"
	"oeecore/pkg/oee"
	"oeecore/pkg/queue/asynq"

	"github.com/gin-gonic/gin"
)

// IngestHandler handles telemetry batch ingestion
type IngestHandler struct {
	ingestService *service.IngestService
	queue         *asynq.Manager
}

// NewIngestHandler creates ingest handler
func NewIngestHandler(ingestService *service.IngestService, queue *asynq.Manager) *IngestHandler {
	return &IngestHandler{
		ingestService: ingestService,
		queue:         queue,
	}
}

// IngestStateEvents ingests a batch of state-change events
// @Summary Ingest state events
// @Description Ingest a batch of equipment state-change events; records are accepted or rejected individually
// @Tags events
// @Accept json
// @Produce json
// @Param batch body model.StateEventBatchRequest true "State event batch"
// @Success 200 {object} model.BatchIngestResponse
// @Router /api/v1/events/state [post]
func (h *IngestHandler) IngestStateEvents(c *gin.Context) {
	var req model.StateEventBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	resp, err := h.ingestService.IngestStateEvents(c.Request.Context(), &req)
	if err != nil {
		logger.ErrorCtx(c.Request.Context(), "state event ingest failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "ingest failed"})
		return
	}

	c.JSON(http.StatusOK, resp)
}

// IngestProductionCounts ingests a batch of production count events
// @Summary Ingest production counts
// @Tags events
// @Accept json
// @Produce json
// @Param batch body model.ProductionCountBatchRequest true "Production count batch"
// @Success 200 {object} model.BatchIngestResponse
// @Router /api/v1/events/production [post]
func (h *IngestHandler) IngestProductionCounts(c *gin.Context) {
	var req model.ProductionCountBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	resp, err := h.ingestService.IngestProductionCounts(c.Request.Context(), &req)
	if err != nil {
		logger.ErrorCtx(c.Request.Context(), "production count ingest failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "ingest failed"})
		return
	}

	c.JSON(http.StatusOK, resp)
}

// IngestQualityEvents ingests a batch of quality events
// @Summary Ingest quality events
// @Tags events
// @Accept json
// @Produce json
// @Param batch body model.QualityBatchRequest true "Quality event batch"
// @Success 200 {object} model.BatchIngestResponse
// @Router /api/v1/events/quality [post]
func (h *IngestHandler) IngestQualityEvents(c *gin.Context) {
	var req model.QualityBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	resp, err := h.ingestService.IngestQualityEvents(c.Request.Context(), &req)
	if err != nil {
		logger.ErrorCtx(c.Request.Context(), "quality event ingest failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "ingest failed"})
		return
	}

	c.JSON(http.StatusOK, resp)
}

// Recompute force-recomputes one window
// @Summary Force recompute
// @Description Enqueue recomputation of one equipment window
// @Tags admin
// @Accept json
// @Produce json
// @Param id path string true "Equipment ID"
// @Param window body model.RecomputeRequest true "Window to recompute"
// @Success 202 {object} model.RecomputeResponse
// @Router /api/v1/equipment/{id}/recompute [post]
func (h *IngestHandler) Recompute(c *gin.Context) {
	equipmentID := c.Param("id")
	if equipmentID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "equipment id required"})
		return
	}

	var req model.RecomputeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !req.End.After(req.Start) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "end must be after start"})
		return
	}

	payload := &asynq.RecomputePayload{
		EquipmentID:     equipmentID,
		WindowStart:     req.Start,
		WindowEnd:       req.End,
		ShiftInstanceID: req.ShiftInstanceID,
		Resolution:      resolutionFor(oee.Window{Start: req.Start, End: req.End}, req.ShiftInstanceID),
	}
	if err := h.queue.EnqueueRecompute(c.Request.Context(), payload); err != nil {
		logger.ErrorCtx(c.Request.Context(), "failed to enqueue recompute for %s: %v", equipmentID, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to enqueue recompute"})
		return
	}

	c.JSON(http.StatusAccepted, model.RecomputeResponse{
		EquipmentID: equipmentID,
		Start:       req.Start,
		End:         req.End,
		Enqueued:    true,
	})
}

// QueueStats reports the recompute queue backlog
// @Summary Recompute queue stats
// @Tags admin
// @Produce json
// @Success 200 {object} map[string]int
// @Router /api/v1/queue/stats [get]
func (h *IngestHandler) QueueStats(c *gin.Context) {
	pending, err := h.queue.GetPendingTaskCount()
	if err != nil {
		logger.ErrorCtx(c.Request.Context(), "failed to inspect recompute queue: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "queue inspection failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"pending": pending})
}
