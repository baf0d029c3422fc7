package model

import "time"

// StateEventRecord one raw state-change event in an ingest batch
type StateEventRecord struct {
	EquipmentID string     `json:"equipment_id" binding:"required"`
	Timestamp   time.Time  `json:"timestamp" binding:"required"`
	State       string     `json:"state" binding:"required"`
	Category    string     `json:"category,omitempty"`
	ReasonCode  string     `json:"reason_code,omitempty"`
	StartTime   time.Time  `json:"start_time"`
	EndTime     *time.Time `json:"end_time,omitempty"`
}

// ProductionCountRecord one raw production count event in an ingest batch
type ProductionCountRecord struct {
	EquipmentID     string    `json:"equipment_id" binding:"required"`
	Timestamp       time.Time `json:"timestamp" binding:"required"`
	TotalCount      int64     `json:"total_count"`
	GoodCount       int64     `json:"good_count"`
	RejectCount     int64     `json:"reject_count"`
	ActualCycleTime float64   `json:"actual_cycle_time,omitempty"` // seconds
}

// QualityRecord one raw quality event in an ingest batch
type QualityRecord struct {
	EquipmentID string    `json:"equipment_id" binding:"required"`
	Timestamp   time.Time `json:"timestamp" binding:"required"`
	EventType   string    `json:"event_type" binding:"required"`
	DefectCode  string    `json:"defect_code,omitempty"`
	Quantity    int64     `json:"quantity"`
}

// StateEventBatchRequest batch of state events
type StateEventBatchRequest struct {
	Events []StateEventRecord `json:"events" binding:"required"`
}

// ProductionCountBatchRequest batch of production count events
type ProductionCountBatchRequest struct {
	Events []ProductionCountRecord `json:"events" binding:"required"`
}

// QualityBatchRequest batch of quality events
type QualityBatchRequest struct {
	Events []QualityRecord `json:"events" binding:"required"`
}

// RecordRejection reports one rejected record of a batch. Index refers to the
// record's position in the submitted batch.
type RecordRejection struct {
	Index  int    `json:"index"`
	Field  string `json:"field,omitempty"`
	Reason string `json:"reason"`
}

// BatchIngestResponse per-batch ingest report. A batch partially succeeds:
// accepted records proceed, rejected records are reported, duplicates are
// silently absorbed.
type BatchIngestResponse struct {
	BatchID    string            `json:"batch_id"`
	Accepted   int               `json:"accepted"`
	Duplicates int               `json:"duplicates"`
	Rejected   []RecordRejection `json:"rejected,omitempty"`
}

// RecomputeRequest admin request to force recomputation of one window
type RecomputeRequest struct {
	Start           time.Time `json:"start" binding:"required"`
	End             time.Time `json:"end" binding:"required"`
	ShiftInstanceID string    `json:"shift_instance_id,omitempty"`
}

// RecomputeResponse acknowledges an enqueued recompute
type RecomputeResponse struct {
	EquipmentID string    `json:"equipment_id"`
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
	Enqueued    bool      `json:"enqueued"`
}
