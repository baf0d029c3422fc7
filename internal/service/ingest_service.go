package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"oeecore/internal/model"
	"oeecore/pkg/logger"
	"oeecore/pkg/oee"
	"oeecore/pkg/queue/asynq"
	"oeecore/pkg/store/mysql"
	mysqlModel "oeecore/pkg/store/mysql/model"
	redisstore "oeecore/pkg/store/redis"

	"github.com/google/uuid"
)

// IngestService validates and appends raw telemetry batches. Batches may
// arrive out of order or duplicated: the append-only log absorbs duplicates
// through its unique keys, and re-submitting an already-seen event is a no-op,
// not an error. Malformed records are rejected individually; the rest of the
// batch proceeds.
type IngestService struct {
	repo  *mysql.Repository
	queue *asynq.Manager
	cache *redisstore.ResultCache
}

// NewIngestService creates a new ingest service
func NewIngestService(repo *mysql.Repository, queue *asynq.Manager, cache *redisstore.ResultCache) *IngestService {
	return &IngestService{repo: repo, queue: queue, cache: cache}
}

// IngestStateEvents appends a batch of state-change events.
func (s *IngestService) IngestStateEvents(ctx context.Context, req *model.StateEventBatchRequest) (*model.BatchIngestResponse, error) {
	resp := newBatchResponse()
	ingestedAt := time.Now().UTC()

	seen := make(map[string]bool, len(req.Events))
	rows := make([]*mysqlModel.StateEventRow, 0, len(req.Events))
	touched := make(map[string][]oee.Window)

	for i, rec := range req.Events {
		start := rec.StartTime
		if start.IsZero() {
			start = rec.Timestamp
		}
		ev := oee.StateEvent{
			EquipmentID: rec.EquipmentID,
			State:       oee.MachineState(rec.State),
			Category:    oee.SegmentCategory(rec.Category),
			ReasonCode:  rec.ReasonCode,
			StartTime:   start,
			EndTime:     rec.EndTime,
			IngestedAt:  ingestedAt,
		}
		if err := oee.ValidateStateEvent(ev); err != nil {
			resp.Rejected = append(resp.Rejected, rejection(i, err))
			continue
		}

		key := fmt.Sprintf("%s|%d", rec.EquipmentID, rec.Timestamp.UnixNano())
		if seen[key] {
			resp.Duplicates++
			continue
		}
		seen[key] = true

		rows = append(rows, &mysqlModel.StateEventRow{
			EquipmentID: rec.EquipmentID,
			Timestamp:   rec.Timestamp,
			State:       rec.State,
			Category:    rec.Category,
			ReasonCode:  rec.ReasonCode,
			StartTime:   start,
			EndTime:     rec.EndTime,
			IngestedAt:  ingestedAt,
		})
		markTouched(touched, rec.EquipmentID, start)
	}

	inserted, err := s.repo.Event.InsertStateEvents(ctx, rows)
	if err != nil {
		return nil, err
	}
	s.finishBatch(ctx, resp, len(rows), inserted, touched)
	return resp, nil
}

// IngestProductionCounts appends a batch of production-count events.
func (s *IngestService) IngestProductionCounts(ctx context.Context, req *model.ProductionCountBatchRequest) (*model.BatchIngestResponse, error) {
	resp := newBatchResponse()
	ingestedAt := time.Now().UTC()

	seen := make(map[string]bool, len(req.Events))
	rows := make([]*mysqlModel.ProductionCountEventRow, 0, len(req.Events))
	touched := make(map[string][]oee.Window)

	for i, rec := range req.Events {
		ev := oee.ProductionCountEvent{
			EquipmentID:     rec.EquipmentID,
			Timestamp:       rec.Timestamp,
			TotalCount:      rec.TotalCount,
			GoodCount:       rec.GoodCount,
			RejectCount:     rec.RejectCount,
			ActualCycleTime: time.Duration(rec.ActualCycleTime * float64(time.Second)),
			IngestedAt:      ingestedAt,
		}
		if err := oee.ValidateProductionCountEvent(ev); err != nil {
			resp.Rejected = append(resp.Rejected, rejection(i, err))
			continue
		}

		key := fmt.Sprintf("%s|%d", rec.EquipmentID, rec.Timestamp.UnixNano())
		if seen[key] {
			resp.Duplicates++
			continue
		}
		seen[key] = true

		rows = append(rows, &mysqlModel.ProductionCountEventRow{
			EquipmentID:       rec.EquipmentID,
			Timestamp:         rec.Timestamp,
			TotalCount:        rec.TotalCount,
			GoodCount:         rec.GoodCount,
			RejectCount:       rec.RejectCount,
			ActualCycleTimeMs: ev.ActualCycleTime.Milliseconds(),
			IngestedAt:        ingestedAt,
		})
		markTouched(touched, rec.EquipmentID, rec.Timestamp)
	}

	inserted, err := s.repo.Event.InsertProductionCountEvents(ctx, rows)
	if err != nil {
		return nil, err
	}
	s.finishBatch(ctx, resp, len(rows), inserted, touched)
	return resp, nil
}

// IngestQualityEvents appends a batch of quality events.
func (s *IngestService) IngestQualityEvents(ctx context.Context, req *model.QualityBatchRequest) (*model.BatchIngestResponse, error) {
	resp := newBatchResponse()
	ingestedAt := time.Now().UTC()

	seen := make(map[string]bool, len(req.Events))
	rows := make([]*mysqlModel.QualityEventRow, 0, len(req.Events))
	touched := make(map[string][]oee.Window)

	for i, rec := range req.Events {
		ev := oee.QualityEvent{
			EquipmentID: rec.EquipmentID,
			Timestamp:   rec.Timestamp,
			EventType:   rec.EventType,
			DefectCode:  rec.DefectCode,
			Quantity:    rec.Quantity,
			IngestedAt:  ingestedAt,
		}
		if err := oee.ValidateQualityEvent(ev); err != nil {
			resp.Rejected = append(resp.Rejected, rejection(i, err))
			continue
		}

		key := fmt.Sprintf("%s|%d|%s", rec.EquipmentID, rec.Timestamp.UnixNano(), rec.EventType)
		if seen[key] {
			resp.Duplicates++
			continue
		}
		seen[key] = true

		rows = append(rows, &mysqlModel.QualityEventRow{
			EquipmentID: rec.EquipmentID,
			Timestamp:   rec.Timestamp,
			EventType:   rec.EventType,
			DefectCode:  rec.DefectCode,
			Quantity:    rec.Quantity,
			IngestedAt:  ingestedAt,
		})
		markTouched(touched, rec.EquipmentID, rec.Timestamp)
	}

	inserted, err := s.repo.Event.InsertQualityEvents(ctx, rows)
	if err != nil {
		return nil, err
	}
	s.finishBatch(ctx, resp, len(rows), inserted, touched)
	return resp, nil
}

func newBatchResponse() *model.BatchIngestResponse {
	return &model.BatchIngestResponse{BatchID: uuid.NewString()}
}

func rejection(index int, err error) model.RecordRejection {
	var verr *oee.ValidationError
	if errors.As(err, &verr) {
		return model.RecordRejection{Index: index, Field: verr.Field, Reason: verr.Reason}
	}
	return model.RecordRejection{Index: index, Reason: err.Error()}
}

// markTouched records the hour window an event lands in, so the recompute
// queue covers every window the batch dirtied.
func markTouched(touched map[string][]oee.Window, equipmentID string, t time.Time) {
	start := t.UTC().Truncate(time.Hour)
	window := oee.Window{Start: start, End: start.Add(time.Hour)}
	for _, w := range touched[equipmentID] {
		if w.Start.Equal(window.Start) {
			return
		}
	}
	touched[equipmentID] = append(touched[equipmentID], window)
}

// finishBatch fills the batch report and enqueues recomputes for the hour
// windows the batch touched. Enqueue failures are logged, not surfaced: the
// events are durably appended and the periodic rollup jobs will cover them.
func (s *IngestService) finishBatch(ctx context.Context, resp *model.BatchIngestResponse, valid int, inserted int64, touched map[string][]oee.Window) {
	resp.Accepted = int(inserted)
	resp.Duplicates += valid - int(inserted)

	if inserted == 0 {
		return
	}

	// New raw data makes any cached result for the touched windows out of
	// date before the recompute lands.
	if s.cache != nil {
		for equipmentID, windows := range touched {
			for _, w := range windows {
				if err := s.cache.Invalidate(ctx, equipmentID, w, ""); err != nil {
					logger.WarnCtx(ctx, "failed to invalidate cached result for %s: %v", equipmentID, err)
				}
			}
		}
	}

	if s.queue == nil {
		return
	}
	for equipmentID, windows := range touched {
		for _, w := range windows {
			payload := &asynq.RecomputePayload{
				EquipmentID: equipmentID,
				WindowStart: w.Start,
				WindowEnd:   w.End,
				Resolution:  oee.ResolutionHourly,
			}
			if err := s.queue.EnqueueRecompute(ctx, payload); err != nil {
				logger.WarnCtx(ctx, "failed to enqueue recompute for %s [%s, %s): %v",
					equipmentID, w.Start.Format(time.RFC3339), w.End.Format(time.RFC3339), err)
			}
		}
	}
}
