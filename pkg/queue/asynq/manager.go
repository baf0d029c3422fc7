package asynq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"oeecore/pkg/config"
	"oeecore/pkg/logger"
	"oeecore/pkg/oee"

	"github.com/hibiken/asynq"
)

const (
	TypeRecompute = "oee:recompute"
)

// RecomputePayload identifies one calculation window to recompute.
type RecomputePayload struct {
	EquipmentID     string         `json:"equipment_id"`
	WindowStart     time.Time      `json:"window_start"`
	WindowEnd       time.Time      `json:"window_end"`
	ShiftInstanceID string         `json:"shift_instance_id,omitempty"`
	Resolution      oee.Resolution `json:"resolution"`
}

// TaskID returns a deterministic identifier so concurrent enqueues of the
// same window coalesce into a single pending task.
func (p *RecomputePayload) TaskID() string {
	return fmt.Sprintf("recompute:%s:%d:%d:%s",
		p.EquipmentID, p.WindowStart.Unix(), p.WindowEnd.Unix(), p.ShiftInstanceID)
}

// Manager queue manager
type Manager struct {
	client *asynq.Client
	server *asynq.Server
	mux    *asynq.ServeMux
}

// NewManager creates queue manager
func NewManager(cfg *config.Config) (*Manager, error) {
	redisOpt := asynq.RedisClientOpt{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	}

	client := asynq.NewClient(redisOpt)

	server := asynq.NewServer(
		redisOpt,
		asynq.Config{
			Concurrency: cfg.Queue.Concurrency,
			Queues: map[string]int{
				"default": 10,
			},
			RetryDelayFunc: func(n int, err error, task *asynq.Task) time.Duration {
				return time.Duration(n) * time.Second
			},
		},
	)

	mux := asynq.NewServeMux()

	return &Manager{
		client: client,
		server: server,
		mux:    mux,
	}, nil
}

// EnqueueRecompute enqueues a recompute task for one calculation window.
// Duplicate windows already pending are dropped via the deterministic task ID.
func (m *Manager) EnqueueRecompute(ctx context.Context, payload *RecomputePayload) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal recompute payload: %w", err)
	}

	task := asynq.NewTask(TypeRecompute, data)

	opts := []asynq.Option{
		asynq.TaskID(payload.TaskID()),
		asynq.Timeout(time.Duration(config.GlobalConfig.Queue.TaskTimeout) * time.Second),
		asynq.MaxRetry(config.GlobalConfig.Queue.MaxRetry),
	}

	info, err := m.client.EnqueueContext(ctx, task, opts...)
	if err != nil {
		if errors.Is(err, asynq.ErrTaskIDConflict) {
			// identical window already queued, nothing to do
			return nil
		}
		return fmt.Errorf("failed to enqueue recompute: %w", err)
	}

	logger.InfoCtx(ctx, "recompute enqueued, equipment_id: %s, window: [%s, %s), queue: %s",
		payload.EquipmentID, payload.WindowStart.Format(time.RFC3339), payload.WindowEnd.Format(time.RFC3339), info.Queue)

	return nil
}

// RegisterHandler registers task handler
func (m *Manager) RegisterHandler(pattern string, handler asynq.Handler) {
	m.mux.Handle(pattern, handler)
}

// Start starts queue processor
func (m *Manager) Start() error {
	logger.InfoCtx(context.Background(), "starting queue server")
	return m.server.Start(m.mux)
}

// Stop stops queue processor
func (m *Manager) Stop() {
	logger.InfoCtx(context.Background(), "stopping queue server")
	m.server.Stop()
	m.server.Shutdown()
}

// Close closes client
func (m *Manager) Close() error {
	return m.client.Close()
}

// GetPendingTaskCount retrieves pending task count
func (m *Manager) GetPendingTaskCount() (int, error) {
	inspector := asynq.NewInspector(asynq.RedisClientOpt{
		Addr:     config.GlobalConfig.Redis.Addr,
		Password: config.GlobalConfig.Redis.Password,
		DB:       config.GlobalConfig.Redis.DB,
	})
	defer inspector.Close()

	stats, err := inspector.GetQueueInfo("default")
	if err != nil {
		return 0, err
	}

	return stats.Pending, nil
}
