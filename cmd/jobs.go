package main

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"oeecore/internal/jobs"
	"oeecore/internal/service"
	"oeecore/pkg/logger"
	mysqlstore "oeecore/pkg/store/mysql"
	redisstore "oeecore/pkg/store/redis"
)

func (app *Application) initJobs() error {
	if app.rollupService == nil {
		logger.WarnCtx(app.ctx, "Service layer not fully initialized yet, skipping background task registration")
		return nil
	}

	manager := jobs.NewManager(app.ctx)

	// Distributed locks keep multiple replicas from double-aggregating the
	// same window. Without Redis they degrade to single-instance mode.
	var redisClient *redis.Client
	if app.redisClient != nil {
		redisClient = app.redisClient.GetClient()
	}

	realtimeLock := redisstore.NewDistributedLock(redisClient, "rollup:realtime")
	hourlyLock := redisstore.NewDistributedLock(redisClient, "rollup:hourly")
	dailyLock := redisstore.NewDistributedLock(redisClient, "rollup:daily")
	shiftLock := redisstore.NewDistributedLock(redisClient, "rollup:shift-close")
	cleanupLock := redisstore.NewDistributedLock(redisClient, "cleanup:retention")

	realtimeInterval := app.config.Rollup.RealtimeInterval
	manager.Register(newRealtimeRollupJob(realtimeInterval, app.rollupService, realtimeLock))
	manager.Register(newHourlyRollupJob(app.rollupService, hourlyLock))
	manager.Register(newDailyRollupJob(app.rollupService, dailyLock))
	manager.Register(newShiftCloseJob(5*time.Minute, app.rollupService, shiftLock))
	manager.Register(newRetentionCleanupJob(app.mysqlRepo, app.config.Rollup.RealtimeRetention, app.config.Rollup.AnomalyRetention, cleanupLock))

	app.jobsManager = manager
	return nil
}

// realtimeRollupJob computes the latest realtime window for all active
// equipment.
type realtimeRollupJob struct {
	interval        time.Duration
	rollupService   *service.RollupService
	distributedLock *redisstore.DistributedLock
}

func newRealtimeRollupJob(interval time.Duration, svc *service.RollupService, lock *redisstore.DistributedLock) jobs.Job {
	return &realtimeRollupJob{
		interval:        interval,
		rollupService:   svc,
		distributedLock: lock,
	}
}

func (j *realtimeRollupJob) Name() string {
	return "rollup-realtime"
}

func (j *realtimeRollupJob) Interval() time.Duration {
	return j.interval
}

func (j *realtimeRollupJob) AlignToInterval() bool { return true }

func (j *realtimeRollupJob) Run(ctx context.Context) error {
	if j.rollupService == nil {
		return fmt.Errorf("rollup service not configured")
	}

	// Try to acquire distributed lock
	if j.distributedLock != nil {
		acquired, err := j.distributedLock.TryLock(ctx)
		if err != nil || !acquired {
			logger.DebugCtx(ctx, "another instance is running the realtime rollup, skipping this cycle")
			return nil
		}
		defer j.distributedLock.Unlock(ctx)
	}

	return j.rollupService.RunRealtime(ctx, j.interval)
}

// hourlyRollupJob computes the previous hour for all active equipment.
type hourlyRollupJob struct {
	rollupService   *service.RollupService
	distributedLock *redisstore.DistributedLock
}

func newHourlyRollupJob(svc *service.RollupService, lock *redisstore.DistributedLock) jobs.Job {
	return &hourlyRollupJob{rollupService: svc, distributedLock: lock}
}

func (j *hourlyRollupJob) Name() string { return "rollup-hourly" }

func (j *hourlyRollupJob) Interval() time.Duration { return time.Hour }

func (j *hourlyRollupJob) AlignToInterval() bool { return true }

func (j *hourlyRollupJob) Run(ctx context.Context) error {
	if j.rollupService == nil {
		return fmt.Errorf("rollup service not configured")
	}
	if j.distributedLock != nil {
		acquired, err := j.distributedLock.TryLock(ctx)
		if err != nil || !acquired {
			return nil
		}
		defer j.distributedLock.Unlock(ctx)
	}
	return j.rollupService.RunHourly(ctx)
}

// dailyRollupJob re-aggregates the running day and finalizes the previous
// day from stored hourly totals.
type dailyRollupJob struct {
	rollupService   *service.RollupService
	distributedLock *redisstore.DistributedLock
}

func newDailyRollupJob(svc *service.RollupService, lock *redisstore.DistributedLock) jobs.Job {
	return &dailyRollupJob{rollupService: svc, distributedLock: lock}
}

func (j *dailyRollupJob) Name() string { return "rollup-daily" }

func (j *dailyRollupJob) Interval() time.Duration { return time.Hour }

func (j *dailyRollupJob) AlignToInterval() bool { return true }

func (j *dailyRollupJob) Run(ctx context.Context) error {
	if j.rollupService == nil {
		return fmt.Errorf("rollup service not configured")
	}
	if j.distributedLock != nil {
		acquired, err := j.distributedLock.TryLock(ctx)
		if err != nil || !acquired {
			return nil
		}
		defer j.distributedLock.Unlock(ctx)
	}
	return j.rollupService.RunDaily(ctx)
}

// shiftCloseJob computes per-shift results for recently ended shift
// instances.
type shiftCloseJob struct {
	interval        time.Duration
	rollupService   *service.RollupService
	distributedLock *redisstore.DistributedLock
}

func newShiftCloseJob(interval time.Duration, svc *service.RollupService, lock *redisstore.DistributedLock) jobs.Job {
	return &shiftCloseJob{
		interval:        interval,
		rollupService:   svc,
		distributedLock: lock,
	}
}

func (j *shiftCloseJob) Name() string { return "rollup-shift-close" }

func (j *shiftCloseJob) Interval() time.Duration { return j.interval }

func (j *shiftCloseJob) Run(ctx context.Context) error {
	if j.rollupService == nil {
		return fmt.Errorf("rollup service not configured")
	}
	if j.distributedLock != nil {
		acquired, err := j.distributedLock.TryLock(ctx)
		if err != nil || !acquired {
			return nil
		}
		defer j.distributedLock.Unlock(ctx)
	}

	// Look back two cycles so an instance ending during a skipped cycle
	// (lock contention, restart) is still picked up.
	return j.rollupService.RunShiftClose(ctx, 2*j.interval)
}

// retentionCleanupJob prunes old realtime-resolution results and old anomaly
// warnings. Raw events are append-only and never pruned here.
type retentionCleanupJob struct {
	repo              *mysqlstore.Repository
	realtimeRetention time.Duration
	anomalyRetention  time.Duration
	distributedLock   *redisstore.DistributedLock
}

func newRetentionCleanupJob(repo *mysqlstore.Repository, realtimeRetention, anomalyRetention time.Duration, lock *redisstore.DistributedLock) jobs.Job {
	return &retentionCleanupJob{
		repo:              repo,
		realtimeRetention: realtimeRetention,
		anomalyRetention:  anomalyRetention,
		distributedLock:   lock,
	}
}

func (j *retentionCleanupJob) Name() string { return "retention-cleanup" }

func (j *retentionCleanupJob) Interval() time.Duration { return time.Hour }

func (j *retentionCleanupJob) Run(ctx context.Context) error {
	if j.repo == nil {
		return nil
	}
	if j.distributedLock != nil {
		acquired, err := j.distributedLock.TryLock(ctx)
		if err != nil || !acquired {
			return nil
		}
		defer j.distributedLock.Unlock(ctx)
	}

	now := time.Now().UTC()

	realtimeRows, err := j.repo.Result.CleanupOldRealtime(ctx, now.Add(-j.realtimeRetention))
	if err != nil {
		return err
	}
	if realtimeRows > 0 {
		logger.InfoCtx(ctx, "cleaned up %d old realtime results", realtimeRows)
	}

	anomalyRows, err := j.repo.Anomaly.CleanupOld(ctx, now.Add(-j.anomalyRetention))
	if err != nil {
		return err
	}
	if anomalyRows > 0 {
		logger.InfoCtx(ctx, "cleaned up %d old anomaly warnings", anomalyRows)
	}

	return nil
}
