package config

import "time"

// DefaultCalculationConfig returns the default calculation settings.
func DefaultCalculationConfig() CalculationConfig {
	return CalculationConfig{
		RecomputeTimeout: 5 * time.Second,
		CacheTTL:         10 * time.Minute,
		TrendMaxWindows:  500,
	}
}

// DefaultRollupConfig returns the default rollup settings.
func DefaultRollupConfig() RollupConfig {
	return RollupConfig{
		RealtimeInterval:  time.Minute,
		RealtimeRetention: 12 * time.Hour,
		AnomalyRetention:  30 * 24 * time.Hour,
	}
}

// DefaultQueueConfig returns the default recompute queue settings.
func DefaultQueueConfig() QueueConfig {
	return QueueConfig{
		Concurrency: 10,
		MaxRetry:    3,
		TaskTimeout: 60,
	}
}

// validateAndApplyDefaults replaces invalid or missing values with defaults
// so a partially filled config file still yields an operational service.
func validateAndApplyDefaults(cfg *Config) {
	calcDefaults := DefaultCalculationConfig()
	if cfg.Calculation.RecomputeTimeout <= 0 {
		cfg.Calculation.RecomputeTimeout = calcDefaults.RecomputeTimeout
	}
	if cfg.Calculation.CacheTTL <= 0 {
		cfg.Calculation.CacheTTL = calcDefaults.CacheTTL
	}
	if cfg.Calculation.TrendMaxWindows <= 0 {
		cfg.Calculation.TrendMaxWindows = calcDefaults.TrendMaxWindows
	}

	rollupDefaults := DefaultRollupConfig()
	if cfg.Rollup.RealtimeInterval < time.Minute || cfg.Rollup.RealtimeInterval > 5*time.Minute {
		cfg.Rollup.RealtimeInterval = rollupDefaults.RealtimeInterval
	}
	if cfg.Rollup.RealtimeRetention <= 0 {
		cfg.Rollup.RealtimeRetention = rollupDefaults.RealtimeRetention
	}
	if cfg.Rollup.AnomalyRetention <= 0 {
		cfg.Rollup.AnomalyRetention = rollupDefaults.AnomalyRetention
	}

	queueDefaults := DefaultQueueConfig()
	if cfg.Queue.Concurrency <= 0 {
		cfg.Queue.Concurrency = queueDefaults.Concurrency
	}
	if cfg.Queue.MaxRetry < 0 {
		cfg.Queue.MaxRetry = queueDefaults.MaxRetry
	}
	if cfg.Queue.TaskTimeout <= 0 {
		cfg.Queue.TaskTimeout = queueDefaults.TaskTimeout
	}
}
