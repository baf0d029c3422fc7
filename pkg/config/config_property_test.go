// Package config provides property-based tests for configuration fallback functionality.
// These tests verify universal properties that should hold across all valid inputs.
package config

import (
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// TestProperty_InvalidCalculationValuesFallBackToDefault tests that invalid
// calculation settings fall back to defaults.
//
// Property: For any non-positive recompute timeout, cache TTL, or trend
// window limit, the system SHALL use the default value, ensuring the system
// remains operational.
func TestProperty_InvalidCalculationValuesFallBackToDefault(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	parameters.MaxSize = 50

	properties := gopter.NewProperties(parameters)
	defaults := DefaultCalculationConfig()

	properties.Property("non-positive recompute timeout falls back to default", prop.ForAll(
		func(seconds int) bool {
			cfg := &Config{
				Calculation: CalculationConfig{
					RecomputeTimeout: time.Duration(seconds) * time.Second,
					CacheTTL:         defaults.CacheTTL,
					TrendMaxWindows:  defaults.TrendMaxWindows,
				},
			}

			validateAndApplyDefaults(cfg)

			return cfg.Calculation.RecomputeTimeout == defaults.RecomputeTimeout
		},
		gen.IntRange(-1000, 0),
	))

	properties.Property("non-positive cache TTL falls back to default", prop.ForAll(
		func(seconds int) bool {
			cfg := &Config{
				Calculation: CalculationConfig{
					RecomputeTimeout: defaults.RecomputeTimeout,
					CacheTTL:         time.Duration(seconds) * time.Second,
					TrendMaxWindows:  defaults.TrendMaxWindows,
				},
			}

			validateAndApplyDefaults(cfg)

			return cfg.Calculation.CacheTTL == defaults.CacheTTL
		},
		gen.IntRange(-1000, 0),
	))

	properties.Property("non-positive trend window limit falls back to default", prop.ForAll(
		func(limit int) bool {
			cfg := &Config{
				Calculation: CalculationConfig{
					RecomputeTimeout: defaults.RecomputeTimeout,
					CacheTTL:         defaults.CacheTTL,
					TrendMaxWindows:  limit,
				},
			}

			validateAndApplyDefaults(cfg)

			return cfg.Calculation.TrendMaxWindows == defaults.TrendMaxWindows
		},
		gen.IntRange(-100, 0),
	))

	properties.TestingRun(t)
}

// TestProperty_RealtimeIntervalClampedToRange tests that the realtime rollup
// interval outside the supported 1-5 minute range falls back to the default.
//
// Property: For any realtime interval below one minute or above five minutes,
// the system SHALL use the default interval; values inside the range are kept
// unchanged.
func TestProperty_RealtimeIntervalClampedToRange(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	parameters.MaxSize = 50

	properties := gopter.NewProperties(parameters)
	defaults := DefaultRollupConfig()

	properties.Property("out-of-range realtime interval falls back to default", prop.ForAll(
		func(seconds int) bool {
			interval := time.Duration(seconds) * time.Second
			if interval >= time.Minute && interval <= 5*time.Minute {
				// in-range values are covered by the property below
				return true
			}
			cfg := &Config{
				Rollup: RollupConfig{
					RealtimeInterval:  interval,
					RealtimeRetention: defaults.RealtimeRetention,
					AnomalyRetention:  defaults.AnomalyRetention,
				},
			}

			validateAndApplyDefaults(cfg)

			return cfg.Rollup.RealtimeInterval == defaults.RealtimeInterval
		},
		gen.IntRange(-600, 3600),
	))

	properties.Property("in-range realtime interval is preserved", prop.ForAll(
		func(seconds int) bool {
			interval := time.Duration(seconds) * time.Second
			cfg := &Config{
				Rollup: RollupConfig{
					RealtimeInterval:  interval,
					RealtimeRetention: defaults.RealtimeRetention,
					AnomalyRetention:  defaults.AnomalyRetention,
				},
			}

			validateAndApplyDefaults(cfg)

			return cfg.Rollup.RealtimeInterval == interval
		},
		gen.IntRange(60, 300),
	))

	properties.TestingRun(t)
}

// TestProperty_QueueDefaultsApplied tests that invalid queue settings fall
// back to defaults while valid settings are preserved.
func TestProperty_QueueDefaultsApplied(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	parameters.MaxSize = 50

	properties := gopter.NewProperties(parameters)
	defaults := DefaultQueueConfig()

	properties.Property("non-positive concurrency falls back to default", prop.ForAll(
		func(concurrency int) bool {
			cfg := &Config{Queue: QueueConfig{
				Concurrency: concurrency,
				MaxRetry:    defaults.MaxRetry,
				TaskTimeout: defaults.TaskTimeout,
			}}

			validateAndApplyDefaults(cfg)

			return cfg.Queue.Concurrency == defaults.Concurrency
		},
		gen.IntRange(-100, 0),
	))

	properties.Property("valid queue settings are preserved", prop.ForAll(
		func(concurrency, maxRetry, timeout int) bool {
			cfg := &Config{Queue: QueueConfig{
				Concurrency: concurrency,
				MaxRetry:    maxRetry,
				TaskTimeout: timeout,
			}}

			validateAndApplyDefaults(cfg)

			return cfg.Queue.Concurrency == concurrency &&
				cfg.Queue.MaxRetry == maxRetry &&
				cfg.Queue.TaskTimeout == timeout
		},
		gen.IntRange(1, 100),
		gen.IntRange(0, 10),
		gen.IntRange(1, 600),
	))

	properties.TestingRun(t)
}
