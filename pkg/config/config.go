package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

var GlobalConfig *Config

// Config global configuration
type Config struct {
	Server      ServerConfig      `yaml:"server"`
	Redis       RedisConfig       `yaml:"redis"`
	MySQL       MySQLConfig       `yaml:"mysql"`
	Queue       QueueConfig       `yaml:"queue"`
	Calculation CalculationConfig `yaml:"calculation"`
	Rollup      RollupConfig      `yaml:"rollup"`
	Logger      LoggerConfig      `yaml:"logger"`
}

// ServerConfig server configuration
type ServerConfig struct {
	Port   int    `yaml:"port"`
	Mode   string `yaml:"mode"`    // debug, release
	APIKey string `yaml:"api_key"` // API key for ingest/admin authentication (optional, if empty, auth is disabled)
}

// RedisConfig Redis configuration
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// MySQLConfig MySQL configuration
type MySQLConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
}

// QueueConfig recompute queue configuration
type QueueConfig struct {
	Concurrency int `yaml:"concurrency"`  // recompute worker concurrency
	MaxRetry    int `yaml:"max_retry"`    // maximum retry count per recompute task
	TaskTimeout int `yaml:"task_timeout"` // recompute task timeout (seconds)
}

// CalculationConfig OEE calculation configuration
type CalculationConfig struct {
	RecomputeTimeout time.Duration `yaml:"recompute_timeout"` // query-triggered recompute budget before falling back to stale cache
	CacheTTL         time.Duration `yaml:"cache_ttl"`         // result cache TTL
	TrendMaxWindows  int           `yaml:"trend_max_windows"` // upper bound on windows materialized per trend query
}

// RollupConfig aggregation scheduler configuration
type RollupConfig struct {
	RealtimeInterval  time.Duration `yaml:"realtime_interval"`  // realtime rollup period (1-5 minutes)
	RealtimeRetention time.Duration `yaml:"realtime_retention"` // how long realtime-resolution results are kept
	AnomalyRetention  time.Duration `yaml:"anomaly_retention"`  // how long anomaly warnings are kept
}

// LoggerConfig logger configuration
type LoggerConfig struct {
	Level  string           `yaml:"level"`  // debug, info, warn, error
	Output string           `yaml:"output"` // console, file, both
	File   LoggerFileConfig `yaml:"file"`
}

// LoggerFileConfig logger file configuration
type LoggerFileConfig struct {
	Path string `yaml:"path"`
}

// Init initializes configuration
func Init() error {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config/config.yaml"
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return err
	}

	validateAndApplyDefaults(&cfg)

	GlobalConfig = &cfg
	return nil
}
