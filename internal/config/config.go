// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - New() returns a Config populated with defaults.
// - Load(ctx) layers a YAML file and the environment on top of the defaults.
// - External errors are wrapped with this package's sentinel errors.
package config

import (
	"runtime"
	"time"
)

// Store drivers understood by the repository layer.
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`
	// LogJSON switches the log handler to JSON lines.
	LogJSON bool `koanf:"log_json"`
	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// StoreDriver selects the backing store: memory, sqlite or postgres.
	StoreDriver string `koanf:"store_driver"`
	// StoreDSN is the driver data source name (file path or postgres URL).
	StoreDSN string `koanf:"store_dsn"`

	// QueueSize bounds the async assessment job queue.
	QueueSize int `koanf:"queue_size"`
	// WorkerCount sets the number of job workers and the per-run scoring fan-out.
	WorkerCount int `koanf:"worker_count"`
	// DedupeSize caps the number of clans tracked by the in-flight guard.
	DedupeSize int `koanf:"dedupe_size"`

	// AssessmentTimeoutMS bounds a synchronous assessment request.
	AssessmentTimeoutMS int `koanf:"assessment_timeout_ms"`
	// AutoFreshHours is the window during which an auto run reuses the stored run.
	AutoFreshHours int `koanf:"auto_fresh_hours"`
	// TimelineDays is the activity lookback window.
	TimelineDays int `koanf:"timeline_days"`
	// SuccessorTenureDays and LieutenantTenureDays are the promotion tenure gates.
	SuccessorTenureDays  int `koanf:"successor_tenure_days"`
	LieutenantTenureDays int `koanf:"lieutenant_tenure_days"`

	// War and capital adapter windows.
	WarDaysBack        int `koanf:"war_days_back"`
	WarMinWars         int `koanf:"war_min_wars"`
	CapitalWeeksBack   int `koanf:"capital_weeks_back"`
	CapitalMinWeekends int `koanf:"capital_min_weekends"`

	// Default pillar weights applied when a request carries none.
	WeightWar         float64 `koanf:"weight_war"`
	WeightSocial      float64 `koanf:"weight_social"`
	WeightReliability float64 `koanf:"weight_reliability"`

	// AutoClans are assessed on a schedule every AutoIntervalMinutes (0 disables).
	AutoClans           []string `koanf:"auto_clans"`
	AutoIntervalMinutes int      `koanf:"auto_interval_minutes"`

	// CORSAllowedOrigins lists dashboard origins allowed to call the API.
	CORSAllowedOrigins []string `koanf:"cors_allowed_origins"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:             "info",
		Addr:                 ":9080",
		StoreDriver:          DriverMemory,
		QueueSize:            256,
		WorkerCount:          runtime.NumCPU(),
		DedupeSize:           1024,
		AssessmentTimeoutMS:  30_000,
		AutoFreshHours:       18,
		TimelineDays:         7,
		SuccessorTenureDays:  90,
		LieutenantTenureDays: 30,
		WarDaysBack:          90,
		WarMinWars:           3,
		CapitalWeeksBack:     8,
		CapitalMinWeekends:   2,
		WeightWar:            0.35,
		WeightSocial:         0.25,
		WeightReliability:    0.40,
		AutoIntervalMinutes:  60,
		CORSAllowedOrigins:   []string{"*"},
	}
}

// AssessmentTimeout returns the request-level timeout for synchronous runs.
func (c *Config) AssessmentTimeout() time.Duration {
	return time.Duration(c.AssessmentTimeoutMS) * time.Millisecond
}

// AutoFreshWindow returns the auto-run reuse window.
func (c *Config) AutoFreshWindow() time.Duration {
	return time.Duration(c.AutoFreshHours) * time.Hour
}

// AutoInterval returns the scheduler period; zero disables scheduling.
func (c *Config) AutoInterval() time.Duration {
	return time.Duration(c.AutoIntervalMinutes) * time.Minute
}
