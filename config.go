package icykv

import "time"

// Config consolidates every tunable the core's ambient stack exposes,
// in the style of forma's own Config{Store, Query, Executor, ...} nested
// tree of small structs (SPEC_FULL §2.1 "Configuration").
type Config struct {
	Store         StoreConfig         `json:"store"`
	Query         QueryConfig         `json:"query"`
	Executor      ExecutorConfig      `json:"executor"`
	Cursor        CursorConfig        `json:"cursor"`
	Observability ObservabilityConfig `json:"observability"`
}

// StoreConfig carries registry-level sizing hints consumed by reference
// store adapters (internal/store, internal/pgstore), never by the core
// itself.
type StoreConfig struct {
	MaxMemoryBytes int64         `json:"maxMemoryBytes"`
	DialTimeout    time.Duration `json:"dialTimeout"`
}

// QueryConfig carries the group-by bounds and default page size the
// planner/executor enforce (spec.md §4.9 "bounded group cardinality").
type QueryConfig struct {
	DefaultPageSize int `json:"defaultPageSize"`
	MaxPageSize     int `json:"maxPageSize"`
	MaxGroups       int `json:"maxGroups"`
	MaxGroupRows    int `json:"maxGroupRows"`
}

// ExecutorConfig carries the default physical_fetch_hint/load_scan_budget
// multipliers the kernel applies when a caller doesn't supply its own
// (spec.md §4.8 "scan_hints").
type ExecutorConfig struct {
	ScanBudgetMultiplier int `json:"scanBudgetMultiplier"`
}

// CursorConfig carries the active wire version and the max token size
// (spec.md §6 "Wire-level cursor token").
type CursorConfig struct {
	MaxTokenBytes int  `json:"maxTokenBytes"`
	WireVersion   uint8 `json:"wireVersion"`
}

// ObservabilityConfig toggles the default ZapSink vs. NopSink/CountingSink
// wiring (spec.md §4.11).
type ObservabilityConfig struct {
	Enabled bool   `json:"enabled"`
	Level   string `json:"level"`
}

// DefaultConfig returns the configuration a freshly constructed Engine
// uses absent caller overrides.
func DefaultConfig() *Config {
	return &Config{
		Store: StoreConfig{
			MaxMemoryBytes: 256 * 1024 * 1024,
			DialTimeout:    5 * time.Second,
		},
		Query: QueryConfig{
			DefaultPageSize: 50,
			MaxPageSize:     500,
			MaxGroups:       10000,
			MaxGroupRows:    100000,
		},
		Executor: ExecutorConfig{
			ScanBudgetMultiplier: 1,
		},
		Cursor: CursorConfig{
			MaxTokenBytes: 8 * 1024,
			WireVersion:   2,
		},
		Observability: ObservabilityConfig{
			Enabled: true,
			Level:   "info",
		},
	}
}

// Validate checks the configuration, returning the first violation found
// (same single-first-error shape as forma's own Config.Validate).
func (c *Config) Validate() error {
	if c.Query.DefaultPageSize <= 0 {
		return &ConfigError{Field: "query.defaultPageSize", Message: "must be greater than 0"}
	}
	if c.Query.MaxPageSize < c.Query.DefaultPageSize {
		return &ConfigError{Field: "query.maxPageSize", Message: "must be greater than or equal to defaultPageSize"}
	}
	if c.Query.MaxGroups <= 0 {
		return &ConfigError{Field: "query.maxGroups", Message: "must be greater than 0"}
	}
	if c.Query.MaxGroupRows <= 0 {
		return &ConfigError{Field: "query.maxGroupRows", Message: "must be greater than 0"}
	}
	if c.Cursor.MaxTokenBytes <= 0 {
		return &ConfigError{Field: "cursor.maxTokenBytes", Message: "must be greater than 0"}
	}
	if c.Executor.ScanBudgetMultiplier <= 0 {
		return &ConfigError{Field: "executor.scanBudgetMultiplier", Message: "must be greater than 0"}
	}
	return nil
}

// ConfigError reports a single configuration validation failure.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return "config: " + e.Field + ": " + e.Message
}
