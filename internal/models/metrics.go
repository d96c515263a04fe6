package models

import "time"

// SystemMetrics is a lightweight snapshot of the in-process counters.
type SystemMetrics struct {
	CacheHitRatio            float64   `json:"cache_hit_ratio"`
	CacheHits                uint64    `json:"cache_hits"`
	CacheMisses              uint64    `json:"cache_misses"`
	RequestsTotal            uint64    `json:"requests_total"`
	AverageRequestDurationMs float64   `json:"average_request_duration_ms"`
	ScheduleSaves            uint64    `json:"schedule_saves"`
	ScheduleSaveFailures     uint64    `json:"schedule_save_failures"`
	StaleCellsDropped        uint64    `json:"stale_cells_dropped"`
	ActiveSessions           int64     `json:"active_sessions"`
	MirrorJobsFailed         uint64    `json:"mirror_jobs_failed"`
	Goroutines               int       `json:"goroutines"`
	GeneratedAt              time.Time `json:"generated_at"`
}
