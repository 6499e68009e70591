package models

import "time"

// WorkflowMetrics is the staff-facing summary of matching activity since
// process start.
type WorkflowMetrics struct {
	Requests      RequestMetrics  `json:"requests"`
	Assignments   uint64          `json:"assignments_created"`
	DemosBooked   uint64          `json:"demo_classes_booked"`
	Transitions   uint64          `json:"transitions"`
	Notifications DeliveryMetrics `json:"notifications"`
	Cache         CacheMetrics    `json:"cache"`
	Goroutines    int             `json:"goroutines"`
	GeneratedAt   time.Time       `json:"generated_at"`
}

// RequestMetrics aggregates HTTP traffic.
type RequestMetrics struct {
	Total             uint64  `json:"total"`
	AverageDurationMs float64 `json:"average_duration_ms"`
}

// DeliveryMetrics counts notification outcomes.
type DeliveryMetrics struct {
	Sent   uint64 `json:"sent"`
	Failed uint64 `json:"failed"`
}

// CacheMetrics covers assignment list lookups.
type CacheMetrics struct {
	Hits     uint64  `json:"hits"`
	Misses   uint64  `json:"misses"`
	HitRatio float64 `json:"hit_ratio"`
}
