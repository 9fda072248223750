package reporting

import "time"

// Common filtering inputs.

type TimeRange struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// RoutingSummaryRequest requests aggregated routing metrics.
// Tenant isolation: TenantID is required.

type RoutingSummaryRequest struct {
	TenantID string    `json:"tenant_id"`
	Range    TimeRange `json:"range"`
}

// ConfidenceBuckets groups route decisions by classifier confidence so that
// drift in model quality shows up without reading individual audit entries.
type ConfidenceBuckets struct {
	Low      int `json:"low"`       // < 0.5
	Medium   int `json:"medium"`    // 0.5 - 0.7
	High     int `json:"high"`      // 0.7 - 0.9
	VeryHigh int `json:"very_high"` // >= 0.9
}

type RoutingSummary struct {
	TenantID string `json:"tenant_id"`

	TotalRoutes int `json:"total_routes"`

	// BySector counts decisions per destination sector, keyed by sector name.
	BySector map[string]int `json:"by_sector"`

	// Fallbacks counts routes that ended in the intake safety net, split by
	// why they fell back.
	ParseFallbacks    int `json:"parse_fallbacks"`
	UpstreamFallbacks int `json:"upstream_fallbacks"`

	// FallbackRate is (parse + upstream fallbacks) / total.
	FallbackRate float64 `json:"fallback_rate"`

	AverageConfidence float64           `json:"average_confidence"`
	Confidence        ConfidenceBuckets `json:"confidence"`
}

// ExecutionSummaryRequest requests aggregated dispatch metrics.

type ExecutionSummaryRequest struct {
	TenantID string    `json:"tenant_id"`
	Range    TimeRange `json:"range"`
}

type ExecutionSummary struct {
	TenantID string `json:"tenant_id"`

	TotalExecutions int `json:"total_executions"`

	// BySector counts executions per sector, keyed by sector name.
	BySector map[string]int `json:"by_sector"`

	Delivered    int `json:"delivered"`
	Unconfigured int `json:"unconfigured"`
	Errored      int `json:"errored"`
}
