package domain

// PlatformStats counts requests and issued codes on a single platform.
type PlatformStats struct {
	Requests  int `json:"requests"`
	CodesSent int `json:"codes_sent"`
}

// CreatorStats aggregates interactions attributed to one creator.
type CreatorStats struct {
	CreatorHandle     string                     `json:"creator_handle"`
	TotalRequests     int                        `json:"total_requests"`
	TotalCompleted    int                        `json:"total_completed"`
	PlatformBreakdown map[Platform]PlatformStats `json:"platform_breakdown"`
}

// AnalyticsSummary is the campaign-wide aggregation served by the
// analytics endpoint.
type AnalyticsSummary struct {
	TotalCreators  int                     `json:"total_creators"`
	TotalRequests  int                     `json:"total_requests"`
	TotalCompleted int                     `json:"total_completed"`
	Creators       map[string]CreatorStats `json:"creators"`
}
