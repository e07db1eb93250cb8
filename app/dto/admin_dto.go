// Package dto
package dto

// ResetResponse reports what the admin reset cleared
type ResetResponse struct {
	PostsDeleted  bool `json:"posts_deleted"`
	ClicksDeleted bool `json:"clicks_deleted"`
	StatsReset    bool `json:"stats_reset"`
	LimiterReset  bool `json:"limiter_reset"`
}

// HealthResponse is the service health payload
type HealthResponse struct {
	Status         string `json:"status"`
	Database       string `json:"database"`
	Cache          string `json:"cache"`
	ConfirmedPosts int64  `json:"confirmed_posts"`
	PendingPosts   int64  `json:"pending_posts"`
	TotalClicks    int64  `json:"total_clicks"`
	BotsBlocked    int64  `json:"bots_blocked"`
	LimiterSize    int    `json:"limiter_size"`
	Version        string `json:"version"`
}

// ExportFormat selects the download format for admin exports
// Accepted values: xlsx, csv
type ExportRequest struct {
	Format string `query:"format" validate:"omitempty,oneof=xlsx csv"`
}
