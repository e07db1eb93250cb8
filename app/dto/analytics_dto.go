package dto

// LabelClicksDTO is one (label, clicks) breakdown row
type LabelClicksDTO struct {
	Label  string `json:"label"`
	Clicks int64  `json:"clicks"`
}

// RecentClickDTO is one counted click joined with its post
type RecentClickDTO struct {
	ClickedAt  string  `json:"clicked_at"`
	TrackingID string  `json:"tracking_id"`
	Platform   string  `json:"platform"`
	BadgeType  string  `json:"badge_type"`
	ConceptKey *string `json:"concept_key,omitempty"`
	PostURL    *string `json:"post_url,omitempty"`
	Username   string  `json:"username"`
}

// AnalyticsResponse is the aggregate click dashboard payload
type AnalyticsResponse struct {
	TotalPosts       int64            `json:"total_posts"`
	ConfirmedPosts   int64            `json:"confirmed_posts"`
	PendingPosts     int64            `json:"pending_posts"`
	TotalClicks      int64            `json:"total_clicks"`
	BotsBlocked      int64            `json:"bots_blocked"`
	ClicksByPlatform []LabelClicksDTO `json:"clicks_by_platform"`
	ClicksByBadge    []LabelClicksDTO `json:"clicks_by_badge"`
	RecentClicks     []RecentClickDTO `json:"recent_clicks"`
}

// ConceptStatDTO is one (platform, concept) performance row
type ConceptStatDTO struct {
	ConceptKey      string  `json:"concept_key"`
	TotalPosts      int64   `json:"total_posts"`
	TotalClicks     int64   `json:"total_clicks"`
	AvgClicks       float64 `json:"avg_clicks_per_post"`
	MaxClicks       int64   `json:"max_clicks"`
	PostsWithClicks int64   `json:"posts_with_clicks"`
	ClickRate       float64 `json:"click_rate"`
}

// ConceptClicksResponse groups concept performance per platform
type ConceptClicksResponse struct {
	Platforms       map[string][]ConceptStatDTO `json:"platforms"`
	BestPerPlatform map[string]string           `json:"best_per_platform"`
	TotalConcepts   int64                       `json:"total_concepts_tracked"`
	Totals          []LabelClicksDTO            `json:"totals_by_concept"`
}

// BadgeStatsResponse is the public badge widget payload
type BadgeStatsResponse struct {
	TotalClicks   int64            `json:"total_clicks"`
	ClicksByBadge []LabelClicksDTO `json:"clicks_by_badge"`
}

// RecentClicksResponse returns the newest counted clicks
type RecentClicksResponse struct {
	Clicks []RecentClickDTO `json:"clicks"`
}

// UnifiedPostDTO is one post with link clicks and engagement merged.
// Engagement fields are nil when no engagement row matched the post.
type UnifiedPostDTO struct {
	TrackingID      string   `json:"tracking_id"`
	Platform        string   `json:"platform"`
	ConceptKey      *string  `json:"concept_key,omitempty"`
	PostURL         *string  `json:"post_url,omitempty"`
	LinkClicks      int64    `json:"link_clicks"`
	PostedAt        *string  `json:"posted_at,omitempty"`
	EngagementScore *float64 `json:"engagement_score"`
	Likes           *int64   `json:"likes"`
	Comments        *int64   `json:"comments"`
	Shares          *int64   `json:"shares"`
	Impressions     *int64   `json:"impressions"`
	Reach           *int64   `json:"reach"`
	Views           *int64   `json:"views"`
	CombinedScore   float64  `json:"combined_score"`
	ContentType     string   `json:"content_type"`
	SourceTable     *string  `json:"source_table,omitempty"`
	FetchedAt       *string  `json:"analytics_fetched_at,omitempty"`
}

// UnifiedPlatformSummaryDTO is one platform rollup of the unified report
type UnifiedPlatformSummaryDTO struct {
	Platform         string  `json:"platform"`
	Posts            int64   `json:"posts"`
	TotalClicks      int64   `json:"total_clicks"`
	TotalEngagement  float64 `json:"total_engagement"`
	AvgCombinedScore float64 `json:"avg_combined_score"`
}

// UnifiedConceptSummaryDTO rolls the unified report up per creative concept,
// ranked by combined score, with a per-platform breakdown nested inside
type UnifiedConceptSummaryDTO struct {
	ConceptKey      string                      `json:"concept_key"`
	Posts           int64                       `json:"posts"`
	TotalClicks     int64                       `json:"total_clicks"`
	TotalEngagement float64                     `json:"total_engagement"`
	CombinedScore   float64                     `json:"combined_score"`
	BestPlatform    *string                     `json:"best_platform,omitempty"`
	Platforms       []UnifiedPlatformSummaryDTO `json:"platform_breakdown"`
}

// UnifiedReportResponse merges link clicks with engagement analytics
type UnifiedReportResponse struct {
	GeneratedAt            string                      `json:"generated_at"`
	EngagementSource       string                      `json:"engagement_source"`
	TotalPosts             int64                       `json:"total_posts"`
	TotalClicks            int64                       `json:"total_clicks"`
	TotalEngagement        float64                     `json:"total_engagement"`
	BestPlatform           *string                     `json:"best_platform,omitempty"`
	Platforms              []UnifiedPlatformSummaryDTO `json:"platforms"`
	Concepts               []UnifiedConceptSummaryDTO  `json:"concept_summary"`
	BestConceptPerPlatform map[string]string           `json:"best_concept_per_platform"`
	Posts                  []UnifiedPostDTO            `json:"posts"`
	Cached                 bool                        `json:"cached"`
}
