package dto

// ReferralPostDTO is one post scored through the referral funnel
type ReferralPostDTO struct {
	TrackingID      string  `json:"tracking_id"`
	Username        string  `json:"username"`
	Platform        string  `json:"platform"`
	ConceptKey      *string `json:"concept_key,omitempty"`
	ReferralCode    string  `json:"referral_code"`
	NonaiUserID     *int64  `json:"nonai_user_id,omitempty"`
	Clicks          int64   `json:"clicks"`
	Leads           int64   `json:"leads"`
	Conversions     int64   `json:"conversions"`
	FunnelScore     int64   `json:"funnel_score"`
	LeadToClickRate float64 `json:"lead_to_click_rate"`
	ConversionRate  float64 `json:"conversion_rate"`
	LastSynced      *string `json:"last_synced,omitempty"`
}

// ReferralGroupDTO is one rollup row (by user, concept or platform)
type ReferralGroupDTO struct {
	NonaiUserID      *int64  `json:"nonai_user_id,omitempty"`
	Username         string  `json:"username,omitempty"`
	ConceptKey       string  `json:"concept_key,omitempty"`
	Platform         string  `json:"platform,omitempty"`
	TotalPosts       int64   `json:"total_posts"`
	TotalClicks      int64   `json:"total_link_clicks"`
	TotalLeads       int64   `json:"total_leads"`
	TotalConversions int64   `json:"total_conversions"`
	AvgClicks        float64 `json:"avg_clicks_per_post,omitempty"`
	AvgLeads         float64 `json:"avg_leads_per_post,omitempty"`
}

// ReferralReportResponse is the full referral funnel report
type ReferralReportResponse struct {
	GeneratedAt      string             `json:"generated_at"`
	TotalPosts       int64              `json:"total_posts"`
	TotalClicks      int64              `json:"total_link_clicks"`
	TotalLeads       int64              `json:"total_leads"`
	TotalConversions int64              `json:"total_conversions"`
	Posts            []ReferralPostDTO  `json:"posts"`
	ByUser           []ReferralGroupDTO `json:"by_user"`
	ByConcept        []ReferralGroupDTO `json:"by_concept"`
	ByPlatform       []ReferralGroupDTO `json:"by_platform"`
}

// SyncReferralsResponse summarizes one referral sync run
type SyncReferralsResponse struct {
	CodesTotal         int64 `json:"codes_total"`
	CodesSynced        int64 `json:"codes_synced"`
	CodesSkipped       int64 `json:"codes_skipped"`
	LeadsUpdated       int64 `json:"posts_with_leads_updated"`
	ConversionsUpdated int64 `json:"posts_with_conversions_updated"`
}
