package models

import "time"

// ConceptAnalytics holds per-post engagement metrics written by the
// external image pipeline. This service reads it, never writes it.
type ConceptAnalytics struct {
	ID                 uint       `gorm:"primaryKey" json:"id"`
	AyrsharePostID     string     `gorm:"type:text;index:idx_concept_analytics_ayrshare" json:"ayrshare_post_id"`
	Platform           string     `gorm:"size:50" json:"platform"`
	EngagementScore    *float64   `json:"engagement_score,omitempty"`
	Likes              *int64     `json:"likes,omitempty"`
	Comments           *int64     `json:"comments,omitempty"`
	Shares             *int64     `json:"shares,omitempty"`
	Impressions        *int64     `json:"impressions,omitempty"`
	Reach              *int64     `json:"reach,omitempty"`
	Views              *int64     `json:"views,omitempty"`
	AnalyticsFetchedAt *time.Time `json:"analytics_fetched_at,omitempty"`
}

// TableName returns the table name for ConceptAnalytics
func (ConceptAnalytics) TableName() string { return "concept_analytics" }

// ConceptAnalyticsReels is the reels pipeline's counterpart of
// ConceptAnalytics. Same shape, separate table.
type ConceptAnalyticsReels struct {
	ID                 uint       `gorm:"primaryKey" json:"id"`
	AyrsharePostID     string     `gorm:"type:text;index:idx_concept_analytics_reels_ayrshare" json:"ayrshare_post_id"`
	Platform           string     `gorm:"size:50" json:"platform"`
	EngagementScore    *float64   `json:"engagement_score,omitempty"`
	Likes              *int64     `json:"likes,omitempty"`
	Comments           *int64     `json:"comments,omitempty"`
	Shares             *int64     `json:"shares,omitempty"`
	Impressions        *int64     `json:"impressions,omitempty"`
	Reach              *int64     `json:"reach,omitempty"`
	Views              *int64     `json:"views,omitempty"`
	AnalyticsFetchedAt *time.Time `json:"analytics_fetched_at,omitempty"`
}

// TableName returns the table name for ConceptAnalyticsReels
func (ConceptAnalyticsReels) TableName() string { return "concept_analytics_reels" }

// EngagementSources reports which engagement tables exist at read time.
type EngagementSources int

const (
	EngagementSourcesNone EngagementSources = iota
	EngagementSourcesImagesOnly
	EngagementSourcesReelsOnly
	EngagementSourcesBoth
)

// HasImages reports whether the image table is present.
func (s EngagementSources) HasImages() bool {
	return s == EngagementSourcesImagesOnly || s == EngagementSourcesBoth
}

// HasReels reports whether the reels table is present.
func (s EngagementSources) HasReels() bool {
	return s == EngagementSourcesReelsOnly || s == EngagementSourcesBoth
}

// Content type labels used in the unified report.
const (
	ContentTypeImage   = "image"
	ContentTypeReel    = "reel"
	ContentTypeUnknown = "unknown"
)
